package swap

import (
	"fmt"
	"math/bits"

	"tierswap/pkg/primitives"
	"tierswap/pkg/storage"
	"tierswap/pkg/swaperr"
)

// SwapState is one tier of backing storage: a fixed page size, an address
// space of numPages pages, and the store holding them.
//
// SwapStates are immutable and compared by identity.
type SwapState struct {
	name     string
	pageSize uint64
	numPages uint64
	store    storage.Store
}

// NewSwapState creates a state. The store's page size must equal pageSize.
func NewSwapState(name string, pageSize, numPages uint64, store storage.Store) (*SwapState, error) {
	if name == "" {
		return nil, swaperr.IllegalArgument("swap state name cannot be empty").In("NewSwapState", "SwapState")
	}
	if pageSize == 0 {
		return nil, swaperr.IllegalArgument("swap state %q: page size must be positive", name).In("NewSwapState", "SwapState")
	}
	if numPages == 0 {
		return nil, swaperr.IllegalArgument("swap state %q: number of pages must be positive", name).In("NewSwapState", "SwapState")
	}
	if hi, _ := bits.Mul64(pageSize, numPages); hi != 0 {
		return nil, swaperr.IllegalArgument("swap state %q: capacity of %d pages of %d fields overflows", name, numPages, pageSize).In("NewSwapState", "SwapState")
	}
	if store == nil {
		return nil, swaperr.IllegalArgument("swap state %q: store cannot be nil", name).In("NewSwapState", "SwapState")
	}
	if uint64(store.PageSize()) != pageSize {
		return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodePageSizeMismatch, "store page size differs from swap state page size").
			WithDetail("state %q: state %d, %s store %d", name, pageSize, store.Kind(), store.PageSize()).
			In("NewSwapState", "SwapState")
	}

	return &SwapState{
		name:     name,
		pageSize: pageSize,
		numPages: numPages,
		store:    store,
	}, nil
}

func (s *SwapState) Name() string         { return s.name }
func (s *SwapState) PageSize() uint64     { return s.pageSize }
func (s *SwapState) NumPages() uint64     { return s.numPages }
func (s *SwapState) Store() storage.Store { return s.store }
func (s *SwapState) String() string       { return s.name }

// Capacity is the size of the address space in fields.
func (s *SwapState) Capacity() uint64 {
	return s.pageSize * s.numPages
}

// AddressSpace returns [0, Capacity).
func (s *SwapState) AddressSpace() primitives.Region {
	return primitives.NewRegion(0, s.Capacity())
}

// PageNumberOf returns the page holding pos.
func (s *SwapState) PageNumberOf(pos primitives.Position) primitives.PageNumber {
	return primitives.PageNumber(uint64(pos) / s.pageSize)
}

// PageStart returns the first position of page n.
func (s *SwapState) PageStart(n primitives.PageNumber) primitives.Position {
	return primitives.Position(uint64(n) * s.pageSize)
}

// PageRegion returns the absolute region covered by page n.
func (s *SwapState) PageRegion(n primitives.PageNumber) primitives.Region {
	return primitives.NewRegion(s.PageStart(n), s.pageSize)
}

func (s *SwapState) checkPage(n primitives.PageNumber, op string) error {
	if uint64(n) >= s.numPages {
		return swaperr.New(swaperr.CategoryUser, swaperr.CodeRegionOutOfRange, "page number outside address space").
			WithDetail("state %q has %d pages, got page %d", s.name, s.numPages, n).
			In(op, "SwapState")
	}
	return nil
}

// CreatePage returns a zero-filled page n of this state. It does not touch
// the store.
func (s *SwapState) CreatePage(n primitives.PageNumber) (*Page, error) {
	if err := s.checkPage(n, "CreatePage"); err != nil {
		return nil, err
	}
	return &Page{State: s, Number: n, Data: make([]byte, s.pageSize)}, nil
}

// LoadPage reads page n from the store, or creates it when the store does
// not hold it yet.
func (s *SwapState) LoadPage(n primitives.PageNumber) (*Page, error) {
	if err := s.checkPage(n, "LoadPage"); err != nil {
		return nil, err
	}

	data, ok, err := s.store.ReadPage(n)
	if err != nil {
		return nil, swaperr.Wrap(err, swaperr.CodeStoreIO, "LoadPage", "SwapState")
	}
	if !ok {
		return s.CreatePage(n)
	}
	return &Page{State: s, Number: n, Data: data}, nil
}

// StorePage writes p back to the store. p must belong to this state.
func (s *SwapState) StorePage(p *Page) error {
	if p == nil || p.State != s {
		return swaperr.IllegalArgument("page does not belong to state %q", s.name).In("StorePage", "SwapState")
	}
	if err := s.checkPage(p.Number, "StorePage"); err != nil {
		return err
	}
	if err := s.store.WritePage(p.Number, p.Data); err != nil {
		return swaperr.Wrap(err, swaperr.CodeStoreIO, "StorePage", "SwapState")
	}
	return nil
}

// CheckRegion reports whether r is a non-empty region inside the address
// space.
func (s *SwapState) CheckRegion(r primitives.Region) error {
	return s.checkRegion(r, "CheckRegion")
}

func (s *SwapState) checkRegion(r primitives.Region, op string) error {
	if r.IsEmpty() {
		return swaperr.IllegalArgument("region %s is empty", r).In(op, "SwapState")
	}
	if r.Overflows() {
		return swaperr.IllegalArgument("region of %d fields at %d overflows the position range", r.Length, r.Start).In(op, "SwapState")
	}
	if !s.AddressSpace().ContainsRegion(r) {
		return swaperr.New(swaperr.CategoryUser, swaperr.CodeRegionOutOfRange, "region outside address space").
			WithDetail("state %q covers %s, got %s", s.name, s.AddressSpace(), r).
			In(op, "SwapState")
	}
	return nil
}

// forEachPage calls fn for every page overlapping r with the page and the
// part of r inside it, in both page-relative and region-relative form.
func (s *SwapState) forEachPage(r primitives.Region, fn func(n primitives.PageNumber, inPage primitives.Region, offset uint64) error) error {
	first := s.PageNumberOf(r.Start)
	last := s.PageNumberOf(r.End() - 1)

	for n := first; n <= last; n++ {
		part := r.Intersect(s.PageRegion(n))
		inPage := primitives.NewRegion(part.Start-s.PageStart(n), part.Length)
		if err := fn(n, inPage, uint64(part.Start-r.Start)); err != nil {
			return err
		}
	}
	return nil
}

// ReadRegion returns the fields of r. Pages the store does not hold read as
// zeros.
func (s *SwapState) ReadRegion(r primitives.Region) ([]byte, error) {
	if err := s.checkRegion(r, "ReadRegion"); err != nil {
		return nil, err
	}

	out := make([]byte, r.Length)
	err := s.forEachPage(r, func(n primitives.PageNumber, inPage primitives.Region, offset uint64) error {
		p, err := s.LoadPage(n)
		if err != nil {
			return err
		}
		copy(out[offset:], p.Slice(inPage))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteRegion stores data starting at pos, read-modify-writing partial pages.
func (s *SwapState) WriteRegion(pos primitives.Position, data []byte) error {
	r := primitives.NewRegion(pos, uint64(len(data)))
	if err := s.checkRegion(r, "WriteRegion"); err != nil {
		return err
	}

	return s.forEachPage(r, func(n primitives.PageNumber, inPage primitives.Region, offset uint64) error {
		p, err := s.LoadPage(n)
		if err != nil {
			return err
		}
		copy(p.Slice(inPage), data[offset:offset+inPage.Length])
		return s.StorePage(p)
	})
}

// Page is one fixed-size unit of a swap state's storage.
type Page struct {
	State  *SwapState
	Number primitives.PageNumber
	Data   []byte
}

// Position returns the page's first field in its state's address space.
func (p *Page) Position() primitives.Position {
	return p.State.PageStart(p.Number)
}

// Region returns the absolute region covered by the page.
func (p *Page) Region() primitives.Region {
	return p.State.PageRegion(p.Number)
}

// Ref returns the page's identity.
func (p *Page) Ref() PageRef {
	return PageRef{State: p.State, Number: p.Number}
}

// Slice returns the page-relative fields of r, sharing the page's buffer.
// It panics when r does not fit in the page.
func (p *Page) Slice(r primitives.Region) []byte {
	if uint64(r.End()) > uint64(len(p.Data)) {
		panic(fmt.Sprintf("region %s outside page of %d fields", r, len(p.Data)))
	}
	return p.Data[r.Start:r.End()]
}

// PageRef names a page without holding its data.
type PageRef struct {
	State  *SwapState
	Number primitives.PageNumber
}

func (r PageRef) String() string {
	if r.State == nil {
		return fmt.Sprintf("?#%d", r.Number)
	}
	return fmt.Sprintf("%s#%d", r.State.name, r.Number)
}
