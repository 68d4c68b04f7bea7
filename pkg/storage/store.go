package storage

import (
	"fmt"
	"strings"

	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// Kind names a store implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindCache  Kind = "cache"
	KindFile   Kind = "file"
	KindBadger Kind = "badger"
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMemory, KindCache, KindFile, KindBadger:
		return k, nil
	default:
		return "", swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeUnknownStoreKind,
			"unknown store kind %q", s).
			WithHint("use one of memory, cache, file, badger")
	}
}

// Store keeps the pages of one swap state.
//
// Pages never written read back as absent. Implementations copy data on the
// way in and on the way out, so callers may reuse their buffers.
type Store interface {
	// Kind returns the implementation name.
	Kind() Kind

	// PageSize returns the number of fields in every page of this store.
	PageSize() int

	// ReadPage returns a copy of page n and true, or nil and false when the
	// store does not hold it.
	ReadPage(n primitives.PageNumber) ([]byte, bool, error)

	// WritePage stores data as page n. len(data) must equal PageSize.
	WritePage(n primitives.PageNumber, data []byte) error

	// Pages lists the page numbers currently held, in ascending order.
	Pages() ([]primitives.PageNumber, error)

	// Close releases the store's resources. Further calls fail.
	Close() error
}

func checkPageSize(component string, pageSize int, data []byte) error {
	if len(data) != pageSize {
		return swaperr.New(swaperr.CategoryUser, swaperr.CodePageSizeMismatch, "invalid page data size").
			WithDetail("expected %d, got %d", pageSize, len(data)).
			In("WritePage", component)
	}
	return nil
}

func validatePageSize(pageSize int) error {
	if pageSize <= 0 {
		return swaperr.IllegalArgument("page size must be positive, got %d", pageSize)
	}
	return nil
}

func errClosed(component, op string) error {
	return swaperr.New(swaperr.CategorySystem, swaperr.CodeStoreIO, fmt.Sprintf("%s is closed", component)).
		In(op, component)
}
