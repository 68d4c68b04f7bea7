package swap

import (
	"runtime"

	"github.com/google/uuid"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// StandardSwapSystem orders its swap states from most swapped-out to most
// swapped-in and plans transfers between any two of them.
//
// Planning is pure and safe for concurrent use. Execute is safe for
// concurrent use as long as concurrent operations touch disjoint pages.
type StandardSwapSystem struct {
	swappers []Swapper
	states   []*SwapState
	index    map[*SwapState]int
	byName   map[string]*SwapState
	smallest uint64
	largest  uint64
	workers  int
}

// Option configures a StandardSwapSystem.
type Option func(*StandardSwapSystem)

// WithWorkers bounds how many destination pages Execute fills in parallel
// within one hop. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(s *StandardSwapSystem) {
		s.workers = max(n, 1)
	}
}

// NewStandardSwapSystem builds a system from a chain of swappers, ordered
// from the most swapped-out pair to the most swapped-in pair.
//
// The chain is rejected when it is empty or discontinuous, when a state
// appears twice, when a page size is not the smallest page size times a
// power of two, or when a state's capacity is not a multiple of the largest
// page size.
func NewStandardSwapSystem(swappers []Swapper, opts ...Option) (*StandardSwapSystem, error) {
	const op, component = "NewStandardSwapSystem", "SwapSystem"

	if len(swappers) == 0 {
		return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "swap system needs at least one swapper").
			In(op, component)
	}

	states := make([]*SwapState, 0, len(swappers)+1)
	for i, sw := range swappers {
		if sw == nil || sw.SwappedOut() == nil || sw.SwappedIn() == nil {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "swapper or its states are nil").
				WithDetail("swapper %d", i).
				In(op, component)
		}
		if i == 0 {
			states = append(states, sw.SwappedOut())
		} else if prev := swappers[i-1].SwappedIn(); prev != sw.SwappedOut() {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeChainDiscontinuous, "swapper chain is discontinuous").
				WithDetail("swapper %d swaps in to %q but swapper %d swaps out from %q",
					i-1, prev.Name(), i, sw.SwappedOut().Name()).
				In(op, component)
		}
		states = append(states, sw.SwappedIn())
	}

	s := &StandardSwapSystem{
		swappers: append([]Swapper(nil), swappers...),
		states:   states,
		index:    make(map[*SwapState]int, len(states)),
		byName:   make(map[string]*SwapState, len(states)),
		workers:  runtime.GOMAXPROCS(0),
	}

	for i, st := range states {
		if _, dup := s.index[st]; dup {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeDuplicateState, "swap state appears twice in the chain").
				WithDetail("state %q", st.Name()).
				In(op, component)
		}
		if _, dup := s.byName[st.Name()]; dup {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeDuplicateState, "two swap states share a name").
				WithDetail("state %q", st.Name()).
				In(op, component)
		}
		s.index[st] = i
		s.byName[st.Name()] = st

		if s.smallest == 0 || st.PageSize() < s.smallest {
			s.smallest = st.PageSize()
		}
		s.largest = max(s.largest, st.PageSize())
	}

	for _, st := range states {
		if _, ok := primitives.PowerOfTwoRatio(s.smallest, st.PageSize()); !ok {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodePageSizeNotPowerOfTwo,
				"page size is not related to the smallest page size by a power of two").
				WithDetail("state %q has page size %d, smallest is %d", st.Name(), st.PageSize(), s.smallest).
				In(op, component)
		}
	}

	// aligned windows must never straddle the end of an address space
	for _, st := range states {
		if st.Capacity()%s.largest != 0 {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeCapacityMisaligned,
				"capacity is not a multiple of the largest page size").
				WithDetail("state %q holds %d fields, largest page size is %d", st.Name(), st.Capacity(), s.largest).
				In(op, component)
		}
	}

	// offsets must keep windows aligned in every state they pass through
	for _, sw := range s.swappers {
		std, ok := sw.(*StandardSwapper)
		if !ok || std.mapping.Kind != MappingOffset {
			continue
		}
		if std.mapping.Offset%int64(s.largest) != 0 {
			return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeInvalidConfig,
				"swapper offset is not a multiple of the largest page size").
				WithDetail("swapper %s offset %d, largest page size %d", std, std.mapping.Offset, s.largest).
				In(op, component)
		}
	}

	for _, o := range opts {
		o(s)
	}

	logging.WithComponent(component).Debug("swap system ready",
		"states", len(s.states), "smallest_page", s.smallest, "largest_page", s.largest)
	return s, nil
}

// States returns the states from most swapped-out to most swapped-in.
func (s *StandardSwapSystem) States() []*SwapState {
	return append([]*SwapState(nil), s.states...)
}

// Swappers returns the swapper chain.
func (s *StandardSwapSystem) Swappers() []Swapper {
	return append([]Swapper(nil), s.swappers...)
}

// State looks a state up by name.
func (s *StandardSwapSystem) State(name string) (*SwapState, bool) {
	st, ok := s.byName[name]
	return st, ok
}

// IndexOf returns the state's position in the chain, or -1.
func (s *StandardSwapSystem) IndexOf(state *SwapState) int {
	if i, ok := s.index[state]; ok {
		return i
	}
	return -1
}

func (s *StandardSwapSystem) SmallestPageSize() uint64 { return s.smallest }
func (s *StandardSwapSystem) LargestPageSize() uint64  { return s.largest }
func (s *StandardSwapSystem) Workers() int             { return s.workers }

func (s *StandardSwapSystem) checkState(state *SwapState, role, op string) (int, error) {
	if state == nil {
		return -1, swaperr.IllegalArgument("%s state cannot be nil", role).In(op, "SwapSystem")
	}
	i := s.IndexOf(state)
	if i < 0 {
		return -1, swaperr.IllegalArgument("%s state %q is not part of this swap system", role, state.Name()).
			In(op, "SwapSystem")
	}
	return i, nil
}

// CreateSwapOperation plans moving region, given in current's address space,
// to target.
//
// The region is widened to the largest page size among the states on the
// way, then walked one hop at a time. A hop between page sizes f and t
// yields max(window/f, window/t) steps, each mapping a whole smaller page
// onto the matching slice of a larger one. Planning from a state to itself
// yields an empty operation.
func (s *StandardSwapSystem) CreateSwapOperation(region primitives.Region, current, target *SwapState) (*SwapOperation, error) {
	const op = "CreateSwapOperation"

	ci, err := s.checkState(current, "current", op)
	if err != nil {
		return nil, s.planFailed(err)
	}
	ti, err := s.checkState(target, "target", op)
	if err != nil {
		return nil, s.planFailed(err)
	}
	if err := current.checkRegion(region, op); err != nil {
		return nil, s.planFailed(err)
	}

	result := &SwapOperation{
		ID:        uuid.New(),
		Direction: primitives.DirectionNone,
		From:      current,
		To:        target,
		Region:    region,
	}

	if ci == ti {
		result.Window = region.Align(current.PageSize())
		result.RelativeSwapSize = result.Window.Length / s.smallest
		result.Path = []*SwapState{current}
		result.Windows = []primitives.Region{result.Window}
		operationsPlanned.WithLabelValues(result.Direction.String()).Inc()
		return result, nil
	}

	dir := primitives.DirectionIn
	if ci > ti {
		dir = primitives.DirectionOut
	}
	result.Direction = dir

	lo, hi := min(ci, ti), max(ci, ti)
	var unit uint64
	for _, st := range s.states[lo : hi+1] {
		unit = max(unit, st.PageSize())
	}

	window := region.Align(unit)
	result.Window = window
	result.RelativeSwapSize = window.Length / s.smallest
	result.Path = []*SwapState{current}
	result.Windows = []primitives.Region{window}

	log := logging.WithOperation(result.ID.String())
	log.Debug("planning swap operation",
		"direction", dir.String(), "from", current.Name(), "to", target.Name(),
		"window", window.String(), "relative_swap_size", result.RelativeSwapSize)

	// every hop moves one state closer to the target; a sound chain needs
	// fewer hops than there are states
	loopProtector := len(s.states)

	cur, win := current, window
	for hops := 0; cur != target; hops++ {
		if hops >= loopProtector {
			return nil, s.planFailed(swaperr.New(swaperr.CategoryConfig, swaperr.CodeSwapChainBroken,
				"swap chain did not reach the target state").
				WithDetail("gave up after %d hops from %q toward %q, stuck at %q",
					hops, current.Name(), target.Name(), cur.Name()).
				In(op, "SwapSystem"))
		}

		sw, next := s.adjacent(cur, dir)
		if sw == nil {
			return nil, s.planFailed(swaperr.New(swaperr.CategoryConfig, swaperr.CodeSwapChainBroken,
				"no swapper leads on from state").
				WithDetail("state %q, direction %s", cur.Name(), dir).
				In(op, "SwapSystem"))
		}

		nextWin, err := s.mapWindow(sw, dir, win, next, unit)
		if err != nil {
			return nil, s.planFailed(err)
		}

		result.Steps = append(result.Steps, planHop(sw, dir, cur, win, next, nextWin)...)
		result.Path = append(result.Path, next)
		result.Windows = append(result.Windows, nextWin)

		cur, win = next, nextWin
	}

	operationsPlanned.WithLabelValues(dir.String()).Inc()
	log.Debug("planned swap operation", "steps", len(result.Steps), "hops", len(result.Path)-1)
	return result, nil
}

func (s *StandardSwapSystem) planFailed(err error) error {
	planErrors.WithLabelValues(swaperr.CodeOf(err)).Inc()
	logging.WithError(err).Debug("swap planning failed")
	return err
}

// adjacent finds the swapper leading from cur in direction dir, and the
// state it leads to. Swappers are asked afresh on every hop.
func (s *StandardSwapSystem) adjacent(cur *SwapState, dir primitives.Direction) (Swapper, *SwapState) {
	for _, sw := range s.swappers {
		if dir == primitives.DirectionIn && sw.SwappedOut() == cur {
			return sw, sw.SwappedIn()
		}
		if dir == primitives.DirectionOut && sw.SwappedIn() == cur {
			return sw, sw.SwappedOut()
		}
	}
	return nil, nil
}

// mapWindow maps win through sw and checks the result is a usable window of next.
func (s *StandardSwapSystem) mapWindow(sw Swapper, dir primitives.Direction, win primitives.Region, next *SwapState, unit uint64) (primitives.Region, error) {
	var (
		start primitives.Position
		err   error
	)
	if dir == primitives.DirectionIn {
		start, err = sw.MapIn(win.Start)
	} else {
		start, err = sw.MapOut(win.Start)
	}
	if err != nil {
		return primitives.Region{}, swaperr.Wrap(err, swaperr.CodeRegionOutOfRange, "CreateSwapOperation", "SwapSystem")
	}

	mapped := primitives.NewRegion(start, win.Length)
	if !next.AddressSpace().ContainsRegion(mapped) {
		return primitives.Region{}, swaperr.New(swaperr.CategoryUser, swaperr.CodeRegionOutOfRange,
			"swap window does not fit the next state").
			WithDetail("window %s mapped to %s, state %q covers %s", win, mapped, next.Name(), next.AddressSpace()).
			WithHint("use a smaller region or one that does not wrap a direct-mapped state").
			In("CreateSwapOperation", "SwapSystem")
	}
	if !mapped.IsAligned(unit) {
		return primitives.Region{}, swaperr.IllegalArgument("swap window %s mapped to unaligned %s in state %q",
			win, mapped, next.Name()).In("CreateSwapOperation", "SwapSystem")
	}
	return mapped, nil
}

// planHop emits the steps of one hop. Both windows are aligned to both page
// sizes, so each step covers exactly one smaller page and the steps tile
// both windows without gaps or overlaps.
func planHop(sw Swapper, dir primitives.Direction, from *SwapState, fromWin primitives.Region, to *SwapState, toWin primitives.Region) []SwapStep {
	fromSize, toSize := from.PageSize(), to.PageSize()
	fromPagesToSwap := fromWin.Length / fromSize
	toPagesToSwap := toWin.Length / toSize
	numSteps := max(fromPagesToSwap, toPagesToSwap)
	stepLen := min(fromSize, toSize)

	firstFrom := from.PageNumberOf(fromWin.Start)
	firstTo := to.PageNumberOf(toWin.Start)

	steps := make([]SwapStep, 0, numSteps)
	for i := uint64(0); i < numSteps; i++ {
		off := i * stepLen
		steps = append(steps, SwapStep{
			Swapper:   sw,
			Direction: dir,
			Source: PageRef{
				State:  from,
				Number: firstFrom + primitives.PageNumber(off/fromSize),
			},
			SourceRegion: primitives.NewRegion(primitives.Position(off%fromSize), stepLen),
			Destination: PageRef{
				State:  to,
				Number: firstTo + primitives.PageNumber(off/toSize),
			},
			DestinationRegion: primitives.NewRegion(primitives.Position(off%toSize), stepLen),
		})
	}
	return steps
}
