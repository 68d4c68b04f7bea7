package swap

import (
	"context"
	"fmt"
	"strings"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// Swapper joins two adjacent swap states. It maps positions between their
// address spaces and moves fields between them one step at a time.
type Swapper interface {
	// SwappedOut returns the state closer to the most swapped-out end.
	SwappedOut() *SwapState

	// SwappedIn returns the state closer to the most swapped-in end.
	SwappedIn() *SwapState

	// MapIn maps a position of the swapped-out state to the swapped-in state.
	MapIn(out primitives.Position) (primitives.Position, error)

	// MapOut maps a position of the swapped-in state to the swapped-out state.
	MapOut(in primitives.Position) (primitives.Position, error)

	// ReadIn performs an IN step: swapped-out source, swapped-in destination.
	ReadIn(ctx context.Context, step SwapStep) error

	// WriteOut performs an OUT step: swapped-in source, swapped-out destination.
	WriteOut(ctx context.Context, step SwapStep) error
}

// MappingKind selects how a StandardSwapper maps positions.
type MappingKind string

const (
	// MappingOffset maps in = out + Offset.
	MappingOffset MappingKind = "offset"

	// MappingModulo is direct-mapped: in = out mod Capacity(in). The
	// swapper keeps no tags, so mapping back out only works when the
	// swapped-out state is no larger than the swapped-in one.
	MappingModulo MappingKind = "modulo"
)

// ParseMappingKind accepts a mapping name in any case. Empty means offset.
func ParseMappingKind(s string) (MappingKind, error) {
	switch k := MappingKind(strings.ToLower(strings.TrimSpace(s))); k {
	case MappingOffset, MappingModulo:
		return k, nil
	case "":
		return MappingOffset, nil
	default:
		return "", swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "unknown mapping %q", s).
			WithHint("use offset or modulo")
	}
}

// Mapping configures a StandardSwapper.
type Mapping struct {
	Kind   MappingKind
	Offset int64 // MappingOffset only
}

// StandardSwapper is the stateless Swapper used by configured systems.
type StandardSwapper struct {
	out     *SwapState
	in      *SwapState
	mapping Mapping
}

// NewStandardSwapper joins out (more swapped-out) to in (more swapped-in).
func NewStandardSwapper(out, in *SwapState, mapping Mapping) (*StandardSwapper, error) {
	if out == nil || in == nil {
		return nil, swaperr.IllegalArgument("swapper states cannot be nil").In("NewStandardSwapper", "Swapper")
	}
	if out == in {
		return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeDuplicateState, "swapper joins a state to itself").
			WithDetail("state %q", out.Name()).
			In("NewStandardSwapper", "Swapper")
	}

	switch mapping.Kind {
	case "":
		mapping.Kind = MappingOffset
	case MappingOffset, MappingModulo:
	default:
		return nil, swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "unknown mapping %q", mapping.Kind).
			In("NewStandardSwapper", "Swapper")
	}
	if mapping.Kind == MappingModulo && mapping.Offset != 0 {
		return nil, swaperr.New(swaperr.CategoryConfig, swaperr.CodeInvalidConfig, "modulo mapping takes no offset").
			In("NewStandardSwapper", "Swapper")
	}

	return &StandardSwapper{out: out, in: in, mapping: mapping}, nil
}

func (s *StandardSwapper) SwappedOut() *SwapState { return s.out }
func (s *StandardSwapper) SwappedIn() *SwapState  { return s.in }
func (s *StandardSwapper) Mapping() Mapping       { return s.mapping }

func (s *StandardSwapper) String() string {
	return fmt.Sprintf("%s->%s", s.out.Name(), s.in.Name())
}

func outOfRange(op string, state *SwapState, pos primitives.Position) error {
	return swaperr.New(swaperr.CategoryUser, swaperr.CodeRegionOutOfRange, "mapped position outside address space").
		WithDetail("state %q covers %s, got %d", state.Name(), state.AddressSpace(), pos).
		In(op, "Swapper")
}

func (s *StandardSwapper) MapIn(out primitives.Position) (primitives.Position, error) {
	if !s.out.AddressSpace().Contains(out) {
		return 0, outOfRange("MapIn", s.out, out)
	}

	var in primitives.Position
	switch s.mapping.Kind {
	case MappingModulo:
		in = out % primitives.Position(s.in.Capacity())
	default:
		r, ok := primitives.NewRegion(out, 1).Shift(s.mapping.Offset)
		if !ok {
			return 0, outOfRange("MapIn", s.in, out)
		}
		in = r.Start
	}

	if !s.in.AddressSpace().Contains(in) {
		return 0, outOfRange("MapIn", s.in, in)
	}
	return in, nil
}

// Invertible reports whether every swapped-in position has exactly one
// swapped-out origin.
func (s *StandardSwapper) Invertible() bool {
	return s.mapping.Kind != MappingModulo || s.out.Capacity() <= s.in.Capacity()
}

func (s *StandardSwapper) MapOut(in primitives.Position) (primitives.Position, error) {
	if !s.in.AddressSpace().Contains(in) {
		return 0, outOfRange("MapOut", s.in, in)
	}

	var out primitives.Position
	switch s.mapping.Kind {
	case MappingModulo:
		if !s.Invertible() {
			return 0, swaperr.IllegalArgument("direct-mapped position %d of %q has %d possible origins in %q",
				in, s.in.Name(), s.out.Capacity()/s.in.Capacity(), s.out.Name()).
				WithHint("write back the operation that swapped the fields in").
				In("MapOut", "Swapper")
		}
		out = in
	default:
		r, ok := primitives.NewRegion(in, 1).Shift(-s.mapping.Offset)
		if !ok {
			return 0, outOfRange("MapOut", s.out, in)
		}
		out = r.Start
	}

	if !s.out.AddressSpace().Contains(out) {
		return 0, outOfRange("MapOut", s.out, out)
	}
	return out, nil
}

func (s *StandardSwapper) ReadIn(ctx context.Context, step SwapStep) error {
	if err := s.checkStep(step, primitives.DirectionIn, s.out, s.in, "ReadIn"); err != nil {
		return err
	}
	return s.transfer(ctx, step, "ReadIn")
}

func (s *StandardSwapper) WriteOut(ctx context.Context, step SwapStep) error {
	if err := s.checkStep(step, primitives.DirectionOut, s.in, s.out, "WriteOut"); err != nil {
		return err
	}
	return s.transfer(ctx, step, "WriteOut")
}

func (s *StandardSwapper) checkStep(step SwapStep, dir primitives.Direction, from, to *SwapState, op string) error {
	mismatch := func(format string, args ...any) error {
		return swaperr.New(swaperr.CategoryUser, swaperr.CodeStepMismatch, "step does not fit swapper").
			WithDetail(format, args...).
			In(op, "Swapper")
	}

	if step.Swapper != Swapper(s) {
		return mismatch("step belongs to swapper %v, not %s", step.Swapper, s)
	}
	if step.Direction != dir {
		return mismatch("step direction %s, want %s", step.Direction, dir)
	}
	if step.Source.State != from || step.Destination.State != to {
		return mismatch("step moves %s to %s, swapper moves %s to %s",
			step.Source, step.Destination, from.Name(), to.Name())
	}
	if step.SourceRegion.Length != step.DestinationRegion.Length || step.SourceRegion.IsEmpty() {
		return mismatch("source region %s and destination region %s differ in length",
			step.SourceRegion, step.DestinationRegion)
	}
	if uint64(step.SourceRegion.End()) > from.PageSize() || uint64(step.DestinationRegion.End()) > to.PageSize() {
		return mismatch("regions %s / %s exceed page sizes %d / %d",
			step.SourceRegion, step.DestinationRegion, from.PageSize(), to.PageSize())
	}
	return nil
}

// transfer copies the step's source region into its destination region,
// read-modify-writing the destination page.
func (s *StandardSwapper) transfer(ctx context.Context, step SwapStep, op string) error {
	if err := ctx.Err(); err != nil {
		return swaperr.New(swaperr.CategoryTransient, swaperr.CodeOperationCancelled, "swap step cancelled").
			In(op, "Swapper")
	}

	src, err := step.Source.State.LoadPage(step.Source.Number)
	if err != nil {
		return swaperr.Wrap(err, swaperr.CodeStoreIO, op, "Swapper")
	}
	dst, err := step.Destination.State.LoadPage(step.Destination.Number)
	if err != nil {
		return swaperr.Wrap(err, swaperr.CodeStoreIO, op, "Swapper")
	}

	copy(dst.Slice(step.DestinationRegion), src.Slice(step.SourceRegion))

	if err := step.Destination.State.StorePage(dst); err != nil {
		return swaperr.Wrap(err, swaperr.CodeStoreIO, op, "Swapper")
	}

	logging.WithPage(step.Destination.State.Name(), step.Destination.Number).Debug("swap step done",
		"op", op, "source", step.Source.String(), "fields", step.SourceRegion.Length)
	return nil
}
