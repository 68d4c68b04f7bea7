package primitives

import (
	"fmt"
	"math"
)

// Region is the half-open field range [Start, Start+Length).
//
// Regions are used both in absolute form (positions in a state's address
// space) and in page-relative form (offsets inside a single page).
type Region struct {
	Start  Position
	Length uint64
}

// NewRegion creates a region starting at start covering length fields.
func NewRegion(start Position, length uint64) Region {
	return Region{Start: start, Length: length}
}

// RegionBetween creates the region [start, end). It panics if end < start.
func RegionBetween(start, end Position) Region {
	if end < start {
		panic(fmt.Sprintf("region end %d before start %d", end, start))
	}
	return Region{Start: start, Length: uint64(end - start)}
}

// End returns the first position past the region.
func (r Region) End() Position {
	return r.Start + Position(r.Length)
}

// IsEmpty reports whether the region covers no fields.
func (r Region) IsEmpty() bool {
	return r.Length == 0
}

// Contains reports whether pos lies inside the region.
func (r Region) Contains(pos Position) bool {
	return pos >= r.Start && pos < r.End()
}

// ContainsRegion reports whether other lies entirely inside r.
// An empty region is contained by every region.
func (r Region) ContainsRegion(other Region) bool {
	if other.IsEmpty() {
		return true
	}
	if other.Overflows() || other.Start < r.Start || other.Start > r.End() {
		return false
	}
	return other.Length <= uint64(r.End()-other.Start)
}

// Overflows reports whether the region's end does not fit in a Position.
func (r Region) Overflows() bool {
	return r.Length > math.MaxUint64-uint64(r.Start)
}

// Overlaps reports whether the two regions share at least one field.
func (r Region) Overlaps(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Start < other.End() && other.Start < r.End()
}

// Intersect returns the overlap of the two regions, or an empty region
// positioned at r.Start when they do not overlap.
func (r Region) Intersect(other Region) Region {
	if !r.Overlaps(other) {
		return Region{Start: r.Start}
	}
	start := max(r.Start, other.Start)
	end := min(r.End(), other.End())
	return RegionBetween(start, end)
}

// Align widens the region so both ends fall on multiples of size.
// The start rounds down and the end rounds up. size must be non-zero.
func (r Region) Align(size uint64) Region {
	s := uint64(r.Start) / size * size
	e := (uint64(r.End()) + size - 1) / size * size
	return Region{Start: Position(s), Length: e - s}
}

// IsAligned reports whether both ends of the region fall on multiples of size.
func (r Region) IsAligned(size uint64) bool {
	return uint64(r.Start)%size == 0 && r.Length%size == 0
}

// Shift moves the region by delta fields. It reports false when the shifted
// start would fall below zero or overflow.
func (r Region) Shift(delta int64) (Region, bool) {
	if delta < 0 {
		d := uint64(-delta)
		if uint64(r.Start) < d {
			return r, false
		}
		return Region{Start: r.Start - Position(d), Length: r.Length}, true
	}
	start := uint64(r.Start) + uint64(delta)
	if start < uint64(r.Start) {
		return r, false
	}
	return Region{Start: Position(start), Length: r.Length}, true
}

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End())
}
