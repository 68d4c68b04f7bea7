package primitives

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegion_Basics(t *testing.T) {
	r := NewRegion(100, 50)

	assert.Equal(t, Position(150), r.End())
	assert.False(t, r.IsEmpty())
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(149))
	assert.False(t, r.Contains(150))
	assert.False(t, r.Contains(99))
	assert.Equal(t, "[100,150)", r.String())
	assert.True(t, NewRegion(7, 0).IsEmpty())
}

func TestRegion_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Region
		expected bool
	}{
		{"disjoint", NewRegion(0, 10), NewRegion(10, 10), false},
		{"partial", NewRegion(0, 10), NewRegion(5, 10), true},
		{"nested", NewRegion(0, 100), NewRegion(40, 2), true},
		{"empty never overlaps", NewRegion(0, 10), NewRegion(5, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a))
		})
	}
}

func TestRegion_Intersect(t *testing.T) {
	got := NewRegion(0, 10).Intersect(NewRegion(5, 10))
	assert.Equal(t, NewRegion(5, 5), got)

	none := NewRegion(0, 10).Intersect(NewRegion(20, 5))
	assert.True(t, none.IsEmpty())
}

func TestRegion_ContainsRegion(t *testing.T) {
	outer := NewRegion(64, 64)
	assert.True(t, outer.ContainsRegion(NewRegion(64, 64)))
	assert.True(t, outer.ContainsRegion(NewRegion(70, 10)))
	assert.False(t, outer.ContainsRegion(NewRegion(60, 10)))
	assert.False(t, outer.ContainsRegion(NewRegion(120, 10)))
	assert.True(t, outer.ContainsRegion(NewRegion(0, 0)))
}

func TestRegion_ContainsRegion_WrappingEnd(t *testing.T) {
	space := NewRegion(0, 16384)

	tests := []struct {
		name  string
		inner Region
		want  bool
	}{
		{"end wraps to small value", NewRegion(10, math.MaxUint64-4), false},
		{"end wraps to zero", NewRegion(1, math.MaxUint64), false},
		{"maximal length from zero", NewRegion(0, math.MaxUint64), false},
		{"start past end", NewRegion(16385, 1), false},
		{"ends exactly at end", NewRegion(16000, 384), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, space.ContainsRegion(tt.inner))
		})
	}
}

func TestRegion_Overflows(t *testing.T) {
	assert.False(t, NewRegion(0, math.MaxUint64).Overflows())
	assert.True(t, NewRegion(1, math.MaxUint64).Overflows())
	assert.True(t, NewRegion(10, math.MaxUint64-4).Overflows())
	assert.False(t, NewRegion(10, math.MaxUint64-10).Overflows())
}

func TestRegion_Align(t *testing.T) {
	tests := []struct {
		name     string
		in       Region
		size     uint64
		expected Region
	}{
		{"already aligned", NewRegion(256, 256), 256, NewRegion(256, 256)},
		{"inside one page", NewRegion(300, 10), 256, NewRegion(256, 256)},
		{"straddles two pages", NewRegion(250, 10), 256, NewRegion(0, 512)},
		{"larger unit", NewRegion(4097, 1), 4096, NewRegion(4096, 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Align(tt.size)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.IsAligned(tt.size))
			assert.True(t, got.ContainsRegion(tt.in))
		})
	}
}

func TestRegion_Shift(t *testing.T) {
	r := NewRegion(100, 10)

	up, ok := r.Shift(50)
	assert.True(t, ok)
	assert.Equal(t, NewRegion(150, 10), up)

	down, ok := r.Shift(-100)
	assert.True(t, ok)
	assert.Equal(t, NewRegion(0, 10), down)

	_, ok = r.Shift(-101)
	assert.False(t, ok)
}

func TestRegionBetween_PanicsOnInvertedBounds(t *testing.T) {
	assert.Panics(t, func() { RegionBetween(10, 5) })
	assert.Equal(t, NewRegion(5, 5), RegionBetween(5, 10))
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "IN", DirectionIn.String())
	assert.Equal(t, "OUT", DirectionOut.String())
	assert.Equal(t, "NONE", DirectionNone.String())
	assert.Equal(t, DirectionOut, DirectionIn.Reverse())
	assert.Equal(t, DirectionIn, DirectionOut.Reverse())
	assert.Equal(t, DirectionNone, DirectionNone.Reverse())
}
