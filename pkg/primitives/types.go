// Package primitives holds the scalar types and the address arithmetic shared
// by every layer of the swap system.
package primitives

import "fmt"

// Field is the smallest addressable unit of swapped data. One field is one byte.
type Field = byte

// Position is an absolute field address inside one swap state's address space.
type Position uint64

// PageNumber is the index of a page inside one swap state.
type PageNumber uint64

// Direction tells which way data moves through the swap chain.
type Direction int

const (
	// DirectionNone marks an operation that moves nothing (source and
	// target are the same state).
	DirectionNone Direction = iota

	// DirectionIn moves data toward the most swapped-in state.
	DirectionIn

	// DirectionOut moves data toward the most swapped-out state.
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "NONE"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Reverse returns the opposite direction. DirectionNone reverses to itself.
func (d Direction) Reverse() Direction {
	switch d {
	case DirectionIn:
		return DirectionOut
	case DirectionOut:
		return DirectionIn
	default:
		return d
	}
}
