package swap

import (
	"fmt"

	"github.com/google/uuid"

	"tierswap/pkg/primitives"
)

// SwapStep is one atomic transfer: a page-relative region of one page copied
// onto an equally long page-relative region of a page in the adjacent state.
type SwapStep struct {
	Swapper           Swapper
	Direction         primitives.Direction
	Source            PageRef
	SourceRegion      primitives.Region
	Destination       PageRef
	DestinationRegion primitives.Region
}

// Fields returns the number of fields the step moves.
func (s SwapStep) Fields() uint64 {
	return s.SourceRegion.Length
}

func (s SwapStep) String() string {
	return fmt.Sprintf("%s %s%s -> %s%s", s.Direction, s.Source, s.SourceRegion, s.Destination, s.DestinationRegion)
}

// SwapOperation is the full plan for moving a region from one state to
// another: the direction plus every step of every hop, in execution order.
type SwapOperation struct {
	ID        uuid.UUID
	Direction primitives.Direction
	From      *SwapState
	To        *SwapState

	// Region is the region that was asked for, in From's address space.
	Region primitives.Region

	// Window is Region widened to the largest page size on the path.
	Window primitives.Region

	// RelativeSwapSize is the window length in pages of the system's
	// smallest page size.
	RelativeSwapSize uint64

	// Path lists the states visited, From first and To last, and Windows
	// the window's position in each of them.
	Path    []*SwapState
	Windows []primitives.Region

	Steps []SwapStep
}

// Len returns the number of steps.
func (o *SwapOperation) Len() int {
	return len(o.Steps)
}

// IsEmpty reports whether the operation moves nothing.
func (o *SwapOperation) IsEmpty() bool {
	return len(o.Steps) == 0
}

// TargetWindow returns the window's position in the target state.
func (o *SwapOperation) TargetWindow() primitives.Region {
	if len(o.Windows) == 0 {
		return o.Window
	}
	return o.Windows[len(o.Windows)-1]
}

// Hops splits the steps into one slice per swapper, in order.
func (o *SwapOperation) Hops() [][]SwapStep {
	var hops [][]SwapStep
	start := 0
	for i := 1; i <= len(o.Steps); i++ {
		if i == len(o.Steps) || o.Steps[i].Swapper != o.Steps[start].Swapper {
			hops = append(hops, o.Steps[start:i])
			start = i
		}
	}
	return hops
}

// FieldsMoved returns the total number of fields copied by all steps.
func (o *SwapOperation) FieldsMoved() uint64 {
	var total uint64
	for _, s := range o.Steps {
		total += s.Fields()
	}
	return total
}

func (o *SwapOperation) String() string {
	return fmt.Sprintf("swap %s %s %s->%s window %s (%d steps)",
		o.ID, o.Direction, o.From, o.To, o.Window, len(o.Steps))
}
