// Package swap implements a simulated multi-level virtual memory swapper.
//
// A swap system is a chain of swap states (tiers of backing storage), ordered
// from the most swapped-out (say, disk) to the most swapped-in (say, memory).
// Each state has its own page size; every page size in a system is the
// smallest one times an exact power of two. Adjacent states are joined by a
// Swapper that maps positions between their address spaces and moves fields
// from one to the other.
//
// StandardSwapSystem plans transfers: CreateSwapOperation turns a region and
// a pair of states into a SwapOperation, the ordered list of SwapSteps that
// walks the region one hop at a time through every intermediate state.
// Execute carries a plan out against the states' stores. CreateWriteBack
// reverses an executed plan, returning fields to the windows they came from
// even through direct-mapped states.
//
//	sys, err := swap.NewStandardSwapSystem([]swap.Swapper{diskToCache, cacheToMem})
//	op, err := sys.CreateSwapOperation(primitives.NewRegion(0, 8192), disk, mem)
//	err = sys.Execute(ctx, op)
//	back, err := sys.WriteBack(ctx, op)
package swap
