package swap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tierswap/pkg/storage"
)

// Test chain, most swapped-out first:
//
//	disk   page 256, 64 pages (16384 fields)
//	cache  page  64, 32 pages  (2048 fields), direct-mapped from disk
//	memory page  16, 64 pages  (1024 fields), offset 0 from cache
const (
	diskPage   = 256
	cachePage  = 64
	memoryPage = 16
)

func newMemoryState(t *testing.T, name string, pageSize, numPages uint64) *SwapState {
	t.Helper()
	store, err := storage.NewMemoryStore(int(pageSize))
	require.NoError(t, err)
	st, err := NewSwapState(name, pageSize, numPages, store)
	require.NoError(t, err)
	return st
}

func newSwapper(t *testing.T, out, in *SwapState, m Mapping) *StandardSwapper {
	t.Helper()
	sw, err := NewStandardSwapper(out, in, m)
	require.NoError(t, err)
	return sw
}

type testChain struct {
	sys    *StandardSwapSystem
	disk   *SwapState
	cache  *SwapState
	memory *SwapState
}

func newTestChain(t *testing.T, opts ...Option) testChain {
	t.Helper()
	disk := newMemoryState(t, "disk", diskPage, 64)
	cache := newMemoryState(t, "cache", cachePage, 32)
	memory := newMemoryState(t, "memory", memoryPage, 64)
	return newTestChainOn(t, disk, cache, memory, opts...)
}

func newTestChainOn(t *testing.T, disk, cache, memory *SwapState, opts ...Option) testChain {
	t.Helper()
	sys, err := NewStandardSwapSystem([]Swapper{
		newSwapper(t, disk, cache, Mapping{Kind: MappingModulo}),
		newSwapper(t, cache, memory, Mapping{Kind: MappingOffset}),
	}, opts...)
	require.NoError(t, err)
	return testChain{sys: sys, disk: disk, cache: cache, memory: memory}
}

func pattern(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*7) + seed
	}
	return out
}
