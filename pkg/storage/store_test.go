package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

const testPageSize = 64

func filledPage(b byte) []byte {
	return bytes.Repeat([]byte{b}, testPageSize)
}

// storeFactories builds one store of every kind for the shared behaviour tests.
func storeFactories() map[Kind]func(t *testing.T) Store {
	return map[Kind]func(t *testing.T) Store{
		KindMemory: func(t *testing.T) Store {
			s, err := NewMemoryStore(testPageSize)
			require.NoError(t, err)
			return s
		},
		KindCache: func(t *testing.T) Store {
			s, err := NewCacheStore(testPageSize, 16)
			require.NoError(t, err)
			return s
		},
		KindFile: func(t *testing.T) Store {
			s, err := NewFileStore(primitives.Filepath(filepath.Join(t.TempDir(), "tier.pages")), testPageSize)
			require.NoError(t, err)
			return s
		},
		KindBadger: func(t *testing.T) Store {
			s, err := NewBadgerStore(BadgerConfig{InMemory: true}, testPageSize)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStores_ReadWriteRoundTrip(t *testing.T) {
	for kind, factory := range storeFactories() {
		t.Run(string(kind), func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			assert.Equal(t, kind, s.Kind())
			assert.Equal(t, testPageSize, s.PageSize())

			require.NoError(t, s.WritePage(3, filledPage(0xAB)))

			data, ok, err := s.ReadPage(3)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, filledPage(0xAB), data)

			// overwrite
			require.NoError(t, s.WritePage(3, filledPage(0x01)))
			data, ok, err = s.ReadPage(3)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, filledPage(0x01), data)
		})
	}
}

func TestStores_AbsentPage(t *testing.T) {
	for kind, factory := range storeFactories() {
		t.Run(string(kind), func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			data, ok, err := s.ReadPage(99)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, data)
		})
	}
}

func TestStores_CopiesBuffers(t *testing.T) {
	for kind, factory := range storeFactories() {
		t.Run(string(kind), func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			buf := filledPage(0x11)
			require.NoError(t, s.WritePage(0, buf))
			buf[0] = 0xFF

			data, _, err := s.ReadPage(0)
			require.NoError(t, err)
			assert.Equal(t, byte(0x11), data[0])

			data[1] = 0xEE
			again, _, err := s.ReadPage(0)
			require.NoError(t, err)
			assert.Equal(t, byte(0x11), again[1])
		})
	}
}

func TestStores_RejectWrongPageSize(t *testing.T) {
	for kind, factory := range storeFactories() {
		t.Run(string(kind), func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			err := s.WritePage(0, make([]byte, testPageSize-1))
			require.Error(t, err)
			assert.True(t, swaperr.IsCode(err, swaperr.CodePageSizeMismatch))
		})
	}
}

func TestStores_Pages(t *testing.T) {
	for kind, factory := range storeFactories() {
		if kind == KindFile {
			continue // file stores report every page below the file length
		}
		t.Run(string(kind), func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			for _, n := range []primitives.PageNumber{7, 2, 300} {
				require.NoError(t, s.WritePage(n, filledPage(byte(n))))
			}

			pages, err := s.Pages()
			require.NoError(t, err)
			assert.Equal(t, []primitives.PageNumber{2, 7, 300}, pages)
		})
	}
}

func TestStores_ClosedStoreFails(t *testing.T) {
	for kind, factory := range storeFactories() {
		t.Run(string(kind), func(t *testing.T) {
			s := factory(t)
			require.NoError(t, s.Close())

			_, _, err := s.ReadPage(0)
			assert.Error(t, err)
			assert.Error(t, s.WritePage(0, filledPage(1)))
			assert.NoError(t, s.Close(), "second close")
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Badger ")
	require.NoError(t, err)
	assert.Equal(t, KindBadger, k)

	_, err = ParseKind("tape")
	require.Error(t, err)
	assert.True(t, swaperr.IsCode(err, swaperr.CodeUnknownStoreKind))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	specs := []Spec{
		{Kind: KindMemory},
		{Kind: KindCache, Capacity: 4},
		{Kind: KindFile, Path: primitives.Filepath(filepath.Join(dir, "disk.pages"))},
		{Kind: KindBadger, Path: primitives.Filepath(filepath.Join(dir, "badger"))},
	}

	for _, spec := range specs {
		s, err := Open(spec, testPageSize)
		require.NoError(t, err, spec.Kind)
		assert.Equal(t, spec.Kind, s.Kind())
		require.NoError(t, s.Close())
	}

	_, err := Open(Spec{Kind: "tape"}, testPageSize)
	assert.True(t, swaperr.IsCode(err, swaperr.CodeUnknownStoreKind))

	_, err = Open(Spec{Kind: KindCache}, testPageSize)
	assert.True(t, swaperr.IsCode(err, swaperr.CodeIllegalArgument))
}

func TestNewStores_RejectBadPageSize(t *testing.T) {
	_, err := NewMemoryStore(0)
	assert.Error(t, err)
	_, err = NewCacheStore(-1, 1)
	assert.Error(t, err)
	_, err = NewFileStore("", testPageSize)
	assert.Error(t, err)
}
