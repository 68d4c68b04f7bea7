package storage

import (
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierswap/pkg/primitives"
)

func TestBadgerStore_Persists(t *testing.T) {
	dir := primitives.Filepath(filepath.Join(t.TempDir(), "badger"))

	s, err := NewBadgerStore(BadgerConfig{Path: dir, SyncWrites: true}, testPageSize)
	require.NoError(t, err)
	require.NoError(t, s.WritePage(5, filledPage(5)))
	require.NoError(t, s.Close())

	s2, err := NewBadgerStore(BadgerConfig{Path: dir}, testPageSize)
	require.NoError(t, err)
	defer s2.Close()

	data, ok, err := s2.ReadPage(5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filledPage(5), data)
}

func TestBadgerStore_SharedDatabasePrefixes(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	disk, err := NewBadgerStoreOn(db, "disk", testPageSize)
	require.NoError(t, err)
	cache, err := NewBadgerStoreOn(db, "cache", testPageSize)
	require.NoError(t, err)

	require.NoError(t, disk.WritePage(1, filledPage(1)))
	require.NoError(t, cache.WritePage(2, filledPage(2)))

	diskPages, err := disk.Pages()
	require.NoError(t, err)
	assert.Equal(t, []primitives.PageNumber{1}, diskPages)

	cachePages, err := cache.Pages()
	require.NoError(t, err)
	assert.Equal(t, []primitives.PageNumber{2}, cachePages)

	// closing a shared store leaves the database usable
	require.NoError(t, disk.Close())
	_, ok, err := cache.ReadPage(2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerStore(BadgerConfig{}, testPageSize)
	assert.Error(t, err)

	_, err = NewBadgerStoreOn(nil, "x", testPageSize)
	assert.Error(t, err)
}
