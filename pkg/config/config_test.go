package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/storage"
	"tierswap/pkg/swaperr"
)

const threeTier = `
logging:
  level: debug
  format: json
execute:
  workers: 3
states:
  - name: disk
    page_size: 256
    num_pages: 64
    store: {kind: file, path: data/disk.pages}
  - name: cache
    page_size: 64
    num_pages: 32
    store: {kind: cache}
  - name: memory
    page_size: 16
    num_pages: 64
    store: {kind: memory}
swappers:
  - mapping: modulo
  - mapping: offset
    offset: 0
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParse_ThreeTier(t *testing.T) {
	cfg, err := Parse([]byte(threeTier))
	require.NoError(t, err)

	require.Len(t, cfg.States, 3)
	assert.Equal(t, "disk", cfg.States[0].Name)
	assert.Equal(t, uint64(256), cfg.States[0].PageSize)
	assert.Equal(t, "modulo", cfg.Swappers[0].Mapping)
	assert.Equal(t, 3, cfg.Execute.Workers)

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.True(t, lc.OutputPath.IsEmpty())
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
		want string
	}{
		{
			name: "unknown key",
			body: "states: []\nswapers: []\n",
			code: swaperr.CodeInvalidConfig,
		},
		{
			name: "single state",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "states",
		},
		{
			name: "bad store kind",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: tape}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "states[0].store.kind",
		},
		{
			name: "zero page size",
			body: `
states:
  - {name: a, page_size: 0, num_pages: 4, store: {kind: memory}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "page_size",
		},
		{
			name: "page size past int32",
			body: `
states:
  - {name: a, page_size: 2147483648, num_pages: 4, store: {kind: memory}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "page_size",
		},
		{
			name: "page size wraps int",
			body: `
states:
  - {name: a, page_size: 18446744073709551600, num_pages: 4, store: {kind: memory}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "page_size",
		},
		{
			name: "swapper count",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: memory}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "swappers",
		},
		{
			name: "duplicate name",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: memory}}
  - {name: a, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeDuplicateState,
		},
		{
			name: "file without path",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: file}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "needs a path",
		},
		{
			name: "shared badger directory",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: badger, path: db}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: badger, path: db}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "same badger directory",
		},
		{
			name: "bad mapping",
			body: `
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: memory}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: hashed}
`,
			code: swaperr.CodeInvalidConfig,
			want: "mapping",
		},
		{
			name: "bad log level",
			body: `
logging: {level: loud}
states:
  - {name: a, page_size: 16, num_pages: 4, store: {kind: memory}}
  - {name: b, page_size: 16, num_pages: 4, store: {kind: memory}}
swappers:
  - {mapping: offset}
`,
			code: swaperr.CodeInvalidConfig,
			want: "level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, swaperr.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, swaperr.CategoryConfig, swaperr.CategoryOf(err))
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, swaperr.IsCode(err, swaperr.CodeInvalidConfig))
}

func TestStoreSpec_Defaults(t *testing.T) {
	cfg := &Config{baseDir: "/srv/swap"}

	spec, err := cfg.StoreSpec(StateConfig{Name: "cache", PageSize: 64, NumPages: 32, Store: StoreConfig{Kind: "cache"}})
	require.NoError(t, err)
	assert.Equal(t, storage.KindCache, spec.Kind)
	assert.Equal(t, 32, spec.Capacity)

	spec, err = cfg.StoreSpec(StateConfig{Name: "tier2", Store: StoreConfig{Kind: "badger", Path: "db"}})
	require.NoError(t, err)
	assert.Equal(t, "tier2", spec.Prefix)
	assert.Equal(t, primitives.Filepath("/srv/swap/db"), spec.Path)

	spec, err = cfg.StoreSpec(StateConfig{Name: "disk", Store: StoreConfig{Kind: "file", Path: "/abs/disk.pages"}})
	require.NoError(t, err)
	assert.Equal(t, primitives.Filepath("/abs/disk.pages"), spec.Path)
}

func TestBuild_ThreeTier(t *testing.T) {
	path := writeConfig(t, threeTier)
	cfg, err := Load(path)
	require.NoError(t, err)

	sys, err := cfg.Build()
	require.NoError(t, err)
	defer func() { require.NoError(t, sys.Close()) }()

	assert.Equal(t, 3, sys.Workers())
	assert.Equal(t, uint64(16), sys.SmallestPageSize())
	assert.Equal(t, uint64(256), sys.LargestPageSize())

	disk, ok := sys.State("disk")
	require.True(t, ok)
	memory, ok := sys.State("memory")
	require.True(t, ok)
	assert.Equal(t, storage.KindFile, disk.Store().Kind())

	data := []byte("swapped through three tiers")
	require.NoError(t, disk.WriteRegion(512, data))

	op, err := sys.Swap(context.Background(), primitives.NewRegion(512, uint64(len(data))), disk, memory)
	require.NoError(t, err)

	got, err := memory.ReadRegion(primitives.NewRegion(op.TargetWindow().Start, uint64(len(data))))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// the page file lives next to the config
	_, err = os.Stat(filepath.Join(filepath.Dir(path), "data", "disk.pages"))
	assert.NoError(t, err)
}

func TestBuild_BadgerTier(t *testing.T) {
	cfg, err := Parse([]byte(`
states:
  - {name: disk, page_size: 64, num_pages: 16, store: {kind: badger, in_memory: true}}
  - {name: memory, page_size: 16, num_pages: 16, store: {kind: memory}}
swappers:
  - {mapping: modulo}
`))
	require.NoError(t, err)

	sys, err := cfg.Build()
	require.NoError(t, err)
	defer sys.Close()

	disk, _ := sys.State("disk")
	assert.Equal(t, storage.KindBadger, disk.Store().Kind())
}

func TestBuild_ChainErrorsCloseStores(t *testing.T) {
	// 48 is not 16 times a power of two
	cfg, err := Parse([]byte(`
states:
  - {name: disk, page_size: 48, num_pages: 16, store: {kind: memory}}
  - {name: memory, page_size: 16, num_pages: 48, store: {kind: memory}}
swappers:
  - {mapping: offset}
`))
	require.NoError(t, err)

	_, err = cfg.Build()
	assert.True(t, swaperr.IsCode(err, swaperr.CodePageSizeNotPowerOfTwo), "got %v", err)
}
