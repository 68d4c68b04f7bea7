package storage

import (
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// Spec describes a store to open.
type Spec struct {
	Kind Kind

	// Path is the page file for KindFile and the database directory for
	// KindBadger. Unused otherwise.
	Path primitives.Filepath

	// Capacity is the page limit of a KindCache store.
	Capacity int

	// InMemory runs a KindBadger store without disk persistence.
	InMemory bool

	// SyncWrites is passed to BadgerDB.
	SyncWrites bool

	// Prefix namespaces a KindBadger store's keys.
	Prefix string
}

// Open creates the store described by spec for pages of pageSize fields.
func Open(spec Spec, pageSize int) (Store, error) {
	switch spec.Kind {
	case KindMemory:
		return NewMemoryStore(pageSize)
	case KindCache:
		return NewCacheStore(pageSize, spec.Capacity)
	case KindFile:
		return NewFileStore(spec.Path, pageSize)
	case KindBadger:
		return NewBadgerStore(BadgerConfig{
			Path:       spec.Path,
			InMemory:   spec.InMemory,
			SyncWrites: spec.SyncWrites,
			Prefix:     spec.Prefix,
		}, pageSize)
	default:
		return nil, swaperr.Newf(swaperr.CategoryConfig, swaperr.CodeUnknownStoreKind,
			"unknown store kind %q", spec.Kind).In("Open", "storage")
	}
}
