package storage

import (
	"slices"
	"sync"

	"tierswap/pkg/primitives"
)

// MemoryStore is an unbounded in-memory page map.
type MemoryStore struct {
	pageSize int
	pages    map[primitives.PageNumber][]byte
	closed   bool
	mutex    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(pageSize int) (*MemoryStore, error) {
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}
	return &MemoryStore{
		pageSize: pageSize,
		pages:    make(map[primitives.PageNumber][]byte),
	}, nil
}

func (m *MemoryStore) Kind() Kind    { return KindMemory }
func (m *MemoryStore) PageSize() int { return m.pageSize }

func (m *MemoryStore) ReadPage(n primitives.PageNumber) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, false, errClosed("MemoryStore", "ReadPage")
	}

	data, ok := m.pages[n]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

func (m *MemoryStore) WritePage(n primitives.PageNumber, data []byte) error {
	if err := checkPageSize("MemoryStore", m.pageSize, data); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return errClosed("MemoryStore", "WritePage")
	}

	m.pages[n] = slices.Clone(data)
	return nil
}

func (m *MemoryStore) Pages() ([]primitives.PageNumber, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, errClosed("MemoryStore", "Pages")
	}

	out := make([]primitives.PageNumber, 0, len(m.pages))
	for n := range m.pages {
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed = true
	m.pages = nil
	return nil
}
