package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// BadgerConfig configures the BadgerDB instance behind a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path primitives.Filepath

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites makes every committed write durable before returning.
	SyncWrites bool

	// Prefix namespaces the keys so several states can share one database.
	// Defaults to "page".
	Prefix string
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// openBadger opens the database described by cfg.
func openBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path.IsEmpty() {
		return nil, swaperr.IllegalArgument("path is required for persistent badger store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path.String(), 0o750); err != nil {
			return nil, swaperr.Wrap(fmt.Errorf("create database directory %s: %w", cfg.Path, err),
				swaperr.CodeStoreIO, "OpenBadger", "BadgerStore")
		}
		opts = badger.DefaultOptions(cfg.Path.String())
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logging.WithComponent("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, swaperr.Wrap(fmt.Errorf("open badger database: %w", err),
			swaperr.CodeStoreIO, "OpenBadger", "BadgerStore")
	}
	return db, nil
}

// BadgerStore keeps pages in BadgerDB under "<prefix>/" + big-endian page number.
type BadgerStore struct {
	db       *badger.DB
	owned    bool
	prefix   []byte
	pageSize int
	closeMu  sync.Mutex
	closed   bool
}

// NewBadgerStore opens a database for the store. Close closes the database.
func NewBadgerStore(cfg BadgerConfig, pageSize int) (*BadgerStore, error) {
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}
	s := newBadgerStore(db, cfg.Prefix, pageSize)
	s.owned = true
	return s, nil
}

// NewBadgerStoreOn shares an already open database. Close leaves the
// database open.
func NewBadgerStoreOn(db *badger.DB, prefix string, pageSize int) (*BadgerStore, error) {
	if db == nil {
		return nil, swaperr.IllegalArgument("badger database cannot be nil")
	}
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}
	return newBadgerStore(db, prefix, pageSize), nil
}

func newBadgerStore(db *badger.DB, prefix string, pageSize int) *BadgerStore {
	if prefix == "" {
		prefix = "page"
	}
	return &BadgerStore{
		db:       db,
		prefix:   []byte(prefix + "/"),
		pageSize: pageSize,
	}
}

func (s *BadgerStore) Kind() Kind    { return KindBadger }
func (s *BadgerStore) PageSize() int { return s.pageSize }

func (s *BadgerStore) key(n primitives.PageNumber) []byte {
	k := make([]byte, len(s.prefix)+8)
	copy(k, s.prefix)
	binary.BigEndian.PutUint64(k[len(s.prefix):], uint64(n))
	return k
}

func (s *BadgerStore) isClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}

func (s *BadgerStore) ReadPage(n primitives.PageNumber) ([]byte, bool, error) {
	if s.isClosed() {
		return nil, false, errClosed("BadgerStore", "ReadPage")
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(n))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, swaperr.Wrap(err, swaperr.CodeStoreIO, "ReadPage", "BadgerStore")
	}

	if len(data) != s.pageSize {
		return nil, false, swaperr.New(swaperr.CategoryData, swaperr.CodeCorruptPage, "stored page has wrong size").
			WithDetail("page %d: expected %d, got %d", n, s.pageSize, len(data)).
			In("ReadPage", "BadgerStore")
	}
	return data, true, nil
}

func (s *BadgerStore) WritePage(n primitives.PageNumber, data []byte) error {
	if err := checkPageSize("BadgerStore", s.pageSize, data); err != nil {
		return err
	}
	if s.isClosed() {
		return errClosed("BadgerStore", "WritePage")
	}

	// badger retains the slice until commit; hand it a private copy
	buf := make([]byte, len(data))
	copy(buf, data)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(n), buf)
	})
	if err != nil {
		return swaperr.Wrap(err, swaperr.CodeStoreIO, "WritePage", "BadgerStore")
	}
	return nil
}

func (s *BadgerStore) Pages() ([]primitives.PageNumber, error) {
	if s.isClosed() {
		return nil, errClosed("BadgerStore", "Pages")
	}

	var out []primitives.PageNumber
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = s.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			if len(k) != len(s.prefix)+8 {
				continue
			}
			out = append(out, primitives.PageNumber(binary.BigEndian.Uint64(k[len(s.prefix):])))
		}
		return nil
	})
	if err != nil {
		return nil, swaperr.Wrap(err, swaperr.CodeStoreIO, "Pages", "BadgerStore")
	}
	return out, nil
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.owned {
		return s.db.Close()
	}
	return nil
}
