package storage

import (
	"fmt"
	"io"
	"os"
	"sync"

	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// FileStore keeps pages in a single OS file, page n at offset n*pageSize.
//
// Every page below the file's current length is considered present; pages
// that were skipped over when the file grew read back as zeros. Writes are
// followed by Sync so a completed swap step is durable.
//
// Thread-safety: reads share a read lock, writes and Close take the write lock.
type FileStore struct {
	file     *os.File
	filePath primitives.Filepath
	pageSize int
	mutex    sync.RWMutex
}

// NewFileStore opens or creates the file at filePath.
func NewFileStore(filePath primitives.Filepath, pageSize int) (*FileStore, error) {
	if filePath.IsEmpty() {
		return nil, swaperr.IllegalArgument("file store path cannot be empty")
	}
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}

	if err := filePath.MkdirAll(0o750); err != nil {
		return nil, swaperr.Wrap(err, swaperr.CodeStoreIO, "NewFileStore", "FileStore")
	}

	file, err := os.OpenFile(filePath.String(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, swaperr.Wrap(fmt.Errorf("failed to open file %s: %w", filePath, err),
			swaperr.CodeStoreIO, "NewFileStore", "FileStore")
	}

	logging.WithComponent("FileStore").Debug("opened page file",
		"path", filePath.String(), "page_size", pageSize, "file_hash", filePath.Hash())

	return &FileStore{
		file:     file,
		filePath: filePath,
		pageSize: pageSize,
	}, nil
}

func (fs *FileStore) Kind() Kind    { return KindFile }
func (fs *FileStore) PageSize() int { return fs.pageSize }

// FilePath returns the path the store was opened with.
func (fs *FileStore) FilePath() primitives.Filepath { return fs.filePath }

// NumPages returns the number of pages in the file, rounding a trailing
// partial page up.
func (fs *FileStore) NumPages() (primitives.PageNumber, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()
	return fs.numPagesLocked("NumPages")
}

func (fs *FileStore) numPagesLocked(op string) (primitives.PageNumber, error) {
	if fs.file == nil {
		return 0, errClosed("FileStore", op)
	}

	info, err := fs.file.Stat()
	if err != nil {
		return 0, swaperr.Wrap(fmt.Errorf("failed to stat file: %w", err), swaperr.CodeStoreIO, op, "FileStore")
	}

	size := info.Size()
	numPages := primitives.PageNumber(size / int64(fs.pageSize))
	if size%int64(fs.pageSize) != 0 {
		numPages++
	}
	return numPages, nil
}

func (fs *FileStore) ReadPage(n primitives.PageNumber) ([]byte, bool, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	numPages, err := fs.numPagesLocked("ReadPage")
	if err != nil {
		return nil, false, err
	}
	if n >= numPages {
		return nil, false, nil
	}

	data := make([]byte, fs.pageSize)
	offset := int64(n) * int64(fs.pageSize)

	// a trailing partial page reads short; the rest stays zero
	if _, err := fs.file.ReadAt(data, offset); err != nil && err != io.EOF {
		return nil, false, swaperr.Wrap(fmt.Errorf("failed to read page %d: %w", n, err),
			swaperr.CodeStoreIO, "ReadPage", "FileStore")
	}
	return data, true, nil
}

func (fs *FileStore) WritePage(n primitives.PageNumber, data []byte) error {
	if err := checkPageSize("FileStore", fs.pageSize, data); err != nil {
		return err
	}

	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.file == nil {
		return errClosed("FileStore", "WritePage")
	}

	offset := int64(n) * int64(fs.pageSize)
	if _, err := fs.file.WriteAt(data, offset); err != nil {
		return swaperr.Wrap(fmt.Errorf("failed to write page data: %w", err),
			swaperr.CodeStoreIO, "WritePage", "FileStore")
	}

	if err := fs.file.Sync(); err != nil {
		return swaperr.Wrap(fmt.Errorf("failed to sync file: %w", err),
			swaperr.CodeStoreIO, "WritePage", "FileStore")
	}
	return nil
}

func (fs *FileStore) Pages() ([]primitives.PageNumber, error) {
	numPages, err := fs.NumPages()
	if err != nil {
		return nil, err
	}

	out := make([]primitives.PageNumber, numPages)
	for i := range out {
		out[i] = primitives.PageNumber(i)
	}
	return out, nil
}

// Close closes the file. Closing twice is not an error.
func (fs *FileStore) Close() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.file != nil {
		err := fs.file.Close()
		fs.file = nil
		return err
	}
	return nil
}
