package primitives

import (
	"hash/fnv"
	"os"
	"path/filepath"
)

// Filepath is a type-safe wrapper around the file paths used by file-backed
// swap stores and by the logger output.
//
// Example usage:
//
//	dataDir := primitives.Filepath("/data")
//	diskPath := dataDir.Join("disk.pages")
//	if err := diskPath.MkdirAll(0o750); err != nil {
//	    return err
//	}
type Filepath string

// Hash generates a stable 64-bit identifier from the path using FNV-1a.
// Stores use it to tag their log lines and key prefixes.
func (f Filepath) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(f))
	return h.Sum64()
}

// Dir returns the directory portion of the file path.
func (f Filepath) Dir() string {
	return filepath.Dir(string(f))
}

// String converts the Filepath to a standard string.
func (f Filepath) String() string {
	return string(f)
}

// Join concatenates path elements to this path and returns a new Filepath.
func (f Filepath) Join(elem ...string) Filepath {
	parts := append([]string{string(f)}, elem...)
	return Filepath(filepath.Join(parts...))
}

// Base returns the last element of the path.
func (f Filepath) Base() string {
	return filepath.Base(string(f))
}

// Exists reports whether a file or directory exists at the path.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// Remove deletes the file at this path. A missing file is not an error.
func (f Filepath) Remove() error {
	err := os.Remove(string(f))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEmpty reports whether the path is the empty string.
func (f Filepath) IsEmpty() bool {
	return f == ""
}

// MkdirAll creates the parent directory of the file with the given permissions.
func (f Filepath) MkdirAll(perm os.FileMode) error {
	return os.MkdirAll(f.Dir(), perm)
}

// Clean returns the shortest equivalent path.
func (f Filepath) Clean() Filepath {
	return Filepath(filepath.Clean(string(f)))
}
