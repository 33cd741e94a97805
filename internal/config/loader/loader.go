// Package loader discovers, loads and hot-reloads a single niv
// configuration file.
//
// A Loader moves between three states: Unloaded, Loaded and Error. The
// current config is published through an atomic pointer, so Current never
// waits on a reload in progress and never sees a half-built value. A failed
// load or reload leaves the last good config in place.
package loader

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/dshills/nivconf/internal/config"
)

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// WriteFile replaces the file at path.
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements FileSystem.
func (OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// WriteFile implements FileSystem. The write is atomic.
func (OSFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return config.WriteFileAtomic(path, data, perm)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// MemFS is an in-memory FileSystem. Every write bumps the file's
// modification time by one second so fingerprints always change.
type MemFS struct {
	mu     sync.Mutex
	files  map[string]*memFile
	denied map[string]bool
	clock  time.Time
}

type memFile struct {
	data    []byte
	perm    fs.FileMode
	modTime time.Time
}

// NewMemFS returns an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{
		files:  make(map[string]*memFile),
		denied: make(map[string]bool),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Open implements FileSystem.
func (m *MemFS) Open(path string) (io.ReadCloser, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ReadFile implements FileSystem.
func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied[path] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}
	f, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return slices.Clone(f.data), nil
}

// Stat implements FileSystem.
func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return memInfo{name: filepath.Base(path), size: int64(len(f.data)), perm: f.perm, modTime: f.modTime}, nil
}

// WriteFile implements FileSystem.
func (m *MemFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.denied[path] {
		return &fs.PathError{Op: "write", Path: path, Err: fs.ErrPermission}
	}
	m.clock = m.clock.Add(time.Second)
	m.files[path] = &memFile{data: slices.Clone(data), perm: perm, modTime: m.clock}
	return nil
}

// Remove deletes path.
func (m *MemFS) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

// Deny makes reads and writes of path fail with a permission error while
// Stat keeps working.
func (m *MemFS) Deny(path string, denied bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if denied {
		m.denied[path] = true
	} else {
		delete(m.denied, path)
	}
}

type memInfo struct {
	name    string
	size    int64
	perm    fs.FileMode
	modTime time.Time
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return i.perm }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }
