// ABOUTME: Block storage abstraction for payload reads
// ABOUTME: Opens random-access read handles from the file system or memory
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrNotFound is returned when a resource cannot be opened
	ErrNotFound = errors.New("resource not found")
)

// Opener opens read handles on a storage medium
type Opener interface {
	// Open returns a handle positioned at offset 0
	Open(path string) (io.ReadSeekCloser, error)
}

// Dir opens files relative to a root directory on the local file system.
// An empty Dir resolves paths against the working directory.
type Dir string

// Open opens the named file for reading
func (d Dir) Open(path string) (io.ReadSeekCloser, error) {
	full := path
	if d != "" && !filepath.IsAbs(path) {
		full = filepath.Join(string(d), path)
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	return f, nil
}

// Memory is an in-memory storage medium keyed by path
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Put stores data under path, replacing any previous content
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = data
}

// Remove deletes path from the store
func (m *Memory) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.files, path)
}

// Open returns a reader over a snapshot of the stored bytes
func (m *Memory) Open(path string) (io.ReadSeekCloser, error) {
	m.mu.RLock()
	data, ok := m.files[path]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return &memoryHandle{Reader: bytes.NewReader(data)}, nil
}

// memoryHandle tracks closure so use-after-close is reported like a file
type memoryHandle struct {
	*bytes.Reader
	closed bool
}

func (h *memoryHandle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, fs.ErrClosed
	}
	return h.Reader.Read(p)
}

func (h *memoryHandle) Seek(offset int64, whence int) (int64, error) {
	if h.closed {
		return 0, fs.ErrClosed
	}
	return h.Reader.Seek(offset, whence)
}

func (h *memoryHandle) Close() error {
	if h.closed {
		return fs.ErrClosed
	}
	h.closed = true
	return nil
}
