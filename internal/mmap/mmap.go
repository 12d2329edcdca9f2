// Package mmap provides read-only memory-mapped file access for zero-copy
// snapshot loading.
//
// Mapping is safe for concurrent read access. Close is idempotent, but callers
// must ensure no goroutine touches Bytes() after Close returns.
package mmap

import (
	"os"
	"sync/atomic"
)

// Mapping represents a memory-mapped file. It owns the underlying byte slice
// and is responsible for unmapping it.
type Mapping struct {
	data   []byte
	closed atomic.Bool
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}

	data, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{data: data}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.data == nil {
		return nil
	}
	return osUnmap(m.data)
}

// Bytes returns the mapped contents. The slice is valid only until Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int64 {
	return int64(len(m.data))
}
