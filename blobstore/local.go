package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hupe1980/annidx/internal/mmap"
)

const writeChunkSize = 64 << 10

// LocalStore implements Store on the local file system. Reads are memory
// mapped, which suits the random access patterns of snapshot loading. Writes
// go through a temp file and rename, and can be throttled to keep snapshot
// dumps from saturating disk bandwidth shared with serving traffic.
type LocalStore struct {
	root    string
	limiter *rate.Limiter
}

// LocalStoreOption configures a LocalStore.
type LocalStoreOption func(*LocalStore)

// WithWriteLimit throttles Put to bytesPerSecond.
func WithWriteLimit(bytesPerSecond int) LocalStoreOption {
	return func(s *LocalStore) {
		s.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), writeChunkSize)
	}
}

// NewLocalStore creates a store rooted at the given directory.
func NewLocalStore(root string, optFns ...LocalStoreOption) *LocalStore {
	s := &LocalStore{root: root}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Open memory-maps the named snapshot.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// Put writes the snapshot to a temp file and renames it into place.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}

	path := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, filepath.Base(name)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := s.copy(ctx, tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Delete removes the named snapshot.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.root, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns the snapshot names under the root matching the prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalStore) copy(ctx context.Context, dst io.Writer, src io.Reader) error {
	if s.limiter == nil {
		_, err := io.Copy(dst, src)
		return err
	}

	buf := make([]byte, writeChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := s.limiter.WaitN(ctx, n); werr != nil {
				return werr
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("blobstore: read source: %w", err)
		}
	}
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(p []byte, off int64) (int, error) {
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localBlob) Close() error { return b.m.Close() }

func (b *localBlob) Size() int64 { return int64(len(b.m.Bytes())) }
