package annidx

import (
	"bytes"
	"context"
	"io"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/blobstore"
	"github.com/hupe1980/annidx/persistence"
)

// SaveTo writes a self-describing snapshot of the index. The snapshot
// records the backend variant, metric, and dimension, so loading needs no
// external hints.
func (ix *Index) SaveTo(w io.Writer) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	return backendErr("save", backend.Save(w, ix.backend, ix.compression))
}

// SaveToFile writes the snapshot to a file, atomically via temp and rename.
func (ix *Index) SaveToFile(path string) error {
	err := persistence.SaveToFile(path, ix.SaveTo)
	ix.logger.LogSnapshot(ix.id, "save", path, err)
	return err
}

// ToBuffer returns the snapshot as an in-memory byte buffer.
func (ix *Index) ToBuffer() ([]byte, error) {
	var buf bytes.Buffer
	if err := ix.SaveTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToStore streams the snapshot into a blob store under the given name.
func (ix *Index) SaveToStore(ctx context.Context, store blobstore.Store, name string) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(ix.SaveTo(pw))
	}()

	err := store.Put(ctx, name, pr)
	if err != nil {
		// Unblock the writer if Put bailed early.
		_ = pr.CloseWithError(err)
	}
	ix.logger.LogSnapshot(ix.id, "save", name, err)
	return err
}

// LoadFrom reconstructs an index from a snapshot stream. The backend
// variant, dimension, metric, and training state all come from the snapshot
// itself.
func LoadFrom(r io.Reader, optFns ...Option) (*Index, error) {
	b, err := backend.Load(r)
	if err != nil {
		return nil, backendErr("load", err)
	}
	return newIndex(b, optFns), nil
}

// LoadFromFile reconstructs an index from a snapshot file.
func LoadFromFile(path string, optFns ...Option) (*Index, error) {
	var ix *Index
	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		var lerr error
		ix, lerr = LoadFrom(r, optFns...)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// FromBuffer reconstructs an index from an in-memory snapshot.
func FromBuffer(data []byte, optFns ...Option) (*Index, error) {
	return LoadFrom(bytes.NewReader(data), optFns...)
}

// LoadFromStore reconstructs an index from a named snapshot in a blob store.
func LoadFromStore(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Index, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	return LoadFrom(blobstore.Reader(blob), optFns...)
}
