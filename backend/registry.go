package backend

import (
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/annidx/persistence"
)

// Loader reconstructs a backend from its decompressed payload stream. The
// envelope header carrying kind, metric, dimension and trained state has
// already been consumed.
type Loader func(r io.Reader, h *persistence.Header) (Backend, error)

var (
	loaderMu sync.RWMutex
	loaders  = map[Kind]Loader{}
)

// RegisterLoader registers a snapshot loader for a backend kind.
// Implementations call this from an init() function.
func RegisterLoader(k Kind, l Loader) {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	loaders[k] = l
}

// Save writes b to w as a self-describing snapshot: envelope header followed
// by the compressed variant payload.
func Save(w io.Writer, b Backend, comp persistence.Compression) error {
	var trained uint8
	if b.IsTrained() {
		trained = 1
	}

	pw := persistence.NewWriter(w)
	if err := pw.WriteHeader(&persistence.Header{
		BackendKind: uint8(b.Kind()),
		Metric:      uint8(b.Metric()),
		Compression: uint8(comp),
		Trained:     trained,
		Dimension:   uint32(b.Dimension()),
		NTotal:      uint64(b.NTotal()),
	}); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	cw, err := persistence.NewCompressor(w, comp)
	if err != nil {
		return err
	}
	if _, err := b.WriteTo(cw); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

// Load reads a snapshot written by Save, dispatching on the backend kind
// recorded in the header. No external hints are required.
func Load(r io.Reader) (Backend, error) {
	h, err := persistence.NewReader(r).ReadHeader()
	if err != nil {
		return nil, err
	}
	if h.Dimension == 0 {
		return nil, fmt.Errorf("snapshot declares dimension 0")
	}

	loaderMu.RLock()
	loader, ok := loaders[Kind(h.BackendKind)]
	loaderMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend kind in snapshot: %d", h.BackendKind)
	}

	cr, err := persistence.NewDecompressor(r, persistence.Compression(h.Compression))
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	b, err := loader(cr, h)
	if err != nil {
		return nil, err
	}
	return b, nil
}
