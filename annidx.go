package annidx

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/backend/flat"
	"github.com/hupe1980/annidx/backend/hnsw"
	"github.com/hupe1980/annidx/backend/ivf"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
	"github.com/hupe1980/annidx/task"
)

// nextIndexID hands out handle identities. Merges lock the two participating
// indexes in ascending id order, so opposite-direction merges cannot
// deadlock.
var nextIndexID atomic.Uint64

// Index is a thread-safe handle owning exactly one search backend. Every
// operation takes the handle's lock, so no two operations ever touch the
// backend concurrently. A closed index rejects everything except Close.
type Index struct {
	id          uint64
	dim         int
	metric      distance.Metric
	logger      *Logger
	metrics     MetricsCollector
	pool        *task.Pool
	serial      *task.Serial
	ownsPool    bool
	compression persistence.Compression

	mu      sync.Mutex
	backend backend.Backend
	closed  bool
}

// SearchResult holds one row of neighbors per query, row-major. Rows shorter
// than the effective k are padded with label -1 and the metric's worst
// distance.
type SearchResult struct {
	Distances []float32
	Labels    []int64
	K         int
}

// RangeResult holds all neighbors within the radius, grouped per query.
// Query i's neighbors occupy positions Lims[i] to Lims[i+1], ordered best
// first.
type RangeResult struct {
	Distances []float32
	Labels    []int64
	Lims      []uint64
}

// Stats is a consistent snapshot of an index's observable state.
type Stats struct {
	NTotal    int
	Dimension int
	IsTrained bool
}

// New constructs an index. The descriptor selects the backend variant:
// "Flat", "IVF<nlist>,Flat", or "HNSW<m>".
func New(dimension int, descriptor string, metric distance.Metric, optFns ...Option) (*Index, error) {
	if dimension <= 0 {
		return nil, invalidArgf("dimension must be positive, got %d", dimension)
	}
	if !metric.Valid() {
		return nil, invalidArgf("unknown metric %d", metric)
	}

	spec, err := backend.ParseDescriptor(descriptor)
	if err != nil {
		return nil, backendErr("construct", err)
	}

	b, err := newBackend(dimension, spec, metric)
	if err != nil {
		return nil, backendErr("construct", err)
	}

	return newIndex(b, optFns), nil
}

func newBackend(dim int, spec backend.Spec, metric distance.Metric) (backend.Backend, error) {
	switch spec.Kind {
	case backend.KindFlat:
		return flat.New(dim, metric), nil
	case backend.KindIVF:
		return ivf.New(dim, spec.NList, metric), nil
	case backend.KindHNSW:
		return hnsw.New(dim, spec.M, metric), nil
	default:
		return nil, fmt.Errorf("unsupported backend kind %d", spec.Kind)
	}
}

// newIndex wraps a ready backend in a handle. Shared by New and the
// snapshot loaders.
func newIndex(b backend.Backend, optFns []Option) *Index {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	ix := &Index{
		id:          nextIndexID.Add(1),
		dim:         b.Dimension(),
		metric:      b.Metric(),
		logger:      opts.logger,
		metrics:     opts.metrics,
		pool:        opts.pool,
		compression: opts.compression,
		backend:     b,
	}
	if ix.pool == nil {
		ix.pool = task.NewPool(0)
		ix.ownsPool = true
	}
	ix.serial = task.NewSerial(ix.pool)
	// A pool torn down by Close must surface as the handle's own terminal
	// state, not as a pool internals error.
	ix.serial.OnReject(func(err error) error {
		if errors.Is(err, task.ErrPoolClosed) && ix.isClosed() {
			return ErrClosed
		}
		return err
	})
	return ix
}

func (ix *Index) isClosed() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.closed
}

// ID returns the handle's unique identity.
func (ix *Index) ID() uint64 { return ix.id }

// Dimension returns the fixed vector dimensionality.
func (ix *Index) Dimension() int { return ix.dim }

// Metric returns the distance metric.
func (ix *Index) Metric() distance.Metric { return ix.metric }

// Descriptor returns the backend's construction descriptor.
func (ix *Index) Descriptor() (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return "", ErrClosed
	}
	return ix.backend.Descriptor(), nil
}

// checkVectors validates a batch buffer against the index dimension.
func (ix *Index) checkVectors(vectors []float32, count int) error {
	if count < 0 {
		return invalidArgf("count must not be negative, got %d", count)
	}
	if len(vectors) != count*ix.dim {
		return invalidArgf("vector buffer holds %d floats, want %d (count %d x dimension %d)",
			len(vectors), count*ix.dim, count, ix.dim)
	}
	return nil
}

// Train runs the backend's training pass over count vectors. Training with
// zero vectors is an error, unlike Add.
func (ix *Index) Train(vectors []float32, count int) error {
	if count <= 0 {
		return invalidArgf("train requires at least one vector, got count %d", count)
	}
	if err := ix.checkVectors(vectors, count); err != nil {
		return err
	}

	start := time.Now()
	err := func() error {
		ix.mu.Lock()
		defer ix.mu.Unlock()
		if ix.closed {
			return ErrClosed
		}
		return backendErr("train", ix.backend.Train(vectors, count))
	}()

	ix.metrics.RecordTrain(time.Since(start), err)
	ix.logger.LogTrain(ix.id, count, err)
	return err
}

// Add stores count vectors. count == 0 is a permitted no-op.
func (ix *Index) Add(vectors []float32, count int) error {
	if err := ix.checkVectors(vectors, count); err != nil {
		return err
	}

	start := time.Now()
	err := func() error {
		ix.mu.Lock()
		defer ix.mu.Unlock()
		if ix.closed {
			return ErrClosed
		}
		if count == 0 {
			return nil
		}
		return backendErr("add", ix.backend.Add(vectors, count))
	}()

	ix.metrics.RecordAdd(count, time.Since(start), err)
	ix.logger.LogAdd(ix.id, count, err)
	return err
}

// Search returns the k nearest neighbors of a single query. The effective k
// is clamped to the number of stored vectors; callers must not assume the
// requested k is always returned.
func (ix *Index) Search(query []float32, k int, optFns ...SearchOption) (*SearchResult, error) {
	if len(query) != ix.dim {
		return nil, invalidArgf("query holds %d floats, want dimension %d", len(query), ix.dim)
	}
	return ix.searchBatch(query, 1, k, optFns)
}

// SearchBatch answers nq queries at once. The clamp on k is computed once
// and applied uniformly across the batch.
func (ix *Index) SearchBatch(queries []float32, nq, k int, optFns ...SearchOption) (*SearchResult, error) {
	if nq <= 0 {
		return nil, invalidArgf("nq must be positive, got %d", nq)
	}
	if len(queries) != nq*ix.dim {
		return nil, invalidArgf("query buffer holds %d floats, want %d (nq %d x dimension %d)",
			len(queries), nq*ix.dim, nq, ix.dim)
	}
	return ix.searchBatch(queries, nq, k, optFns)
}

func (ix *Index) searchBatch(queries []float32, nq, k int, optFns []SearchOption) (*SearchResult, error) {
	if k <= 0 {
		return nil, invalidArgf("k must be positive, got %d", k)
	}

	var sopts searchOptions
	for _, fn := range optFns {
		fn(&sopts)
	}

	start := time.Now()
	res, err := func() (*SearchResult, error) {
		ix.mu.Lock()
		defer ix.mu.Unlock()
		if ix.closed {
			return nil, ErrClosed
		}

		ntotal := ix.backend.NTotal()
		if ntotal == 0 {
			return nil, ErrEmptyIndex
		}
		kEff := min(k, ntotal)

		distances, labels, err := ix.backend.Search(queries, nq, kEff, sopts.filter)
		if err != nil {
			return nil, backendErr("search", err)
		}
		return &SearchResult{Distances: distances, Labels: labels, K: kEff}, nil
	}()

	ix.metrics.RecordSearch(nq, time.Since(start), err)
	ix.logger.LogSearch(ix.id, nq, k, err)
	return res, err
}

// RangeSearch returns every stored vector within radius of the query,
// ordered best first.
func (ix *Index) RangeSearch(query []float32, radius float32, optFns ...SearchOption) (*RangeResult, error) {
	if len(query) != ix.dim {
		return nil, invalidArgf("query holds %d floats, want dimension %d", len(query), ix.dim)
	}
	if radius < 0 {
		return nil, invalidArgf("radius must not be negative, got %f", radius)
	}

	var sopts searchOptions
	for _, fn := range optFns {
		fn(&sopts)
	}

	start := time.Now()
	res, err := func() (*RangeResult, error) {
		ix.mu.Lock()
		defer ix.mu.Unlock()
		if ix.closed {
			return nil, ErrClosed
		}
		if ix.backend.NTotal() == 0 {
			return nil, ErrEmptyIndex
		}

		br, err := ix.backend.RangeSearch(query, 1, radius, sopts.filter)
		if err != nil {
			return nil, backendErr("range search", err)
		}
		return &RangeResult{Distances: br.Distances, Labels: br.Labels, Lims: br.Lims}, nil
	}()

	ix.metrics.RecordSearch(1, time.Since(start), err)
	ix.logger.LogSearch(ix.id, 1, 0, err)
	return res, err
}

// SetProbeWidth adjusts the backend's speed/recall trade-off. Variants
// without such a knob silently ignore the call.
func (ix *Index) SetProbeWidth(n int) error {
	if n <= 0 {
		return invalidArgf("probe width must be positive, got %d", n)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	if s, ok := ix.backend.(backend.ProbeWidthSetter); ok {
		s.SetProbeWidth(n)
	}
	return nil
}

// Reset removes all stored vectors. Dimension, training state, and
// structural parameters are retained.
func (ix *Index) Reset() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	ix.backend.Reset()
	return nil
}

// Stats returns the vector count, dimension, and training state, read under
// the lock so the three fields are mutually consistent.
func (ix *Index) Stats() (Stats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return Stats{}, ErrClosed
	}
	return Stats{
		NTotal:    ix.backend.NTotal(),
		Dimension: ix.backend.Dimension(),
		IsTrained: ix.backend.IsTrained(),
	}, nil
}

// MergeFrom moves a copy of every vector in src into ix. src is left
// unmodified and fully usable. Merged vectors receive fresh labels in ix.
//
// The two handles are locked in ascending id order, so concurrent merges in
// opposite directions cannot deadlock.
func (ix *Index) MergeFrom(src *Index) error {
	if src == nil {
		return invalidArgf("merge source must not be nil")
	}
	if src == ix {
		return invalidArgf("cannot merge an index into itself")
	}

	first, second := ix, src
	if src.id < ix.id {
		first, second = src, ix
	}

	start := time.Now()
	added, err := func() (int, error) {
		first.mu.Lock()
		defer first.mu.Unlock()
		second.mu.Lock()
		defer second.mu.Unlock()

		if ix.closed || src.closed {
			return 0, ErrClosed
		}
		if ix.dim != src.dim {
			return 0, &ErrDimensionMismatch{Expected: ix.dim, Actual: src.dim}
		}

		n := src.backend.NTotal()
		if err := backend.Merge(ix.backend, src.backend); err != nil {
			return 0, backendErr("merge", err)
		}
		return n, nil
	}()

	ix.metrics.RecordMerge(added, time.Since(start), err)
	ix.logger.LogMerge(ix.id, src.id, added, err)
	return err
}

// Close releases the backend. The first call transitions the index to its
// terminal state; later calls are no-ops. When the index owns its task pool,
// Close waits for in-flight asynchronous operations to finish.
func (ix *Index) Close() error {
	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		return nil
	}
	ix.closed = true
	ix.backend = nil
	ix.mu.Unlock()

	// Outside the lock: queued tasks need the lock to observe the closed
	// state and fail fast.
	if ix.ownsPool {
		ix.pool.Close()
	}

	ix.logger.Debug("index closed", "index", ix.id)
	return nil
}
