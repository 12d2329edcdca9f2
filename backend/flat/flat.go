// Package flat implements the exact brute-force backend. Every query scans
// all stored vectors, so recall is always 100%.
package flat

import (
	"sort"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/internal/queue"
)

// Compile time check to ensure Index satisfies the backend interface.
var _ backend.Backend = (*Index)(nil)

// Index is a flat (brute-force) index. Labels are the insertion positions.
type Index struct {
	dim     int
	metric  distance.Metric
	vectors []float32 // ntotal * dim, contiguous row-major
}

// New creates an empty flat index.
func New(dim int, metric distance.Metric) *Index {
	return &Index{dim: dim, metric: metric}
}

// Kind identifies the variant.
func (f *Index) Kind() backend.Kind { return backend.KindFlat }

// Descriptor returns the canonical construction descriptor.
func (f *Index) Descriptor() string { return "Flat" }

// Dimension returns the fixed vector dimensionality.
func (f *Index) Dimension() int { return f.dim }

// Metric returns the distance metric.
func (f *Index) Metric() distance.Metric { return f.metric }

// NTotal returns the number of stored vectors.
func (f *Index) NTotal() int { return len(f.vectors) / f.dim }

// IsTrained always reports true: flat indexes need no training.
func (f *Index) IsTrained() bool { return true }

// Train is a no-op for flat indexes.
func (f *Index) Train(vectors []float32, n int) error { return nil }

// Add copies n vectors into the index.
func (f *Index) Add(vectors []float32, n int) error {
	f.vectors = append(f.vectors, vectors[:n*f.dim]...)
	return nil
}

// Search scans all stored vectors for each query.
func (f *Index) Search(queries []float32, nq, k int, filter backend.Filter) ([]float32, []int64, error) {
	distances := make([]float32, nq*k)
	labels := make([]int64, nq*k)

	ntotal := f.NTotal()
	for qi := 0; qi < nq; qi++ {
		q := queries[qi*f.dim : (qi+1)*f.dim]

		cands := queue.NewCandidates(f.metric)
		for i := 0; i < ntotal; i++ {
			label := int64(i)
			if filter != nil && !filter(label) {
				continue
			}
			d := f.metric.Distance(q, f.vectors[i*f.dim:(i+1)*f.dim])
			cands.Offer(label, d, k)
		}

		row := cands.Drain()
		backend.FillRow(distances[qi*k:(qi+1)*k], labels[qi*k:(qi+1)*k], row, f.metric)
	}

	return distances, labels, nil
}

// RangeSearch returns all stored vectors within radius of each query.
func (f *Index) RangeSearch(queries []float32, nq int, radius float32, filter backend.Filter) (*backend.RangeResult, error) {
	res := &backend.RangeResult{Lims: make([]uint64, nq+1)}

	ntotal := f.NTotal()
	for qi := 0; qi < nq; qi++ {
		q := queries[qi*f.dim : (qi+1)*f.dim]

		var row []queue.Candidate
		for i := 0; i < ntotal; i++ {
			label := int64(i)
			if filter != nil && !filter(label) {
				continue
			}
			d := f.metric.Distance(q, f.vectors[i*f.dim:(i+1)*f.dim])
			if f.metric.WithinRadius(d, radius) {
				row = append(row, queue.Candidate{Label: label, Distance: d})
			}
		}

		sort.Slice(row, func(i, j int) bool {
			return f.metric.Closer(row[i].Distance, row[j].Distance)
		})

		for _, c := range row {
			res.Distances = append(res.Distances, c.Distance)
			res.Labels = append(res.Labels, c.Label)
		}
		res.Lims[qi+1] = uint64(len(res.Labels))
	}

	return res, nil
}

// Reset removes all stored vectors.
func (f *Index) Reset() {
	f.vectors = f.vectors[:0]
}

// ForEach visits every stored vector in label order.
func (f *Index) ForEach(fn func(label int64, vec []float32) error) error {
	ntotal := f.NTotal()
	for i := 0; i < ntotal; i++ {
		if err := fn(int64(i), f.vectors[i*f.dim:(i+1)*f.dim]); err != nil {
			return err
		}
	}
	return nil
}
