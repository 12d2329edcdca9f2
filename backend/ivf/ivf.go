// Package ivf implements the inverted-file backend: vectors are bucketed by
// their nearest coarse centroid and queries probe only the closest buckets.
//
// The index must be trained (k-means over a representative sample) before
// vectors can be added or searched. The probe width (number of buckets
// visited per query) trades recall for speed.
package ivf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/internal/kmeans"
	"github.com/hupe1980/annidx/internal/queue"
)

// Compile time checks against the capability interfaces.
var (
	_ backend.Backend          = (*Index)(nil)
	_ backend.ProbeWidthSetter = (*Index)(nil)
)

// ErrNotTrained is returned when vectors are added to or searched in an
// untrained inverted-file index.
var ErrNotTrained = errors.New("ivf: index must be trained first")

const trainIterations = 20

// entry is one stored vector inside an inverted list.
type entry struct {
	label int64
	vec   []float32
}

// Index is an inverted-file index over flat list storage.
type Index struct {
	dim       int
	metric    distance.Metric
	nlist     int
	nprobe    int
	trained   bool
	centroids []float32 // nlist * dim
	lists     [][]entry
	ntotal    int
	nextLabel int64
}

// New creates an untrained inverted-file index with nlist buckets.
func New(dim, nlist int, metric distance.Metric) *Index {
	return &Index{
		dim:    dim,
		metric: metric,
		nlist:  nlist,
		nprobe: backend.DefaultIVFNProbe,
		lists:  make([][]entry, nlist),
	}
}

// Kind identifies the variant.
func (ix *Index) Kind() backend.Kind { return backend.KindIVF }

// Descriptor returns the canonical construction descriptor.
func (ix *Index) Descriptor() string { return fmt.Sprintf("IVF%d,Flat", ix.nlist) }

// Dimension returns the fixed vector dimensionality.
func (ix *Index) Dimension() int { return ix.dim }

// Metric returns the distance metric.
func (ix *Index) Metric() distance.Metric { return ix.metric }

// NTotal returns the number of stored vectors.
func (ix *Index) NTotal() int { return ix.ntotal }

// IsTrained reports whether the coarse quantizer has been trained.
func (ix *Index) IsTrained() bool { return ix.trained }

// SetProbeWidth sets the number of inverted lists probed per query,
// clamped to [1, nlist].
func (ix *Index) SetProbeWidth(n int) {
	if n < 1 {
		n = 1
	}
	if n > ix.nlist {
		n = ix.nlist
	}
	ix.nprobe = n
}

// Train learns the coarse centroids from n training vectors. A populated
// index cannot be retrained: the existing bucket assignments would go stale.
func (ix *Index) Train(vectors []float32, n int) error {
	if ix.trained && ix.ntotal > 0 {
		return errors.New("ivf: cannot retrain a populated index")
	}
	if n < ix.nlist {
		return fmt.Errorf("ivf: need at least %d training vectors for %d lists, got %d", ix.nlist, ix.nlist, n)
	}

	ix.centroids = kmeans.Train(vectors[:n*ix.dim], ix.dim, ix.nlist, trainIterations, int64(n))
	ix.trained = true
	return nil
}

// Add buckets n vectors by their nearest centroid.
func (ix *Index) Add(vectors []float32, n int) error {
	if !ix.trained {
		return ErrNotTrained
	}

	for i := 0; i < n; i++ {
		vec := make([]float32, ix.dim)
		copy(vec, vectors[i*ix.dim:(i+1)*ix.dim])

		list := ix.nearestCentroid(vec)
		ix.lists[list] = append(ix.lists[list], entry{label: ix.nextLabel, vec: vec})
		ix.nextLabel++
		ix.ntotal++
	}
	return nil
}

// Search probes the nprobe closest lists for each query.
func (ix *Index) Search(queries []float32, nq, k int, filter backend.Filter) ([]float32, []int64, error) {
	if !ix.trained {
		return nil, nil, ErrNotTrained
	}

	distances := make([]float32, nq*k)
	labels := make([]int64, nq*k)

	for qi := 0; qi < nq; qi++ {
		q := queries[qi*ix.dim : (qi+1)*ix.dim]

		cands := queue.NewCandidates(ix.metric)
		for _, list := range ix.probeOrder(q) {
			for _, e := range ix.lists[list] {
				if filter != nil && !filter(e.label) {
					continue
				}
				cands.Offer(e.label, ix.metric.Distance(q, e.vec), k)
			}
		}

		row := cands.Drain()
		backend.FillRow(distances[qi*k:(qi+1)*k], labels[qi*k:(qi+1)*k], row, ix.metric)
	}

	return distances, labels, nil
}

// RangeSearch probes the nprobe closest lists and keeps entries within radius.
func (ix *Index) RangeSearch(queries []float32, nq int, radius float32, filter backend.Filter) (*backend.RangeResult, error) {
	if !ix.trained {
		return nil, ErrNotTrained
	}

	res := &backend.RangeResult{Lims: make([]uint64, nq+1)}

	for qi := 0; qi < nq; qi++ {
		q := queries[qi*ix.dim : (qi+1)*ix.dim]

		var row []queue.Candidate
		for _, list := range ix.probeOrder(q) {
			for _, e := range ix.lists[list] {
				if filter != nil && !filter(e.label) {
					continue
				}
				d := ix.metric.Distance(q, e.vec)
				if ix.metric.WithinRadius(d, radius) {
					row = append(row, queue.Candidate{Label: e.label, Distance: d})
				}
			}
		}

		sort.Slice(row, func(i, j int) bool {
			return ix.metric.Closer(row[i].Distance, row[j].Distance)
		})

		for _, c := range row {
			res.Distances = append(res.Distances, c.Distance)
			res.Labels = append(res.Labels, c.Label)
		}
		res.Lims[qi+1] = uint64(len(res.Labels))
	}

	return res, nil
}

// Reset removes all stored vectors. Centroids and training survive.
func (ix *Index) Reset() {
	for i := range ix.lists {
		ix.lists[i] = nil
	}
	ix.ntotal = 0
	ix.nextLabel = 0
}

// ForEach visits every stored vector in label order.
func (ix *Index) ForEach(fn func(label int64, vec []float32) error) error {
	ordered := make([]entry, 0, ix.ntotal)
	for _, list := range ix.lists {
		ordered = append(ordered, list...)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].label < ordered[j].label })

	for _, e := range ordered {
		if err := fn(e.label, e.vec); err != nil {
			return err
		}
	}
	return nil
}

// nearestCentroid returns the bucket whose centroid ranks closest under the
// index metric.
func (ix *Index) nearestCentroid(vec []float32) int {
	best := 0
	bestDist := ix.metric.Worst()
	for i := 0; i < ix.nlist; i++ {
		d := ix.metric.Distance(vec, ix.centroids[i*ix.dim:(i+1)*ix.dim])
		if ix.metric.Closer(d, bestDist) {
			bestDist = d
			best = i
		}
	}
	return best
}

// probeOrder returns the nprobe bucket indices closest to q, best first.
func (ix *Index) probeOrder(q []float32) []int {
	ranked := make([]queue.Candidate, ix.nlist)
	for i := 0; i < ix.nlist; i++ {
		ranked[i] = queue.Candidate{
			Label:    int64(i),
			Distance: ix.metric.Distance(q, ix.centroids[i*ix.dim:(i+1)*ix.dim]),
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ix.metric.Closer(ranked[i].Distance, ranked[j].Distance)
	})

	probes := make([]int, ix.nprobe)
	for i := range probes {
		probes[i] = int(ranked[i].Label)
	}
	return probes
}
