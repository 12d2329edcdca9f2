// Package hnsw implements the hierarchical navigable small world backend: a
// multi-layer proximity graph searched by greedy descent from the top layer
// followed by a beam search on the base layer.
//
// The index needs no training. Search quality is tuned through the probe
// width, which sets the base-layer beam size (efSearch).
package hnsw

import (
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/internal/queue"
	"github.com/hupe1980/annidx/internal/visited"
)

var (
	_ backend.Backend          = (*Index)(nil)
	_ backend.ProbeWidthSetter = (*Index)(nil)
)

const (
	efConstruction = 200

	// Sanity limits enforced when reading snapshots.
	maxM          = 1 << 16
	maxGraphLevel = 64
)

// node is one vertex of the proximity graph. edges[l] holds the neighbor
// labels at layer l; a node participates in layers 0..level.
type node struct {
	vec   []float32
	level int
	edges [][]int64
}

// Index is a hierarchical navigable small world graph.
type Index struct {
	dim       int
	metric    distance.Metric
	m         int // max neighbors per node per upper layer; 2*m at layer 0
	efSearch  int
	levelMult float64
	entry     int64 // label of the entry point, -1 when empty
	maxLevel  int
	nodes     []*node
	rng       *rand.Rand
	seen      *visited.Set // scratch for searchLayer, reset per traversal
}

// New creates an empty graph with at most m neighbors per node per layer.
func New(dim, m int, metric distance.Metric) *Index {
	if m < 2 {
		m = 2
	}
	return &Index{
		dim:       dim,
		metric:    metric,
		m:         m,
		efSearch:  backend.DefaultHNSWSearch,
		levelMult: 1.0 / math.Log(float64(m)),
		entry:     -1,
		rng:       rand.New(rand.NewSource(42)),
		seen:      visited.New(0),
	}
}

// Kind identifies the variant.
func (ix *Index) Kind() backend.Kind { return backend.KindHNSW }

// Descriptor returns the canonical construction descriptor.
func (ix *Index) Descriptor() string {
	return "HNSW" + strconv.Itoa(ix.m)
}

// Dimension returns the fixed vector dimensionality.
func (ix *Index) Dimension() int { return ix.dim }

// Metric returns the distance metric.
func (ix *Index) Metric() distance.Metric { return ix.metric }

// NTotal returns the number of stored vectors.
func (ix *Index) NTotal() int { return len(ix.nodes) }

// IsTrained always reports true: graph construction needs no training pass.
func (ix *Index) IsTrained() bool { return true }

// Train is a no-op.
func (ix *Index) Train(vectors []float32, n int) error { return nil }

// SetProbeWidth sets the base-layer beam size used by Search.
func (ix *Index) SetProbeWidth(n int) {
	if n < 1 {
		n = 1
	}
	ix.efSearch = n
}

// Add inserts n vectors into the graph.
func (ix *Index) Add(vectors []float32, n int) error {
	for i := 0; i < n; i++ {
		vec := make([]float32, ix.dim)
		copy(vec, vectors[i*ix.dim:(i+1)*ix.dim])
		ix.insert(vec)
	}
	return nil
}

// randomLevel draws a level from the exponentially decaying distribution.
func (ix *Index) randomLevel() int {
	return int(-math.Log(ix.rng.Float64()) * ix.levelMult)
}

func (ix *Index) insert(vec []float32) {
	level := ix.randomLevel()

	nd := &node{vec: vec, level: level, edges: make([][]int64, level+1)}
	label := int64(len(ix.nodes))
	ix.nodes = append(ix.nodes, nd)

	if ix.entry < 0 {
		ix.entry = label
		ix.maxLevel = level
		return
	}

	cur := ix.entry

	// Greedy descent through the layers above the insertion level.
	for l := ix.maxLevel; l > level; l-- {
		cur = ix.greedyClosest(vec, cur, l)
	}

	// From the insertion level down, collect neighbors with a beam search
	// and link both directions.
	for l := min(level, ix.maxLevel); l >= 0; l-- {
		found := ix.searchLayer(vec, cur, l, efConstruction, nil)

		limit := ix.layerCap(l)
		if len(found) > limit {
			found = found[:limit]
		}

		for _, c := range found {
			nd.edges[l] = append(nd.edges[l], c.Label)
			ix.linkBack(c.Label, label, l)
		}
		if len(found) > 0 {
			cur = found[0].Label
		}
	}

	if level > ix.maxLevel {
		ix.maxLevel = level
		ix.entry = label
	}
}

// layerCap is the maximum neighbor count for one node at layer l.
func (ix *Index) layerCap(l int) int {
	if l == 0 {
		return 2 * ix.m
	}
	return ix.m
}

// linkBack adds a reverse edge from to back to from, trimming to's neighbor
// list to the layer cap by keeping the closest.
func (ix *Index) linkBack(to, from int64, l int) {
	nd := ix.nodes[to]
	nd.edges[l] = append(nd.edges[l], from)

	limit := ix.layerCap(l)
	if len(nd.edges[l]) <= limit {
		return
	}

	sort.Slice(nd.edges[l], func(i, j int) bool {
		di := ix.metric.Distance(nd.vec, ix.nodes[nd.edges[l][i]].vec)
		dj := ix.metric.Distance(nd.vec, ix.nodes[nd.edges[l][j]].vec)
		return ix.metric.Closer(di, dj)
	})
	nd.edges[l] = nd.edges[l][:limit]
}

// greedyClosest walks layer l from start toward q until no neighbor improves.
func (ix *Index) greedyClosest(q []float32, start int64, l int) int64 {
	cur := start
	curDist := ix.metric.Distance(q, ix.nodes[cur].vec)

	for {
		improved := false
		nd := ix.nodes[cur]
		if l <= nd.level {
			for _, nb := range nd.edges[l] {
				d := ix.metric.Distance(q, ix.nodes[nb].vec)
				if ix.metric.Closer(d, curDist) {
					cur, curDist = nb, d
					improved = true
				}
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer runs a beam search with beam size ef on layer l starting from
// entry and returns up to ef candidates ordered best first. filter, when set,
// restricts which labels may enter the result set (graph edges are still
// traversed through filtered nodes).
func (ix *Index) searchLayer(q []float32, entry int64, l, ef int, filter backend.Filter) []queue.Candidate {
	// The handle serializes backend access, so the scratch set is never
	// shared between traversals.
	seen := ix.seen
	seen.Reset()
	seen.Visit(uint64(entry))

	frontier := queue.NewFrontier(ix.metric)
	results := queue.NewCandidates(ix.metric)

	entryDist := ix.metric.Distance(q, ix.nodes[entry].vec)
	frontier.PushCandidate(entry, entryDist)
	if filter == nil || filter(entry) {
		results.Offer(entry, entryDist, ef)
	}

	for frontier.Len() > 0 {
		c := frontier.PopCandidate()
		if results.Len() >= ef && ix.metric.Closer(results.Top().Distance, c.Distance) {
			break
		}

		nd := ix.nodes[c.Label]
		if l > nd.level {
			continue
		}
		for _, nb := range nd.edges[l] {
			if seen.Visited(uint64(nb)) {
				continue
			}
			seen.Visit(uint64(nb))

			d := ix.metric.Distance(q, ix.nodes[nb].vec)
			if results.Len() < ef || ix.metric.Closer(d, results.Top().Distance) {
				frontier.PushCandidate(nb, d)
				if filter == nil || filter(nb) {
					results.Offer(nb, d, ef)
				}
			}
		}
	}

	return results.Drain()
}

// Search answers nq queries with up to k neighbors each.
func (ix *Index) Search(queries []float32, nq, k int, filter backend.Filter) ([]float32, []int64, error) {
	distances := make([]float32, nq*k)
	labels := make([]int64, nq*k)

	ef := ix.efSearch
	if ef < k {
		ef = k
	}

	for qi := 0; qi < nq; qi++ {
		q := queries[qi*ix.dim : (qi+1)*ix.dim]

		cur := ix.entry
		for l := ix.maxLevel; l > 0; l-- {
			cur = ix.greedyClosest(q, cur, l)
		}

		row := ix.searchLayer(q, cur, 0, ef, filter)
		if len(row) > k {
			row = row[:k]
		}
		backend.FillRow(distances[qi*k:(qi+1)*k], labels[qi*k:(qi+1)*k], row, ix.metric)
	}

	return distances, labels, nil
}

// RangeSearch scans all stored vectors exactly. The graph offers no bound on
// how far a radius query may reach, so an approximate traversal could miss
// qualifying vectors.
func (ix *Index) RangeSearch(queries []float32, nq int, radius float32, filter backend.Filter) (*backend.RangeResult, error) {
	res := &backend.RangeResult{Lims: make([]uint64, nq+1)}

	for qi := 0; qi < nq; qi++ {
		q := queries[qi*ix.dim : (qi+1)*ix.dim]

		var row []queue.Candidate
		for label, nd := range ix.nodes {
			if filter != nil && !filter(int64(label)) {
				continue
			}
			d := ix.metric.Distance(q, nd.vec)
			if ix.metric.WithinRadius(d, radius) {
				row = append(row, queue.Candidate{Label: int64(label), Distance: d})
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

// Reset removes all vectors and edges.
func (ix *Index) Reset() {
	ix.nodes = nil
	ix.entry = -1
	ix.maxLevel = 0
}

// ForEach visits every stored vector in label order.
func (ix *Index) ForEach(fn func(label int64, vec []float32) error) error {
	for label, nd := range ix.nodes {
		if err := fn(int64(label), nd.vec); err != nil {
			return err
		}
	}
	return nil
}
