// Package backend defines the capability interface implemented by the index
// variants (flat, inverted-file, graph) and the self-describing snapshot
// envelope used to persist them.
package backend

import (
	"fmt"
	"io"

	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/internal/queue"
)

// Kind identifies a backend variant in snapshot headers and stats.
type Kind uint8

const (
	KindFlat Kind = 1
	KindIVF  Kind = 2
	KindHNSW Kind = 3
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "Flat"
	case KindIVF:
		return "IVF"
	case KindHNSW:
		return "HNSW"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Filter restricts a search to labels it accepts. A nil Filter accepts all.
type Filter func(label int64) bool

// RangeResult holds range-search results for nq queries. Lims has nq+1
// entries; the results for query i live at [Lims[i], Lims[i+1]).
type RangeResult struct {
	Distances []float32
	Labels    []int64
	Lims      []uint64
}

// Backend is the capability interface over one index variant.
//
// Implementations are NOT safe for concurrent use; the owning handle
// serializes access (see the root package).
type Backend interface {
	// Kind identifies the variant.
	Kind() Kind

	// Descriptor returns the canonical construction descriptor, e.g.
	// "Flat", "IVF64,Flat", "HNSW32".
	Descriptor() string

	// Dimension returns the fixed vector dimensionality.
	Dimension() int

	// Metric returns the distance metric.
	Metric() distance.Metric

	// NTotal returns the number of stored vectors.
	NTotal() int

	// IsTrained reports whether the index is ready for Add/Search.
	IsTrained() bool

	// Train learns index structure from n vectors (n * Dimension values).
	Train(vectors []float32, n int) error

	// Add stores n vectors (n * Dimension values), assigning sequential labels.
	Add(vectors []float32, n int) error

	// Search returns the k nearest labels for each of nq queries, best first.
	// k must already be clamped to NTotal by the caller. Rows where a filter
	// leaves fewer than k matches are padded with label -1.
	Search(queries []float32, nq, k int, filter Filter) (distances []float32, labels []int64, err error)

	// RangeSearch returns all stored vectors within radius of each query,
	// ordered best first per query.
	RangeSearch(queries []float32, nq int, radius float32, filter Filter) (*RangeResult, error)

	// Reset removes all stored vectors, retaining structure and training.
	Reset()

	// ForEach visits every stored vector in label order. The vector slice is
	// only valid for the duration of the callback.
	ForEach(fn func(label int64, vec []float32) error) error

	// WriteTo serializes the variant-specific payload (excluding the envelope).
	WriteTo(w io.Writer) (int64, error)
}

// ProbeWidthSetter is implemented by variants that expose a search-width
// tuning knob (IVF nprobe, HNSW efSearch). Variants without such a knob
// simply do not implement it.
type ProbeWidthSetter interface {
	SetProbeWidth(n int)
}

// FillRow copies ranked candidates into a fixed-size output row, padding
// short rows (possible under a filter) with label -1 and the metric's worst
// distance.
func FillRow(distances []float32, labels []int64, row []queue.Candidate, m distance.Metric) {
	for i := range distances {
		if i < len(row) {
			distances[i] = row[i].Distance
			labels[i] = row[i].Label
		} else {
			distances[i] = m.Worst()
			labels[i] = -1
		}
	}
}

// Merge appends every vector stored in src to dst, assigning fresh labels in
// dst. src is not modified. The dimension check is the caller's duty; dst may
// still reject vectors (e.g. an untrained inverted-file index).
func Merge(dst, src Backend) error {
	n := src.NTotal()
	if n == 0 {
		return nil
	}

	dim := src.Dimension()
	buf := make([]float32, 0, n*dim)
	if err := src.ForEach(func(_ int64, vec []float32) error {
		buf = append(buf, vec...)
		return nil
	}); err != nil {
		return err
	}

	return dst.Add(buf, n)
}
