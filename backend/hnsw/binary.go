package hnsw

import (
	"fmt"
	"io"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
)

func init() {
	backend.RegisterLoader(backend.KindHNSW, load)
}

// WriteTo serializes the graph: tuning parameters, entry point, then every
// node with its vector and per-layer adjacency lists.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := persistence.NewWriter(w)

	if err := bw.WriteUint64(uint64(ix.m)); err != nil {
		return bw.BytesWritten(), err
	}
	if err := bw.WriteUint64(uint64(ix.efSearch)); err != nil {
		return bw.BytesWritten(), err
	}
	if err := bw.WriteUint64(uint64(ix.entry + 1)); err != nil { // +1 so empty (-1) stays unsigned
		return bw.BytesWritten(), err
	}
	if err := bw.WriteUint64(uint64(ix.maxLevel)); err != nil {
		return bw.BytesWritten(), err
	}

	for _, nd := range ix.nodes {
		if err := bw.WriteUint64(uint64(nd.level)); err != nil {
			return bw.BytesWritten(), err
		}
		if err := bw.WriteFloat32Slice(nd.vec); err != nil {
			return bw.BytesWritten(), err
		}
		for l := 0; l <= nd.level; l++ {
			if err := bw.WriteInt64Slice(nd.edges[l]); err != nil {
				return bw.BytesWritten(), err
			}
		}
	}

	return bw.BytesWritten(), nil
}

func load(r io.Reader, h *persistence.Header) (backend.Backend, error) {
	br := persistence.NewReader(r)

	m, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	efSearch, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	entry, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	maxLevel, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	if m < 2 || m > maxM {
		return nil, fmt.Errorf("snapshot graph degree %d outside [2, %d]", m, maxM)
	}
	if efSearch < 1 {
		return nil, fmt.Errorf("snapshot search width %d, want at least 1", efSearch)
	}
	if maxLevel > maxGraphLevel {
		return nil, fmt.Errorf("snapshot top layer %d exceeds limit %d", maxLevel, maxGraphLevel)
	}
	if entry > h.NTotal {
		return nil, fmt.Errorf("snapshot entry point %d outside %d nodes", int64(entry)-1, h.NTotal)
	}
	if h.NTotal > 0 && entry == 0 {
		return nil, fmt.Errorf("snapshot with %d nodes lacks an entry point", h.NTotal)
	}

	ix := New(int(h.Dimension), int(m), distance.Metric(h.Metric))
	ix.efSearch = int(efSearch)
	ix.entry = int64(entry) - 1
	ix.maxLevel = int(maxLevel)

	ix.nodes = make([]*node, h.NTotal)
	for i := range ix.nodes {
		level, err := br.ReadUint64()
		if err != nil {
			return nil, err
		}
		if level > maxLevel {
			return nil, fmt.Errorf("snapshot node %d at layer %d above top layer %d", i, level, maxLevel)
		}
		vec, err := br.ReadFloat32Slice()
		if err != nil {
			return nil, err
		}
		if len(vec) != ix.dim {
			return nil, fmt.Errorf("snapshot node %d holds %d floats, want dimension %d", i, len(vec), ix.dim)
		}
		nd := &node{vec: vec, level: int(level), edges: make([][]int64, level+1)}
		for l := 0; l <= nd.level; l++ {
			nd.edges[l], err = br.ReadInt64Slice()
			if err != nil {
				return nil, err
			}
			for _, nb := range nd.edges[l] {
				if nb < 0 || nb >= int64(h.NTotal) {
					return nil, fmt.Errorf("snapshot node %d links to %d outside %d nodes", i, nb, h.NTotal)
				}
			}
		}
		ix.nodes[i] = nd
	}

	return ix, nil
}
