package ivf

import (
	"fmt"
	"io"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
)

func init() {
	backend.RegisterLoader(backend.KindIVF, load)
}

// WriteTo serializes the coarse quantizer and the inverted lists.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := persistence.NewWriter(w)

	if err := bw.WriteUint64(uint64(ix.nlist)); err != nil {
		return bw.BytesWritten(), err
	}
	if err := bw.WriteUint64(uint64(ix.nprobe)); err != nil {
		return bw.BytesWritten(), err
	}
	if err := bw.WriteUint64(uint64(ix.nextLabel)); err != nil {
		return bw.BytesWritten(), err
	}
	if err := bw.WriteFloat32Slice(ix.centroids); err != nil {
		return bw.BytesWritten(), err
	}

	for _, list := range ix.lists {
		labels := make([]int64, len(list))
		vecs := make([]float32, 0, len(list)*ix.dim)
		for i, e := range list {
			labels[i] = e.label
			vecs = append(vecs, e.vec...)
		}
		if err := bw.WriteInt64Slice(labels); err != nil {
			return bw.BytesWritten(), err
		}
		if err := bw.WriteFloat32Slice(vecs); err != nil {
			return bw.BytesWritten(), err
		}
	}

	return bw.BytesWritten(), nil
}

func load(r io.Reader, h *persistence.Header) (backend.Backend, error) {
	br := persistence.NewReader(r)

	nlist, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	nprobe, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	nextLabel, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	if nlist < 1 {
		return nil, fmt.Errorf("snapshot declares %d inverted lists", nlist)
	}
	if nprobe < 1 || nprobe > nlist {
		return nil, fmt.Errorf("snapshot probe width %d outside [1, %d]", nprobe, nlist)
	}

	ix := New(int(h.Dimension), int(nlist), distance.Metric(h.Metric))
	ix.nprobe = int(nprobe)
	ix.nextLabel = int64(nextLabel)
	ix.trained = h.Trained == 1

	ix.centroids, err = br.ReadFloat32Slice()
	if err != nil {
		return nil, err
	}
	if ix.trained && len(ix.centroids) != int(nlist)*ix.dim {
		return nil, fmt.Errorf("snapshot holds %d centroid floats, want %d", len(ix.centroids), int(nlist)*ix.dim)
	}

	for i := 0; i < int(nlist); i++ {
		labels, err := br.ReadInt64Slice()
		if err != nil {
			return nil, err
		}
		vecs, err := br.ReadFloat32Slice()
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(labels)*ix.dim {
			return nil, fmt.Errorf("snapshot list %d holds %d floats for %d labels", i, len(vecs), len(labels))
		}
		list := make([]entry, len(labels))
		for j := range labels {
			list[j] = entry{label: labels[j], vec: vecs[j*ix.dim : (j+1)*ix.dim]}
		}
		ix.lists[i] = list
		ix.ntotal += len(list)
	}

	return ix, nil
}
