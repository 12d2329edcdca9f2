package flat

import (
	"fmt"
	"io"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
)

func init() {
	backend.RegisterLoader(backend.KindFlat, func(r io.Reader, h *persistence.Header) (backend.Backend, error) {
		f := New(int(h.Dimension), distance.Metric(h.Metric))

		vectors, err := persistence.NewReader(r).ReadFloat32Slice()
		if err != nil {
			return nil, err
		}
		if len(vectors)%f.dim != 0 {
			return nil, fmt.Errorf("snapshot holds %d floats, not a multiple of dimension %d", len(vectors), f.dim)
		}
		f.vectors = vectors
		return f, nil
	})
}

// WriteTo serializes the stored vectors.
func (f *Index) WriteTo(w io.Writer) (int64, error) {
	pw := persistence.NewWriter(w)
	if err := pw.WriteFloat32Slice(f.vectors); err != nil {
		return pw.BytesWritten(), err
	}
	return pw.BytesWritten(), nil
}
