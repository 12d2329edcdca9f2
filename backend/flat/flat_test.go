package flat

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
)

func TestAddAndSearch(t *testing.T) {
	f := New(4, distance.MetricL2)

	vectors := []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}
	require.NoError(t, f.Add(vectors, 3))
	assert.Equal(t, 3, f.NTotal())

	dists, labels, err := f.Search([]float32{1, 0, 0, 0}, 1, 3, nil)
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, int64(0), labels[0])
	assert.InDelta(t, 0.0, dists[0], 1e-6)
	assert.Equal(t, int64(1), labels[1])
	assert.InDelta(t, 2.0, dists[1], 1e-6)
}

func TestSearchInnerProduct(t *testing.T) {
	f := New(2, distance.MetricInnerProduct)

	require.NoError(t, f.Add([]float32{1, 0, 0, 1, 2, 2}, 3))

	dists, labels, err := f.Search([]float32{1, 1}, 1, 3, nil)
	require.NoError(t, err)
	// Largest dot product first.
	assert.Equal(t, []int64{2, 0, 1}, labels)
	assert.InDelta(t, 4.0, dists[0], 1e-6)
}

func TestSearchWithFilter(t *testing.T) {
	f := New(2, distance.MetricL2)
	require.NoError(t, f.Add([]float32{0, 0, 1, 1, 2, 2}, 3))

	dists, labels, err := f.Search([]float32{0, 0}, 1, 3, func(label int64) bool {
		return label != 0
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), labels[0])
	assert.Equal(t, int64(2), labels[1])
	// Short row is padded.
	assert.Equal(t, int64(-1), labels[2])
	assert.Equal(t, distance.MetricL2.Worst(), dists[2])
}

func TestRangeSearch(t *testing.T) {
	f := New(4, distance.MetricL2)
	require.NoError(t, f.Add([]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}, 3))

	res, err := f.RangeSearch([]float32{1, 0, 0, 0}, 1, 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, res.Lims)
	assert.Equal(t, []int64{0}, res.Labels)
	assert.InDelta(t, 0.0, res.Distances[0], 1e-6)

	res, err = f.RangeSearch([]float32{1, 0, 0, 0}, 1, 2.0, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 3}, res.Lims)
	assert.Equal(t, int64(0), res.Labels[0])
	for i := 1; i < len(res.Distances); i++ {
		assert.LessOrEqual(t, res.Distances[i-1], res.Distances[i])
	}
}

func TestReset(t *testing.T) {
	f := New(2, distance.MetricL2)
	require.NoError(t, f.Add([]float32{1, 2, 3, 4}, 2))
	require.Equal(t, 2, f.NTotal())

	f.Reset()
	assert.Equal(t, 0, f.NTotal())
	assert.Equal(t, 2, f.Dimension())
	assert.True(t, f.IsTrained())
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := New(4, distance.MetricInnerProduct)
	require.NoError(t, f.Add([]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
	}, 2))

	var buf bytes.Buffer
	require.NoError(t, backend.Save(&buf, f, persistence.CompressionNone))

	loaded, err := backend.Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, backend.KindFlat, loaded.Kind())
	assert.Equal(t, 4, loaded.Dimension())
	assert.Equal(t, distance.MetricInnerProduct, loaded.Metric())
	assert.Equal(t, 2, loaded.NTotal())

	_, labels, err := loaded.Search([]float32{0, 1, 0, 0}, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), labels[0])
}

func TestMergeAdditivity(t *testing.T) {
	a := New(2, distance.MetricL2)
	b := New(2, distance.MetricL2)
	require.NoError(t, a.Add([]float32{0, 0, 1, 1}, 2))
	require.NoError(t, b.Add([]float32{5, 5}, 1))

	require.NoError(t, backend.Merge(a, b))
	assert.Equal(t, 3, a.NTotal())
	assert.Equal(t, 1, b.NTotal())

	// Merged vector got the next sequential label.
	_, labels, err := a.Search([]float32{5, 5}, 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), labels[0])
}

func TestLoadRejectsZeroDimension(t *testing.T) {
	f := New(4, distance.MetricL2)
	require.NoError(t, f.Add([]float32{1, 0, 0, 0}, 1))

	var buf bytes.Buffer
	require.NoError(t, backend.Save(&buf, f, persistence.CompressionNone))

	// Dimension lives at header bytes 12..16.
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[12:16], 0)

	_, err := backend.Load(bytes.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension 0")
}
