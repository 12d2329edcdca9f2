package hnsw

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
)

func randomVectors(t *testing.T, dim, n int) []float32 {
	t.Helper()

	rng := rand.New(rand.NewSource(3))
	out := make([]float32, n*dim)
	for i := range out {
		out[i] = rng.Float32()
	}
	return out
}

func TestAddAndSearch(t *testing.T) {
	dim, n := 8, 500

	ix := New(dim, 16, distance.MetricL2)
	assert.True(t, ix.IsTrained())

	data := randomVectors(t, dim, n)
	require.NoError(t, ix.Add(data, n))
	require.Equal(t, n, ix.NTotal())

	// Query with stored vectors: the vector itself must come back first.
	for _, want := range []int64{0, 99, 250, 499} {
		q := data[want*int64(dim) : (want+1)*int64(dim)]
		dists, labels, err := ix.Search(q, 1, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, want, labels[0])
		assert.InDelta(t, 0.0, dists[0], 1e-6)

		for i := 1; i < 5; i++ {
			assert.LessOrEqual(t, dists[i-1], dists[i])
		}
	}
}

func TestSearchRecall(t *testing.T) {
	dim, n, k := 8, 1000, 10

	ix := New(dim, 16, distance.MetricL2)
	data := randomVectors(t, dim, n)
	require.NoError(t, ix.Add(data, n))
	ix.SetProbeWidth(200)

	// Compare against exhaustive top-k for a handful of held-out queries.
	queries := randomVectors(t, dim, 20)
	hits, total := 0, 0

	for qi := 0; qi < 20; qi++ {
		q := queries[qi*dim : (qi+1)*dim]

		exact := map[int64]bool{}
		type pair struct {
			label int64
			dist  float32
		}
		all := make([]pair, n)
		for i := 0; i < n; i++ {
			all[i] = pair{int64(i), distance.MetricL2.Distance(q, data[i*dim:(i+1)*dim])}
		}
		for i := 0; i < k; i++ {
			best := i
			for j := i + 1; j < n; j++ {
				if all[j].dist < all[best].dist {
					best = j
				}
			}
			all[i], all[best] = all[best], all[i]
			exact[all[i].label] = true
		}

		_, labels, err := ix.Search(q, 1, k, nil)
		require.NoError(t, err)
		for _, l := range labels {
			if exact[l] {
				hits++
			}
		}
		total += k
	}

	recall := float64(hits) / float64(total)
	assert.Greater(t, recall, 0.9, "recall@%d was %.3f", k, recall)
}

func TestSearchWithFilter(t *testing.T) {
	dim, n := 4, 200

	ix := New(dim, 8, distance.MetricL2)
	data := randomVectors(t, dim, n)
	require.NoError(t, ix.Add(data, n))
	ix.SetProbeWidth(n)

	even := func(l int64) bool { return l%2 == 0 }
	_, labels, err := ix.Search(data[:dim], 1, 10, even)
	require.NoError(t, err)

	assert.Equal(t, int64(0), labels[0])
	for _, l := range labels {
		if l >= 0 {
			assert.Zero(t, l%2)
		}
	}
}

func TestRangeSearch(t *testing.T) {
	ix := New(2, 4, distance.MetricL2)
	require.NoError(t, ix.Add([]float32{
		0, 0,
		1, 0,
		3, 0,
	}, 3))

	res, err := ix.RangeSearch([]float32{0, 0}, 1, 2.0, nil)
	require.NoError(t, err)

	require.Equal(t, uint64(2), res.Lims[1])
	assert.Equal(t, []int64{0, 1}, res.Labels)
	assert.LessOrEqual(t, res.Distances[0], res.Distances[1])
}

func TestReset(t *testing.T) {
	ix := New(4, 8, distance.MetricL2)
	data := randomVectors(t, 4, 50)
	require.NoError(t, ix.Add(data, 50))

	ix.Reset()
	assert.Equal(t, 0, ix.NTotal())

	// The graph is usable again after a reset.
	require.NoError(t, ix.Add(data[:4], 1))
	_, labels, err := ix.Search(data[:4], 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), labels[0])
}

func TestDescriptor(t *testing.T) {
	assert.Equal(t, "HNSW32", New(4, backend.DefaultHNSWM, distance.MetricL2).Descriptor())
	assert.Equal(t, "HNSW16", New(4, 16, distance.MetricL2).Descriptor())
}

func TestSnapshotRoundTrip(t *testing.T) {
	dim, n := 8, 300

	ix := New(dim, 16, distance.MetricL2)
	data := randomVectors(t, dim, n)
	require.NoError(t, ix.Add(data, n))
	ix.SetProbeWidth(128)

	var buf bytes.Buffer
	require.NoError(t, backend.Save(&buf, ix, persistence.CompressionLZ4))

	loaded, err := backend.Load(&buf)
	require.NoError(t, err)

	got, ok := loaded.(*Index)
	require.True(t, ok)
	assert.Equal(t, n, got.NTotal())
	assert.Equal(t, ix.efSearch, got.efSearch)
	assert.Equal(t, ix.entry, got.entry)
	assert.Equal(t, ix.maxLevel, got.maxLevel)

	// Same graph, same answers.
	q := data[:dim]
	_, wantLabels, err := ix.Search(q, 1, 5, nil)
	require.NoError(t, err)
	_, gotLabels, err := got.Search(q, 1, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, wantLabels, gotLabels)
}

func TestLoadRejectsCorruptGraph(t *testing.T) {
	dim, n := 4, 20

	snapshot := func() []byte {
		ix := New(dim, 8, distance.MetricL2)
		require.NoError(t, ix.Add(randomVectors(t, dim, n), n))

		var buf bytes.Buffer
		require.NoError(t, backend.Save(&buf, ix, persistence.CompressionNone))
		return buf.Bytes()
	}

	// Payload words after the 32-byte header: degree, search width,
	// entry point, top layer.
	t.Run("entry point outside the graph", func(t *testing.T) {
		raw := snapshot()
		binary.LittleEndian.PutUint64(raw[48:56], uint64(n+10))

		_, err := backend.Load(bytes.NewReader(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry point")
	})

	t.Run("absurd top layer", func(t *testing.T) {
		raw := snapshot()
		binary.LittleEndian.PutUint64(raw[56:64], 1<<40)

		_, err := backend.Load(bytes.NewReader(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "top layer")
	})

	t.Run("degree below the minimum", func(t *testing.T) {
		raw := snapshot()
		binary.LittleEndian.PutUint64(raw[32:40], 1)

		_, err := backend.Load(bytes.NewReader(raw))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "degree")
	})
}
