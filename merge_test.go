package annidx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annidx/distance"
)

func TestMergeFrom(t *testing.T) {
	t.Run("additivity and source untouched", func(t *testing.T) {
		a := threeVectors(t)

		b, err := New(4, "Flat", distance.MetricL2)
		require.NoError(t, err)
		defer b.Close()
		require.NoError(t, b.Add([]float32{0, 0, 0, 1}, 1))

		require.NoError(t, a.MergeFrom(b))

		aStats, err := a.Stats()
		require.NoError(t, err)
		assert.Equal(t, 4, aStats.NTotal)

		bStats, err := b.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, bStats.NTotal, "source must be unmodified")

		// The merged vector got the next label in the target.
		res, err := a.Search([]float32{0, 0, 0, 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Labels[0])

		// Source stays fully usable.
		res, err = b.Search([]float32{0, 0, 0, 1}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Labels[0])
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		a := threeVectors(t)

		b, err := New(8, "Flat", distance.MetricL2)
		require.NoError(t, err)
		defer b.Close()

		err = a.MergeFrom(b)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 4, dm.Expected)
		assert.Equal(t, 8, dm.Actual)
	})

	t.Run("self merge rejected", func(t *testing.T) {
		a := threeVectors(t)
		assert.ErrorIs(t, a.MergeFrom(a), ErrInvalidArgument)
	})

	t.Run("nil source rejected", func(t *testing.T) {
		a := threeVectors(t)
		assert.ErrorIs(t, a.MergeFrom(nil), ErrInvalidArgument)
	})

	t.Run("closed participants rejected", func(t *testing.T) {
		a := threeVectors(t)
		b := threeVectors(t)

		require.NoError(t, b.Close())
		assert.ErrorIs(t, a.MergeFrom(b), ErrClosed)
		assert.ErrorIs(t, b.MergeFrom(a), ErrClosed)
	})

	t.Run("cross-variant merge", func(t *testing.T) {
		a, err := New(4, "HNSW16", distance.MetricL2)
		require.NoError(t, err)
		defer a.Close()

		b := threeVectors(t)
		require.NoError(t, a.MergeFrom(b))

		stats, err := a.Stats()
		require.NoError(t, err)
		assert.Equal(t, 3, stats.NTotal)
	})
}

// Merges running in opposite directions at once must not deadlock: the two
// handles are always locked in ascending id order.
func TestConcurrentOppositeMerges(t *testing.T) {
	a := threeVectors(t)
	b := threeVectors(t)

	const rounds = 50

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			assert.NoError(t, a.MergeFrom(b))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			assert.NoError(t, b.MergeFrom(a))
		}
	}()
	wg.Wait()

	aStats, err := a.Stats()
	require.NoError(t, err)
	bStats, err := b.Stats()
	require.NoError(t, err)
	assert.Greater(t, aStats.NTotal, 3)
	assert.Greater(t, bStats.NTotal, 3)
}
