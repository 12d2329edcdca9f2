package kmeans

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annidx/distance"
)

func TestTrainSeparatesClusters(t *testing.T) {
	// Two well-separated 2D blobs.
	var vectors []float32
	for i := 0; i < 20; i++ {
		vectors = append(vectors, float32(i%5)*0.01, float32(i%5)*0.01)
	}
	for i := 0; i < 20; i++ {
		vectors = append(vectors, 10+float32(i%5)*0.01, 10+float32(i%5)*0.01)
	}

	centroids := Train(vectors, 2, 2, 25, 42)
	require.Len(t, centroids, 4)

	// One centroid near the origin blob, one near (10, 10).
	d00 := distance.SquaredL2(centroids[0:2], []float32{0, 0})
	d01 := distance.SquaredL2(centroids[0:2], []float32{10, 10})
	d10 := distance.SquaredL2(centroids[2:4], []float32{0, 0})
	d11 := distance.SquaredL2(centroids[2:4], []float32{10, 10})

	if d00 < d01 {
		require.Less(t, d11, d10)
	} else {
		require.Less(t, d10, d11)
	}
}
