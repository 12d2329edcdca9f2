// Package kmeans implements k-means clustering for coarse quantizer training.
package kmeans

import (
	"math"
	"math/rand"

	"github.com/hupe1980/annidx/distance"
)

// Train learns k centroids from the given flattened vectors (n * dim) using
// Lloyd's algorithm and returns them flattened (k * dim).
//
// Assignment always uses squared L2: centroids are spatial means, which is
// only meaningful in Euclidean space regardless of the search metric.
func Train(vectors []float32, dim, k, maxIter int, seed int64) []float32 {
	n := len(vectors) / dim

	centroids := make([]float32, k*dim)

	// Initialize centroids from distinct data points.
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	for i := 0; i < k; i++ {
		src := perm[i%n]
		copy(centroids[i*dim:(i+1)*dim], vectors[src*dim:(src+1)*dim])
	}

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		for i := 0; i < n; i++ {
			vec := vectors[i*dim : (i+1)*dim]
			best := 0
			bestDist := float32(math.MaxFloat32)
			for j := 0; j < k; j++ {
				d := distance.SquaredL2(vec, centroids[j*dim:(j+1)*dim])
				if d < bestDist {
					bestDist = d
					best = j
				}
			}
			if assignments[i] != best || iter == 0 {
				changed = true
			}
			assignments[i] = best
		}

		if !changed {
			break
		}

		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			c := assignments[i]
			counts[c]++
			vec := vectors[i*dim : (i+1)*dim]
			sum := sums[c*dim : (c+1)*dim]
			for d := range sum {
				sum[d] += vec[d]
			}
		}
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				continue // Keep the previous centroid for empty clusters.
			}
			inv := 1 / float32(counts[j])
			for d := 0; d < dim; d++ {
				centroids[j*dim+d] = sums[j*dim+d] * inv
			}
		}
	}

	return centroids
}
