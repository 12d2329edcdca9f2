package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/annidx"
	"github.com/hupe1980/annidx/distance"
)

var (
	benchDescriptor  string
	benchDimension   int
	benchVectors     int
	benchK           int
	benchConcurrency int
	benchDuration    time.Duration
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a concurrent search benchmark against a freshly built index",
	Long: `Build an index from random vectors and hammer it with concurrent
searches, reporting throughput and mean latency.

Examples:
  annidx bench --descriptor Flat --vectors 10000
  annidx bench --descriptor HNSW32 --dimension 128 --concurrency 16`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd.Context())
	},
}

func init() {
	benchCmd.Flags().StringVar(&benchDescriptor, "descriptor", "Flat", "Backend descriptor (Flat, IVF<n>,Flat, HNSW<m>)")
	benchCmd.Flags().IntVar(&benchDimension, "dimension", 64, "Vector dimensionality")
	benchCmd.Flags().IntVar(&benchVectors, "vectors", 10000, "Number of vectors to index")
	benchCmd.Flags().IntVar(&benchK, "k", 10, "Neighbors per query")
	benchCmd.Flags().IntVar(&benchConcurrency, "concurrency", 8, "Concurrent searchers")
	benchCmd.Flags().DurationVar(&benchDuration, "duration", 10*time.Second, "Benchmark duration")

	rootCmd.AddCommand(benchCmd)
}

func runBench(ctx context.Context) error {
	ix, err := annidx.New(benchDimension, benchDescriptor, distance.MetricL2)
	if err != nil {
		return err
	}
	defer ix.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	vectors := make([]float32, benchVectors*benchDimension)
	for i := range vectors {
		vectors[i] = rng.Float32()
	}

	fmt.Printf("building %s index: %d vectors, dimension %d\n", benchDescriptor, benchVectors, benchDimension)
	buildStart := time.Now()
	if err := ix.Train(vectors, benchVectors); err != nil {
		return err
	}
	if err := ix.Add(vectors, benchVectors); err != nil {
		return err
	}
	fmt.Printf("built in %s\n", time.Since(buildStart).Round(time.Millisecond))

	ctx, cancel := context.WithTimeout(ctx, benchDuration)
	defer cancel()

	var queries, errors atomic.Int64
	var totalNanos atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < benchConcurrency; w++ {
		seed := rng.Int63()
		g.Go(func() error {
			wrng := rand.New(rand.NewSource(seed))
			query := make([]float32, benchDimension)
			for ctx.Err() == nil {
				for i := range query {
					query[i] = wrng.Float32()
				}
				start := time.Now()
				_, err := ix.Search(query, benchK)
				totalNanos.Add(time.Since(start).Nanoseconds())
				queries.Add(1)
				if err != nil {
					errors.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	n := queries.Load()
	if n == 0 {
		return fmt.Errorf("no queries completed")
	}
	fmt.Printf("queries:      %d\n", n)
	fmt.Printf("errors:       %d\n", errors.Load())
	fmt.Printf("throughput:   %.0f qps\n", float64(n)/benchDuration.Seconds())
	fmt.Printf("mean latency: %s\n", time.Duration(totalNanos.Load()/n).Round(time.Microsecond))
	return nil
}
