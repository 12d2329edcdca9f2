// Command annidx inspects, benchmarks, and converts index snapshots.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annidx/backend"
	"github.com/hupe1980/annidx/distance"
	"github.com/hupe1980/annidx/persistence"
)

var rootCmd = &cobra.Command{
	Use:   "annidx",
	Short: "Inspect, benchmark, and convert annidx snapshots",
	Long: `annidx is a companion tool for index snapshots. It prints snapshot
metadata, runs concurrent search benchmarks, and recompresses snapshots
between payload codecs.`,
	SilenceUsage: true,
}

var infoCmd = &cobra.Command{
	Use:   "info <snapshot>",
	Short: "Print a snapshot's header fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd.OutOrStdout(), args[0])
	},
}

func runInfo(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := persistence.NewReader(f).ReadHeader()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "file:        %s (%d bytes)\n", path, info.Size())
	fmt.Fprintf(w, "version:     0x%08x\n", h.Version)
	fmt.Fprintf(w, "backend:     %s\n", backend.Kind(h.BackendKind))
	fmt.Fprintf(w, "metric:      %s\n", distance.Metric(h.Metric))
	fmt.Fprintf(w, "compression: %s\n", persistence.Compression(h.Compression))
	fmt.Fprintf(w, "dimension:   %d\n", h.Dimension)
	fmt.Fprintf(w, "ntotal:      %d\n", h.NTotal)
	fmt.Fprintf(w, "trained:     %t\n", h.Trained == 1)
	return nil
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
