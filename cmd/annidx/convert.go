package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/annidx"
	"github.com/hupe1980/annidx/persistence"
)

var convertCompression string

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a snapshot with a different payload compression",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0], args[1])
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertCompression, "compression", "zstd", "Target codec: none, zstd, lz4")

	rootCmd.AddCommand(convertCmd)
}

func parseCompression(s string) (persistence.Compression, error) {
	switch strings.ToLower(s) {
	case "none":
		return persistence.CompressionNone, nil
	case "zstd":
		return persistence.CompressionZstd, nil
	case "lz4":
		return persistence.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

func runConvert(in, out string) error {
	comp, err := parseCompression(convertCompression)
	if err != nil {
		return err
	}

	ix, err := annidx.LoadFromFile(in, annidx.WithCompression(comp))
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := ix.SaveToFile(out); err != nil {
		return err
	}

	stats, err := ix.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("rewrote %s -> %s (%d vectors, %s)\n", in, out, stats.NTotal, comp)
	return nil
}
