// Copyright Nora Vasquez, 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvasquez/fastqfetch/internal/geo"
	"github.com/nvasquez/fastqfetch/internal/manifest"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "fastqfetch/0.1"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <GSE accession>",
	Short: "Fetch and display GEO series metadata",
	Long: `Metadata downloads the family SOFT file for a GEO series from the
NCBI mirror, caches it under the data directory, and prints series,
platform, and sample information. The parsed series and its samples are
recorded in the manifest for later status reporting.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

func init() {
	metadataCmd.Flags().Bool("json", false, "output the parsed series as JSON")
	metadataCmd.Flags().Bool("no-cache", false, "ignore the cached SOFT file")
	metadataCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(metadataCmd)
}

func metadataConfig(cmd *cobra.Command) types.MetadataConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return types.MetadataConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DataDir: dataDir,
		NoCache: noCache,
	}
}

// fetchSeries retrieves and parses a series, recording it in the
// manifest. Manifest failures degrade to warnings; metadata retrieval
// still succeeds without bookkeeping.
func fetchSeries(ctx context.Context, accession string, cfg types.MetadataConfig) (*geo.Series, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	series, err := geo.Fetch(ctx, client, accession, cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	if err := recordSeries(ctx, series, cfg.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: manifest update failed: %v\n", err)
	}
	return series, nil
}

func recordSeries(ctx context.Context, series *geo.Series, dataDir string) error {
	store, err := manifest.Open(types.ManifestConfig{DataDir: dataDir})
	if err != nil {
		return err
	}
	defer store.Close()

	record := &manifest.SeriesRecord{
		Accession: series.Accession,
		Title:     series.Title(),
	}
	for _, sample := range series.Samples {
		record.Samples = append(record.Samples, manifest.SampleRecord{
			Accession:       sample.Accession,
			Title:           sample.Title(),
			Organism:        sample.Organism(),
			Characteristics: sample.Characteristics(),
		})
	}
	return store.RecordSeries(ctx, record)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	cfg := metadataConfig(cmd)

	series, err := fetchSeries(context.Background(), args[0], cfg)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	}

	geo.WriteSeriesInfo(series, os.Stdout)
	geo.WriteSampleInfo(series, os.Stdout)
	geo.WritePlatformInfo(series, os.Stdout)
	return nil
}
