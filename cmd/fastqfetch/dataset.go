// Copyright Nora Vasquez, 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvasquez/fastqfetch/internal/geo"
	"github.com/nvasquez/fastqfetch/internal/sra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset <GSE accession>",
	Short: "Download a whole GEO dataset's FASTQ files",
	Long: `Dataset runs the full pipeline for one GEO series: fetch and parse
the series metadata, resolve every sample (optionally filtered with
--where) to its SRA runs, and download the FASTQ files in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runDataset,
}

func init() {
	datasetCmd.Flags().StringArray("where", nil, "equality filter on a characteristic or metadata field (key=value, repeatable)")
	datasetCmd.Flags().StringP("output-dir", "o", "", "directory for downloaded files (default <data-dir>/fastq)")
	datasetCmd.Flags().StringP("methods", "D", "", "space-separated download method chain")
	datasetCmd.Flags().IntP("processes", "P", 10, "number of parallel downloads")
	datasetCmd.Flags().BoolP("max-processes", "M", false, "one parallel download per run")
	datasetCmd.Flags().Bool("force", false, "re-download runs already marked done")
	datasetCmd.Flags().Bool("no-cache", false, "ignore the cached SOFT file")
	datasetCmd.Flags().Duration("timeout", 0, "HTTP request timeout per request (default 60s)")
	datasetCmd.Flags().Duration("delay", 0, "delay between resolver lookups (default 1s)")
	datasetCmd.Flags().String("ncbi-api-key", "", "NCBI API key for higher eutils rate limits")
	datasetCmd.Flags().String("ascp-key", "", "ssh key for the ena-ascp method")

	rootCmd.AddCommand(datasetCmd)
}

func runDataset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	series, err := fetchSeries(ctx, args[0], metadataConfig(cmd))
	if err != nil {
		return err
	}

	conditions, _ := cmd.Flags().GetStringArray("where")
	var selectors []geo.Selector
	for _, cond := range conditions {
		sel, ok := geo.ParseSelector(cond)
		if !ok {
			return fmt.Errorf("invalid filter %q: expected key=value", cond)
		}
		selectors = append(selectors, sel)
	}

	samples := geo.FilterSamples(series, selectors)
	if len(samples) == 0 {
		return fmt.Errorf("no samples of %s match the filters", series.Accession)
	}
	fmt.Fprintf(os.Stderr, "resolving %d of %d samples\n", len(samples), len(series.Samples))

	accessions := make([]string, len(samples))
	for i, sample := range samples {
		accessions[i] = sample.Accession
	}

	resolveCfg := resolveConfig(cmd)
	client := &http.Client{Timeout: resolveCfg.Timeout}

	out, err := sra.Resolve(ctx, accessions, resolveBackends(client, resolveCfg), resolveCfg, os.Stderr)
	if err != nil {
		return err
	}
	if len(out.Runs) == 0 {
		return fmt.Errorf("no runs resolved for %s", series.Accession)
	}

	result, err := fetchRuns(cmd, client, out.Runs)
	if err != nil {
		return err
	}
	if result.HasFailures() || out.HasFailures() {
		return fmt.Errorf("dataset incomplete: %d resolve failure(s), %d download failure(s)",
			out.Failed, result.Failed)
	}
	return nil
}
