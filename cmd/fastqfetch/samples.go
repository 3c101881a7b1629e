// Copyright Nora Vasquez, 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvasquez/fastqfetch/internal/geo"
	"github.com/nvasquez/fastqfetch/internal/report"
)

var samplesCmd = &cobra.Command{
	Use:   "samples <GSE accession>",
	Short: "List and filter the samples of a GEO series",
	Long: `Samples lists a series' samples, optionally filtered by equality
conditions on their characteristics or metadata fields:

    fastqfetch samples GSE215353 --where "genotype=WT" --where "tissue=liver"

Matching sample accessions can be written one per line with --output,
the hand-off format the resolve stage consumes, or as a spreadsheet
sample sheet with --xlsx.`,
	Args: cobra.ExactArgs(1),
	RunE: runSamples,
}

func init() {
	samplesCmd.Flags().StringArray("where", nil, "equality filter on a characteristic or metadata field (key=value, repeatable)")
	samplesCmd.Flags().String("output", "", "write matching sample accessions to a file, one per line")
	samplesCmd.Flags().String("xlsx", "", "write matching samples to a spreadsheet sample sheet")
	samplesCmd.Flags().Bool("json", false, "output matching samples as JSON")
	samplesCmd.Flags().Bool("no-cache", false, "ignore the cached SOFT file")
	samplesCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(samplesCmd)
}

func runSamples(cmd *cobra.Command, args []string) error {
	cfg := metadataConfig(cmd)

	conditions, _ := cmd.Flags().GetStringArray("where")
	var selectors []geo.Selector
	for _, cond := range conditions {
		sel, ok := geo.ParseSelector(cond)
		if !ok {
			return fmt.Errorf("invalid filter %q: expected key=value", cond)
		}
		selectors = append(selectors, sel)
	}

	series, err := fetchSeries(context.Background(), args[0], cfg)
	if err != nil {
		return err
	}

	matched := geo.FilterSamples(series, selectors)
	fmt.Fprintf(os.Stderr, "%d of %d samples match\n", len(matched), len(series.Samples))

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		if err := writeAccessionList(matched, outPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	}

	if xlsxPath, _ := cmd.Flags().GetString("xlsx"); xlsxPath != "" {
		if err := report.WriteXLSX(matched, xlsxPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", xlsxPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matched)
	}

	for _, sample := range matched {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", sample.Accession, sample.Title())
	}
	return nil
}

func writeAccessionList(samples []*geo.Sample, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	for _, sample := range samples {
		if _, err := fmt.Fprintln(f, sample.Accession); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return f.Close()
}
