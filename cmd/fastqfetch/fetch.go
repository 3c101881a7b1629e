// Copyright Nora Vasquez, 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvasquez/fastqfetch/internal/download"
	"github.com/nvasquez/fastqfetch/internal/manifest"
	"github.com/nvasquez/fastqfetch/internal/sra"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [run accessions...]",
	Short: "Download FASTQ files for SRA runs in parallel",
	Long: `Fetch downloads FASTQ files for run accessions in parallel. Each run
is attempted through an ordered chain of download methods until one
succeeds:

    ena-ascp   Aspera transfer from ENA (requires ascp and an ssh key)
    ena-ftp    HTTPS transfer from ENA with MD5 verification
    aws-http   the .sra object from the SRA Open Data Program bucket
    prefetch   the sra-tools prefetch binary

GEO accessions given here are resolved first. Runs the manifest marks
as done are skipped; use --force to re-download.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringP("input-file", "i", "", "file of accessions, one per line")
	fetchCmd.Flags().StringP("output-dir", "o", "", "directory for downloaded files (default <data-dir>/fastq)")
	fetchCmd.Flags().StringP("methods", "D", strings.Join(download.DefaultMethods, " "),
		"space-separated download method chain")
	fetchCmd.Flags().IntP("processes", "P", 10, "number of parallel downloads")
	fetchCmd.Flags().BoolP("max-processes", "M", false, "one parallel download per run")
	fetchCmd.Flags().Bool("force", false, "re-download runs already marked done")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout per request (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between resolver lookups (default 1s)")
	fetchCmd.Flags().String("ncbi-api-key", "", "NCBI API key for higher eutils rate limits")
	fetchCmd.Flags().String("ascp-key", "", "ssh key for the ena-ascp method")

	rootCmd.AddCommand(fetchCmd)
}

func downloadConfig(cmd *cobra.Command) types.DownloadConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		outputDir = filepath.Join(dataDir, "fastq")
	}
	methods, _ := cmd.Flags().GetString("methods")
	processes, _ := cmd.Flags().GetInt("processes")
	maxProcesses, _ := cmd.Flags().GetBool("max-processes")
	force, _ := cmd.Flags().GetBool("force")
	ascpKey, _ := cmd.Flags().GetString("ascp-key")

	return types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		OutputDir:    outputDir,
		Methods:      strings.Fields(methods),
		Processes:    processes,
		MaxProcesses: maxProcesses,
		Force:        force,
		AscpKeyPath:  secretDefault("ena-aspera-key", ascpKey),
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	accessions, err := gatherAccessions(cmd, args)
	if err != nil {
		return err
	}
	if len(accessions) == 0 {
		return fmt.Errorf("provide one or more run accessions or -i file")
	}

	resolveCfg := resolveConfig(cmd)
	client := &http.Client{Timeout: resolveCfg.Timeout}

	// Every accession goes through the resolver: GEO accessions to find
	// their runs, run accessions to pick up FASTQ file locations.
	out, err := sra.Resolve(context.Background(), accessions, resolveBackends(client, resolveCfg), resolveCfg, os.Stderr)
	if err != nil {
		return err
	}
	if len(out.Runs) == 0 {
		return fmt.Errorf("no runs resolved from %d accession(s)", len(accessions))
	}

	result, err := fetchRuns(cmd, client, out.Runs)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d run(s) failed to download", result.Failed)
	}
	if out.HasFailures() {
		return fmt.Errorf("%d accession(s) failed to resolve", out.Failed)
	}
	return nil
}

// fetchRuns builds the method chain and manager and downloads the runs.
func fetchRuns(cmd *cobra.Command, client *http.Client, runs []types.Run) (download.Result, error) {
	cfg := downloadConfig(cmd)

	methods, err := download.BuildMethods(cfg.Methods, client, cfg)
	if err != nil {
		return download.Result{}, err
	}

	var recorder download.Recorder
	dataDir, _ := cmd.Flags().GetString("data-dir")
	store, err := manifest.Open(types.ManifestConfig{DataDir: dataDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: manifest unavailable: %v\n", err)
	} else {
		defer store.Close()
		recorder = store
	}

	mgr := download.NewManager(methods, cfg, recorder, os.Stderr)
	return mgr.Fetch(context.Background(), runs)
}
