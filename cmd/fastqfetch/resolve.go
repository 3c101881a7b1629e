// Copyright Nora Vasquez, 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvasquez/fastqfetch/internal/sra"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [accessions...]",
	Short: "Resolve GEO accessions to SRA run accessions",
	Long: `Resolve maps GEO sample and series accessions (GSM, GSE) to SRA run
records with FASTQ file locations. The ENA portal is queried first;
NCBI eutils is the fallback. SRA accessions (SRR, SRX, SRP, SRS) pass
through to pick up their file locations.

Accessions can also be read from a file with -i, one per line.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringP("input-file", "i", "", "file of accessions, one per line")
	resolveCmd.Flags().String("output", "", "write run accessions to a file, one per line")
	resolveCmd.Flags().Bool("json", false, "output full run records as JSON")
	resolveCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	resolveCmd.Flags().Duration("delay", 0, "delay between consecutive lookups (default 1s)")
	resolveCmd.Flags().String("ncbi-api-key", "", "NCBI API key for higher eutils rate limits")

	rootCmd.AddCommand(resolveCmd)
}

func resolveConfig(cmd *cobra.Command) types.ResolveConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	apiKey, _ := cmd.Flags().GetString("ncbi-api-key")

	return types.ResolveConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		EnableENA:    true,
		EnableEutils: true,
		NCBIAPIKey:   secretDefault("ncbi-api-key", apiKey),
		RequestDelay: delay,
	}
}

func resolveBackends(client *http.Client, cfg types.ResolveConfig) []sra.Backend {
	var backends []sra.Backend
	if cfg.EnableENA {
		backends = append(backends, &sra.ENABackend{Client: client})
	}
	if cfg.EnableEutils {
		backends = append(backends, &sra.EutilsBackend{Client: client})
	}
	return backends
}

func runResolve(cmd *cobra.Command, args []string) error {
	accessions, err := gatherAccessions(cmd, args)
	if err != nil {
		return err
	}
	if len(accessions) == 0 {
		return fmt.Errorf("provide one or more accessions (GSM, GSE, SRR, ...) or -i file")
	}

	cfg := resolveConfig(cmd)
	client := &http.Client{Timeout: cfg.Timeout}

	out, err := sra.Resolve(context.Background(), accessions, resolveBackends(client, cfg), cfg, os.Stderr)
	if err != nil {
		return err
	}

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		if err := sra.WriteRunList(out.Runs, f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := sra.FormatJSON(out.Runs, os.Stdout); err != nil {
			return err
		}
	} else {
		sra.FormatTable(out.Runs, os.Stdout)
	}

	if out.HasFailures() {
		return fmt.Errorf("%d accession(s) failed to resolve", out.Failed)
	}
	return nil
}

// gatherAccessions merges positional arguments with the optional input
// file (one accession per line, blank lines and #-comments skipped).
func gatherAccessions(cmd *cobra.Command, args []string) ([]string, error) {
	accessions := append([]string{}, args...)

	inputFile, _ := cmd.Flags().GetString("input-file")
	if inputFile == "" {
		return accessions, nil
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", inputFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		accessions = append(accessions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputFile, err)
	}
	return accessions, nil
}
