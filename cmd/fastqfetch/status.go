// Copyright Nora Vasquez, 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvasquez/fastqfetch/internal/manifest"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report per-run download state from the manifest",
	Long: `Status lists the runs recorded in the manifest with their download
state, method, size, and destination. Filter by series or state:

    fastqfetch status --series GSE215353 --state failed`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("series", "", "restrict to runs of one GEO series")
	statusCmd.Flags().String("state", "", "restrict to one state: pending, downloading, done, failed")
	statusCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	store, err := manifest.Open(types.ManifestConfig{DataDir: dataDir})
	if err != nil {
		return err
	}
	defer store.Close()

	series, _ := cmd.Flags().GetString("series")
	state, _ := cmd.Flags().GetString("state")

	statuses, err := store.Status(context.Background(), manifest.StatusOptions{
		Series: strings.ToUpper(strings.TrimSpace(series)),
		State:  types.DownloadState(state),
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	if len(statuses) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-12s  %-12s  %-11s  %-10s  %s\n",
		"Run", "Source", "Study", "State", "Method", "Path")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, rs := range statuses {
		fmt.Fprintf(os.Stdout, "%-12s  %-12s  %-12s  %-11s  %-10s  %s\n",
			rs.Accession, rs.SourceAccession, rs.StudyAccession, rs.State, rs.Method, rs.Path)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(statuses))
	return nil
}
