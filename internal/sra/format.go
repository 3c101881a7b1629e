// Copyright Nora Vasquez, 2026. All rights reserved.

package sra

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

// FormatTable writes resolved runs as a human-readable table to w.
func FormatTable(runs []types.Run, w io.Writer) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs resolved.")
		return
	}

	fmt.Fprintf(w, "%-12s  %-12s  %-12s  %-8s  %-6s  %-10s  %s\n",
		"Run", "Source", "Study", "Layout", "Files", "Size", "Backend")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range runs {
		fmt.Fprintf(w, "%-12s  %-12s  %-12s  %-8s  %-6d  %-10s  %s\n",
			r.Accession, r.SourceAccession, r.StudyAccession,
			r.LibraryLayout, len(r.FastqURLs), formatBytes(r.TotalBytes()), r.Source)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

// FormatJSON writes resolved runs as indented JSON to w.
func FormatJSON(runs []types.Run, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runs)
}

// WriteRunList writes one run accession per line, the hand-off format
// the fetch stage and external tools consume.
func WriteRunList(runs []types.Run, w io.Writer) error {
	for _, r := range runs {
		if _, err := fmt.Fprintln(w, r.Accession); err != nil {
			return err
		}
	}
	return nil
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1<<20:
		return fmt.Sprintf("%d KB", n>>10)
	case n < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	}
}
