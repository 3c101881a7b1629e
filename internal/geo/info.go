// Copyright Nora Vasquez, 2026. All rights reserved.

package geo

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// tableHeadRows limits how much of an embedded data table the info
// writers print.
const tableHeadRows = 5

// WriteSeriesInfo writes a human-readable summary of the series to w.
func WriteSeriesInfo(series *Series, w io.Writer) {
	fmt.Fprintf(w, "Series: %s\n", series.Accession)
	writeMetadata(series.Metadata, w)
	fmt.Fprintf(w, "Samples: %d, platforms: %d\n", len(series.Samples), len(series.Platforms))
}

// WriteSampleInfo writes each sample's metadata and the head of its
// data table to w.
func WriteSampleInfo(series *Series, w io.Writer) {
	fmt.Fprintln(w, "\nGSM (sample) info:")
	for _, sample := range series.Samples {
		fmt.Fprintf(w, "Name: %s\n", sample.Accession)
		fmt.Fprintln(w, "Metadata:")
		writeMetadata(sample.Metadata, w)
		writeTableHead(sample.Table, w)
	}
}

// WritePlatformInfo writes the first platform's metadata and the head
// of its data table to w.
func WritePlatformInfo(series *Series, w io.Writer) {
	fmt.Fprintln(w, "\nGPL (platform) info:")
	for _, platform := range series.Platforms {
		fmt.Fprintf(w, "Name: %s\n", platform.Accession)
		fmt.Fprintln(w, "Metadata:")
		writeMetadata(platform.Metadata, w)
		writeTableHead(platform.Table, w)
		break
	}
}

func writeMetadata(meta map[string][]string, w io.Writer) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, " - %s : %s\n", k, strings.Join(meta[k], ", "))
	}
}

func writeTableHead(table *Table, w io.Writer) {
	if table == nil || len(table.Columns) == 0 {
		return
	}
	fmt.Fprintln(w, "Table data:")
	fmt.Fprintf(w, "  %s\n", strings.Join(table.Columns, "\t"))
	for i, row := range table.Rows {
		if i >= tableHeadRows {
			fmt.Fprintf(w, "  ... (%d rows total)\n", len(table.Rows))
			break
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(row, "\t"))
	}
}
