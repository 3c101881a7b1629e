// Copyright Nora Vasquez, 2026. All rights reserved.

// Package report writes sample sheets for downstream analysis tools.
package report

import (
	"fmt"
	"sort"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"github.com/nvasquez/fastqfetch/internal/geo"
)

const sheetName = "Sheet1"

// fixedColumns lead every sample sheet; characteristic columns follow
// in sorted key order.
var fixedColumns = []string{"accession", "title", "organism"}

// WriteXLSX writes one row per sample with the union of characteristic
// keys as columns. Samples missing a key get an empty cell.
func WriteXLSX(samples []*geo.Sample, path string) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to write")
	}

	keys := characteristicKeys(samples)
	header := append(append([]string{}, fixedColumns...), keys...)

	f := excelize.NewFile()
	for col, name := range header {
		if err := setCell(f, col+1, 1, name); err != nil {
			return err
		}
	}

	for i, sample := range samples {
		row := i + 2
		chars := sample.Characteristics()

		values := []string{sample.Accession, sample.Title(), sample.Organism()}
		for _, key := range keys {
			values = append(values, chars[key])
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing sample sheet %s: %w", path, err)
	}
	return nil
}

// characteristicKeys returns the sorted union of characteristic keys
// across the samples.
func characteristicKeys(samples []*geo.Sample) []string {
	seen := make(map[string]bool)
	for _, sample := range samples {
		for key := range sample.Characteristics() {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func setCell(f *excelize.File, col, row int, value string) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell coordinates (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(sheetName, axis, value); err != nil {
		return fmt.Errorf("setting cell %s: %w", axis, err)
	}
	return nil
}
