// Copyright Nora Vasquez, 2026. All rights reserved.

// Package geo retrieves and parses GEO series metadata in SOFT format.
package geo

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Entity type markers used in SOFT family files.
const (
	entityDatabase = "DATABASE"
	entitySeries   = "SERIES"
	entityPlatform = "PLATFORM"
	entitySample   = "SAMPLE"
)

// Table holds a data table embedded in a SOFT entity, delimited by
// !<entity>_table_begin / !<entity>_table_end lines. The first row of
// the section is the column header.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Sample is a GEO sample (GSM) record.
type Sample struct {
	Accession string              `json:"accession" yaml:"accession"`
	Metadata  map[string][]string `json:"metadata" yaml:"metadata"`
	Table     *Table              `json:"table,omitempty" yaml:"table,omitempty"`
}

// Platform is a GEO platform (GPL) record.
type Platform struct {
	Accession string              `json:"accession" yaml:"accession"`
	Metadata  map[string][]string `json:"metadata" yaml:"metadata"`
	Table     *Table              `json:"table,omitempty" yaml:"table,omitempty"`
}

// Series is a GEO series (GSE) record with its samples and platforms
// in file order.
type Series struct {
	Accession string              `json:"accession" yaml:"accession"`
	Metadata  map[string][]string `json:"metadata" yaml:"metadata"`
	Samples   []*Sample           `json:"samples" yaml:"samples"`
	Platforms []*Platform         `json:"platforms" yaml:"platforms"`
}

// Sample returns the sample with the given accession, or nil.
func (s *Series) Sample(accession string) *Sample {
	for _, gsm := range s.Samples {
		if gsm.Accession == accession {
			return gsm
		}
	}
	return nil
}

// Title returns the series title, or "" when absent.
func (s *Series) Title() string {
	return firstValue(s.Metadata, "title")
}

// Title returns the sample title, or "" when absent.
func (s *Sample) Title() string {
	return firstValue(s.Metadata, "title")
}

// Organism returns the sample's channel-1 organism, or "" when absent.
func (s *Sample) Organism() string {
	return firstValue(s.Metadata, "organism_ch1")
}

func firstValue(meta map[string][]string, key string) string {
	if vs := meta[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// softEntity is the parser's working view of the entity being filled.
type softEntity struct {
	kind     string
	metadata map[string][]string
	table    **Table
}

// ParseSOFT reads a GEO family SOFT file and returns the series record.
// The format is line oriented: "^TYPE = accession" opens an entity,
// "!Key = value" appends metadata (repeated keys accumulate), and
// "!<entity>_table_begin" starts a tab-separated table that runs until
// the matching "!<entity>_table_end". Lines that fit none of these
// shapes are skipped.
func ParseSOFT(r io.Reader) (*Series, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var series *Series
	var current *softEntity
	var table *Table
	inTable := false

	for scanner.Scan() {
		line := scanner.Text()

		if inTable {
			if strings.HasPrefix(line, "!") && strings.HasSuffix(line, "_table_end") {
				if current != nil && current.table != nil {
					*current.table = table
				}
				table = nil
				inTable = false
				continue
			}
			fields := strings.Split(line, "\t")
			if table.Columns == nil {
				table.Columns = fields
			} else {
				table.Rows = append(table.Rows, fields)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "^"):
			kind, accession, ok := splitAssignment(line[1:])
			if !ok {
				continue
			}
			entity, err := openEntity(&series, kind, accession)
			if err != nil {
				return nil, err
			}
			current = entity

		case strings.HasPrefix(line, "!") && strings.HasSuffix(line, "_table_begin"):
			table = &Table{}
			inTable = true

		case strings.HasPrefix(line, "!"):
			if current == nil {
				continue
			}
			key, value, ok := splitAssignment(line[1:])
			if !ok {
				continue
			}
			key = normalizeKey(key)
			current.metadata[key] = append(current.metadata[key], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading SOFT file: %w", err)
	}

	if series == nil {
		return nil, fmt.Errorf("no SERIES entity found")
	}
	return series, nil
}

// openEntity creates the record for a "^TYPE = accession" header and
// returns a view of it for the metadata lines that follow.
func openEntity(series **Series, kind, accession string) (*softEntity, error) {
	switch strings.ToUpper(kind) {
	case entitySeries:
		if *series != nil {
			return nil, fmt.Errorf("multiple SERIES entities (%s, %s)", (*series).Accession, accession)
		}
		*series = &Series{Accession: accession, Metadata: make(map[string][]string)}
		return &softEntity{kind: entitySeries, metadata: (*series).Metadata}, nil

	case entitySample:
		if *series == nil {
			return nil, fmt.Errorf("SAMPLE %s before SERIES entity", accession)
		}
		gsm := &Sample{Accession: accession, Metadata: make(map[string][]string)}
		(*series).Samples = append((*series).Samples, gsm)
		return &softEntity{kind: entitySample, metadata: gsm.Metadata, table: &gsm.Table}, nil

	case entityPlatform:
		if *series == nil {
			return nil, fmt.Errorf("PLATFORM %s before SERIES entity", accession)
		}
		gpl := &Platform{Accession: accession, Metadata: make(map[string][]string)}
		(*series).Platforms = append((*series).Platforms, gpl)
		return &softEntity{kind: entityPlatform, metadata: gpl.Metadata, table: &gpl.Table}, nil

	case entityDatabase:
		// The DATABASE preamble carries no per-series information.
		return &softEntity{kind: entityDatabase, metadata: make(map[string][]string)}, nil

	default:
		return &softEntity{kind: kind, metadata: make(map[string][]string)}, nil
	}
}

// splitAssignment splits "Key = value" on the first " = ".
func splitAssignment(s string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(s, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// normalizeKey strips the entity prefix from a metadata key and
// lowercases it: "Sample_characteristics_ch1" becomes
// "characteristics_ch1", matching the field names users see in GEO.
func normalizeKey(key string) string {
	for _, prefix := range []string{"Series_", "Sample_", "Platform_", "Database_"} {
		if strings.HasPrefix(key, prefix) {
			key = key[len(prefix):]
			break
		}
	}
	return strings.ToLower(key)
}
