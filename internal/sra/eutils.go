// Copyright Nora Vasquez, 2026. All rights reserved.

package sra

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nvasquez/fastqfetch/internal/httputil"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

// eutilsBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// EutilsBackend queries NCBI E-utilities: esearch finds the SRA record
// IDs for an accession, efetch returns the runinfo CSV. Used as a
// fallback when ENA has no rows, since GEO submissions appear at NCBI
// first.
type EutilsBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *EutilsBackend) Name() string { return "eutils" }

// esearchResponse is the JSON shape of esearch.fcgi.
type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Lookup resolves the accession via esearch + efetch runinfo.
func (b *EutilsBackend) Lookup(ctx context.Context, accession string, cfg types.ResolveConfig) ([]types.Run, error) {
	ids, err := b.esearch(ctx, accession, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return b.runinfo(ctx, ids, accession, cfg)
}

func (b *EutilsBackend) esearch(ctx context.Context, accession string, cfg types.ResolveConfig) ([]string, error) {
	params := url.Values{
		"db":       {"sra"},
		"term":     {accession},
		"retmode":  {"json"},
		"retmax":   {"200"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		eutilsBase+"/esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("esearch returned HTTP %d", resp.StatusCode)
	}

	var es esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&es); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return es.Result.IDList, nil
}

// runinfo fetches the runinfo CSV for the record IDs and maps rows to
// Run records. The CSV header names the columns; lookups go by name.
func (b *EutilsBackend) runinfo(ctx context.Context, ids []string, accession string, cfg types.ResolveConfig) ([]types.Run, error) {
	params := url.Values{
		"db":      {"sra"},
		"id":      {strings.Join(ids, ",")},
		"rettype": {"runinfo"},
		"retmode": {"text"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		eutilsBase+"/efetch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("efetch returned HTTP %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing runinfo CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["Run"]; !ok {
		return nil, fmt.Errorf("runinfo missing Run column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var runs []types.Run
	for _, row := range records[1:] {
		run := types.Run{
			Accession:           field(row, "Run"),
			ExperimentAccession: field(row, "Experiment"),
			SampleAccession:     field(row, "Sample"),
			StudyAccession:      field(row, "SRAStudy"),
			LibraryLayout:       field(row, "LibraryLayout"),
			SourceAccession:     accession,
			Source:              "eutils",
		}
		if run.Accession == "" {
			continue
		}
		runs = append(runs, run)
	}
	return runs, nil
}
