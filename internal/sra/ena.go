// Copyright Nora Vasquez, 2026. All rights reserved.

package sra

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nvasquez/fastqfetch/internal/httputil"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

// enaFilereportBase is the ENA portal filereport endpoint. Declared as
// a var so tests can substitute an httptest server.
var enaFilereportBase = "https://www.ebi.ac.uk/ena/portal/api/filereport"

// enaFields is the column list requested from the portal.
var enaFields = []string{
	"run_accession",
	"experiment_accession",
	"sample_accession",
	"study_accession",
	"sample_title",
	"library_layout",
	"fastq_ftp",
	"fastq_bytes",
	"fastq_md5",
}

// ENABackend queries the ENA portal API. ENA mirrors the whole SRA and
// accepts GEO sample accessions directly, which makes it the primary
// resolver.
type ENABackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ENABackend) Name() string { return "ena" }

// Lookup fetches the read_run filereport for the accession and returns
// one Run per row.
func (b *ENABackend) Lookup(ctx context.Context, accession string, cfg types.ResolveConfig) ([]types.Run, error) {
	params := url.Values{
		"accession": {accession},
		"result":    {"read_run"},
		"fields":    {strings.Join(enaFields, ",")},
		"format":    {"tsv"},
	}
	reqURL := enaFilereportBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("ENA portal request: %w", err)
	}
	defer resp.Body.Close()

	// The portal answers 204 when the accession exists but has no runs.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ENA portal returned HTTP %d", resp.StatusCode)
	}

	runs, err := parseFilereport(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing ENA filereport: %w", err)
	}
	return runs, nil
}

// parseFilereport reads the tab-separated filereport. The first line is
// the header; column order follows the requested field list but is
// looked up by name to stay robust against portal changes.
func parseFilereport(r io.Reader) ([]types.Run, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	header := strings.Split(scanner.Text(), "\t")
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["run_accession"]; !ok {
		return nil, fmt.Errorf("filereport missing run_accession column")
	}

	field := func(fields []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	var runs []types.Run
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		run := types.Run{
			Accession:           field(fields, "run_accession"),
			ExperimentAccession: field(fields, "experiment_accession"),
			SampleAccession:     field(fields, "sample_accession"),
			StudyAccession:      field(fields, "study_accession"),
			Title:               field(fields, "sample_title"),
			LibraryLayout:       field(fields, "library_layout"),
			Source:              "ena",
		}
		if run.Accession == "" {
			continue
		}

		run.FastqURLs = splitFastqURLs(field(fields, "fastq_ftp"))
		run.FastqBytes = splitInt64s(field(fields, "fastq_bytes"))
		run.FastqMD5s = splitSemicolon(field(fields, "fastq_md5"))

		runs = append(runs, run)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// splitFastqURLs breaks the semicolon-separated fastq_ftp column into
// HTTPS URLs. ENA reports scheme-less host paths
// ("ftp.sra.ebi.ac.uk/vol1/..."); the files are served over HTTPS from
// the same paths.
func splitFastqURLs(s string) []string {
	var urls []string
	for _, p := range splitSemicolon(s) {
		if !strings.Contains(p, "://") {
			p = "https://" + p
		}
		urls = append(urls, p)
	}
	return urls
}

func splitSemicolon(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitInt64s(s string) []int64 {
	parts := splitSemicolon(s)
	if len(parts) == 0 {
		return nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
