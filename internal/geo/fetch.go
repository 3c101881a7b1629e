// Copyright Nora Vasquez, 2026. All rights reserved.

package geo

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nvasquez/fastqfetch/internal/httputil"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

const metadataDir = "metadata"

// geoFTPBase is the NCBI GEO mirror root. Declared as a var so tests
// can substitute an httptest server.
var geoFTPBase = "https://ftp.ncbi.nlm.nih.gov/geo"

// seriesPattern matches GEO series accessions: "GSE68849".
var seriesPattern = regexp.MustCompile(`^GSE\d+$`)

// SOFTURL returns the mirror URL of the series family SOFT file. The
// mirror shards series into directories named by the accession with its
// last three digits replaced by "nnn": GSE68849 lives under GSE68nnn/,
// and short accessions like GSE7 under GSEnnn/.
func SOFTURL(accession string) string {
	prefix := strings.TrimRight(accession, "0123456789")
	digits := accession[len(prefix):]
	if len(digits) > 3 {
		digits = digits[:len(digits)-3]
	} else {
		digits = ""
	}
	return fmt.Sprintf("%s/series/%s%snnn/%s/soft/%s_family.soft.gz",
		geoFTPBase, prefix, digits, accession, accession)
}

// Fetch downloads, caches, and parses the family SOFT file for a series
// accession. The gzipped file is cached under DataDir/metadata/ and
// reused on later calls unless cfg.NoCache is set.
func Fetch(ctx context.Context, client *http.Client, accession string, cfg types.MetadataConfig, w io.Writer) (*Series, error) {
	accession = strings.ToUpper(strings.TrimSpace(accession))
	if !seriesPattern.MatchString(accession) {
		return nil, fmt.Errorf("not a GEO series accession: %q", accession)
	}

	cacheDir := filepath.Join(cfg.DataDir, metadataDir)
	cachePath := filepath.Join(cacheDir, accession+"_family.soft.gz")

	if !cfg.NoCache {
		if _, err := os.Stat(cachePath); err == nil {
			fmt.Fprintf(w, "using cached metadata: %s\n", cachePath)
			return parseSOFTFile(cachePath)
		}
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	url := SOFTURL(accession)
	fmt.Fprintf(w, "downloading metadata: %s\n", url)
	if err := downloadToFile(ctx, client, url, cachePath, cfg.UserAgent); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", accession, err)
	}

	return parseSOFTFile(cachePath)
}

// downloadToFile fetches url to destPath using a temporary file so a
// partial download never lands at the cache path.
func downloadToFile(ctx context.Context, client *http.Client, url, destPath, userAgent string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func parseSOFTFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cached metadata: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer gz.Close()

	series, err := ParseSOFT(gz)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return series, nil
}
