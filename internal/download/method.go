// Copyright Nora Vasquez, 2026. All rights reserved.

// Package download fetches FASTQ files for resolved sequencing runs.
package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nvasquez/fastqfetch/internal/httputil"
	"github.com/nvasquez/fastqfetch/pkg/types"
)

// Method names accepted in the --methods chain. The identifiers match
// the ones the archive community uses for these routes.
const (
	MethodENAFTP   = "ena-ftp"
	MethodENAAscp  = "ena-ascp"
	MethodAWSHTTP  = "aws-http"
	MethodPrefetch = "prefetch"
)

// DefaultMethods is the default fallback order: Aspera when available,
// then plain ENA transfer, then the AWS Open Data mirror, then
// sra-tools prefetch.
var DefaultMethods = []string{MethodENAAscp, MethodENAFTP, MethodAWSHTTP, MethodPrefetch}

// awsODPBase is the SRA Open Data Program bucket. Declared as a var so
// tests can substitute an httptest server.
var awsODPBase = "https://sra-pub-run-odp.s3.amazonaws.com/sra"

// Method downloads one run via a single route. Fetch returns the paths
// of the files it wrote; a successful fetch returns at least one path.
type Method interface {
	Name() string
	Fetch(ctx context.Context, run types.Run, destDir string) ([]string, error)
}

// BuildMethods maps the configured method names to implementations.
// Unknown names are an error so typos fail fast rather than silently
// shrinking the chain.
func BuildMethods(names []string, client *http.Client, cfg types.DownloadConfig) ([]Method, error) {
	if len(names) == 0 {
		names = DefaultMethods
	}
	exec := &osExecutor{}

	var methods []Method
	for _, name := range names {
		switch name {
		case MethodENAFTP:
			methods = append(methods, &enaFTPMethod{client: client, cfg: cfg})
		case MethodENAAscp:
			methods = append(methods, &ascpMethod{exec: exec, keyPath: cfg.AscpKeyPath})
		case MethodAWSHTTP:
			methods = append(methods, &awsHTTPMethod{client: client, cfg: cfg})
		case MethodPrefetch:
			methods = append(methods, &prefetchMethod{exec: exec})
		default:
			return nil, fmt.Errorf("unknown download method %q", name)
		}
	}
	return methods, nil
}

// --- ena-ftp ---

// enaFTPMethod downloads the FASTQ files ENA reported for the run over
// HTTPS, verifying each file against its MD5 digest.
type enaFTPMethod struct {
	client *http.Client
	cfg    types.DownloadConfig
}

func (m *enaFTPMethod) Name() string { return MethodENAFTP }

func (m *enaFTPMethod) Fetch(ctx context.Context, run types.Run, destDir string) ([]string, error) {
	if !run.HasFastqURLs() {
		return nil, fmt.Errorf("no ENA file locations for %s", run.Accession)
	}

	var written []string
	for i, fileURL := range run.FastqURLs {
		destPath := filepath.Join(destDir, path.Base(fileURL))

		wantMD5 := ""
		if i < len(run.FastqMD5s) {
			wantMD5 = run.FastqMD5s[i]
		}

		if err := downloadAndVerify(ctx, m.client, fileURL, destPath, m.cfg.UserAgent, wantMD5); err != nil {
			removeAll(written)
			return nil, err
		}
		written = append(written, destPath)
	}
	return written, nil
}

// --- aws-http ---

// awsHTTPMethod downloads the run's .sra object from the SRA Open Data
// Program bucket. The object is stored as <run>.sra; extraction to
// FASTQ is left to sra-tools.
type awsHTTPMethod struct {
	client *http.Client
	cfg    types.DownloadConfig
}

func (m *awsHTTPMethod) Name() string { return MethodAWSHTTP }

func (m *awsHTTPMethod) Fetch(ctx context.Context, run types.Run, destDir string) ([]string, error) {
	objectURL := fmt.Sprintf("%s/%s/%s", awsODPBase, run.Accession, run.Accession)
	destPath := filepath.Join(destDir, run.Accession+".sra")

	if err := downloadAndVerify(ctx, m.client, objectURL, destPath, m.cfg.UserAgent, ""); err != nil {
		return nil, err
	}
	return []string{destPath}, nil
}

// --- prefetch ---

// prefetchMethod delegates to the sra-tools prefetch binary.
type prefetchMethod struct {
	exec executor
}

func (m *prefetchMethod) Name() string { return MethodPrefetch }

func (m *prefetchMethod) Fetch(ctx context.Context, run types.Run, destDir string) ([]string, error) {
	if err := toolAvailable(m.exec, "prefetch"); err != nil {
		return nil, err
	}

	err := m.exec.Run(ctx, io.Discard, os.Stderr,
		"prefetch", run.Accession, "--output-directory", destDir)
	if err != nil {
		return nil, fmt.Errorf("prefetch %s: %w", run.Accession, err)
	}

	// prefetch writes <dest>/<run>/<run>.sra.
	return []string{filepath.Join(destDir, run.Accession, run.Accession+".sra")}, nil
}

// --- ena-ascp ---

// ascpMethod transfers the run's FASTQ files from the ENA Aspera
// endpoint using the ascp client.
type ascpMethod struct {
	exec    executor
	keyPath string
}

func (m *ascpMethod) Name() string { return MethodENAAscp }

func (m *ascpMethod) Fetch(ctx context.Context, run types.Run, destDir string) ([]string, error) {
	if err := toolAvailable(m.exec, "ascp"); err != nil {
		return nil, err
	}
	if m.keyPath == "" {
		return nil, fmt.Errorf("no Aspera ssh key configured (ena-aspera-key)")
	}
	if !run.HasFastqURLs() {
		return nil, fmt.Errorf("no ENA file locations for %s", run.Accession)
	}

	var written []string
	for _, fileURL := range run.FastqURLs {
		hostPath, err := enaHostPath(fileURL)
		if err != nil {
			removeAll(written)
			return nil, err
		}
		destPath := filepath.Join(destDir, path.Base(fileURL))

		err = m.exec.Run(ctx, io.Discard, os.Stderr,
			"ascp", "-QT", "-l", "300m", "-P", "33001", "-i", m.keyPath,
			"era-fasp@fasp.sra.ebi.ac.uk:"+hostPath, destPath)
		if err != nil {
			removeAll(written)
			return nil, fmt.Errorf("ascp %s: %w", run.Accession, err)
		}
		written = append(written, destPath)
	}
	return written, nil
}

// enaHostPath converts an ENA FASTQ URL into the path the fasp endpoint
// serves: https://ftp.sra.ebi.ac.uk/vol1/... becomes /vol1/...
func enaHostPath(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parsing ENA URL %q: %w", fileURL, err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("ENA URL %q has no path", fileURL)
	}
	return u.Path, nil
}

// downloadAndVerify fetches url to destPath via a temporary file,
// renaming only after the transfer (and, when a digest is supplied,
// the MD5 check) succeeds.
func downloadAndVerify(ctx context.Context, client *http.Client, fileURL, destPath, userAgent, wantMD5 string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
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
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, fileURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fastq-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	hash := md5.New()
	_, copyErr := io.Copy(io.MultiWriter(tmpFile, hash), resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if wantMD5 != "" {
		got := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(got, wantMD5) {
			os.Remove(tmpPath)
			return fmt.Errorf("MD5 mismatch for %s: got %s, want %s", path.Base(destPath), got, wantMD5)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
