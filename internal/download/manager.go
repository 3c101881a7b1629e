// Copyright Nora Vasquez, 2026. All rights reserved.

package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

// Recorder persists per-run download state. The SQLite manifest
// implements it; tests use an in-memory fake.
type Recorder interface {
	// IsDone reports whether the run is already recorded as downloaded,
	// returning the recorded destination path when one is known.
	IsDone(accession string) (bool, string, error)

	// SetState records the run's current state. Method and path are the
	// successful route and destination; errMsg carries the failure cause.
	SetState(run types.Run, state types.DownloadState, method, path, errMsg string) error
}

// nopRecorder is used when no manifest is configured.
type nopRecorder struct{}

func (nopRecorder) IsDone(string) (bool, string, error) { return false, "", nil }

func (nopRecorder) SetState(types.Run, types.DownloadState, string, string, string) error {
	return nil
}

// Result holds the outcome of a batch download run.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
	Errors     []string
}

// Total returns the number of runs processed.
func (r Result) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any runs failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Manager downloads runs in parallel through an ordered method chain.
type Manager struct {
	methods  []Method
	cfg      types.DownloadConfig
	recorder Recorder

	w  io.Writer
	mu sync.Mutex // serializes writes to w
}

// NewManager builds a Manager. A nil recorder disables bookkeeping.
func NewManager(methods []Method, cfg types.DownloadConfig, recorder Recorder, w io.Writer) *Manager {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Manager{methods: methods, cfg: cfg, recorder: recorder, w: w}
}

// Fetch downloads all runs, bounded by cfg.Processes parallel workers
// (or one worker per run with cfg.MaxProcesses). Individual failures do
// not abort the batch. Completed runs recorded in the manifest are
// skipped unless cfg.Force is set.
func (m *Manager) Fetch(ctx context.Context, runs []types.Run) (Result, error) {
	if len(runs) == 0 {
		return Result{}, fmt.Errorf("no runs to download")
	}
	if len(m.methods) == 0 {
		return Result{}, fmt.Errorf("no download methods configured")
	}

	if err := os.MkdirAll(m.cfg.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	limit := m.cfg.Processes
	if limit <= 0 {
		limit = 10
	}
	if m.cfg.MaxProcesses {
		limit = len(runs)
	}

	var downloaded, skipped, failed int64
	var errMu sync.Mutex
	var errs []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, run := range runs {
		run := run
		g.Go(func() error {
			switch m.fetchRun(ctx, run) {
			case outcomeDownloaded:
				atomic.AddInt64(&downloaded, 1)
			case outcomeSkipped:
				atomic.AddInt64(&skipped, 1)
			case outcomeFailed:
				atomic.AddInt64(&failed, 1)
				errMu.Lock()
				errs = append(errs, run.Accession)
				errMu.Unlock()
			}
			return ctx.Err()
		})
	}

	err := g.Wait()

	result := Result{
		Downloaded: int(downloaded),
		Skipped:    int(skipped),
		Failed:     int(failed),
		Errors:     errs,
	}
	m.printf("\nDownload summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, err
}

type outcome int

const (
	outcomeDownloaded outcome = iota
	outcomeSkipped
	outcomeFailed
)

// fetchRun processes one run: skip check, method chain, manifest and
// metadata record updates.
func (m *Manager) fetchRun(ctx context.Context, run types.Run) outcome {
	if !m.cfg.Force {
		done, recorded, err := m.recorder.IsDone(run.Accession)
		if err != nil {
			m.printf("  warning: manifest lookup for %s: %v\n", run.Accession, err)
		}
		if done {
			if filesPresent(run, recorded, m.cfg.OutputDir) {
				m.printf("skipped: %s (already downloaded)\n", run.Accession)
				return outcomeSkipped
			}
			m.printf("  warning: %s marked done but files missing on disk, re-downloading\n", run.Accession)
		}
	}

	if err := m.recorder.SetState(run, types.StateDownloading, "", "", ""); err != nil {
		m.printf("  warning: manifest update for %s: %v\n", run.Accession, err)
	}

	var lastErr error
	for _, method := range m.methods {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		m.printf("downloading: %s (%s)\n", run.Accession, method.Name())
		paths, err := method.Fetch(ctx, run, m.cfg.OutputDir)
		if err != nil {
			m.printf("  warning: %s via %s: %v\n", run.Accession, method.Name(), err)
			lastErr = err
			continue
		}

		if err := writeRunRecord(run, m.cfg.OutputDir); err != nil {
			m.printf("  warning: metadata record for %s: %v\n", run.Accession, err)
		}
		dest := ""
		if len(paths) > 0 {
			dest = paths[0]
		}
		if err := m.recorder.SetState(run, types.StateDone, method.Name(), dest, ""); err != nil {
			m.printf("  warning: manifest update for %s: %v\n", run.Accession, err)
		}
		m.printf("done: %s (%d files via %s)\n", run.Accession, len(paths), method.Name())
		return outcomeDownloaded
	}

	errMsg := "all methods failed"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	if err := m.recorder.SetState(run, types.StateFailed, "", "", errMsg); err != nil {
		m.printf("  warning: manifest update for %s: %v\n", run.Accession, err)
	}
	m.printf("failed:  %s (%s)\n", run.Accession, errMsg)
	return outcomeFailed
}

// filesPresent reports whether a run recorded as done still has its
// files on disk. The recorded destination must exist, and when ENA file
// locations and sizes are known each FASTQ file is checked against its
// expected size. A record with no path and no known file locations is
// trusted as-is.
func filesPresent(run types.Run, recorded, destDir string) bool {
	if recorded != "" {
		if _, err := os.Stat(recorded); err != nil {
			return false
		}
	}
	for i, fileURL := range run.FastqURLs {
		info, err := os.Stat(filepath.Join(destDir, path.Base(fileURL)))
		if err != nil {
			return false
		}
		if i < len(run.FastqBytes) && run.FastqBytes[i] > 0 && info.Size() != run.FastqBytes[i] {
			return false
		}
	}
	return true
}

// writeRunRecord writes the run's resolved metadata next to the data
// as <run>.yaml.
func writeRunRecord(run types.Run, destDir string) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}
	return os.WriteFile(filepath.Join(destDir, run.Accession+".yaml"), data, 0o644)
}

func (m *Manager) printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, format, args...)
}
