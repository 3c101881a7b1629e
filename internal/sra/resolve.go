// Copyright Nora Vasquez, 2026. All rights reserved.

// Package sra resolves GEO and SRA accessions to sequencing run records.
package sra

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

// AccessionType classifies an input accession.
type AccessionType int

const (
	TypeUnknown AccessionType = iota
	TypeGEOSample
	TypeGEOSeries
	TypeRun
	TypeExperiment
	TypeStudy
	TypeSample
	TypeProject
)

func (t AccessionType) String() string {
	switch t {
	case TypeGEOSample:
		return "geo-sample"
	case TypeGEOSeries:
		return "geo-series"
	case TypeRun:
		return "run"
	case TypeExperiment:
		return "experiment"
	case TypeStudy:
		return "study"
	case TypeSample:
		return "sample"
	case TypeProject:
		return "project"
	default:
		return "unknown"
	}
}

// Accession patterns. SRA-style accessions carry an S/E/D prefix for
// the NCBI, EBI, and DDBJ archives respectively.
var (
	geoSamplePattern  = regexp.MustCompile(`^GSM\d+$`)
	geoSeriesPattern  = regexp.MustCompile(`^GSE\d+$`)
	runPattern        = regexp.MustCompile(`^[SED]RR\d+$`)
	experimentPattern = regexp.MustCompile(`^[SED]RX\d+$`)
	studyPattern      = regexp.MustCompile(`^[SED]RP\d+$`)
	samplePattern     = regexp.MustCompile(`^[SED]RS\d+$`)
	projectPattern    = regexp.MustCompile(`^PRJ[EDN][A-Z]\d+$`)
)

// Classify determines the accession type and returns the normalized
// (trimmed, upper-cased) form.
func Classify(accession string) (AccessionType, string) {
	accession = strings.ToUpper(strings.TrimSpace(accession))

	switch {
	case geoSamplePattern.MatchString(accession):
		return TypeGEOSample, accession
	case geoSeriesPattern.MatchString(accession):
		return TypeGEOSeries, accession
	case runPattern.MatchString(accession):
		return TypeRun, accession
	case experimentPattern.MatchString(accession):
		return TypeExperiment, accession
	case studyPattern.MatchString(accession):
		return TypeStudy, accession
	case samplePattern.MatchString(accession):
		return TypeSample, accession
	case projectPattern.MatchString(accession):
		return TypeProject, accession
	default:
		return TypeUnknown, accession
	}
}

// Backend resolves one accession against a single archive API. Each
// backend (ENA portal, NCBI eutils) implements this interface.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, accession string, cfg types.ResolveConfig) ([]types.Run, error)
}

// Output holds resolved runs and per-accession failures.
type Output struct {
	Runs     []types.Run
	Resolved int
	Failed   int
	Errors   []string
}

// HasFailures reports whether any accessions failed to resolve.
func (o Output) HasFailures() bool {
	return o.Failed > 0
}

// Resolve maps each accession to its run records. Backends are tried
// in order until one returns rows; an accession fails only when every
// backend errors or comes back empty. Individual failures do not abort
// the batch, and a delay is applied between consecutive accessions to
// stay inside archive rate limits.
func Resolve(ctx context.Context, accessions []string, backends []Backend, cfg types.ResolveConfig, w io.Writer) (Output, error) {
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no resolver backends configured")
	}

	var out Output
	for i, raw := range accessions {
		if i > 0 && cfg.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(cfg.RequestDelay):
			}
		}

		accType, accession := Classify(raw)
		if accType == TypeUnknown {
			fmt.Fprintf(w, "failed:  %s (unrecognized accession)\n", raw)
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("%s: unrecognized accession", raw))
			continue
		}

		runs, err := lookupWithFallback(ctx, accession, backends, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", accession, err)
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", accession, err))
			continue
		}

		for j := range runs {
			if runs[j].SourceAccession == "" {
				runs[j].SourceAccession = accession
			}
		}
		fmt.Fprintf(w, "resolved: %s -> %s\n", accession, runAccessions(runs))
		out.Resolved++
		out.Runs = append(out.Runs, runs...)
	}

	fmt.Fprintf(w, "\nResolve summary: %d resolved, %d failed (%d runs)\n",
		out.Resolved, out.Failed, len(out.Runs))
	return out, nil
}

// lookupWithFallback tries each backend in order, moving on when a
// backend errors or returns no rows.
func lookupWithFallback(ctx context.Context, accession string, backends []Backend, cfg types.ResolveConfig, w io.Writer) ([]types.Run, error) {
	var lastErr error
	for _, b := range backends {
		runs, err := b.Lookup(ctx, accession, cfg)
		if err != nil {
			fmt.Fprintf(w, "  warning: %s lookup failed for %s: %v\n", b.Name(), accession, err)
			lastErr = err
			continue
		}
		if len(runs) == 0 {
			continue
		}
		return runs, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all backends failed: %w", lastErr)
	}
	return nil, fmt.Errorf("no runs found")
}

func runAccessions(runs []types.Run) string {
	accs := make([]string, len(runs))
	for i, r := range runs {
		accs[i] = r.Accession
	}
	return strings.Join(accs, " ")
}
