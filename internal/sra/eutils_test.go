// Copyright Nora Vasquez, 2026. All rights reserved.

package sra

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleRuninfo = "Run,ReleaseDate,spots,Experiment,Sample,SRAStudy,LibraryLayout\n" +
	"SRR500,2024-01-01,1000,SRX50,SRS5,SRP5,PAIRED\n" +
	"SRR501,2024-01-01,2000,SRX50,SRS5,SRP5,SINGLE\n"

func eutilsTestServer(t *testing.T, ids []string, runinfo string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			if got := r.URL.Query().Get("db"); got != "sra" {
				t.Errorf("esearch db = %q", got)
			}
			fmt.Fprintf(w, `{"esearchresult":{"idlist":[%s]}}`, quoteJoin(ids))
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			if got := r.URL.Query().Get("rettype"); got != "runinfo" {
				t.Errorf("efetch rettype = %q", got)
			}
			w.Write([]byte(runinfo))
		default:
			http.NotFound(w, r)
		}
	}))
}

func quoteJoin(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + id + `"`
	}
	return strings.Join(quoted, ",")
}

func TestEutilsBackendLookup(t *testing.T) {
	server := eutilsTestServer(t, []string{"12345", "12346"}, sampleRuninfo)
	defer server.Close()

	oldBase := eutilsBase
	eutilsBase = server.URL
	defer func() { eutilsBase = oldBase }()

	backend := &EutilsBackend{Client: server.Client()}
	runs, err := backend.Lookup(context.Background(), "GSM5", testResolveConfig())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	first := runs[0]
	if first.Accession != "SRR500" || first.ExperimentAccession != "SRX50" ||
		first.SampleAccession != "SRS5" || first.StudyAccession != "SRP5" {
		t.Errorf("accessions = %+v", first)
	}
	if first.LibraryLayout != "PAIRED" {
		t.Errorf("layout = %q", first.LibraryLayout)
	}
	if first.SourceAccession != "GSM5" || first.Source != "eutils" {
		t.Errorf("source = %q/%q", first.SourceAccession, first.Source)
	}
}

func TestEutilsBackendNoHits(t *testing.T) {
	server := eutilsTestServer(t, nil, "")
	defer server.Close()

	oldBase := eutilsBase
	eutilsBase = server.URL
	defer func() { eutilsBase = oldBase }()

	backend := &EutilsBackend{Client: server.Client()}
	runs, err := backend.Lookup(context.Background(), "GSM5", testResolveConfig())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if runs != nil {
		t.Errorf("runs = %v, want nil", runs)
	}
}

func TestEutilsBackendSendsAPIKey(t *testing.T) {
	var sawKey bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "sekret" {
			sawKey = true
		}
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	}))
	defer server.Close()

	oldBase := eutilsBase
	eutilsBase = server.URL
	defer func() { eutilsBase = oldBase }()

	cfg := testResolveConfig()
	cfg.NCBIAPIKey = "sekret"

	backend := &EutilsBackend{Client: server.Client()}
	if _, err := backend.Lookup(context.Background(), "GSM5", cfg); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !sawKey {
		t.Error("api_key not sent to esearch")
	}
}
