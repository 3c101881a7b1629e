// Copyright Nora Vasquez, 2026. All rights reserved.

package manifest

import (
	"context"
	"testing"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(types.ManifestConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesSchema(t *testing.T) {
	store := openTestStore(t)

	// A fresh store answers queries without errors.
	done, _, err := store.IsDone("SRR1")
	if err != nil {
		t.Fatalf("IsDone: %v", err)
	}
	if done {
		t.Error("fresh store reports run as done")
	}
}

func TestRecordSeriesUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	series := &SeriesRecord{
		Accession: "GSE68849",
		Title:     "Influenza-infected monocytes",
		Samples: []SampleRecord{
			{Accession: "GSM1684095", Title: "rep1", Organism: "Homo sapiens",
				Characteristics: map[string]string{"treatment": "mock"}},
			{Accession: "GSM1684096", Title: "rep2", Organism: "Homo sapiens",
				Characteristics: map[string]string{"treatment": "infected"}},
		},
	}
	if err := store.RecordSeries(ctx, series); err != nil {
		t.Fatalf("RecordSeries: %v", err)
	}

	// Recording again with a changed title must update, not fail.
	series.Title = "updated title"
	series.Samples = series.Samples[:1]
	if err := store.RecordSeries(ctx, series); err != nil {
		t.Fatalf("RecordSeries (second): %v", err)
	}
}

func TestSetStateAndIsDone(t *testing.T) {
	store := openTestStore(t)
	run := types.Run{
		Accession:       "SRR100",
		SourceAccession: "GSM1",
		StudyAccession:  "SRP1",
		FastqBytes:      []int64{1024, 2048},
	}

	if err := store.SetState(run, types.StateDownloading, "", "", ""); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	done, _, err := store.IsDone("SRR100")
	if err != nil {
		t.Fatalf("IsDone: %v", err)
	}
	if done {
		t.Error("downloading run reported as done")
	}

	if err := store.SetState(run, types.StateDone, "ena-ftp", "/data/fastq/SRR100.fastq.gz", ""); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	done, recorded, err := store.IsDone("SRR100")
	if err != nil {
		t.Fatalf("IsDone: %v", err)
	}
	if !done {
		t.Error("done run not reported as done")
	}
	if recorded != "/data/fastq/SRR100.fastq.gz" {
		t.Errorf("recorded path = %q", recorded)
	}
}

func TestStatusFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordSeries(ctx, &SeriesRecord{
		Accession: "GSE1",
		Samples:   []SampleRecord{{Accession: "GSM1"}},
	}); err != nil {
		t.Fatalf("RecordSeries: %v", err)
	}

	runs := []struct {
		accession string
		source    string
		state     types.DownloadState
	}{
		{"SRR1", "GSM1", types.StateDone},
		{"SRR2", "GSM1", types.StateFailed},
		{"SRR3", "GSM99", types.StateDone},
	}
	for _, r := range runs {
		run := types.Run{Accession: r.accession, SourceAccession: r.source}
		if err := store.SetState(run, r.state, "", "", ""); err != nil {
			t.Fatalf("SetState(%s): %v", r.accession, err)
		}
	}

	all, err := store.Status(ctx, StatusOptions{})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d rows, want 3", len(all))
	}
	// Ordered by accession.
	if all[0].Accession != "SRR1" || all[2].Accession != "SRR3" {
		t.Errorf("order = %s, %s, %s", all[0].Accession, all[1].Accession, all[2].Accession)
	}

	bySeries, err := store.Status(ctx, StatusOptions{Series: "GSE1"})
	if err != nil {
		t.Fatalf("Status(series): %v", err)
	}
	if len(bySeries) != 2 {
		t.Errorf("series filter: got %d rows, want 2", len(bySeries))
	}

	byState, err := store.Status(ctx, StatusOptions{State: types.StateFailed})
	if err != nil {
		t.Fatalf("Status(state): %v", err)
	}
	if len(byState) != 1 || byState[0].Accession != "SRR2" {
		t.Errorf("state filter: %+v", byState)
	}

	both, err := store.Status(ctx, StatusOptions{Series: "GSE1", State: types.StateDone})
	if err != nil {
		t.Fatalf("Status(both): %v", err)
	}
	if len(both) != 1 || both[0].Accession != "SRR1" {
		t.Errorf("combined filter: %+v", both)
	}
}

func TestStatusReportsMetadata(t *testing.T) {
	store := openTestStore(t)
	run := types.Run{
		Accession:       "SRR7",
		SourceAccession: "GSM7",
		StudyAccession:  "SRP7",
		FastqBytes:      []int64{100, 200},
	}
	if err := store.SetState(run, types.StateDone, "aws-http", "/data/SRR7.sra", ""); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	rows, err := store.Status(context.Background(), StatusOptions{})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	rs := rows[0]
	if rs.State != types.StateDone || rs.Method != "aws-http" || rs.Bytes != 300 ||
		rs.Path != "/data/SRR7.sra" || rs.StudyAccession != "SRP7" {
		t.Errorf("row = %+v", rs)
	}
	if rs.UpdatedAt == "" {
		t.Error("updated_at not recorded")
	}
}
