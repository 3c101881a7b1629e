// Copyright Nora Vasquez, 2026. All rights reserved.

package sra

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nvasquez/fastqfetch/pkg/types"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "-"},
		{-1, "-"},
		{2048, "2 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatTable(t *testing.T) {
	runs := []types.Run{
		{Accession: "SRR1", SourceAccession: "GSM1", StudyAccession: "SRP1",
			LibraryLayout: "PAIRED", FastqURLs: []string{"a", "b"}, Source: "ena"},
	}

	var buf strings.Builder
	FormatTable(runs, &buf)
	out := buf.String()

	for _, want := range []string{"SRR1", "GSM1", "SRP1", "PAIRED", "ena", "1 runs"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf strings.Builder
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No runs resolved.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	runs := []types.Run{{Accession: "SRR1", Source: "ena"}}

	var buf strings.Builder
	if err := FormatJSON(runs, &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	var decoded []types.Run
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Accession != "SRR1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteRunList(t *testing.T) {
	runs := []types.Run{{Accession: "SRR1"}, {Accession: "SRR2"}}

	var buf strings.Builder
	if err := WriteRunList(runs, &buf); err != nil {
		t.Fatalf("WriteRunList: %v", err)
	}
	if buf.String() != "SRR1\nSRR2\n" {
		t.Errorf("output = %q", buf.String())
	}
}
