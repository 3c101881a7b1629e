// Copyright Nora Vasquez, 2026. All rights reserved.

package geo

import (
	"reflect"
	"testing"
)

func TestPairsToMap(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		sep   string
		want  map[string]string
	}{
		{
			name:  "basic colon pairs",
			pairs: []string{"tissue: liver", "genotype: WT"},
			sep:   ":",
			want:  map[string]string{"tissue": "liver", "genotype": "WT"},
		},
		{
			name:  "default separator when empty",
			pairs: []string{"strain: C57BL/6"},
			sep:   "",
			want:  map[string]string{"strain": "C57BL/6"},
		},
		{
			name:  "value keeps later separators",
			pairs: []string{"time: 12:30:00"},
			sep:   ":",
			want:  map[string]string{"time": "12:30:00"},
		},
		{
			name:  "malformed entries skipped",
			pairs: []string{"no separator here", "tissue: brain", ": empty key"},
			sep:   ":",
			want:  map[string]string{"tissue": "brain"},
		},
		{
			name:  "later duplicate wins",
			pairs: []string{"dose: 10", "dose: 20"},
			sep:   ":",
			want:  map[string]string{"dose": "20"},
		},
		{
			name:  "custom separator",
			pairs: []string{"sex=female"},
			sep:   "=",
			want:  map[string]string{"sex": "female"},
		},
		{
			name:  "empty input",
			pairs: nil,
			sep:   ":",
			want:  map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PairsToMap(tt.pairs, tt.sep)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PairsToMap(%v, %q) = %v, want %v", tt.pairs, tt.sep, got, tt.want)
			}
		})
	}
}

func testSample(accession string, characteristics ...string) *Sample {
	return &Sample{
		Accession: accession,
		Metadata: map[string][]string{
			"title":               {accession + " title"},
			"organism_ch1":        {"Mus musculus"},
			"characteristics_ch1": characteristics,
		},
	}
}

func TestSampleCharacteristics(t *testing.T) {
	s := testSample("GSM1", "tissue: liver", "genotype: WT")
	s.Metadata["characteristics_ch2"] = []string{"spike-in: ERCC"}

	got := s.Characteristics()
	want := map[string]string{"tissue": "liver", "genotype": "WT", "spike-in": "ERCC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Characteristics() = %v, want %v", got, want)
	}
}

func TestParseSelector(t *testing.T) {
	sel, ok := ParseSelector(" tissue = liver ")
	if !ok || sel.Key != "tissue" || sel.Value != "liver" {
		t.Errorf("ParseSelector = %+v, %v", sel, ok)
	}
	if _, ok := ParseSelector("no-equals"); ok {
		t.Error("expected malformed selector to be rejected")
	}
}

func TestSampleMatches(t *testing.T) {
	s := testSample("GSM1", "tissue: liver", "genotype: WT")

	tests := []struct {
		name string
		sel  Selector
		want bool
	}{
		{"characteristic match", Selector{"tissue", "liver"}, true},
		{"characteristic mismatch", Selector{"tissue", "brain"}, false},
		{"key case-insensitive", Selector{"Tissue", "liver"}, true},
		{"value case-sensitive", Selector{"tissue", "Liver"}, false},
		{"metadata field match", Selector{"organism_ch1", "Mus musculus"}, true},
		{"absent key", Selector{"age", "8wk"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Matches(tt.sel); got != tt.want {
				t.Errorf("Matches(%+v) = %v, want %v", tt.sel, got, tt.want)
			}
		})
	}
}

func TestFilterSamples(t *testing.T) {
	series := &Series{
		Accession: "GSE1",
		Samples: []*Sample{
			testSample("GSM1", "tissue: liver", "genotype: WT"),
			testSample("GSM2", "tissue: liver", "genotype: KO"),
			testSample("GSM3", "tissue: brain", "genotype: WT"),
		},
	}

	tests := []struct {
		name      string
		selectors []Selector
		want      []string
	}{
		{"no selectors keeps all", nil, []string{"GSM1", "GSM2", "GSM3"}},
		{"single selector", []Selector{{"tissue", "liver"}}, []string{"GSM1", "GSM2"}},
		{"conjunction", []Selector{{"tissue", "liver"}, {"genotype", "WT"}}, []string{"GSM1"}},
		{"no matches", []Selector{{"tissue", "kidney"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range FilterSamples(series, tt.selectors) {
				got = append(got, s.Accession)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterSamples = %v, want %v", got, tt.want)
			}
		})
	}
}
