// Copyright Nora Vasquez, 2026. All rights reserved.

package geo

import (
	"strings"
)

// PairsToMap converts a list of "key<sep>value" strings into a map,
// splitting each entry on the first occurrence of sep and trimming
// whitespace around both halves. Entries without the separator are
// skipped. Later duplicates of a key win.
func PairsToMap(pairs []string, sep string) map[string]string {
	if sep == "" {
		sep = ":"
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, sep)
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		m[key] = strings.TrimSpace(value)
	}
	return m
}

// Characteristics returns the sample's characteristics as a map, merged
// across all channels. GEO stores them as repeated
// "!Sample_characteristics_chN = key: value" lines.
func (s *Sample) Characteristics() map[string]string {
	var pairs []string
	for key, values := range s.Metadata {
		if strings.HasPrefix(key, "characteristics_ch") {
			pairs = append(pairs, values...)
		}
	}
	return PairsToMap(pairs, ":")
}

// Selector is a single equality condition on a sample.
type Selector struct {
	Key   string
	Value string
}

// ParseSelector parses "key=value" into a Selector.
func ParseSelector(s string) (Selector, bool) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Selector{}, false
	}
	return Selector{
		Key:   strings.TrimSpace(key),
		Value: strings.TrimSpace(value),
	}, true
}

// Matches reports whether the sample satisfies the selector. The key is
// looked up first among the parsed characteristics and then among the
// raw metadata fields; keys compare case-insensitively, values exactly.
func (s *Sample) Matches(sel Selector) bool {
	for key, value := range s.Characteristics() {
		if strings.EqualFold(key, sel.Key) {
			return value == sel.Value
		}
	}
	for key, values := range s.Metadata {
		if strings.EqualFold(key, sel.Key) {
			for _, v := range values {
				if v == sel.Value {
					return true
				}
			}
			return false
		}
	}
	return false
}

// FilterSamples returns the samples of the series that satisfy every
// selector, in series order. With no selectors all samples pass.
func FilterSamples(series *Series, selectors []Selector) []*Sample {
	var out []*Sample
	for _, sample := range series.Samples {
		keep := true
		for _, sel := range selectors {
			if !sample.Matches(sel) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, sample)
		}
	}
	return out
}
