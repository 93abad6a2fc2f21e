// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Format is the requested extraction format: which columns to produce,
// which extra search terms to use, and which prompts to send.
type Format struct {
	// Name identifies a saved format (the file name without extension).
	Name string `json:"name" yaml:"name"`

	// Columns are the requested output columns, unique case-insensitively.
	Columns []string `json:"columns" yaml:"columns"`

	// Sites are additional search qualifiers, one extra query each.
	Sites []string `json:"sites" yaml:"sites"`

	// Prompts are extraction prompt templates. The single-element list
	// ["NONE"] disables extraction.
	Prompts []string `json:"prompts" yaml:"prompts"`
}

// SkipExtraction reports whether the prompts are the skip sentinel.
func (f Format) SkipExtraction() bool {
	return len(f.Prompts) == 1 && strings.TrimSpace(f.Prompts[0]) == NoData
}

// Normalize trims every entry, drops blanks, and removes case-insensitive
// duplicate columns and sites while keeping first-seen order.
func (f Format) Normalize() Format {
	out := Format{Name: strings.TrimSpace(f.Name)}
	out.Columns = uniqueFold(f.Columns)
	out.Sites = uniqueFold(f.Sites)
	for _, p := range f.Prompts {
		if p = strings.TrimSpace(p); p != "" {
			out.Prompts = append(out.Prompts, p)
		}
	}
	return out
}

func uniqueFold(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
