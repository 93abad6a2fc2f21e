// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format builds extraction prompts from requested columns and reads
// and writes saved extraction formats.
package format

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/dossier/pkg/types"
)

// Reserved column names, lower-cased. These are resolved by passthrough,
// the email regex pass, or link tracking instead of the language model.
const (
	ColumnName          = "name"
	ColumnInstitution   = "institution"
	ColumnEmail         = "email"
	ColumnEmails        = "emails"
	ColumnOtherKeyNotes = "other key notes"
	ColumnRelevantLinks = "relevant links"
)

// Synonym columns requested in place of "other key notes".
const (
	ColumnPatents = "Patents under their name"
	ColumnAwards  = "Awards received"
)

var reservedColumns = map[string]bool{
	ColumnName:          true,
	ColumnInstitution:   true,
	ColumnEmail:         true,
	ColumnEmails:        true,
	ColumnOtherKeyNotes: true,
	ColumnRelevantLinks: true,
}

// chunkSize is the preferred number of columns per prompt.
const chunkSize = 3

// IsReserved reports whether column bypasses language-model extraction.
func IsReserved(column string) bool {
	return reservedColumns[normalize(column)]
}

// IsEmailColumn reports whether column is an email variant.
func IsEmailColumn(column string) bool {
	c := normalize(column)
	return c == ColumnEmail || c == ColumnEmails
}

// WantsEmail reports whether any requested column is an email variant.
func WantsEmail(columns []string) bool {
	for _, c := range columns {
		if IsEmailColumn(c) {
			return true
		}
	}
	return false
}

// ExpandColumns returns the lower-cased output columns for a request:
// "other key notes" is followed by its two synonym columns unless they
// were requested already. The result has no duplicates.
func ExpandColumns(columns []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		c = normalize(c)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}
	for _, c := range columns {
		add(c)
		if normalize(c) == ColumnOtherKeyNotes {
			add(ColumnPatents)
			add(ColumnAwards)
		}
	}
	return out
}

// ExtractionTargets returns the columns the language model is asked for:
// reserved columns are dropped and "other key notes" contributes its two
// synonyms instead. The input slice is not modified.
func ExtractionTargets(columns []string) []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(c string) {
		key := normalize(c)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		targets = append(targets, strings.TrimSpace(c))
	}
	var expandNotes bool
	for _, c := range columns {
		if IsReserved(c) {
			if normalize(c) == ColumnOtherKeyNotes {
				expandNotes = true
			}
			continue
		}
		add(c)
	}
	if expandNotes {
		add(ColumnPatents)
		add(ColumnAwards)
	}
	return targets
}

var promptTmpl = template.Must(template.New("prompt").Parse(
	`When given the name '` + types.PlaceholderName + `' and the institution of '` + types.PlaceholderInstitution + `', ` +
		`I want you to find the following data for the individual: ` +
		`{{range $i, $c := .}}{{if $i}}, {{end}}'{{$c}}'{{end}}. ` +
		`Output should be in JSON format. If you cannot find information on a particular topic, ` +
		`enter '` + types.NoData + `' for that field. Do not include sub-JSONs or sub-lists.`))

// BuildPrompts turns requested columns into extraction prompts. Columns are
// grouped so each call asks for three or four fields; fewer than three
// targets share a single prompt. When no targets remain after removing
// reserved columns it returns the skip sentinel ["NONE"].
func BuildPrompts(columns []string) []string {
	targets := ExtractionTargets(columns)
	if len(targets) == 0 {
		return []string{types.NoData}
	}

	var prompts []string
	for _, chunk := range chunkColumns(targets) {
		prompts = append(prompts, renderPrompt(chunk))
	}
	return prompts
}

// chunkColumns splits columns into groups of three, giving the leading
// len%3 groups a fourth column. When there are more leftover columns than
// groups (only five columns) the leftovers form a final smaller group.
func chunkColumns(columns []string) [][]string {
	n := len(columns)
	if n < chunkSize {
		return [][]string{columns}
	}

	groups := n / chunkSize
	extra := n % chunkSize
	if extra > groups {
		extra = 0
	}

	var chunks [][]string
	start := 0
	for g := 0; g < groups; g++ {
		size := chunkSize
		if g < extra {
			size++
		}
		chunks = append(chunks, columns[start:start+size])
		start += size
	}
	if start < n {
		chunks = append(chunks, columns[start:])
	}
	return chunks
}

func renderPrompt(columns []string) string {
	var buf bytes.Buffer
	// The template only ranges over strings; Execute cannot fail here.
	_ = promptTmpl.Execute(&buf, columns)
	return buf.String()
}

// SubstitutePlaceholders replaces the subject placeholders in prompt.
func SubstitutePlaceholders(prompt, name, institution string) string {
	r := strings.NewReplacer(
		types.PlaceholderName, name,
		types.PlaceholderInstitution, institution,
	)
	return r.Replace(prompt)
}

func normalize(column string) string {
	return strings.ToLower(strings.TrimSpace(column))
}
