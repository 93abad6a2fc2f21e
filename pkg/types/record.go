// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strings"
)

const (
	// NoData is the marker the extraction service writes for "no information
	// found". It is equivalent to an empty value.
	NoData = "NONE"

	// ErrorColumn carries failure reasons from extraction calls and from
	// subjects without sources.
	ErrorColumn = "error"

	// Placeholders substituted per subject before each extraction call.
	PlaceholderName        = "PERSON_NAME"
	PlaceholderInstitution = "INSTITUTION_NAME"
)

// Value is a PartialRecord value: either a single string or a list of strings.
type Value struct {
	text  string
	items []string
	list  bool
}

// Text returns a single-string Value.
func Text(s string) Value { return Value{text: s} }

// List returns a list Value.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{items: cp, list: true}
}

// IsList reports whether the value is a list.
func (v Value) IsList() bool { return v.list }

// Items returns the list elements, or a one-element slice for a single string.
func (v Value) Items() []string {
	if v.list {
		cp := make([]string, len(v.items))
		copy(cp, v.items)
		return cp
	}
	return []string{v.text}
}

// String returns the value as text, joining list elements with newlines.
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, "\n")
	}
	return v.text
}

// MarshalJSON encodes a single value as a JSON string and a list as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		return json.Marshal(v.items)
	}
	return json.Marshal(v.text)
}

// MarshalYAML mirrors MarshalJSON for YAML output.
func (v Value) MarshalYAML() (any, error) {
	if v.list {
		return v.items, nil
	}
	return v.text, nil
}

// PartialRecord holds the values obtained from one extraction call or one
// regex pass for one source. Keys are lower-cased.
type PartialRecord map[string]Value

// NewPartialRecord builds a PartialRecord, lower-casing keys. When two keys
// collide after lower-casing, the later one in iteration order wins, so
// callers with ordered input should use Set.
func NewPartialRecord(values map[string]Value) PartialRecord {
	rec := make(PartialRecord, len(values))
	for k, v := range values {
		rec.Set(k, v)
	}
	return rec
}

// Set stores v under the lower-cased, trimmed key.
func (r PartialRecord) Set(key string, v Value) {
	r[strings.ToLower(strings.TrimSpace(key))] = v
}

// Error returns the error reason carried by the record, if any.
func (r PartialRecord) Error() (string, bool) {
	v, ok := r[ErrorColumn]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// ErrorRecord returns a record with a single error field. It is merged like
// any other partial record so failures surface as column values.
func ErrorRecord(reason string) PartialRecord {
	return PartialRecord{ErrorColumn: Text(reason)}
}

// MergedRecord is the final combined record for a subject: lower-cased
// column name to newline-joined value.
type MergedRecord map[string]string

// Row returns the record's values aligned to header. Header names are
// matched case-insensitively; missing columns yield empty strings.
func (m MergedRecord) Row(header []string) []string {
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = m[strings.ToLower(strings.TrimSpace(h))]
	}
	return row
}
