// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the dossier pipeline.
// Subjects flow through discovery, extraction, and merge; the structures
// here are the contract between those stages and the input/output
// collaborators.
package types

import "strings"

// Field names every subject must carry.
const (
	FieldName        = "name"
	FieldInstitution = "institution"
)

// SubjectStatus records how a subject's run ended.
type SubjectStatus string

const (
	StatusPending SubjectStatus = "pending"

	// StatusNoLinks means discovery found no sources, so nothing was extracted.
	StatusNoLinks SubjectStatus = "no_links"

	// StatusExtracted means at least one source was processed.
	StatusExtracted SubjectStatus = "extracted"

	// StatusLinksOnly means sources were recorded but extraction was disabled
	// by the skip sentinel.
	StatusLinksOnly SubjectStatus = "links_only"
)

// Subject is one entity (e.g. a researcher) processed through the pipeline.
// Fields hold the input row keyed by lower-cased column name and are not
// modified after the subject is read. Links and Output are set during the run.
type Subject struct {
	// Fields is the input row: lower-cased column name to value.
	Fields map[string]string `json:"fields" yaml:"fields"`

	// Links are the discovered sources in processing order.
	Links []string `json:"links" yaml:"links"`

	// Output is the merged record, set once after all sources are processed.
	Output MergedRecord `json:"output,omitempty" yaml:"output,omitempty"`

	// Status distinguishes "no sources" from "sources gave no data".
	Status SubjectStatus `json:"status" yaml:"status"`
}

// NewSubject builds a Subject from an input row. Keys are lower-cased and
// values trimmed.
func NewSubject(fields map[string]string) *Subject {
	norm := make(map[string]string, len(fields))
	for k, v := range fields {
		norm[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return &Subject{Fields: norm, Status: StatusPending}
}

// Name returns the subject's name field.
func (s *Subject) Name() string { return s.Fields[FieldName] }

// Institution returns the subject's institution field.
func (s *Subject) Institution() string { return s.Fields[FieldInstitution] }

// Field returns the input value for column, matched case-insensitively.
func (s *Subject) Field(column string) (string, bool) {
	v, ok := s.Fields[strings.ToLower(strings.TrimSpace(column))]
	return v, ok
}
