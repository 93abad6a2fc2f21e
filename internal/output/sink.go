// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output persists finished subjects. Each sink receives a subject
// once, right after its record is merged, so a run that stops partway keeps
// everything saved before the failure.
package output

import (
	"context"
	"strings"

	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/pkg/types"
)

// Sink appends one subject. An error means the subject was not saved.
type Sink interface {
	Append(ctx context.Context, subj *types.Subject) error
}

// Multi appends to every sink in order and stops at the first error.
type Multi []Sink

// Append implements Sink.
func (m Multi) Append(ctx context.Context, subj *types.Subject) error {
	for _, s := range m {
		if err := s.Append(ctx, subj); err != nil {
			return err
		}
	}
	return nil
}

// Header returns the output header for columns: the requested names in
// order, the two synonym columns after "other key notes", and a final
// "error" column. Names are unique case-insensitively.
func Header(columns []string) []string {
	seen := make(map[string]bool)
	var header []string
	add := func(c string) {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			return
		}
		seen[key] = true
		header = append(header, c)
	}
	for _, c := range columns {
		add(c)
		if strings.EqualFold(strings.TrimSpace(c), format.ColumnOtherKeyNotes) {
			add(format.ColumnPatents)
			add(format.ColumnAwards)
		}
	}
	add(types.ErrorColumn)
	return header
}

// Row returns subj's output aligned to header, writing "NONE" for empty
// values except in the error column.
func Row(header []string, subj *types.Subject) []string {
	row := subj.Output.Row(header)
	for i, v := range row {
		if v == "" && !strings.EqualFold(header[i], types.ErrorColumn) {
			row[i] = types.NoData
		}
	}
	return row
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, subj *types.Subject) error

// Append implements Sink.
func (f Func) Append(ctx context.Context, subj *types.Subject) error { return f(ctx, subj) }
