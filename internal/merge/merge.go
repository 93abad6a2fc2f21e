// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines the partial records gathered for a subject into a
// single record with one value per requested column.
package merge

import (
	"strings"

	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/pkg/types"
)

// Policy decides whether candidate is already represented in acc.
type Policy interface {
	Contains(acc, candidate string) bool
}

// Containment treats a candidate as present when it is a case-insensitive
// substring of the accumulated value. "Bob" is dropped after "Bob Smith".
type Containment struct{}

// Contains implements Policy.
func (Containment) Contains(acc, candidate string) bool {
	return strings.Contains(strings.ToLower(acc), strings.ToLower(candidate))
}

// ExactLines treats a candidate as present when each of its trimmed lines
// already equals, case-insensitively, a line of the accumulated value.
type ExactLines struct{}

// Contains implements Policy.
func (ExactLines) Contains(acc, candidate string) bool {
	have := make(map[string]bool)
	for _, l := range strings.Split(acc, "\n") {
		have[strings.ToLower(strings.TrimSpace(l))] = true
	}
	for _, l := range strings.Split(candidate, "\n") {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" && !have[l] {
			return false
		}
	}
	return true
}

// PolicyFor maps a configured policy name to a Policy. Unknown or empty
// names give Containment.
func PolicyFor(kind types.DedupPolicyKind) Policy {
	if kind == types.DedupLines {
		return ExactLines{}
	}
	return Containment{}
}

// Merger merges partial records under a dedup policy.
type Merger struct {
	Policy Policy
}

// Merge builds the record for columns (expanded with format.ExpandColumns,
// lower-cased). "relevant links" always lists links one per line; for any
// other column a passthrough value from the input row wins outright; "other
// key notes" is empty; any other column accumulates record values in order, treating
// "NONE" as empty and skipping values the policy reports as present.
//
// When any record carries an error, the merged reasons are stored under
// "error" as well.
func (m Merger) Merge(records []types.PartialRecord, columns []string, passthrough map[string]string, links []string) types.MergedRecord {
	policy := m.Policy
	if policy == nil {
		policy = Containment{}
	}

	pass := make(map[string]string, len(passthrough))
	for k, v := range passthrough {
		pass[strings.ToLower(strings.TrimSpace(k))] = v
	}

	out := make(types.MergedRecord)
	for _, col := range format.ExpandColumns(columns) {
		if col == format.ColumnRelevantLinks {
			out[col] = strings.Join(links, "\n")
			continue
		}
		if v, ok := pass[col]; ok && v != "" {
			out[col] = v
			continue
		}
		switch col {
		case format.ColumnOtherKeyNotes:
			out[col] = ""
		default:
			out[col] = accumulate(records, col, policy)
		}
	}

	if _, requested := out[types.ErrorColumn]; !requested {
		if errs := accumulate(records, types.ErrorColumn, policy); errs != "" {
			out[types.ErrorColumn] = errs
		}
	}
	return out
}

func accumulate(records []types.PartialRecord, col string, policy Policy) string {
	var acc string
	for _, rec := range records {
		v, ok := rec[col]
		if !ok {
			continue
		}
		s := text(v)
		if s == "" || policy.Contains(acc, s) {
			continue
		}
		if acc == "" {
			acc = s
		} else {
			acc += "\n" + s
		}
	}
	return acc
}

// text joins a value's items with newlines, dropping blank and "NONE" items.
func text(v types.Value) string {
	var parts []string
	for _, item := range v.Items() {
		item = strings.TrimSpace(item)
		if item == "" || item == types.NoData {
			continue
		}
		parts = append(parts, item)
	}
	return strings.Join(parts, "\n")
}
