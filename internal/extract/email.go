// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/pkg/types"
)

var emailRe = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)

// FindEmails returns the email addresses found in texts, in order of first
// appearance and without case-insensitive duplicates.
func FindEmails(texts []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range texts {
		for _, m := range emailRe.FindAllString(t, -1) {
			m = strings.Trim(m, ".")
			key := strings.ToLower(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

// EmailRecord stores emails under every email-variant column in columns.
// It returns nil when there are no emails or no such column.
func EmailRecord(columns, emails []string) types.PartialRecord {
	if len(emails) == 0 {
		return nil
	}
	var rec types.PartialRecord
	for _, c := range columns {
		if !format.IsEmailColumn(c) {
			continue
		}
		if rec == nil {
			rec = make(types.PartialRecord)
		}
		rec.Set(c, types.List(emails...))
	}
	return rec
}
