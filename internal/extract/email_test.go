// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/dossier/pkg/types"
)

func TestFindEmails(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  []string
	}{
		{
			name:  "none",
			texts: []string{"Contact the department office.", "@handle on social"},
			want:  nil,
		},
		{
			name:  "ordered and deduplicated",
			texts: []string{"Email jane.doe@acme.edu.", "JANE.DOE@acme.edu", "lab: optics-lab+info@physics.acme.edu"},
			want:  []string{"jane.doe@acme.edu", "optics-lab+info@physics.acme.edu"},
		},
		{
			name:  "mailto target",
			texts: []string{"mailto:jdoe@acme.edu"},
			want:  []string{"jdoe@acme.edu"},
		},
		{
			name:  "no top-level domain",
			texts: []string{"user@localhost"},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindEmails(tt.texts))
		})
	}
}

func TestEmailRecord(t *testing.T) {
	emails := []string{"a@x.org", "b@x.org"}

	rec := EmailRecord([]string{"Name", "Email", "EMAILS", "Title"}, emails)
	assert.Equal(t, types.PartialRecord{
		"email":  types.List("a@x.org", "b@x.org"),
		"emails": types.List("a@x.org", "b@x.org"),
	}, rec)

	assert.Nil(t, EmailRecord([]string{"Email"}, nil))
	assert.Nil(t, EmailRecord([]string{"Title"}, emails))
}
