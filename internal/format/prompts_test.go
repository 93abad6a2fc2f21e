// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dossier/pkg/types"
)

func TestChunkColumns(t *testing.T) {
	tests := []struct {
		n     int
		sizes []int
	}{
		{1, []int{1}},
		{2, []int{2}},
		{3, []int{3}},
		{4, []int{4}},
		{5, []int{3, 2}},
		{6, []int{3, 3}},
		{7, []int{4, 3}},
		{8, []int{4, 4}},
		{9, []int{3, 3, 3}},
		{10, []int{4, 3, 3}},
		{11, []int{4, 4, 3}},
	}
	for _, tt := range tests {
		t.Run(strings.Repeat("c", tt.n), func(t *testing.T) {
			cols := make([]string, tt.n)
			for i := range cols {
				cols[i] = string(rune('a' + i))
			}
			chunks := chunkColumns(cols)
			var sizes []int
			var flat []string
			for _, c := range chunks {
				sizes = append(sizes, len(c))
				flat = append(flat, c...)
			}
			assert.Equal(t, tt.sizes, sizes)
			assert.Equal(t, cols, flat, "chunks must preserve column order")
		})
	}
}

func TestBuildPrompts_SevenColumns(t *testing.T) {
	prompts := BuildPrompts([]string{"a", "b", "c", "d", "e", "f", "g"})
	require.Len(t, prompts, 2)

	total := 0
	for _, p := range prompts {
		n := strings.Count(p, "', '") + 1
		assert.Contains(t, []int{3, 4}, n)
		total += n
	}
	assert.Equal(t, 7, total)
	assert.Contains(t, prompts[0], "'a', 'b', 'c', 'd'.")
	assert.Contains(t, prompts[1], "'e', 'f', 'g'.")
}

func TestBuildPrompts_Placeholders(t *testing.T) {
	prompts := BuildPrompts([]string{"Title"})
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], types.PlaceholderName)
	assert.Contains(t, prompts[0], types.PlaceholderInstitution)
	assert.Contains(t, prompts[0], "'NONE'")
	assert.Contains(t, prompts[0], "JSON")
}

func TestBuildPrompts_ReservedColumns(t *testing.T) {
	columns := []string{"Name", "institution", "Emails", "Relevant Links", "Other Key Notes", "Title"}
	orig := append([]string(nil), columns...)

	prompts := BuildPrompts(columns)
	require.Len(t, prompts, 1)
	p := prompts[0]

	assert.Contains(t, p, "'Title'")
	assert.Contains(t, p, "'"+ColumnPatents+"'")
	assert.Contains(t, p, "'"+ColumnAwards+"'")
	for _, reserved := range []string{"'Name'", "'institution'", "'Emails'", "'Relevant Links'", "'Other Key Notes'"} {
		assert.NotContains(t, p, reserved)
	}
	assert.Equal(t, orig, columns, "input slice must not be modified")
}

func TestBuildPrompts_OnlyReserved(t *testing.T) {
	prompts := BuildPrompts([]string{"Name", "Email", "Relevant links"})
	assert.Equal(t, []string{types.NoData}, prompts)

	f := types.Format{Prompts: prompts}
	assert.True(t, f.SkipExtraction())
}

func TestExtractionTargets_OtherKeyNotes(t *testing.T) {
	targets := ExtractionTargets([]string{"other key notes"})
	assert.Equal(t, []string{ColumnPatents, ColumnAwards}, targets)
	assert.NotContains(t, targets, "other key notes")
}

func TestExpandColumns(t *testing.T) {
	got := ExpandColumns([]string{"Name", "Other Key Notes", "Email", "name"})
	assert.Equal(t, []string{
		"name", "other key notes", "patents under their name", "awards received", "email",
	}, got)
}

func TestWantsEmail(t *testing.T) {
	assert.True(t, WantsEmail([]string{"Title", "Emails"}))
	assert.True(t, WantsEmail([]string{" email "}))
	assert.False(t, WantsEmail([]string{"Title", "Website"}))
}

func TestSubstitutePlaceholders(t *testing.T) {
	got := SubstitutePlaceholders("find PERSON_NAME at INSTITUTION_NAME (PERSON_NAME)", "Jane Doe", "Acme University")
	assert.Equal(t, "find Jane Doe at Acme University (Jane Doe)", got)
}

func TestDefault(t *testing.T) {
	f := Default()
	assert.Equal(t, DefaultName, f.Name)
	assert.Equal(t, []string{"researchgate", "ieee"}, f.Sites)
	// Eight model targets plus the two "other key notes" synonyms.
	assert.Len(t, f.Prompts, 3)
	assert.False(t, f.SkipExtraction())
}
