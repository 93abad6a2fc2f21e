// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dossier/pkg/types"
)

func subject(name, inst string, status types.SubjectStatus, out types.MergedRecord, links ...string) *types.Subject {
	s := types.NewSubject(map[string]string{"name": name, "institution": inst})
	s.Status = status
	s.Output = out
	s.Links = links
	return s
}

func TestHeader(t *testing.T) {
	got := Header([]string{"Name", "Other Key Notes", "Awards received", "name", "Email"})
	assert.Equal(t, []string{"Name", "Other Key Notes", "Patents under their name", "Awards received", "Email", "error"}, got)

	assert.Equal(t, []string{"Title", "Error"}, Header([]string{"Title", "Error"}))
}

func TestRow(t *testing.T) {
	s := subject("Jane", "Acme", types.StatusExtracted, types.MergedRecord{"name": "Jane", "title": ""})
	assert.Equal(t, []string{"Jane", "NONE", "NONE", ""}, Row([]string{"Name", "Title", "Website", "error"}, s))
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	var calls []string
	boom := errors.New("locked")
	m := Multi{
		Func(func(context.Context, *types.Subject) error { calls = append(calls, "a"); return nil }),
		Func(func(context.Context, *types.Subject) error { calls = append(calls, "b"); return boom }),
		Func(func(context.Context, *types.Subject) error { calls = append(calls, "c"); return nil }),
	}
	err := m.Append(context.Background(), subject("x", "y", types.StatusExtracted, nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)
}

// --- Workbook ---

func TestWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "people.xlsx")
	header := Header([]string{"Name", "Institution", "Title", "Relevant Links"})

	wb, err := NewWorkbook(path, header)
	require.NoError(t, err)
	assert.Equal(t, header, wb.Header())

	rows, err := ReadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{header}, rows)

	ctx := context.Background()
	require.NoError(t, wb.Append(ctx, subject("Jane Doe", "Acme", types.StatusExtracted,
		types.MergedRecord{"name": "Jane Doe", "institution": "Acme", "title": "Professor", "relevant links": "https://a.org\nhttps://b.org"})))
	require.NoError(t, wb.Append(ctx, subject("John Roe", "Acme", types.StatusNoLinks,
		types.MergedRecord{"name": "John Roe", "institution": "Acme", "error": "no links found"})))

	rows, err = ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Jane Doe", "Acme", "Professor", "https://a.org\nhttps://b.org"}, rows[1][:4])
	assert.Equal(t, []string{"John Roe", "Acme", "NONE", "NONE", "no links found"}, rows[2])
}

func TestWorkbook_CreateFails(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes SaveAs fail.
	path := filepath.Join(dir, "taken.xlsx")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := NewWorkbook(path, []string{"Name"})
	assert.Error(t, err)
}

func TestWorkbook_AppendFailsWhenRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.xlsx")
	wb, err := NewWorkbook(path, []string{"Name", "error"})
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	err = wb.Append(context.Background(), subject("a", "b", types.StatusExtracted, nil))
	assert.Error(t, err)
}

// --- Store ---

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "db", "dossier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RunAndRecords(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.StartRun(ctx, types.Format{Name: "faculty", Columns: []string{"Name", "Title"}})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID())

	require.NoError(t, run.Append(ctx, subject("Jane Doe", "Acme", types.StatusExtracted,
		types.MergedRecord{"name": "Jane Doe", "title": "Professor"}, "https://acme.edu/jdoe")))
	require.NoError(t, run.Append(ctx, subject("John Roe", "Acme", types.StatusNoLinks,
		types.MergedRecord{"name": "John Roe", "title": "", "error": "no links found"})))

	all, err := s.Records(ctx, Query{RunID: run.ID()})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].Position)
	assert.Equal(t, "Jane Doe", all[0].Name)
	assert.Equal(t, []string{"https://acme.edu/jdoe"}, all[0].Links)
	assert.Equal(t, "Professor", all[0].Output["title"])
	assert.Equal(t, 1, all[1].Position)
	assert.Equal(t, types.StatusNoLinks, all[1].Status)
	assert.Empty(t, all[1].Links)
	assert.False(t, all[1].SavedAt.IsZero())

	byName, err := s.Records(ctx, Query{Name: "jane"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Jane Doe", byName[0].Name)

	noLinks, err := s.Records(ctx, Query{Status: types.StatusNoLinks})
	require.NoError(t, err)
	require.Len(t, noLinks, 1)

	limited, err := s.Records(ctx, Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID(), runs[0].ID)
	assert.Equal(t, "faculty", runs[0].Format)
	assert.Equal(t, []string{"Name", "Title"}, runs[0].Columns)
	assert.Equal(t, 2, runs[0].Subjects)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dossier.db")

	s, err := OpenStore(path)
	require.NoError(t, err)
	run, err := s.StartRun(ctx, types.Format{Name: "base"})
	require.NoError(t, err)
	require.NoError(t, run.Append(ctx, subject("Jane", "Acme", types.StatusExtracted, types.MergedRecord{"name": "Jane"})))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Records(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestStore_Export(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, Query{}, &buf))
	assert.JSONEq(t, `[]`, buf.String())

	run, err := s.StartRun(ctx, types.Format{Name: "base"})
	require.NoError(t, err)
	require.NoError(t, run.Append(ctx, subject("Jane Doe", "Acme", types.StatusExtracted,
		types.MergedRecord{"name": "Jane Doe", "email": "jdoe@acme.edu"}, "https://acme.edu")))

	buf.Reset()
	require.NoError(t, s.ExportJSON(ctx, Query{}, &buf))
	var fromJSON []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "jdoe@acme.edu", fromJSON[0].Output["email"])

	buf.Reset()
	require.NoError(t, s.ExportYAML(ctx, Query{RunID: run.ID()}, &buf))
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "Jane Doe", fromYAML[0]["name"])
	assert.Equal(t, "extracted", fromYAML[0]["status"])
}
