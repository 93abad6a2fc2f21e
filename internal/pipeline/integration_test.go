// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// End-to-end run: discovery with a stub searcher, fetching from a local
// server, extraction through a mock completer, and persistence to both the
// workbook and the run store.

package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dossier/internal/discover"
	"github.com/pdiddy/dossier/internal/extract"
	"github.com/pdiddy/dossier/internal/fetch"
	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/internal/merge"
	"github.com/pdiddy/dossier/internal/metrics"
	"github.com/pdiddy/dossier/internal/output"
	"github.com/pdiddy/dossier/pkg/types"
)

const profileHTML = `<html><head><title>Jane Doe</title><script>var x = 1;</script></head>
<body><h1>Jane Doe</h1><p>Professor of Physics at Acme University.</p>
<a href="mailto:jdoe@acme.edu">Email</a></body></html>`

type stubSearcher struct{ results []string }

func (s *stubSearcher) Name() string { return "stub" }

func (s *stubSearcher) Search(context.Context, string) ([]string, error) {
	return s.results, nil
}

type stubCompleter struct{ prompts []string }

func (c *stubCompleter) Complete(_ context.Context, instruction, _ string) (string, error) {
	c.prompts = append(c.prompts, instruction)
	return "```json\n{\"title\": \"Professor\", \"research areas\": [\"Optics\", \"Lasers\"]}\n```", nil
}

func TestPipeline_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/people/jane-doe" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(profileHTML))
	}))
	defer srv.Close()

	client := &http.Client{Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	profile := srv.URL + "/people/jane-doe"
	searcher := &stubSearcher{results: []string{
		"/url?q=" + url.QueryEscape(profile) + "&sa=U",
		"https://www.linkedin.com/in/jane-doe",
		srv.URL + "/people/someone-else",
		"/search?q=more",
	}}

	rec := metrics.New()
	completer := &stubCompleter{}
	p := &Pipeline{
		Discoverer: &discover.Discoverer{Searcher: searcher, Metrics: rec},
		Fetcher:    &fetch.Fetcher{Renderer: &fetch.HTTPRenderer{Client: client}, Metrics: rec},
		Extractor:  &extract.Client{Completer: completer, Metrics: rec},
		Merger:     merge.Merger{Policy: merge.Containment{}},
		Metrics:    rec,
	}

	columns := []string{"Name", "Institution", "Title", "Research Areas", "Email", "Relevant Links"}
	f := types.Format{Name: "faculty", Columns: columns, Prompts: format.BuildPrompts(columns)}

	dir := t.TempDir()
	wb, err := output.NewWorkbook(filepath.Join(dir, "out.xlsx"), output.Header(columns))
	require.NoError(t, err)
	store, err := output.OpenStore(filepath.Join(dir, "dossier.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	run, err := store.StartRun(ctx, f)
	require.NoError(t, err)
	p.Sink = output.Multi{wb, run}

	subjects := []*types.Subject{
		types.NewSubject(map[string]string{"Name": "Jane Doe", "Institution": "Acme University"}),
	}
	sum, err := p.Run(ctx, subjects, f)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Extracted)
	assert.False(t, sum.HasFailures())

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Jane Doe")
	assert.Contains(t, completer.prompts[0], "Acme University")

	rows, err := output.ReadWorkbook(filepath.Join(dir, "out.xlsx"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Jane Doe", "Acme University", "Professor", "Optics\nLasers", "jdoe@acme.edu", profile}, rows[1][:6])

	records, err := store.Records(ctx, output.Query{RunID: run.ID()})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusExtracted, records[0].Status)
	assert.Equal(t, []string{profile}, records[0].Links)
	assert.Equal(t, "Professor", records[0].Output["title"])

	metricsPath := filepath.Join(dir, "dossier.prom")
	require.NoError(t, rec.WriteTextfile(metricsPath))
	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dossier_subjects_total{status="extracted"} 1`)
	assert.Contains(t, string(data), `dossier_extractions_total{outcome="ok"} 1`)
	assert.Contains(t, string(data), `dossier_links_discovered_total 1`)
}
