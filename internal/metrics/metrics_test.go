// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.Query("google", nil)
	r.Query("google", errors.New("boom"))
	r.Query("google", nil)
	r.Links(4)
	r.Fetch(nil)
	r.Extraction(OutcomeServiceError)
	r.Subject("no_links")
	r.Observe("fetch", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.queries.WithLabelValues("google", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.queries.WithLabelValues("google", OutcomeError)))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.links))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.extractions.WithLabelValues(OutcomeServiceError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.subjects.WithLabelValues("no_links")))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Query("serper", nil)
		r.Links(1)
		r.Fetch(nil)
		r.Extraction(OutcomeOK)
		r.Subject("extracted")
		r.Observe("extract", time.Now())
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.Subject("extracted")

	path := filepath.Join(t.TempDir(), "dossier.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dossier_subjects_total{status="extracted"} 1`)
}
