// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives subjects through discovery, fetching, extraction,
// merge, and persistence.
//
// Subjects are processed one at a time in input order. Within a subject,
// sources are processed in discovery order and prompts in format order. Each
// subject is handed to the sink as soon as it is merged, so an interrupted
// run keeps every subject completed before the interruption. Failures in
// search, fetch, or extraction are logged and never stop the run; a sink
// failure does.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/dossier/internal/extract"
	"github.com/pdiddy/dossier/internal/fetch"
	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/internal/merge"
	"github.com/pdiddy/dossier/internal/metrics"
	"github.com/pdiddy/dossier/internal/output"
	"github.com/pdiddy/dossier/pkg/types"
)

// ErrMissingField is returned by Validate and Run when a subject lacks a
// name or institution.
var ErrMissingField = errors.New("subject is missing a required field")

// ErrPersist wraps a sink failure. The run stops at the failing subject.
var ErrPersist = errors.New("persisting subject")

// NoLinksReason is the error recorded for a subject with no sources.
const NoLinksReason = "no links found"

// Discoverer finds candidate sources for a subject.
type Discoverer interface {
	Discover(ctx context.Context, subj *types.Subject, sites []string) []string
}

// Fetcher retrieves a source's text and anchor texts.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (fetch.Page, error)
}

// Extractor runs one extraction prompt against one source's text.
type Extractor interface {
	Extract(ctx context.Context, prompt, text string, subj *types.Subject) types.PartialRecord
}

// Pipeline holds the collaborators for a run.
type Pipeline struct {
	Discoverer Discoverer
	Fetcher    Fetcher
	Extractor  Extractor
	Merger     merge.Merger
	Sink       output.Sink

	Logger  *zap.Logger
	Metrics *metrics.Recorder

	// Out receives one progress line per step. Nil discards them.
	Out io.Writer
}

// Summary counts how subjects ended.
type Summary struct {
	Extracted int
	LinksOnly int
	NoLinks   int

	// FetchFailures and ExtractionErrors count individual calls, not
	// subjects.
	FetchFailures    int
	ExtractionErrors int

	Elapsed time.Duration
}

// Total returns the number of subjects processed.
func (s Summary) Total() int {
	return s.Extracted + s.LinksOnly + s.NoLinks
}

// HasFailures reports whether any fetch or extraction call failed.
func (s Summary) HasFailures() bool {
	return s.FetchFailures > 0 || s.ExtractionErrors > 0
}

// Validate checks that every subject has a name and institution.
func Validate(subjects []*types.Subject) error {
	for i, s := range subjects {
		for _, field := range []string{types.FieldName, types.FieldInstitution} {
			if strings.TrimSpace(s.Fields[field]) == "" {
				return fmt.Errorf("%w: row %d has no %s", ErrMissingField, i+1, field)
			}
		}
	}
	return nil
}

// Run processes subjects under f and persists each one before starting the
// next. It validates all subjects before doing any work. Cancelling ctx
// stops the run between subjects: the subject in progress finishes its
// calls and is persisted, and no further subject is started.
func (p *Pipeline) Run(ctx context.Context, subjects []*types.Subject, f types.Format) (sum Summary, err error) {
	start := time.Now()
	defer func() { sum.Elapsed = time.Since(start) }()

	if err := Validate(subjects); err != nil {
		return sum, err
	}
	w := p.out()
	work := context.WithoutCancel(ctx)

	for i, subj := range subjects {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("run interrupted after %d of %d subjects: %w", i, len(subjects), err)
		}
		fmt.Fprintf(w, "[%d/%d] %s (%s)\n", i+1, len(subjects), subj.Name(), subj.Institution())

		fetchFailures, extractErrors := p.Process(work, subj, f)
		sum.FetchFailures += fetchFailures
		sum.ExtractionErrors += extractErrors
		switch subj.Status {
		case types.StatusNoLinks:
			sum.NoLinks++
		case types.StatusLinksOnly:
			sum.LinksOnly++
		default:
			sum.Extracted++
		}

		if p.Sink != nil {
			if err := p.Sink.Append(work, subj); err != nil {
				p.logger().Error("persist failed", zap.String("subject", subj.Name()), zap.Error(err))
				return sum, fmt.Errorf("%w %q: %w", ErrPersist, subj.Name(), err)
			}
		}
		p.Metrics.Subject(string(subj.Status))
		fmt.Fprintf(w, "  saved: %s (%s)\n", subj.Name(), subj.Status)
	}

	sum.Elapsed = time.Since(start)
	fmt.Fprintf(w, "\nRun summary: %d extracted, %d links only, %d no links (total: %d) in %s\n",
		sum.Extracted, sum.LinksOnly, sum.NoLinks, sum.Total(), sum.Elapsed.Round(time.Millisecond))
	return sum, nil
}

// Process runs one subject through discovery, fetching, extraction, and
// merge, setting its Links, Status, and Output. It returns the number of
// failed fetches and the number of extraction records carrying an error.
func (p *Pipeline) Process(ctx context.Context, subj *types.Subject, f types.Format) (fetchFailures, extractErrors int) {
	log := p.logger().With(zap.String("subject", subj.Name()))
	w := p.out()

	links := p.Discoverer.Discover(ctx, subj, f.Sites)
	subj.Links = links
	fmt.Fprintf(w, "  links: %d\n", len(links))

	if len(links) == 0 {
		log.Info("no sources found")
		subj.Status = types.StatusNoLinks
		subj.Output = p.Merger.Merge([]types.PartialRecord{types.ErrorRecord(NoLinksReason)}, f.Columns, subj.Fields, nil)
		return 0, 0
	}

	skip := f.SkipExtraction()
	wantEmail := format.WantsEmail(f.Columns)
	var records []types.PartialRecord

	for j, link := range links {
		fmt.Fprintf(w, "  source %d/%d: %s\n", j+1, len(links), link)
		if skip && !wantEmail {
			continue
		}

		page, err := p.Fetcher.Fetch(ctx, link)
		if err != nil {
			log.Warn("fetch failed", zap.String("url", link), zap.Error(err))
			fmt.Fprintf(w, "    warning: fetch failed: %v\n", err)
			fetchFailures++
		}

		if wantEmail {
			if rec := extract.EmailRecord(f.Columns, extract.FindEmails(page.Anchors)); rec != nil {
				records = append(records, rec)
			}
		}
		if skip || page.Text == "" {
			continue
		}

		for _, prompt := range f.Prompts {
			rec := p.Extractor.Extract(ctx, prompt, page.Text, subj)
			if rec == nil {
				continue
			}
			if _, failed := rec.Error(); failed {
				extractErrors++
			}
			records = append(records, rec)
		}
	}

	if skip {
		subj.Status = types.StatusLinksOnly
	} else {
		subj.Status = types.StatusExtracted
	}
	subj.Output = p.Merger.Merge(records, f.Columns, subj.Fields, links)
	log.Info("subject merged",
		zap.Int("links", len(links)),
		zap.Int("records", len(records)),
		zap.String("status", string(subj.Status)))
	return fetchFailures, extractErrors
}

func (p *Pipeline) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
