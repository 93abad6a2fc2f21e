// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds candidate source URLs for a subject by running web
// searches and filtering the result links.
//
// A subject gets one base query "{name} {institution}" plus one query per
// extra site term. Result links pass through the filters in FilterLinks and
// then the ordered relevance rules. The output is deduplicated
// case-insensitively and sorted so discovery is deterministic.
package discover

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/dossier/internal/metrics"
	"github.com/pdiddy/dossier/pkg/types"
)

// Searcher runs one web search query and returns the result links. Each
// backend (HTML results page, Serper API) implements this interface.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]string, error)
}

// Discoverer collects relevant links for subjects.
type Discoverer struct {
	Searcher Searcher

	// Rules decide relevance in order. Nil means DefaultRules(TrustedAggregators).
	Rules              []Rule
	TrustedAggregators []string

	// Delay is the pause between consecutive queries for one subject.
	Delay time.Duration

	// CallTimeout bounds each query. Zero means no limit.
	CallTimeout time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Queries returns the search queries for subj: the base query followed by
// one query per site term.
func Queries(subj *types.Subject, sites []string) []string {
	base := strings.TrimSpace(subj.Name() + " " + subj.Institution())
	queries := []string{base}
	for _, s := range sites {
		if s = strings.TrimSpace(s); s != "" {
			queries = append(queries, base+" "+s)
		}
	}
	return queries
}

// Discover returns the relevant links for subj. A query that fails is
// logged and contributes no links; Discover itself never fails.
func (d *Discoverer) Discover(ctx context.Context, subj *types.Subject, sites []string) []string {
	log := d.logger().With(zap.String("subject", subj.Name()), zap.String("searcher", d.Searcher.Name()))

	var raw []string
	for i, q := range Queries(subj, sites) {
		if i > 0 && d.Delay > 0 {
			select {
			case <-ctx.Done():
				log.Warn("discovery interrupted", zap.Error(ctx.Err()))
				return d.finish(raw, subj, sites, log)
			case <-time.After(d.Delay):
			}
		}

		links, err := d.search(ctx, q)
		d.Metrics.Query(d.Searcher.Name(), err)
		if err != nil {
			log.Warn("search query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		log.Debug("search query done", zap.String("query", q), zap.Int("results", len(links)))
		raw = append(raw, links...)
	}
	return d.finish(raw, subj, sites, log)
}

func (d *Discoverer) search(ctx context.Context, q string) ([]string, error) {
	if d.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.CallTimeout)
		defer cancel()
	}
	start := time.Now()
	defer d.Metrics.Observe("search", start)
	return d.Searcher.Search(ctx, q)
}

func (d *Discoverer) finish(raw []string, subj *types.Subject, sites []string, log *zap.Logger) []string {
	rules := d.Rules
	if rules == nil {
		rules = DefaultRules(d.TrustedAggregators)
	}
	target := NewTarget(subj, sites)

	seen := make(map[string]bool)
	var kept []string
	for _, link := range FilterLinks(raw) {
		key := strings.ToLower(link)
		if seen[key] {
			continue
		}
		seen[key] = true
		ok, rule := Relevant(link, target, rules)
		if !ok {
			continue
		}
		log.Debug("link kept", zap.String("link", link), zap.String("rule", rule))
		kept = append(kept, link)
	}

	sort.Slice(kept, func(i, j int) bool {
		return strings.ToLower(kept[i]) < strings.ToLower(kept[j])
	})
	d.Metrics.Links(len(kept))
	log.Info("links found", zap.Int("raw", len(raw)), zap.Int("kept", len(kept)))
	return kept
}

func (d *Discoverer) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
