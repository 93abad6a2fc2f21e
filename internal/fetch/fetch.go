// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves source pages and reduces them to the text sent for
// extraction and the anchor texts scanned for email addresses.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pdiddy/dossier/internal/metrics"
)

// Renderer returns the HTML of a page. HTTPRenderer fetches it directly;
// BrowserRenderer loads it in headless Chrome so scripts run first.
type Renderer interface {
	HTML(ctx context.Context, pageURL string) (string, error)
}

// Page is the reduced content of one source.
type Page struct {
	URL     string
	Text    string
	Anchors []string
}

// Fetcher renders pages and reduces them.
type Fetcher struct {
	Renderer Renderer

	// MaxChars truncates Page.Text. Zero means no limit.
	MaxChars int

	// Article keeps only the main content found by readability, falling
	// back to all visible text when readability finds nothing.
	Article bool

	// CallTimeout bounds each render. Zero means no limit.
	CallTimeout time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Fetch renders pageURL once and returns its text and anchors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	if f.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := f.Renderer.HTML(ctx, pageURL)
	f.Metrics.Observe("fetch", start)
	f.Metrics.Fetch(err)
	if err != nil {
		return Page{URL: pageURL}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Page{URL: pageURL}, fmt.Errorf("parsing %s: %w", pageURL, err)
	}

	text := ""
	if f.Article {
		text = articleText(raw, pageURL)
	}
	if text == "" {
		text = VisibleText(doc)
	}
	return Page{
		URL:     pageURL,
		Text:    truncate(Clean(text), f.MaxChars),
		Anchors: Anchors(doc),
	}, nil
}

// Text returns the page text, or "" when the page cannot be fetched. The
// failure is logged.
func (f *Fetcher) Text(ctx context.Context, pageURL string) string {
	p, err := f.Fetch(ctx, pageURL)
	if err != nil {
		f.logger().Warn("fetch failed", zap.String("url", pageURL), zap.Error(err))
	}
	return p.Text
}

// Anchors returns the page's anchor texts, or nil when the page cannot be
// fetched. The failure is logged.
func (f *Fetcher) Anchors(ctx context.Context, pageURL string) []string {
	p, err := f.Fetch(ctx, pageURL)
	if err != nil {
		f.logger().Warn("fetch failed", zap.String("url", pageURL), zap.Error(err))
	}
	return p.Anchors
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func articleText(raw, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(raw), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// Clean removes double quotes and non-breaking spaces and collapses runs of
// whitespace to single spaces.
func Clean(s string) string {
	s = strings.NewReplacer(`"`, "", "\u00a0", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
