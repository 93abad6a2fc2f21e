// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/chromedp/chromedp"

	"github.com/pdiddy/dossier/internal/httputil"
)

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 8 << 20

// HTTPRenderer fetches page HTML with a plain GET.
type HTTPRenderer struct {
	Client    *http.Client
	UserAgent string
}

// HTML returns the body of pageURL. Non-2xx statuses are errors.
func (r *HTTPRenderer) HTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(data), nil
}

// BrowserRenderer loads pages in one headless Chrome instance, a new tab per
// page. Close releases the browser.
type BrowserRenderer struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewBrowserRenderer starts headless Chrome with the given user agent.
func NewBrowserRenderer(ctx context.Context, userAgent string) (*BrowserRenderer, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancelBrowser := chromedp.NewContext(actx)

	// Run with no actions starts the browser so a missing binary fails here.
	if err := chromedp.Run(bctx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting headless browser: %w", err)
	}
	return &BrowserRenderer{browserCtx: bctx, cancelBrowser: cancelBrowser, cancelAlloc: cancelAlloc}, nil
}

// HTML navigates a new tab to pageURL and returns the rendered document.
// Cancelling ctx closes the tab.
func (b *BrowserRenderer) HTML(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithDeadline(tabCtx, deadline)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var doc string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &doc, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", pageURL, err)
	}
	return doc, nil
}

// Close shuts the browser down.
func (b *BrowserRenderer) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}
