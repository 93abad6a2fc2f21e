// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/html"

	"github.com/pdiddy/dossier/internal/httputil"
)

// googleSearchBase is the results page endpoint. Declared as a var so tests
// can substitute an httptest server.
var googleSearchBase = "https://www.google.com/search"

// GoogleSearcher fetches the provider's HTML results page and returns every
// anchor href on it. The hrefs are raw: filtering and unwrapping happen in
// the Discoverer.
type GoogleSearcher struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the searcher identifier.
func (g *GoogleSearcher) Name() string { return "google" }

// Search runs one query.
func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]string, error) {
	reqURL := googleSearchBase + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}
	return hrefs(doc), nil
}

// hrefs returns the href of every <a> element under n, in document order.
func hrefs(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					out = append(out, a.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
