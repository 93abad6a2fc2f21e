// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/dossier/internal/httputil"
)

// serperAPIBase is the Serper search endpoint. Declared as a var so tests
// can substitute an httptest server.
var serperAPIBase = "https://google.serper.dev/search"

const defaultResultsPerQuery = 10

// SerperSearcher queries the Serper JSON API. Its organic result links are
// already clean target URLs.
type SerperSearcher struct {
	Client          *http.Client
	APIKey          string
	ResultsPerQuery int
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"organic"`
}

// Name returns the searcher identifier.
func (s *SerperSearcher) Name() string { return "serper" }

// Search runs one query.
func (s *SerperSearcher) Search(ctx context.Context, query string) ([]string, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("serper API key is not set")
	}
	num := s.ResultsPerQuery
	if num <= 0 {
		num = defaultResultsPerQuery
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.APIKey)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper returned HTTP %d", resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding serper response: %w", err)
	}

	var links []string
	for _, o := range sr.Organic {
		if o.Link != "" {
			links = append(links, o.Link)
		}
	}
	return links, nil
}
