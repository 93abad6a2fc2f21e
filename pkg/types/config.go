package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. It is
	// chosen once per run and passed to every stage that needs it.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearcherKind selects the search backend.
type SearcherKind string

const (
	SearcherGoogle SearcherKind = "google"
	SearcherSerper SearcherKind = "serper"
)

// SearchConfig holds settings for link discovery.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Searcher selects the backend: google (HTML results page) or serper (API).
	Searcher SearcherKind `json:"searcher" yaml:"searcher"`

	// SerperAPIKey authenticates the serper backend.
	SerperAPIKey string `json:"serper_api_key,omitempty" yaml:"serper_api_key,omitempty"`

	// ResultsPerQuery caps results requested per query (serper only, default 10).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query"`

	// QueryDelay is the pause between consecutive queries (default 1s).
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`

	// TrustedAggregators are domains accepted on a first+last name match alone.
	TrustedAggregators []string `json:"trusted_aggregators" yaml:"trusted_aggregators"`
}

// RendererKind selects how page HTML is obtained.
type RendererKind string

const (
	RendererHTTP    RendererKind = "http"
	RendererBrowser RendererKind = "browser"
)

// FetchConfig holds settings for the content fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Renderer selects plain HTTP or a headless browser.
	Renderer RendererKind `json:"renderer" yaml:"renderer"`

	// MaxChars truncates page text sent to the extraction service (0 = no limit).
	MaxChars int `json:"max_chars" yaml:"max_chars"`

	// Article keeps only the page's main content (readability) instead of
	// all visible text.
	Article bool `json:"article" yaml:"article"`
}

// ProviderKind selects the extraction service API.
type ProviderKind string

const (
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
)

// AIConfig holds settings for the extraction service.
type AIConfig struct {
	// Provider selects the API: openai (or any compatible server) or gemini.
	Provider ProviderKind `json:"provider" yaml:"provider"`

	// Model is the chat model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint (OpenAI-compatible servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// JSONMode asks the service for a JSON object response.
	JSONMode bool `json:"json_mode" yaml:"json_mode"`
}

// DedupPolicyKind selects how the merger decides a value is already present.
type DedupPolicyKind string

const (
	// DedupContainment skips values that are a case-insensitive substring
	// of the accumulated value.
	DedupContainment DedupPolicyKind = "containment"

	// DedupLines skips values whose trimmed lines all already appear as
	// accumulated lines.
	DedupLines DedupPolicyKind = "lines"
)

// PipelineConfig groups settings for one run.
type PipelineConfig struct {
	Search     SearchConfig    `json:"search" yaml:"search"`
	Fetch      FetchConfig     `json:"fetch" yaml:"fetch"`
	Extraction AIConfig        `json:"extraction" yaml:"extraction"`
	Dedup      DedupPolicyKind `json:"dedup" yaml:"dedup"`

	// CallTimeout bounds each external call (search, fetch, extraction).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}
