// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dossier/internal/discover"
	"github.com/pdiddy/dossier/internal/extract"
	"github.com/pdiddy/dossier/internal/fetch"
	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/internal/httputil"
	"github.com/pdiddy/dossier/internal/input"
	"github.com/pdiddy/dossier/internal/merge"
	"github.com/pdiddy/dossier/internal/metrics"
	"github.com/pdiddy/dossier/internal/output"
	"github.com/pdiddy/dossier/internal/pipeline"
	"github.com/pdiddy/dossier/internal/secrets"
	"github.com/pdiddy/dossier/pkg/types"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultCallTimeout     = 90 * time.Second
	defaultQueryDelay      = 1 * time.Second
	defaultResultsPerQuery = 10
	defaultFormatDir       = "formats"
)

var runCmd = &cobra.Command{
	Use:   "run <input.csv|input.xlsx>",
	Short: "Build profiles for every subject in an input list",
	Long: `Run reads subjects from a CSV or XLSX file whose header includes Name
and Institution, then for each subject searches for sources, extracts the
format's columns from every source, merges the results, and saves the row.

Rows are appended to the output workbook and the record store as each
subject finishes, so an interrupted run keeps everything completed so far.
Search, fetch, and extraction failures are logged and skipped; a failure to
save a row stops the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringP("output", "o", "", "output workbook (default <input>_dossier.xlsx)")
	f.String("format", format.BaseName, `format name in --format-dir, a format file path, or "base"`)
	f.String("searcher", string(types.SearcherGoogle), "search backend: google or serper")
	f.Int("results-per-query", defaultResultsPerQuery, "results requested per query (serper)")
	f.Duration("query-delay", defaultQueryDelay, "pause between queries for one subject")
	f.StringSlice("trusted-aggregator", nil, "domain accepted on a full-name match alone (repeatable)")
	f.String("renderer", string(types.RendererHTTP), "page renderer: http or browser")
	f.Int("max-chars", 0, "truncate page text sent for extraction (0 = no limit)")
	f.Bool("article", false, "send only the page's main content (readability)")
	f.String("provider", string(types.ProviderOpenAI), "extraction API: openai or gemini")
	f.String("model", extract.DefaultModel, "chat model for extraction")
	f.String("base-url", "", "OpenAI-compatible API base URL")
	f.Bool("json-mode", true, "request JSON object responses")
	f.String("dedup", string(types.DedupContainment), "merge dedup policy: containment or lines")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.Duration("call-timeout", defaultCallTimeout, "bound on each search, fetch, or extraction call")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this path")
	f.String("summary-file", "", "write the run summary as YAML to this path")

	for key, flag := range map[string]string{
		"output":                     "output",
		"format":                     "format",
		"search.searcher":            "searcher",
		"search.results_per_query":   "results-per-query",
		"search.query_delay":         "query-delay",
		"search.trusted_aggregators": "trusted-aggregator",
		"fetch.renderer":             "renderer",
		"fetch.max_chars":            "max-chars",
		"fetch.article":              "article",
		"extraction.provider":        "provider",
		"extraction.model":           "model",
		"extraction.base_url":        "base-url",
		"extraction.json_mode":       "json-mode",
		"dedup":                      "dedup",
		"timeout":                    "timeout",
		"call_timeout":               "call-timeout",
		"metrics_file":               "metrics-file",
		"summary_file":               "summary-file",
	} {
		bindFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
}

// runReport is the YAML written by --summary-file.
type runReport struct {
	RunID            string `yaml:"run_id"`
	Format           string `yaml:"format"`
	Input            string `yaml:"input"`
	Output           string `yaml:"output"`
	Extracted        int    `yaml:"extracted"`
	LinksOnly        int    `yaml:"links_only"`
	NoLinks          int    `yaml:"no_links"`
	FetchFailures    int    `yaml:"fetch_failures"`
	ExtractionErrors int    `yaml:"extraction_errors"`
	Elapsed          string `yaml:"elapsed"`
	Error            string `yaml:"error,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	inputPath := args[0]
	subjects, err := input.ReadSubjects(inputPath)
	if err != nil {
		return err
	}
	if err := pipeline.Validate(subjects); err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}

	f, err := format.Resolve(viper.GetString("format"), viper.GetString("format_dir"))
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	ua := httputil.PickUserAgent()
	cfg.Search.UserAgent = ua
	cfg.Fetch.UserAgent = ua

	completer, err := newCompleter(ctx, cfg.Extraction, f.SkipExtraction())
	if err != nil {
		return err
	}

	client := httputil.NewClient(cfg.Search.Timeout, ua)
	defer client.CloseIdleConnections()

	searcher, err := newSearcher(cfg.Search, client)
	if err != nil {
		return err
	}
	renderer, closeRenderer, err := newRenderer(ctx, cfg.Fetch, client)
	if err != nil {
		return err
	}
	defer closeRenderer()

	outPath := outputPath(viper.GetString("output"), inputPath)
	wb, err := output.NewWorkbook(outPath, output.Header(f.Columns))
	if err != nil {
		return err
	}

	store, err := output.OpenStore(storePath())
	if err != nil {
		return err
	}
	defer store.Close()
	run, err := store.StartRun(ctx, f)
	if err != nil {
		return err
	}

	rec := metrics.New()
	p := &pipeline.Pipeline{
		Discoverer: &discover.Discoverer{
			Searcher:           searcher,
			TrustedAggregators: cfg.Search.TrustedAggregators,
			Delay:              cfg.Search.QueryDelay,
			CallTimeout:        cfg.CallTimeout,
			Logger:             logger.Named("discover"),
			Metrics:            rec,
		},
		Fetcher: &fetch.Fetcher{
			Renderer:    renderer,
			MaxChars:    cfg.Fetch.MaxChars,
			Article:     cfg.Fetch.Article,
			CallTimeout: cfg.CallTimeout,
			Logger:      logger.Named("fetch"),
			Metrics:     rec,
		},
		Extractor: &extract.Client{
			Completer:   completer,
			CallTimeout: cfg.CallTimeout,
			Logger:      logger.Named("extract"),
			Metrics:     rec,
		},
		Merger:  merge.Merger{Policy: merge.PolicyFor(cfg.Dedup)},
		Sink:    output.Multi{wb, run},
		Logger:  logger.Named("pipeline"),
		Metrics: rec,
		Out:     os.Stdout,
	}

	fmt.Fprintf(os.Stdout, "Run %s: %d subject(s), format %q, searcher %s\n", run.ID(), len(subjects), f.Name, searcher.Name())
	fmt.Fprintf(os.Stdout, "Writing %s\n\n", outPath)

	summary, runErr := p.Run(ctx, subjects, f)

	if path := viper.GetString("metrics_file"); path != "" {
		if err := rec.WriteTextfile(path); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}
	if path := viper.GetString("summary_file"); path != "" {
		report := runReport{
			RunID:            run.ID(),
			Format:           f.Name,
			Input:            inputPath,
			Output:           outPath,
			Extracted:        summary.Extracted,
			LinksOnly:        summary.LinksOnly,
			NoLinks:          summary.NoLinks,
			FetchFailures:    summary.FetchFailures,
			ExtractionErrors: summary.ExtractionErrors,
			Elapsed:          summary.Elapsed.Round(time.Millisecond).String(),
		}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		if err := writeReport(path, report); err != nil {
			logger.Warn("summary not written", zap.Error(err))
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintf(os.Stderr, "interrupted: %d subject(s) saved to %s\n", summary.Total(), outPath)
		}
		return runErr
	}
	if summary.HasFailures() {
		fmt.Fprintf(os.Stderr, "%d fetch failure(s), %d extraction error(s); see the error column\n",
			summary.FetchFailures, summary.ExtractionErrors)
	}
	return nil
}

// pipelineConfig reads run settings from flags, config file, and
// environment, in that order of precedence.
func pipelineConfig() types.PipelineConfig {
	timeout := viper.GetDuration("timeout")
	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig:         types.HTTPConfig{Timeout: timeout},
			Searcher:           types.SearcherKind(viper.GetString("search.searcher")),
			SerperAPIKey:       secretDefault(secrets.SerperKey, viper.GetString("search.serper_api_key")),
			ResultsPerQuery:    viper.GetInt("search.results_per_query"),
			QueryDelay:         viper.GetDuration("search.query_delay"),
			TrustedAggregators: viper.GetStringSlice("search.trusted_aggregators"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: timeout},
			Renderer:   types.RendererKind(viper.GetString("fetch.renderer")),
			MaxChars:   viper.GetInt("fetch.max_chars"),
			Article:    viper.GetBool("fetch.article"),
		},
		Extraction: aiConfig(),
		Dedup:       types.DedupPolicyKind(viper.GetString("dedup")),
		CallTimeout: viper.GetDuration("call_timeout"),
	}
}

func aiConfig() types.AIConfig {
	provider := types.ProviderKind(viper.GetString("extraction.provider"))
	keyName := secrets.OpenAIKey
	if provider == types.ProviderGemini {
		keyName = secrets.GeminiKey
	}
	return types.AIConfig{
		Provider: provider,
		Model:    viper.GetString("extraction.model"),
		APIKey:   secretDefault(keyName, viper.GetString("extraction.api_key")),
		BaseURL:  viper.GetString("extraction.base_url"),
		JSONMode: viper.GetBool("extraction.json_mode"),
	}
}

// newCompleter returns the extraction backend for cfg, or nil when the
// format skips extraction. A missing key is an error unless a custom base
// URL is set.
func newCompleter(ctx context.Context, cfg types.AIConfig, skip bool) (extract.Completer, error) {
	if skip {
		return nil, nil
	}
	keyName, label := secrets.OpenAIKey, "OpenAI"
	if cfg.Provider == types.ProviderGemini {
		keyName, label = secrets.GeminiKey, "Gemini"
	}
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("no %s API key: add %s/%s or set %s",
			label, viper.GetString("secrets_dir"), keyName, secrets.EnvName(keyName))
	}

	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		return extract.NewOpenAICompleter(cfg, nil), nil
	case types.ProviderGemini:
		return extract.NewGeminiCompleter(ctx, cfg, nil)
	default:
		return nil, fmt.Errorf("unsupported provider %q: use openai or gemini", cfg.Provider)
	}
}

func newSearcher(cfg types.SearchConfig, client *http.Client) (discover.Searcher, error) {
	switch cfg.Searcher {
	case types.SearcherGoogle, "":
		return &discover.GoogleSearcher{Client: client, UserAgent: cfg.UserAgent}, nil
	case types.SearcherSerper:
		if cfg.SerperAPIKey == "" {
			return nil, fmt.Errorf("serper searcher needs an API key: add %s/%s or set %s",
				viper.GetString("secrets_dir"), secrets.SerperKey, secrets.EnvName(secrets.SerperKey))
		}
		return &discover.SerperSearcher{Client: client, APIKey: cfg.SerperAPIKey, ResultsPerQuery: cfg.ResultsPerQuery}, nil
	default:
		return nil, fmt.Errorf("unsupported searcher %q: use google or serper", cfg.Searcher)
	}
}

func newRenderer(ctx context.Context, cfg types.FetchConfig, client *http.Client) (fetch.Renderer, func(), error) {
	switch cfg.Renderer {
	case types.RendererHTTP, "":
		return &fetch.HTTPRenderer{Client: client, UserAgent: cfg.UserAgent}, func() {}, nil
	case types.RendererBrowser:
		b, err := fetch.NewBrowserRenderer(ctx, cfg.UserAgent)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported renderer %q: use http or browser", cfg.Renderer)
	}
}

// outputPath returns the workbook path: the given name with ".xlsx" added
// when missing, or one derived from the input file.
func outputPath(name, inputPath string) string {
	if name == "" {
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		return filepath.Join(filepath.Dir(inputPath), stem+"_dossier.xlsx")
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

func storePath() string {
	if p := viper.GetString("store"); p != "" {
		return p
	}
	return output.DefaultStorePath
}

func writeReport(path string, r runReport) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return nil
}
