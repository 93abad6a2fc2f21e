// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/dossier/pkg/types"
)

// DefaultModel is used when the configuration names no model.
const DefaultModel = "gpt-4o-mini"

// openAIBaseURL is the API endpoint. Package-level var for test substitution;
// AIConfig.BaseURL takes precedence.
var openAIBaseURL = "https://api.openai.com/v1/"

// OpenAICompleter calls the OpenAI chat completions API. The SDK's own
// retries are disabled; each Complete is exactly one request.
type OpenAICompleter struct {
	client   openai.Client
	model    string
	jsonMode bool
}

// NewOpenAICompleter builds a completer from cfg. httpClient may be nil.
func NewOpenAICompleter(cfg types.AIConfig, httpClient *http.Client) *OpenAICompleter {
	baseURL := openAIBaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICompleter{
		client:   openai.NewClient(opts...),
		model:    model,
		jsonMode: cfg.JSONMode,
	}
}

// Complete sends one chat completion request and returns the first choice.
func (o *OpenAICompleter) Complete(ctx context.Context, instruction, content string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(content),
		},
		Model: openai.ChatModel(o.model),
	}
	if o.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &ServiceError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}
