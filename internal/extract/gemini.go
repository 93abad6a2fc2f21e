// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/pdiddy/dossier/pkg/types"
)

// DefaultGeminiModel is used for the gemini provider when the configuration
// names no model, or names the OpenAI default.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiCompleter calls the Gemini generateContent API. The instruction is
// sent as the system instruction and the source text as the user turn.
type GeminiCompleter struct {
	client   *genai.Client
	model    string
	jsonMode bool
}

// NewGeminiCompleter builds a completer from cfg. httpClient may be nil.
// cfg.BaseURL, when set, replaces the API endpoint.
func NewGeminiCompleter(ctx context.Context, cfg types.AIConfig, httpClient *http.Client) (*GeminiCompleter, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" || model == DefaultModel {
		model = DefaultGeminiModel
	}
	return &GeminiCompleter{client: client, model: model, jsonMode: cfg.JSONMode}, nil
}

// Complete sends one generateContent request and returns the reply text.
func (g *GeminiCompleter) Complete(ctx context.Context, instruction, content string) (string, error) {
	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
	}
	if g.jsonMode {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(content), gc)
	if err != nil {
		if svcErr := geminiServiceError(err); svcErr != nil {
			return "", svcErr
		}
		return "", fmt.Errorf("calling generateContent: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ServiceError{Message: "no candidates in response"}
	}
	return resp.Text(), nil
}

func geminiServiceError(err error) *ServiceError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &ServiceError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return nil
}
