// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract sends a source's text to a language-model service with
// an extraction prompt and turns the reply into a PartialRecord.
//
// One call is made per prompt per source and nothing is retried. Every
// outcome is logged; failures become records carrying an error field so the
// merge step can surface them, except service failures, which yield no data.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/dossier/internal/format"
	"github.com/pdiddy/dossier/internal/metrics"
	"github.com/pdiddy/dossier/pkg/types"
)

// Completer abstracts the chat-completion service so tests can supply a
// mock. The instruction is sent as the system message and content as the
// user message; the raw reply text is returned.
type Completer interface {
	Complete(ctx context.Context, instruction, content string) (string, error)
}

// ServiceError is a failure reported by the service itself (an error status
// or a reply with no choices), as opposed to a transport failure.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return "extraction service: " + e.Message
	}
	return fmt.Sprintf("extraction service returned %d: %s", e.StatusCode, e.Message)
}

// ErrNotObject is returned by ParseRecord when the text is not a JSON object.
var ErrNotObject = errors.New("response is not a JSON object")

// Client runs extraction calls.
type Client struct {
	Completer Completer

	// CallTimeout bounds each call. Zero means no limit.
	CallTimeout time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Extract asks the service for the fields named in prompt, using text as the
// source. Placeholders in prompt are replaced with the subject's name and
// institution first.
//
// A service failure returns nil. A transport failure, or a reply that cannot
// be parsed even after dropping its first and last lines, returns an
// ErrorRecord with the reason.
func (c *Client) Extract(ctx context.Context, prompt, text string, subj *types.Subject) types.PartialRecord {
	log := c.logger().With(zap.String("subject", subj.Name()))
	instruction := format.SubstitutePlaceholders(prompt, subj.Name(), subj.Institution())

	if c.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.Completer.Complete(ctx, instruction, text)
	c.Metrics.Observe("extract", start)
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			log.Warn("extraction service failure", zap.Int("status", svcErr.StatusCode), zap.Error(err))
			c.Metrics.Extraction(metrics.OutcomeServiceError)
			return nil
		}
		log.Warn("extraction call failed", zap.Error(err))
		c.Metrics.Extraction(metrics.OutcomeError)
		return types.ErrorRecord(err.Error())
	}

	rec, err := ParseRecord(reply)
	if err == nil {
		log.Debug("extraction parsed", zap.Int("fields", len(rec)))
		c.Metrics.Extraction(metrics.OutcomeOK)
		return rec
	}

	if trimmed, ok := dropOuterLines(reply); ok {
		if rec, rerr := ParseRecord(trimmed); rerr == nil {
			log.Debug("extraction parsed after recovery", zap.Int("fields", len(rec)))
			c.Metrics.Extraction(metrics.OutcomeOK)
			return rec
		}
	}

	log.Warn("extraction reply unparseable", zap.Error(err), zap.Int("reply_len", len(reply)))
	c.Metrics.Extraction(metrics.OutcomeUnparseable)
	return types.ErrorRecord(fmt.Sprintf("unparseable response: %v", err))
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// ParseRecord parses a JSON object into a PartialRecord. Keys are
// lower-cased. Strings stay strings and arrays become lists; numbers and
// booleans become their text, null becomes empty, and nested objects become
// compact JSON text.
func ParseRecord(text string) (types.PartialRecord, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding response: trailing data after JSON value")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	rec := make(types.PartialRecord, len(obj))
	for k, v := range obj {
		if arr, ok := v.([]any); ok {
			items := make([]string, len(arr))
			for i, item := range arr {
				items[i] = scalarText(item)
			}
			rec.Set(k, types.List(items...))
			continue
		}
		rec.Set(k, types.Text(scalarText(v)))
	}
	return rec, nil
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(x); err != nil {
			return fmt.Sprint(x)
		}
		return strings.TrimSpace(buf.String())
	}
}

// dropOuterLines removes the first and last lines of s, which is how
// replies wrapped in a code fence or a sentence of preamble are recovered.
func dropOuterLines(s string) (string, bool) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) < 3 {
		return "", false
	}
	return strings.Join(lines[1:len(lines)-1], "\n"), true
}
