// Package llm talks to a hosted LLM provider for the goal-chat feature. The
// provider is selected by name in config; both clients speak the provider's
// plain HTTP API and implement the same Completer interface.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Completer produces one assistant reply for a fully assembled prompt.
// Conversation history is folded into the prompt by the caller, so the
// interface stays a single call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and authenticates a provider. Base URLs are overridable for
// tests and proxies; empty means the provider's public endpoint.
type Config struct {
	Provider         string // "anthropic" or "openai"
	Model            string
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	AnthropicBaseURL string
	OpenAIBaseURL    string
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"

	maxRetries   = 3
	retryDelay   = time.Second
	maxTokens    = 1024
	requestLimit = 60 * time.Second
)

// New builds a Completer for the configured provider, wrapped in the shared
// retry policy.
func New(cfg Config, logger *zap.Logger) (Completer, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	hc := &http.Client{Timeout: requestLimit}

	var inner Completer
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("llm provider anthropic selected but no API key configured")
		}
		inner = &anthropicClient{
			baseURL: defaultStr(cfg.AnthropicBaseURL, "https://api.anthropic.com/v1"),
			apiKey:  cfg.AnthropicAPIKey,
			model:   model,
			hc:      hc,
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("llm provider openai selected but no API key configured")
		}
		inner = &openaiClient{
			baseURL: defaultStr(cfg.OpenAIBaseURL, "https://api.openai.com/v1"),
			apiKey:  cfg.OpenAIAPIKey,
			model:   model,
			hc:      hc,
		}
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}

	return &retrier{inner: inner, log: logger}, nil
}

// Disabled returns a Completer that always fails with an Upstream error.
// Used when no API key is configured so the rest of the app still runs.
func Disabled() Completer {
	return disabledCompleter{}
}

type disabledCompleter struct{}

func (disabledCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "", apperr.Upstream(nil, "assistant is not configured")
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// retrier retries transient provider failures with a fixed delay between
// attempts. All attempts exhausted surfaces as an Upstream error.
type retrier struct {
	inner Completer
	log   *zap.Logger
}

func (r *retrier) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		reply, err := r.inner.Complete(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		r.log.Warn("llm request failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err))

		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return "", apperr.Upstream(lastErr, "assistant is unavailable right now")
}
