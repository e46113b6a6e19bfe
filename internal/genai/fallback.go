package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/se-wein/kumrec-go/internal/metrics"
)

// FallbackEmbedder wraps a primary and fallback Embedder. A call is retried
// on the primary with backoff, then handed to the fallback provider when the
// error is recoverable.
type FallbackEmbedder struct {
	primary     Embedder
	fallback    Embedder
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

var _ SourcedEmbedder = (*FallbackEmbedder)(nil)

// NewFallbackEmbedder creates a fallback-enabled embedder. fallback and m
// may be nil.
func NewFallbackEmbedder(primary, fallback Embedder, cfg RetryConfig, m *metrics.Metrics) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:     primary,
		fallback:    fallback,
		retryConfig: cfg,
		metrics:     m,
	}
}

// Embed tries the primary embedder with retry, then the fallback.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, _, err := f.EmbedSourced(ctx, text)
	return vec, err
}

// EmbedSourced tries the primary embedder with retry, then the fallback, and
// reports which model produced the vector. The two providers embed into
// different spaces, so a fallback-produced vector must never be filed under
// the primary model.
func (f *FallbackEmbedder) EmbedSourced(ctx context.Context, text string) ([]float32, string, error) {
	if f == nil || f.primary == nil {
		return nil, "", errors.New("embedder not configured")
	}

	start := time.Now()
	provider := f.primary.Provider()

	vec, err := embedWithRetry(ctx, f.primary, f.retryConfig, text)
	if err == nil {
		f.record(provider, "embed", "success", start)
		return vec, f.primary.Model(), nil
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary embedder failed",
		"provider", provider,
		"error", err,
		"duration", time.Since(start))

	if action == ActionFail || f.fallback == nil {
		f.record(provider, "embed", "error", start)
		return nil, "", err
	}

	fallbackProvider := f.fallback.Provider()
	slog.InfoContext(ctx, "falling back to secondary embedder",
		"from", provider, "to", fallbackProvider)

	vec, err = embedWithRetry(ctx, f.fallback, f.retryConfig, text)
	if err == nil {
		f.record(fallbackProvider, "embed", "success", start)
		f.recordFallback(provider, fallbackProvider, "embed")
		return vec, f.fallback.Model(), nil
	}

	f.record(fallbackProvider, "embed", "error", start)
	return nil, "", fmt.Errorf("all embedding providers failed: %w", err)
}

// Model returns the primary embedder's model identifier. Callers that cache
// by model must use EmbedSourced to learn which model actually produced a
// given vector.
func (f *FallbackEmbedder) Model() string {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Model()
}

// Provider returns the primary provider type.
func (f *FallbackEmbedder) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

func (f *FallbackEmbedder) record(p Provider, op, status string, start time.Time) {
	if f.metrics == nil {
		return
	}
	f.metrics.CollaboratorTotal.WithLabelValues(string(p), op, status).Inc()
	f.metrics.CollaboratorDuration.WithLabelValues(string(p), op).Observe(time.Since(start).Seconds())
}

func (f *FallbackEmbedder) recordFallback(from, to Provider, op string) {
	if f.metrics == nil {
		return
	}
	f.metrics.CollaboratorFallbackTotal.WithLabelValues(string(from), string(to), op).Inc()
}

func embedWithRetry(ctx context.Context, e Embedder, cfg RetryConfig, text string) ([]float32, error) {
	var lastErr error

	for attempt := range cfg.MaxAttempts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		vec, err := e.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry {
			return nil, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return nil, fmt.Errorf("timeout during retry: %w", lastErr)
		}

		slog.DebugContext(ctx, "retrying embed",
			"provider", e.Provider(), "attempt", attempt+1, "backoff", backoff, "error", err)

		if err := Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// FallbackGenerator wraps a primary and fallback Generator.
type FallbackGenerator struct {
	primary     Generator
	fallback    Generator
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackGenerator creates a fallback-enabled generator.
func NewFallbackGenerator(primary, fallback Generator, cfg RetryConfig, m *metrics.Metrics) *FallbackGenerator {
	return &FallbackGenerator{
		primary:     primary,
		fallback:    fallback,
		retryConfig: cfg,
		metrics:     m,
	}
}

// Generate tries the primary generator with retry, then the fallback.
func (f *FallbackGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("generator not configured")
	}

	start := time.Now()
	provider := f.primary.Provider()

	out, err := generateWithRetry(ctx, f.primary, f.retryConfig, system, prompt)
	if err == nil {
		f.record(provider, "success", start)
		return out, nil
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary generator failed",
		"provider", provider,
		"error", err,
		"duration", time.Since(start))

	if action == ActionFail || f.fallback == nil {
		f.record(provider, "error", start)
		return "", err
	}

	fallbackProvider := f.fallback.Provider()
	slog.InfoContext(ctx, "falling back to secondary generator",
		"from", provider, "to", fallbackProvider)

	out, err = generateWithRetry(ctx, f.fallback, f.retryConfig, system, prompt)
	if err == nil {
		f.record(fallbackProvider, "success", start)
		if f.metrics != nil {
			f.metrics.CollaboratorFallbackTotal.WithLabelValues(
				string(provider), string(fallbackProvider), "generate").Inc()
		}
		return out, nil
	}

	f.record(fallbackProvider, "error", start)
	return "", fmt.Errorf("all generation providers failed: %w", err)
}

// Provider returns the primary provider type.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

func (f *FallbackGenerator) record(p Provider, status string, start time.Time) {
	if f.metrics == nil {
		return
	}
	f.metrics.CollaboratorTotal.WithLabelValues(string(p), "generate", status).Inc()
	f.metrics.CollaboratorDuration.WithLabelValues(string(p), "generate").Observe(time.Since(start).Seconds())
}

func generateWithRetry(ctx context.Context, g Generator, cfg RetryConfig, system, prompt string) (string, error) {
	var lastErr error

	for attempt := range cfg.MaxAttempts {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		out, err := g.Generate(ctx, system, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry {
			return "", err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return "", fmt.Errorf("timeout during retry: %w", lastErr)
		}

		if err := Sleep(ctx, backoff); err != nil {
			return "", err
		}
	}
	return "", lastErr
}
