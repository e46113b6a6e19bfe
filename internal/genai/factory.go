package genai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/se-wein/kumrec-go/internal/metrics"
)

// Build constructs the embedder and generator provider chains from config.
// The primary provider is tried first; the other configured provider becomes
// the fallback. At least one provider must carry an API key.
func Build(ctx context.Context, cfg Config, m *metrics.Metrics) (Embedder, Generator, error) {
	if cfg.OpenAIAPIKey == "" && cfg.GeminiAPIKey == "" {
		return nil, nil, errors.New("no collaborator provider configured")
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	var openaiC *openaiCollaborator
	if cfg.OpenAIAPIKey != "" {
		openaiC = NewOpenAI(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.GenerationModel, cfg.Timeout)
	}

	var geminiC *geminiCollaborator
	if cfg.GeminiAPIKey != "" {
		var err error
		// The generation model name is provider-specific; Gemini uses its
		// own default rather than the OpenAI model from config.
		geminiC, err = NewGemini(ctx, cfg.GeminiAPIKey, "", cfg.Timeout)
		if err != nil {
			if openaiC == nil {
				return nil, nil, err
			}
			slog.WarnContext(ctx, "gemini provider unavailable, continuing without fallback", "error", err)
		}
	}

	var primaryE, fallbackE Embedder
	var primaryG, fallbackG Generator

	assign := func(p Provider) {
		switch p {
		case ProviderOpenAI:
			if openaiC == nil {
				return
			}
			if primaryE == nil {
				primaryE, primaryG = openaiC, openaiC
			} else {
				fallbackE, fallbackG = openaiC, openaiC
			}
		case ProviderGemini:
			if geminiC == nil {
				return
			}
			if primaryE == nil {
				primaryE, primaryG = geminiC, geminiC
			} else {
				fallbackE, fallbackG = geminiC, geminiC
			}
		}
	}

	assign(cfg.Primary)
	for _, p := range []Provider{ProviderOpenAI, ProviderGemini} {
		if p != cfg.Primary {
			assign(p)
		}
	}

	if primaryE == nil {
		return nil, nil, errors.New("no collaborator provider could be initialized")
	}

	slog.InfoContext(ctx, "collaborator providers configured",
		"primary", primaryE.Provider(),
		"fallback", fallbackE != nil)

	embedder := NewFallbackEmbedder(primaryE, fallbackE, cfg.Retry, m)
	generator := NewFallbackGenerator(primaryG, fallbackG, cfg.Retry, m)
	return embedder, generator, nil
}
