// Package genai integrates the external embedding and text-generation APIs
// (OpenAI and Google Gemini) behind small interfaces with retry and
// cross-provider fallback.
package genai

import (
	"context"
	"time"
)

// Provider identifies an API vendor.
type Provider string

const (
	// ProviderOpenAI uses github.com/openai/openai-go/v3.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini uses the Gemini REST embedding API and
	// google.golang.org/genai for generation.
	ProviderGemini Provider = "gemini"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Embedder produces a dense vector for a piece of text.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model returns the embedding model identifier, used for cache keys.
	Model() string
	// Provider returns the provider type for logs and metrics.
	Provider() Provider
}

// SourcedEmbedder additionally reports which model produced a vector. An
// embedder that can hand a call to a different provider must implement it so
// caches never file a vector under a model that did not produce it.
type SourcedEmbedder interface {
	Embedder
	// EmbedSourced returns the vector and the model that produced it.
	EmbedSourced(ctx context.Context, text string) ([]float32, string, error)
}

// Generator produces a short grounded answer from a system prompt and a
// user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	// Provider returns the provider type for logs and metrics.
	Provider() Provider
}

// RetryConfig defines retry behavior for collaborator API calls.
// Uses Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 3
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// Config holds everything the factory needs to build the provider chain.
type Config struct {
	OpenAIAPIKey string
	GeminiAPIKey string

	// Primary is tried first; the other configured provider becomes fallback.
	Primary Provider

	EmbeddingModel  string
	GenerationModel string

	// Timeout bounds a single API call.
	Timeout time.Duration

	Retry RetryConfig
}
