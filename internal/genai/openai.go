package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Generation defaults tuned for short grounded answers.
const (
	generationTemperature = 0.0
	generationMaxTokens   = 160
)

// openaiCollaborator implements Embedder and Generator on the OpenAI API.
type openaiCollaborator struct {
	client          openai.Client
	embeddingModel  string
	generationModel string
	timeout         time.Duration
}

// NewOpenAI creates an OpenAI-backed collaborator. Returns nil when apiKey
// is empty (provider not configured).
func NewOpenAI(apiKey, embeddingModel, generationModel string, timeout time.Duration) *openaiCollaborator {
	if apiKey == "" {
		return nil
	}
	return &openaiCollaborator{
		client:          openai.NewClient(option.WithAPIKey(apiKey)),
		embeddingModel:  embeddingModel,
		generationModel: generationModel,
		timeout:         timeout,
	}
}

// Embed returns the embedding vector for text.
func (c *openaiCollaborator) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text cannot be embedded")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(res.Data) == 0 || len(res.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	vec := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Generate produces a short completion for the given system and user prompts.
func (c *openaiCollaborator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.generationModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(generationMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the embedding model identifier.
func (c *openaiCollaborator) Model() string {
	return c.embeddingModel
}

// Provider returns ProviderOpenAI.
func (c *openaiCollaborator) Provider() Provider {
	return ProviderOpenAI
}
