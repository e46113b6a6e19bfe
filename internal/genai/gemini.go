package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	// GeminiEmbeddingModel is the model used for generating embeddings
	GeminiEmbeddingModel = "gemini-embedding-001"

	// GeminiGenerationModel is the default model for grounded answers
	GeminiGenerationModel = "gemini-2.5-flash-lite"

	// geminiAPIBaseURL is the base URL for the Gemini REST API
	geminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// geminiCollaborator implements Embedder and Generator on Gemini.
// Embeddings go through the REST API directly; generation uses the SDK.
type geminiCollaborator struct {
	apiKey          string
	client          *genai.Client
	httpClient      *http.Client
	generationModel string
	timeout         time.Duration
}

// NewGemini creates a Gemini-backed collaborator. Returns nil when apiKey is
// empty (provider not configured).
func NewGemini(ctx context.Context, apiKey, generationModel string, timeout time.Duration) (*geminiCollaborator, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if generationModel == "" {
		generationModel = GeminiGenerationModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiCollaborator{
		apiKey:          apiKey,
		client:          client,
		httpClient:      &http.Client{Timeout: timeout},
		generationModel: generationModel,
		timeout:         timeout,
	}, nil
}

// embeddingRequest represents the request body for the Gemini embedding API
type embeddingRequest struct {
	Model   string           `json:"model"`
	Content embeddingContent `json:"content"`
}

type embeddingContent struct {
	Parts []embeddingPart `json:"parts"`
}

type embeddingPart struct {
	Text string `json:"text"`
}

// embeddingResponse represents the response from the Gemini embedding API
type embeddingResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Embed generates an embedding vector for the given text.
func (c *geminiCollaborator) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text cannot be embedded")
	}

	url := fmt.Sprintf("%s/%s:embedContent?key=%s", geminiAPIBaseURL, GeminiEmbeddingModel, c.apiKey)

	reqBody := embeddingRequest{
		Model: fmt.Sprintf("models/%s", GeminiEmbeddingModel),
		Content: embeddingContent{
			Parts: []embeddingPart{{Text: text}},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Err:        fmt.Errorf("embedding request rejected"),
			StatusCode: resp.StatusCode,
			Provider:   ProviderGemini,
		}
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if embeddingResp.Error != nil {
		return nil, &APIError{
			Err: fmt.Errorf("API error %s: %s",
				embeddingResp.Error.Status, embeddingResp.Error.Message),
			StatusCode: embeddingResp.Error.Code,
			Provider:   ProviderGemini,
		}
	}
	if len(embeddingResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return embeddingResp.Embedding.Values, nil
}

// Generate produces a short completion for the given system and user prompts.
func (c *geminiCollaborator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](generationTemperature),
		MaxOutputTokens: generationMaxTokens,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.generationModel, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty completion returned")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// Model returns the embedding model identifier.
func (c *geminiCollaborator) Model() string {
	return GeminiEmbeddingModel
}

// Provider returns ProviderGemini.
func (c *geminiCollaborator) Provider() Provider {
	return ProviderGemini
}
