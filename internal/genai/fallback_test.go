package genai

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubEmbedder struct {
	provider Provider
	model    string
	vec      []float32
	errs     []error
	calls    int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.vec, nil
}

func (s *stubEmbedder) Model() string {
	if s.model != "" {
		return s.model
	}
	return "stub-model"
}
func (s *stubEmbedder) Provider() Provider { return s.provider }

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestFallbackEmbedderPrimarySuccess(t *testing.T) {
	primary := &stubEmbedder{provider: ProviderOpenAI, vec: []float32{1, 2}}
	fallback := &stubEmbedder{provider: ProviderGemini, vec: []float32{9}}
	f := NewFallbackEmbedder(primary, fallback, fastRetry(), nil)

	vec, err := f.Embed(context.Background(), "안녕")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || fallback.calls != 0 {
		t.Errorf("vec=%v fallback calls=%d", vec, fallback.calls)
	}
}

func TestFallbackEmbedderRetriesTransient(t *testing.T) {
	primary := &stubEmbedder{
		provider: ProviderOpenAI,
		vec:      []float32{1},
		errs:     []error{errors.New("503 service unavailable")},
	}
	f := NewFallbackEmbedder(primary, nil, fastRetry(), nil)

	if _, err := f.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed after retry: %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("primary calls = %d, want 2", primary.calls)
	}
}

func TestFallbackEmbedderSwitchesProvider(t *testing.T) {
	primary := &stubEmbedder{
		provider: ProviderOpenAI,
		errs:     []error{errors.New("500"), errors.New("500")},
	}
	fallback := &stubEmbedder{provider: ProviderGemini, vec: []float32{7}}
	f := NewFallbackEmbedder(primary, fallback, fastRetry(), nil)

	vec, err := f.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("Embed via fallback: %v", err)
	}
	if len(vec) != 1 || vec[0] != 7 {
		t.Errorf("vec = %v", vec)
	}
	if primary.calls != 2 || fallback.calls != 1 {
		t.Errorf("calls primary=%d fallback=%d", primary.calls, fallback.calls)
	}
}

func TestFallbackEmbedderSourcedModel(t *testing.T) {
	primary := &stubEmbedder{
		provider: ProviderOpenAI,
		model:    "text-embedding-3-small",
		vec:      []float32{1, 2},
		errs:     []error{errors.New("insufficient_quota")},
	}
	fallback := &stubEmbedder{provider: ProviderGemini, model: "gemini-embedding-001", vec: []float32{9, 9, 9}}
	f := NewFallbackEmbedder(primary, fallback, fastRetry(), nil)

	// While the primary is down, the vector comes from the fallback model.
	_, model, err := f.EmbedSourced(context.Background(), "x")
	if err != nil {
		t.Fatalf("EmbedSourced: %v", err)
	}
	if model != "gemini-embedding-001" {
		t.Errorf("model = %q, want fallback model", model)
	}

	// Once the primary recovers, its own model is reported again.
	_, model, err = f.EmbedSourced(context.Background(), "x")
	if err != nil {
		t.Fatalf("EmbedSourced after recovery: %v", err)
	}
	if model != "text-embedding-3-small" {
		t.Errorf("model = %q, want primary model", model)
	}
}

func TestFallbackEmbedderPermanentErrorNoFallback(t *testing.T) {
	primary := &stubEmbedder{
		provider: ProviderOpenAI,
		errs:     []error{errors.New("401 unauthorized")},
	}
	fallback := &stubEmbedder{provider: ProviderGemini, vec: []float32{7}}
	f := NewFallbackEmbedder(primary, fallback, fastRetry(), nil)

	if _, err := f.Embed(context.Background(), "x"); err == nil {
		t.Fatal("permanent error should propagate")
	}
	if primary.calls != 1 || fallback.calls != 0 {
		t.Errorf("calls primary=%d fallback=%d", primary.calls, fallback.calls)
	}
}

type stubGenerator struct {
	provider Provider
	out      string
	err      error
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return s.out, s.err
}
func (s *stubGenerator) Provider() Provider { return s.provider }

func TestFallbackGenerator(t *testing.T) {
	primary := &stubGenerator{provider: ProviderOpenAI, err: errors.New("502 bad gateway")}
	fallback := &stubGenerator{provider: ProviderGemini, out: "자료에 없음"}
	f := NewFallbackGenerator(primary, fallback, fastRetry(), nil)

	out, err := f.Generate(context.Background(), "sys", "질문")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "자료에 없음" {
		t.Errorf("out = %q", out)
	}
}
