package genai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorAction
	}{
		{"nil", nil, ActionFail},
		{"cancelled", context.Canceled, ActionFail},
		{"deadline", context.DeadlineExceeded, ActionRetry},
		{"rate limit text", errors.New("429 Too Many Requests"), ActionRetry},
		{"server error", errors.New("503 service unavailable"), ActionRetry},
		{"quota", errors.New("insufficient_quota: billing hard limit reached"), ActionFallback},
		{"auth", errors.New("401 unauthorized: invalid api key"), ActionFail},
		{"bad request", errors.New("400 bad request"), ActionFail},
		{"unknown", errors.New("something odd happened"), ActionRetry},
	}
	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Errorf("%s: ClassifyError = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifyAPIError(t *testing.T) {
	wrapped := fmt.Errorf("embed: %w", &APIError{
		Err:        errors.New("rejected"),
		StatusCode: 429,
		Provider:   ProviderGemini,
	})
	if got := ClassifyError(wrapped); got != ActionRetry {
		t.Errorf("429 APIError action = %v, want retry", got)
	}

	wrapped = fmt.Errorf("embed: %w", &APIError{
		Err:        errors.New("rejected"),
		StatusCode: 403,
		Provider:   ProviderGemini,
	})
	if got := ClassifyError(wrapped); got != ActionFail {
		t.Errorf("403 APIError action = %v, want fail", got)
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := &APIError{Err: base, StatusCode: 500}
	if !errors.Is(err, base) {
		t.Error("APIError should unwrap")
	}
	if err.Error() != "boom (status: 500)" {
		t.Errorf("message = %q", err.Error())
	}
}
