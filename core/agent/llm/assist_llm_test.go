package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mailassist_server/core/port/out"
	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/logger"
	"mailassist_server/pkg/resilience"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
)

// fakeOpenAI serves /v1/chat/completions with a fixed reply or status.
type fakeOpenAI struct {
	content string
	status  int
	delay   time.Duration
	calls   atomic.Int32
	last    atomic.Pointer[openai.ChatCompletionRequest]
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	var req openai.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.last.Store(&req)

	if f.delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(f.delay):
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"backend unavailable","type":"server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:     "cmpl-test",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content},
		}},
	})
}

func newTestClient(t *testing.T, f *fakeOpenAI, breaker *resilience.Breaker) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:       "test",
		BaseURL:      srv.URL + "/v1",
		Model:        "reply-model",
		SummaryModel: "summary-model",
		Timeout:      2 * time.Second,
		Breaker:      breaker,
		Logger:       logger.Nop(),
	})
}

func TestGenerateEchoesPrompt(t *testing.T) {
	f := &fakeOpenAI{content: "  Sounds good, see you Monday.\n"}
	c := newTestClient(t, f, nil)

	prompt := "Email:\nCan we meet?\n\nReply:"
	got, err := c.Generate(context.Background(), prompt, out.GenerationOptions{
		Temperature:       0.7,
		TopP:              0.9,
		MaxNewTokens:      60,
		NoRepeatNgramSize: 4,
		NumSequences:      1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := prompt + " Sounds good, see you Monday."
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	req := f.last.Load()
	if req.Model != "reply-model" {
		t.Errorf("expected model reply-model, got %s", req.Model)
	}
	if req.Temperature != 0.7 || req.TopP != 0.9 || req.MaxTokens != 60 {
		t.Errorf("sampling options not forwarded: %+v", req)
	}
	if req.FrequencyPenalty != 0.5 {
		t.Errorf("expected frequency penalty 0.5, got %v", req.FrequencyPenalty)
	}
}

func TestSummarizeUsesSummaryModel(t *testing.T) {
	f := &fakeOpenAI{content: "A short summary."}
	c := newTestClient(t, f, nil)

	got, err := c.Summarize(context.Background(), "long text", out.SummaryOptions{MinLength: 30, MaxLength: 512})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "A short summary." {
		t.Errorf("expected %q, got %q", "A short summary.", got)
	}

	req := f.last.Load()
	if req.Model != "summary-model" {
		t.Errorf("expected summary-model, got %s", req.Model)
	}
	if req.MaxTokens != 512 {
		t.Errorf("expected max tokens 512, got %d", req.MaxTokens)
	}
	if req.Temperature == 0 {
		t.Error("deterministic temperature must not be zero")
	}
}

func TestCorrectFallsBackToDefaultModel(t *testing.T) {
	f := &fakeOpenAI{content: "I have a question."}
	c := newTestClient(t, f, nil)

	got, err := c.Correct(context.Background(), "gec: i has a question", out.CorrectionOptions{MaxLength: 128})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "I have a question." {
		t.Errorf("expected corrected text, got %q", got)
	}
	if m := f.last.Load().Model; m != "reply-model" {
		t.Errorf("expected correction to use default model, got %s", m)
	}
}

func TestBackendErrorIsGenerationFailure(t *testing.T) {
	f := &fakeOpenAI{status: http.StatusInternalServerError}
	c := newTestClient(t, f, nil)

	_, err := c.Generate(context.Background(), "Reply:", out.GenerationOptions{})
	if !apperr.IsGenerationFailure(err) {
		t.Fatalf("expected generation failure, got %v", err)
	}
}

func TestOpenBreakerIsGenerationFailure(t *testing.T) {
	f := &fakeOpenAI{status: http.StatusServiceUnavailable}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:             "llm-test",
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, logger.Nop())
	c := newTestClient(t, f, breaker)

	for i := 0; i < 2; i++ {
		_, _ = c.Generate(context.Background(), "Reply:", out.GenerationOptions{})
	}
	before := f.calls.Load()

	_, err := c.Generate(context.Background(), "Reply:", out.GenerationOptions{})
	if !apperr.IsGenerationFailure(err) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "open") {
		t.Errorf("expected open-state cause, got %v", err)
	}
	if f.calls.Load() != before {
		t.Error("open breaker must not reach the backend")
	}
}

func TestNgramPenalty(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected float32
	}{
		{name: "disabled", n: 0, expected: 0},
		{name: "negative", n: -3, expected: 0},
		{name: "unigram clamps", n: 1, expected: 2},
		{name: "four", n: 4, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ngramPenalty(tt.n); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSlowBackendIsTimeoutGenerationFailure(t *testing.T) {
	f := &fakeOpenAI{content: "late", delay: 2 * time.Second}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		APIKey:  "test",
		BaseURL: srv.URL + "/v1",
		Model:   "reply-model",
		Timeout: 50 * time.Millisecond,
		Logger:  logger.Nop(),
	})

	_, err := c.Generate(context.Background(), "Reply:", out.GenerationOptions{MaxNewTokens: 10})
	if !apperr.IsGenerationFailure(err) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	if !apperr.HasCode(err, apperr.CodeTimeout) {
		t.Errorf("expected timeout cause, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
}
