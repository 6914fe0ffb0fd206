package summary

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"mailassist_server/core/port/out"
	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/cache"
	"mailassist_server/pkg/logger"
)

type fakeSummarizer struct {
	mu     sync.Mutex
	output string
	err    error
	calls  int
	inputs []string
	opts   out.SummaryOptions
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string, opts out.SummaryOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, text)
	f.opts = opts
	return f.output, f.err
}

const longText = "The quarterly review meeting has been moved to Thursday afternoon."

func newTestService(f *fakeSummarizer, withCache bool) *Service {
	cfg := Config{Logger: logger.Nop()}
	if withCache {
		store := cache.NewMemoryStore(cache.MemoryConfig{})
		cfg.Store = store
	}
	return NewService(f, cfg)
}

func TestSummarizeTooShort(t *testing.T) {
	f := &fakeSummarizer{output: "unused."}
	s := newTestService(f, false)

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "ten chars", text: "0123456789"},
		{name: "short after annotations", text: "#Subject: #tags? hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Summarize(context.Background(), tt.text)
			appErr := apperr.AsAppError(err)
			if appErr.Code != apperr.CodeInputTooShort {
				t.Fatalf("expected INPUT_TOO_SHORT, got %v", err)
			}
			if appErr.Message != "Text is too short to summarize." {
				t.Errorf("unexpected message %q", appErr.Message)
			}
			if appErr.Status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", appErr.Status)
			}
		})
	}
	if f.calls != 0 {
		t.Errorf("summarizer must not be called for short input, got %d calls", f.calls)
	}
}

func TestSummarizeEndsOnFullSentence(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
	}{
		{name: "cut trailing fragment", output: "Meeting moved. Bring the", expected: "Meeting moved."},
		{name: "already full", output: "Meeting moved to Thursday.", expected: "Meeting moved to Thursday."},
		{name: "no period kept as is", output: "Meeting moved", expected: "Meeting moved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSummarizer{output: tt.output}
			got, err := newTestService(f, false).Summarize(context.Background(), longText)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSummarizeForwardsCleanedTextAndBounds(t *testing.T) {
	f := &fakeSummarizer{output: "Done."}
	_, err := newTestService(f, false).Summarize(context.Background(), "  #Subject: "+longText+"  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.inputs[0] != longText {
		t.Errorf("expected cleaned input %q, got %q", longText, f.inputs[0])
	}
	if f.opts.MinLength != 30 || f.opts.MaxLength != 512 || f.opts.Sample {
		t.Errorf("unexpected options %+v", f.opts)
	}
}

func TestSummarizeFailures(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeSummarizer
	}{
		{name: "empty output", f: &fakeSummarizer{output: "   "}},
		{name: "backend error", f: &fakeSummarizer{err: apperr.GenerationFailure("m", errors.New("down"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.f, true).Summarize(context.Background(), longText)
			appErr := apperr.AsAppError(err)
			if appErr.Status != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", appErr.Status)
			}
			if appErr.Message != "Could not generate summary for this text." {
				t.Errorf("unexpected message %q", appErr.Message)
			}
		})
	}
}

func TestSummarizeMemoized(t *testing.T) {
	f := &fakeSummarizer{output: "Meeting moved."}
	s := newTestService(f, true)

	for i := 0; i < 3; i++ {
		if _, err := s.Summarize(context.Background(), longText); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if f.calls != 1 {
		t.Errorf("expected 1 summarizer call, got %d", f.calls)
	}

	if _, err := s.Summarize(context.Background(), strings.ToUpper(longText)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != 2 {
		t.Errorf("distinct text must miss the cache, got %d calls", f.calls)
	}
}

func TestSummarizeFailureNotMemoized(t *testing.T) {
	f := &fakeSummarizer{output: ""}
	s := newTestService(f, true)

	_, _ = s.Summarize(context.Background(), longText)
	f.output = "Now it works."
	got, err := s.Summarize(context.Background(), longText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Now it works." {
		t.Errorf("expected fresh summary, got %q", got)
	}
}
