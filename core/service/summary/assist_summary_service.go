// Package summary condenses email text through the summarizer port.
package summary

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"mailassist_server/core/port/in"
	"mailassist_server/core/port/out"
	"mailassist_server/core/service/reply"
	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/cache"
	"mailassist_server/pkg/logger"
)

const (
	MinInputChars = 30
	DefaultTTL    = 300 * time.Second

	msgTooShort   = "Text is too short to summarize."
	msgNoSummary  = "Could not generate summary for this text."
	memoNamespace = "summary"
)

// Options are the fixed summarizer bounds.
var Options = out.SummaryOptions{MinLength: 30, MaxLength: 512, Sample: false}

// Service validates input and memoizes summaries per cleaned text.
type Service struct {
	summarize func(context.Context, string) (string, error)
	log       *logger.Logger
}

var _ in.SummaryService = (*Service)(nil)

// Config configures the summary service. A nil Store disables memoization.
type Config struct {
	Store  cache.Store
	TTL    time.Duration
	Logger *logger.Logger
	// CallTimeout bounds a memoized model call shared by several requests.
	CallTimeout time.Duration
}

func NewService(summarizer out.Summarizer, cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Service{log: log.WithField("service", "summary")}
	call := func(ctx context.Context, text string) (string, error) {
		return s.generate(ctx, summarizer, text)
	}
	if cfg.Store != nil {
		call = cache.Memoize(cfg.Store, cache.MemoOptions{
			Namespace: memoNamespace,
			TTL:       ttl,
			Timeout:   cfg.CallTimeout,
			Logger:    log,
		}, func(text string) string { return text }, call)
	}
	s.summarize = call
	return s
}

// Summarize strips annotation tags and returns a summary that ends on a
// full sentence when the model produced one.
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	cleaned := strings.TrimSpace(reply.StripAnnotations(text))
	if utf8.RuneCountInString(cleaned) < MinInputChars {
		return "", apperr.InputTooShort(msgTooShort)
	}
	return s.summarize(ctx, cleaned)
}

func (s *Service) generate(ctx context.Context, summarizer out.Summarizer, text string) (string, error) {
	summary, err := summarizer.Summarize(ctx, text, Options)
	if err != nil {
		s.log.WithError(err).Error("summarization failed")
		return "", apperr.Wrap(err, apperr.CodeGenerationFailure, msgNoSummary, http.StatusInternalServerError)
	}
	summary = ensureFullSentence(strings.TrimSpace(summary))
	if summary == "" {
		return "", apperr.Internal(msgNoSummary)
	}
	return summary, nil
}

// ensureFullSentence cuts everything after the last period.
func ensureFullSentence(summary string) string {
	if i := strings.LastIndex(summary, "."); i >= 0 {
		return summary[:i+1]
	}
	return summary
}
