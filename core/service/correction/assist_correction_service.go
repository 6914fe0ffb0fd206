// Package correction fixes grammar in drafted replies.
package correction

import (
	"context"
	"strings"

	"mailassist_server/core/port/in"
	"mailassist_server/core/port/out"
	"mailassist_server/pkg/logger"
)

const taskPrefix = "gec: "

// Options are the fixed corrector bounds.
var Options = out.CorrectionOptions{MaxLength: 128}

// Service wraps the corrector and never fails: on any problem the caller
// gets its own text back.
type Service struct {
	corrector out.Corrector
	log       *logger.Logger
}

var _ in.CorrectionService = (*Service)(nil)

func NewService(corrector out.Corrector, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{corrector: corrector, log: log.WithField("service", "correction")}
}

func (s *Service) Correct(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	corrected, err := s.corrector.Correct(ctx, taskPrefix+text, Options)
	if err != nil {
		s.log.WithError(err).Warn("correction failed, returning original text")
		return text
	}

	corrected = strings.TrimSpace(corrected)
	if corrected == "" {
		return text
	}
	return corrected
}
