package reply

import (
	"context"
	"time"

	"mailassist_server/core/domain"
	"mailassist_server/core/port/out"
	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/logger"
)

// SmartReplyOptions is the fixed sampling configuration for reply generation.
var SmartReplyOptions = out.GenerationOptions{
	Temperature:       0.7,
	TopP:              0.9,
	MaxNewTokens:      60,
	NoRepeatNgramSize: 4,
	NumSequences:      1,
}

// OutcomeRecorder counts which path produced each reply.
type OutcomeRecorder interface {
	IncReplySource(source string)
}

// Service runs the smart reply pipeline.
type Service struct {
	generator out.TextGenerator
	templates *TemplateStore
	policy    AcceptPolicy
	recorder  OutcomeRecorder
	log       *logger.Logger
}

// Config holds optional collaborators for the reply service.
type Config struct {
	Templates *TemplateStore
	Policy    AcceptPolicy
	Recorder  OutcomeRecorder
	Logger    *logger.Logger
}

func NewService(generator out.TextGenerator, cfg Config) *Service {
	templates := cfg.Templates
	if templates == nil {
		templates = DefaultTemplates()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		generator: generator,
		templates: templates,
		policy:    cfg.Policy,
		recorder:  cfg.Recorder,
		log:       log.WithField("component", "smart_reply"),
	}
}

// SmartReply returns exactly one reply for non-empty text. Generator
// failures never surface; they route to the template path. Any other error
// is returned for the caller to degrade on.
func (s *Service) SmartReply(ctx context.Context, req *domain.SmartReplyRequest) (*domain.SmartReply, error) {
	if req == nil || req.Text == "" {
		return nil, apperr.InvalidInput("text", "No text provided")
	}
	tone := req.Tone
	if tone == "" {
		tone = domain.DefaultTone
	}
	log := s.log.WithContext(ctx).WithField("tone", string(tone))

	cleaned := Sanitize(req.Text)
	scenario := Classify(cleaned)

	start := time.Now()
	generated, err := s.generator.Generate(ctx, buildPrompt(cleaned), SmartReplyOptions)
	if err != nil {
		if !apperr.IsGenerationFailure(err) {
			return nil, err
		}
		log.WithError(err).WithDuration(time.Since(start)).Warn("reply generation failed, using template fallback")
		return s.templateOrGeneric(Classify(req.Text), tone), nil
	}

	candidate := PostProcess(generated, ReplyCue)
	if s.policy.Accept(candidate) {
		log.WithDuration(time.Since(start)).Debug("generated reply accepted")
		return s.finish(&domain.SmartReply{
			Text:     candidate,
			Source:   domain.ReplySourceGenerated,
			Scenario: scenario,
		}), nil
	}

	log.WithField("scenario", string(scenario)).Debug("generated reply rejected")
	return s.templateOrGeneric(scenario, tone), nil
}

// Fallback returns the generic reply for a tone.
func (s *Service) Fallback(tone domain.Tone) string {
	if s.recorder != nil {
		s.recorder.IncReplySource(string(domain.ReplySourceGeneric))
	}
	return GenericFallback(tone)
}

func (s *Service) templateOrGeneric(scenario domain.Scenario, tone domain.Tone) *domain.SmartReply {
	if text, ok := s.templates.Lookup(scenario, tone); ok {
		return s.finish(&domain.SmartReply{
			Text:     text,
			Source:   domain.ReplySourceTemplate,
			Scenario: scenario,
		})
	}
	return s.finish(&domain.SmartReply{
		Text:     GenericFallback(tone),
		Source:   domain.ReplySourceGeneric,
		Scenario: scenario,
	})
}

func (s *Service) finish(reply *domain.SmartReply) *domain.SmartReply {
	if s.recorder != nil {
		s.recorder.IncReplySource(string(reply.Source))
	}
	return reply
}

func buildPrompt(cleaned string) string {
	return "Write a short, polite reply to the following email.\n\nEmail:\n" + cleaned + "\n\n" + ReplyCue
}
