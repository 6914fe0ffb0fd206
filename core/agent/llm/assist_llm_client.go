package llm

import (
	"context"
	"errors"
	"time"

	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/logger"
	"mailassist_server/pkg/resilience"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second

	// go-openai omits a zero temperature, which the server reads as 1.0.
	deterministicTemperature float32 = 1e-4
)

// Client talks to an OpenAI-compatible chat completion API and implements
// the generator, summarizer and corrector ports.
type Client struct {
	client          *openai.Client
	model           string
	summaryModel    string
	correctionModel string
	timeout         time.Duration
	breaker         *resilience.Breaker
	log             *logger.Logger
}

// Config configures a Client. BaseURL points at any server speaking the
// OpenAI protocol (Ollama, vLLM); empty means api.openai.com.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	SummaryModel    string
	CorrectionModel string
	Timeout         time.Duration
	Breaker         *resilience.Breaker
	Logger          *logger.Logger
}

// NewClient creates a client. Task-specific models default to Model.
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	return &Client{
		client:          openai.NewClientWithConfig(oc),
		model:           model,
		summaryModel:    firstNonEmpty(cfg.SummaryModel, model),
		correctionModel: firstNonEmpty(cfg.CorrectionModel, model),
		timeout:         timeout,
		breaker:         cfg.Breaker,
		log:             log.WithField("component", "llm"),
	}
}

// complete runs one chat completion under the timeout and breaker. Every
// failure, including an open breaker, is reported as a GenerationFailure.
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	start := time.Now()

	content, err := c.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})

	if err != nil {
		l := c.log.WithError(err).WithField("model", req.Model).WithDuration(time.Since(start))
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests):
			l.Warn("model call short-circuited")
		case errors.Is(err, context.DeadlineExceeded):
			l.Warn("model call timed out")
			err = apperr.Timeout("llm " + req.Model).WithDetail("timeout_ms", c.timeout.Milliseconds()).WithError(err)
		default:
			l.Error("model call failed")
		}
		return "", apperr.GenerationFailure(req.Model, err)
	}

	c.log.WithField("model", req.Model).WithDuration(time.Since(start)).Debug("model call completed")
	return content, nil
}

func messages(system, user string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
