package llm

import (
	"context"
	"fmt"
	"strings"

	"mailassist_server/core/port/out"

	openai "github.com/sashabaranov/go-openai"
)

var _ out.Summarizer = (*Client)(nil)

// Summarize condenses text within the token bounds in opts.
func (c *Client) Summarize(ctx context.Context, text string, opts out.SummaryOptions) (string, error) {
	system := fmt.Sprintf(`You are an email summarization model. Summarize the text in plain prose.
Use at least %d and at most %d tokens. Output only the summary.`, opts.MinLength, opts.MaxLength)

	temperature := deterministicTemperature
	if opts.Sample {
		temperature = 0.7
	}

	content, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model:       c.summaryModel,
		Messages:    messages(system, text),
		Temperature: temperature,
		MaxTokens:   opts.MaxLength,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
