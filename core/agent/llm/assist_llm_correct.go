package llm

import (
	"context"
	"strings"

	"mailassist_server/core/port/out"

	openai "github.com/sashabaranov/go-openai"
)

const correctionSystemPrompt = `You are a grammatical error correction model.
The input starts with a "gec:" task prefix. Return the text after the prefix with spelling and grammar fixed.
Keep wording and meaning otherwise unchanged. Output only the corrected text.`

var _ out.Corrector = (*Client)(nil)

// Correct returns the grammar-corrected form of prompt.
func (c *Client) Correct(ctx context.Context, prompt string, opts out.CorrectionOptions) (string, error) {
	content, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model:       c.correctionModel,
		Messages:    messages(correctionSystemPrompt, prompt),
		Temperature: deterministicTemperature,
		MaxTokens:   opts.MaxLength,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
