package llm

import (
	"context"
	"strings"

	"mailassist_server/core/port/out"

	openai "github.com/sashabaranov/go-openai"
)

const replySystemPrompt = `You continue documents. The user message ends with a "Reply:" cue.
Write only the text that follows the cue: a short reply body, no subject line, no commentary.`

var _ out.TextGenerator = (*Client)(nil)

// Generate continues prompt and returns the prompt followed by the
// continuation, so callers can cut at their own delimiter.
func (c *Client) Generate(ctx context.Context, prompt string, opts out.GenerationOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         messages(replySystemPrompt, prompt),
		Temperature:      opts.Temperature,
		TopP:             opts.TopP,
		MaxTokens:        opts.MaxNewTokens,
		FrequencyPenalty: ngramPenalty(opts.NoRepeatNgramSize),
	}
	if opts.NumSequences > 1 {
		req.N = opts.NumSequences
	}

	content, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	return prompt + " " + strings.TrimSpace(content), nil
}

// ngramPenalty approximates an n-gram repeat block with a frequency
// penalty: smaller n blocks harder. Range is the API's 0..2.
func ngramPenalty(n int) float32 {
	if n <= 0 {
		return 0
	}
	p := 2 / float32(n)
	if p > 2 {
		p = 2
	}
	return p
}
