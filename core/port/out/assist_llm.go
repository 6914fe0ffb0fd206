package out

import "context"

// GenerationOptions are the sampling settings for free-form generation.
type GenerationOptions struct {
	Temperature       float32
	TopP              float32
	MaxNewTokens      int
	NoRepeatNgramSize int
	NumSequences      int
}

// TextGenerator continues a prompt. The returned text starts with the
// prompt itself followed by the continuation.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

// SummaryOptions bound the summary length in tokens.
type SummaryOptions struct {
	MinLength int
	MaxLength int
	Sample    bool
}

// Summarizer condenses text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error)
}

// CorrectionOptions bound the corrected output length in tokens.
type CorrectionOptions struct {
	MaxLength int
}

// Corrector rewrites text with grammar fixes. The input carries the task
// prefix expected by the model (e.g. "gec: ").
type Corrector interface {
	Correct(ctx context.Context, prompt string, opts CorrectionOptions) (string, error)
}
