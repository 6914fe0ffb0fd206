package in

import (
	"context"

	"mailassist_server/core/domain"
)

// ReplyService produces a single smart reply for an email.
type ReplyService interface {
	SmartReply(ctx context.Context, req *domain.SmartReplyRequest) (*domain.SmartReply, error)
	// Fallback returns the generic reply for a tone without touching any model.
	Fallback(tone domain.Tone) string
}

// SummaryService summarizes email text.
type SummaryService interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SearchService runs the keyword email search.
type SearchService interface {
	Search(query string, emails []domain.Email) *domain.SearchResult
}

// CorrectionService fixes grammar in a drafted reply.
type CorrectionService interface {
	Correct(ctx context.Context, text string) string
}
