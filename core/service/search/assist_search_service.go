// Package search implements the keyword search behind the email assistant.
package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mailassist_server/core/domain"
	"mailassist_server/core/port/in"
)

const (
	MaxResults    = 5
	snippetLead   = 50  // characters kept before the first match
	snippetLength = 200 // characters per snippet
	ellipsis      = "..."
)

// Service matches emails against whitespace-separated query words.
type Service struct{}

var _ in.SearchService = (*Service)(nil)

func NewService() *Service {
	return &Service{}
}

// Search returns up to MaxResults emails whose subject or body contains any
// query word, case-insensitively.
func (s *Service) Search(query string, emails []domain.Email) *domain.SearchResult {
	words := queryWords(query)
	hits := make([]domain.SearchHit, 0, MaxResults)

	for _, email := range emails {
		if len(hits) == MaxResults {
			break
		}
		text := strings.ToLower(email.Subject + " " + email.Body)

		idx := firstMatch(text, words)
		if idx < 0 {
			continue
		}
		hits = append(hits, domain.SearchHit{
			ID:      email.ID,
			Subject: email.Subject,
			Snippet: snippet(text, idx),
		})
	}

	result := "No results found."
	if len(hits) > 0 {
		result = fmt.Sprintf("Found %d emails.", len(hits))
	}
	return &domain.SearchResult{Result: result, Emails: hits}
}

// queryWords lower-cases and splits query, dropping duplicates while
// keeping first-seen order.
func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	words := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		words = append(words, f)
	}
	return words
}

// firstMatch returns the byte offset in text of the first query word (in
// query order) that occurs in it, or -1.
func firstMatch(text string, words []string) int {
	for _, w := range words {
		if i := strings.Index(text, w); i >= 0 {
			return i
		}
	}
	return -1
}

// snippet cuts a character window around byteIdx. Offsets are counted in
// runes so multi-byte text is never split mid-character.
func snippet(text string, byteIdx int) string {
	runes := []rune(text)
	start := utf8.RuneCountInString(text[:byteIdx]) - snippetLead
	if start < 0 {
		start = 0
	}
	end := start + snippetLength
	if end >= len(runes) {
		return string(runes[start:])
	}
	return string(runes[start:end]) + ellipsis
}
