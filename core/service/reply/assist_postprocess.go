package reply

import (
	"strings"
	"unicode"
)

// ReplyCue ends the generation prompt and marks where the reply starts in
// the generated text.
const ReplyCue = "Reply:"

// Lines starting with any of these are instructions the model echoed back,
// not reply content.
var metaPrefixes = []string{
	"-",
	"include",
	"use",
	"receive",
	"do not",
	"note:",
	"the following",
	"prompt",
	"instructions",
	"meta-comment",
}

// PostProcess extracts the reply from generated text: everything after the
// last delimiter, minus blank and meta lines, joined into one line.
func PostProcess(generated, delimiter string) string {
	text := generated
	if delimiter != "" {
		if idx := strings.LastIndex(text, delimiter); idx >= 0 {
			text = text[idx+len(delimiter):]
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	kept := make([]string, 0, 4)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isMetaLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, " "))
}

func isMetaLine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range metaPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// AcceptPolicy decides whether a post-processed candidate is usable.
type AcceptPolicy struct {
	// MinWords rejects candidates with fewer words. Zero disables the check.
	MinWords int
}

// Accept reports whether the candidate can be returned as-is. A candidate
// must be non-empty and contain at least one letter.
func (p AcceptPolicy) Accept(candidate string) bool {
	if candidate == "" || !containsLetter(candidate) {
		return false
	}
	if p.MinWords > 0 && len(strings.Fields(candidate)) < p.MinWords {
		return false
	}
	return true
}

func containsLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
