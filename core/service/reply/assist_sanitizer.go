// Package reply implements the smart reply pipeline: cleaning the incoming
// email, generating a candidate, judging it and falling back to templates.
package reply

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<.*?>`)
	annotationPattern = regexp.MustCompile(`#\w+[?:]\s*`)
	headerLinePattern = regexp.MustCompile(`(?m)^[ \t]*(?:From|To|Cc|Bcc|Subject|Date):.*(?:\r?\n|$)`)
	quotedPattern     = regexp.MustCompile(`-{2,}\s*(?:Original Message|Forwarded message)`)
	closingPattern    = regexp.MustCompile(`(?im)^[ \t]*(?:thank you|thanks|best regards|regards|sincerely|cheers|dear|yours truly|with appreciation)`)
)

// Sanitize strips markup, annotations, header lines, quoted history and the
// trailing signature from raw email text. The result may be empty.
func Sanitize(raw string) string {
	text := htmlTagPattern.ReplaceAllString(raw, "")
	text = StripAnnotations(text)
	text = headerLinePattern.ReplaceAllString(text, "")

	if loc := quotedPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	if loc := closingPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	return strings.TrimSpace(text)
}

// StripAnnotations removes hashtag-style annotation tokens such as "#note: ".
func StripAnnotations(text string) string {
	return annotationPattern.ReplaceAllString(text, "")
}
