package reply

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"mailassist_server/core/domain"

	"gopkg.in/yaml.v3"
)

//go:embed templates/reply_templates.yaml
var defaultTemplatesYAML []byte

// Generic replies used when no scenario template applies.
const (
	GenericFormalReply = "Thank you for your email. I will respond shortly."
	GenericReply       = "Thanks! I'll get back to you soon!"
)

// TemplateStore maps scenario and tone to a canned reply. It is built once
// and read-only afterwards, so it is safe for concurrent use.
type TemplateStore struct {
	table map[domain.Scenario]map[domain.Tone]string
}

// DefaultTemplates returns the built-in template table.
func DefaultTemplates() *TemplateStore {
	store, err := LoadTemplates(bytes.NewReader(defaultTemplatesYAML))
	if err != nil {
		panic(fmt.Sprintf("reply: embedded templates are invalid: %v", err))
	}
	return store
}

// LoadTemplatesFile reads a template table from a YAML file.
func LoadTemplatesFile(path string) (*TemplateStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	defer f.Close()
	return LoadTemplates(f)
}

// LoadTemplates parses a YAML document of the form scenario -> tone -> text.
// Keys are lower-cased. Every reply must contain at least one letter.
func LoadTemplates(r io.Reader) (*TemplateStore, error) {
	var raw map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	table := make(map[domain.Scenario]map[domain.Tone]string, len(raw))
	for scenario, tones := range raw {
		key := domain.Scenario(strings.ToLower(strings.TrimSpace(scenario)))
		if key == domain.ScenarioNone || key == "" {
			return nil, fmt.Errorf("invalid scenario %q", scenario)
		}
		byTone := make(map[domain.Tone]string, len(tones))
		for tone, text := range tones {
			text = strings.TrimSpace(text)
			if !containsLetter(text) {
				return nil, fmt.Errorf("template %s/%s has no text", scenario, tone)
			}
			byTone[domain.Tone(tone).Normalize()] = text
		}
		table[key] = byTone
	}

	return &TemplateStore{table: table}, nil
}

// Lookup returns the template for a scenario and tone. The tone is matched
// case-insensitively; unknown tones are a miss.
func (s *TemplateStore) Lookup(scenario domain.Scenario, tone domain.Tone) (string, bool) {
	if s == nil || scenario == domain.ScenarioNone {
		return "", false
	}
	byTone, ok := s.table[scenario]
	if !ok {
		return "", false
	}
	text, ok := byTone[tone.Normalize()]
	return text, ok
}

// GenericFallback picks the generic reply for a tone.
func GenericFallback(tone domain.Tone) string {
	if tone.IsFormal() {
		return GenericFormalReply
	}
	return GenericReply
}
