package reply

import (
	"strings"

	"mailassist_server/core/domain"
)

type scenarioKeywords struct {
	scenario domain.Scenario
	keywords []string
}

// Checked in order; the first scenario with a hit wins.
var contextKeywords = []scenarioKeywords{
	{
		scenario: domain.ScenarioRejection,
		keywords: []string{"regret", "unfortunately", "not proceed", "other candidates"},
	},
	{
		scenario: domain.ScenarioMeeting,
		keywords: []string{"meeting", "schedule", "appointment", "discuss", "call"},
	},
}

// Classify detects the reply scenario from plain keyword substrings.
func Classify(text string) domain.Scenario {
	lower := strings.ToLower(text)
	for _, sk := range contextKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(lower, kw) {
				return sk.scenario
			}
		}
	}
	return domain.ScenarioNone
}
