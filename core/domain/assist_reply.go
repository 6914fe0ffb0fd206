package domain

import "strings"

// Scenario is a reply context detected from keywords in the email.
type Scenario string

const (
	ScenarioRejection Scenario = "rejection"
	ScenarioMeeting   Scenario = "meeting"
	ScenarioNone      Scenario = "none"
)

// Tone is the caller-supplied reply style. Any string is accepted; only the
// known tones select a template variant.
type Tone string

const (
	ToneFormal   Tone = "formal"
	ToneFriendly Tone = "friendly"
	ToneConcise  Tone = "concise"

	DefaultTone Tone = "Friendly"
)

// Normalize lower-cases the tone for table lookups.
func (t Tone) Normalize() Tone {
	return Tone(strings.ToLower(string(t)))
}

// IsFormal reports whether the tone equals "formal" case-insensitively.
func (t Tone) IsFormal() bool {
	return strings.EqualFold(string(t), string(ToneFormal))
}

// ReplySource records which path produced a final reply.
type ReplySource string

const (
	ReplySourceGenerated ReplySource = "generated"
	ReplySourceTemplate  ReplySource = "template"
	ReplySourceGeneric   ReplySource = "generic"
)

// SmartReplyRequest is the input to the reply pipeline.
type SmartReplyRequest struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// SmartReply is the pipeline result.
type SmartReply struct {
	Text     string      `json:"text"`
	Source   ReplySource `json:"source"`
	Scenario Scenario    `json:"scenario"`
}
