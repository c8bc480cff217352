package stream

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The assistant marks the end of a conversation by embedding structured
// payloads in its free text. [COMPLETE] is advisory; the paired blocks
// carry JSON. All three are stripped before text reaches a patient.
var (
	completeMarker = regexp.MustCompile(`\[COMPLETE\]`)
	feedbackBlock  = regexp.MustCompile(`(?s)\[FEEDBACK_SUMMARY\](.*?)\[/FEEDBACK_SUMMARY\]`)
	nursingBlock   = regexp.MustCompile(`(?s)\[NURSING_ASSESSMENT\](.*?)\[/NURSING_ASSESSMENT\]`)
)

// FeedbackResult is the structured outcome of a satisfaction conversation.
// Score is passed through as the assistant produced it; range enforcement
// is the caller's concern.
type FeedbackResult struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

// NursingAssessment is the structured outcome of a nursing check-in.
type NursingAssessment struct {
	ConditionSummary string   `json:"condition_summary"`
	MoodAssessment   string   `json:"mood_assessment"`
	ImmediateNeeds   []string `json:"immediate_needs"`
	PriorityLevel    string   `json:"priority_level"`
}

// Priority levels the nursing prompt instructs the model to emit.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Outcome holds whatever completion blocks were found in a fully assembled
// reply. Both fields being set should not happen with category-gated
// prompting, but the assembler reports what it saw and lets the session
// layer resolve the conflict.
type Outcome struct {
	Feedback *FeedbackResult
	Nursing  *NursingAssessment
}

func (o Outcome) Empty() bool {
	return o.Feedback == nil && o.Nursing == nil
}

// CleanDisplay strips all sentinel content from raw assistant text,
// leaving only what a patient should see.
func CleanDisplay(raw string) string {
	s := completeMarker.ReplaceAllString(raw, "")
	s = feedbackBlock.ReplaceAllString(s, "")
	s = nursingBlock.ReplaceAllString(s, "")
	return s
}

// ExtractOutcome searches the full assistant text for completion blocks.
// A block whose inner JSON does not parse yields no outcome rather than an
// error; the sentinel match alone is not enough.
func ExtractOutcome(raw string) Outcome {
	var out Outcome
	if m := feedbackBlock.FindStringSubmatch(raw); m != nil {
		var fr FeedbackResult
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &fr); err == nil {
			out.Feedback = &fr
		}
	}
	if m := nursingBlock.FindStringSubmatch(raw); m != nil {
		var na NursingAssessment
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &na); err == nil {
			out.Nursing = &na
		}
	}
	return out
}
