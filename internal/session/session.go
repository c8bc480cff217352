// Package session owns the per-conversation turn history and mediates
// between a caller and the chat endpoint. One Controller drives one
// conversation; two conversations share nothing.
package session

import "errors"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in the dialogue. Content of the newest assistant
// turn mutates while its reply streams; every other turn is settled.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Category selects the conversation topic and, upstream, which system
// prompt and completion block the assistant is instructed to use.
type Category string

const (
	CategoryPostVisit      Category = "post_visit"
	CategoryTreatment      Category = "treatment_experience"
	CategoryServiceQuality Category = "service_quality"
	CategoryNursing        Category = "nursing_assessment"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPostVisit, CategoryTreatment, CategoryServiceQuality, CategoryNursing:
		return true
	}
	return false
}

// State tracks where a conversation is in its lifecycle. There is no
// terminal error state: a failed request rolls back to the last
// acknowledged turn so the caller can retry.
type State int

const (
	StateEmpty State = iota
	StateAwaitingFirstReply
	StateAwaitingUserInput
	StateAwaitingReply
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAwaitingFirstReply:
		return "awaiting_first_reply"
	case StateAwaitingUserInput:
		return "awaiting_user_input"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when a call overlaps an in-flight request for
	// the same conversation. Calls are rejected, never queued.
	ErrBusy = errors.New("session: request already in flight")

	// ErrEmptyMessage is returned for text that is empty after trimming.
	ErrEmptyMessage = errors.New("session: message is empty")

	// ErrInvalidCategory is returned before any network call for a
	// category outside the recognized set.
	ErrInvalidCategory = errors.New("session: unrecognized category")

	// ErrNotConfigured indicates missing endpoint or credentials. It is
	// distinct from transport failures and reported before any network
	// attempt.
	ErrNotConfigured = errors.New("session: chat endpoint not configured")
)
