package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/carelinehq/careline/internal/stream"
)

// Controller drives one conversation: it owns the ordered turn list,
// issues requests to the chat endpoint, streams replies into the newest
// assistant turn, and exposes the structured outcome once one is found.
//
// At most one request is in flight at a time; overlapping calls fail with
// ErrBusy. All mutation happens behind the controller's lock, so the
// display callback and accessors are safe from any goroutine.
type Controller struct {
	client *ChatClient
	logger *slog.Logger

	mu        sync.Mutex
	busy      bool
	state     State
	category  Category
	sessionID string
	turns     []Turn
	outcome   stream.Outcome
}

func NewController(client *ChatClient, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{client: client, logger: logger}
}

// StartConversation clears any previous conversation and asks the
// assistant to open a new one for the given category. The category is
// validated before any network call; no partial session is created on
// rejection.
func (c *Controller) StartConversation(ctx context.Context, category Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.category = category
	c.turns = nil
	c.outcome = stream.Outcome{}
	c.state = StateAwaitingFirstReply
	c.mu.Unlock()
	defer c.release()

	if err := c.exchange(ctx, nil); err != nil {
		c.rollback(0)
		return err
	}
	return nil
}

// SendMessage appends a user turn and streams the assistant's reply. If
// the request fails at any point, the user turn (and the placeholder
// reply) are removed so history only ever contains turns the backend
// acknowledged.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	mark := len(c.turns)
	c.turns = append(c.turns, Turn{Role: RoleUser, Content: text})
	history := make([]Turn, len(c.turns))
	copy(history, c.turns)
	c.state = StateAwaitingReply
	c.mu.Unlock()
	defer c.release()

	if err := c.exchange(ctx, history); err != nil {
		c.rollback(mark)
		return err
	}
	return nil
}

// Reset clears the turn list and outcome. Idempotent.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
	c.outcome = stream.Outcome{}
	c.sessionID = ""
	c.state = StateEmpty
}

// SetSessionID correlates this conversation with a persisted session
// record; the id travels with every subsequent request.
func (c *Controller) SetSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Turns returns a copy of the conversation so far.
func (c *Controller) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Category() Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// Outcome returns the structured result of the conversation, if the
// assistant has produced one.
func (c *Controller) Outcome() stream.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// exchange issues one request with the given history and streams the
// reply into a fresh assistant placeholder turn.
func (c *Controller) exchange(ctx context.Context, history []Turn) error {
	c.mu.Lock()
	category, sessionID := c.category, c.sessionID
	c.mu.Unlock()

	body, err := c.client.Stream(ctx, history, category, sessionID)
	if err != nil {
		return err
	}
	defer body.Close()

	c.mu.Lock()
	c.turns = append(c.turns, Turn{Role: RoleAssistant})
	idx := len(c.turns) - 1
	c.mu.Unlock()

	asm := stream.NewAssembler(func(display string) {
		c.mu.Lock()
		// A Reset during an abandoned stream may have shrunk the list;
		// never write past it.
		if idx < len(c.turns) {
			c.turns[idx].Content = display
		}
		c.mu.Unlock()
	}, c.logger)

	if err := asm.Consume(body); err != nil {
		return fmt.Errorf("assistant response: %w", err)
	}

	display, outcome := asm.Finish()

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx >= len(c.turns) {
		return nil
	}
	c.turns[idx].Content = display
	c.applyOutcome(outcome)
	return nil
}

// applyOutcome resolves the (should-never-happen) case of both completion
// blocks appearing in one reply: the block matching the session category
// wins and the other is logged and dropped, never silently picked by
// evaluation order. An already-set outcome is never overwritten.
// Callers must hold c.mu.
func (c *Controller) applyOutcome(o stream.Outcome) {
	if o.Empty() {
		c.state = StateAwaitingUserInput
		return
	}
	if o.Feedback != nil && o.Nursing != nil {
		if c.category == CategoryNursing {
			c.logger.Warn("reply contained both completion blocks, keeping nursing", "category", string(c.category))
			o.Feedback = nil
		} else {
			c.logger.Warn("reply contained both completion blocks, keeping feedback", "category", string(c.category))
			o.Nursing = nil
		}
	}
	if c.outcome.Empty() {
		c.outcome = o
	}
	c.state = StateCompleted
}

// rollback restores the turn list to its length before a failed call.
func (c *Controller) rollback(mark int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mark < len(c.turns) {
		c.turns = c.turns[:mark]
	}
	if mark == 0 {
		c.state = StateEmpty
	} else if c.outcome.Empty() {
		c.state = StateAwaitingUserInput
	} else {
		c.state = StateCompleted
	}
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
