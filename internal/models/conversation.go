package models

import (
	"time"

	"github.com/google/uuid"
)

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleContext   Role = "context"
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged message in a conversation.
// Turns are immutable once appended.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session owns the ordered, append-only turn history of one conversation.
// The first turn is always the system instruction; turns are never reordered
// or mutated after insertion. A Session has exactly one owning goroutine and
// is not safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	turns []Turn
}

// NewSession creates a session seeded with the system instruction.
func NewSession(systemPrompt string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		turns: []Turn{{
			Role:    RoleSystem,
			Content: systemPrompt,
			At:      now,
		}},
	}
}

// Append adds a turn at the end of the history.
func (s *Session) Append(role Role, content string) {
	s.turns = append(s.turns, Turn{Role: role, Content: content, At: time.Now()})
}

// Turns returns a copy of the turn history so callers cannot mutate it.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns in the session.
func (s *Session) Len() int {
	return len(s.turns)
}

// Last returns the most recent turn, or false for a zero-turn session.
func (s *Session) Last() (Turn, bool) {
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}
