package state

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Step names the field a session currently awaits.
type Step string

const (
	// StepNotStarted marks a session created but not yet prompted.
	StepNotStarted Step = "not_started"
	// StepFinished marks a finalized, read-only session.
	StepFinished Step = "finished"
)

// Role identifies the author of a logged message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the dialogue history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the dialogue state of one user.
//
// Fields maps a step's field name to its validated value (string, float64,
// int) or nil when the step was skipped. JSON backends widen numbers to
// float64; read typed values through DecodeFields.
type Session struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"user_id"`
	Flow      string            `json:"flow"`
	Step      Step              `json:"current_step"`
	Fields    map[string]any    `json:"collected_fields"`
	Log       []Message         `json:"message_log,omitempty"`
	Finished  bool              `json:"is_finished"`
	Report    map[string]string `json:"report,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession returns a fresh session for userID in flow.
func NewSession(userID int64, flow string, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Flow:      flow,
		Step:      StepNotStarted,
		Fields:    make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers never share maps with a store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Fields = maps.Clone(s.Fields)
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	c.Log = slices.Clone(s.Log)
	c.Report = maps.Clone(s.Report)
	return &c
}

// Live reports whether the session still collects input.
func (s *Session) Live() bool {
	return s != nil && !s.Finished
}

// Append adds a message to the history.
func (s *Session) Append(role Role, content string, at time.Time) {
	s.Log = append(s.Log, Message{Role: role, Content: content, Timestamp: at})
}

// DecodeFields copies the collected fields into out, a pointer to a struct
// tagged with `mapstructure`. Numeric widening from JSON backends is undone.
func (s *Session) DecodeFields(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("state: decoder: %w", err)
	}
	if err := dec.Decode(s.Fields); err != nil {
		return fmt.Errorf("state: decode fields of session %s: %w", s.ID, err)
	}
	return nil
}
