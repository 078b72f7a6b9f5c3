package core

import "fmt"

// Role identifies the author of a conversational turn. The set is closed:
// constructing a Message with any other value is rejected.
type Role string

const (
	// RoleUser marks a turn authored by the human user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn authored by the responding agent.
	RoleAssistant Role = "assistant"
	// RoleSystem marks instruction or policy content injected by the host.
	RoleSystem Role = "system"
)

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message is a single immutable conversational turn. Treat values as
// read-only after construction; components exchange copies, never pointers.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage constructs a Message, rejecting roles outside the closed set.
func NewMessage(role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, fmt.Errorf("unknown message role %q", role)
	}
	return Message{Role: role, Content: content}, nil
}

// NewUserMessage is a convenience wrapper for a user-authored turn.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage is a convenience wrapper for an assistant-authored turn.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewSystemMessage is a convenience wrapper for a system-authored turn.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// String renders the turn in "role: content" form used by prompt assembly.
func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
