package domain

import "time"

// Role identifies the author of a chat message. It is a closed enum; any
// other value is rejected at the boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a caller-supplied role string
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	}
	return "", ErrInvalidRole
}

// Message is a single immutable entry in a user's chat history. Append order
// is chronological order; sequences only grow.
type Message struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// NewMessage creates a new Message
func NewMessage(role Role, content string, createdAt time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		CreatedAt: createdAt,
	}
}

// ValidateMessage validates a Message instance
func ValidateMessage(m Message) error {
	if _, err := ParseRole(string(m.Role)); err != nil {
		return err
	}
	if m.Content == "" {
		return ErrEmptyMessage
	}
	return nil
}
