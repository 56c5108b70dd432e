package internal

import (
	"strings"
	"time"
)

// Role is the author of a conversation message
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// NormalizeRole maps any role value onto RoleUser or RoleAI.
// Only "user" (any case) is a user; everything else is the assistant.
func NormalizeRole(v any) Role {
	s, ok := v.(string)
	if !ok {
		if r, isRole := v.(Role); isRole {
			s = string(r)
		}
	}
	if strings.EqualFold(strings.TrimSpace(s), string(RoleUser)) {
		return RoleUser
	}
	return RoleAI
}

// DefaultMessageType is used when a message carries no type
const DefaultMessageType = "text"

// Message is one entry of the AI workspace conversation
type Message struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Type      string `json:"type" yaml:"type"`
	Content   string `json:"content" yaml:"content"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"` // epoch milliseconds
}

// GetTimestamp returns a time.Time from the timestamp
func (m Message) GetTimestamp() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// ConversationState is the persisted AI workspace state
type ConversationState struct {
	Version        int       `json:"version" yaml:"version"`
	Messages       []Message `json:"messages" yaml:"messages"`
	TagSuggestions []string  `json:"tagSuggestions" yaml:"tag_suggestions"`
	LastQuery      string    `json:"lastQuery" yaml:"last_query"`
}
