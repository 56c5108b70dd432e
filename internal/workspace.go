package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// StateVersion is the schema version written by Persist. Hydrate refuses
	// blobs carrying any other version.
	StateVersion = 1

	// MaxMessages bounds the conversation; the oldest messages are evicted first.
	MaxMessages = 200

	greetingContent = `Hi, I'm the AI image assistant. Try asking "find my sunset photos".`
)

// ConversationStore holds the AI workspace conversation and persists it to a Slot
type ConversationStore struct {
	slot       Slot
	key        string
	normalizer *Normalizer

	messages       []Message
	tagSuggestions []string
	lastQuery      string
}

// StoreOption configures a ConversationStore
type StoreOption func(*ConversationStore)

// WithClock overrides the clock used for default timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(s *ConversationStore) { s.normalizer.Now = now }
}

// WithIDGenerator overrides message id generation
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *ConversationStore) { s.normalizer.NewID = newID }
}

// WithStateKey overrides the slot key
func WithStateKey(key string) StoreOption {
	return func(s *ConversationStore) { s.key = key }
}

// NewConversationStore creates a store holding the default greeting
func NewConversationStore(slot Slot, opts ...StoreOption) *ConversationStore {
	s := &ConversationStore{
		slot:           slot,
		key:            ConversationKey,
		normalizer:     NewNormalizer(),
		tagSuggestions: []string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = s.defaultMessages()
	return s
}

// defaultMessages builds a fresh greeting set
func (s *ConversationStore) defaultMessages() []Message {
	greeting, _ := s.normalizer.Normalize(Message{Role: RoleAI, Type: DefaultMessageType, Content: greetingContent})
	return []Message{greeting}
}

// Hydrate loads the persisted state. An absent slot is a no-op. A corrupt
// blob or a different schema version is also a no-op, reported as
// ErrCorruptState or ErrSchemaMismatch. Well-typed fields are adopted
// independently of each other.
func (s *ConversationStore) Hydrate() error {
	raw, ok, err := s.slot.Get(s.key)
	if err != nil {
		LogWarn("Failed to read conversation state: %v", err)
		return &StateError{Key: s.key, Op: "hydrate", Err: err}
	}
	if !ok || raw == "" {
		return nil
	}

	var fields map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil || dec.More() {
		LogWarn("Ignoring corrupt conversation state: %v", err)
		return &StateError{Key: s.key, Op: "hydrate", Err: ErrCorruptState}
	}

	version, _ := fields["version"].(json.Number)
	if v, err := version.Float64(); err != nil || v != StateVersion {
		LogDebug("Ignoring conversation state with version %v (want %d)", fields["version"], StateVersion)
		return &StateError{Key: s.key, Op: "hydrate", Err: fmt.Errorf("%w: got %v, want %d", ErrSchemaMismatch, fields["version"], StateVersion)}
	}

	if list, ok := fields["messages"].([]any); ok {
		normalized := s.normalizer.NormalizeAll(list)
		if len(normalized) == 0 {
			normalized = s.defaultMessages()
		}
		s.messages = trimMessages(normalized)
	}
	if list, ok := fields["tagSuggestions"].([]any); ok {
		s.tagSuggestions = stringsOnly(list)
	}
	if q, ok := fields["lastQuery"].(string); ok {
		s.lastQuery = q
	}

	LogDebug("Hydrated %d message(s)", len(s.messages))
	return nil
}

// Persist writes the full state to the slot. A failed write leaves the
// in-memory state as it was.
func (s *ConversationStore) Persist() error {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		LogWarn("Failed to encode conversation state: %v", err)
		return &StateError{Key: s.key, Op: "persist", Err: err}
	}

	if err := s.slot.Set(s.key, string(data)); err != nil {
		LogWarn("Failed to persist conversation state: %v", err)
		return &StateError{Key: s.key, Op: "persist", Err: err}
	}
	return nil
}

// Reset restores the default greeting, clears tags and query, and persists
func (s *ConversationStore) Reset() error {
	s.messages = s.defaultMessages()
	s.tagSuggestions = []string{}
	s.lastQuery = ""
	return s.Persist()
}

// ClearAll empties messages, tags and query, and persists
func (s *ConversationStore) ClearAll() error {
	s.messages = []Message{}
	s.tagSuggestions = []string{}
	s.lastQuery = ""
	return s.Persist()
}

// SetMessages replaces the conversation with the normalized records of list,
// keeping the newest MaxMessages. It does not persist.
func (s *ConversationStore) SetMessages(list []any) {
	s.messages = trimMessages(s.normalizer.NormalizeAll(list))
}

// PushMessage normalizes msg and appends it, evicting the oldest message when
// the bound is exceeded. It returns the stored form of msg; ok is false when
// msg is not a record.
func (s *ConversationStore) PushMessage(msg any) (Message, bool) {
	normalized, ok := s.normalizer.Normalize(msg)
	if !ok {
		LogDebug("Ignoring malformed message of type %T", msg)
		return Message{}, false
	}
	s.messages = trimMessages(append(s.messages, normalized))
	return normalized, true
}

// RemoveMessage removes the first message with id. It reports whether a
// message was removed.
func (s *ConversationStore) RemoveMessage(id string) bool {
	if id == "" {
		return false
	}
	for i, msg := range s.messages {
		if msg.ID == id {
			s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
			return true
		}
	}
	return false
}

// SetTagSuggestions replaces the tag suggestions
func (s *ConversationStore) SetTagSuggestions(tags []string) {
	if tags == nil {
		s.tagSuggestions = []string{}
		return
	}
	s.tagSuggestions = append([]string{}, tags...)
}

// SetLastQuery replaces the last search query
func (s *ConversationStore) SetLastQuery(q string) {
	s.lastQuery = q
}

// Messages returns a copy of the conversation in insertion order
func (s *ConversationStore) Messages() []Message {
	return append([]Message{}, s.messages...)
}

// TagSuggestions returns a copy of the tag suggestions
func (s *ConversationStore) TagSuggestions() []string {
	return append([]string{}, s.tagSuggestions...)
}

// LastQuery returns the last search query
func (s *ConversationStore) LastQuery() string {
	return s.lastQuery
}

// Snapshot returns a copy of the full state
func (s *ConversationStore) Snapshot() ConversationState {
	return ConversationState{
		Version:        StateVersion,
		Messages:       s.Messages(),
		TagSuggestions: s.TagSuggestions(),
		LastQuery:      s.lastQuery,
	}
}

// trimMessages keeps the newest MaxMessages entries
func trimMessages(messages []Message) []Message {
	if len(messages) <= MaxMessages {
		return messages
	}
	return append([]Message{}, messages[len(messages)-MaxMessages:]...)
}

func stringsOnly(list []any) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
