package internal

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Normalizer converts arbitrary message records into canonical Messages
type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

// NewNormalizer creates a Normalizer using the wall clock and random UUIDs
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Normalize converts raw into a Message. raw may be a Message, a *Message or
// a decoded JSON object; anything else is rejected. Normalizing an already
// normalized message returns it unchanged.
func (n *Normalizer) Normalize(raw any) (Message, bool) {
	switch v := raw.(type) {
	case Message:
		return n.fill(v), true
	case *Message:
		if v == nil {
			return Message{}, false
		}
		return n.fill(*v), true
	case map[string]any:
		return n.fill(Message{
			ID:        idValue(v["id"]),
			Role:      NormalizeRole(v["role"]),
			Type:      stringValue(v["type"]),
			Content:   stringValue(v["content"]),
			Timestamp: timestampValue(v["timestamp"]),
		}), true
	default:
		return Message{}, false
	}
}

// NormalizeAll normalizes list, dropping elements that are not records
func (n *Normalizer) NormalizeAll(list []any) []Message {
	messages := make([]Message, 0, len(list))
	for _, raw := range list {
		msg, ok := n.Normalize(raw)
		if !ok {
			LogDebug("Dropping malformed message of type %T", raw)
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// fill applies defaults to the missing fields of msg
func (n *Normalizer) fill(msg Message) Message {
	if msg.ID == "" {
		msg.ID = n.NewID()
	}
	msg.Role = NormalizeRole(msg.Role)
	if msg.Type == "" {
		msg.Type = DefaultMessageType
	}
	if msg.Timestamp <= 0 {
		msg.Timestamp = n.Now().UnixMilli()
	}
	return msg
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// idValue accepts string and numeric ids
func idValue(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return ""
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}

// timestampValue returns epoch milliseconds, or 0 when v is not a usable number
func timestampValue(v any) int64 {
	switch ts := v.(type) {
	case json.Number:
		if i, err := ts.Int64(); err == nil {
			return i
		}
		if f, err := ts.Float64(); err == nil {
			return timestampValue(f)
		}
	case float64:
		if math.IsNaN(ts) || math.IsInf(ts, 0) {
			return 0
		}
		return int64(ts)
	case int:
		return int64(ts)
	case int64:
		return ts
	}
	return 0
}
