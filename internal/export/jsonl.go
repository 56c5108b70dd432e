package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/gallery-session/internal"
)

// JSONLExporter exports the conversation in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports the conversation to JSONL format
func (e *JSONLExporter) Export(state *internal.ConversationState, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range state.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
