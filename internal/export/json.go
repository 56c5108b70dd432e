package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/gallery-session/internal"
)

// JSONExporter exports the conversation in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports the conversation to JSON format
func (e *JSONExporter) Export(state *internal.ConversationState, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(state)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
