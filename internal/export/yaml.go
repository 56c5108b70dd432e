package export

import (
	"io"

	"github.com/iksnae/gallery-session/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports the conversation in YAML format
type YAMLExporter struct{}

// Export exports the conversation to YAML format
func (e *YAMLExporter) Export(state *internal.ConversationState, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(state)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
