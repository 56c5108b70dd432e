package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/gallery-session/internal"
)

// MarkdownExporter exports the conversation in Markdown format
type MarkdownExporter struct{}

// Export exports the conversation to Markdown format
func (e *MarkdownExporter) Export(state *internal.ConversationState, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# AI Workspace Conversation\n\n")
	_, _ = fmt.Fprintf(w, "**Messages:** %d  \n", len(state.Messages))

	if state.LastQuery != "" {
		_, _ = fmt.Fprintf(w, "**Last query:** %s  \n", state.LastQuery)
	}
	if len(state.TagSuggestions) > 0 {
		_, _ = fmt.Fprintf(w, "**Tag suggestions:** %s  \n", strings.Join(state.TagSuggestions, ", "))
	}

	_, _ = fmt.Fprintf(w, "\n---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range state.Messages {
		timestamp := ""
		if msg.Timestamp > 0 {
			timestamp = fmt.Sprintf(" (%s)", msg.GetTimestamp().UTC().Format(time.RFC3339))
		}

		kind := ""
		if msg.Type != internal.DefaultMessageType {
			kind = fmt.Sprintf(" [%s]", msg.Type)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s%s\n\n%s\n\n", msg.Role, kind, timestamp, escapeMarkdown(msg.Content))

		if i < len(state.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
