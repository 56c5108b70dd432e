package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	limit          int
	since          string
	messageType    string
	renderMarkdown bool
	forceOverwrite bool
)

var (
	// Styles for chat show
	chatHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	chatMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	aiMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// chatCmd groups the AI workspace conversation commands
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Show and edit the AI workspace conversation",
	Long: `Show and edit the assistant conversation kept on the gallery page.

The conversation lives on the gallery page, so every chat command first
navigates there; without a usable credential the command stops and points
at 'gallery-session login'. Edits are written back to storage immediately.

A stored conversation that cannot be loaded (corrupt, or written with a
different schema version) is shown as a fresh conversation but never
overwritten by an edit. Run 'chat reset' or 'chat clear' to replace it, or
pass --force to edit on top of the fresh conversation.`,
}

var chatShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConversation(cmd, readConversation, func(store *internal.ConversationStore) error {
			messages := store.Messages()

			if since != "" {
				sinceTime, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
				}
				filtered := make([]internal.Message, 0, len(messages))
				for _, msg := range messages {
					if !msg.GetTimestamp().Before(sinceTime) {
						filtered = append(filtered, msg)
					}
				}
				messages = filtered
			}

			out := cmd.OutOrStdout()
			displayConversationHeader(out, store)

			// Newest messages are the interesting ones
			total := len(messages)
			if limit > 0 && limit < total {
				fmt.Fprintln(out, timestampStyle.Render(fmt.Sprintf("... (%d earlier message(s))", total-limit)))
				fmt.Fprintln(out)
				messages = messages[total-limit:]
			}

			var renderer *glamour.TermRenderer
			if renderMarkdown {
				r, err := glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(80),
				)
				if err != nil {
					internal.LogWarn("Markdown rendering unavailable: %v", err)
				} else {
					renderer = r
				}
			}

			offset := total - len(messages)
			for i, msg := range messages {
				displayMessage(out, offset+i+1, msg, total, renderer)
			}
			return nil
		})
	},
}

var chatSayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Append a user message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return appendMessage(cmd, internal.RoleUser, strings.Join(args, " "))
	},
}

var chatReplyCmd = &cobra.Command{
	Use:   "reply <text>",
	Short: "Append an assistant message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return appendMessage(cmd, internal.RoleAI, strings.Join(args, " "))
	},
}

var chatRemoveCmd = &cobra.Command{
	Use:   "remove <message-id>",
	Short: "Remove a message by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConversation(cmd, editConversation, func(store *internal.ConversationStore) error {
			if !store.RemoveMessage(args[0]) {
				return fmt.Errorf("message not found: %s (use 'gallery-session chat show' to see ids)", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed message %s\n", args[0])
			return nil
		})
	},
}

var chatResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the greeting and clear tags and query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConversation(cmd, replaceConversation, func(store *internal.ConversationStore) error {
			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation reset")
			return nil
		})
	},
}

var chatClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every message, tag and query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConversation(cmd, replaceConversation, func(store *internal.ConversationStore) error {
			if err := store.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared")
			return nil
		})
	},
}

var chatTagsCmd = &cobra.Command{
	Use:   "tags [tag...]",
	Short: "Replace the tag suggestions (no arguments clears them)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConversation(cmd, editConversation, func(store *internal.ConversationStore) error {
			store.SetTagSuggestions(args)
			fmt.Fprintf(cmd.OutOrStdout(), "Tag suggestions: %s\n", strings.Join(store.TagSuggestions(), ", "))
			return nil
		})
	},
}

var chatQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Set the last search query (no arguments clears it)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConversation(cmd, editConversation, func(store *internal.ConversationStore) error {
			store.SetLastQuery(strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "Last query: %q\n", store.LastQuery())
			return nil
		})
	},
}

var chatImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the conversation with messages from a JSON or YAML file",
	Long: `Replace the conversation with the messages in file.

The file holds either a list of messages or an object with a "messages"
list. Records are normalized: unknown roles become the assistant, missing
ids, types and timestamps are filled in, non-records are dropped. Only the
newest 200 messages are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := readMessageFile(args[0])
		if err != nil {
			return err
		}
		return withConversation(cmd, editConversation, func(store *internal.ConversationStore) error {
			store.SetMessages(list)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d message(s)\n", len(store.Messages()))
			return nil
		})
	},
}

// conversationMode says how a chat command treats the stored conversation
type conversationMode int

const (
	readConversation    conversationMode = iota // never writes
	editConversation                            // persists after fn
	replaceConversation                         // fn overwrites the stored state itself
)

// withConversation opens storage, checks that the gallery page is reachable,
// hydrates the store and runs fn. Stored state that failed to load is never
// overwritten by an edit unless --force is given.
func withConversation(cmd *cobra.Command, mode conversationMode, fn func(store *internal.ConversationStore) error) error {
	env, err := openEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()

	if err := requireWorkspaceAccess(env); err != nil {
		return err
	}

	store := env.conversation()
	if err := store.Hydrate(); err != nil {
		switch {
		case mode == editConversation && !forceOverwrite:
			return fmt.Errorf("stored conversation was not loaded: %w; run 'gallery-session chat reset' to replace it or retry with --force", err)
		case mode == editConversation:
			internal.PrintWarning(fmt.Sprintf("Overwriting stored conversation that failed to load: %v", err))
		case mode == readConversation:
			internal.PrintWarning(fmt.Sprintf("Showing a fresh conversation; the stored one was not loaded: %v", err))
		}
	}

	if err := fn(store); err != nil {
		return err
	}
	if mode == editConversation {
		return internal.ShowProgress(commandContext(cmd), "Saving conversation", store.Persist)
	}
	return nil
}

// requireWorkspaceAccess navigates to the home page, where the workspace lives
func requireWorkspaceAccess(env *environment) error {
	_, action, err := env.navigate(env.config.HomePath)
	if err != nil {
		return err
	}
	if action.Kind != internal.ActionAllow {
		return fmt.Errorf("not signed in (guard: %s to %s); run 'gallery-session login' first",
			action.Kind, env.guard().Location(action))
	}
	return nil
}

func appendMessage(cmd *cobra.Command, role internal.Role, content string) error {
	return withConversation(cmd, editConversation, func(store *internal.ConversationStore) error {
		msg, _ := store.PushMessage(internal.Message{Role: role, Type: messageType, Content: content})
		fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
		return nil
	})
}

// readMessageFile decodes a message list from a JSON or YAML file
func readMessageFile(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v["messages"].([]any); ok {
			return list, nil
		}
	}
	return nil, fmt.Errorf("%s holds no message list", path)
}

func displayConversationHeader(w io.Writer, store *internal.ConversationStore) {
	fmt.Fprintln(w, chatHeaderStyle.Render("💬 AI Workspace"))

	metaParts := []string{fmt.Sprintf("Messages: %d", len(store.Messages()))}
	if q := store.LastQuery(); q != "" {
		metaParts = append(metaParts, fmt.Sprintf("Last query: %s", q))
	}
	if tags := store.TagSuggestions(); len(tags) > 0 {
		metaParts = append(metaParts, fmt.Sprintf("Tags: %s", strings.Join(tags, ", ")))
	}
	fmt.Fprintln(w, chatMetaStyle.Render(strings.Join(metaParts, " • ")))
	fmt.Fprintln(w)
}

// displayMessage prints one message. Assistant replies go through renderer
// when it is set.
func displayMessage(w io.Writer, index int, msg internal.Message, total int, renderer *glamour.TermRenderer) {
	var actorStyle lipgloss.Style
	var actorLabel string

	switch msg.Role {
	case internal.RoleUser:
		actorStyle = userMessageStyle
		actorLabel = "👤 User"
	default:
		actorStyle = aiMessageStyle
		actorLabel = "🤖 Assistant"
	}

	header := actorStyle.Render(actorLabel) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	header += " " + timestampStyle.Render(msg.GetTimestamp().Format("2006-01-02 15:04:05"))
	if msg.Type != internal.DefaultMessageType {
		header += " " + timestampStyle.Render(msg.Type)
	}
	header += " " + timestampStyle.Render(msg.ID)
	fmt.Fprintln(w, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" && renderer != nil && msg.Role == internal.RoleAI {
		if rendered, err := renderer.Render(content); err == nil {
			fmt.Fprint(w, rendered)
			return
		}
	}
	if content != "" {
		fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	fmt.Fprintln(w)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+len(word)+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatShowCmd, chatSayCmd, chatReplyCmd, chatRemoveCmd,
		chatResetCmd, chatClearCmd, chatTagsCmd, chatQueryCmd, chatImportCmd)

	chatCmd.PersistentFlags().BoolVar(&forceOverwrite, "force", false, "Let edits overwrite stored state that failed to load")
	chatShowCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the newest N messages")
	chatShowCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	chatShowCmd.Flags().BoolVar(&renderMarkdown, "render", false, "Render assistant replies as Markdown")
	chatSayCmd.Flags().StringVar(&messageType, "type", internal.DefaultMessageType, "Message type")
	chatReplyCmd.Flags().StringVar(&messageType, "type", internal.DefaultMessageType, "Message type")
}
