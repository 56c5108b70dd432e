package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat  string
	inspectPreview int
)

// keyLister is implemented by backends that can enumerate their keys
type keyLister interface {
	Keys() ([]string, error)
}

// SlotEntry describes one stored key for inspect output
type SlotEntry struct {
	Key     string         `json:"key"`
	Size    int            `json:"size"`
	Claims  map[string]any `json:"claims,omitempty"`
	Preview string         `json:"preview,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the raw stored client state",
	Long: `Inspect the keys held by the storage backend.

The credential is never printed; its decoded claims are shown instead.
Other values are shown as a preview, JSON values pretty-printed.

Examples:
  gallery-session inspect                      # Inspect the configured backend
  gallery-session inspect --format json        # Machine-readable output
  gallery-session inspect --preview 0          # Sizes only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := inspectSlot(env.slot, env.config.StateKey, inspectPreview)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		case "text":
			printEntries(out, env.config.Backend, entries)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	},
}

// inspectSlot collects the stored entries. Backends that cannot list their
// keys are looked up by name.
func inspectSlot(slot internal.Slot, stateKey string, preview int) ([]SlotEntry, error) {
	keys := []string{internal.CredentialKey, stateKey}
	if lister, ok := slot.(keyLister); ok {
		listed, err := lister.Keys()
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}
		keys = listed
	}

	entries := make([]SlotEntry, 0, len(keys))
	for _, key := range keys {
		value, ok, err := slot.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		entry := SlotEntry{Key: key, Size: len(value)}
		if key == internal.CredentialKey {
			if claims, err := internal.DecodeClaims(value); err == nil {
				entry.Claims = claims
			} else {
				entry.Preview = "<malformed credential>"
			}
		} else if preview > 0 {
			entry.Preview = previewValue(value, preview)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// previewValue pretty-prints JSON values and truncates to max bytes
func previewValue(value string, max int) string {
	var doc any
	if json.Unmarshal([]byte(value), &doc) == nil {
		if pretty, err := json.MarshalIndent(doc, "", "  "); err == nil {
			value = string(pretty)
		}
	}
	if len(value) > max {
		value = value[:max] + "..."
	}
	return value
}

func printEntries(w io.Writer, backend string, entries []SlotEntry) {
	fmt.Fprintf(w, "📋 Backend: %s\n", backend)
	fmt.Fprintf(w, "📊 Found %d key(s)\n\n", len(entries))

	for _, entry := range entries {
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(w, "📦 Key: %s (%d bytes)\n", entry.Key, entry.Size)
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

		if entry.Claims != nil {
			data, _ := json.MarshalIndent(entry.Claims, "  ", "  ")
			fmt.Fprintf(w, "  claims: %s\n", data)
		}
		if entry.Preview != "" {
			for _, line := range strings.Split(entry.Preview, "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectPreview, "preview", 400, "Maximum preview length per value (0 hides values)")
}
