package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that client state can be stored and loaded",
	Long: `Check the health of gallery-session by verifying:
  • Storage path detection and configuration
  • Storage backend access (write, read, remove)
  • Credential state
  • Conversation state loading

This command is useful for debugging storage issues, especially in CI/CD environments.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Gallery Session Health Check"))
		fmt.Fprintln(out)

		// Step 1: storage paths and config
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		env, err := openEnvironment()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open storage:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer env.Close()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Using %s storage", env.config.Backend)))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Data directory: %s\n", env.config.DataDir)
			fmt.Fprintf(out, "   Config file: %s\n", env.paths.ConfigPath)
			fmt.Fprintf(out, "   Login page: %s, home page: %s\n", env.config.LoginPath, env.config.HomePath)
		}
		fmt.Fprintln(out)

		// Step 2: round-trip a throwaway value
		fmt.Fprintln(out, infoStyle.Render("Step 2: Testing storage access..."))
		if err := roundTripSlot(env.slot); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Storage round-trip failed:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Storage write, read and remove succeeded"))
		fmt.Fprintln(out)

		// Step 3: credential
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking credential..."))
		reportCredential(out, env.session())
		fmt.Fprintln(out)

		// Step 4: conversation state
		fmt.Fprintln(out, infoStyle.Render("Step 4: Loading conversation state..."))
		store := env.conversation()
		hydrateErr := store.Hydrate()
		switch {
		case hydrateErr == nil:
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Conversation loaded (%d message(s))", len(store.Messages()))))
		case errors.Is(hydrateErr, internal.ErrSchemaMismatch):
			fmt.Fprintln(out, warningStyle.Render("⚠️  Stored conversation has a different schema version; chat edits are refused until 'chat reset'"))
		case errors.Is(hydrateErr, internal.ErrCorruptState):
			fmt.Fprintln(out, warningStyle.Render("⚠️  Stored conversation is corrupt; chat edits are refused until 'chat reset'"))
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to read conversation:"), hydrateErr)
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if hydrateErr != nil && !errors.Is(hydrateErr, internal.ErrSchemaMismatch) && !errors.Is(hydrateErr, internal.ErrCorruptState) {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed: %w", hydrateErr)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// roundTripSlot writes, reads back and removes a throwaway key
func roundTripSlot(slot internal.Slot) error {
	key := "healthcheck_" + uuid.NewString()
	want := time.Now().UTC().Format(time.RFC3339Nano)

	if err := slot.Set(key, want); err != nil {
		return err
	}
	got, ok, err := slot.Get(key)
	if err != nil {
		return err
	}
	if !ok || got != want {
		return fmt.Errorf("read back %q, want %q", got, want)
	}
	if err := slot.Remove(key); err != nil {
		return err
	}
	if _, ok, err := slot.Get(key); err != nil || ok {
		return fmt.Errorf("check key still present after remove (err: %v)", err)
	}
	return nil
}

func reportCredential(out io.Writer, session *internal.AuthSession) {
	token := session.Token()
	if token == "" {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Not signed in; guarded pages redirect to login"))
		return
	}
	if internal.IsCredentialUsable(token, time.Now()) {
		fmt.Fprintln(out, successStyle.Render("✅ Signed in with a usable credential"))
		return
	}
	fmt.Fprintln(out, warningStyle.Render("⚠️  Stored credential is expired or malformed; it is cleared on the next guarded navigation"))
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "details", "d", false, "Show detailed diagnostic information")
}
