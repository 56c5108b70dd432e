package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	configPath  string
	backendName string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gallery-session",
	Short: "Manage the gallery client session and AI workspace history",
	Long: `A CLI for the photo gallery client's local state.

It holds the sign-in credential, decides what each page navigation is
allowed to do, and keeps the AI assistant's conversation history across
restarts.

Features:
  • Sign in with a bearer token or against the server's login endpoint
  • Check any route against the navigation guard
  • Inspect and edit the persisted assistant conversation
  • Export the conversation (JSONL, Markdown, YAML, JSON)
  • SQLite, Badger or in-memory state storage

Quick Start:
  gallery-session login --token <jwt>     # Store a credential
  gallery-session navigate /images/42     # Where would this navigation land?
  gallery-session chat show               # Show the assistant conversation
  gallery-session export --format md      # Export it as Markdown`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		internal.SyncLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// environment is the opened client state shared by the subcommands
type environment struct {
	paths  internal.StoragePaths
	config internal.Config
	slot   internal.Slot
	closer io.Closer
}

// openEnvironment resolves paths and config from the persistent flags and
// opens the configured slot backend
func openEnvironment() (*environment, error) {
	paths, err := internal.GetStoragePaths(storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage paths: %w", err)
	}

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = paths.ConfigPath
	}

	cfg, err := internal.LoadConfig(cfgPath, paths.DataDir)
	if err != nil {
		var cfgErr *internal.ConfigError
		if !errors.As(err, &cfgErr) {
			return nil, err
		}
		internal.LogWarn("Ignoring config: %v", err)
	}
	if backendName != "" {
		cfg.Backend = backendName
	}

	slot, closer, err := internal.OpenSlot(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	internal.LogDebug("Opened %s storage in %s", cfg.Backend, cfg.DataDir)

	return &environment{paths: paths, config: cfg, slot: slot, closer: closer}, nil
}

func (e *environment) Close() {
	if err := e.closer.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

func (e *environment) router() *internal.Router {
	return internal.NewDefaultRouter(e.config.HomePath)
}

func (e *environment) guard() *internal.Guard {
	return internal.NewGuard(e.slot, internal.WithGuardPaths(e.config.LoginPath, e.config.HomePath))
}

func (e *environment) session() *internal.AuthSession {
	return internal.NewAuthSession(e.slot)
}

func (e *environment) conversation() *internal.ConversationStore {
	return internal.NewConversationStore(e.slot, internal.WithStateKey(e.config.StateKey))
}

// navigate resolves path and runs it through the guard
func (e *environment) navigate(path string) (internal.Target, internal.Action, error) {
	target, err := e.router().Resolve(path)
	if err != nil {
		return internal.Target{}, internal.Action{}, err
	}
	return target, e.guard().Evaluate(target), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <storage>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Storage backend override (sqlite, badger, memory)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
