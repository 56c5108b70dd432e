package cmd

import (
	"bytes"
	"testing"

	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
)

// resetFlags restores every flag variable to its default. Cobra keeps flag
// values between Execute calls on the shared rootCmd.
func resetFlags() {
	verbose = false
	storagePath = ""
	configPath = ""
	backendName = ""

	loginToken, loginUser, loginServer, loginIdentifier, loginPassword = "", "", "", "", ""
	registerEmail, registerUsername = "", ""

	limit = 0
	since = ""
	messageType = internal.DefaultMessageType
	renderMarkdown = false
	forceOverwrite = false

	format = "jsonl"
	outputDir = "./exports"
	toStdout = false

	inspectFormat = "text"
	inspectPreview = 400
	healthcheckVerbose = false

	resetBuiltinFlags(rootCmd)
}

// resetBuiltinFlags clears the --help and --version flags cobra adds lazily
func resetBuiltinFlags(c *cobra.Command) {
	for _, name := range []string{"help", "version"} {
		if f := c.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
		}
	}
	for _, sub := range c.Commands() {
		resetBuiltinFlags(sub)
	}
}

// execute runs the CLI against dataDir and returns its stdout
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--storage", dataDir}, args...))

	err := rootCmd.Execute()
	return stdout.String(), err
}

// mustExecute is execute that fails the test on error
func mustExecute(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := execute(t, dataDir, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\noutput:\n%s", args, err, out)
	}
	return out
}
