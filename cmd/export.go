package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/gallery-session/internal"
	"github.com/iksnae/gallery-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	toStdout  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the AI workspace conversation to a file",
	Long: `Export the assistant conversation, tag suggestions and last query to
one of jsonl, md, yaml or json.

The file is written to <out>/conversation.<ext>; --stdout prints it instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fail on a bad format before touching storage
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		return withConversation(cmd, readConversation, func(store *internal.ConversationStore) error {
			state := store.Snapshot()

			if toStdout {
				if err := exporter.Export(&state, cmd.OutOrStdout()); err != nil {
					return &internal.ExportError{Format: format, Path: "-", Err: err}
				}
				return nil
			}

			path := filepath.Join(outputDir, "conversation."+exporter.Extension())
			steps := []internal.ProgressStep{
				{
					Message: "Preparing output directory",
					Fn: func() error {
						if err := os.MkdirAll(outputDir, 0755); err != nil {
							return fmt.Errorf("failed to create output directory: %w", err)
						}
						return nil
					},
				},
				{
					Message: fmt.Sprintf("Exporting %d message(s) to %s", len(state.Messages), path),
					Fn: func() error {
						return writeExport(exporter, &state, path)
					},
				},
			}
			if err := internal.ShowProgressWithSteps(commandContext(cmd), steps); err != nil {
				return err
			}

			internal.PrintSuccess(fmt.Sprintf("Export complete: %s", path))
			return nil
		})
	},
}

func writeExport(exporter export.Exporter, state *internal.ConversationState, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := exporter.Export(state, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to standard output instead of a file")
}
