package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands. Empty values fall back
// to the config file.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	SchemaPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the mshdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mshdb",
		Short: "mshdb - multi-sheet subject database",
		Long: `Keep a workbook of per-subject sheets consistent.

Every sheet of a dataset is keyed by subject and session. mshdb checks
that all sheets hold the same roster, merges new subjects into every
sheet, removes and relabels subjects everywhere at once, and joins
columns across sheets into one flat table.

The dataset layout comes from a CUE schema file (--schema, default
schema.cue) or from a [dataset] table in mshdb.toml / mshdb.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "" && !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)
				return NewExitError(ExitCommandError, msg)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text), default from config")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./mshdb.{toml,yaml})")
	cmd.PersistentFlags().StringVar(&opts.SchemaPath, "schema", "", "CUE schema file")

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
