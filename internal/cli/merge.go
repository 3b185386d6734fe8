package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/logger"
	"github.com/roach88/mshdb/internal/mshdb"
	"github.com/roach88/mshdb/internal/workbook"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Output       string
	AllowPartial bool
}

// MergeResult describes a completed merge.
type MergeResult struct {
	Added    int      `json:"added"`
	Subjects int      `json:"subjects"`
	Keys     []string `json:"keys"`
	Output   string   `json:"output"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge <workbook> <incoming>",
		Short: "Add new subjects to every sheet",
		Long: `Merge the subjects of an incoming workbook into every sheet of a
dataset workbook and write the result to --output.

The incoming workbook may hold any subset of the schema sheets. Sheets it
lacks receive a default row per new subject. No incoming subject may
already exist in the dataset. Unless --allow-partial is given, the
incoming sheets must agree on their roster.

Example:
  mshdb merge study.xlsx week12.xlsx -o study.xlsx
  mshdb merge study.xlsx labs-only.xlsx -o merged.xlsx --allow-partial`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "path of the merged workbook (required)")
	cmd.Flags().BoolVar(&opts.AllowPartial, "allow-partial", false, "accept incoming sheets with differing rosters")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runMerge(opts *MergeOptions, dest, incomingPath string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	schema, err := s.schema()
	if err != nil {
		return err
	}
	db, err := s.open(dest, schema)
	if err != nil {
		return err
	}

	incoming, err := workbook.LoadIncoming(incomingPath, schema)
	if err != nil {
		return s.fail("failed to load incoming workbook", err)
	}
	s.out.VerboseLog("incoming sheets: %v", incoming.Names())

	next, err := db.AddNewSubjects(incoming, mshdb.MergeOptions{AllowPartial: opts.AllowPartial})
	if err != nil {
		return s.fail("merge rejected", err)
	}
	if err := s.save(opts.Output, next); err != nil {
		return err
	}

	keys := incoming.AllSubjects()
	result := MergeResult{
		Added:    len(keys),
		Subjects: len(next.Subjects()),
		Keys:     keys.IDs(),
		Output:   opts.Output,
	}
	s.log.Info("merged subjects",
		zap.Int(logger.FieldSubjects, result.Added),
		zap.String(logger.FieldFile, opts.Output))

	return s.success(result, func() error {
		s.out.Done("added %d subjects (%d total), wrote %s", result.Added, result.Subjects, result.Output)
		return nil
	})
}
