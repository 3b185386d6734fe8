package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/logger"
	"github.com/roach88/mshdb/internal/mshdb"
	"github.com/roach88/mshdb/internal/subject"
)

// EditOptions holds flags shared by remove and rename.
type EditOptions struct {
	*RootOptions
	Output   string
	Subjects []string // remove: label#session keys
	Mapping  []string // rename: OLD=NEW pairs
}

// EditResult describes a completed remove or rename.
type EditResult struct {
	Before int    `json:"before"`
	After  int    `json:"after"`
	Output string `json:"output"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <workbook>",
		Short: "Remove subjects from every sheet",
		Long: `Remove the given subjects from every sheet and write the result to
--output. Keys the workbook does not hold are ignored.

Example:
  mshdb remove study.xlsx --subject P07#1 --subject P07#2 -o study.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "path of the edited workbook (required)")
	cmd.Flags().StringArrayVar(&opts.Subjects, "subject", nil, "subject key as label#session (repeatable)")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rename <workbook>",
		Short: "Relabel subjects in every sheet",
		Long: `Relabel subjects in every sheet, keeping sessions, and write the
result to --output. The rename fails as a whole if any sheet would end up
with two rows for one subject.

Example:
  mshdb rename study.xlsx --map P7=P07 --map P8=P08 -o study.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "path of the edited workbook (required)")
	cmd.Flags().StringArrayVar(&opts.Mapping, "map", nil, "OLD=NEW label pair (repeatable)")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("map")

	return cmd
}

func runRemove(opts *EditOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	keys, err := parseSubjects(opts.Subjects)
	if err != nil {
		return s.commandError("invalid --subject", err)
	}
	return s.edit(path, opts.Output, func(db *mshdb.Database) (*mshdb.Database, error) {
		s.log.Info("removing subjects", zap.Strings(logger.FieldSubjects, keys.IDs()))
		return db.RemoveSubjects(keys, mshdb.Options{})
	})
}

func runRename(opts *EditOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	mapping, err := parseMapping(opts.Mapping)
	if err != nil {
		return s.commandError("invalid --map", err)
	}
	return s.edit(path, opts.Output, func(db *mshdb.Database) (*mshdb.Database, error) {
		s.log.Info("renaming subjects", zap.Int(logger.FieldSubjects, len(mapping)))
		return db.RenameSubjects(mapping, mshdb.Options{})
	})
}

// edit loads path, applies change and saves the result to output.
func (s *session) edit(path, output string, change func(*mshdb.Database) (*mshdb.Database, error)) error {
	schema, err := s.schema()
	if err != nil {
		return err
	}
	db, err := s.open(path, schema)
	if err != nil {
		return err
	}
	next, err := change(db)
	if err != nil {
		return s.fail("edit rejected", err)
	}
	if err := s.save(output, next); err != nil {
		return err
	}

	result := EditResult{Before: len(db.Subjects()), After: len(next.Subjects()), Output: output}
	return s.success(result, func() error {
		s.out.Done("%d subjects -> %d subjects, wrote %s", result.Before, result.After, result.Output)
		return nil
	})
}

func parseSubjects(ids []string) (subject.KeyList, error) {
	keys := make(subject.KeyList, 0, len(ids))
	for _, id := range ids {
		k, err := subject.ParseKey(id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func parseMapping(pairs []string) (map[string]string, error) {
	mapping := make(map[string]string, len(pairs))
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, "=")
		from = strings.TrimSpace(from)
		if !ok || from == "" {
			return nil, errors.Newf("invalid mapping %q: want OLD=NEW", p)
		}
		if _, dup := mapping[from]; dup {
			return nil, errors.Newf("label %q mapped twice", from)
		}
		mapping[from] = strings.TrimSpace(to)
	}
	return mapping, nil
}
