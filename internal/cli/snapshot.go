package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/logger"
	"github.com/roach88/mshdb/internal/mshdb"
	"github.com/roach88/mshdb/internal/store"
)

// SnapshotOptions holds flags for export, import and snapshots.
type SnapshotOptions struct {
	*RootOptions
	Database string
	Name     string
	Output   string
}

// SnapshotView is the JSON form of a stored snapshot.
type SnapshotView struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	MainSheet   string `json:"main_sheet"`
	Seq         int64  `json:"seq"`
	Sheets      int    `json:"sheets"`
	Rows        int    `json:"rows"`
}

func viewSnapshot(s store.Snapshot) SnapshotView {
	return SnapshotView(s)
}

func addStoreFlags(cmd *cobra.Command, opts *SnapshotOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "snapshot database (default from config store.path)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "snapshot name (default from config store.snapshot)")
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <workbook>",
		Short: "Save a workbook as a named SQLite snapshot",
		Long: `Load a workbook and store it as a named snapshot in a SQLite
database, replacing any snapshot with the same name.

Example:
  mshdb export study.xlsx --db study.sqlite --name week12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}
	addStoreFlags(cmd, opts)
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Write a stored snapshot back to a workbook",
		Long: `Load a named snapshot from a SQLite database, check it against the
schema and write it to --output as a workbook.

Example:
  mshdb import --db study.sqlite --name week12 -o week12.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd)
		},
	}
	addStoreFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "path of the workbook to write (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// NewSnapshotsCommand creates the snapshots command.
func NewSnapshotsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshots(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", "snapshot database (default from config store.path)")
	return cmd
}

// openStore opens the snapshot database and fills defaults from config.
func (s *session) openStore(opts *SnapshotOptions) (*store.Store, error) {
	if opts.Database == "" {
		opts.Database = s.cfg.Store.Path
	}
	if opts.Name == "" {
		opts.Name = s.cfg.Store.Snapshot
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, s.commandError("failed to open snapshot database", err)
	}
	return st, nil
}

func runExport(opts *SnapshotOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	schema, err := s.schema()
	if err != nil {
		return err
	}
	db, err := s.open(path, schema)
	if err != nil {
		return err
	}

	st, err := s.openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.SaveSnapshot(commandContext(cmd), opts.Name, db.Sheets())
	if err != nil {
		return s.commandError("failed to save snapshot", err)
	}
	s.log.Info("snapshot saved",
		zap.String(logger.FieldSnapshot, snap.Name),
		zap.Int(logger.FieldRows, snap.Rows))

	return s.success(viewSnapshot(snap), func() error {
		s.out.Done("snapshot %q (seq %d): %d sheets, %d rows in %s",
			snap.Name, snap.Seq, snap.Sheets, snap.Rows, opts.Database)
		return nil
	})
}

func runImport(opts *SnapshotOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	schema, err := s.schema()
	if err != nil {
		return err
	}

	st, err := s.openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	set, err := st.LoadSnapshot(commandContext(cmd), opts.Name)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return s.commandError("unknown snapshot", err)
	}
	if err != nil {
		return s.commandError("failed to load snapshot", err)
	}
	db, err := mshdb.New(schema, set, mshdb.WithLogger(s.log))
	if err != nil {
		return s.fail("snapshot does not match schema", err)
	}
	if err := s.save(opts.Output, db); err != nil {
		return err
	}

	return s.success(EditResult{Before: len(db.Subjects()), After: len(db.Subjects()), Output: opts.Output}, func() error {
		s.out.Done("snapshot %q: %d subjects, wrote %s", opts.Name, len(db.Subjects()), opts.Output)
		return nil
	})
}

func runSnapshots(opts *SnapshotOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	st, err := s.openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	snaps, err := st.ListSnapshots(commandContext(cmd))
	if err != nil {
		return s.commandError("failed to list snapshots", err)
	}
	views := make([]SnapshotView, len(snaps))
	rows := make([][]string, len(snaps))
	for i, snap := range snaps {
		views[i] = viewSnapshot(snap)
		rows[i] = []string{
			snap.Name,
			strconv.FormatInt(snap.Seq, 10),
			snap.MainSheet,
			strconv.Itoa(snap.Sheets),
			strconv.Itoa(snap.Rows),
			snap.Fingerprint[:min(12, len(snap.Fingerprint))],
		}
	}

	return s.success(views, func() error {
		if len(snaps) == 0 {
			s.out.Warn("no snapshots in %s", opts.Database)
			return nil
		}
		return s.out.Table([]string{"name", "seq", "main", "sheets", "rows", "fingerprint"}, rows)
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
