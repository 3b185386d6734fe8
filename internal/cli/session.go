package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/compiler"
	"github.com/roach88/mshdb/internal/config"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/logger"
	"github.com/roach88/mshdb/internal/mshdb"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/workbook"
)

// session is the per-invocation state of a dataset command: resolved
// configuration, output formatter and a logger tagged with a run id.
type session struct {
	opts  *RootOptions
	cfg   *config.Config
	out   *OutputFormatter
	log   *zap.Logger
	runID string
}

// newSession loads configuration and initializes logging. Flags given on
// the command line win over the config file and environment.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Verbose {
		cfg.Log.Verbose = true
	}
	if opts.Format != "" {
		cfg.Output.Format = opts.Format
	}
	if opts.SchemaPath != "" {
		cfg.Schema = opts.SchemaPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Verbose); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}

	// UUIDv7 run ids sort by start time across log files.
	runID := uuid.Must(uuid.NewV7()).String()
	s := &session{
		opts: opts,
		cfg:  cfg,
		out: &OutputFormatter{
			Format:    cfg.Output.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   cfg.Log.Verbose,
		},
		log:   logger.Named(cmd.Name()).With(zap.String(logger.FieldRunID, runID)),
		runID: runID,
	}
	s.log.Debug("command started", zap.String(logger.FieldCommand, cmd.CommandPath()))
	return s, nil
}

// schema resolves the dataset schema. An explicit --schema file wins,
// then the config's inline dataset, then the configured schema file.
func (s *session) schema() (sheets.Schema, error) {
	if s.opts.SchemaPath == "" && s.cfg.HasDataset() {
		schema, err := s.cfg.DatasetSchema()
		if err != nil {
			return sheets.Schema{}, s.commandError("invalid dataset in config", err)
		}
		s.log.Debug("schema from config", zap.Strings(logger.FieldSheets, schema.Sheets))
		return schema, nil
	}

	path := s.cfg.Schema
	if _, err := os.Stat(path); err != nil {
		return sheets.Schema{}, s.commandError(fmt.Sprintf("schema file not found: %s", path),
			errors.WithHint(err, "pass --schema or add a [dataset] table to the config file"))
	}
	schema, err := compiler.LoadSchemaFile(path)
	if err != nil {
		return sheets.Schema{}, s.commandError("failed to compile schema", err)
	}
	s.log.Debug("schema compiled",
		zap.String(logger.FieldFile, path),
		zap.Strings(logger.FieldSheets, schema.Sheets))
	return schema, nil
}

// open loads a complete workbook into a Database.
func (s *session) open(path string, schema sheets.Schema) (*mshdb.Database, error) {
	set, err := workbook.Load(path, schema)
	if err != nil {
		return nil, s.fail("failed to load workbook", err)
	}
	db, err := mshdb.New(schema, set, mshdb.WithLogger(s.log))
	if err != nil {
		return nil, s.fail(fmt.Sprintf("workbook %s", path), err)
	}
	s.log.Info("workbook loaded",
		zap.String(logger.FieldFile, path),
		zap.Int(logger.FieldSubjects, len(db.Subjects())))
	return db, nil
}

// save writes db to path as a workbook.
func (s *session) save(path string, db *mshdb.Database) error {
	if err := workbook.Save(path, db.Sheets(), db.Schema()); err != nil {
		return s.commandError("failed to save workbook", err)
	}
	s.log.Info("workbook saved", zap.String(logger.FieldFile, path))
	return nil
}

// fail reports err and picks the exit code: errors carrying a dataset
// code are failures, anything else is a command error.
func (s *session) fail(message string, err error) error {
	code := string(errors.CodeOf(err))
	if code == "" {
		return s.commandError(message, err)
	}
	s.report(code, message, err)
	return WrapExitError(ExitFailure, message, err)
}

func (s *session) commandError(message string, err error) error {
	s.report(ErrCodeGeneric, message, err)
	return WrapExitError(ExitCommandError, message, err)
}

func (s *session) report(code, message string, err error) {
	var details any
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		details = hints
	}
	_ = s.out.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	s.log.Debug(message, zap.String(logger.FieldErrorCode, code), zap.Error(err))
}

// success prints data as JSON, or runs text otherwise.
func (s *session) success(data any, text func() error) error {
	if s.out.JSON() {
		return writeJSON(s.out.Writer, CLIResponse{Status: "ok", Data: data, RunID: s.runID})
	}
	return text()
}
