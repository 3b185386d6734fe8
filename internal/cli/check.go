package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/compiler"
	"github.com/roach88/mshdb/internal/logger"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/workbook"
)

// CheckResult is the outcome of the check command.
type CheckResult struct {
	Valid      bool                       `json:"valid"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Subjects   int                        `json:"subjects"`
	Main       string                     `json:"main,omitempty"`
	Consistent bool                       `json:"consistent"`
	Sheets     []SheetStatus              `json:"sheets,omitempty"`
}

// SheetStatus is the roster comparison of one sheet.
type SheetStatus struct {
	Name      string   `json:"name"`
	Rows      int      `json:"rows"`
	Missing   []string `json:"missing,omitempty"`
	NotInMain []string `json:"not_in_main,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <workbook>",
		Short: "Validate the schema and report roster consistency",
		Long: `Validate the dataset schema, load the workbook and compare the
subjects of every sheet with the union of all sheets and with the main
sheet.

Exit codes:
  0 - Schema valid and every sheet holds every subject
  1 - Schema errors, or sheets disagree on their roster (unless the
      schema sets allow_diff)
  2 - Command error (unreadable schema or workbook)

Examples:
  mshdb check study.xlsx
  mshdb check study.xlsx --schema study.cue --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	schema, err := s.schema()
	if err != nil {
		return err
	}

	if errs := compiler.Validate(schema); len(errs) > 0 {
		return outputSchemaErrors(s, errs)
	}

	set, err := workbook.Load(path, schema)
	if err != nil {
		return s.fail("failed to load workbook", err)
	}

	report := set.Consistency()
	result := checkResult(set, report)
	s.log.Info("checked workbook",
		zap.String(logger.FieldFile, path),
		zap.Int(logger.FieldSubjects, report.Subjects),
		zap.Strings(logger.FieldSheets, report.Inconsistent()))

	if err := s.success(result, func() error {
		rows := make([][]string, len(result.Sheets))
		for i, sh := range result.Sheets {
			rows[i] = []string{sh.Name, strconv.Itoa(sh.Rows), joinIDs(sh.Missing), joinIDs(sh.NotInMain)}
		}
		if err := s.out.Table([]string{"sheet", "rows", "missing", "not in main"}, rows); err != nil {
			return err
		}
		if result.Consistent {
			s.out.Done("%d subjects, all sheets consistent (main sheet %q)", result.Subjects, result.Main)
		} else {
			s.out.Warn("%d subjects, inconsistent sheets: %v", result.Subjects, report.Inconsistent())
		}
		return nil
	}); err != nil {
		return err
	}

	if !result.Consistent && !schema.AllowDiff {
		return NewExitError(ExitFailure, fmt.Sprintf("inconsistent sheets: %v", report.Inconsistent()))
	}
	return nil
}

func checkResult(set *sheets.SheetSet, report sheets.Report) CheckResult {
	result := CheckResult{
		Valid:      true,
		Subjects:   report.Subjects,
		Main:       report.Main,
		Consistent: report.Consistent(),
	}
	for _, r := range report.Sheets {
		t, _ := set.Get(r.Name)
		result.Sheets = append(result.Sheets, SheetStatus{
			Name:      r.Name,
			Rows:      t.Len(),
			Missing:   r.Missing.IDs(),
			NotInMain: r.NotInMain.IDs(),
		})
	}
	return result
}

// outputSchemaErrors reports every schema problem. Schema errors are
// failures (exit code 1).
func outputSchemaErrors(s *session, errs []compiler.ValidationError) error {
	if s.out.JSON() {
		if err := writeJSON(s.out.Writer, CLIResponse{
			Status: "error",
			Data:   CheckResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
			RunID:  s.runID,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(s.out.Writer, "✗ Schema validation failed")
		fmt.Fprintln(s.out.Writer)
		for _, e := range errs {
			fmt.Fprintf(s.out.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("schema validation failed with %d error(s)", len(errs)))
}
