package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/filter"
	"github.com/roach88/mshdb/internal/logger"
	"github.com/roach88/mshdb/internal/mshdb"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Sheets   []string // sheet:col,col
	Subjects []string
	Where    []string // sheet:expression
	CSV      string
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <workbook>",
		Short: "Join columns of several sheets into one table",
		Long: `Build one flat table keyed by subject from columns of several sheets.

--sheet takes sheet:col,col (or just sheet for every data column) and
may be repeated; columns appear in flag order. --where takes
sheet:expression and keeps subjects whose row in that sheet matches.
Expressions: "age == 30", "sex != M", "age between 18 60" (exclusive),
"age within 18 60" (inclusive), "hb exists", "hb missing".

Examples:
  mshdb select study.xlsx --sheet demographics:age,sex --sheet labs:hb
  mshdb select study.xlsx --sheet labs --where "demographics:age within 18 60" --csv out.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sheets, "sheet", nil, "sheet:col,col to include (repeatable, required)")
	cmd.Flags().StringArrayVar(&opts.Subjects, "subject", nil, "restrict to label#session (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "sheet:expression filter (repeatable)")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "write the table to this CSV file")
	_ = cmd.MarkFlagRequired("sheet")

	return cmd
}

func runSelect(opts *SelectOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	selection, err := parseSheetColumns(opts.Sheets)
	if err != nil {
		return s.commandError("invalid --sheet", err)
	}
	filters, err := parseWhere(opts.Where)
	if err != nil {
		return s.fail("invalid --where", err)
	}
	var keys subject.KeyList
	if len(opts.Subjects) > 0 {
		if keys, err = parseSubjects(opts.Subjects); err != nil {
			return s.commandError("invalid --subject", err)
		}
	}

	schema, err := s.schema()
	if err != nil {
		return err
	}
	db, err := s.open(path, schema)
	if err != nil {
		return err
	}

	if len(filters) > 0 {
		filtered, err := db.FilterSubjects(keys, filters)
		if err != nil {
			return s.fail("filter failed", err)
		}
		keys = filtered
		if keys == nil {
			keys = subject.KeyList{}
		}
	}

	p, err := db.SelectDF(keys, selection)
	if err != nil {
		return s.fail("select failed", err)
	}
	s.log.Info("selected",
		zap.Int(logger.FieldRows, p.Len()),
		zap.Strings(logger.FieldColumn, p.Columns))

	if opts.CSV != "" {
		if err := writeCSVFile(opts.CSV, p); err != nil {
			return s.commandError("failed to write CSV", err)
		}
	}

	view := viewProjection(p)
	return s.success(view, func() error {
		if opts.CSV != "" {
			s.out.Done("%d rows x %d columns written to %s", p.Len(), len(p.Columns), opts.CSV)
			return nil
		}
		return s.out.Table(view.Columns, view.Rows)
	})
}

// parseSheetColumns parses "sheet:col,col" flags. A bare sheet name
// selects every data column.
func parseSheetColumns(flags []string) ([]mshdb.SheetColumns, error) {
	selection := make([]mshdb.SheetColumns, 0, len(flags))
	for _, f := range flags {
		sheet, cols, hasCols := strings.Cut(f, ":")
		sheet = strings.TrimSpace(sheet)
		if sheet == "" {
			return nil, errors.Newf("invalid sheet selection %q: want sheet:col,col", f)
		}
		sc := mshdb.SheetColumns{Sheet: sheet, Columns: []string{table.Wildcard}}
		if hasCols {
			sc.Columns = nil
			for _, c := range strings.Split(cols, ",") {
				if c = strings.TrimSpace(c); c != "" {
					sc.Columns = append(sc.Columns, c)
				}
			}
			if len(sc.Columns) == 0 {
				return nil, errors.Newf("invalid sheet selection %q: no columns", f)
			}
		}
		selection = append(selection, sc)
	}
	return selection, nil
}

// parseWhere parses "sheet:expression" flags, grouping predicates by
// sheet in first-seen order.
func parseWhere(flags []string) ([]mshdb.SheetFilter, error) {
	var filters []mshdb.SheetFilter
	index := make(map[string]int)
	for _, f := range flags {
		sheet, expr, ok := strings.Cut(f, ":")
		sheet = strings.TrimSpace(sheet)
		if !ok || sheet == "" {
			return nil, errors.Newf("invalid filter %q: want sheet:expression", f)
		}
		p, err := filter.Parse(expr)
		if err != nil {
			return nil, err
		}
		i, seen := index[sheet]
		if !seen {
			i = len(filters)
			index[sheet] = i
			filters = append(filters, mshdb.SheetFilter{Sheet: sheet})
		}
		filters[i].Predicates = append(filters[i].Predicates, p)
	}
	return filters, nil
}

func writeCSVFile(path string, p *mshdb.Projection) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return p.WriteCSV(f)
}
