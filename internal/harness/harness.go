package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/compiler"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/filter"
	"github.com/roach88/mshdb/internal/mshdb"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/store"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/testutil"
)

// Harness executes scenarios.
type Harness struct {
	schema sheets.Schema
	db     *mshdb.Database
	log    *zap.Logger
	result *Result
}

// Run executes a scenario and returns its result.
//
// A returned error means the scenario could not be set up (bad schema or
// initial data). Step and assertion failures are reported in the Result.
//
// Execution flow:
//  1. Compile the schema (inline or CUE file)
//  2. Build the initial database from data
//  3. Apply steps, checking expect_error
//  4. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zap.NewNop())
}

// RunWithLogger is Run with database events sent to log.
func RunWithLogger(scenario *Scenario, log *zap.Logger) (*Result, error) {
	schema, err := loadSchema(scenario)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s: schema", scenario.Name)
	}

	set, err := testutil.FullSetFromRecords(schema, scenario.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s: data", scenario.Name)
	}
	db, err := mshdb.New(schema, set, mshdb.WithLogger(log))
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s: initial database", scenario.Name)
	}

	h := &Harness{schema: schema, db: db, log: log, result: NewResult()}
	for i, step := range scenario.Steps {
		h.runStep(i, step)
	}
	h.result.Database = h.db

	for i, a := range scenario.Assertions {
		if err := h.check(a); err != nil {
			h.result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}
	return h.result, nil
}

func loadSchema(s *Scenario) (sheets.Schema, error) {
	if s.SchemaFile != "" {
		return compiler.LoadSchemaFile(s.SchemaFile)
	}
	return s.Schema.Schema()
}

// runStep applies one step. A failing step leaves h.db unchanged.
func (h *Harness) runStep(index int, st Step) {
	next, summary, err := h.apply(st)

	sr := StepResult{Op: st.Op, Summary: summary}
	if err != nil {
		sr.Code = codeOf(err)
		sr.Summary = ""
	}
	h.result.Steps = append(h.result.Steps, sr)

	switch {
	case err == nil && st.ExpectError != "":
		h.result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got success", index, st.Op, st.ExpectError))
	case err != nil && st.ExpectError == "":
		h.result.AddError(fmt.Sprintf("steps[%d] (%s): unexpected error: %v", index, st.Op, err))
	case err != nil && sr.Code != st.ExpectError:
		h.result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got %s: %v", index, st.Op, st.ExpectError, sr.Code, err))
	}

	if err == nil && next != nil {
		h.db = next
	}
}

// codeOf returns the error code of err, or "ERROR" for untyped errors.
func codeOf(err error) string {
	if c := errors.CodeOf(err); c != "" {
		return string(c)
	}
	return "ERROR"
}

func (h *Harness) apply(st Step) (*mshdb.Database, string, error) {
	switch st.Op {
	case OpAddNewSubjects:
		incoming, err := testutil.SetFromRecords(h.schema, st.Incoming)
		if err != nil {
			return nil, "", err
		}
		next, err := h.db.AddNewSubjects(incoming, mshdb.MergeOptions{AllowPartial: st.AllowPartial})
		if err != nil {
			return nil, "", err
		}
		added := len(next.Subjects()) - len(h.db.Subjects())
		return next, fmt.Sprintf("added %d subjects", added), nil

	case OpRemoveSubjects:
		keys, err := parseKeys(st.Subjects)
		if err != nil {
			return nil, "", err
		}
		next, err := h.db.RemoveSubjects(keys, mshdb.Options{})
		if err != nil {
			return nil, "", err
		}
		removed := len(h.db.Subjects()) - len(next.Subjects())
		return next, fmt.Sprintf("removed %d subjects", removed), nil

	case OpRenameSubjects:
		next, err := h.db.RenameSubjects(st.Rename, mshdb.Options{})
		if err != nil {
			return nil, "", err
		}
		return next, fmt.Sprintf("renamed %d labels", len(st.Rename)), nil

	case OpAddColumns:
		frame, err := testutil.TableFromRecords(h.schema, st.Sheet, st.Frame)
		if err != nil {
			return nil, "", err
		}
		next, err := h.db.AddColumns(st.Sheet, frame, st.Overwrite, mshdb.Options{})
		if err != nil {
			return nil, "", err
		}
		return next, fmt.Sprintf("added columns to %s", st.Sheet), nil

	case OpSelect:
		p, err := h.selectDF(st)
		if err != nil {
			return nil, "", err
		}
		h.result.Projection = p
		return nil, fmt.Sprintf("selected %d rows x %d columns", p.Len(), len(p.Columns)), nil

	case OpSnapshot:
		return h.snapshot()

	default:
		return nil, "", errors.Newf("unknown op %q", st.Op)
	}
}

func (h *Harness) selectDF(st Step) (*mshdb.Projection, error) {
	var keys subject.KeyList
	if len(st.Subjects) > 0 {
		var err error
		if keys, err = parseKeys(st.Subjects); err != nil {
			return nil, err
		}
	}

	if len(st.Where) > 0 {
		filters := make([]mshdb.SheetFilter, len(st.Where))
		for i, w := range st.Where {
			preds, err := filter.ParseAll(w.Predicates)
			if err != nil {
				return nil, err
			}
			filters[i] = mshdb.SheetFilter{Sheet: w.Sheet, Predicates: preds}
		}
		filtered, err := h.db.FilterSubjects(keys, filters)
		if err != nil {
			return nil, err
		}
		keys = filtered
		if keys == nil {
			keys = subject.KeyList{}
		}
	}

	selection := make([]mshdb.SheetColumns, len(st.Columns))
	for i, c := range st.Columns {
		selection[i] = mshdb.SheetColumns{Sheet: c.Sheet, Columns: c.Columns}
	}
	return h.db.SelectDF(keys, selection)
}

// snapshot round-trips the database through an in-memory store and
// fails if the reloaded sheets differ.
func (h *Harness) snapshot() (*mshdb.Database, string, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, "", err
	}
	defer st.Close()

	ctx := context.Background()
	snap, err := st.SaveSnapshot(ctx, "harness", h.db.Sheets())
	if err != nil {
		return nil, "", err
	}
	set, err := st.LoadSnapshot(ctx, "harness")
	if err != nil {
		return nil, "", err
	}
	next, err := mshdb.New(h.schema, set, mshdb.WithLogger(h.log))
	if err != nil {
		return nil, "", err
	}
	fp, err := next.Fingerprint()
	if err != nil {
		return nil, "", err
	}
	if fp != snap.Fingerprint {
		return nil, "", errors.Newf("snapshot fingerprint %s, reloaded %s", snap.Fingerprint, fp)
	}
	return next, fmt.Sprintf("snapshot %d sheets, %d rows", snap.Sheets, snap.Rows), nil
}

func parseKeys(ids []string) (subject.KeyList, error) {
	keys := make(subject.KeyList, len(ids))
	for i, id := range ids {
		k, err := subject.ParseKey(id)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

// renderValue renders a cell or an expected YAML scalar the same way.
func renderValue(v any) string {
	if v == nil {
		return ""
	}
	c, err := testutil.Value(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return c.String()
}

func renderCSV(p *mshdb.Projection) string {
	var buf bytes.Buffer
	if err := p.WriteCSV(&buf); err != nil {
		return "error: " + err.Error()
	}
	return strings.TrimRight(buf.String(), "\n")
}
