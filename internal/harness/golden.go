package harness

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mshdb/internal/cell"
)

// emptyCell marks an empty cell in rendered tables.
const emptyCell = "-"

// Render formats a result as stable text: the step log, the consistency
// report, every sheet in order, and the last projection as CSV.
func Render(name string, r *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)
	b.WriteString("steps:\n")
	for i, s := range r.Steps {
		outcome := s.Summary
		if s.Code != "" {
			outcome = "error " + s.Code
		}
		fmt.Fprintf(&b, "  %d. %s: %s\n", i+1, s.Op, outcome)
	}

	if db := r.Database; db != nil {
		b.WriteString("consistency: ")
		b.WriteString(db.Consistency().String())

		schema := db.Schema()
		for _, t := range db.Sheets().Tables() {
			cols := t.AllColumns()
			head := []string{schema.KeyColumn}
			if schema.SessionColumn != "" {
				head = append(head, schema.SessionColumn)
			}
			for _, c := range cols {
				head = append(head, c.Name)
			}

			fmt.Fprintf(&b, "sheet %s\n", t.Name())
			fmt.Fprintf(&b, "  %s\n", strings.Join(head, " | "))
			for _, k := range t.Keys() {
				rec, _ := t.Record(k)
				row := []string{k.Label}
				if schema.SessionColumn != "" {
					row = append(row, strconv.Itoa(k.Session))
				}
				for _, c := range cols {
					row = append(row, renderCell(rec[c.Name]))
				}
				fmt.Fprintf(&b, "  %s\n", strings.Join(row, " | "))
			}
		}
	}

	if r.Projection != nil {
		b.WriteString("projection:\n")
		b.WriteString(renderCSV(r.Projection))
		b.WriteString("\n")
	}
	return b.String()
}

func renderCell(v cell.Value) string {
	if cell.IsEmpty(v) {
		return emptyCell
	}
	return v.String()
}

// RunWithGolden executes a scenario and compares its rendering against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Render(name, result)))
}
