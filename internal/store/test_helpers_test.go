package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSet builds a two-sheet set covering every cell kind, an empty
// cell, a group column and a mixed column.
func createTestSet(t *testing.T) *sheets.SheetSet {
	t.Helper()
	main := table.New("demographics",
		table.WithGroupColumn("group"),
		table.WithColumns(table.Column{Name: "age", Kind: cell.KindNumber}, table.Column{Name: "notes", Kind: cell.KindEmpty}),
	)
	mustAdd(t, main, subject.NewKey("P01", 1), map[string]cell.Value{
		"group":   cell.Text("pd"),
		"age":     cell.Number(61.5),
		"visit":   cell.NewDate(2024, 3, 1),
		"comment": cell.Text("first"),
	})
	mustAdd(t, main, subject.NewKey("P02", 2), map[string]cell.Value{
		"group":   cell.Text("ctl"),
		"age":     cell.Empty,
		"visit":   cell.NewDate(2024, 4, 9),
		"comment": cell.Number(3),
	})

	blood := table.New("blood", table.WithGroupColumn("group"))
	mustAdd(t, blood, subject.NewKey("P02", 2), map[string]cell.Value{"group": cell.Text("ctl"), "hb": cell.Number(13.25)})
	mustAdd(t, blood, subject.NewKey("P01", 1), map[string]cell.Value{"group": cell.Text("pd"), "hb": cell.Number(-0.5)})

	return sheets.New(main, blood)
}

func mustAdd(t *testing.T, tbl *table.Table, k subject.Key, values map[string]cell.Value) {
	t.Helper()
	if err := tbl.AddRow(k, values); err != nil {
		t.Fatalf("AddRow(%s) failed: %v", k, err)
	}
}
