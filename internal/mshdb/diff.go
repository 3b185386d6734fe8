package mshdb

import (
	"fmt"
	"strings"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// CellChange is one cell that differs between two databases.
type CellChange struct {
	Key    subject.Key
	Column string
	From   cell.Value
	To     cell.Value
}

// SheetDiff compares one sheet of two databases.
type SheetDiff struct {
	Sheet string

	// OnlyHere are keys of the receiver's sheet missing from the other.
	OnlyHere subject.KeyList
	// OnlyThere are keys of the other sheet missing from the receiver's.
	OnlyThere subject.KeyList

	ColumnsOnlyHere  []string
	ColumnsOnlyThere []string

	// Changed lists differing cells of shared keys and columns, in the
	// receiver's row and column order.
	Changed []CellChange
}

// Empty reports whether the sheets hold the same data.
func (d SheetDiff) Empty() bool {
	return len(d.OnlyHere) == 0 && len(d.OnlyThere) == 0 &&
		len(d.ColumnsOnlyHere) == 0 && len(d.ColumnsOnlyThere) == 0 &&
		len(d.Changed) == 0
}

// DiffReport is the result of Diff.
type DiffReport struct {
	Sheets []SheetDiff

	// MissingSheets are sheets of the receiver the other database lacks.
	MissingSheets []string
}

// Empty reports whether both databases hold the same data.
func (r DiffReport) Empty() bool {
	if len(r.MissingSheets) > 0 {
		return false
	}
	for _, s := range r.Sheets {
		if !s.Empty() {
			return false
		}
	}
	return true
}

// String renders a compact, deterministic summary.
func (r DiffReport) String() string {
	var b strings.Builder
	for _, name := range r.MissingSheets {
		fmt.Fprintf(&b, "%s: missing from other\n", name)
	}
	for _, s := range r.Sheets {
		if s.Empty() {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", s.Sheet)
		for _, k := range s.OnlyHere {
			fmt.Fprintf(&b, "  - %s\n", k.ID())
		}
		for _, k := range s.OnlyThere {
			fmt.Fprintf(&b, "  + %s\n", k.ID())
		}
		for _, c := range s.ColumnsOnlyHere {
			fmt.Fprintf(&b, "  - column %s\n", c)
		}
		for _, c := range s.ColumnsOnlyThere {
			fmt.Fprintf(&b, "  + column %s\n", c)
		}
		for _, c := range s.Changed {
			fmt.Fprintf(&b, "  ~ %s %s: %q -> %q\n", c.Key.ID(), c.Column, c.From.String(), c.To.String())
		}
	}
	if b.Len() == 0 {
		return "no differences\n"
	}
	return b.String()
}

// Diff compares db with other sheet by sheet, in db's schema order.
func (db *Database) Diff(other *Database) DiffReport {
	var rep DiffReport
	for _, name := range db.schema.Sheets {
		here, _ := db.set.Get(name)
		there, ok := other.set.Get(name)
		if !ok {
			rep.MissingSheets = append(rep.MissingSheets, name)
			continue
		}
		rep.Sheets = append(rep.Sheets, diffSheet(here, there))
	}
	return rep
}

func diffSheet(here, there *table.Table) SheetDiff {
	hk, tk := here.Keys(), there.Keys()
	d := SheetDiff{
		Sheet:     here.Name(),
		OnlyHere:  hk.Difference(tk),
		OnlyThere: tk.Difference(hk),
	}

	var shared []string
	for _, c := range allColumns(here) {
		if there.HasColumn(c) {
			shared = append(shared, c)
		} else {
			d.ColumnsOnlyHere = append(d.ColumnsOnlyHere, c)
		}
	}
	for _, c := range allColumns(there) {
		if !here.HasColumn(c) {
			d.ColumnsOnlyThere = append(d.ColumnsOnlyThere, c)
		}
	}

	for _, k := range hk.Intersect(tk) {
		for _, c := range shared {
			from, _ := here.Value(k, c)
			to, _ := there.Value(k, c)
			if !cell.Same(from, to) {
				d.Changed = append(d.Changed, CellChange{Key: k, Column: c, From: from, To: to})
			}
		}
	}
	return d
}

// allColumns returns the group column, if any, then the data columns.
func allColumns(t *table.Table) []string {
	cols := t.ColumnNames()
	if g := t.GroupColumn(); g != "" {
		cols = append([]string{g}, cols...)
	}
	return cols
}
