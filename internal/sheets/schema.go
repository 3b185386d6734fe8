// Package sheets provides SheetSet, the ordered collection of named
// Tables that together describe one roster of subjects, and Schema, the
// immutable description of which sheets exist and which is the main one.
//
// Iteration always follows the explicit sheet order, never map order, so
// that AllSubjects and consistency reports are deterministic.
package sheets

import (
	"fmt"
	"slices"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/table"
)

// Schema describes a database's sheets. Build it once and treat it as
// read-only; accessors never hand out its internal slices.
type Schema struct {
	// Sheets lists sheet names in order.
	Sheets []string

	// MainIndex is the offset of the main sheet in Sheets.
	MainIndex int

	// KeyColumn names the subject label column in external files.
	KeyColumn string

	// SessionColumn names the session column in external files.
	// Empty means every subject has session 1 and no session column is
	// projected.
	SessionColumn string

	// GroupColumn names the denormalized group column carried by every
	// sheet, or "".
	GroupColumn string

	// AllowDiff permits sheets to hold different subject rosters.
	AllowDiff bool

	// Columns optionally declares the columns of each sheet.
	Columns map[string][]table.Column
}

// Validate reports the first structural problem with s.
func (s Schema) Validate() error {
	if len(s.Sheets) == 0 {
		return errors.NewInvalidSchemaError("schema has no sheets")
	}
	seen := make(map[string]struct{}, len(s.Sheets))
	for _, name := range s.Sheets {
		if name == "" {
			return errors.NewInvalidSchemaError("sheet name is empty")
		}
		if _, dup := seen[name]; dup {
			return errors.NewInvalidSchemaError(fmt.Sprintf("sheet %q listed twice", name))
		}
		seen[name] = struct{}{}
	}
	if s.MainIndex < 0 || s.MainIndex >= len(s.Sheets) {
		return errors.NewInvalidSchemaError(fmt.Sprintf("main index %d out of range [0, %d)", s.MainIndex, len(s.Sheets)))
	}
	if s.KeyColumn == "" {
		return errors.NewInvalidSchemaError("key column is empty")
	}
	if s.SessionColumn == s.KeyColumn {
		return errors.NewInvalidSchemaError(fmt.Sprintf("session column %q repeats the key column", s.SessionColumn))
	}
	if s.GroupColumn != "" && (s.GroupColumn == s.KeyColumn || s.GroupColumn == s.SessionColumn) {
		return errors.NewInvalidSchemaError(fmt.Sprintf("group column %q repeats an identity column", s.GroupColumn))
	}
	for sheet, cols := range s.Columns {
		if _, ok := seen[sheet]; !ok {
			return errors.NewInvalidSchemaError(fmt.Sprintf("columns declared for unknown sheet %q", sheet))
		}
		for _, c := range cols {
			if c.Name == s.KeyColumn || (s.SessionColumn != "" && c.Name == s.SessionColumn) {
				return errors.NewInvalidSchemaError(fmt.Sprintf("sheet %q declares identity column %q as data", sheet, c.Name))
			}
		}
	}
	return nil
}

// MainSheet returns the main sheet name. s must be valid.
func (s Schema) MainSheet() string { return s.Sheets[s.MainIndex] }

// Has reports whether name is a sheet of s.
func (s Schema) Has(name string) bool { return slices.Contains(s.Sheets, name) }

// SheetNames returns a copy of the sheet order.
func (s Schema) SheetNames() []string { return slices.Clone(s.Sheets) }

// NewTable creates an empty Table for sheet name with its declared columns
// and the group column reserved.
func (s Schema) NewTable(name string) *table.Table {
	return table.New(name,
		table.WithGroupColumn(s.GroupColumn),
		table.WithColumns(s.Columns[name]...),
	)
}
