package sheets

import (
	"maps"
	"slices"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// SheetSet is an ordered mapping of sheet name to Table with one
// designated main sheet.
type SheetSet struct {
	names  []string
	main   string
	tables map[string]*table.Table
}

// New creates a SheetSet of tables in the given order. The first table is
// the main sheet; use SetMain to choose another. Tables with a repeated
// name replace the earlier one.
func New(tables ...*table.Table) *SheetSet {
	s := &SheetSet{tables: make(map[string]*table.Table, len(tables))}
	for _, t := range tables {
		s.Set(t)
	}
	if len(s.names) > 0 {
		s.main = s.names[0]
	}
	return s
}

// FromSchema creates a SheetSet with one empty Table per schema sheet, in
// schema order, with the schema's main sheet.
func FromSchema(schema Schema) *SheetSet {
	s := &SheetSet{tables: make(map[string]*table.Table, len(schema.Sheets))}
	for _, name := range schema.Sheets {
		s.Set(schema.NewTable(name))
	}
	if len(schema.Sheets) > 0 && schema.MainIndex >= 0 && schema.MainIndex < len(schema.Sheets) {
		s.main = schema.Sheets[schema.MainIndex]
	}
	return s
}

// Set adds t under t.Name(), or replaces the table already stored under
// that name keeping its position.
func (s *SheetSet) Set(t *table.Table) {
	name := t.Name()
	if _, ok := s.tables[name]; !ok {
		s.names = append(s.names, name)
	}
	s.tables[name] = t
	if s.main == "" {
		s.main = name
	}
}

// SetMain designates name as the main sheet.
func (s *SheetSet) SetMain(name string) error {
	if _, ok := s.tables[name]; !ok {
		return errors.NewSheetNotFoundError(name)
	}
	s.main = name
	return nil
}

// Get returns the table stored under name.
func (s *SheetSet) Get(name string) (*table.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the sheet names in order.
func (s *SheetSet) Names() []string { return slices.Clone(s.names) }

// Len returns the number of sheets.
func (s *SheetSet) Len() int { return len(s.names) }

// MainName returns the main sheet name, or "" for an empty set.
func (s *SheetSet) MainName() string { return s.main }

// Main returns the main sheet, or nil for an empty set.
func (s *SheetSet) Main() *table.Table { return s.tables[s.main] }

// Tables returns the tables in sheet order.
func (s *SheetSet) Tables() []*table.Table {
	out := make([]*table.Table, len(s.names))
	for i, name := range s.names {
		out[i] = s.tables[name]
	}
	return out
}

// AllSubjects returns the union of every sheet's keys without repeats:
// the main sheet's keys first, then novel keys of the other sheets in
// sheet order.
func (s *SheetSet) AllSubjects() subject.KeyList {
	var all subject.KeyList
	if m := s.Main(); m != nil {
		all = subject.UnionNoRepeat(nil, m.Keys())
	}
	for _, name := range s.names {
		if name == s.main {
			continue
		}
		all = subject.UnionNoRepeat(all, s.tables[name].Keys())
	}
	return all
}

// IsConsistent reports whether every sheet holds exactly the keys of
// AllSubjects. It stops at the first mismatch; use Consistency for
// details.
func (s *SheetSet) IsConsistent() bool {
	all := s.AllSubjects()
	for _, name := range s.names {
		if !subject.AllEqual(all, s.tables[name].Keys()) {
			return false
		}
	}
	return true
}

// Copy returns a new SheetSet holding the same Table pointers. Mutating a
// Table through either set is visible in both; replacing a Table with Set
// is not.
func (s *SheetSet) Copy() *SheetSet {
	return &SheetSet{
		names:  slices.Clone(s.names),
		main:   s.main,
		tables: maps.Clone(s.tables),
	}
}

// Clone returns a deep copy of s sharing no Table with it.
func (s *SheetSet) Clone() *SheetSet {
	c := &SheetSet{
		names:  slices.Clone(s.names),
		main:   s.main,
		tables: make(map[string]*table.Table, len(s.tables)),
	}
	for name, t := range s.tables {
		c.tables[name] = t.Clone()
	}
	return c
}

// Fingerprint returns a content hash over every sheet in order and the
// main sheet name.
func (s *SheetSet) Fingerprint() (string, error) {
	tables := make([]any, len(s.names))
	for i, name := range s.names {
		tables[i] = s.tables[name].Canonical()
	}
	return cell.Fingerprint(cell.DomainSheetSet, map[string]any{
		"main":   s.main,
		"sheets": tables,
	})
}
