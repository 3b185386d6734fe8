package table

import (
	"maps"
	"slices"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/filter"
	"github.com/roach88/mshdb/internal/subject"
)

// Wildcard expands to every data column of a Table.
const Wildcard = "*"

// Column is a named, typed column definition.
type Column struct {
	Name string
	Kind cell.Kind
}

type row struct {
	key   subject.Key
	cells map[string]cell.Value
}

// Table is one sheet of subject rows.
type Table struct {
	name    string
	columns []Column
	colIdx  map[string]int
	group   string
	rows    []*row
	index   map[subject.Identity]int
}

// Option configures a Table at construction.
type Option func(*Table)

// WithColumns declares columns up front, in order. A column declared with
// KindEmpty takes the kind of the first non-empty value stored in it.
func WithColumns(cols ...Column) Option {
	return func(t *Table) {
		for _, c := range cols {
			t.ensureColumn(c.Name, c.Kind)
		}
	}
}

// WithGroupColumn reserves name as the denormalized group column.
func WithGroupColumn(name string) Option {
	return func(t *Table) {
		if name == "" {
			return
		}
		t.group = name
		t.ensureColumn(name, cell.KindEmpty)
	}
}

// New creates an empty Table.
func New(name string, opts ...Option) *Table {
	t := &Table{
		name:   name,
		colIdx: make(map[string]int),
		index:  make(map[subject.Identity]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the sheet name.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// GroupColumn returns the reserved group column name, or "".
func (t *Table) GroupColumn() string { return t.group }

// Keys returns the row keys in table order with current positions.
func (t *Table) Keys() subject.KeyList {
	out := make(subject.KeyList, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.key
	}
	return out
}

// Columns returns the data columns in order, without the group column.
func (t *Table) Columns() []Column {
	out := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		if c.Name == t.group {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AllColumns returns every column in storage order, group column included.
func (t *Table) AllColumns() []Column { return slices.Clone(t.columns) }

// ColumnNames returns the names of Columns.
func (t *Table) ColumnNames() []string {
	cols := t.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// HasColumn reports whether name is a column of t, group column included.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// ColumnKind returns the kind of column name.
func (t *Table) ColumnKind(name string) (cell.Kind, bool) {
	i, ok := t.colIdx[name]
	if !ok {
		return cell.KindEmpty, false
	}
	return t.columns[i].Kind, true
}

// Exists reports whether t has a row for k.
func (t *Table) Exists(k subject.Key) bool {
	_, ok := t.index[k.Identity()]
	return ok
}

// IsCellEmpty reports whether the cell at (k, column) holds no data.
// Absent rows and columns count as empty.
func (t *Table) IsCellEmpty(k subject.Key, column string) bool {
	r := t.rowOf(k)
	if r == nil {
		return true
	}
	return cell.IsEmpty(r.cells[column])
}

// Value returns the cell at (k, column).
func (t *Table) Value(k subject.Key, column string) (cell.Value, error) {
	if !t.HasColumn(column) {
		return nil, errors.NewColumnNotFoundError(t.name, column)
	}
	r := t.rowOf(k)
	if r == nil {
		return nil, errors.NewUnknownSubjectError(t.name, k.ID())
	}
	return cell.OrEmpty(r.cells[column]), nil
}

// Record returns a copy of the cells of k's row, keyed by column name.
func (t *Table) Record(k subject.Key) (map[string]cell.Value, bool) {
	r := t.rowOf(k)
	if r == nil {
		return nil, false
	}
	out := make(map[string]cell.Value, len(t.columns))
	for _, c := range t.columns {
		out[c.Name] = cell.OrEmpty(r.cells[c.Name])
	}
	return out, true
}

// Group returns the group column value for k, or Empty.
func (t *Table) Group(k subject.Key) cell.Value {
	if t.group == "" {
		return cell.Empty
	}
	r := t.rowOf(k)
	if r == nil {
		return cell.Empty
	}
	return cell.OrEmpty(r.cells[t.group])
}

// RowFor implements subject.Source.
func (t *Table) RowFor(k subject.Key) (filter.Row, bool) {
	r := t.rowOf(k)
	if r == nil {
		return nil, false
	}
	return rowView{t: t, r: r}, true
}

// Clone returns a deep copy of t. Cells are immutable values, so copying
// each row's map is enough.
func (t *Table) Clone() *Table {
	c := &Table{
		name:    t.name,
		columns: slices.Clone(t.columns),
		colIdx:  maps.Clone(t.colIdx),
		group:   t.group,
		rows:    make([]*row, len(t.rows)),
		index:   maps.Clone(t.index),
	}
	for i, r := range t.rows {
		c.rows[i] = &row{key: r.key, cells: maps.Clone(r.cells)}
	}
	return c
}

// Empty returns a Table with t's name, columns and group column but no rows.
func (t *Table) Empty() *Table {
	return &Table{
		name:    t.name,
		columns: slices.Clone(t.columns),
		colIdx:  maps.Clone(t.colIdx),
		group:   t.group,
		index:   make(map[subject.Identity]int),
	}
}

func (t *Table) rowOf(k subject.Key) *row {
	i, ok := t.index[k.Identity()]
	if !ok {
		return nil
	}
	return t.rows[i]
}

// ensureColumn adds name if missing and widens its kind by k.
func (t *Table) ensureColumn(name string, k cell.Kind) {
	if i, ok := t.colIdx[name]; ok {
		t.columns[i].Kind = cell.Widen(t.columns[i].Kind, k)
		return
	}
	t.colIdx[name] = len(t.columns)
	t.columns = append(t.columns, Column{Name: name, Kind: k})
}

// reindex rebuilds the key index and refreshes cached positions.
func (t *Table) reindex() {
	t.index = make(map[subject.Identity]int, len(t.rows))
	for i, r := range t.rows {
		r.key = r.key.WithPosition(i)
		t.index[r.key.Identity()] = i
	}
}

// rowView adapts one row to filter.Row.
type rowView struct {
	t *Table
	r *row
}

func (v rowView) Cell(column string) (cell.Value, cell.Kind, bool) {
	kind, ok := v.t.ColumnKind(column)
	if !ok {
		return nil, cell.KindEmpty, false
	}
	return cell.OrEmpty(v.r.cells[column]), kind, true
}
