package table

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/subject"
)

// AddRow appends a row for k. Columns of t missing from values are left
// empty; columns of values unknown to t are added to the schema in name order.
// It fails with a DuplicateKey error if k already has a row.
func (t *Table) AddRow(k subject.Key, values map[string]cell.Value) error {
	if t.Exists(k) {
		return errors.NewDuplicateKeyError(t.name, k.ID())
	}

	r := &row{
		key:   k.WithPosition(len(t.rows)),
		cells: make(map[string]cell.Value, len(t.columns)+len(values)),
	}
	for _, c := range t.columns {
		r.cells[c.Name] = cell.Empty
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		v := cell.Normalize(values[name])
		t.ensureColumn(name, v.Kind())
		r.cells[name] = v
	}

	t.index[k.Identity()] = len(t.rows)
	t.rows = append(t.rows, r)
	return nil
}

// AddColumns copies every data column of frame into t for the keys frame
// holds. Keys of t absent from frame keep their values (or get empty cells
// for new columns). Every frame key must already exist in t, and unless
// overwrite is set no frame column may already exist in t. On error t is
// unchanged.
func (t *Table) AddColumns(frame *Table, overwrite bool) error {
	for _, r := range frame.rows {
		if !t.Exists(r.key) {
			return errors.NewUnknownSubjectError(t.name, r.key.ID())
		}
	}
	cols := frame.Columns()
	if !overwrite {
		for _, c := range cols {
			if t.HasColumn(c.Name) {
				return errors.NewColumnConflictError(t.name, c.Name)
			}
		}
	}

	for _, c := range cols {
		t.ensureColumn(c.Name, c.Kind)
	}
	for _, fr := range frame.rows {
		dst := t.rowOf(fr.key)
		for _, c := range cols {
			dst.cells[c.Name] = cell.Normalize(fr.cells[c.Name])
		}
	}
	return nil
}

// RemoveRows removes the rows of every key in keys and returns how many
// were removed. Keys without a row are ignored.
func (t *Table) RemoveRows(keys subject.KeyList) int {
	drop := make(map[subject.Identity]struct{}, len(keys))
	for _, k := range keys {
		if t.Exists(k) {
			drop[k.Identity()] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}

	kept := t.rows[:0]
	for _, r := range t.rows {
		if _, ok := drop[r.key.Identity()]; !ok {
			kept = append(kept, r)
		}
	}
	clear(t.rows[len(kept):])
	t.rows = kept
	t.reindex()
	return len(drop)
}

// SetValue stores v at (k, column).
func (t *Table) SetValue(k subject.Key, column string, v cell.Value) error {
	if !t.HasColumn(column) {
		return errors.NewColumnNotFoundError(t.name, column)
	}
	r := t.rowOf(k)
	if r == nil {
		return errors.NewUnknownSubjectError(t.name, k.ID())
	}
	v = cell.Normalize(v)
	t.ensureColumn(column, v.Kind())
	r.cells[column] = v
	return nil
}

// RenameLabels relabels every row whose label is a key of mapping and
// returns the number of rows renamed. Sessions are kept. It fails with a
// DuplicateKey error, leaving t unchanged, if two rows would end up with
// the same key.
func (t *Table) RenameLabels(mapping map[string]string) (int, error) {
	normalized := make(map[string]string, len(mapping))
	for from, to := range mapping {
		normalized[subject.NormalizeLabel(from)] = subject.NormalizeLabel(to)
	}

	next := make([]subject.Key, len(t.rows))
	seen := make(map[subject.Identity]struct{}, len(t.rows))
	renamed := 0
	for i, r := range t.rows {
		k := r.key
		if to, ok := normalized[k.Label]; ok && to != k.Label {
			k.Label = to
			renamed++
		}
		if _, dup := seen[k.Identity()]; dup {
			return 0, errors.NewDuplicateKeyError(t.name, k.ID())
		}
		seen[k.Identity()] = struct{}{}
		next[i] = k
	}
	if renamed == 0 {
		return 0, nil
	}

	for i, r := range t.rows {
		r.key = next[i]
	}
	t.reindex()
	return renamed, nil
}

// NewColumnFrame builds a single-column Table suitable for AddColumns.
func NewColumnFrame(column Column, keys subject.KeyList, values []cell.Value) (*Table, error) {
	if len(keys) != len(values) {
		return nil, errors.Newf("column frame %q: %d keys but %d values", column.Name, len(keys), len(values))
	}
	frame := New(fmt.Sprintf("frame:%s", column.Name), WithColumns(column))
	for i, k := range keys {
		if err := frame.AddRow(k, map[string]cell.Value{column.Name: values[i]}); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
