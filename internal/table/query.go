package table

import (
	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/filter"
	"github.com/roach88/mshdb/internal/subject"
)

// Column returns every value of column name in table order.
func (t *Table) Column(name string) ([]cell.Value, error) {
	if !t.HasColumn(name) {
		return nil, errors.NewColumnNotFoundError(t.name, name)
	}
	out := make([]cell.Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = cell.OrEmpty(r.cells[name])
	}
	return out, nil
}

// ColumnQuery narrows FilteredColumn.
type ColumnQuery struct {
	// Keys restricts and orders the result. Nil means all rows.
	Keys subject.KeyList

	// Predicates further filter the key set (implicit AND).
	Predicates []filter.Predicate

	// Demean subtracts the mean of the selected values.
	Demean bool
}

// ResolveKeys returns the key set a query selects: keys (or every row when
// keys is nil) filtered by preds. Every requested key must have a row.
func (t *Table) ResolveKeys(keys subject.KeyList, preds []filter.Predicate) (subject.KeyList, error) {
	if err := filter.Validate(preds); err != nil {
		return nil, err
	}
	if keys == nil {
		return t.Keys().Filter(t, preds), nil
	}
	for _, k := range keys {
		if !t.Exists(k) {
			return nil, errors.NewUnknownSubjectError(t.name, k.ID())
		}
	}
	return keys.Filter(t, preds), nil
}

// FilteredColumn returns the values of column name for the rows selected
// by q, in key order. With q.Demean the mean of the selected non-empty
// values is subtracted after filtering; empty cells stay empty.
func (t *Table) FilteredColumn(name string, q ColumnQuery) ([]cell.Value, error) {
	kind, ok := t.ColumnKind(name)
	if !ok {
		return nil, errors.NewColumnNotFoundError(t.name, name)
	}
	if q.Demean && kind != cell.KindNumber && kind != cell.KindEmpty {
		return nil, errors.NewNotNumericError(t.name, name, kind.String())
	}

	keys, err := t.ResolveKeys(q.Keys, q.Predicates)
	if err != nil {
		return nil, err
	}

	out := make([]cell.Value, len(keys))
	for i, k := range keys {
		out[i] = cell.OrEmpty(t.rowOf(k).cells[name])
	}
	if q.Demean {
		demean(out)
	}
	return out, nil
}

// demean subtracts the mean of the finite numbers in values from each of
// them. Empty cells stay empty.
func demean(values []cell.Value) {
	var mean float64
	var n int
	for _, v := range values {
		if f, ok := cell.Float(v); ok && cell.Finite(f) {
			n++
			mean += (f - mean) / float64(n)
		}
	}
	if n == 0 {
		return
	}
	for i, v := range values {
		if f, ok := cell.Float(v); ok {
			values[i] = cell.Num(f - mean)
		}
	}
}

// ExpandColumns resolves a column list against t. Wildcard expands to
// every data column; each name must exist. Duplicates are dropped.
func (t *Table) ExpandColumns(columns []string) ([]string, error) {
	out := make([]string, 0, len(columns))
	seen := make(map[string]struct{}, len(columns))
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, c := range columns {
		if c == Wildcard {
			for _, name := range t.ColumnNames() {
				add(name)
			}
			continue
		}
		if !t.HasColumn(c) {
			return nil, errors.NewColumnNotFoundError(t.name, c)
		}
		add(c)
	}
	return out, nil
}

// Select returns a new Table holding the given keys (in keys order, all
// rows when keys is nil) and columns. The result shares no state with t.
func (t *Table) Select(keys subject.KeyList, columns []string) (*Table, error) {
	names, err := t.ExpandColumns(columns)
	if err != nil {
		return nil, err
	}
	keys, err = t.ResolveKeys(keys, nil)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		kind, _ := t.ColumnKind(name)
		cols[i] = Column{Name: name, Kind: kind}
	}
	out := New(t.name, WithColumns(cols...))
	for _, k := range keys {
		src := t.rowOf(k)
		values := make(map[string]cell.Value, len(names))
		for _, name := range names {
			values[name] = cell.OrEmpty(src.cells[name])
		}
		if err := out.AddRow(src.key, values); err != nil {
			// keys may repeat; a projection keeps the first occurrence
			if errors.IsDuplicateKey(err) {
				continue
			}
			return nil, err
		}
	}
	return out, nil
}

// Rows returns a row-major projection and the expanded column names.
func (t *Table) Rows(keys subject.KeyList, columns []string) ([]string, [][]cell.Value, error) {
	names, err := t.ExpandColumns(columns)
	if err != nil {
		return nil, nil, err
	}
	keys, err = t.ResolveKeys(keys, nil)
	if err != nil {
		return nil, nil, err
	}
	out := make([][]cell.Value, len(keys))
	for i, k := range keys {
		r := t.rowOf(k)
		vals := make([]cell.Value, len(names))
		for j, name := range names {
			vals[j] = cell.OrEmpty(r.cells[name])
		}
		out[i] = vals
	}
	return names, out, nil
}
