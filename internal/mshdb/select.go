package mshdb

import (
	"encoding/csv"
	"io"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/filter"
	"github.com/roach88/mshdb/internal/subject"
)

// SheetColumns requests columns of one sheet. Columns may contain
// table.Wildcard.
type SheetColumns struct {
	Sheet   string
	Columns []string
}

// Projection is a flat joined table produced by SelectDF.
type Projection struct {
	Columns []string
	Rows    [][]cell.Value
}

// Len returns the number of rows.
func (p *Projection) Len() int { return len(p.Rows) }

// Column returns the values of the named output column.
func (p *Projection) Column(name string) ([]cell.Value, bool) {
	idx := -1
	for i, c := range p.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]cell.Value, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// WriteCSV writes p as comma separated text with a header row. Empty cells
// are written as empty fields.
func (p *Projection) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(p.Columns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	record := make([]string, len(p.Columns))
	for _, r := range p.Rows {
		for i, v := range r {
			record[i] = cell.OrEmpty(v).String()
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// SelectDF joins columns of several sheets into one Projection.
//
// Rows follow keys (every subject when keys is nil). The leading columns
// are the schema key column holding the label and, when the schema names
// one, the session column. Then come the requested columns of each sheet
// in request order; values are looked up by key, and a key the sheet
// lacks yields empty cells rather than a dropped row. An output column
// name already taken is qualified as "sheet.column".
func (db *Database) SelectDF(keys subject.KeyList, selection []SheetColumns) (*Projection, error) {
	if keys == nil {
		keys = db.Subjects()
	}

	type source struct {
		sheet  string
		column string
	}
	out := &Projection{Columns: []string{db.schema.KeyColumn}}
	if db.schema.SessionColumn != "" {
		out.Columns = append(out.Columns, db.schema.SessionColumn)
	}
	used := make(map[string]struct{}, len(out.Columns))
	for _, c := range out.Columns {
		used[c] = struct{}{}
	}

	var sources []source
	for _, sc := range selection {
		t, err := db.sheet(sc.Sheet)
		if err != nil {
			return nil, err
		}
		names, err := t.ExpandColumns(sc.Columns)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			label := name
			if _, taken := used[label]; taken {
				label = sc.Sheet + "." + name
			}
			used[label] = struct{}{}
			out.Columns = append(out.Columns, label)
			sources = append(sources, source{sheet: sc.Sheet, column: name})
		}
	}

	out.Rows = make([][]cell.Value, len(keys))
	for i, k := range keys {
		r := make([]cell.Value, 0, len(out.Columns))
		r = append(r, cell.Str(k.Label))
		if db.schema.SessionColumn != "" {
			r = append(r, cell.Number(k.Session))
		}
		for _, src := range sources {
			t, _ := db.set.Get(src.sheet)
			v := cell.Empty
			if t.Exists(k) {
				v, _ = t.Value(k, src.column)
			}
			r = append(r, v)
		}
		out.Rows[i] = r
	}
	return out, nil
}

// SheetFilter is a predicate list applied to one sheet.
type SheetFilter struct {
	Sheet      string
	Predicates []filter.Predicate
}

// FilterSubjects returns the keys (every subject when keys is nil) whose
// row satisfies every filter, in keys order. A key without a row in a
// filtered sheet does not match.
func (db *Database) FilterSubjects(keys subject.KeyList, filters []SheetFilter) (subject.KeyList, error) {
	if keys == nil {
		keys = db.Subjects()
	}
	for _, f := range filters {
		t, err := db.sheet(f.Sheet)
		if err != nil {
			return nil, err
		}
		if err := filter.Validate(f.Predicates); err != nil {
			return nil, err
		}
		keys = keys.Filter(t, f.Predicates)
	}
	return keys, nil
}
