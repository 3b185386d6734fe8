// Package testutil builds tables and sheet sets from plain records.
//
// Records are the map[string]any shape produced by decoding YAML or JSON.
// The harness uses them for scenario data, and package tests use the
// Must* variants to keep fixtures short.
package testutil

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// Record is one row: the schema key column, the optional session column,
// and data columns.
type Record map[string]any

// Value converts a decoded scalar to a cell. Strings are typed the way
// workbook text is; other values convert directly.
func Value(v any) (cell.Value, error) {
	if s, ok := v.(string); ok {
		return cell.Parse(s), nil
	}
	return cell.FromAny(v)
}

// Key extracts the subject key of r. The session defaults to 1 when the
// schema has no session column or r omits it.
func Key(schema sheets.Schema, r Record) (subject.Key, error) {
	rawLabel, ok := r[schema.KeyColumn]
	if !ok || rawLabel == nil {
		return subject.Key{}, errors.Newf("record has no %q", schema.KeyColumn)
	}
	label := fmt.Sprint(rawLabel)

	session := 1
	if schema.SessionColumn != "" {
		if raw, ok := r[schema.SessionColumn]; ok && raw != nil {
			s, err := sessionOf(raw)
			if err != nil {
				return subject.Key{}, errors.Wrapf(err, "subject %q", label)
			}
			session = s
		}
	}
	return subject.NewKey(label, session), nil
}

func sessionOf(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case float64:
		if val == math.Trunc(val) {
			return int(val), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n, nil
		}
	}
	return 0, errors.Newf("session %v is not an integer", v)
}

// TableFromRecords builds sheet of schema from records, in order.
func TableFromRecords(schema sheets.Schema, sheet string, records []Record) (*table.Table, error) {
	t := schema.NewTable(sheet)
	for i, r := range records {
		k, err := Key(schema, r)
		if err != nil {
			return nil, errors.Wrapf(err, "%s[%d]", sheet, i)
		}
		values := make(map[string]cell.Value, len(r))
		for name, raw := range r {
			if name == schema.KeyColumn || (schema.SessionColumn != "" && name == schema.SessionColumn) {
				continue
			}
			v, err := Value(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "%s[%d].%s", sheet, i, name)
			}
			values[name] = v
		}
		if err := t.AddRow(k, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SetFromRecords builds a SheetSet holding the sheets of data, ordered as
// in schema. Sheets absent from data are absent from the set. Names in
// data that schema does not list are kept after the schema sheets, in
// name order, so callers can exercise unknown-sheet handling.
func SetFromRecords(schema sheets.Schema, data map[string][]Record) (*sheets.SheetSet, error) {
	var names []string
	for _, name := range schema.Sheets {
		if _, ok := data[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range data {
		if !schema.Has(name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	names = append(names, extra...)

	set := sheets.New()
	for _, name := range names {
		t, err := TableFromRecords(schema, name, data[name])
		if err != nil {
			return nil, err
		}
		set.Set(t)
	}
	if main := schema.MainSheet(); slices.Contains(names, main) {
		if err := set.SetMain(main); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// FullSetFromRecords is SetFromRecords with an empty table for every
// schema sheet that data omits.
func FullSetFromRecords(schema sheets.Schema, data map[string][]Record) (*sheets.SheetSet, error) {
	full := make(map[string][]Record, len(schema.Sheets))
	for _, name := range schema.Sheets {
		full[name] = data[name]
	}
	for name, rows := range data {
		full[name] = rows
	}
	return SetFromRecords(schema, full)
}

// MustTable is TableFromRecords failing t on error.
func MustTable(t testing.TB, schema sheets.Schema, sheet string, records ...Record) *table.Table {
	t.Helper()
	tbl, err := TableFromRecords(schema, sheet, records)
	if err != nil {
		t.Fatalf("TableFromRecords(%s) failed: %v", sheet, err)
	}
	return tbl
}

// MustSet is FullSetFromRecords failing t on error.
func MustSet(t testing.TB, schema sheets.Schema, data map[string][]Record) *sheets.SheetSet {
	t.Helper()
	set, err := FullSetFromRecords(schema, data)
	if err != nil {
		t.Fatalf("FullSetFromRecords failed: %v", err)
	}
	return set
}
