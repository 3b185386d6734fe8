package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/table"
)

// defaultSheet is the worksheet excelize creates in a new file.
const defaultSheet = "Sheet1"

// Save writes set to a new workbook at path, one worksheet per sheet in
// set order. Dates are written as ISO text so Load reads them back as
// dates regardless of number formats.
func Save(path string, set *sheets.SheetSet, schema sheets.Schema) error {
	if set.Len() == 0 {
		return errors.New("save workbook: no sheets")
	}
	if schema.SessionColumn == "" {
		if err := checkSessions(set); err != nil {
			return errors.Wrap(err, "save workbook")
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range set.Tables() {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name()); err != nil {
				return errors.Wrapf(err, "save workbook: sheet %q", t.Name())
			}
		} else if _, err := f.NewSheet(t.Name()); err != nil {
			return errors.Wrapf(err, "save workbook: sheet %q", t.Name())
		}
		if err := writeSheet(f, schema, t); err != nil {
			return errors.Wrapf(err, "save workbook: sheet %q", t.Name())
		}
	}

	if idx, err := f.GetSheetIndex(set.MainName()); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

func writeSheet(f *excelize.File, schema sheets.Schema, t *table.Table) error {
	cols := t.AllColumns()

	head := []any{schema.KeyColumn}
	if schema.SessionColumn != "" {
		head = append(head, schema.SessionColumn)
	}
	for _, c := range cols {
		head = append(head, c.Name)
	}
	if err := f.SetSheetRow(t.Name(), cellName(1, 1), &head); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i, k := range t.Keys() {
		record, _ := t.Record(k)
		row := []any{k.Label}
		if schema.SessionColumn != "" {
			row = append(row, k.Session)
		}
		for _, c := range cols {
			row = append(row, excelValue(record[c.Name]))
		}
		if err := f.SetSheetRow(t.Name(), cellName(1, i+2), &row); err != nil {
			return errors.Wrapf(err, "write row %s", k.ID())
		}
	}
	return nil
}

// checkSessions fails when a key could not survive a workbook without a
// session column, which Load reads back as session 1.
func checkSessions(set *sheets.SheetSet) error {
	for _, t := range set.Tables() {
		for _, k := range t.Keys() {
			if k.Session != defaultSession {
				return errors.WithHint(
					errors.Newf("sheet %q: key %s has session %d but the schema has no session column", t.Name(), k.ID(), k.Session),
					"declare a session column in the schema")
			}
		}
	}
	return nil
}

// excelValue maps a cell to the Go value excelize stores natively.
func excelValue(v cell.Value) any {
	switch val := cell.OrEmpty(v).(type) {
	case cell.Number:
		return float64(val)
	case cell.Text:
		return string(val)
	case cell.Date:
		return val.String()
	default:
		return nil
	}
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("workbook: invalid coordinates (%d, %d): %v", col, row, err))
	}
	return name
}
