package workbook

import (
	"math"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// defaultSession is the session of every row when the schema has no
// session column.
const defaultSession = 1

// Load reads the workbook at path into a SheetSet ordered like schema.
// Every schema sheet must be present.
func Load(path string, schema sheets.Schema) (*sheets.SheetSet, error) {
	return load(path, schema, true)
}

// LoadIncoming reads a workbook of new subjects. It may hold any subset
// of the schema sheets; the main sheet is designated when present.
func LoadIncoming(path string, schema sheets.Schema) (*sheets.SheetSet, error) {
	return load(path, schema, false)
}

func load(path string, schema sheets.Schema, complete bool) (*sheets.SheetSet, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	present := f.GetSheetList()
	if complete {
		for _, name := range schema.Sheets {
			if !slices.Contains(present, name) {
				return nil, errors.Wrapf(errors.NewSheetNotFoundError(name), "workbook %s", path)
			}
		}
	}
	var extra []string
	for _, name := range present {
		if !schema.Has(name) {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		return nil, errors.WithHint(
			errors.Newf("workbook %s: sheets %v are not in the schema", path, extra),
			"add them to the schema or remove them from the workbook",
		)
	}

	set := sheets.New()
	for _, name := range schema.Sheets {
		if !slices.Contains(present, name) {
			continue
		}
		t, err := readSheet(f, schema, name)
		if err != nil {
			return nil, errors.Wrapf(err, "workbook %s: sheet %q", path, name)
		}
		set.Set(t)
	}
	if _, ok := set.Get(schema.MainSheet()); ok {
		if err := set.SetMain(schema.MainSheet()); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// header maps worksheet columns to table columns.
type header struct {
	key     int
	session int
	data    []string // by worksheet column; "" marks a skipped column
}

func parseHeader(schema sheets.Schema, sheet string, names []string) (header, error) {
	h := header{key: -1, session: -1, data: make([]string, len(names))}
	seen := make(map[string]bool, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		switch {
		case name == "":
			continue
		case name == schema.KeyColumn:
			h.key = i
		case schema.SessionColumn != "" && name == schema.SessionColumn:
			h.session = i
		case seen[name]:
			return header{}, errors.NewColumnConflictError(sheet, name)
		default:
			h.data[i] = name
		}
		seen[name] = true
	}
	if h.key < 0 {
		return header{}, errors.NewColumnNotFoundError(sheet, schema.KeyColumn)
	}
	if schema.SessionColumn != "" && h.session < 0 {
		return header{}, errors.NewColumnNotFoundError(sheet, schema.SessionColumn)
	}
	return h, nil
}

func readSheet(f *excelize.File, schema sheets.Schema, name string) (*table.Table, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, errors.Wrap(err, "read rows")
	}

	t := schema.NewTable(name)
	if len(rows) == 0 {
		if _, err := parseHeader(schema, name, nil); err != nil {
			return nil, err
		}
		return t, nil
	}

	h, err := parseHeader(schema, name, rows[0])
	if err != nil {
		return nil, err
	}
	declared := make(map[string]cell.Kind)
	for _, c := range schema.Columns[name] {
		declared[c.Name] = c.Kind
	}

	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		label := subject.NormalizeLabel(at(row, h.key))
		if label == "" {
			return nil, errors.Newf("row %d: empty %s", line, schema.KeyColumn)
		}
		session := defaultSession
		if h.session >= 0 {
			session, err = parseSession(at(row, h.session))
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", line)
			}
		}

		values := make(map[string]cell.Value)
		for col, colName := range h.data {
			if colName == "" {
				continue
			}
			v, err := typed(at(row, col), declared[colName])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", line, colName)
			}
			values[colName] = v
		}

		if err := t.AddRow(subject.NewKey(label, session), values); err != nil {
			return nil, errors.Wrapf(err, "row %d", line)
		}
	}
	return t, nil
}

// typed converts worksheet text to a Value of the declared kind, or infers
// the kind when none is declared.
func typed(raw string, kind cell.Kind) (cell.Value, error) {
	if kind == cell.KindText {
		return cell.Str(raw), nil
	}
	v := cell.Parse(raw)
	if cell.IsEmpty(v) || kind == cell.KindEmpty || kind == cell.KindMixed {
		return v, nil
	}
	c, ok := cell.Coerce(v, kind)
	if !ok {
		return nil, errors.Newf("%q is not a %s", raw, kind)
	}
	return c, nil
}

func parseSession(raw string) (int, error) {
	v := cell.Parse(raw)
	if cell.IsEmpty(v) {
		return 0, errors.New("empty session")
	}
	f, ok := cell.Float(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, errors.Newf("session %q is not an integer", raw)
	}
	return int(f), nil
}

func at(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, s := range row {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
