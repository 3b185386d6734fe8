package mshdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/filter"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// clinical builds a two-sheet database where blood lacks subject C.
func clinical(t *testing.T) *Database {
	t.Helper()
	main := table.New("main")
	require.NoError(t, main.AddRow(k("A"), map[string]cell.Value{"age": cell.Number(30), "sex": cell.Text("F")}))
	require.NoError(t, main.AddRow(k("B"), map[string]cell.Value{"age": cell.Number(70), "sex": cell.Text("M")}))
	require.NoError(t, main.AddRow(k("C"), map[string]cell.Value{"age": cell.Number(45), "sex": cell.Text("F")}))

	blood := table.New("blood")
	require.NoError(t, blood.AddRow(k("A"), map[string]cell.Value{"hb": cell.Number(13), "age": cell.Number(31)}))
	require.NoError(t, blood.AddRow(k("B"), map[string]cell.Value{"hb": cell.Empty, "age": cell.Number(71)}))

	return open(t, schema(true), main, blood)
}

func TestSelectDF(t *testing.T) {
	db := clinical(t)

	p, err := db.SelectDF(subject.Keys(1, "C", "A"), []SheetColumns{
		{Sheet: "main", Columns: []string{"sex"}},
		{Sheet: "blood", Columns: []string{"hb"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"subject", "session", "sex", "hb"}, p.Columns)
	assert.Equal(t, [][]cell.Value{
		{cell.Text("C"), cell.Number(1), cell.Text("F"), cell.Empty},
		{cell.Text("A"), cell.Number(1), cell.Text("F"), cell.Number(13)},
	}, p.Rows, "a key missing from a sheet yields empty cells, not a dropped row")
}

func TestSelectDF_WildcardAndCollisions(t *testing.T) {
	db := clinical(t)

	p, err := db.SelectDF(nil, []SheetColumns{
		{Sheet: "main", Columns: []string{table.Wildcard}},
		{Sheet: "blood", Columns: []string{table.Wildcard}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"subject", "session", "age", "sex", "blood.age", "hb"}, p.Columns)
	assert.Equal(t, 3, p.Len())

	ages, ok := p.Column("blood.age")
	require.True(t, ok)
	assert.Equal(t, []cell.Value{cell.Number(31), cell.Number(71), cell.Empty}, ages)

	_, ok = p.Column("weight")
	assert.False(t, ok)
}

func TestSelectDF_NoSessionColumn(t *testing.T) {
	s := schema(true)
	s.SessionColumn = ""
	db := open(t, s, rows(t, "main", "A"), rows(t, "blood", "A"))

	p, err := db.SelectDF(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"subject"}, p.Columns)
	assert.Equal(t, [][]cell.Value{{cell.Text("A")}}, p.Rows)
}

func TestSelectDF_Errors(t *testing.T) {
	db := clinical(t)

	_, err := db.SelectDF(nil, []SheetColumns{{Sheet: "mri", Columns: []string{"*"}}})
	assert.True(t, errors.IsSheetNotFound(err))

	_, err = db.SelectDF(nil, []SheetColumns{{Sheet: "blood", Columns: []string{"weight"}}})
	assert.True(t, errors.IsColumnNotFound(err))
}

func TestProjection_WriteCSV(t *testing.T) {
	db := clinical(t)
	p, err := db.SelectDF(subject.Keys(1, "B", "C"), []SheetColumns{
		{Sheet: "main", Columns: []string{"age"}},
		{Sheet: "blood", Columns: []string{"hb"}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf))
	assert.Equal(t, "subject,session,age,hb\nB,1,70,\nC,1,45,\n", buf.String())
}

func TestFilterSubjects(t *testing.T) {
	db := clinical(t)

	got, err := db.FilterSubjects(nil, []SheetFilter{
		{Sheet: "main", Predicates: []filter.Predicate{filter.Equals("sex", cell.Text("F"))}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, got.Labels())

	got, err = db.FilterSubjects(nil, []SheetFilter{
		{Sheet: "main", Predicates: []filter.Predicate{filter.Equals("sex", cell.Text("F"))}},
		{Sheet: "blood", Predicates: []filter.Predicate{filter.Exists("hb")}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Labels(), "C has no blood row")

	got, err = db.FilterSubjects(subject.Keys(1, "C", "B"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, got.Labels())

	_, err = db.FilterSubjects(nil, []SheetFilter{{Sheet: "mri"}})
	assert.True(t, errors.IsSheetNotFound(err))

	_, err = db.FilterSubjects(nil, []SheetFilter{{Sheet: "main", Predicates: []filter.Predicate{{Column: "age", Op: filter.OpEquals}}}})
	assert.True(t, errors.IsInvalidPredicate(err))
}

func TestDiff(t *testing.T) {
	db := clinical(t)
	assert.True(t, db.Diff(db).Empty())
	assert.Equal(t, "no differences\n", db.Diff(db).String())

	blood, _ := db.Sheet("blood")
	changed := blood.Clone()
	require.NoError(t, changed.SetValue(k("A"), "hb", cell.Number(12)))
	require.NoError(t, changed.AddRow(k("C"), map[string]cell.Value{"ferritin": cell.Number(80)}))

	set := db.Sheets()
	set.Set(changed)
	other, err := New(db.Schema(), set)
	require.NoError(t, err)

	rep := db.Diff(other)
	assert.False(t, rep.Empty())
	require.Len(t, rep.Sheets, 2)
	assert.True(t, rep.Sheets[0].Empty())

	d := rep.Sheets[1]
	assert.Equal(t, []string{"C#1"}, d.OnlyThere.IDs())
	assert.Empty(t, d.OnlyHere)
	assert.Equal(t, []string{"ferritin"}, d.ColumnsOnlyThere)
	require.Len(t, d.Changed, 1)
	assert.Equal(t, CellChange{Key: d.Changed[0].Key, Column: "hb", From: cell.Number(13), To: cell.Number(12)}, d.Changed[0])

	assert.Equal(t, "blood:\n  + C#1\n  + column ferritin\n  ~ A#1 hb: \"13\" -> \"12\"\n", rep.String())
}

func TestDiff_MissingSheet(t *testing.T) {
	db := clinical(t)
	other, err := New(sheets.Schema{Sheets: []string{"main"}, KeyColumn: "subject"}, sheets.New(db.Main()))
	require.NoError(t, err)

	rep := db.Diff(other)
	assert.Equal(t, []string{"blood"}, rep.MissingSheets)
	assert.False(t, rep.Empty())
}
