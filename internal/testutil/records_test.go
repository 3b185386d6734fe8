package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
)

func schema() sheets.Schema {
	return sheets.Schema{
		Sheets:        []string{"main", "blood"},
		MainIndex:     1,
		KeyColumn:     "subject",
		SessionColumn: "session",
		GroupColumn:   "group",
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		in   any
		want cell.Value
	}{
		{nil, cell.Empty},
		{30, cell.Number(30)},
		{2.5, cell.Number(2.5)},
		{"12", cell.Number(12)},
		{"2024-03-01", cell.NewDate(2024, 3, 1)},
		{"pd", cell.Text("pd")},
		{"", cell.Empty},
	}
	for _, tt := range tests {
		got, err := Value(tt.in)
		require.NoError(t, err)
		assert.True(t, cell.Same(tt.want, got), "Value(%#v) = %#v", tt.in, got)
	}

	_, err := Value([]int{1})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	s := schema()

	k, err := Key(s, Record{"subject": "A", "session": 2})
	require.NoError(t, err)
	assert.Equal(t, "A#2", k.ID())

	k, err = Key(s, Record{"subject": 101})
	require.NoError(t, err)
	assert.Equal(t, "101#1", k.ID())

	k, err = Key(s, Record{"subject": "B", "session": "3"})
	require.NoError(t, err)
	assert.Equal(t, "B#3", k.ID())

	_, err = Key(s, Record{"session": 1})
	assert.Error(t, err)

	_, err = Key(s, Record{"subject": "A", "session": 1.5})
	assert.Error(t, err)
}

func TestTableFromRecords(t *testing.T) {
	tbl := MustTable(t, schema(), "main",
		Record{"subject": "A", "session": 1, "group": "pd", "age": 30},
		Record{"subject": "B", "session": 1, "age": nil},
	)

	assert.Equal(t, []string{"A#1", "B#1"}, tbl.Keys().IDs())
	assert.Equal(t, "group", tbl.GroupColumn())
	assert.Equal(t, []string{"age"}, tbl.ColumnNames())
	assert.True(t, tbl.IsCellEmpty(subject.NewKey("B", 1), "age"))

	_, err := TableFromRecords(schema(), "main", []Record{
		{"subject": "A"}, {"subject": "A", "session": 1},
	})
	require.Error(t, err)
	assert.True(t, errors.IsDuplicateKey(err))
}

func TestSetFromRecords(t *testing.T) {
	set, err := SetFromRecords(schema(), map[string][]Record{
		"zeta":  {{"subject": "Z"}},
		"blood": {{"subject": "A"}},
		"main":  {{"subject": "A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "blood", "zeta"}, set.Names())
	assert.Equal(t, "blood", set.MainName())

	partial, err := SetFromRecords(schema(), map[string][]Record{"main": {{"subject": "A"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, partial.Names())
	assert.Equal(t, "main", partial.MainName())
}

func TestMustSet_FillsSchemaSheets(t *testing.T) {
	set := MustSet(t, schema(), map[string][]Record{"main": {{"subject": "A"}}})
	assert.Equal(t, []string{"main", "blood"}, set.Names())

	blood, ok := set.Get("blood")
	require.True(t, ok)
	assert.Equal(t, 0, blood.Len())
}
