package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

func sheet(t *testing.T, name string, labels ...string) *table.Table {
	t.Helper()
	tbl := table.New(name)
	for _, l := range labels {
		require.NoError(t, tbl.AddRow(subject.NewKey(l, 1), map[string]cell.Value{"v": cell.Text(name + "-" + l)}))
	}
	return tbl
}

func testSchema() Schema {
	return Schema{
		Sheets:      []string{"demographics", "blood"},
		KeyColumn:   "subject",
		GroupColumn: "group",
		Columns: map[string][]table.Column{
			"blood": {{Name: "hb", Kind: cell.KindNumber}},
		},
	}
}

func TestSchema_Validate(t *testing.T) {
	require.NoError(t, testSchema().Validate())

	tests := []struct {
		name   string
		mutate func(*Schema)
	}{
		{"no sheets", func(s *Schema) { s.Sheets = nil }},
		{"duplicate sheet", func(s *Schema) { s.Sheets = []string{"a", "a"} }},
		{"empty sheet name", func(s *Schema) { s.Sheets = []string{"a", ""} }},
		{"main out of range", func(s *Schema) { s.MainIndex = 2 }},
		{"negative main", func(s *Schema) { s.MainIndex = -1 }},
		{"no key column", func(s *Schema) { s.KeyColumn = "" }},
		{"session equals key", func(s *Schema) { s.SessionColumn = "subject" }},
		{"group equals key", func(s *Schema) { s.GroupColumn = "subject" }},
		{"columns for unknown sheet", func(s *Schema) {
			s.Columns = map[string][]table.Column{"mri": {{Name: "vol"}}}
		}},
		{"identity column as data", func(s *Schema) {
			s.Columns = map[string][]table.Column{"blood": {{Name: "subject"}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSchema()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalidSchema(err))
		})
	}
}

func TestFromSchema(t *testing.T) {
	s := testSchema()
	s.MainIndex = 1
	set := FromSchema(s)

	assert.Equal(t, []string{"demographics", "blood"}, set.Names())
	assert.Equal(t, "blood", set.MainName())

	blood, ok := set.Get("blood")
	require.True(t, ok)
	assert.Equal(t, "group", blood.GroupColumn())
	assert.Equal(t, []string{"hb"}, blood.ColumnNames())
	assert.Empty(t, set.AllSubjects())
	assert.True(t, set.IsConsistent())
}

func TestAllSubjects_MainFirst(t *testing.T) {
	set := New(sheet(t, "main", "B", "A"), sheet(t, "blood", "C", "A"), sheet(t, "mri", "D", "B"))

	assert.Equal(t, []string{"B", "A", "C", "D"}, set.AllSubjects().Labels())

	require.NoError(t, set.SetMain("mri"))
	assert.Equal(t, []string{"D", "B", "A", "C"}, set.AllSubjects().Labels())

	assert.True(t, errors.IsSheetNotFound(set.SetMain("nope")))
}

func TestIsConsistent(t *testing.T) {
	set := New(sheet(t, "main", "A", "B"), sheet(t, "blood", "B", "A"))
	assert.True(t, set.IsConsistent(), "order does not matter")

	set = New(sheet(t, "main", "A", "B"), sheet(t, "blood", "A"))
	assert.False(t, set.IsConsistent())

	set = New(sheet(t, "main", "A"), sheet(t, "blood", "A", "Z"))
	assert.False(t, set.IsConsistent(), "extra keys in a secondary sheet break consistency too")
}

func TestConsistency_Report(t *testing.T) {
	set := New(sheet(t, "main", "A", "B"), sheet(t, "blood", "A", "Z"))

	rep := set.Consistency()
	assert.False(t, rep.Consistent())
	assert.Equal(t, 3, rep.Subjects)
	assert.Equal(t, []string{"main", "blood"}, rep.Inconsistent())

	assert.Equal(t, []string{"Z#1"}, rep.Sheets[0].Missing.IDs())
	assert.Empty(t, rep.Sheets[0].NotInMain)
	assert.Equal(t, []string{"B#1"}, rep.Sheets[1].Missing.IDs())
	assert.Equal(t, []string{"Z#1"}, rep.Sheets[1].NotInMain.IDs())

	assert.Equal(t, "3 subjects, main sheet \"main\"\n"+
		"  main: missing [Z#1]\n"+
		"  blood: missing [B#1] not in main [Z#1]\n", rep.String())
}

func TestCopy_SharesTables(t *testing.T) {
	set := New(sheet(t, "main", "A"))
	cp := set.Copy()

	main, _ := cp.Get("main")
	require.NoError(t, main.AddRow(subject.NewKey("B", 1), nil))
	assert.Equal(t, 2, set.Main().Len(), "tables are shared")

	cp.Set(sheet(t, "main", "X"))
	assert.Equal(t, []string{"A", "B"}, set.Main().Keys().Labels(), "replacing a table is not shared")
}

func TestClone_IsDeep(t *testing.T) {
	set := New(sheet(t, "main", "A"), sheet(t, "blood", "A"))
	before, err := set.Fingerprint()
	require.NoError(t, err)

	c := set.Clone()
	main, _ := c.Get("main")
	require.NoError(t, main.AddRow(subject.NewKey("B", 1), nil))

	after, err := set.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	cloned, err := c.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, before, cloned)
}

func TestSet_ReplaceKeepsOrder(t *testing.T) {
	set := New(sheet(t, "main", "A"), sheet(t, "blood", "A"))
	set.Set(sheet(t, "main", "A", "B"))

	assert.Equal(t, []string{"main", "blood"}, set.Names())
	assert.Equal(t, 2, set.Main().Len())
	assert.Len(t, set.Tables(), 2)
}
