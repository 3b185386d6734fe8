package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mshdb/internal/testutil"
)

func TestCheck_Consistent(t *testing.T) {
	f := newFixture(t)
	book := f.study()

	out, err := f.run("check", book)
	require.NoError(t, err)
	assert.Contains(t, out, "demographics")
	assert.Contains(t, out, "all sheets consistent")

	out, err = f.run("--format", "json", "check", book)
	require.NoError(t, err)
	result := decodeData[CheckResult](t, out)
	assert.True(t, result.Valid)
	assert.True(t, result.Consistent)
	assert.Equal(t, 2, result.Subjects)
	assert.Equal(t, "demographics", result.Main)
	require.Len(t, result.Sheets, 2)
	assert.Equal(t, SheetStatus{Name: "labs", Rows: 2}, result.Sheets[1])
}

func TestCheck_Inconsistent(t *testing.T) {
	f := newFixture(t)
	book := f.book("gap.xlsx", map[string][]testutil.Record{
		"demographics": {
			{"subject": "P01", "session": 1, "age": 30},
			{"subject": "P02", "session": 1, "age": 45},
		},
		"labs": {
			{"subject": "P01", "session": 1, "hb": 12.5},
		},
	})

	out, err := f.run("--format", "json", "check", book)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "labs")

	result := decodeData[CheckResult](t, out)
	assert.False(t, result.Consistent)
	assert.Equal(t, []string{"P02#1"}, result.Sheets[1].Missing)
}

func TestCheck_SchemaErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "mshdb.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[dataset]
key = "subject"

[[dataset.sheets]]
name = "visits"

[[dataset.sheets]]
name = "visits"
`), 0o644))

	out, err := execute(t, "--config", cfg, "check", filepath.Join(dir, "unused.xlsx"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Schema validation failed")
	assert.Contains(t, out, "E103")
}

func TestCheck_CommandErrors(t *testing.T) {
	f := newFixture(t)

	t.Run("missing schema file", func(t *testing.T) {
		out, err := execute(t, "--schema", f.path("absent.cue"), "check", f.study())
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "schema file not found")
	})

	t.Run("missing workbook", func(t *testing.T) {
		_, err := f.run("check", f.path("absent.xlsx"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("workbook missing a sheet", func(t *testing.T) {
		book := f.book("partial.xlsx", map[string][]testutil.Record{
			"demographics": {{"subject": "P01", "session": 1}},
		})
		out, err := f.run("check", book)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "SHEET_NOT_FOUND")
	})
}

func TestMerge(t *testing.T) {
	f := newFixture(t)
	book := f.study()
	incoming := f.book("new.xlsx", map[string][]testutil.Record{
		"demographics": {{"subject": "P03", "session": 1, "group": "pd", "age": 52}},
	})
	merged := f.path("merged.xlsx")

	out, err := f.run("--format", "json", "merge", book, incoming, "-o", merged)
	require.NoError(t, err)
	result := decodeData[MergeResult](t, out)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 3, result.Subjects)
	assert.Equal(t, []string{"P03#1"}, result.Keys)

	db := f.load(merged)
	assert.Equal(t, []string{"P01#1", "P02#1", "P03#1"}, db.Subjects().IDs())
	assert.True(t, db.IsConsistent())

	labs, ok := db.Sheet("labs")
	require.True(t, ok)
	rec, ok := labs.Record(db.Subjects()[2])
	require.True(t, ok)
	assert.Equal(t, "pd", rec["group"].String())
}

func TestMerge_Rejected(t *testing.T) {
	f := newFixture(t)
	book := f.study()

	t.Run("conflicting subject", func(t *testing.T) {
		incoming := f.book("dup.xlsx", map[string][]testutil.Record{
			"demographics": {{"subject": "P01", "session": 1}},
		})
		out, err := f.run("merge", book, incoming, "-o", f.path("out.xlsx"))
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "CONFLICTING_SUBJECT")
		assert.NoFileExists(t, f.path("out.xlsx"))
	})

	t.Run("inconsistent incoming", func(t *testing.T) {
		incoming := f.book("uneven.xlsx", map[string][]testutil.Record{
			"demographics": {{"subject": "P03", "session": 1}, {"subject": "P04", "session": 1}},
			"labs":         {{"subject": "P03", "session": 1}},
		})
		out, err := f.run("merge", book, incoming, "-o", f.path("out.xlsx"))
		require.Error(t, err)
		assert.Contains(t, out, "INCONSISTENT_INCOMING")

		_, err = f.run("merge", book, incoming, "-o", f.path("out.xlsx"), "--allow-partial")
		require.NoError(t, err)
		assert.Len(t, f.load(f.path("out.xlsx")).Subjects(), 4)
	})
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	book := f.study()
	out := f.path("out.xlsx")

	stdout, err := f.run("remove", book, "--subject", "P02#1", "--subject", "P99#1", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 subjects -> 1 subjects")
	assert.Equal(t, []string{"P01#1"}, f.load(out).Subjects().IDs())

	_, err = f.run("remove", book, "--subject", "P02", "-o", out)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	book := f.study()
	out := f.path("out.xlsx")

	_, err := f.run("rename", book, "--map", "P01=P10", "-o", out)
	require.NoError(t, err)
	assert.Equal(t, []string{"P10#1", "P02#1"}, f.load(out).Subjects().IDs())

	stdout, err := f.run("rename", book, "--map", "P01=P02", "-o", f.path("dup.xlsx"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "DUPLICATE_KEY")

	_, err = f.run("rename", book, "--map", "P01", "-o", out)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSelect(t *testing.T) {
	f := newFixture(t)
	book := f.study()

	out, err := f.run("--format", "json", "select", book,
		"--sheet", "demographics:age",
		"--sheet", "labs:hb",
		"--where", "demographics:age within 40 50")
	require.NoError(t, err)
	view := decodeData[ProjectionView](t, out)
	assert.Equal(t, []string{"subject", "session", "age", "hb"}, view.Columns)
	assert.Equal(t, [][]string{{"P02", "1", "45", "14"}}, view.Rows)

	out, err = f.run("select", book, "--sheet", "labs")
	require.NoError(t, err)
	assert.Contains(t, out, "hb")
	assert.Contains(t, out, "12.5")
	assert.NotContains(t, out, "group", "wildcard skips the group column")
}

func TestSelect_CSV(t *testing.T) {
	f := newFixture(t)
	csvPath := f.path("out.csv")

	out, err := f.run("select", f.study(), "--sheet", "labs:hb", "--subject", "P02#1", "--csv", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows x 3 columns")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"subject,session,hb", "P02,1,14"}, lines)
}

func TestSelect_Errors(t *testing.T) {
	f := newFixture(t)
	book := f.study()

	tests := []struct {
		name string
		args []string
		exit int
		code string
	}{
		{"bad predicate", []string{"--sheet", "labs", "--where", "labs:hb ~ 3"}, ExitFailure, "INVALID_PREDICATE"},
		{"unknown column", []string{"--sheet", "labs:crp"}, ExitFailure, "COLUMN_NOT_FOUND"},
		{"unknown sheet", []string{"--sheet", "vitals:bp"}, ExitFailure, "SHEET_NOT_FOUND"},
		{"filter without sheet", []string{"--sheet", "labs", "--where", "hb exists"}, ExitCommandError, ErrCodeGeneric},
		{"empty column list", []string{"--sheet", "labs:"}, ExitCommandError, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.run(append([]string{"select", book}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, out, tt.code)
		})
	}
}

func TestExportImportSnapshots(t *testing.T) {
	f := newFixture(t)
	book := f.study()
	dbPath := f.path("study.sqlite")

	out, err := f.run("--format", "json", "export", book, "--db", dbPath, "--name", "week1")
	require.NoError(t, err)
	snap := decodeData[SnapshotView](t, out)
	assert.Equal(t, "week1", snap.Name)
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, 2, snap.Sheets)
	assert.Equal(t, 4, snap.Rows)

	out, err = f.run("--format", "json", "snapshots", "--db", dbPath)
	require.NoError(t, err)
	list := decodeData[[]SnapshotView](t, out)
	require.Len(t, list, 1)
	assert.Equal(t, snap, list[0])

	restored := f.path("restored.xlsx")
	_, err = f.run("import", "--db", dbPath, "--name", "week1", "-o", restored)
	require.NoError(t, err)

	want, err := f.load(book).Fingerprint()
	require.NoError(t, err)
	got, err := f.load(restored).Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, snap.Fingerprint, got)

	_, err = f.run("import", "--db", dbPath, "--name", "week2", "-o", restored)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSnapshots_Empty(t *testing.T) {
	f := newFixture(t)

	out, err := f.run("snapshots", "--db", f.path("empty.sqlite"))
	require.NoError(t, err)
	assert.Contains(t, out, "no snapshots")
}
