package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
)

// mapRow is a Row backed by a map; kinds default to the value's kind.
type mapRow struct {
	values map[string]cell.Value
	kinds  map[string]cell.Kind
}

func (r mapRow) Cell(column string) (cell.Value, cell.Kind, bool) {
	v, ok := r.values[column]
	if !ok {
		return nil, cell.KindEmpty, false
	}
	if k, ok := r.kinds[column]; ok {
		return v, k, true
	}
	return v, v.Kind(), true
}

func row(pairs ...any) mapRow {
	r := mapRow{values: map[string]cell.Value{}, kinds: map[string]cell.Kind{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.values[pairs[i].(string)] = pairs[i+1].(cell.Value)
	}
	return r
}

func TestMatch_Equals(t *testing.T) {
	r := row("sex", cell.Text("F"), "age", cell.Number(30), "hb", cell.Empty)
	r.kinds["age"] = cell.KindNumber
	r.kinds["hb"] = cell.KindNumber

	assert.True(t, Equals("sex", cell.Text("F")).Match(r))
	assert.False(t, Equals("sex", cell.Text("M")).Match(r))
	assert.True(t, Equals("age", cell.Text("30")).Match(r), "operand normalized to column kind")
	assert.False(t, Equals("hb", cell.Empty).Match(r), "empty never equals empty")
	assert.False(t, Equals("missing_col", cell.Text("F")).Match(r))
}

func TestMatch_NotEquals(t *testing.T) {
	r := row("sex", cell.Text("F"), "hb", cell.Empty)

	assert.True(t, NotEquals("sex", cell.Text("M")).Match(r))
	assert.False(t, NotEquals("sex", cell.Text("F")).Match(r))
	assert.False(t, NotEquals("hb", cell.Number(1)).Match(r), "empty cells never match")
	assert.False(t, NotEquals("nope", cell.Number(1)).Match(r))
}

func TestMatch_Ranges(t *testing.T) {
	tests := []struct {
		name string
		v    cell.Value
		incl bool
		excl bool
	}{
		{"below", cell.Number(17), false, false},
		{"lower bound", cell.Number(18), true, false},
		{"inside", cell.Number(30), true, true},
		{"upper bound", cell.Number(60), true, false},
		{"above", cell.Number(61), false, false},
		{"empty", cell.Empty, false, false},
		{"text", cell.Text("30"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := row("age", tt.v)
			assert.Equal(t, tt.incl, Within("age", 18, 60).Match(r))
			assert.Equal(t, tt.excl, Between("age", 18, 60).Match(r))
		})
	}
}

func TestMatch_Exists(t *testing.T) {
	r := row("n", cell.Number(2), "zero", cell.Number(0), "t", cell.Text("x"), "e", cell.Empty)

	assert.True(t, Exists("n").Match(r))
	assert.False(t, Exists("zero").Match(r), "numeric zero does not exist")
	assert.True(t, Exists("t").Match(r))
	assert.False(t, Exists("e").Match(r))

	assert.True(t, NotExists("zero").Match(r))
	assert.True(t, NotExists("e").Match(r))
	assert.False(t, NotExists("n").Match(r))
	assert.False(t, NotExists("absent").Match(r), "absent column is a non-match for every operator")
}

func TestMatchAll(t *testing.T) {
	r := row("sex", cell.Text("F"), "age", cell.Number(30))

	assert.True(t, MatchAll(nil, r), "empty list is vacuously true")
	assert.True(t, MatchAll([]Predicate{Equals("sex", cell.Text("F")), Within("age", 18, 60)}, r))
	assert.False(t, MatchAll([]Predicate{Equals("sex", cell.Text("F")), Within("age", 40, 60)}, r))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]Predicate{Within("age", 18, 60), Exists("hb")}))

	tests := []struct {
		name string
		p    Predicate
	}{
		{"no column", Predicate{Op: OpExists}},
		{"wrong arity", Predicate{Column: "age", Op: OpEquals}},
		{"text bounds", Predicate{Column: "age", Op: OpBetweenInclusive, Operands: []cell.Value{cell.Text("a"), cell.Number(1)}}},
		{"inverted bounds", Within("age", 60, 18)},
		{"infinite bound", Between("age", math.Inf(-1), 60)},
		{"nan bound", Within("age", 18, math.NaN())},
		{"unknown op", Predicate{Column: "age", Op: Op(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]Predicate{tt.p})
			require.Error(t, err)
			assert.True(t, errors.IsInvalidPredicate(err))
		})
	}
}
