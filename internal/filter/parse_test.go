package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want Predicate
	}{
		{"age == 30", Equals("age", cell.Number(30))},
		{"sex = F", Equals("sex", cell.Text("F"))},
		{"site == 'North Wing'", Equals("site", cell.Text("North Wing"))},
		{`code == "42"`, Equals("code", cell.Text("42"))},
		{"sex != M", NotEquals("sex", cell.Text("M"))},
		{"site == INF", Equals("site", cell.Text("INF"))},
		{"age between 18 60", Between("age", 18, 60)},
		{"age WITHIN 18 60", Within("age", 18, 60)},
		{"hb exists", Exists("hb")},
		{"hb missing", NotExists("hb")},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"", "age", "age > 3", "age between 1", "site == 'open", "age within x y", "age within -inf 60"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidPredicate(err))
		})
	}
}

func TestParseAll(t *testing.T) {
	preds, err := ParseAll([]string{"age within 18 60", "sex == F"})
	require.NoError(t, err)
	assert.Len(t, preds, 2)

	_, err = ParseAll([]string{"age within 18 60", "bogus"})
	assert.Error(t, err)
}

func TestPredicate_StringRoundTrip(t *testing.T) {
	p := Within("age", 18, 60)
	assert.Equal(t, "age within 18 60", p.String())

	parsed, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}
