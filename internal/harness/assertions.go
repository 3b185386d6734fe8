package harness

import (
	"slices"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/subject"
)

// check evaluates one assertion against the final state.
func (h *Harness) check(a Assertion) error {
	switch a.Type {
	case AssertSubjects:
		return h.checkSubjects(a)
	case AssertConsistent:
		if got := h.db.IsConsistent(); got != *a.Consistent {
			return errors.Newf("consistent = %v, want %v\n%s", got, *a.Consistent, h.db.Consistency())
		}
		return nil
	case AssertRowCount:
		t, ok := h.db.Sheet(a.Sheet)
		if !ok {
			return errors.Newf("sheet %q not found", a.Sheet)
		}
		if t.Len() != *a.Count {
			return errors.Newf("sheet %q has %d rows, want %d", a.Sheet, t.Len(), *a.Count)
		}
		return nil
	case AssertCell:
		return h.checkCell(a)
	case AssertProjection:
		return h.checkProjection(a)
	default:
		return errors.Newf("unknown assertion type %q", a.Type)
	}
}

func (h *Harness) checkSubjects(a Assertion) error {
	got := h.db.Subjects().IDs()
	if len(got) == 0 && len(a.Subjects) == 0 {
		return nil
	}
	if !slices.Equal(got, a.Subjects) {
		return errors.Newf("subjects = %v, want %v", got, a.Subjects)
	}
	return nil
}

func (h *Harness) checkCell(a Assertion) error {
	t, ok := h.db.Sheet(a.Sheet)
	if !ok {
		return errors.Newf("sheet %q not found", a.Sheet)
	}
	k, err := subject.ParseKey(a.Subject)
	if err != nil {
		return err
	}
	v, err := t.Value(k, a.Column)
	if err != nil {
		return err
	}
	if got, want := renderValue(v), renderValue(a.Value); got != want {
		return errors.Newf("%s %s.%s = %q, want %q", a.Sheet, a.Subject, a.Column, got, want)
	}
	return nil
}

func (h *Harness) checkProjection(a Assertion) error {
	p := h.result.Projection
	if p == nil {
		return errors.New("no select step produced a projection")
	}
	if !slices.Equal(p.Columns, a.Columns) {
		return errors.Newf("columns = %v, want %v", p.Columns, a.Columns)
	}
	if len(p.Rows) != len(a.Rows) {
		return errors.Newf("projection has %d rows, want %d", len(p.Rows), len(a.Rows))
	}
	for i, row := range p.Rows {
		want := a.Rows[i]
		if len(want) != len(row) {
			return errors.Newf("rows[%d] has %d values, want %d", i, len(row), len(want))
		}
		for j, v := range row {
			if got, exp := renderValue(v), renderValue(want[j]); got != exp {
				return errors.Newf("rows[%d].%s = %q, want %q", i, p.Columns[j], got, exp)
			}
		}
	}
	return nil
}
