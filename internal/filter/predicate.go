package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
)

// Op is a predicate operator.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpBetweenExclusive
	OpBetweenInclusive
	OpExists
	OpNotExists
)

var opNames = map[Op]string{
	OpEquals:           "==",
	OpNotEquals:        "!=",
	OpBetweenExclusive: "between",
	OpBetweenInclusive: "within",
	OpExists:           "exists",
	OpNotExists:        "missing",
}

// String returns the operator as written by Parse.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// arity returns the number of operands o takes.
func (o Op) arity() int {
	switch o {
	case OpEquals, OpNotEquals:
		return 1
	case OpBetweenExclusive, OpBetweenInclusive:
		return 2
	default:
		return 0
	}
}

// Row is the view of one sheet row that predicates evaluate against.
type Row interface {
	// Cell returns the value in column and the column's declared kind.
	// ok is false when the column is absent from the row's schema.
	Cell(column string) (v cell.Value, kind cell.Kind, ok bool)
}

// Predicate is a single column comparison.
//
// Example:
//
//	Predicate{Column: "age", Op: OpBetweenInclusive, Operands: []cell.Value{cell.Number(18), cell.Number(60)}}
type Predicate struct {
	Column   string
	Op       Op
	Operands []cell.Value
}

// Equals creates a column == v predicate.
func Equals(column string, v cell.Value) Predicate {
	return Predicate{Column: column, Op: OpEquals, Operands: []cell.Value{v}}
}

// NotEquals creates a column != v predicate.
func NotEquals(column string, v cell.Value) Predicate {
	return Predicate{Column: column, Op: OpNotEquals, Operands: []cell.Value{v}}
}

// Between creates an exclusive range predicate lo < column < hi.
func Between(column string, lo, hi float64) Predicate {
	return Predicate{Column: column, Op: OpBetweenExclusive, Operands: []cell.Value{cell.Number(lo), cell.Number(hi)}}
}

// Within creates an inclusive range predicate lo <= column <= hi.
func Within(column string, lo, hi float64) Predicate {
	return Predicate{Column: column, Op: OpBetweenInclusive, Operands: []cell.Value{cell.Number(lo), cell.Number(hi)}}
}

// Exists creates a predicate matching present, non-empty, non-zero cells.
func Exists(column string) Predicate {
	return Predicate{Column: column, Op: OpExists}
}

// NotExists creates the negation of Exists for a present column.
func NotExists(column string) Predicate {
	return Predicate{Column: column, Op: OpNotExists}
}

// String renders p in the form accepted by Parse.
func (p Predicate) String() string {
	parts := []string{p.Column, p.Op.String()}
	for _, o := range p.Operands {
		parts = append(parts, cell.OrEmpty(o).String())
	}
	return strings.Join(parts, " ")
}

// Match evaluates p against row. It never fails: missing columns and
// empty cells are non-matches.
func (p Predicate) Match(row Row) bool {
	v, kind, ok := row.Cell(p.Column)
	if !ok {
		return false
	}
	v = cell.OrEmpty(v)

	switch p.Op {
	case OpEquals:
		return len(p.Operands) == 1 && equalsCell(v, kind, p.Operands[0])
	case OpNotEquals:
		return len(p.Operands) == 1 && !cell.IsEmpty(v) && !equalsCell(v, kind, p.Operands[0])
	case OpBetweenExclusive, OpBetweenInclusive:
		return inRange(v, p.Operands, p.Op == OpBetweenInclusive)
	case OpExists:
		return exists(v)
	case OpNotExists:
		return !exists(v)
	default:
		return false
	}
}

// MatchAll reports whether row satisfies every predicate in preds.
// An empty list matches every row.
func MatchAll(preds []Predicate, row Row) bool {
	for _, p := range preds {
		if !p.Match(row) {
			return false
		}
	}
	return true
}

// equalsCell compares v with operand after normalizing both to the
// column's declared kind. Mixed or untyped columns compare in v's kind.
func equalsCell(v cell.Value, kind cell.Kind, operand cell.Value) bool {
	if cell.IsEmpty(v) || cell.IsEmpty(operand) {
		return false
	}
	target := kind
	if target == cell.KindMixed || target == cell.KindEmpty {
		target = v.Kind()
	}
	cv, ok := cell.Coerce(v, target)
	if !ok {
		return false
	}
	ov, ok := cell.Coerce(operand, target)
	if !ok {
		return false
	}
	return cell.Same(cv, ov)
}

func inRange(v cell.Value, operands []cell.Value, inclusive bool) bool {
	if len(operands) != 2 {
		return false
	}
	x, ok := cell.Float(v)
	if !ok {
		return false
	}
	lo, ok := cell.Float(operands[0])
	if !ok {
		return false
	}
	hi, ok := cell.Float(operands[1])
	if !ok {
		return false
	}
	if inclusive {
		return lo <= x && x <= hi
	}
	return lo < x && x < hi
}

func exists(v cell.Value) bool {
	if cell.IsEmpty(v) {
		return false
	}
	if f, ok := cell.Float(v); ok {
		return f != 0
	}
	return true
}

// Validate checks operand counts and range bounds for every predicate.
// Validate is a pure function with no side effects.
func Validate(preds []Predicate) error {
	for _, p := range preds {
		if p.Column == "" {
			return errors.NewInvalidPredicateError("", "predicate has no column")
		}
		if _, ok := opNames[p.Op]; !ok {
			return errors.NewInvalidPredicateError(p.Column, fmt.Sprintf("unknown operator %d", int(p.Op)))
		}
		if got, want := len(p.Operands), p.Op.arity(); got != want {
			return errors.NewInvalidPredicateError(p.Column,
				fmt.Sprintf("operator %s takes %d operand(s), got %d", p.Op, want, got))
		}
		if p.Op == OpBetweenExclusive || p.Op == OpBetweenInclusive {
			lo, okLo := cell.Float(cell.OrEmpty(p.Operands[0]))
			hi, okHi := cell.Float(cell.OrEmpty(p.Operands[1]))
			if !okLo || !okHi {
				return errors.NewInvalidPredicateError(p.Column, "range bounds must be numbers")
			}
			if !cell.Finite(lo) || !cell.Finite(hi) {
				return errors.NewInvalidPredicateError(p.Column, "range bounds must be finite")
			}
			if lo > hi {
				return errors.NewInvalidPredicateError(p.Column,
					fmt.Sprintf("range lower bound %v exceeds upper bound %v", lo, hi))
			}
		}
	}
	return nil
}
