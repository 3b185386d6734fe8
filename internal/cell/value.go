package cell

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the textual form of Date values.
const DateLayout = "2006-01-02"

// Value is a sealed interface representing one cell of a sheet.
// Only EmptyValue, Number, Text and Date implement it.
type Value interface {
	cellValue() // Sealed - only these types implement it

	// Kind reports the value's type.
	Kind() Kind

	// String renders the value for display. Empty renders as "".
	String() string
}

// EmptyValue is the explicit empty marker. Use the Empty variable.
type EmptyValue struct{}

func (EmptyValue) cellValue()     {}
func (EmptyValue) Kind() Kind     { return KindEmpty }
func (EmptyValue) String() string { return "" }

// Empty is the empty marker stored in cells that carry no data.
var Empty Value = EmptyValue{}

// Number represents a numeric cell. Always finite; use Num to construct.
type Number float64

func (Number) cellValue()       {}
func (Number) Kind() Kind       { return KindNumber }
func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

// Text represents a string cell. Never empty; use Str to construct.
type Text string

func (Text) cellValue()       {}
func (Text) Kind() Kind       { return KindText }
func (t Text) String() string { return string(t) }

// Date represents a calendar day.
type Date struct {
	t time.Time
}

func (Date) cellValue()       {}
func (Date) Kind() Kind       { return KindDate }
func (d Date) String() string { return d.t.Format(DateLayout) }

// Time returns the day as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Num creates a Number, or Empty for NaN and ±Inf.
func Num(f float64) Value {
	if !Finite(f) {
		return Empty
	}
	return Number(f)
}

// Finite reports whether f can be held by a Number.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Str creates a Text, or Empty for the empty string.
func Str(s string) Value {
	if s == "" {
		return Empty
	}
	return Text(s)
}

// DateOf creates a Date truncated to the UTC day of t. The zero time is Empty.
func DateOf(t time.Time) Value {
	if t.IsZero() {
		return Empty
	}
	y, m, d := t.UTC().Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewDate creates a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Value {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether v is nil or the empty marker.
func IsEmpty(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(EmptyValue)
	return ok
}

// OrEmpty returns v, or Empty when v is nil.
func OrEmpty(v Value) Value {
	if v == nil {
		return Empty
	}
	return v
}

// Normalize returns v with nil and non-finite numbers replaced by Empty.
// Tables store normalized values only.
func Normalize(v Value) Value {
	if n, ok := v.(Number); ok && !Finite(float64(n)) {
		return Empty
	}
	return OrEmpty(v)
}

// Float returns the numeric content of v.
func Float(v Value) (float64, bool) {
	n, ok := v.(Number)
	return float64(n), ok
}

// Same reports whether a and b hold the same content. Unlike predicate
// equality, two Empty markers are the same. Used for diffs and snapshots.
func Same(a, b Value) bool {
	a, b = OrEmpty(a), OrEmpty(b)
	switch av := a.(type) {
	case EmptyValue:
		return IsEmpty(b)
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Date:
		bv, ok := b.(Date)
		return ok && av.t.Equal(bv.t)
	default:
		return false
	}
}

// Parse infers a typed Value from cell text.
// Integers and decimals become Number, ISO dates become Date, blanks and
// NaN spellings become Empty, anything else is Text. Infinity spellings
// such as "INF" stay Text.
func Parse(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Empty
	}
	switch strings.ToLower(trimmed) {
	case "nan", "na", "n/a":
		return Empty
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Number(float64(i))
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) {
		return Num(f)
	}
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return DateOf(t)
	}
	return Text(s)
}

// FromAny converts a Go value (as decoded from YAML, JSON or CUE) to a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Empty, nil
	case Value:
		return OrEmpty(val), nil
	case string:
		return Str(val), nil
	case int:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float32:
		return Num(float64(val)), nil
	case float64:
		return Num(val), nil
	case bool:
		if val {
			return Number(1), nil
		}
		return Number(0), nil
	case time.Time:
		return DateOf(val), nil
	default:
		return nil, fmt.Errorf("unsupported cell type: %T", v)
	}
}

// ToAny converts a Value to a plain Go value for encoding.
// Empty becomes nil and Date becomes its ISO string.
func ToAny(v Value) any {
	switch val := OrEmpty(v).(type) {
	case Number:
		return float64(val)
	case Text:
		return string(val)
	case Date:
		return val.String()
	default:
		return nil
	}
}

// Coerce normalizes v to kind k for comparison. It reports false when v
// cannot be represented as k. Empty never coerces.
func Coerce(v Value, k Kind) (Value, bool) {
	v = OrEmpty(v)
	if IsEmpty(v) {
		return nil, false
	}
	if k == KindMixed || k == KindEmpty || v.Kind() == k {
		return v, true
	}
	switch k {
	case KindNumber:
		if t, ok := v.(Text); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
			if err != nil || !Finite(f) {
				return nil, false
			}
			return Number(f), true
		}
	case KindText:
		return Text(v.String()), true
	case KindDate:
		if t, ok := v.(Text); ok {
			parsed, err := time.Parse(DateLayout, strings.TrimSpace(string(t)))
			if err != nil {
				return nil, false
			}
			return DateOf(parsed), true
		}
	}
	return nil, false
}
