package cell

import "fmt"

// Kind is the declared type of a column or the type of one value.
type Kind int

const (
	// KindEmpty is the kind of the empty marker, and of a column that has
	// only ever held empty cells.
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindDate
	// KindMixed is a column holding values of more than one kind.
	KindMixed
)

var kindNames = map[Kind]string{
	KindEmpty:  "empty",
	KindNumber: "number",
	KindText:   "text",
	KindDate:   "date",
	KindMixed:  "mixed",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a kind name as written in schema files.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "number", "numeric", "float", "int":
		return KindNumber, nil
	case "text", "string":
		return KindText, nil
	case "date":
		return KindDate, nil
	case "mixed", "any":
		return KindMixed, nil
	case "", "empty":
		return KindEmpty, nil
	default:
		return KindEmpty, fmt.Errorf("unknown column kind %q", s)
	}
}

// Widen returns the column kind after storing a value of kind v in a
// column of kind k. Empty values never change the column kind.
func Widen(k, v Kind) Kind {
	switch {
	case v == KindEmpty:
		return k
	case k == KindEmpty:
		return v
	case k == v:
		return k
	default:
		return KindMixed
	}
}
