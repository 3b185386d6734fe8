package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
)

// Parse parses the short textual form of a predicate.
//
// Supported forms:
//   - "age == 30", "sex = F", "site == 'North Wing'"
//   - "sex != M"
//   - "age between 18 60"  (exclusive)
//   - "age within 18 60"   (inclusive)
//   - "hb exists"
//   - "hb missing"
//
// Operand text is typed with cell.Parse, so numbers and ISO dates become
// Number and Date values; quotes force text.
func Parse(expr string) (Predicate, error) {
	fields, err := tokenize(strings.TrimSpace(expr))
	if err != nil {
		return Predicate{}, err
	}
	if len(fields) < 2 {
		return Predicate{}, errors.NewInvalidPredicateError("", fmt.Sprintf("unsupported expression: %q", expr))
	}

	column, op := fields[0].text, strings.ToLower(fields[1].text)
	operands := fields[2:]

	var p Predicate
	switch op {
	case "==", "=":
		p = Predicate{Column: column, Op: OpEquals}
	case "!=":
		p = Predicate{Column: column, Op: OpNotEquals}
	case "between":
		p = Predicate{Column: column, Op: OpBetweenExclusive}
	case "within":
		p = Predicate{Column: column, Op: OpBetweenInclusive}
	case "exists":
		p = Predicate{Column: column, Op: OpExists}
	case "missing", "not-exists":
		p = Predicate{Column: column, Op: OpNotExists}
	default:
		return Predicate{}, errors.NewInvalidPredicateError(column, fmt.Sprintf("unsupported operator %q", fields[1].text))
	}

	for _, o := range operands {
		if o.quoted {
			p.Operands = append(p.Operands, cell.Str(o.text))
		} else {
			p.Operands = append(p.Operands, cell.Parse(o.text))
		}
	}

	if err := Validate([]Predicate{p}); err != nil {
		return Predicate{}, err
	}
	return p, nil
}

// ParseAll parses each expression, stopping at the first error.
func ParseAll(exprs []string) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(exprs))
	for _, e := range exprs {
		p, err := Parse(e)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

type token struct {
	text   string
	quoted bool
}

// tokenize splits on whitespace, keeping single or double quoted runs together.
func tokenize(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, errors.NewInvalidPredicateError("", fmt.Sprintf("unterminated quote in %q", s))
			}
			out = append(out, token{text: s[i+1 : i+1+end], quoted: true})
			i += end + 2
		default:
			j := i
			for j < len(s) && s[j] != ' ' && s[j] != '\t' {
				j++
			}
			out = append(out, token{text: s[i:j]})
			i = j
		}
	}
	return out, nil
}
