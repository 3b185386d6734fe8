package subject

import (
	"slices"
	"strings"

	"github.com/roach88/mshdb/internal/filter"
)

// KeyList is an ordered sequence of keys. Construction does not remove
// duplicates; operations documented as "no repeat" guarantee uniqueness.
//
// All KeyList operations are pure: they never modify the receiver or
// their arguments and never fail on empty input.
type KeyList []Key

// Context selects which side's elements IsIn returns.
type Context int

const (
	// ContextSelf returns the receiver's matching elements.
	ContextSelf Context = iota
	// ContextOther returns the candidates' matching elements.
	ContextOther
)

// Source looks rows up by subject key. Tables implement it.
type Source interface {
	// RowFor returns the row for k, or false if k has no row.
	RowFor(k Key) (filter.Row, bool)
}

// Keys builds a KeyList from label/session pairs, all with the same session.
func Keys(session int, labels ...string) KeyList {
	out := make(KeyList, len(labels))
	for i, l := range labels {
		out[i] = NewKey(l, session)
	}
	return out
}

// set returns the identities of l for membership tests.
func (l KeyList) set() map[Identity]int {
	s := make(map[Identity]int, len(l))
	for i, k := range l {
		if _, ok := s[k.Identity()]; !ok {
			s[k.Identity()] = i
		}
	}
	return s
}

// Contains reports whether some element of l equals k.
func (l KeyList) Contains(k Key) bool {
	return l.Index(k) >= 0
}

// Index returns the offset of the first element equal to k, or -1.
func (l KeyList) Index(k Key) int {
	for i, e := range l {
		if e.Equal(k) {
			return i
		}
	}
	return -1
}

// UnionNoRepeat returns every element of a, then every element of b whose
// key is not already collected. Order is stable and the result has no
// two equal keys.
func UnionNoRepeat(a, b KeyList) KeyList {
	seen := make(map[Identity]struct{}, len(a)+len(b))
	out := make(KeyList, 0, len(a)+len(b))
	for _, list := range []KeyList{a, b} {
		for _, k := range list {
			id := k.Identity()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// IsIn returns the candidates whose key equals some element of l, in
// candidate order. With ContextSelf the returned elements are l's own
// (same key, possibly different position); with ContextOther they are
// the candidates themselves.
func (l KeyList) IsIn(candidates KeyList, ctx Context) KeyList {
	own := l.set()
	out := make(KeyList, 0, len(candidates))
	for _, c := range candidates {
		idx, ok := own[c.Identity()]
		if !ok {
			continue
		}
		if ctx == ContextSelf {
			out = append(out, l[idx])
		} else {
			out = append(out, c)
		}
	}
	return out
}

// AllEqual reports whether a and b contain the same keys, ignoring order,
// positions and repetition.
func AllEqual(a, b KeyList) bool {
	as, bs := a.set(), b.set()
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if _, ok := bs[id]; !ok {
			return false
		}
	}
	return true
}

// Intersect returns the elements of l whose key is in other, in l order.
func (l KeyList) Intersect(other KeyList) KeyList {
	return other.IsIn(l, ContextOther)
}

// Difference returns the elements of l whose key is not in other, in l order.
func (l KeyList) Difference(other KeyList) KeyList {
	theirs := other.set()
	out := make(KeyList, 0, len(l))
	for _, k := range l {
		if _, ok := theirs[k.Identity()]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Unique returns l without repeated keys, keeping first occurrences.
func (l KeyList) Unique() KeyList {
	return UnionNoRepeat(l, nil)
}

// Filter returns the elements whose row in src satisfies every predicate.
// Rows are looked up by key, never by the cached position; keys without
// a row are dropped. With no predicates the receiver is returned unchanged.
func (l KeyList) Filter(src Source, preds []filter.Predicate) KeyList {
	if len(preds) == 0 {
		return l
	}
	out := make(KeyList, 0, len(l))
	for _, k := range l {
		row, ok := src.RowFor(k)
		if !ok {
			continue
		}
		if filter.MatchAll(preds, row) {
			out = append(out, k)
		}
	}
	return out
}

// Labels returns the labels of l in order.
func (l KeyList) Labels() []string {
	out := make([]string, len(l))
	for i, k := range l {
		out[i] = k.Label
	}
	return out
}

// IDs returns the "label#session" forms of l in order.
func (l KeyList) IDs() []string {
	out := make([]string, len(l))
	for i, k := range l {
		out[i] = k.ID()
	}
	return out
}

// Sorted returns a copy of l ordered by label, then session.
func (l KeyList) Sorted() KeyList {
	out := slices.Clone(l)
	slices.SortStableFunc(out, func(a, b Key) int {
		if c := strings.Compare(a.Label, b.Label); c != 0 {
			return c
		}
		return a.Session - b.Session
	})
	return out
}
