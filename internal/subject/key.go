// Package subject provides subject identity: the composite (label,
// session) key and ordered key lists with set algebra.
//
// Identity is the (Label, Session) pair only. Position is a cache of a
// row's offset inside one Table snapshot; it is refreshed by the Table
// whenever rows move and is never compared.
package subject

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/mshdb/internal/errors"
)

// NoPosition marks a key that does not point at a table row.
const NoPosition = -1

// Key identifies one subject in one session.
type Key struct {
	Label    string
	Session  int
	Position int
}

// Identity is the comparable part of a Key, usable as a map key.
type Identity struct {
	Label   string
	Session int
}

// NewKey creates a key with a normalized label and no position.
// Labels are trimmed and NFC normalized so that the same subject typed
// in two spreadsheets compares equal.
func NewKey(label string, session int) Key {
	return Key{Label: NormalizeLabel(label), Session: session, Position: NoPosition}
}

// NormalizeLabel trims surrounding space and applies Unicode NFC.
func NormalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// Equal reports whether k and other identify the same subject.
// Position is ignored.
func (k Key) Equal(other Key) bool {
	return k.Label == other.Label && k.Session == other.Session
}

// Identity returns the comparable identity of k.
func (k Key) Identity() Identity {
	return Identity{Label: k.Label, Session: k.Session}
}

// ID returns the "label#session" form of k.
func (k Key) ID() string {
	return k.Label + "#" + strconv.Itoa(k.Session)
}

// String implements fmt.Stringer.
func (k Key) String() string { return k.ID() }

// WithPosition returns a copy of k pointing at row pos.
func (k Key) WithPosition(pos int) Key {
	k.Position = pos
	return k
}

// ParseKey parses the "label#session" form produced by ID.
// The session is taken after the last '#', so labels may contain '#'.
func ParseKey(s string) (Key, error) {
	idx := strings.LastIndex(s, "#")
	if idx <= 0 || idx == len(s)-1 {
		return Key{}, errors.Newf("invalid subject key %q: want label#session", s)
	}
	session, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return Key{}, errors.Wrapf(err, "invalid subject key %q: session", s)
	}
	label := NormalizeLabel(s[:idx])
	if label == "" {
		return Key{}, errors.Newf("invalid subject key %q: empty label", s)
	}
	return NewKey(label, session), nil
}
