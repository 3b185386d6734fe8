// Package mshdb provides Database, a multi-sheet subject database: a set
// of sheets that must all describe the same roster of subjects.
//
// Every mutating operation is copy-on-write by default. The new state is
// built completely in fresh tables and only then published, either as a
// new Database or, with Options.Update, swapped into the receiver. A
// failing operation therefore leaves the receiver exactly as it was.
//
// Tables reachable from a Database may be shared with other Database
// values derived from it and must be treated as read-only. Use Clone on a
// Table before mutating it directly.
//
// A Database is not safe for concurrent use.
package mshdb

import (
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// Database is a schema plus the sheets it describes.
type Database struct {
	schema sheets.Schema
	set    *sheets.SheetSet
	log    *zap.Logger
}

// Option configures a Database at construction.
type Option func(*Database)

// WithLogger sets the logger for debug events. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(db *Database) {
		if l != nil {
			db.log = l
		}
	}
}

// Options controls mutating operations.
type Options struct {
	// Update publishes the result into the receiver instead of returning
	// a new Database.
	Update bool
}

// New creates a Database over set. Every schema sheet must be present in
// set and set may hold no other sheet. Sheets are reordered to schema
// order and the schema's main sheet is designated. Unless the schema
// allows differing rosters, set must be consistent.
//
// The caller's SheetSet is not modified; its Tables are shared.
func New(schema sheets.Schema, set *sheets.SheetSet, opts ...Option) (*Database, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	for _, name := range set.Names() {
		if !schema.Has(name) {
			return nil, errors.WithHintf(errors.NewSheetNotFoundError(name),
				"sheet %q is not declared in the schema", name)
		}
	}
	ordered := sheets.New()
	for _, name := range schema.Sheets {
		t, ok := set.Get(name)
		if !ok {
			return nil, errors.NewSheetNotFoundError(name)
		}
		ordered.Set(t)
	}
	if err := ordered.SetMain(schema.MainSheet()); err != nil {
		return nil, err
	}

	if !schema.AllowDiff && !ordered.IsConsistent() {
		return nil, errors.NewInconsistentDataError(ordered.Consistency().Inconsistent())
	}

	db := &Database{schema: schema, set: ordered, log: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Empty creates a Database with one empty sheet per schema sheet.
func Empty(schema sheets.Schema, opts ...Option) (*Database, error) {
	return New(schema, sheets.FromSchema(schema), opts...)
}

// Schema returns the database schema.
func (db *Database) Schema() sheets.Schema { return db.schema }

// Sheets returns a shallow copy of the sheet set.
func (db *Database) Sheets() *sheets.SheetSet { return db.set.Copy() }

// Sheet returns the table of sheet name.
func (db *Database) Sheet(name string) (*table.Table, bool) { return db.set.Get(name) }

// Main returns the main sheet.
func (db *Database) Main() *table.Table { return db.set.Main() }

// Subjects returns every subject of the database, main sheet first.
func (db *Database) Subjects() subject.KeyList { return db.set.AllSubjects() }

// IsConsistent reports whether every sheet holds the full roster.
func (db *Database) IsConsistent() bool { return db.set.IsConsistent() }

// Consistency returns the per-sheet roster comparison.
func (db *Database) Consistency() sheets.Report { return db.set.Consistency() }

// Fingerprint returns a content hash of every sheet.
func (db *Database) Fingerprint() (string, error) { return db.set.Fingerprint() }

// sheet returns the table of name or a SheetNotFound error.
func (db *Database) sheet(name string) (*table.Table, error) {
	t, ok := db.set.Get(name)
	if !ok {
		return nil, errors.NewSheetNotFoundError(name)
	}
	return t, nil
}

// commit publishes next, in place when update is set.
func (db *Database) commit(next *sheets.SheetSet, update bool) *Database {
	if update {
		db.set = next
		return db
	}
	return &Database{schema: db.schema, set: next, log: db.log}
}
