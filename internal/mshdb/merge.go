package mshdb

import (
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// MergeOptions controls AddNewSubjects.
type MergeOptions struct {
	// AllowPartial accepts incoming sheets with differing rosters.
	AllowPartial bool

	// Update publishes the result into the receiver.
	Update bool
}

// AddNewSubjects inserts the subjects of incoming into every sheet.
//
// The incoming roster is the union of all incoming sheets. No incoming
// subject may already exist in the database (ConflictingSubject); merging
// never overwrites. Unless AllowPartial is set the incoming sheets must
// agree on their roster (InconsistentIncoming). Every schema sheet then
// receives the incoming rows for it, in incoming order, followed by a
// default row for each incoming subject that sheet lacks. A default row
// holds only the subject key and, when the schema has a group column, the
// subject's group as recorded by any incoming sheet.
//
// The merge is atomic and never modifies incoming.
func (db *Database) AddNewSubjects(incoming *sheets.SheetSet, opts MergeOptions) (*Database, error) {
	for _, name := range incoming.Names() {
		if !db.schema.Has(name) {
			return nil, errors.WithHintf(errors.NewSheetNotFoundError(name),
				"incoming sheet %q is not declared in the schema", name)
		}
	}

	newKeys := incoming.AllSubjects()
	if conflicts := db.set.AllSubjects().IsIn(newKeys, subject.ContextOther); len(conflicts) > 0 {
		return nil, errors.NewConflictingSubjectError(conflicts.IDs())
	}
	if !opts.AllowPartial && !incoming.IsConsistent() {
		return nil, errors.NewInconsistentIncomingError(incoming.Consistency().Inconsistent())
	}

	groups := db.incomingGroups(incoming, newKeys)
	next := db.set.Clone()
	backfilled := 0
	for _, name := range db.schema.Sheets {
		dst, ok := next.Get(name)
		if !ok {
			return nil, errors.NewSheetNotFoundError(name)
		}
		src, ok := incoming.Get(name)
		if !ok {
			src = table.New(name)
		}
		n, err := db.appendSheet(dst, src, newKeys, groups)
		if err != nil {
			return nil, errors.Wrapf(err, "merge sheet %q", name)
		}
		backfilled += n
	}

	db.log.Debug("merged new subjects",
		zap.Int("subjects", len(newKeys)),
		zap.Int("sheets", len(db.schema.Sheets)),
		zap.Int("backfilled_rows", backfilled),
		zap.Bool("update", opts.Update))
	return db.commit(next, opts.Update), nil
}

// appendSheet appends src's rows to dst in src order, then one default row
// per key of newKeys that src lacks. It returns the number of default rows.
func (db *Database) appendSheet(dst, src *table.Table, newKeys subject.KeyList, groups map[subject.Identity]cell.Value) (int, error) {
	for _, k := range src.Keys() {
		values, _ := src.Record(k)
		if err := dst.AddRow(k, values); err != nil {
			return 0, err
		}
	}

	missing := newKeys.Difference(src.Keys())
	for _, k := range missing {
		if err := dst.AddRow(k, db.defaultRow(k, groups)); err != nil {
			return 0, err
		}
	}
	return len(missing), nil
}

// defaultRow returns the values of a synthesized row for k.
func (db *Database) defaultRow(k subject.Key, groups map[subject.Identity]cell.Value) map[string]cell.Value {
	g, ok := groups[k.Identity()]
	if !ok {
		return nil
	}
	return map[string]cell.Value{db.schema.GroupColumn: g}
}

// incomingGroups collects the first non-empty group value of each key
// across the incoming sheets, in sheet order.
func (db *Database) incomingGroups(incoming *sheets.SheetSet, keys subject.KeyList) map[subject.Identity]cell.Value {
	col := db.schema.GroupColumn
	if col == "" {
		return nil
	}
	groups := make(map[subject.Identity]cell.Value)
	for _, t := range incoming.Tables() {
		if !t.HasColumn(col) {
			continue
		}
		for _, k := range keys {
			if _, done := groups[k.Identity()]; done {
				continue
			}
			if v, err := t.Value(k, col); err == nil && !cell.IsEmpty(v) {
				groups[k.Identity()] = v
			}
		}
	}
	return groups
}
