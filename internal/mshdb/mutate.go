package mshdb

import (
	"go.uber.org/zap"

	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// RemoveSubjects removes every key of keys from every sheet. Keys that
// are not present are ignored, so removing twice equals removing once.
func (db *Database) RemoveSubjects(keys subject.KeyList, opts Options) (*Database, error) {
	next := db.set.Clone()
	removed := 0
	for _, t := range next.Tables() {
		removed += t.RemoveRows(keys)
	}

	db.log.Debug("removed subjects",
		zap.Int("requested", len(keys)),
		zap.Int("rows", removed),
		zap.Bool("update", opts.Update))
	return db.commit(next, opts.Update), nil
}

// RenameSubjects relabels subjects in every sheet. mapping maps old labels
// to new labels; sessions are kept. If any sheet would end up with two
// rows sharing a key the whole call fails with DuplicateKey and no sheet
// is renamed.
func (db *Database) RenameSubjects(mapping map[string]string, opts Options) (*Database, error) {
	for from, to := range mapping {
		if subject.NormalizeLabel(to) == "" {
			return nil, errors.Newf("rename %q: new label is empty", from)
		}
	}

	next := db.set.Clone()
	renamed := 0
	for _, t := range next.Tables() {
		n, err := t.RenameLabels(mapping)
		if err != nil {
			return nil, err
		}
		renamed += n
	}

	db.log.Debug("renamed subjects",
		zap.Int("labels", len(mapping)),
		zap.Int("rows", renamed),
		zap.Bool("update", opts.Update))
	return db.commit(next, opts.Update), nil
}

// AddColumns copies the data columns of frame into sheet for the keys
// frame holds. See table.Table.AddColumns for the rules.
func (db *Database) AddColumns(sheet string, frame *table.Table, overwrite bool, opts Options) (*Database, error) {
	t, err := db.sheet(sheet)
	if err != nil {
		return nil, err
	}
	updated := t.Clone()
	if err := updated.AddColumns(frame, overwrite); err != nil {
		return nil, err
	}

	next := db.set.Copy()
	next.Set(updated)

	db.log.Debug("added columns",
		zap.String("sheet", sheet),
		zap.Strings("columns", frame.ColumnNames()),
		zap.Bool("overwrite", overwrite))
	return db.commit(next, opts.Update), nil
}
