package store

import (
	"context"
	"database/sql"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/table"
)

// Snapshot describes one stored SheetSet.
type Snapshot struct {
	Name        string
	Fingerprint string
	MainSheet   string
	Seq         int64
	Sheets      int
	Rows        int
}

// SaveSnapshot stores set under name, replacing any snapshot with that
// name. The write is a single transaction: readers see either the old
// snapshot or the complete new one.
func (s *Store) SaveSnapshot(ctx context.Context, name string, set *sheets.SheetSet) (Snapshot, error) {
	if name == "" {
		return Snapshot{}, errors.New("save snapshot: empty name")
	}
	fp, err := set.Fingerprint()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot: replace")
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots`).Scan(&seq); err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot: next seq")
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (name, fingerprint, main_sheet, seq)
		VALUES (?, ?, ?, ?)
	`, name, fp, set.MainName(), seq)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot: insert")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot: id")
	}

	snap := Snapshot{Name: name, Fingerprint: fp, MainSheet: set.MainName(), Seq: seq, Sheets: set.Len()}
	for ord, t := range set.Tables() {
		if err := writeSheet(ctx, tx, id, ord, t); err != nil {
			return Snapshot{}, errors.Wrapf(err, "save snapshot %q: sheet %q", name, t.Name())
		}
		snap.Rows += t.Len()
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, errors.Wrap(err, "save snapshot: commit")
	}
	return snap, nil
}

func writeSheet(ctx context.Context, tx *sql.Tx, snapshotID int64, ord int, t *table.Table) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sheets (snapshot_id, name, ord, group_column)
		VALUES (?, ?, ?, ?)
	`, snapshotID, t.Name(), ord, t.GroupColumn()); err != nil {
		return errors.Wrap(err, "insert sheet")
	}

	for i, c := range t.AllColumns() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sheet_columns (snapshot_id, sheet, name, ord, kind)
			VALUES (?, ?, ?, ?, ?)
		`, snapshotID, t.Name(), c.Name, i, c.Kind.String()); err != nil {
			return errors.Wrapf(err, "insert column %q", c.Name)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sheet_rows (snapshot_id, sheet, label, session, ord)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "prepare rows")
	}
	defer rowStmt.Close()

	cellStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (snapshot_id, sheet, label, session, column_name, kind, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "prepare cells")
	}
	defer cellStmt.Close()

	for i, k := range t.Keys() {
		if _, err := rowStmt.ExecContext(ctx, snapshotID, t.Name(), k.Label, k.Session, i); err != nil {
			return errors.Wrapf(err, "insert row %s", k.ID())
		}
		record, _ := t.Record(k)
		for _, c := range t.AllColumns() {
			v := record[c.Name]
			if cell.IsEmpty(v) {
				continue
			}
			kind, text, err := marshalCell(v)
			if err != nil {
				return errors.Wrapf(err, "row %s column %q", k.ID(), c.Name)
			}
			if _, err := cellStmt.ExecContext(ctx, snapshotID, t.Name(), k.Label, k.Session, c.Name, kind, text); err != nil {
				return errors.Wrapf(err, "insert cell %s/%s", k.ID(), c.Name)
			}
		}
	}
	return nil
}

// DeleteSnapshot removes the snapshot called name. Deleting a missing
// snapshot is not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return errors.Wrapf(err, "delete snapshot %q", name)
	}
	return nil
}
