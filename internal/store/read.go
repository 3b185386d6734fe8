package store

import (
	"context"
	"database/sql"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/subject"
	"github.com/roach88/mshdb/internal/table"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// LoadSnapshot reads the snapshot called name back into a SheetSet.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (*sheets.SheetSet, error) {
	var (
		id   int64
		main string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, main_sheet FROM snapshots WHERE name = ?
	`, name).Scan(&id, &main)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrSnapshotNotFound, "load %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %q", name)
	}

	sheetRows, err := s.db.QueryContext(ctx, `
		SELECT name, group_column FROM sheets
		WHERE snapshot_id = ?
		ORDER BY ord ASC
	`, id)
	if err != nil {
		return nil, errors.Wrap(err, "query sheets")
	}
	type sheetMeta struct{ name, group string }
	var metas []sheetMeta
	for sheetRows.Next() {
		var m sheetMeta
		if err := sheetRows.Scan(&m.name, &m.group); err != nil {
			sheetRows.Close()
			return nil, errors.Wrap(err, "scan sheet")
		}
		metas = append(metas, m)
	}
	if err := sheetRows.Err(); err != nil {
		sheetRows.Close()
		return nil, errors.Wrap(err, "iterate sheets")
	}
	sheetRows.Close()

	set := sheets.New()
	for _, m := range metas {
		t, err := s.readSheet(ctx, id, m.name, m.group)
		if err != nil {
			return nil, errors.Wrapf(err, "load %q: sheet %q", name, m.name)
		}
		set.Set(t)
	}
	if set.Len() > 0 {
		if err := set.SetMain(main); err != nil {
			return nil, errors.Wrapf(err, "load %q", name)
		}
	}
	return set, nil
}

func (s *Store) readSheet(ctx context.Context, snapshotID int64, name, group string) (*table.Table, error) {
	cols, err := s.readColumns(ctx, snapshotID, name)
	if err != nil {
		return nil, err
	}
	t := table.New(name, table.WithColumns(cols...), table.WithGroupColumn(group))

	cells, err := s.readCells(ctx, snapshotID, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, session FROM sheet_rows
		WHERE snapshot_id = ? AND sheet = ?
		ORDER BY ord ASC
	`, snapshotID, name)
	if err != nil {
		return nil, errors.Wrap(err, "query rows")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label   string
			session int
		)
		if err := rows.Scan(&label, &session); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		k := subject.NewKey(label, session)
		if err := t.AddRow(k, cells[k.Identity()]); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return t, nil
}

func (s *Store) readColumns(ctx context.Context, snapshotID int64, sheet string) ([]table.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind FROM sheet_columns
		WHERE snapshot_id = ? AND sheet = ?
		ORDER BY ord ASC
	`, snapshotID, sheet)
	if err != nil {
		return nil, errors.Wrap(err, "query columns")
	}
	defer rows.Close()

	var cols []table.Column
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, errors.Wrap(err, "scan column")
		}
		k, err := cell.ParseKind(kind)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
		cols = append(cols, table.Column{Name: name, Kind: k})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate columns")
	}
	return cols, nil
}

func (s *Store) readCells(ctx context.Context, snapshotID int64, sheet string) (map[subject.Identity]map[string]cell.Value, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, session, column_name, kind, value FROM cells
		WHERE snapshot_id = ? AND sheet = ?
		ORDER BY label COLLATE BINARY ASC, session ASC, column_name COLLATE BINARY ASC
	`, snapshotID, sheet)
	if err != nil {
		return nil, errors.Wrap(err, "query cells")
	}
	defer rows.Close()

	out := make(map[subject.Identity]map[string]cell.Value)
	for rows.Next() {
		var (
			label, column, kind, text string
			session                   int
		)
		if err := rows.Scan(&label, &session, &column, &kind, &text); err != nil {
			return nil, errors.Wrap(err, "scan cell")
		}
		v, err := unmarshalCell(kind, text)
		if err != nil {
			return nil, err
		}
		id := subject.Identity{Label: label, Session: session}
		if out[id] == nil {
			out[id] = make(map[string]cell.Value)
		}
		out[id][column] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate cells")
	}
	return out, nil
}

// ListSnapshots returns every snapshot ordered by name.
func (s *Store) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.fingerprint, s.main_sheet, s.seq,
		       (SELECT COUNT(*) FROM sheets WHERE snapshot_id = s.id),
		       (SELECT COUNT(*) FROM sheet_rows WHERE snapshot_id = s.id)
		FROM snapshots s
		ORDER BY s.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Name, &snap.Fingerprint, &snap.MainSheet, &snap.Seq, &snap.Sheets, &snap.Rows); err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate snapshots")
	}
	return snaps, nil
}
