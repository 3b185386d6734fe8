// Package store provides SQLite-backed snapshots of sheet sets.
//
// A snapshot is a named, complete copy of a SheetSet: its sheet order,
// main sheet, column definitions, row order and every non-empty cell.
// Loading a snapshot reproduces a SheetSet with the same fingerprint.
// The store is a serialization target, not a query engine; sheets are
// always read back whole.
//
// # Layout
//
//   - snapshots: name, content fingerprint, main sheet, logical seq
//   - sheets, sheet_columns, sheet_rows: structure with explicit ord
//   - cells: one row per non-empty value, typed by a kind tag
//
// # Ordering
//
// Every read orders by an explicit ord column or by name COLLATE BINARY,
// never by rowid, so results are identical across SQLite builds.
// Snapshot recency uses a logical seq counter, never wall-clock time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: deleting a snapshot cascades to its rows
package store
