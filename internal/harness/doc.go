// Package harness runs declarative mshdb scenarios.
//
// A scenario builds a database from inline records, applies a sequence of
// operations, and checks the result with assertions. Every scenario can
// also be compared against a golden rendering of its final state.
//
// # Scenario Format
//
//	name: partial_backfill
//	description: "What this scenario validates"
//	schema:                    # or schema_file: path/to/schema.cue
//	  key: subject
//	  session: session
//	  group: group
//	  sheets:
//	    - name: main
//	    - name: blood
//	data:
//	  main:
//	    - {subject: A, session: 1, group: pd, age: 30}
//	  blood:
//	    - {subject: A, session: 1, group: pd, hb: 12.5}
//	steps:
//	  - op: add_new_subjects
//	    allow_partial: true
//	    incoming:
//	      main:
//	        - {subject: B, session: 1, group: ctl, age: 41}
//	  - op: select
//	    columns:
//	      - {sheet: blood, columns: [hb]}
//	assertions:
//	  - type: subjects
//	    subjects: ["A#1", "B#1"]
//	  - type: cell
//	    sheet: blood
//	    subject: "B#1"
//	    column: group
//	    value: ctl
//
// String cell values are typed like workbook text: "12" is a number and
// "2024-03-01" a date. A step that is expected to fail names the error
// code in expect_error; the database is then expected to be unchanged.
//
// # Operations
//
//   - add_new_subjects: incoming, allow_partial
//   - remove_subjects: subjects
//   - rename_subjects: rename
//   - add_columns: sheet, frame, overwrite
//   - select: subjects, where, columns (stores the projection)
//   - snapshot: saves to an in-memory store and reloads
//
// # Assertion Types
//
//   - subjects: the database roster, in order
//   - consistent: whether every sheet holds the same roster
//   - row_count: rows in one sheet
//   - cell: one cell, compared by rendered text ("" for empty)
//   - projection: columns and rows of the last select
//
// # Determinism
//
// Runs use no clock, randomness or shared state, so rendering a result
// twice gives identical bytes for golden comparison.
package harness
