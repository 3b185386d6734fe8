// Package table provides Table, one sheet of per-subject data.
//
// A Table is an ordered list of rows, each tagged with a subject.Key, and
// an ordered list of typed columns. Keys are unique within a Table; the
// identity columns (label and session) live in the key, not among the
// data columns.
//
// Tables may reserve a group column: a denormalized value copied from
// the main sheet (for example the study arm) that every sheet carries.
// It is stored like any column but is left out of Columns and of "*"
// expansion.
//
// Row positions are a cache. Keys returned by Keys carry the current
// offset of their row and are refreshed whenever rows are removed; all
// lookups go through the key index, never through Position.
//
// Tables are not safe for concurrent mutation.
package table
