// Package workbook reads and writes SheetSets as .xlsx workbooks.
//
// Each schema sheet is one worksheet. Row 1 is the header: the key column,
// then the session column when the schema has one, then data columns.
// Cell text is typed on read: integers and decimals become numbers, ISO
// dates become dates, blanks become empty cells, anything else is text.
// Columns the schema declares with a kind are coerced to that kind, so a
// declared text column keeps "007" as text.
//
// Sheet-name mismatches between workbook and schema are reported as
// errors, never corrected.
package workbook
