// Package cell provides the typed values stored in sheet cells.
//
// This package contains value types only. Every other internal package
// imports cell; cell imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: only Empty, Number, Text and Date implement it
//   - Empty is an explicit marker, never a zero value standing in for data
//   - NaN numbers and empty strings normalize to Empty at construction
//   - Dates have day precision and are stored in UTC
//   - Canonical JSON (RFC 8785 key order, NFC strings) backs fingerprints
package cell
