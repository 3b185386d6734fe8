// Package filter provides column predicates evaluated against sheet rows.
//
// A Predicate compares one column of one row with its operands. A list of
// predicates is an implicit AND: MatchAll returns true only when every
// predicate matches, and true for an empty list (vacuous truth).
//
// OPERATORS:
//
//	OpEquals            column == v
//	OpNotEquals         column != v
//	OpBetweenExclusive  lo <  column <  hi   (numbers only)
//	OpBetweenInclusive  lo <= column <= hi   (numbers only)
//	OpExists            cell present, non-empty, and non-zero if numeric
//	OpNotExists         negation of OpExists on a present column
//
// EMPTY AND MISSING:
//
// Predicate lists are applied generically across heterogeneous sheets, so
// evaluation never fails:
//   - A column absent from the row's schema is a non-match for every
//     operator, OpNotExists included.
//   - The empty marker never equals anything, not even another empty
//     marker, and never satisfies OpNotEquals or a range.
//
// Operands are normalized to the column's declared kind before comparison
// (for example "18" compares equal to 18 in a number column).
//
// Validate reports malformed predicates (wrong operand count, non-numeric
// range bounds) up front; Parse builds predicates from the short textual
// form used on the command line.
package filter
