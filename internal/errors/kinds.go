package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Error represents a failure detected by the subject database core.
//
// Error kinds:
//   - Identity: a row-key invariant would be violated (DUPLICATE_KEY, UNKNOWN_SUBJECT)
//   - Conflict: a merge would overwrite an existing subject (CONFLICTING_SUBJECT)
//   - Schema: a column or sheet is missing or would be overwritten
//   - Consistency: a sheet set fails the cross-sheet roster invariant
//
// Error includes structured fields for diagnostics. Fields that do not
// apply to a given code are left empty.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Sheet names the affected sheet, if any.
	Sheet string

	// Key is the subject key in "label#session" form, if any.
	Key string

	// Column names the affected column, if any.
	Column string

	// Details contains additional context.
	Details map[string]string
}

// Code categorizes core errors.
type Code string

const (
	// CodeDuplicateKey indicates a row key is already present in a sheet.
	CodeDuplicateKey Code = "DUPLICATE_KEY"

	// CodeUnknownSubject indicates a key that is not present in a sheet.
	CodeUnknownSubject Code = "UNKNOWN_SUBJECT"

	// CodeConflictingSubject indicates a merge would add a subject twice.
	CodeConflictingSubject Code = "CONFLICTING_SUBJECT"

	// CodeColumnNotFound indicates a requested column does not exist.
	CodeColumnNotFound Code = "COLUMN_NOT_FOUND"

	// CodeColumnConflict indicates a column would be overwritten without permission.
	CodeColumnConflict Code = "COLUMN_CONFLICT"

	// CodeInconsistentIncoming indicates incoming sheets disagree on their roster.
	CodeInconsistentIncoming Code = "INCONSISTENT_INCOMING"

	// CodeInconsistentData indicates a database whose sheets disagree on their roster.
	CodeInconsistentData Code = "INCONSISTENT_DATA"

	// CodeSheetNotFound indicates a sheet missing from a set or schema.
	CodeSheetNotFound Code = "SHEET_NOT_FOUND"

	// CodeNotNumeric indicates a numeric operation on a non-numeric column.
	CodeNotNumeric Code = "NOT_NUMERIC"

	// CodeInvalidPredicate indicates a malformed filter predicate.
	CodeInvalidPredicate Code = "INVALID_PREDICATE"

	// CodeInvalidSchema indicates a malformed dataset schema.
	CodeInvalidSchema Code = "INVALID_SCHEMA"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var ctx []string
	if e.Sheet != "" {
		ctx = append(ctx, "sheet="+e.Sheet)
	}
	if e.Key != "" {
		ctx = append(ctx, "key="+e.Key)
	}
	if e.Column != "" {
		ctx = append(ctx, "column="+e.Column)
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// DetailKeys returns the detail keys in sorted order.
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if As(err, &e) {
		return e.Code
	}
	return ""
}

func hasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsDuplicateKey returns true if the error is a duplicate key error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateKey(err error) bool { return hasCode(err, CodeDuplicateKey) }

// IsUnknownSubject returns true if the error is an unknown subject error.
func IsUnknownSubject(err error) bool { return hasCode(err, CodeUnknownSubject) }

// IsConflictingSubject returns true if a merge was rejected because a
// subject already exists in the destination.
func IsConflictingSubject(err error) bool { return hasCode(err, CodeConflictingSubject) }

// IsColumnNotFound returns true if the error is a missing column error.
func IsColumnNotFound(err error) bool { return hasCode(err, CodeColumnNotFound) }

// IsColumnConflict returns true if the error is a column overwrite error.
func IsColumnConflict(err error) bool { return hasCode(err, CodeColumnConflict) }

// IsInconsistentIncoming returns true if incoming merge data failed the
// roster invariant.
func IsInconsistentIncoming(err error) bool { return hasCode(err, CodeInconsistentIncoming) }

// IsInconsistentData returns true if a database failed the roster invariant.
func IsInconsistentData(err error) bool { return hasCode(err, CodeInconsistentData) }

// IsSheetNotFound returns true if the error is a missing sheet error.
func IsSheetNotFound(err error) bool { return hasCode(err, CodeSheetNotFound) }

// IsNotNumeric returns true if the error is a non-numeric column error.
func IsNotNumeric(err error) bool { return hasCode(err, CodeNotNumeric) }

// IsInvalidPredicate returns true if the error is a predicate validation error.
func IsInvalidPredicate(err error) bool { return hasCode(err, CodeInvalidPredicate) }

// IsInvalidSchema returns true if the error is a schema validation error.
func IsInvalidSchema(err error) bool { return hasCode(err, CodeInvalidSchema) }

// NewDuplicateKeyError creates an Error for a key already present in a sheet.
func NewDuplicateKeyError(sheet, key string) error {
	return WithStack(&Error{
		Code:    CodeDuplicateKey,
		Message: "subject key already present",
		Sheet:   sheet,
		Key:     key,
	})
}

// NewUnknownSubjectError creates an Error for a key absent from a sheet.
func NewUnknownSubjectError(sheet, key string) error {
	return WithHint(WithStack(&Error{
		Code:    CodeUnknownSubject,
		Message: "subject not present",
		Sheet:   sheet,
		Key:     key,
	}), "add the subject row before adding column values for it")
}

// NewConflictingSubjectError creates an Error for a merge that would add
// subjects already present in the destination.
func NewConflictingSubjectError(keys []string) error {
	return WithHint(WithStack(&Error{
		Code:    CodeConflictingSubject,
		Message: fmt.Sprintf("%d incoming subject(s) already present", len(keys)),
		Key:     first(keys),
		Details: map[string]string{
			"count": fmt.Sprintf("%d", len(keys)),
			"keys":  strings.Join(keys, ","),
		},
	}), "merging only inserts new subjects; remove or rename the existing ones first")
}

// NewColumnNotFoundError creates an Error for a missing column.
func NewColumnNotFoundError(sheet, column string) error {
	return WithStack(&Error{
		Code:    CodeColumnNotFound,
		Message: "column not found",
		Sheet:   sheet,
		Column:  column,
	})
}

// NewColumnConflictError creates an Error for a column that already exists.
func NewColumnConflictError(sheet, column string) error {
	return WithHint(WithStack(&Error{
		Code:    CodeColumnConflict,
		Message: "column already exists",
		Sheet:   sheet,
		Column:  column,
	}), "pass overwrite=true to replace existing values")
}

// NewInconsistentIncomingError creates an Error for incoming sheets whose
// rosters differ.
func NewInconsistentIncomingError(sheets []string) error {
	return WithHint(WithStack(&Error{
		Code:    CodeInconsistentIncoming,
		Message: "incoming sheets describe different subjects",
		Sheet:   first(sheets),
		Details: map[string]string{"sheets": strings.Join(sheets, ",")},
	}), "use AllowPartial to merge partially populated sheets")
}

// NewInconsistentDataError creates an Error for a sheet set whose rosters
// differ while the schema forbids it.
func NewInconsistentDataError(sheets []string) error {
	return WithStack(&Error{
		Code:    CodeInconsistentData,
		Message: "sheets describe different subjects and the schema does not allow differences",
		Sheet:   first(sheets),
		Details: map[string]string{"sheets": strings.Join(sheets, ",")},
	})
}

// NewSheetNotFoundError creates an Error for a missing sheet.
func NewSheetNotFoundError(sheet string) error {
	return WithStack(&Error{
		Code:    CodeSheetNotFound,
		Message: "sheet not found",
		Sheet:   sheet,
	})
}

// NewNotNumericError creates an Error for a numeric operation on a
// non-numeric column.
func NewNotNumericError(sheet, column, kind string) error {
	return WithStack(&Error{
		Code:    CodeNotNumeric,
		Message: fmt.Sprintf("column is %s, not number", kind),
		Sheet:   sheet,
		Column:  column,
	})
}

// NewInvalidPredicateError creates an Error for a malformed predicate.
func NewInvalidPredicateError(column, message string) error {
	return WithStack(&Error{
		Code:    CodeInvalidPredicate,
		Message: message,
		Column:  column,
	})
}

// NewInvalidSchemaError creates an Error for a malformed schema.
func NewInvalidSchemaError(message string) error {
	return WithStack(&Error{
		Code:    CodeInvalidSchema,
		Message: message,
	})
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
