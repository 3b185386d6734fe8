package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mshdb/internal/sheets"
)

// Validation error codes (E100-E199)
const (
	ErrNoSheets          = "E101" // at least one sheet required
	ErrEmptySheetName    = "E102" // sheet name is blank
	ErrDuplicateSheet    = "E103" // sheet listed twice
	ErrMainOutOfRange    = "E104" // main index does not name a sheet
	ErrEmptyKeyColumn    = "E105" // key column is required
	ErrIdentityOverlap   = "E106" // key, session and group columns must differ
	ErrUnknownSheet      = "E107" // columns declared for a sheet not listed
	ErrIdentityAsData    = "E108" // identity column declared as a data column
	ErrDuplicateColumn   = "E109" // column declared twice in one sheet
	ErrEmptyColumnName   = "E110" // column name is blank
	ErrReservedSeparator = "E111" // name would be ambiguous in qualified output
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks s against the schema rules and returns every problem
// found, in sheet order. Schema.Validate stops at the first one; this is
// the linting counterpart used by the check command.
func Validate(s sheets.Schema) []ValidationError {
	var errs []ValidationError

	if len(s.Sheets) == 0 {
		errs = append(errs, ValidationError{
			Field:   "sheets",
			Message: "at least one sheet is required",
			Code:    ErrNoSheets,
		})
	}

	seen := make(map[string]bool, len(s.Sheets))
	for i, name := range s.Sheets {
		field := fmt.Sprintf("sheets[%d]", i)
		if strings.TrimSpace(name) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "sheet name is required and must be non-empty",
				Code:    ErrEmptySheetName,
			})
			continue
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate sheet name: %q", name),
				Code:    ErrDuplicateSheet,
			})
		}
		if strings.Contains(name, ".") {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("sheet name %q contains '.', which qualifies projected columns", name),
				Code:    ErrReservedSeparator,
			})
		}
		seen[name] = true
	}

	if len(s.Sheets) > 0 && (s.MainIndex < 0 || s.MainIndex >= len(s.Sheets)) {
		errs = append(errs, ValidationError{
			Field:   "main",
			Message: fmt.Sprintf("main index %d is outside [0, %d)", s.MainIndex, len(s.Sheets)),
			Code:    ErrMainOutOfRange,
		})
	}

	errs = append(errs, validateIdentity(s)...)

	checked := make(map[string]bool, len(seen))
	for _, name := range s.Sheets {
		if checked[name] {
			continue
		}
		checked[name] = true
		errs = append(errs, validateColumns(s, name)...)
	}

	var unknown []string
	for name := range s.Columns {
		if !seen[name] {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	for _, name := range unknown {
		errs = append(errs, ValidationError{
			Field:   "columns." + name,
			Message: fmt.Sprintf("columns declared for unknown sheet %q", name),
			Code:    ErrUnknownSheet,
		})
	}

	return errs
}

func validateIdentity(s sheets.Schema) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(s.KeyColumn) == "" {
		errs = append(errs, ValidationError{
			Field:   "key",
			Message: "key column is required",
			Code:    ErrEmptyKeyColumn,
		})
	}
	if s.SessionColumn != "" && s.SessionColumn == s.KeyColumn {
		errs = append(errs, ValidationError{
			Field:   "session",
			Message: fmt.Sprintf("session column %q repeats the key column", s.SessionColumn),
			Code:    ErrIdentityOverlap,
		})
	}
	if s.GroupColumn != "" && (s.GroupColumn == s.KeyColumn || s.GroupColumn == s.SessionColumn) {
		errs = append(errs, ValidationError{
			Field:   "group",
			Message: fmt.Sprintf("group column %q repeats an identity column", s.GroupColumn),
			Code:    ErrIdentityOverlap,
		})
	}
	return errs
}

func validateColumns(s sheets.Schema, sheet string) []ValidationError {
	var errs []ValidationError

	names := make(map[string]bool)
	for i, c := range s.Columns[sheet] {
		field := fmt.Sprintf("columns.%s[%d]", sheet, i)
		switch {
		case strings.TrimSpace(c.Name) == "":
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "column name is required and must be non-empty",
				Code:    ErrEmptyColumnName,
			})
			continue
		case c.Name == s.KeyColumn || (s.SessionColumn != "" && c.Name == s.SessionColumn):
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("identity column %q declared as data", c.Name),
				Code:    ErrIdentityAsData,
			})
		case names[c.Name]:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate column name: %q", c.Name),
				Code:    ErrDuplicateColumn,
			})
		}
		names[c.Name] = true
	}
	return errs
}
