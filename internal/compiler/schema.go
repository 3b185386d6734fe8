// Package compiler turns CUE dataset descriptions into sheets.Schema values.
//
// A dataset file declares the identity columns, the sheet order and
// optionally the columns of each sheet:
//
//	dataset: {
//		key:     "subject"
//		session: "session"
//		group:   "group"
//		main:    "demographics"
//		sheets: [
//			{name: "demographics", columns: {age: "number", visit: "date"}},
//			{name: "blood"},
//		]
//	}
//
// Uses the CUE SDK's Go API directly, never the cue CLI.
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
	"github.com/roach88/mshdb/internal/sheets"
	"github.com/roach88/mshdb/internal/table"
)

// DatasetPath is the top-level field LoadSchemaFile reads.
const DatasetPath = "dataset"

// LoadSchemaFile compiles the dataset declared in the CUE file at path.
func LoadSchemaFile(path string) (sheets.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sheets.Schema{}, errors.Wrapf(err, "read schema %s", path)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return sheets.Schema{}, formatCUEError(err)
	}
	ds := v.LookupPath(cue.ParsePath(DatasetPath))
	if !ds.Exists() {
		return sheets.Schema{}, &CompileError{
			Field:   DatasetPath,
			Message: "dataset is required",
			Pos:     v.Pos(),
		}
	}
	return CompileSchema(ds)
}

// CompileSchema parses a dataset struct into a validated Schema.
func CompileSchema(v cue.Value) (sheets.Schema, error) {
	if err := v.Err(); err != nil {
		return sheets.Schema{}, formatCUEError(err)
	}

	var (
		s   sheets.Schema
		err error
	)

	s.KeyColumn, err = lookupString(v, "key", true)
	if err != nil {
		return sheets.Schema{}, err
	}
	if s.SessionColumn, err = lookupString(v, "session", false); err != nil {
		return sheets.Schema{}, err
	}
	if s.GroupColumn, err = lookupString(v, "group", false); err != nil {
		return sheets.Schema{}, err
	}

	allowVal := v.LookupPath(cue.ParsePath("allow_diff"))
	if allowVal.Exists() {
		if s.AllowDiff, err = allowVal.Bool(); err != nil {
			return sheets.Schema{}, formatCUEError(err)
		}
	}

	if err := parseSheets(v, &s); err != nil {
		return sheets.Schema{}, err
	}

	main, err := lookupString(v, "main", false)
	if err != nil {
		return sheets.Schema{}, err
	}
	if main != "" {
		s.MainIndex = -1
		for i, name := range s.Sheets {
			if name == main {
				s.MainIndex = i
			}
		}
		if s.MainIndex < 0 {
			return sheets.Schema{}, &CompileError{
				Field:   "main",
				Message: fmt.Sprintf("main sheet %q is not listed in sheets", main),
				Pos:     v.LookupPath(cue.ParsePath("main")).Pos(),
			}
		}
	}

	if err := s.Validate(); err != nil {
		return sheets.Schema{}, errors.Wrap(err, "compile schema")
	}
	return s, nil
}

// parseSheets reads the ordered sheet list and each sheet's columns.
func parseSheets(v cue.Value, s *sheets.Schema) error {
	sheetsVal := v.LookupPath(cue.ParsePath("sheets"))
	if !sheetsVal.Exists() {
		return &CompileError{
			Field:   "sheets",
			Message: "sheets is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := sheetsVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		sheetVal := iter.Value()
		name, err := lookupString(sheetVal, "name", true)
		if err != nil {
			return err
		}
		s.Sheets = append(s.Sheets, name)

		cols, err := parseColumns(sheetVal)
		if err != nil {
			return err
		}
		if len(cols) > 0 {
			if s.Columns == nil {
				s.Columns = make(map[string][]table.Column)
			}
			s.Columns[name] = cols
		}
	}
	if len(s.Sheets) == 0 {
		return &CompileError{
			Field:   "sheets",
			Message: "at least one sheet is required",
			Pos:     sheetsVal.Pos(),
		}
	}
	return nil
}

// parseColumns reads a columns struct in declaration order.
func parseColumns(v cue.Value) ([]table.Column, error) {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, nil
	}

	iter, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cols []table.Column
	for iter.Next() {
		name := iter.Label()
		kindStr, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind, err := cell.ParseKind(kindStr)
		if err != nil {
			return nil, &CompileError{
				Field:   "columns." + name,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		cols = append(cols, table.Column{Name: name, Kind: kind})
	}
	return cols, nil
}

func lookupString(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", &CompileError{
				Field:   field,
				Message: field + " is required",
				Pos:     v.Pos(),
			}
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: "must be a string",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
