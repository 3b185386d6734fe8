// Package errors provides error handling for mshdb.
//
// This package re-exports github.com/cockroachdb/errors for wrapping,
// hints and inspection, and defines the typed *Error used by the core
// packages to report identity, conflict, schema and consistency failures.
//
// Usage:
//
//	if errors.IsDuplicateKey(err) {
//	    // key already present in the sheet
//	}
//
//	return errors.Wrapf(err, "load sheet %q", name)
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)
