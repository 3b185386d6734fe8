package logger

// Standard field names for structured logging across mshdb.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"
	FieldCommand   = "command"

	// Data
	FieldSheet    = "sheet"
	FieldSheets   = "sheets"
	FieldSubject  = "subject"
	FieldSubjects = "subjects"
	FieldColumn   = "column"
	FieldRows     = "rows"
	FieldSnapshot = "snapshot"

	// Files
	FieldFile = "file"

	// Errors
	FieldError     = "error"
	FieldErrorCode = "error_code"

	// Timing
	FieldDurationMS = "duration_ms"
)
