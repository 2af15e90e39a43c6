package imports

import "fmt"

// ValidationError marks a row whose key or required field is missing or
// malformed. Recorded per row; never aborts the import.
type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// NotFoundError marks a row referencing a product or listing that must
// already exist but does not. Same handling as ValidationError.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// RowError is one failed row as it will appear in the error report:
// the displayed spreadsheet row number, the row's key fields, and the
// failure reason.
type RowError struct {
	Line   int
	Key    string
	Reason string
}
