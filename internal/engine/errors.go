package engine

import "fmt"

// ValidationError rejects malformed input before any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}

// ConstraintError rejects an operation that would break an invariant, with
// no partial state change (e.g. deleting a non-empty column).
type ConstraintError struct {
	Reason string
}

func (e ConstraintError) Error() string { return e.Reason }
