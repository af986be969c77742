package leads

import "errors"

var (
	// ErrUnknownType is returned when a submission names no known schema.
	ErrUnknownType = errors.New("unknown lead type")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrMissingID is returned when a lead reaches storage without an id.
	ErrMissingID = errors.New("lead id is required")
)

// ValidationError carries the per-field messages of a rejected submission.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "lead failed validation"
}
