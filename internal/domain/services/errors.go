package services

import "errors"

// ValidationError rejects a malformed input URL before the pipeline runs.
// Handlers surface the message verbatim with a 4xx status.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation messages shown to callers
const (
	MsgInvalidInput     = "Invalid input. Please enter a valid URL."
	MsgInvalidFormat    = "Invalid URL format."
	MsgIncompleteDomain = "Invalid URL. Domain name seems incomplete."
)

var (
	// ErrScoring marks feature-arity or artifact failures; surfaced as 5xx
	ErrScoring = errors.New("scoring failed")
	// ErrPersistence marks storage failures after rollback; surfaced as 5xx
	ErrPersistence = errors.New("persistence failed")
)
