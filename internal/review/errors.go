package review

import "errors"

// Sentinel errors for the review service layer.
var (
	ErrMissingAggregate     = errors.New("monthly aggregate is required")
	ErrInvalidMonth         = errors.New("invalid month key")
	ErrGenerationInProgress = errors.New("a generation for this month is already running")
)
