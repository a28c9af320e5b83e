package slip

import "errors"

var (
	ErrNotFound      = errors.New("salary slip not found")
	ErrAlreadyPaid   = errors.New("salary slip is already paid")
	ErrInvalidMonth  = errors.New("month must be formatted YYYY-MM")
	ErrInvalidPeriod = errors.New("invalid slip period")
	ErrNoStructures  = errors.New("no salary structures to generate slips from")
	ErrQueueFull     = errors.New("job queue is full")
)
