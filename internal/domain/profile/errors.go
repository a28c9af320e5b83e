package profile

import "errors"

var (
	ErrNotFound         = errors.New("profile not found")
	ErrDuplicate        = errors.New("profile already exists")
	ErrInvalidReference = errors.New("profile references a missing employee, department or job type")
)
