package catalog

import "errors"

var (
	ErrNotFound  = errors.New("catalog entry not found")
	ErrInUse     = errors.New("catalog entry is referenced by existing records")
	ErrDuplicate = errors.New("catalog entry with this name already exists")
)
