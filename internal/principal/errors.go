package principal

import "errors"

var (
	ErrDuplicateEmail = errors.New("email already exists")
	ErrNotFound       = errors.New("principal not found")
)
