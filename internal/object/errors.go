package object

import "errors"

var ErrNotFound = errors.New("object not found")
