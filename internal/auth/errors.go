package auth

import "errors"

var (
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrPrincipalLocked   = errors.New("principal locked")
)
