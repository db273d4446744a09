package user

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrDirectoryMissing = errors.New("user directory missing from storage")
)
