package strategy

import "errors"

var (
	ErrNotFound          = errors.New("strategy not found")
	ErrAlreadyRegistered = errors.New("strategy already registered")
	ErrEmptyName         = errors.New("strategy name is empty")
)
