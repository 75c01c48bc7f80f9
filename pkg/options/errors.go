package options

import "errors"

var (
	ErrInvalidOptions = errors.New("invalid options")
	ErrDecodeFailed   = errors.New("failed to decode options")
	ErrLoadFailed     = errors.New("failed to load options file")
	ErrNoFile         = errors.New("options file path is empty")
)
