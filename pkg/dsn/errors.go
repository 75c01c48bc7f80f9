package dsn

import "errors"

var (
	ErrInvalidDSN        = errors.New("invalid dsn")
	ErrUnsupportedScheme = errors.New("unsupported dsn scheme")
)
