package credential

import "errors"

var (
	ErrNotFound           = errors.New("credential not found")
	ErrKeyringUnavailable = errors.New("keyring unavailable")
	ErrNoEncryptionKey    = errors.New("no encryption key configured")
	ErrDecryptFailed      = errors.New("failed to decrypt credential")
)
