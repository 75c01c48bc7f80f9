package sender

import "errors"

var (
	ErrSendFailed       = errors.New("mail.errors.send_failed")
	ErrConnectionFailed = errors.New("mail.errors.connection_failed")
	ErrAuthFailed       = errors.New("mail.errors.auth_failed")
	ErrDeliveryFailed   = errors.New("mail.errors.delivery_failed")
	ErrCredentials      = errors.New("mail.errors.credentials_unavailable")
	ErrMissingDSN       = errors.New("DSN is not defined for the mailer")
	ErrWriteFailed      = errors.New("mail.errors.write_failed")
)
