package receiver

import "errors"

var (
	ErrReceiveFailed    = errors.New("mail.errors.receive_failed")
	ErrConnectionFailed = errors.New("mail.errors.connection_failed")
	ErrAuthFailed       = errors.New("mail.errors.auth_failed")
	ErrCredentials      = errors.New("mail.errors.credentials_unavailable")
	ErrInvalidCriteria  = errors.New("invalid search criteria")
	ErrStoreAttachment  = errors.New("mail.errors.attachment_not_stored")
)
