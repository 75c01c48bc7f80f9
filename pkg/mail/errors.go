package mail

import "errors"

var (
	ErrNoSender       = errors.New("mail.errors.no_sender")
	ErrNoRecipients   = errors.New("mail.errors.no_recipients")
	ErrNoSubject      = errors.New("mail.errors.no_subject")
	ErrInvalidAddress = errors.New("mail.errors.invalid_address")
	ErrEncodeFailed   = errors.New("mail.errors.encode_failed")
	ErrParseFailed    = errors.New("mail.errors.parse_failed")
	ErrRenderFailed   = errors.New("mail.errors.render_failed")
)
