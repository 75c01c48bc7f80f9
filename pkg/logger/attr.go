package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Strategy records the transport strategy under the key "strategy".
func Strategy(name string) slog.Attr {
	return slog.String("strategy", name)
}

// Endpoint records a credential-free connection target under the key
// "endpoint". Never pass a DSN here.
func Endpoint(endpoint string) slog.Attr {
	return slog.String("endpoint", endpoint)
}

// Mailbox records the mailbox (folder) under the key "mailbox".
func Mailbox(name string) slog.Attr {
	return slog.String("mailbox", name)
}

// UID records an IMAP message UID under the key "uid".
func UID(uid uint32) slog.Attr {
	return slog.Uint64("uid", uint64(uid))
}

// MessageID records the Message-ID header under the key "message_id".
// If id is empty, it returns an empty Attr.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// Envelopes records an envelope count under the key "envelopes".
func Envelopes(n int) slog.Attr {
	return slog.Int("envelopes", n)
}

// Messages records a message count under the key "messages".
func Messages(n int) slog.Attr {
	return slog.Int("messages", n)
}

// Duration records an elapsed time under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
