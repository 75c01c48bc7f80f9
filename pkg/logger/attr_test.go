package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestMailAttrs(t *testing.T) {
	assert.Equal(t, slog.String("strategy", "smtp"), logger.Strategy("smtp"))
	assert.Equal(t, slog.String("endpoint", "ssl://smtp.gmail.com:465"), logger.Endpoint("ssl://smtp.gmail.com:465"))
	assert.Equal(t, slog.String("mailbox", "INBOX"), logger.Mailbox("INBOX"))
	assert.Equal(t, slog.Uint64("uid", 42), logger.UID(42))
	assert.Equal(t, slog.Int("envelopes", 3), logger.Envelopes(3))
	assert.Equal(t, slog.Int("messages", 7), logger.Messages(7))
	assert.Equal(t, slog.String("component", "sender"), logger.Component("sender"))
	assert.Equal(t, slog.String("message_id", "a@b"), logger.MessageID("a@b"))
	assert.True(t, logger.MessageID("").Equal(slog.Attr{}))
	assert.Equal(t, slog.Duration("duration", 2*time.Second), logger.Duration(2*time.Second))
}
