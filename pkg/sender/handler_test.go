package sender_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
	"github.com/dmitrymomot/mailkit/pkg/sender"
	"github.com/dmitrymomot/mailkit/pkg/strategy"
)

func newPostman(opts map[string]any) *mail.Postman {
	msg := &mail.Message{Subject: "Order shipped", Text: "On its way."}
	env := mail.NewEnvelope(
		mail.MustParseAddress("Shop <shop@example.com>"),
		mail.MustParseAddress("customer@example.com"),
	).AddMessage(msg)
	return mail.NewPostman(opts, env)
}

func TestWorker_SendUsesDefaultStrategy(t *testing.T) {
	t.Parallel()

	var called bool
	registry := sender.NewRegistry()
	registry.MustRegister("smtp", sender.StrategyFunc(func(_ context.Context, p *mail.Postman) ([]*mail.Envelope, error) {
		called = true
		return p.Envelopes(), nil
	}))

	postman := newPostman(nil)
	envelopes, err := sender.NewWorker(registry).Send(context.Background(), postman)
	require.NoError(t, err)

	assert.True(t, called)
	assert.Len(t, envelopes, 1)
	assert.Equal(t, "smtp", postman.Options()["strategy"])
	assert.Equal(t, map[string]any{}, postman.Options()["transport"])
}

func TestWorker_SendSelectsStrategyCaseInsensitively(t *testing.T) {
	t.Parallel()

	registry := sender.NewRegistry()
	registry.MustRegister("file", sender.StrategyFunc(func(_ context.Context, p *mail.Postman) ([]*mail.Envelope, error) {
		return p.Envelopes(), nil
	}))

	_, err := sender.NewWorker(registry).Send(context.Background(), newPostman(map[string]any{"strategy": "FILE"}))
	assert.NoError(t, err)
}

func TestWorker_SendErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	registry := sender.NewRegistry()
	registry.MustRegister("broken", sender.StrategyFunc(func(context.Context, *mail.Postman) ([]*mail.Envelope, error) {
		return nil, boom
	}))
	worker := sender.NewWorker(registry)

	tests := []struct {
		name    string
		options map[string]any
		cause   error
	}{
		{name: "unknown strategy", options: map[string]any{"strategy": "carrier-pigeon"}, cause: strategy.ErrNotFound},
		{name: "invalid handler options", options: map[string]any{"strategy": 42}, cause: options.ErrInvalidOptions},
		{name: "transport is not a map", options: map[string]any{"transport": "smtp://localhost"}, cause: options.ErrInvalidOptions},
		{name: "strategy failure", options: map[string]any{"strategy": "broken"}, cause: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelopes, err := worker.Send(context.Background(), newPostman(tt.options))
			require.Error(t, err)
			assert.Nil(t, envelopes)
			assert.ErrorIs(t, err, sender.ErrSendFailed)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestNewWorker_NilRegistry(t *testing.T) {
	t.Parallel()

	worker := sender.NewWorker(nil)
	require.NotNil(t, worker.Strategies())

	_, err := worker.Send(context.Background(), newPostman(nil))
	assert.ErrorIs(t, err, strategy.ErrNotFound)
}
