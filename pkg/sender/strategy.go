package sender

import (
	"context"

	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
	"github.com/dmitrymomot/mailkit/pkg/strategy"
)

// Strategy delivers the envelopes of a postman. Per-message failures are
// recorded on the messages; a returned error means nothing was attempted.
type Strategy interface {
	Send(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error)

func (f StrategyFunc) Send(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	return f(ctx, postman)
}

// Registry selects strategies by name.
type Registry = strategy.Registry[Strategy]

// NewRegistry returns an empty strategy registry.
func NewRegistry() *Registry {
	return strategy.NewRegistry[Strategy]()
}

var (
	kindString = []options.Kind{options.KindString}
	kindInt    = []options.Kind{options.KindInt}
	kindBool   = []options.Kind{options.KindBool}
	kindMap    = []options.Kind{options.KindMap}
	kindList   = []options.Kind{options.KindList}
	kindNull   = []options.Kind{options.KindString, options.KindNull}
	kindAuth   = []options.Kind{options.KindMap, options.KindNull}
)

// recordFailure stores err on every message of envelopes.
func recordFailure(envelopes []*mail.Envelope, err error) {
	for _, env := range envelopes {
		for _, msg := range env.Messages() {
			msg.SetError(err)
		}
	}
}
