package receiver

import (
	"context"

	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
	"github.com/dmitrymomot/mailkit/pkg/strategy"
)

// Strategy collects messages into envelopes appended to the postman and
// returns the postman's envelopes.
type Strategy interface {
	Receive(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error)

func (f StrategyFunc) Receive(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
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
