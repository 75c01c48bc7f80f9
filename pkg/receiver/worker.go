package receiver

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
)

// Worker is the receiving side of an exchange.
type Worker struct {
	strategies *Registry
	handler    *Handler
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger for the worker and its handler.
func WithLogger(log *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// NewWorker creates a worker dispatching to strategies.
func NewWorker(strategies *Registry, opts ...WorkerOption) *Worker {
	o := &workerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if strategies == nil {
		strategies = NewRegistry()
	}
	return &Worker{
		strategies: strategies,
		handler:    NewHandler(strategies, o.logger.With(logger.Component("receiver"))),
	}
}

// Receive fetches messages into postman and returns its envelopes.
func (w *Worker) Receive(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	return w.handler.Handle(ctx, postman)
}

func (w *Worker) Strategies() *Registry {
	return w.strategies
}
