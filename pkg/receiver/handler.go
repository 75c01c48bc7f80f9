package receiver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
)

// DefaultStrategy is used when the postman options name none.
const DefaultStrategy = "imap"

var handlerSchema = options.Schema{
	"strategy":  {Types: kindString, Default: DefaultStrategy},
	"transport": {Types: kindMap, Default: map[string]any{}},
}

// Handler resolves the strategy named in the postman options and delegates
// the receive to it.
type Handler struct {
	strategies *Registry
	logger     *slog.Logger
}

func NewHandler(strategies *Registry, log *slog.Logger) *Handler {
	if strategies == nil {
		strategies = NewRegistry()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{strategies: strategies, logger: log}
}

// Handle receives into the postman. Every failure is returned joined with
// ErrReceiveFailed.
func (h *Handler) Handle(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	if logger.OperationID(ctx) == "" {
		ctx = logger.ContextWithOperationID(ctx, uuid.NewString())
	}

	opts, err := options.Resolve(handlerSchema, postman.Options())
	if err != nil {
		return nil, errors.Join(ErrReceiveFailed, err)
	}

	name := opts.String("strategy")
	s, err := h.strategies.Get(name)
	if err != nil {
		return nil, errors.Join(ErrReceiveFailed, err)
	}
	postman.SetOptions(opts.All())

	start := time.Now()
	envelopes, err := s.Receive(ctx, postman)
	if err != nil {
		h.logger.ErrorContext(ctx, "receive failed", logger.Strategy(name), logger.Error(err))
		return nil, errors.Join(ErrReceiveFailed, err)
	}

	h.logger.InfoContext(ctx, "mail received",
		logger.Strategy(name),
		logger.Envelopes(len(envelopes)),
		logger.Duration(time.Since(start)),
	)
	return envelopes, nil
}
