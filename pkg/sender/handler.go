package sender

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
const DefaultStrategy = "smtp"

var handlerSchema = options.Schema{
	"strategy":  {Types: kindString, Default: DefaultStrategy},
	"transport": {Types: kindMap, Default: map[string]any{}},
}

// Handler resolves the strategy named in the postman options and delegates
// the send to it.
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

// Handle sends the postman. Every failure is returned joined with
// ErrSendFailed.
func (h *Handler) Handle(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	if logger.OperationID(ctx) == "" {
		ctx = logger.ContextWithOperationID(ctx, uuid.NewString())
	}

	opts, err := options.Resolve(handlerSchema, postman.Options())
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}

	name := opts.String("strategy")
	s, err := h.strategies.Get(name)
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	postman.SetOptions(opts.All())

	start := time.Now()
	envelopes, err := s.Send(ctx, postman)
	if err != nil {
		h.logger.ErrorContext(ctx, "send failed", logger.Strategy(name), logger.Error(err))
		return nil, errors.Join(ErrSendFailed, err)
	}

	failed := postman.Failed()
	level := slog.LevelInfo
	if len(failed) > 0 {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "mail sent",
		logger.Strategy(name),
		logger.Envelopes(len(envelopes)),
		logger.Messages(len(postman.Messages())),
		slog.Int("failed", len(failed)),
		logger.Duration(time.Since(start)),
	)
	return envelopes, nil
}
