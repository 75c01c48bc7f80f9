package mailkit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/mailkit/pkg/credential"
	"github.com/dmitrymomot/mailkit/pkg/file"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/receiver"
	"github.com/dmitrymomot/mailkit/pkg/sender"
)

// Built-in strategy names.
const (
	StrategySMTP     = "smtp"
	StrategyPostmark = "postmark"
	StrategyFile     = "file"
	StrategyIMAP     = "imap"
)

// Exchange is the mail component: a sender and a receiver worker sharing
// logging, credentials and storage.
type Exchange struct {
	sender   *sender.Worker
	receiver *receiver.Worker
	imap     *receiver.IMAPStrategy
	logger   *slog.Logger
}

// Workers lists the workers of an exchange.
type Workers struct {
	Sender   *sender.Worker
	Receiver *receiver.Worker
}

// Option configures an Exchange.
type Option func(*exchangeOptions)

type exchangeOptions struct {
	logger      *slog.Logger
	credentials *credential.Resolver
	storage     func(ctx context.Context, location string) (file.Storage, error)
	mailbox     receiver.MailboxOpener
	senders     map[string]sender.Strategy
	receivers   map[string]receiver.Strategy
}

// WithLogger sets the logger for both workers and all built-in strategies.
func WithLogger(log *slog.Logger) Option {
	return func(o *exchangeOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithCredentials sets the resolver used for secret references in
// transport options.
func WithCredentials(r *credential.Resolver) Option {
	return func(o *exchangeOptions) {
		if r != nil {
			o.credentials = r
		}
	}
}

// WithStorageOpener replaces file.Open for the file strategy and for IMAP
// attachment storage.
func WithStorageOpener(open func(ctx context.Context, location string) (file.Storage, error)) Option {
	return func(o *exchangeOptions) {
		if open != nil {
			o.storage = open
		}
	}
}

// WithMailboxOpener replaces the IMAP dialer of the built-in imap strategy.
func WithMailboxOpener(open receiver.MailboxOpener) Option {
	return func(o *exchangeOptions) {
		o.mailbox = open
	}
}

// WithSenderStrategy adds or replaces a sending strategy. A blank name or
// nil strategy is ignored.
func WithSenderStrategy(name string, s sender.Strategy) Option {
	return func(o *exchangeOptions) {
		if strings.TrimSpace(name) != "" && s != nil {
			o.senders[name] = s
		}
	}
}

// WithReceiverStrategy adds or replaces a receiving strategy. A blank name
// or nil strategy is ignored.
func WithReceiverStrategy(name string, s receiver.Strategy) Option {
	return func(o *exchangeOptions) {
		if strings.TrimSpace(name) != "" && s != nil {
			o.receivers[name] = s
		}
	}
}

// New creates an exchange with the built-in strategies registered.
func New(opts ...Option) *Exchange {
	o := &exchangeOptions{
		logger:      slog.Default(),
		credentials: credential.NewResolver(),
		storage: func(ctx context.Context, location string) (file.Storage, error) {
			return file.Open(ctx, location)
		},
		senders:   make(map[string]sender.Strategy),
		receivers: make(map[string]receiver.Strategy),
	}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger.With(logger.Component("mailkit"))

	senders := sender.NewRegistry()
	senders.MustRegister(StrategySMTP, sender.NewSMTPStrategy(
		sender.WithSMTPCredentials(o.credentials),
		sender.WithSMTPLogger(log),
	))
	senders.MustRegister(StrategyPostmark, sender.NewPostmarkStrategy(
		sender.WithPostmarkCredentials(o.credentials),
		sender.WithPostmarkLogger(log),
	))
	senders.MustRegister(StrategyFile, sender.NewFileStrategy(
		sender.WithFileStorage(o.storage),
		sender.WithFileLogger(log),
	))
	for name, s := range o.senders {
		_ = senders.Replace(name, s) // blank names are filtered by the option
	}

	imap := receiver.NewIMAPStrategy(
		receiver.WithCredentials(o.credentials),
		receiver.WithStorageOpener(o.storage),
		receiver.WithMailboxOpener(o.mailbox),
		receiver.WithIMAPLogger(log),
	)
	receivers := receiver.NewRegistry()
	receivers.MustRegister(StrategyIMAP, imap)
	for name, s := range o.receivers {
		_ = receivers.Replace(name, s)
	}

	return &Exchange{
		sender:   sender.NewWorker(senders, sender.WithLogger(o.logger)),
		receiver: receiver.NewWorker(receivers, receiver.WithLogger(o.logger)),
		imap:     imap,
		logger:   log,
	}
}

// Send delivers the postman through the sender worker.
func (e *Exchange) Send(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	return e.sender.Send(ctx, postman)
}

// Receive fetches messages into the postman through the receiver worker.
func (e *Exchange) Receive(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	return e.receiver.Receive(ctx, postman)
}

// OpenMailbox opens the IMAP mailbox described by receiver options, for
// status queries. The caller closes it.
func (e *Exchange) OpenMailbox(ctx context.Context, opts map[string]any) (receiver.Mailbox, error) {
	return e.imap.OpenMailbox(ctx, opts)
}

func (e *Exchange) Sender() *sender.Worker {
	return e.sender
}

func (e *Exchange) Receiver() *receiver.Worker {
	return e.receiver
}

func (e *Exchange) Workers() Workers {
	return Workers{Sender: e.sender, Receiver: e.receiver}
}
