package sender

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/mailkit/pkg/credential"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
)

// PostmarkAPI is the part of *postmark.Client used by PostmarkStrategy.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkFactory builds an API client from the server and account tokens.
type PostmarkFactory func(serverToken, accountToken string) PostmarkAPI

func newPostmarkClient(serverToken, accountToken string) PostmarkAPI {
	return postmark.NewClient(serverToken, accountToken)
}

var postmarkSchema = options.Schema{
	"transport": {Types: kindMap, Schema: options.Schema{
		"server_token":   {Types: kindString, Required: true, Aliases: []string{"serverToken"}},
		"account_token":  {Types: kindString, Required: true, Aliases: []string{"accountToken"}},
		"message_stream": {Types: kindString, Default: "outbound", Aliases: []string{"messageStream"}},
		"track_opens":    {Types: kindBool, Default: false, Aliases: []string{"trackOpens"}},
		"track_links":    {Types: kindString, Default: "None", Allowed: []any{"None", "HtmlAndText", "HtmlOnly", "TextOnly"}, Aliases: []string{"trackLinks"}},
		"tag":            {Types: kindNull},
	}},
}

type postmarkTransport struct {
	ServerToken   string `option:"server_token"`
	AccountToken  string `option:"account_token"`
	MessageStream string `option:"message_stream"`
	TrackOpens    bool   `option:"track_opens"`
	TrackLinks    string `option:"track_links"`
	Tag           string `option:"tag"`
}

// PostmarkStrategy delivers messages through the Postmark HTTP API.
type PostmarkStrategy struct {
	newClient   PostmarkFactory
	credentials *credential.Resolver
	logger      *slog.Logger
}

// PostmarkOption configures a PostmarkStrategy.
type PostmarkOption func(*PostmarkStrategy)

// WithPostmarkFactory replaces the API client constructor.
func WithPostmarkFactory(f PostmarkFactory) PostmarkOption {
	return func(s *PostmarkStrategy) {
		if f != nil {
			s.newClient = f
		}
	}
}

// WithPostmarkCredentials sets the resolver for token references.
func WithPostmarkCredentials(r *credential.Resolver) PostmarkOption {
	return func(s *PostmarkStrategy) {
		if r != nil {
			s.credentials = r
		}
	}
}

// WithPostmarkLogger sets the logger.
func WithPostmarkLogger(log *slog.Logger) PostmarkOption {
	return func(s *PostmarkStrategy) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewPostmarkStrategy(opts ...PostmarkOption) *PostmarkStrategy {
	s := &PostmarkStrategy{
		newClient:   newPostmarkClient,
		credentials: credential.NewResolver(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts every message. API error codes are recorded on the message.
func (s *PostmarkStrategy) Send(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	opts, err := options.Resolve(postmarkSchema, postman.Options())
	if err != nil {
		return nil, err
	}
	var cfg postmarkTransport
	if err := opts.Decode("transport", &cfg); err != nil {
		return nil, err
	}

	server, err := s.credentials.Resolve(ctx, cfg.ServerToken, "postmark")
	if err != nil {
		return nil, errors.Join(ErrCredentials, err)
	}
	account, err := s.credentials.Resolve(ctx, cfg.AccountToken, "postmark")
	if err != nil {
		return nil, errors.Join(ErrCredentials, err)
	}

	client := s.newClient(server, account)
	log := s.logger.With(logger.Strategy("postmark"))
	envelopes := postman.Envelopes()

	for _, env := range envelopes {
		for _, msg := range env.Messages() {
			if err := ctx.Err(); err != nil {
				msg.SetError(err)
				continue
			}
			if err := s.post(ctx, client, cfg, env, msg); err != nil {
				msg.SetError(errors.Join(ErrDeliveryFailed, err))
				log.WarnContext(ctx, "message not delivered", logger.MessageID(msg.MessageID), logger.Error(err))
			}
		}
	}
	return envelopes, nil
}

func (s *PostmarkStrategy) post(ctx context.Context, client PostmarkAPI, cfg postmarkTransport, env *mail.Envelope, msg *mail.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	from := msg.Author()
	email := postmark.Email{
		From:          from.String(),
		To:            joinAddresses(msg.To),
		Cc:            joinAddresses(msg.Cc),
		Bcc:           joinAddresses(msg.Bcc),
		ReplyTo:       joinAddresses(msg.ReplyTo),
		Subject:       msg.Subject,
		Tag:           cfg.Tag,
		HTMLBody:      msg.HTML,
		TextBody:      msg.Text,
		TrackOpens:    cfg.TrackOpens,
		TrackLinks:    cfg.TrackLinks,
		MessageStream: cfg.MessageStream,
	}
	if len(msg.To) == 0 && len(msg.Cc) == 0 && len(msg.Bcc) == 0 {
		email.To = joinAddresses(env.Recipients())
	}
	if !msg.Sender.IsZero() && msg.Sender.Address != from.Address {
		email.Headers = append(email.Headers, postmark.Header{Name: "Sender", Value: msg.Sender.String()})
	}
	for _, name := range slices.Sorted(maps.Keys(msg.Headers)) {
		email.Headers = append(email.Headers, postmark.Header{Name: name, Value: msg.Headers[name]})
	}
	for _, a := range msg.Attachments {
		email.Attachments = append(email.Attachments, postmark.Attachment{
			Name:        a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
			ContentID:   a.ContentID,
		})
	}

	resp, err := client.SendEmail(ctx, email)
	if err != nil {
		return err
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	if resp.MessageID != "" {
		msg.MessageID = resp.MessageID
	}
	return nil
}

func joinAddresses(list []mail.Address) string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.String())
	}
	return strings.Join(out, ", ")
}
