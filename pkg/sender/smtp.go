package sender

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/dmitrymomot/mailkit/pkg/credential"
	"github.com/dmitrymomot/mailkit/pkg/dsn"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/mailauth"
	"github.com/dmitrymomot/mailkit/pkg/options"
	"github.com/dmitrymomot/mailkit/pkg/validator"
)

// SMTPClient is the part of *smtp.Client used by SMTPStrategy.
type SMTPClient interface {
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Reset() error
	Quit() error
	Close() error
}

// DialConfig carries connection settings that are not part of the DSN.
type DialConfig struct {
	LocalName string
	Timeout   time.Duration
}

// SMTPDialer opens a greeted, and when configured encrypted, SMTP session.
type SMTPDialer func(ctx context.Context, target dsn.SMTP, cfg DialConfig) (SMTPClient, error)

// DialSMTP is the default SMTPDialer. Encryption ssl wraps the connection
// in TLS before the greeting; tls and starttls upgrade it with STARTTLS.
func DialSMTP(ctx context.Context, target dsn.SMTP, cfg DialConfig) (SMTPClient, error) {
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		ServerName:         target.Host,
		InsecureSkipVerify: !target.VerifyPeer, //nolint:gosec // verify_peer=0 is an explicit opt-out
	}

	var c *smtp.Client
	switch {
	case dsn.IsImplicitTLS(target.Encryption):
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
		c = smtp.NewClient(tlsConn)
	case dsn.IsStartTLS(target.Encryption):
		// The EHLO before the upgrade uses the client default name.
		// LocalName applies to the EHLO sent over TLS.
		c, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			return nil, err
		}
	default:
		c = smtp.NewClient(conn)
	}

	if cfg.Timeout > 0 {
		c.CommandTimeout = cfg.Timeout
		c.SubmissionTimeout = cfg.Timeout
	}

	if cfg.LocalName != "" {
		if err := c.Hello(cfg.LocalName); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func smtpSchema() options.Schema {
	return options.Schema{
		"transport": {Types: kindMap, Schema: options.Schema{
			"host":        {Types: kindString, Default: "smtp.gmail.com"},
			"port":        {Types: kindInt, Default: 465},
			"encryption":  {Types: kindNull, Default: dsn.EncryptionSSL, Allowed: encryptionValues()},
			"username":    {Types: kindString, Required: true},
			"password":    {Types: kindString},
			"verify_peer": {Types: kindBool, Default: true, Aliases: []string{"verifyPeer"}},
			"dsn":         {Types: kindNull},
			"endpoint":    {Types: kindNull},
			"auth":        {Types: kindString, Default: string(mailauth.MechanismPlain), Allowed: mechanismValues()},
			"oauth2":      {Types: kindAuth},
			"timeout":     {Types: kindInt, Default: 30},
			"local_name":  {Types: kindNull, Aliases: []string{"localName"}},
		}},
	}
}

func encryptionValues() []any {
	out := make([]any, len(dsn.Encryptions))
	for i, e := range dsn.Encryptions {
		out[i] = e
	}
	return out
}

func mechanismValues() []any {
	out := make([]any, len(mailauth.Mechanisms))
	for i, m := range mailauth.Mechanisms {
		out[i] = m
	}
	return out
}

type smtpTransport struct {
	Host       string                 `option:"host"`
	Port       int                    `option:"port"`
	Encryption string                 `option:"encryption"`
	Username   string                 `option:"username"`
	Password   string                 `option:"password"`
	VerifyPeer bool                   `option:"verify_peer"`
	DSN        string                 `option:"dsn"`
	Endpoint   string                 `option:"endpoint"`
	Auth       string                 `option:"auth"`
	OAuth2     *mailauth.OAuth2Config `option:"oauth2"`
	Timeout    int                    `option:"timeout"`
	LocalName  string                 `option:"local_name"`
}

// SMTPStrategy delivers messages over one SMTP session per send.
type SMTPStrategy struct {
	dial        SMTPDialer
	credentials *credential.Resolver
	logger      *slog.Logger
}

// SMTPOption configures an SMTPStrategy.
type SMTPOption func(*SMTPStrategy)

// WithSMTPDialer replaces DialSMTP.
func WithSMTPDialer(dial SMTPDialer) SMTPOption {
	return func(s *SMTPStrategy) {
		if dial != nil {
			s.dial = dial
		}
	}
}

// WithSMTPCredentials sets the resolver for password and token references.
func WithSMTPCredentials(r *credential.Resolver) SMTPOption {
	return func(s *SMTPStrategy) {
		if r != nil {
			s.credentials = r
		}
	}
}

// WithSMTPLogger sets the logger.
func WithSMTPLogger(log *slog.Logger) SMTPOption {
	return func(s *SMTPStrategy) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewSMTPStrategy(opts ...SMTPOption) *SMTPStrategy {
	s := &SMTPStrategy{
		dial:        DialSMTP,
		credentials: credential.NewResolver(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send resolves the transport options, writes the DSN and endpoint back to
// the postman and delivers every message. A failed connection or login is
// recorded on every message; the envelopes are still returned.
func (s *SMTPStrategy) Send(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	cfg, err := s.resolve(postman)
	if err != nil {
		return nil, err
	}

	target, err := dsn.ParseSMTP(cfg.DSN)
	if err != nil {
		return nil, err
	}
	target.Password, err = s.credentials.Resolve(ctx, target.Password, target.Username)
	if err != nil {
		return nil, errors.Join(ErrCredentials, err)
	}
	oauth, err := s.resolveOAuth2(ctx, cfg.OAuth2, target.Username)
	if err != nil {
		return nil, errors.Join(ErrCredentials, err)
	}

	log := s.logger.With(logger.Strategy("smtp"), logger.Endpoint(cfg.Endpoint))
	envelopes := postman.Envelopes()

	client, err := s.connect(ctx, target, cfg, oauth)
	if err != nil {
		log.WarnContext(ctx, "smtp session failed", logger.Error(err))
		recordFailure(envelopes, err)
		return envelopes, nil
	}
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	for _, env := range envelopes {
		bare := env.Clone()
		for _, msg := range env.Messages() {
			if err := ctx.Err(); err != nil {
				msg.SetError(err)
				continue
			}
			if err := deliver(client, bare, msg); err != nil {
				msg.SetError(errors.Join(ErrDeliveryFailed, err))
				log.WarnContext(ctx, "message not delivered",
					logger.MessageID(msg.MessageID),
					logger.Error(err),
				)
				_ = client.Reset()
				continue
			}
			log.DebugContext(ctx, "message delivered", logger.MessageID(msg.MessageID))
		}
	}

	if err := client.Quit(); err != nil {
		_ = client.Close()
	}
	return envelopes, nil
}

// resolve applies the schema and fills in dsn and endpoint.
func (s *SMTPStrategy) resolve(postman *mail.Postman) (smtpTransport, error) {
	var cfg smtpTransport

	opts, err := options.Resolve(smtpSchema(), postman.Options())
	if err != nil {
		return cfg, err
	}
	if err := opts.Decode("transport", &cfg); err != nil {
		return cfg, err
	}

	mech, err := mailauth.ParseMechanism(cfg.Auth)
	if err != nil {
		return cfg, err
	}
	needsPassword := mech != mailauth.MechanismNone &&
		!(mech == mailauth.MechanismOAuthBearer && !cfg.OAuth2.IsZero()) &&
		cfg.DSN == ""
	if needsPassword {
		if err := validator.Apply(validator.RequiredString("transport.password", cfg.Password)); err != nil {
			return cfg, errors.Join(options.ErrInvalidOptions, err)
		}
	}

	if cfg.DSN == "" {
		cfg.DSN = dsn.SMTP{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Encryption: cfg.Encryption,
			VerifyPeer: cfg.VerifyPeer,
		}.String()
		opts.Set("transport.dsn", cfg.DSN)
	}
	if cfg.DSN == "" {
		return cfg, ErrMissingDSN
	}

	if cfg.Endpoint == "" {
		target, err := dsn.ParseSMTP(cfg.DSN)
		if err != nil {
			return cfg, err
		}
		cfg.Endpoint = dsn.Endpoint(target.Host, target.Port, target.Encryption, target.VerifyPeer)
		opts.Set("transport.endpoint", cfg.Endpoint)
	}

	postman.SetOptions(opts.All())
	return cfg, nil
}

func (s *SMTPStrategy) resolveOAuth2(ctx context.Context, cfg *mailauth.OAuth2Config, account string) (*mailauth.OAuth2Config, error) {
	if cfg.IsZero() {
		return nil, nil
	}
	out := *cfg
	var err error
	if out.ClientSecret, err = s.credentials.Resolve(ctx, cfg.ClientSecret, account); err != nil {
		return nil, err
	}
	if out.RefreshToken, err = s.credentials.Resolve(ctx, cfg.RefreshToken, account); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SMTPStrategy) connect(ctx context.Context, target dsn.SMTP, cfg smtpTransport, oauth *mailauth.OAuth2Config) (SMTPClient, error) {
	client, err := s.dial(ctx, target, DialConfig{
		LocalName: cfg.LocalName,
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	auth, err := mailauth.NewClient(ctx, mailauth.Credentials{
		Mechanism: mailauth.Mechanism(cfg.Auth),
		Username:  target.Username,
		Password:  target.Password,
		OAuth2:    oauth,
		Host:      target.Host,
		Port:      target.Port,
	})
	if err == nil && auth != nil {
		err = client.Auth(auth)
	}
	if err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrAuthFailed, err)
	}
	return client, nil
}

// deliver sends msg under the bare envelope. When the envelope has no
// sender or recipients the message headers are used instead.
func deliver(client SMTPClient, bare *mail.Envelope, msg *mail.Message) error {
	from := bare.Sender()
	if from.IsZero() {
		from = msg.Originator()
	}
	rcpts := bare.Recipients()
	if len(rcpts) == 0 {
		rcpts = msg.Recipients()
	}

	raw, err := mail.Bytes(msg)
	if err != nil {
		return err
	}
	if err := client.SendMail(from.Address, mail.Addresses(rcpts), bytes.NewReader(raw)); err != nil {
		var smtpErr *smtp.SMTPError
		if errors.As(err, &smtpErr) {
			return fmt.Errorf("smtp %d: %w", smtpErr.Code, err)
		}
		return err
	}
	return nil
}
