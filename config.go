package mailkit

import (
	"log/slog"
	"strings"

	"github.com/99designs/keyring"

	"github.com/dmitrymomot/mailkit/pkg/config"
	"github.com/dmitrymomot/mailkit/pkg/credential"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/secrets"
)

// EnvPrefix is prepended to every Config variable.
const EnvPrefix = "MAIL_"

// Config is the environment configuration of an exchange. Values may be
// credential references such as "env:GMAIL_APP_PASSWORD".
type Config struct {
	Username  string `env:"USERNAME"`
	Password  string `env:"PASSWORD"`
	Recipient string `env:"RECIPIENT"`

	SenderStrategy   string `env:"SENDER_STRATEGY" envDefault:"smtp"`
	ReceiverStrategy string `env:"RECEIVER_STRATEGY" envDefault:"imap"`
	Auth             string `env:"AUTH" envDefault:"plain"`
	VerifyPeer       bool   `env:"VERIFY_PEER" envDefault:"true"`

	SMTPHost       string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPEncryption string `env:"SMTP_ENCRYPTION" envDefault:"ssl"`

	IMAPHost       string `env:"IMAP_HOST" envDefault:"imap.gmail.com"`
	IMAPPort       int    `env:"IMAP_PORT" envDefault:"993"`
	IMAPEncryption string `env:"IMAP_ENCRYPTION" envDefault:"ssl"`
	Mailbox        string `env:"IMAP_MAILBOX" envDefault:"INBOX"`
	AttachmentsDir string `env:"ATTACHMENTS_DIR"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	FileDir              string `env:"FILE_DIR"`

	SecretKey      string `env:"SECRET_KEY"`
	KeyringService string `env:"KEYRING_SERVICE" envDefault:"mailkit"`

	LogLevel    string `env:"LOG_LEVEL"`
	LogFormat   string `env:"LOG_FORMAT"`
	Environment string `env:"ENV" envDefault:"development"`
}

// LoadConfig reads Config from MAIL_* environment variables, loading a .env
// file in the working directory when present.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	opts = append([]config.Option{config.WithPrefix(EnvPrefix)}, opts...)
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SenderOptions returns postman options for the configured sender strategy.
func (c Config) SenderOptions() map[string]any {
	transport := map[string]any{}
	switch strings.ToLower(c.SenderStrategy) {
	case StrategyPostmark:
		setIf(transport, "server_token", c.PostmarkServerToken)
		setIf(transport, "account_token", c.PostmarkAccountToken)
	case StrategyFile:
		setIf(transport, "dir", c.FileDir)
	default:
		c.connection(transport, c.SMTPHost, c.SMTPPort, c.SMTPEncryption)
	}
	return map[string]any{"strategy": c.SenderStrategy, "transport": transport}
}

// ReceiverOptions returns postman options for the configured receiver
// strategy.
func (c Config) ReceiverOptions() map[string]any {
	transport := map[string]any{}
	c.connection(transport, c.IMAPHost, c.IMAPPort, c.IMAPEncryption)
	setIf(transport, "mailbox", c.Mailbox)
	setIf(transport, "attachments_dir", c.AttachmentsDir)
	return map[string]any{"strategy": c.ReceiverStrategy, "transport": transport}
}

func (c Config) connection(transport map[string]any, host string, port int, encryption string) {
	setIf(transport, "host", host)
	if port > 0 {
		transport["port"] = port
	}
	setIf(transport, "encryption", encryption)
	setIf(transport, "username", c.Username)
	setIf(transport, "password", c.Password)
	setIf(transport, "auth", c.Auth)
	transport["verify_peer"] = c.VerifyPeer
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// Credentials builds the credential resolver. enc: references need
// SecretKey; keyring: references use the KeyringService keyring.
func (c Config) Credentials() (*credential.Resolver, error) {
	opts := []credential.Option{
		credential.WithKeyringConfig(keyring.Config{ServiceName: c.KeyringService}),
	}
	if c.SecretKey != "" {
		key, err := secrets.ParseKey(c.SecretKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, credential.WithEncryptionKey(key))
	}
	return credential.NewResolver(opts...), nil
}

// Logger builds a logger for Environment. LogLevel and LogFormat override
// the environment defaults when set; an unknown format is ignored.
func (c Config) Logger(opts ...logger.Option) *slog.Logger {
	base := []logger.Option{logger.WithEnvironment(c.Environment, "mailkit")}
	if c.LogLevel != "" {
		base = append(base, logger.WithLevel(logger.ParseLevel(c.LogLevel)))
	}
	switch format := logger.Format(strings.ToLower(c.LogFormat)); format {
	case logger.FormatJSON, logger.FormatText:
		base = append(base, logger.WithFormat(format))
	}
	return logger.New(append(base, opts...)...)
}
