package receiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/credential"
	"github.com/dmitrymomot/mailkit/pkg/dsn"
	"github.com/dmitrymomot/mailkit/pkg/file"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/mailauth"
	"github.com/dmitrymomot/mailkit/pkg/options"
	"github.com/dmitrymomot/mailkit/pkg/validator"
)

// StorageOpener opens attachment storage for a location (a directory or
// an s3:// URL).
type StorageOpener func(ctx context.Context, location string) (file.Storage, error)

func openStorage(ctx context.Context, location string) (file.Storage, error) {
	return file.Open(ctx, location)
}

func imapSchema() options.Schema {
	return options.Schema{
		"transport": {Types: kindMap, Schema: options.Schema{
			"host":            {Types: kindString, Default: "imap.gmail.com"},
			"port":            {Types: kindInt, Default: 993},
			"encryption":      {Types: kindNull, Default: dsn.EncryptionSSL, Allowed: stringsToAny(dsn.Encryptions)},
			"username":        {Types: kindString, Required: true},
			"password":        {Types: kindString},
			"mailbox":         {Types: kindString, Default: dsn.DefaultMailbox},
			"attachments_dir": {Types: kindNull, Aliases: []string{"attachmentsDir"}},
			"verify_peer":     {Types: kindBool, Default: true, Aliases: []string{"verifyPeer"}},
			"dsn":             {Types: kindNull},
			"endpoint":        {Types: kindNull},
			"auth":            {Types: kindString, Default: string(mailauth.MechanismPlain), Allowed: stringsToAny(mailauth.Mechanisms)},
			"oauth2":          {Types: kindAuth},
			"timeout":         {Types: kindInt, Default: 30},
			"search": {Types: kindMap, Schema: options.Schema{
				"criteria":     {Types: kindString, Default: "UNSEEN"},
				"mark_as_seen": {Types: kindBool, Default: false, Aliases: []string{"markAsSeen"}},
				"limit":        {Types: kindInt, Default: 0},
				"attachment_filters": {Types: kindMap, Default: map[string]any{}, Aliases: []string{"attachmentFilters"}, Schema: options.Schema{
					"subtype":   {Types: kindList, Default: []any{}},
					"extension": {Types: kindList, Default: []any{}},
				}},
			}},
		}},
	}
}

func stringsToAny(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

// SearchOptions is the transport.search section.
type SearchOptions struct {
	Criteria          string            `option:"criteria"`
	MarkAsSeen        bool              `option:"mark_as_seen"`
	Limit             int               `option:"limit"`
	AttachmentFilters AttachmentFilters `option:"attachment_filters"`
}

type imapTransport struct {
	Host           string                 `option:"host"`
	Port           int                    `option:"port"`
	Encryption     string                 `option:"encryption"`
	Username       string                 `option:"username"`
	Password       string                 `option:"password"`
	Mailbox        string                 `option:"mailbox"`
	AttachmentsDir string                 `option:"attachments_dir"`
	VerifyPeer     bool                   `option:"verify_peer"`
	DSN            string                 `option:"dsn"`
	Endpoint       string                 `option:"endpoint"`
	Auth           string                 `option:"auth"`
	OAuth2         *mailauth.OAuth2Config `option:"oauth2"`
	Timeout        int                    `option:"timeout"`
	Search         SearchOptions          `option:"search"`
}

// IMAPStrategy receives messages from an IMAP mailbox.
type IMAPStrategy struct {
	open        MailboxOpener
	storage     StorageOpener
	credentials *credential.Resolver
	logger      *slog.Logger
}

// IMAPOption configures an IMAPStrategy.
type IMAPOption func(*IMAPStrategy)

// WithMailboxOpener replaces DialIMAP.
func WithMailboxOpener(open MailboxOpener) IMAPOption {
	return func(s *IMAPStrategy) {
		if open != nil {
			s.open = open
		}
	}
}

// WithStorageOpener replaces file.Open for attachments_dir.
func WithStorageOpener(open StorageOpener) IMAPOption {
	return func(s *IMAPStrategy) {
		if open != nil {
			s.storage = open
		}
	}
}

// WithCredentials sets the resolver for password and token references.
func WithCredentials(r *credential.Resolver) IMAPOption {
	return func(s *IMAPStrategy) {
		if r != nil {
			s.credentials = r
		}
	}
}

// WithIMAPLogger sets the logger.
func WithIMAPLogger(log *slog.Logger) IMAPOption {
	return func(s *IMAPStrategy) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewIMAPStrategy(opts ...IMAPOption) *IMAPStrategy {
	s := &IMAPStrategy{
		open:        DialIMAP,
		storage:     openStorage,
		credentials: credential.NewResolver(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receive searches the mailbox, appends one envelope per message to the
// postman and, when search.mark_as_seen is set, flags the messages \Seen
// after all of them were processed.
func (s *IMAPStrategy) Receive(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	envelopes, err := s.receive(ctx, postman)
	if err != nil {
		return nil, fmt.Errorf("receiving emails: %w", err)
	}
	return envelopes, nil
}

func (s *IMAPStrategy) receive(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	cfg, conn, err := s.prepare(ctx, postman)
	if err != nil {
		return nil, err
	}
	criteria, err := ParseCriteria(cfg.Search.Criteria)
	if err != nil {
		return nil, err
	}

	var storage file.Storage
	if cfg.AttachmentsDir != "" {
		if storage, err = s.storage(ctx, cfg.AttachmentsDir); err != nil {
			return nil, errors.Join(ErrStoreAttachment, err)
		}
	}

	log := s.logger.With(
		logger.Strategy("imap"),
		logger.Endpoint(cfg.Endpoint),
		logger.Mailbox(conn.Target.Mailbox),
	)

	mb, err := s.open(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := mb.Close(); err != nil {
			log.DebugContext(ctx, "closing mailbox", logger.Error(err))
		}
	}()

	uids, err := mb.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if limit := cfg.Search.Limit; limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}
	log.DebugContext(ctx, "messages found", logger.Messages(len(uids)))

	fetched, err := mb.Fetch(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	seen := make([]uint32, 0, len(fetched))
	for _, f := range fetched {
		msg, err := mail.Parse(bytes.NewReader(f.Raw))
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", f.UID, err)
		}
		env := NewEnvelope(f.UID, msg, cfg.Search.AttachmentFilters)
		if storage != nil {
			if err := storeAttachments(ctx, storage, msg); err != nil {
				return nil, err
			}
		}
		postman.AddEnvelope(env)
		seen = append(seen, f.UID)
		log.DebugContext(ctx, "message received", logger.UID(f.UID), logger.MessageID(msg.MessageID))
	}

	if cfg.Search.MarkAsSeen {
		if err := mb.MarkSeen(ctx, seen); err != nil {
			return nil, fmt.Errorf("mark seen: %w", err)
		}
	}
	return postman.Envelopes(), nil
}

// storeAttachments saves the attachments under <uid>/<filename> and records
// their location. Repeated names get a numeric suffix. When a save fails,
// the files already written for the message are removed.
func storeAttachments(ctx context.Context, storage file.Storage, msg *mail.Message) error {
	dir := strconv.FormatUint(uint64(msg.ID), 10)
	saved := make([]string, 0, len(msg.Attachments))
	for i := range msg.Attachments {
		a := &msg.Attachments[i]
		name := a.Filename
		if name == "" {
			name = "attachment-" + strconv.Itoa(i+1)
		}
		p := uniquePath(path.Join(dir, file.SanitizeFilename(name)), saved)
		stored, err := storage.Save(ctx, p, a.Content, a.ContentType)
		if err != nil {
			for _, done := range saved {
				_ = storage.Delete(ctx, done)
			}
			return errors.Join(ErrStoreAttachment, err)
		}
		saved = append(saved, p)
		a.Location = stored.Location
	}
	return nil
}

func uniquePath(p string, taken []string) string {
	ext := path.Ext(p)
	base := strings.TrimSuffix(p, ext)
	for n := 2; slices.Contains(taken, p); n++ {
		p = base + "-" + strconv.Itoa(n) + ext
	}
	return p
}

// OpenMailbox resolves postman options like Receive and returns the open
// mailbox for status queries. The caller closes it.
func (s *IMAPStrategy) OpenMailbox(ctx context.Context, opts map[string]any) (Mailbox, error) {
	_, conn, err := s.prepare(ctx, mail.NewPostman(options.Merge(opts, nil)))
	if err != nil {
		return nil, err
	}
	return s.open(ctx, conn)
}

// prepare resolves the options, writes dsn and endpoint back to the
// postman and resolves credentials.
func (s *IMAPStrategy) prepare(ctx context.Context, postman *mail.Postman) (imapTransport, Connection, error) {
	var cfg imapTransport

	opts, err := options.Resolve(imapSchema(), postman.Options())
	if err != nil {
		return cfg, Connection{}, err
	}
	if err := opts.Decode("transport", &cfg); err != nil {
		return cfg, Connection{}, err
	}

	mech, err := mailauth.ParseMechanism(cfg.Auth)
	if err != nil {
		return cfg, Connection{}, err
	}
	if mech != mailauth.MechanismNone && !(mech == mailauth.MechanismOAuthBearer && !cfg.OAuth2.IsZero()) {
		if err := validator.Apply(validator.RequiredString("transport.password", cfg.Password)); err != nil {
			return cfg, Connection{}, errors.Join(options.ErrInvalidOptions, err)
		}
	}

	var target dsn.IMAP
	if cfg.DSN == "" {
		target = dsn.IMAP{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Mailbox:    cfg.Mailbox,
			Encryption: cfg.Encryption,
			VerifyPeer: cfg.VerifyPeer,
		}
		cfg.DSN = target.String()
		opts.Set("transport.dsn", cfg.DSN)
	} else if target, err = dsn.ParseIMAP(cfg.DSN); err != nil {
		return cfg, Connection{}, err
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = cfg.DSN
		opts.Set("transport.endpoint", cfg.Endpoint)
	}
	postman.SetOptions(opts.All())

	username := cfg.Username
	if target.Username != "" {
		username = target.Username
	}
	password, err := s.credentials.Resolve(ctx, cfg.Password, username)
	if err != nil {
		return cfg, Connection{}, errors.Join(ErrCredentials, err)
	}
	oauth := cfg.OAuth2
	if !oauth.IsZero() {
		resolved := *oauth
		if resolved.ClientSecret, err = s.credentials.Resolve(ctx, oauth.ClientSecret, username); err != nil {
			return cfg, Connection{}, errors.Join(ErrCredentials, err)
		}
		if resolved.RefreshToken, err = s.credentials.Resolve(ctx, oauth.RefreshToken, username); err != nil {
			return cfg, Connection{}, errors.Join(ErrCredentials, err)
		}
		oauth = &resolved
	}

	return cfg, Connection{
		Target:    target,
		Username:  username,
		Password:  password,
		Mechanism: mech,
		OAuth2:    oauth,
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
	}, nil
}
