package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/file"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
)

// DefaultMailDir is where FileStrategy writes when transport.dir is unset.
const DefaultMailDir = "./var/mail"

// StorageOpener opens the storage behind a location (a directory or an
// s3:// URL).
type StorageOpener func(ctx context.Context, location string) (file.Storage, error)

func openStorage(ctx context.Context, location string) (file.Storage, error) {
	return file.Open(ctx, location)
}

var fileSchema = options.Schema{
	"transport": {Types: kindMap, Schema: options.Schema{
		"dir": {Types: kindString, Default: DefaultMailDir},
	}},
}

// FileStrategy saves messages instead of sending them. Each message becomes
// an .eml file plus a .json file with its metadata, named
// <timestamp>_<subject>.
type FileStrategy struct {
	open   StorageOpener
	now    func() time.Time
	logger *slog.Logger
}

// FileOption configures a FileStrategy.
type FileOption func(*FileStrategy)

// WithFileStorage replaces file.Open.
func WithFileStorage(open StorageOpener) FileOption {
	return func(s *FileStrategy) {
		if open != nil {
			s.open = open
		}
	}
}

// WithFileClock sets the clock used for file names.
func WithFileClock(now func() time.Time) FileOption {
	return func(s *FileStrategy) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFileLogger sets the logger.
func WithFileLogger(log *slog.Logger) FileOption {
	return func(s *FileStrategy) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewFileStrategy(opts ...FileOption) *FileStrategy {
	s := &FileStrategy{
		open:   openStorage,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fileMetadata is the .json companion of a saved message.
type fileMetadata struct {
	Timestamp  string   `json:"timestamp"`
	MessageID  string   `json:"message_id"`
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	From       []string `json:"from"`
	To         []string `json:"to"`
	Subject    string   `json:"subject"`
	Files      []string `json:"attachments,omitempty"`
}

func (s *FileStrategy) Send(ctx context.Context, postman *mail.Postman) ([]*mail.Envelope, error) {
	opts, err := options.Resolve(fileSchema, postman.Options())
	if err != nil {
		return nil, err
	}
	dir := opts.String("transport.dir")

	storage, err := s.open(ctx, dir)
	if err != nil {
		return nil, errors.Join(ErrWriteFailed, err)
	}

	log := s.logger.With(logger.Strategy("file"), slog.String("dir", dir))
	envelopes := postman.Envelopes()
	for _, env := range envelopes {
		for _, msg := range env.Messages() {
			if err := ctx.Err(); err != nil {
				msg.SetError(err)
				continue
			}
			name, err := s.write(ctx, storage, env, msg)
			if err != nil {
				msg.SetError(errors.Join(ErrWriteFailed, err))
				log.WarnContext(ctx, "message not saved", logger.Error(err))
				continue
			}
			log.DebugContext(ctx, "message saved", slog.String("file", name))
		}
	}
	return envelopes, nil
}

func (s *FileStrategy) write(ctx context.Context, storage file.Storage, env *mail.Envelope, msg *mail.Message) (string, error) {
	raw, err := mail.Bytes(msg)
	if err != nil {
		return "", err
	}

	now := s.now()
	base := uniqueName(ctx, storage, now.Format("2006_01_02_150405")+"_"+fileIdentifier(msg.Subject))

	meta := fileMetadata{
		Timestamp:  now.Format(time.RFC3339),
		MessageID:  msg.MessageID,
		Sender:     env.Sender().Address,
		Recipients: mail.Addresses(env.Recipients()),
		From:       mail.Addresses(msg.From),
		To:         mail.Addresses(msg.To),
		Subject:    msg.Subject,
	}
	for _, a := range msg.Attachments {
		meta.Files = append(meta.Files, a.Filename)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	if _, err := storage.Save(ctx, base+".eml", raw, "message/rfc822"); err != nil {
		return "", err
	}
	if _, err := storage.Save(ctx, base+".json", data, "application/json"); err != nil {
		return "", err
	}
	return base + ".eml", nil
}

// fileIdentifier turns a subject into a short lowercase file name part.
func fileIdentifier(subject string) string {
	s := strings.ToLower(file.SanitizeFilename(strings.ReplaceAll(subject, "/", "_")))
	s = strings.Trim(s, "._")
	const maxLength = 100
	if r := []rune(s); len(r) > maxLength {
		s = string(r[:maxLength])
	}
	if s == "" || s == "unnamed" {
		s = "email"
	}
	return s
}

// uniqueName appends a counter when base is already taken.
func uniqueName(ctx context.Context, storage file.Storage, base string) string {
	name := base
	for i := 2; storage.Exists(ctx, name+".eml"); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}
