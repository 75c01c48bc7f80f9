package receiver_test

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"slices"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/credential"
	"github.com/dmitrymomot/mailkit/pkg/file"
	"github.com/dmitrymomot/mailkit/pkg/mail"
	"github.com/dmitrymomot/mailkit/pkg/options"
	"github.com/dmitrymomot/mailkit/pkg/receiver"
	"github.com/dmitrymomot/mailkit/pkg/validator"
)

// fakeMailbox serves raw messages by UID and records calls in order.
type fakeMailbox struct {
	messages map[uint32][]byte
	unseen   int

	criteria *imap.SearchCriteria
	fetched  []uint32
	seen     []uint32
	calls    []string

	searchErr error
}

func (f *fakeMailbox) Search(_ context.Context, criteria *imap.SearchCriteria) ([]uint32, error) {
	f.calls = append(f.calls, "search")
	f.criteria = criteria
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return slices.Sorted(maps.Keys(f.messages)), nil
}

func (f *fakeMailbox) Fetch(_ context.Context, uids []uint32) ([]receiver.FetchedMessage, error) {
	f.calls = append(f.calls, "fetch")
	f.fetched = uids
	out := make([]receiver.FetchedMessage, 0, len(uids))
	for _, uid := range uids {
		out = append(out, receiver.FetchedMessage{UID: uid, Raw: f.messages[uid]})
	}
	return out, nil
}

func (f *fakeMailbox) MarkSeen(_ context.Context, uids []uint32) error {
	f.calls = append(f.calls, "seen")
	f.seen = uids
	return nil
}

func (f *fakeMailbox) Status(_ context.Context, folder string) (*receiver.Status, error) {
	return &receiver.Status{Mailbox: folder, Messages: uint32(len(f.messages)), Unseen: uint32(f.unseen)}, nil
}

func (f *fakeMailbox) CountUnread(ctx context.Context, folder string) (int, error) {
	st, err := f.Status(ctx, folder)
	if err != nil {
		return 0, err
	}
	return int(st.Unseen), nil
}

func (f *fakeMailbox) Close() error {
	f.calls = append(f.calls, "close")
	return nil
}

func rawMessage(t *testing.T, subject string, attachments ...mail.Attachment) []byte {
	t.Helper()
	msg := &mail.Message{
		From:    []mail.Address{{Name: "Billing", Address: "billing@example.com"}},
		To:      []mail.Address{{Address: "me@example.com"}},
		Subject: subject,
		Text:    "See attached.",
	}
	for _, a := range attachments {
		msg.Attach(a.Content, a.Filename, a.ContentType)
	}
	raw, err := mail.Bytes(msg)
	require.NoError(t, err)
	return raw
}

func openerFor(mb receiver.Mailbox, got *receiver.Connection) receiver.MailboxOpener {
	return func(_ context.Context, conn receiver.Connection) (receiver.Mailbox, error) {
		if got != nil {
			*got = conn
		}
		return mb, nil
	}
}

func imapOptions(transport map[string]any) map[string]any {
	return map[string]any{"strategy": "imap", "transport": transport}
}

func TestIMAPStrategy_Receive(t *testing.T) {
	t.Parallel()

	mb := &fakeMailbox{messages: map[uint32][]byte{
		11: rawMessage(t, "Invoice 11"),
		12: rawMessage(t, "Invoice 12"),
	}}

	var conn receiver.Connection
	s := receiver.NewIMAPStrategy(receiver.WithMailboxOpener(openerFor(mb, &conn)))

	postman := mail.NewPostman(imapOptions(map[string]any{"username": "me@example.com", "password": "secret"}))
	envelopes, err := s.Receive(context.Background(), postman)
	require.NoError(t, err)
	require.Len(t, envelopes, 2)

	first := envelopes[0].Messages()[0]
	assert.Equal(t, uint32(11), first.ID)
	assert.Equal(t, "Invoice 11", first.Subject)
	assert.Equal(t, "billing@example.com", envelopes[0].Sender().Address)
	assert.Equal(t, []string{"me@example.com"}, mail.Addresses(envelopes[0].Recipients()))

	assert.Equal(t, []imap.Flag{imap.FlagSeen}, mb.criteria.NotFlag)
	assert.Equal(t, []string{"search", "fetch", "close"}, mb.calls, "messages are not marked seen by default")

	opts := options.New(postman.Options())
	assert.Equal(t, "{imap.gmail.com:993/imap/ssl}INBOX", opts.String("transport.dsn"))
	assert.Equal(t, "{imap.gmail.com:993/imap/ssl}INBOX", opts.String("transport.endpoint"))

	assert.Equal(t, "imap.gmail.com", conn.Target.Host)
	assert.Equal(t, 993, conn.Target.Port)
	assert.Equal(t, "INBOX", conn.Target.Mailbox)
	assert.Equal(t, "me@example.com", conn.Username)
	assert.Equal(t, "secret", conn.Password)
}

func TestIMAPStrategy_MarkAsSeenAfterAllMessages(t *testing.T) {
	t.Parallel()

	mb := &fakeMailbox{messages: map[uint32][]byte{
		3: rawMessage(t, "a"),
		5: rawMessage(t, "b"),
		9: rawMessage(t, "c"),
	}}
	s := receiver.NewIMAPStrategy(receiver.WithMailboxOpener(openerFor(mb, nil)))

	postman := mail.NewPostman(imapOptions(map[string]any{
		"username": "u",
		"password": "p",
		"search":   map[string]any{"markAsSeen": true, "limit": 2, "criteria": "ALL"},
	}))
	envelopes, err := s.Receive(context.Background(), postman)
	require.NoError(t, err)

	require.Len(t, envelopes, 2)
	assert.Equal(t, []uint32{5, 9}, mb.fetched, "limit keeps the newest messages")
	assert.Equal(t, []uint32{5, 9}, mb.seen)
	assert.Equal(t, []string{"search", "fetch", "seen", "close"}, mb.calls)
}

func TestIMAPStrategy_ExplicitDSN(t *testing.T) {
	t.Parallel()

	mb := &fakeMailbox{}
	var conn receiver.Connection
	s := receiver.NewIMAPStrategy(receiver.WithMailboxOpener(openerFor(mb, &conn)))

	postman := mail.NewPostman(imapOptions(map[string]any{
		"username": "u",
		"password": "p",
		"dsn":      "{mail.example.com/imap/tls/novalidate-cert}Archive",
		"endpoint": "archive",
	}))
	envelopes, err := s.Receive(context.Background(), postman)
	require.NoError(t, err)
	assert.Empty(t, envelopes)

	assert.Equal(t, "mail.example.com", conn.Target.Host)
	assert.Equal(t, 143, conn.Target.Port)
	assert.Equal(t, "Archive", conn.Target.Mailbox)
	assert.Equal(t, "tls", conn.Target.Encryption)
	assert.False(t, conn.Target.VerifyPeer)
	assert.Equal(t, "archive", options.New(postman.Options()).String("transport.endpoint"))
}

func TestIMAPStrategy_StoresFilteredAttachments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mb := &fakeMailbox{messages: map[uint32][]byte{
		21: rawMessage(t, "Report",
			mail.Attachment{Filename: "Q1 report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.7")},
			mail.Attachment{Filename: "logo.png", ContentType: "image/png", Content: []byte("\x89PNG")},
		),
	}}
	s := receiver.NewIMAPStrategy(receiver.WithMailboxOpener(openerFor(mb, nil)))

	postman := mail.NewPostman(imapOptions(map[string]any{
		"username":        "u",
		"password":        "p",
		"attachments_dir": dir,
		"search": map[string]any{
			"attachmentFilters": map[string]any{"subtype": []any{"PDF"}},
		},
	}))
	envelopes, err := s.Receive(context.Background(), postman)
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	msg := envelopes[0].Messages()[0]
	require.Len(t, msg.Attachments, 1)
	a := msg.Attachments[0]
	assert.Equal(t, "Q1 report.pdf", a.Filename)
	assert.Equal(t, filepath.Join(dir, "21", "Q1_report.pdf"), a.Location)
	assert.FileExists(t, a.Location)
}

// flakyStorage fails every Save after the first failAfter calls.
type flakyStorage struct {
	failAfter int
	saved     []string
	deleted   []string
}

func (s *flakyStorage) Save(_ context.Context, p string, content []byte, _ string) (*file.File, error) {
	if len(s.saved) >= s.failAfter {
		return nil, errors.New("disk full")
	}
	s.saved = append(s.saved, p)
	return &file.File{RelativePath: p, Location: "mem://" + p, Size: int64(len(content))}, nil
}

func (s *flakyStorage) Delete(_ context.Context, p string) error {
	s.deleted = append(s.deleted, p)
	return nil
}

func (s *flakyStorage) Exists(context.Context, string) bool { return false }
func (s *flakyStorage) URL(p string) string                 { return "mem://" + p }

func TestIMAPStrategy_AttachmentNames(t *testing.T) {
	t.Parallel()

	storage := &flakyStorage{failAfter: 10}
	mb := &fakeMailbox{messages: map[uint32][]byte{
		8: rawMessage(t, "Scans",
			mail.Attachment{Filename: "scan.pdf", ContentType: "application/pdf", Content: []byte("1")},
			mail.Attachment{Filename: "scan.pdf", ContentType: "application/pdf", Content: []byte("2")},
		),
	}}
	s := receiver.NewIMAPStrategy(
		receiver.WithMailboxOpener(openerFor(mb, nil)),
		receiver.WithStorageOpener(func(context.Context, string) (file.Storage, error) { return storage, nil }),
	)

	_, err := s.Receive(context.Background(), mail.NewPostman(imapOptions(map[string]any{
		"username": "u", "password": "p", "attachments_dir": "mem",
	})))
	require.NoError(t, err)
	assert.Equal(t, []string{"8/scan.pdf", "8/scan-2.pdf"}, storage.saved)
}

func TestIMAPStrategy_AttachmentRollback(t *testing.T) {
	t.Parallel()

	storage := &flakyStorage{failAfter: 1}
	mb := &fakeMailbox{messages: map[uint32][]byte{
		3: rawMessage(t, "Two files",
			mail.Attachment{Filename: "a.txt", ContentType: "text/plain", Content: []byte("a")},
			mail.Attachment{Filename: "b.txt", ContentType: "text/plain", Content: []byte("b")},
		),
	}}
	s := receiver.NewIMAPStrategy(
		receiver.WithMailboxOpener(openerFor(mb, nil)),
		receiver.WithStorageOpener(func(context.Context, string) (file.Storage, error) { return storage, nil }),
	)

	_, err := s.Receive(context.Background(), mail.NewPostman(imapOptions(map[string]any{
		"username": "u", "password": "p", "attachments_dir": "mem",
	})))
	require.ErrorIs(t, err, receiver.ErrStoreAttachment)
	assert.Equal(t, []string{"3/a.txt"}, storage.deleted)
	assert.Empty(t, mb.seen)
}

func TestIMAPStrategy_Errors(t *testing.T) {
	t.Parallel()

	searchErr := errors.New("connection reset")
	storageErr := errors.New("no bucket")

	tests := []struct {
		name      string
		transport map[string]any
		mailbox   *fakeMailbox
		check     func(t *testing.T, err error)
	}{
		{
			name:      "missing password",
			transport: map[string]any{"username": "u"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, options.ErrInvalidOptions)
				assert.True(t, validator.ExtractValidationErrors(err).Has("transport.password"))
			},
		},
		{
			name:      "invalid criteria",
			transport: map[string]any{"username": "u", "password": "p", "search": map[string]any{"criteria": "WHENEVER"}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, receiver.ErrInvalidCriteria)
			},
		},
		{
			name:      "search failure",
			transport: map[string]any{"username": "u", "password": "p"},
			mailbox:   &fakeMailbox{searchErr: searchErr},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, searchErr)
			},
		},
		{
			name:      "attachment storage unavailable",
			transport: map[string]any{"username": "u", "password": "p", "attachments_dir": "s3://"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, receiver.ErrStoreAttachment)
				assert.ErrorIs(t, err, storageErr)
			},
		},
		{
			name:      "unresolvable password",
			transport: map[string]any{"username": "u", "password": "env:MAILKIT_TEST_UNSET_PASSWORD"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, receiver.ErrCredentials)
				assert.ErrorIs(t, err, credential.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := tt.mailbox
			if mb == nil {
				mb = &fakeMailbox{}
			}
			resolver := credential.NewResolver(credential.WithLookupEnv(func(string) (string, bool) { return "", false }))
			s := receiver.NewIMAPStrategy(
				receiver.WithMailboxOpener(openerFor(mb, nil)),
				receiver.WithCredentials(resolver),
				receiver.WithStorageOpener(func(context.Context, string) (file.Storage, error) {
					return nil, storageErr
				}),
			)

			_, err := s.Receive(context.Background(), mail.NewPostman(imapOptions(tt.transport)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "receiving emails: ")
			tt.check(t, err)
		})
	}
}

func TestIMAPStrategy_OpenMailbox(t *testing.T) {
	t.Parallel()

	mb := &fakeMailbox{messages: map[uint32][]byte{1: nil, 2: nil}, unseen: 1}
	s := receiver.NewIMAPStrategy(receiver.WithMailboxOpener(openerFor(mb, nil)))

	input := imapOptions(map[string]any{"username": "u", "password": "p"})
	opened, err := s.OpenMailbox(context.Background(), input)
	require.NoError(t, err)

	n, err := opened.CountUnread(context.Background(), "INBOX")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, hasDSN := input["transport"].(map[string]any)["dsn"]
	assert.False(t, hasDSN, "input options are not modified")
}
