package mail_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mail"
)

func TestNewMessageID(t *testing.T) {
	t.Parallel()

	id := mail.NewMessageID("example.com")
	assert.True(t, strings.HasSuffix(id, "@example.com"))
	assert.NotEqual(t, id, mail.NewMessageID("example.com"))
	assert.True(t, strings.HasSuffix(mail.NewMessageID(""), "@localhost"))
}

func TestEncodeParse(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	msg := &mail.Message{
		Date:    date,
		From:    []mail.Address{alice},
		To:      []mail.Address{bob},
		Cc:      []mail.Address{carol},
		Bcc:     []mail.Address{{Address: "hidden@example.net"}},
		ReplyTo: []mail.Address{{Address: "support@example.com"}},
		Subject: "Quarterly report",
		Text:    "See attached.",
		HTML:    "<p>See <b>attached</b>.</p>",
	}
	msg.Attach([]byte("%PDF-1.4 fake"), "report.pdf", "application/pdf")
	msg.SetHeader("X-Campaign", "q1")

	raw, err := mail.Bytes(msg)
	require.NoError(t, err)
	require.NotEmpty(t, msg.MessageID, "encode assigns a message id")
	assert.True(t, strings.HasSuffix(msg.MessageID, "@example.com"))
	assert.NotContains(t, string(raw), "hidden@example.net")

	parsed, err := mail.Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, msg.MessageID, parsed.MessageID)
	assert.Equal(t, "Quarterly report", parsed.Subject)
	assert.Equal(t, []mail.Address{alice}, parsed.From)
	assert.Equal(t, []mail.Address{bob}, parsed.To)
	assert.Equal(t, []mail.Address{carol}, parsed.Cc)
	assert.Empty(t, parsed.Bcc)
	assert.Equal(t, []mail.Address{{Address: "support@example.com"}}, parsed.ReplyTo)
	assert.True(t, date.Equal(parsed.Date))
	assert.Equal(t, "See attached.", strings.TrimSpace(parsed.Text))
	assert.Contains(t, parsed.HTML, "<b>attached</b>")
	assert.Equal(t, "q1", parsed.Headers["X-Campaign"])

	require.Len(t, parsed.Attachments, 1)
	assert.Equal(t, "report.pdf", parsed.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", parsed.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), parsed.Attachments[0].Content)
}

func TestEncode_KeepsExplicitMessageIDAndSender(t *testing.T) {
	t.Parallel()

	msg := &mail.Message{
		MessageID: "fixed-id@example.com",
		From:      []mail.Address{alice},
		Sender:    carol,
		To:        []mail.Address{bob},
		Subject:   "Hi",
	}

	var buf bytes.Buffer
	require.NoError(t, mail.Encode(&buf, msg))
	assert.Equal(t, "fixed-id@example.com", msg.MessageID)

	parsed, err := mail.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id@example.com", parsed.MessageID)
	assert.Equal(t, carol, parsed.Sender)
	assert.Equal(t, []mail.Address{alice}, parsed.From)
}

func TestEncode_InlineAttachment(t *testing.T) {
	t.Parallel()

	msg := &mail.Message{
		From:    []mail.Address{alice},
		To:      []mail.Address{bob},
		Subject: "Logo",
		HTML:    `<img src="cid:logo">`,
		Attachments: []mail.Attachment{
			{Filename: "logo.png", ContentType: "image/png", ContentID: "logo", Content: []byte("png")},
		},
	}

	raw, err := mail.Bytes(msg)
	require.NoError(t, err)

	parsed, err := mail.Parse(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, parsed.Attachments, 1)
	assert.Equal(t, "logo", parsed.Attachments[0].ContentID)
	assert.True(t, parsed.Attachments[0].IsInline())
}

func TestEncode_RejectsInvalidMessage(t *testing.T) {
	t.Parallel()

	err := mail.Encode(io.Discard, &mail.Message{Subject: "no people"})
	assert.ErrorIs(t, err, mail.ErrNoSender)
	assert.ErrorIs(t, err, mail.ErrNoRecipients)
}

func TestParse_Raw(t *testing.T) {
	t.Parallel()

	raw := "From: =?UTF-8?B?SsO8cmdlbg==?= <juergen@example.de>\r\n" +
		"To: team@example.com\r\n" +
		"Subject: =?UTF-8?Q?Gr=C3=BC=C3=9Fe?=\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
		"Message-ID: <abc@example.de>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hallo!\r\n"

	msg, err := mail.Parse(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Grüße", msg.Subject)
	assert.Equal(t, []mail.Address{{Name: "Jürgen", Address: "juergen@example.de"}}, msg.From)
	assert.Equal(t, "abc@example.de", msg.MessageID)
	assert.Equal(t, 2006, msg.Date.Year())
	assert.Equal(t, "Hallo!", strings.TrimSpace(msg.Text))
	assert.Empty(t, msg.Attachments)
	assert.Zero(t, msg.ID)
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	component := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<h1>Welcome</h1>")
		return err
	})

	msg := &mail.Message{}
	require.NoError(t, mail.RenderHTML(context.Background(), msg, component))
	assert.Equal(t, "<h1>Welcome</h1>", msg.HTML)

	failing := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return errors.New("template broke")
	})
	err := mail.RenderHTML(context.Background(), msg, failing)
	assert.ErrorIs(t, err, mail.ErrRenderFailed)
	assert.Equal(t, "<h1>Welcome</h1>", msg.HTML)
}
