package mail

import (
	"bytes"
	"errors"
	"io"
	"maps"
	netmail "net/mail"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"
)

// NewMessageID returns a globally unique Message-ID value without angle
// brackets, "<uuid>@<domain>".
func NewMessageID(domain string) string {
	if domain == "" {
		domain = "localhost"
	}
	return uuid.NewString() + "@" + domain
}

// Encode writes msg as an RFC 5322 message. A Message-ID is generated and
// stored on msg when it has none. Bcc recipients never appear in the output.
func Encode(w io.Writer, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	part, err := build(msg)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}
	if err := part.Encode(w); err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}
	return nil
}

// Bytes is Encode into a byte slice.
func Bytes(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func build(msg *Message) (*enmime.Part, error) {
	from := msg.Author()

	if msg.MessageID == "" {
		msg.MessageID = NewMessageID(from.Domain())
	}

	b := enmime.Builder().
		From(from.Name, from.Address).
		Subject(msg.Subject).
		ToAddrs(toNetAddresses(msg.To)).
		CCAddrs(toNetAddresses(msg.Cc)).
		BCCAddrs(toNetAddresses(msg.Bcc)).
		Header("Message-ID", "<"+msg.MessageID+">")

	if !msg.Date.IsZero() {
		b = b.Date(msg.Date)
	}
	if !msg.Sender.IsZero() && msg.Sender.Address != from.Address {
		b = b.Header("Sender", msg.Sender.String())
	}
	if len(msg.ReplyTo) == 1 {
		b = b.ReplyTo(msg.ReplyTo[0].Name, msg.ReplyTo[0].Address)
	} else if len(msg.ReplyTo) > 1 {
		b = b.Header("Reply-To", joinAddresses(msg.ReplyTo))
	}
	for _, name := range slices.Sorted(maps.Keys(msg.Headers)) {
		b = b.Header(name, msg.Headers[name])
	}

	if msg.Text != "" || msg.HTML == "" {
		b = b.Text([]byte(msg.Text))
	}
	if msg.HTML != "" {
		b = b.HTML([]byte(msg.HTML))
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if a.IsInline() {
			b = b.AddInline(a.Content, contentType, a.Filename, a.ContentID)
			continue
		}
		b = b.AddAttachment(a.Content, contentType, a.Filename)
	}

	return b.Build()
}

// Parse reads a raw RFC 5322 message. Attachments include inline parts.
func Parse(r io.Reader) (*Message, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, errors.Join(ErrParseFailed, err)
	}

	msg := &Message{
		MessageID: strings.Trim(env.GetHeader("Message-ID"), "<> \t"),
		Subject:   env.GetHeader("Subject"),
		Text:      env.Text,
		HTML:      env.HTML,
		From:      addressList(env, "From"),
		To:        addressList(env, "To"),
		Cc:        addressList(env, "Cc"),
		Bcc:       addressList(env, "Bcc"),
		ReplyTo:   addressList(env, "Reply-To"),
	}
	if sender := addressList(env, "Sender"); len(sender) > 0 {
		msg.Sender = sender[0]
	}
	if date, err := netmail.ParseDate(env.GetHeader("Date")); err == nil {
		msg.Date = date
	}

	for _, key := range env.GetHeaderKeys() {
		msg.SetHeader(key, env.GetHeader(key))
	}

	for _, parts := range [][]*enmime.Part{env.Attachments, env.Inlines} {
		for _, p := range parts {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    p.FileName,
				ContentType: p.ContentType,
				ContentID:   p.ContentID,
				Content:     p.Content,
			})
		}
	}

	return msg, nil
}

func addressList(env *enmime.Envelope, header string) []Address {
	list, err := env.AddressList(header)
	if err != nil {
		return nil
	}
	return fromNetAddresses(list)
}

func joinAddresses(list []Address) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
