package mail

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/validator"
)

// Message is a single email. ID is meaningful only in the context of the
// transport that produced it: the IMAP UID for received mail, zero for mail
// built in code.
type Message struct {
	ID          uint32            `json:"id,omitempty" yaml:"id,omitempty"`
	MessageID   string            `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Date        time.Time         `json:"date,omitzero" yaml:"date,omitempty"`
	From        []Address         `json:"from,omitempty" yaml:"from,omitempty"`
	Sender      Address           `json:"sender,omitzero" yaml:"sender,omitempty"`
	To          []Address         `json:"to,omitempty" yaml:"to,omitempty"`
	Cc          []Address         `json:"cc,omitempty" yaml:"cc,omitempty"`
	Bcc         []Address         `json:"bcc,omitempty" yaml:"bcc,omitempty"`
	ReplyTo     []Address         `json:"reply_to,omitempty" yaml:"reply_to,omitempty"`
	Subject     string            `json:"subject" yaml:"subject"`
	Text        string            `json:"text,omitempty" yaml:"text,omitempty"`
	HTML        string            `json:"html,omitempty" yaml:"html,omitempty"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty" yaml:"attachments,omitempty"`

	err error
}

// Attach appends an attachment and returns m for chaining.
func (m *Message) Attach(content []byte, filename, contentType string) *Message {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	m.Attachments = append(m.Attachments, Attachment{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	return m
}

// SetHeader sets a custom header. Standard address, subject and date
// headers are controlled by the message fields.
func (m *Message) SetHeader(name, value string) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[name] = value
	return m
}

// SetError records a delivery failure for this message.
func (m *Message) SetError(err error) {
	m.err = err
}

// Err returns the delivery failure recorded by the transport, if any.
func (m *Message) Err() error {
	return m.err
}

func (m *Message) HasError() bool {
	return m.err != nil
}

// Recipients returns To, Cc and Bcc in that order.
func (m *Message) Recipients() []Address {
	out := make([]Address, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Originator returns the address the message is sent from: the Sender
// when set, otherwise the first From.
func (m *Message) Originator() Address {
	if !m.Sender.IsZero() {
		return m.Sender
	}
	if len(m.From) > 0 {
		return m.From[0]
	}
	return Address{}
}

// Author returns the address shown as the message author: the first From,
// otherwise the Sender.
func (m *Message) Author() Address {
	if len(m.From) > 0 {
		return m.From[0]
	}
	return m.Sender
}

// Validate checks that the message can be composed: it needs an originator,
// at least one recipient, a subject and well-formed addresses.
func (m *Message) Validate() error {
	var errs []error
	if m.Originator().IsZero() {
		errs = append(errs, ErrNoSender)
	}
	if len(m.Recipients()) == 0 {
		errs = append(errs, ErrNoRecipients)
	}
	if strings.TrimSpace(m.Subject) == "" {
		errs = append(errs, ErrNoSubject)
	}

	var rules []validator.Rule
	addRules := func(field string, list []Address) {
		for i, a := range list {
			rules = append(rules, validator.Email(fmt.Sprintf("%s.%d", field, i), a.Address))
		}
	}
	addRules("from", m.From)
	if !m.Sender.IsZero() {
		addRules("sender", []Address{m.Sender})
	}
	addRules("to", m.To)
	addRules("cc", m.Cc)
	addRules("bcc", m.Bcc)
	addRules("reply_to", m.ReplyTo)
	if err := validator.Apply(rules...); err != nil {
		errs = append(errs, errors.Join(ErrInvalidAddress, err))
	}

	return errors.Join(errs...)
}
