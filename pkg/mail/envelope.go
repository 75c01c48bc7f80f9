package mail

import (
	"errors"
	"slices"
)

// Envelope is the transport-level wrapper around messages: the address the
// transport sends from and the addresses it delivers to. These may differ
// from the message headers, for example for Bcc recipients.
type Envelope struct {
	sender     Address
	recipients []Address
	messages   []*Message
}

func NewEnvelope(sender Address, recipients ...Address) *Envelope {
	return &Envelope{
		sender:     sender,
		recipients: slices.Clone(recipients),
	}
}

func (e *Envelope) Sender() Address {
	return e.sender
}

func (e *Envelope) Recipients() []Address {
	return slices.Clone(e.recipients)
}

func (e *Envelope) Messages() []*Message {
	return e.messages
}

// AddMessage appends messages to the envelope. A message without From and
// Sender gets the envelope sender as From; a message without any recipient
// gets the envelope recipients as To.
func (e *Envelope) AddMessage(messages ...*Message) *Envelope {
	for _, m := range messages {
		if m == nil {
			continue
		}
		if len(m.From) == 0 && m.Sender.IsZero() && !e.sender.IsZero() {
			m.From = []Address{e.sender}
		}
		if len(m.To) == 0 && len(m.Cc) == 0 && len(m.Bcc) == 0 {
			m.To = slices.Clone(e.recipients)
		}
		e.messages = append(e.messages, m)
	}
	return e
}

// Clone returns a copy of the envelope without its messages.
func (e *Envelope) Clone() *Envelope {
	return NewEnvelope(e.sender, e.recipients...)
}

// Validate checks that the envelope can be delivered.
func (e *Envelope) Validate() error {
	var errs []error
	if e.sender.IsZero() {
		errs = append(errs, ErrNoSender)
	}
	if len(e.recipients) == 0 {
		errs = append(errs, ErrNoRecipients)
	}
	return errors.Join(errs...)
}

// Failed returns the messages that carry a delivery error.
func (e *Envelope) Failed() []*Message {
	var out []*Message
	for _, m := range e.messages {
		if m.HasError() {
			out = append(out, m)
		}
	}
	return out
}
