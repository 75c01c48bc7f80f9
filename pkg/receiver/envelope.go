package receiver

import (
	"slices"
	"strings"

	"github.com/dmitrymomot/mailkit/pkg/mail"
)

// AttachmentFilters restricts which attachments are kept. Empty lists keep
// everything; values compare case-insensitively.
type AttachmentFilters struct {
	Subtype   []string `option:"subtype"`
	Extension []string `option:"extension"`
}

func (f AttachmentFilters) IsZero() bool {
	return len(f.Subtype) == 0 && len(f.Extension) == 0
}

// Keep reports whether a passes every configured filter.
func (f AttachmentFilters) Keep(a mail.Attachment) bool {
	if len(f.Subtype) > 0 && !containsFold(f.Subtype, a.Subtype()) {
		return false
	}
	if len(f.Extension) > 0 && !containsFold(f.Extension, a.Extension()) {
		return false
	}
	return true
}

func containsFold(list []string, v string) bool {
	return slices.ContainsFunc(list, func(s string) bool {
		return strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(s), "."), v)
	})
}

// NewEnvelope wraps a received message. The envelope sender is the Sender
// header, else the first From; the recipients are To, Cc and Bcc. msg.ID is
// set to uid and attachments failing filters are dropped.
func NewEnvelope(uid uint32, msg *mail.Message, filters AttachmentFilters) *mail.Envelope {
	msg.ID = uid
	if !filters.IsZero() {
		kept := msg.Attachments[:0]
		for _, a := range msg.Attachments {
			if filters.Keep(a) {
				kept = append(kept, a)
			}
		}
		msg.Attachments = kept
	}
	return mail.NewEnvelope(msg.Originator(), msg.Recipients()...).AddMessage(msg)
}
