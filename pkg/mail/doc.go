// Package mail defines the data carried through mailkit: addresses,
// messages, envelopes and the postman that holds them for a send or receive
// call.
//
// # Architecture
//
// A Postman holds transport options plus a list of Envelopes. Each Envelope
// pairs a transport-level sender and recipient list with the Messages
// delivered under it:
//
//	Postman
//	├── options (strategy, transport ...)
//	└── []*Envelope
//	    ├── sender, recipients      (SMTP MAIL FROM / RCPT TO)
//	    └── []*Message              (headers, bodies, attachments)
//
// Envelope.AddMessage fills in missing headers from the envelope: a message
// without From or Sender is sent "from" the envelope sender, and a message
// without recipients is addressed to the envelope recipients.
//
// Messages record delivery failures individually with SetError, so one bad
// recipient never hides the outcome of the rest of a batch. Message.ID holds
// the transport identifier (the IMAP UID) for received mail.
//
// MIME composition and parsing are delegated to enmime: Encode builds a
// multipart message with text, HTML, inline parts and attachments; Parse
// reads raw RFC 5322 input back into a Message. RenderHTML fills the HTML
// body from a templ component.
//
// # Usage
//
//	from := mail.MustParseAddress("Shop <noreply@shop.example>")
//	to := mail.MustParseAddress("customer@example.com")
//
//	msg := &mail.Message{Subject: "Your order", Text: "Thanks!"}
//	if err := mail.RenderHTML(ctx, msg, views.OrderEmail(order)); err != nil {
//	    return err
//	}
//	msg.Attach(invoicePDF, "invoice.pdf", "application/pdf")
//
//	postman := mail.NewPostman(opts, mail.NewEnvelope(from, to).AddMessage(msg))
//
// # Error Handling
//
// Sentinels use translation keys ("mail.errors.no_sender") and are joined
// with their cause, so errors.Is works on Validate, Encode and Parse
// results. Address format problems are additionally reported as
// validator.ValidationErrors naming the offending field ("to.1").
package mail
