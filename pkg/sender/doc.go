// Package sender implements the sending side of a mail exchange.
//
// # Architecture
//
// A Worker owns a Handler, and the Handler owns a Registry of named
// strategies. Handle resolves the two keys it knows from the postman
// options, "strategy" (default "smtp") and "transport" (default empty map),
// selects the strategy and hands it the postman. Each strategy then resolves
// its own schema for "transport".
//
// Built-in strategies:
//   - SMTPStrategy delivers over one SMTP session per send (go-smtp,
//     SASL through mailauth). When transport.dsn or transport.endpoint are
//     missing they are derived from host, port, encryption and verify_peer
//     and written back to the postman options.
//   - PostmarkStrategy posts through the Postmark API.
//   - FileStrategy writes .eml and .json files for development, to a
//     directory or an s3:// location.
//
// Each message is delivered under the bare envelope (Envelope.Clone): MAIL
// FROM is the envelope sender and RCPT TO the envelope recipients, so Bcc
// recipients never leak into headers.
//
// # Usage
//
//	registry := sender.NewRegistry()
//	registry.MustRegister("smtp", sender.NewSMTPStrategy())
//	worker := sender.NewWorker(registry, sender.WithLogger(log))
//
//	postman := mail.NewPostman(map[string]any{
//	    "transport": map[string]any{
//	        "username": "me@gmail.com",
//	        "password": "env:GMAIL_APP_PASSWORD",
//	    },
//	}, envelope)
//
//	envelopes, err := worker.Send(ctx, postman)
//	for _, msg := range postman.Failed() {
//	    log.Warn("not delivered", "subject", msg.Subject, "error", msg.Err())
//	}
//
// # Error Handling
//
// Handle returns ErrSendFailed joined with the cause for invalid options, an
// unknown strategy or a strategy error. A strategy returns an error only
// when nothing could be attempted. Failures of single messages, including a
// refused connection (ErrConnectionFailed) or login (ErrAuthFailed), are
// recorded on the messages with ErrDeliveryFailed or ErrWriteFailed and do
// not stop the rest of the batch.
package sender
