// Package mailkit sends and receives email through pluggable strategies.
//
// An Exchange bundles two workers: the sender (strategies "smtp",
// "postmark" and "file") and the receiver (strategy "imap"). Both take a
// mail.Postman whose options select the strategy and carry its transport
// settings, so one call site can switch from Gmail SMTP to a local mail
// directory by changing configuration only.
//
// Basic usage:
//
//	ex := mailkit.New(mailkit.WithLogger(log))
//
//	msg := &mail.Message{Subject: "Hello", Text: "Hi there"}
//	env := mail.NewEnvelope(
//		mail.MustParseAddress("me@gmail.com"),
//		mail.MustParseAddress("you@example.com"),
//	).AddMessage(msg)
//
//	postman := mail.NewPostman(map[string]any{
//		"strategy": "smtp",
//		"transport": map[string]any{
//			"username": "me@gmail.com",
//			"password": "env:GMAIL_APP_PASSWORD",
//		},
//	}, env)
//
//	if _, err := ex.Send(ctx, postman); err != nil {
//		return err
//	}
//	if msg.HasError() {
//		log.Warn("not delivered", "error", msg.Err())
//	}
//
// Receiving:
//
//	inbox := mail.NewPostman(map[string]any{
//		"transport": map[string]any{
//			"username": "me@gmail.com",
//			"password": "env:GMAIL_APP_PASSWORD",
//			"search":   map[string]any{"criteria": "UNSEEN", "mark_as_seen": true},
//		},
//	})
//	envelopes, err := ex.Receive(ctx, inbox)
//
// Configuration from the environment (MAIL_USERNAME, MAIL_SMTP_HOST, ...):
//
//	cfg, err := mailkit.LoadConfig()
//	postman := mail.NewPostman(cfg.SenderOptions(), env)
//
// Transport options may reference secrets instead of holding them:
// "env:NAME", "keyring:KEY" and "enc:..." values are resolved by the
// credential resolver just before connecting, so they never appear in logs
// or in the options written back to the postman.
package mailkit
