// Package receiver implements the receiving side of a mail exchange.
//
// # Architecture
//
// Worker, Handler and Registry mirror package sender: the handler resolves
// "strategy" (default "imap") and "transport" from the postman options and
// delegates to the selected Strategy.
//
// IMAPStrategy works on a Mailbox, an authenticated connection with a
// folder selected. DialIMAP provides it with go-imap v2; tests and callers
// with special needs plug in their own MailboxOpener. A receive runs:
//
//	resolve options ─► ParseCriteria ─► Search ─► limit ─► Fetch (peek)
//	    ─► mail.Parse + NewEnvelope per message ─► store attachments
//	    ─► MarkSeen (only when search.mark_as_seen, after all messages)
//
// Without transport.dsn the c-client mailbox spec
// "{host:port/imap/ssl}INBOX" is derived and written back to the postman
// options, together with transport.endpoint.
//
// # Usage
//
//	registry := receiver.NewRegistry()
//	registry.MustRegister("imap", receiver.NewIMAPStrategy())
//	worker := receiver.NewWorker(registry)
//
//	postman := mail.NewPostman(map[string]any{
//	    "transport": map[string]any{
//	        "username":        "me@gmail.com",
//	        "password":        "keyring:gmail",
//	        "attachments_dir": "s3://mail-archive/inbox",
//	        "search": map[string]any{
//	            "criteria":           `UNSEEN SINCE 1-Jan-2025 FROM "billing@example.com"`,
//	            "mark_as_seen":       true,
//	            "attachment_filters": map[string]any{"subtype": []string{"pdf"}},
//	        },
//	    },
//	})
//	envelopes, err := worker.Receive(ctx, postman)
//
// # Error Handling
//
// IMAPStrategy wraps every failure as "receiving emails: ..." and the
// handler joins it with ErrReceiveFailed. Criteria problems match
// ErrInvalidCriteria, option problems options.ErrInvalidOptions.
package receiver
