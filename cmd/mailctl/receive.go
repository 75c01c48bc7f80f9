package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/mailkit/pkg/mail"
)

type receivedMessage struct {
	UID         uint32            `json:"uid" yaml:"uid"`
	MessageID   string            `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Date        time.Time         `json:"date,omitzero" yaml:"date,omitempty"`
	From        []string          `json:"from" yaml:"from"`
	To          []string          `json:"to,omitempty" yaml:"to,omitempty"`
	Subject     string            `json:"subject" yaml:"subject"`
	Text        string            `json:"text,omitempty" yaml:"text,omitempty"`
	Attachments []mail.Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

func mailboxFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "mailbox", Aliases: []string{"m"}, Usage: "folder to open, defaults to MAIL_IMAP_MAILBOX"},
	}
}

func receiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "receive",
		Usage: "fetch messages matching a search",
		Flags: append(mailboxFlags(),
			&cli.StringFlag{Name: "criteria", Aliases: []string{"c"}, Value: "UNSEEN", Usage: "IMAP search criteria"},
			&cli.IntFlag{Name: "limit", Usage: "keep only the newest N matches"},
			&cli.BoolFlag{Name: "mark-seen", Usage: "flag fetched messages as seen"},
			&cli.PathFlag{Name: "attachments-dir", Usage: "directory or s3:// location for attachments"},
			&cli.BoolFlag{Name: "body", Usage: "include the plain text body"},
		),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			transport := map[string]any{
				"search": map[string]any{
					"criteria":     c.String("criteria"),
					"limit":        c.Int("limit"),
					"mark_as_seen": c.Bool("mark-seen"),
				},
			}
			if mb := c.String("mailbox"); mb != "" {
				transport["mailbox"] = mb
			}
			if dir := c.Path("attachments-dir"); dir != "" {
				transport["attachments_dir"] = dir
			}

			postman := mail.NewPostman(e.receiverOptions(map[string]any{"transport": transport}))
			if _, err := e.exchange.Receive(c.Context, postman); err != nil {
				return err
			}

			messages := make([]receivedMessage, 0, len(postman.Messages()))
			for _, m := range postman.Messages() {
				r := receivedMessage{
					UID:         m.ID,
					MessageID:   m.MessageID,
					Date:        m.Date,
					From:        mail.Addresses(m.From),
					To:          mail.Addresses(m.To),
					Subject:     m.Subject,
					Attachments: m.Attachments,
				}
				if c.Bool("body") {
					r.Text = m.Text
				}
				messages = append(messages, r)
			}
			return e.out.print(messages)
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show message counters of a mailbox",
		Flags: mailboxFlags(),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			transport := map[string]any{}
			if mb := c.String("mailbox"); mb != "" {
				transport["mailbox"] = mb
			}
			opts := e.receiverOptions(map[string]any{"transport": transport})

			box, err := e.exchange.OpenMailbox(c.Context, opts)
			if err != nil {
				return err
			}
			defer box.Close()

			folder := c.String("mailbox")
			if folder == "" {
				folder = e.cfg.Mailbox
			}
			if folder == "" {
				folder = "INBOX"
			}
			status, err := box.Status(c.Context, folder)
			if err != nil {
				return err
			}
			return e.out.print(status)
		},
	}
}
