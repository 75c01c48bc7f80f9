package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/mailkit/pkg/mail"
)

type sendResult struct {
	Subject   string   `json:"subject" yaml:"subject"`
	To        []string `json:"to" yaml:"to"`
	MessageID string   `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "send a message",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Usage: "sender strategy (smtp, postmark, file)"},
			&cli.StringFlag{Name: "from", Usage: "sender address, defaults to MAIL_USERNAME"},
			&cli.StringSliceFlag{Name: "to", Usage: "recipient address, defaults to MAIL_RECIPIENT"},
			&cli.StringSliceFlag{Name: "cc"},
			&cli.StringSliceFlag{Name: "bcc"},
			&cli.StringFlag{Name: "subject", Required: true},
			&cli.StringFlag{Name: "text", Usage: "plain text body"},
			&cli.PathFlag{Name: "html", Usage: "file with the HTML body"},
			&cli.StringSliceFlag{Name: "attach", Usage: "file to attach"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			msg, err := buildMessage(c, e)
			if err != nil {
				return err
			}

			overrides := map[string]any{}
			if s := c.String("strategy"); s != "" {
				overrides["strategy"] = s
			}

			envelope := mail.NewEnvelope(msg.Originator(), msg.Recipients()...).AddMessage(msg)
			postman := mail.NewPostman(e.senderOptions(overrides), envelope)
			if _, err := e.exchange.Send(c.Context, postman); err != nil {
				return err
			}

			results := make([]sendResult, 0, len(postman.Messages()))
			for _, m := range postman.Messages() {
				r := sendResult{Subject: m.Subject, To: mail.Addresses(m.To), MessageID: m.MessageID}
				if m.HasError() {
					r.Error = m.Err().Error()
				}
				results = append(results, r)
			}
			if err := e.out.print(results); err != nil {
				return err
			}
			if failed := postman.Failed(); len(failed) > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d messages failed", len(failed), len(results)), 2)
			}
			return nil
		},
	}
}

func buildMessage(c *cli.Context, e *env) (*mail.Message, error) {
	from := c.String("from")
	if from == "" {
		from = e.cfg.Username
	}
	to := c.StringSlice("to")
	if len(to) == 0 && e.cfg.Recipient != "" {
		to = []string{e.cfg.Recipient}
	}
	if from == "" || len(to) == 0 {
		return nil, errors.New("--from and --to are required when MAIL_USERNAME or MAIL_RECIPIENT are not set")
	}

	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, err
	}
	msg := &mail.Message{
		From:    []mail.Address{sender},
		Subject: c.String("subject"),
		Text:    c.String("text"),
	}
	if msg.To, err = parseAddresses(to); err != nil {
		return nil, err
	}
	if msg.Cc, err = parseAddresses(c.StringSlice("cc")); err != nil {
		return nil, err
	}
	if msg.Bcc, err = parseAddresses(c.StringSlice("bcc")); err != nil {
		return nil, err
	}

	if path := c.Path("html"); path != "" {
		html, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		msg.HTML = string(html)
	}

	for _, path := range c.StringSlice("attach") {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		msg.Attach(content, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)))
	}

	return msg, nil
}

func parseAddresses(list []string) ([]mail.Address, error) {
	var out []mail.Address
	for _, s := range list {
		addrs, err := mail.ParseAddressList(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out = append(out, addrs...)
	}
	return out, nil
}
