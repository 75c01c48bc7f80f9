package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/mailkit/pkg/secrets"
)

func encryptCommand() *cli.Command {
	return &cli.Command{
		Name:      "encrypt",
		Usage:     "encrypt a password into an enc: reference (needs MAIL_SECRET_KEY)",
		ArgsUsage: "<secret>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "account",
				Usage: "account the reference is bound to: the mailbox username or \"postmark\", defaults to MAIL_USERNAME",
			},
		},
		Action: func(c *cli.Context) error {
			secret := c.Args().First()
			if secret == "" {
				return errors.New("secret argument is required")
			}

			e, err := setup(c)
			if err != nil {
				return err
			}
			credentials, err := e.cfg.Credentials()
			if err != nil {
				return err
			}
			account := c.String("account")
			if account == "" {
				account = e.cfg.Username
			}
			if account == "" {
				return errors.New("--account is required when MAIL_USERNAME is not set")
			}
			ref, err := credentials.Encrypt(secret, account)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, ref)
			return err
		},
	}
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "generate a key for MAIL_SECRET_KEY",
		Action: func(c *cli.Context) error {
			key, err := secrets.GenerateKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, secrets.EncodeKey(key))
			return err
		},
	}
}
