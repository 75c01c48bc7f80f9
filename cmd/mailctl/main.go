// Command mailctl sends and receives mail through mailkit from the command
// line. Connection settings come from MAIL_* environment variables and an
// optional option file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mailctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mailctl",
		Usage: "send and receive email over SMTP, Postmark and IMAP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "options",
				Aliases: []string{"o"},
				Usage:   "option file (yaml, json or toml) merged over the environment configuration",
				EnvVars: []string{"MAIL_OPTIONS_FILE"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: ".env files to load before reading the environment",
			},
			&cli.StringFlag{
				Name:  "output",
				Value: formatYAML,
				Usage: "output format: yaml or json",
			},
		},
		Commands: []*cli.Command{
			sendCommand(),
			receiveCommand(),
			statusCommand(),
			encryptCommand(),
			keygenCommand(),
		},
	}
}
