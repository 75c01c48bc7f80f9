package main

import (
	"github.com/urfave/cli/v2"

	"github.com/dmitrymomot/mailkit"
	"github.com/dmitrymomot/mailkit/pkg/config"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/options"
)

// env is the state shared by all commands.
type env struct {
	cfg      mailkit.Config
	exchange *mailkit.Exchange
	file     map[string]any
	out      *printer
}

func setup(c *cli.Context) (*env, error) {
	var loadOpts []config.Option
	if files := c.StringSlice("env-file"); len(files) > 0 {
		loadOpts = append(loadOpts, config.WithEnvFiles(files...))
	}
	cfg, err := mailkit.LoadConfig(loadOpts...)
	if err != nil {
		return nil, err
	}

	out, err := newPrinter(c.App.Writer, c.String("output"))
	if err != nil {
		return nil, err
	}

	var file map[string]any
	if path := c.String("options"); path != "" {
		if file, err = options.LoadFile(path, ""); err != nil {
			return nil, err
		}
	}

	credentials, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger(logger.WithOutput(c.App.ErrWriter))
	logger.SetAsDefault(log)

	ex := mailkit.New(
		mailkit.WithLogger(log),
		mailkit.WithCredentials(credentials),
	)

	return &env{cfg: cfg, exchange: ex, file: file, out: out}, nil
}

// senderOptions merges the option file and then overrides over the
// environment configuration.
func (e *env) senderOptions(overrides map[string]any) map[string]any {
	return options.Merge(options.Merge(e.cfg.SenderOptions(), e.file), overrides)
}

func (e *env) receiverOptions(overrides map[string]any) map[string]any {
	return options.Merge(options.Merge(e.cfg.ReceiverOptions(), e.file), overrides)
}
