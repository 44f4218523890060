package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fbparams/internal/logger"
	"github.com/samcharles93/fbparams/pkg/params"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "fbparams",
		Usage:  "Inspect and serve flatbuffer model parameter files",
		Flags:  globalFlags(),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			getCmd(),
			dumpCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

type configKey struct{}

// setup loads the config file and installs the logger for every command.
func setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	path := c.String("config")
	if path == "" {
		path = configPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil && c.IsSet("config") {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	level := c.String("log-level")
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		level = cfg.LogLevel
	}
	if c.Bool("debug") {
		level = "debug"
	}
	format := c.String("log-format")
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		format = cfg.LogFormat
	}

	log := logger.Setup(c.Root().ErrWriter, level, format)
	if err != nil {
		log.Warn("ignoring unreadable config", "path", path, "error", err)
	}
	ctx = logger.WithContext(ctx, log)
	return context.WithValue(ctx, configKey{}, cfg), nil
}

func configFromContext(ctx context.Context) Config {
	cfg, _ := ctx.Value(configKey{}).(Config)
	return cfg
}

// openStore opens the file named by --file with options from flags and config.
func openStore(ctx context.Context, c *cli.Command) (*params.Store, error) {
	cfg := configFromContext(ctx)
	path := c.String("file")
	if path == "" {
		return nil, cli.Exit("error: --file is required", 1)
	}

	opts := params.Options{
		Identifier: c.String("identifier"),
		NoMmap:     c.Bool("no-mmap"),
	}
	if opts.Identifier == "" {
		opts.Identifier = cfg.FileIdentifier
	}
	if !c.IsSet("no-mmap") && cfg.NoMmap != nil {
		opts.NoMmap = *cfg.NoMmap
	}

	log := logger.FromContext(ctx)
	s, err := params.Open(path, opts)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error: load %s: %v", path, err), 1)
	}
	n, _ := s.TensorsCount()
	log.Debug("loaded parameter buffer", "path", path, "bytes", s.Size(), "tensors", n, "mapped", s.Mapped())
	return s, nil
}
