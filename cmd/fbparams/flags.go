package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to config.yaml (default: user config dir)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, warn, error)",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log format (pretty, json, text)",
			Value: "pretty",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging (shorthand for --log-level=debug)",
		},
		&cli.StringFlag{
			Name:  "identifier",
			Usage: "require this 4-byte flatbuffer file identifier",
		},
		&cli.BoolFlag{
			Name:  "no-mmap",
			Usage: "read the file into memory instead of mapping it",
		},
	}
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "path to the parameter buffer",
		Required: true,
	}
}
