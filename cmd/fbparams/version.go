package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fbparams/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			info := version.Resolve()
			w := c.Root().Writer
			fmt.Fprintf(w, "version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Fprintf(w, "commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(w, "build time: %s\n", info.BuildTime)
			}
			if info.GoVersion != "" {
				fmt.Fprintf(w, "go:         %s\n", info.GoVersion)
			}
			return nil
		},
	}
}
