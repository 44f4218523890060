package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fbparams/internal/httpapi"
	"github.com/samcharles93/fbparams/internal/logger"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve read-only tensor queries over HTTP",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{Name: "addr", Usage: "listen address", Value: "127.0.0.1:8090"},
			&cli.DurationFlag{Name: "read-timeout", Usage: "read header timeout", Value: 30 * time.Second},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)

			addr := c.String("addr")
			if cfg := configFromContext(ctx); cfg.ServerAddress != "" && !c.IsSet("addr") {
				addr = cfg.ServerAddress
			}

			s, err := openStore(ctx, c)
			if err != nil {
				return err
			}
			// Shutdown has returned before this runs, so no handler is
			// still reading the buffer.
			defer func() { _ = s.Close() }()

			e := echo.New()
			e.Use(middleware.Recover())
			httpapi.NewServer(s, log).Register(e)

			readTimeout := c.Duration("read-timeout")
			log.Info("starting server", "address", addr, "file", c.String("file"))
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
