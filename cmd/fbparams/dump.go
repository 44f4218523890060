package main

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fbparams/internal/floatjson"
	"github.com/samcharles93/fbparams/internal/logger"
	"github.com/samcharles93/fbparams/pkg/params"
)

func dumpCmd() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Export every tensor as JSON",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output path (default: stdout)"},
			&cli.BoolFlag{Name: "map", Usage: "emit a uid -> values object; later duplicate uids win"},
			&cli.BoolFlag{Name: "indent", Usage: "indent JSON output"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := openStore(ctx, c)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			w := c.Root().Writer
			if out := c.String("out"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: create %s: %v", out, err), 1)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if err := writeDump(w, s, c.Bool("map"), c.Bool("indent")); err != nil {
				return cli.Exit(fmt.Sprintf("error: dump: %v", err), 1)
			}
			logger.FromContext(ctx).Info("dump complete", "file", c.String("file"))
			return nil
		},
	}
}

func writeDump(w io.Writer, s *params.Store, asMap, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}

	if asMap {
		all, err := s.Tensors()
		if err != nil {
			return err
		}
		out := make(map[string][]floatjson.Float32, len(all))
		for uid, vals := range all {
			out[uid] = floatjson.Slice(vals)
		}
		return enc.Encode(out)
	}

	n, err := s.TensorsCount()
	if err != nil {
		return err
	}
	records := make([]tensorRecord, 0, n)
	for i := 0; i < n; i++ {
		uid, err := s.TensorUID(i)
		if err != nil {
			return err
		}
		vals, err := s.Values(i)
		if err != nil {
			return err
		}
		records = append(records, tensorRecord{Index: i, UID: uid, Values: floatjson.Slice(vals)})
	}
	return enc.Encode(records)
}
