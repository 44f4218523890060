package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fbparams/internal/floatjson"
	"github.com/samcharles93/fbparams/pkg/params"
)

type tensorRecord struct {
	Index  int                 `json:"index"`
	UID    string              `json:"uid"`
	Values []floatjson.Float32 `json:"values"`
}

func getCmd() *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Print one tensor, or one value of a tensor",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.IntFlag{Name: "tensor", Aliases: []string{"t"}, Usage: "tensor index", Value: -1},
			&cli.StringFlag{Name: "uid", Usage: "tensor uid (first match)"},
			&cli.IntFlag{Name: "value", Aliases: []string{"v"}, Usage: "value index (default: whole tensor)", Value: -1},
			&cli.BoolFlag{Name: "json", Usage: "print JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := openStore(ctx, c)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			idx := int(c.Int("tensor"))
			if uid := c.String("uid"); uid != "" {
				i, ok := s.Find(uid)
				if !ok {
					return cli.Exit(fmt.Sprintf("error: no tensor with uid %q", uid), 1)
				}
				idx = i
			}
			if idx < 0 {
				return cli.Exit("error: one of --tensor or --uid is required", 1)
			}

			w := c.Root().Writer
			if err := printTensor(w, s, idx, int(c.Int("value")), c.Bool("json")); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

// printTensor writes value j of tensor i, or the whole tensor when j < 0.
func printTensor(w io.Writer, s *params.Store, i, j int, asJSON bool) error {
	if j >= 0 {
		v, err := s.TensorValueAt(i, j)
		if err != nil {
			return err
		}
		if asJSON {
			return json.NewEncoder(w).Encode(floatjson.Float32(v))
		}
		_, err = fmt.Fprintln(w, strconv.FormatFloat(float64(v), 'g', -1, 32))
		return err
	}

	uid, err := s.TensorUID(i)
	if err != nil {
		return err
	}
	vals, err := s.Values(i)
	if err != nil {
		return err
	}
	if asJSON {
		return json.NewEncoder(w).Encode(tensorRecord{Index: i, UID: uid, Values: floatjson.Slice(vals)})
	}
	fmt.Fprintf(w, "%s (%d values)\n", uid, len(vals))
	for k, v := range vals {
		fmt.Fprintf(w, "%d\t%s\n", k, strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return nil
}
