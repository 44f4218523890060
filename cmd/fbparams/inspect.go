package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fbparams/pkg/params"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Show buffer metadata and list its tensors",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.IntFlag{Name: "limit", Usage: "limit tensor listing (0 = no limit)", Value: 50},
			&cli.StringFlag{Name: "filter", Usage: "substring filter on tensor uid"},
			&cli.IntFlag{Name: "preview", Usage: "number of leading values to show per tensor", Value: 4},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := openStore(ctx, c)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			w := c.Root().Writer
			if err := printSummary(w, c.String("file"), s); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := printTensorTable(w, s, c.String("filter"), int(c.Int("limit")), int(c.Int("preview"))); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, path string, s *params.Store) error {
	n, err := s.TensorsCount()
	if err != nil {
		return err
	}
	total := 0
	for i := 0; i < n; i++ {
		c, err := s.TensorValuesCount(i)
		if err != nil {
			return err
		}
		total += c
	}

	fmt.Fprintf(w, "File:       %s (%s)\n", path, formatBytes(uint64(s.Size())))
	fmt.Fprintf(w, "Mapped:     %v\n", s.Mapped())
	if id := s.FileIdentifier(); id != "" && isPrintable(id) {
		fmt.Fprintf(w, "Identifier: %s\n", id)
	}
	fmt.Fprintf(w, "Tensors:    %d\n", n)
	fmt.Fprintf(w, "Values:     %d (%s as float32)\n", total, formatBytes(uint64(total)*4))
	return nil
}

func printTensorTable(w io.Writer, s *params.Store, filter string, limit, preview int) error {
	n, err := s.TensorsCount()
	if err != nil {
		return err
	}

	var rows [][]string
	for i := 0; i < n; i++ {
		if limit > 0 && len(rows) >= limit {
			break
		}
		uid, err := s.TensorUID(i)
		if err != nil {
			return err
		}
		if filter != "" && !strings.Contains(uid, filter) {
			continue
		}
		count, err := s.TensorValuesCount(i)
		if err != nil {
			return err
		}
		head := make([]string, 0, min(preview, count))
		for j := 0; j < count && j < preview; j++ {
			v, err := s.TensorValueAt(i, j)
			if err != nil {
				return err
			}
			head = append(head, strconv.FormatFloat(float64(v), 'g', 6, 32))
		}
		if count > preview {
			head = append(head, "...")
		}
		rows = append(rows, []string{strconv.Itoa(i), uid, strconv.Itoa(count), strings.Join(head, " ")})
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"INDEX", "UID", "VALUES", "HEAD"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()
	return nil
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
