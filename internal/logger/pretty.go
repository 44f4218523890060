package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiYel   = "\033[33m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

// PrettyHandler writes one colored line per record:
//
//	15:04:05 INFO  message key=value group.key=value
type PrettyHandler struct {
	level  slog.Leveler
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	// attrs added through WithAttrs, already rendered with their group prefix.
	attrs []string
}

// NewPrettyHandler returns a PrettyHandler. A nil opts logs at info.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{level: slog.LevelInfo, mu: &sync.Mutex{}, w: w}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(ansiGray)
	b.WriteString(r.Time.Format(time.TimeOnly))
	b.WriteString(ansiReset)
	b.WriteByte(' ')

	b.WriteString(levelColor(r.Level))
	b.WriteString(ansiBold)
	fmt.Fprintf(&b, "%-5s", r.Level.String())
	b.WriteString(ansiReset)
	b.WriteByte(' ')
	b.WriteString(r.Message)

	first := true
	sep := func() {
		if first {
			b.WriteString(" " + ansiCyan)
			first = false
		} else {
			b.WriteByte(' ')
		}
	}
	for _, a := range h.attrs {
		sep()
		b.WriteString(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		sep()
		writeAttr(&b, h.prefix, a)
		return true
	})
	if !first {
		b.WriteString(ansiReset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]string(nil), h.attrs...)
	for _, a := range attrs {
		var b strings.Builder
		writeAttr(&b, h.prefix, a)
		nh.attrs = append(nh.attrs, b.String())
	}
	return &nh
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYel
	case level >= slog.LevelInfo:
		return ansiBlue
	default:
		return ansiGray
	}
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		for i, ga := range a.Value.Group() {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}

	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if strings.ContainsAny(s, " \t\n\"=") {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	case slog.KindTime:
		b.WriteString(a.Value.Time().Format(time.RFC3339))
	default:
		b.WriteString(a.Value.String())
	}
}
