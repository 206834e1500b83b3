// Package hostlog wraps log/slog with a handler formatting records the
// way a host embedding this engine would want them: a timestamp, level,
// message, and attributes on one line, with an independent "debug"
// switch controlling whether sub-debug-level records also reach
// stderr regardless of the configured minimum level. Adapted from
// rcornwell/S370's util/logger package.
package hostlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler that writes one line per record to out and,
// when Debug is set (or the record's level exceeds slog.LevelDebug),
// also mirrors the line to stderr.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	attrs []slog.Attr
	mu    *sync.Mutex
	debug bool
}

// New builds a Handler writing to out at the level/source settings in
// opts (a nil opts uses slog's defaults).
func New(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out:   out,
		inner: slog.NewTextHandler(out, opts),
		mu:    &sync.Mutex{},
	}
}

// SetDebug toggles whether records at or below slog.LevelDebug are also
// mirrored to stderr; by default only records above LevelDebug are.
func (h *Handler) SetDebug(debug bool) { h.debug = debug }

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.debug || h.inner.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	all := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), attrs: all, mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), attrs: h.attrs, mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006-01-02T15:04:05.000"), r.Level.String() + ":", r.Message}
	for _, a := range h.attrs {
		parts = append(parts, a.Key+"="+a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := []byte(strings.Join(parts, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil && h.inner.Enabled(ctx, r.Level) {
		_, err = h.out.Write(line)
	}
	if h.debug || r.Level > slog.LevelDebug {
		_, werr := os.Stderr.Write(line)
		if err == nil {
			err = werr
		}
	}
	return err
}

// NewLogger is a convenience constructor returning an *slog.Logger
// backed by a Handler writing to out.
func NewLogger(out io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(New(out, opts))
}

var _ slog.Handler = &Handler{}
