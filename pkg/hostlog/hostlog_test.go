package hostlog_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rvsandbox/rvvm/pkg/hostlog"
)

func TestHandleWritesOneLineWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := hostlog.NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger.Info("trace built", slog.Uint64("pc", 0x1000), slog.Int("length", 4))

	out := buf.String()
	assert.Contains(t, out, "INFO:")
	assert.Contains(t, out, "trace built")
	assert.Contains(t, out, "pc=4096")
	assert.Contains(t, out, "length=4")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestHandleRespectsConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := hostlog.NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger.Info("should be filtered")
	assert.Empty(t, buf.String())
}

func TestWithAttrsKeepsAttrsInLine(t *testing.T) {
	var buf bytes.Buffer
	h := hostlog.New(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	h.SetDebug(true)
	child := h.WithAttrs([]slog.Attr{slog.String("component", "trace")})
	logger := slog.New(child)
	logger.Debug("cache hit")
	assert.Contains(t, buf.String(), "component=trace")
}
