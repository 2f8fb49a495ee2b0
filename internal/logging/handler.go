package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	colorReset  = "\033[0m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// ColorHandler wraps a text handler and colours lines by level when the
// output is a terminal
type ColorHandler struct {
	slog.Handler
	out       io.Writer
	mu        *sync.Mutex
	isColored bool
}

// NewHandler creates a ColorHandler writing to out
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	isColored := false
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		isColored = true
	}

	return &ColorHandler{
		Handler:   slog.NewTextHandler(out, opts),
		out:       out,
		mu:        &sync.Mutex{},
		isColored: isColored,
	}
}

// Handle writes the record, wrapped in colour codes for non-INFO levels
func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	color := ""
	if h.isColored {
		switch {
		case r.Level >= slog.LevelError:
			color = colorRed
		case r.Level >= slog.LevelWarn:
			color = colorYellow
		case r.Level < slog.LevelInfo:
			color = colorBlue
		}
	}

	if color == "" {
		return h.Handler.Handle(ctx, r)
	}

	// the colour prefix, the line and the reset must not interleave with
	// other goroutines' records
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprint(h.out, color)
	err := h.Handler.Handle(ctx, r)
	fmt.Fprint(h.out, colorReset)
	return err
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorHandler{Handler: h.Handler.WithAttrs(attrs), out: h.out, mu: h.mu, isColored: h.isColored}
}

func (h *ColorHandler) WithGroup(name string) slog.Handler {
	return &ColorHandler{Handler: h.Handler.WithGroup(name), out: h.out, mu: h.mu, isColored: h.isColored}
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
