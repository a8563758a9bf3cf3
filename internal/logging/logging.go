// Package logging builds the slog.Logger used for backup runs. Records are
// written one per line as
//
//	<timestamp> - <LEVEL> - <message>\trun=<id>\t<key=value ...>
//
// to an append-only log file and, optionally, the console.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// TimeLayout is the timestamp format of every log line.
const TimeLayout = "2006-01-02 15:04:05,000"

// Options configures New.
type Options struct {
	// File is appended to; parent directories are created. Empty disables the file sink.
	File string
	// Console receives the same lines as the file. Nil disables it (TUI mode).
	Console io.Writer
	// Verbose enables debug records.
	Verbose bool
	// RunID tags every record; a random UUID is used when empty.
	RunID string
}

// Handler is a slog.Handler producing the histsync line format.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewHandler returns a handler writing to w at or above level.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = fmt.Appendf(buf, "%s - %s - %s", r.Time.Format(TimeLayout), r.Level.String(), r.Message)

	for _, a := range h.attrs {
		buf = appendAttr(buf, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, h.prefix, a)
		return true
	})

	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		prefixed = append(prefixed, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}

	return &Handler{
		mu:     h.mu,
		w:      h.w,
		level:  h.level,
		attrs:  append(append([]slog.Attr{}, h.attrs...), prefixed...),
		prefix: h.prefix,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &Handler{
		mu:     h.mu,
		w:      h.w,
		level:  h.level,
		attrs:  h.attrs,
		prefix: h.prefix + name + ".",
	}
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, prefix+a.Key+".", ga)
		}
		return buf
	}

	return fmt.Appendf(buf, "\t%s%s=%v", prefix, a.Key, a.Value.Any())
}

// New opens the configured sinks and returns a logger tagged with the run
// ID. The returned Closer closes the log file; it is never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating log directory: %w", err)
			}
		}

		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}

		writers = append(writers, f)
		closer = f
	}

	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	handler := NewHandler(io.MultiWriter(writers...), level)

	return slog.New(handler).With(slog.String("run", runID)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
