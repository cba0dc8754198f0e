// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the process-wide structured logger.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger is the logger handle handed out to packages.
type Logger = *slog.Logger

var root atomic.Pointer[slog.Logger]

func init() {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// Init replaces the root logger output and verbosity. Verbosity maps
// 0=error, 1=warn, 2=info, 3+=debug. Loggers handed out before Init pick up
// the new configuration.
func Init(w io.Writer, verbosity int) {
	root.Store(slog.New(slog.NewTextHandler(w, handlerOptions(verbosity))))
}

// InitJSON is like Init but emits one JSON object per record, for logs
// consumed by a collector rather than a terminal.
func InitJSON(w io.Writer, verbosity int) {
	root.Store(slog.New(slog.NewJSONHandler(w, handlerOptions(verbosity))))
}

func handlerOptions(verbosity int) *slog.HandlerOptions {
	lvl := new(slog.LevelVar)
	switch {
	case verbosity <= 0:
		lvl.Set(slog.LevelError)
	case verbosity == 1:
		lvl.Set(slog.LevelWarn)
	case verbosity == 2:
		lvl.Set(slog.LevelInfo)
	default:
		lvl.Set(slog.LevelDebug)
	}
	return &slog.HandlerOptions{Level: lvl}
}

// Root returns a logger that follows the current root configuration.
func Root() Logger {
	return slog.New(dynHandler{})
}

// WithContext returns a logger carrying the given key-value context,
// e.g. log.WithContext("pkg", "pool").
func WithContext(kvs ...any) Logger {
	return Root().With(kvs...)
}

// dynHandler forwards to whatever the root handler currently is, so that
// loggers created at package init honor a later Init call.
type dynHandler struct {
	attrs []slog.Attr
	group string
}

func (h dynHandler) target() slog.Handler {
	t := root.Load().Handler()
	if h.group != "" {
		t = t.WithGroup(h.group)
	}
	if len(h.attrs) > 0 {
		t = t.WithAttrs(h.attrs)
	}
	return t
}

func (h dynHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.target().Enabled(ctx, lvl)
}

func (h dynHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.target().Handle(ctx, r)
}

func (h dynHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return dynHandler{attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...), group: h.group}
}

func (h dynHandler) WithGroup(name string) slog.Handler {
	// single-level grouping is enough for this codebase
	return dynHandler{attrs: h.attrs, group: name}
}
