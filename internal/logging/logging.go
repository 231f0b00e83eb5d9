// SPDX-License-Identifier: EPL-2.0

// Package logging builds the slog loggers shared by every component.
// Components receive a module-scoped child so each record carries a
// "module" attribute.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const ModuleKey = "module"

// Format selects the handler encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger writing to w in the given format.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Module returns a child of l tagged with the module name. A nil parent
// yields a discarding logger.
func Module(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l.With(slog.String(ModuleKey, name))
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
