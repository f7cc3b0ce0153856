// Package slogpretty provides a colored, human-readable slog handler for local
// development and the logger factory used by the binaries.
package slogpretty

import (
	"context"
	"encoding/json"
	"io"
	stdLog "log"
	"log/slog"
	"os"
	"slices"

	"github.com/fatih/color"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type PrettyHandlerOptions struct {
	SlogOpts *slog.HandlerOptions
}

type PrettyHandler struct {
	slog.Handler
	l      *stdLog.Logger
	attrs  []slog.Attr
	groups []string
}

func (opts PrettyHandlerOptions) NewPrettyHandler(out io.Writer) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(out, opts.SlogOpts),
		l:       stdLog.New(out, "", 0),
	}
}

// SetupLogger returns the logger for env. Unknown environments get the
// production JSON logger.
func SetupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog(os.Stdout)
	case envDev:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	return slog.New(opts.NewPrettyHandler(out))
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := make(map[string]any, r.NumAttrs()+len(h.attrs))

	for _, a := range h.attrs {
		merge(fields, a)
	}

	// Record attributes land in the innermost open group.
	target := fields
	for _, g := range h.groups {
		next, ok := target[g].(map[string]any)
		if !ok {
			next = make(map[string]any)
			target[g] = next
		}

		target = next
	}

	r.Attrs(func(a slog.Attr) bool {
		merge(target, a)
		return true
	})

	var b []byte

	if len(fields) > 0 {
		var err error

		b, err = json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
	}

	h.l.Println(
		r.Time.Format("[15:04:05.000]"),
		level,
		color.CyanString(r.Message),
		color.WhiteString(string(b)),
	)

	return nil
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	inner := h.Handler.WithAttrs(attrs)

	if len(h.groups) > 0 {
		nested := make([]any, 0, len(attrs))
		for _, a := range attrs {
			nested = append(nested, a)
		}

		attr := slog.Group(h.groups[len(h.groups)-1], nested...)
		for i := len(h.groups) - 2; i >= 0; i-- {
			attr = slog.Group(h.groups[i], attr)
		}

		attrs = []slog.Attr{attr}
	}

	return &PrettyHandler{
		Handler: inner,
		l:       h.l,
		attrs:   append(slices.Clip(h.attrs), attrs...),
		groups:  h.groups,
	}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &PrettyHandler{
		Handler: h.Handler.WithGroup(name),
		l:       h.l,
		attrs:   h.attrs,
		groups:  append(slices.Clip(h.groups), name),
	}
}

// merge writes a into dst, expanding groups into nested maps.
func merge(dst map[string]any, a slog.Attr) {
	v := a.Value.Resolve()

	if v.Kind() != slog.KindGroup {
		dst[a.Key] = v.Any()
		return
	}

	group := v.Group()
	if len(group) == 0 {
		return
	}

	// Inline groups with an empty key.
	target := dst
	if a.Key != "" {
		nested, ok := dst[a.Key].(map[string]any)
		if !ok {
			nested = make(map[string]any, len(group))
			dst[a.Key] = nested
		}

		target = nested
	}

	for _, ga := range group {
		merge(target, ga)
	}
}
