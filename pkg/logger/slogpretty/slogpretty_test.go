package slogpretty

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/YusovID/editorial-workflow/pkg/logger/sl"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer

	log := setupPrettySlog(&buf)

	log.With(slog.String("op", "internal.sweep.RunSweep")).
		WithGroup("sweep").
		With(slog.Int("fanout", 8)).
		Debug("pass finished", slog.String("pass", "reminder"), sl.Err(errors.New("boom")))

	out := buf.String()

	assert.Contains(t, out, "DEBUG:")
	assert.Contains(t, out, "pass finished")
	assert.Contains(t, out, `"op": "internal.sweep.RunSweep"`)
	assert.Contains(t, out, `"sweep": {`)
	assert.Contains(t, out, `"fanout": 8`)
	assert.Contains(t, out, `"pass": "reminder"`)
	assert.Contains(t, out, `"error": "boom"`)
}

func TestPrettyHandler_NoAttrs(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer

	setupPrettySlog(&buf).Info("service started")

	assert.Contains(t, buf.String(), "INFO: service started")
	assert.NotContains(t, buf.String(), "{")
}

func TestSetupLogger(t *testing.T) {
	assert.IsType(t, &PrettyHandler{}, SetupLogger(envLocal).Handler())
	assert.IsType(t, &slog.JSONHandler{}, SetupLogger(envProd).Handler())
	assert.True(t, SetupLogger(envDev).Handler().Enabled(t.Context(), slog.LevelDebug))
	assert.False(t, SetupLogger(envProd).Handler().Enabled(t.Context(), slog.LevelDebug))
}
