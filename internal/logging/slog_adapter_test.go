// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newBufferedSlog(t *testing.T, level zerolog.Level) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prevLevel) })

	var buf bytes.Buffer
	return slog.New(NewSlogHandlerWithLogger(zerolog.New(&buf).Level(level))), &buf
}

func TestSlogHandler_Enabled(t *testing.T) {
	tests := []struct {
		name   string
		zlevel zerolog.Level
		level  slog.Level
		want   bool
	}{
		{"debug logger enables debug", zerolog.DebugLevel, slog.LevelDebug, true},
		{"info logger disables debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger enables warn", zerolog.InfoLevel, slog.LevelWarn, true},
		{"error logger disables warn", zerolog.ErrorLevel, slog.LevelWarn, false},
		{"error logger enables error", zerolog.ErrorLevel, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newBufferedSlog(t, tt.zlevel)
			if got := logger.Handler().Enabled(t.Context(), tt.level); got != tt.want {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestSlogHandler_Levels(t *testing.T) {
	logger, buf := newBufferedSlog(t, zerolog.DebugLevel)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	out := buf.String()
	for _, want := range []string{`"level":"debug"`, `"level":"info"`, `"level":"warn"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestSlogHandler_AttributeKinds(t *testing.T) {
	logger, buf := newBufferedSlog(t, zerolog.InfoLevel)

	logger.Info("restart",
		slog.String("service", "report-runner"),
		slog.Int("attempt", 3),
		slog.Uint64("queue", 7),
		slog.Float64("rate", 2.5),
		slog.Bool("backoff", true),
		slog.Duration("wait", 1500*time.Millisecond),
		slog.Any("err", errors.New("tenant store unavailable")),
	)

	out := buf.String()
	for _, want := range []string{
		`"service":"report-runner"`,
		`"attempt":3`,
		`"queue":7`,
		`"rate":2.5`,
		`"backoff":true`,
		`"err":"tenant store unavailable"`,
		`"message":"restart"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestSlogHandler_GroupsAndAttrs(t *testing.T) {
	logger, buf := newBufferedSlog(t, zerolog.InfoLevel)

	logger.With("tree", "root").
		WithGroup("supervisor").
		WithGroup("child").
		Info("terminated", slog.String("name", "http"), slog.Group("why", slog.Int("code", 1)))

	out := buf.String()
	for _, want := range []string{
		`"tree":"root"`,
		`"supervisor.child.name":"http"`,
		`"supervisor.child.why.code":1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestSlogHandler_WithGroupEmpty(t *testing.T) {
	h := NewSlogHandlerWithLogger(zerolog.Nop())
	if h.WithGroup("") != h {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestNewSlogLoggerForComponent(t *testing.T) {
	buf := captureGlobal(t)

	NewSlogLoggerForComponent("supervisor").Warn("service failed")

	out := buf.String()
	if !strings.Contains(out, `"component":"supervisor"`) || !strings.Contains(out, "service failed") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
