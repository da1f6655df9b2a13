package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shade/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		msg        string
		goldenName string
	}{
		{"info level", slog.LevelInfo, "information message", "handler_info"},
		{"warn level", slog.LevelWarn, "warning message", "handler_warn"},
		{"error level", slog.LevelError, "error message", "handler_error"},
		{"debug level filtered", slog.LevelDebug, "debug message", "handler_debug_filtered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
			lg.Log(t.Context(), tt.level, tt.msg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestPrettyHandler_AttrsAndGroup(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	var h slog.Handler = logger.NewPrettyHandler(buf, nil)
	h = h.WithAttrs([]slog.Attr{slog.String("program", "sprite")})
	h = h.WithGroup("cache")

	slog.New(h).Info("built", "hits", 2)

	assert.Equal(t, "[sprite] built cache.hits=2\n", buf.String())
}

func TestPrettyHandler_Rendering(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []any
		want string
	}{
		{"shader and stage", "compiled", []any{"shader", "sprite", "stage", "vertex"}, "[sprite:vertex] compiled\n"},
		{"program", "linked", []any{"program", "sprite", "objects", 2}, "[sprite] linked objects=2\n"},
		{"full scope", "linked", []any{"stage", "fragment", "shader", "sprite", "program", "sprite"}, "[sprite / sprite:fragment] linked\n"},
		{"stage only", "expanded", []any{"stage", "vertex"}, "[vertex] expanded\n"},
		{"quoted string", "read", []any{"path", "my shaders/a.glsl"}, "read path=\"my shaders/a.glsl\"\n"},
		{"string list", "entries", []any{slog.Any("names", []string{"vs_main", "fs_main"})}, "entries names=vs_main,fs_main\n"},
		{"duration", "built", []any{slog.Duration("elapsed", 1234567*time.Microsecond)}, "built elapsed=1.235s\n"},
		{"group", "stats", []any{slog.Group("cache", slog.Int("hits", 2), slog.Int("misses", 1))}, "stats cache.hits=2 cache.misses=1\n"},
		{"multiline", "first\nsecond", []any{"n", 1}, "first n=1\nsecond\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			slog.New(logger.NewPrettyHandler(buf, nil)).Info(tt.msg, tt.args...)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogger_PrettyScope(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	cycle := zerr.With(zerr.With(zerr.With(zerr.New("circular include detected"),
		"cycle", "/lib/a.glsl -> /lib/b.glsl -> /lib/a.glsl"), "file", "/lib/b.glsl"), "line", 2)
	compile := zerr.With(zerr.With(zerr.Wrap(cycle, "shader compilation failed"), "shader", "sprite"), "stage", "vertex")
	err := zerr.With(zerr.Wrap(compile, "build failed"), "program", "sprite")

	buf := &bytes.Buffer{}
	logger.NewWithOutput(buf).Error(err)

	g := goldie.New(t)
	g.Assert(t, "logger_error_scope", buf.Bytes())
}

func TestLogger_Pretty(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	l := logger.NewWithOutput(buf)

	l.Info("loading shade.yaml")
	l.Warn("include path clamped at root")
	l.Error(zerr.With(zerr.New("include not found"), "include", "light.glsl"))
	l.Error(nil)

	assert.Equal(t, "loading shade.yaml\n"+
		"! include path clamped at root\n"+
		"✗ Error: include not found\n       include: light.glsl\n", buf.String())
}

func TestLogger_JoinedErrors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	l := logger.NewWithOutput(buf)
	l.Error(errors.Join(zerr.New("first"), zerr.New("second")))

	assert.Equal(t, "✗ Error: first\n✗ Error: second\n", buf.String())
}

func TestLogger_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logger.NewWithOutput(buf)
	l.SetJSON(true)

	l.Error(zerr.With(zerr.New("compile failed"), "shader", "sprite"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "compile failed", record["error"])
	assert.Equal(t, "sprite", record["shader"])
}

func TestLogger_SetOutputKeepsMode(t *testing.T) {
	l := logger.NewWithOutput(&bytes.Buffer{})
	l.SetJSON(true)

	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.Info("hello")

	assert.True(t, strings.HasPrefix(buf.String(), "{"), "JSON mode survives SetOutput")
}
