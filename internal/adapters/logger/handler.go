package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/termenv"
)

const (
	iconWarning = "!"
	iconCross   = "✗"
)

// scopeKeys name the attributes that locate a record in the project. The pretty
// handler renders them as a "[program / shader:stage]" header instead of key=value pairs.
var scopeKeys = []string{"program", "shader", "stage"}

// ColorProfile returns the color profile for log output.
// It returns Ascii when NO_COLOR is set and detects the terminal otherwise.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// PrettyHandler is a slog.Handler for terminals. Records carrying a program, shader
// or stage are prefixed with that scope; every other attribute follows the message.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   termenv.NewOutput(w, termenv.WithProfile(ColorProfile()), termenv.WithTTY(true)),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := slices.Clone(h.attrs)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = appendAttr(attrs, h.prefix, attr)
		return true
	})

	scope, rest := splitScope(attrs)

	var b strings.Builder
	color := termenv.Color(termenv.ANSIBrightBlack)
	switch {
	case r.Level >= slog.LevelError:
		b.WriteString(iconCross + " ")
		color = termenv.ANSIRed
	case r.Level >= slog.LevelWarn:
		b.WriteString(iconWarning + " ")
		color = termenv.ANSIYellow
	}
	if scope != "" {
		b.WriteString("[" + scope + "] ")
	}

	first, more, multiline := strings.Cut(r.Message, "\n")
	b.WriteString(first)
	for _, attr := range rest {
		b.WriteString(" " + attr.Key + "=" + formatValue(attr.Value))
	}
	if multiline {
		b.WriteString("\n" + more)
	}

	styled := h.out.String(b.String()).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := slices.Clip(slices.Clone(h.attrs))
	for _, attr := range attrs {
		next = appendAttr(next, h.prefix, attr)
	}
	return &PrettyHandler{out: h.out, level: h.level, attrs: next, prefix: h.prefix}
}

// WithGroup returns a new Handler that qualifies later attributes with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{out: h.out, level: h.level, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// appendAttr resolves attr and appends it, flattening groups into dotted keys.
func appendAttr(attrs []slog.Attr, prefix string, attr slog.Attr) []slog.Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return attrs
	}
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			attrs = appendAttr(attrs, prefix, member)
		}
		return attrs
	}
	attr.Key = prefix + attr.Key
	return append(attrs, attr)
}

// splitScope removes the scope attributes and renders them as "program / shader:stage".
func splitScope(attrs []slog.Attr) (string, []slog.Attr) {
	values := make(map[string]string, len(scopeKeys))
	rest := attrs[:0:0]
	for _, attr := range attrs {
		if slices.Contains(scopeKeys, attr.Key) {
			values[attr.Key] = formatValue(attr.Value)
			continue
		}
		rest = append(rest, attr)
	}

	var parts []string
	if p := values["program"]; p != "" {
		parts = append(parts, p)
	}
	switch shader, stage := values["shader"], values["stage"]; {
	case shader != "" && stage != "":
		parts = append(parts, shader+":"+stage)
	case shader != "":
		parts = append(parts, shader)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " / "), rest
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindAny:
		if list, ok := v.Any().([]string); ok {
			return strings.Join(list, ",")
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}
