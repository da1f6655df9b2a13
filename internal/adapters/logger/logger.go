// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/shade/internal/core/ports"
)

// messager describes an error that can report its own message without the chain,
// such as a zerr.Error.
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one link of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
}

// New creates a new Logger writing pretty output to stderr.
func New() *Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput creates a new Logger writing pretty output to w.
func NewWithOutput(w io.Writer) *Logger {
	l := &Logger{output: w}
	l.rebuild()
	return l
}

var _ ports.Logger = (*Logger)(nil)

// SetOutput updates the logger's output destination, preserving the JSON mode.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.rebuild()
}

// rebuild replaces the slog handler. The caller holds l.mu or owns l exclusively.
func (l *Logger) rebuild() {
	w := l.output
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if l.jsonMode {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewPrettyHandler(w, opts)
	}
	l.logger = slog.New(handler)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error with its cause chain. Joined errors are logged one by one.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			l.Error(e)
		}
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		args := []any{"error", err.Error()}
		if m, ok := err.(metadataer); ok {
			for _, k := range slices.Sorted(maps.Keys(m.Metadata())) {
				args = append(args, k, m.Metadata()[k])
			}
		}
		l.logger.Error("operation failed", args...)
		return
	}

	entries := collectErrorEntries(err)
	scope := hoistScope(entries)
	l.logger.Error(formatErrorEntries(entries), scope...)
}

// hoistScope moves the scope metadata out of the chain so the handler can render it
// once as a header. The outermost value of each key wins.
func hoistScope(entries []ErrorEntry) []any {
	var attrs []any
	for _, key := range scopeKeys {
		found := false
		for i := range entries {
			v, ok := entries[i].Metadata[key]
			if !ok {
				continue
			}
			if !found {
				attrs = append(attrs, key, v)
				found = true
			}
			delete(entries[i].Metadata, key)
		}
	}
	return attrs
}

// collectErrorEntries walks the error chain. zerr errors contribute their own message
// and metadata; the first standard error contributes its full text and ends the walk.
// Metadata attached without a message is merged into the next entry.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: pending})
			break
		}

		var metadata map[string]any
		if md, ok := current.(metadataer); ok {
			metadata = md.Metadata()
		}
		if m.Message() == "" {
			if len(metadata) > 0 {
				if pending == nil {
					pending = make(map[string]any)
				}
				maps.Copy(pending, metadata)
			}
		} else {
			if len(pending) > 0 {
				if metadata == nil {
					metadata = make(map[string]any, len(pending))
				}
				maps.Copy(metadata, pending)
				pending = nil
			}
			entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: metadata})
		}
		current = errors.Unwrap(current)
	}
	return entries
}

// inline renders the include cycle and the source location of an entry after its
// message, and returns the metadata keys it consumed.
func inline(metadata map[string]any) (string, []string) {
	var b strings.Builder
	var used []string
	if cycle, ok := metadata["cycle"]; ok {
		_, _ = fmt.Fprintf(&b, ": %v", cycle)
		used = append(used, "cycle")
	}
	if file, ok := metadata["file"]; ok {
		if line, ok := metadata["line"]; ok {
			_, _ = fmt.Fprintf(&b, " (%v:%v)", file, line)
			used = append(used, "line")
		} else {
			_, _ = fmt.Fprintf(&b, " (%v)", file)
		}
		used = append(used, "file")
	}
	return b.String(), used
}

func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")
		suffix, used := inline(entry.Metadata)
		msgLines[0] += suffix
		metaKeys := slices.DeleteFunc(slices.Sorted(maps.Keys(entry.Metadata)), func(k string) bool {
			return slices.Contains(used, k)
		})

		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			for _, k := range metaKeys {
				lines = append(lines, fmt.Sprintf("       %s: %v", k, entry.Metadata[k]))
			}
			continue
		}

		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
		for _, k := range metaKeys {
			lines = append(lines, fmt.Sprintf("      %s: %v", k, entry.Metadata[k]))
		}
	}

	return strings.Join(lines, "\n")
}
