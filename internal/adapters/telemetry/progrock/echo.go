package progrock

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// echo prints vertex output linearly with a name prefix, for non-interactive terminals.
type echo struct {
	mu     sync.Mutex
	w      io.Writer
	output *termenv.Output
	now    func() time.Time
}

func newEcho(w io.Writer) *echo {
	return &echo{
		w:      w,
		output: termenv.NewOutput(w, termenv.WithProfile(colorProfile())),
		now:    time.Now,
	}
}

// colorProfile returns the color profile based on environment.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

func (e *echo) lines(name string) io.Writer {
	return &lineWriter{echo: e, name: name}
}

func (e *echo) printLine(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prefix := e.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(e.w, "%s %s\n", prefix, line)
}

func (e *echo) complete(name string, started time.Time, cached bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prefix := e.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	duration := e.now().Sub(started).Round(time.Millisecond)

	switch {
	case err != nil:
		symbol := e.output.String("✗").Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(e.w, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	case cached:
		symbol := e.output.String("✓").Foreground(termenv.ANSIBlue).String()
		_, _ = fmt.Fprintf(e.w, "%s %s Cached\n", prefix, symbol)
	default:
		symbol := e.output.String("✓").Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(e.w, "%s %s Completed in %v\n", prefix, symbol, duration)
	}
}

// lineWriter splits writes into lines; a trailing partial line is printed as is.
type lineWriter struct {
	echo *echo
	name string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	for line := range bytes.Lines(p) {
		w.echo.printLine(w.name, line)
	}
	return len(p), nil
}
