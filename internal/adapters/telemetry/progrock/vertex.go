package progrock

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vito/progrock"
	"go.trai.ch/shade/internal/core/domain"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex  *progrock.VertexRecorder
	name    string
	echo    *echo
	started time.Time
	cached  atomic.Bool
}

// Stdout returns a writer to capture standard output stream.
func (v *Vertex) Stdout() io.Writer {
	if v.echo == nil {
		return v.vertex.Stdout()
	}
	return io.MultiWriter(v.vertex.Stdout(), v.echo.lines(v.name))
}

// Stderr returns a writer to capture error output stream.
func (v *Vertex) Stderr() io.Writer {
	if v.echo == nil {
		return v.vertex.Stderr()
	}
	return io.MultiWriter(v.vertex.Stderr(), v.echo.lines(v.name))
}

// Log records a structured log message associated with this vertex.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	_, _ = fmt.Fprintf(v.Stdout(), "[%s] %s\n", level.String(), msg)
}

// Complete marks the vertex as finished (successfully or with an error).
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
	if v.echo != nil {
		v.echo.complete(v.name, v.started, v.cached.Load(), err)
	}
}

// Cached marks the vertex as a cache hit.
func (v *Vertex) Cached() {
	v.cached.Store(true)
	v.vertex.Cached()
}
