// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"io"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/shade/internal/core/ports"
)

// Recorder implements the ports.Telemetry interface using the vito/progrock library.
type Recorder struct {
	w    progrock.Writer
	rec  *progrock.Recorder
	echo *echo
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithOutput echoes vertex output and completion lines to w.
func WithOutput(w io.Writer) Option {
	return func(r *Recorder) {
		if w != nil {
			r.echo = newEcho(w)
		}
	}
}

// New creates a new Recorder with a default tape.
func New(opts ...Option) *Recorder {
	return NewRecorder(progrock.NewTape(), opts...)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer, opts ...Option) *Recorder {
	r := &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record starts recording a new vertex. Internal vertices are kept on the tape but not echoed.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	var cfg ports.VertexConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	d := digest.FromString(name)
	vertex := &Vertex{
		vertex: r.rec.Vertex(d, name),
		name:   name,
	}
	if r.echo != nil && !cfg.Internal {
		vertex.echo = r.echo
		vertex.started = r.echo.now()
	}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
