package ports

import (
	"context"
	"io"
)

// Invocation describes an external process to run.
type Invocation struct {
	// Args holds the program name followed by its arguments.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env holds overrides merged over the process environment.
	Env map[string]string
	// Stdout and Stderr receive the process output in addition to the logger.
	Stdout io.Writer
	Stderr io.Writer
}

// Executor defines the interface for running external commands.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the invocation and returns an error if it cannot start or exits non-zero.
	Execute(ctx context.Context, inv Invocation) error
}
