package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compiler = (*Compiler)(nil)

// stageExtensions are the file extensions external compilers use to infer the stage.
var stageExtensions = map[domain.Stage]string{
	domain.StageVertex:         "vert",
	domain.StageTessControl:    "tesc",
	domain.StageTessEvaluation: "tese",
	domain.StageGeometry:       "geom",
	domain.StageFragment:       "frag",
	domain.StageCompute:        "comp",
	domain.StageTask:           "task",
	domain.StageMesh:           "mesh",
}

// Compiler compiles shaders by running an external command such as glslc.
//
// The command arguments may contain the placeholders {input}, {output} and {stage}.
// The input file holds the context preamble followed by the expanded source.
type Compiler struct {
	executor ports.Executor
	command  []string
}

// NewCompiler creates a Compiler running command through executor.
func NewCompiler(executor ports.Executor, command []string) *Compiler {
	return &Compiler{
		executor: executor,
		command:  command,
	}
}

// Compile writes the request to a temporary file, runs the command and reads back its output.
func (c *Compiler) Compile(ctx context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
	ext, ok := stageExtensions[req.Stage]
	if !ok {
		return nil, compileError(zerr.With(domain.NewError(domain.ErrUnknownStage), "stage", req.Stage.String()), req, "")
	}

	dir, err := os.MkdirTemp("", "shade-compile-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create compile directory")
	}
	defer os.RemoveAll(dir) //nolint:errcheck // Best effort cleanup

	input := filepath.Join(dir, "shader."+ext)
	output := filepath.Join(dir, "shader.spv")

	if err := os.WriteFile(input, []byte(Source(req)), domain.FilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to write compiler input"), "path", input)
	}

	args := make([]string, len(c.command))
	replacer := strings.NewReplacer("{input}", input, "{output}", output, "{stage}", ext)
	for i, a := range c.command {
		args[i] = replacer.Replace(a)
	}

	var stderr bytes.Buffer
	if err := c.executor.Execute(ctx, ports.Invocation{Args: args, Dir: dir, Stderr: &stderr}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, compileError(err, req, stderr.String())
	}

	code, err := os.ReadFile(output) //nolint:gosec // Path is inside our temporary directory
	if err != nil || len(code) == 0 {
		return nil, compileError(zerr.New("compiler produced no output"), req, stderr.String())
	}

	return domain.NewShaderModule(req.Identifier, req.Stage, code, []domain.EntryPoint{
		{Name: "main", Stage: req.Stage},
	}), nil
}

// Source renders the text handed to an external compiler: the context preamble
// followed by the expanded source.
func Source(req ports.CompileRequest) string {
	var b strings.Builder
	if req.Context != nil {
		for _, line := range req.Context.Preamble() {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	for _, line := range req.Source {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func compileError(cause error, req ports.CompileRequest, output string) error {
	err := domain.WrapError(domain.ErrCompileFailed, cause)
	err = zerr.With(err, "shader", req.Identifier)
	err = zerr.With(err, "stage", req.Stage.String())
	if output = strings.TrimSpace(output); output != "" {
		err = zerr.With(err, "output", output)
	}
	return err
}
