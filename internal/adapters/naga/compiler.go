// Package naga compiles WGSL shaders to SPIR-V in process.
package naga

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compiler = (*Compiler)(nil)

var stages = map[ir.ShaderStage]domain.Stage{
	ir.StageVertex:   domain.StageVertex,
	ir.StageTask:     domain.StageTask,
	ir.StageMesh:     domain.StageMesh,
	ir.StageFragment: domain.StageFragment,
	ir.StageCompute:  domain.StageCompute,
}

// Options configures the WGSL compiler.
type Options struct {
	// Validate runs IR validation before code generation.
	Validate bool
	// Debug emits debug names into the SPIR-V output.
	Debug bool
}

// Compiler compiles expanded WGSL sources with gogpu/naga.
type Compiler struct {
	opts Options
}

// NewCompiler creates a Compiler with the given options.
func NewCompiler(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Compile parses, lowers and translates the request to SPIR-V.
//
// The module must declare an entry point for the requested stage. The entry
// points of every stage it declares are recorded on the returned module.
func (c *Compiler) Compile(ctx context.Context, req ports.CompileRequest) (*domain.ShaderModule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := Source(req)

	ast, err := naga.Parse(source)
	if err != nil {
		return nil, compileError(err, req)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, compileError(err, req)
	}

	if c.opts.Validate {
		issues, err := naga.Validate(module)
		if err != nil {
			return nil, compileError(err, req)
		}
		if len(issues) > 0 {
			return nil, compileError(issues[0], req)
		}
	}

	entryPoints := make([]domain.EntryPoint, 0, len(module.EntryPoints))
	found := false
	for _, ep := range module.EntryPoints {
		st, ok := stages[ep.Stage]
		if !ok {
			continue
		}
		entryPoints = append(entryPoints, domain.EntryPoint{Name: ep.Name, Stage: st})
		found = found || st == req.Stage
	}
	if !found {
		return nil, compileError(zerr.New(fmt.Sprintf("no %s entry point", req.Stage)), req)
	}

	code, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: spirv.Version1_3,
		Debug:   c.opts.Debug,
	})
	if err != nil {
		return nil, compileError(err, req)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.NewShaderModule(req.Identifier, req.Stage, code, entryPoints), nil
}

// Preamble renders the context as WGSL declarations.
//
// Active extensions become enable directives and defines become module-scope
// constants; a define without a value is declared as true. WGSL has no version
// directive so the context version is not rendered.
func Preamble(cc *domain.CompilerContext) []string {
	if cc == nil {
		return nil
	}

	var lines []string
	for _, ext := range cc.Extensions() {
		if ext.Behavior.Active() {
			lines = append(lines, "enable "+ext.Name+";")
		}
	}
	for _, d := range cc.Defines() {
		name, value, ok := strings.Cut(d, " ")
		if !ok {
			value = "true"
		}
		lines = append(lines, "const "+name+" = "+strings.TrimSpace(value)+";")
	}
	return lines
}

// Source joins the preamble and the expanded source into one WGSL text.
func Source(req ports.CompileRequest) string {
	lines := append(Preamble(req.Context), req.Source...)
	return strings.Join(lines, "\n") + "\n"
}

func compileError(cause error, req ports.CompileRequest) error {
	err := domain.WrapError(domain.ErrCompileFailed, cause)
	err = zerr.With(err, "shader", req.Identifier)
	return zerr.With(err, "stage", req.Stage.String())
}
