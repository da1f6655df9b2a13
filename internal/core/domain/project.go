package domain

import (
	"maps"
	"slices"
)

// CompilerDriver selects the compiler backend used for a project.
type CompilerDriver string

const (
	// DriverNaga compiles WGSL sources in-process.
	DriverNaga CompilerDriver = "naga"
	// DriverCommand compiles sources by invoking an external command.
	DriverCommand CompilerDriver = "command"
)

// CompilerSettings configures the compiler backend.
type CompilerSettings struct {
	Driver CompilerDriver
	// Command is the external compiler invocation with {input}, {output} and {stage} placeholders.
	Command []string
}

// ProgramSpec describes one program to build and the context it is built under.
type ProgramSpec struct {
	Name string
	// Shader is the identifier whose stages are linked. It defaults to Name.
	Shader  string
	Context *CompilerContext
}

// Project is the loaded shade.yaml configuration.
type Project struct {
	// Root is the absolute directory containing the configuration file.
	Root string
	// IncludeRoot is the directory loaded into the include library at "/".
	IncludeRoot string
	Compiler    CompilerSettings
	// Base is the default context every program starts from.
	Base *CompilerContext
	// Shaders maps an identifier to the source file of each of its stages.
	Shaders  map[string]map[Stage]string
	Programs map[string]ProgramSpec
}

// ProgramNames returns the configured program names in lexical order.
func (p *Project) ProgramNames() []string {
	return slices.Sorted(maps.Keys(p.Programs))
}

// StagesOf returns the stages registered for an identifier in pipeline order.
func (p *Project) StagesOf(identifier string) []Stage {
	return slices.Sorted(maps.Keys(p.Shaders[identifier]))
}

// SourcePath returns the source file for an identifier and stage.
func (p *Project) SourcePath(identifier string, stage Stage) (string, bool) {
	stages, ok := p.Shaders[identifier]
	if !ok {
		return "", false
	}
	path, ok := stages[stage]
	return path, ok
}
