package config

// Shadefile represents the structure of the shade.yaml configuration file.
type Shadefile struct {
	Version    string                       `yaml:"version"`
	Language   string                       `yaml:"language"`
	Compiler   CompilerDTO                  `yaml:"compiler"`
	Include    IncludeDTO                   `yaml:"include"`
	Defines    []string                     `yaml:"defines"`
	Extensions map[string]string            `yaml:"extensions"`
	Feedback   string                       `yaml:"feedback"`
	Shaders    map[string]map[string]string `yaml:"shaders"`
	Programs   map[string]ProgramDTO        `yaml:"programs"`
}

// CompilerDTO selects and configures the compiler backend.
type CompilerDTO struct {
	Driver  string   `yaml:"driver"`
	Command []string `yaml:"command"`
}

// IncludeDTO configures the include library and the default search paths.
type IncludeDTO struct {
	Root  string   `yaml:"root"`
	Paths []string `yaml:"paths"`
}

// ProgramDTO represents a program definition in the configuration.
// Unset fields inherit the top-level settings.
type ProgramDTO struct {
	Shader       string            `yaml:"shader"`
	Language     string            `yaml:"language"`
	Defines      []string          `yaml:"defines"`
	Undefines    []string          `yaml:"undefines"`
	IncludePaths []string          `yaml:"include_paths"`
	Extensions   map[string]string `yaml:"extensions"`
	Fragments    []FragmentDTO     `yaml:"fragments"`
	Feedback     string            `yaml:"feedback"`
}

// FragmentDTO references a shader stage linked into a program after its own stages.
type FragmentDTO struct {
	Shader    string `yaml:"shader"`
	Stage     string `yaml:"stage"`
	Interface string `yaml:"interface"`
}
