// Package config provides the configuration loader for shade.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// SupportedVersion is the configuration schema version understood by the loader.
const SupportedVersion = "1"

var validNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration at path and returns the project it describes.
// An empty path discovers shade.yaml from the working directory upwards; a
// directory is searched the same way.
func (l *Loader) Load(path string) (*domain.Project, error) {
	configPath, err := l.findConfiguration(path)
	if err != nil {
		return nil, err
	}

	var shadefile Shadefile
	if err := readAndUnmarshalYAML(configPath, &shadefile); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if shadefile.Version != "" && shadefile.Version != SupportedVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", domain.ShadeFileName, shadefile.Version, SupportedVersion))
	}

	return l.buildProject(filepath.Dir(configPath), &shadefile)
}

func (l *Loader) findConfiguration(path string) (string, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", zerr.Wrap(err, "failed to get working directory")
		}
		path = cwd
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve config path"), "path", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", zerr.With(domain.NewError(domain.ErrConfigNotFound), "path", abs)
	}
	if !info.IsDir() {
		return abs, nil
	}

	currentDir := abs
	for {
		candidate := filepath.Join(currentDir, domain.ShadeFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.NewError(domain.ErrConfigNotFound), "cwd", abs)
}

func (l *Loader) buildProject(root string, shadefile *Shadefile) (*domain.Project, error) {
	project := &domain.Project{
		Root:     root,
		Shaders:  make(map[string]map[domain.Stage]string),
		Programs: make(map[string]domain.ProgramSpec),
	}

	compiler, err := buildCompiler(shadefile.Compiler)
	if err != nil {
		return nil, err
	}
	project.Compiler = compiler

	if shadefile.Include.Root != "" {
		project.IncludeRoot = resolvePath(root, shadefile.Include.Root)
	}

	base, err := buildBaseContext(shadefile)
	if err != nil {
		return nil, err
	}
	project.Base = base

	for name, stages := range shadefile.Shaders {
		if err := validateName(name, "shader"); err != nil {
			return nil, err
		}
		if len(stages) == 0 {
			return nil, zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), "shader", name), "reason", "no stages")
		}
		parsed := make(map[domain.Stage]string, len(stages))
		for stageName, file := range stages {
			stage, err := domain.ParseStage(stageName)
			if err != nil {
				return nil, zerr.With(err, "shader", name)
			}
			if _, dup := parsed[stage]; dup {
				return nil, zerr.With(zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), "shader", name), "stage", stageName), "reason", "stage listed twice")
			}
			if file == "" {
				return nil, zerr.With(zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), "shader", name), "stage", stageName), "reason", "empty source path")
			}
			parsed[stage] = file
		}
		project.Shaders[name] = parsed
	}

	programs := shadefile.Programs
	if len(programs) == 0 {
		// Without explicit programs every shader is built under the base context.
		programs = make(map[string]ProgramDTO, len(project.Shaders))
		for name := range project.Shaders {
			programs[name] = ProgramDTO{}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(programs)) {
		spec, err := l.buildProgram(project, name, programs[name])
		if err != nil {
			return nil, zerr.With(err, "program", name)
		}
		project.Programs[name] = spec
	}

	return project, nil
}

func buildCompiler(dto CompilerDTO) (domain.CompilerSettings, error) {
	settings := domain.CompilerSettings{
		Driver:  domain.CompilerDriver(dto.Driver),
		Command: slices.Clone(dto.Command),
	}
	switch settings.Driver {
	case "":
		settings.Driver = domain.DriverNaga
	case domain.DriverNaga:
	case domain.DriverCommand:
		if len(settings.Command) == 0 {
			return settings, zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), "driver", dto.Driver), "reason", "command driver requires a command")
		}
		if !slices.ContainsFunc(settings.Command, func(arg string) bool { return strings.Contains(arg, "{input}") }) {
			return settings, zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), "driver", dto.Driver), "reason", "command has no {input} placeholder")
		}
	default:
		return settings, zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), "driver", dto.Driver), "reason", "unknown compiler driver")
	}
	return settings, nil
}

func buildBaseContext(shadefile *Shadefile) (*domain.CompilerContext, error) {
	version, err := domain.ParseVersion(shadefile.Language)
	if err != nil {
		return nil, err
	}
	cc := domain.NewCompilerContext(version)

	for _, d := range shadefile.Defines {
		if err := cc.Define(d, false); err != nil {
			return nil, err
		}
	}
	if err := applyExtensions(cc, shadefile.Extensions); err != nil {
		return nil, err
	}
	if err := cc.SetIncludePaths(shadefile.Include.Paths); err != nil {
		return nil, err
	}

	layout, err := domain.ParseFeedbackLayout(shadefile.Feedback)
	if err != nil {
		return nil, err
	}
	cc.SetFeedbackLayout(layout)

	return cc, nil
}

func (l *Loader) buildProgram(project *domain.Project, name string, dto ProgramDTO) (domain.ProgramSpec, error) {
	if name == "all" {
		return domain.ProgramSpec{}, zerr.With(domain.NewError(domain.ErrReservedProgramName), "program", name)
	}
	if err := validateName(name, "program"); err != nil {
		return domain.ProgramSpec{}, err
	}

	shader := dto.Shader
	if shader == "" {
		shader = name
	}
	if _, ok := project.Shaders[shader]; !ok && len(dto.Fragments) == 0 {
		return domain.ProgramSpec{}, zerr.With(zerr.With(domain.NewError(domain.ErrShaderNotFound), "shader", shader), "reason", "program has nothing to link")
	}

	cc := project.Base.Clone()

	if dto.Language != "" {
		version, err := domain.ParseVersion(dto.Language)
		if err != nil {
			return domain.ProgramSpec{}, err
		}
		cc.SetVersion(version)
	}

	for _, d := range dto.Undefines {
		if err := cc.Undefine(d); err != nil {
			return domain.ProgramSpec{}, err
		}
	}
	for _, d := range dto.Defines {
		if cc.IsDefined(d) {
			l.Logger.Warn(fmt.Sprintf("program %s overrides define %s", name, d))
		}
		if err := cc.Define(d, true); err != nil {
			return domain.ProgramSpec{}, err
		}
	}

	if dto.IncludePaths != nil {
		if err := cc.SetIncludePaths(dto.IncludePaths); err != nil {
			return domain.ProgramSpec{}, err
		}
	}
	if err := applyExtensions(cc, dto.Extensions); err != nil {
		return domain.ProgramSpec{}, err
	}

	for i, f := range dto.Fragments {
		stage, err := domain.ParseStage(f.Stage)
		if err != nil {
			return domain.ProgramSpec{}, zerr.With(err, "fragment", i)
		}
		if _, ok := project.SourcePath(f.Shader, stage); !ok {
			return domain.ProgramSpec{}, zerr.With(zerr.With(domain.NewError(domain.ErrShaderNotFound), "shader", f.Shader), "stage", f.Stage)
		}
		cc.AddExtraFragment(f.Shader, stage, f.Interface)
	}

	if dto.Feedback != "" {
		layout, err := domain.ParseFeedbackLayout(dto.Feedback)
		if err != nil {
			return domain.ProgramSpec{}, err
		}
		cc.SetFeedbackLayout(layout)
	}

	return domain.ProgramSpec{Name: name, Shader: shader, Context: cc}, nil
}

func applyExtensions(cc *domain.CompilerContext, extensions map[string]string) error {
	for _, ext := range slices.Sorted(maps.Keys(extensions)) {
		behavior, err := domain.ParseExtensionBehavior(extensions[ext])
		if err != nil {
			return zerr.With(err, "extension", ext)
		}
		if err := cc.AddExtension(ext, behavior); err != nil {
			return err
		}
	}
	return nil
}

func validateName(name, kind string) error {
	if !validNameRegex.MatchString(name) {
		return zerr.With(zerr.With(domain.NewError(domain.ErrConfigInvalid), kind, name), "reason", "name must match "+validNameRegex.String())
	}
	return nil
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return domain.WrapError(domain.ErrConfigReadFailed, err)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return domain.WrapError(domain.ErrConfigParseFailed, parseErr)
	}

	return nil
}
