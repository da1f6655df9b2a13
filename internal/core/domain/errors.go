package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrDuplicateSymbol is returned when a define's leading symbol is already present in a context.
	ErrDuplicateSymbol = zerr.New("symbol already defined")

	// ErrNotDefined is returned when undefining a symbol that is not present in a context.
	ErrNotDefined = zerr.New("symbol not defined")

	// ErrInvalidSymbol is returned when a define carries no symbol token.
	ErrInvalidSymbol = zerr.New("invalid symbol")

	// ErrInvalidExtension is returned when an extension name is empty or contains whitespace.
	ErrInvalidExtension = zerr.New("invalid extension name")

	// ErrInvalidPath is returned when an include path or search path is malformed.
	ErrInvalidPath = zerr.New("invalid include path")

	// ErrPathNotFound is returned when a canonical path is not registered in the include library.
	ErrPathNotFound = zerr.New("path not found in include library")

	// ErrLibrarySealed is returned when registering into an include library that has been sealed.
	ErrLibrarySealed = zerr.New("include library is sealed")

	// ErrMalformedDirective is returned when an include directive does not carry exactly one path operand.
	ErrMalformedDirective = zerr.New("malformed include directive")

	// ErrIncludeNotFound is returned when no lookup rule resolves an include directive.
	ErrIncludeNotFound = zerr.New("include not found")

	// ErrCircularInclude is returned when an include reappears on its own expansion stack.
	ErrCircularInclude = zerr.New("circular include detected")

	// ErrCompileFailed is returned when the compiler rejects a shader source.
	ErrCompileFailed = zerr.New("shader compilation failed")

	// ErrLinkFailed is returned when compiled objects cannot be linked into a program.
	ErrLinkFailed = zerr.New("program link failed")

	// ErrAlreadyCached is returned when adopting an artifact whose key is already cached.
	ErrAlreadyCached = zerr.New("artifact already cached")

	// ErrNotReady is returned when adopting an artifact whose handle is not compiled or linked.
	ErrNotReady = zerr.New("artifact not ready")

	// ErrNoHandle is returned when a build function succeeds without producing a handle.
	ErrNoHandle = zerr.New("build returned no handle")

	// ErrNamespaceReleased is returned when a build completes after its namespace was released.
	ErrNamespaceReleased = zerr.New("namespace released")

	// ErrUnknownStage is returned when a stage name cannot be parsed.
	ErrUnknownStage = zerr.New("unknown shader stage")

	// ErrInvalidVersion is returned when a language version string cannot be parsed.
	ErrInvalidVersion = zerr.New("invalid language version")

	// ErrInvalidBehavior is returned when an extension behavior is not recognized.
	ErrInvalidBehavior = zerr.New("invalid extension behavior")

	// ErrInvalidFeedbackLayout is returned when a feedback layout name is not recognized.
	ErrInvalidFeedbackLayout = zerr.New("invalid feedback layout")

	// ErrShaderNotFound is returned when no source is registered for an identifier and stage.
	ErrShaderNotFound = zerr.New("shader source not found")

	// ErrInputNotFound is returned when a fingerprinted path does not exist.
	ErrInputNotFound = zerr.New("input not found")

	// ErrIncludeRootInvalid is returned when the include root is not a directory.
	ErrIncludeRootInvalid = zerr.New("include root is not a directory")

	// ErrProgramNotFound is returned when a requested program is not configured.
	ErrProgramNotFound = zerr.New("program not found")

	// ErrNoStages is returned when a program has no stages to link.
	ErrNoStages = zerr.New("program has no stages")

	// ErrConfigNotFound is returned when the configuration file cannot be located.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrConfigInvalid is returned when the configuration file fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the configuration file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrReservedProgramName is returned when a program uses a reserved name.
	ErrReservedProgramName = zerr.New("program name is reserved")

	// ErrBuildFailed is returned when one or more program builds fail.
	ErrBuildFailed = zerr.New("build failed")

	// ErrStoreReadFailed is returned when a build record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build record")

	// ErrStoreWriteFailed is returned when a build record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build record")

	// ErrStoreCreateFailed is returned when the record directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create record directory")

	// ErrStoreMarshalFailed is returned when a build record cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build record")

	// ErrStoreUnmarshalFailed is returned when a build record cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build record")
)

// NewError returns a fresh error for sentinel. Metadata attached to it with
// zerr.With accumulates on the result while errors.Is still matches sentinel.
func NewError(sentinel error) error {
	return zerr.Wrap(sentinel, "")
}

// WrapError reports cause under sentinel. The result matches both with
// errors.Is and keeps cause, with its metadata, as the next link of the chain.
func WrapError(sentinel, cause error) error {
	if cause == nil {
		return NewError(sentinel)
	}
	z, ok := zerr.Wrap(cause, sentinel.Error()).(*zerr.Error)
	if !ok {
		return fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &sentinelError{err: z, sentinel: sentinel}
}

// sentinelError is a zerr error that also identifies as its sentinel.
type sentinelError struct {
	err      *zerr.Error
	sentinel error
}

func (e *sentinelError) Error() string { return e.err.Error() }

// Message returns the sentinel's message without the cause.
func (e *sentinelError) Message() string { return e.err.Message() }

// Metadata returns the metadata attached to the wrapping error.
func (e *sentinelError) Metadata() map[string]any { return e.err.Metadata() }

func (e *sentinelError) Unwrap() error { return e.err.Unwrap() }

// Is reports whether target is the sentinel the error was raised under.
func (e *sentinelError) Is(target error) bool {
	return target == e.sentinel
}
