package domain

import "strings"

// ArtifactState represents the lifecycle state of a cached artifact.
type ArtifactState string

const (
	// ArtifactBuilding indicates the artifact is being compiled or linked.
	ArtifactBuilding ArtifactState = "building"
	// ArtifactReady indicates the artifact is cached and usable.
	ArtifactReady ArtifactState = "ready"
	// ArtifactReleased indicates the artifact has been torn down.
	ArtifactReleased ArtifactState = "released"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// IsTerminal reports whether no further transitions are possible from the state.
func (s ArtifactState) IsTerminal() bool {
	return s == ArtifactReleased
}

// NormalizeArtifactState converts a string to an ArtifactState, defaulting to building if unknown.
func NormalizeArtifactState(s string) ArtifactState {
	switch strings.ToLower(s) {
	case string(ArtifactReady):
		return ArtifactReady
	case string(ArtifactReleased):
		return ArtifactReleased
	default:
		return ArtifactBuilding
	}
}
