package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Stage identifies the pipeline phase a shader object is compiled for.
type Stage uint8

const (
	// StageNone marks artifacts that are not bound to a single stage, such as linked programs.
	StageNone Stage = iota
	// StageVertex is the vertex processing stage.
	StageVertex
	// StageTessControl is the tessellation control stage.
	StageTessControl
	// StageTessEvaluation is the tessellation evaluation stage.
	StageTessEvaluation
	// StageGeometry is the geometry stage.
	StageGeometry
	// StageFragment is the fragment stage.
	StageFragment
	// StageCompute is the compute stage.
	StageCompute
	// StageTask is the task (amplification) stage.
	StageTask
	// StageMesh is the mesh stage.
	StageMesh
)

var stageNames = [...]string{
	StageNone:           "none",
	StageVertex:         "vertex",
	StageTessControl:    "tess_control",
	StageTessEvaluation: "tess_evaluation",
	StageGeometry:       "geometry",
	StageFragment:       "fragment",
	StageCompute:        "compute",
	StageTask:           "task",
	StageMesh:           "mesh",
}

// String returns the canonical lower-case name of the stage.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// ParseStage converts a stage name to a Stage.
// It accepts canonical names and the common short forms ("vert", "frag", "comp", ...).
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vertex", "vert", "vs":
		return StageVertex, nil
	case "tess_control", "tesc", "hull":
		return StageTessControl, nil
	case "tess_evaluation", "tese", "domain":
		return StageTessEvaluation, nil
	case "geometry", "geom", "gs":
		return StageGeometry, nil
	case "fragment", "frag", "fs", "pixel":
		return StageFragment, nil
	case "compute", "comp", "cs":
		return StageCompute, nil
	case "task", "amplification":
		return StageTask, nil
	case "mesh":
		return StageMesh, nil
	default:
		return StageNone, zerr.With(NewError(ErrUnknownStage), "stage", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	if string(text) == "none" || len(text) == 0 {
		*s = StageNone
		return nil
	}
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ArtifactKind distinguishes compiled objects from linked programs.
type ArtifactKind uint8

const (
	// KindObject is a single compiled shader object.
	KindObject ArtifactKind = iota
	// KindProgram is a linked shader program.
	KindProgram
)

// String returns the name of the kind.
func (k ArtifactKind) String() string {
	if k == KindProgram {
		return "program"
	}
	return "object"
}

// DiscardReason says why a finished build was destroyed instead of cached.
type DiscardReason uint8

const (
	// DiscardDuplicate means an equal artifact was inserted while the build ran.
	DiscardDuplicate DiscardReason = iota
	// DiscardCancelled means the requesting context ended while the build ran.
	DiscardCancelled
	// DiscardReleased means the namespace was released while the build ran.
	DiscardReleased
)

// String returns the label of the reason.
func (r DiscardReason) String() string {
	switch r {
	case DiscardCancelled:
		return "cancelled"
	case DiscardReleased:
		return "released"
	default:
		return "duplicate"
	}
}

// FeedbackLayout selects how captured feedback varyings are laid out in buffers.
type FeedbackLayout uint8

const (
	// FeedbackInterleaved writes all varyings into a single buffer. It is the default.
	FeedbackInterleaved FeedbackLayout = iota
	// FeedbackSeparate writes each varying into its own buffer.
	FeedbackSeparate
)

// String returns the name of the layout.
func (l FeedbackLayout) String() string {
	if l == FeedbackSeparate {
		return "separate"
	}
	return "interleaved"
}

// ParseFeedbackLayout converts a layout name to a FeedbackLayout. The empty string selects the default.
func ParseFeedbackLayout(name string) (FeedbackLayout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "interleaved":
		return FeedbackInterleaved, nil
	case "separate":
		return FeedbackSeparate, nil
	default:
		return FeedbackInterleaved, zerr.With(NewError(ErrInvalidFeedbackLayout), "layout", name)
	}
}
