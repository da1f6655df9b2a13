package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ExtensionBehavior is the behavior requested for a shading-language extension.
type ExtensionBehavior uint8

const (
	// BehaviorRequire fails compilation when the extension is unavailable.
	BehaviorRequire ExtensionBehavior = iota + 1
	// BehaviorEnable enables the extension, warning when it is unavailable.
	BehaviorEnable
	// BehaviorWarn enables the extension and warns on every use.
	BehaviorWarn
	// BehaviorDisable disables the extension.
	BehaviorDisable
)

// Extension is a named extension declaration.
type Extension struct {
	Name     string
	Behavior ExtensionBehavior
}

// ParseExtensionBehavior converts a behavior name to an ExtensionBehavior.
func ParseExtensionBehavior(name string) (ExtensionBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "require":
		return BehaviorRequire, nil
	case "enable":
		return BehaviorEnable, nil
	case "warn":
		return BehaviorWarn, nil
	case "disable":
		return BehaviorDisable, nil
	default:
		return 0, zerr.With(NewError(ErrInvalidBehavior), "behavior", name)
	}
}

// String returns the directive spelling of the behavior.
func (b ExtensionBehavior) String() string {
	switch b {
	case BehaviorRequire:
		return "require"
	case BehaviorEnable:
		return "enable"
	case BehaviorWarn:
		return "warn"
	case BehaviorDisable:
		return "disable"
	default:
		return "invalid"
	}
}

// Active reports whether the behavior turns the extension on.
func (b ExtensionBehavior) Active() bool {
	return b == BehaviorRequire || b == BehaviorEnable || b == BehaviorWarn
}

func (b ExtensionBehavior) valid() bool {
	return b >= BehaviorRequire && b <= BehaviorDisable
}
