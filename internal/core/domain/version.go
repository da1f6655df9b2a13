package domain

import (
	"cmp"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Version is a shading-language version such as "450 core" or "300 es".
// The zero value means "unspecified" and emits no version directive.
type Version struct {
	Number  int
	Profile string
}

// ParseVersion parses a version token of the form "<number> [profile]".
func ParseVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Version{}, nil
	}
	if len(fields) > 2 {
		return Version{}, zerr.With(NewError(ErrInvalidVersion), "version", s)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return Version{}, zerr.With(NewError(ErrInvalidVersion), "version", s)
	}

	v := Version{Number: n}
	if len(fields) == 2 {
		v.Profile = strings.ToLower(fields[1])
	}
	return v, nil
}

// IsZero reports whether the version is unspecified.
func (v Version) IsZero() bool {
	return v.Number == 0 && v.Profile == ""
}

// Compare orders versions by number, then by profile name.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Number, other.Number); c != 0 {
		return c
	}
	return cmp.Compare(v.Profile, other.Profile)
}

// String renders the version as it appears in a version directive.
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	if v.Profile == "" {
		return strconv.Itoa(v.Number)
	}
	return strconv.Itoa(v.Number) + " " + v.Profile
}
