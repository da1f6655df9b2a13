package domain

import "path/filepath"

const (
	// ShadeDirName is the name of the internal state directory.
	ShadeDirName = ".shade"

	// RecordsDirName is the name of the build record directory.
	RecordsDirName = "records"

	// ShadeFileName is the name of the project configuration file.
	ShadeFileName = "shade.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultShadePath returns the state directory relative to the project root.
func DefaultShadePath() string {
	return ShadeDirName
}

// DefaultStorePath returns the build record directory relative to the project root.
func DefaultStorePath() string {
	return filepath.Join(ShadeDirName, RecordsDirName)
}
