package fs

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.IncludeLoader = (*Loader)(nil)

// Loader builds include libraries from directory trees.
type Loader struct {
	walker *Walker
}

// NewLoader creates a new Loader.
func NewLoader(walker *Walker) *Loader {
	return &Loader{walker: walker}
}

// Load registers every file under root at "/" followed by its slash-separated
// path relative to root, and seals the library. An empty root yields an empty library.
func (l *Loader) Load(root string) (*domain.IncludeLibrary, error) {
	lib := domain.NewIncludeLibrary()
	if root == "" {
		lib.Seal()
		return lib, nil
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat include root"), "path", root)
	}
	if !info.IsDir() {
		return nil, zerr.With(domain.NewError(domain.ErrIncludeRootInvalid), "path", root)
	}

	for path := range l.walker.WalkFiles(root, nil) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to relativize include"), "path", path)
		}

		lines, err := ReadLines(path)
		if err != nil {
			return nil, err
		}

		if err := lib.Register("/"+filepath.ToSlash(rel), lines); err != nil {
			return nil, zerr.With(err, "file", path)
		}
	}

	lib.Seal()
	return lib, nil
}

// ReadLines reads a text file into lines without their terminators.
// A trailing newline does not produce an empty final line.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	return SplitLines(string(data)), nil
}

// SplitLines splits text on "\n", dropping "\r" line terminators.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
