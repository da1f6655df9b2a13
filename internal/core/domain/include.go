package domain

import (
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"go.trai.ch/zerr"
)

// IncludeEntry is a source fragment registered under a canonical absolute path.
type IncludeEntry struct {
	Path  string
	Lines []string
}

// Dir returns the virtual directory containing the entry.
func (e IncludeEntry) Dir() string {
	return path.Dir(e.Path)
}

// IncludeLibrary is a virtual file tree of includable source fragments.
// It is populated at load time and becomes read-only once sealed; a sealed
// library is safe for concurrent readers without locking.
type IncludeLibrary struct {
	mu      sync.RWMutex
	sealed  atomic.Bool
	entries map[string]IncludeEntry
}

// NewIncludeLibrary creates an empty, unsealed library.
func NewIncludeLibrary() *IncludeLibrary {
	return &IncludeLibrary{
		entries: make(map[string]IncludeEntry),
	}
}

// Register stores lines under path. The path must be rooted, must not end with a
// separator and must not contain control or quoting characters. Registering an
// existing path replaces its lines.
func (l *IncludeLibrary) Register(p string, lines []string) error {
	if err := ValidateIncludePath(p); err != nil {
		return err
	}
	canonical, _ := NormalizePath(p)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sealed.Load() {
		return zerr.With(NewError(ErrLibrarySealed), "path", p)
	}
	l.entries[canonical] = IncludeEntry{
		Path:  canonical,
		Lines: slices.Clone(lines),
	}
	return nil
}

// IsDefined reports whether a canonical path is registered.
func (l *IncludeLibrary) IsDefined(p string) bool {
	_, ok := l.Lookup(p)
	return ok
}

// Get returns the entry registered under a canonical path.
func (l *IncludeLibrary) Get(p string) (IncludeEntry, error) {
	entry, ok := l.Lookup(p)
	if !ok {
		return IncludeEntry{}, zerr.With(NewError(ErrPathNotFound), "path", p)
	}
	return entry, nil
}

// Seal makes the library read-only. Sealing is idempotent.
func (l *IncludeLibrary) Seal() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sealed.Store(true)
}

// Sealed reports whether the library has been sealed.
func (l *IncludeLibrary) Sealed() bool {
	return l.sealed.Load()
}

// Paths returns every registered path in lexical order.
func (l *IncludeLibrary) Paths() []string {
	if !l.sealed.Load() {
		l.mu.RLock()
		defer l.mu.RUnlock()
	}
	return slices.Sorted(maps.Keys(l.entries))
}

// Len returns the number of registered entries.
func (l *IncludeLibrary) Len() int {
	if !l.sealed.Load() {
		l.mu.RLock()
		defer l.mu.RUnlock()
	}
	return len(l.entries)
}

// Lookup returns the entry registered under a canonical path and whether it exists.
func (l *IncludeLibrary) Lookup(p string) (IncludeEntry, bool) {
	if !l.sealed.Load() {
		l.mu.RLock()
		defer l.mu.RUnlock()
	}
	entry, ok := l.entries[p]
	return entry, ok
}

// ValidateIncludePath checks that p is usable as an include library key.
func ValidateIncludePath(p string) error {
	switch {
	case !strings.HasPrefix(p, "/"):
		return zerr.With(zerr.With(NewError(ErrInvalidPath), "path", p), "reason", "not rooted")
	case strings.HasSuffix(p, "/"):
		return zerr.With(zerr.With(NewError(ErrInvalidPath), "path", p), "reason", "trailing separator")
	}
	for _, r := range p {
		if r == '"' || r == '<' || r == '>' || unicode.IsControl(r) {
			return zerr.With(zerr.With(NewError(ErrInvalidPath), "path", p), "reason", "forbidden character")
		}
	}
	return nil
}

// NormalizePath collapses "." segments and pops one segment per ".." segment of a
// rooted path. Popping past the root is a no-op; clamped reports whether that happened.
func NormalizePath(p string) (normalized string, clamped bool) {
	segments := make([]string, 0, strings.Count(p, "/"))
	for seg := range strings.SplitSeq(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				clamped = true
				continue
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	return "/" + strings.Join(segments, "/"), clamped
}
