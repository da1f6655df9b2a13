package domain

import (
	"encoding/binary"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// Fragment references another compiled unit that is linked alongside a program.
type Fragment struct {
	Identifier string
	Stage      Stage
	// Interface optionally names the interface block the fragment is bound through.
	Interface string
}

// CompilerContext aggregates every input other than raw source text that can change
// the outcome of compiling or linking a shader identifier.
//
// Defines and extensions are compared as sets; include paths and extra fragments are
// compared in order. Equal contexts always produce the same CacheKey.
type CompilerContext struct {
	version        Version
	defines        map[string]string
	includePaths   []string
	extraFragments []Fragment
	extensions     map[string]ExtensionBehavior
	feedbackLayout FeedbackLayout
}

// NewCompilerContext creates an empty context for the given language version.
func NewCompilerContext(version Version) *CompilerContext {
	return &CompilerContext{
		version:    version,
		defines:    make(map[string]string),
		extensions: make(map[string]ExtensionBehavior),
	}
}

// Version returns the language version.
func (c *CompilerContext) Version() Version {
	return c.version
}

// SetVersion replaces the language version.
func (c *CompilerContext) SetVersion(v Version) {
	c.version = v
}

// Define adds a preprocessor definition of the form "SYMBOL" or "SYMBOL value".
// Uniqueness is keyed on the symbol; redefining it fails unless overwrite is set.
func (c *CompilerContext) Define(symbol string, overwrite bool) error {
	name, value := splitDefine(symbol)
	if name == "" {
		return zerr.With(NewError(ErrInvalidSymbol), "symbol", symbol)
	}
	if _, exists := c.defines[name]; exists && !overwrite {
		return zerr.With(NewError(ErrDuplicateSymbol), "symbol", name)
	}
	c.defines[name] = value
	return nil
}

// Undefine removes the definition keyed by the symbol's leading token.
func (c *CompilerContext) Undefine(symbol string) error {
	name, _ := splitDefine(symbol)
	if _, exists := c.defines[name]; !exists {
		return zerr.With(NewError(ErrNotDefined), "symbol", name)
	}
	delete(c.defines, name)
	return nil
}

// IsDefined reports whether the symbol's leading token is defined.
func (c *CompilerContext) IsDefined(symbol string) bool {
	name, _ := splitDefine(symbol)
	_, exists := c.defines[name]
	return exists
}

// Defines returns the definitions as "SYMBOL" or "SYMBOL value" strings, sorted by symbol.
func (c *CompilerContext) Defines() []string {
	out := make([]string, 0, len(c.defines))
	for _, name := range slices.Sorted(maps.Keys(c.defines)) {
		out = append(out, joinDefine(name, c.defines[name]))
	}
	return out
}

// DefineValue returns the value of a definition and whether it exists.
func (c *CompilerContext) DefineValue(symbol string) (string, bool) {
	name, _ := splitDefine(symbol)
	v, ok := c.defines[name]
	return v, ok
}

// SetIncludePaths replaces the ordered list of include search paths.
func (c *CompilerContext) SetIncludePaths(paths []string) error {
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return zerr.With(NewError(ErrInvalidPath), "index", i)
		}
	}
	c.includePaths = slices.Clone(paths)
	return nil
}

// IncludePaths returns a copy of the ordered include search paths.
func (c *CompilerContext) IncludePaths() []string {
	return slices.Clone(c.includePaths)
}

// AddExtraFragment appends a fragment that must be linked alongside this unit.
func (c *CompilerContext) AddExtraFragment(identifier string, stage Stage, iface string) {
	c.extraFragments = append(c.extraFragments, Fragment{
		Identifier: identifier,
		Stage:      stage,
		Interface:  iface,
	})
}

// ExtraFragments returns a copy of the ordered extra fragments.
func (c *CompilerContext) ExtraFragments() []Fragment {
	return slices.Clone(c.extraFragments)
}

// AddExtension declares an extension requirement. A later declaration for the
// same extension replaces the earlier behavior.
func (c *CompilerContext) AddExtension(name string, behavior ExtensionBehavior) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return zerr.With(NewError(ErrInvalidExtension), "extension", name)
	}
	if !behavior.valid() {
		return zerr.With(NewError(ErrInvalidBehavior), "extension", name)
	}
	c.extensions[name] = behavior
	return nil
}

// RemoveExtension drops an extension declaration. Removing an absent extension is a no-op.
func (c *CompilerContext) RemoveExtension(name string) {
	delete(c.extensions, name)
}

// Extensions returns the declared extensions sorted by name.
func (c *CompilerContext) Extensions() []Extension {
	out := make([]Extension, 0, len(c.extensions))
	for _, name := range slices.Sorted(maps.Keys(c.extensions)) {
		out = append(out, Extension{Name: name, Behavior: c.extensions[name]})
	}
	return out
}

// FeedbackLayout returns the feedback varying layout.
func (c *CompilerContext) FeedbackLayout() FeedbackLayout {
	return c.feedbackLayout
}

// SetFeedbackLayout replaces the feedback varying layout.
func (c *CompilerContext) SetFeedbackLayout(l FeedbackLayout) {
	c.feedbackLayout = l
}

// Equal reports whether two contexts describe the same compilation inputs.
func (c *CompilerContext) Equal(other *CompilerContext) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.version == other.version &&
		c.feedbackLayout == other.feedbackLayout &&
		maps.Equal(c.defines, other.defines) &&
		maps.Equal(c.extensions, other.extensions) &&
		slices.Equal(c.includePaths, other.includePaths) &&
		slices.Equal(c.extraFragments, other.extraFragments)
}

// CacheKey returns a stable hash of the context. It is independent of the order in which
// defines and extensions were added and dependent on the order of include paths and fragments.
// Every string is written with its length so that no two field splits hash alike.
func (c *CompilerContext) CacheKey() uint64 {
	h := xxhash.New()
	w := keyWriter{h: h}

	w.number(uint64(c.version.Number))
	w.field(c.version.Profile)

	w.number(uint64(len(c.defines)))
	for _, name := range slices.Sorted(maps.Keys(c.defines)) {
		w.field(name)
		w.field(c.defines[name])
	}

	w.number(uint64(len(c.includePaths)))
	for _, p := range c.includePaths {
		w.field(p)
	}

	w.number(uint64(len(c.extraFragments)))
	for _, f := range c.extraFragments {
		w.field(f.Identifier)
		w.number(uint64(f.Stage))
		w.field(f.Interface)
	}

	w.number(uint64(len(c.extensions)))
	for _, name := range slices.Sorted(maps.Keys(c.extensions)) {
		w.field(name)
		w.number(uint64(c.extensions[name]))
	}

	w.number(uint64(c.feedbackLayout))

	return h.Sum64()
}

type keyWriter struct {
	h   *xxhash.Digest
	buf [binary.MaxVarintLen64]byte
}

func (w *keyWriter) number(n uint64) {
	_, _ = w.h.Write(binary.AppendUvarint(w.buf[:0], n))
}

func (w *keyWriter) field(s string) {
	w.number(uint64(len(s)))
	_, _ = w.h.WriteString(s)
}

// Clone returns a deep copy of the context.
func (c *CompilerContext) Clone() *CompilerContext {
	return &CompilerContext{
		version:        c.version,
		defines:        maps.Clone(c.defines),
		includePaths:   slices.Clone(c.includePaths),
		extraFragments: slices.Clone(c.extraFragments),
		extensions:     maps.Clone(c.extensions),
		feedbackLayout: c.feedbackLayout,
	}
}

// ObjectContext returns a copy without the link-only fields, used when compiling the
// objects of a program so that objects are shared between programs that differ only in linkage.
func (c *CompilerContext) ObjectContext() *CompilerContext {
	obj := c.Clone()
	obj.extraFragments = nil
	obj.feedbackLayout = FeedbackInterleaved
	return obj
}

// Preamble renders the version, extension and define directives that precede a source.
func (c *CompilerContext) Preamble() []string {
	lines := make([]string, 0, 1+len(c.extensions)+len(c.defines))
	if !c.version.IsZero() {
		lines = append(lines, "#version "+c.version.String())
	}
	for _, ext := range c.Extensions() {
		lines = append(lines, fmt.Sprintf("#extension %s : %s", ext.Name, ext.Behavior))
	}
	for _, d := range c.Defines() {
		lines = append(lines, "#define "+d)
	}
	return lines
}

func splitDefine(symbol string) (name, value string) {
	symbol = strings.TrimSpace(symbol)
	i := strings.IndexAny(symbol, " \t")
	if i < 0 {
		return symbol, ""
	}
	return symbol[:i], strings.TrimSpace(symbol[i+1:])
}

func joinDefine(name, value string) string {
	if value == "" {
		return name
	}
	return name + " " + value
}
