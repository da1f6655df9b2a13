// Package preprocessor expands include directives against an include library.
package preprocessor

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultMemoSize is the number of expanded library entries kept by WithMemo when no size is given.
const DefaultMemoSize = 256

var directivePattern = regexp.MustCompile(`^\s*#\s*include\b(.*)$`)

// Resolver expands #include "path" and #include <path> directives recursively.
//
// Absolute operands are looked up directly. Relative operands quoted with '"' are
// first tried against the directory of the including file, then every operand is
// tried against the search paths in order. Cycles fail with domain.ErrCircularInclude.
type Resolver struct {
	library *domain.IncludeLibrary
	logger  ports.Logger
	memo    *lru.Cache[memoKey, expansion]
	hits    atomic.Uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMemo caches the expansion of library entries per search-path list.
// It takes effect only while the library is sealed.
func WithMemo(size int) Option {
	return func(r *Resolver) {
		if size <= 0 {
			size = DefaultMemoSize
		}
		memo, err := lru.New[memoKey, expansion](size)
		if err == nil {
			r.memo = memo
		}
	}
}

// NewResolver creates a Resolver over library. Diagnostics are reported to logger.
func NewResolver(library *domain.IncludeLibrary, logger ports.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		library: library,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MemoHits returns how many library expansions were served from the memo.
func (r *Resolver) MemoHits() uint64 {
	return r.hits.Load()
}

type memoKey struct {
	path   string
	search string
}

// expansion is the flattened output of a source and every library path spliced into it.
type expansion struct {
	lines   []string
	visited []string
}

// Expand resolves the include directives of a top-level source.
// Empty lines are dropped; other non-directive lines pass through unchanged.
func (r *Resolver) Expand(lines []string, searchPaths []string) ([]string, error) {
	exp, err := r.expandLines(lines, "", searchPaths, nil)
	if err != nil {
		return nil, err
	}
	return exp.lines, nil
}

// ExpandPath resolves the include directives of a library entry, using the
// entry's own directory for quoted relative includes.
func (r *Resolver) ExpandPath(p string, searchPaths []string) ([]string, error) {
	if err := domain.ValidateIncludePath(p); err != nil {
		return nil, err
	}
	canonical := r.normalize(p, p)
	if _, err := r.library.Get(canonical); err != nil {
		return nil, err
	}
	exp, err := r.expandEntry(canonical, searchPaths, nil)
	if err != nil {
		return nil, err
	}
	return slices.Clone(exp.lines), nil
}

func (r *Resolver) expandLines(lines []string, dir string, search, stack []string) (expansion, error) {
	out := expansion{lines: make([]string, 0, len(lines))}

	for i, line := range lines {
		if line == "" {
			continue
		}

		m := directivePattern.FindStringSubmatch(line)
		if m == nil {
			out.lines = append(out.lines, line)
			continue
		}

		raw, quoted, ok := parseOperand(m[1])
		if !ok {
			return expansion{}, withLocation(zerr.With(domain.NewError(domain.ErrMalformedDirective), "directive", line), stack, i)
		}

		resolved, found := r.resolve(raw, quoted, dir, search)
		if !found {
			return expansion{}, withLocation(zerr.With(domain.NewError(domain.ErrIncludeNotFound), "include", raw), stack, i)
		}

		if idx := slices.Index(stack, resolved); idx >= 0 {
			return expansion{}, buildCycleError(stack[idx:], resolved)
		}

		nested, err := r.expandEntry(resolved, search, stack)
		if err != nil {
			return expansion{}, err
		}
		out.lines = append(out.lines, nested.lines...)
		out.visited = append(out.visited, nested.visited...)
	}

	return out, nil
}

func (r *Resolver) expandEntry(p string, search, stack []string) (expansion, error) {
	key := memoKey{path: p, search: strings.Join(search, "\x00")}
	useMemo := r.memo != nil && r.library.Sealed()

	if useMemo {
		// A memoized subtree that reaches back into the current stack is re-expanded
		// so the cycle is reported with its exact path.
		if exp, ok := r.memo.Get(key); ok && !intersects(exp.visited, stack) {
			r.hits.Add(1)
			return exp, nil
		}
	}

	entry, err := r.library.Get(p)
	if err != nil {
		return expansion{}, err
	}

	exp, err := r.expandLines(entry.Lines, entry.Dir(), search, append(slices.Clip(stack), p))
	if err != nil {
		return expansion{}, err
	}
	exp.visited = append(exp.visited, p)

	if useMemo {
		r.memo.Add(key, exp)
	}
	return exp, nil
}

func (r *Resolver) resolve(raw string, quoted bool, dir string, search []string) (string, bool) {
	if strings.HasPrefix(raw, "/") {
		p := r.normalize(raw, raw)
		return p, r.library.IsDefined(p)
	}

	if quoted && dir != "" {
		if p, ok := r.lookup(dir+"/"+raw, raw); ok {
			return p, true
		}
	}

	for _, sp := range search {
		if p, ok := r.lookup(sp+"/"+raw, raw); ok {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) lookup(candidate, raw string) (string, bool) {
	p, clamped := domain.NormalizePath(candidate)
	if !r.library.IsDefined(p) {
		return "", false
	}
	if clamped {
		r.warnClamped(raw, p)
	}
	return p, true
}

func (r *Resolver) normalize(candidate, raw string) string {
	p, clamped := domain.NormalizePath(candidate)
	if clamped {
		r.warnClamped(raw, p)
	}
	return p
}

func (r *Resolver) warnClamped(raw, resolved string) {
	r.logger.Warn(fmt.Sprintf("include %q climbs above the library root, resolved as %s", raw, resolved))
}

// parseOperand extracts the path from a directive operand of the form "path" or <path>.
func parseOperand(op string) (raw string, quoted, ok bool) {
	op = strings.TrimSpace(op)
	if len(op) < 3 {
		return "", false, false
	}

	inner := op[1 : len(op)-1]
	switch {
	case op[0] == '"' && op[len(op)-1] == '"':
		quoted = true
		ok = !strings.ContainsRune(inner, '"')
	case op[0] == '<' && op[len(op)-1] == '>':
		ok = !strings.ContainsAny(inner, "<>")
	}
	if !ok || strings.TrimSpace(inner) != inner {
		return "", false, false
	}
	return inner, quoted, true
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []string, dep string) error {
	cyclePath := strings.Join(path, " -> ") + " -> " + dep
	return zerr.With(domain.NewError(domain.ErrCircularInclude), "cycle", cyclePath)
}

func withLocation(err error, stack []string, lineIdx int) error {
	file := "<source>"
	if len(stack) > 0 {
		file = stack[len(stack)-1]
	}
	return zerr.With(zerr.With(err, "file", file), "line", lineIdx+1)
}

func intersects(a, b []string) bool {
	for _, s := range a {
		if slices.Contains(b, s) {
			return true
		}
	}
	return false
}
