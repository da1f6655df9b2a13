package domain

import (
	"encoding/hex"
	"slices"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// Handle is an opaque compiled resource owned by a cached artifact.
type Handle interface {
	// Ready reports whether the handle is fully compiled or linked.
	Ready() bool
	// Destroy frees the resources held by the handle.
	Destroy() error
}

// EntryPoint is a named shader entry function and the stage it runs in.
type EntryPoint struct {
	Name  string `json:"name"`
	Stage Stage  `json:"stage"`
}

// ShaderModule is a compiled shader object.
type ShaderModule struct {
	Identifier  string
	Stage       Stage
	Code        []byte
	EntryPoints []EntryPoint

	destroyed atomic.Bool
}

// NewShaderModule creates a module over compiled code.
func NewShaderModule(identifier string, stage Stage, code []byte, entryPoints []EntryPoint) *ShaderModule {
	return &ShaderModule{
		Identifier:  identifier,
		Stage:       stage,
		Code:        code,
		EntryPoints: entryPoints,
	}
}

// Ready reports whether the module holds compiled code and has not been destroyed.
func (m *ShaderModule) Ready() bool {
	return len(m.Code) > 0 && !m.destroyed.Load()
}

// Destroy releases the compiled code.
func (m *ShaderModule) Destroy() error {
	if m.destroyed.Swap(true) {
		return nil
	}
	m.Code = nil
	return nil
}

// Destroyed reports whether Destroy has been called.
func (m *ShaderModule) Destroyed() bool {
	return m.destroyed.Load()
}

// Digest returns the BLAKE3 hex digest of the compiled code.
func (m *ShaderModule) Digest() string {
	sum := blake3.Sum256(m.Code)
	return hex.EncodeToString(sum[:])
}

// Program is a set of shader modules linked for use together.
type Program struct {
	Identifier     string
	Modules        []*ShaderModule
	FeedbackLayout FeedbackLayout
	EntryPoints    []EntryPoint

	linked    bool
	destroyed atomic.Bool
}

// NewProgram creates a linked program over modules.
func NewProgram(identifier string, modules []*ShaderModule, layout FeedbackLayout) *Program {
	p := &Program{
		Identifier:     identifier,
		Modules:        slices.Clone(modules),
		FeedbackLayout: layout,
		linked:         true,
	}
	for _, m := range modules {
		p.EntryPoints = append(p.EntryPoints, m.EntryPoints...)
	}
	return p
}

// Ready reports whether the program is linked and all of its modules are still alive.
func (p *Program) Ready() bool {
	if !p.linked || p.destroyed.Load() {
		return false
	}
	for _, m := range p.Modules {
		if !m.Ready() {
			return false
		}
	}
	return true
}

// Destroy releases the program. The modules are owned by their own artifacts.
func (p *Program) Destroy() error {
	p.destroyed.Store(true)
	return nil
}

// Stages returns the stages of the linked modules in link order.
func (p *Program) Stages() []Stage {
	stages := make([]Stage, len(p.Modules))
	for i, m := range p.Modules {
		stages[i] = m.Stage
	}
	return stages
}

// Digest returns a BLAKE3 hex digest over the module digests in link order.
func (p *Program) Digest() string {
	h := blake3.New()
	for _, m := range p.Modules {
		_, _ = h.WriteString(m.Identifier)
		_, _ = h.Write([]byte{0, byte(m.Stage)})
		_, _ = h.Write(m.Code)
	}
	_, _ = h.Write([]byte{byte(p.FeedbackLayout)})
	return hex.EncodeToString(h.Sum(nil))
}
