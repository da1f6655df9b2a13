package naga_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shade/internal/adapters/naga"
	"go.trai.ch/shade/internal/core/domain"
	"go.trai.ch/shade/internal/core/ports"
	"go.trai.ch/zerr"
)

const spirvMagic = 0x07230203

const vertexSource = `@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}`

const fragmentSource = `@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}`

func request(stage domain.Stage, source string) ports.CompileRequest {
	return ports.CompileRequest{
		Identifier: "sprite",
		Stage:      stage,
		Source:     []string{source},
		Context:    domain.NewCompilerContext(domain.Version{}),
	}
}

func TestCompiler_Compile(t *testing.T) {
	tests := []struct {
		name   string
		stage  domain.Stage
		source string
		entry  string
	}{
		{name: "vertex", stage: domain.StageVertex, source: vertexSource, entry: "vs_main"},
		{name: "fragment", stage: domain.StageFragment, source: fragmentSource, entry: "fs_main"},
		{
			name:   "compute",
			stage:  domain.StageCompute,
			source: "@compute @workgroup_size(64)\nfn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {\n}",
			entry:  "cs_main",
		},
	}

	compiler := naga.NewCompiler(naga.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := compiler.Compile(context.Background(), request(tt.stage, tt.source))
			require.NoError(t, err)

			require.GreaterOrEqual(t, len(mod.Code), 20)
			assert.Equal(t, uint32(spirvMagic), binary.LittleEndian.Uint32(mod.Code))
			assert.Equal(t, tt.stage, mod.Stage)
			assert.Equal(t, []domain.EntryPoint{{Name: tt.entry, Stage: tt.stage}}, mod.EntryPoints)
			assert.True(t, mod.Ready())
		})
	}
}

func TestCompiler_Compile_RecordsEveryEntryPoint(t *testing.T) {
	compiler := naga.NewCompiler(naga.Options{})

	mod, err := compiler.Compile(context.Background(), request(domain.StageFragment, vertexSource+"\n"+fragmentSource))
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.EntryPoint{
		{Name: "vs_main", Stage: domain.StageVertex},
		{Name: "fs_main", Stage: domain.StageFragment},
	}, mod.EntryPoints)
}

func TestCompiler_Compile_MissingEntryPoint(t *testing.T) {
	compiler := naga.NewCompiler(naga.Options{})

	_, err := compiler.Compile(context.Background(), request(domain.StageVertex, fragmentSource))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
	assert.ErrorContains(t, err, "no vertex entry point")
}

func TestCompiler_Compile_SyntaxError(t *testing.T) {
	compiler := naga.NewCompiler(naga.Options{})

	_, err := compiler.Compile(context.Background(), request(domain.StageVertex, "fn broken( {"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompileFailed)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "sprite", zErr.Metadata()["shader"])
	assert.Equal(t, "vertex", zErr.Metadata()["stage"])
}

func TestCompiler_Compile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := naga.NewCompiler(naga.Options{}).Compile(ctx, request(domain.StageVertex, vertexSource))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPreamble(t *testing.T) {
	cc := domain.NewCompilerContext(domain.Version{Number: 450, Profile: "core"})
	require.NoError(t, cc.Define("USE_FOG", false))
	require.NoError(t, cc.Define("MAX_LIGHTS 4", false))
	require.NoError(t, cc.AddExtension("f16", domain.BehaviorEnable))
	require.NoError(t, cc.AddExtension("clip_distances", domain.BehaviorDisable))

	assert.Equal(t, []string{
		"enable f16;",
		"const MAX_LIGHTS = 4;",
		"const USE_FOG = true;",
	}, naga.Preamble(cc))
	assert.Nil(t, naga.Preamble(nil))
}

func TestSource(t *testing.T) {
	cc := domain.NewCompilerContext(domain.Version{})
	require.NoError(t, cc.Define("SCALE 0.5", false))

	got := naga.Source(ports.CompileRequest{Source: []string{"fn f() -> f32 { return SCALE; }"}, Context: cc})
	assert.Equal(t, "const SCALE = 0.5;\nfn f() -> f32 { return SCALE; }\n", got)
}
