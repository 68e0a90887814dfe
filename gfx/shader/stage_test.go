package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

func TestStageNames(t *testing.T) {
	assert.Equal(t, "vertex", Vertex.String())
	assert.Equal(t, "geometry_main", Geometry.EntryPoint())
	assert.Equal(t, core1_0.StageCompute, Compute.Flags())

	stage, err := ParseStage("frag")
	require.NoError(t, err)
	assert.Equal(t, Fragment, stage)

	stage, err = ParseStage("compute")
	require.NoError(t, err)
	assert.Equal(t, Compute, stage)

	_, err = ParseStage("tessellation")
	assert.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]Language{
		"simple.wgsl":     WGSL,
		"lit.FRAG":        GLSL,
		"post.hlsl":       HLSL,
		"prebuilt.spv":    SPIRV,
		"dir.d/quad.glsl": GLSL,
	}
	for path, want := range tests {
		got, err := DetectLanguage(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectLanguage("shader.metal")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestShaderBuilder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.hlsl")
	require.NoError(t, os.WriteFile(path, []byte("float4 vertex_main() : SV_Position { return 0; }"), 0o644))

	builder := NewShaderBuilder(path).WithStage(Vertex).WithStages(Fragment, Vertex)

	info := CreateInfo(builder)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, []Stage{Vertex, Fragment}, info.OrderedStages())
	assert.False(t, info.HasStage(Geometry))

	source, err := Build(builder)
	require.NoError(t, err)
	assert.Len(t, source.Stages, 2)
	assert.Equal(t, HLSL, source.Stages[Fragment].Lang)
	assert.Contains(t, source.Stages[Vertex].Text(), "vertex_main")
	assert.False(t, source.HasStage(Compute))

	_, err = Build(NewShaderBuilder(filepath.Join(dir, "missing.wgsl")).WithStage(Vertex))
	assert.Error(t, err)
}

func TestShaderBuilderLanguageOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.shader")
	require.NoError(t, os.WriteFile(path, []byte("@vertex fn vertex_main() {}"), 0o644))

	source, err := Build(NewShaderBuilder(path).WithLanguage(WGSL).WithStage(Vertex))
	require.NoError(t, err)
	assert.Equal(t, WGSL, source.Stages[Vertex].Lang)
}

func TestParseLanguage(t *testing.T) {
	lang, err := ParseLanguage("WGSL")
	require.NoError(t, err)
	assert.Equal(t, WGSL, lang)

	lang, err = ParseLanguage("spirv")
	require.NoError(t, err)
	assert.Equal(t, SPIRV, lang)

	_, err = ParseLanguage("msl")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
}
