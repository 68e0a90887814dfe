package commands

import (
	"testing"

	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileInfo(t *testing.T) {
	info, err := compileInfo("res/shaders/simple.wgsl", []string{"frag", "vertex"}, "")
	require.NoError(t, err)
	assert.Equal(t, "res/shaders/simple.wgsl", info.Path)
	assert.Equal(t, shader.LanguageUnknown, info.Language)
	assert.Equal(t, []shader.Stage{shader.Vertex, shader.Fragment}, info.OrderedStages())
}

func TestCompileInfoLanguageOverride(t *testing.T) {
	info, err := compileInfo("quad.txt", []string{"compute"}, "hlsl")
	require.NoError(t, err)
	assert.Equal(t, shader.HLSL, info.Language)
}

func TestCompileInfoRejectsUnknownNames(t *testing.T) {
	_, err := compileInfo("a.wgsl", []string{"tessellation"}, "")
	assert.Error(t, err)

	_, err = compileInfo("a.wgsl", []string{"vertex"}, "metal")
	assert.Error(t, err)
}
