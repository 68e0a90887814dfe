package commands

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

func TestVertexLayout(t *testing.T) {
	bindings := vertexBindingDescriptions()
	require.Len(t, bindings, 1)
	assert.Equal(t, 20, bindings[0].Stride)
	assert.Equal(t, core1_0.VertexInputRateVertex, bindings[0].InputRate)

	attributes := vertexAttributeDescriptions()
	require.Len(t, attributes, 2)
	assert.Equal(t, 0, attributes[0].Offset)
	assert.Equal(t, 8, attributes[1].Offset)
	assert.Equal(t, 1, attributes[1].Location)
}

func TestQuadUploadSize(t *testing.T) {
	assert.Equal(t, len(quadVertices)*vertexBindingDescriptions()[0].Stride, binary.Size(quadVertices))
	assert.Equal(t, 12, binary.Size(quadIndices))
	for _, idx := range quadIndices {
		assert.Less(t, int(idx), len(quadVertices))
	}
}
