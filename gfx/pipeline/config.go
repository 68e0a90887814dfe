package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
)

// RenderPipelineConfig is the fixed-function state of a graphics pipeline.
// Layout and RenderPass start nil and must be set before Build.
type RenderPipelineConfig struct {
	Viewport      core1_0.Viewport
	Scissor       core1_0.Rect2D
	InputAssembly core1_0.PipelineInputAssemblyStateCreateInfo
	Rasterization core1_0.PipelineRasterizationStateCreateInfo
	Multisample   core1_0.PipelineMultisampleStateCreateInfo

	ColorBlendAttachment core1_0.PipelineColorBlendAttachmentState
	ColorBlend           core1_0.PipelineColorBlendStateCreateInfo
	BlendConstants       mgl32.Vec4

	DepthStencil core1_0.PipelineDepthStencilStateCreateInfo
	// VertexInput may stay nil for shaders that generate their vertices.
	VertexInput *core1_0.PipelineVertexInputStateCreateInfo

	Layout     driver.PipelineLayout
	RenderPass driver.RenderPass
	Subpass    int
}

// NewRenderPipelineConfig covers a width x height target: triangle lists,
// filled back-face culled counter-clockwise polygons, one sample, color
// blending on and a less-than depth test.
func NewRenderPipelineConfig(width, height int) RenderPipelineConfig {
	cfg := RenderPipelineConfig{
		InputAssembly: core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		Rasterization: core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    core1_0.CullModeBack,
			FrontFace:   core1_0.FrontFaceCounterClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		Multisample: core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		ColorBlendAttachment: core1_0.PipelineColorBlendAttachmentState{
			BlendEnabled:        true,
			SrcColorBlendFactor: core1_0.BlendFactorSrcColor,
			DstColorBlendFactor: core1_0.BlendFactorDstColor,
			ColorBlendOp:        core1_0.BlendOpAdd,
			SrcAlphaBlendFactor: core1_0.BlendFactorSrcAlpha,
			DstAlphaBlendFactor: core1_0.BlendFactorOneMinusSrcAlpha,
			AlphaBlendOp:        core1_0.BlendOpAdd,
			ColorWriteMask:      core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
		},
		ColorBlend: core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,
		},
		DepthStencil: core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:       true,
			DepthWriteEnable:      true,
			DepthCompareOp:        core1_0.CompareOpLess,
			DepthBoundsTestEnable: false,
			StencilTestEnable:     false,
			MinDepthBounds:        0,
			MaxDepthBounds:        1,
		},
		Subpass: 0,
	}
	cfg.Resize(width, height)
	return cfg
}

// Resize sets the viewport and scissor to cover width x height.
func (c *RenderPipelineConfig) Resize(width, height int) {
	c.Viewport = core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	c.Scissor = core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: core1_0.Extent2D{Width: width, Height: height},
	}
}

func (c *RenderPipelineConfig) createInfo(stages []driver.ShaderStage) driver.GraphicsPipelineCreateInfo {
	vertexInput := c.VertexInput
	if vertexInput == nil {
		vertexInput = &core1_0.PipelineVertexInputStateCreateInfo{}
	}

	inputAssembly := c.InputAssembly
	rasterization := c.Rasterization
	multisample := c.Multisample
	depthStencil := c.DepthStencil

	colorBlend := c.ColorBlend
	colorBlend.Attachments = []core1_0.PipelineColorBlendAttachmentState{c.ColorBlendAttachment}
	colorBlend.BlendConstants = [4]float32(c.BlendConstants)

	return driver.GraphicsPipelineCreateInfo{
		Stages:        stages,
		VertexInput:   vertexInput,
		InputAssembly: &inputAssembly,
		Viewport: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{c.Viewport},
			Scissors:  []core1_0.Rect2D{c.Scissor},
		},
		Rasterization: &rasterization,
		Multisample:   &multisample,
		DepthStencil:  &depthStencil,
		ColorBlend:    &colorBlend,
		Layout:        c.Layout,
		RenderPass:    c.RenderPass,
		Subpass:       c.Subpass,
	}
}
