// Package pipeline assembles graphics pipelines from a shader and a
// fixed-function config.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/shader"
)

var (
	ErrPipelineBuild  = errors.New("render pipeline build failed")
	ErrNullLayout     = errors.New("pipeline layout is null")
	ErrNullRenderPass = errors.New("render pass is null")
	ErrNullContext    = errors.New("render context is null")
	ErrNullLoader     = errors.New("shader loader is null")
)

// RenderPipeline owns its native pipeline and the shader it was built from.
type RenderPipeline struct {
	device   *gfx.SharedDevice
	pipeline driver.Pipeline
	config   RenderPipelineConfig
	shader   *shader.Shader
}

func (p *RenderPipeline) Handle() driver.Pipeline {
	return p.pipeline
}

func (p *RenderPipeline) Config() RenderPipelineConfig {
	return p.config
}

func (p *RenderPipeline) Shader() *shader.Shader {
	return p.shader
}

// Destroy releases the pipeline, then the shader, then the device
// reference. Calling it again is a no-op.
func (p *RenderPipeline) Destroy() {
	if p.pipeline == nil {
		return
	}
	p.pipeline.Destroy()
	p.pipeline = nil
	p.shader.Destroy()
	p.device.Release()
}
