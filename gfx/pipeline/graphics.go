package pipeline

import "github.com/koyote-engine/koyote/gfx"

// Graphics holds the render context and the pipeline currently in use.
type Graphics struct {
	ctx      *gfx.RenderContext
	pipeline *RenderPipeline
}

func NewGraphics(ctx *gfx.RenderContext) *Graphics {
	return &Graphics{ctx: ctx}
}

func (g *Graphics) Context() *gfx.RenderContext {
	return g.ctx
}

func (g *Graphics) RenderPipeline() *RenderPipeline {
	return g.pipeline
}

// SetRenderPipeline installs p and destroys the pipeline it replaces.
func (g *Graphics) SetRenderPipeline(p *RenderPipeline) {
	if g.pipeline != nil && g.pipeline != p {
		g.pipeline.Destroy()
	}
	g.pipeline = p
}

// Destroy releases the current pipeline, then the context.
func (g *Graphics) Destroy() {
	if g.pipeline != nil {
		g.pipeline.Destroy()
		g.pipeline = nil
	}
	g.ctx.Destroy()
}
