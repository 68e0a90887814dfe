package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/sirupsen/logrus"
)

// Builder type states. Build accepts only a builder that has both a shader
// and a config.
type (
	ShaderMissing   struct{}
	ShaderSpecified struct{}
	ConfigMissing   struct{}
	ConfigSpecified struct{}
)

type RenderPipelineBuilder[S, C any] struct {
	ctx    *gfx.RenderContext
	loader *shader.Loader
	shader shader.ShaderCreateInfo
	config RenderPipelineConfig
}

func NewRenderPipelineBuilder(ctx *gfx.RenderContext, loader *shader.Loader) RenderPipelineBuilder[ShaderMissing, ConfigMissing] {
	return RenderPipelineBuilder[ShaderMissing, ConfigMissing]{ctx: ctx, loader: loader}
}

// WithShader records the shader to load. It is compiled by Build, after the
// config has been validated.
func WithShader[C any](b RenderPipelineBuilder[ShaderMissing, C], info shader.ShaderCreateInfo) RenderPipelineBuilder[ShaderSpecified, C] {
	return RenderPipelineBuilder[ShaderSpecified, C]{
		ctx:    b.ctx,
		loader: b.loader,
		shader: info,
		config: b.config,
	}
}

func WithConfig[S any](b RenderPipelineBuilder[S, ConfigMissing], config RenderPipelineConfig) RenderPipelineBuilder[S, ConfigSpecified] {
	return RenderPipelineBuilder[S, ConfigSpecified]{
		ctx:    b.ctx,
		loader: b.loader,
		shader: b.shader,
		config: config,
	}
}

// Build loads the shader and issues a single pipeline create call. On any
// failure nothing is left allocated and the error is marked
// ErrPipelineBuild.
func Build(b RenderPipelineBuilder[ShaderSpecified, ConfigSpecified]) (*RenderPipeline, error) {
	if b.ctx == nil {
		return nil, buildError(ErrNullContext, "validate builder")
	}
	if b.loader == nil {
		return nil, buildError(ErrNullLoader, "validate builder")
	}
	config := b.config
	if config.Layout == nil {
		return nil, buildError(ErrNullLayout, "validate config")
	}
	if config.RenderPass == nil {
		return nil, buildError(ErrNullRenderPass, "validate config")
	}

	log := logging.Or(b.ctx.Logger(), "pipeline").WithField("shader", b.shader.Path)

	sh, err := b.loader.Load(b.ctx, b.shader)
	if err != nil {
		return nil, buildError(err, "load shader %s", b.shader.Path)
	}

	shared := b.ctx.Device()
	native, err := shared.Device().CreateGraphicsPipeline(config.createInfo(sh.StageInfos()))
	if err != nil {
		shared.Release()
		sh.Destroy()
		return nil, buildError(err, "create graphics pipeline")
	}

	log.WithFields(logrus.Fields{
		"stages":  len(sh.StageInfos()),
		"subpass": config.Subpass,
	}).Debug("render pipeline built")

	return &RenderPipeline{
		device:   shared,
		pipeline: native,
		config:   config,
		shader:   sh,
	}, nil
}

func buildError(err error, format string, args ...interface{}) error {
	err = errors.Wrapf(err, format, args...)
	return errors.Mark(errors.Mark(err, ErrPipelineBuild), gfx.ErrResource)
}
