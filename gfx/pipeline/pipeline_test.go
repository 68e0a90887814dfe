package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/driver/drivertest"
	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

type env struct {
	driver *drivertest.Loader
	ctx    *gfx.RenderContext
	loader *shader.Loader
	info   shader.ShaderCreateInfo
	layout *PipelineLayout
	pass   *RenderPass
}

// newEnv loads precompiled bytecode so no compiler is involved.
func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.spv")
	require.NoError(t, os.WriteFile(path, []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}, 0o644))

	log, _ := test.NewNullLogger()
	e := &env{driver: drivertest.NewLoader(drivertest.NewPhysicalDevice("gpu", driver.DeviceTypeDiscreteGPU))}

	opts := gfx.DefaultOptions()
	opts.Logger = log
	ctx, err := gfx.NewRenderContext(e.driver, drivertest.NewWindow(), opts)
	require.NoError(t, err)
	e.ctx = ctx

	e.loader, err = shader.NewLoader(shader.Options{
		Cache:         shader.NewCacheFor(filepath.Join(dir, "cache"), path),
		ModuleRetries: shader.MaxModuleRetries,
		Logger:        log,
	})
	require.NoError(t, err)

	e.info = shader.CreateInfo(shader.NewShaderBuilder(path).WithStages(shader.Vertex, shader.Fragment))

	e.layout, err = NewPipelineLayout(ctx)
	require.NoError(t, err)
	e.pass, err = NewRenderPass(ctx, core1_0.FormatB8G8R8A8SRGB, core1_0.FormatD32SignedFloat)
	require.NoError(t, err)
	return e
}

func (e *env) config() RenderPipelineConfig {
	cfg := NewRenderPipelineConfig(800, 600)
	cfg.Layout = e.layout.Handle()
	cfg.RenderPass = e.pass.Handle()
	return cfg
}

func (e *env) build(cfg RenderPipelineConfig) (*RenderPipeline, error) {
	return Build(WithConfig(WithShader(NewRenderPipelineBuilder(e.ctx, e.loader), e.info), cfg))
}

func (e *env) close(t *testing.T) {
	t.Helper()
	e.layout.Destroy()
	e.pass.Destroy()
	e.ctx.Destroy()
	require.Empty(t, e.driver.Leaks())
	require.Zero(t, e.driver.DoubleDestroys())
}

func TestConfigDefaults(t *testing.T) {
	cfg := NewRenderPipelineConfig(1280, 720)

	assert.Equal(t, float32(1280), cfg.Viewport.Width)
	assert.Equal(t, float32(720), cfg.Viewport.Height)
	assert.Equal(t, float32(1), cfg.Viewport.MaxDepth)
	assert.Equal(t, core1_0.Extent2D{Width: 1280, Height: 720}, cfg.Scissor.Extent)

	assert.Equal(t, core1_0.PrimitiveTopologyTriangleList, cfg.InputAssembly.Topology)
	assert.Equal(t, core1_0.PolygonModeFill, cfg.Rasterization.PolygonMode)
	assert.Equal(t, core1_0.CullModeBack, cfg.Rasterization.CullMode)
	assert.Equal(t, core1_0.FrontFaceCounterClockwise, cfg.Rasterization.FrontFace)
	assert.Equal(t, float32(1), cfg.Rasterization.LineWidth)
	assert.Equal(t, core1_0.Samples1, cfg.Multisample.RasterizationSamples)

	assert.True(t, cfg.ColorBlendAttachment.BlendEnabled)
	assert.Equal(t, core1_0.BlendFactorSrcColor, cfg.ColorBlendAttachment.SrcColorBlendFactor)
	assert.Equal(t, core1_0.BlendFactorDstColor, cfg.ColorBlendAttachment.DstColorBlendFactor)
	assert.Equal(t, core1_0.BlendFactorOneMinusSrcAlpha, cfg.ColorBlendAttachment.DstAlphaBlendFactor)
	assert.Equal(t, core1_0.LogicOpCopy, cfg.ColorBlend.LogicOp)

	assert.True(t, cfg.DepthStencil.DepthTestEnable)
	assert.Equal(t, core1_0.CompareOpLess, cfg.DepthStencil.DepthCompareOp)

	assert.Nil(t, cfg.Layout)
	assert.Nil(t, cfg.RenderPass)
	assert.Zero(t, cfg.Subpass)
}

func TestBuildRejectsNullLayout(t *testing.T) {
	e := newEnv(t)
	cfg := e.config()
	cfg.Layout = nil

	_, err := e.build(cfg)
	assert.True(t, errors.Is(err, ErrNullLayout))
	assert.True(t, errors.Is(err, ErrPipelineBuild))
	assert.Zero(t, e.driver.Calls(drivertest.OpCreateShaderModule))
	assert.Zero(t, e.driver.Calls(drivertest.OpCreatePipeline))
	e.close(t)
}

func TestBuildRejectsMissingLoaderOrContext(t *testing.T) {
	e := newEnv(t)

	_, err := Build(WithConfig(WithShader(NewRenderPipelineBuilder(e.ctx, nil), e.info), e.config()))
	assert.True(t, errors.Is(err, ErrNullLoader))
	assert.True(t, errors.Is(err, ErrPipelineBuild))

	_, err = Build(WithConfig(WithShader(NewRenderPipelineBuilder(nil, e.loader), e.info), e.config()))
	assert.True(t, errors.Is(err, ErrNullContext))
	assert.True(t, errors.Is(err, ErrPipelineBuild))

	assert.Zero(t, e.driver.Calls(drivertest.OpCreateShaderModule))
	assert.Zero(t, e.driver.Calls(drivertest.OpCreatePipeline))
	e.close(t)
}

func TestBuildRejectsNullRenderPass(t *testing.T) {
	e := newEnv(t)
	cfg := e.config()
	cfg.RenderPass = nil

	_, err := e.build(cfg)
	assert.True(t, errors.Is(err, ErrNullRenderPass))
	assert.True(t, errors.Is(err, ErrPipelineBuild))
	assert.Zero(t, e.driver.Calls(drivertest.OpCreatePipeline))
	e.close(t)
}

func TestBuildAndDestroy(t *testing.T) {
	e := newEnv(t)
	cfg := e.config()
	cfg.BlendConstants = mgl32.Vec4{0.1, 0.2, 0.3, 1}

	p, err := e.build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, e.driver.Calls(drivertest.OpCreatePipeline))

	created := e.driver.Devices[0].Device.Pipelines
	require.Len(t, created, 1)
	info := created[0]
	require.Len(t, info.Stages, 2)
	assert.Equal(t, core1_0.StageVertex, info.Stages[0].Stage)
	assert.Equal(t, "fragment_main", info.Stages[1].EntryPoint)
	assert.Equal(t, e.layout.Handle(), info.Layout)
	assert.Equal(t, e.pass.Handle(), info.RenderPass)
	require.Len(t, info.ColorBlend.Attachments, 1)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, info.ColorBlend.BlendConstants)
	assert.Equal(t, []core1_0.Viewport{cfg.Viewport}, info.Viewport.Viewports)
	assert.NotNil(t, info.VertexInput)

	assert.Equal(t, 2, e.driver.Live(drivertest.KindShaderModule))
	p.Destroy()
	p.Destroy()
	assert.Equal(t, 1, e.driver.Destroyed(drivertest.KindPipeline))
	assert.Zero(t, e.driver.Live(drivertest.KindShaderModule))
	e.close(t)
}

func TestBuildPipelineFailureReleasesShader(t *testing.T) {
	e := newEnv(t)
	e.driver.Fail(drivertest.OpCreatePipeline)

	_, err := e.build(e.config())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPipelineBuild))
	assert.True(t, errors.Is(err, drivertest.ErrInjected))
	assert.Equal(t, 2, e.driver.Created(drivertest.KindShaderModule))
	assert.Zero(t, e.driver.Live(drivertest.KindShaderModule))
	e.close(t)
}

func TestBuildShaderFailure(t *testing.T) {
	e := newEnv(t)
	e.driver.Fail(drivertest.OpCreateShaderModule)

	_, err := e.build(e.config())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPipelineBuild))
	assert.True(t, errors.Is(err, shader.ErrModuleCreation))
	assert.Zero(t, e.driver.Calls(drivertest.OpCreatePipeline))
	e.close(t)
}

func TestPipelineOutlivesContext(t *testing.T) {
	e := newEnv(t)
	p, err := e.build(e.config())
	require.NoError(t, err)

	e.layout.Destroy()
	e.pass.Destroy()
	e.ctx.Destroy()
	assert.Zero(t, e.driver.Destroyed(drivertest.KindDevice))

	p.Destroy()
	assert.Equal(t, 1, e.driver.Destroyed(drivertest.KindDevice))
	assert.Empty(t, e.driver.Leaks())
}

func TestGraphicsSetRenderPipeline(t *testing.T) {
	e := newEnv(t)
	g := NewGraphics(e.ctx)

	first, err := e.build(e.config())
	require.NoError(t, err)
	second, err := e.build(e.config())
	require.NoError(t, err)

	g.SetRenderPipeline(first)
	g.SetRenderPipeline(first)
	assert.Zero(t, e.driver.Destroyed(drivertest.KindPipeline))

	g.SetRenderPipeline(second)
	assert.Same(t, second, g.RenderPipeline())
	assert.Equal(t, 1, e.driver.Destroyed(drivertest.KindPipeline))

	e.layout.Destroy()
	e.pass.Destroy()
	g.Destroy()
	assert.Equal(t, 2, e.driver.Destroyed(drivertest.KindPipeline))
	assert.Empty(t, e.driver.Leaks())
	assert.Zero(t, e.driver.DoubleDestroys())
}

func TestRenderPassAttachments(t *testing.T) {
	e := newEnv(t)
	defer e.close(t)

	info := e.pass.Handle().(*drivertest.RenderPass).Info
	require.Len(t, info.Attachments, 2)
	assert.NotNil(t, info.Subpasses[0].DepthStencilAttachment)

	colorOnly, err := NewRenderPass(e.ctx, core1_0.FormatB8G8R8A8SRGB, core1_0.FormatUndefined)
	require.NoError(t, err)
	defer colorOnly.Destroy()
	info = colorOnly.Handle().(*drivertest.RenderPass).Info
	assert.Len(t, info.Attachments, 1)
	assert.Nil(t, info.Subpasses[0].DepthStencilAttachment)
}

func TestAbandonedBuilderOwnsNothing(t *testing.T) {
	e := newEnv(t)
	_ = WithConfig(WithShader(NewRenderPipelineBuilder(e.ctx, e.loader), e.info), e.config())

	assert.Zero(t, e.driver.Calls(drivertest.OpCreateShaderModule))
	e.close(t)
}

type refusingCompiler struct{}

func (refusingCompiler) Compile(src shader.Source, stage shader.Stage, opts shader.CompileOptions) ([]byte, error) {
	return nil, errors.Newf("unexpected compile of %s", stage)
}

func TestEndToEndFromCachedBytecode(t *testing.T) {
	integrated := drivertest.NewPhysicalDevice("integrated", driver.DeviceTypeIntegratedGPU)
	discrete := drivertest.NewPhysicalDevice("discrete", driver.DeviceTypeDiscreteGPU)
	rec := drivertest.NewLoader(integrated, discrete)

	log, _ := test.NewNullLogger()
	opts := gfx.DefaultOptions()
	opts.Logger = log
	ctx, err := gfx.NewRenderContext(rec, drivertest.NewWindow(), opts)
	require.NoError(t, err)
	assert.Equal(t, "discrete", ctx.Properties().Name)
	assert.Nil(t, integrated.Device)

	dir := t.TempDir()
	exe := filepath.Join(dir, "koyote")
	require.NoError(t, os.WriteFile(exe, nil, 0o755))
	source := filepath.Join(dir, "quad.wgsl")
	require.NoError(t, os.WriteFile(source, []byte("fn vertex_main() {}"), 0o644))

	cache := shader.NewCacheFor(filepath.Join(dir, "cache"), exe)
	bytecode := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	require.NoError(t, cache.Store(source, shader.Vertex, bytecode))
	require.NoError(t, cache.Store(source, shader.Fragment, bytecode))

	loader, err := shader.NewLoader(shader.Options{Cache: cache, Compiler: refusingCompiler{}, Logger: log})
	require.NoError(t, err)

	info := shader.CreateInfo(shader.NewShaderBuilder(source).WithStages(shader.Vertex, shader.Fragment))
	layout, err := NewPipelineLayout(ctx)
	require.NoError(t, err)
	pass, err := NewRenderPass(ctx, core1_0.FormatB8G8R8A8SRGB, core1_0.FormatUndefined)
	require.NoError(t, err)

	cfg := NewRenderPipelineConfig(640, 480)
	cfg.Layout = layout.Handle()
	cfg.RenderPass = pass.Handle()
	p, err := Build(WithConfig(WithShader(NewRenderPipelineBuilder(ctx, loader), info), cfg))
	require.NoError(t, err)

	assert.True(t, p.Shader().HasStage(shader.Vertex))
	assert.True(t, p.Shader().HasStage(shader.Fragment))
	assert.Len(t, p.Shader().StageInfos(), 2)
	assert.Equal(t, 2, rec.Created(drivertest.KindShaderModule))

	p.Destroy()
	assert.Equal(t, 1, rec.Destroyed(drivertest.KindPipeline))

	layout.Destroy()
	pass.Destroy()
	ctx.Destroy()
	require.Empty(t, rec.Leaks())
	require.Zero(t, rec.DoubleDestroys())
}
