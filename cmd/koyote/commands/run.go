package commands

import (
	"time"

	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/pipeline"
	"github.com/koyote-engine/koyote/gfx/shader"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/koyote-engine/koyote/platform/sdlwindow"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

const targetFrameTime = time.Second / 60

var shaderPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a window and build the quad pipeline",
	Long: `Bring up the render context for a new window and build a graphics
pipeline from the configured shader. The pipeline is rebuilt whenever the
window is resized. The quad is uploaded through staging buffers to exercise
the transfer path, but nothing is drawn or presented: there is no
swapchain. Running koyote with no subcommand does the same.`,
	RunE: runPreview,
}

func init() {
	runCmd.Flags().StringVar(&shaderPath, "shader", "res/shaders/simple.wgsl", "shader with vertex and fragment stages")
	rootCmd.AddCommand(runCmd)

	rootCmd.Flags().AddFlag(runCmd.Flags().Lookup("shader"))
	rootCmd.RunE = runPreview
}

// preview holds everything the quad pipeline is built from.
type preview struct {
	log      logrus.FieldLogger
	window   *sdlwindow.Window
	graphics *pipeline.Graphics
	shaders  *shader.Loader
	shader   shader.ShaderCreateInfo
	layout   *pipeline.PipelineLayout
	pass     *pipeline.RenderPass
}

func runPreview(cmd *cobra.Command, args []string) error {
	log := logging.Component("run")

	window, err := sdlwindow.New(sdlwindow.Config{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Centered:  cfg.Window.Centered,
		Resizable: cfg.Window.Resizable,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	loader, err := window.Loader()
	if err != nil {
		return err
	}

	ctx, err := gfx.NewRenderContext(loader, window, cfg.GraphicsOptions(logging.Get()))
	if err != nil {
		return err
	}
	graphics := pipeline.NewGraphics(ctx)
	defer graphics.Destroy()

	props := ctx.Properties()
	log.WithFields(logrus.Fields{
		"device":     props.Name,
		"type":       props.Type,
		"validation": ctx.ValidationEnabled(),
	}).Info("render context ready")

	shaders, err := shader.NewLoader(cfg.ShaderOptions(logging.Get()))
	if err != nil {
		return err
	}

	layout, err := pipeline.NewPipelineLayout(ctx)
	if err != nil {
		return err
	}
	defer layout.Destroy()

	depthFormat, err := gfx.FindDepthFormat(ctx.PhysicalDevice())
	if err != nil {
		return err
	}
	pass, err := pipeline.NewRenderPass(ctx, surfaceFormat(ctx.SwapchainSupport()), depthFormat)
	if err != nil {
		return err
	}
	defer pass.Destroy()

	// Uploaded but never bound.
	vertices, err := gfx.NewStagedBuffer(ctx, quadVertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return err
	}
	defer vertices.Destroy()

	indices, err := gfx.NewStagedBuffer(ctx, quadIndices, core1_0.BufferUsageIndexBuffer)
	if err != nil {
		return err
	}
	defer indices.Destroy()

	p := &preview{
		log:      log,
		window:   window,
		graphics: graphics,
		shaders:  shaders,
		shader:   shader.CreateInfo(shader.NewShaderBuilder(shaderPath).WithStages(shader.Vertex, shader.Fragment)),
		layout:   layout,
		pass:     pass,
	}
	if err := p.rebuild(); err != nil {
		return err
	}

	p.loop()
	return ctx.WaitIdle()
}

// rebuild replaces the graphics pipeline with one sized to the window.
func (p *preview) rebuild() error {
	width, height := p.window.Size()

	config := pipeline.NewRenderPipelineConfig(width, height)
	config.VertexInput = vertexInput()
	config.Layout = p.layout.Handle()
	config.RenderPass = p.pass.Handle()

	builder := pipeline.NewRenderPipelineBuilder(p.graphics.Context(), p.shaders)
	built, err := pipeline.Build(pipeline.WithConfig(pipeline.WithShader(builder, p.shader), config))
	if err != nil {
		return err
	}
	p.graphics.SetRenderPipeline(built)

	p.log.WithFields(logrus.Fields{
		"width":  width,
		"height": height,
	}).Debug("render pipeline built")
	return nil
}

func (p *preview) loop() {
	var frames int
	var busy time.Duration
	report := hrtime.Now()

	for {
		start := hrtime.Now()

		events := p.window.PollEvents()
		if events.Quit {
			return
		}
		if events.Resized && !p.window.Minimized() {
			// Keep the previous pipeline when a rebuild fails.
			if err := p.rebuild(); err != nil {
				p.log.WithError(err).Error("failed to rebuild render pipeline")
			}
		}

		elapsed := hrtime.Now() - start
		busy += elapsed
		frames++
		if elapsed < targetFrameTime {
			time.Sleep(targetFrameTime - elapsed)
		}

		if now := hrtime.Now(); now-report >= 5*time.Second {
			p.log.WithFields(logrus.Fields{
				"frames":   frames,
				"avg_busy": busy / time.Duration(frames),
			}).Debug("frame timing")
			frames, busy, report = 0, 0, now
		}
	}
}

// surfaceFormat prefers 8-bit sRGB BGRA, else the first offered format.
func surfaceFormat(support *driver.SwapchainSupport) core1_0.Format {
	if support == nil || len(support.Formats) == 0 {
		return core1_0.FormatB8G8R8A8SRGB
	}
	for _, format := range support.Formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format.Format
		}
	}
	return support.Formats[0].Format
}
