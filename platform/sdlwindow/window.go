// Package sdlwindow provides an SDL2 window that the render context can
// present to.
package sdlwindow

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/driver/vkng"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

type Config struct {
	Title         string
	Width, Height int
	Centered      bool
	Resizable     bool
}

// Window is a Vulkan capable SDL window. SDL calls must happen on the main
// thread.
type Window struct {
	window *sdl.Window
	title  string
}

var _ gfx.Window = (*Window)(nil)

func flags(cfg Config) uint32 {
	f := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN)
	if cfg.Resizable {
		f |= sdl.WINDOW_RESIZABLE
	}
	return f
}

func position(cfg Config) int32 {
	if cfg.Centered {
		return sdl.WINDOWPOS_CENTERED
	}
	return sdl.WINDOWPOS_UNDEFINED
}

// New initializes the SDL video subsystem and opens a window.
func New(cfg Config) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	pos := position(cfg)
	window, err := sdl.CreateWindow(cfg.Title, pos, pos, int32(cfg.Width), int32(cfg.Height), flags(cfg))
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrapf(err, "create %dx%d window", cfg.Width, cfg.Height)
	}
	return &Window{window: window, title: cfg.Title}, nil
}

// Loader returns a driver loader bound to the Vulkan library SDL loaded.
func (w *Window) Loader() (*vkng.Loader, error) {
	return vkng.NewLoader(sdl.VulkanGetVkGetInstanceProcAddr())
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) Size() (width, height int) {
	drawableWidth, drawableHeight := w.window.VulkanGetDrawableSize()
	return int(drawableWidth), int(drawableHeight)
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance driver.Instance) (driver.Surface, error) {
	inst, ok := instance.(*vkng.Instance)
	if !ok {
		return nil, errors.Newf("instance %T was not created by the vkng driver", instance)
	}

	surfaceLoader := khr_surface.CreateExtensionFromInstance(inst.Native())
	surface, err := vkng_sdl2.CreateSurface(inst.Native(), surfaceLoader, w.window)
	if err != nil {
		return nil, errors.Wrap(err, "create sdl surface")
	}
	return vkng.NewSurface(surface), nil
}

// Minimized reports whether there is nothing to draw into.
func (w *Window) Minimized() bool {
	if w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return true
	}
	width, height := w.Size()
	return width == 0 || height == 0
}

// Events drains the SDL event queue.
type Events struct {
	Quit    bool
	Resized bool
}

func (w *Window) PollEvents() Events {
	var events Events
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			events.Quit = true
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_RESTORED:
				events.Resized = true
			}
		}
	}
	return events
}

// Destroy closes the window and shuts SDL down. It must run after the
// render context is gone.
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
