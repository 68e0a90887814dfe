package gfx

import "github.com/koyote-engine/koyote/gfx/driver"

// Window is everything the render context needs from the windowing layer.
type Window interface {
	Title() string
	// Size returns the drawable size in pixels.
	Size() (width, height int)
	// RequiredInstanceExtensions lists the instance extensions the window
	// system needs to create a presentation surface.
	RequiredInstanceExtensions() []string
	CreateSurface(instance driver.Instance) (driver.Surface, error)
}
