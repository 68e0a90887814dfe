package drivertest

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
)

// Window satisfies gfx.Window. Its surfaces answer from the fake physical
// device's PresentFamilies and Swapchain fields.
type Window struct {
	TitleText  string
	Width      int
	Height     int
	Extensions []string

	// Surface is the most recent surface created.
	Surface *Surface
}

func NewWindow() *Window {
	return &Window{
		TitleText:  "koyote test",
		Width:      800,
		Height:     600,
		Extensions: append([]string(nil), SurfaceExtensions...),
	}
}

func (w *Window) Title() string {
	return w.TitleText
}

func (w *Window) Size() (int, int) {
	return w.Width, w.Height
}

func (w *Window) RequiredInstanceExtensions() []string {
	return append([]string(nil), w.Extensions...)
}

func (w *Window) CreateSurface(instance driver.Instance) (driver.Surface, error) {
	fake, ok := instance.(*Instance)
	if !ok {
		return nil, errors.Newf("unexpected instance %T", instance)
	}
	if err := fake.rec.call(OpCreateSurface); err != nil {
		return nil, err
	}
	fake.rec.create(KindSurface)
	w.Surface = &Surface{rec: fake.rec}
	return w.Surface, nil
}

type Surface struct {
	rec       *Recorder
	destroyed bool

	// SupportErr, when set, is returned from every SupportsPresent call.
	SupportErr error
}

func (s *Surface) SupportsPresent(device driver.PhysicalDevice, family int) (bool, error) {
	if s.SupportErr != nil {
		return false, s.SupportErr
	}
	pd, ok := device.(*PhysicalDevice)
	if !ok {
		return false, errors.Newf("unexpected physical device %T", device)
	}
	return pd.PresentFamilies[family], nil
}

func (s *Surface) SwapchainSupport(device driver.PhysicalDevice) (*driver.SwapchainSupport, error) {
	pd, ok := device.(*PhysicalDevice)
	if !ok {
		return nil, errors.Newf("unexpected physical device %T", device)
	}
	if pd.Swapchain == nil {
		return &driver.SwapchainSupport{}, nil
	}
	support := *pd.Swapchain
	return &support, nil
}

func (s *Surface) Destroy() {
	s.rec.destroy(KindSurface, &s.destroyed)
}
