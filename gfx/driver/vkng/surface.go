package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

type Surface struct {
	surface khr_surface.Surface
}

var _ driver.Surface = (*Surface)(nil)

// NewSurface adopts a surface created by a window integration. The returned
// value takes ownership and destroys the surface.
func NewSurface(surface khr_surface.Surface) *Surface {
	return &Surface{surface: surface}
}

func (s *Surface) Native() khr_surface.Surface {
	return s.surface
}

func (s *Surface) SupportsPresent(device driver.PhysicalDevice, family int) (bool, error) {
	pd, err := nativePhysicalDevice(device)
	if err != nil {
		return false, err
	}
	supported, _, err := s.surface.PhysicalDeviceSurfaceSupport(pd, family)
	return supported, err
}

func (s *Surface) SwapchainSupport(device driver.PhysicalDevice) (*driver.SwapchainSupport, error) {
	pd, err := nativePhysicalDevice(device)
	if err != nil {
		return nil, err
	}

	var details driver.SwapchainSupport
	details.Capabilities, _, err = s.surface.PhysicalDeviceSurfaceCapabilities(pd)
	if err != nil {
		return nil, err
	}

	details.Formats, _, err = s.surface.PhysicalDeviceSurfaceFormats(pd)
	if err != nil {
		return nil, err
	}

	details.PresentModes, _, err = s.surface.PhysicalDeviceSurfacePresentModes(pd)
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (s *Surface) Destroy() {
	s.surface.Destroy(nil)
}

func nativePhysicalDevice(device driver.PhysicalDevice) (core1_0.PhysicalDevice, error) {
	pd, ok := device.(*PhysicalDevice)
	if !ok {
		return nil, errors.Newf("physical device %T was not enumerated by this driver", device)
	}
	return pd.device, nil
}
