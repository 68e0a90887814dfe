package gfx

import (
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
)

// CommandPoolFlags are the flags of the context's one-shot command pool.
const CommandPoolFlags = core1_0.CommandPoolCreateTransient | core1_0.CommandPoolCreateResetBuffer

// createLogicalDevice creates one queue per distinct family of candidate,
// with anisotropic sampling enabled.
func createLogicalDevice(candidate *DeviceCandidate, caps *Capabilities) (driver.Device, error) {
	device, err := candidate.Device.CreateDevice(driver.DeviceCreateInfo{
		QueueFamilies: candidate.Families.Unique(),
		Features: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		Extensions: caps.deviceExtensionsFor(candidate.Extensions),
		Layers:     caps.ValidationLayers(),
	})
	if err != nil {
		return nil, setupError(err, "create logical device on %s", candidate.Properties.Name)
	}
	return device, nil
}

func createCommandPool(device driver.Device, family int) (driver.CommandPool, error) {
	pool, err := device.CreateCommandPool(family, CommandPoolFlags)
	if err != nil {
		return nil, setupError(err, "create command pool on family %d", family)
	}
	return pool, nil
}
