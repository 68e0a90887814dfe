package gfx

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
)

// QueueFamilyIndices holds the graphics and present family of one adapter.
// They may be the same family.
type QueueFamilyIndices struct {
	Graphics *int
	Present  *int
}

func (i QueueFamilyIndices) Complete() bool {
	return i.Graphics != nil && i.Present != nil
}

// Unique returns the distinct families, graphics first.
func (i QueueFamilyIndices) Unique() []int {
	if !i.Complete() {
		return nil
	}
	families := []int{*i.Graphics}
	if *i.Present != *i.Graphics {
		families = append(families, *i.Present)
	}
	return families
}

// FindQueueFamilies picks the first family with graphics support and,
// independently, the first family that can present to surface.
func FindQueueFamilies(device driver.PhysicalDevice, surface driver.Surface) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for idx, family := range device.QueueFamilies() {
		if indices.Graphics == nil && family.Flags&core1_0.QueueGraphics != 0 {
			graphics := idx
			indices.Graphics = &graphics
		}

		if indices.Present == nil {
			supported, err := surface.SupportsPresent(device, idx)
			if err != nil {
				return indices, err
			}
			if supported {
				present := idx
				indices.Present = &present
			}
		}

		if indices.Complete() {
			break
		}
	}

	return indices, nil
}

// DeviceRank orders device classes; lower is preferred.
func DeviceRank(t driver.DeviceType) int {
	switch t {
	case driver.DeviceTypeDiscreteGPU:
		return 0
	case driver.DeviceTypeIntegratedGPU:
		return 1
	case driver.DeviceTypeVirtualGPU:
		return 2
	case driver.DeviceTypeCPU:
		return 3
	case driver.DeviceTypeOther:
		return 4
	}
	return 5
}

// DeviceCandidate is an adapter that passed every suitability check.
type DeviceCandidate struct {
	Device     driver.PhysicalDevice
	Properties *driver.PhysicalDeviceProperties
	Families   QueueFamilyIndices
	Swapchain  *driver.SwapchainSupport
	Extensions map[string]struct{}
	Rank       int
}

// DeviceReport is the verdict for one enumerated adapter.
type DeviceReport struct {
	Index     int
	Candidate *DeviceCandidate
	Suitable  bool
	// Reason explains a rejection; empty for suitable adapters.
	Reason string
}

func (r DeviceReport) Name() string {
	if r.Candidate != nil && r.Candidate.Properties != nil {
		return r.Candidate.Properties.Name
	}
	return fmt.Sprintf("device %d", r.Index)
}

// RankDevices evaluates every adapter the instance exposes, in enumeration
// order.
func RankDevices(instance driver.Instance, surface driver.Surface, caps *Capabilities) ([]DeviceReport, error) {
	devices, err := instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, setupError(err, "enumerate physical devices")
	}

	reports := make([]DeviceReport, 0, len(devices))
	for idx, device := range devices {
		candidate, reason := evaluateDevice(device, surface, caps)
		reports = append(reports, DeviceReport{
			Index:     idx,
			Candidate: candidate,
			Suitable:  reason == "",
			Reason:    reason,
		})
	}
	return reports, nil
}

func evaluateDevice(device driver.PhysicalDevice, surface driver.Surface, caps *Capabilities) (*DeviceCandidate, string) {
	props, err := device.Properties()
	if err != nil {
		return nil, fmt.Sprintf("properties unavailable: %v", err)
	}
	candidate := &DeviceCandidate{
		Device:     device,
		Properties: props,
		Rank:       DeviceRank(props.Type),
	}

	candidate.Families, err = FindQueueFamilies(device, surface)
	if err != nil {
		return candidate, fmt.Sprintf("queue family query failed: %v", err)
	}
	if candidate.Families.Graphics == nil {
		return candidate, "no graphics queue family"
	}
	if candidate.Families.Present == nil {
		return candidate, "no queue family can present to the surface"
	}

	candidate.Extensions, err = device.AvailableExtensions()
	if err != nil {
		return candidate, fmt.Sprintf("extension query failed: %v", err)
	}
	for _, ext := range caps.DeviceExtensions() {
		if _, ok := candidate.Extensions[ext]; !ok {
			return candidate, fmt.Sprintf("missing device extension %s", ext)
		}
	}

	candidate.Swapchain, err = surface.SwapchainSupport(device)
	if err != nil {
		return candidate, fmt.Sprintf("swapchain query failed: %v", err)
	}
	if len(candidate.Swapchain.Formats) == 0 {
		return candidate, "surface reports no formats"
	}
	if len(candidate.Swapchain.PresentModes) == 0 {
		return candidate, "surface reports no present modes"
	}

	if !device.Features().SamplerAnisotropy {
		return candidate, "sampler anisotropy not supported"
	}

	return candidate, ""
}

// SelectPhysicalDevice returns the suitable adapter with the lowest rank.
// Ties keep enumeration order.
func SelectPhysicalDevice(instance driver.Instance, surface driver.Surface, caps *Capabilities, log logrus.FieldLogger) (*DeviceCandidate, error) {
	reports, err := RankDevices(instance, surface, caps)
	if err != nil {
		return nil, err
	}

	var best *DeviceCandidate
	for _, report := range reports {
		if !report.Suitable {
			log.WithFields(logrus.Fields{
				"device": report.Name(),
				"reason": report.Reason,
			}).Debug("physical device rejected")
			continue
		}
		if best == nil || report.Candidate.Rank < best.Rank {
			best = report.Candidate
		}
	}

	if best == nil {
		err := errors.WithHint(
			errors.Wrapf(ErrNoSuitableDevice, "%d adapters enumerated", len(reports)),
			"run `koyote devices` to see why each adapter was rejected")
		return nil, errors.Mark(err, ErrSetup)
	}

	log.WithFields(logrus.Fields{
		"device": best.Properties.Name,
		"type":   best.Properties.Type.String(),
	}).Info("physical device selected")
	return best, nil
}

// ProbeDevices ranks every adapter against a temporary instance and surface
// without creating a logical device. Everything it creates is destroyed
// before it returns.
func ProbeDevices(loader driver.Loader, window Window, log logrus.FieldLogger) ([]DeviceReport, error) {
	log = logging.Or(log, "gfx")
	caps, err := NegotiateCapabilities(loader, window, false, log)
	if err != nil {
		return nil, err
	}

	instance, err := loader.CreateInstance(driver.InstanceCreateInfo{
		ApplicationName:      "koyote-probe",
		EngineName:           "koyote",
		Extensions:           caps.InstanceExtensions(),
		EnumeratePortability: caps.EnumeratePortability(),
	})
	if err != nil {
		return nil, setupError(err, "create instance")
	}
	defer instance.Destroy()

	surface, err := window.CreateSurface(instance)
	if err != nil {
		return nil, setupError(err, "create window surface")
	}
	defer surface.Destroy()

	reports, err := RankDevices(instance, surface, caps)
	if err != nil {
		return nil, err
	}
	log.WithField("adapters", len(reports)).Debug("probed adapters")
	return reports, nil
}
