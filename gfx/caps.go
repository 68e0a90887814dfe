package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

const (
	ValidationLayer = "VK_LAYER_KHRONOS_validation"

	// PortabilityEnumerationExtension lets the loader report portability
	// drivers such as MoltenVK. The pinned extensions module has no package
	// for it.
	PortabilityEnumerationExtension = "VK_KHR_portability_enumeration"
)

// Capabilities is the negotiated set of layers and extensions. It is built
// once per RenderContext and never changes afterwards; accessors return
// copies.
type Capabilities struct {
	validation           bool
	validationLayers     []string
	instanceExtensions   []string
	deviceExtensions     []string
	enumeratePortability bool
}

func (c *Capabilities) ValidationEnabled() bool {
	return c.validation
}

func (c *Capabilities) ValidationLayers() []string {
	return append([]string(nil), c.validationLayers...)
}

func (c *Capabilities) InstanceExtensions() []string {
	return append([]string(nil), c.instanceExtensions...)
}

// DeviceExtensions are required of every candidate adapter.
func (c *Capabilities) DeviceExtensions() []string {
	return append([]string(nil), c.deviceExtensions...)
}

func (c *Capabilities) EnumeratePortability() bool {
	return c.enumeratePortability
}

// deviceExtensionsFor appends the portability subset when the adapter offers
// it.
func (c *Capabilities) deviceExtensionsFor(available map[string]struct{}) []string {
	extensions := c.DeviceExtensions()
	if _, ok := available[khr_portability_subset.ExtensionName]; ok {
		extensions = appendUnique(extensions, khr_portability_subset.ExtensionName)
	}
	return extensions
}

// NegotiateCapabilities decides which layers and extensions to enable.
// Validation is only requested when debug is set, and is silently dropped
// (with an error log) if the host has no validation layer. A surface
// extension the window needs but the host lacks is a setup error.
func NegotiateCapabilities(loader driver.Loader, window Window, debug bool, log logrus.FieldLogger) (*Capabilities, error) {
	caps := &Capabilities{
		deviceExtensions: []string{khr_swapchain.ExtensionName},
	}

	if debug {
		layers, err := loader.AvailableLayers()
		if err != nil {
			return nil, setupError(err, "query instance layers")
		}
		if _, ok := layers[ValidationLayer]; ok {
			caps.validation = true
			caps.validationLayers = []string{ValidationLayer}
		} else {
			log.WithField("layer", ValidationLayer).
				Error("validation requested but layer not available, install the Vulkan SDK; continuing without validation")
		}
	}

	available, err := loader.AvailableExtensions()
	if err != nil {
		return nil, setupError(err, "query instance extensions")
	}

	for _, ext := range window.RequiredInstanceExtensions() {
		if _, ok := available[ext]; !ok {
			err := errors.WithHint(
				errors.Wrapf(ErrMissingExtension, "window surface extension %s", ext),
				"the Vulkan loader or display driver does not support this window system")
			return nil, errors.Mark(err, ErrSetup)
		}
		caps.instanceExtensions = appendUnique(caps.instanceExtensions, ext)
	}

	if caps.validation {
		if _, ok := available[ext_debug_utils.ExtensionName]; ok {
			caps.instanceExtensions = appendUnique(caps.instanceExtensions, ext_debug_utils.ExtensionName)
		} else {
			log.WithField("extension", ext_debug_utils.ExtensionName).
				Warn("debug utils extension not available, validation messages will not be logged")
		}
	}

	if _, ok := available[PortabilityEnumerationExtension]; ok {
		caps.instanceExtensions = appendUnique(caps.instanceExtensions, PortabilityEnumerationExtension)
		caps.enumeratePortability = true
	}

	log.WithFields(logrus.Fields{
		"validation":          caps.validation,
		"instance_extensions": caps.instanceExtensions,
		"device_extensions":   caps.deviceExtensions,
	}).Debug("capabilities negotiated")

	return caps, nil
}

func (c *Capabilities) debugUtilsEnabled() bool {
	for _, ext := range c.instanceExtensions {
		if ext == ext_debug_utils.ExtensionName {
			return true
		}
	}
	return false
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
