// Package vkng implements gfx/driver on top of vkngwrapper.
package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
)

type Loader struct {
	loader core.Loader
}

var _ driver.Loader = (*Loader)(nil)

// NewLoader builds a loader from a vkGetInstanceProcAddr pointer, usually
// sdl.VulkanGetVkGetInstanceProcAddr().
func NewLoader(procAddr unsafe.Pointer) (*Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "create loader")
	}
	return &Loader{loader: loader}, nil
}

func (l *Loader) AvailableLayers() (map[string]struct{}, error) {
	layers, _, err := l.loader.AvailableLayers()
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(layers))
	for name := range layers {
		names[name] = struct{}{}
	}
	return names, nil
}

func (l *Loader) AvailableExtensions() (map[string]struct{}, error) {
	extensions, _, err := l.loader.AvailableExtensions()
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
const instanceCreateEnumeratePortability core1_0.InstanceCreateFlags = 0x00000001

func (l *Loader) CreateInstance(info driver.InstanceCreateInfo) (driver.Instance, error) {
	options := core1_0.InstanceCreateInfo{
		ApplicationName:       info.ApplicationName,
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            info.EngineName,
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_2,
		EnabledExtensionNames: info.Extensions,
		EnabledLayerNames:     info.Layers,
	}
	if info.EnumeratePortability {
		options.Flags |= instanceCreateEnumeratePortability
	}

	instance, _, err := l.loader.CreateInstance(nil, options)
	if err != nil {
		return nil, err
	}
	return &Instance{instance: instance}, nil
}

type Instance struct {
	instance core1_0.Instance
}

var _ driver.Instance = (*Instance)(nil)

// Native exposes the wrapped handle to window integrations that need to
// create a surface.
func (i *Instance) Native() core1_0.Instance {
	return i.instance
}

func (i *Instance) EnumeratePhysicalDevices() ([]driver.PhysicalDevice, error) {
	devices, _, err := i.instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, err
	}
	result := make([]driver.PhysicalDevice, 0, len(devices))
	for _, device := range devices {
		result = append(result, &PhysicalDevice{device: device})
	}
	return result, nil
}

func (i *Instance) CreateDebugMessenger(info driver.DebugMessengerCreateInfo) (driver.DebugMessenger, error) {
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(i.instance)
	if debugLoader == nil {
		return nil, errors.Newf("extension %s not loaded", ext_debug_utils.ExtensionName)
	}

	callback := info.Callback
	messenger, _, err := debugLoader.CreateDebugUtilsMessenger(i.instance, nil, ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: toNativeSeverity(info.Severities),
		MessageType:     toNativeMessageType(info.Types),
		UserCallback: func(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			if callback == nil || data == nil {
				return false
			}
			return callback(driver.DebugMessage{
				Severity: fromNativeSeverity(severity),
				Type:     fromNativeMessageType(msgType),
				Message:  data.Message,
			})
		},
	})
	if err != nil {
		return nil, err
	}
	return &debugMessenger{messenger: messenger}, nil
}

func (i *Instance) Destroy() {
	i.instance.Destroy(nil)
}

type debugMessenger struct {
	messenger ext_debug_utils.DebugUtilsMessenger
}

func (m *debugMessenger) Destroy() {
	m.messenger.Destroy(nil)
}

func toNativeSeverity(s driver.DebugSeverity) ext_debug_utils.DebugUtilsMessageSeverityFlags {
	var flags ext_debug_utils.DebugUtilsMessageSeverityFlags
	if s&driver.SeverityVerbose != 0 {
		flags |= ext_debug_utils.SeverityVerbose
	}
	if s&driver.SeverityInfo != 0 {
		flags |= ext_debug_utils.SeverityInfo
	}
	if s&driver.SeverityWarning != 0 {
		flags |= ext_debug_utils.SeverityWarning
	}
	if s&driver.SeverityError != 0 {
		flags |= ext_debug_utils.SeverityError
	}
	return flags
}

func fromNativeSeverity(flags ext_debug_utils.DebugUtilsMessageSeverityFlags) driver.DebugSeverity {
	var s driver.DebugSeverity
	if flags&ext_debug_utils.SeverityVerbose != 0 {
		s |= driver.SeverityVerbose
	}
	if flags&ext_debug_utils.SeverityInfo != 0 {
		s |= driver.SeverityInfo
	}
	if flags&ext_debug_utils.SeverityWarning != 0 {
		s |= driver.SeverityWarning
	}
	if flags&ext_debug_utils.SeverityError != 0 {
		s |= driver.SeverityError
	}
	return s
}

func toNativeMessageType(t driver.DebugMessageType) ext_debug_utils.DebugUtilsMessageTypeFlags {
	var flags ext_debug_utils.DebugUtilsMessageTypeFlags
	if t&driver.MessageTypeGeneral != 0 {
		flags |= ext_debug_utils.TypeGeneral
	}
	if t&driver.MessageTypeValidation != 0 {
		flags |= ext_debug_utils.TypeValidation
	}
	if t&driver.MessageTypePerformance != 0 {
		flags |= ext_debug_utils.TypePerformance
	}
	return flags
}

func fromNativeMessageType(flags ext_debug_utils.DebugUtilsMessageTypeFlags) driver.DebugMessageType {
	var t driver.DebugMessageType
	if flags&ext_debug_utils.TypeGeneral != 0 {
		t |= driver.MessageTypeGeneral
	}
	if flags&ext_debug_utils.TypeValidation != 0 {
		t |= driver.MessageTypeValidation
	}
	if flags&ext_debug_utils.TypePerformance != 0 {
		t |= driver.MessageTypePerformance
	}
	return t
}
