// Package driver declares the slice of the native GPU API that the rendering
// core consumes. The production implementation lives in driver/vkng; tests
// use the in-memory fake in driver/drivertest.
//
// Value types are shared with vkngwrapper's core1_0 and khr_surface packages
// wherever those are plain data. Objects that own a native handle are
// interfaces here so that they can be faked.
package driver

import (
	"unsafe"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// Loader is the entry point into the native API.
type Loader interface {
	AvailableLayers() (map[string]struct{}, error)
	AvailableExtensions() (map[string]struct{}, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
}

type InstanceCreateInfo struct {
	ApplicationName string
	EngineName      string
	Layers          []string
	Extensions      []string

	// EnumeratePortability sets the portability enumeration flag. Only valid
	// when the portability enumeration extension is in Extensions.
	EnumeratePortability bool
}

type Instance interface {
	EnumeratePhysicalDevices() ([]PhysicalDevice, error)
	CreateDebugMessenger(info DebugMessengerCreateInfo) (DebugMessenger, error)
	Destroy()
}

// DeviceType mirrors the native physical device type enumeration.
type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeOther:
		return "other"
	case DeviceTypeIntegratedGPU:
		return "integrated GPU"
	case DeviceTypeDiscreteGPU:
		return "discrete GPU"
	case DeviceTypeVirtualGPU:
		return "virtual GPU"
	case DeviceTypeCPU:
		return "CPU"
	}
	return "unknown"
}

type PhysicalDeviceProperties struct {
	Name                 string
	Type                 DeviceType
	MaxSamplerAnisotropy float32
}

type QueueFamily struct {
	Flags core1_0.QueueFlags
	Count int
}

type MemoryType struct {
	PropertyFlags core1_0.MemoryPropertyFlags
}

type FormatProperties struct {
	LinearTilingFeatures  core1_0.FormatFeatureFlags
	OptimalTilingFeatures core1_0.FormatFeatureFlags
}

type PhysicalDevice interface {
	Properties() (*PhysicalDeviceProperties, error)
	Features() *core1_0.PhysicalDeviceFeatures
	QueueFamilies() []QueueFamily
	AvailableExtensions() (map[string]struct{}, error)
	MemoryTypes() []MemoryType
	FormatProperties(format core1_0.Format) FormatProperties
	CreateDevice(info DeviceCreateInfo) (Device, error)
}

type DeviceCreateInfo struct {
	// QueueFamilies holds one entry per distinct family; one queue with
	// priority 1.0 is created for each.
	QueueFamilies []int
	Features      *core1_0.PhysicalDeviceFeatures
	Extensions    []string
	Layers        []string
}

type Device interface {
	Queue(family int) Queue
	CreateCommandPool(family int, flags core1_0.CommandPoolCreateFlags) (CommandPool, error)
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	CreateBuffer(info core1_0.BufferCreateInfo) (Buffer, error)
	CreateImage(info core1_0.ImageCreateInfo) (Image, error)
	AllocateMemory(info core1_0.MemoryAllocateInfo) (DeviceMemory, error)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	CreatePipelineLayout(info PipelineLayoutCreateInfo) (PipelineLayout, error)
	CreateRenderPass(info core1_0.RenderPassCreateInfo) (RenderPass, error)
	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (Pipeline, error)

	WaitIdle() error
	Destroy()
}

type Queue interface {
	Submit(buffers []CommandBuffer) error
	WaitIdle() error
}

type CommandPool interface {
	Destroy()
}

// ImageBarrier describes a single-image layout transition over the color
// or depth aspect of every layer.
type ImageBarrier struct {
	Image         Image
	OldLayout     core1_0.ImageLayout
	NewLayout     core1_0.ImageLayout
	SrcAccessMask core1_0.AccessFlags
	DstAccessMask core1_0.AccessFlags
	AspectMask    core1_0.ImageAspectFlags
	LayerCount    int
}

type CommandBuffer interface {
	Begin(flags core1_0.CommandBufferUsageFlags) error
	End() error
	CmdCopyBuffer(src, dst Buffer, regions []core1_0.BufferCopy) error
	CmdCopyBufferToImage(src Buffer, dst Image, layout core1_0.ImageLayout, regions []core1_0.BufferImageCopy) error
	CmdCopyImageToBuffer(src Image, layout core1_0.ImageLayout, dst Buffer, regions []core1_0.BufferImageCopy) error
	CmdImageBarrier(srcStage, dstStage core1_0.PipelineStageFlags, barrier ImageBarrier) error
}

type MemoryRequirements struct {
	Size           int
	MemoryTypeBits uint32
}

type Buffer interface {
	MemoryRequirements() MemoryRequirements
	BindMemory(memory DeviceMemory, offset int) error
	Destroy()
}

type Image interface {
	MemoryRequirements() MemoryRequirements
	BindMemory(memory DeviceMemory, offset int) error
	Destroy()
}

type DeviceMemory interface {
	Map(offset, size int) (unsafe.Pointer, error)
	Unmap()
	Free()
}

type ShaderModule interface {
	Destroy()
}

type PipelineLayoutCreateInfo struct {
	PushConstantRanges []core1_0.PushConstantRange
}

type PipelineLayout interface {
	Destroy()
}

type RenderPass interface {
	Destroy()
}

type Pipeline interface {
	Destroy()
}

type ShaderStage struct {
	Stage      core1_0.ShaderStageFlags
	Module     ShaderModule
	EntryPoint string
}

type GraphicsPipelineCreateInfo struct {
	Stages        []ShaderStage
	VertexInput   *core1_0.PipelineVertexInputStateCreateInfo
	InputAssembly *core1_0.PipelineInputAssemblyStateCreateInfo
	Viewport      *core1_0.PipelineViewportStateCreateInfo
	Rasterization *core1_0.PipelineRasterizationStateCreateInfo
	Multisample   *core1_0.PipelineMultisampleStateCreateInfo
	DepthStencil  *core1_0.PipelineDepthStencilStateCreateInfo
	ColorBlend    *core1_0.PipelineColorBlendStateCreateInfo
	Layout        PipelineLayout
	RenderPass    RenderPass
	Subpass       int
}

// SwapchainSupport is what a surface reports for one physical device.
type SwapchainSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether a swapchain could be built at all.
func (s *SwapchainSupport) Adequate() bool {
	return s != nil && len(s.Formats) > 0 && len(s.PresentModes) > 0
}

type Surface interface {
	SupportsPresent(device PhysicalDevice, family int) (bool, error)
	SwapchainSupport(device PhysicalDevice) (*SwapchainSupport, error)
	Destroy()
}
