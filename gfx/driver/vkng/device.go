package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
)

type PhysicalDevice struct {
	device core1_0.PhysicalDevice
}

var _ driver.PhysicalDevice = (*PhysicalDevice)(nil)

func (p *PhysicalDevice) Native() core1_0.PhysicalDevice {
	return p.device
}

func (p *PhysicalDevice) Properties() (*driver.PhysicalDeviceProperties, error) {
	props, err := p.device.Properties()
	if err != nil {
		return nil, err
	}

	result := &driver.PhysicalDeviceProperties{
		Name: props.DriverName,
		Type: deviceType(props.DriverType),
	}
	if props.Limits != nil {
		result.MaxSamplerAnisotropy = props.Limits.MaxSamplerAnisotropy
	}
	return result, nil
}

func deviceType(t core1_0.PhysicalDeviceType) driver.DeviceType {
	switch t {
	case core1_0.PhysicalDeviceTypeIntegratedGPU:
		return driver.DeviceTypeIntegratedGPU
	case core1_0.PhysicalDeviceTypeDiscreteGPU:
		return driver.DeviceTypeDiscreteGPU
	case core1_0.PhysicalDeviceTypeVirtualGPU:
		return driver.DeviceTypeVirtualGPU
	case core1_0.PhysicalDeviceTypeCPU:
		return driver.DeviceTypeCPU
	case core1_0.PhysicalDeviceTypeOther:
		return driver.DeviceTypeOther
	}
	return driver.DeviceType(-1)
}

func (p *PhysicalDevice) Features() *core1_0.PhysicalDeviceFeatures {
	return p.device.Features()
}

func (p *PhysicalDevice) QueueFamilies() []driver.QueueFamily {
	props := p.device.QueueFamilyProperties()
	families := make([]driver.QueueFamily, 0, len(props))
	for _, family := range props {
		families = append(families, driver.QueueFamily{
			Flags: family.QueueFlags,
			Count: family.QueueCount,
		})
	}
	return families
}

func (p *PhysicalDevice) AvailableExtensions() (map[string]struct{}, error) {
	extensions, _, err := p.device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (p *PhysicalDevice) MemoryTypes() []driver.MemoryType {
	memProperties := p.device.MemoryProperties()
	types := make([]driver.MemoryType, 0, len(memProperties.MemoryTypes))
	for _, memoryType := range memProperties.MemoryTypes {
		types = append(types, driver.MemoryType{PropertyFlags: memoryType.PropertyFlags})
	}
	return types
}

func (p *PhysicalDevice) FormatProperties(format core1_0.Format) driver.FormatProperties {
	props := p.device.FormatProperties(format)
	return driver.FormatProperties{
		LinearTilingFeatures:  props.LinearTilingFeatures,
		OptimalTilingFeatures: props.OptimalTilingFeatures,
	}
}

func (p *PhysicalDevice) CreateDevice(info driver.DeviceCreateInfo) (driver.Device, error) {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range info.QueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	device, _, err := p.device.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       info.Features,
		EnabledExtensionNames: info.Extensions,
		EnabledLayerNames:     info.Layers,
	})
	if err != nil {
		return nil, err
	}
	return &Device{device: device}, nil
}

type Device struct {
	device core1_0.Device
}

var _ driver.Device = (*Device)(nil)

func (d *Device) Queue(family int) driver.Queue {
	return &queue{queue: d.device.GetQueue(family, 0)}
}

func (d *Device) CreateCommandPool(family int, flags core1_0.CommandPoolCreateFlags) (driver.CommandPool, error) {
	pool, _, err := d.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            flags,
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, err
	}
	return &commandPool{pool: pool}, nil
}

func (d *Device) AllocateCommandBuffers(pool driver.CommandPool, count int) ([]driver.CommandBuffer, error) {
	p, ok := pool.(*commandPool)
	if !ok {
		return nil, errors.Newf("command pool %T was not created by this driver", pool)
	}

	buffers, _, err := d.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	result := make([]driver.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		result = append(result, &commandBuffer{buffer: buffer})
	}
	return result, nil
}

func (d *Device) FreeCommandBuffers(buffers []driver.CommandBuffer) {
	native := nativeCommandBuffers(buffers)
	if len(native) == 0 {
		return
	}
	d.device.FreeCommandBuffers(native)
}

func (d *Device) WaitIdle() error {
	_, err := d.device.WaitIdle()
	return err
}

func (d *Device) Destroy() {
	d.device.Destroy(nil)
}

type queue struct {
	queue core1_0.Queue
}

func (q *queue) Submit(buffers []driver.CommandBuffer) error {
	_, err := q.queue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: nativeCommandBuffers(buffers),
		},
	})
	return err
}

func (q *queue) WaitIdle() error {
	_, err := q.queue.WaitIdle()
	return err
}

type commandPool struct {
	pool core1_0.CommandPool
}

func (p *commandPool) Destroy() {
	p.pool.Destroy(nil)
}

func nativeCommandBuffers(buffers []driver.CommandBuffer) []core1_0.CommandBuffer {
	native := make([]core1_0.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		if b, ok := buffer.(*commandBuffer); ok {
			native = append(native, b.buffer)
		}
	}
	return native
}

type commandBuffer struct {
	buffer core1_0.CommandBuffer
}

func (c *commandBuffer) Begin(flags core1_0.CommandBufferUsageFlags) error {
	_, err := c.buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: flags,
	})
	return err
}

func (c *commandBuffer) End() error {
	_, err := c.buffer.End()
	return err
}

func (c *commandBuffer) CmdCopyBuffer(src, dst driver.Buffer, regions []core1_0.BufferCopy) error {
	srcBuffer, err := nativeBuffer(src)
	if err != nil {
		return err
	}
	dstBuffer, err := nativeBuffer(dst)
	if err != nil {
		return err
	}
	return c.buffer.CmdCopyBuffer(srcBuffer, dstBuffer, regions)
}

func (c *commandBuffer) CmdCopyBufferToImage(src driver.Buffer, dst driver.Image, layout core1_0.ImageLayout, regions []core1_0.BufferImageCopy) error {
	srcBuffer, err := nativeBuffer(src)
	if err != nil {
		return err
	}
	dstImage, err := nativeImage(dst)
	if err != nil {
		return err
	}
	return c.buffer.CmdCopyBufferToImage(srcBuffer, dstImage, layout, regions)
}

func (c *commandBuffer) CmdCopyImageToBuffer(src driver.Image, layout core1_0.ImageLayout, dst driver.Buffer, regions []core1_0.BufferImageCopy) error {
	srcImage, err := nativeImage(src)
	if err != nil {
		return err
	}
	dstBuffer, err := nativeBuffer(dst)
	if err != nil {
		return err
	}
	return c.buffer.CmdCopyImageToBuffer(srcImage, layout, dstBuffer, regions)
}

func (c *commandBuffer) CmdImageBarrier(srcStage, dstStage core1_0.PipelineStageFlags, barrier driver.ImageBarrier) error {
	image, err := nativeImage(barrier.Image)
	if err != nil {
		return err
	}

	return c.buffer.CmdPipelineBarrier(srcStage, dstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           barrier.OldLayout,
			NewLayout:           barrier.NewLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     barrier.AspectMask,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     barrier.LayerCount,
			},
			SrcAccessMask: barrier.SrcAccessMask,
			DstAccessMask: barrier.DstAccessMask,
		},
	})
}
