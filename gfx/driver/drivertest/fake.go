package drivertest

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// SurfaceExtensions is what Window reports as required by default.
var SurfaceExtensions = []string{khr_surface.ExtensionName, "VK_KHR_xlib_surface"}

// Loader is a fake driver.Loader. Devices are handed out by every instance
// it creates, in slice order.
type Loader struct {
	*Recorder

	Layers     []string
	Extensions []string
	Devices    []*PhysicalDevice

	// Instance is the most recent instance created.
	Instance *Instance
}

var _ driver.Loader = (*Loader)(nil)

// NewLoader returns a loader offering the validation layer, the debug utils
// extension, the default surface extensions and no physical devices.
func NewLoader(devices ...*PhysicalDevice) *Loader {
	extensions := append([]string{ext_debug_utils.ExtensionName}, SurfaceExtensions...)
	return &Loader{
		Recorder:   NewRecorder(),
		Layers:     []string{ValidationLayer},
		Extensions: extensions,
		Devices:    devices,
	}
}

func set(names []string) map[string]struct{} {
	result := make(map[string]struct{}, len(names))
	for _, name := range names {
		result[name] = struct{}{}
	}
	return result
}

func (l *Loader) AvailableLayers() (map[string]struct{}, error) {
	if err := l.call(OpAvailableLayers); err != nil {
		return nil, err
	}
	return set(l.Layers), nil
}

func (l *Loader) AvailableExtensions() (map[string]struct{}, error) {
	if err := l.call(OpAvailableExtensions); err != nil {
		return nil, err
	}
	return set(l.Extensions), nil
}

func (l *Loader) CreateInstance(info driver.InstanceCreateInfo) (driver.Instance, error) {
	if err := l.call(OpCreateInstance); err != nil {
		return nil, err
	}
	for _, device := range l.Devices {
		device.rec = l.Recorder
	}
	l.create(KindInstance)
	l.Instance = &Instance{rec: l.Recorder, Info: info, devices: l.Devices}
	return l.Instance, nil
}

type Instance struct {
	rec       *Recorder
	destroyed bool
	devices   []*PhysicalDevice

	Info      driver.InstanceCreateInfo
	Messenger *DebugMessenger
}

func (i *Instance) EnumeratePhysicalDevices() ([]driver.PhysicalDevice, error) {
	if err := i.rec.call(OpEnumerateDevices); err != nil {
		return nil, err
	}
	result := make([]driver.PhysicalDevice, 0, len(i.devices))
	for _, device := range i.devices {
		result = append(result, device)
	}
	return result, nil
}

func (i *Instance) CreateDebugMessenger(info driver.DebugMessengerCreateInfo) (driver.DebugMessenger, error) {
	if err := i.rec.call(OpCreateDebugMessenger); err != nil {
		return nil, err
	}
	i.rec.create(KindDebugMessenger)
	i.Messenger = &DebugMessenger{rec: i.rec, Info: info}
	return i.Messenger, nil
}

func (i *Instance) Destroy() {
	i.rec.destroy(KindInstance, &i.destroyed)
}

type DebugMessenger struct {
	rec       *Recorder
	destroyed bool

	Info driver.DebugMessengerCreateInfo
}

// Emit delivers msg to the registered callback if the messenger subscribed
// to its severity and type, as the native layer would.
func (m *DebugMessenger) Emit(msg driver.DebugMessage) (delivered, abort bool) {
	if m.destroyed || m.Info.Callback == nil {
		return false, false
	}
	if m.Info.Severities&msg.Severity == 0 || m.Info.Types&msg.Type == 0 {
		return false, false
	}
	return true, m.Info.Callback(msg)
}

func (m *DebugMessenger) Destroy() {
	m.rec.destroy(KindDebugMessenger, &m.destroyed)
}

// PhysicalDevice is a fake adapter. The zero value is unusable; start from
// NewPhysicalDevice and adjust fields.
type PhysicalDevice struct {
	rec *Recorder

	Props          driver.PhysicalDeviceProperties
	DeviceFeatures core1_0.PhysicalDeviceFeatures
	Families       []driver.QueueFamily
	// PresentFamilies lists the family indices the surface can present from.
	PresentFamilies map[int]bool
	Extensions      []string
	Memory          []driver.MemoryType
	Formats         map[core1_0.Format]driver.FormatProperties
	Swapchain       *driver.SwapchainSupport
	PropertiesErr   error

	// Device is the most recent logical device created.
	Device *Device
}

var _ driver.PhysicalDevice = (*PhysicalDevice)(nil)

// NewPhysicalDevice returns an adapter that passes every suitability check:
// one graphics+present family, swapchain extension, anisotropic sampling,
// a device-local and a host-visible coherent memory type, and a swapchain
// offering one format and FIFO.
func NewPhysicalDevice(name string, deviceType driver.DeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: driver.PhysicalDeviceProperties{
			Name:                 name,
			Type:                 deviceType,
			MaxSamplerAnisotropy: 16,
		},
		DeviceFeatures: core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true},
		Families: []driver.QueueFamily{
			{Flags: core1_0.QueueGraphics | core1_0.QueueTransfer, Count: 1},
		},
		PresentFamilies: map[int]bool{0: true},
		Extensions:      []string{khr_swapchain.ExtensionName},
		Memory: []driver.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		},
		Formats: map[core1_0.Format]driver.FormatProperties{},
		Swapchain: &driver.SwapchainSupport{
			Capabilities: &khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3},
			Formats: []khr_surface.SurfaceFormat{
				{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			},
			PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
		},
	}
}

func (p *PhysicalDevice) Properties() (*driver.PhysicalDeviceProperties, error) {
	if p.PropertiesErr != nil {
		return nil, p.PropertiesErr
	}
	props := p.Props
	return &props, nil
}

func (p *PhysicalDevice) Features() *core1_0.PhysicalDeviceFeatures {
	features := p.DeviceFeatures
	return &features
}

func (p *PhysicalDevice) QueueFamilies() []driver.QueueFamily {
	return append([]driver.QueueFamily(nil), p.Families...)
}

func (p *PhysicalDevice) AvailableExtensions() (map[string]struct{}, error) {
	return set(p.Extensions), nil
}

func (p *PhysicalDevice) MemoryTypes() []driver.MemoryType {
	return append([]driver.MemoryType(nil), p.Memory...)
}

func (p *PhysicalDevice) FormatProperties(format core1_0.Format) driver.FormatProperties {
	return p.Formats[format]
}

func (p *PhysicalDevice) CreateDevice(info driver.DeviceCreateInfo) (driver.Device, error) {
	if err := p.rec.call(OpCreateDevice); err != nil {
		return nil, err
	}
	p.rec.create(KindDevice)
	p.Device = &Device{
		rec:            p.rec,
		Info:           info,
		MemoryTypeBits: ^uint32(0),
		queues:         make(map[int]*Queue),
	}
	return p.Device, nil
}

// Device is a fake logical device. It keeps everything it was asked to build
// so tests can inspect it.
type Device struct {
	rec       *Recorder
	destroyed bool
	mu        sync.Mutex
	queues    map[int]*Queue

	Info driver.DeviceCreateInfo
	// MemoryTypeBits is reported in every memory requirement.
	MemoryTypeBits uint32

	CommandPoolFlags []core1_0.CommandPoolCreateFlags
	ShaderCode       [][]uint32
	Pipelines        []driver.GraphicsPipelineCreateInfo
	Allocations      []core1_0.MemoryAllocateInfo
	WaitIdleCalls    int
}

func (d *Device) Queue(family int) driver.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.queues[family]
	if !ok {
		q = &Queue{rec: d.rec, Family: family}
		d.queues[family] = q
	}
	return q
}

func (d *Device) CreateCommandPool(family int, flags core1_0.CommandPoolCreateFlags) (driver.CommandPool, error) {
	if err := d.rec.call(OpCreateCommandPool); err != nil {
		return nil, err
	}
	d.CommandPoolFlags = append(d.CommandPoolFlags, flags)
	d.rec.create(KindCommandPool)
	return &CommandPool{rec: d.rec, Family: family, Flags: flags}, nil
}

func (d *Device) AllocateCommandBuffers(pool driver.CommandPool, count int) ([]driver.CommandBuffer, error) {
	if err := d.rec.call(OpAllocateCommandBuffers); err != nil {
		return nil, err
	}
	if _, ok := pool.(*CommandPool); !ok {
		return nil, errors.Newf("unexpected command pool %T", pool)
	}
	buffers := make([]driver.CommandBuffer, 0, count)
	for range count {
		d.rec.create(KindCommandBuffer)
		buffers = append(buffers, &CommandBuffer{rec: d.rec})
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []driver.CommandBuffer) {
	for _, buffer := range buffers {
		if b, ok := buffer.(*CommandBuffer); ok {
			d.rec.destroy(KindCommandBuffer, &b.freed)
		}
	}
}

func (d *Device) CreateBuffer(info core1_0.BufferCreateInfo) (driver.Buffer, error) {
	if err := d.rec.call(OpCreateBuffer); err != nil {
		return nil, err
	}
	d.rec.create(KindBuffer)
	return &Buffer{rec: d.rec, Info: info, typeBits: d.MemoryTypeBits}, nil
}

func (d *Device) CreateImage(info core1_0.ImageCreateInfo) (driver.Image, error) {
	if err := d.rec.call(OpCreateImage); err != nil {
		return nil, err
	}
	d.rec.create(KindImage)
	return &Image{rec: d.rec, Info: info, typeBits: d.MemoryTypeBits}, nil
}

func (d *Device) AllocateMemory(info core1_0.MemoryAllocateInfo) (driver.DeviceMemory, error) {
	if err := d.rec.call(OpAllocateMemory); err != nil {
		return nil, err
	}
	d.Allocations = append(d.Allocations, info)
	d.rec.create(KindMemory)
	return &Memory{rec: d.rec, Info: info, Data: make([]byte, info.AllocationSize)}, nil
}

func (d *Device) CreateShaderModule(code []uint32) (driver.ShaderModule, error) {
	if err := d.rec.call(OpCreateShaderModule); err != nil {
		return nil, err
	}
	d.ShaderCode = append(d.ShaderCode, append([]uint32(nil), code...))
	d.rec.create(KindShaderModule)
	return &ShaderModule{rec: d.rec, Code: code}, nil
}

func (d *Device) CreatePipelineLayout(info driver.PipelineLayoutCreateInfo) (driver.PipelineLayout, error) {
	if err := d.rec.call(OpCreatePipelineLayout); err != nil {
		return nil, err
	}
	d.rec.create(KindPipelineLayout)
	return &PipelineLayout{rec: d.rec, Info: info}, nil
}

func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (driver.RenderPass, error) {
	if err := d.rec.call(OpCreateRenderPass); err != nil {
		return nil, err
	}
	d.rec.create(KindRenderPass)
	return &RenderPass{rec: d.rec, Info: info}, nil
}

func (d *Device) CreateGraphicsPipeline(info driver.GraphicsPipelineCreateInfo) (driver.Pipeline, error) {
	if err := d.rec.call(OpCreatePipeline); err != nil {
		return nil, err
	}
	d.Pipelines = append(d.Pipelines, info)
	d.rec.create(KindPipeline)
	return &Pipeline{rec: d.rec, Info: info}, nil
}

func (d *Device) WaitIdle() error {
	d.WaitIdleCalls++
	return nil
}

func (d *Device) Destroy() {
	d.rec.destroy(KindDevice, &d.destroyed)
}

type Queue struct {
	rec    *Recorder
	Family int

	Submitted     [][]driver.CommandBuffer
	WaitIdleCalls int
}

func (q *Queue) Submit(buffers []driver.CommandBuffer) error {
	if err := q.rec.call(OpSubmit); err != nil {
		return err
	}
	q.Submitted = append(q.Submitted, buffers)
	return nil
}

func (q *Queue) WaitIdle() error {
	if err := q.rec.call(OpQueueWaitIdle); err != nil {
		return err
	}
	q.WaitIdleCalls++
	return nil
}

type CommandPool struct {
	rec       *Recorder
	destroyed bool

	Family int
	Flags  core1_0.CommandPoolCreateFlags
}

func (p *CommandPool) Destroy() {
	p.rec.destroy(KindCommandPool, &p.destroyed)
}

// CommandBuffer records the commands issued into it by name.
type CommandBuffer struct {
	rec   *Recorder
	freed bool

	Began    bool
	Ended    bool
	Flags    core1_0.CommandBufferUsageFlags
	Commands []string
	Copies   []core1_0.BufferCopy
	Barriers []driver.ImageBarrier
}

func (c *CommandBuffer) Begin(flags core1_0.CommandBufferUsageFlags) error {
	if err := c.rec.call(OpBegin); err != nil {
		return err
	}
	c.Began = true
	c.Flags = flags
	return nil
}

func (c *CommandBuffer) End() error {
	if err := c.rec.call(OpEnd); err != nil {
		return err
	}
	c.Ended = true
	return nil
}

func (c *CommandBuffer) CmdCopyBuffer(src, dst driver.Buffer, regions []core1_0.BufferCopy) error {
	c.Commands = append(c.Commands, "copy_buffer")
	c.Copies = append(c.Copies, regions...)
	return nil
}

func (c *CommandBuffer) CmdCopyBufferToImage(src driver.Buffer, dst driver.Image, layout core1_0.ImageLayout, regions []core1_0.BufferImageCopy) error {
	c.Commands = append(c.Commands, "copy_buffer_to_image")
	return nil
}

func (c *CommandBuffer) CmdCopyImageToBuffer(src driver.Image, layout core1_0.ImageLayout, dst driver.Buffer, regions []core1_0.BufferImageCopy) error {
	c.Commands = append(c.Commands, "copy_image_to_buffer")
	return nil
}

func (c *CommandBuffer) CmdImageBarrier(srcStage, dstStage core1_0.PipelineStageFlags, barrier driver.ImageBarrier) error {
	c.Commands = append(c.Commands, "image_barrier")
	c.Barriers = append(c.Barriers, barrier)
	return nil
}

type Buffer struct {
	rec       *Recorder
	destroyed bool
	typeBits  uint32

	Info  core1_0.BufferCreateInfo
	Bound driver.DeviceMemory
}

func (b *Buffer) MemoryRequirements() driver.MemoryRequirements {
	return driver.MemoryRequirements{Size: b.Info.Size, MemoryTypeBits: b.typeBits}
}

func (b *Buffer) BindMemory(memory driver.DeviceMemory, offset int) error {
	if err := b.rec.call(OpBindMemory); err != nil {
		return err
	}
	b.Bound = memory
	return nil
}

func (b *Buffer) Destroy() {
	b.rec.destroy(KindBuffer, &b.destroyed)
}

type Image struct {
	rec       *Recorder
	destroyed bool
	typeBits  uint32

	Info  core1_0.ImageCreateInfo
	Bound driver.DeviceMemory
}

func (i *Image) MemoryRequirements() driver.MemoryRequirements {
	size := i.Info.Extent.Width * i.Info.Extent.Height * max(i.Info.Extent.Depth, 1) * max(i.Info.ArrayLayers, 1) * 4
	return driver.MemoryRequirements{Size: size, MemoryTypeBits: i.typeBits}
}

func (i *Image) BindMemory(memory driver.DeviceMemory, offset int) error {
	if err := i.rec.call(OpBindMemory); err != nil {
		return err
	}
	i.Bound = memory
	return nil
}

func (i *Image) Destroy() {
	i.rec.destroy(KindImage, &i.destroyed)
}

// Memory is host-backed; mapped writes land in Data.
type Memory struct {
	rec    *Recorder
	freed  bool
	mapped bool

	Info core1_0.MemoryAllocateInfo
	Data []byte
}

func (m *Memory) Map(offset, size int) (unsafe.Pointer, error) {
	if err := m.rec.call(OpMapMemory); err != nil {
		return nil, err
	}
	if offset < 0 || size <= 0 || offset+size > len(m.Data) {
		return nil, errors.Newf("map range [%d, %d) outside allocation of %d bytes", offset, offset+size, len(m.Data))
	}
	m.mapped = true
	return unsafe.Pointer(&m.Data[offset]), nil
}

func (m *Memory) Mapped() bool {
	return m.mapped
}

func (m *Memory) Unmap() {
	m.mapped = false
}

func (m *Memory) Free() {
	m.rec.destroy(KindMemory, &m.freed)
}

type ShaderModule struct {
	rec       *Recorder
	destroyed bool

	Code []uint32
}

func (s *ShaderModule) Destroy() {
	s.rec.destroy(KindShaderModule, &s.destroyed)
}

type PipelineLayout struct {
	rec       *Recorder
	destroyed bool

	Info driver.PipelineLayoutCreateInfo
}

func (l *PipelineLayout) Destroy() {
	l.rec.destroy(KindPipelineLayout, &l.destroyed)
}

type RenderPass struct {
	rec       *Recorder
	destroyed bool

	Info core1_0.RenderPassCreateInfo
}

func (r *RenderPass) Destroy() {
	r.rec.destroy(KindRenderPass, &r.destroyed)
}

type Pipeline struct {
	rec       *Recorder
	destroyed bool

	Info driver.GraphicsPipelineCreateInfo
}

func (p *Pipeline) Destroy() {
	p.rec.destroy(KindPipeline, &p.destroyed)
}
