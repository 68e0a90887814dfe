// Package gfx owns the GPU device context and the memory-backed resources
// allocated from it.
package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
)

type Options struct {
	ApplicationName string
	EngineName      string
	// Validation requests the validation layer and the debug bridge.
	Validation bool
	// DebugGeneral also forwards general (non-validation) debug messages.
	DebugGeneral bool
	Logger       logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		ApplicationName: "koyote",
		EngineName:      "koyote",
		Validation:      DebugBuild,
	}
}

// RenderContext is the composition root for everything GPU side. It must
// be used from a single goroutine.
type RenderContext struct {
	log    logrus.FieldLogger
	window Window
	caps   *Capabilities

	instance      driver.Instance
	debug         *DebugBridge
	surface       driver.Surface
	physical      *DeviceCandidate
	device        *SharedDevice
	commandPool   driver.CommandPool
	graphicsQueue driver.Queue
	presentQueue  driver.Queue

	destroyed bool
}

// NewRenderContext negotiates capabilities, creates the instance, debug
// bridge, surface and logical device, and a command pool on the graphics
// family. Any failure releases what was already created and returns an
// error marked ErrSetup.
func NewRenderContext(loader driver.Loader, window Window, opts Options) (*RenderContext, error) {
	log := logging.Or(opts.Logger, "gfx")

	caps, err := NegotiateCapabilities(loader, window, opts.Validation, log)
	if err != nil {
		return nil, err
	}

	var rb rollback
	defer rb.run()

	instance, err := loader.CreateInstance(driver.InstanceCreateInfo{
		ApplicationName:      opts.ApplicationName,
		EngineName:           opts.EngineName,
		Layers:               caps.ValidationLayers(),
		Extensions:           caps.InstanceExtensions(),
		EnumeratePortability: caps.EnumeratePortability(),
	})
	if err != nil {
		return nil, setupError(err, "create instance")
	}
	rb.push(instance.Destroy)
	log.WithField("validation", caps.ValidationEnabled()).Trace("instance created")

	var debug *DebugBridge
	if caps.ValidationEnabled() && caps.debugUtilsEnabled() {
		debug, err = NewDebugBridge(instance, opts.DebugGeneral, log)
		if err != nil {
			log.WithError(err).Error("debug messenger unavailable, continuing without it")
			debug = nil
		} else {
			rb.push(debug.Destroy)
		}
	}

	surface, err := window.CreateSurface(instance)
	if err != nil {
		return nil, setupError(err, "create window surface")
	}
	rb.push(surface.Destroy)

	candidate, err := SelectPhysicalDevice(instance, surface, caps, log)
	if err != nil {
		return nil, err
	}

	device, err := createLogicalDevice(candidate, caps)
	if err != nil {
		return nil, err
	}
	rb.push(device.Destroy)

	graphicsFamily := *candidate.Families.Graphics
	presentFamily := *candidate.Families.Present

	pool, err := createCommandPool(device, graphicsFamily)
	if err != nil {
		return nil, err
	}

	ctx := &RenderContext{
		log:           log,
		window:        window,
		caps:          caps,
		instance:      instance,
		debug:         debug,
		surface:       surface,
		physical:      candidate,
		commandPool:   pool,
		graphicsQueue: device.Queue(graphicsFamily),
		presentQueue:  device.Queue(presentFamily),
	}
	ctx.device = newSharedDevice(device, ctx.teardown)
	rb.disarm()

	log.WithFields(logrus.Fields{
		"graphics_family": graphicsFamily,
		"present_family":  presentFamily,
	}).Debug("render context ready")
	return ctx, nil
}

// teardown runs when the last device reference goes away.
func (c *RenderContext) teardown() {
	if c.commandPool != nil {
		c.commandPool.Destroy()
		c.commandPool = nil
	}

	c.device.Device().Destroy()

	if c.debug != nil {
		c.debug.Destroy()
		c.debug = nil
	}

	if c.surface != nil {
		c.surface.Destroy()
		c.surface = nil
	}

	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}

	c.log.WithField("device", c.physical.Properties.Name).Trace("render context torn down")
}

// Destroy waits for the device to go idle and releases the context's own
// device reference. Native teardown happens once every resource created
// from the context has been destroyed too.
func (c *RenderContext) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true

	if err := c.device.Device().WaitIdle(); err != nil {
		c.log.WithError(err).Warn("wait idle before teardown failed")
	}
	c.device.Release()
}

// Device returns a new reference to the shared device. The caller must
// Release it.
func (c *RenderContext) Device() *SharedDevice {
	return c.device.Acquire()
}

// Destroyed reports whether Destroy has been called.
func (c *RenderContext) Destroyed() bool {
	return c.destroyed
}

func (c *RenderContext) Logger() logrus.FieldLogger {
	return c.log
}

func (c *RenderContext) Window() Window {
	return c.window
}

func (c *RenderContext) Capabilities() *Capabilities {
	return c.caps
}

func (c *RenderContext) ValidationEnabled() bool {
	return c.caps.ValidationEnabled()
}

// DebugEnabled reports whether a debug bridge is installed.
func (c *RenderContext) DebugEnabled() bool {
	return c.debug != nil
}

func (c *RenderContext) PhysicalDevice() driver.PhysicalDevice {
	return c.physical.Device
}

func (c *RenderContext) Properties() driver.PhysicalDeviceProperties {
	return *c.physical.Properties
}

func (c *RenderContext) QueueFamilies() QueueFamilyIndices {
	return c.physical.Families
}

func (c *RenderContext) SwapchainSupport() *driver.SwapchainSupport {
	return c.physical.Swapchain
}

func (c *RenderContext) Surface() driver.Surface {
	return c.surface
}

func (c *RenderContext) GraphicsQueue() driver.Queue {
	return c.graphicsQueue
}

func (c *RenderContext) PresentQueue() driver.Queue {
	return c.presentQueue
}

func (c *RenderContext) CommandPool() driver.CommandPool {
	return c.commandPool
}

// FindMemoryType scans the selected adapter's memory types.
func (c *RenderContext) FindMemoryType(typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	return FindMemoryType(c.physical.Device.MemoryTypes(), typeBits, properties)
}

func (c *RenderContext) WaitIdle() error {
	if c.destroyed {
		return ErrContextDestroyed
	}
	return c.device.Device().WaitIdle()
}

// BeginSingleTimeCommands allocates one primary command buffer and begins
// it for a single submission.
func (c *RenderContext) BeginSingleTimeCommands() (driver.CommandBuffer, error) {
	if c.destroyed {
		return nil, ErrContextDestroyed
	}

	device := c.device.Device()
	buffers, err := device.AllocateCommandBuffers(c.commandPool, 1)
	if err != nil {
		return nil, errors.Wrap(err, "allocate one-shot command buffer")
	}
	if len(buffers) != 1 {
		device.FreeCommandBuffers(buffers)
		return nil, errors.Newf("allocated %d command buffers, expected 1", len(buffers))
	}

	buffer := buffers[0]
	if err := buffer.Begin(core1_0.CommandBufferUsageOneTimeSubmit); err != nil {
		device.FreeCommandBuffers(buffers)
		return nil, errors.Wrap(err, "begin one-shot command buffer")
	}
	return buffer, nil
}

// EndSingleTimeCommands ends, submits and waits for buffer, then frees it.
// The buffer is freed on every path.
func (c *RenderContext) EndSingleTimeCommands(buffer driver.CommandBuffer) error {
	defer c.device.Device().FreeCommandBuffers([]driver.CommandBuffer{buffer})

	if err := buffer.End(); err != nil {
		return errors.Wrap(err, "end one-shot command buffer")
	}

	if err := c.graphicsQueue.Submit([]driver.CommandBuffer{buffer}); err != nil {
		return errors.Wrap(err, "submit one-shot command buffer")
	}

	if err := c.graphicsQueue.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for one-shot command buffer")
	}
	return nil
}

// IssueSingleTimeCommands records with record into a fresh command buffer
// and executes it synchronously on the graphics queue.
func (c *RenderContext) IssueSingleTimeCommands(record func(buffer driver.CommandBuffer) error) error {
	buffer, err := c.BeginSingleTimeCommands()
	if err != nil {
		return err
	}

	if err := record(buffer); err != nil {
		c.device.Device().FreeCommandBuffers([]driver.CommandBuffer{buffer})
		return errors.Wrap(err, "record one-shot command buffer")
	}

	return c.EndSingleTimeCommands(buffer)
}
