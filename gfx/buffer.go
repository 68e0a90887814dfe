package gfx

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
)

// Buffer is a native buffer with its own bound memory allocation.
type Buffer struct {
	ctx    *RenderContext
	device *SharedDevice

	buffer     driver.Buffer
	memory     driver.DeviceMemory
	size       int
	usage      core1_0.BufferUsageFlags
	properties core1_0.MemoryPropertyFlags
}

// NewBuffer creates a buffer of size bytes, allocates memory of the first
// type matching properties and binds it. On failure nothing is left
// allocated and the error is marked ErrResource.
func NewBuffer(ctx *RenderContext, size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	if size <= 0 {
		return nil, resourceError(errors.Newf("invalid size %d", size), "create buffer")
	}
	if ctx.destroyed {
		return nil, resourceError(ErrContextDestroyed, "create buffer")
	}

	shared := ctx.Device()
	device := shared.Device()

	var rb rollback
	defer rb.run()
	rb.push(shared.Release)

	buffer, err := device.CreateBuffer(core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, resourceError(err, "create buffer of %d bytes", size)
	}
	rb.push(buffer.Destroy)

	memory, err := allocateFor(ctx, device, buffer.MemoryRequirements(), properties)
	if err != nil {
		return nil, resourceError(err, "allocate buffer memory")
	}
	rb.push(memory.Free)

	if err := buffer.BindMemory(memory, 0); err != nil {
		return nil, resourceError(err, "bind buffer memory")
	}

	rb.disarm()
	return &Buffer{
		ctx:        ctx,
		device:     shared,
		buffer:     buffer,
		memory:     memory,
		size:       size,
		usage:      usage,
		properties: properties,
	}, nil
}

func allocateFor(ctx *RenderContext, device driver.Device, reqs driver.MemoryRequirements, properties core1_0.MemoryPropertyFlags) (driver.DeviceMemory, error) {
	memoryTypeIndex, err := ctx.FindMemoryType(reqs.MemoryTypeBits, properties)
	if err != nil {
		return nil, err
	}

	return device.AllocateMemory(core1_0.MemoryAllocateInfo{
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
}

// NewStagedBuffer uploads data into a new device-local buffer through a
// temporary host-visible staging buffer. usage gets TransferDst added.
func NewStagedBuffer(ctx *RenderContext, data any, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	size := binary.Size(data)
	if size <= 0 {
		return nil, resourceError(errors.Newf("data of type %T has no fixed size", data), "create staged buffer")
	}

	staging, err := NewBuffer(ctx, size, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.Write(0, data); err != nil {
		return nil, err
	}

	buffer, err := NewBuffer(ctx, size, usage|core1_0.BufferUsageTransferDst, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	if err := staging.CopyToBuffer(buffer); err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

func (b *Buffer) Handle() driver.Buffer {
	return b.buffer
}

func (b *Buffer) Memory() driver.DeviceMemory {
	return b.memory
}

func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Usage() core1_0.BufferUsageFlags {
	return b.usage
}

// Write encodes data at offset through a host mapping. The buffer must
// have been created host visible.
func (b *Buffer) Write(offset int, data any) error {
	if b.buffer == nil {
		return resourceError(errors.New("buffer destroyed"), "write buffer")
	}
	if b.properties&core1_0.MemoryPropertyHostVisible == 0 {
		return resourceError(errors.New("memory is not host visible"), "write buffer")
	}
	size := binary.Size(data)
	if size < 0 || offset < 0 || offset+size > b.size {
		return resourceError(errors.Newf("write of %d bytes at %d exceeds buffer of %d bytes", size, offset, b.size), "write buffer")
	}
	if err := writeData(b.memory, offset, data); err != nil {
		return resourceError(err, "write buffer")
	}
	return nil
}

// CopyToBuffer copies the whole buffer into dst and waits for completion.
func (b *Buffer) CopyToBuffer(dst *Buffer) error {
	if dst.size < b.size {
		return resourceError(errors.Newf("destination holds %d bytes, source %d", dst.size, b.size), "copy buffer")
	}

	err := b.ctx.IssueSingleTimeCommands(func(cmd driver.CommandBuffer) error {
		return cmd.CmdCopyBuffer(b.buffer, dst.buffer, []core1_0.BufferCopy{
			{
				SrcOffset: 0,
				DstOffset: 0,
				Size:      b.size,
			},
		})
	})
	if err != nil {
		return resourceError(err, "copy buffer")
	}
	return nil
}

// CopyToImage copies tightly packed texel data into every layer of img,
// which must be in the transfer destination layout.
func (b *Buffer) CopyToImage(img *Image) error {
	err := b.ctx.IssueSingleTimeCommands(func(cmd driver.CommandBuffer) error {
		return cmd.CmdCopyBufferToImage(b.buffer, img.image, core1_0.ImageLayoutTransferDstOptimal, []core1_0.BufferImageCopy{
			{
				BufferOffset:      0,
				BufferRowLength:   0,
				BufferImageHeight: 0,

				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     img.aspect(),
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     img.layers,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: img.extent,
			},
		})
	})
	if err != nil {
		return resourceError(err, "copy buffer to image")
	}
	return nil
}

// Destroy releases the buffer and its memory together. Calling it again is
// a no-op.
func (b *Buffer) Destroy() {
	if b.buffer == nil {
		return
	}
	b.buffer.Destroy()
	b.memory.Free()
	b.buffer = nil
	b.memory = nil
	b.device.Release()
}
