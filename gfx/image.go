package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
)

// ImageCreateInfo describes a single-mip image.
type ImageCreateInfo struct {
	Width, Height int
	// Layers defaults to 1.
	Layers int
	Format core1_0.Format
	Tiling core1_0.ImageTiling
	Usage  core1_0.ImageUsageFlags
}

// Image is a native image with its own bound memory allocation.
type Image struct {
	ctx    *RenderContext
	device *SharedDevice

	image  driver.Image
	memory driver.DeviceMemory
	extent core1_0.Extent3D
	format core1_0.Format
	layers int
	layout core1_0.ImageLayout
}

// NewImage creates an image, allocates memory of the first type matching
// properties and binds it. A bind failure destroys the image and frees the
// memory before returning. Errors are marked ErrResource.
func NewImage(ctx *RenderContext, info ImageCreateInfo, properties core1_0.MemoryPropertyFlags) (*Image, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, resourceError(errors.Newf("invalid extent %dx%d", info.Width, info.Height), "create image")
	}
	if info.Layers <= 0 {
		info.Layers = 1
	}
	if ctx.destroyed {
		return nil, resourceError(ErrContextDestroyed, "create image")
	}

	shared := ctx.Device()
	device := shared.Device()

	var rb rollback
	defer rb.run()
	rb.push(shared.Release)

	extent := core1_0.Extent3D{Width: info.Width, Height: info.Height, Depth: 1}
	image, err := device.CreateImage(core1_0.ImageCreateInfo{
		ImageType:     core1_0.ImageType2D,
		Extent:        extent,
		MipLevels:     1,
		ArrayLayers:   info.Layers,
		Format:        info.Format,
		Tiling:        info.Tiling,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         info.Usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, resourceError(err, "create image %dx%d", info.Width, info.Height)
	}
	rb.push(image.Destroy)

	memory, err := allocateFor(ctx, device, image.MemoryRequirements(), properties)
	if err != nil {
		return nil, resourceError(err, "allocate image memory")
	}
	rb.push(memory.Free)

	if err := image.BindMemory(memory, 0); err != nil {
		return nil, resourceError(err, "bind image memory")
	}

	rb.disarm()
	return &Image{
		ctx:    ctx,
		device: shared,
		image:  image,
		memory: memory,
		extent: extent,
		format: info.Format,
		layers: info.Layers,
		layout: core1_0.ImageLayoutUndefined,
	}, nil
}

func (i *Image) Handle() driver.Image {
	return i.image
}

func (i *Image) Memory() driver.DeviceMemory {
	return i.memory
}

func (i *Image) Extent() core1_0.Extent3D {
	return i.extent
}

func (i *Image) Format() core1_0.Format {
	return i.format
}

func (i *Image) Layers() int {
	return i.layers
}

// Layout is the layout recorded by the last TransitionLayout.
func (i *Image) Layout() core1_0.ImageLayout {
	return i.layout
}

func (i *Image) aspect() core1_0.ImageAspectFlags {
	switch i.format {
	case core1_0.FormatD32SignedFloat:
		return core1_0.ImageAspectDepth
	case core1_0.FormatD32SignedFloatS8UnsignedInt, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt:
		return core1_0.ImageAspectDepth | core1_0.ImageAspectStencil
	}
	return core1_0.ImageAspectColor
}

// TransitionLayout records and waits for a layout barrier. Supported
// transitions: undefined to transfer destination, transfer destination to
// shader read or transfer source, and undefined to depth attachment.
func (i *Image) TransitionLayout(oldLayout, newLayout core1_0.ImageLayout) error {
	var sourceStage, destStage core1_0.PipelineStageFlags
	var sourceAccess, destAccess core1_0.AccessFlags

	switch {
	case oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutTransferDstOptimal:
		sourceAccess = 0
		destAccess = core1_0.AccessTransferWrite
		sourceStage = core1_0.PipelineStageTopOfPipe
		destStage = core1_0.PipelineStageTransfer
	case oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutShaderReadOnlyOptimal:
		sourceAccess = core1_0.AccessTransferWrite
		destAccess = core1_0.AccessShaderRead
		sourceStage = core1_0.PipelineStageTransfer
		destStage = core1_0.PipelineStageFragmentShader
	case oldLayout == core1_0.ImageLayoutTransferDstOptimal && newLayout == core1_0.ImageLayoutTransferSrcOptimal:
		sourceAccess = core1_0.AccessTransferWrite
		destAccess = core1_0.AccessTransferRead
		sourceStage = core1_0.PipelineStageTransfer
		destStage = core1_0.PipelineStageTransfer
	case oldLayout == core1_0.ImageLayoutUndefined && newLayout == core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		sourceAccess = 0
		destAccess = core1_0.AccessDepthStencilAttachmentRead | core1_0.AccessDepthStencilAttachmentWrite
		sourceStage = core1_0.PipelineStageTopOfPipe
		destStage = core1_0.PipelineStageEarlyFragmentTests
	default:
		return resourceError(errors.Newf("unexpected layout transition: %s -> %s", oldLayout, newLayout), "transition image layout")
	}

	err := i.ctx.IssueSingleTimeCommands(func(cmd driver.CommandBuffer) error {
		return cmd.CmdImageBarrier(sourceStage, destStage, driver.ImageBarrier{
			Image:         i.image,
			OldLayout:     oldLayout,
			NewLayout:     newLayout,
			SrcAccessMask: sourceAccess,
			DstAccessMask: destAccess,
			AspectMask:    i.aspect(),
			LayerCount:    i.layers,
		})
	})
	if err != nil {
		return resourceError(err, "transition image layout")
	}
	i.layout = newLayout
	return nil
}

// CopyToBuffer reads every layer of the image, which must be in the
// transfer source layout, into dst and waits for completion.
func (i *Image) CopyToBuffer(dst *Buffer) error {
	err := i.ctx.IssueSingleTimeCommands(func(cmd driver.CommandBuffer) error {
		return cmd.CmdCopyImageToBuffer(i.image, core1_0.ImageLayoutTransferSrcOptimal, dst.buffer, []core1_0.BufferImageCopy{
			{
				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     i.aspect(),
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     i.layers,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: i.extent,
			},
		})
	})
	if err != nil {
		return resourceError(err, "copy image to buffer")
	}
	return nil
}

// Destroy releases the image and its memory together. Calling it again is a
// no-op.
func (i *Image) Destroy() {
	if i.image == nil {
		return
	}
	i.image.Destroy()
	i.memory.Free()
	i.image = nil
	i.memory = nil
	i.device.Release()
}
