package gfx

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/koyote-engine/koyote/gfx/driver/drivertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/core1_0"
)

func textureInfo() ImageCreateInfo {
	return ImageCreateInfo{
		Width:  4,
		Height: 2,
		Format: core1_0.FormatR8G8B8A8SRGB,
		Tiling: core1_0.ImageTilingOptimal,
		Usage:  core1_0.ImageUsageTransferDst | core1_0.ImageUsageTransferSrc | core1_0.ImageUsageSampled,
	}
}

func TestNewImage(t *testing.T) {
	f := newFixture()
	ctx := f.context(t)

	image, err := NewImage(ctx, textureInfo(), core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)

	assert.Equal(t, core1_0.Extent3D{Width: 4, Height: 2, Depth: 1}, image.Extent())
	assert.Equal(t, 1, image.Layers())
	assert.Equal(t, core1_0.ImageLayoutUndefined, image.Layout())

	native := image.Handle().(*drivertest.Image)
	assert.Equal(t, 1, native.Info.MipLevels)
	assert.Equal(t, core1_0.ImageType2D, native.Info.ImageType)
	assert.Same(t, image.Memory(), native.Bound)
	assert.Equal(t, 32, f.device().Allocations[0].AllocationSize)

	image.Destroy()
	image.Destroy()
	ctx.Destroy()
	f.requireNoLeaks(t)
}

func TestNewImageRollsBack(t *testing.T) {
	for _, op := range []drivertest.Op{drivertest.OpCreateImage, drivertest.OpAllocateMemory, drivertest.OpBindMemory} {
		t.Run(string(op), func(t *testing.T) {
			f := newFixture()
			ctx := f.context(t)
			f.loader.FailTimes(op, 1)

			_, err := NewImage(ctx, textureInfo(), core1_0.MemoryPropertyDeviceLocal)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrResource))
			assert.Zero(t, f.loader.Live(drivertest.KindImage))
			assert.Zero(t, f.loader.Live(drivertest.KindMemory))

			ctx.Destroy()
			f.requireNoLeaks(t)
		})
	}
}

func TestNewImageInvalidExtent(t *testing.T) {
	f := newFixture()
	ctx := f.context(t)
	defer ctx.Destroy()

	info := textureInfo()
	info.Height = 0
	_, err := NewImage(ctx, info, core1_0.MemoryPropertyDeviceLocal)
	assert.True(t, errors.Is(err, ErrResource))
	assert.Zero(t, f.loader.Calls(drivertest.OpCreateImage))
}

func TestImageTransitionLayout(t *testing.T) {
	f := newFixture()
	ctx := f.context(t)
	defer ctx.Destroy()

	image, err := NewImage(ctx, textureInfo(), core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	defer image.Destroy()

	require.NoError(t, image.TransitionLayout(core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal))
	assert.Equal(t, core1_0.ImageLayoutTransferDstOptimal, image.Layout())

	submitted := ctx.GraphicsQueue().(*drivertest.Queue).Submitted
	require.Len(t, submitted, 1)
	cmd := submitted[0][0].(*drivertest.CommandBuffer)
	require.Len(t, cmd.Barriers, 1)
	barrier := cmd.Barriers[0]
	assert.Equal(t, core1_0.ImageLayoutUndefined, barrier.OldLayout)
	assert.Equal(t, core1_0.ImageLayoutTransferDstOptimal, barrier.NewLayout)
	assert.Equal(t, core1_0.AccessTransferWrite, barrier.DstAccessMask)
	assert.Equal(t, core1_0.ImageAspectColor, barrier.AspectMask)
	assert.Equal(t, 1, barrier.LayerCount)

	err = image.TransitionLayout(core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.ImageLayoutUndefined)
	assert.True(t, errors.Is(err, ErrResource))
	assert.Equal(t, core1_0.ImageLayoutTransferDstOptimal, image.Layout())
	assert.Len(t, ctx.GraphicsQueue().(*drivertest.Queue).Submitted, 1)
}

func TestDepthImageAspect(t *testing.T) {
	f := newFixture()
	ctx := f.context(t)
	defer ctx.Destroy()

	image, err := NewImage(ctx, ImageCreateInfo{
		Width:  8,
		Height: 8,
		Format: core1_0.FormatD32SignedFloatS8UnsignedInt,
		Tiling: core1_0.ImageTilingOptimal,
		Usage:  core1_0.ImageUsageDepthStencilAttachment,
	}, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	defer image.Destroy()

	require.NoError(t, image.TransitionLayout(core1_0.ImageLayoutUndefined, core1_0.ImageLayoutDepthStencilAttachmentOptimal))
	cmd := ctx.GraphicsQueue().(*drivertest.Queue).Submitted[0][0].(*drivertest.CommandBuffer)
	assert.Equal(t, core1_0.ImageAspectDepth|core1_0.ImageAspectStencil, cmd.Barriers[0].AspectMask)
}

func TestImageUploadAndReadback(t *testing.T) {
	f := newFixture()
	ctx := f.context(t)
	defer ctx.Destroy()

	image, err := NewImage(ctx, textureInfo(), core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	defer image.Destroy()
	staging, err := NewBuffer(ctx, 32, core1_0.BufferUsageTransferSrc|core1_0.BufferUsageTransferDst, hostVisible)
	require.NoError(t, err)
	defer staging.Destroy()

	require.NoError(t, image.TransitionLayout(core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal))
	require.NoError(t, staging.CopyToImage(image))
	require.NoError(t, image.TransitionLayout(core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutTransferSrcOptimal))
	require.NoError(t, image.CopyToBuffer(staging))

	var commands []string
	for _, batch := range ctx.GraphicsQueue().(*drivertest.Queue).Submitted {
		commands = append(commands, batch[0].(*drivertest.CommandBuffer).Commands...)
	}
	assert.Equal(t, []string{"image_barrier", "copy_buffer_to_image", "image_barrier", "copy_image_to_buffer"}, commands)
	assert.Zero(t, f.loader.Live(drivertest.KindCommandBuffer))
}

func TestFindMemoryType(t *testing.T) {
	types := []driver.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
	}

	idx, err := FindMemoryType(types, 0b111, core1_0.MemoryPropertyHostVisible)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = FindMemoryType(types, 0b101, core1_0.MemoryPropertyHostVisible)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = FindMemoryType(types, 0b001, core1_0.MemoryPropertyHostVisible)
	assert.True(t, errors.Is(err, ErrNoMemoryType))
}

func TestFindDepthFormat(t *testing.T) {
	pd := drivertest.NewPhysicalDevice("gpu", driver.DeviceTypeDiscreteGPU)

	_, err := FindDepthFormat(pd)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	pd.Formats[core1_0.FormatD24UnsignedNormalizedS8UnsignedInt] = driver.FormatProperties{
		OptimalTilingFeatures: core1_0.FormatFeatureDepthStencilAttachment,
	}
	pd.Formats[core1_0.FormatD32SignedFloatS8UnsignedInt] = driver.FormatProperties{
		LinearTilingFeatures: core1_0.FormatFeatureDepthStencilAttachment,
	}

	format, err := FindDepthFormat(pd)
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, format)
}
