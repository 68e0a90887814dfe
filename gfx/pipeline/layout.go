package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// PipelineLayout is a layout without descriptor sets.
type PipelineLayout struct {
	device *gfx.SharedDevice
	layout driver.PipelineLayout
}

func NewPipelineLayout(ctx *gfx.RenderContext, pushConstants ...core1_0.PushConstantRange) (*PipelineLayout, error) {
	if ctx.Destroyed() {
		return nil, errors.Mark(gfx.ErrContextDestroyed, gfx.ErrResource)
	}
	shared := ctx.Device()
	layout, err := shared.Device().CreatePipelineLayout(driver.PipelineLayoutCreateInfo{
		PushConstantRanges: pushConstants,
	})
	if err != nil {
		shared.Release()
		return nil, errors.Mark(errors.Wrap(err, "create pipeline layout"), gfx.ErrResource)
	}
	return &PipelineLayout{device: shared, layout: layout}, nil
}

func (l *PipelineLayout) Handle() driver.PipelineLayout {
	return l.layout
}

func (l *PipelineLayout) Destroy() {
	if l.layout == nil {
		return
	}
	l.layout.Destroy()
	l.layout = nil
	l.device.Release()
}

// RenderPass has one subpass drawing into a presentable color attachment
// and, when depthFormat is not FormatUndefined, a depth attachment.
type RenderPass struct {
	device *gfx.SharedDevice
	pass   driver.RenderPass
}

func NewRenderPass(ctx *gfx.RenderContext, colorFormat, depthFormat core1_0.Format) (*RenderPass, error) {
	if ctx.Destroyed() {
		return nil, errors.Mark(gfx.ErrContextDestroyed, gfx.ErrResource)
	}

	attachments := []core1_0.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		},
	}
	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: 0,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
	}
	dependency := core1_0.SubpassDependency{
		SrcSubpass: core1_0.SubpassExternal,
		DstSubpass: 0,

		SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		SrcAccessMask: 0,

		DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		DstAccessMask: core1_0.AccessColorAttachmentWrite,
	}

	if depthFormat != core1_0.FormatUndefined {
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         depthFormat,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
		dependency.SrcStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstAccessMask |= core1_0.AccessDepthStencilAttachmentWrite
	}

	shared := ctx.Device()
	pass, err := shared.Device().CreateRenderPass(core1_0.RenderPassCreateInfo{
		Attachments:         attachments,
		Subpasses:           []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{dependency},
	})
	if err != nil {
		shared.Release()
		return nil, errors.Mark(errors.Wrap(err, "create render pass"), gfx.ErrResource)
	}
	return &RenderPass{device: shared, pass: pass}, nil
}

func (r *RenderPass) Handle() driver.RenderPass {
	return r.pass
}

func (r *RenderPass) Destroy() {
	if r.pass == nil {
		return
	}
	r.pass.Destroy()
	r.pass = nil
	r.device.Release()
}
