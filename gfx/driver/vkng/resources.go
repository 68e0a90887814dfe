package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/koyote-engine/koyote/gfx/driver"
	"github.com/vkngwrapper/core/core1_0"
)

func (d *Device) CreateBuffer(info core1_0.BufferCreateInfo) (driver.Buffer, error) {
	buffer, _, err := d.device.CreateBuffer(nil, info)
	if err != nil {
		return nil, err
	}
	return &Buffer{buffer: buffer}, nil
}

func (d *Device) CreateImage(info core1_0.ImageCreateInfo) (driver.Image, error) {
	image, _, err := d.device.CreateImage(nil, info)
	if err != nil {
		return nil, err
	}
	return &Image{image: image}, nil
}

func (d *Device) AllocateMemory(info core1_0.MemoryAllocateInfo) (driver.DeviceMemory, error) {
	memory, _, err := d.device.AllocateMemory(nil, info)
	if err != nil {
		return nil, err
	}
	return &deviceMemory{memory: memory}, nil
}

func (d *Device) CreateShaderModule(code []uint32) (driver.ShaderModule, error) {
	module, _, err := d.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, err
	}
	return &shaderModule{module: module}, nil
}

func (d *Device) CreatePipelineLayout(info driver.PipelineLayoutCreateInfo) (driver.PipelineLayout, error) {
	layout, _, err := d.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		PushConstantRanges: info.PushConstantRanges,
	})
	if err != nil {
		return nil, err
	}
	return &pipelineLayout{layout: layout}, nil
}

func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (driver.RenderPass, error) {
	renderPass, _, err := d.device.CreateRenderPass(nil, info)
	if err != nil {
		return nil, err
	}
	return &RenderPass{renderPass: renderPass}, nil
}

func (d *Device) CreateGraphicsPipeline(info driver.GraphicsPipelineCreateInfo) (driver.Pipeline, error) {
	layout, ok := info.Layout.(*pipelineLayout)
	if !ok {
		return nil, errors.Newf("pipeline layout %T was not created by this driver", info.Layout)
	}
	renderPass, ok := info.RenderPass.(*RenderPass)
	if !ok {
		return nil, errors.Newf("render pass %T was not created by this driver", info.RenderPass)
	}

	stages := make([]core1_0.PipelineShaderStageCreateInfo, 0, len(info.Stages))
	for _, stage := range info.Stages {
		module, ok := stage.Module.(*shaderModule)
		if !ok {
			return nil, errors.Newf("shader module %T was not created by this driver", stage.Module)
		}
		stages = append(stages, core1_0.PipelineShaderStageCreateInfo{
			Stage:  stage.Stage,
			Module: module.module,
			Name:   stage.EntryPoint,
		})
	}

	pipelines, _, err := d.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages:             stages,
			VertexInputState:   info.VertexInput,
			InputAssemblyState: info.InputAssembly,
			ViewportState:      info.Viewport,
			RasterizationState: info.Rasterization,
			MultisampleState:   info.Multisample,
			DepthStencilState:  info.DepthStencil,
			ColorBlendState:    info.ColorBlend,
			Layout:             layout.layout,
			RenderPass:         renderPass.renderPass,
			Subpass:            info.Subpass,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(pipelines) != 1 {
		return nil, errors.Newf("expected one pipeline, driver returned %d", len(pipelines))
	}
	return &Pipeline{pipeline: pipelines[0]}, nil
}

type Buffer struct {
	buffer core1_0.Buffer
}

func (b *Buffer) Native() core1_0.Buffer {
	return b.buffer
}

func (b *Buffer) MemoryRequirements() driver.MemoryRequirements {
	reqs := b.buffer.MemoryRequirements()
	return driver.MemoryRequirements{Size: reqs.Size, MemoryTypeBits: reqs.MemoryTypeBits}
}

func (b *Buffer) BindMemory(memory driver.DeviceMemory, offset int) error {
	native, err := nativeMemory(memory)
	if err != nil {
		return err
	}
	_, err = b.buffer.BindBufferMemory(native, offset)
	return err
}

func (b *Buffer) Destroy() {
	b.buffer.Destroy(nil)
}

func nativeBuffer(buffer driver.Buffer) (core1_0.Buffer, error) {
	b, ok := buffer.(*Buffer)
	if !ok {
		return nil, errors.Newf("buffer %T was not created by this driver", buffer)
	}
	return b.buffer, nil
}

type Image struct {
	image core1_0.Image
}

func (i *Image) Native() core1_0.Image {
	return i.image
}

func (i *Image) MemoryRequirements() driver.MemoryRequirements {
	reqs := i.image.MemoryRequirements()
	return driver.MemoryRequirements{Size: reqs.Size, MemoryTypeBits: reqs.MemoryTypeBits}
}

func (i *Image) BindMemory(memory driver.DeviceMemory, offset int) error {
	native, err := nativeMemory(memory)
	if err != nil {
		return err
	}
	_, err = i.image.BindImageMemory(native, offset)
	return err
}

func (i *Image) Destroy() {
	i.image.Destroy(nil)
}

func nativeImage(image driver.Image) (core1_0.Image, error) {
	i, ok := image.(*Image)
	if !ok {
		return nil, errors.Newf("image %T was not created by this driver", image)
	}
	return i.image, nil
}

type deviceMemory struct {
	memory core1_0.DeviceMemory
}

func (m *deviceMemory) Map(offset, size int) (unsafe.Pointer, error) {
	ptr, _, err := m.memory.Map(offset, size, 0)
	return ptr, err
}

func (m *deviceMemory) Unmap() {
	m.memory.Unmap()
}

func (m *deviceMemory) Free() {
	m.memory.Free(nil)
}

func nativeMemory(memory driver.DeviceMemory) (core1_0.DeviceMemory, error) {
	m, ok := memory.(*deviceMemory)
	if !ok {
		return nil, errors.Newf("device memory %T was not allocated by this driver", memory)
	}
	return m.memory, nil
}

type shaderModule struct {
	module core1_0.ShaderModule
}

func (s *shaderModule) Destroy() {
	s.module.Destroy(nil)
}

type pipelineLayout struct {
	layout core1_0.PipelineLayout
}

func (l *pipelineLayout) Destroy() {
	l.layout.Destroy(nil)
}

type RenderPass struct {
	renderPass core1_0.RenderPass
}

func (r *RenderPass) Native() core1_0.RenderPass {
	return r.renderPass
}

func (r *RenderPass) Destroy() {
	r.renderPass.Destroy(nil)
}

type Pipeline struct {
	pipeline core1_0.Pipeline
}

func (p *Pipeline) Native() core1_0.Pipeline {
	return p.pipeline
}

func (p *Pipeline) Destroy() {
	p.pipeline.Destroy(nil)
}
