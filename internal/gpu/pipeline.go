// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"
)

// Frame bind group layout.
const (
	frameTextureBinding = 0
	frameSamplerBinding = 1
)

// PipelineConfig holds the GPU objects shared by every presented frame.
// It is built once per display and never modified afterwards.
type PipelineConfig struct {
	device hal.Device
	format gputypes.TextureFormat

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	pipeline   hal.RenderPipeline
}

// BuildPipeline compiles the shader stages and creates a render pipeline
// that draws a textured triangle strip into targets of the given format.
//
// The WGSL source is validated with naga before any GPU object is created,
// so a broken shader fails with ErrShaderCompile regardless of backend.
// On any failure the objects created so far are released.
func BuildPipeline(device hal.Device, stages ShaderStages, format gputypes.TextureFormat) (*PipelineConfig, error) {
	if err := validateShader(stages); err != nil {
		return nil, err
	}

	p := &PipelineConfig{device: device, format: format}
	if err := p.create(stages); err != nil {
		p.Destroy()
		return nil, err
	}
	slogger().Debug("gpu: pipeline built", "shader", stages.Label, "format", format)
	return p, nil
}

// validateShader parses, lowers and validates the WGSL program and checks
// that both entry points exist with the expected stages.
func validateShader(stages ShaderStages) error {
	if stages.Source == "" {
		return fmt.Errorf("%w: %s: empty source", ErrShaderCompile, stages.Label)
	}
	ast, err := naga.Parse(stages.Source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShaderCompile, stages.Label, err)
	}
	module, err := naga.LowerWithSource(ast, stages.Source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShaderCompile, stages.Label, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShaderCompile, stages.Label, err)
	}
	if len(verrs) > 0 {
		return fmt.Errorf("%w: %s: %w", ErrShaderCompile, stages.Label, &verrs[0])
	}
	if !hasEntryPoint(module, stages.VertexEntry, ir.StageVertex) {
		return fmt.Errorf("%w: %s: no vertex entry point %q", ErrShaderCompile, stages.Label, stages.VertexEntry)
	}
	if !hasEntryPoint(module, stages.FragmentEntry, ir.StageFragment) {
		return fmt.Errorf("%w: %s: no fragment entry point %q", ErrShaderCompile, stages.Label, stages.FragmentEntry)
	}
	return nil
}

func hasEntryPoint(module *ir.Module, name string, stage ir.ShaderStage) bool {
	for i := range module.EntryPoints {
		if ep := &module.EntryPoints[i]; ep.Name == name && ep.Stage == stage {
			return true
		}
	}
	return false
}

func (p *PipelineConfig) create(stages ShaderStages) error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  stages.Label + "_shader",
		Source: hal.ShaderSource{WGSL: stages.Source},
	})
	if err != nil {
		return fmt.Errorf("%w: compile %s shader: %w", ErrShaderCompile, stages.Label, err)
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: frame texture (texture_2d<f32>, fragment)
	//   Binding 1: frame sampler (fragment)
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: stages.Label + "_frame_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    frameTextureBinding,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    frameSamplerBinding,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create frame layout: %w", ErrPipelineCreation, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            stages.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: create pipeline layout: %w", ErrPipelineCreation, err)
	}
	p.pipeLayout = pipeLayout

	// Nearest filtering keeps texels exact when frame and drawable sizes match.
	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        stages.Label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("%w: create sampler: %w", ErrPipelineCreation, err)
	}
	p.sampler = sampler

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  stages.Label + "_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: stages.VertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{VertexLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: stages.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create render pipeline: %w", ErrPipelineCreation, err)
	}
	p.pipeline = pipeline

	return nil
}

// Format returns the color target format the pipeline renders into.
func (p *PipelineConfig) Format() gputypes.TextureFormat { return p.format }

// BindGroupLayout returns the layout frame bind groups must follow.
func (p *PipelineConfig) BindGroupLayout() hal.BindGroupLayout { return p.bindLayout }

// Sampler returns the frame sampler.
func (p *PipelineConfig) Sampler() hal.Sampler { return p.sampler }

// Pipeline returns the render pipeline.
func (p *PipelineConfig) Pipeline() hal.RenderPipeline { return p.pipeline }

// Destroy releases all pipeline objects in reverse creation order.
// Safe to call multiple times.
func (p *PipelineConfig) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
