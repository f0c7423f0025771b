package rtview

import (
	"fmt"

	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/shaders"
)

// QuadVertices is the vertex count of the full-viewport triangle pair.
// Positions are derived from the vertex index in the shader.
const QuadVertices = 6

// RenderStage owns the sampler, the bind group exposing the output
// texture to the fragment shader, and the presentation pipeline.
type RenderStage struct {
	dev gpucore.Device

	sampler  gpucore.SamplerID
	layout   gpucore.BindGroupLayoutID
	group    gpucore.BindGroupID
	plLayout gpucore.PipelineLayoutID
	pipeline gpucore.RenderPipelineID

	groups map[GroupRole]gpucore.BindGroupID
}

// newRenderStage creates the presentation pipeline sampling view, which
// must be the output texture of the compute stage.
func newRenderStage(dev gpucore.Device, shared *SharedUniform, view gpucore.TextureViewID, module gpucore.ShaderModuleID, o *options) (*RenderStage, error) {
	r := &RenderStage{dev: dev}
	fail := func(what string, err error) (*RenderStage, error) {
		r.Destroy()
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceCreation, what, err)
	}

	var err error
	// Nearest filtering shows the ray traced pixels without blending.
	r.sampler, err = dev.CreateSampler(&gpucore.SamplerDesc{
		Label:     o.label("output sampler"),
		MagFilter: gpucore.FilterModeNearest,
		MinFilter: gpucore.FilterModeNearest,
		MipFilter: gpucore.FilterModeNearest,
	})
	if err != nil {
		return fail("output sampler", err)
	}

	vis := gpucore.ShaderStageVertex | gpucore.ShaderStageFragment
	r.layout, err = dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: o.label("render layout"),
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vis, Type: gpucore.BindingTypeSampledTexture},
			{Binding: 1, Visibility: vis, Type: gpucore.BindingTypeSampler, Filtering: false},
		},
	})
	if err != nil {
		return fail("render layout", err)
	}

	r.group, err = dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  o.label("render group"),
		Layout: r.layout,
		Entries: []gpucore.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: r.sampler},
		},
	})
	if err != nil {
		return fail("render group", err)
	}

	layouts, err := RenderGroups.Layouts(map[GroupRole]gpucore.BindGroupLayoutID{
		RoleRenderSource: r.layout,
		RoleShared:       shared.Layout(),
	})
	if err != nil {
		return fail("render pipeline layout", err)
	}
	r.plLayout, err = dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            o.label("render pipeline layout"),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fail("render pipeline layout", err)
	}

	r.pipeline, err = dev.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label:         o.label("render pipeline"),
		Layout:        r.plLayout,
		ShaderModule:  module,
		VertexEntry:   shaders.VertexEntry,
		FragmentEntry: shaders.FragmentEntry,
		TargetFormat:  o.targetFormat,
	})
	if err != nil {
		return fail("render pipeline", err)
	}

	r.groups = map[GroupRole]gpucore.BindGroupID{
		RoleRenderSource: r.group,
		RoleShared:       shared.Group(),
	}
	return r, nil
}

// Draw records the quad draw into a render pass owned by the host.
func (r *RenderStage) Draw(pass gpucore.RenderPassEncoder) error {
	pass.SetPipeline(r.pipeline)
	if err := RenderGroups.Bind(pass, r.groups); err != nil {
		return err
	}
	pass.Draw(QuadVertices, 1, 0, 0)
	return nil
}

// Destroy releases the GPU objects. Safe to call more than once.
func (r *RenderStage) Destroy() {
	if r.pipeline != gpucore.InvalidID {
		r.dev.DestroyRenderPipeline(r.pipeline)
		r.pipeline = gpucore.InvalidID
	}
	if r.plLayout != gpucore.InvalidID {
		r.dev.DestroyPipelineLayout(r.plLayout)
		r.plLayout = gpucore.InvalidID
	}
	if r.group != gpucore.InvalidID {
		r.dev.DestroyBindGroup(r.group)
		r.group = gpucore.InvalidID
	}
	if r.layout != gpucore.InvalidID {
		r.dev.DestroyBindGroupLayout(r.layout)
		r.layout = gpucore.InvalidID
	}
	if r.sampler != gpucore.InvalidID {
		r.dev.DestroySampler(r.sampler)
		r.sampler = gpucore.InvalidID
	}
}
