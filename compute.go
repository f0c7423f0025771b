package rtview

import (
	"fmt"

	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/shaders"
)

// OutputFormat is the storage format of the output texture. It must
// match the texture_storage_2d format of the ray tracing shader.
const OutputFormat = gpucore.TextureFormatRGBA8Unorm

// ComputeStage owns the output texture and the compute pipeline that
// ray-traces into it.
type ComputeStage struct {
	dev      gpucore.Device
	capacity Extent
	tile     uint32

	texture  gpucore.TextureID
	view     gpucore.TextureViewID
	layout   gpucore.BindGroupLayoutID
	group    gpucore.BindGroupID
	pipeline gpucore.ComputePipelineID
	plLayout gpucore.PipelineLayoutID

	groups map[GroupRole]gpucore.BindGroupID
}

// newComputeStage creates the output texture of the given capacity and
// the compute pipeline, composing its layout from ComputeGroups.
func newComputeStage(dev gpucore.Device, shared *SharedUniform, module gpucore.ShaderModuleID, o *options) (*ComputeStage, error) {
	c := &ComputeStage{dev: dev, capacity: o.capacity, tile: TileSize}
	fail := func(what string, err error) (*ComputeStage, error) {
		c.Destroy()
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceCreation, what, err)
	}

	var err error
	c.texture, err = dev.CreateTexture(&gpucore.TextureDesc{
		Label:  o.label("output texture"),
		Width:  o.capacity.Width,
		Height: o.capacity.Height,
		Format: OutputFormat,
		Usage: gpucore.TextureUsageStorageBinding | gpucore.TextureUsageTextureBinding |
			gpucore.TextureUsageCopySrc | gpucore.TextureUsageCopyDst,
	})
	if err != nil {
		return fail("output texture", err)
	}

	c.view, err = dev.CreateTextureView(c.texture, o.label("output view"))
	if err != nil {
		return fail("output view", err)
	}

	c.layout, err = dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: o.label("compute layout"),
		Entries: []gpucore.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gpucore.ShaderStageCompute,
			Type:       gpucore.BindingTypeStorageTexture,
			Format:     OutputFormat,
		}},
	})
	if err != nil {
		return fail("compute layout", err)
	}

	c.group, err = dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   o.label("compute group"),
		Layout:  c.layout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, TextureView: c.view}},
	})
	if err != nil {
		return fail("compute group", err)
	}

	layouts, err := ComputeGroups.Layouts(map[GroupRole]gpucore.BindGroupLayoutID{
		RoleComputeOutput: c.layout,
		RoleShared:        shared.Layout(),
	})
	if err != nil {
		return fail("compute pipeline layout", err)
	}
	c.plLayout, err = dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            o.label("compute pipeline layout"),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fail("compute pipeline layout", err)
	}

	c.pipeline, err = dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        o.label("compute pipeline"),
		Layout:       c.plLayout,
		ShaderModule: module,
		EntryPoint:   shaders.ComputeEntry,
	})
	if err != nil {
		return fail("compute pipeline", err)
	}

	c.groups = map[GroupRole]gpucore.BindGroupID{
		RoleComputeOutput: c.group,
		RoleShared:        shared.Group(),
	}
	return c, nil
}

// Dispatch records the compute pass described by desc for the given
// (already clamped) size and returns the dispatched workgroup grid. A nil
// desc records an unlabeled pass without timestamps. A zero axis still
// records the pass with an empty dispatch.
func (c *ComputeStage) Dispatch(enc gpucore.CommandEncoder, size Size, desc *gpucore.ComputePassDesc) (x, y uint32, err error) {
	x, y = DispatchGrid(size, c.capacity, c.tile)
	if desc == nil {
		desc = &gpucore.ComputePassDesc{}
	}

	enc.TransitionTexture(c.texture, gpucore.TextureUsageTextureBinding, gpucore.TextureUsageStorageBinding)
	pass := enc.BeginComputePass(desc)
	pass.SetPipeline(c.pipeline)
	if err := ComputeGroups.Bind(pass, c.groups); err != nil {
		pass.End()
		return 0, 0, err
	}
	pass.Dispatch(x, y, 1)
	pass.End()
	enc.TransitionTexture(c.texture, gpucore.TextureUsageStorageBinding, gpucore.TextureUsageTextureBinding)
	return x, y, nil
}

// Texture returns the output texture.
func (c *ComputeStage) Texture() gpucore.TextureID { return c.texture }

// View returns the view of the output texture.
func (c *ComputeStage) View() gpucore.TextureViewID { return c.view }

// Capacity returns the output texture size.
func (c *ComputeStage) Capacity() Extent { return c.capacity }

// Destroy releases the GPU objects. Safe to call more than once.
func (c *ComputeStage) Destroy() {
	if c.pipeline != gpucore.InvalidID {
		c.dev.DestroyComputePipeline(c.pipeline)
		c.pipeline = gpucore.InvalidID
	}
	if c.plLayout != gpucore.InvalidID {
		c.dev.DestroyPipelineLayout(c.plLayout)
		c.plLayout = gpucore.InvalidID
	}
	if c.group != gpucore.InvalidID {
		c.dev.DestroyBindGroup(c.group)
		c.group = gpucore.InvalidID
	}
	if c.layout != gpucore.InvalidID {
		c.dev.DestroyBindGroupLayout(c.layout)
		c.layout = gpucore.InvalidID
	}
	if c.view != gpucore.InvalidID {
		c.dev.DestroyTextureView(c.view)
		c.view = gpucore.InvalidID
	}
	if c.texture != gpucore.InvalidID {
		c.dev.DestroyTexture(c.texture)
		c.texture = gpucore.InvalidID
	}
}
