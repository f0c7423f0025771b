// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/shaders"
	"github.com/gogpu/wgpu/hal"
)

// pollSlice bounds a single fence wait inside Poll so that cancellation
// is noticed promptly.
const pollSlice = 5 * time.Millisecond

// destroyWait bounds the idle wait in Destroy.
const destroyWait = 5 * time.Second

// texture is a tracked HAL texture together with its creation descriptor.
type texture struct {
	raw  hal.Texture
	desc gpucore.TextureDesc
}

// textureView is a tracked HAL view. Imported views belong to the host
// and are never destroyed by the adapter.
type textureView struct {
	raw      hal.TextureView
	imported bool
}

// inflight is a submission awaiting its fence value.
type inflight struct {
	value uint64
	bufs  []hal.CommandBuffer
}

// HALAdapter implements gpucore.Device using gogpu/wgpu/hal directly.
// It maps opaque gpucore IDs to HAL objects.
//
// Thread Safety: resource creation and destruction are safe for concurrent
// use. Command recording, Submit and Poll are driven from one goroutine.
type HALAdapter struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	caps   gpucore.Capabilities
	spirv  bool

	// ID generation
	nextID atomic.Uint64

	// Resource tracking maps gpucore IDs to hal resources
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	buffers          map[gpucore.BufferID]hal.Buffer
	textures         map[gpucore.TextureID]*texture
	views            map[gpucore.TextureViewID]*textureView
	samplers         map[gpucore.SamplerID]hal.Sampler
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	computePipelines map[gpucore.ComputePipelineID]hal.ComputePipeline
	renderPipelines  map[gpucore.RenderPipelineID]hal.RenderPipeline
	querySets        map[gpucore.QuerySetID]hal.QuerySet
	commandBuffers   map[gpucore.CommandBufferID]hal.CommandBuffer

	// Submission tracking. Every Submit signals fence with the next value.
	fence     hal.Fence
	submitted uint64
	completed uint64
	inflight  []inflight

	maps *mapTracker

	// owner releases the device and instance when the adapter opened them.
	owner     func()
	destroyed bool
}

// Option configures a HALAdapter.
type Option func(*adapterOptions)

type adapterOptions struct {
	limits     gputypes.Limits
	timestamps bool
	period     float32
	spirv      bool

	// Used by Open only.
	backend      gputypes.Backend
	backendSet   bool
	noTimestamps bool
}

// WithLimits sets the device limits reported through Capabilities.
func WithLimits(limits gputypes.Limits) Option {
	return func(o *adapterOptions) {
		o.limits = limits
	}
}

// WithTimestampQuery declares that the device was opened with timestamp
// queries enabled. A zero period reads the period from the queue.
func WithTimestampQuery(period float32) Option {
	return func(o *adapterOptions) {
		o.timestamps = true
		o.period = period
	}
}

// WithSPIRV compiles WGSL sources to SPIR-V with naga before handing
// them to the device.
func WithSPIRV(enabled bool) Option {
	return func(o *adapterOptions) {
		o.spirv = enabled
	}
}

// NewHALAdapter creates a new HALAdapter wrapping the given device and queue.
// The adapter does not take ownership of them.
func NewHALAdapter(device hal.Device, queue hal.Queue, opts ...Option) (*HALAdapter, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	o := adapterOptions{limits: gputypes.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}

	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}

	a := &HALAdapter{
		device: device,
		queue:  queue,
		spirv:  o.spirv,
		caps: gpucore.Capabilities{
			MaxTextureDimension2D: o.limits.MaxTextureDimension2D,
			MaxComputeWorkgroupSize: [3]uint32{
				o.limits.MaxComputeWorkgroupSizeX,
				o.limits.MaxComputeWorkgroupSizeY,
				o.limits.MaxComputeWorkgroupSizeZ,
			},
		},
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		buffers:          make(map[gpucore.BufferID]hal.Buffer),
		textures:         make(map[gpucore.TextureID]*texture),
		views:            make(map[gpucore.TextureViewID]*textureView),
		samplers:         make(map[gpucore.SamplerID]hal.Sampler),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		computePipelines: make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		renderPipelines:  make(map[gpucore.RenderPipelineID]hal.RenderPipeline),
		querySets:        make(map[gpucore.QuerySetID]hal.QuerySet),
		commandBuffers:   make(map[gpucore.CommandBufferID]hal.CommandBuffer),
		fence:            fence,
		maps:             newMapTracker(),
	}
	if o.timestamps {
		a.caps.TimestampQuery = true
		a.caps.TimestampPeriod = o.period
		if a.caps.TimestampPeriod <= 0 {
			a.caps.TimestampPeriod = timestampPeriod(queue)
		}
	}

	// Start ID generation at 1 (0 is invalid)
	a.nextID.Store(1)

	slogger().Debug("native: adapter created",
		"timestamps", a.caps.TimestampQuery,
		"timestamp_period", a.caps.TimestampPeriod,
		"max_texture_2d", a.caps.MaxTextureDimension2D)
	return a, nil
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// Capabilities reports the features and limits the adapter was created with.
func (a *HALAdapter) Capabilities() gpucore.Capabilities {
	return a.caps
}

// HalDevice returns the wrapped HAL device.
func (a *HALAdapter) HalDevice() hal.Device { return a.device }

// HalQueue returns the wrapped HAL queue.
func (a *HALAdapter) HalQueue() hal.Queue { return a.queue }

// === Shader Modules ===

// CreateShaderModule creates a shader module from WGSL or SPIR-V.
func (a *HALAdapter) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc == nil || (desc.WGSL == "" && len(desc.SPIRV) == 0) {
		return gpucore.InvalidID, fmt.Errorf("%w: empty shader source", gpucore.ErrInvalidDescriptor)
	}

	source := hal.ShaderSource{WGSL: desc.WGSL, SPIRV: desc.SPIRV}
	if a.spirv && len(desc.SPIRV) == 0 {
		words, err := shaders.CompileSPIRV(desc.WGSL)
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("shader %q: %w", desc.Label, err)
		}
		source = hal.ShaderSource{SPIRV: words}
	}

	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: source,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create shader module: %w", err)
	}

	id := gpucore.ShaderModuleID(a.newID())

	a.mu.Lock()
	a.shaderModules[id] = module
	a.mu.Unlock()

	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *HALAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	if ok {
		delete(a.shaderModules, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyShaderModule(module)
	}
}

// === Buffers ===

// CreateBuffer creates a GPU buffer. MapRead buffers are registered with
// the map tracker.
func (a *HALAdapter) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc == nil || desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer size must be positive", gpucore.ErrInvalidDescriptor)
	}

	buffer, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create buffer: %w", err)
	}

	id := gpucore.BufferID(a.newID())

	a.mu.Lock()
	a.buffers[id] = buffer
	a.mu.Unlock()

	if desc.Usage.Contains(gpucore.BufferUsageMapRead) {
		a.maps.track(id, desc.Size)
	}
	return id, nil
}

// DestroyBuffer releases a GPU buffer. A pending map completes as Aborted.
func (a *HALAdapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	buffer, ok := a.buffers[id]
	if ok {
		delete(a.buffers, id)
	}
	a.mu.Unlock()

	if ok {
		a.maps.forget(id)
		a.device.DestroyBuffer(buffer)
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (a *HALAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	a.mu.RLock()
	buffer, ok := a.buffers[id]
	a.mu.RUnlock()

	if ok && len(data) > 0 {
		a.queue.WriteBuffer(buffer, offset, data)
	}
}

// === Textures ===

// CreateTexture creates a 2D texture with one mip level.
func (a *HALAdapter) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: texture dimensions must be positive", gpucore.ErrInvalidDescriptor)
	}
	format, err := convertTextureFormat(desc.Format)
	if err != nil {
		return gpucore.InvalidID, err
	}

	raw, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         convertTextureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create texture: %w", err)
	}

	id := gpucore.TextureID(a.newID())

	a.mu.Lock()
	a.textures[id] = &texture{raw: raw, desc: *desc}
	a.mu.Unlock()

	return id, nil
}

// DestroyTexture releases a GPU texture.
func (a *HALAdapter) DestroyTexture(id gpucore.TextureID) {
	a.mu.Lock()
	tex, ok := a.textures[id]
	if ok {
		delete(a.textures, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyTexture(tex.raw)
	}
}

// CreateTextureView creates a full 2D view of texture.
func (a *HALAdapter) CreateTextureView(textureID gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	a.mu.RLock()
	tex, ok := a.textures[textureID]
	a.mu.RUnlock()
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d", gpucore.ErrResourceNotFound, textureID)
	}
	format, err := convertTextureFormat(tex.desc.Format)
	if err != nil {
		return gpucore.InvalidID, err
	}

	raw, err := a.device.CreateTextureView(tex.raw, &hal.TextureViewDescriptor{
		Label:         label,
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create texture view: %w", err)
	}

	id := gpucore.TextureViewID(a.newID())

	a.mu.Lock()
	a.views[id] = &textureView{raw: raw}
	a.mu.Unlock()

	return id, nil
}

// ImportTextureView registers a view owned by the host, such as the
// current surface texture, so it can be used as a render pass target.
// DestroyTextureView forgets the ID without destroying the view.
func (a *HALAdapter) ImportTextureView(view hal.TextureView) gpucore.TextureViewID {
	id := gpucore.TextureViewID(a.newID())

	a.mu.Lock()
	a.views[id] = &textureView{raw: view, imported: true}
	a.mu.Unlock()

	return id
}

// DestroyTextureView releases a texture view.
func (a *HALAdapter) DestroyTextureView(id gpucore.TextureViewID) {
	a.mu.Lock()
	view, ok := a.views[id]
	if ok {
		delete(a.views, id)
	}
	a.mu.Unlock()

	if ok && !view.imported {
		a.device.DestroyTextureView(view.raw)
	}
}

// === Samplers ===

// CreateSampler creates a clamp-to-edge sampler.
func (a *HALAdapter) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil sampler descriptor", gpucore.ErrInvalidDescriptor)
	}
	halDesc := &hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	}
	if desc.MagFilter == gpucore.FilterModeLinear {
		halDesc.MagFilter = gputypes.FilterModeLinear
	}
	if desc.MinFilter == gpucore.FilterModeLinear {
		halDesc.MinFilter = gputypes.FilterModeLinear
	}
	if desc.MipFilter == gpucore.FilterModeLinear {
		halDesc.MipmapFilter = gputypes.FilterModeLinear
	}

	sampler, err := a.device.CreateSampler(halDesc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create sampler: %w", err)
	}

	id := gpucore.SamplerID(a.newID())

	a.mu.Lock()
	a.samplers[id] = sampler
	a.mu.Unlock()

	return id, nil
}

// DestroySampler releases a sampler.
func (a *HALAdapter) DestroySampler(id gpucore.SamplerID) {
	a.mu.Lock()
	sampler, ok := a.samplers[id]
	if ok {
		delete(a.samplers, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroySampler(sampler)
	}
}

// === Bind Groups ===

// CreateBindGroupLayout creates a bind group layout.
func (a *HALAdapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil bind group layout descriptor", gpucore.ErrInvalidDescriptor)
	}

	halEntries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		e, err := convertBindGroupLayoutEntry(entry)
		if err != nil {
			return gpucore.InvalidID, err
		}
		halEntries[i] = e
	}

	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group layout: %w", err)
	}

	id := gpucore.BindGroupLayoutID(a.newID())

	a.mu.Lock()
	a.bindGroupLayouts[id] = layout
	a.mu.Unlock()

	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *HALAdapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	layout, ok := a.bindGroupLayouts[id]
	if ok {
		delete(a.bindGroupLayouts, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroupLayout(layout)
	}
}

// CreateBindGroup creates a bind group.
func (a *HALAdapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil bind group descriptor", gpucore.ErrInvalidDescriptor)
	}

	a.mu.RLock()
	layout, ok := a.bindGroupLayouts[desc.Layout]
	if !ok {
		a.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrResourceNotFound, desc.Layout)
	}
	halEntries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		e, err := a.convertBindGroupEntry(entry)
		if err != nil {
			a.mu.RUnlock()
			return gpucore.InvalidID, err
		}
		halEntries[i] = e
	}
	a.mu.RUnlock()

	group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group: %w", err)
	}

	id := gpucore.BindGroupID(a.newID())

	a.mu.Lock()
	a.bindGroups[id] = group
	a.mu.Unlock()

	return id, nil
}

// convertBindGroupEntry converts gpucore.BindGroupEntry to gputypes.BindGroupEntry.
// Must be called with mu.RLock held.
func (a *HALAdapter) convertBindGroupEntry(entry gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	result := gputypes.BindGroupEntry{Binding: entry.Binding}

	// Determine resource type based on which ID is non-zero
	switch {
	case entry.Buffer != gpucore.InvalidID:
		buffer, ok := a.buffers[entry.Buffer]
		if !ok {
			return result, fmt.Errorf("%w: buffer %d", gpucore.ErrResourceNotFound, entry.Buffer)
		}
		result.Resource = gputypes.BufferBinding{
			Buffer: buffer.NativeHandle(),
			Offset: entry.Offset,
			Size:   entry.Size,
		}
	case entry.TextureView != gpucore.InvalidID:
		view, ok := a.views[entry.TextureView]
		if !ok {
			return result, fmt.Errorf("%w: texture view %d", gpucore.ErrResourceNotFound, entry.TextureView)
		}
		result.Resource = gputypes.TextureViewBinding{
			TextureView: view.raw.NativeHandle(),
		}
	case entry.Sampler != gpucore.InvalidID:
		sampler, ok := a.samplers[entry.Sampler]
		if !ok {
			return result, fmt.Errorf("%w: sampler %d", gpucore.ErrResourceNotFound, entry.Sampler)
		}
		result.Resource = gputypes.SamplerBinding{
			Sampler: sampler.NativeHandle(),
		}
	default:
		return result, fmt.Errorf("%w: binding %d names no resource", gpucore.ErrInvalidDescriptor, entry.Binding)
	}
	return result, nil
}

// DestroyBindGroup releases a bind group.
func (a *HALAdapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	group, ok := a.bindGroups[id]
	if ok {
		delete(a.bindGroups, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroup(group)
	}
}

// === Pipelines ===

// CreatePipelineLayout creates a pipeline layout from bind group layouts
// in index order.
func (a *HALAdapter) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil pipeline layout descriptor", gpucore.ErrInvalidDescriptor)
	}

	a.mu.RLock()
	layouts := make([]hal.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, id := range desc.BindGroupLayouts {
		layout, ok := a.bindGroupLayouts[id]
		if !ok {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrResourceNotFound, id)
		}
		layouts[i] = layout
	}
	a.mu.RUnlock()

	pl, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	id := gpucore.PipelineLayoutID(a.newID())

	a.mu.Lock()
	a.pipelineLayouts[id] = pl
	a.mu.Unlock()

	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *HALAdapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	pl, ok := a.pipelineLayouts[id]
	if ok {
		delete(a.pipelineLayouts, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyPipelineLayout(pl)
	}
}

// CreateComputePipeline creates a compute pipeline.
func (a *HALAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil compute pipeline descriptor", gpucore.ErrInvalidDescriptor)
	}

	a.mu.RLock()
	layout, layoutOK := a.pipelineLayouts[desc.Layout]
	module, moduleOK := a.shaderModules[desc.ShaderModule]
	a.mu.RUnlock()
	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", gpucore.ErrResourceNotFound, desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", gpucore.ErrResourceNotFound, desc.ShaderModule)
	}

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Compute: hal.ComputeState{Module: module, EntryPoint: desc.EntryPoint},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create compute pipeline: %w", err)
	}

	id := gpucore.ComputePipelineID(a.newID())

	a.mu.Lock()
	a.computePipelines[id] = pipeline
	a.mu.Unlock()

	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *HALAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	pipeline, ok := a.computePipelines[id]
	if ok {
		delete(a.computePipelines, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyComputePipeline(pipeline)
	}
}

// CreateRenderPipeline creates a render pipeline without vertex buffers,
// drawing a triangle list into one color target.
func (a *HALAdapter) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil render pipeline descriptor", gpucore.ErrInvalidDescriptor)
	}
	format, err := convertTextureFormat(desc.TargetFormat)
	if err != nil {
		return gpucore.InvalidID, err
	}

	a.mu.RLock()
	layout, layoutOK := a.pipelineLayouts[desc.Layout]
	module, moduleOK := a.shaderModules[desc.ShaderModule]
	a.mu.RUnlock()
	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", gpucore.ErrResourceNotFound, desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", gpucore.ErrResourceNotFound, desc.ShaderModule)
	}

	pipeline, err := a.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create render pipeline: %w", err)
	}

	id := gpucore.RenderPipelineID(a.newID())

	a.mu.Lock()
	a.renderPipelines[id] = pipeline
	a.mu.Unlock()

	return id, nil
}

// DestroyRenderPipeline releases a render pipeline.
func (a *HALAdapter) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	a.mu.Lock()
	pipeline, ok := a.renderPipelines[id]
	if ok {
		delete(a.renderPipelines, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyRenderPipeline(pipeline)
	}
}

// === Queries ===

// CreateQuerySet creates a timestamp query set.
func (a *HALAdapter) CreateQuerySet(desc *gpucore.QuerySetDesc) (gpucore.QuerySetID, error) {
	if !a.caps.TimestampQuery {
		return gpucore.InvalidID, gpucore.ErrUnsupported
	}
	if desc == nil || desc.Count == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: query set count must be positive", gpucore.ErrInvalidDescriptor)
	}

	set, err := createTimestampQuerySet(a.device, desc.Label, desc.Count)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create query set: %w", err)
	}

	id := gpucore.QuerySetID(a.newID())

	a.mu.Lock()
	a.querySets[id] = set
	a.mu.Unlock()

	return id, nil
}

// DestroyQuerySet releases a query set.
func (a *HALAdapter) DestroyQuerySet(id gpucore.QuerySetID) {
	a.mu.Lock()
	set, ok := a.querySets[id]
	if ok {
		delete(a.querySets, id)
	}
	a.mu.Unlock()

	if ok {
		destroyQuerySet(a.device, set)
	}
}

// === Submission ===

// Submit submits finished command buffers. Each call signals the adapter
// fence with the next value; map requests wait for the value current at
// request time.
func (a *HALAdapter) Submit(cmds ...gpucore.CommandBufferID) error {
	a.mu.Lock()
	bufs := make([]hal.CommandBuffer, 0, len(cmds))
	for _, id := range cmds {
		cb, ok := a.commandBuffers[id]
		if !ok {
			a.mu.Unlock()
			return fmt.Errorf("%w: command buffer %d", gpucore.ErrResourceNotFound, id)
		}
		delete(a.commandBuffers, id)
		bufs = append(bufs, cb)
	}
	a.submitted++
	value := a.submitted
	a.inflight = append(a.inflight, inflight{value: value, bufs: bufs})
	a.mu.Unlock()

	if err := a.queue.Submit(bufs, a.fence, value); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// MapReadAsync requests a mapping of a MapRead buffer. The request
// completes in Poll once every submission made so far has retired.
func (a *HALAdapter) MapReadAsync(id gpucore.BufferID, offset, size uint64, done func(gpucore.MapStatus)) error {
	a.mu.RLock()
	fence := a.submitted
	a.mu.RUnlock()
	return a.maps.request(id, offset, size, fence, done)
}

// MappedRange returns the bytes of a completed mapping.
func (a *HALAdapter) MappedRange(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	return a.maps.mapped(id, offset, size)
}

// Unmap releases a mapping or cancels a pending request.
func (a *HALAdapter) Unmap(id gpucore.BufferID) {
	a.maps.unmap(id)
}

// MapState returns the mapping state of a buffer.
func (a *HALAdapter) MapState(id gpucore.BufferID) MapState {
	return a.maps.state(id)
}

// Poll waits for the fence values pending map requests depend on and
// completes them. It returns ctx.Err() if ctx is done first.
func (a *HALAdapter) Poll(ctx context.Context) error {
	for {
		target, ok := a.maps.target()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := pollSlice
		if deadline, ok := ctx.Deadline(); ok {
			wait = min(wait, time.Until(deadline))
		}
		if wait <= 0 {
			<-ctx.Done()
			return ctx.Err()
		}

		reached, err := a.device.Wait(a.fence, target, wait)
		if err != nil {
			a.failMaps(gpucore.MapStatusDeviceLost)
			return fmt.Errorf("%w: %w", ErrDeviceLost, err)
		}
		if !reached {
			continue
		}
		a.retire(target)
		a.completeMaps(target)
	}
}

// retire frees command buffers whose submissions reached value.
func (a *HALAdapter) retire(value uint64) {
	a.mu.Lock()
	if value > a.completed {
		a.completed = value
	}
	var done []hal.CommandBuffer
	kept := a.inflight[:0]
	for _, f := range a.inflight {
		if f.value <= a.completed {
			done = append(done, f.bufs...)
		} else {
			kept = append(kept, f)
		}
	}
	a.inflight = kept
	a.mu.Unlock()

	for _, cb := range done {
		a.device.FreeCommandBuffer(cb)
	}
}

// completeMaps reads back the buffers of satisfied requests and invokes
// their callbacks outside any lock.
func (a *HALAdapter) completeMaps(completed uint64) {
	for _, r := range a.maps.ready(completed) {
		a.mu.RLock()
		buffer, ok := a.buffers[r.id]
		a.mu.RUnlock()

		status := gpucore.MapStatusSuccess
		if !ok {
			status = gpucore.MapStatusAborted
		} else {
			data := make([]byte, r.n)
			if err := a.queue.ReadBuffer(buffer, r.off, data); err != nil {
				slogger().Warn("native: map read-back failed", "buffer", r.id, "error", err)
				status = gpucore.MapStatusUnknown
			} else if !a.maps.resolve(r.id, data) {
				continue
			}
		}
		if status != gpucore.MapStatusSuccess && !a.maps.fail(r.id) {
			continue
		}
		if r.done != nil {
			r.done(status)
		}
	}
}

// failMaps completes every pending request with status.
func (a *HALAdapter) failMaps(status gpucore.MapStatus) {
	for _, r := range a.maps.ready(^uint64(0)) {
		if a.maps.fail(r.id) && r.done != nil {
			r.done(status)
		}
	}
}

// Destroy waits for the GPU to go idle and releases the adapter's fence,
// any resources still registered and, if the adapter opened it, the device.
func (a *HALAdapter) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	submitted := a.submitted
	a.mu.Unlock()

	if submitted > 0 {
		if _, err := a.device.Wait(a.fence, submitted, destroyWait); err != nil {
			slogger().Warn("native: wait for idle failed", "error", err)
		}
	}
	a.retire(submitted)
	a.failMaps(gpucore.MapStatusAborted)

	if leaked := a.releaseAll(); leaked > 0 {
		slogger().Warn("native: resources still alive at Destroy", "count", leaked)
	}
	a.device.DestroyFence(a.fence)

	if a.owner != nil {
		a.owner()
	}
}

// releaseAll destroys every resource still registered, in dependency order.
func (a *HALAdapter) releaseAll() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for id, cb := range a.commandBuffers {
		a.device.FreeCommandBuffer(cb)
		delete(a.commandBuffers, id)
		n++
	}
	for id, p := range a.renderPipelines {
		a.device.DestroyRenderPipeline(p)
		delete(a.renderPipelines, id)
		n++
	}
	for id, p := range a.computePipelines {
		a.device.DestroyComputePipeline(p)
		delete(a.computePipelines, id)
		n++
	}
	for id, pl := range a.pipelineLayouts {
		a.device.DestroyPipelineLayout(pl)
		delete(a.pipelineLayouts, id)
		n++
	}
	for id, g := range a.bindGroups {
		a.device.DestroyBindGroup(g)
		delete(a.bindGroups, id)
		n++
	}
	for id, l := range a.bindGroupLayouts {
		a.device.DestroyBindGroupLayout(l)
		delete(a.bindGroupLayouts, id)
		n++
	}
	for id, s := range a.samplers {
		a.device.DestroySampler(s)
		delete(a.samplers, id)
		n++
	}
	for id, v := range a.views {
		if !v.imported {
			a.device.DestroyTextureView(v.raw)
			n++
		}
		delete(a.views, id)
	}
	for id, t := range a.textures {
		a.device.DestroyTexture(t.raw)
		delete(a.textures, id)
		n++
	}
	for id, s := range a.querySets {
		destroyQuerySet(a.device, s)
		delete(a.querySets, id)
		n++
	}
	for id, b := range a.buffers {
		a.device.DestroyBuffer(b)
		delete(a.buffers, id)
		n++
	}
	for id, m := range a.shaderModules {
		a.device.DestroyShaderModule(m)
		delete(a.shaderModules, id)
		n++
	}
	return n
}

var _ gpucore.Device = (*HALAdapter)(nil)
