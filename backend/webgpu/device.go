//go:build wgpunative

package webgpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/rtview/backend"
	"github.com/gogpu/rtview/gpucore"
)

// pollInterval is the sleep between non-blocking device polls.
const pollInterval = time.Millisecond

func init() {
	backend.Register(backend.BackendWebGPU, func(cfg backend.Config) (gpucore.Device, error) {
		var opts []Option
		if cfg.DisableTimestamps {
			opts = append(opts, WithoutTimestamps())
		}
		return Open(opts...)
	})
}

// Option configures the wgpu-native device.
type Option func(*options)

type options struct {
	noTimestamps bool
}

// WithoutTimestamps opens the device without timestamp queries.
func WithoutTimestamps() Option {
	return func(o *options) { o.noTimestamps = true }
}

type texture struct {
	raw  *wgpu.Texture
	desc gpucore.TextureDesc
}

// Device implements gpucore.Device on a wgpu-native device it owns.
type Device struct {
	mu       sync.RWMutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	caps     gpucore.Capabilities

	nextID atomic.Uint64

	shaderModules    map[gpucore.ShaderModuleID]*wgpu.ShaderModule
	buffers          map[gpucore.BufferID]*wgpu.Buffer
	textures         map[gpucore.TextureID]*texture
	views            map[gpucore.TextureViewID]*wgpu.TextureView
	samplers         map[gpucore.SamplerID]*wgpu.Sampler
	bindGroupLayouts map[gpucore.BindGroupLayoutID]*wgpu.BindGroupLayout
	bindGroups       map[gpucore.BindGroupID]*wgpu.BindGroup
	pipelineLayouts  map[gpucore.PipelineLayoutID]*wgpu.PipelineLayout
	computePipelines map[gpucore.ComputePipelineID]*wgpu.ComputePipeline
	renderPipelines  map[gpucore.RenderPipelineID]*wgpu.RenderPipeline
	querySets        map[gpucore.QuerySetID]*wgpu.QuerySet
	commandBuffers   map[gpucore.CommandBufferID]*wgpu.CommandBuffer

	// pending counts map requests whose callback has not run yet.
	pending atomic.Int64
}

// Open creates a high-performance wgpu-native device, with timestamp
// queries when the adapter has them.
func Open(opts ...Option) (gpucore.Device, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoGPU, err)
	}

	timestamps := !o.noTimestamps && adapter.HasFeature(wgpu.FeatureNameTimestampQuery)
	var features []wgpu.FeatureName
	if timestamps {
		features = append(features, wgpu.FeatureNameTimestampQuery)
	}
	limits := adapter.GetLimits().Limits

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "rtview device",
		RequiredFeatures: features,
		RequiredLimits:   &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	d := &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
		caps: gpucore.Capabilities{
			TimestampQuery: timestamps,
			// WebGPU timestamps are nanoseconds.
			TimestampPeriod:       1,
			MaxTextureDimension2D: wgpu.DefaultLimits().MaxTextureDimension2D,
			MaxComputeWorkgroupSize: [3]uint32{
				limits.MaxComputeWorkgroupSizeX,
				limits.MaxComputeWorkgroupSizeY,
				limits.MaxComputeWorkgroupSizeZ,
			},
		},
		shaderModules:    make(map[gpucore.ShaderModuleID]*wgpu.ShaderModule),
		buffers:          make(map[gpucore.BufferID]*wgpu.Buffer),
		textures:         make(map[gpucore.TextureID]*texture),
		views:            make(map[gpucore.TextureViewID]*wgpu.TextureView),
		samplers:         make(map[gpucore.SamplerID]*wgpu.Sampler),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]*wgpu.BindGroupLayout),
		bindGroups:       make(map[gpucore.BindGroupID]*wgpu.BindGroup),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]*wgpu.PipelineLayout),
		computePipelines: make(map[gpucore.ComputePipelineID]*wgpu.ComputePipeline),
		renderPipelines:  make(map[gpucore.RenderPipelineID]*wgpu.RenderPipeline),
		querySets:        make(map[gpucore.QuerySetID]*wgpu.QuerySet),
		commandBuffers:   make(map[gpucore.CommandBufferID]*wgpu.CommandBuffer),
	}
	d.nextID.Store(1)

	info := adapter.GetInfo()
	slog.Default().Info("webgpu: device opened",
		"adapter", info.Name,
		"backend", info.BackendType.String(),
		"timestamps", timestamps)
	return d, nil
}

func (d *Device) newID() uint64 { return d.nextID.Add(1) - 1 }

// Capabilities reports the features and limits of the device.
func (d *Device) Capabilities() gpucore.Capabilities { return d.caps }

// CreateShaderModule creates a WGSL shader module.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc == nil || desc.WGSL == "" {
		return gpucore.InvalidID, fmt.Errorf("%w: empty shader source", gpucore.ErrInvalidDescriptor)
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.WGSL},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create shader module: %w", err)
	}
	id := gpucore.ShaderModuleID(d.newID())
	d.mu.Lock()
	d.shaderModules[id] = module
	d.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	m, ok := d.shaderModules[id]
	delete(d.shaderModules, id)
	d.mu.Unlock()
	if ok {
		m.Release()
	}
}

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc == nil || desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer size must be positive", gpucore.ErrInvalidDescriptor)
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create buffer: %w", err)
	}
	id := gpucore.BufferID(d.newID())
	d.mu.Lock()
	d.buffers[id] = buf
	d.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	b, ok := d.buffers[id]
	delete(d.buffers, id)
	d.mu.Unlock()
	if ok {
		b.Release()
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok || len(data) == 0 {
		return
	}
	if err := d.queue.WriteBuffer(b, offset, data); err != nil {
		slog.Default().Warn("webgpu: write buffer failed", "buffer", id, "error", err)
	}
}

// CreateTexture creates a 2D texture with one mip level.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: texture dimensions must be positive", gpucore.ErrInvalidDescriptor)
	}
	format, err := convertTextureFormat(desc.Format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         convertTextureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create texture: %w", err)
	}
	id := gpucore.TextureID(d.newID())
	d.mu.Lock()
	d.textures[id] = &texture{raw: tex, desc: *desc}
	d.mu.Unlock()
	return id, nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	t, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()
	if ok {
		t.raw.Release()
	}
}

// CreateTextureView creates a full 2D view of a texture.
func (d *Device) CreateTextureView(textureID gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	d.mu.RLock()
	t, ok := d.textures[textureID]
	d.mu.RUnlock()
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d", gpucore.ErrResourceNotFound, textureID)
	}
	format, err := convertTextureFormat(t.desc.Format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	view, err := t.raw.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label,
		Format:          format,
		Dimension:       wgpu.TextureViewDimension2D,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create texture view: %w", err)
	}
	id := gpucore.TextureViewID(d.newID())
	d.mu.Lock()
	d.views[id] = view
	d.mu.Unlock()
	return id, nil
}

// DestroyTextureView releases a texture view.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	v, ok := d.views[id]
	delete(d.views, id)
	d.mu.Unlock()
	if ok {
		v.Release()
	}
}

// CreateSampler creates a clamp-to-edge sampler.
func (d *Device) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil sampler descriptor", gpucore.ErrInvalidDescriptor)
	}
	wdesc := &wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	if desc.MagFilter == gpucore.FilterModeLinear {
		wdesc.MagFilter = wgpu.FilterModeLinear
	}
	if desc.MinFilter == gpucore.FilterModeLinear {
		wdesc.MinFilter = wgpu.FilterModeLinear
	}
	if desc.MipFilter == gpucore.FilterModeLinear {
		wdesc.MipmapFilter = wgpu.MipmapFilterModeLinear
	}
	s, err := d.device.CreateSampler(wdesc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create sampler: %w", err)
	}
	id := gpucore.SamplerID(d.newID())
	d.mu.Lock()
	d.samplers[id] = s
	d.mu.Unlock()
	return id, nil
}

// DestroySampler releases a sampler.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	s, ok := d.samplers[id]
	delete(d.samplers, id)
	d.mu.Unlock()
	if ok {
		s.Release()
	}
}

// CreateBindGroupLayout creates a bind group layout.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil bind group layout descriptor", gpucore.ErrInvalidDescriptor)
	}
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		we, err := convertBindGroupLayoutEntry(e)
		if err != nil {
			return gpucore.InvalidID, err
		}
		entries[i] = we
	}
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group layout: %w", err)
	}
	id := gpucore.BindGroupLayoutID(d.newID())
	d.mu.Lock()
	d.bindGroupLayouts[id] = layout
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	l, ok := d.bindGroupLayouts[id]
	delete(d.bindGroupLayouts, id)
	d.mu.Unlock()
	if ok {
		l.Release()
	}
}

// CreateBindGroup creates a bind group.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil bind group descriptor", gpucore.ErrInvalidDescriptor)
	}
	d.mu.RLock()
	layout, ok := d.bindGroupLayouts[desc.Layout]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrResourceNotFound, desc.Layout)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		we := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != gpucore.InvalidID:
			we.Buffer, ok = d.buffers[e.Buffer]
			we.Offset = e.Offset
			we.Size = e.Size
			if we.Size == 0 {
				we.Size = wgpu.WholeSize
			}
		case e.TextureView != gpucore.InvalidID:
			we.TextureView, ok = d.views[e.TextureView]
		case e.Sampler != gpucore.InvalidID:
			we.Sampler, ok = d.samplers[e.Sampler]
		default:
			ok = false
		}
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: binding %d", gpucore.ErrResourceNotFound, e.Binding)
		}
		entries[i] = we
	}
	d.mu.RUnlock()

	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create bind group: %w", err)
	}
	id := gpucore.BindGroupID(d.newID())
	d.mu.Lock()
	d.bindGroups[id] = group
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	g, ok := d.bindGroups[id]
	delete(d.bindGroups, id)
	d.mu.Unlock()
	if ok {
		g.Release()
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil pipeline layout descriptor", gpucore.ErrInvalidDescriptor)
	}
	d.mu.RLock()
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, lid := range desc.BindGroupLayouts {
		l, ok := d.bindGroupLayouts[lid]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrResourceNotFound, lid)
		}
		layouts[i] = l
	}
	d.mu.RUnlock()

	pl, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create pipeline layout: %w", err)
	}
	id := gpucore.PipelineLayoutID(d.newID())
	d.mu.Lock()
	d.pipelineLayouts[id] = pl
	d.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	pl, ok := d.pipelineLayouts[id]
	delete(d.pipelineLayouts, id)
	d.mu.Unlock()
	if ok {
		pl.Release()
	}
}

func (d *Device) pipelineInputs(layout gpucore.PipelineLayoutID, module gpucore.ShaderModuleID) (*wgpu.PipelineLayout, *wgpu.ShaderModule, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	pl, ok := d.pipelineLayouts[layout]
	if !ok {
		return nil, nil, fmt.Errorf("%w: pipeline layout %d", gpucore.ErrResourceNotFound, layout)
	}
	m, ok := d.shaderModules[module]
	if !ok {
		return nil, nil, fmt.Errorf("%w: shader module %d", gpucore.ErrResourceNotFound, module)
	}
	return pl, m, nil
}

// CreateComputePipeline creates a compute pipeline.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil compute pipeline descriptor", gpucore.ErrInvalidDescriptor)
	}
	pl, m, err := d.pipelineInputs(desc.Layout, desc.ShaderModule)
	if err != nil {
		return gpucore.InvalidID, err
	}
	p, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pl,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     m,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create compute pipeline: %w", err)
	}
	id := gpucore.ComputePipelineID(d.newID())
	d.mu.Lock()
	d.computePipelines[id] = p
	d.mu.Unlock()
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	p, ok := d.computePipelines[id]
	delete(d.computePipelines, id)
	d.mu.Unlock()
	if ok {
		p.Release()
	}
}

// CreateRenderPipeline creates a render pipeline without vertex buffers.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: nil render pipeline descriptor", gpucore.ErrInvalidDescriptor)
	}
	format, err := convertTextureFormat(desc.TargetFormat)
	if err != nil {
		return gpucore.InvalidID, err
	}
	pl, m, err := d.pipelineInputs(desc.Layout, desc.ShaderModule)
	if err != nil {
		return gpucore.InvalidID, err
	}
	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pl,
		Vertex: wgpu.VertexState{
			Module:     m,
			EntryPoint: desc.VertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     m,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{Format: format, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create render pipeline: %w", err)
	}
	id := gpucore.RenderPipelineID(d.newID())
	d.mu.Lock()
	d.renderPipelines[id] = p
	d.mu.Unlock()
	return id, nil
}

// DestroyRenderPipeline releases a render pipeline.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	p, ok := d.renderPipelines[id]
	delete(d.renderPipelines, id)
	d.mu.Unlock()
	if ok {
		p.Release()
	}
}

// CreateQuerySet creates a timestamp query set.
func (d *Device) CreateQuerySet(desc *gpucore.QuerySetDesc) (gpucore.QuerySetID, error) {
	if !d.caps.TimestampQuery {
		return gpucore.InvalidID, gpucore.ErrUnsupported
	}
	if desc == nil || desc.Count == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: query set count must be positive", gpucore.ErrInvalidDescriptor)
	}
	qs, err := d.device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Label: desc.Label,
		Type:  wgpu.QueryTypeTimestamp,
		Count: desc.Count,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to create query set: %w", err)
	}
	id := gpucore.QuerySetID(d.newID())
	d.mu.Lock()
	d.querySets[id] = qs
	d.mu.Unlock()
	return id, nil
}

// DestroyQuerySet releases a query set.
func (d *Device) DestroyQuerySet(id gpucore.QuerySetID) {
	d.mu.Lock()
	qs, ok := d.querySets[id]
	delete(d.querySets, id)
	d.mu.Unlock()
	if ok {
		qs.Release()
	}
}

// Submit submits finished command buffers in order.
func (d *Device) Submit(cmds ...gpucore.CommandBufferID) error {
	d.mu.Lock()
	bufs := make([]*wgpu.CommandBuffer, 0, len(cmds))
	for _, id := range cmds {
		cb, ok := d.commandBuffers[id]
		if !ok {
			d.mu.Unlock()
			for _, b := range bufs {
				b.Release()
			}
			return fmt.Errorf("%w: command buffer %d", gpucore.ErrResourceNotFound, id)
		}
		delete(d.commandBuffers, id)
		bufs = append(bufs, cb)
	}
	d.mu.Unlock()

	d.queue.Submit(bufs...)
	for _, b := range bufs {
		b.Release()
	}
	return nil
}

// MapReadAsync maps a MapRead buffer. done runs from Poll.
func (d *Device) MapReadAsync(id gpucore.BufferID, offset, size uint64, done func(gpucore.MapStatus)) error {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrResourceNotFound, id)
	}
	d.pending.Add(1)
	err := b.MapAsync(wgpu.MapModeRead, offset, size, func(status wgpu.BufferMapAsyncStatus) {
		d.pending.Add(-1)
		if done != nil {
			done(convertMapStatus(status))
		}
	})
	if err != nil {
		d.pending.Add(-1)
		return fmt.Errorf("map buffer %d: %w", id, err)
	}
	return nil
}

// MappedRange returns the mapped bytes of a buffer.
func (d *Device) MappedRange(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", gpucore.ErrResourceNotFound, id)
	}
	data := b.GetMappedRange(uint(offset), uint(size))
	if data == nil {
		return nil, gpucore.ErrNotMapped
	}
	return data, nil
}

// Unmap releases a mapping.
func (d *Device) Unmap(id gpucore.BufferID) {
	d.mu.RLock()
	b, ok := d.buffers[id]
	d.mu.RUnlock()
	if ok {
		b.Unmap()
	}
}

// Poll drives wgpu-native until no map request is pending or ctx is done.
func (d *Device) Poll(ctx context.Context) error {
	for d.pending.Load() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.device.Poll(false, nil)
		if d.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return nil
}

// Destroy releases the device, adapter and instance.
func (d *Device) Destroy() {
	d.mu.Lock()
	leaked := len(d.buffers) + len(d.textures) + len(d.views) + len(d.samplers) +
		len(d.bindGroups) + len(d.bindGroupLayouts) + len(d.pipelineLayouts) +
		len(d.computePipelines) + len(d.renderPipelines) + len(d.querySets) +
		len(d.shaderModules) + len(d.commandBuffers)
	d.mu.Unlock()
	if leaked > 0 {
		slog.Default().Warn("webgpu: resources still alive at Destroy", "count", leaked)
	}
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

var _ gpucore.Device = (*Device)(nil)
