package gpucore

import (
	"context"
	"errors"
)

// Device errors.
var (
	// ErrResourceNotFound is returned when an ID does not name a live resource.
	ErrResourceNotFound = errors.New("gpucore: resource not found")

	// ErrInvalidDescriptor is returned for malformed descriptors.
	ErrInvalidDescriptor = errors.New("gpucore: invalid descriptor")

	// ErrMapPending is returned when a buffer already has a map request in flight.
	ErrMapPending = errors.New("gpucore: buffer mapping is pending")

	// ErrNotMapped is returned when reading the mapped range of an unmapped buffer.
	ErrNotMapped = errors.New("gpucore: buffer is not mapped")

	// ErrUnsupported is returned when a feature is used that the device lacks.
	ErrUnsupported = errors.New("gpucore: feature not supported by device")
)

// Device abstracts a GPU device and its queue.
//
// Implementations must allow Create* and Destroy* calls from any goroutine.
// Command recording and Poll are driven from a single render goroutine.
type Device interface {
	// Capabilities reports optional features and limits. The result does
	// not change over the lifetime of the device.
	Capabilities() Capabilities

	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)
	DestroyShaderModule(id ShaderModuleID)

	CreateBuffer(desc *BufferDesc) (BufferID, error)
	DestroyBuffer(id BufferID)

	CreateTexture(desc *TextureDesc) (TextureID, error)
	DestroyTexture(id TextureID)

	CreateTextureView(texture TextureID, label string) (TextureViewID, error)
	DestroyTextureView(id TextureViewID)

	CreateSampler(desc *SamplerDesc) (SamplerID, error)
	DestroySampler(id SamplerID)

	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)
	DestroyBindGroupLayout(id BindGroupLayoutID)

	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)
	DestroyBindGroup(id BindGroupID)

	CreatePipelineLayout(desc *PipelineLayoutDesc) (PipelineLayoutID, error)
	DestroyPipelineLayout(id PipelineLayoutID)

	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)
	DestroyComputePipeline(id ComputePipelineID)

	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
	DestroyRenderPipeline(id RenderPipelineID)

	// CreateQuerySet creates a timestamp query set. It returns
	// ErrUnsupported when Capabilities().TimestampQuery is false.
	CreateQuerySet(desc *QuerySetDesc) (QuerySetID, error)
	DestroyQuerySet(id QuerySetID)

	// WriteBuffer schedules a queue write. The write is ordered before
	// any command buffer submitted after the call.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// CreateCommandEncoder starts recording a command buffer.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit submits finished command buffers in order.
	Submit(cmds ...CommandBufferID) error

	// MapReadAsync requests a host-readable mapping of a MapRead buffer.
	// It never blocks; done runs from a later Poll once the GPU has
	// retired all submitted work touching the buffer.
	MapReadAsync(id BufferID, offset, size uint64, done func(MapStatus)) error

	// MappedRange returns the mapped bytes. Valid until Unmap.
	MappedRange(id BufferID, offset, size uint64) ([]byte, error)

	// Unmap releases a mapping or cancels a pending request.
	Unmap(id BufferID)

	// Poll drives pending map requests to completion. It returns when no
	// request is pending or ctx is done, whichever comes first, and
	// returns ctx.Err() in the latter case.
	Poll(ctx context.Context) error

	// Destroy releases the device. Resources must be destroyed first.
	Destroy()
}

// CommandEncoder records GPU commands into a command buffer.
type CommandEncoder interface {
	// BeginComputePass begins a compute pass. Timestamps are only
	// written at pass boundaries, through desc.TimestampWrites.
	BeginComputePass(desc *ComputePassDesc) ComputePassEncoder
	BeginRenderPass(desc *RenderPassDesc) RenderPassEncoder

	// ResolveQuerySet writes count query results starting at first into
	// dst as little-endian uint64 values.
	ResolveQuerySet(set QuerySetID, first, count uint32, dst BufferID, dstOffset uint64)

	CopyBufferToBuffer(src BufferID, srcOffset uint64, dst BufferID, dstOffset, size uint64)

	// CopyTextureToBuffer copies the top-left width x height region of
	// mip 0 into dst with the given row pitch.
	CopyTextureToBuffer(src TextureID, dst BufferID, width, height, bytesPerRow uint32)

	// TransitionTexture records a usage barrier. Backends with automatic
	// resource tracking treat it as a no-op.
	TransitionTexture(tex TextureID, from, to TextureUsage)

	// Finish ends recording. The encoder must not be used afterwards.
	Finish() (CommandBufferID, error)

	// Discard abandons recording.
	Discard()
}

// ComputePassEncoder records commands for a compute pass.
type ComputePassEncoder interface {
	SetPipeline(pipeline ComputePipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	Dispatch(x, y, z uint32)
	End()
}

// RenderPassEncoder records commands for a render pass.
type RenderPassEncoder interface {
	SetPipeline(pipeline RenderPipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	End()
}

// GroupBinder is the part of a pass encoder that binds groups. Both
// ComputePassEncoder and RenderPassEncoder satisfy it.
type GroupBinder interface {
	SetBindGroup(index uint32, group BindGroupID)
}
