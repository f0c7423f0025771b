package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// TextureViewID is an opaque handle to a view of a texture.
type TextureViewID uint64

// SamplerID is an opaque handle to a texture sampler.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// QuerySetID is an opaque handle to a set of GPU queries.
type QuerySetID uint64

// CommandBufferID is an opaque handle to a finished, not yet submitted
// command buffer.
type CommandBufferID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 4

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 5

	// BufferUsageQueryResolve indicates the buffer can receive resolved query results.
	BufferUsageQueryResolve BufferUsage = 1 << 6
)

// Contains reports whether all bits of other are set in u.
func (u BufferUsage) Contains(other BufferUsage) bool {
	return u&other == other
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	TextureUsageCopySrc          TextureUsage = 1 << 0
	TextureUsageCopyDst          TextureUsage = 1 << 1
	TextureUsageTextureBinding   TextureUsage = 1 << 2
	TextureUsageStorageBinding   TextureUsage = 1 << 3
	TextureUsageRenderAttachment TextureUsage = 1 << 4
)

// ShaderStage is a bitmask of shader stages a binding is visible to.
type ShaderStage uint32

// Shader stages.
const (
	ShaderStageVertex   ShaderStage = 1 << 0
	ShaderStageFragment ShaderStage = 1 << 1
	ShaderStageCompute  ShaderStage = 1 << 2
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatRGBA8UnormSRGB is 8-bit RGBA, normalized unsigned integer in sRGB color space.
	TextureFormatRGBA8UnormSRGB

	// TextureFormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	TextureFormatBGRA8Unorm

	// TextureFormatBGRA8UnormSRGB is 8-bit BGRA, normalized unsigned integer in sRGB color space.
	TextureFormatBGRA8UnormSRGB
)

// BytesPerPixel returns the size of one texel in bytes.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSRGB,
		TextureFormatBGRA8Unorm, TextureFormatBGRA8UnormSRGB:
		return 4
	default:
		return 0
	}
}

// String returns the WGSL-style name of the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatRGBA8UnormSRGB:
		return "rgba8unorm-srgb"
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	case TextureFormatBGRA8UnormSRGB:
		return "bgra8unorm-srgb"
	default:
		return fmt.Sprintf("TextureFormat(%d)", uint32(f))
	}
}

// BindingType specifies the type of a binding in a bind group layout.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageTexture is a write-only storage texture binding.
	BindingTypeStorageTexture

	// BindingTypeSampledTexture is a float, 2D sampled texture binding.
	BindingTypeSampledTexture

	// BindingTypeSampler is a sampler binding.
	BindingTypeSampler
)

// String returns the binding type name.
func (b BindingType) String() string {
	switch b {
	case BindingTypeUniformBuffer:
		return "uniform-buffer"
	case BindingTypeStorageTexture:
		return "storage-texture"
	case BindingTypeSampledTexture:
		return "sampled-texture"
	case BindingTypeSampler:
		return "sampler"
	default:
		return fmt.Sprintf("BindingType(%d)", uint32(b))
	}
}

// FilterMode selects texel filtering for a sampler.
type FilterMode uint32

// Filter modes.
const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

// LoadOp selects what happens to a color attachment at the start of a pass.
type LoadOp uint32

// Load operations.
const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// Capabilities describes optional features and relevant limits of a device.
type Capabilities struct {
	// TimestampQuery reports whether timestamp queries may be written
	// from a command encoder.
	TimestampQuery bool

	// TimestampPeriod is the number of nanoseconds per timestamp tick.
	TimestampPeriod float32

	// MaxTextureDimension2D is the largest supported 2D texture edge.
	// Zero means unknown.
	MaxTextureDimension2D uint32

	// MaxComputeWorkgroupSize is the maximum workgroup size per axis.
	MaxComputeWorkgroupSize [3]uint32
}

// MapStatus is the outcome of an asynchronous buffer map request.
type MapStatus int

// Map statuses.
const (
	// MapStatusSuccess indicates the mapped range is readable.
	MapStatusSuccess MapStatus = iota
	// MapStatusValidationError indicates the request was malformed.
	MapStatusValidationError
	// MapStatusDeviceLost indicates the device was lost before completion.
	MapStatusDeviceLost
	// MapStatusAborted indicates the buffer was unmapped or destroyed first.
	MapStatusAborted
	// MapStatusUnknown indicates a backend-specific failure.
	MapStatusUnknown
)

// String returns the string representation of MapStatus.
func (s MapStatus) String() string {
	switch s {
	case MapStatusSuccess:
		return "Success"
	case MapStatusValidationError:
		return "ValidationError"
	case MapStatusDeviceLost:
		return "DeviceLost"
	case MapStatusAborted:
		return "Aborted"
	case MapStatusUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("MapStatus(%d)", int(s))
	}
}
