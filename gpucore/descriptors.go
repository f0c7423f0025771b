package gpucore

// ShaderModuleDesc describes a shader module. WGSL is always set; SPIRV
// is an optional precompiled form for backends that consume it directly.
type ShaderModuleDesc struct {
	Label string
	WGSL  string
	SPIRV []uint32
}

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureDesc describes a 2D texture with a single mip level.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
}

// SamplerDesc describes a sampler. Addressing is always clamp-to-edge.
type SamplerDesc struct {
	Label     string
	MagFilter FilterMode
	MinFilter FilterMode
	MipFilter FilterMode
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding number in the shader.
	Binding uint32

	// Visibility lists the stages the binding is visible to.
	Visibility ShaderStage

	// Type is the binding type.
	Type BindingType

	// Format is the storage texture format. Only used for BindingTypeStorageTexture.
	Format TextureFormat

	// Filtering marks a sampler as filtering. Only used for BindingTypeSampler.
	Filtering bool

	// MinBindingSize is the minimum buffer size for buffer bindings. Zero means no minimum.
	MinBindingSize uint64
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one resource. Exactly one of Buffer, TextureView
// or Sampler must be set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      BufferID
	Offset      uint64
	Size        uint64
	TextureView TextureViewID
	Sampler     SamplerID
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Entries []BindGroupEntry
}

// PipelineLayoutDesc describes a pipeline layout. The position of each
// layout in BindGroupLayouts is its bind group index.
type PipelineLayoutDesc struct {
	Label            string
	BindGroupLayouts []BindGroupLayoutID
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	Label        string
	Layout       PipelineLayoutID
	ShaderModule ShaderModuleID
	EntryPoint   string
}

// RenderPipelineDesc describes a render pipeline that draws a triangle
// list with no vertex buffers and no culling into a single color target.
type RenderPipelineDesc struct {
	Label         string
	Layout        PipelineLayoutID
	ShaderModule  ShaderModuleID
	VertexEntry   string
	FragmentEntry string
	TargetFormat  TextureFormat
}

// QuerySetDesc describes a set of timestamp queries.
type QuerySetDesc struct {
	Label string
	Count uint32
}

// ComputePassDesc describes a compute pass.
type ComputePassDesc struct {
	Label string

	// TimestampWrites writes GPU timestamps at the pass boundaries. Nil
	// records no timestamps.
	TimestampWrites *ComputePassTimestampWrites
}

// ComputePassTimestampWrites selects the query slots written when the
// pass begins and ends. A nil index skips that write.
type ComputePassTimestampWrites struct {
	QuerySet                  QuerySetID
	BeginningOfPassWriteIndex *uint32
	EndOfPassWriteIndex       *uint32
}

// RenderPassDesc describes a render pass with one color attachment.
type RenderPassDesc struct {
	Label      string
	Target     TextureViewID
	LoadOp     LoadOp
	ClearColor Color
}
