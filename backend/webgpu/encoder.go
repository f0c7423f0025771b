//go:build wgpunative

package webgpu

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/rtview/gpucore"
)

// encoder wraps a wgpu command encoder. The first recording error is kept
// and returned by Finish.
type encoder struct {
	d        *Device
	raw      *wgpu.CommandEncoder
	label    string
	err      error
	finished bool
}

// CreateCommandEncoder starts recording a command buffer.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	raw, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	return &encoder{d: d, raw: raw, label: label}, nil
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
		slog.Default().Warn("webgpu: recording error", "encoder", e.label, "error", err)
	}
}

func (e *encoder) usable() bool {
	if e.finished {
		e.fail(ErrEncoderFinished)
		return false
	}
	return e.err == nil
}

func (e *encoder) lookup(kind string, id uint64, ok bool) bool {
	if !ok {
		e.fail(fmt.Errorf("%w: %s %d", gpucore.ErrResourceNotFound, kind, id))
	}
	return ok
}

// BeginComputePass begins a compute pass with the pass-boundary
// timestamp writes of desc.
func (e *encoder) BeginComputePass(desc *gpucore.ComputePassDesc) gpucore.ComputePassEncoder {
	if !e.usable() {
		return &computePass{enc: e}
	}
	raw := &wgpu.ComputePassDescriptor{Label: desc.Label}
	if tw := desc.TimestampWrites; tw != nil {
		e.d.mu.RLock()
		qs, ok := e.d.querySets[tw.QuerySet]
		e.d.mu.RUnlock()
		if !e.lookup("query set", uint64(tw.QuerySet), ok) {
			return &computePass{enc: e}
		}
		raw.TimestampWrites = &wgpu.ComputePassTimestampWrites{
			QuerySet:                  qs,
			BeginningOfPassWriteIndex: writeIndex(tw.BeginningOfPassWriteIndex),
			EndOfPassWriteIndex:       writeIndex(tw.EndOfPassWriteIndex),
		}
	}
	return &computePass{enc: e, raw: e.raw.BeginComputePass(raw)}
}

// querySetIndexUndefined is WGPU_QUERY_SET_INDEX_UNDEFINED, the slot of
// an absent pass-boundary write.
const querySetIndexUndefined = math.MaxUint32

func writeIndex(idx *uint32) uint32 {
	if idx == nil {
		return querySetIndexUndefined
	}
	return *idx
}

// BeginRenderPass begins a render pass with one color attachment.
func (e *encoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPassEncoder {
	if !e.usable() {
		return &renderPass{enc: e}
	}
	e.d.mu.RLock()
	view, ok := e.d.views[desc.Target]
	e.d.mu.RUnlock()
	if !e.lookup("texture view", uint64(desc.Target), ok) {
		return &renderPass{enc: e}
	}
	c := desc.ClearColor
	return &renderPass{
		enc: e,
		raw: e.raw.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: desc.Label,
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:       view,
				LoadOp:     convertLoadOp(desc.LoadOp),
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: c.R, G: c.G, B: c.B, A: c.A},
			}},
		}),
	}
}

// ResolveQuerySet resolves timestamps into dst.
func (e *encoder) ResolveQuerySet(set gpucore.QuerySetID, first, count uint32, dst gpucore.BufferID, dstOffset uint64) {
	if !e.usable() {
		return
	}
	e.d.mu.RLock()
	qs, okSet := e.d.querySets[set]
	buf, okBuf := e.d.buffers[dst]
	e.d.mu.RUnlock()
	if e.lookup("query set", uint64(set), okSet) && e.lookup("buffer", uint64(dst), okBuf) {
		e.raw.ResolveQuerySet(qs, first, count, buf, dstOffset)
	}
}

// CopyBufferToBuffer copies size bytes between buffers.
func (e *encoder) CopyBufferToBuffer(src gpucore.BufferID, srcOffset uint64, dst gpucore.BufferID, dstOffset, size uint64) {
	if !e.usable() {
		return
	}
	e.d.mu.RLock()
	s, okSrc := e.d.buffers[src]
	t, okDst := e.d.buffers[dst]
	e.d.mu.RUnlock()
	if e.lookup("buffer", uint64(src), okSrc) && e.lookup("buffer", uint64(dst), okDst) {
		e.raw.CopyBufferToBuffer(s, srcOffset, t, dstOffset, size)
	}
}

// CopyTextureToBuffer copies the top-left region of mip 0 into dst.
func (e *encoder) CopyTextureToBuffer(src gpucore.TextureID, dst gpucore.BufferID, width, height, bytesPerRow uint32) {
	if !e.usable() {
		return
	}
	e.d.mu.RLock()
	tex, okTex := e.d.textures[src]
	buf, okBuf := e.d.buffers[dst]
	e.d.mu.RUnlock()
	if !e.lookup("texture", uint64(src), okTex) || !e.lookup("buffer", uint64(dst), okBuf) {
		return
	}
	e.raw.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex.raw,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: height,
			},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
}

// TransitionTexture is a no-op; wgpu tracks resource state itself.
func (e *encoder) TransitionTexture(gpucore.TextureID, gpucore.TextureUsage, gpucore.TextureUsage) {}

// Finish ends recording and registers the command buffer.
func (e *encoder) Finish() (gpucore.CommandBufferID, error) {
	if e.finished {
		return gpucore.InvalidID, ErrEncoderFinished
	}
	e.finished = true
	defer e.raw.Release()
	if e.err != nil {
		return gpucore.InvalidID, e.err
	}
	cb, err := e.raw.Finish(nil)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to finish encoder %q: %w", e.label, err)
	}
	id := gpucore.CommandBufferID(e.d.newID())
	e.d.mu.Lock()
	e.d.commandBuffers[id] = cb
	e.d.mu.Unlock()
	return id, nil
}

// Discard abandons recording.
func (e *encoder) Discard() {
	if e.finished {
		return
	}
	e.finished = true
	e.raw.Release()
}

type computePass struct {
	enc *encoder
	raw *wgpu.ComputePassEncoder
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	if p.raw == nil {
		return
	}
	p.enc.d.mu.RLock()
	pl, ok := p.enc.d.computePipelines[id]
	p.enc.d.mu.RUnlock()
	if p.enc.lookup("compute pipeline", uint64(id), ok) {
		p.raw.SetPipeline(pl)
	}
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if p.raw == nil {
		return
	}
	p.enc.d.mu.RLock()
	g, ok := p.enc.d.bindGroups[id]
	p.enc.d.mu.RUnlock()
	if p.enc.lookup("bind group", uint64(id), ok) {
		p.raw.SetBindGroup(index, g, nil)
	}
}

func (p *computePass) Dispatch(x, y, z uint32) {
	if p.raw != nil {
		p.raw.DispatchWorkgroups(x, y, z)
	}
}

func (p *computePass) End() {
	if p.raw == nil {
		return
	}
	p.raw.End()
	p.raw.Release()
	p.raw = nil
}

type renderPass struct {
	enc *encoder
	raw *wgpu.RenderPassEncoder
}

func (p *renderPass) SetPipeline(id gpucore.RenderPipelineID) {
	if p.raw == nil {
		return
	}
	p.enc.d.mu.RLock()
	pl, ok := p.enc.d.renderPipelines[id]
	p.enc.d.mu.RUnlock()
	if p.enc.lookup("render pipeline", uint64(id), ok) {
		p.raw.SetPipeline(pl)
	}
}

func (p *renderPass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if p.raw == nil {
		return
	}
	p.enc.d.mu.RLock()
	g, ok := p.enc.d.bindGroups[id]
	p.enc.d.mu.RUnlock()
	if p.enc.lookup("bind group", uint64(id), ok) {
		p.raw.SetBindGroup(index, g, nil)
	}
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if p.raw != nil {
		p.raw.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	}
}

func (p *renderPass) End() {
	if p.raw == nil {
		return
	}
	p.raw.End()
	p.raw.Release()
	p.raw = nil
}
