// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// commandEncoder records into a HAL command encoder. Recording methods
// have no error result; the first failure is kept and returned by Finish,
// after which the recording is discarded.
//
// commandEncoder is NOT safe for concurrent use.
type commandEncoder struct {
	a     *HALAdapter
	raw   hal.CommandEncoder
	label string

	err      error
	passOpen bool
	finished bool
}

// CreateCommandEncoder starts recording a command buffer.
func (a *HALAdapter) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	raw, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder: %w", err)
	}
	if err := raw.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("failed to begin encoding: %w", err)
	}
	return &commandEncoder{a: a, raw: raw, label: label}, nil
}

// fail keeps the first recording error.
func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
		slogger().Warn("native: recording error", "encoder", e.label, "error", err)
	}
}

// usable reports whether commands may still be recorded.
func (e *commandEncoder) usable() bool {
	if e.finished {
		e.fail(ErrEncoderFinished)
		return false
	}
	return e.err == nil
}

func (e *commandEncoder) buffer(id gpucore.BufferID) (hal.Buffer, bool) {
	e.a.mu.RLock()
	b, ok := e.a.buffers[id]
	e.a.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("%w: buffer %d", gpucore.ErrResourceNotFound, id))
	}
	return b, ok
}

func (e *commandEncoder) texture(id gpucore.TextureID) (hal.Texture, bool) {
	e.a.mu.RLock()
	t, ok := e.a.textures[id]
	e.a.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("%w: texture %d", gpucore.ErrResourceNotFound, id))
		return nil, false
	}
	return t.raw, true
}

func (e *commandEncoder) querySet(id gpucore.QuerySetID) (hal.QuerySet, bool) {
	e.a.mu.RLock()
	s, ok := e.a.querySets[id]
	e.a.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("%w: query set %d", gpucore.ErrResourceNotFound, id))
	}
	return s, ok
}

func (e *commandEncoder) bindGroup(id gpucore.BindGroupID) (hal.BindGroup, bool) {
	e.a.mu.RLock()
	g, ok := e.a.bindGroups[id]
	e.a.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("%w: bind group %d", gpucore.ErrResourceNotFound, id))
	}
	return g, ok
}

// BeginComputePass begins a compute pass. Timestamp writes of desc are
// translated to the HAL pass-boundary writes.
func (e *commandEncoder) BeginComputePass(desc *gpucore.ComputePassDesc) gpucore.ComputePassEncoder {
	if !e.usable() {
		return &computePass{enc: e, ended: true}
	}
	halDesc, ok := e.computePassDescriptor(desc)
	if !ok {
		return &computePass{enc: e, ended: true}
	}
	e.passOpen = true
	return &computePass{
		enc: e,
		raw: e.raw.BeginComputePass(halDesc),
	}
}

func (e *commandEncoder) computePassDescriptor(desc *gpucore.ComputePassDesc) (*hal.ComputePassDescriptor, bool) {
	halDesc := &hal.ComputePassDescriptor{Label: desc.Label}
	tw := desc.TimestampWrites
	if tw == nil {
		return halDesc, true
	}
	set, ok := e.querySet(tw.QuerySet)
	if !ok {
		return nil, false
	}
	halDesc.TimestampWrites = passTimestampWrites(set, tw.BeginningOfPassWriteIndex, tw.EndOfPassWriteIndex)
	return halDesc, true
}

// BeginRenderPass begins a render pass with one color attachment.
func (e *commandEncoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPassEncoder {
	if !e.usable() {
		return &renderPass{enc: e, ended: true}
	}
	e.a.mu.RLock()
	view, ok := e.a.views[desc.Target]
	e.a.mu.RUnlock()
	if !ok {
		e.fail(fmt.Errorf("%w: texture view %d", gpucore.ErrResourceNotFound, desc.Target))
		return &renderPass{enc: e, ended: true}
	}

	e.passOpen = true
	raw := e.raw.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    view.raw,
				LoadOp:  convertLoadOp(desc.LoadOp),
				StoreOp: gputypes.StoreOpStore,
				ClearValue: gputypes.Color{
					R: desc.ClearColor.R,
					G: desc.ClearColor.G,
					B: desc.ClearColor.B,
					A: desc.ClearColor.A,
				},
			},
		},
	})
	return &renderPass{enc: e, raw: raw}
}

// ResolveQuerySet writes count query results into dst.
func (e *commandEncoder) ResolveQuerySet(set gpucore.QuerySetID, first, count uint32, dst gpucore.BufferID, dstOffset uint64) {
	if !e.usable() {
		return
	}
	s, ok := e.querySet(set)
	if !ok {
		return
	}
	if b, ok := e.buffer(dst); ok {
		resolveQuerySet(e.raw, s, first, count, b, dstOffset)
	}
}

// CopyBufferToBuffer copies size bytes between buffers.
func (e *commandEncoder) CopyBufferToBuffer(src gpucore.BufferID, srcOffset uint64, dst gpucore.BufferID, dstOffset, size uint64) {
	if !e.usable() {
		return
	}
	s, ok := e.buffer(src)
	if !ok {
		return
	}
	d, ok := e.buffer(dst)
	if !ok {
		return
	}
	e.raw.CopyBufferToBuffer(s, d, []hal.BufferCopy{
		{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size},
	})
}

// CopyTextureToBuffer copies the top-left region of mip 0 of src into dst.
func (e *commandEncoder) CopyTextureToBuffer(src gpucore.TextureID, dst gpucore.BufferID, width, height, bytesPerRow uint32) {
	if !e.usable() {
		return
	}
	t, ok := e.texture(src)
	if !ok {
		return
	}
	b, ok := e.buffer(dst)
	if !ok {
		return
	}
	e.raw.CopyTextureToBuffer(t, b, []hal.BufferTextureCopy{
		{
			BufferLayout: hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: height,
			},
			TextureBase: hal.ImageCopyTexture{
				Texture:  t,
				MipLevel: 0,
			},
			Size: hal.Extent3D{
				Width:              width,
				Height:             height,
				DepthOrArrayLayers: 1,
			},
		},
	})
}

// TransitionTexture records a usage barrier.
func (e *commandEncoder) TransitionTexture(tex gpucore.TextureID, from, to gpucore.TextureUsage) {
	if !e.usable() {
		return
	}
	t, ok := e.texture(tex)
	if !ok {
		return
	}
	e.raw.TransitionTextures([]hal.TextureBarrier{
		{
			Texture: t,
			Usage: hal.TextureUsageTransition{
				OldUsage: convertTextureUsage(from),
				NewUsage: convertTextureUsage(to),
			},
		},
	})
}

// Finish ends recording and registers the command buffer for Submit.
func (e *commandEncoder) Finish() (gpucore.CommandBufferID, error) {
	if e.finished {
		return gpucore.InvalidID, ErrEncoderFinished
	}
	if e.err == nil && e.passOpen {
		e.err = ErrPassOpen
	}
	e.finished = true
	if e.err != nil {
		e.raw.DiscardEncoding()
		return gpucore.InvalidID, fmt.Errorf("encoder %q: %w", e.label, e.err)
	}

	cb, err := e.raw.EndEncoding()
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("failed to end encoding: %w", err)
	}

	id := gpucore.CommandBufferID(e.a.newID())

	e.a.mu.Lock()
	e.a.commandBuffers[id] = cb
	e.a.mu.Unlock()

	return id, nil
}

// Discard abandons recording.
func (e *commandEncoder) Discard() {
	if e.finished {
		return
	}
	e.finished = true
	e.raw.DiscardEncoding()
}

// computePass wraps a HAL compute pass.
type computePass struct {
	enc   *commandEncoder
	raw   hal.ComputePassEncoder
	ended bool
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	if p.ended {
		return
	}
	p.enc.a.mu.RLock()
	pipeline, ok := p.enc.a.computePipelines[id]
	p.enc.a.mu.RUnlock()
	if !ok {
		p.enc.fail(fmt.Errorf("%w: compute pipeline %d", gpucore.ErrResourceNotFound, id))
		return
	}
	p.raw.SetPipeline(pipeline)
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if p.ended {
		return
	}
	if g, ok := p.enc.bindGroup(id); ok {
		p.raw.SetBindGroup(index, g, nil)
	}
}

func (p *computePass) Dispatch(x, y, z uint32) {
	if p.ended {
		return
	}
	p.raw.Dispatch(x, y, z)
}

func (p *computePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.enc.passOpen = false
	p.raw.End()
}

// renderPass wraps a HAL render pass.
type renderPass struct {
	enc   *commandEncoder
	raw   hal.RenderPassEncoder
	ended bool
}

func (p *renderPass) SetPipeline(id gpucore.RenderPipelineID) {
	if p.ended {
		return
	}
	p.enc.a.mu.RLock()
	pipeline, ok := p.enc.a.renderPipelines[id]
	p.enc.a.mu.RUnlock()
	if !ok {
		p.enc.fail(fmt.Errorf("%w: render pipeline %d", gpucore.ErrResourceNotFound, id))
		return
	}
	p.raw.SetPipeline(pipeline)
}

func (p *renderPass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if p.ended {
		return
	}
	if g, ok := p.enc.bindGroup(id); ok {
		p.raw.SetBindGroup(index, g, nil)
	}
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if p.ended {
		return
	}
	p.raw.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *renderPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.enc.passOpen = false
	p.raw.End()
}
