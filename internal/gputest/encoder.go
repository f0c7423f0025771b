// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gputest

import (
	"encoding/binary"
	"errors"

	"github.com/gogpu/rtview/gpucore"
)

// ErrEncoderFinished is returned by Finish on an encoder that already
// finished or was discarded.
var ErrEncoderFinished = errors.New("gputest: encoder already finished")

// baseTicks is the timestamp counter value before the first pair.
const baseTicks = 1_000_000

// command runs on Submit with the device lock held.
type command func(d *Device)

// Encoder is the recording command encoder returned by Device.
type Encoder struct {
	dev   *Device
	label string
	cmds  []command
	done  bool
}

func (e *Encoder) log(op string, args ...any) {
	e.dev.mu.Lock()
	e.dev.record(op, args...)
	e.dev.mu.Unlock()
}

// writeTimestamp queues the write of the current tick count into slot
// index of set. Every odd slot closes a pair and advances the clock by
// the next scripted tick distance.
func (e *Encoder) writeTimestamp(set gpucore.QuerySetID, index uint32) {
	e.cmds = append(e.cmds, func(d *Device) {
		q, ok := d.queries[set]
		if !ok || int(index) >= len(q) {
			return
		}
		if d.clock == 0 {
			d.clock = baseTicks
		}
		if index%2 == 1 {
			if d.pairs < len(d.pairTicks) {
				d.clock += d.pairTicks[d.pairs]
			}
			d.pairs++
		}
		q[index] = d.clock
	})
}

// BeginComputePass logs the label and the timestamp writes of desc. The
// beginning-of-pass write is queued here, the end-of-pass write by End.
func (e *Encoder) BeginComputePass(desc *gpucore.ComputePassDesc) gpucore.ComputePassEncoder {
	var tw *gpucore.ComputePassTimestampWrites
	if desc.TimestampWrites != nil {
		cp := *desc.TimestampWrites
		tw = &cp
	}
	e.log("BeginComputePass", desc.Label, tw)
	if tw != nil && tw.BeginningOfPassWriteIndex != nil {
		e.writeTimestamp(tw.QuerySet, *tw.BeginningOfPassWriteIndex)
	}
	return &ComputePass{dev: e.dev, enc: e, timestamps: tw}
}

func (e *Encoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPassEncoder {
	e.log("BeginRenderPass", desc.Label, desc.Target)
	return &RenderPass{dev: e.dev}
}

func (e *Encoder) ResolveQuerySet(set gpucore.QuerySetID, first, count uint32, dst gpucore.BufferID, dstOffset uint64) {
	e.log("ResolveQuerySet", set, first, count, dst, dstOffset)
	e.cmds = append(e.cmds, func(d *Device) {
		q, ok := d.queries[set]
		b := d.buffers[dst]
		if !ok || b == nil {
			return
		}
		for i := uint32(0); i < count && int(first+i) < len(q); i++ {
			off := dstOffset + uint64(i)*8
			if off+8 > b.size {
				return
			}
			binary.LittleEndian.PutUint64(b.data[off:], q[first+i])
		}
	})
}

func (e *Encoder) CopyBufferToBuffer(src gpucore.BufferID, srcOffset uint64, dst gpucore.BufferID, dstOffset, size uint64) {
	e.log("CopyBufferToBuffer", src, srcOffset, dst, dstOffset, size)
	e.cmds = append(e.cmds, func(d *Device) {
		s, t := d.buffers[src], d.buffers[dst]
		if s == nil || t == nil || srcOffset+size > s.size || dstOffset+size > t.size {
			return
		}
		copy(t.data[dstOffset:dstOffset+size], s.data[srcOffset:srcOffset+size])
	})
}

// CopyTextureToBuffer fills the destination rows with an opaque pattern
// encoding the pixel coordinates.
func (e *Encoder) CopyTextureToBuffer(src gpucore.TextureID, dst gpucore.BufferID, width, height, bytesPerRow uint32) {
	e.log("CopyTextureToBuffer", src, dst, width, height, bytesPerRow)
	e.cmds = append(e.cmds, func(d *Device) {
		b := d.buffers[dst]
		if b == nil {
			return
		}
		for y := uint32(0); y < height; y++ {
			for x := uint32(0); x < width; x++ {
				off := uint64(y)*uint64(bytesPerRow) + uint64(x)*4
				if off+4 > b.size {
					return
				}
				b.data[off] = byte(x)
				b.data[off+1] = byte(y)
				b.data[off+2] = 0
				b.data[off+3] = 0xff
			}
		}
	})
}

func (e *Encoder) TransitionTexture(tex gpucore.TextureID, from, to gpucore.TextureUsage) {
	e.log("TransitionTexture", tex, from, to)
}

func (e *Encoder) Finish() (gpucore.CommandBufferID, error) {
	e.log("Finish", e.label)
	if e.done {
		return gpucore.InvalidID, ErrEncoderFinished
	}
	e.done = true
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	e.dev.nextID++
	id := gpucore.CommandBufferID(e.dev.nextID)
	e.dev.commands[id] = e.cmds
	e.cmds = nil
	return id, nil
}

func (e *Encoder) Discard() {
	e.log("Discard", e.label)
	e.done = true
	e.cmds = nil
}

// ComputePass records compute pass calls into the device log.
type ComputePass struct {
	dev        *Device
	enc        *Encoder
	timestamps *gpucore.ComputePassTimestampWrites
}

func (p *ComputePass) log(op string, args ...any) {
	p.dev.mu.Lock()
	p.dev.record(op, args...)
	p.dev.mu.Unlock()
}

func (p *ComputePass) SetPipeline(pipeline gpucore.ComputePipelineID) {
	p.log("SetComputePipeline", pipeline)
}

func (p *ComputePass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	p.log("SetBindGroup", index, group)
}

func (p *ComputePass) Dispatch(x, y, z uint32) {
	p.log("Dispatch", x, y, z)
}

func (p *ComputePass) End() {
	p.log("EndComputePass")
	if tw := p.timestamps; tw != nil && tw.EndOfPassWriteIndex != nil {
		p.enc.writeTimestamp(tw.QuerySet, *tw.EndOfPassWriteIndex)
	}
}

// RenderPass records render pass calls into the device log.
type RenderPass struct {
	dev *Device
}

// NewRenderPass returns a pass recording into d without an encoder, for
// tests that drive Paint directly.
func NewRenderPass(d *Device) *RenderPass {
	return &RenderPass{dev: d}
}

func (p *RenderPass) log(op string, args ...any) {
	p.dev.mu.Lock()
	p.dev.record(op, args...)
	p.dev.mu.Unlock()
}

func (p *RenderPass) SetPipeline(pipeline gpucore.RenderPipelineID) {
	p.log("SetRenderPipeline", pipeline)
}

func (p *RenderPass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	p.log("SetBindGroup", index, group)
}

func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.log("Draw", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *RenderPass) End() {
	p.log("EndRenderPass")
}

var (
	_ gpucore.CommandEncoder     = (*Encoder)(nil)
	_ gpucore.ComputePassEncoder = (*ComputePass)(nil)
	_ gpucore.RenderPassEncoder  = (*RenderPass)(nil)
)
