// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/rtview"
	"github.com/gogpu/rtview/gpucore"
)

// ErrNoTarget is returned when a frame has no render target view.
var ErrNoTarget = errors.New("host: no render target")

// Frame drives a paintable the way a host window framework does: one
// encoder per frame, the prepare phases, one render pass into Target
// and a single submission.
//
// Frame is NOT safe for concurrent use.
type Frame struct {
	Device gpucore.Device
	Target gpucore.TextureViewID

	// ClearColor is the clear value of the render pass. The zero value
	// is transparent black; NewFrame sets opaque black.
	ClearColor gpucore.Color

	// Label is the debug label of the encoder and the render pass.
	Label string

	count uint64
}

// NewFrame returns a Frame rendering into target with an opaque black clear.
func NewFrame(dev gpucore.Device, target gpucore.TextureViewID) *Frame {
	return &Frame{
		Device:     dev,
		Target:     target,
		ClearColor: gpucore.Color{A: 1},
		Label:      "host frame",
	}
}

// Count returns the number of frames submitted so far.
func (f *Frame) Count() uint64 { return f.count }

// Run records and submits one frame of p at the given viewport size.
func (f *Frame) Run(ctx context.Context, p rtview.Paintable, size rtview.Size) error {
	if f.Target == gpucore.InvalidID {
		return ErrNoTarget
	}
	enc, err := f.Device.CreateCommandEncoder(f.Label)
	if err != nil {
		return fmt.Errorf("host: create encoder: %w", err)
	}

	if err := p.Prepare(ctx, enc, size); err != nil {
		enc.Discard()
		return fmt.Errorf("host: prepare: %w", err)
	}
	if err := p.FinishPrepare(ctx, enc); err != nil {
		enc.Discard()
		return fmt.Errorf("host: finish prepare: %w", err)
	}

	pass := enc.BeginRenderPass(&gpucore.RenderPassDesc{
		Label:      f.Label,
		Target:     f.Target,
		LoadOp:     gpucore.LoadOpClear,
		ClearColor: f.ClearColor,
	})
	err = p.Paint(pass)
	pass.End()
	if err != nil {
		enc.Discard()
		return fmt.Errorf("host: paint: %w", err)
	}

	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("host: finish: %w", err)
	}
	if err := f.Device.Submit(cmd); err != nil {
		return fmt.Errorf("host: submit: %w", err)
	}
	f.count++
	return nil
}

// Run records and submits a single frame; see Frame.Run.
func Run(ctx context.Context, dev gpucore.Device, p rtview.Paintable, target gpucore.TextureViewID, size rtview.Size) error {
	return NewFrame(dev, target).Run(ctx, p, size)
}
