// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/rtview"
	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/internal/gputest"
)

var errPhase = errors.New("phase failed")

// stubPaintable records the phases it is driven through.
type stubPaintable struct {
	phases  []string
	failAt  string
	gotSize rtview.Size
}

func (s *stubPaintable) step(name string) error {
	s.phases = append(s.phases, name)
	if s.failAt == name {
		return errPhase
	}
	return nil
}

func (s *stubPaintable) Prepare(_ context.Context, _ gpucore.CommandEncoder, size rtview.Size) error {
	s.gotSize = size
	return s.step("prepare")
}

func (s *stubPaintable) FinishPrepare(context.Context, gpucore.CommandEncoder) error {
	return s.step("finish")
}

func (s *stubPaintable) Paint(gpucore.RenderPassEncoder) error {
	return s.step("paint")
}

func newTarget(t *testing.T, d *gputest.Device) gpucore.TextureViewID {
	t.Helper()
	tex, err := d.CreateTexture(&gpucore.TextureDesc{
		Label:  "target",
		Width:  64,
		Height: 64,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageRenderAttachment | gpucore.TextureUsageCopySrc,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	view, err := d.CreateTextureView(tex, "target view")
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}
	return view
}

func TestRunSequence(t *testing.T) {
	d := gputest.New()
	target := newTarget(t, d)
	d.ResetCalls()
	p := &stubPaintable{}

	if err := Run(context.Background(), d, p, target, rtview.Size{Width: 32, Height: 16}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(p.phases); got != 3 || p.phases[0] != "prepare" || p.phases[1] != "finish" || p.phases[2] != "paint" {
		t.Errorf("phases = %v, want [prepare finish paint]", p.phases)
	}
	if p.gotSize != (rtview.Size{Width: 32, Height: 16}) {
		t.Errorf("Prepare size = %+v", p.gotSize)
	}
	want := []string{"CreateCommandEncoder", "BeginRenderPass", "EndRenderPass", "Finish", "Submit"}
	got := d.Ops()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, got[i], want[i])
		}
	}
	if calls := d.Find("BeginRenderPass"); len(calls) != 1 || calls[0].Args[1] != target {
		t.Errorf("BeginRenderPass calls = %v, want one into the target view", calls)
	}
}

func TestRunPhaseErrorsDiscard(t *testing.T) {
	for _, phase := range []string{"prepare", "finish", "paint"} {
		t.Run(phase, func(t *testing.T) {
			d := gputest.New()
			target := newTarget(t, d)
			f := NewFrame(d, target)

			err := f.Run(context.Background(), &stubPaintable{failAt: phase}, rtview.Size{Width: 8, Height: 8})
			if !errors.Is(err, errPhase) {
				t.Fatalf("Run() error = %v, want errPhase", err)
			}
			if d.Count("Discard") != 1 {
				t.Errorf("Discard count = %d, want 1", d.Count("Discard"))
			}
			if d.Count("Submit") != 0 {
				t.Error("failed frame was submitted")
			}
			if f.Count() != 0 {
				t.Errorf("Count() = %d, want 0", f.Count())
			}
		})
	}
}

func TestRunWithoutTarget(t *testing.T) {
	d := gputest.New()
	err := Run(context.Background(), d, &stubPaintable{}, gpucore.InvalidID, rtview.Size{Width: 1, Height: 1})
	if !errors.Is(err, ErrNoTarget) {
		t.Errorf("Run() error = %v, want ErrNoTarget", err)
	}
	if d.Count("CreateCommandEncoder") != 0 {
		t.Error("encoder created without a target")
	}
}

func TestRunSubmitError(t *testing.T) {
	d := gputest.New()
	target := newTarget(t, d)
	d.FailSubmit(errPhase)
	if err := Run(context.Background(), d, &stubPaintable{}, target, rtview.Size{Width: 4, Height: 4}); !errors.Is(err, errPhase) {
		t.Errorf("Run() error = %v, want errPhase", err)
	}
}

func TestFrameDrivesCallback(t *testing.T) {
	d := gputest.New(
		gputest.WithTimestamps(1),
		gputest.WithPairTicks(2_000_000, 2_000_000, 2_000_000),
	)
	res, err := rtview.NewResources(d, rtview.WithShaderValidation(false), rtview.WithCapacity(128, 128))
	if err != nil {
		t.Fatalf("NewResources() error = %v", err)
	}
	t.Cleanup(res.Close)
	f := NewFrame(d, newTarget(t, d))
	cb := res.Callback()

	if err := f.Run(context.Background(), cb, rtview.Size{Width: 200, Height: 64}); err != nil {
		t.Fatalf("frame 0: %v", err)
	}
	if cb.Timing().Available() {
		t.Error("timing available after the first frame")
	}
	stats := cb.Stats()
	if stats.Effective != (rtview.Size{Width: 128, Height: 64}) {
		t.Errorf("effective size = %+v, want 128x64", stats.Effective)
	}
	if stats.GridX != 8 || stats.GridY != 4 {
		t.Errorf("grid = %dx%d, want 8x4", stats.GridX, stats.GridY)
	}

	for i := 1; i < 3; i++ {
		if err := f.Run(context.Background(), cb, rtview.Size{Width: 200, Height: 64}); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got := cb.Timing().Milliseconds(); math.Abs(got-2) > 1e-9 {
			t.Errorf("frame %d timing = %v, want 2", i, got)
		}
	}
	if f.Count() != 3 {
		t.Errorf("Count() = %d, want 3", f.Count())
	}
	if d.Count("Draw") != 3 {
		t.Errorf("Draw count = %d, want 3", d.Count("Draw"))
	}
}
