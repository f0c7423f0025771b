package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/internal/gputest"
)

func TestAlignUp(t *testing.T) {
	tests := []struct{ n, want uint32 }{
		{0, 0}, {1, 256}, {256, 256}, {257, 512}, {1280 * 4, 5120},
	}
	for _, tt := range tests {
		if got := alignUp(tt.n, copyRowAlignment); got != tt.want {
			t.Errorf("alignUp(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestTargetRead(t *testing.T) {
	for _, format := range []gpucore.TextureFormat{gpucore.TextureFormatRGBA8Unorm, gpucore.TextureFormatBGRA8Unorm} {
		t.Run(format.String(), func(t *testing.T) {
			d := gputest.New()
			tgt, err := newTarget(d, 70, 3, format)
			if err != nil {
				t.Fatalf("newTarget() error = %v", err)
			}
			defer tgt.destroy()

			img, err := tgt.read(context.Background(), time.Second)
			if err != nil {
				t.Fatalf("read() error = %v", err)
			}
			if img.Bounds() != image.Rect(0, 0, 70, 3) {
				t.Fatalf("bounds = %v", img.Bounds())
			}
			// The fake copy writes (x, y, 0, 255) per texel.
			c := img.RGBAAt(69, 2)
			r, b := c.R, c.B
			if format == gpucore.TextureFormatBGRA8Unorm {
				r, b = b, r
			}
			if r != 69 || c.G != 2 || b != 0 || c.A != 0xff {
				t.Errorf("pixel (69, 2) = %+v", c)
			}
			if calls := d.Find("CopyTextureToBuffer"); len(calls) != 1 || calls[0].Args[4] != uint32(512) {
				t.Errorf("CopyTextureToBuffer calls = %v, want one with a 512-byte row pitch", calls)
			}
			if d.PendingMaps() != 0 {
				t.Error("staging buffer left mapped")
			}
		})
	}
}

func TestTargetReadMapFailure(t *testing.T) {
	d := gputest.New()
	tgt, err := newTarget(d, 4, 4, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	defer tgt.destroy()
	d.SetMapStatus(gpucore.MapStatusDeviceLost)
	if _, err := tgt.read(context.Background(), time.Second); err == nil {
		t.Error("read() succeeded with a lost device")
	}
}

func TestScaleImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 4))
	if got := scaleImage(src, 1); got != image.Image(src) {
		t.Error("scale 1 should return the source")
	}
	if got := scaleImage(src, 2.5).Bounds(); got != image.Rect(0, 0, 25, 10) {
		t.Errorf("scale 2.5 bounds = %v", got)
	}
	if got := scaleImage(src, 0.01).Bounds(); got != image.Rect(0, 0, 1, 1) {
		t.Errorf("tiny scale bounds = %v, want 1x1", got)
	}
}

func TestRenderWritesStatusAndPNG(t *testing.T) {
	d := gputest.New(gputest.WithTimestamps(1), gputest.WithPairTicks(1_500_000, 1_500_000, 1_500_000))
	out := filepath.Join(t.TempDir(), "frame.png")
	cfg := defaultConfig()
	cfg.Frames = 3
	cfg.Width = 2000
	cfg.Height = 40
	cfg.Capacity = "1920x64"
	cfg.Out = out
	cfg.Scale = 0.5

	var stdout bytes.Buffer
	if err := render(context.Background(), d, cfg, &stdout); err != nil {
		t.Fatalf("render() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("status lines = %q, want 3", lines)
	}
	if !strings.Contains(lines[0], "compute not available") {
		t.Errorf("first line = %q, want no timing", lines[0])
	}
	if !strings.Contains(lines[0], "grid 120x2") {
		t.Errorf("first line = %q, want clamped size and grid", lines[0])
	}
	if !strings.Contains(lines[2], "compute 1.500 ms") {
		t.Errorf("last line = %q, want 1.500 ms", lines[2])
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 1000, 20) {
		t.Errorf("snapshot bounds = %v, want 1000x20", got)
	}
	if d.Live() != 0 {
		t.Errorf("%d resources leaked", d.Live())
	}
}
