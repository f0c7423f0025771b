package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"time"

	"github.com/gogpu/rtview/gpucore"
	"golang.org/x/image/draw"
)

// copyRowAlignment is the WebGPU row pitch alignment for texture copies.
const copyRowAlignment = 256

var errReadback = errors.New("rtview: target read-back failed")

// target is the offscreen render target standing in for a window surface.
type target struct {
	dev     gpucore.Device
	texture gpucore.TextureID
	view    gpucore.TextureViewID
	format  gpucore.TextureFormat
	width   uint32
	height  uint32
}

func newTarget(dev gpucore.Device, width, height uint32, format gpucore.TextureFormat) (*target, error) {
	tex, err := dev.CreateTexture(&gpucore.TextureDesc{
		Label:  "rtview target",
		Width:  width,
		Height: height,
		Format: format,
		Usage:  gpucore.TextureUsageRenderAttachment | gpucore.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create target: %w", err)
	}
	view, err := dev.CreateTextureView(tex, "rtview target view")
	if err != nil {
		dev.DestroyTexture(tex)
		return nil, fmt.Errorf("create target view: %w", err)
	}
	return &target{dev: dev, texture: tex, view: view, format: format, width: width, height: height}, nil
}

func (t *target) destroy() {
	t.dev.DestroyTextureView(t.view)
	t.dev.DestroyTexture(t.texture)
}

// read copies the target into a staging buffer and returns it as RGBA.
func (t *target) read(ctx context.Context, timeout time.Duration) (*image.RGBA, error) {
	bpr := alignUp(t.width*4, copyRowAlignment)
	size := uint64(bpr) * uint64(t.height)
	buf, err := t.dev.CreateBuffer(&gpucore.BufferDesc{
		Label: "rtview snapshot staging",
		Size:  size,
		Usage: gpucore.BufferUsageMapRead | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer t.dev.DestroyBuffer(buf)

	enc, err := t.dev.CreateCommandEncoder("rtview snapshot")
	if err != nil {
		return nil, err
	}
	enc.TransitionTexture(t.texture, gpucore.TextureUsageRenderAttachment, gpucore.TextureUsageCopySrc)
	enc.CopyTextureToBuffer(t.texture, buf, t.width, t.height, bpr)
	enc.TransitionTexture(t.texture, gpucore.TextureUsageCopySrc, gpucore.TextureUsageRenderAttachment)
	cmd, err := enc.Finish()
	if err != nil {
		return nil, err
	}
	if err := t.dev.Submit(cmd); err != nil {
		return nil, err
	}

	status := gpucore.MapStatusUnknown
	done := false
	if err := t.dev.MapReadAsync(buf, 0, size, func(s gpucore.MapStatus) {
		status = s
		done = true
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", errReadback, err)
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := t.dev.Poll(pctx); err != nil {
		t.dev.Unmap(buf)
		return nil, fmt.Errorf("%w: %w", errReadback, err)
	}
	if !done || status != gpucore.MapStatusSuccess {
		t.dev.Unmap(buf)
		return nil, fmt.Errorf("%w: map status %v", errReadback, status)
	}
	data, err := t.dev.MappedRange(buf, 0, size)
	if err != nil {
		t.dev.Unmap(buf)
		return nil, fmt.Errorf("%w: %w", errReadback, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(t.width), int(t.height)))
	bgra := t.format == gpucore.TextureFormatBGRA8Unorm || t.format == gpucore.TextureFormatBGRA8UnormSRGB
	for y := 0; y < int(t.height); y++ {
		row := data[y*int(bpr) : y*int(bpr)+int(t.width)*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+int(t.width)*4]
		copy(dst, row)
		if bgra {
			for x := 0; x < len(dst); x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	t.dev.Unmap(buf)
	return img, nil
}

// scaleImage resizes src by factor with nearest-neighbor sampling, which
// keeps the ray tracer's texels crisp.
func scaleImage(src *image.RGBA, factor float64) image.Image {
	if factor == 1 {
		return src
	}
	b := src.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

func alignUp(n, a uint32) uint32 {
	return (n + a - 1) / a * a
}
