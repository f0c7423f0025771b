// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rtview/gpucore"
)

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage.Contains(gpucore.BufferUsageMapRead) {
		result |= gputypes.BufferUsageMapRead
	}
	if usage.Contains(gpucore.BufferUsageMapWrite) {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage.Contains(gpucore.BufferUsageCopySrc) {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage.Contains(gpucore.BufferUsageCopyDst) {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage.Contains(gpucore.BufferUsageUniform) {
		result |= gputypes.BufferUsageUniform
	}
	if usage.Contains(gpucore.BufferUsageStorage) {
		result |= gputypes.BufferUsageStorage
	}
	if usage.Contains(gpucore.BufferUsageQueryResolve) {
		result |= bufferUsageQueryResolve
	}
	return result
}

// convertTextureUsage converts gpucore.TextureUsage to gputypes.TextureUsage.
func convertTextureUsage(usage gpucore.TextureUsage) gputypes.TextureUsage {
	var result gputypes.TextureUsage
	if usage&gpucore.TextureUsageCopySrc != 0 {
		result |= gputypes.TextureUsageCopySrc
	}
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageTextureBinding != 0 {
		result |= gputypes.TextureUsageTextureBinding
	}
	if usage&gpucore.TextureUsageStorageBinding != 0 {
		result |= gputypes.TextureUsageStorageBinding
	}
	if usage&gpucore.TextureUsageRenderAttachment != 0 {
		result |= gputypes.TextureUsageRenderAttachment
	}
	return result
}

// convertTextureFormat converts gpucore.TextureFormat to gputypes.TextureFormat.
func convertTextureFormat(format gpucore.TextureFormat) (gputypes.TextureFormat, error) {
	switch format {
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case gpucore.TextureFormatRGBA8UnormSRGB:
		return gputypes.TextureFormatRGBA8UnormSrgb, nil
	case gpucore.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case gpucore.TextureFormatBGRA8UnormSRGB:
		return gputypes.TextureFormatBGRA8UnormSrgb, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: texture format %s", gpucore.ErrInvalidDescriptor, format)
	}
}

// CoreTextureFormat maps a host surface format to gpucore. It reports
// false for formats the pipeline cannot render to.
func CoreTextureFormat(format gputypes.TextureFormat) (gpucore.TextureFormat, bool) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return gpucore.TextureFormatRGBA8Unorm, true
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return gpucore.TextureFormatRGBA8UnormSRGB, true
	case gputypes.TextureFormatBGRA8Unorm:
		return gpucore.TextureFormatBGRA8Unorm, true
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return gpucore.TextureFormatBGRA8UnormSRGB, true
	default:
		return 0, false
	}
}

func convertLoadOp(op gpucore.LoadOp) gputypes.LoadOp {
	if op == gpucore.LoadOpLoad {
		return gputypes.LoadOpLoad
	}
	return gputypes.LoadOpClear
}

// convertBindGroupLayoutEntry converts gpucore.BindGroupLayoutEntry to gputypes.BindGroupLayoutEntry.
func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) (gputypes.BindGroupLayoutEntry, error) {
	result := gputypes.BindGroupLayoutEntry{Binding: entry.Binding}
	if entry.Visibility&gpucore.ShaderStageVertex != 0 {
		result.Visibility |= gputypes.ShaderStageVertex
	}
	if entry.Visibility&gpucore.ShaderStageFragment != 0 {
		result.Visibility |= gputypes.ShaderStageFragment
	}
	if entry.Visibility&gpucore.ShaderStageCompute != 0 {
		result.Visibility |= gputypes.ShaderStageCompute
	}

	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: entry.MinBindingSize,
		}
	case gpucore.BindingTypeStorageTexture:
		format, err := convertTextureFormat(entry.Format)
		if err != nil {
			return result, err
		}
		result.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessWriteOnly,
			Format:        format,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case gpucore.BindingTypeSampledTexture:
		result.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case gpucore.BindingTypeSampler:
		result.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeNonFiltering}
		if entry.Filtering {
			result.Sampler.Type = gputypes.SamplerBindingTypeFiltering
		}
	default:
		return result, fmt.Errorf("%w: binding %d has type %s", gpucore.ErrInvalidDescriptor, entry.Binding, entry.Type)
	}
	return result, nil
}
