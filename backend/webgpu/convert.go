//go:build wgpunative

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/rtview/gpucore"
)

func convertBufferUsage(usage gpucore.BufferUsage) wgpu.BufferUsage {
	var result wgpu.BufferUsage
	if usage.Contains(gpucore.BufferUsageMapRead) {
		result |= wgpu.BufferUsageMapRead
	}
	if usage.Contains(gpucore.BufferUsageMapWrite) {
		result |= wgpu.BufferUsageMapWrite
	}
	if usage.Contains(gpucore.BufferUsageCopySrc) {
		result |= wgpu.BufferUsageCopySrc
	}
	if usage.Contains(gpucore.BufferUsageCopyDst) {
		result |= wgpu.BufferUsageCopyDst
	}
	if usage.Contains(gpucore.BufferUsageUniform) {
		result |= wgpu.BufferUsageUniform
	}
	if usage.Contains(gpucore.BufferUsageStorage) {
		result |= wgpu.BufferUsageStorage
	}
	if usage.Contains(gpucore.BufferUsageQueryResolve) {
		result |= wgpu.BufferUsageQueryResolve
	}
	return result
}

func convertTextureUsage(usage gpucore.TextureUsage) wgpu.TextureUsage {
	var result wgpu.TextureUsage
	if usage&gpucore.TextureUsageCopySrc != 0 {
		result |= wgpu.TextureUsageCopySrc
	}
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= wgpu.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageTextureBinding != 0 {
		result |= wgpu.TextureUsageTextureBinding
	}
	if usage&gpucore.TextureUsageStorageBinding != 0 {
		result |= wgpu.TextureUsageStorageBinding
	}
	if usage&gpucore.TextureUsageRenderAttachment != 0 {
		result |= wgpu.TextureUsageRenderAttachment
	}
	return result
}

func convertTextureFormat(format gpucore.TextureFormat) (wgpu.TextureFormat, error) {
	switch format {
	case gpucore.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case gpucore.TextureFormatRGBA8UnormSRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb, nil
	case gpucore.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm, nil
	case gpucore.TextureFormatBGRA8UnormSRGB:
		return wgpu.TextureFormatBGRA8UnormSrgb, nil
	default:
		return wgpu.TextureFormatUndefined, fmt.Errorf("%w: texture format %s", gpucore.ErrInvalidDescriptor, format)
	}
}

func convertShaderStage(stage gpucore.ShaderStage) wgpu.ShaderStage {
	var result wgpu.ShaderStage
	if stage&gpucore.ShaderStageVertex != 0 {
		result |= wgpu.ShaderStageVertex
	}
	if stage&gpucore.ShaderStageFragment != 0 {
		result |= wgpu.ShaderStageFragment
	}
	if stage&gpucore.ShaderStageCompute != 0 {
		result |= wgpu.ShaderStageCompute
	}
	return result
}

func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) (wgpu.BindGroupLayoutEntry, error) {
	result := wgpu.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: convertShaderStage(entry.Visibility),
	}
	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		result.Buffer = wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: entry.MinBindingSize,
		}
	case gpucore.BindingTypeStorageTexture:
		format, err := convertTextureFormat(entry.Format)
		if err != nil {
			return result, err
		}
		result.StorageTexture = wgpu.StorageTextureBindingLayout{
			Access:        wgpu.StorageTextureAccessWriteOnly,
			Format:        format,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case gpucore.BindingTypeSampledTexture:
		result.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case gpucore.BindingTypeSampler:
		result.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeNonFiltering}
		if entry.Filtering {
			result.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
	default:
		return result, fmt.Errorf("%w: binding %d has type %s", gpucore.ErrInvalidDescriptor, entry.Binding, entry.Type)
	}
	return result, nil
}

func convertLoadOp(op gpucore.LoadOp) wgpu.LoadOp {
	if op == gpucore.LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func convertMapStatus(status wgpu.BufferMapAsyncStatus) gpucore.MapStatus {
	switch status {
	case wgpu.BufferMapAsyncStatusSuccess:
		return gpucore.MapStatusSuccess
	case wgpu.BufferMapAsyncStatusValidationError:
		return gpucore.MapStatusValidationError
	case wgpu.BufferMapAsyncStatusDeviceLost:
		return gpucore.MapStatusDeviceLost
	case wgpu.BufferMapAsyncStatusDestroyedBeforeCallback, wgpu.BufferMapAsyncStatusUnmappedBeforeCallback:
		return gpucore.MapStatusAborted
	default:
		return gpucore.MapStatusUnknown
	}
}
