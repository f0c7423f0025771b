//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package host

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rtview/backend/native"
	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct {
	format gputypes.TextureFormat
}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

// halMockProvider additionally exposes HAL objects, like gogpu does.
type halMockProvider struct {
	mockProvider
	device any
	queue  any
}

func (m *halMockProvider) HalDevice() any { return m.device }
func (m *halMockProvider) HalQueue() any  { return m.queue }

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func TestFromProviderNil(t *testing.T) {
	if _, _, err := FromProvider(nil); !errors.Is(err, ErrNilProvider) {
		t.Errorf("FromProvider(nil) error = %v, want ErrNilProvider", err)
	}
}

func TestFromProviderWithoutHAL(t *testing.T) {
	p := &mockProvider{format: gputypes.TextureFormatBGRA8Unorm}
	if _, _, err := FromProvider(p); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("error = %v, want ErrNoHALProvider", err)
	}
}

func TestFromProviderWrongHALTypes(t *testing.T) {
	_, queue := createNoopDevice(t)
	p := &halMockProvider{
		mockProvider: mockProvider{format: gputypes.TextureFormatBGRA8Unorm},
		device:       "not a device",
		queue:        queue,
	}
	if _, _, err := FromProvider(p); !errors.Is(err, ErrNoHALProvider) {
		t.Errorf("error = %v, want ErrNoHALProvider", err)
	}
}

func TestFromProviderUnsupportedFormat(t *testing.T) {
	device, queue := createNoopDevice(t)
	p := &halMockProvider{
		mockProvider: mockProvider{format: gputypes.TextureFormatR8Unorm},
		device:       device,
		queue:        queue,
	}
	if _, _, err := FromProvider(p); !errors.Is(err, ErrUnsupportedSurfaceFormat) {
		t.Errorf("error = %v, want ErrUnsupportedSurfaceFormat", err)
	}
}

func TestFromProviderSharesDevice(t *testing.T) {
	device, queue := createNoopDevice(t)
	p := &halMockProvider{
		mockProvider: mockProvider{format: gputypes.TextureFormatBGRA8UnormSrgb},
		device:       device,
		queue:        queue,
	}

	dev, format, err := FromProvider(p, native.WithTimestampQuery(1))
	if err != nil {
		t.Fatalf("FromProvider() error = %v", err)
	}
	if format != gpucore.TextureFormatBGRA8UnormSRGB {
		t.Errorf("format = %v, want bgra8unorm-srgb", format)
	}
	if dev.HalDevice() != device {
		t.Error("adapter does not wrap the provider's device")
	}
	if !dev.Capabilities().TimestampQuery {
		t.Error("WithTimestampQuery was not applied")
	}
	dev.Destroy()

	// The host device must survive the adapter.
	fence, err := device.CreateFence()
	if err != nil {
		t.Fatalf("provider device unusable after adapter Destroy: %v", err)
	}
	device.DestroyFence(fence)
}
