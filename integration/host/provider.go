// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package host

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/rtview/backend/native"
	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Provider errors.
var (
	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("host: nil DeviceProvider")

	// ErrNoHALProvider is returned when the provider does not expose its
	// HAL device and queue.
	ErrNoHALProvider = errors.New("host: provider does not expose HAL types")

	// ErrUnsupportedSurfaceFormat is returned when the surface format has
	// no gpucore equivalent.
	ErrUnsupportedSurfaceFormat = errors.New("host: unsupported surface format")
)

// halProvider is implemented by providers that share their HAL objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// FromProvider wraps the provider's device in a native adapter and
// returns it together with the surface format to render into. The
// adapter does not own the device; destroying it leaves the host's
// device alive.
//
// Timestamp queries stay disabled unless opts enable them, since only the
// host knows whether it opened the device with that feature.
func FromProvider(p gpucontext.DeviceProvider, opts ...native.Option) (*native.HALAdapter, gpucore.TextureFormat, error) {
	if p == nil {
		return nil, 0, ErrNilProvider
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, 0, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, 0, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, 0, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}

	surface := p.SurfaceFormat()
	format, ok := native.CoreTextureFormat(surface)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnsupportedSurfaceFormat, surface)
	}

	dev, err := native.NewHALAdapter(device, queue, opts...)
	if err != nil {
		return nil, 0, err
	}
	return dev, format, nil
}
