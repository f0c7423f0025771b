// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// WithBackend selects the HAL backend Open uses. The default is Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(o *adapterOptions) {
		o.backend = b
		o.backendSet = true
	}
}

// WithoutTimestamps opens the device without timestamp queries even if
// the adapter offers them.
func WithoutTimestamps() Option {
	return func(o *adapterOptions) {
		o.noTimestamps = true
	}
}

// Open creates a standalone device for use without a host framework.
// It prefers a discrete or integrated GPU and enables timestamp queries
// when the adapter supports them. The returned adapter owns the device
// and instance; Destroy releases them.
func Open(opts ...Option) (*HALAdapter, error) {
	var o adapterOptions
	for _, opt := range opts {
		opt(&o)
	}
	kind := gputypes.BackendVulkan
	if o.backendSet {
		kind = o.backend
	}

	backend, ok := hal.GetBackend(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, kind)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := selectAdapter(adapters)

	features := gputypes.Features(0)
	timestamps := !o.noTimestamps && adapterSupportsTimestamps(selected)
	if timestamps {
		features.Insert(featureTimestampQuery)
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(features, limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	adapterOpts := append([]Option{WithLimits(limits)}, opts...)
	if timestamps {
		adapterOpts = append(adapterOpts, WithTimestampQuery(0))
	}
	a, err := NewHALAdapter(openDev.Device, openDev.Queue, adapterOpts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	a.owner = func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}

	slogger().Info("native: GPU opened",
		"adapter", selected.Info.Name,
		"device_type", selected.Info.DeviceType,
		"timestamps", timestamps)
	return a, nil
}

// selectAdapter prefers a discrete GPU, then an integrated one, then the
// first adapter listed.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	var integrated *hal.ExposedAdapter
	for i := range adapters {
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU:
			return &adapters[i]
		case gputypes.DeviceTypeIntegratedGPU:
			if integrated == nil {
				integrated = &adapters[i]
			}
		}
	}
	if integrated != nil {
		return integrated
	}
	return &adapters[0]
}
