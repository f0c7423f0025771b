// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package host connects rtview to a host GPU framework.
//
// A host window framework such as gogpu exposes its device through
// gpucontext.DeviceProvider. FromProvider wraps the provider's HAL device
// in a gpucore.Device so that rtview resources live on the same device as
// the window surface:
//
//	dev, format, err := host.FromProvider(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	res, err := rtview.NewResources(dev, rtview.WithTargetFormat(format))
//
// Frame reproduces the per-frame sequence a host framework runs around a
// paintable callback. The CLI and the end-to-end tests use it to drive
// rtview without a window.
//
// # Integration Without Circular Imports
//
// This package uses local interfaces to reach the HAL device and queue
// instead of importing gogpu directly.
package host
