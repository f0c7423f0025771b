// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements gpucore.Device on the Pure Go gogpu/wgpu HAL.
//
// HALAdapter maps opaque gpucore IDs to HAL objects. It either wraps a
// device owned by a host framework (NewHALAdapter) or opens its own
// Vulkan device (Open). Importing the package registers the "hal"
// backend with package backend.
//
// The HAL has no persistent host mapping, so MapRead buffers are served
// from a shadow copy: MapReadAsync records the fence value of the last
// submission, and Poll waits on the adapter fence, reads the buffer back
// through the queue and runs the callback.
package native
