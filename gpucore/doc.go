// Package gpucore provides the backend-agnostic GPU device abstraction
// used by the rtview compute-to-render pipeline.
//
// This package defines the [Device] interface, which abstracts over different
// GPU backend implementations, allowing the same orchestration code to work with:
//   - gogpu/wgpu HAL (Pure Go, backend/native)
//   - wgpu-native through cogentcore/webgpu (backend/webgpu)
//   - an in-memory recording device (internal/gputest)
//
// # Architecture
//
// The orchestration layer is implemented once against [Device]; thin
// adapters translate IDs and descriptors to the specific backend APIs.
//
//	               +-----------------+
//	               |     rtview      |
//	               | (Callback, ...) |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  native adapter |          |  webgpu adapter |
//	|  (hal.Device)   |          |  (wgpu.Device)  |
//	+-----------------+          +-----------------+
//
// # Resource IDs
//
// Resources are referenced by opaque uint64 IDs ([BufferID], [TextureID],
// [BindGroupID], ...). [InvalidID] (zero) never names a live resource.
//
// # Buffer Mapping
//
// Read-back is asynchronous: [Device.MapReadAsync] records a request,
// [Device.Poll] drives it to completion under a context deadline, and
// [Device.MappedRange] exposes the bytes until [Device.Unmap].
package gpucore
