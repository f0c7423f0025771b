// Package backend selects the GPU device implementation a standalone
// rtview program runs on.
//
// # Backend Registration
//
// Backends register a Factory from init() and are selected at runtime.
// Import a backend package for its side effect:
//
//	import _ "github.com/gogpu/rtview/backend/native"
//
// # Backend Selection
//
// Open a device by name, or pass an empty name to get the best available:
//
//	dev, err := backend.Open("", backend.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	res, err := rtview.NewResources(dev)
//
// # Available Backends
//
// - "hal": Pure Go, gogpu/wgpu HAL over Vulkan (always built)
// - "webgpu": wgpu-native through cogentcore/webgpu (build tag wgpunative)
//
// Hosts that already own a device use integration/host instead.
package backend
