// Package webgpu implements gpucore.Device on wgpu-native through
// github.com/cogentcore/webgpu.
//
// The package needs the wgpu-native library and cgo, so it is only built
// with the wgpunative tag:
//
//	go build -tags wgpunative ./cmd/rtview
//
// Without the tag Open returns ErrNotBuilt and no backend is registered.
// With it, importing the package registers the "webgpu" backend with
// package backend.
package webgpu
