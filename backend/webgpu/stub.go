//go:build !wgpunative

package webgpu

import "github.com/gogpu/rtview/gpucore"

// Open reports ErrNotBuilt; rebuild with -tags wgpunative to use wgpu-native.
func Open(...Option) (gpucore.Device, error) {
	return nil, ErrNotBuilt
}

// Option configures the wgpu-native device.
type Option func(*options)

type options struct{}

// WithoutTimestamps is accepted for API parity and has no effect.
func WithoutTimestamps() Option { return func(*options) {} }
