package webgpu

import "errors"

var (
	// ErrNotBuilt is returned by Open when the package was built without
	// the wgpunative tag.
	ErrNotBuilt = errors.New("webgpu: built without the wgpunative tag")

	// ErrNoGPU is returned when wgpu-native offers no adapter.
	ErrNoGPU = errors.New("webgpu: no GPU adapter available")

	// ErrEncoderFinished is returned when an encoder is used after Finish
	// or Discard.
	ErrEncoderFinished = errors.New("webgpu: encoder already finished")
)
