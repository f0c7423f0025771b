package backend

import (
	"errors"

	"github.com/gogpu/rtview/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoBackend is returned when no registered backend could open a device.
	ErrNoBackend = errors.New("backend: no backend could open a device")
)

// Backend name constants.
const (
	// BackendNative is the name of the Pure Go backend (gogpu/wgpu HAL).
	BackendNative = "hal"
	// BackendWebGPU is the name of the wgpu-native backend (cogentcore/webgpu).
	BackendWebGPU = "webgpu"
)

// Config holds backend-independent device options.
type Config struct {
	// DisableTimestamps opens the device without timestamp queries even
	// when the adapter supports them.
	DisableTimestamps bool

	// SPIRV asks backends that accept it to compile WGSL to SPIR-V
	// before creating shader modules.
	SPIRV bool
}

// Factory opens a standalone device. The caller owns the returned
// device and must call Destroy on it.
type Factory func(cfg Config) (gpucore.Device, error)
