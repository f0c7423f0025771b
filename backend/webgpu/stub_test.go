//go:build !wgpunative

package webgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/rtview/backend"
)

func TestOpenNotBuilt(t *testing.T) {
	dev, err := Open(WithoutTimestamps())
	if !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Open() error = %v, want ErrNotBuilt", err)
	}
	if dev != nil {
		t.Error("Open() returned a device")
	}
}

func TestNotRegistered(t *testing.T) {
	if backend.IsRegistered(backend.BackendWebGPU) {
		t.Error("webgpu backend registered without the wgpunative tag")
	}
}
