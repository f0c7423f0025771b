// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"github.com/gogpu/rtview/backend"
	"github.com/gogpu/rtview/gpucore"
)

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, openFromConfig)
}

func openFromConfig(cfg backend.Config) (gpucore.Device, error) {
	opts := []Option{WithSPIRV(cfg.SPIRV)}
	if cfg.DisableTimestamps {
		opts = append(opts, WithoutTimestamps())
	}
	a, err := Open(opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}
