// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNilDevice is returned when NewHALAdapter gets a nil device or queue.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not registered in this build.
	ErrBackendUnavailable = errors.New("native: HAL backend not available")

	// ErrDeviceLost is returned when waiting on the GPU device fails.
	ErrDeviceLost = errors.New("native: GPU device lost")

	// ErrEncoderFinished is returned when an encoder is used after Finish
	// or Discard.
	ErrEncoderFinished = errors.New("native: encoder already finished")

	// ErrPassOpen is returned by Finish while a pass is still recording.
	ErrPassOpen = errors.New("native: pass still recording")
)
