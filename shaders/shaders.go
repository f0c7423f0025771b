// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shaders holds the WGSL sources of the compute and presentation
// pipelines together with their entry point names.
package shaders

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/rtview/internal/cache"
)

//go:embed raytrace.wgsl
var RayTraceWGSL string

//go:embed present.wgsl
var PresentWGSL string

// Entry points.
const (
	ComputeEntry  = "compute_main"
	VertexEntry   = "vertex_main"
	FragmentEntry = "fragment_main"
)

// WorkgroupSize is the edge of the square compute workgroup declared in
// raytrace.wgsl. Dispatch grids are computed in units of it.
const WorkgroupSize = 16

// ErrShaderCompile is returned when a WGSL source fails to compile.
var ErrShaderCompile = errors.New("shaders: compile failed")

// spirvCacheSize bounds the compiled modules kept between pipeline builds.
const spirvCacheSize = 8

// compiled holds SPIR-V keyed by WGSL source. Resources are rebuilt on
// every device open, so repeated compiles of the same source are common.
var compiled = cache.New[string, []uint32](spirvCacheSize)

// CacheStats reports hits and misses of the compiled module cache.
func CacheStats() cache.Stats { return compiled.Stats() }

// Validate compiles both sources and reports the first failure.
func Validate() error {
	for _, s := range []struct {
		name string
		src  string
	}{
		{"raytrace", RayTraceWGSL},
		{"present", PresentWGSL},
	} {
		if _, err := CompileSPIRV(s.src); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words for backends that do
// not accept WGSL directly. Results are cached; callers must not modify
// the returned slice.
func CompileSPIRV(src string) ([]uint32, error) {
	return compiled.GetOrCreate(src, func() ([]uint32, error) {
		return compile(src)
	})
}

func compile(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: spir-v length %d is not a multiple of 4", ErrShaderCompile, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
