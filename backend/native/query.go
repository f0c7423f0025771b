// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Timestamp query support. Every HAL call the timing probe needs lives
// here so that the rest of the adapter only deals in gpucore IDs.

// bufferUsageQueryResolve is the usage of buffers that receive resolved
// query results.
const bufferUsageQueryResolve = gputypes.BufferUsageQueryResolve

// featureTimestampQuery is requested when opening a device that should
// measure the compute pass.
const featureTimestampQuery = gputypes.FeatureTimestampQuery

func createTimestampQuerySet(device hal.Device, label string, count uint32) (hal.QuerySet, error) {
	return device.CreateQuerySet(&hal.QuerySetDescriptor{
		Label: label,
		Type:  hal.QueryTypeTimestamp,
		Count: count,
	})
}

func destroyQuerySet(device hal.Device, set hal.QuerySet) {
	device.DestroyQuerySet(set)
}

// passTimestampWrites builds the pass-boundary writes of a compute pass.
// The HAL only writes timestamps at pass boundaries.
func passTimestampWrites(set hal.QuerySet, begin, end *uint32) *hal.ComputePassTimestampWrites {
	return &hal.ComputePassTimestampWrites{
		QuerySet:                  set,
		BeginningOfPassWriteIndex: begin,
		EndOfPassWriteIndex:       end,
	}
}

func resolveQuerySet(enc hal.CommandEncoder, set hal.QuerySet, first, count uint32, dst hal.Buffer, offset uint64) {
	enc.ResolveQuerySet(set, first, count, dst, offset)
}

// timestampPeriod returns nanoseconds per tick for queue.
func timestampPeriod(queue hal.Queue) float32 {
	return queue.GetTimestampPeriod()
}

// adapterSupportsTimestamps reports whether the adapter exposes
// timestamp queries.
func adapterSupportsTimestamps(a *hal.ExposedAdapter) bool {
	return a.Features.Contains(featureTimestampQuery)
}
