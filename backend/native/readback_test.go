// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/rtview/gpucore"
)

func TestMapTrackerLifecycle(t *testing.T) {
	tr := newMapTracker()
	tr.track(7, 16)

	if got := tr.state(7); got != MapStateUnmapped {
		t.Fatalf("initial state = %v, want Unmapped", got)
	}
	if _, ok := tr.target(); ok {
		t.Fatal("target() reported a pending request on an idle tracker")
	}

	var status []gpucore.MapStatus
	if err := tr.request(7, 0, 16, 3, func(s gpucore.MapStatus) { status = append(status, s) }); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := tr.state(7); got != MapStatePending {
		t.Errorf("state after request = %v, want Pending", got)
	}
	if target, ok := tr.target(); !ok || target != 3 {
		t.Errorf("target() = %d, %v; want 3, true", target, ok)
	}
	if _, err := tr.mapped(7, 0, 16); !errors.Is(err, gpucore.ErrMapPending) {
		t.Errorf("mapped while pending: err = %v, want ErrMapPending", err)
	}

	if got := tr.ready(2); len(got) != 0 {
		t.Errorf("ready(2) returned %d requests, want 0", len(got))
	}
	ready := tr.ready(3)
	if len(ready) != 1 || ready[0].id != 7 || ready[0].n != 16 {
		t.Fatalf("ready(3) = %+v, want one request for buffer 7", ready)
	}

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if !tr.resolve(7, data) {
		t.Fatal("resolve() = false, want true")
	}
	ready[0].done(gpucore.MapStatusSuccess)
	if len(status) != 1 || status[0] != gpucore.MapStatusSuccess {
		t.Errorf("callback statuses = %v, want [Success]", status)
	}

	got, err := tr.mapped(7, 8, 8)
	if err != nil {
		t.Fatalf("mapped: %v", err)
	}
	if got[0] != 9 || got[7] != 16 {
		t.Errorf("mapped(8, 8) = %v, want bytes 9..16", got)
	}

	tr.unmap(7)
	if got := tr.state(7); got != MapStateUnmapped {
		t.Errorf("state after unmap = %v, want Unmapped", got)
	}
	if _, err := tr.mapped(7, 0, 16); !errors.Is(err, gpucore.ErrNotMapped) {
		t.Errorf("mapped after unmap: err = %v, want ErrNotMapped", err)
	}
}

func TestMapTrackerRequestErrors(t *testing.T) {
	tr := newMapTracker()
	tr.track(1, 16)

	if err := tr.request(2, 0, 16, 0, nil); !errors.Is(err, gpucore.ErrResourceNotFound) {
		t.Errorf("untracked buffer: err = %v, want ErrResourceNotFound", err)
	}
	if err := tr.request(1, 8, 16, 0, nil); !errors.Is(err, gpucore.ErrInvalidDescriptor) {
		t.Errorf("range overflow: err = %v, want ErrInvalidDescriptor", err)
	}
	if err := tr.request(1, 0, 0, 0, nil); !errors.Is(err, gpucore.ErrInvalidDescriptor) {
		t.Errorf("empty range: err = %v, want ErrInvalidDescriptor", err)
	}
	if err := tr.request(1, 0, 16, 0, nil); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := tr.request(1, 0, 16, 0, nil); !errors.Is(err, gpucore.ErrMapPending) {
		t.Errorf("second request: err = %v, want ErrMapPending", err)
	}
}

func TestMapTrackerTargetIsHighestFence(t *testing.T) {
	tr := newMapTracker()
	tr.track(1, 8)
	tr.track(2, 8)
	_ = tr.request(1, 0, 8, 4, nil)
	_ = tr.request(2, 0, 8, 9, nil)

	if target, ok := tr.target(); !ok || target != 9 {
		t.Errorf("target() = %d, %v; want 9, true", target, ok)
	}
	if got := tr.ready(5); len(got) != 1 || got[0].id != 1 {
		t.Errorf("ready(5) = %+v, want only buffer 1", got)
	}
}

func TestMapTrackerUnmapCancelsSilently(t *testing.T) {
	tr := newMapTracker()
	tr.track(1, 8)
	called := false
	_ = tr.request(1, 0, 8, 1, func(gpucore.MapStatus) { called = true })

	tr.unmap(1)
	if tr.resolve(1, make([]byte, 8)) {
		t.Error("resolve() after unmap = true, want false")
	}
	if got := tr.ready(1); len(got) != 0 {
		t.Errorf("ready after unmap returned %d requests", len(got))
	}
	if called {
		t.Error("canceled request invoked its callback")
	}
}

func TestMapTrackerForgetAborts(t *testing.T) {
	tr := newMapTracker()
	tr.track(1, 8)
	var got gpucore.MapStatus = -1
	_ = tr.request(1, 0, 8, 1, func(s gpucore.MapStatus) { got = s })

	tr.forget(1)
	if got != gpucore.MapStatusAborted {
		t.Errorf("status = %v, want Aborted", got)
	}
	if err := tr.request(1, 0, 8, 1, nil); !errors.Is(err, gpucore.ErrResourceNotFound) {
		t.Errorf("request after forget: err = %v, want ErrResourceNotFound", err)
	}
}

func TestMapTrackerFail(t *testing.T) {
	tr := newMapTracker()
	tr.track(1, 8)
	_ = tr.request(1, 0, 8, 1, nil)

	if !tr.fail(1) {
		t.Fatal("fail() = false on a pending buffer")
	}
	if tr.fail(1) {
		t.Error("fail() = true on an unmapped buffer")
	}
	if got := tr.state(1); got != MapStateUnmapped {
		t.Errorf("state = %v, want Unmapped", got)
	}
}

func TestMapStateString(t *testing.T) {
	tests := []struct {
		state MapState
		want  string
	}{
		{MapStateUnmapped, "Unmapped"},
		{MapStatePending, "Pending"},
		{MapStateMapped, "Mapped"},
		{MapState(9), "MapState(9)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("MapState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
