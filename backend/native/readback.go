// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/rtview/gpucore"
)

// MapState is the host-mapping state of a MapRead buffer.
type MapState int

const (
	// MapStateUnmapped means the buffer is not mapped.
	MapStateUnmapped MapState = iota
	// MapStatePending means a map request waits for its fence value.
	MapStatePending
	// MapStateMapped means the shadow copy is readable.
	MapStateMapped
)

// String returns the string representation of MapState.
func (s MapState) String() string {
	switch s {
	case MapStateUnmapped:
		return "Unmapped"
	case MapStatePending:
		return "Pending"
	case MapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("MapState(%d)", int(s))
	}
}

// mapEntry tracks one MapRead buffer. The HAL has no persistent host
// mapping, so a completed map is a shadow copy read from the queue once
// the fence passed the last submission that touched the buffer.
type mapEntry struct {
	size   uint64
	state  MapState
	shadow []byte

	off   uint64
	n     uint64
	fence uint64
	done  func(gpucore.MapStatus)
}

// readyMap is a request whose fence value was reached.
type readyMap struct {
	id   gpucore.BufferID
	off  uint64
	n    uint64
	done func(gpucore.MapStatus)
}

// mapTracker is the map state machine shared by all MapRead buffers of
// an adapter. Requests move Unmapped -> Pending -> Mapped -> Unmapped;
// callbacks run outside the lock.
type mapTracker struct {
	mu      sync.Mutex
	entries map[gpucore.BufferID]*mapEntry
}

func newMapTracker() *mapTracker {
	return &mapTracker{entries: make(map[gpucore.BufferID]*mapEntry)}
}

// track registers a MapRead buffer of the given size.
func (t *mapTracker) track(id gpucore.BufferID, size uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = &mapEntry{size: size}
}

// forget removes a buffer. A pending request completes as Aborted.
func (t *mapTracker) forget(id gpucore.BufferID) {
	t.mu.Lock()
	e, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()

	if ok && e.state == MapStatePending && e.done != nil {
		e.done(gpucore.MapStatusAborted)
	}
}

// request starts a map of [off, off+n) that becomes ready at fence.
func (t *mapTracker) request(id gpucore.BufferID, off, n, fence uint64, done func(gpucore.MapStatus)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d is not a MapRead buffer", gpucore.ErrResourceNotFound, id)
	}
	if e.state != MapStateUnmapped {
		return gpucore.ErrMapPending
	}
	if n == 0 || off+n > e.size {
		return fmt.Errorf("%w: map range %d+%d exceeds buffer size %d",
			gpucore.ErrInvalidDescriptor, off, n, e.size)
	}
	e.state = MapStatePending
	e.off, e.n, e.fence, e.done = off, n, fence, done
	return nil
}

// target returns the highest fence value a pending request waits for.
func (t *mapTracker) target() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var highest uint64
	found := false
	for _, e := range t.entries {
		if e.state == MapStatePending {
			found = true
			highest = max(highest, e.fence)
		}
	}
	return highest, found
}

// ready returns the pending requests satisfied by completed. They stay
// Pending until resolve or fail is called for them.
func (t *mapTracker) ready(completed uint64) []readyMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []readyMap
	for id, e := range t.entries {
		if e.state == MapStatePending && e.fence <= completed {
			out = append(out, readyMap{id: id, off: e.off, n: e.n, done: e.done})
		}
	}
	return out
}

// resolve stores the read-back bytes and marks the buffer Mapped. It
// reports false if the request was canceled in the meantime.
func (t *mapTracker) resolve(id gpucore.BufferID, data []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok || e.state != MapStatePending {
		return false
	}
	e.shadow = make([]byte, e.size)
	copy(e.shadow[e.off:], data)
	e.state = MapStateMapped
	e.done = nil
	return true
}

// fail returns a pending buffer to Unmapped.
func (t *mapTracker) fail(id gpucore.BufferID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok || e.state != MapStatePending {
		return false
	}
	e.state = MapStateUnmapped
	e.done = nil
	return true
}

// mapped returns the shadow bytes of a Mapped buffer.
func (t *mapTracker) mapped(id gpucore.BufferID, off, n uint64) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", gpucore.ErrResourceNotFound, id)
	}
	switch e.state {
	case MapStatePending:
		return nil, gpucore.ErrMapPending
	case MapStateUnmapped:
		return nil, gpucore.ErrNotMapped
	}
	if off < e.off || off+n > e.off+e.n {
		return nil, fmt.Errorf("%w: range %d+%d outside mapped range %d+%d",
			gpucore.ErrInvalidDescriptor, off, n, e.off, e.n)
	}
	return e.shadow[off : off+n], nil
}

// unmap releases a mapping or cancels a pending request. A canceled
// request does not invoke its callback.
func (t *mapTracker) unmap(id gpucore.BufferID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return
	}
	e.state = MapStateUnmapped
	e.shadow = nil
	e.done = nil
}

// state returns the mapping state of id.
func (t *mapTracker) state(id gpucore.BufferID) MapState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		return e.state
	}
	return MapStateUnmapped
}
