// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gputest provides a recording in-memory gpucore.Device for tests.
//
// The device logs every call in order, executes recorded copy, resolve
// and timestamp commands on Submit, and completes map requests from Poll.
// Timestamps come from a scripted tick list so tests can predict the
// durations a timing probe reports.
package gputest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/rtview/gpucore"
)

// ErrInjected is returned by a create call selected with FailCreate or FailNth.
var ErrInjected = errors.New("gputest: injected failure")

// Call is one recorded device, encoder or pass operation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

type resource struct {
	kind  string
	label string
}

type buffer struct {
	size   uint64
	usage  gpucore.BufferUsage
	data   []byte
	state  mapState
	mapped []byte
}

type mapState uint8

const (
	mapIdle mapState = iota
	mapPending
	mapDone
)

type pendingMap struct {
	id   gpucore.BufferID
	off  uint64
	size uint64
	done func(gpucore.MapStatus)
}

// Device is a recording gpucore.Device. The zero value is not usable; use New.
type Device struct {
	mu sync.Mutex

	caps   gpucore.Capabilities
	calls  []Call
	nextID uint64
	live   map[uint64]resource

	buffers  map[gpucore.BufferID]*buffer
	queries  map[gpucore.QuerySetID][]uint64
	commands map[gpucore.CommandBufferID][]command

	pending []pendingMap

	creates   int
	failNth   int
	failOp    map[string]int
	opCounts  map[string]int
	stallPoll int
	dropMaps  int
	mapStatus gpucore.MapStatus
	submitErr error

	clock     uint64
	pairTicks []uint64
	pairs     int

	destroyed bool
}

// Option configures a Device.
type Option func(*Device)

// WithTimestamps enables timestamp queries with the given tick period in
// nanoseconds.
func WithTimestamps(period float32) Option {
	return func(d *Device) {
		d.caps.TimestampQuery = true
		d.caps.TimestampPeriod = period
	}
}

// WithPairTicks scripts the tick distance between the begin and end
// timestamp of each executed pair, in execution order. Pairs beyond the
// list measure zero ticks.
func WithPairTicks(ticks ...uint64) Option {
	return func(d *Device) {
		d.pairTicks = append([]uint64(nil), ticks...)
	}
}

// WithMaxTextureDimension sets the reported 2D texture limit.
func WithMaxTextureDimension(n uint32) Option {
	return func(d *Device) {
		d.caps.MaxTextureDimension2D = n
	}
}

// New returns a device without timestamp support unless configured.
func New(opts ...Option) *Device {
	d := &Device{
		caps: gpucore.Capabilities{
			MaxTextureDimension2D:   8192,
			MaxComputeWorkgroupSize: [3]uint32{256, 256, 64},
		},
		live:     make(map[uint64]resource),
		buffers:  make(map[gpucore.BufferID]*buffer),
		queries:  make(map[gpucore.QuerySetID][]uint64),
		commands: make(map[gpucore.CommandBufferID][]command),
		failOp:   make(map[string]int),
		opCounts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FailNth makes the nth create call of any kind fail (1-based). Zero
// disables the injection.
func (d *Device) FailNth(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNth = n
}

// FailCreate makes the nth call of the named create operation fail.
func (d *Device) FailCreate(op string, nth int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failOp[op] = nth
}

// StallPolls makes the next n Poll calls block until their context is done.
func (d *Device) StallPolls(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stallPoll = n
}

// DropMaps makes the next n map requests succeed without ever
// completing, as if the backend lost them. Unmap clears such a request.
func (d *Device) DropMaps(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropMaps = n
}

// SetMapStatus sets the status delivered to completed map callbacks.
func (d *Device) SetMapStatus(s gpucore.MapStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mapStatus = s
}

// FailSubmit makes Submit return err; nil restores normal submission.
func (d *Device) FailSubmit(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitErr = err
}

// Calls returns a copy of the call log.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Ops returns the operation names of the call log.
func (d *Device) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]string, len(d.calls))
	for i, c := range d.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (d *Device) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Find returns the recorded calls of op.
func (d *Device) Find(op string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Call
	for _, c := range d.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (d *Device) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// Creates returns the number of create calls made, failed ones included.
func (d *Device) Creates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creates
}

// Live returns the number of resources created and not yet destroyed.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Label returns the debug label of a live resource.
func (d *Device) Label(id uint64) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[id].label
}

// BufferData returns a copy of the contents of a buffer.
func (d *Device) BufferData(id gpucore.BufferID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil
	}
	return append([]byte(nil), b.data...)
}

// PendingMaps returns the number of map requests not yet completed.
func (d *Device) PendingMaps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Destroyed reports whether Destroy was called.
func (d *Device) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

func (d *Device) record(op string, args ...any) {
	d.calls = append(d.calls, Call{Op: op, Args: args})
}

// create records op and allocates an ID unless a failure is injected.
// The caller holds d.mu.
func (d *Device) create(op, kind, label string) (uint64, error) {
	d.record(op, label)
	d.creates++
	d.opCounts[op]++
	if d.failNth != 0 && d.creates == d.failNth {
		return 0, fmt.Errorf("%w: %s %q", ErrInjected, op, label)
	}
	if n := d.failOp[op]; n != 0 && d.opCounts[op] == n {
		return 0, fmt.Errorf("%w: %s %q", ErrInjected, op, label)
	}
	d.nextID++
	d.live[d.nextID] = resource{kind: kind, label: label}
	return d.nextID, nil
}

func (d *Device) destroy(op string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(op, id)
	delete(d.live, id)
}

func (d *Device) Capabilities() gpucore.Capabilities {
	return d.caps
}

func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.WGSL == "" && len(desc.SPIRV) == 0 {
		d.record("CreateShaderModule", desc.Label)
		return gpucore.InvalidID, fmt.Errorf("%w: empty shader source", gpucore.ErrInvalidDescriptor)
	}
	id, err := d.create("CreateShaderModule", "shader", desc.Label)
	return gpucore.ShaderModuleID(id), err
}

func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.destroy("DestroyShaderModule", uint64(id))
}

func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("CreateBuffer", "buffer", desc.Label)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.buffers[gpucore.BufferID(id)] = &buffer{
		size:  desc.Size,
		usage: desc.Usage,
		data:  make([]byte, desc.Size),
	}
	return gpucore.BufferID(id), nil
}

func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.destroy("DestroyBuffer", uint64(id))
	d.mu.Lock()
	delete(d.buffers, id)
	d.mu.Unlock()
}

func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc.Width == 0 || desc.Height == 0 {
		d.record("CreateTexture", desc.Label)
		return gpucore.InvalidID, fmt.Errorf("%w: zero texture size", gpucore.ErrInvalidDescriptor)
	}
	id, err := d.create("CreateTexture", "texture", desc.Label)
	return gpucore.TextureID(id), err
}

func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.destroy("DestroyTexture", uint64(id))
}

func (d *Device) CreateTextureView(texture gpucore.TextureID, label string) (gpucore.TextureViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[uint64(texture)]; !ok {
		d.record("CreateTextureView", label)
		return gpucore.InvalidID, gpucore.ErrResourceNotFound
	}
	id, err := d.create("CreateTextureView", "view", label)
	return gpucore.TextureViewID(id), err
}

func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.destroy("DestroyTextureView", uint64(id))
}

func (d *Device) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("CreateSampler", "sampler", desc.Label)
	if err == nil {
		d.calls[len(d.calls)-1].Args = append(d.calls[len(d.calls)-1].Args, desc.MagFilter, desc.MinFilter)
	}
	return gpucore.SamplerID(id), err
}

func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.destroy("DestroySampler", uint64(id))
}

func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("CreateBindGroupLayout", "layout", desc.Label)
	return gpucore.BindGroupLayoutID(id), err
}

func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.destroy("DestroyBindGroupLayout", uint64(id))
}

func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[uint64(desc.Layout)]; !ok {
		d.record("CreateBindGroup", desc.Label)
		return gpucore.InvalidID, fmt.Errorf("%w: layout %d", gpucore.ErrResourceNotFound, desc.Layout)
	}
	id, err := d.create("CreateBindGroup", "group", desc.Label)
	return gpucore.BindGroupID(id), err
}

func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.destroy("DestroyBindGroup", uint64(id))
}

func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("CreatePipelineLayout", "pipeline layout", desc.Label)
	if err == nil {
		d.calls[len(d.calls)-1].Args = append(d.calls[len(d.calls)-1].Args,
			append([]gpucore.BindGroupLayoutID(nil), desc.BindGroupLayouts...))
	}
	return gpucore.PipelineLayoutID(id), err
}

func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.destroy("DestroyPipelineLayout", uint64(id))
}

func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("CreateComputePipeline", "compute pipeline", desc.Label)
	if err == nil {
		d.calls[len(d.calls)-1].Args = append(d.calls[len(d.calls)-1].Args, desc.EntryPoint)
	}
	return gpucore.ComputePipelineID(id), err
}

func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.destroy("DestroyComputePipeline", uint64(id))
}

func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.create("CreateRenderPipeline", "render pipeline", desc.Label)
	if err == nil {
		d.calls[len(d.calls)-1].Args = append(d.calls[len(d.calls)-1].Args, desc.TargetFormat)
	}
	return gpucore.RenderPipelineID(id), err
}

func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.destroy("DestroyRenderPipeline", uint64(id))
}

func (d *Device) CreateQuerySet(desc *gpucore.QuerySetDesc) (gpucore.QuerySetID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.caps.TimestampQuery {
		d.record("CreateQuerySet", desc.Label)
		return gpucore.InvalidID, gpucore.ErrUnsupported
	}
	id, err := d.create("CreateQuerySet", "query set", desc.Label)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.queries[gpucore.QuerySetID(id)] = make([]uint64, desc.Count)
	return gpucore.QuerySetID(id), nil
}

func (d *Device) DestroyQuerySet(id gpucore.QuerySetID) {
	d.destroy("DestroyQuerySet", uint64(id))
	d.mu.Lock()
	delete(d.queries, id)
	d.mu.Unlock()
}

func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := append([]byte(nil), data...)
	d.record("WriteBuffer", id, offset, cp)
	if b, ok := d.buffers[id]; ok && offset+uint64(len(data)) <= b.size {
		copy(b.data[offset:], data)
	}
}

func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateCommandEncoder", label)
	return &Encoder{dev: d, label: label}, nil
}

func (d *Device) Submit(cmds ...gpucore.CommandBufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Submit", len(cmds))
	if d.submitErr != nil {
		return d.submitErr
	}
	for _, id := range cmds {
		list, ok := d.commands[id]
		if !ok {
			return fmt.Errorf("%w: command buffer %d", gpucore.ErrResourceNotFound, id)
		}
		delete(d.commands, id)
		for _, c := range list {
			c(d)
		}
	}
	return nil
}

func (d *Device) MapReadAsync(id gpucore.BufferID, offset, size uint64, done func(gpucore.MapStatus)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MapReadAsync", id, offset, size)
	b, ok := d.buffers[id]
	if !ok {
		return gpucore.ErrResourceNotFound
	}
	if !b.usage.Contains(gpucore.BufferUsageMapRead) {
		return fmt.Errorf("%w: buffer %d lacks MapRead", gpucore.ErrInvalidDescriptor, id)
	}
	if b.state != mapIdle {
		return gpucore.ErrMapPending
	}
	if offset+size > b.size {
		return fmt.Errorf("%w: range %d+%d exceeds %d", gpucore.ErrInvalidDescriptor, offset, size, b.size)
	}
	b.state = mapPending
	if d.dropMaps > 0 {
		d.dropMaps--
		return nil
	}
	d.pending = append(d.pending, pendingMap{id: id, off: offset, size: size, done: done})
	return nil
}

func (d *Device) MappedRange(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("MappedRange", id, offset, size)
	b, ok := d.buffers[id]
	if !ok {
		return nil, gpucore.ErrResourceNotFound
	}
	if b.state != mapDone {
		return nil, gpucore.ErrNotMapped
	}
	if offset+size > uint64(len(b.mapped)) {
		return nil, fmt.Errorf("%w: range %d+%d", gpucore.ErrInvalidDescriptor, offset, size)
	}
	return b.mapped[offset : offset+size], nil
}

func (d *Device) Unmap(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Unmap", id)
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	b.state = mapIdle
	b.mapped = nil
	kept := d.pending[:0]
	for _, p := range d.pending {
		if p.id != id {
			kept = append(kept, p)
		}
	}
	d.pending = kept
}

// Poll completes every pending map request. Callbacks run on the calling
// goroutine after the device lock is released.
func (d *Device) Poll(ctx context.Context) error {
	d.mu.Lock()
	d.record("Poll")
	if d.stallPoll > 0 {
		d.stallPoll--
		d.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}

	status := d.mapStatus
	ready := d.pending
	d.pending = nil
	for _, p := range ready {
		b := d.buffers[p.id]
		if b == nil {
			continue
		}
		if status == gpucore.MapStatusSuccess {
			b.state = mapDone
			b.mapped = make([]byte, b.size)
			copy(b.mapped[p.off:], b.data[p.off:p.off+p.size])
		} else {
			b.state = mapIdle
		}
	}
	d.mu.Unlock()

	for _, p := range ready {
		if p.done != nil {
			p.done(status)
		}
	}
	return ctx.Err()
}

func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Destroy")
	d.destroyed = true
}

var _ gpucore.Device = (*Device)(nil)
