package rtview

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/rtview/gpucore"
)

// timestampBytes is the size of one resolved begin/end pair.
const timestampBytes = 2 * 8

// maxIdlePolls is the number of completed polls without a map callback
// after which the map request is considered lost and abandoned.
const maxIdlePolls = 3

// ProbeState is the read-back state of the timing probe.
type ProbeState uint8

const (
	// ProbeUnsupported means the device has no timestamp queries. The
	// probe never leaves this state.
	ProbeUnsupported ProbeState = iota
	// ProbeIdle means no query pair is in flight.
	ProbeIdle
	// ProbeWritten means this frame's timestamps are recorded but not resolved.
	ProbeWritten
	// ProbeResolved means resolve and copy to the staging buffer are
	// recorded; the map is requested once the host has submitted them.
	ProbeResolved
	// ProbeMapPending means the staging buffer map was requested and has
	// not completed yet.
	ProbeMapPending
)

// String returns the state name.
func (s ProbeState) String() string {
	switch s {
	case ProbeUnsupported:
		return "Unsupported"
	case ProbeIdle:
		return "Idle"
	case ProbeWritten:
		return "Written"
	case ProbeResolved:
		return "Resolved"
	case ProbeMapPending:
		return "MapPending"
	default:
		return fmt.Sprintf("ProbeState(%d)", uint8(s))
	}
}

// TimingProbe measures the compute pass with a pair of GPU timestamps.
// The variant is chosen once from the device capabilities: an
// unsupported probe records nothing and leaves the Timing at NaN.
type TimingProbe interface {
	// Supported reports whether timestamps are recorded at all.
	Supported() bool

	// State returns the read-back state.
	State() ProbeState

	// WriteBegin requests the beginning-of-pass timestamp on the compute
	// pass described by desc.
	WriteBegin(desc *gpucore.ComputePassDesc)

	// WriteEnd requests the end-of-pass timestamp on the compute pass
	// described by desc. The pair counts as written from here on.
	WriteEnd(desc *gpucore.ComputePassDesc)

	// Finalize publishes the previous frame's duration, if it can be
	// read within the poll timeout, then records the resolve and copy
	// of this frame's pair. The value it publishes is one frame old.
	Finalize(ctx context.Context, enc gpucore.CommandEncoder) error

	// Destroy releases the probe's GPU objects.
	Destroy()
}

// newTimingProbe returns the probe variant matching the device.
func newTimingProbe(dev gpucore.Device, timing *Timing, o *options) (TimingProbe, error) {
	caps := dev.Capabilities()
	if !caps.TimestampQuery {
		return unsupportedProbe{}, nil
	}
	p, err := newActiveProbe(dev, timing, caps.TimestampPeriod, o)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// unsupportedProbe is the probe of a device without timestamp queries.
type unsupportedProbe struct{}

func (unsupportedProbe) Supported() bool { return false }

func (unsupportedProbe) State() ProbeState { return ProbeUnsupported }

func (unsupportedProbe) WriteBegin(*gpucore.ComputePassDesc) {}

func (unsupportedProbe) WriteEnd(*gpucore.ComputePassDesc) {}

func (unsupportedProbe) Finalize(context.Context, gpucore.CommandEncoder) error { return nil }

func (unsupportedProbe) Destroy() {}

// activeProbe owns the query set, resolve buffer and staging buffer.
type activeProbe struct {
	dev     gpucore.Device
	timing  *Timing
	period  float64 // nanoseconds per tick
	timeout time.Duration

	querySet gpucore.QuerySetID
	resolve  gpucore.BufferID
	staging  gpucore.BufferID

	// stage tracks the staging buffer; written tracks this frame's pair.
	stage   ProbeState
	written bool

	// mapped receives the status of the outstanding map request. The
	// callback may run on any goroutine.
	mapped chan gpucore.MapStatus

	dropped uint64

	// idlePolls counts polls that finished without delivering the
	// outstanding map.
	idlePolls int
}

func newActiveProbe(dev gpucore.Device, timing *Timing, period float32, o *options) (*activeProbe, error) {
	p := &activeProbe{
		dev:     dev,
		timing:  timing,
		period:  float64(period),
		timeout: o.pollTimeout,
		stage:   ProbeIdle,
		mapped:  make(chan gpucore.MapStatus, 1),
	}
	if p.period <= 0 {
		p.period = 1
	}
	fail := func(what string, err error) (*activeProbe, error) {
		p.Destroy()
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceCreation, what, err)
	}

	var err error
	p.querySet, err = dev.CreateQuerySet(&gpucore.QuerySetDesc{
		Label: o.label("timestamp queries"),
		Count: 2,
	})
	if err != nil {
		return fail("timestamp queries", err)
	}
	p.resolve, err = dev.CreateBuffer(&gpucore.BufferDesc{
		Label: o.label("timestamp resolve"),
		Size:  timestampBytes,
		Usage: gpucore.BufferUsageQueryResolve | gpucore.BufferUsageCopySrc,
	})
	if err != nil {
		return fail("timestamp resolve", err)
	}
	p.staging, err = dev.CreateBuffer(&gpucore.BufferDesc{
		Label: o.label("timestamp staging"),
		Size:  timestampBytes,
		Usage: gpucore.BufferUsageMapRead | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return fail("timestamp staging", err)
	}
	return p, nil
}

func (p *activeProbe) Supported() bool { return true }

func (p *activeProbe) State() ProbeState {
	if p.written && p.stage == ProbeIdle {
		return ProbeWritten
	}
	return p.stage
}

// Query slots of the begin/end pair.
const (
	beginSlot uint32 = 0
	endSlot   uint32 = 1
)

func (p *activeProbe) timestampWrites(desc *gpucore.ComputePassDesc) *gpucore.ComputePassTimestampWrites {
	if desc.TimestampWrites == nil || desc.TimestampWrites.QuerySet != p.querySet {
		desc.TimestampWrites = &gpucore.ComputePassTimestampWrites{QuerySet: p.querySet}
	}
	return desc.TimestampWrites
}

func (p *activeProbe) WriteBegin(desc *gpucore.ComputePassDesc) {
	slot := beginSlot
	p.timestampWrites(desc).BeginningOfPassWriteIndex = &slot
}

func (p *activeProbe) WriteEnd(desc *gpucore.ComputePassDesc) {
	slot := endSlot
	p.timestampWrites(desc).EndOfPassWriteIndex = &slot
	p.written = true
}

func (p *activeProbe) Finalize(ctx context.Context, enc gpucore.CommandEncoder) error {
	if p.stage == ProbeResolved {
		// The copy was recorded last frame and the host has submitted it.
		select {
		case <-p.mapped: // late status of an abandoned request
		default:
		}
		p.idlePolls = 0
		err := p.dev.MapReadAsync(p.staging, 0, timestampBytes, func(s gpucore.MapStatus) {
			select {
			case p.mapped <- s:
			default:
			}
		})
		if err != nil {
			return fmt.Errorf("%w: map request: %w", ErrTimingReadback, err)
		}
		p.stage = ProbeMapPending
	}

	if p.stage == ProbeMapPending {
		if err := p.awaitMap(ctx); err != nil {
			return err
		}
	}

	if !p.written {
		return nil
	}
	p.written = false
	if p.stage != ProbeIdle {
		// Staging buffer still busy; this frame's pair is not measured.
		p.dropped++
		Logger().Debug("rtview: timing pair dropped", "state", p.stage, "dropped", p.dropped)
		return nil
	}
	enc.ResolveQuerySet(p.querySet, 0, 2, p.resolve, 0)
	enc.CopyBufferToBuffer(p.resolve, 0, p.staging, 0, timestampBytes)
	p.stage = ProbeResolved
	return nil
}

// awaitMap polls the device for the outstanding map, bounded by the
// probe timeout. On timeout the map stays pending for the next frame. A
// request that maxIdlePolls completed polls never deliver is unmapped and
// the probe returns to Idle.
func (p *activeProbe) awaitMap(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.dev.Poll(pctx)
	cancel()

	select {
	case status := <-p.mapped:
		return p.complete(status)
	default:
	}

	switch {
	case err == nil:
		p.idlePolls++
		if p.idlePolls < maxIdlePolls {
			Logger().Warn("rtview: timing read-back not delivered, retrying next frame",
				"polls", p.idlePolls)
			return nil
		}
		Logger().Warn("rtview: timing read-back lost, abandoning request",
			"polls", p.idlePolls)
		p.dev.Unmap(p.staging)
		p.stage = ProbeIdle
		p.idlePolls = 0
		return nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		Logger().Warn("rtview: timing read-back not ready, retrying next frame",
			"timeout", p.timeout)
		return nil
	default:
		return fmt.Errorf("%w: poll: %w", ErrTimingReadback, err)
	}
}

// complete consumes a finished map and publishes the duration.
func (p *activeProbe) complete(status gpucore.MapStatus) error {
	defer func() {
		p.dev.Unmap(p.staging)
		p.stage = ProbeIdle
	}()
	if status != gpucore.MapStatusSuccess {
		return fmt.Errorf("%w: map status %s", ErrTimingReadback, status)
	}
	data, err := p.dev.MappedRange(p.staging, 0, timestampBytes)
	if err != nil {
		return fmt.Errorf("%w: mapped range: %w", ErrTimingReadback, err)
	}
	begin := binary.LittleEndian.Uint64(data[0:8])
	end := binary.LittleEndian.Uint64(data[8:16])
	ms := durationMillis(begin, end, p.period)
	p.timing.store(ms)
	Logger().Debug("rtview: compute time", "ms", ms)
	return nil
}

// durationMillis converts a timestamp pair to milliseconds. A pair that
// runs backwards is not a measurement and yields NaN.
func durationMillis(begin, end uint64, periodNs float64) float64 {
	if end < begin {
		return math.NaN()
	}
	return float64(end-begin) * periodNs * 1e-6
}

func (p *activeProbe) Destroy() {
	if p.stage == ProbeMapPending {
		p.dev.Unmap(p.staging)
		p.stage = ProbeIdle
	}
	if p.staging != gpucore.InvalidID {
		p.dev.DestroyBuffer(p.staging)
		p.staging = gpucore.InvalidID
	}
	if p.resolve != gpucore.InvalidID {
		p.dev.DestroyBuffer(p.resolve)
		p.resolve = gpucore.InvalidID
	}
	if p.querySet != gpucore.InvalidID {
		p.dev.DestroyQuerySet(p.querySet)
		p.querySet = gpucore.InvalidID
	}
}
