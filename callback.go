package rtview

import (
	"context"

	"github.com/gogpu/rtview/gpucore"
)

// Paintable is the per-frame contract a host UI framework drives. For
// every redraw the host calls Prepare and FinishPrepare on its frame
// encoder, then Paint inside the render pass targeting the window, and
// finally submits the encoder once.
type Paintable interface {
	Prepare(ctx context.Context, enc gpucore.CommandEncoder, size Size) error
	FinishPrepare(ctx context.Context, enc gpucore.CommandEncoder) error
	Paint(pass gpucore.RenderPassEncoder) error
}

// FrameStats describes the most recently prepared frame.
type FrameStats struct {
	Frame     uint64
	Requested Size
	Effective Size
	GridX     uint32
	GridY     uint32
}

// Callback is the frame orchestrator. It is the only mutator of its
// Resources during a frame and must be driven from one goroutine.
type Callback struct {
	res   *Resources
	stats FrameStats
	frame uint64

	// clamped is the last request logged as exceeding the capacity.
	clamped  Size
	clamping bool
}

var _ Paintable = (*Callback)(nil)

// Prepare clamps size to the texture capacity, uploads the shared
// uniform and records the timestamped compute dispatch.
func (c *Callback) Prepare(ctx context.Context, enc gpucore.CommandEncoder, size Size) error {
	if c.res.closed {
		return ErrClosed
	}
	eff := Clamp(size, c.res.opts.capacity)
	c.noteClamp(size)
	c.res.uniform.Update(eff)

	desc := gpucore.ComputePassDesc{Label: "raytrace"}
	c.res.probe.WriteBegin(&desc)
	c.res.probe.WriteEnd(&desc)
	x, y, err := c.res.compute.Dispatch(enc, eff, &desc)
	if err != nil {
		return err
	}

	c.stats = FrameStats{
		Frame:     c.frame,
		Requested: size,
		Effective: eff,
		GridX:     x,
		GridY:     y,
	}
	c.frame++
	Logger().Debug("rtview: frame prepared",
		"frame", c.stats.Frame, "width", eff.Width, "height", eff.Height,
		"grid_x", x, "grid_y", y)
	return nil
}

// noteClamp warns when the requested size starts exceeding the capacity
// or changes while it does. A steady oversized viewport logs once.
func (c *Callback) noteClamp(req Size) {
	capacity := c.res.opts.capacity
	if !(req.Width > float32(capacity.Width) || req.Height > float32(capacity.Height)) {
		c.clamping = false
		return
	}
	if c.clamping && req == c.clamped {
		return
	}
	c.clamped, c.clamping = req, true
	Logger().Warn("rtview: viewport clamped to texture capacity",
		"width", req.Width, "height", req.Height,
		"capacity_width", capacity.Width, "capacity_height", capacity.Height)
}

// FinishPrepare drives the timing read-back. It publishes the previous
// frame's compute duration to the Timing handle and records the
// resolve of this frame's timestamps.
func (c *Callback) FinishPrepare(ctx context.Context, enc gpucore.CommandEncoder) error {
	if c.res.closed {
		return ErrClosed
	}
	return c.res.probe.Finalize(ctx, enc)
}

// Paint draws the output texture. The draw is issued even when the
// dispatch of this frame was empty, showing the texture's previous
// contents, unless WithClearOnEmptyGrid was set.
func (c *Callback) Paint(pass gpucore.RenderPassEncoder) error {
	if c.res.closed {
		return ErrClosed
	}
	if c.res.opts.clearOnEmptyGrid && (c.stats.GridX == 0 || c.stats.GridY == 0) {
		return nil
	}
	return c.res.render.Draw(pass)
}

// SetAngle sets the camera angle uploaded with the next frame. It does
// nothing once the resources are closed.
func (c *Callback) SetAngle(rad float32) {
	if c.res.closed {
		return
	}
	c.res.uniform.SetAngle(rad)
}

// Drag applies a horizontal drag delta in pixels to the camera angle. It
// does nothing once the resources are closed.
func (c *Callback) Drag(dx float32) {
	if c.res.closed {
		return
	}
	c.res.uniform.SetAngle(c.res.uniform.Angle() + dx*DragRadiansPerPixel)
}

// DragRadiansPerPixel converts pointer drag distance to camera rotation.
const DragRadiansPerPixel = 0.01

// Stats returns the statistics of the last prepared frame.
func (c *Callback) Stats() FrameStats { return c.stats }

// Frame returns the number of frames prepared so far.
func (c *Callback) Frame() uint64 { return c.frame }

// LastGrid returns the workgroup grid of the last dispatch.
func (c *Callback) LastGrid() (x, y uint32) { return c.stats.GridX, c.stats.GridY }

// Timing returns the shared timing value the callback publishes to.
func (c *Callback) Timing() *Timing { return c.res.timing }
