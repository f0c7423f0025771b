package rtview

import (
	"fmt"

	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/shaders"
)

// Resources owns every GPU object of the pipeline. It is created once at
// startup and closed at shutdown; per-frame work goes through Callback.
type Resources struct {
	dev  gpucore.Device
	opts options

	rayModule     gpucore.ShaderModuleID
	presentModule gpucore.ShaderModuleID

	uniform *SharedUniform
	compute *ComputeStage
	render  *RenderStage
	probe   TimingProbe
	timing  *Timing

	callback *Callback
	closed   bool
}

// NewResources creates the shared uniform, both stages and the timing
// probe on dev. Any failure releases what was created and returns an
// error wrapping ErrResourceCreation (or a validation error); there is
// no usable rendering path in that case.
func NewResources(dev gpucore.Device, opts ...Option) (*Resources, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	caps := dev.Capabilities()
	if o.capacity.IsZero() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCapacity, o.capacity.Width, o.capacity.Height)
	}
	if maxDim := caps.MaxTextureDimension2D; maxDim != 0 && (o.capacity.Width > maxDim || o.capacity.Height > maxDim) {
		return nil, fmt.Errorf("%w: %dx%d exceeds device limit %d",
			ErrInvalidCapacity, o.capacity.Width, o.capacity.Height, maxDim)
	}

	if o.validateShaders {
		if err := shaders.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResourceCreation, err)
		}
	}

	r := &Resources{dev: dev, opts: o, timing: NewTiming()}
	if err := r.build(); err != nil {
		r.release()
		return nil, err
	}
	r.callback = &Callback{res: r}

	Logger().Info("rtview: resources created",
		"capacity_width", o.capacity.Width,
		"capacity_height", o.capacity.Height,
		"target_format", o.targetFormat,
		"timing", r.probe.Supported())
	return r, nil
}

func (r *Resources) build() error {
	o := &r.opts
	var err error

	r.rayModule, err = r.dev.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: o.label("raytrace shader"),
		WGSL:  shaders.RayTraceWGSL,
	})
	if err != nil {
		return fmt.Errorf("%w: raytrace shader: %w", ErrResourceCreation, err)
	}
	r.presentModule, err = r.dev.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: o.label("present shader"),
		WGSL:  shaders.PresentWGSL,
	})
	if err != nil {
		return fmt.Errorf("%w: present shader: %w", ErrResourceCreation, err)
	}

	if r.uniform, err = newSharedUniform(r.dev, o); err != nil {
		return err
	}
	if r.compute, err = newComputeStage(r.dev, r.uniform, r.rayModule, o); err != nil {
		return err
	}
	if r.render, err = newRenderStage(r.dev, r.uniform, r.compute.View(), r.presentModule, o); err != nil {
		return err
	}
	if r.probe, err = newTimingProbe(r.dev, r.timing, o); err != nil {
		return err
	}
	return nil
}

// Callback returns the frame orchestrator bound to these resources.
func (r *Resources) Callback() *Callback { return r.callback }

// Timing returns the shared compute-duration readout.
func (r *Resources) Timing() *Timing { return r.timing }

// Probe returns the timing probe variant selected for the device.
func (r *Resources) Probe() TimingProbe { return r.probe }

// Compute returns the compute stage.
func (r *Resources) Compute() *ComputeStage { return r.compute }

// Capacity returns the output texture size.
func (r *Resources) Capacity() Extent { return r.opts.capacity }

// Device returns the device the resources were created on.
func (r *Resources) Device() gpucore.Device { return r.dev }

// Close destroys all GPU objects in reverse creation order. It is safe
// to call Close more than once.
func (r *Resources) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.release()
}

func (r *Resources) release() {
	if r.probe != nil {
		r.probe.Destroy()
		r.probe = nil
	}
	if r.render != nil {
		r.render.Destroy()
		r.render = nil
	}
	if r.compute != nil {
		r.compute.Destroy()
		r.compute = nil
	}
	if r.uniform != nil {
		r.uniform.Destroy()
		r.uniform = nil
	}
	if r.presentModule != gpucore.InvalidID {
		r.dev.DestroyShaderModule(r.presentModule)
		r.presentModule = gpucore.InvalidID
	}
	if r.rayModule != gpucore.InvalidID {
		r.dev.DestroyShaderModule(r.rayModule)
		r.rayModule = gpucore.InvalidID
	}
}
