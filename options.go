package rtview

import (
	"time"

	"github.com/gogpu/rtview/gpucore"
)

// DefaultPollTimeout bounds the wait for the previous frame's timing
// read-back. The awaited work retired a frame ago, so the wait is
// normally far shorter.
const DefaultPollTimeout = 250 * time.Millisecond

// Option configures Resources during creation.
//
// Example:
//
//	res, err := rtview.NewResources(dev,
//	    rtview.WithCapacity(2560, 1440),
//	    rtview.WithTargetFormat(gpucore.TextureFormatBGRA8Unorm))
type Option func(*options)

// options holds optional configuration for Resources creation.
type options struct {
	capacity         Extent
	targetFormat     gpucore.TextureFormat
	pollTimeout      time.Duration
	validateShaders  bool
	labelPrefix      string
	clearOnEmptyGrid bool
}

// defaultOptions returns the default resource options.
func defaultOptions() options {
	return options{
		capacity:        DefaultCapacity,
		targetFormat:    gpucore.TextureFormatBGRA8Unorm,
		pollTimeout:     DefaultPollTimeout,
		validateShaders: true,
		labelPrefix:     "rtview",
	}
}

// WithCapacity sets the output texture size. The texture is never
// resized at runtime; larger viewports are clamped to it.
func WithCapacity(width, height uint32) Option {
	return func(o *options) {
		o.capacity = Extent{Width: width, Height: height}
	}
}

// WithTargetFormat sets the color format of the host render target the
// render stage draws into. Use the surface format of the host window.
func WithTargetFormat(f gpucore.TextureFormat) Option {
	return func(o *options) {
		o.targetFormat = f
	}
}

// WithPollTimeout bounds how long FinishPrepare waits for the previous
// frame's timestamps. Non-positive values restore the default.
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			d = DefaultPollTimeout
		}
		o.pollTimeout = d
	}
}

// WithShaderValidation toggles validating the WGSL sources with naga
// before handing them to the device.
func WithShaderValidation(enabled bool) Option {
	return func(o *options) {
		o.validateShaders = enabled
	}
}

// WithLabelPrefix sets the prefix of every GPU object debug label.
func WithLabelPrefix(prefix string) Option {
	return func(o *options) {
		o.labelPrefix = prefix
	}
}

// WithClearOnEmptyGrid makes Paint skip the draw when the last dispatch
// had zero workgroups on an axis, leaving the cleared target visible
// instead of stale texture contents. Off by default.
func WithClearOnEmptyGrid(enabled bool) Option {
	return func(o *options) {
		o.clearOnEmptyGrid = enabled
	}
}

func (o *options) label(name string) string {
	if o.labelPrefix == "" {
		return name
	}
	return o.labelPrefix + " " + name
}
