package rtview

import (
	"testing"
	"time"

	"github.com/gogpu/rtview/gpucore"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.capacity != DefaultCapacity {
		t.Errorf("capacity = %+v, want %+v", o.capacity, DefaultCapacity)
	}
	if o.targetFormat != gpucore.TextureFormatBGRA8Unorm {
		t.Errorf("targetFormat = %v, want BGRA8Unorm", o.targetFormat)
	}
	if o.pollTimeout != DefaultPollTimeout {
		t.Errorf("pollTimeout = %v, want %v", o.pollTimeout, DefaultPollTimeout)
	}
	if !o.validateShaders {
		t.Error("shader validation off by default")
	}
	if o.clearOnEmptyGrid {
		t.Error("clearOnEmptyGrid on by default")
	}
}

func TestOptionsApply(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithCapacity(640, 480),
		WithTargetFormat(gpucore.TextureFormatRGBA8UnormSRGB),
		WithPollTimeout(5 * time.Millisecond),
		WithShaderValidation(false),
		WithLabelPrefix("view"),
		WithClearOnEmptyGrid(true),
	} {
		opt(&o)
	}

	if o.capacity != (Extent{Width: 640, Height: 480}) {
		t.Errorf("capacity = %+v", o.capacity)
	}
	if o.targetFormat != gpucore.TextureFormatRGBA8UnormSRGB {
		t.Errorf("targetFormat = %v", o.targetFormat)
	}
	if o.pollTimeout != 5*time.Millisecond {
		t.Errorf("pollTimeout = %v", o.pollTimeout)
	}
	if o.validateShaders {
		t.Error("validateShaders = true")
	}
	if !o.clearOnEmptyGrid {
		t.Error("clearOnEmptyGrid = false")
	}
	if got := o.label("output"); got != "view output" {
		t.Errorf("label() = %q, want %q", got, "view output")
	}
}

func TestWithPollTimeoutNonPositive(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		o := defaultOptions()
		o.pollTimeout = time.Hour
		WithPollTimeout(d)(&o)
		if o.pollTimeout != DefaultPollTimeout {
			t.Errorf("WithPollTimeout(%v) = %v, want default", d, o.pollTimeout)
		}
	}
}

func TestEmptyLabelPrefix(t *testing.T) {
	o := defaultOptions()
	WithLabelPrefix("")(&o)
	if got := o.label("sampler"); got != "sampler" {
		t.Errorf("label() = %q, want %q", got, "sampler")
	}
}
