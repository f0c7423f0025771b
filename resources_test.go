package rtview

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/internal/gputest"
)

func TestNewResourcesNilDevice(t *testing.T) {
	if _, err := NewResources(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewResources(nil) = %v, want ErrNilDevice", err)
	}
}

func TestNewResourcesInvalidCapacity(t *testing.T) {
	tests := []struct {
		name string
		dev  *gputest.Device
		opt  Option
	}{
		{"zero", gputest.New(), WithCapacity(0, 1080)},
		{"over limit", gputest.New(gputest.WithMaxTextureDimension(1024)), WithCapacity(1920, 1080)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResources(tt.dev, tt.opt, WithShaderValidation(false))
			if !errors.Is(err, ErrInvalidCapacity) {
				t.Errorf("NewResources() = %v, want ErrInvalidCapacity", err)
			}
			if tt.dev.Creates() != 0 {
				t.Errorf("%d resources created before capacity check", tt.dev.Creates())
			}
		})
	}
}

func TestNewResourcesCreatesAll(t *testing.T) {
	d := gputest.New(gputest.WithTimestamps(1))
	res := newTestResources(t, d, WithCapacity(1280, 720), WithTargetFormat(gpucore.TextureFormatRGBA8Unorm))

	if res.Capacity() != (Extent{1280, 720}) {
		t.Errorf("Capacity() = %v", res.Capacity())
	}
	if res.Compute().Capacity() != res.Capacity() {
		t.Errorf("compute capacity = %v", res.Compute().Capacity())
	}
	if !res.Probe().Supported() {
		t.Error("probe not supported on timestamp device")
	}
	if res.Device() != gpucore.Device(d) {
		t.Error("Device() does not return the creation device")
	}

	rp := d.Find("CreateRenderPipeline")
	if len(rp) != 1 || rp[0].Args[1] != gpucore.TextureFormatRGBA8Unorm {
		t.Errorf("render pipeline target = %v", rp)
	}
	cp := d.Find("CreateComputePipeline")
	if len(cp) != 1 || cp[0].Args[1] != "compute_main" {
		t.Errorf("compute pipeline entry = %v", cp)
	}
	s := d.Find("CreateSampler")
	if len(s) != 1 || s[0].Args[1] != gpucore.FilterModeNearest || s[0].Args[2] != gpucore.FilterModeNearest {
		t.Errorf("sampler filters = %v, want nearest", s)
	}
}

func TestPipelineLayoutsFollowStageGroups(t *testing.T) {
	d := gputest.New()
	res := newTestResources(t, d)

	layouts := d.Find("CreatePipelineLayout")
	if len(layouts) != 2 {
		t.Fatalf("pipeline layouts = %d, want 2", len(layouts))
	}
	shared := res.uniform.Layout()
	want := [][]gpucore.BindGroupLayoutID{
		{res.compute.layout, shared},
		{res.render.layout, shared},
	}
	for i, c := range layouts {
		got := c.Args[1].([]gpucore.BindGroupLayoutID)
		if len(got) != len(want[i]) {
			t.Fatalf("layout %d = %v, want %v", i, got, want[i])
		}
		for j := range got {
			if got[j] != want[i][j] {
				t.Errorf("layout %d index %d = %d, want %d", i, j, got[j], want[i][j])
			}
		}
	}
}

func TestNewResourcesCleansUpOnFailure(t *testing.T) {
	probe := gputest.New(gputest.WithTimestamps(1))
	res, err := NewResources(probe, WithShaderValidation(false))
	if err != nil {
		t.Fatal(err)
	}
	total := probe.Creates()
	res.Close()
	if probe.Live() != 0 {
		t.Fatalf("%d resources live after Close", probe.Live())
	}

	for n := 1; n <= total; n++ {
		d := gputest.New(gputest.WithTimestamps(1))
		d.FailNth(n)
		res, err := NewResources(d, WithShaderValidation(false))
		if res != nil {
			t.Errorf("create %d failing: got non-nil resources", n)
		}
		if !errors.Is(err, ErrResourceCreation) {
			t.Errorf("create %d failing: error %v, want ErrResourceCreation", n, err)
		}
		if !errors.Is(err, gputest.ErrInjected) {
			t.Errorf("create %d failing: error %v does not wrap the device error", n, err)
		}
		if d.Live() != 0 {
			t.Errorf("create %d failing: %d resources leaked", n, d.Live())
		}
	}
}

func TestQuerySetFailureIsFatal(t *testing.T) {
	d := gputest.New(gputest.WithTimestamps(1))
	d.FailCreate("CreateQuerySet", 1)
	_, err := NewResources(d, WithShaderValidation(false))
	if !errors.Is(err, ErrResourceCreation) {
		t.Errorf("NewResources() = %v, want ErrResourceCreation", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	d := gputest.New(gputest.WithTimestamps(1))
	res, err := NewResources(d, WithShaderValidation(false))
	if err != nil {
		t.Fatal(err)
	}
	res.Close()
	destroys := len(d.Calls())
	res.Close()
	if len(d.Calls()) != destroys {
		t.Error("second Close made device calls")
	}
	if d.Live() != 0 {
		t.Errorf("%d resources live after Close", d.Live())
	}
}

func TestClosedResourcesRejectFrames(t *testing.T) {
	d := gputest.New()
	res, err := NewResources(d, WithShaderValidation(false))
	if err != nil {
		t.Fatal(err)
	}
	cb := res.Callback()
	res.Close()

	enc, _ := d.CreateCommandEncoder("frame")
	ctx := context.Background()
	if err := cb.Prepare(ctx, enc, Size{10, 10}); !errors.Is(err, ErrClosed) {
		t.Errorf("Prepare() = %v, want ErrClosed", err)
	}
	if err := cb.FinishPrepare(ctx, enc); !errors.Is(err, ErrClosed) {
		t.Errorf("FinishPrepare() = %v, want ErrClosed", err)
	}
	if err := cb.Paint(gputest.NewRenderPass(d)); !errors.Is(err, ErrClosed) {
		t.Errorf("Paint() = %v, want ErrClosed", err)
	}
}

func TestClosedResourcesIgnoreCameraInput(t *testing.T) {
	d := gputest.New()
	res, err := NewResources(d, WithShaderValidation(false))
	if err != nil {
		t.Fatal(err)
	}
	cb := res.Callback()
	res.Close()
	calls := len(d.Calls())

	cb.SetAngle(1)
	cb.Drag(10)

	if n := len(d.Calls()); n != calls {
		t.Errorf("camera input after Close made %d device calls", n-calls)
	}
}

func TestCloseWithPendingMap(t *testing.T) {
	d := gputest.New(gputest.WithTimestamps(1))
	res, err := NewResources(d, WithShaderValidation(false), WithPollTimeout(1))
	if err != nil {
		t.Fatal(err)
	}
	cb := res.Callback()
	runFrame(t, d, cb, Size{64, 64})
	d.StallPolls(1)
	runFrame(t, d, cb, Size{64, 64})
	if d.PendingMaps() != 1 {
		t.Fatalf("pending maps = %d, want 1", d.PendingMaps())
	}
	res.Close()
	if d.PendingMaps() != 0 {
		t.Errorf("pending maps after Close = %d, want 0", d.PendingMaps())
	}
	if d.Live() != 0 {
		t.Errorf("%d resources live after Close", d.Live())
	}
}

func TestLabelPrefix(t *testing.T) {
	d := gputest.New()
	newTestResources(t, d, WithLabelPrefix("viewer"))
	for _, c := range d.Find("CreateTexture") {
		if c.Args[0] != "viewer output texture" {
			t.Errorf("texture label = %v", c.Args[0])
		}
	}
}
