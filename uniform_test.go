package rtview

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/rtview/gpucore"
	"github.com/gogpu/rtview/internal/gputest"
)

func newTestUniform(t *testing.T, d *gputest.Device) *SharedUniform {
	t.Helper()
	o := defaultOptions()
	u, err := newSharedUniform(d, &o)
	if err != nil {
		t.Fatalf("newSharedUniform() error: %v", err)
	}
	t.Cleanup(u.Destroy)
	return u
}

func readFloats(t *testing.T, data []byte) [4]float32 {
	t.Helper()
	if len(data) != UniformSize {
		t.Fatalf("uniform has %d bytes, want %d", len(data), UniformSize)
	}
	var out [4]float32
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func uniformBuffer(t *testing.T, d *gputest.Device) gpucore.BufferID {
	t.Helper()
	calls := d.Find("WriteBuffer")
	if len(calls) == 0 {
		t.Fatal("no WriteBuffer call")
	}
	return calls[len(calls)-1].Args[0].(gpucore.BufferID)
}

func TestSharedUniformLayout(t *testing.T) {
	d := gputest.New()
	u := newTestUniform(t, d)

	u.SetAngle(0.5)
	u.Update(Size{Width: 320, Height: 200})

	got := readFloats(t, d.BufferData(uniformBuffer(t, d)))
	if want := [4]float32{320, 200, 0.5, 0}; got != want {
		t.Errorf("uniform = %v, want %v", got, want)
	}
	if u.Last() != (Size{Width: 320, Height: 200}) {
		t.Errorf("Last() = %+v", u.Last())
	}
}

func TestSharedUniformKeepsAngle(t *testing.T) {
	d := gputest.New()
	u := newTestUniform(t, d)

	u.SetAngle(1.25)
	u.Update(Size{Width: 10, Height: 10})
	u.Update(Size{Width: 20, Height: 30})

	got := readFloats(t, d.BufferData(uniformBuffer(t, d)))
	if got[2] != 1.25 {
		t.Errorf("angle after second Update = %v, want 1.25", got[2])
	}
	if got[0] != 20 || got[1] != 30 {
		t.Errorf("size = %vx%v, want 20x30", got[0], got[1])
	}
	if n := d.Count("WriteBuffer"); n != 2 {
		t.Errorf("WriteBuffer calls = %d, want 2", n)
	}
}

func TestSharedUniformSetAngleDefersUpload(t *testing.T) {
	d := gputest.New()
	u := newTestUniform(t, d)

	u.SetAngle(2)
	if n := d.Count("WriteBuffer"); n != 0 {
		t.Errorf("SetAngle wrote the buffer %d times", n)
	}
	if u.Angle() != 2 {
		t.Errorf("Angle() = %v, want 2", u.Angle())
	}
}

func TestSharedUniformCreatesOneLayoutAndGroup(t *testing.T) {
	d := gputest.New()
	newTestUniform(t, d)

	calls := d.Find("CreateBindGroupLayout")
	if len(calls) != 1 {
		t.Fatalf("CreateBindGroupLayout calls = %d, want 1", len(calls))
	}
	if got := d.Count("CreateBindGroup"); got != 1 {
		t.Errorf("CreateBindGroup calls = %d, want 1", got)
	}
}

func TestSharedUniformCreationFailure(t *testing.T) {
	d := gputest.New()
	d.FailCreate("CreateBindGroup", 1)
	o := defaultOptions()

	_, err := newSharedUniform(d, &o)
	if !errors.Is(err, ErrResourceCreation) {
		t.Fatalf("error = %v, want ErrResourceCreation", err)
	}
	if !errors.Is(err, gputest.ErrInjected) {
		t.Errorf("error = %v, want it to wrap the device error", err)
	}
	if n := d.Live(); n != 0 {
		t.Errorf("%d resources leaked", n)
	}
}

func TestSharedUniformDestroyTwice(t *testing.T) {
	d := gputest.New()
	o := defaultOptions()
	u, err := newSharedUniform(d, &o)
	if err != nil {
		t.Fatal(err)
	}
	u.Destroy()
	destroys := len(d.Calls())
	u.Destroy()
	if len(d.Calls()) != destroys {
		t.Error("second Destroy touched the device")
	}
	if d.Live() != 0 {
		t.Errorf("Live() = %d after Destroy", d.Live())
	}
}
