package rtview

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/rtview/gpucore"
)

// UniformSize is the byte size of the shared uniform block:
//
//	struct FrameData { size: vec2<f32>, angle: f32, _pad: f32 }
const UniformSize = 16

// SharedUniform owns the uniform buffer holding the viewport size and
// camera angle, and the layout and bind group exposing it to both stages
// under RoleShared.
type SharedUniform struct {
	dev    gpucore.Device
	buffer gpucore.BufferID
	layout gpucore.BindGroupLayoutID
	group  gpucore.BindGroupID

	size  Size
	angle float32
	buf   [UniformSize]byte
}

// newSharedUniform creates the shared uniform buffer, layout and group.
func newSharedUniform(dev gpucore.Device, o *options) (*SharedUniform, error) {
	u := &SharedUniform{dev: dev}
	fail := func(what string, err error) (*SharedUniform, error) {
		u.Destroy()
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceCreation, what, err)
	}

	var err error
	u.buffer, err = dev.CreateBuffer(&gpucore.BufferDesc{
		Label: o.label("shared uniform"),
		Size:  UniformSize,
		Usage: gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return fail("shared uniform buffer", err)
	}

	u.layout, err = dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: o.label("shared layout"),
		Entries: []gpucore.BindGroupLayoutEntry{{
			Binding:        0,
			Visibility:     gpucore.ShaderStageCompute | gpucore.ShaderStageVertex | gpucore.ShaderStageFragment,
			Type:           gpucore.BindingTypeUniformBuffer,
			MinBindingSize: UniformSize,
		}},
	})
	if err != nil {
		return fail("shared layout", err)
	}

	u.group, err = dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  o.label("shared group"),
		Layout: u.layout,
		Entries: []gpucore.BindGroupEntry{{
			Binding: 0,
			Buffer:  u.buffer,
			Size:    UniformSize,
		}},
	})
	if err != nil {
		return fail("shared group", err)
	}
	return u, nil
}

// Update uploads size together with the current angle. The write lands
// on the GPU before the next submitted command buffer.
func (u *SharedUniform) Update(size Size) {
	u.size = size
	u.upload()
}

// SetAngle sets the camera angle in radians, uploaded with the next Update.
func (u *SharedUniform) SetAngle(rad float32) {
	u.angle = rad
}

// Angle returns the camera angle in radians.
func (u *SharedUniform) Angle() float32 { return u.angle }

// Last returns the size passed to the last Update.
func (u *SharedUniform) Last() Size { return u.size }

// Layout returns the shared bind group layout.
func (u *SharedUniform) Layout() gpucore.BindGroupLayoutID { return u.layout }

// Group returns the shared bind group.
func (u *SharedUniform) Group() gpucore.BindGroupID { return u.group }

func (u *SharedUniform) upload() {
	binary.LittleEndian.PutUint32(u.buf[0:], math.Float32bits(u.size.Width))
	binary.LittleEndian.PutUint32(u.buf[4:], math.Float32bits(u.size.Height))
	binary.LittleEndian.PutUint32(u.buf[8:], math.Float32bits(u.angle))
	binary.LittleEndian.PutUint32(u.buf[12:], 0)
	u.dev.WriteBuffer(u.buffer, 0, u.buf[:])
}

// Destroy releases the GPU objects. Safe to call more than once.
func (u *SharedUniform) Destroy() {
	if u.group != gpucore.InvalidID {
		u.dev.DestroyBindGroup(u.group)
		u.group = gpucore.InvalidID
	}
	if u.layout != gpucore.InvalidID {
		u.dev.DestroyBindGroupLayout(u.layout)
		u.layout = gpucore.InvalidID
	}
	if u.buffer != gpucore.InvalidID {
		u.dev.DestroyBuffer(u.buffer)
		u.buffer = gpucore.InvalidID
	}
}
