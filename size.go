package rtview

import (
	"math"

	"github.com/gogpu/rtview/shaders"
)

// TileSize is the compute workgroup edge in pixels.
const TileSize = shaders.WorkgroupSize

// DefaultCapacity is the allocated size of the output texture.
var DefaultCapacity = Extent{Width: 1920, Height: 1080}

// Size is a requested render-target size in (possibly fractional) pixels,
// as reported by the host UI.
type Size struct {
	Width, Height float32
}

// Extent is an integer texture size.
type Extent struct {
	Width, Height uint32
}

// IsZero reports whether either dimension is zero.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

// Clamp returns req limited to capacity componentwise. Negative and NaN
// components become zero. Clamp is idempotent.
func Clamp(req Size, capacity Extent) Size {
	return Size{
		Width:  clampAxis(req.Width, capacity.Width),
		Height: clampAxis(req.Height, capacity.Height),
	}
}

func clampAxis(v float32, limit uint32) float32 {
	if !(v > 0) { // also catches NaN
		return 0
	}
	return float32(math.Min(float64(v), float64(limit)))
}

// DispatchGrid returns the workgroup counts covering the clamped size:
// floor(size/tile) per axis, never more than capacity/tile. An axis of
// zero yields a zero count, which is a legal empty dispatch.
//
// Partial tiles at the right and bottom edge are not dispatched.
func DispatchGrid(size Size, capacity Extent, tile uint32) (x, y uint32) {
	if tile == 0 {
		return 0, 0
	}
	s := Clamp(size, capacity)
	x = min(uint32(s.Width)/tile, capacity.Width/tile)
	y = min(uint32(s.Height)/tile, capacity.Height/tile)
	return x, y
}
