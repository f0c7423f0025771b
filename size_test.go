package rtview

import (
	"math"
	"testing"
	"testing/quick"
)

func TestClamp(t *testing.T) {
	capacity := Extent{Width: 1920, Height: 1080}
	tests := []struct {
		name string
		req  Size
		want Size
	}{
		{"inside", Size{800, 600}, Size{800, 600}},
		{"exact", Size{1920, 1080}, Size{1920, 1080}},
		{"4k", Size{3840, 2160}, Size{1920, 1080}},
		{"wide", Size{2500, 400}, Size{1920, 400}},
		{"tall", Size{300, 4000}, Size{300, 1080}},
		{"zero width", Size{0, 500}, Size{0, 500}},
		{"fractional", Size{640.5, 480.25}, Size{640.5, 480.25}},
		{"negative", Size{-10, -1}, Size{0, 0}},
		{"nan", Size{float32(math.NaN()), 100}, Size{0, 100}},
		{"inf", Size{float32(math.Inf(1)), 100}, Size{1920, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.req, capacity); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.req, got, tt.want)
			}
		})
	}
}

func TestClampIdempotent(t *testing.T) {
	capacity := DefaultCapacity
	f := func(w, h float32) bool {
		once := Clamp(Size{w, h}, capacity)
		return Clamp(once, capacity) == once
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestClampIsComponentwiseMin(t *testing.T) {
	capacity := DefaultCapacity
	f := func(w, h uint16) bool {
		got := Clamp(Size{float32(w), float32(h)}, capacity)
		return got.Width == float32(min(uint32(w), capacity.Width)) &&
			got.Height == float32(min(uint32(h), capacity.Height))
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestDispatchGrid(t *testing.T) {
	capacity := Extent{Width: 1920, Height: 1080}
	tests := []struct {
		name         string
		size         Size
		wantX, wantY uint32
	}{
		{"4k clamped", Size{3840, 2160}, 120, 67},
		{"zero width", Size{0, 500}, 0, 31},
		{"one tile", Size{16, 16}, 1, 1},
		{"below one tile", Size{15, 15}, 0, 0},
		{"partial tiles dropped", Size{33, 47}, 2, 2},
		{"fractional", Size{31.9, 32.1}, 1, 2},
		{"full", Size{1920, 1080}, 120, 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := DispatchGrid(tt.size, capacity, TileSize)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("DispatchGrid(%v) = (%d, %d), want (%d, %d)", tt.size, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestDispatchGridBoundedByCapacity(t *testing.T) {
	capacity := DefaultCapacity
	f := func(w, h uint16) bool {
		x, y := DispatchGrid(Size{float32(w), float32(h)}, capacity, TileSize)
		eff := Clamp(Size{float32(w), float32(h)}, capacity)
		return x == uint32(eff.Width)/TileSize &&
			y == uint32(eff.Height)/TileSize &&
			x <= capacity.Width/TileSize &&
			y <= capacity.Height/TileSize
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestDispatchGridZeroTile(t *testing.T) {
	x, y := DispatchGrid(Size{100, 100}, DefaultCapacity, 0)
	if x != 0 || y != 0 {
		t.Errorf("DispatchGrid(tile=0) = (%d, %d), want (0, 0)", x, y)
	}
}

func TestExtentIsZero(t *testing.T) {
	tests := []struct {
		e    Extent
		want bool
	}{
		{Extent{}, true},
		{Extent{0, 10}, true},
		{Extent{10, 0}, true},
		{Extent{1, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.e.IsZero(); got != tt.want {
			t.Errorf("%v.IsZero() = %v, want %v", tt.e, got, tt.want)
		}
	}
}
