package raster

import (
	"math"
	"testing"

	"github.com/airbusgeo/godal"

	"github.com/rastertools/sharpen/internal/window"
)

func TestArrayIndexing(t *testing.T) {
	arr := NewArray(3, 4, 5, godal.Byte)
	arr.Set(2, 3, 4, 42)
	arr.Set(0, 0, 0, 7)

	if got := arr.At(2, 3, 4); got != 42 {
		t.Errorf("At(2,3,4) = %g, want 42", got)
	}
	if got := arr.At(0, 0, 0); got != 7 {
		t.Errorf("At(0,0,0) = %g, want 7", got)
	}
	if !arr.Contiguous() {
		t.Error("fresh array must be contiguous")
	}
	if len(arr.Values()) != 3*4*5 {
		t.Errorf("Values() length = %d, want %d", len(arr.Values()), 3*4*5)
	}
}

func TestSliceSharesStorage(t *testing.T) {
	arr := NewArray(2, 8, 8, godal.Byte)
	for b := 0; b < 2; b++ {
		for r := 0; r < 8; r++ {
			for c := 0; c < 8; c++ {
				arr.Set(b, r, c, float64(b*100+r*10+c))
			}
		}
	}

	view := arr.Slice(window.Window{RowStart: 2, RowStop: 6, ColStart: 3, ColStop: 7})
	if view.Rows != 4 || view.Cols != 4 || view.Bands != 2 {
		t.Fatalf("view shape = %dx%dx%d, want 2x4x4", view.Bands, view.Rows, view.Cols)
	}
	if view.Contiguous() {
		t.Error("interior view must not be contiguous")
	}
	if got := view.At(1, 0, 0); got != 123 {
		t.Errorf("view.At(1,0,0) = %g, want 123", got)
	}

	// Writes through the view are visible in the parent: same storage.
	view.Set(0, 1, 1, -1)
	if got := arr.At(0, 3, 4); got != -1 {
		t.Errorf("parent.At(0,3,4) = %g, want -1 after view write", got)
	}

	// A full-extent view is the identity.
	full := arr.Slice(window.Window{RowStop: 8, ColStop: 8})
	if !full.Contiguous() {
		t.Error("full-extent view must be contiguous")
	}
}

func TestClip(t *testing.T) {
	arr := NewArray(1, 1, 4, godal.Byte)
	arr.Set(0, 0, 0, -12)
	arr.Set(0, 0, 1, 300)
	arr.Set(0, 0, 2, 128.5)
	arr.Set(0, 0, 3, 255)

	arr.Clip()

	want := []float64{0, 255, 128.5, 255}
	for i, w := range want {
		if got := arr.At(0, 0, i); got != w {
			t.Errorf("Clip sample %d = %g, want %g", i, got, w)
		}
	}
}

func TestClipView(t *testing.T) {
	arr := NewArray(1, 4, 4, godal.Byte)
	for c := 0; c < 4; c++ {
		arr.Set(0, 0, c, 999)
		arr.Set(0, 3, c, 999)
	}
	view := arr.Slice(window.Window{RowStart: 1, RowStop: 3, ColStart: 0, ColStop: 4})
	view.Set(0, 0, 0, 999)

	view.Clip()

	if got := arr.At(0, 1, 0); got != 255 {
		t.Errorf("view sample not clipped: %g", got)
	}
	// Samples outside the view stay untouched.
	if got := arr.At(0, 0, 0); got != 999 {
		t.Errorf("sample outside view clipped: %g", got)
	}
}

func TestDataTypeRange(t *testing.T) {
	tests := []struct {
		dtype    godal.DataType
		min, max float64
	}{
		{godal.Byte, 0, 255},
		{godal.UInt16, 0, 65535},
		{godal.Int16, -32768, 32767},
		{godal.UInt32, 0, math.MaxUint32},
		{godal.Int32, math.MinInt32, math.MaxInt32},
		{godal.Float32, -math.MaxFloat32, math.MaxFloat32},
		{godal.Float64, -math.MaxFloat64, math.MaxFloat64},
	}
	for _, tt := range tests {
		lo, hi := DataTypeRange(tt.dtype)
		if lo != tt.min || hi != tt.max {
			t.Errorf("DataTypeRange(%s) = (%g,%g), want (%g,%g)", tt.dtype, lo, hi, tt.min, tt.max)
		}
	}
}

// Buffering a tile, then cropping the unfiltered buffered array back
// through the affine round-trip must reproduce the tile's content
// byte-for-byte, for every tile of the partition.
func TestCropRoundTrip(t *testing.T) {
	gt := window.Affine{731530, 0.5, 0, 4712950, 0, -0.5}
	const h, w, margin = 100, 90, 4

	value := func(r, c int) float64 { return float64(r*1000 + c) }

	grid := window.Grid(h, w, 32, 32)
	for {
		tile, ok := grid.Next()
		if !ok {
			break
		}
		buffered := window.Buffer(tile, margin, h, w)

		// Simulate the buffered read: samples addressed by absolute
		// raster coordinates.
		arr := NewArray(3, buffered.Rows(), buffered.Cols(), godal.Byte)
		for b := 0; b < 3; b++ {
			for r := 0; r < buffered.Rows(); r++ {
				for c := 0; c < buffered.Cols(); c++ {
					arr.Set(b, r, c, value(buffered.RowStart+r, buffered.ColStart+c)+float64(b))
				}
			}
		}

		local, err := window.Crop(tile, buffered, gt)
		if err != nil {
			t.Fatalf("tile %+v: %v", tile, err)
		}
		view := arr.Slice(local)
		if view.Rows != tile.Rows() || view.Cols != tile.Cols() {
			t.Fatalf("tile %+v: cropped shape %dx%d", tile, view.Rows, view.Cols)
		}
		for b := 0; b < 3; b++ {
			for r := 0; r < tile.Rows(); r++ {
				for c := 0; c < tile.Cols(); c++ {
					want := value(tile.RowStart+r, tile.ColStart+c) + float64(b)
					if got := view.At(b, r, c); got != want {
						t.Fatalf("tile %+v band %d (%d,%d): got %g, want %g", tile, b, r, c, got, want)
					}
				}
			}
		}
	}
}
