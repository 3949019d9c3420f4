package window

import (
	"fmt"
	"math"
)

// Affine is a GDAL-style geotransform mapping pixel coordinates to
// geographic coordinates:
//
//	x = t[0] + col*t[1] + row*t[2]
//	y = t[3] + col*t[4] + row*t[5]
//
// Immutable per raster.
type Affine [6]float64

// Identity is the transform of a raster with no georeferencing: pixel
// coordinates map straight to geographic coordinates.
var Identity = Affine{0, 1, 0, 0, 0, 1}

// Apply maps a (possibly fractional) pixel position to geographic
// coordinates.
func (t Affine) Apply(col, row float64) (x, y float64) {
	x = t[0] + col*t[1] + row*t[2]
	y = t[3] + col*t[4] + row*t[5]
	return x, y
}

// Pixel maps geographic coordinates back to a fractional pixel
// position. It returns an error for degenerate (non-invertible)
// transforms.
func (t Affine) Pixel(x, y float64) (col, row float64, err error) {
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 {
		return 0, 0, fmt.Errorf("geotransform %v is not invertible", t)
	}
	dx, dy := x-t[0], y-t[3]
	col = (t[5]*dx - t[2]*dy) / det
	row = (t[1]*dy - t[4]*dx) / det
	return col, row, nil
}

// TransformOf derives the transform local to w: the same pixel scale
// and rotation as t, with the origin translated to w's upper-left
// corner.
func TransformOf(w Window, t Affine) Affine {
	x0, y0 := t.Apply(float64(w.ColStart), float64(w.RowStart))
	return Affine{x0, t[1], t[2], y0, t[4], t[5]}
}

// Bounds returns the geographic bounding box (minX, minY, maxX, maxY)
// of w under t. All four corners are projected so the result also holds
// for rotated transforms.
func Bounds(w Window, t Affine) (minX, minY, maxX, maxY float64) {
	corners := [4][2]float64{
		{float64(w.ColStart), float64(w.RowStart)},
		{float64(w.ColStop), float64(w.RowStart)},
		{float64(w.ColStart), float64(w.RowStop)},
		{float64(w.ColStop), float64(w.RowStop)},
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y := t.Apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return minX, minY, maxX, maxY
}

// FloatWindow is a pixel rectangle with fractional bounds, as produced
// by re-expressing geographic bounds under a different transform.
type FloatWindow struct {
	RowStart, RowStop float64
	ColStart, ColStop float64
}

// Round converts fw to an integer Window, rounding each bound to the
// nearest integer with ties away from zero (math.Round). Nearest-integer
// rounding keeps float noise in the transform round-trip from drifting
// the crop by a pixel.
func (fw FloatWindow) Round() Window {
	return Window{
		RowStart: int(math.Round(fw.RowStart)),
		RowStop:  int(math.Round(fw.RowStop)),
		ColStart: int(math.Round(fw.ColStart)),
		ColStop:  int(math.Round(fw.ColStop)),
	}
}

// FromBounds re-expresses a geographic bounding box as a fractional
// pixel window under t.
func FromBounds(minX, minY, maxX, maxY float64, t Affine) (FloatWindow, error) {
	c0, r0, err := t.Pixel(minX, minY)
	if err != nil {
		return FloatWindow{}, err
	}
	c1, r1, err := t.Pixel(maxX, maxY)
	if err != nil {
		return FloatWindow{}, err
	}
	return FloatWindow{
		RowStart: math.Min(r0, r1),
		RowStop:  math.Max(r0, r1),
		ColStart: math.Min(c0, c1),
		ColStop:  math.Max(c0, c1),
	}, nil
}

// ShapeError reports a cropped window whose shape does not match its
// originating tile. This is an internal transform/rounding bug: silent
// mis-cropping corrupts pixel data with no visible signal, so it is
// never tolerated.
type ShapeError struct {
	Tile, Cropped Window
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cropped window %dx%d does not match tile %dx%d (tile %+v, cropped %+v)",
		e.Cropped.Rows(), e.Cropped.Cols(), e.Tile.Rows(), e.Tile.Cols(), e.Tile, e.Cropped)
}

// Crop locates tile inside its buffered window after filtering. Because
// the buffered window may have been clipped asymmetrically at raster
// edges, the tile's offset inside it is not a constant margin: the
// tile's geographic bounds are computed under the raster transform and
// re-expressed under the transform local to the buffered window. The
// returned window is relative to the buffered window's pixel grid and
// has exactly the tile's shape.
func Crop(tile, buffered Window, t Affine) (Window, error) {
	local := TransformOf(buffered, t)
	minX, minY, maxX, maxY := Bounds(tile, t)
	fw, err := FromBounds(minX, minY, maxX, maxY, local)
	if err != nil {
		return Window{}, err
	}
	cropped := fw.Round()
	if cropped.Rows() != tile.Rows() || cropped.Cols() != tile.Cols() {
		return Window{}, &ShapeError{Tile: tile, Cropped: cropped}
	}
	return cropped, nil
}
