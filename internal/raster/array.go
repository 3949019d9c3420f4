package raster

import (
	"math"

	"github.com/airbusgeo/godal"

	"github.com/rastertools/sharpen/internal/window"
)

// PixelArray is a bands x rows x cols sample buffer in band-interleaved
// layout. Samples are held as float64 regardless of the raster's
// storage type; DataType records the native type so filters can clip
// back to its legal range before the array is written out.
//
// A PixelArray is either contiguous (freshly allocated or read from
// disk) or a strided view into another array's storage, as produced by
// Slice. Views share storage with their parent; no band is ever copied
// out to build one.
type PixelArray struct {
	Bands, Rows, Cols int
	DataType          godal.DataType

	pix        []float64
	off        int
	lineStride int
	bandStride int
}

// NewArray allocates a contiguous band-interleaved array.
func NewArray(bands, rows, cols int, dtype godal.DataType) *PixelArray {
	return &PixelArray{
		Bands:      bands,
		Rows:       rows,
		Cols:       cols,
		DataType:   dtype,
		pix:        make([]float64, bands*rows*cols),
		lineStride: cols,
		bandStride: rows * cols,
	}
}

// At returns the sample for band b at row r, column c.
func (a *PixelArray) At(b, r, c int) float64 {
	return a.pix[a.off+b*a.bandStride+r*a.lineStride+c]
}

// Set stores a sample for band b at row r, column c.
func (a *PixelArray) Set(b, r, c int, v float64) {
	a.pix[a.off+b*a.bandStride+r*a.lineStride+c] = v
}

// Values exposes the backing storage starting at the array's origin.
// For contiguous arrays this is the full band-interleaved buffer; for
// views the rows are strided by LineStride/BandStride.
func (a *PixelArray) Values() []float64 {
	return a.pix[a.off:]
}

// LineStride is the element offset between vertically adjacent samples.
func (a *PixelArray) LineStride() int { return a.lineStride }

// BandStride is the element offset between the same pixel on adjacent bands.
func (a *PixelArray) BandStride() int { return a.bandStride }

// Contiguous reports whether the array's storage has no gaps.
func (a *PixelArray) Contiguous() bool {
	return a.off == 0 && a.lineStride == a.Cols && a.bandStride == a.Rows*a.Cols
}

// Slice returns a view of the sub-rectangle w, which must be expressed
// relative to a's own pixel grid. All bands are preserved. The view
// shares storage with a.
func (a *PixelArray) Slice(w window.Window) *PixelArray {
	return &PixelArray{
		Bands:      a.Bands,
		Rows:       w.Rows(),
		Cols:       w.Cols(),
		DataType:   a.DataType,
		pix:        a.pix,
		off:        a.off + w.RowStart*a.lineStride + w.ColStart,
		lineStride: a.lineStride,
		bandStride: a.bandStride,
	}
}

// Like allocates a contiguous array with a's shape and native type.
func (a *PixelArray) Like() *PixelArray {
	return NewArray(a.Bands, a.Rows, a.Cols, a.DataType)
}

// Clip clamps every sample to the legal range of the array's native
// data type, resolving overflow introduced by filtering.
func (a *PixelArray) Clip() {
	lo, hi := DataTypeRange(a.DataType)
	for b := 0; b < a.Bands; b++ {
		for r := 0; r < a.Rows; r++ {
			base := a.off + b*a.bandStride + r*a.lineStride
			row := a.pix[base : base+a.Cols]
			for i, v := range row {
				if v < lo {
					row[i] = lo
				} else if v > hi {
					row[i] = hi
				}
			}
		}
	}
}

// DataTypeRange returns the legal sample range of a GDAL data type.
func DataTypeRange(dtype godal.DataType) (min, max float64) {
	switch dtype {
	case godal.Byte:
		return 0, math.MaxUint8
	case godal.UInt16:
		return 0, math.MaxUint16
	case godal.Int16:
		return math.MinInt16, math.MaxInt16
	case godal.UInt32:
		return 0, math.MaxUint32
	case godal.Int32:
		return math.MinInt32, math.MaxInt32
	case godal.Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}
