// Package raster provides windowed access to georeferenced raster files
// through GDAL. Datasets expose their native block partition as a lazy
// window sequence and read/write band-interleaved pixel arrays for
// arbitrary pixel windows.
package raster

import (
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/rastertools/sharpen/internal/window"
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(godal.RegisterAll)
}

// Dataset wraps an opened GDAL dataset. A Dataset is owned by a single
// processing call for its lifetime and must not be used concurrently
// without external synchronization: GDAL handles are not goroutine-safe.
type Dataset struct {
	ds        *godal.Dataset
	structure godal.DatasetStructure
	transform window.Affine
	path      string
}

// Open opens an existing raster read-only.
func Open(path string) (*Dataset, error) {
	register()
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	return wrap(ds, path)
}

func wrap(ds *godal.Dataset, path string) (*Dataset, error) {
	d := &Dataset{
		ds:        ds,
		structure: ds.Structure(),
		path:      path,
	}
	gt, err := ds.GeoTransform()
	if err != nil {
		// Ungeoreferenced rasters get the identity transform, like
		// GDAL's own default.
		d.transform = window.Identity
	} else {
		d.transform = window.Affine(gt)
	}
	return d, nil
}

// CreateLike creates a new GeoTIFF at path with the same size, band
// count, pixel type, block layout, georeference and nodata as src. The
// file is write-oriented: the caller fills it window by window and then
// closes it.
func CreateLike(path string, src *Dataset) (*Dataset, error) {
	register()
	st := src.structure
	var opts []godal.DatasetCreateOption
	// GTiff tile dimensions must be multiples of 16. Sources with strip
	// layouts (or odd block sizes) fall back to the driver default.
	if st.BlockSizeX%16 == 0 && st.BlockSizeY%16 == 0 {
		opts = append(opts, godal.CreationOption(
			"TILED=YES",
			fmt.Sprintf("BLOCKXSIZE=%d", st.BlockSizeX),
			fmt.Sprintf("BLOCKYSIZE=%d", st.BlockSizeY),
		))
	}
	ds, err := godal.Create(godal.GTiff, path, st.NBands, st.DataType, st.SizeX, st.SizeY, opts...)
	if err != nil {
		return nil, fmt.Errorf("create raster %s: %w", path, err)
	}
	if src.transform != window.Identity {
		if err := ds.SetGeoTransform([6]float64(src.transform)); err != nil {
			ds.Close()
			return nil, fmt.Errorf("set geotransform on %s: %w", path, err)
		}
	}
	if proj := src.ds.Projection(); proj != "" {
		if err := ds.SetProjection(proj); err != nil {
			ds.Close()
			return nil, fmt.Errorf("set projection on %s: %w", path, err)
		}
	}
	srcBands, dstBands := src.ds.Bands(), ds.Bands()
	for i := range srcBands {
		if nd, ok := srcBands[i].NoData(); ok {
			if err := dstBands[i].SetNoData(nd); err != nil {
				ds.Close()
				return nil, fmt.Errorf("set nodata on %s: %w", path, err)
			}
		}
	}
	return wrap(ds, path)
}

// Close flushes and releases the underlying GDAL handle.
func (d *Dataset) Close() error {
	if d.ds == nil {
		return nil
	}
	err := d.ds.Close()
	d.ds = nil
	if err != nil {
		return fmt.Errorf("close raster %s: %w", d.path, err)
	}
	return nil
}

// Path returns the filename the dataset was opened or created with.
func (d *Dataset) Path() string { return d.path }

// Height returns the raster height in pixels.
func (d *Dataset) Height() int { return d.structure.SizeY }

// Width returns the raster width in pixels.
func (d *Dataset) Width() int { return d.structure.SizeX }

// BandCount returns the number of bands.
func (d *Dataset) BandCount() int { return d.structure.NBands }

// DataType returns the native pixel type.
func (d *Dataset) DataType() godal.DataType { return d.structure.DataType }

// Transform returns the dataset's affine geotransform.
func (d *Dataset) Transform() window.Affine { return d.transform }

// Full returns the window covering the entire raster.
func (d *Dataset) Full() window.Window {
	return window.Window{RowStop: d.Height(), ColStop: d.Width()}
}

// Blocks is a restartable sequence of native tile / buffered window
// pairs covering the dataset. Consumers pull one pair at a time, so the
// full tile list is never materialized.
type Blocks struct {
	grid          *window.Blocks
	margin        int
	height, width int
}

// Blocks returns the dataset's native block partition in scanline
// order, each block paired with its margin-buffered window clipped to
// the raster bounds.
func (d *Dataset) Blocks(margin int) *Blocks {
	st := d.structure
	return &Blocks{
		grid:   window.Grid(st.SizeY, st.SizeX, st.BlockSizeY, st.BlockSizeX),
		margin: margin,
		height: st.SizeY,
		width:  st.SizeX,
	}
}

// Next returns the following tile and its buffered window. ok is false
// once all tiles have been consumed.
func (b *Blocks) Next() (tile, buffered window.Window, ok bool) {
	tile, ok = b.grid.Next()
	if !ok {
		return window.Window{}, window.Window{}, false
	}
	return tile, window.Buffer(tile, b.margin, b.height, b.width), true
}

// Reset rewinds the sequence to the first tile.
func (b *Blocks) Reset() { b.grid.Reset() }

// Count returns the number of tiles in the sequence.
func (b *Blocks) Count() int { return b.grid.Count() }

// ReadWindow reads all bands of w into a freshly allocated
// band-interleaved PixelArray.
func (d *Dataset) ReadWindow(w window.Window) (*PixelArray, error) {
	arr := NewArray(d.BandCount(), w.Rows(), w.Cols(), d.DataType())
	err := d.ds.Read(w.ColStart, w.RowStart, arr.pix, w.Cols(), w.Rows(),
		godal.BandInterleaved())
	if err != nil {
		return nil, fmt.Errorf("read window %+v of %s: %w", w, d.path, err)
	}
	return arr, nil
}

// WriteWindow writes arr, which may be a strided view, to the raster at
// w. The array's shape must match the window's shape on all bands.
func (d *Dataset) WriteWindow(w window.Window, arr *PixelArray) error {
	if arr.Rows != w.Rows() || arr.Cols != w.Cols() || arr.Bands != d.BandCount() {
		return fmt.Errorf("write window %+v of %s: array shape %dx%dx%d does not match",
			w, d.path, arr.Bands, arr.Rows, arr.Cols)
	}
	err := d.ds.Write(w.ColStart, w.RowStart, arr.Values(), w.Cols(), w.Rows(),
		godal.PixelStride(1),
		godal.LineStride(arr.lineStride),
		godal.BandStride(arr.bandStride))
	if err != nil {
		return fmt.Errorf("write window %+v of %s: %w", w, d.path, err)
	}
	return nil
}
