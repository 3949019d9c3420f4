// Package window implements the pixel-space geometry used for windowed
// raster processing: native block windows, margin buffering, and the
// affine round-trip that locates a window inside its buffered read.
package window

// Window is a half-open rectangle in raster pixel space,
// [RowStart,RowStop) x [ColStart,ColStop).
type Window struct {
	RowStart, RowStop int
	ColStart, ColStop int
}

// FromBlock builds a Window from a block origin and size as reported by
// the raster's block structure (x0,y0 in pixels, w,h in pixels).
func FromBlock(x0, y0, w, h int) Window {
	return Window{
		RowStart: y0,
		RowStop:  y0 + h,
		ColStart: x0,
		ColStop:  x0 + w,
	}
}

// Rows returns the number of pixel rows covered by w.
func (w Window) Rows() int { return w.RowStop - w.RowStart }

// Cols returns the number of pixel columns covered by w.
func (w Window) Cols() int { return w.ColStop - w.ColStart }

// Contains reports whether o lies entirely inside w.
func (w Window) Contains(o Window) bool {
	return o.RowStart >= w.RowStart && o.RowStop <= w.RowStop &&
		o.ColStart >= w.ColStart && o.ColStop <= w.ColStop
}

// Buffer expands w by margin pixels in all four directions and clips
// the result to [0,height) x [0,width). Out-of-range bounds are
// truncated, never reflected or padded, so the effective margin shrinks
// near raster edges. A margin of 0 returns w unchanged.
//
// Malformed windows (start > stop) are a caller contract and propagate
// as-is.
func Buffer(w Window, margin, height, width int) Window {
	b := Window{
		RowStart: w.RowStart - margin,
		RowStop:  w.RowStop + margin,
		ColStart: w.ColStart - margin,
		ColStop:  w.ColStop + margin,
	}
	if b.RowStart < 0 {
		b.RowStart = 0
	}
	if b.RowStop > height {
		b.RowStop = height
	}
	if b.ColStart < 0 {
		b.ColStart = 0
	}
	if b.ColStop > width {
		b.ColStop = width
	}
	return b
}

// Blocks is a restartable, lazy sequence of block windows covering a
// height x width raster in scanline order. The zero value is not
// usable; obtain one from Grid.
type Blocks struct {
	height, width   int
	blockH, blockW  int
	i, j            int // current block column, row
	nx, ny          int
}

// Grid returns the block sequence for a raster of the given pixel size
// partitioned into blockH x blockW blocks. All sizes must be strictly
// positive. Edge blocks are truncated to the raster extent, so the
// produced windows exhaustively and disjointly cover the raster.
func Grid(height, width, blockH, blockW int) *Blocks {
	return &Blocks{
		height: height,
		width:  width,
		blockH: blockH,
		blockW: blockW,
		nx:     (width + blockW - 1) / blockW,
		ny:     (height + blockH - 1) / blockH,
	}
}

// Next returns the following block window. It returns ok=false once the
// sequence is exhausted.
func (b *Blocks) Next() (Window, bool) {
	if b.j >= b.ny {
		return Window{}, false
	}
	w := Window{
		RowStart: b.j * b.blockH,
		ColStart: b.i * b.blockW,
	}
	w.RowStop = w.RowStart + b.blockH
	if w.RowStop > b.height {
		w.RowStop = b.height
	}
	w.ColStop = w.ColStart + b.blockW
	if w.ColStop > b.width {
		w.ColStop = b.width
	}
	b.i++
	if b.i >= b.nx {
		b.i = 0
		b.j++
	}
	return w, true
}

// Reset rewinds the sequence to the first block.
func (b *Blocks) Reset() {
	b.i, b.j = 0, 0
}

// Count returns the total number of blocks in the sequence.
func (b *Blocks) Count() int {
	return b.nx * b.ny
}
