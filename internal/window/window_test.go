package window

import (
	"testing"
)

func TestBuffer(t *testing.T) {
	tests := []struct {
		name   string
		tile   Window
		margin int
		h, w   int
		want   Window
	}{
		{
			name:   "interior tile keeps full margin",
			tile:   Window{RowStart: 128, RowStop: 256, ColStart: 128, ColStop: 256},
			margin: 4,
			h:      512, w: 512,
			want: Window{RowStart: 124, RowStop: 260, ColStart: 124, ColStop: 260},
		},
		{
			name:   "top-left corner clips to zero",
			tile:   Window{RowStart: 0, RowStop: 128, ColStart: 0, ColStop: 128},
			margin: 4,
			h:      512, w: 512,
			want: Window{RowStart: 0, RowStop: 132, ColStart: 0, ColStop: 132},
		},
		{
			name:   "bottom-right corner clips to raster size",
			tile:   Window{RowStart: 384, RowStop: 512, ColStart: 384, ColStop: 512},
			margin: 4,
			h:      512, w: 512,
			want: Window{RowStart: 380, RowStop: 512, ColStart: 380, ColStop: 512},
		},
		{
			name:   "zero margin is the identity",
			tile:   Window{RowStart: 10, RowStop: 20, ColStart: 30, ColStop: 40},
			margin: 0,
			h:      100, w: 100,
			want: Window{RowStart: 10, RowStop: 20, ColStart: 30, ColStop: 40},
		},
		{
			name:   "margin larger than raster clips to full extent",
			tile:   Window{RowStart: 0, RowStop: 8, ColStart: 0, ColStop: 8},
			margin: 16,
			h:      8, w: 8,
			want: Window{RowStart: 0, RowStop: 8, ColStart: 0, ColStop: 8},
		},
		{
			name:   "non-square margin clipping",
			tile:   Window{RowStart: 2, RowStop: 6, ColStart: 90, ColStop: 100},
			margin: 4,
			h:      100, w: 100,
			want: Window{RowStart: 0, RowStop: 10, ColStart: 86, ColStop: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Buffer(tt.tile, tt.margin, tt.h, tt.w)
			if got != tt.want {
				t.Errorf("Buffer() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBufferProperties(t *testing.T) {
	const h, w = 100, 90
	full := Window{RowStop: h, ColStop: w}

	for _, margin := range []int{0, 1, 4, 7} {
		grid := Grid(h, w, 32, 32)
		for {
			tile, ok := grid.Next()
			if !ok {
				break
			}
			b := Buffer(tile, margin, h, w)
			if !full.Contains(b) {
				t.Fatalf("margin %d: buffered %+v exceeds raster bounds", margin, b)
			}
			if !b.Contains(tile) {
				t.Fatalf("margin %d: buffered %+v does not contain tile %+v", margin, b, tile)
			}
			if margin == 0 && b != tile {
				t.Fatalf("zero margin: got %+v, want %+v", b, tile)
			}
			if b.RowStart > b.RowStop || b.ColStart > b.ColStop {
				t.Fatalf("margin %d: inverted bounds %+v", margin, b)
			}
		}
	}
}

func TestGridCoverage(t *testing.T) {
	tests := []struct {
		h, w, bh, bw int
	}{
		{256, 256, 128, 128},
		{100, 90, 32, 32},
		{8, 8, 256, 256},
		{17, 33, 16, 16},
		{1, 1, 16, 16},
	}

	for _, tt := range tests {
		grid := Grid(tt.h, tt.w, tt.bh, tt.bw)
		painted := make([]int, tt.h*tt.w)
		n := 0
		for {
			tile, ok := grid.Next()
			if !ok {
				break
			}
			n++
			for r := tile.RowStart; r < tile.RowStop; r++ {
				for c := tile.ColStart; c < tile.ColStop; c++ {
					painted[r*tt.w+c]++
				}
			}
		}
		if n != grid.Count() {
			t.Errorf("%dx%d: produced %d tiles, Count()=%d", tt.h, tt.w, n, grid.Count())
		}
		for i, p := range painted {
			if p != 1 {
				t.Fatalf("%dx%d blocks %dx%d: pixel %d covered %d times", tt.h, tt.w, tt.bh, tt.bw, i, p)
			}
		}
	}
}

func TestGridReset(t *testing.T) {
	grid := Grid(64, 64, 32, 32)
	var first []Window
	for {
		w, ok := grid.Next()
		if !ok {
			break
		}
		first = append(first, w)
	}

	grid.Reset()
	i := 0
	for {
		w, ok := grid.Next()
		if !ok {
			break
		}
		if w != first[i] {
			t.Fatalf("after Reset, tile %d = %+v, want %+v", i, w, first[i])
		}
		i++
	}
	if i != len(first) {
		t.Errorf("after Reset, got %d tiles, want %d", i, len(first))
	}
}
