package sharpen

import (
	"github.com/rastertools/sharpen/internal/raster"
)

// kernelConvolution sharpens with a fixed high-pass (laplacian) kernel:
// the kernel response approximates the local second derivative, which
// is scaled by amount and added back to the original. Light strength
// uses the 3x3 kernel (margin 2), medium and strong the 5x5 kernel
// (margin 4).
type kernelConvolution struct {
	amount float64
	kernel [][]float64
}

// lap3 is the 4-connected 3x3 laplacian.
var lap3 = [][]float64{
	{0, -1, 0},
	{-1, 4, -1},
	{0, -1, 0},
}

// lap5 is a 5x5 laplacian-of-gaussian approximation, normalized so its
// peak response matches lap3.
var lap5 = [][]float64{
	{0, 0, -1. / 4, 0, 0},
	{0, -1. / 4, -2. / 4, -1. / 4, 0},
	{-1. / 4, -2. / 4, 16. / 4, -2. / 4, -1. / 4},
	{0, -1. / 4, -2. / 4, -1. / 4, 0},
	{0, 0, -1. / 4, 0, 0},
}

func newKernelConvolution(p params) *kernelConvolution {
	k := lap5
	if p.Radius <= 1 {
		k = lap3
	}
	return &kernelConvolution{amount: p.Amount, kernel: k}
}

func (f *kernelConvolution) Name() string   { return MethodKernel }
func (f *kernelConvolution) Windowed() bool { return true }

// Margin is one less than the kernel size: 2 for the 3x3 kernel, 4 for
// the 5x5 kernel.
func (f *kernelConvolution) Margin() int { return len(f.kernel) - 1 }

func (f *kernelConvolution) Apply(src *raster.PixelArray) (*raster.PixelArray, error) {
	half := len(f.kernel) / 2
	dst := src.Like()
	for b := 0; b < src.Bands; b++ {
		for r := 0; r < src.Rows; r++ {
			for c := 0; c < src.Cols; c++ {
				acc := 0.0
				for kr, row := range f.kernel {
					for kc, w := range row {
						if w == 0 {
							continue
						}
						acc += w * sampleAt(src, b, r+kr-half, c+kc-half)
					}
				}
				dst.Set(b, r, c, src.At(b, r, c)+f.amount*acc)
			}
		}
	}
	dst.Clip()
	return dst, nil
}
