// Package sharpen implements the pluggable edge-enhancement filters.
// Each filter is a pure, deterministic transform on a bands x rows x
// cols pixel array: it never alters the array shape and clips its
// output to the legal range of the input's native data type. Filters
// with bounded spatial support declare the context margin their kernel
// needs; whole-image filters declare themselves non-windowed.
package sharpen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rastertools/sharpen/internal/raster"
)

// Configuration errors. Both belong to the pre-flight failure surface:
// callers reject the whole run before opening any raster.
var (
	ErrUnknownStrength = errors.New("unknown sharpening strength")
	ErrUnknownMethod   = errors.New("unknown sharpening method")
)

// Strength selects the fixed kernel size / scaling lookup for a filter.
// It is a closed enum; the numeric parameters behind it are not
// user-tunable.
type Strength string

const (
	Light  Strength = "light"
	Medium Strength = "medium"
	Strong Strength = "strong"
)

// ParseStrength validates a strength name. Unknown values are a
// configuration error and must be rejected before any raster is
// touched.
func ParseStrength(s string) (Strength, error) {
	switch Strength(s) {
	case Light, Medium, Strong:
		return Strength(s), nil
	}
	return "", fmt.Errorf("%w %q (expected one of light, medium, strong)", ErrUnknownStrength, s)
}

// params is the strength lookup table: radius sizes the blur/sharpen
// kernel, amount scales how much of the edge detail is added back.
type params struct {
	Radius int
	Amount float64
}

var strengthParams = map[Strength]params{
	Light:  {Radius: 1, Amount: 1},
	Medium: {Radius: 2, Amount: 2},
	Strong: {Radius: 3, Amount: 3},
}

// Filter is a sharpening transform applied per buffered window (or, for
// non-windowed filters, to the whole raster at once).
type Filter interface {
	// Name returns the method name the filter was built from.
	Name() string
	// Margin is the pixel context required per side for the filter's
	// spatial support. Zero for non-windowed filters.
	Margin() int
	// Windowed reports whether the filter can run on buffered windows.
	// Non-windowed filters need global image statistics and force the
	// driver into a single full-image pass.
	Windowed() bool
	// Apply transforms src into a new array of identical shape and
	// native type, clipped to the type's legal range.
	Apply(src *raster.PixelArray) (*raster.PixelArray, error)
}

// Method names form a closed set; each variant carries its own margin
// requirement and strength mapping.
const (
	MethodUnsharp = "unsharp-mask"
	MethodKernel  = "kernel-convolution"
	MethodFourier = "frequency-domain"
)

// Methods lists the supported filter methods.
func Methods() []string {
	return []string{MethodUnsharp, MethodKernel, MethodFourier}
}

// New builds the filter for a method/strength pair. Unknown methods and
// strengths are configuration errors.
func New(method string, strength Strength) (Filter, error) {
	p, ok := strengthParams[strength]
	if !ok {
		return nil, fmt.Errorf("%w %q (expected one of light, medium, strong)", ErrUnknownStrength, string(strength))
	}
	switch method {
	case MethodUnsharp:
		return newUnsharpMask(p), nil
	case MethodKernel:
		return newKernelConvolution(p), nil
	case MethodFourier:
		return newFourier(p), nil
	}
	return nil, fmt.Errorf("%w %q (expected one of %s)",
		ErrUnknownMethod, method, strings.Join(Methods(), ", "))
}

// sampleAt reads a sample with edge clamping, supplying replicated
// context where a kernel reaches past the array.
func sampleAt(a *raster.PixelArray, b, r, c int) float64 {
	if r < 0 {
		r = 0
	} else if r >= a.Rows {
		r = a.Rows - 1
	}
	if c < 0 {
		c = 0
	} else if c >= a.Cols {
		c = a.Cols - 1
	}
	return a.At(b, r, c)
}
