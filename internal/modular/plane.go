// Package modular implements the lossless/near-lossless Modular path: a
// MED/Gradient predictor over a single-channel pixel plane, residual
// coding, and near-lossless quantization. There is no transform stage.
package modular

// Plane is a single-channel, row-major pixel plane addressed by (x, y).
type Plane struct {
	Width, Height int
	Data          []int32
}

// NewPlane allocates a zeroed plane of the given dimensions.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Data: make([]int32, width*height)}
}

// At returns the sample at (x, y). Coordinates above the plane bounds clamp
// to the nearest edge; coordinates below zero (the only case the predictor's
// left/top/top-left lookups can produce) return a fixed virtual border of 0
// rather than clamping into the plane itself. Clamping a negative index to 0
// would read the very sample currently being predicted, which during
// decoding has not been reconstructed yet — the border must not depend on
// data that doesn't exist yet on one side of the round trip.
func (p *Plane) At(x, y int) int32 {
	if x < 0 || y < 0 {
		return 0
	}
	if x >= p.Width {
		x = p.Width - 1
	}
	if y >= p.Height {
		y = p.Height - 1
	}
	return p.Data[y*p.Width+x]
}

// Set writes the sample at (x, y). x and y must be in bounds.
func (p *Plane) Set(x, y int, v int32) {
	p.Data[y*p.Width+x] = v
}
