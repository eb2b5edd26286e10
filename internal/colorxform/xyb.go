package colorxform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// opsinAbsorbanceMatrix mixes linear RGB into the three LMS-like cone
// response channels before the cube-root nonlinearity. These are the
// published-style opsin absorbance coefficients used in practice for XYB;
// as with the quality->distance mapping (spec.md §8 open question), the
// exact constants are implementation-documented rather than reproduced
// bit-for-bit from the ISO source text.
var opsinAbsorbanceMatrix = [9]float64{
	0.300, 0.622, 0.078,
	0.230, 0.692, 0.078,
	0.243243, 0.204767, 0.546724,
}

// opsinBias is added to each mixed channel before the cube root to avoid
// taking the root of a non-positive value near black.
const opsinBias = 0.0037930734

var (
	opsinForward *mat.Dense
	opsinInverse *mat.Dense
)

func init() {
	opsinForward = mat.NewDense(3, 3, opsinAbsorbanceMatrix[:])
	var inv mat.Dense
	if err := inv.Inverse(opsinForward); err != nil {
		panic("colorxform: singular opsin absorbance matrix")
	}
	opsinInverse = &inv
}

func cubeRoot(v float64) float64 {
	if v < 0 {
		return -math.Cbrt(-v)
	}
	return math.Cbrt(v)
}

func cube(v float64) float64 {
	return v * v * v
}

// ForwardXYB converts linear RGB to the XYB perceptual color space: mix
// into LMS-like channels via the opsin absorbance matrix, bias, cube root,
// then decorrelate L and M into X = (L'-M')/2, Y = (L'+M')/2, B = S'
// (spec.md §4.4, "opsin absorbance matrix and cube-root nonlinearity").
// r, g, b are overwritten in place with x, y, b(lue).
func ForwardXYB(r, g, b []float64) {
	for i := range r {
		rv, gv, bv := r[i], g[i], b[i]
		l := opsinForward.At(0, 0)*rv + opsinForward.At(0, 1)*gv + opsinForward.At(0, 2)*bv
		m := opsinForward.At(1, 0)*rv + opsinForward.At(1, 1)*gv + opsinForward.At(1, 2)*bv
		s := opsinForward.At(2, 0)*rv + opsinForward.At(2, 1)*gv + opsinForward.At(2, 2)*bv

		lp := cubeRoot(l + opsinBias)
		mp := cubeRoot(m + opsinBias)
		sp := cubeRoot(s + opsinBias)

		r[i] = (lp - mp) / 2
		g[i] = (lp + mp) / 2
		b[i] = sp
	}
}

// InverseXYB converts XYB back to linear RGB, the exact inverse of
// ForwardXYB. x, y, bch are overwritten in place with r, g, b.
func InverseXYB(x, y, bch []float64) {
	for i := range x {
		xv, yv, sp := x[i], y[i], bch[i]
		lp := yv + xv
		mp := yv - xv

		l := cube(lp) - opsinBias
		m := cube(mp) - opsinBias
		s := cube(sp) - opsinBias

		x[i] = opsinInverse.At(0, 0)*l + opsinInverse.At(0, 1)*m + opsinInverse.At(0, 2)*s
		y[i] = opsinInverse.At(1, 0)*l + opsinInverse.At(1, 1)*m + opsinInverse.At(1, 2)*s
		bch[i] = opsinInverse.At(2, 0)*l + opsinInverse.At(2, 1)*m + opsinInverse.At(2, 2)*s
	}
}
