// Package dct implements the 8x8 block DCT-II/III transform, quantization,
// chroma-from-luma prediction, and progressive pass partitioning used by the
// VarDCT lossy path.
package dct

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// N is the block edge length.
const N = 8

// Block is an 8x8 transform block, row-major.
type Block [N * N]float32

// basis is the orthonormal 8x8 DCT-II basis matrix: basis[k][n] =
// sqrt(2/N)*c_k*cos(pi/N*(n+0.5)*k), c_0 = 1/sqrt(2), c_i = 1 otherwise
// (spec.md §4.5 point 1). Because basis is orthogonal, its own transpose is
// the exact inverse (DCT-III) transform — no separate derivation is needed.
var basis *mat.Dense

func init() {
	basis = mat.NewDense(N, N, nil)
	for k := 0; k < N; k++ {
		c := 1.0
		if k == 0 {
			c = 1.0 / math.Sqrt2
		}
		scale := math.Sqrt(2.0/float64(N)) * c
		for n := 0; n < N; n++ {
			basis.Set(k, n, scale*math.Cos(math.Pi/float64(N)*(float64(n)+0.5)*float64(k)))
		}
	}
}

var matPool = sync.Pool{
	New: func() interface{} { return mat.NewDense(N, N, make([]float64, N*N)) },
}

func getMat() *mat.Dense {
	return matPool.Get().(*mat.Dense)
}

func putMat(m *mat.Dense) {
	matPool.Put(m)
}

func blockToMat(b *Block, dst *mat.Dense) {
	for r := 0; r < N; r++ {
		for c := 0; c < N; c++ {
			dst.Set(r, c, float64(b[r*N+c]))
		}
	}
}

func matToBlock(src *mat.Dense, b *Block) {
	for r := 0; r < N; r++ {
		for c := 0; c < N; c++ {
			b[r*N+c] = float32(src.At(r, c))
		}
	}
}

// Forward computes the separable forward DCT-II of b in place: C * B * C^T.
func Forward(b *Block) {
	src := getMat()
	defer putMat(src)
	blockToMat(b, src)

	tmp := getMat()
	defer putMat(tmp)
	tmp.Mul(basis, src)

	out := getMat()
	defer putMat(out)
	out.Mul(tmp, basis.T())

	matToBlock(out, b)
}

// Inverse computes the separable inverse DCT-III of b in place: C^T * B * C.
func Inverse(b *Block) {
	src := getMat()
	defer putMat(src)
	blockToMat(b, src)

	tmp := getMat()
	defer putMat(tmp)
	tmp.Mul(basis.T(), src)

	out := getMat()
	defer putMat(out)
	out.Mul(tmp, basis)

	matToBlock(out, b)
}
