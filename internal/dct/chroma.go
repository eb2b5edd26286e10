package dct

import "gonum.org/v1/gonum/stat"

// ChromaFromLuma computes the least-squares slope predicting a chroma DCT
// block from its co-located luma DCT block, then returns the chroma block
// with the luma-scaled prediction subtracted out (spec.md §4.5 point 2).
// The regression is forced through the origin: CfL predicts chroma as a
// pure scalar multiple of luma, with no constant offset.
func ChromaFromLuma(luma, chroma *Block) (residual Block, slope float64) {
	lumaF := make([]float64, N*N)
	chromaF := make([]float64, N*N)
	for i := range luma {
		lumaF[i] = float64(luma[i])
		chromaF[i] = float64(chroma[i])
	}
	_, slope = stat.LinearRegression(lumaF, chromaF, nil, true)
	for i := range chroma {
		residual[i] = chroma[i] - float32(slope)*luma[i]
	}
	return residual, slope
}

// ApplyChromaFromLuma reconstructs a chroma block from its CfL residual,
// the co-located luma block, and the encoded slope (the inverse of
// ChromaFromLuma).
func ApplyChromaFromLuma(residual, luma *Block, slope float64) Block {
	var out Block
	for i := range out {
		out[i] = residual[i] + float32(slope)*luma[i]
	}
	return out
}
