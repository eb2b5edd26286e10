package modular

// EncodeResidual replaces each sample of src with its MED-predictor
// residual (sample - prediction), returning a new plane holding the
// residuals. src is read in raster order; predictions reference the
// already-visited neighbors of src itself, so residual encoding is a pure
// function of the original samples.
func EncodeResidual(src *Plane) *Plane {
	out := NewPlane(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			pred := PredictAt(src, x, y)
			out.Set(x, y, src.At(x, y)-pred)
		}
	}
	return out
}

// DecodeResidual reconstructs the original plane from a residual plane
// produced by EncodeResidual, predicting from its own already-reconstructed
// output in the same raster order used at encode time.
func DecodeResidual(residual *Plane) *Plane {
	out := NewPlane(residual.Width, residual.Height)
	for y := 0; y < residual.Height; y++ {
		for x := 0; x < residual.Width; x++ {
			pred := PredictAt(out, x, y)
			out.Set(x, y, residual.At(x, y)+pred)
		}
	}
	return out
}
