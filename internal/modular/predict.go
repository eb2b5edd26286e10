package modular

// Predict computes the MED/Gradient predictor (the "median edge detector"
// used by lossless JPEG and carried into spec.md §4.6) from the left, top,
// and top-left neighbors:
//
//	if topleft >= max(left, top): predict = min(left, top)
//	if topleft <= min(left, top): predict = max(left, top)
//	otherwise:                     predict = left + top - topleft
func Predict(left, top, topleft int32) int32 {
	maxLT := left
	if top > maxLT {
		maxLT = top
	}
	minLT := left
	if top < minLT {
		minLT = top
	}
	switch {
	case topleft >= maxLT:
		return minLT
	case topleft <= minLT:
		return maxLT
	default:
		return left + top - topleft
	}
}

// PredictAt computes the MED predictor for plane sample (x, y) from its
// already-coded left, top, and top-left neighbors (neighbors outside the
// plane read as 0, per Plane.At).
func PredictAt(p *Plane, x, y int) int32 {
	return Predict(p.At(x-1, y), p.At(x, y-1), p.At(x-1, y-1))
}
