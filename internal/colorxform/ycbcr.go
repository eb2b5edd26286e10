// Package colorxform implements the color-space transforms used by both
// codec paths: RGB<->YCbCr (BT.601), RGB<->XYB (opsin absorbance + cube
// root), and the encoded<->linear transfer functions (sRGB, PQ, HLG,
// gamma). All transforms operate on reference-scalar float64 arithmetic,
// per spec.md §4.4's normative numeric contract.
package colorxform

// ForwardYCbCr converts RGB to YCbCr using the exact BT.601 coefficients
// from spec.md §4.4. r, g, b are overwritten in place with y, cb, cr.
func ForwardYCbCr(r, g, b []float64) {
	for i := range r {
		rv, gv, bv := r[i], g[i], b[i]
		r[i] = 0.299*rv + 0.587*gv + 0.114*bv
		g[i] = -0.168736*rv - 0.331264*gv + 0.5*bv
		b[i] = 0.5*rv - 0.418688*gv - 0.081312*bv
	}
}

// InverseYCbCr converts YCbCr back to RGB using the exact inverse of the
// BT.601 forward matrix. y, cb, cr are overwritten in place with r, g, b.
func InverseYCbCr(y, cb, cr []float64) {
	for i := range y {
		yv, cbv, crv := y[i], cb[i], cr[i]
		y[i] = yv - 1.218894188681752e-06*cbv + 1.4019995886573404*crv
		cb[i] = yv - 0.34413567816533669*cbv - 0.71413615558181254*crv
		cr[i] = yv + 1.7720000660738162*cbv + 4.0629806289391732e-07*crv
	}
}

// LevelShiftForward offsets a signed-centered channel (Cb/Cr, nominally in
// [-0.5, 0.5] scaled to bit depth) into the unsigned range a bit-depth
// sample buffer stores, per spec.md §4.4 ("then offset to unsigned range
// per bit depth").
func LevelShiftForward(data []float64, bitDepth int) {
	half := float64(int64(1) << (bitDepth - 1))
	for i := range data {
		data[i] += half
	}
}

// LevelShiftInverse is the inverse of LevelShiftForward.
func LevelShiftInverse(data []float64, bitDepth int) {
	half := float64(int64(1) << (bitDepth - 1))
	for i := range data {
		data[i] -= half
	}
}
