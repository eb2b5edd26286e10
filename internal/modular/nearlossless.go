package modular

// QuantizeResidual quantizes a residual plane to a small positive delta
// before entropy coding, per spec.md §4.6's near-lossless mode. delta must
// be >= 1; delta == 1 is exact lossless (a no-op quantization step).
func QuantizeResidual(residual *Plane, delta int32) *Plane {
	if delta <= 1 {
		out := NewPlane(residual.Width, residual.Height)
		copy(out.Data, residual.Data)
		return out
	}
	out := NewPlane(residual.Width, residual.Height)
	half := delta / 2
	for i, v := range residual.Data {
		if v >= 0 {
			out.Data[i] = (v + half) / delta
		} else {
			out.Data[i] = -((-v + half) / delta)
		}
	}
	return out
}

// DequantizeResidual reconstructs an approximate residual plane from one
// quantized by QuantizeResidual.
func DequantizeResidual(quantized *Plane, delta int32) *Plane {
	if delta <= 1 {
		out := NewPlane(quantized.Width, quantized.Height)
		copy(out.Data, quantized.Data)
		return out
	}
	out := NewPlane(quantized.Width, quantized.Height)
	for i, v := range quantized.Data {
		out.Data[i] = v * delta
	}
	return out
}
