package modular

import (
	"math/rand"
	"testing"
)

func TestPredictMED(t *testing.T) {
	cases := []struct {
		left, top, topleft int32
		want               int32
	}{
		{10, 10, 10, 10},  // flat region: predict equals either neighbor
		{10, 20, 5, 20},   // topleft <= min(left, top): predict = max
		{10, 20, 25, 10},  // topleft >= max(left, top): predict = min
		{10, 20, 15, 15},  // interior case: left + top - topleft
		{0, 0, 0, 0},
	}
	for _, c := range cases {
		got := Predict(c.left, c.top, c.topleft)
		if got != c.want {
			t.Errorf("Predict(%d,%d,%d) = %d, want %d", c.left, c.top, c.topleft, got, c.want)
		}
	}
}

func TestResidualRoundTripDeterministic(t *testing.T) {
	src := NewPlane(16, 12)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			src.Set(x, y, int32((x*7+y*13)%251))
		}
	}
	residual := EncodeResidual(src)
	got := DecodeResidual(residual)
	for i := range src.Data {
		if got.Data[i] != src.Data[i] {
			t.Fatalf("position %d: got %d, want %d", i, got.Data[i], src.Data[i])
		}
	}
}

func TestResidualRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	src := NewPlane(20, 20)
	for i := range src.Data {
		src.Data[i] = int32(rng.Intn(512) - 256)
	}
	residual := EncodeResidual(src)
	got := DecodeResidual(residual)
	for i := range src.Data {
		if got.Data[i] != src.Data[i] {
			t.Fatalf("position %d: got %d, want %d", i, got.Data[i], src.Data[i])
		}
	}
}

func TestResidualOfConstantPlaneIsZeroExceptBorder(t *testing.T) {
	src := NewPlane(8, 8)
	for i := range src.Data {
		src.Data[i] = 100
	}
	residual := EncodeResidual(src)
	// Every interior pixel (left, top, top-left all 100) predicts exactly
	// to 100, leaving a zero residual.
	for y := 1; y < src.Height; y++ {
		for x := 1; x < src.Width; x++ {
			if v := residual.At(x, y); v != 0 {
				t.Errorf("interior residual at (%d,%d) = %d, want 0", x, y, v)
			}
		}
	}
}

func TestNearLosslessQuantizeDequantizeBoundedError(t *testing.T) {
	residual := NewPlane(10, 10)
	rng := rand.New(rand.NewSource(2))
	for i := range residual.Data {
		residual.Data[i] = int32(rng.Intn(200) - 100)
	}
	delta := int32(5)
	q := QuantizeResidual(residual, delta)
	deq := DequantizeResidual(q, delta)
	for i := range residual.Data {
		diff := residual.Data[i] - deq.Data[i]
		if diff < -delta || diff > delta {
			t.Errorf("position %d: error %d exceeds delta %d", i, diff, delta)
		}
	}
}

func TestNearLosslessDeltaOneIsLossless(t *testing.T) {
	residual := NewPlane(4, 4)
	for i := range residual.Data {
		residual.Data[i] = int32(i) - 8
	}
	q := QuantizeResidual(residual, 1)
	deq := DequantizeResidual(q, 1)
	for i := range residual.Data {
		if deq.Data[i] != residual.Data[i] {
			t.Errorf("position %d: got %d, want %d", i, deq.Data[i], residual.Data[i])
		}
	}
}
