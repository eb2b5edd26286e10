package jxl

import (
	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/jxlgo/jxl/internal/colorxform"
	"github.com/jxlgo/jxl/internal/frame"
)

// pixelScale rescales the [0,1]-normalized color samples a Channel stores
// (see internal/frame.Channel's Float32At convention) into the roughly
// 0..255 magnitude the VarDCT quantization tables in internal/dct are
// tuned for. It is an internal wiring constant, not tied to a frame's
// declared bit depth.
const pixelScale = 255.0

// levelShiftBitDepth is the fixed bit depth used for LevelShiftForward/
// Inverse on the chroma-like planes, centering them at 128 in the
// pixelScale domain regardless of the source image's actual bit depth.
const levelShiftBitDepth = 8

func readColorFloats(c *frame.Channel, bounds frame.GroupBounds) []float64 {
	out := make([]float64, bounds.Width()*bounds.Height())
	i := 0
	for y := bounds.Y0; y < bounds.Y1; y++ {
		for x := bounds.X0; x < bounds.X1; x++ {
			v, _ := c.Float32At(x, y)
			out[i] = float64(v)
			i++
		}
	}
	return out
}

func writeColorFloats(c *frame.Channel, bounds frame.GroupBounds, data []float64) {
	i := 0
	for y := bounds.Y0; y < bounds.Y1; y++ {
		for x := bounds.X0; x < bounds.X1; x++ {
			c.SetFloat32(x, y, float32(data[i]))
			i++
		}
	}
}

// forwardColorTransform reads a group's three color channels, applies the
// transfer function's decode step, then either YCbCr or XYB depending on
// meta.XYBEncoded, and returns the result reordered to a luma-first
// (luma, chromaA, chromaB) convention so the VarDCT/chroma-from-luma
// pipeline downstream never needs to care which color space produced it
// (spec.md §4.4).
func forwardColorTransform(meta codestream.ImageMetadata, colorChannels []*frame.Channel, bounds frame.GroupBounds) [3][]float64 {
	r := readColorFloats(colorChannels[0], bounds)
	g := readColorFloats(colorChannels[1], bounds)
	b := readColorFloats(colorChannels[2], bounds)

	tf := colorxform.ForTransferFunction(int(meta.Color.TransferFunction), meta.Color.Gamma.ToFloat())
	for i := range r {
		r[i] = tf.Decode(r[i])
		g[i] = tf.Decode(g[i])
		b[i] = tf.Decode(b[i])
	}

	var luma, chromaA, chromaB []float64
	if meta.XYBEncoded {
		colorxform.ForwardXYB(r, g, b)
		luma, chromaA, chromaB = g, r, b
	} else {
		colorxform.ForwardYCbCr(r, g, b)
		luma, chromaA, chromaB = r, g, b
	}

	for i := range luma {
		luma[i] *= pixelScale
		chromaA[i] *= pixelScale
		chromaB[i] *= pixelScale
	}
	colorxform.LevelShiftForward(chromaA, levelShiftBitDepth)
	colorxform.LevelShiftForward(chromaB, levelShiftBitDepth)

	return [3][]float64{luma, chromaA, chromaB}
}

// forwardGrayTransform is forwardColorTransform's single-channel
// counterpart for grayscale frames (meta.Color.ColorSpace ==
// ColorSpaceGray): there is no chroma to derive and no YCbCr/XYB matrix to
// apply, only the transfer function's decode step and the same pixelScale
// rescale the luma plane gets in the 3-channel path.
func forwardGrayTransform(meta codestream.ImageMetadata, ch *frame.Channel, bounds frame.GroupBounds) []float64 {
	y := readColorFloats(ch, bounds)
	tf := colorxform.ForTransferFunction(int(meta.Color.TransferFunction), meta.Color.Gamma.ToFloat())
	for i := range y {
		y[i] = tf.Decode(y[i]) * pixelScale
	}
	return y
}

// inverseGrayTransform is the exact inverse of forwardGrayTransform.
func inverseGrayTransform(meta codestream.ImageMetadata, ch *frame.Channel, bounds frame.GroupBounds, plane []float64) {
	tf := colorxform.ForTransferFunction(int(meta.Color.TransferFunction), meta.Color.Gamma.ToFloat())
	out := make([]float64, len(plane))
	for i, v := range plane {
		out[i] = tf.Encode(v / pixelScale)
	}
	writeColorFloats(ch, bounds, out)
}

// inverseColorTransform is the exact inverse of forwardColorTransform,
// writing the reconstructed r/g/b samples back into colorChannels.
func inverseColorTransform(meta codestream.ImageMetadata, colorChannels []*frame.Channel, bounds frame.GroupBounds, planes [3][]float64) {
	luma, chromaA, chromaB := planes[0], planes[1], planes[2]
	colorxform.LevelShiftInverse(chromaA, levelShiftBitDepth)
	colorxform.LevelShiftInverse(chromaB, levelShiftBitDepth)
	for i := range luma {
		luma[i] /= pixelScale
		chromaA[i] /= pixelScale
		chromaB[i] /= pixelScale
	}

	var r, g, b []float64
	if meta.XYBEncoded {
		x, y, bch := chromaA, luma, chromaB
		colorxform.InverseXYB(x, y, bch)
		r, g, b = x, y, bch
	} else {
		colorxform.InverseYCbCr(luma, chromaA, chromaB)
		r, g, b = luma, chromaA, chromaB
	}

	tf := colorxform.ForTransferFunction(int(meta.Color.TransferFunction), meta.Color.Gamma.ToFloat())
	for i := range r {
		r[i] = tf.Encode(r[i])
		g[i] = tf.Encode(g[i])
		b[i] = tf.Encode(b[i])
	}
	writeColorFloats(colorChannels[0], bounds, r)
	writeColorFloats(colorChannels[1], bounds, g)
	writeColorFloats(colorChannels[2], bounds, b)
}
