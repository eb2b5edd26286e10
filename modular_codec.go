package jxl

import (
	"bytes"
	"math"

	"github.com/jxlgo/jxl/internal/entropy"
	"github.com/jxlgo/jxl/internal/frame"
	"github.com/jxlgo/jxl/internal/modular"
	"github.com/pkg/errors"
)

// channelSpec pairs a frame channel with whether it stores [0,1]-normalized
// float32 samples (RoleColor, per internal/frame's convention) or raw
// integer samples (RoleAlpha/RoleExtra), so the Modular coder below can
// read/write either uniformly.
type channelSpec struct {
	ch    *frame.Channel
	color bool
}

func colorSpecs(channels []*frame.Channel) []channelSpec {
	out := make([]channelSpec, len(channels))
	for i, c := range channels {
		out[i] = channelSpec{ch: c, color: c.Role == frame.RoleColor}
	}
	return out
}

// readChannelSample reads one sample as the signed integer domain the
// Modular predictor operates in. Color channels honor their declared
// SampleType: float32 samples are rescaled from the VarDCT pipeline's
// [0,1]-normalized convention, while u8/u16/i16 color channels (and every
// alpha/extra channel, always integer) pass their raw sample straight
// through unscaled — the pixel type the caller constructed the frame with
// is exactly what decodes back out (spec.md §3, §8's lossless round-trip
// invariant).
func readChannelSample(spec channelSpec, x, y int) (int32, error) {
	if spec.color {
		switch spec.ch.Type {
		case frame.SampleFloat32:
			v, err := spec.ch.Float32At(x, y)
			if err != nil {
				return 0, err
			}
			return int32(math.Round(float64(v) * pixelScale)), nil
		case frame.SampleInt16:
			v, err := spec.ch.Int16At(x, y)
			if err != nil {
				return 0, err
			}
			return int32(v), nil
		default: // SampleUint8, SampleUint16
			v, err := spec.ch.At(x, y)
			if err != nil {
				return 0, err
			}
			return int32(v), nil
		}
	}
	v, err := spec.ch.At(x, y)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// writeChannelSample is the exact inverse of readChannelSample.
func writeChannelSample(spec channelSpec, x, y int, v int32) error {
	if spec.color {
		switch spec.ch.Type {
		case frame.SampleFloat32:
			return spec.ch.SetFloat32(x, y, float32(float64(v)/pixelScale))
		case frame.SampleInt16:
			return spec.ch.SetInt16(x, y, int16(v))
		default: // SampleUint8, SampleUint16
			return spec.ch.Set(x, y, uint32(v))
		}
	}
	return spec.ch.Set(x, y, uint32(v))
}

// nearLosslessDelta derives the Modular quantization step from the
// VarDCT distance metric so both paths are driven by the same quality
// knob: distance 0 (lossless) is always exact (delta 1); otherwise delta
// scales with distance, coarsest at the lowest quality.
func nearLosslessDelta(distance float64) int32 {
	if distance <= 0 {
		return 1
	}
	d := int32(distance * 10)
	if d < 1 {
		d = 1
	}
	return d
}

// encodeModularChannel predicts, quantizes, and entropy-codes one
// channel's samples within bounds (spec.md §4.6).
func encodeModularChannel(spec channelSpec, bounds frame.GroupBounds, distance float64, cfg EncoderConfig, idx int) ([]byte, error) {
	w, h := bounds.Width(), bounds.Height()
	plane := modular.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v, err := readChannelSample(spec, bounds.X0+x, bounds.Y0+y)
			if err != nil {
				return nil, err
			}
			plane.Set(x, y, v)
		}
	}
	residual := modular.EncodeResidual(plane)
	delta := nearLosslessDelta(distance)
	quantized := modular.QuantizeResidual(residual, delta)

	symbols := make([]int, len(quantized.Data))
	for i, v := range quantized.Data {
		symbols[i] = signedToSymbol(v)
	}

	var out bytes.Buffer
	writeInt32(&out, delta)
	section, err := encodeSymbols(symbols, entropy.Context{Kind: entropy.ContextModular, Channel: idx}, cfg)
	if err != nil {
		return nil, err
	}
	out.Write(section)
	return out.Bytes(), nil
}

// decodeModularChannel is the exact inverse of encodeModularChannel.
func decodeModularChannel(data []byte, spec channelSpec, bounds frame.GroupBounds, idx int) error {
	w, h := bounds.Width(), bounds.Height()
	delta, off, err := readInt32(data)
	if err != nil {
		return err
	}
	symbols, _, err := decodeSymbols(data[off:], entropy.Context{Kind: entropy.ContextModular, Channel: idx})
	if err != nil {
		return err
	}
	if len(symbols) != w*h {
		return errors.Wrapf(ErrCorruptedBitstream, "modular channel %d: got %d samples, want %d", idx, len(symbols), w*h)
	}
	quantized := modular.NewPlane(w, h)
	for i, s := range symbols {
		quantized.Data[i] = symbolToSigned(s)
	}
	residual := modular.DequantizeResidual(quantized, delta)
	plane := modular.DecodeResidual(residual)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if err := writeChannelSample(spec, bounds.X0+x, bounds.Y0+y, plane.At(x, y)); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeChannelGroup encodes a list of channels (color, alpha, or extra)
// within one group's bounds into a self-delimiting, length-framed section
// sequence.
func encodeChannelGroup(specs []channelSpec, bounds frame.GroupBounds, distance float64, cfg EncoderConfig) ([]byte, error) {
	var out bytes.Buffer
	writeUint32(&out, uint32(len(specs)))
	for i, spec := range specs {
		data, err := encodeModularChannel(spec, bounds, distance, cfg, i)
		if err != nil {
			return nil, errors.Wrapf(err, "channel %d", i)
		}
		writeUint32(&out, uint32(len(data)))
		out.Write(data)
	}
	return out.Bytes(), nil
}

// decodeChannelGroup is the exact inverse of encodeChannelGroup.
func decodeChannelGroup(data []byte, specs []channelSpec, bounds frame.GroupBounds, distance float64) error {
	count, off, err := readUint32(data)
	if err != nil {
		return err
	}
	if int(count) != len(specs) {
		return errors.Wrapf(ErrCorruptedBitstream, "channel group: got %d channels, want %d", count, len(specs))
	}
	for i, spec := range specs {
		segLen, n, err := readUint32(data[off:])
		if err != nil {
			return err
		}
		off += n
		if off+int(segLen) > len(data) {
			return errors.Wrap(errTruncated, "channel segment")
		}
		seg := data[off : off+int(segLen)]
		off += int(segLen)
		if err := decodeModularChannel(seg, spec, bounds, i); err != nil {
			return errors.Wrapf(err, "channel %d", i)
		}
	}
	return nil
}

// encodeModularGroup encodes every channel of f (color, alpha, and extra
// alike) as Modular data — the whole-frame lossless path (spec.md §4.6).
func encodeModularGroup(f *frame.ImageFrame, bounds frame.GroupBounds, distance float64, cfg EncoderConfig) ([]byte, error) {
	return encodeChannelGroup(colorSpecs(f.Channels), bounds, distance, cfg)
}

// decodeModularGroup is the exact inverse of encodeModularGroup.
func decodeModularGroup(data []byte, f *frame.ImageFrame, bounds frame.GroupBounds, distance float64) error {
	return decodeChannelGroup(data, colorSpecs(f.Channels), bounds, distance)
}
