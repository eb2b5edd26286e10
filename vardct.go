package jxl

import (
	"bytes"

	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/jxlgo/jxl/internal/dct"
	"github.com/jxlgo/jxl/internal/entropy"
	"github.com/jxlgo/jxl/internal/frame"
	"github.com/pkg/errors"
)

func blockGrid(w, h int) (int, int) {
	return (w + dct.N - 1) / dct.N, (h + dct.N - 1) / dct.N
}

// extractBlock reads one 8x8 tile from a group-local float64 plane,
// zero-padding whatever falls past the group's edge.
func extractBlock(data []float64, w, h, bx, by int) dct.Block {
	var blk dct.Block
	for row := 0; row < dct.N; row++ {
		yy := by*dct.N + row
		if yy >= h {
			continue
		}
		rowBase := yy * w
		for col := 0; col < dct.N; col++ {
			xx := bx*dct.N + col
			if xx >= w {
				continue
			}
			blk[row*dct.N+col] = float32(data[rowBase+xx])
		}
	}
	return blk
}

func insertBlock(data []float64, w, h, bx, by int, blk dct.Block) {
	for row := 0; row < dct.N; row++ {
		yy := by*dct.N + row
		if yy >= h {
			continue
		}
		rowBase := yy * w
		for col := 0; col < dct.N; col++ {
			xx := bx*dct.N + col
			if xx >= w {
				continue
			}
			data[rowBase+xx] = float64(blk[row*dct.N+col])
		}
	}
}

// passListFor selects the progressive refinement passes a VarDCT group
// writes: the full three-way DC/low/high split when the caller asked for
// progressive output, or a merged DC + single-AC split otherwise (spec.md
// §4.5: "Non-progressive encodes emit a single AC pass"). DC always gets
// its own section so a DC-only preview decode works either way.
func passListFor(cfg EncoderConfig) []dct.Pass {
	if cfg.Progressive {
		return []dct.Pass{dct.PassDC, dct.PassLowFreqAC, dct.PassHighFreqAC}
	}
	return []dct.Pass{dct.PassDC, dct.PassFullAC}
}

// quantChannelsFor returns the per-channel quantization table selector for
// a VarDCT group's n color channels: a single luma table for 1-channel
// (grayscale) frames, or luma+chroma-Cb+chroma-Cr for 3-channel frames
// (spec.md §3's "color plane count ∈ {1, 3}").
func quantChannelsFor(n int) []dct.Channel {
	if n == 1 {
		return []dct.Channel{dct.ChannelLuma}
	}
	return []dct.Channel{dct.ChannelLuma, dct.ChannelChromaCb, dct.ChannelChromaCr}
}

// scaleQuantTable multiplies every entry of a quantization table by scale,
// the mechanism region_of_interest uses to reduce distance (finer
// quantization, scale < 1) inside the ROI without touching the bitstream's
// metadata or frame header (spec.md §4.8: "an encoder-side policy only...
// not signaled in the bitstream"). The per-block scale itself still has to
// reach the decoder somehow for dequantization to match, so it rides along
// in the VarDCT section's own block table instead.
func scaleQuantTable(t [dct.N * dct.N]float32, scale float32) [dct.N * dct.N]float32 {
	if scale == 1 {
		return t
	}
	var out [dct.N * dct.N]float32
	for i, v := range t {
		out[i] = v * scale
	}
	return out
}

// roiScaleForBlock reports the quantization scale for the block at (bx,
// by) within bounds: half the normal step size (finer, lower distance)
// when the block falls inside roi, the normal step size otherwise. No
// feathering: the spec leaves the falloff shape an open question (spec.md
// §9), and a hard cutoff is the simplest choice that satisfies "inside
// scaled, outside unchanged".
func roiScaleForBlock(roi *ROI, bounds frame.GroupBounds, bx, by int) float32 {
	if roi == nil {
		return 1.0
	}
	x0 := bounds.X0 + bx*dct.N
	y0 := bounds.Y0 + by*dct.N
	x1 := x0 + dct.N
	y1 := y0 + dct.N
	if x1 <= roi.X || x0 >= roi.X+roi.Width || y1 <= roi.Y || y0 >= roi.Y+roi.Height {
		return 1.0
	}
	return 0.5
}

// encodeVarDCTGroup runs one group rectangle's color channels through the
// forward color transform (full YCbCr/XYB + CfL for 3 channels, a plain
// luma transform for 1 grayscale channel), per-block forward DCT, and
// quantization, then entropy-codes each (channel, pass) coefficient band
// independently (spec.md §4.5, §4.7). The alpha/extra channels of the same
// group are appended afterward via the Modular channel coder.
func encodeVarDCTGroup(f *frame.ImageFrame, meta codestream.ImageMetadata, bounds frame.GroupBounds, distance float64, cfg EncoderConfig) ([]byte, error) {
	colorChannels := f.ColorChannels()
	n := len(colorChannels)
	if n != 1 && n != 3 {
		return nil, errors.Wrapf(ErrUnsupportedChannelCount, "VarDCT requires 1 or 3 color channels, got %d", n)
	}

	w, h := bounds.Width(), bounds.Height()
	nbx, nby := blockGrid(w, h)
	numBlocks := nbx * nby

	var planes [][]float64
	var slopes [][2]float64
	if n == 3 {
		p := forwardColorTransform(meta, colorChannels, bounds)
		planes = [][]float64{p[0], p[1], p[2]}
		slopes = make([][2]float64, numBlocks)
	} else {
		planes = [][]float64{forwardGrayTransform(meta, colorChannels[0], bounds)}
	}

	quantChans := quantChannelsFor(n)
	quantTables := make([][dct.N * dct.N]float32, n)
	for ch := 0; ch < n; ch++ {
		quantTables[ch] = dct.QuantTable(quantChans[ch], distance)
	}

	scales := make([]float32, numBlocks)
	quantized := make([][][dct.N * dct.N]int32, numBlocks)
	for i := range quantized {
		quantized[i] = make([][dct.N * dct.N]int32, n)
	}

	idx := 0
	for by := 0; by < nby; by++ {
		for bx := 0; bx < nbx; bx++ {
			scale := roiScaleForBlock(cfg.RegionOfInterest, bounds, bx, by)
			scales[idx] = scale

			lumaBlk := extractBlock(planes[0], w, h, bx, by)
			dct.Forward(&lumaBlk)
			lumaZZ := dct.ToZigzag(&lumaBlk)
			quantized[idx][0] = dct.Quantize(lumaZZ, scaleQuantTable(quantTables[0], scale))

			if n == 3 {
				for c := 0; c < 2; c++ {
					chromaIdx := c + 1
					chBlk := extractBlock(planes[chromaIdx], w, h, bx, by)
					dct.Forward(&chBlk)
					residualBlk, slope := dct.ChromaFromLuma(&lumaBlk, &chBlk)
					slopes[idx][c] = slope
					resZZ := dct.ToZigzag(&residualBlk)
					quantized[idx][chromaIdx] = dct.Quantize(resZZ, scaleQuantTable(quantTables[chromaIdx], scale))
				}
			}
			idx++
		}
	}

	var out bytes.Buffer
	writeUint32(&out, uint32(nbx))
	writeUint32(&out, uint32(nby))
	writeUint32(&out, uint32(n))
	for _, s := range scales {
		writeFloat32(&out, s)
	}
	if n == 3 {
		for _, s := range slopes {
			writeFloat64(&out, s[0])
			writeFloat64(&out, s[1])
		}
	}

	passes := passListFor(cfg)
	writeUint32(&out, uint32(len(passes)))
	for _, pass := range passes {
		lo, hi := dct.PassPartition(pass)
		writeInt32(&out, int32(pass))
		writeInt32(&out, int32(lo))
		writeInt32(&out, int32(hi))
		for ch := 0; ch < n; ch++ {
			symbols := make([]int, 0, numBlocks*(hi-lo))
			for _, q := range quantized {
				zz := q[ch]
				for i := lo; i < hi; i++ {
					symbols = append(symbols, signedToSymbol(zz[i]))
				}
			}
			section, err := encodeSymbols(symbols, entropy.Context{Kind: entropy.ContextVarDCT, Channel: ch, Band: int(pass)}, cfg)
			if err != nil {
				return nil, errors.Wrapf(err, "channel %d pass %d", ch, pass)
			}
			writeUint32(&out, uint32(len(section)))
			out.Write(section)
		}
	}

	extra := colorSpecs(extraAndAlphaChannels(f))
	extraBytes, err := encodeChannelGroup(extra, bounds, 0, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "extra channels")
	}
	out.Write(extraBytes)

	return out.Bytes(), nil
}

// decodeVarDCTGroup is the exact inverse of encodeVarDCTGroup. It reads the
// pass count and each pass's declared [lo, hi) range directly from the
// section rather than assuming a fixed 3-pass layout, so it transparently
// handles both progressive and non-progressive encodes, and a reader that
// stops after the DC pass still gets a valid low-resolution preview
// (spec.md §8's progressive prefix property).
func decodeVarDCTGroup(data []byte, f *frame.ImageFrame, meta codestream.ImageMetadata, bounds frame.GroupBounds, distance float64) error {
	_, err := decodeVarDCTGroupPasses(data, f, meta, bounds, distance, -1)
	return err
}

// decodeVarDCTGroupPasses is decodeVarDCTGroup generalized to stop after
// maxPasses sections (all of them, if maxPasses < 0): the mechanism both
// the plain DC-only preview and the pass-by-pass DecodeProgressive driver
// build on. Passes beyond maxPasses are skipped (their bytes consumed, not
// decoded), so every later field in the section stays aligned regardless
// of how many passes the caller asked for. It returns the section's total
// declared pass count so a caller can tell when it has reached the last
// one.
func decodeVarDCTGroupPasses(data []byte, f *frame.ImageFrame, meta codestream.ImageMetadata, bounds frame.GroupBounds, distance float64, maxPasses int) (int, error) {
	colorChannels := f.ColorChannels()
	n := len(colorChannels)
	if n != 1 && n != 3 {
		return 0, errors.Wrapf(ErrUnsupportedChannelCount, "VarDCT requires 1 or 3 color channels, got %d", n)
	}

	nbx32, off, err := readUint32(data)
	if err != nil {
		return 0, err
	}
	nby32, n2, err := readUint32(data[off:])
	if err != nil {
		return 0, err
	}
	off += n2
	nColor32, n2, err := readUint32(data[off:])
	if err != nil {
		return 0, err
	}
	off += n2
	if int(nColor32) != n {
		return 0, errors.Wrapf(ErrCorruptedBitstream, "VarDCT group: got %d channels, want %d", nColor32, n)
	}
	nbx, nby := int(nbx32), int(nby32)
	numBlocks := nbx * nby

	scales := make([]float32, numBlocks)
	for i := range scales {
		v, n2, err := readFloat32(data[off:])
		if err != nil {
			return 0, err
		}
		off += n2
		scales[i] = v
	}

	var slopes [][2]float64
	if n == 3 {
		slopes = make([][2]float64, numBlocks)
		for i := range slopes {
			v0, n2, err := readFloat64(data[off:])
			if err != nil {
				return 0, err
			}
			off += n2
			v1, n2, err := readFloat64(data[off:])
			if err != nil {
				return 0, err
			}
			off += n2
			slopes[i] = [2]float64{v0, v1}
		}
	}

	quantChans := quantChannelsFor(n)
	quantTables := make([][dct.N * dct.N]float32, n)
	for ch := 0; ch < n; ch++ {
		quantTables[ch] = dct.QuantTable(quantChans[ch], distance)
	}

	quantized := make([][][dct.N * dct.N]int32, numBlocks)
	for i := range quantized {
		quantized[i] = make([][dct.N * dct.N]int32, n)
	}

	numPasses32, n2, err := readUint32(data[off:])
	if err != nil {
		return 0, err
	}
	off += n2
	totalPasses := int(numPasses32)
	decodePasses := totalPasses
	if maxPasses >= 0 && maxPasses < totalPasses {
		decodePasses = maxPasses
	}
	for p := uint32(0); p < numPasses32; p++ {
		passID, n2, err := readInt32(data[off:])
		if err != nil {
			return 0, err
		}
		off += n2
		lo32, n2, err := readInt32(data[off:])
		if err != nil {
			return 0, err
		}
		off += n2
		hi32, n2, err := readInt32(data[off:])
		if err != nil {
			return 0, err
		}
		off += n2
		lo, hi := int(lo32), int(hi32)

		for ch := 0; ch < n; ch++ {
			want := numBlocks * (hi - lo)
			secLen, n2, err := readUint32(data[off:])
			if err != nil {
				return 0, err
			}
			off += n2
			if off+int(secLen) > len(data) {
				return 0, errors.Wrap(errTruncated, "VarDCT coefficient section")
			}
			section := data[off : off+int(secLen)]
			off += int(secLen)

			if int(p) >= decodePasses {
				continue
			}

			symbols, _, err := decodeSymbols(section, entropy.Context{Kind: entropy.ContextVarDCT, Channel: ch, Band: int(passID)})
			if err != nil {
				return 0, errors.Wrapf(err, "channel %d pass %d", ch, passID)
			}
			if len(symbols) != want {
				return 0, errors.Wrapf(ErrCorruptedBitstream, "channel %d pass %d: got %d symbols, want %d", ch, passID, len(symbols), want)
			}
			si := 0
			for b := 0; b < numBlocks; b++ {
				for i := lo; i < hi; i++ {
					quantized[b][ch][i] = symbolToSigned(symbols[si])
					si++
				}
			}
		}
	}

	w, h := bounds.Width(), bounds.Height()
	planes := make([][]float64, n)
	for i := range planes {
		planes[i] = make([]float64, w*h)
	}

	idx := 0
	for by := 0; by < nby; by++ {
		for bx := 0; bx < nbx; bx++ {
			scale := scales[idx]
			lumaZZ := dct.Dequantize(quantized[idx][0], scaleQuantTable(quantTables[0], scale))
			lumaFreq := dct.FromZigzag(lumaZZ)

			var chromaSpatial [2]dct.Block
			if n == 3 {
				for c := 0; c < 2; c++ {
					chromaIdx := c + 1
					resZZ := dct.Dequantize(quantized[idx][chromaIdx], scaleQuantTable(quantTables[chromaIdx], scale))
					resBlk := dct.FromZigzag(resZZ)
					chBlk := dct.ApplyChromaFromLuma(&resBlk, &lumaFreq, slopes[idx][c])
					dct.Inverse(&chBlk)
					chromaSpatial[c] = chBlk
				}
			}

			dct.Inverse(&lumaFreq)
			insertBlock(planes[0], w, h, bx, by, lumaFreq)
			if n == 3 {
				insertBlock(planes[1], w, h, bx, by, chromaSpatial[0])
				insertBlock(planes[2], w, h, bx, by, chromaSpatial[1])
			}
			idx++
		}
	}

	if n == 3 {
		inverseColorTransform(meta, colorChannels, bounds, [3][]float64{planes[0], planes[1], planes[2]})
	} else {
		inverseGrayTransform(meta, colorChannels[0], bounds, planes[0])
	}

	extra := colorSpecs(extraAndAlphaChannels(f))
	if err := decodeChannelGroup(data[off:], extra, bounds, distance); err != nil {
		return 0, errors.Wrap(err, "extra channels")
	}
	return totalPasses, nil
}

func extraAndAlphaChannels(f *frame.ImageFrame) []*frame.Channel {
	var out []*frame.Channel
	if a := f.AlphaChannel(); a != nil {
		out = append(out, a)
	}
	out = append(out, f.ExtraChannels()...)
	return out
}
