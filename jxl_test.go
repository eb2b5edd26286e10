package jxl

import (
	"bytes"
	"testing"

	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/jxlgo/jxl/internal/frame"
)

func newTestFrame(t *testing.T, width, height int, hasAlpha bool, encoding codestream.EncodingMode) *frame.ImageFrame {
	t.Helper()
	header := codestream.DefaultFrameHeader()
	header.Encoding = encoding
	roles := []frame.ChannelRole{frame.RoleColor, frame.RoleColor, frame.RoleColor}
	if hasAlpha {
		roles = append(roles, frame.RoleAlpha)
	}
	f, err := frame.NewImageFrame(header, width, height, roles)
	if err != nil {
		t.Fatalf("NewImageFrame: %v", err)
	}
	for _, c := range f.ColorChannels() {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := float32((x*7+y*13)%256) / 255.0
				if err := c.SetFloat32(x, y, v); err != nil {
					t.Fatalf("SetFloat32: %v", err)
				}
			}
		}
	}
	if a := f.AlphaChannel(); a != nil {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if err := a.Set(x, y, uint32(255)); err != nil {
					t.Fatalf("Set alpha: %v", err)
				}
			}
		}
	}
	return f
}

func TestEncodeDecodeLosslessRoundTrip(t *testing.T) {
	f := newTestFrame(t, 17, 11, false, codestream.EncodingModular)
	cfg := EncoderConfig{Mode: LosslessMode(), Effort: EffortSquirrel, UseANS: true}

	var buf bytes.Buffer
	enc, err := Encode(&buf, []*frame.ImageFrame{f}, cfg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc.OriginalSize <= 0 {
		t.Errorf("EncodedImage.OriginalSize = %d, want > 0", enc.OriginalSize)
	}
	if enc.CompressedSize != int64(buf.Len()) {
		t.Errorf("EncodedImage.CompressedSize = %d, want %d", enc.CompressedSize, buf.Len())
	}
	if enc.Ratio <= 0 {
		t.Errorf("EncodedImage.Ratio = %v, want > 0", enc.Ratio)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != f.Width || got.Height != f.Height {
		t.Fatalf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, f.Width, f.Height)
	}

	want := f.ColorChannels()
	have := got.ColorChannels()
	if len(have) != len(want) {
		t.Fatalf("color channel count = %d, want %d", len(have), len(want))
	}
	for ci := range want {
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				wv, err := want[ci].Float32At(x, y)
				if err != nil {
					t.Fatalf("Float32At want: %v", err)
				}
				hv, err := have[ci].Float32At(x, y)
				if err != nil {
					t.Fatalf("Float32At got: %v", err)
				}
				if wv != hv {
					t.Fatalf("channel %d (%d,%d) = %v, want %v (lossless round trip)", ci, x, y, hv, wv)
				}
			}
		}
	}
}

func TestEncodeDecodeLossyRoundTripShape(t *testing.T) {
	f := newTestFrame(t, 20, 12, true, codestream.EncodingVarDCT)
	cfg := DefaultEncoderConfig()

	var buf bytes.Buffer
	if _, err := Encode(&buf, []*frame.ImageFrame{f}, cfg); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != f.Width || got.Height != f.Height {
		t.Fatalf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, f.Width, f.Height)
	}
	if got.AlphaChannel() == nil {
		t.Fatal("alpha channel dropped across lossy round trip")
	}

	meta, err := ExtractMetadata(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractMetadata: %v", err)
	}
	if meta.Width != f.Width || meta.Height != f.Height {
		t.Errorf("metadata dimensions = %dx%d, want %dx%d", meta.Width, meta.Height, f.Width, f.Height)
	}
	if !meta.HasAlpha {
		t.Error("metadata.HasAlpha = false, want true")
	}
	if !meta.XYBEncoded {
		t.Error("metadata.XYBEncoded = false, want true for lossy mode")
	}
}

func TestEncodeRejectsInconsistentFrames(t *testing.T) {
	a := newTestFrame(t, 16, 16, false, codestream.EncodingModular)
	b := newTestFrame(t, 8, 8, false, codestream.EncodingModular)
	cfg := EncoderConfig{Mode: LosslessMode(), Effort: EffortSquirrel, UseANS: true}

	var buf bytes.Buffer
	_, err := Encode(&buf, []*frame.ImageFrame{a, b}, cfg)
	if err == nil {
		t.Fatal("Encode with mismatched frame dimensions: want error, got nil")
	}
}

func TestEncodeRejectsInvalidConfig(t *testing.T) {
	f := newTestFrame(t, 4, 4, false, codestream.EncodingModular)
	cfg := EncoderConfig{Mode: LossyMode(0), Effort: EffortSquirrel}

	var buf bytes.Buffer
	_, err := Encode(&buf, []*frame.ImageFrame{f}, cfg)
	if err == nil {
		t.Fatal("Encode with quality 0: want error, got nil")
	}
}

// newTypedTestFrame builds a Modular-encoded grayscale or color frame with
// color channels declared as colorType, covering the u8/u16/i16/f32 sample
// types NewTypedImageFrame accepts.
func newTypedTestFrame(t *testing.T, width, height int, numColor int, colorType frame.SampleType) *frame.ImageFrame {
	t.Helper()
	header := codestream.DefaultFrameHeader()
	header.Encoding = codestream.EncodingModular
	roles := make([]frame.ChannelRole, numColor)
	for i := range roles {
		roles[i] = frame.RoleColor
	}
	f, err := frame.NewTypedImageFrame(header, width, height, roles, colorType)
	if err != nil {
		t.Fatalf("NewTypedImageFrame: %v", err)
	}
	for _, c := range f.ColorChannels() {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				raw := uint32((x*7 + y*13 + 1) % 200)
				switch colorType {
				case frame.SampleUint8:
					if err := c.SetUint8(x, y, uint8(raw)); err != nil {
						t.Fatalf("SetUint8: %v", err)
					}
				case frame.SampleUint16:
					if err := c.SetUint16(x, y, uint16(raw*100)); err != nil {
						t.Fatalf("SetUint16: %v", err)
					}
				case frame.SampleInt16:
					if err := c.SetInt16(x, y, int16(raw)-50); err != nil {
						t.Fatalf("SetInt16: %v", err)
					}
				default: // SampleFloat32
					if err := c.SetFloat32(x, y, float32(raw)/199.0); err != nil {
						t.Fatalf("SetFloat32: %v", err)
					}
				}
			}
		}
	}
	return f
}

func assertChannelsEqual(t *testing.T, want, got *frame.Channel, colorType frame.SampleType, w, h int) {
	t.Helper()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch colorType {
			case frame.SampleUint8:
				wv, _ := want.Uint8At(x, y)
				gv, err := got.Uint8At(x, y)
				if err != nil {
					t.Fatalf("Uint8At: %v", err)
				}
				if wv != gv {
					t.Fatalf("(%d,%d) = %d, want %d", x, y, gv, wv)
				}
			case frame.SampleUint16:
				wv, _ := want.Uint16At(x, y)
				gv, err := got.Uint16At(x, y)
				if err != nil {
					t.Fatalf("Uint16At: %v", err)
				}
				if wv != gv {
					t.Fatalf("(%d,%d) = %d, want %d", x, y, gv, wv)
				}
			case frame.SampleInt16:
				wv, _ := want.Int16At(x, y)
				gv, err := got.Int16At(x, y)
				if err != nil {
					t.Fatalf("Int16At: %v", err)
				}
				if wv != gv {
					t.Fatalf("(%d,%d) = %d, want %d", x, y, gv, wv)
				}
			default:
				wv, _ := want.Float32At(x, y)
				gv, err := got.Float32At(x, y)
				if err != nil {
					t.Fatalf("Float32At: %v", err)
				}
				if wv != gv {
					t.Fatalf("(%d,%d) = %v, want %v", x, y, gv, wv)
				}
			}
		}
	}
}

func TestEncodeDecodeSampleTypeRoundTrip(t *testing.T) {
	types := []frame.SampleType{frame.SampleUint8, frame.SampleUint16, frame.SampleInt16, frame.SampleFloat32}
	names := []string{"uint8", "uint16", "int16", "float32"}

	for i, typ := range types {
		t.Run(names[i], func(t *testing.T) {
			f := newTypedTestFrame(t, 9, 7, 3, typ)
			cfg := EncoderConfig{Mode: LosslessMode(), Effort: EffortSquirrel, UseANS: true}

			var buf bytes.Buffer
			if _, err := Encode(&buf, []*frame.ImageFrame{f}, cfg); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			want := f.ColorChannels()
			have := got.ColorChannels()
			if len(have) != len(want) {
				t.Fatalf("color channel count = %d, want %d", len(have), len(want))
			}
			for ci := range want {
				if have[ci].Type != typ {
					t.Errorf("channel %d Type = %v, want %v", ci, have[ci].Type, typ)
				}
				assertChannelsEqual(t, want[ci], have[ci], typ, f.Width, f.Height)
			}
		})
	}
}

func TestEncodeDecodeGrayscaleRoundTrip(t *testing.T) {
	f := newTypedTestFrame(t, 13, 9, 1, frame.SampleFloat32)
	cfg := EncoderConfig{Mode: LosslessMode(), Effort: EffortSquirrel, UseANS: true}

	var buf bytes.Buffer
	if _, err := Encode(&buf, []*frame.ImageFrame{f}, cfg); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	meta, err := ExtractMetadata(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractMetadata: %v", err)
	}
	if meta.Width != f.Width || meta.Height != f.Height {
		t.Errorf("metadata dimensions = %dx%d, want %dx%d", meta.Width, meta.Height, f.Width, f.Height)
	}

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := f.ColorChannels()
	have := got.ColorChannels()
	if len(have) != 1 || len(want) != 1 {
		t.Fatalf("color channel count = %d, want 1 (decoded %d)", len(want), len(have))
	}
	assertChannelsEqual(t, want[0], have[0], frame.SampleFloat32, f.Width, f.Height)
}

func TestDecodeProgressiveInvokesEachPassAndHonorsEarlyStop(t *testing.T) {
	f := newTestFrame(t, 40, 24, false, codestream.EncodingVarDCT)
	cfg := EncoderConfig{Mode: LossyMode(70), Effort: EffortSquirrel, UseANS: true, Progressive: true}

	var buf bytes.Buffer
	if _, err := Encode(&buf, []*frame.ImageFrame{f}, cfg); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var passes []int
	if err := DecodeProgressive(bytes.NewReader(buf.Bytes()), func(pass int, fr *frame.ImageFrame) bool {
		passes = append(passes, pass)
		if fr.Width != f.Width || fr.Height != f.Height {
			t.Errorf("pass %d dimensions = %dx%d, want %dx%d", pass, fr.Width, fr.Height, f.Width, f.Height)
		}
		return true
	}); err != nil {
		t.Fatalf("DecodeProgressive: %v", err)
	}
	if len(passes) < 2 {
		t.Fatalf("progressive passes invoked = %v, want at least 2 (DC + at least one AC refinement)", passes)
	}
	for i, p := range passes {
		if p != i {
			t.Fatalf("passes = %v, want sequential starting at 0", passes)
		}
	}

	var stopped []int
	if err := DecodeProgressive(bytes.NewReader(buf.Bytes()), func(pass int, fr *frame.ImageFrame) bool {
		stopped = append(stopped, pass)
		return false
	}); err != nil {
		t.Fatalf("DecodeProgressive with early stop: %v", err)
	}
	if len(stopped) != 1 {
		t.Fatalf("passes invoked after cb returns false = %v, want exactly 1", stopped)
	}
}

func TestDecodeMetadataPreviewDCOnly(t *testing.T) {
	f := newTestFrame(t, 32, 16, true, codestream.EncodingVarDCT)
	cfg := EncoderConfig{Mode: LossyMode(60), Effort: EffortSquirrel, UseANS: true, Progressive: true}

	var buf bytes.Buffer
	if _, err := Encode(&buf, []*frame.ImageFrame{f}, cfg); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	preview, err := DecodeMetadataPreview(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMetadataPreview: %v", err)
	}
	if preview.Width != f.Width || preview.Height != f.Height {
		t.Fatalf("preview dimensions = %dx%d, want %dx%d", preview.Width, preview.Height, f.Width, f.Height)
	}
	if len(preview.ColorChannels()) != len(f.ColorChannels()) {
		t.Fatalf("preview color channel count = %d, want %d", len(preview.ColorChannels()), len(f.ColorChannels()))
	}

	full, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var diffSum float64
	pc, fc := preview.ColorChannels()[0], full.ColorChannels()[0]
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			pv, _ := pc.Float32At(x, y)
			fv, _ := fc.Float32At(x, y)
			d := float64(pv) - float64(fv)
			if d < 0 {
				d = -d
			}
			diffSum += d
		}
	}
	if diffSum == 0 {
		t.Error("DC-only preview is byte-identical to the full AC-refined decode, want some difference")
	}
}

func TestApplyOrientation(t *testing.T) {
	f := newTestFrame(t, 4, 2, false, codestream.EncodingModular)
	c := f.ColorChannels()[0]
	c.SetFloat32(0, 0, 0.1)
	c.SetFloat32(3, 0, 0.9)

	rotated := &frame.ImageFrame{Width: f.Width, Height: f.Height, Channels: []*frame.Channel{
		frame.NewChannel("Y", frame.RoleColor, frame.SampleFloat32, f.Width, f.Height),
	}}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v, _ := c.Float32At(x, y)
			rotated.Channels[0].SetFloat32(x, y, v)
		}
	}
	applyOrientation(rotated, 6) // rotate 90 CW, swaps width/height
	if rotated.Width != f.Height || rotated.Height != f.Width {
		t.Fatalf("orientation 6 dimensions = %dx%d, want %dx%d", rotated.Width, rotated.Height, f.Height, f.Width)
	}

	mirrored := &frame.ImageFrame{Width: f.Width, Height: f.Height, Channels: []*frame.Channel{
		frame.NewChannel("Y", frame.RoleColor, frame.SampleFloat32, f.Width, f.Height),
	}}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v, _ := c.Float32At(x, y)
			mirrored.Channels[0].SetFloat32(x, y, v)
		}
	}
	applyOrientation(mirrored, 2) // mirror horizontal, no dimension swap
	if mirrored.Width != f.Width || mirrored.Height != f.Height {
		t.Fatalf("orientation 2 dimensions = %dx%d, want %dx%d", mirrored.Width, mirrored.Height, f.Width, f.Height)
	}
	left, _ := mirrored.Channels[0].Float32At(0, 0)
	right, _ := mirrored.Channels[0].Float32At(3, 0)
	if left != 0.9 || right != 0.1 {
		t.Fatalf("orientation 2 mirror = (%v, %v), want (0.9, 0.1)", left, right)
	}
}

func TestChannelRoles(t *testing.T) {
	meta := codestream.DefaultImageMetadata()
	meta.HasAlpha = true
	meta.ExtraChannelCount = 2

	roles := channelRoles(meta)
	if len(roles) != 6 {
		t.Fatalf("len(roles) = %d, want 6", len(roles))
	}
	for i := 0; i < 3; i++ {
		if roles[i] != frame.RoleColor {
			t.Errorf("roles[%d] = %v, want RoleColor", i, roles[i])
		}
	}
	if roles[3] != frame.RoleAlpha {
		t.Errorf("roles[3] = %v, want RoleAlpha", roles[3])
	}
	if roles[4] != frame.RoleExtra || roles[5] != frame.RoleExtra {
		t.Errorf("roles[4:6] = %v, want [RoleExtra RoleExtra]", roles[4:6])
	}
}
