package codestream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jxlgo/jxl/internal/bio"
)

func serializeSize(t *testing.T, s SizeHeader) []byte {
	t.Helper()
	w := bio.NewWriter(nil)
	if err := s.Serialize(w); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	w.Align()
	return w.Bytes()
}

func TestSizeHeaderRoundTrip(t *testing.T) {
	cases := []SizeHeader{
		{Width: 1, Height: 1},
		{Width: 256, Height: 256},
		{Width: 257, Height: 300},
		{Width: 8192, Height: 4096},
		{Width: 1 << 17, Height: 1 << 20},
		{Width: 1<<30 - 1, Height: 17},
	}
	for _, c := range cases {
		data := serializeSize(t, c)
		r := bio.NewReader(data)
		got, err := ParseSizeHeader(r)
		if err != nil {
			t.Fatalf("ParseSizeHeader(%v): %v", c, err)
		}
		if got != c {
			t.Errorf("round trip %v -> %v", c, got)
		}
	}
}

// TestSizeHeaderSmallestSelector checks spec.md §8's "variable-length field
// smallest-selector law" for the non-small-dimension path.
func TestSizeHeaderSmallestSelector(t *testing.T) {
	cases := []struct {
		value uint32
		width int
	}{
		{257, 9},
		{512, 9},
		{513, 13},
		{8192, 13},
		{8193, 18},
		{1 << 18, 18},
		{1<<18 + 1, 30},
	}
	for _, c := range cases {
		w := bio.NewWriter(nil)
		if err := writeSelected(w, c.value, sizeSelectorBits, sizeFieldWidths, true); err != nil {
			t.Fatalf("writeSelected(%d): %v", c.value, err)
		}
		r := bio.NewReader(w.Bytes())
		sel, err := r.ReadBits(sizeSelectorBits)
		if err != nil {
			t.Fatalf("ReadBits selector: %v", err)
		}
		if got := sizeFieldWidths[sel]; got != c.width {
			t.Errorf("value %d chose field width %d, want %d", c.value, got, c.width)
		}
	}
}

func TestImageMetadataDefaultShortcut(t *testing.T) {
	w := bio.NewWriter(nil)
	if err := DefaultImageMetadata().Serialize(w); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if w.BitLength() != 1 {
		t.Fatalf("default metadata serialized to %d bits, want 1", w.BitLength())
	}
}

func TestImageMetadataRoundTrip(t *testing.T) {
	cases := []ImageMetadata{
		DefaultImageMetadata(),
		{
			BitDepth:          16,
			HasAlpha:          true,
			ExtraChannelCount: 2,
			XYBEncoded:        true,
			Color:             DefaultColorEncoding(),
			Orientation:       6,
		},
		{
			BitDepth:    32,
			Color:       ColorEncoding{ICCProfile: true},
			Orientation: 1,
			Animation:   &Animation{TPSNumerator: 24, TPSDenominator: 1, LoopCount: 5},
		},
		{
			BitDepth: 12,
			Color: ColorEncoding{
				ColorSpace:       ColorSpaceCustom,
				WhitePoint:       WhitePointCustom,
				Primaries:        PrimariesCustom,
				TransferFunction: TransferGamma,
				RenderingIntent:  RenderingAbsolute,
				WhitePointXY:     [2]FixedPoint{FixedPointFromFloat(0.3127), FixedPointFromFloat(0.329)},
				PrimariesXY: [3][2]FixedPoint{
					{FixedPointFromFloat(0.64), FixedPointFromFloat(0.33)},
					{FixedPointFromFloat(0.3), FixedPointFromFloat(0.6)},
					{FixedPointFromFloat(0.15), FixedPointFromFloat(0.06)},
				},
				Gamma: FixedPointFromFloat(2.2),
			},
			Orientation: 3,
		},
	}
	for i, c := range cases {
		w := bio.NewWriter(nil)
		if err := c.Serialize(w); err != nil {
			t.Fatalf("case %d Serialize: %v", i, err)
		}
		w.Align()
		r := bio.NewReader(w.Bytes())
		got, err := ParseImageMetadata(r)
		if err != nil {
			t.Fatalf("case %d ParseImageMetadata: %v", i, err)
		}
		if diff := cmp.Diff(c, got); diff != "" {
			t.Errorf("case %d round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestHeaderValidateRejectsZeroDimensions(t *testing.T) {
	h := Header{Size: SizeHeader{Width: 0, Height: 10}, Metadata: DefaultImageMetadata()}
	if err := h.Validate(); err == nil {
		t.Fatal("Validate with zero width: got nil error")
	}
}

func TestHeaderValidateRejectsOversizedDimensions(t *testing.T) {
	h := Header{Size: SizeHeader{Width: maxDimension + 1, Height: 10}, Metadata: DefaultImageMetadata()}
	if err := h.Validate(); err == nil {
		t.Fatal("Validate with oversized width: got nil error")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Size: SizeHeader{Width: 1920, Height: 1080},
		Metadata: ImageMetadata{
			BitDepth:    10,
			HasAlpha:    true,
			Color:       DefaultColorEncoding(),
			Orientation: 1,
		},
	}
	w := bio.NewWriter(nil)
	if err := h.Serialize(w); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	w.Align()
	got, err := ParseHeader(bio.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("header round trip mismatch (-want +got):\n%s", diff)
	}
}
