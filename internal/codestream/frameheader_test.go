package codestream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jxlgo/jxl/internal/bio"
)

func TestFrameHeaderDefaultShortcut(t *testing.T) {
	w := bio.NewWriter(nil)
	if err := DefaultFrameHeader().Serialize(w); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if w.BitLength() != 1 {
		t.Fatalf("default frame header serialized to %d bits, want 1", w.BitLength())
	}
}

func TestFrameHeaderRoundTrip(t *testing.T) {
	cases := []FrameHeader{
		DefaultFrameHeader(),
		{
			Type:      FrameReferenceOnly,
			Encoding:  EncodingModular,
			Blend:     BlendAdd,
			Duration:  0,
			IsLast:    false,
			NumPasses: 1,
			NumGroups: 1,
		},
		{
			Type:            FrameRegular,
			Encoding:        EncodingVarDCT,
			Blend:           BlendBlend,
			Duration:        40,
			IsLast:          true,
			SaveAsReference: 2,
			Name:            "base layer",
			Crop:            &Crop{X: -4, Y: 8, Width: 512, Height: 384},
			NumPasses:       3,
			NumGroups:       16,
		},
		{
			Type:      FrameSkipProgressive,
			Encoding:  EncodingVarDCT,
			Blend:     BlendMulAdd,
			Duration:  1,
			IsLast:    true,
			NumPasses: 1,
			NumGroups: 100000,
		},
	}
	for i, c := range cases {
		w := bio.NewWriter(nil)
		if err := c.Serialize(w); err != nil {
			t.Fatalf("case %d Serialize: %v", i, err)
		}
		w.Align()
		r := bio.NewReader(w.Bytes())
		got, err := ParseFrameHeader(r)
		if err != nil {
			t.Fatalf("case %d ParseFrameHeader: %v", i, err)
		}
		if diff := cmp.Diff(c, got); diff != "" {
			t.Errorf("case %d round trip mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestFrameHeaderNameTooLongRejected(t *testing.T) {
	name := make([]byte, 256)
	for i := range name {
		name[i] = 'a'
	}
	h := DefaultFrameHeader()
	h.IsLast = false // force the non-default path so Name is serialized
	h.Name = string(name)
	w := bio.NewWriter(nil)
	if err := h.Serialize(w); err == nil {
		t.Fatal("Serialize with 256-byte name: got nil error, want rejection")
	}
}
