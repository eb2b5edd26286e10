package frame

import (
	"math"
	"testing"

	"github.com/jxlgo/jxl/internal/codestream"
)

func TestChannelUint16RoundTrip(t *testing.T) {
	c := NewChannel("Y", RoleColor, SampleUint16, 4, 3)
	if err := c.Set(2, 1, 12345); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.At(2, 1)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got != 12345 {
		t.Errorf("got %d, want 12345", got)
	}
}

func TestChannelOutOfBounds(t *testing.T) {
	c := NewChannel("Y", RoleColor, SampleUint16, 4, 3)
	if _, err := c.At(-1, 0); err == nil {
		t.Error("At(-1,0): want error")
	}
	if _, err := c.At(4, 0); err == nil {
		t.Error("At(4,0): want error")
	}
	if _, err := c.At(0, 3); err == nil {
		t.Error("At(0,3): want error")
	}
}

func TestChannelInt16RoundTrip(t *testing.T) {
	c := NewChannel("residual", RoleExtra, SampleInt16, 2, 2)
	values := []int16{-32768, -1, 0, 32767}
	i := 0
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if err := c.SetInt16(x, y, values[i]); err != nil {
				t.Fatalf("SetInt16: %v", err)
			}
			i++
		}
	}
	i = 0
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			got, err := c.Int16At(x, y)
			if err != nil {
				t.Fatalf("Int16At: %v", err)
			}
			if got != values[i] {
				t.Errorf("(%d,%d): got %d, want %d", x, y, got, values[i])
			}
			i++
		}
	}
}

func TestChannelFloat32BitExactRoundTrip(t *testing.T) {
	c := NewChannel("f", RoleExtra, SampleFloat32, 1, 1)
	values := []float32{0, -0, 1, -1, 3.1415927, float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN())}
	for _, v := range values {
		if err := c.SetFloat32(0, 0, v); err != nil {
			t.Fatalf("SetFloat32(%v): %v", v, err)
		}
		got, err := c.Float32At(0, 0)
		if err != nil {
			t.Fatalf("Float32At: %v", err)
		}
		if math.Float32bits(got) != math.Float32bits(v) {
			t.Errorf("bit pattern mismatch for %v: got bits %x, want %x", v, math.Float32bits(got), math.Float32bits(v))
		}
	}
}

func TestNewImageFrameRejectsZeroChannels(t *testing.T) {
	_, err := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, nil)
	if err == nil {
		t.Fatal("NewImageFrame with no channels: want error")
	}
}

func TestImageFrameChannelAccessors(t *testing.T) {
	f, err := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor, RoleColor, RoleColor, RoleAlpha, RoleExtra})
	if err != nil {
		t.Fatalf("NewImageFrame: %v", err)
	}
	if len(f.ColorChannels()) != 3 {
		t.Errorf("ColorChannels: got %d, want 3", len(f.ColorChannels()))
	}
	if f.AlphaChannel() == nil {
		t.Error("AlphaChannel: want non-nil")
	}
	if len(f.ExtraChannels()) != 1 {
		t.Errorf("ExtraChannels: got %d, want 1", len(f.ExtraChannels()))
	}
}

func TestSameShape(t *testing.T) {
	a, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor, RoleColor, RoleColor})
	b, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor, RoleColor, RoleColor})
	c, _ := NewImageFrame(codestream.DefaultFrameHeader(), 8, 4, []ChannelRole{RoleColor, RoleColor, RoleColor})
	if !a.SameShape(b) {
		t.Error("a and b should have the same shape")
	}
	if a.SameShape(c) {
		t.Error("a and c should not have the same shape")
	}
}
