package frame

import (
	"testing"

	"github.com/jxlgo/jxl/internal/codestream"
)

func TestReferenceArenaSaveGet(t *testing.T) {
	a := NewReferenceArena()
	f, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor})
	if err := a.Save(1, f); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := a.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != f {
		t.Error("Get(1) did not return the saved frame")
	}
	if got, _ := a.Get(2); got != nil {
		t.Error("Get(2): want nil for an empty slot")
	}
}

func TestReferenceArenaInvalidSlotRejected(t *testing.T) {
	a := NewReferenceArena()
	f, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor})
	if err := a.Save(0, f); err == nil {
		t.Error("Save(0, ...): want error")
	}
	if err := a.Save(4, f); err == nil {
		t.Error("Save(4, ...): want error")
	}
	if _, err := a.Get(-1); err == nil {
		t.Error("Get(-1): want error")
	}
}

func TestReferenceArenaInvalidate(t *testing.T) {
	a := NewReferenceArena()
	f, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor})
	a.Save(2, f)
	if err := a.Invalidate(2); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	got, _ := a.Get(2)
	if got != nil {
		t.Error("slot should be nil after Invalidate")
	}
}

func TestReferenceArenaOverwriteInvalidatesPrevious(t *testing.T) {
	a := NewReferenceArena()
	f1, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor})
	f2, _ := NewImageFrame(codestream.DefaultFrameHeader(), 4, 4, []ChannelRole{RoleColor})
	a.Save(3, f1)
	a.Save(3, f2)
	got, _ := a.Get(3)
	if got != f2 {
		t.Error("Get(3) should return the most recently saved frame")
	}
}
