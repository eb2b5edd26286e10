package bio

import (
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(nil)
	w.WriteBit(1)
	w.WriteBits(0x1F, 5)
	w.WriteBits(0xABCD, 16)
	w.Align()
	w.WriteBits(0x3FFFFFFF, 30)

	r := NewReader(w.Bytes())
	if bit, err := r.ReadBit(); err != nil || bit != 1 {
		t.Fatalf("ReadBit() = %d, %v, want 1, nil", bit, err)
	}
	if v, err := r.ReadBits(5); err != nil || v != 0x1F {
		t.Fatalf("ReadBits(5) = %#x, %v, want 0x1f, nil", v, err)
	}
	if v, err := r.ReadBits(16); err != nil || v != 0xABCD {
		t.Fatalf("ReadBits(16) = %#x, %v, want 0xabcd, nil", v, err)
	}
	r.Align()
	if v, err := r.ReadBits(30); err != nil || v != 0x3FFFFFFF {
		t.Fatalf("ReadBits(30) = %#x, %v, want 0x3fffffff, nil", v, err)
	}
}

func TestWriterAlignResetsCursor(t *testing.T) {
	w := NewWriter(nil)
	w.WriteBits(0x1, 3)
	w.Align()
	if w.n != 0 {
		t.Fatalf("after Align, cursor = %d, want 0", w.n)
	}
	if len(w.buf) != 1 {
		t.Fatalf("after Align, buf length = %d, want 1", len(w.buf))
	}
}

func TestPeekBitsDoesNotConsume(t *testing.T) {
	w := NewWriter(nil)
	w.WriteBits(0b101, 3)
	w.Align()
	r := NewReader(w.Bytes())

	peeked, err := r.PeekBits(3)
	if err != nil {
		t.Fatalf("PeekBits: %v", err)
	}
	if peeked != 0b101 {
		t.Fatalf("PeekBits = %#b, want 0b101", peeked)
	}
	read, err := r.ReadBits(3)
	if err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	if read != peeked {
		t.Fatalf("ReadBits after PeekBits = %#b, want %#b", read, peeked)
	}
}

func TestReaderOverreadIsCorrupted(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(9); !errorsIsCorrupted(err) {
		t.Fatalf("ReadBits past end: %v, want ErrCorruptedBitstream", err)
	}
}

func TestWriteBytesRequiresAlignment(t *testing.T) {
	w := NewWriter(nil)
	w.WriteBit(1)
	if err := w.WriteBytes([]byte{0x01}); err == nil {
		t.Fatal("WriteBytes on unaligned writer: got nil error, want error")
	}
}

func TestBitPositionAndByteOffset(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF})
	if _, err := r.ReadBits(10); err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	if got, want := r.BitPosition(), int64(10); got != want {
		t.Fatalf("BitPosition() = %d, want %d", got, want)
	}
	if got, want := r.ByteOffset(), int64(1); got != want {
		t.Fatalf("ByteOffset() = %d, want %d", got, want)
	}
}

func errorsIsCorrupted(err error) bool {
	for err != nil {
		if err == ErrCorruptedBitstream {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
