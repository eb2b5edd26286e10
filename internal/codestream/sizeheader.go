package codestream

import (
	"github.com/jxlgo/jxl/internal/bio"
)

// sizeFieldWidths are the per-dimension field widths, smallest first, used
// by the non-small-dimension encoding (spec.md §3, §4.2): selector 0 stores
// value-1 in 9 bits, 1 in 13, 2 in 18, 3 in 30.
var sizeFieldWidths = []int{9, 13, 18, 30}

const sizeSelectorBits = 2

// SizeHeader encodes the image width and height.
type SizeHeader struct {
	Width  uint32
	Height uint32
}

// smallDimLimit is the largest dimension the 1-bit small-dimension shortcut
// can encode (both width and height must be <= this).
const smallDimLimit = 256

// Serialize writes the size header: a 1-bit small-dimension flag, then
// either two 8-bit (value-1) fields or two independently-selected variable
// fields.
func (s SizeHeader) Serialize(w *bio.Writer) error {
	if s.Width <= smallDimLimit && s.Height <= smallDimLimit && s.Width > 0 && s.Height > 0 {
		w.WriteBit(1)
		w.WriteBits(s.Width-1, 8)
		w.WriteBits(s.Height-1, 8)
		return nil
	}
	w.WriteBit(0)
	if err := writeSelected(w, s.Width, sizeSelectorBits, sizeFieldWidths, true); err != nil {
		return err
	}
	return writeSelected(w, s.Height, sizeSelectorBits, sizeFieldWidths, true)
}

// ParseSizeHeader parses a size header.
func ParseSizeHeader(r *bio.Reader) (SizeHeader, error) {
	small, err := r.ReadBit()
	if err != nil {
		return SizeHeader{}, err
	}
	if small == 1 {
		w, err := r.ReadBits(8)
		if err != nil {
			return SizeHeader{}, err
		}
		h, err := r.ReadBits(8)
		if err != nil {
			return SizeHeader{}, err
		}
		return SizeHeader{Width: w + 1, Height: h + 1}, nil
	}
	width, err := readSelected(r, sizeSelectorBits, sizeFieldWidths, true)
	if err != nil {
		return SizeHeader{}, err
	}
	height, err := readSelected(r, sizeSelectorBits, sizeFieldWidths, true)
	if err != nil {
		return SizeHeader{}, err
	}
	return SizeHeader{Width: width, Height: height}, nil
}
