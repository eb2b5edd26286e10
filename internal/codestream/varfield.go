package codestream

import (
	"github.com/jxlgo/jxl/internal/bio"
	"github.com/pkg/errors"
)

// writeSelected writes a fixed-width selector followed by the value in the
// smallest field that selector names. This is the shared shape behind the
// size-header dimension fields and the frame header's duration, pass and
// group counts (the bit-depth field has its own writer, writeBitDepth): the
// encoder must always choose the smallest selector whose field fits the
// value (or value-1, for fields that store a one-based quantity).
//
// widths lists the field width in bits for each selector code, in
// increasing order; selBits is the number of bits used to encode the
// selector itself.
func writeSelected(w *bio.Writer, value uint32, selBits int, widths []int, minusOne bool) error {
	stored := value
	if minusOne {
		if value == 0 {
			return errors.New("codestream: value-minus-one field cannot encode 0")
		}
		stored = value - 1
	}
	for sel, width := range widths {
		if fits(stored, width) {
			w.WriteBits(uint32(sel), selBits)
			w.WriteBits(stored, width)
			return nil
		}
	}
	return errors.Errorf("codestream: value %d too large for any selector", value)
}

func fits(v uint32, bits int) bool {
	if bits >= 32 {
		return true
	}
	return v < uint32(1)<<uint(bits)
}

// readSelected is the inverse of writeSelected.
func readSelected(r *bio.Reader, selBits int, widths []int, minusOne bool) (uint32, error) {
	sel, err := r.ReadBits(selBits)
	if err != nil {
		return 0, errors.Wrap(err, "reading selector")
	}
	if int(sel) >= len(widths) {
		return 0, errors.Wrapf(bio.ErrCorruptedBitstream, "selector %d out of range", sel)
	}
	v, err := r.ReadBits(widths[sel])
	if err != nil {
		return 0, errors.Wrap(err, "reading selected field")
	}
	if minusOne {
		v++
	}
	return v, nil
}
