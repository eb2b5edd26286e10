package codestream

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrCorruptedBitstream is this package's own corrupted-bitstream
// sentinel, distinct from the bio package's errors.
var ErrCorruptedBitstream = errors.New("codestream: corrupted bitstream")

// WriteSectionTable writes the section-length table: one 32-bit
// little-endian length per section, in declared order, ahead of the
// section payloads (spec.md §3 FrameData, §5 "Ordering guarantees").
func WriteSectionTable(sections [][]byte) []byte {
	table := make([]byte, 4*len(sections))
	for i, s := range sections {
		binary.LittleEndian.PutUint32(table[4*i:], uint32(len(s)))
	}
	return table
}

// ReadSectionTable reads numSections 32-bit little-endian lengths from data,
// returning the lengths and the number of bytes consumed.
func ReadSectionTable(data []byte, numSections int) ([]uint32, int, error) {
	need := 4 * numSections
	if len(data) < need {
		return nil, 0, errors.Wrap(ErrCorruptedBitstream, "truncated section length table")
	}
	lengths := make([]uint32, numSections)
	for i := 0; i < numSections; i++ {
		lengths[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return lengths, need, nil
}

// SplitSections slices the section payloads out of data given their
// lengths, which must immediately follow the section-length table.
func SplitSections(data []byte, lengths []uint32) ([][]byte, error) {
	sections := make([][]byte, len(lengths))
	off := 0
	for i, l := range lengths {
		if off+int(l) > len(data) {
			return nil, errors.Wrapf(ErrCorruptedBitstream, "section %d truncated", i)
		}
		sections[i] = data[off : off+int(l)]
		off += int(l)
	}
	return sections, nil
}

// AssembleSections concatenates the section-length table and the section
// payloads into one byte slice, preserving declared order.
func AssembleSections(sections [][]byte) []byte {
	out := WriteSectionTable(sections)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}
