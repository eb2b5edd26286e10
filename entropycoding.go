package jxl

import (
	"bytes"
	"sort"

	"github.com/jxlgo/jxl/internal/bio"
	"github.com/jxlgo/jxl/internal/entropy"
	"github.com/pkg/errors"
)

// ansScaleBits is the frequency-table precision used for every ANS section
// this package emits (spec.md §4.7's scaleBits, fixed rather than tuned
// per context).
const ansScaleBits = 12

// signedToSymbol maps a signed coefficient/residual to a nonnegative
// entropy-coder symbol, the standard zigzag mapping: 0,-1,1,-2,2,... ->
// 0,1,2,3,4,...
func signedToSymbol(v int32) int {
	if v >= 0 {
		return int(2 * v)
	}
	return int(-2*v - 1)
}

// symbolToSigned is the inverse of signedToSymbol.
func symbolToSigned(s int) int32 {
	if s%2 == 0 {
		return int32(s / 2)
	}
	return int32(-(s + 1) / 2)
}

// serializePrefixFreq writes a prefix-code frequency table (symbol ->
// count) in ascending symbol order, so BuildPrefixCode reconstructs the
// identical canonical code on the decode side.
func serializePrefixFreq(freq map[int]uint32) []byte {
	symbols := make([]int, 0, len(freq))
	for s := range freq {
		symbols = append(symbols, s)
	}
	sort.Ints(symbols)
	var out bytes.Buffer
	writeUint32(&out, uint32(len(symbols)))
	for _, s := range symbols {
		writeInt32(&out, int32(s))
		writeUint32(&out, freq[s])
	}
	return out.Bytes()
}

func deserializePrefixFreq(data []byte) (map[int]uint32, int, error) {
	count, off, err := readUint32(data)
	if err != nil {
		return nil, 0, err
	}
	freq := make(map[int]uint32, count)
	for i := uint32(0); i < count; i++ {
		sym, n, err := readInt32(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		f, n, err := readUint32(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		freq[int(sym)] = f
	}
	return freq, off, nil
}

// entropyCoderTag selects which of the two coders a section was written
// with; both are self-describing so decodeSymbols never needs to be told
// which one was used.
const (
	coderANS    byte = 0
	coderPrefix byte = 1
)

// encodeSymbols entropy-codes symbols for ctx into a self-contained
// section: symbol count, a coder tag, whatever reconstruction data the
// matching decodeSymbols needs (a serialized frequency table in both
// cases), then the coded payload. Each call builds a fresh entropy.Model,
// so every section carries its own table rather than sharing state with
// sibling sections — simpler to reason about at the cost of some
// per-section overhead.
func encodeSymbols(symbols []int, ctx entropy.Context, cfg EncoderConfig) ([]byte, error) {
	var out bytes.Buffer
	writeUint32(&out, uint32(len(symbols)))

	if cfg.UseANS || cfg.Effort.usesANS() {
		alphabet := 1
		for _, s := range symbols {
			if s+1 > alphabet {
				alphabet = s + 1
			}
		}
		m := entropy.NewModel()
		encoded, table, err := entropy.EncodeContext(m, ctx, symbols, alphabet, ansScaleBits)
		if err != nil {
			return nil, errors.Wrap(err, "ANS encode")
		}
		out.WriteByte(coderANS)
		tableBytes := entropy.SerializeFreqTable(table)
		writeUint32(&out, uint32(len(tableBytes)))
		out.Write(tableBytes)
		writeUint32(&out, uint32(len(encoded)))
		out.Write(encoded)
		return out.Bytes(), nil
	}

	freq := make(map[int]uint32)
	for _, s := range symbols {
		freq[s]++
	}
	for len(freq) < 2 {
		for s := 0; ; s++ {
			if _, ok := freq[s]; !ok {
				freq[s] = 1
				break
			}
		}
	}
	code, err := entropy.BuildPrefixCode(freq)
	if err != nil {
		return nil, errors.Wrap(err, "building prefix code")
	}
	w := bio.NewWriter(nil)
	if err := code.Encode(w, symbols); err != nil {
		return nil, errors.Wrap(err, "prefix encode")
	}
	w.Align()
	payload := w.Bytes()

	out.WriteByte(coderPrefix)
	freqBytes := serializePrefixFreq(freq)
	writeUint32(&out, uint32(len(freqBytes)))
	out.Write(freqBytes)
	writeUint32(&out, uint32(len(payload)))
	out.Write(payload)
	return out.Bytes(), nil
}

// decodeSymbols is the exact inverse of encodeSymbols, returning the
// decoded symbols and the number of bytes consumed from data.
func decodeSymbols(data []byte, ctx entropy.Context) ([]int, int, error) {
	numSymbolsU, off, err := readUint32(data)
	if err != nil {
		return nil, 0, err
	}
	numSymbols := int(numSymbolsU)
	if off >= len(data) {
		return nil, 0, errors.Wrap(errTruncated, "coder tag")
	}
	tag := data[off]
	off++

	switch tag {
	case coderANS:
		tableLen, n, err := readUint32(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(tableLen) > len(data) {
			return nil, 0, errors.Wrap(errTruncated, "frequency table")
		}
		table, _, err := entropy.DeserializeFreqTable(data[off : off+int(tableLen)])
		if err != nil {
			return nil, 0, err
		}
		off += int(tableLen)

		encodedLen, n, err := readUint32(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(encodedLen) > len(data) {
			return nil, 0, errors.Wrap(errTruncated, "ANS payload")
		}
		encoded := data[off : off+int(encodedLen)]
		off += int(encodedLen)

		m := entropy.NewModel()
		m.Set(ctx, table)
		symbols, err := entropy.DecodeContext(m, ctx, encoded, numSymbols)
		if err != nil {
			return nil, 0, err
		}
		return symbols, off, nil

	case coderPrefix:
		freqLen, n, err := readUint32(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(freqLen) > len(data) {
			return nil, 0, errors.Wrap(errTruncated, "prefix frequency table")
		}
		freq, _, err := deserializePrefixFreq(data[off : off+int(freqLen)])
		if err != nil {
			return nil, 0, err
		}
		off += int(freqLen)

		payloadLen, n, err := readUint32(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(payloadLen) > len(data) {
			return nil, 0, errors.Wrap(errTruncated, "prefix payload")
		}
		payload := data[off : off+int(payloadLen)]
		off += int(payloadLen)

		code, err := entropy.BuildPrefixCode(freq)
		if err != nil {
			return nil, 0, err
		}
		r := bio.NewReader(payload)
		symbols, err := code.Decode(r, numSymbols)
		if err != nil {
			return nil, 0, err
		}
		return symbols, off, nil

	default:
		return nil, 0, errors.Wrapf(ErrCorruptedBitstream, "unknown entropy coder tag %d", tag)
	}
}
