package jxl

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// errTruncated is wrapped by every binary-framing reader below when data
// runs out before a declared field, so callers can errors.Is against one
// sentinel regardless of which field was short.
var errTruncated = errors.New("jxl: truncated binary field")

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(data []byte) (uint32, int, error) {
	if len(data) < 4 {
		return 0, 0, errors.Wrap(errTruncated, "uint32")
	}
	return binary.LittleEndian.Uint32(data[:4]), 4, nil
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func readFloat64(data []byte) (float64, int, error) {
	if len(data) < 8 {
		return 0, 0, errors.Wrap(errTruncated, "float64")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data[:8])), 8, nil
}

func writeFloat32(buf *bytes.Buffer, v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	buf.Write(b[:])
}

func readFloat32(data []byte) (float32, int, error) {
	if len(data) < 4 {
		return 0, 0, errors.Wrap(errTruncated, "float32")
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data[:4])), 4, nil
}

func writeInt32(buf *bytes.Buffer, v int32) {
	writeUint32(buf, uint32(v))
}

func readInt32(data []byte) (int32, int, error) {
	v, n, err := readUint32(data)
	return int32(v), n, err
}
