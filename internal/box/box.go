// Package box implements ISOBMFF-style box assembly and parsing for the JPEG
// XL container format.
//
// A JXL file is a sequence of boxes, each with a 4-byte big-endian size, a
// 4-byte ASCII type, and a payload; if size exceeds 2^32-1, size is written
// as 1 and an 8-byte extended size follows the type.
package box

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Type is a 4-byte ASCII box type code.
type Type uint32

// String returns the 4-character type code.
func (t Type) String() string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(t))
	return string(b)
}

// Box type codes used by the JXL container.
const (
	TypeSignature  Type = 0x4A584C20 // "JXL " - JPEG XL signature box
	TypeFileType   Type = 0x66747970 // "ftyp"
	TypeLevel      Type = 0x6A786C6C // "jxll" - codestream level
	TypeColor      Type = 0x636F6C72 // "colr" - ICC profile
	TypeExif       Type = 0x45786966 // "Exif"
	TypeXML        Type = 0x786D6C20 // "xml "
	TypeFrameIndex Type = 0x6A786C69 // "jxli"
	TypeCodestream Type = 0x6A786C63 // "jxlc" - single codestream box
	TypePartial    Type = 0x6A786C70 // "jxlp" - partial codestream box
)

// Signature is the fixed payload of the JXL signature box.
var Signature = [4]byte{0x0D, 0x0A, 0x87, 0x0A}

// Box represents a single ISOBMFF-style box.
type Box struct {
	Type     Type
	Length   uint64 // total box length including header
	Contents []byte
}

// Header returns the box's size+type header bytes.
func (b *Box) Header() []byte {
	if b.Length <= 0xFFFFFFFF {
		header := make([]byte, 8)
		binary.BigEndian.PutUint32(header[0:4], uint32(b.Length))
		binary.BigEndian.PutUint32(header[4:8], uint32(b.Type))
		return header
	}
	header := make([]byte, 16)
	binary.BigEndian.PutUint32(header[0:4], 1)
	binary.BigEndian.PutUint32(header[4:8], uint32(b.Type))
	binary.BigEndian.PutUint64(header[8:16], b.Length)
	return header
}

// Bytes returns the complete box (header + contents).
func (b *Box) Bytes() []byte {
	header := b.Header()
	out := make([]byte, len(header)+len(b.Contents))
	copy(out, header)
	copy(out[len(header):], b.Contents)
	return out
}

// newBox builds a Box from a type and contents, computing Length.
func newBox(t Type, contents []byte) *Box {
	b := &Box{Type: t, Contents: contents}
	headerLen := 8
	if uint64(len(contents))+8 > 0xFFFFFFFF {
		headerLen = 16
	}
	b.Length = uint64(headerLen + len(contents))
	return b
}

// Reader reads a sequence of boxes from a byte slice.
type Reader struct {
	data   []byte
	offset int64
}

// NewReader returns a Reader over the given bytes.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadBox reads the next box. It returns io.EOF when the stream is exhausted
// exactly at a box boundary.
func (r *Reader) ReadBox() (*Box, error) {
	if r.offset >= int64(len(r.data)) {
		return nil, io.EOF
	}
	if r.offset+8 > int64(len(r.data)) {
		return nil, errors.Wrap(ErrInvalidContainer, "truncated box header")
	}
	header := r.data[r.offset : r.offset+8]
	length := uint64(binary.BigEndian.Uint32(header[0:4]))
	boxType := Type(binary.BigEndian.Uint32(header[4:8]))
	r.offset += 8
	headerLen := uint64(8)

	if length == 1 {
		if r.offset+8 > int64(len(r.data)) {
			return nil, errors.Wrap(ErrInvalidContainer, "truncated extended box length")
		}
		length = binary.BigEndian.Uint64(r.data[r.offset : r.offset+8])
		r.offset += 8
		headerLen = 16
	} else if length == 0 {
		return nil, errors.Wrap(ErrInvalidContainer, "box extends to end of stream, unsupported")
	}

	if length < headerLen {
		return nil, errors.Wrapf(ErrInvalidContainer, "invalid box length %d", length)
	}
	contentLen := int64(length - headerLen)
	if r.offset+contentLen > int64(len(r.data)) {
		return nil, errors.Wrap(ErrInvalidContainer, "truncated box contents")
	}
	contents := r.data[r.offset : r.offset+contentLen]
	r.offset += contentLen

	return &Box{Type: boxType, Length: length, Contents: contents}, nil
}

// Offset returns the current read offset, for error reporting.
func (r *Reader) Offset() int64 {
	return r.offset
}

// ErrInvalidContainer is returned for a bad signature, a truncated box, or an
// unknown required brand.
var ErrInvalidContainer = errors.New("box: invalid container")

// Writer accumulates a box sequence into a single byte buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteBox appends a box's bytes.
func (w *Writer) WriteBox(b *Box) {
	w.buf = append(w.buf, b.Bytes()...)
}

// WriteSignature appends the JXL signature box.
func (w *Writer) WriteSignature() {
	w.WriteBox(newBox(TypeSignature, Signature[:]))
}

// Bytes returns the assembled container bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// FileTypeBox is the "ftyp" box: major brand, minor version, compatible
// brand list.
type FileTypeBox struct {
	MajorBrand   Type
	MinorVersion uint32
	Compatible   []Type
}

// JXLBrand is the one brand JXL files declare: "jxl ".
const JXLBrand Type = 0x6A786C20

// DefaultFileType returns the standard ftyp payload used by every JXL file.
func DefaultFileType() *FileTypeBox {
	return &FileTypeBox{MajorBrand: JXLBrand, MinorVersion: 0, Compatible: []Type{JXLBrand}}
}

// Bytes serializes the ftyp payload.
func (f *FileTypeBox) Bytes() []byte {
	data := make([]byte, 8+4*len(f.Compatible))
	binary.BigEndian.PutUint32(data[0:4], uint32(f.MajorBrand))
	binary.BigEndian.PutUint32(data[4:8], f.MinorVersion)
	for i, c := range f.Compatible {
		binary.BigEndian.PutUint32(data[8+i*4:], uint32(c))
	}
	return data
}

// ParseFileType parses an ftyp payload.
func ParseFileType(data []byte) (*FileTypeBox, error) {
	if len(data) < 8 {
		return nil, errors.Wrap(ErrInvalidContainer, "ftyp box too short")
	}
	f := &FileTypeBox{
		MajorBrand:   Type(binary.BigEndian.Uint32(data[0:4])),
		MinorVersion: binary.BigEndian.Uint32(data[4:8]),
	}
	for i := 8; i+4 <= len(data); i += 4 {
		f.Compatible = append(f.Compatible, Type(binary.BigEndian.Uint32(data[i:])))
	}
	return f, nil
}

// Box builds the "ftyp" box.
func (f *FileTypeBox) Box() *Box {
	return newBox(TypeFileType, f.Bytes())
}

// colrProfTag is the 4-byte ASCII tag prepended to a "colr" box's payload ahead
// of the raw ICC bytes.
var colrProfTag = [4]byte{'p', 'r', 'o', 'f'}

// NewColorBox wraps an ICC profile in a "colr" box, per spec.md §4.3: the
// payload is the 4-byte ASCII tag "prof" followed by the ICC bytes.
func NewColorBox(icc []byte) *Box {
	payload := make([]byte, 4+len(icc))
	copy(payload[0:4], colrProfTag[:])
	copy(payload[4:], icc)
	return newBox(TypeColor, payload)
}

// ParseColorBox extracts the ICC bytes from a "colr" box payload.
func ParseColorBox(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.Wrap(ErrInvalidContainer, "colr box too short")
	}
	return data[4:], nil
}

// NewExifBox wraps EXIF metadata in an "Exif" box. The payload prepends a
// 4-byte big-endian offset (always 0, per spec.md §4.3) ahead of the raw
// EXIF bytes.
func NewExifBox(exif []byte) *Box {
	payload := make([]byte, 4+len(exif))
	binary.BigEndian.PutUint32(payload[0:4], 0)
	copy(payload[4:], exif)
	return newBox(TypeExif, payload)
}

// ParseExifBox extracts the EXIF bytes from an "Exif" box payload.
func ParseExifBox(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.Wrap(ErrInvalidContainer, "Exif box too short")
	}
	return data[4:], nil
}

// NewXMLBox wraps raw XMP/XML metadata in an "xml " box.
func NewXMLBox(xml []byte) *Box {
	return newBox(TypeXML, xml)
}

// FrameIndexEntry is one entry of the "jxli" frame index box.
type FrameIndexEntry struct {
	FrameNumber uint32
	ByteOffset  uint64
	Duration    uint32
}

// FrameIndexBox is the "jxli" box: a table mapping frame number to byte
// offset and duration, per spec.md §4.3.
type FrameIndexBox struct {
	Entries []FrameIndexEntry
}

// Bytes serializes the frame index payload: a 4-byte big-endian count
// followed by per-entry (4-byte frame number, 8-byte byte offset, 4-byte
// duration), all big-endian.
func (f *FrameIndexBox) Bytes() []byte {
	data := make([]byte, 4+16*len(f.Entries))
	binary.BigEndian.PutUint32(data[0:4], uint32(len(f.Entries)))
	for i, e := range f.Entries {
		off := 4 + i*16
		binary.BigEndian.PutUint32(data[off:], e.FrameNumber)
		binary.BigEndian.PutUint64(data[off+4:], e.ByteOffset)
		binary.BigEndian.PutUint32(data[off+12:], e.Duration)
	}
	return data
}

// Box builds the "jxli" box.
func (f *FrameIndexBox) Box() *Box {
	return newBox(TypeFrameIndex, f.Bytes())
}

// ParseFrameIndexBox parses a "jxli" box payload.
func ParseFrameIndexBox(data []byte) (*FrameIndexBox, error) {
	if len(data) < 4 {
		return nil, errors.Wrap(ErrInvalidContainer, "jxli box too short")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	f := &FrameIndexBox{Entries: make([]FrameIndexEntry, 0, count)}
	for i := uint32(0); i < count; i++ {
		off := 4 + int(i)*16
		if off+16 > len(data) {
			return nil, errors.Wrap(ErrInvalidContainer, "jxli box truncated entry")
		}
		f.Entries = append(f.Entries, FrameIndexEntry{
			FrameNumber: binary.BigEndian.Uint32(data[off:]),
			ByteOffset:  binary.BigEndian.Uint64(data[off+4:]),
			Duration:    binary.BigEndian.Uint32(data[off+12:]),
		})
	}
	return f, nil
}

// NewCodestreamBox wraps the full codestream in a single "jxlc" box. The
// assembly always emits one "jxlc" box rather than splitting into "jxlp"
// parts.
func NewCodestreamBox(codestream []byte) *Box {
	return newBox(TypeCodestream, codestream)
}

// NewLevelBox builds a "jxll" box declaring the codestream level (5 or 10).
func NewLevelBox(level uint8) *Box {
	return newBox(TypeLevel, []byte{level})
}
