package codestream

import (
	"github.com/jxlgo/jxl/internal/bio"
	"github.com/pkg/errors"
)

// FrameType enumerates the per-frame type field.
type FrameType uint8

const (
	FrameRegular FrameType = iota
	FrameLFOnly
	FrameReferenceOnly
	FrameSkipProgressive
)

// EncodingMode selects the VarDCT or Modular encode path for a frame.
type EncodingMode uint8

const (
	EncodingVarDCT EncodingMode = iota
	EncodingModular
)

// BlendMode enumerates how a frame composites onto the canvas.
type BlendMode uint8

const (
	BlendReplace BlendMode = iota
	BlendAdd
	BlendBlend
	BlendMulAdd
)

// Crop declares a sub-rectangle of the canvas a frame covers.
type Crop struct {
	X, Y          int32
	Width, Height uint32
}

var (
	durationWidths = []int{8, 16, 32}
	passWidths     = []int{2, 4, 8}
	groupWidths    = []int{8, 16, 24}
)

// FrameHeader carries the per-frame parameters of spec.md §3.
type FrameHeader struct {
	Type            FrameType
	Encoding        EncodingMode
	Blend           BlendMode
	Duration        uint32
	IsLast          bool
	SaveAsReference uint8 // 0 = none, 1..3 = reference slot
	Name            string
	Crop            *Crop
	NumPasses       uint32
	NumGroups       uint32
}

// DefaultFrameHeader returns the all-default frame header: regular, VarDCT,
// replace, duration 0, last, 1 pass, 1 group.
func DefaultFrameHeader() FrameHeader {
	return FrameHeader{
		Type:      FrameRegular,
		Encoding:  EncodingVarDCT,
		Blend:     BlendReplace,
		IsLast:    true,
		NumPasses: 1,
		NumGroups: 1,
	}
}

// IsDefault reports whether h matches the all-default shortcut condition.
func (h FrameHeader) IsDefault() bool {
	d := DefaultFrameHeader()
	return h.Type == d.Type && h.Encoding == d.Encoding && h.Blend == d.Blend &&
		h.Duration == d.Duration && h.IsLast == d.IsLast && h.SaveAsReference == 0 &&
		h.Name == "" && h.Crop == nil && h.NumPasses == d.NumPasses && h.NumGroups == d.NumGroups
}

// Serialize writes the frame header with its all_default shortcut.
func (h FrameHeader) Serialize(w *bio.Writer) error {
	if h.IsDefault() {
		w.WriteBit(1)
		return nil
	}
	w.WriteBit(0)
	w.WriteBits(uint32(h.Type), 2)
	w.WriteBit(int(h.Encoding))
	w.WriteBits(uint32(h.Blend), 2)
	if err := writeSelected(w, h.Duration+1, 2, durationWidths, true); err != nil {
		return errors.Wrap(err, "duration")
	}
	w.WriteBit(boolBit(h.IsLast))
	w.WriteBits(uint32(h.SaveAsReference), 2)

	hasName := h.Name != ""
	w.WriteBit(boolBit(hasName))
	if hasName {
		nameBytes := []byte(h.Name)
		if len(nameBytes) > 255 {
			return errors.New("codestream: frame name too long")
		}
		w.WriteBits(uint32(len(nameBytes)), 8)
		w.Align()
		if err := w.WriteBytes(nameBytes); err != nil {
			return err
		}
	}

	hasCrop := h.Crop != nil
	w.WriteBit(boolBit(hasCrop))
	if hasCrop {
		w.WriteBits(uint32(h.Crop.X), 32)
		w.WriteBits(uint32(h.Crop.Y), 32)
		w.WriteBits(h.Crop.Width, 32)
		w.WriteBits(h.Crop.Height, 32)
	}

	if err := writeSelected(w, h.NumPasses, 2, passWidths, true); err != nil {
		return errors.Wrap(err, "num passes")
	}
	if err := writeSelected(w, h.NumGroups, 2, groupWidths, true); err != nil {
		return errors.Wrap(err, "num groups")
	}
	return nil
}

// ParseFrameHeader parses a FrameHeader.
func ParseFrameHeader(r *bio.Reader) (FrameHeader, error) {
	allDefault, err := r.ReadBit()
	if err != nil {
		return FrameHeader{}, err
	}
	if allDefault == 1 {
		return DefaultFrameHeader(), nil
	}
	h := FrameHeader{}
	t, err := r.ReadBits(2)
	if err != nil {
		return FrameHeader{}, err
	}
	h.Type = FrameType(t)
	enc, err := r.ReadBit()
	if err != nil {
		return FrameHeader{}, err
	}
	h.Encoding = EncodingMode(enc)
	blend, err := r.ReadBits(2)
	if err != nil {
		return FrameHeader{}, err
	}
	h.Blend = BlendMode(blend)
	dur, err := readSelected(r, 2, durationWidths, true)
	if err != nil {
		return FrameHeader{}, errors.Wrap(err, "duration")
	}
	h.Duration = dur - 1
	isLast, err := r.ReadBit()
	if err != nil {
		return FrameHeader{}, err
	}
	h.IsLast = isLast == 1
	ref, err := r.ReadBits(2)
	if err != nil {
		return FrameHeader{}, err
	}
	h.SaveAsReference = uint8(ref)

	hasName, err := r.ReadBit()
	if err != nil {
		return FrameHeader{}, err
	}
	if hasName == 1 {
		length, err := r.ReadBits(8)
		if err != nil {
			return FrameHeader{}, err
		}
		r.Align()
		nameBytes, err := r.ReadBytes(int(length))
		if err != nil {
			return FrameHeader{}, err
		}
		h.Name = string(nameBytes)
	}

	hasCrop, err := r.ReadBit()
	if err != nil {
		return FrameHeader{}, err
	}
	if hasCrop == 1 {
		x, err := r.ReadBits(32)
		if err != nil {
			return FrameHeader{}, err
		}
		y, err := r.ReadBits(32)
		if err != nil {
			return FrameHeader{}, err
		}
		width, err := r.ReadBits(32)
		if err != nil {
			return FrameHeader{}, err
		}
		height, err := r.ReadBits(32)
		if err != nil {
			return FrameHeader{}, err
		}
		h.Crop = &Crop{X: int32(x), Y: int32(y), Width: width, Height: height}
	}

	passes, err := readSelected(r, 2, passWidths, true)
	if err != nil {
		return FrameHeader{}, errors.Wrap(err, "num passes")
	}
	h.NumPasses = passes
	groups, err := readSelected(r, 2, groupWidths, true)
	if err != nil {
		return FrameHeader{}, errors.Wrap(err, "num groups")
	}
	h.NumGroups = groups
	return h, nil
}
