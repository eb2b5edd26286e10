package codestream

import (
	"github.com/jxlgo/jxl/internal/bio"
	"github.com/pkg/errors"
)

// ColorSpace enumerates the color space field of a ColorEncoding.
type ColorSpace uint8

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceLinearRGB
	ColorSpaceGray
	ColorSpaceDisplayP3
	ColorSpaceRec2020PQ
	ColorSpaceRec2020HLG
	ColorSpaceCustom
)

// WhitePoint enumerates the white_point field.
type WhitePoint uint8

const (
	WhitePointD65 WhitePoint = iota
	WhitePointCustom
	WhitePointE
	WhitePointDCI
)

// Primaries enumerates the primaries field (RGB color spaces only).
type Primaries uint8

const (
	PrimariesSRGB Primaries = iota
	PrimariesCustom
	PrimariesRec2100
	PrimariesP3
)

// TransferFunction enumerates the transfer_function field.
type TransferFunction uint8

const (
	TransferSRGB TransferFunction = iota
	TransferLinear
	TransferPQ
	TransferHLG
	TransferGamma
	TransferRec709
)

// RenderingIntent enumerates the rendering_intent field.
type RenderingIntent uint8

const (
	RenderingPerceptual RenderingIntent = iota
	RenderingRelative
	RenderingSaturation
	RenderingAbsolute
)

// FixedPoint is a 32-bit field holding a value scaled by 1e6, the
// convention used for the custom white-point/primaries coordinates.
type FixedPoint uint32

// ToFloat converts a FixedPoint field to a float64.
func (f FixedPoint) ToFloat() float64 { return float64(f) / 1e6 }

// FixedPointFromFloat converts a float64 into a FixedPoint field.
func FixedPointFromFloat(v float64) FixedPoint { return FixedPoint(v * 1e6) }

// ColorEncoding describes the color space and its encoding parameters.
type ColorEncoding struct {
	ICCProfile bool // true: color determined by an external ICC profile box

	ColorSpace       ColorSpace
	WhitePoint       WhitePoint
	Primaries        Primaries
	TransferFunction TransferFunction
	RenderingIntent  RenderingIntent

	WhitePointXY [2]FixedPoint    // present iff WhitePoint == WhitePointCustom
	PrimariesXY  [3][2]FixedPoint // present iff Primaries == PrimariesCustom
	Gamma        FixedPoint       // present iff TransferFunction == TransferGamma
}

// DefaultColorEncoding returns the sRGB default.
func DefaultColorEncoding() ColorEncoding {
	return ColorEncoding{
		ColorSpace:       ColorSpaceSRGB,
		WhitePoint:       WhitePointD65,
		Primaries:        PrimariesSRGB,
		TransferFunction: TransferSRGB,
		RenderingIntent:  RenderingRelative,
	}
}

// IsDefault reports whether c equals the sRGB default, the condition for the
// all_default=sRGB shortcut in spec.md §3.
func (c ColorEncoding) IsDefault() bool {
	return c == DefaultColorEncoding()
}

// Serialize writes the color encoding with its all_default shortcut.
func (c ColorEncoding) Serialize(w *bio.Writer) error {
	if c.IsDefault() {
		w.WriteBit(1)
		return nil
	}
	w.WriteBit(0)
	w.WriteBit(boolBit(c.ICCProfile))
	if c.ICCProfile {
		return nil
	}
	w.WriteBits(uint32(c.ColorSpace), 3)
	w.WriteBits(uint32(c.WhitePoint), 2)
	if c.ColorSpace != ColorSpaceGray {
		w.WriteBits(uint32(c.Primaries), 2)
	}
	w.WriteBits(uint32(c.TransferFunction), 3)
	w.WriteBits(uint32(c.RenderingIntent), 2)

	if c.WhitePoint == WhitePointCustom {
		w.WriteBits(uint32(c.WhitePointXY[0]), 32)
		w.WriteBits(uint32(c.WhitePointXY[1]), 32)
	}
	if c.ColorSpace != ColorSpaceGray && c.Primaries == PrimariesCustom {
		for _, xy := range c.PrimariesXY {
			w.WriteBits(uint32(xy[0]), 32)
			w.WriteBits(uint32(xy[1]), 32)
		}
	}
	if c.TransferFunction == TransferGamma {
		w.WriteBits(uint32(c.Gamma), 32)
	}
	return nil
}

// ParseColorEncoding parses a ColorEncoding.
func ParseColorEncoding(r *bio.Reader) (ColorEncoding, error) {
	allDefault, err := r.ReadBit()
	if err != nil {
		return ColorEncoding{}, err
	}
	if allDefault == 1 {
		return DefaultColorEncoding(), nil
	}
	icc, err := r.ReadBit()
	if err != nil {
		return ColorEncoding{}, err
	}
	c := ColorEncoding{ICCProfile: icc == 1}
	if c.ICCProfile {
		return c, nil
	}
	cs, err := r.ReadBits(3)
	if err != nil {
		return ColorEncoding{}, err
	}
	c.ColorSpace = ColorSpace(cs)
	wp, err := r.ReadBits(2)
	if err != nil {
		return ColorEncoding{}, err
	}
	c.WhitePoint = WhitePoint(wp)
	if c.ColorSpace != ColorSpaceGray {
		p, err := r.ReadBits(2)
		if err != nil {
			return ColorEncoding{}, err
		}
		c.Primaries = Primaries(p)
	}
	tf, err := r.ReadBits(3)
	if err != nil {
		return ColorEncoding{}, err
	}
	c.TransferFunction = TransferFunction(tf)
	ri, err := r.ReadBits(2)
	if err != nil {
		return ColorEncoding{}, err
	}
	c.RenderingIntent = RenderingIntent(ri)

	if c.WhitePoint == WhitePointCustom {
		x, err := r.ReadBits(32)
		if err != nil {
			return ColorEncoding{}, err
		}
		y, err := r.ReadBits(32)
		if err != nil {
			return ColorEncoding{}, err
		}
		c.WhitePointXY = [2]FixedPoint{FixedPoint(x), FixedPoint(y)}
	}
	if c.ColorSpace != ColorSpaceGray && c.Primaries == PrimariesCustom {
		for i := range c.PrimariesXY {
			x, err := r.ReadBits(32)
			if err != nil {
				return ColorEncoding{}, err
			}
			y, err := r.ReadBits(32)
			if err != nil {
				return ColorEncoding{}, err
			}
			c.PrimariesXY[i] = [2]FixedPoint{FixedPoint(x), FixedPoint(y)}
		}
	}
	if c.TransferFunction == TransferGamma {
		g, err := r.ReadBits(32)
		if err != nil {
			return ColorEncoding{}, err
		}
		c.Gamma = FixedPoint(g)
	}
	return c, nil
}

// Animation holds the animation timing fields present only when an
// ImageMetadata declares haveAnimation=1.
type Animation struct {
	TPSNumerator   uint32
	TPSDenominator uint32
	LoopCount      uint32 // 0 means infinite
}

// ImageMetadata is the codestream's per-image metadata, with an
// all_default short-circuit for (8 bpp, no alpha, sRGB, orientation 1, no
// animation).
type ImageMetadata struct {
	BitDepth          uint32
	HasAlpha          bool
	ExtraChannelCount uint32
	XYBEncoded        bool
	Color             ColorEncoding
	Orientation       uint32 // 1..8
	Animation         *Animation
}

// DefaultImageMetadata returns the all-default metadata struct.
func DefaultImageMetadata() ImageMetadata {
	return ImageMetadata{
		BitDepth:    8,
		Color:       DefaultColorEncoding(),
		Orientation: 1,
	}
}

// IsDefault reports whether m equals the all-default metadata.
func (m ImageMetadata) IsDefault() bool {
	d := DefaultImageMetadata()
	return m.BitDepth == d.BitDepth && !m.HasAlpha && m.ExtraChannelCount == 0 &&
		!m.XYBEncoded && m.Color.IsDefault() && m.Orientation == d.Orientation && m.Animation == nil
}

var bitDepthWidths = []int{8, 16, 32}

// writeBitDepth picks the smallest field (8/16/32 bits) that fits the exact
// depth, per spec.md §4.2.
func writeBitDepth(w *bio.Writer, depth uint32) error {
	var sel int
	switch {
	case depth <= 8:
		sel = 0
	case depth <= 16:
		sel = 1
	default:
		sel = 2
	}
	w.WriteBits(uint32(sel), 2)
	w.WriteBits(depth, bitDepthWidths[sel])
	return nil
}

func readBitDepth(r *bio.Reader) (uint32, error) {
	sel, err := r.ReadBits(2)
	if err != nil {
		return 0, err
	}
	if int(sel) >= len(bitDepthWidths) {
		return 0, errors.Wrapf(bio.ErrCorruptedBitstream, "bit depth selector %d out of range", sel)
	}
	return r.ReadBits(bitDepthWidths[sel])
}

// Serialize writes the image metadata with its all_default shortcut.
func (m ImageMetadata) Serialize(w *bio.Writer) error {
	if m.IsDefault() {
		w.WriteBit(1)
		return nil
	}
	w.WriteBit(0)
	if err := writeBitDepth(w, m.BitDepth); err != nil {
		return err
	}
	w.WriteBit(boolBit(m.HasAlpha))
	w.WriteBits(m.ExtraChannelCount, 8)
	w.WriteBit(boolBit(m.XYBEncoded))
	if err := m.Color.Serialize(w); err != nil {
		return err
	}
	orientationDefault := m.Orientation == 1
	w.WriteBit(boolBit(!orientationDefault))
	if !orientationDefault {
		w.WriteBits(m.Orientation-1, 3)
	}
	haveAnimation := m.Animation != nil
	w.WriteBit(boolBit(haveAnimation))
	if haveAnimation {
		w.WriteBits(m.Animation.TPSNumerator, 32)
		w.WriteBits(m.Animation.TPSDenominator, 32)
		w.WriteBits(m.Animation.LoopCount, 32)
	}
	return nil
}

// ParseImageMetadata parses an ImageMetadata.
func ParseImageMetadata(r *bio.Reader) (ImageMetadata, error) {
	allDefault, err := r.ReadBit()
	if err != nil {
		return ImageMetadata{}, err
	}
	if allDefault == 1 {
		return DefaultImageMetadata(), nil
	}
	m := ImageMetadata{}
	depth, err := readBitDepth(r)
	if err != nil {
		return ImageMetadata{}, err
	}
	m.BitDepth = depth
	alpha, err := r.ReadBit()
	if err != nil {
		return ImageMetadata{}, err
	}
	m.HasAlpha = alpha == 1
	extra, err := r.ReadBits(8)
	if err != nil {
		return ImageMetadata{}, err
	}
	m.ExtraChannelCount = extra
	xyb, err := r.ReadBit()
	if err != nil {
		return ImageMetadata{}, err
	}
	m.XYBEncoded = xyb == 1
	color, err := ParseColorEncoding(r)
	if err != nil {
		return ImageMetadata{}, err
	}
	m.Color = color
	hasOrientation, err := r.ReadBit()
	if err != nil {
		return ImageMetadata{}, err
	}
	if hasOrientation == 1 {
		o, err := r.ReadBits(3)
		if err != nil {
			return ImageMetadata{}, err
		}
		m.Orientation = o + 1
	} else {
		m.Orientation = 1
	}
	haveAnimation, err := r.ReadBit()
	if err != nil {
		return ImageMetadata{}, err
	}
	if haveAnimation == 1 {
		num, err := r.ReadBits(32)
		if err != nil {
			return ImageMetadata{}, err
		}
		den, err := r.ReadBits(32)
		if err != nil {
			return ImageMetadata{}, err
		}
		loop, err := r.ReadBits(32)
		if err != nil {
			return ImageMetadata{}, err
		}
		m.Animation = &Animation{TPSNumerator: num, TPSDenominator: den, LoopCount: loop}
	}
	return m, nil
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
