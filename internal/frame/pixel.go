// Package frame implements the per-frame pixel model and the group-level
// fork-join sequencer that drives encoding and decoding of a frame's
// sections, plus the reference-frame arena and patch/spline/noise side
// data applied around the VarDCT/Modular pipeline (spec.md §4.8, §9).
package frame

import (
	"math"

	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/pkg/errors"
)

// ErrUnsupportedChannelCount is returned when a frame declares no channels
// at all; the number of color channels is not checked here.
var ErrUnsupportedChannelCount = errors.New("frame: unsupported channel count")

// ErrOutOfBounds is returned by a Channel accessor given coordinates
// outside the channel's declared bounds.
var ErrOutOfBounds = errors.New("frame: coordinates out of bounds")

// SampleType identifies how a Channel's uint32-backed samples should be
// interpreted.
type SampleType uint8

const (
	SampleUint8 SampleType = iota
	SampleUint16
	SampleInt16
	SampleFloat32
)

// ChannelRole distinguishes a frame's color planes from alpha and extra
// (depth, spot color, selection mask, ...) channels.
type ChannelRole uint8

const (
	RoleColor ChannelRole = iota
	RoleAlpha
	RoleExtra
)

// Channel is a single-sample-type planar buffer. Every sample, regardless
// of declared Type, lives in the same uint32 slot; Float32At/SetFloat32
// store and retrieve the IEEE-754 bit pattern verbatim via
// math.Float32bits/Float32frombits so a round trip through the accessors
// never perturbs a single mantissa bit, the same one-field-two-meanings
// trick the teacher's ComponentInfo.BitDepth plays with its sign bit.
type Channel struct {
	Name          string
	Role          ChannelRole
	Type          SampleType
	Width, Height int
	Data          []uint32
}

// NewChannel allocates a zeroed width x height channel.
func NewChannel(name string, role ChannelRole, t SampleType, width, height int) *Channel {
	return &Channel{
		Name:   name,
		Role:   role,
		Type:   t,
		Width:  width,
		Height: height,
		Data:   make([]uint32, width*height),
	}
}

func (c *Channel) index(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return 0, errors.Wrapf(ErrOutOfBounds, "(%d,%d) in %dx%d channel %q", x, y, c.Width, c.Height, c.Name)
	}
	return y*c.Width + x, nil
}

// At returns the raw sample bits at (x, y).
func (c *Channel) At(x, y int) (uint32, error) {
	i, err := c.index(x, y)
	if err != nil {
		return 0, err
	}
	return c.Data[i], nil
}

// Set stores the raw sample bits at (x, y).
func (c *Channel) Set(x, y int, v uint32) error {
	i, err := c.index(x, y)
	if err != nil {
		return err
	}
	c.Data[i] = v
	return nil
}

// Int16At interprets the sample at (x, y) as a signed 16-bit value, for
// channels declared SampleInt16 (e.g. Modular residuals).
func (c *Channel) Int16At(x, y int) (int16, error) {
	v, err := c.At(x, y)
	if err != nil {
		return 0, err
	}
	return int16(uint16(v)), nil
}

// SetInt16 stores a signed 16-bit value at (x, y).
func (c *Channel) SetInt16(x, y int, v int16) error {
	return c.Set(x, y, uint32(uint16(v)))
}

// Uint8At interprets the sample at (x, y) as an unsigned 8-bit value, for
// channels declared SampleUint8.
func (c *Channel) Uint8At(x, y int) (uint8, error) {
	v, err := c.At(x, y)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// SetUint8 stores an unsigned 8-bit value at (x, y).
func (c *Channel) SetUint8(x, y int, v uint8) error {
	return c.Set(x, y, uint32(v))
}

// Uint16At interprets the sample at (x, y) as an unsigned 16-bit value,
// for channels declared SampleUint16.
func (c *Channel) Uint16At(x, y int) (uint16, error) {
	v, err := c.At(x, y)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// SetUint16 stores an unsigned 16-bit value at (x, y).
func (c *Channel) SetUint16(x, y int, v uint16) error {
	return c.Set(x, y, uint32(v))
}

// Float32At interprets the sample at (x, y) as an IEEE-754 float32, bit
// for bit.
func (c *Channel) Float32At(x, y int) (float32, error) {
	v, err := c.At(x, y)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// SetFloat32 stores a float32 at (x, y), preserving its exact bit pattern.
func (c *Channel) SetFloat32(x, y int, v float32) error {
	return c.Set(x, y, math.Float32bits(v))
}

// ImageFrame generalizes the teacher's per-component tile buffers into
// named planar channels sharing one frame header and canvas size.
type ImageFrame struct {
	Header   codestream.FrameHeader
	Width    int
	Height   int
	Channels []*Channel
}

// NewImageFrame builds a frame with one channel per spec, all sized
// width x height (no chroma subsampling model at this layer; subsampled
// storage, if used, is a concern of the encoder wiring the channel up).
// Color channels are SampleFloat32, the convention the VarDCT/Modular
// pipeline's internal color-transform math assumes; use
// NewTypedImageFrame to build a frame whose color channels carry a
// caller-chosen pixel type instead.
func NewImageFrame(header codestream.FrameHeader, width, height int, specs []ChannelRole) (*ImageFrame, error) {
	return NewTypedImageFrame(header, width, height, specs, SampleFloat32)
}

// NewTypedImageFrame builds a frame like NewImageFrame, but declares its
// RoleColor channels as colorType instead of always SampleFloat32 (spec.md
// §3: pixel type ∈ {u8, u16, f32, i16}). Alpha and extra channels remain
// SampleUint16, matching the teacher's fixed-width side-channel
// convention. The Modular (lossless) path honors colorType exactly;
// VarDCT only operates on SampleFloat32 color channels, since its
// transform math reads/writes normalized float samples directly.
func NewTypedImageFrame(header codestream.FrameHeader, width, height int, specs []ChannelRole, colorType SampleType) (*ImageFrame, error) {
	if len(specs) == 0 {
		return nil, errors.Wrap(ErrUnsupportedChannelCount, "zero channels")
	}
	numColor := 0
	for _, role := range specs {
		if role == RoleColor {
			numColor++
		}
	}
	f := &ImageFrame{Header: header, Width: width, Height: height}
	colorIdx := 0
	for _, role := range specs {
		name := "alpha"
		t := SampleUint16
		switch role {
		case RoleColor:
			name = colorChannelName(colorIdx, numColor)
			t = colorType
			colorIdx++
		case RoleExtra:
			name = "extra"
		}
		f.Channels = append(f.Channels, NewChannel(name, role, t, width, height))
	}
	return f, nil
}

// colorChannelName names the index'th of total color channels: "Y" alone
// for a single grayscale plane, or the X/Y/B convention for the 3-channel
// case (spec.md §3's color plane count ∈ {1, 3}).
func colorChannelName(index, total int) string {
	if total == 1 {
		return "Y"
	}
	switch index {
	case 0:
		return "X"
	case 1:
		return "Y"
	case 2:
		return "B"
	default:
		return "color"
	}
}

// ColorChannels returns the frame's RoleColor channels in declared order.
func (f *ImageFrame) ColorChannels() []*Channel {
	var out []*Channel
	for _, c := range f.Channels {
		if c.Role == RoleColor {
			out = append(out, c)
		}
	}
	return out
}

// AlphaChannel returns the frame's alpha channel, or nil if it has none.
func (f *ImageFrame) AlphaChannel() *Channel {
	for _, c := range f.Channels {
		if c.Role == RoleAlpha {
			return c
		}
	}
	return nil
}

// ExtraChannels returns the frame's RoleExtra channels in declared order.
func (f *ImageFrame) ExtraChannels() []*Channel {
	var out []*Channel
	for _, c := range f.Channels {
		if c.Role == RoleExtra {
			out = append(out, c)
		}
	}
	return out
}

// SameShape reports whether f and other share width, height, and channel
// count/role/type, the precondition EncodeFrames checks across an
// animation's frames before producing any bytes.
func (f *ImageFrame) SameShape(other *ImageFrame) bool {
	if f.Width != other.Width || f.Height != other.Height || len(f.Channels) != len(other.Channels) {
		return false
	}
	for i, c := range f.Channels {
		o := other.Channels[i]
		if c.Role != o.Role || c.Type != o.Type || c.Width != o.Width || c.Height != o.Height {
			return false
		}
	}
	return true
}
