// Package jxl implements a JPEG XL (ISO/IEC 18181) still-image and
// animation codec: VarDCT lossy and Modular lossless/near-lossless
// pixel pipelines, progressive decoding, reference-frame patches, and
// procedural splines/noise, wrapped in the ISOBMFF-style container
// format spec.md describes.
package jxl

import (
	"time"

	"github.com/jxlgo/jxl/internal/bio"
	"github.com/jxlgo/jxl/internal/box"
	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/jxlgo/jxl/internal/frame"
	"github.com/pkg/errors"
)

// Metadata is the subset of a decoded codestream header exposed at the
// public API boundary, for callers that only want the canvas shape and
// color properties without decoding any pixels.
type Metadata struct {
	Width, Height     int
	BitDepth          uint32
	HasAlpha          bool
	ExtraChannelCount uint32
	XYBEncoded        bool
	Orientation       uint32
	Animation         *codestream.Animation
}

// EncodedImage is Encode's result: the finished container bytes plus the
// statistics a caller benchmarking the codec would want alongside them
// (spec.md §3).
type EncodedImage struct {
	Bytes          []byte
	OriginalSize   int64
	CompressedSize int64
	Ratio          float64
	Time           time.Duration
	PeakMemoryKB   uint64
}

// ExtractCodestream strips a JXL file's ISOBMFF container framing and
// returns the raw codestream bytes (spec.md §4.3's box sequence).
func ExtractCodestream(b []byte) ([]byte, error) {
	c, err := box.ParseContainer(b)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidContainer, err.Error())
	}
	return c.Codestream, nil
}

// ParseImageHeader parses the size header and image metadata from the
// front of a raw codestream, as returned by ExtractCodestream.
func ParseImageHeader(cs []byte) (codestream.Header, error) {
	r := bio.NewReader(cs)
	return codestream.ParseHeader(r)
}

// ExtractMetadata parses a full JXL file's container and codestream
// header into the public Metadata summary, without touching any frame
// or pixel data.
func ExtractMetadata(b []byte) (Metadata, error) {
	cs, err := ExtractCodestream(b)
	if err != nil {
		return Metadata{}, err
	}
	header, err := ParseImageHeader(cs)
	if err != nil {
		return Metadata{}, errors.Wrap(ErrCorruptedBitstream, err.Error())
	}
	return Metadata{
		Width:             int(header.Size.Width),
		Height:            int(header.Size.Height),
		BitDepth:          header.Metadata.BitDepth,
		HasAlpha:          header.Metadata.HasAlpha,
		ExtraChannelCount: header.Metadata.ExtraChannelCount,
		XYBEncoded:        header.Metadata.XYBEncoded,
		Orientation:       header.Metadata.Orientation,
		Animation:         header.Metadata.Animation,
	}, nil
}

// channelRoles builds the channel role layout NewImageFrame expects for a
// frame matching the given metadata: one color channel for a grayscale
// color space, three otherwise (spec.md §3's color plane count ∈ {1, 3}),
// an optional alpha channel, then one RoleExtra channel per declared
// extra channel.
func channelRoles(meta codestream.ImageMetadata) []frame.ChannelRole {
	var roles []frame.ChannelRole
	if meta.Color.ColorSpace == codestream.ColorSpaceGray {
		roles = []frame.ChannelRole{frame.RoleColor}
	} else {
		roles = []frame.ChannelRole{frame.RoleColor, frame.RoleColor, frame.RoleColor}
	}
	if meta.HasAlpha {
		roles = append(roles, frame.RoleAlpha)
	}
	for i := uint32(0); i < meta.ExtraChannelCount; i++ {
		roles = append(roles, frame.RoleExtra)
	}
	return roles
}
