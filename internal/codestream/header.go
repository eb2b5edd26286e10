// Package codestream implements the variable-length-encoded JPEG XL
// codestream headers: the size header, image metadata (including color
// encoding), the frame header, and the section length table.
package codestream

import (
	"github.com/jxlgo/jxl/internal/bio"
	"github.com/pkg/errors"
)

// maxDimension is the largest legal width or height, per spec.md §3.
const maxDimension = 1 << 30

// ErrInvalidDimensions is returned when a size header's width or height is
// zero or exceeds 2^30.
var ErrInvalidDimensions = errors.New("codestream: invalid dimensions")

// Header is the codestream header: SizeHeader + ImageMetadata.
type Header struct {
	Size     SizeHeader
	Metadata ImageMetadata
}

// Validate checks the dimension invariant from spec.md §3.
func (h Header) Validate() error {
	if h.Size.Width == 0 || h.Size.Height == 0 || h.Size.Width > maxDimension || h.Size.Height > maxDimension {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d", h.Size.Width, h.Size.Height)
	}
	return nil
}

// Serialize writes the full codestream header.
func (h Header) Serialize(w *bio.Writer) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := h.Size.Serialize(w); err != nil {
		return errors.Wrap(err, "serializing size header")
	}
	if err := h.Metadata.Serialize(w); err != nil {
		return errors.Wrap(err, "serializing image metadata")
	}
	return nil
}

// ParseHeader parses a codestream header.
func ParseHeader(r *bio.Reader) (Header, error) {
	size, err := ParseSizeHeader(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "parsing size header")
	}
	metadata, err := ParseImageMetadata(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "parsing image metadata")
	}
	h := Header{Size: size, Metadata: metadata}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}
