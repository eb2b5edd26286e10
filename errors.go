package jxl

import "github.com/pkg/errors"

// Sentinel errors returned across the public API. Call sites wrap these
// with errors.Wrap/Wrapf to add context; callers compare against the
// sentinel with errors.Is.
var (
	ErrInvalidDimensions       = errors.New("jxl: invalid dimensions")
	ErrInvalidBitDepth         = errors.New("jxl: invalid bit depth")
	ErrInvalidOrientation      = errors.New("jxl: invalid orientation")
	ErrUnsupportedChannelCount = errors.New("jxl: unsupported channel count")
	ErrInvalidContainer        = errors.New("jxl: invalid container")
	ErrCorruptedBitstream      = errors.New("jxl: corrupted bitstream")
	ErrInconsistentFrames      = errors.New("jxl: inconsistent frames")
	ErrUnsupportedFeature      = errors.New("jxl: unsupported feature")
	ErrMissingConfiguration    = errors.New("jxl: missing configuration")
)

// DecodeError wraps a decoding failure with the byte offset of the
// codestream section where it was first detected.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return errors.Wrapf(e.Err, "at offset %d", e.Offset).Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
