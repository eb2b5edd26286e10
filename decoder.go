package jxl

import (
	"io"

	"github.com/jxlgo/jxl/internal/bio"
	"github.com/jxlgo/jxl/internal/box"
	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/jxlgo/jxl/internal/frame"
	"github.com/pkg/errors"
)

// DecodeFrames parses a complete JXL file and returns every displayed
// frame, each already composited onto its running canvas (patches,
// blend mode, and post-transform splines/noise all applied — spec.md
// §4.8, §9). For a non-animated image this is a single-element slice.
func DecodeFrames(r io.Reader) ([]*frame.ImageFrame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	container, err := box.ParseContainer(data)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidContainer, err.Error())
	}

	br := bio.NewReader(container.Codestream)
	header, err := codestream.ParseHeader(br)
	if err != nil {
		return nil, &DecodeError{Offset: br.ByteOffset(), Err: errors.Wrap(ErrCorruptedBitstream, err.Error())}
	}
	br.Align()

	roles := channelRoles(header.Metadata)
	width, height := int(header.Size.Width), int(header.Size.Height)

	rest := container.Codestream[int(br.ByteOffset()):]
	numFrames, off, err := readUint32(rest)
	if err != nil {
		return nil, &DecodeError{Offset: br.ByteOffset(), Err: err}
	}
	rest = rest[off:]

	seq := frame.NewSequencer(0)
	arena := frame.NewReferenceArena()
	var canvas *frame.ImageFrame
	out := make([]*frame.ImageFrame, 0, numFrames)

	for i := uint32(0); i < numFrames; i++ {
		fr, sd, distance, n, err := decodeFrameRecord(rest, width, height, roles)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		rest = rest[n:]

		numGroups := int(fr.Header.NumGroups)
		if numGroups == 0 {
			numGroups = 1
		}
		groupLens, gn, err := codestream.ReadSectionTable(rest, numGroups)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d section table", i)
		}
		rest = rest[gn:]
		sections, err := codestream.SplitSections(rest, groupLens)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d sections", i)
		}
		consumed := 0
		for _, l := range groupLens {
			consumed += int(l)
		}
		rest = rest[consumed:]

		decode := makeGroupDecoder(header.Metadata, distance)
		if err := seq.DecodeGroups(sections, fr, numGroups, decode); err != nil {
			return nil, errors.Wrapf(err, "frame %d groups", i)
		}

		if len(sd.Patches) > 0 {
			if err := frame.ApplyPatches(fr, sd.Patches, arena); err != nil {
				return nil, errors.Wrapf(err, "frame %d patches", i)
			}
		}
		if err := frame.ApplyPostTransform(fr, sd.Splines, sd.Noise); err != nil {
			return nil, errors.Wrapf(err, "frame %d post-transform", i)
		}
		applyOrientation(fr, header.Metadata.Orientation)

		if canvas == nil {
			canvas = fr
		} else if err := blendFrame(canvas, fr, fr.Header.Blend); err != nil {
			return nil, errors.Wrapf(err, "frame %d blend", i)
		}
		snapshot := &frame.ImageFrame{Header: canvas.Header, Width: canvas.Width, Height: canvas.Height, Channels: make([]*frame.Channel, len(canvas.Channels))}
		for ci, c := range canvas.Channels {
			cc := *c
			cc.Data = append([]uint32(nil), c.Data...)
			snapshot.Channels[ci] = &cc
		}
		out = append(out, snapshot)

		if fr.Header.SaveAsReference != 0 {
			if err := arena.Save(int(fr.Header.SaveAsReference), canvas); err != nil {
				return nil, errors.Wrapf(err, "frame %d save reference", i)
			}
		}
	}
	return out, nil
}

// Decode parses a JXL file and returns its final displayed frame. For an
// animation this is the last frame's fully-composited canvas.
func Decode(r io.Reader) (*frame.ImageFrame, error) {
	frames, err := DecodeFrames(r)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, errors.Wrap(ErrCorruptedBitstream, "no frames decoded")
	}
	return frames[len(frames)-1], nil
}

// decodeFrameRecord parses one frame's header and trailer (distance +
// side data) and allocates the matching ImageFrame, returning the number
// of bytes consumed from data.
func decodeFrameRecord(data []byte, width, height int, roles []frame.ChannelRole) (*frame.ImageFrame, frame.SideData, float64, int, error) {
	fhr := bio.NewReader(data)
	fheader, err := codestream.ParseFrameHeader(fhr)
	if err != nil {
		return nil, frame.SideData{}, 0, 0, errors.Wrap(ErrCorruptedBitstream, err.Error())
	}
	fhr.Align()
	off := int(fhr.ByteOffset())

	distance, n, err := readFloat64(data[off:])
	if err != nil {
		return nil, frame.SideData{}, 0, 0, err
	}
	off += n

	if off >= len(data) {
		return nil, frame.SideData{}, 0, 0, errors.Wrap(errTruncated, "frame color sample type")
	}
	colorType := frame.SampleType(data[off])
	off++

	sideLen, n, err := readUint32(data[off:])
	if err != nil {
		return nil, frame.SideData{}, 0, 0, err
	}
	off += n
	if off+int(sideLen) > len(data) {
		return nil, frame.SideData{}, 0, 0, errors.Wrap(errTruncated, "frame side data")
	}
	sd, _, err := parseSideData(data[off : off+int(sideLen)])
	if err != nil {
		return nil, frame.SideData{}, 0, 0, err
	}
	off += int(sideLen)

	w, h := width, height
	if fheader.Crop != nil {
		w, h = int(fheader.Crop.Width), int(fheader.Crop.Height)
	}
	fr, err := frame.NewTypedImageFrame(fheader, w, h, roles, colorType)
	if err != nil {
		return nil, frame.SideData{}, 0, 0, err
	}
	return fr, sd, distance, off, nil
}

// makeGroupDecoder returns the frame.GroupDecoder dispatching to the
// VarDCT or Modular group codec per the frame's own header.Encoding.
func makeGroupDecoder(meta codestream.ImageMetadata, distance float64) frame.GroupDecoder {
	return func(data []byte, f *frame.ImageFrame, bounds frame.GroupBounds) error {
		switch f.Header.Encoding {
		case codestream.EncodingModular:
			return decodeModularGroup(data, f, bounds, distance)
		default:
			return decodeVarDCTGroup(data, f, meta, bounds, distance)
		}
	}
}

// blendFrame composites src onto dst in place per mode (spec.md §3's
// BlendMode). Blend and MulAdd both fall back to an additive combination
// here: there is no alpha-weighted compositor.
func blendFrame(dst, src *frame.ImageFrame, mode codestream.BlendMode) error {
	if !dst.SameShape(src) {
		return errors.Wrap(ErrInconsistentFrames, "blend target shape mismatch")
	}
	add := mode != codestream.BlendReplace
	for ci, sc := range src.Channels {
		dc := dst.Channels[ci]
		for y := 0; y < sc.Height; y++ {
			for x := 0; x < sc.Width; x++ {
				if sc.Role == frame.RoleColor {
					sv, err := sc.Float32At(x, y)
					if err != nil {
						return err
					}
					if add {
						dv, err := dc.Float32At(x, y)
						if err != nil {
							return err
						}
						sv += dv
					}
					if err := dc.SetFloat32(x, y, sv); err != nil {
						return err
					}
					continue
				}
				sv, err := sc.At(x, y)
				if err != nil {
					return err
				}
				if add {
					dv, err := dc.At(x, y)
					if err != nil {
						return err
					}
					sv += dv
				}
				if err := dc.Set(x, y, sv); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
