package jxl

import (
	"io"

	"github.com/jxlgo/jxl/internal/bio"
	"github.com/jxlgo/jxl/internal/box"
	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/jxlgo/jxl/internal/frame"
	"github.com/pkg/errors"
)

// DecodeProgressive parses a JXL file the same way Decode does, but for
// every VarDCT-encoded frame it invokes cb once per refinement pass
// (DC, then each additional AC pass the encode emitted) with the
// frame reconstructed from every pass seen so far, before moving on to
// the next pass. Orientation is applied once, after the frame's last
// pass; the frames passed to cb are in coded orientation.
// Modular-encoded frames carry no pass structure, so cb is invoked once
// with the fully decoded frame. cb returning false stops decoding
// immediately; DecodeProgressive then returns nil, since that's a caller
// choice to stop early, not a failure.
func DecodeProgressive(r io.Reader, cb func(pass int, f *frame.ImageFrame) bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	container, err := box.ParseContainer(data)
	if err != nil {
		return errors.Wrap(ErrInvalidContainer, err.Error())
	}

	br := bio.NewReader(container.Codestream)
	header, err := codestream.ParseHeader(br)
	if err != nil {
		return &DecodeError{Offset: br.ByteOffset(), Err: errors.Wrap(ErrCorruptedBitstream, err.Error())}
	}
	br.Align()

	roles := channelRoles(header.Metadata)
	width, height := int(header.Size.Width), int(header.Size.Height)

	rest := container.Codestream[int(br.ByteOffset()):]
	numFrames, off, err := readUint32(rest)
	if err != nil {
		return &DecodeError{Offset: br.ByteOffset(), Err: err}
	}
	rest = rest[off:]

	arena := frame.NewReferenceArena()
	var canvas *frame.ImageFrame

	for i := uint32(0); i < numFrames; i++ {
		fr, sd, distance, n, err := decodeFrameRecord(rest, width, height, roles)
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		rest = rest[n:]

		numGroups := int(fr.Header.NumGroups)
		if numGroups == 0 {
			numGroups = 1
		}
		groupLens, gn, err := codestream.ReadSectionTable(rest, numGroups)
		if err != nil {
			return errors.Wrapf(err, "frame %d section table", i)
		}
		rest = rest[gn:]
		sections, err := codestream.SplitSections(rest, groupLens)
		if err != nil {
			return errors.Wrapf(err, "frame %d sections", i)
		}
		consumed := 0
		for _, l := range groupLens {
			consumed += int(l)
		}
		rest = rest[consumed:]

		stop, err := decodeFrameProgressive(fr, header.Metadata, sections, numGroups, distance, int(i), cb)
		if err != nil {
			return errors.Wrapf(err, "frame %d groups", i)
		}
		if stop {
			return nil
		}

		if len(sd.Patches) > 0 {
			if err := frame.ApplyPatches(fr, sd.Patches, arena); err != nil {
				return errors.Wrapf(err, "frame %d patches", i)
			}
		}
		if err := frame.ApplyPostTransform(fr, sd.Splines, sd.Noise); err != nil {
			return errors.Wrapf(err, "frame %d post-transform", i)
		}
		applyOrientation(fr, header.Metadata.Orientation)

		if canvas == nil {
			canvas = fr
		} else if err := blendFrame(canvas, fr, fr.Header.Blend); err != nil {
			return errors.Wrapf(err, "frame %d blend", i)
		}
		if fr.Header.SaveAsReference != 0 {
			if err := arena.Save(int(fr.Header.SaveAsReference), canvas); err != nil {
				return errors.Wrapf(err, "frame %d save reference", i)
			}
		}
	}
	return nil
}

// DecodeMetadataPreview parses only the first frame of a JXL file and, for
// a VarDCT-encoded frame, entropy-decodes just its DC pass — every AC
// refinement section is skipped over, not decoded, so the returned frame
// is a low-resolution preview at a fraction of the CPU cost of a full
// decode. A Modular-encoded frame has no DC-only shortcut, so this falls
// back to a full decode of just that one frame. Orientation is still
// applied, matching Decode's final step (spec.md §4.9); patches, splines,
// and noise are skipped, since they depend on canvas state this
// single-frame, DC-only read never builds.
func DecodeMetadataPreview(r io.Reader) (*frame.ImageFrame, error) {
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
	if numFrames == 0 {
		return nil, errors.Wrap(ErrCorruptedBitstream, "no frames")
	}
	rest = rest[off:]

	fr, _, distance, n, err := decodeFrameRecord(rest, width, height, roles)
	if err != nil {
		return nil, errors.Wrap(err, "frame 0")
	}
	rest = rest[n:]

	numGroups := int(fr.Header.NumGroups)
	if numGroups == 0 {
		numGroups = 1
	}
	groupLens, gn, err := codestream.ReadSectionTable(rest, numGroups)
	if err != nil {
		return nil, errors.Wrap(err, "frame 0 section table")
	}
	rest = rest[gn:]
	sections, err := codestream.SplitSections(rest, groupLens)
	if err != nil {
		return nil, errors.Wrap(err, "frame 0 sections")
	}

	groups := frame.ComputeGroups(fr.Width, fr.Height, numGroups)
	if fr.Header.Encoding == codestream.EncodingModular {
		for g := 0; g < len(groups) && g < len(sections); g++ {
			if err := decodeModularGroup(sections[g], fr, groups[g], distance); err != nil {
				return nil, errors.Wrap(err, "frame 0 groups")
			}
		}
	} else {
		for g := 0; g < len(groups) && g < len(sections); g++ {
			if _, err := decodeVarDCTGroupPasses(sections[g], fr, header.Metadata, groups[g], distance, 1); err != nil {
				return nil, errors.Wrap(err, "frame 0 groups")
			}
		}
	}

	applyOrientation(fr, header.Metadata.Orientation)
	return fr, nil
}

// decodeFrameProgressive decodes one frame's groups, invoking cb after
// every VarDCT pass (or once, for Modular frames). It returns stop=true
// the moment cb returns false, at which point fr holds whatever partial
// data was decoded so far.
func decodeFrameProgressive(fr *frame.ImageFrame, meta codestream.ImageMetadata, sections [][]byte, numGroups int, distance float64, frameIdx int, cb func(pass int, f *frame.ImageFrame) bool) (bool, error) {
	groups := frame.ComputeGroups(fr.Width, fr.Height, numGroups)

	if fr.Header.Encoding == codestream.EncodingModular {
		for g := 0; g < len(groups) && g < len(sections); g++ {
			if err := decodeModularGroup(sections[g], fr, groups[g], distance); err != nil {
				return false, err
			}
		}
		return !cb(0, fr), nil
	}

	total := 0
	for g := 0; g < len(groups) && g < len(sections); g++ {
		n, err := decodeVarDCTGroupPasses(sections[g], fr, meta, groups[g], distance, 1)
		if err != nil {
			return false, err
		}
		if n > total {
			total = n
		}
	}
	if !cb(0, fr) {
		return true, nil
	}

	for p := 2; p <= total; p++ {
		for g := 0; g < len(groups) && g < len(sections); g++ {
			if _, err := decodeVarDCTGroupPasses(sections[g], fr, meta, groups[g], distance, p); err != nil {
				return false, err
			}
		}
		if !cb(p-1, fr) {
			return true, nil
		}
	}
	return false, nil
}
