package jxl

import (
	"bytes"

	"github.com/jxlgo/jxl/internal/frame"
)

// serializeSideData writes a frame's patch/spline/noise records into a
// self-delimiting byte section, carried in the per-frame trailer right
// after the frame header (spec.md §9). Encode() itself only ever emits
// Patches that detectPatches found against a saved reference frame; the
// cfg.Splines/cfg.Noise the caller supplies are carried through here
// verbatim.
func serializeSideData(sd frame.SideData) []byte {
	var out bytes.Buffer

	writeUint32(&out, uint32(len(sd.Patches)))
	for _, p := range sd.Patches {
		writeInt32(&out, int32(p.ReferenceSlot))
		writeInt32(&out, p.SourceX)
		writeInt32(&out, p.SourceY)
		writeInt32(&out, p.TargetX)
		writeInt32(&out, p.TargetY)
		writeInt32(&out, p.Width)
		writeInt32(&out, p.Height)
		writeInt32(&out, int32(p.Blend))
	}

	writeUint32(&out, uint32(len(sd.Splines)))
	for _, s := range sd.Splines {
		writeUint32(&out, uint32(len(s.ControlPoints)))
		for _, pt := range s.ControlPoints {
			writeFloat32(&out, pt.X)
			writeFloat32(&out, pt.Y)
		}
		for _, c := range s.Color {
			writeFloat32(&out, c)
		}
		writeFloat32(&out, s.Width)
	}

	writeUint32(&out, uint32(len(sd.Noise)))
	for _, n := range sd.Noise {
		for _, s := range n.Strengths {
			writeFloat32(&out, s)
		}
	}

	return out.Bytes()
}

// parseSideData is the exact inverse of serializeSideData, returning the
// decoded SideData and the number of bytes consumed.
func parseSideData(data []byte) (frame.SideData, int, error) {
	var sd frame.SideData

	numPatches, off, err := readUint32(data)
	if err != nil {
		return sd, 0, err
	}
	for i := uint32(0); i < numPatches; i++ {
		var p frame.Patch
		var n int
		var slot, blend int32
		if slot, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		p.ReferenceSlot = int(slot)
		if p.SourceX, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		if p.SourceY, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		if p.TargetX, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		if p.TargetY, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		if p.Width, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		if p.Height, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		if blend, n, err = readInt32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		p.Blend = int(blend)
		sd.Patches = append(sd.Patches, p)
	}

	numSplines, n, err := readUint32(data[off:])
	if err != nil {
		return sd, 0, err
	}
	off += n
	for i := uint32(0); i < numSplines; i++ {
		var s frame.Spline
		numPoints, n, err := readUint32(data[off:])
		if err != nil {
			return sd, 0, err
		}
		off += n
		for j := uint32(0); j < numPoints; j++ {
			var pt frame.SplinePoint
			if pt.X, n, err = readFloat32(data[off:]); err != nil {
				return sd, 0, err
			}
			off += n
			if pt.Y, n, err = readFloat32(data[off:]); err != nil {
				return sd, 0, err
			}
			off += n
			s.ControlPoints = append(s.ControlPoints, pt)
		}
		for k := range s.Color {
			if s.Color[k], n, err = readFloat32(data[off:]); err != nil {
				return sd, 0, err
			}
			off += n
		}
		if s.Width, n, err = readFloat32(data[off:]); err != nil {
			return sd, 0, err
		}
		off += n
		sd.Splines = append(sd.Splines, s)
	}

	numNoise, n, err := readUint32(data[off:])
	if err != nil {
		return sd, 0, err
	}
	off += n
	for i := uint32(0); i < numNoise; i++ {
		var noise frame.Noise
		for k := range noise.Strengths {
			if noise.Strengths[k], n, err = readFloat32(data[off:]); err != nil {
				return sd, 0, err
			}
			off += n
		}
		sd.Noise = append(sd.Noise, noise)
	}

	return sd, off, nil
}
