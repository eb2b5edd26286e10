package frame

import "github.com/pkg/errors"

// ErrInvalidSideData is returned for a side-data record whose geometry
// doesn't fit the target frame or referenced reference slot.
var ErrInvalidSideData = errors.New("frame: invalid side data")

// Patch copies a rectangle out of a saved reference frame onto the
// current canvas, composited with Blend.
type Patch struct {
	ReferenceSlot int
	SourceX       int32
	SourceY       int32
	TargetX       int32
	TargetY       int32
	Width         int32
	Height        int32
	Blend         int // codestream.BlendMode, kept as int to avoid importing it for a single field's sake
}

// SplinePoint is one control point of a Spline's path, in canvas
// coordinates.
type SplinePoint struct {
	X, Y float32
}

// Spline draws a colored stroke added on top of the canvas after the
// inverse transform. The path is a polyline: straight one-sample-wide
// segments between consecutive control points; no curve is fitted through
// them.
type Spline struct {
	ControlPoints []SplinePoint
	Color         [3]float32 // XYB color of the stroke
	Width         float32
}

// Noise adds synthetic film-grain-like noise to the canvas, parameterized
// by per-octave strength.
type Noise struct {
	Strengths [8]float32
}

// SideData bundles every record attached to one frame. Patches apply
// before the VarDCT/Modular pipeline runs (they paint onto the canvas the
// pipeline's prediction then builds on); splines and noise apply after
// the inverse transform, in that fixed order (spec.md §9 "side-data
// fan-in": patches -> coefficients -> inverse transform -> splines ->
// noise).
type SideData struct {
	Patches []Patch
	Splines []Spline
	Noise   []Noise
}

// ApplyPatches paints each patch's source rectangle from its reference
// slot onto f, before the pipeline runs.
func ApplyPatches(f *ImageFrame, patches []Patch, arena *ReferenceArena) error {
	for i, p := range patches {
		ref, err := arena.Get(p.ReferenceSlot)
		if err != nil {
			return errors.Wrapf(err, "patch %d", i)
		}
		if ref == nil {
			return errors.Wrapf(ErrInvalidSideData, "patch %d: empty reference slot %d", i, p.ReferenceSlot)
		}
		if err := applyPatch(f, ref, p); err != nil {
			return errors.Wrapf(err, "patch %d", i)
		}
	}
	return nil
}

func applyPatch(dst, src *ImageFrame, p Patch) error {
	if len(dst.Channels) != len(src.Channels) {
		return errors.Wrap(ErrInvalidSideData, "channel count mismatch between patch target and reference")
	}
	for ci := range dst.Channels {
		dc, sc := dst.Channels[ci], src.Channels[ci]
		for row := int32(0); row < p.Height; row++ {
			for col := int32(0); col < p.Width; col++ {
				v, err := sc.At(int(p.SourceX+col), int(p.SourceY+row))
				if err != nil {
					return err
				}
				switch blendMode(p.Blend) {
				case blendAdd:
					cur, err := dc.At(int(p.TargetX+col), int(p.TargetY+row))
					if err != nil {
						return err
					}
					v = cur + v
				}
				if err := dc.Set(int(p.TargetX+col), int(p.TargetY+row), v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type blendMode int

const (
	blendReplace blendMode = iota
	blendAdd
)

// ApplyPostTransform adds splines then noise to f, after the inverse
// transform has produced its final (transfer-encoded) samples. Splines and
// noise operate on the frame's color channels only.
func ApplyPostTransform(f *ImageFrame, splines []Spline, noise []Noise) error {
	for i, s := range splines {
		if err := applySpline(f, s); err != nil {
			return errors.Wrapf(err, "spline %d", i)
		}
	}
	for i, n := range noise {
		if err := applyNoise(f, n); err != nil {
			return errors.Wrapf(err, "noise %d", i)
		}
	}
	return nil
}

func applySpline(f *ImageFrame, s Spline) error {
	if len(s.ControlPoints) < 2 {
		return errors.Wrap(ErrInvalidSideData, "spline needs at least two control points")
	}
	colors := f.ColorChannels()
	for i := 0; i+1 < len(s.ControlPoints); i++ {
		a, b := s.ControlPoints[i], s.ControlPoints[i+1]
		if err := strokeSegment(colors, a, b, s); err != nil {
			return err
		}
	}
	return nil
}

// strokeSegment rasterizes a straight sub-segment of the spline's path
// with a simple Bresenham-style walk, adding the stroke color to every
// sample it touches.
func strokeSegment(colors []*Channel, a, b SplinePoint, s Spline) error {
	steps := int(maxAbs(b.X-a.X, b.Y-a.Y)) + 1
	for step := 0; step <= steps; step++ {
		t := float32(step) / float32(steps)
		x := int(a.X + t*(b.X-a.X))
		y := int(a.Y + t*(b.Y-a.Y))
		for ci, c := range colors {
			if ci >= len(s.Color) {
				break
			}
			v, err := c.Float32At(x, y)
			if err != nil {
				continue // outside canvas; splines may extend past the crop
			}
			if err := c.SetFloat32(x, y, v+s.Color[ci]); err != nil {
				return err
			}
		}
	}
	return nil
}

func maxAbs(a, b float32) float32 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}

// applyNoise adds a deterministic, position-derived pseudo-noise pattern
// scaled by n.Strengths to every color channel. Determinism (rather than
// a random generator) keeps encode and decode reproducing the identical
// canvas from the same noise record.
func applyNoise(f *ImageFrame, n Noise) error {
	for _, c := range f.ColorChannels() {
		for y := 0; y < c.Height; y++ {
			for x := 0; x < c.Width; x++ {
				octave := (x ^ y) % len(n.Strengths)
				delta := n.Strengths[octave] * noiseLattice(x, y)
				v, err := c.Float32At(x, y)
				if err != nil {
					return err
				}
				if err := c.SetFloat32(x, y, v+delta); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// noiseLattice is a cheap deterministic hash-like function in [-0.5, 0.5),
// standing in for the spec's synthesized noise lattice.
func noiseLattice(x, y int) float32 {
	h := uint32(x)*374761393 + uint32(y)*668265263
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float32(h%1000)/1000 - 0.5
}
