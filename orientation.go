package jxl

import "github.com/jxlgo/jxl/internal/frame"

// applyOrientation rotates/flips every channel of f in place per the
// EXIF-style orientation value parsed into ImageMetadata.Orientation,
// the last step of the decoder driver (spec.md §4.9). Orientation 0 or 1
// is a no-op; every other value is handled by remapping each channel's
// raw sample slice into freshly allocated Data of (possibly swapped)
// width/height, since the accessors operate on raw uint32 bit patterns
// and a plain index permutation preserves whatever sample type a channel
// declares (spec.md §3 round-trip invariant).
func applyOrientation(f *frame.ImageFrame, orientation uint32) {
	if orientation <= 1 {
		return
	}
	for _, c := range f.Channels {
		reorientChannel(c, orientation)
	}
	if orientation >= 5 {
		f.Width, f.Height = f.Height, f.Width
	}
}

// reorientChannel replaces c's Data in place with its reoriented samples,
// swapping c.Width/c.Height when the orientation rotates the image 90 or
// 270 degrees.
func reorientChannel(c *frame.Channel, orientation uint32) {
	w, h := c.Width, c.Height
	nw, nh := w, h
	if orientation >= 5 {
		nw, nh = h, w
	}
	out := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx, ny := orientedCoords(orientation, x, y, w, h)
			out[ny*nw+nx] = c.Data[y*w+x]
		}
	}
	c.Width, c.Height = nw, nh
	c.Data = out
}

// orientedCoords maps a source pixel (x, y) in a w x h image to its
// destination coordinates under the given EXIF orientation value (1..8;
// 1 is identity and never reaches here).
func orientedCoords(orientation uint32, x, y, w, h int) (int, int) {
	switch orientation {
	case 2: // mirror horizontal
		return w - 1 - x, y
	case 3: // rotate 180
		return w - 1 - x, h - 1 - y
	case 4: // mirror vertical
		return x, h - 1 - y
	case 5: // transpose
		return y, x
	case 6: // rotate 90 CW
		return h - 1 - y, x
	case 7: // transverse
		return h - 1 - y, w - 1 - x
	case 8: // rotate 270 CW
		return y, w - 1 - x
	default:
		return x, y
	}
}
