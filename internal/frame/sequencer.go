package frame

import (
	"runtime"
	"sync"

	"github.com/jxlgo/jxl/internal/codestream"
	"github.com/pkg/errors"
)

// ErrInconsistentFrames is returned by EncodeFrames when an animation's
// frames don't share dimensions, channel count, or channel types.
var ErrInconsistentFrames = errors.New("frame: inconsistent frames")

// GroupBounds is a frame-relative rectangle, the unit of parallel section
// encoding/decoding (spec.md §4.8's "groups" generalize the teacher's
// code-blocks).
type GroupBounds struct {
	X0, Y0, X1, Y1 int
}

func (b GroupBounds) Width() int  { return b.X1 - b.X0 }
func (b GroupBounds) Height() int { return b.Y1 - b.Y0 }

// defaultGroupDim is the nominal group edge length in pixels; the last
// row/column of groups is clipped to the frame's actual size.
const defaultGroupDim = 256

// ComputeGroups partitions a width x height frame into up to numGroups
// groups arranged in a roughly square grid. If numGroups is 0 or 1 the
// whole frame is a single group.
func ComputeGroups(width, height, numGroups int) []GroupBounds {
	if numGroups <= 1 {
		return []GroupBounds{{0, 0, width, height}}
	}
	gridX := ceilSqrt(numGroups)
	gridY := (numGroups + gridX - 1) / gridX
	cellW := ceilDiv(width, gridX)
	cellH := ceilDiv(height, gridY)

	var groups []GroupBounds
	for gy := 0; gy < gridY && len(groups) < numGroups; gy++ {
		for gx := 0; gx < gridX && len(groups) < numGroups; gx++ {
			x0 := gx * cellW
			y0 := gy * cellH
			if x0 >= width || y0 >= height {
				continue
			}
			x1 := min(x0+cellW, width)
			y1 := min(y0+cellH, height)
			groups = append(groups, GroupBounds{x0, y0, x1, y1})
		}
	}
	return groups
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func ceilSqrt(n int) int {
	r := 1
	for r*r < n {
		r++
	}
	return r
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// GroupEncoder encodes one group of a frame into its section bytes.
type GroupEncoder func(f *ImageFrame, bounds GroupBounds) ([]byte, error)

// GroupDecoder decodes one group's section bytes into f's pixels.
type GroupDecoder func(data []byte, f *ImageFrame, bounds GroupBounds) error

// FrameData is one encoded frame: its header plus its group sections, in
// declared order, ready for codestream.AssembleSections.
type FrameData struct {
	Header   codestream.FrameHeader
	Sections [][]byte
}

// Sequencer drives per-frame group encode/decode with a bounded worker
// pool, mirroring the teacher's parallel code-block encode
// (encoder.go's jobChan/resultChan/sync.WaitGroup fork-join), generalized
// from code-blocks to groups.
type Sequencer struct {
	NumWorkers int
}

// NewSequencer returns a Sequencer. numWorkers <= 0 means
// runtime.GOMAXPROCS(0).
func NewSequencer(numWorkers int) *Sequencer {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Sequencer{NumWorkers: numWorkers}
}

// EncodeFrames validates cross-frame consistency, then encodes each
// frame's groups (in declared NumGroups count from its own header) into
// one FrameData per input frame, holding the per-group section payloads;
// building the section-length table is left to the caller.
func (s *Sequencer) EncodeFrames(frames []*ImageFrame, encode GroupEncoder) ([]FrameData, error) {
	if err := ValidateConsistency(frames); err != nil {
		return nil, err
	}
	out := make([]FrameData, len(frames))
	for i, f := range frames {
		numGroups := int(f.Header.NumGroups)
		if numGroups == 0 {
			numGroups = 1
		}
		sections, err := s.EncodeGroups(f, numGroups, encode)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		out[i] = FrameData{Header: f.Header, Sections: sections}
	}
	return out, nil
}

// DecodeFrames decodes each FrameData's sections into its matching
// pre-allocated ImageFrame (frames must already carry the right
// dimensions/channels, parsed from the frame header ahead of this call).
func (s *Sequencer) DecodeFrames(data []FrameData, frames []*ImageFrame, decode GroupDecoder) error {
	if len(data) != len(frames) {
		return errors.Errorf("frame: %d frame sections but %d frames", len(data), len(frames))
	}
	for i, fd := range data {
		numGroups := int(fd.Header.NumGroups)
		if numGroups == 0 {
			numGroups = 1
		}
		if err := s.DecodeGroups(fd.Sections, frames[i], numGroups, decode); err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
	}
	return nil
}

type groupJob struct {
	index  int
	bounds GroupBounds
}

type groupResult struct {
	index   int
	encoded []byte
	err     error
}

// EncodeGroups encodes every group of f in parallel via encode, returning
// section byte slices in group order. It validates nothing about f itself
// (EncodeFrames does that across the whole animation before any group is
// touched).
func (s *Sequencer) EncodeGroups(f *ImageFrame, numGroups int, encode GroupEncoder) ([][]byte, error) {
	groups := ComputeGroups(f.Width, f.Height, numGroups)
	if len(groups) <= 4 || s.NumWorkers == 1 {
		sections := make([][]byte, len(groups))
		for i, b := range groups {
			enc, err := encode(f, b)
			if err != nil {
				return nil, errors.Wrapf(err, "group %d", i)
			}
			sections[i] = enc
		}
		return sections, nil
	}

	numWorkers := s.NumWorkers
	if numWorkers > len(groups) {
		numWorkers = len(groups)
	}

	jobChan := make(chan groupJob, len(groups))
	for i, b := range groups {
		jobChan <- groupJob{index: i, bounds: b}
	}
	close(jobChan)

	resultChan := make(chan groupResult, len(groups))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				enc, err := encode(f, job.bounds)
				resultChan <- groupResult{index: job.index, encoded: enc, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	sections := make([][]byte, len(groups))
	var firstErr error
	for res := range resultChan {
		if res.err != nil && firstErr == nil {
			firstErr = errors.Wrapf(res.err, "group %d", res.index)
			continue
		}
		sections[res.index] = res.encoded
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return sections, nil
}

// DecodeGroups decodes each section into f's pixels in parallel, given
// the same group partition EncodeGroups used.
func (s *Sequencer) DecodeGroups(sections [][]byte, f *ImageFrame, numGroups int, decode GroupDecoder) error {
	groups := ComputeGroups(f.Width, f.Height, numGroups)
	if len(groups) != len(sections) {
		return errors.Errorf("frame: %d groups but %d sections", len(groups), len(sections))
	}

	if len(groups) <= 4 || s.NumWorkers == 1 {
		for i, b := range groups {
			if err := decode(sections[i], f, b); err != nil {
				return errors.Wrapf(err, "group %d", i)
			}
		}
		return nil
	}

	numWorkers := s.NumWorkers
	if numWorkers > len(groups) {
		numWorkers = len(groups)
	}

	jobChan := make(chan groupJob, len(groups))
	for i, b := range groups {
		jobChan <- groupJob{index: i, bounds: b}
	}
	close(jobChan)

	errChan := make(chan error, len(groups))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				if err := decode(sections[job.index], f, job.bounds); err != nil {
					errChan <- errors.Wrapf(err, "group %d", job.index)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateConsistency checks that every frame in an animation shares
// dimensions and channel layout, the check EncodeFrames runs before any
// group of any frame is encoded (spec.md §4.8: "validating cross-frame
// dimension/pixel-type consistency before any bytes are produced").
func ValidateConsistency(frames []*ImageFrame) error {
	if len(frames) == 0 {
		return nil
	}
	first := frames[0]
	for i, f := range frames[1:] {
		if !first.SameShape(f) {
			return errors.Wrapf(ErrInconsistentFrames, "frame %d differs from frame 0", i+1)
		}
	}
	return nil
}
