package jxl

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Mode selects the overall compression family: lossless (Modular path
// only) or lossy at a given quality (VarDCT path, with Modular riding
// along for lossless extra channels).
type Mode struct {
	Lossless bool
	Quality  int // 1..100, only meaningful when !Lossless
}

// LosslessMode returns the lossless Mode.
func LosslessMode() Mode { return Mode{Lossless: true} }

// LossyMode returns a lossy Mode at the given quality (1..100).
func LossyMode(quality int) Mode { return Mode{Quality: quality} }

// Effort selects the encoder's speed/ratio trade-off, mirroring the
// reference encoder's named effort tiers.
type Effort int

const (
	EffortLightning Effort = iota + 1
	EffortThunder
	EffortFalcon
	EffortCheetah
	EffortHare
	EffortWombat
	EffortSquirrel
	EffortKitten
	EffortTortoise
)

// usesANS reports whether effort level e selects the ANS entropy coder
// over the cheaper run-length + prefix-code path. encodeSymbols consults
// this alongside cfg.UseANS, so Squirrel and above get ANS automatically
// without the caller having to ask for it explicitly.
func (e Effort) usesANS() bool {
	return e >= EffortSquirrel
}

// ReferenceFramePreset controls how many reference-frame slots an
// animation encode is allowed to use.
type ReferenceFramePreset int

const (
	ReferenceFramesNone ReferenceFramePreset = iota
	ReferenceFramesSingle
	ReferenceFramesAll
)

// PatchPreset controls whether the encoder searches for repeated
// rectangles to emit as patches referencing a saved frame.
type PatchPreset int

const (
	PatchesDisabled PatchPreset = iota
	PatchesEnabled
)

// AnimationConfig declares a multi-frame encode's timing and looping.
type AnimationConfig struct {
	TPSNumerator   uint32
	TPSDenominator uint32
	LoopCount      uint32
}

// SplineConfig carries encoder-supplied spline side data to draw onto
// the canvas after the inverse transform.
type SplineConfig struct {
	Splines []SplineSpec
}

// SplineSpec mirrors internal/frame.Spline at the public API boundary,
// keeping internal/frame unimported from call sites that only need to
// build an EncoderConfig.
type SplineSpec struct {
	ControlPoints [][2]float32
	Color         [3]float32
	Width         float32
}

// NoiseConfig carries per-octave synthetic noise strengths.
type NoiseConfig struct {
	Strengths [8]float32
}

// ROI restricts encoding effort/quality to a sub-rectangle of the canvas.
type ROI struct {
	X, Y, Width, Height int
}

// EncoderConfig controls Encode's behavior.
type EncoderConfig struct {
	Mode             Mode
	Effort           Effort
	Progressive      bool
	Animation        *AnimationConfig
	ReferenceFrames  ReferenceFramePreset
	Patches          PatchPreset
	Splines          *SplineConfig
	Noise            *NoiseConfig
	RegionOfInterest *ROI
	NumThreads       int
	ModularMode      bool
	UseANS           bool
	Logger           *zap.Logger
}

// logger returns cfg.Logger, or a no-op logger if none was supplied.
func (cfg EncoderConfig) logger() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}

// DefaultEncoderConfig returns a single-frame, lossy quality-90,
// Squirrel-effort configuration with ANS entropy coding — a reasonable
// default for "just compress this image".
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Mode:       LossyMode(90),
		Effort:     EffortSquirrel,
		NumThreads: 0,
		UseANS:     true,
	}
}

// Validate checks the subset of EncoderConfig invariants that don't
// require the frames being encoded.
func (cfg EncoderConfig) Validate() error {
	if !cfg.Mode.Lossless && (cfg.Mode.Quality < 1 || cfg.Mode.Quality > 100) {
		return errors.Wrapf(ErrMissingConfiguration, "quality %d out of range 1..100", cfg.Mode.Quality)
	}
	if cfg.Effort < EffortLightning || cfg.Effort > EffortTortoise {
		return errors.Wrapf(ErrMissingConfiguration, "effort %d out of range", cfg.Effort)
	}
	return nil
}
