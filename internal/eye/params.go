// Package eye renders one eye frame: a sclera window, a polar-mapped iris
// with a dilating pupil, specular glints, an optional tint wash and the two
// eyelids composited from threshold maps.
//
// Rendering is split in two passes so that a pair of eyes can share the
// expensive base pass and only differ in their eyelid pass.
package eye

import (
	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// Frame geometry of the panels.
const (
	FrameWidth  = 128
	FrameHeight = 128
)

// Highlight describes the specular glint(s) painted on the iris.
type Highlight struct {
	Enabled   bool
	Secondary bool
	OverPupil bool

	// Primary glint radius and center offset, as fractions of the iris radius.
	RadiusFrac  float64
	OffsetXFrac float64
	OffsetYFrac float64

	Strength float64 // 0..1
	Color    rgb565.Color

	// The secondary glint is smaller and sits on the same ray, closer to the
	// iris center.
	SecondaryRadiusFrac  float64
	SecondaryOffsetScale float64
}

// Tint is a color wash applied to the iris after the glints.
type Tint struct {
	Enabled  bool
	Color    rgb565.Color
	Strength float64 // 0..1
}

// Params are the per-eye render parameters. They are rebuilt every tick and
// never retained by the renderer.
type Params struct {
	Width, Height int

	IrisCenterX, IrisCenterY int
	IrisRadius               float64
	BasePupilFraction        float64
	PupilScale               float64

	EyelidOpen     float64 // 1 open, 0 closed
	EyelidEdgeBase uint8
	// Signed per-row cutoff adjustments, len Height. Nil means none.
	UpperShape, LowerShape []int8
	// MirrorEyelids reads the lid maps right to left.
	MirrorEyelids bool

	// ScleraParallax is 0 for a locked sclera, 1 for full counter-motion.
	ScleraParallax float64

	EyelidColorTop    rgb565.Color
	EyelidColorBottom rgb565.Color

	Highlight Highlight
	Tint      Tint
}

// DefaultParams returns a centered, fully open eye with both glints on.
func DefaultParams() Params {
	return Params{
		Width:             FrameWidth,
		Height:            FrameHeight,
		IrisCenterX:       FrameWidth / 2,
		IrisCenterY:       FrameHeight / 2,
		IrisRadius:        40,
		BasePupilFraction: 0.30,
		PupilScale:        1,
		EyelidOpen:        1,
		EyelidEdgeBase:    2,
		EyelidColorTop:    rgb565.Black,
		EyelidColorBottom: rgb565.Black,
		Highlight: Highlight{
			Enabled:              true,
			Secondary:            true,
			OverPupil:            true,
			RadiusFrac:           0.18,
			OffsetXFrac:          -0.25,
			OffsetYFrac:          -0.25,
			Strength:             1,
			Color:                rgb565.White,
			SecondaryRadiusFrac:  0.06,
			SecondaryOffsetScale: 0.55,
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
