package anim

import (
	"fmt"
	"time"

	"github.com/Fortinbra/PicoMonsterEyes/internal/eye"
)

// Config holds the tuning constants of the four state machines.
type Config struct {
	Width, Height int
	IrisRadius    float64

	// FixedStep is the nominal per-tick increment for everything except the
	// clock and blink scheduling, which follow wall time. Zero makes every
	// increment use the wall delta.
	FixedStep time.Duration

	Seed uint32

	BlinkClose  time.Duration
	BlinkHold   time.Duration
	BlinkOpen   time.Duration
	BlinkPeriod time.Duration
	BlinkJitter time.Duration

	FixationMin time.Duration
	FixationMax time.Duration
	TremorDecay float64
	TremorNoise float64
	TremorGain  float64

	SaccadeBase     time.Duration
	SaccadePerPixel time.Duration
	SaccadeMax      time.Duration

	PupilGain        float64
	PupilBreathHz    float64
	PupilBreathAmp   float64
	PupilBiasSoften  float64
	PupilMin         float64
	PupilMax         float64
	PupilTargetMin   float64
	PupilTargetMax   float64
	PupilTargetNoise float64

	// EmotionCycle is the round-robin period; zero holds the current emotion
	// until SetEmotion is called.
	EmotionCycle time.Duration
	EmotionFade  time.Duration

	ScleraParallax float64
}

// DefaultConfig returns the tuning used on the panels.
func DefaultConfig() Config {
	return Config{
		Width:      eye.FrameWidth,
		Height:     eye.FrameHeight,
		IrisRadius: 40,
		FixedStep:  time.Second / 60,
		Seed:       0x12345678,

		BlinkClose:  120 * time.Millisecond,
		BlinkHold:   80 * time.Millisecond,
		BlinkOpen:   160 * time.Millisecond,
		BlinkPeriod: 5500 * time.Millisecond,
		BlinkJitter: 900 * time.Millisecond,

		FixationMin: 350 * time.Millisecond,
		FixationMax: 1600 * time.Millisecond,
		TremorDecay: 0.85,
		TremorNoise: 0.6,
		TremorGain:  0.35,

		SaccadeBase:     25 * time.Millisecond,
		SaccadePerPixel: 900 * time.Microsecond,
		SaccadeMax:      120 * time.Millisecond,

		PupilGain:        0.05,
		PupilBreathHz:    0.25,
		PupilBreathAmp:   0.03,
		PupilBiasSoften:  0.5,
		PupilMin:         0.5,
		PupilMax:         1.6,
		PupilTargetMin:   0.8,
		PupilTargetMax:   1.3,
		PupilTargetNoise: 0.1,

		EmotionCycle: 12 * time.Second,
		EmotionFade:  1200 * time.Millisecond,
	}
}

// Validate rejects tunings the state machines cannot run with.
func (c Config) Validate() error {
	if err := eye.CheckGeometry(c.Width, c.Height, c.IrisRadius); err != nil {
		return err
	}
	switch {
	case c.FixedStep < 0:
		return fmt.Errorf("anim: negative fixed step %v", c.FixedStep)
	case c.BlinkClose <= 0 || c.BlinkHold < 0 || c.BlinkOpen <= 0:
		return fmt.Errorf("anim: blink phases must be positive")
	case c.BlinkPeriod <= 0 || c.BlinkJitter < 0:
		return fmt.Errorf("anim: bad blink period %v + %v", c.BlinkPeriod, c.BlinkJitter)
	case c.FixationMin <= 0 || c.FixationMax < c.FixationMin:
		return fmt.Errorf("anim: bad fixation range %v..%v", c.FixationMin, c.FixationMax)
	case c.SaccadeBase <= 0 || c.SaccadeMax < c.SaccadeBase:
		return fmt.Errorf("anim: bad saccade timing %v..%v", c.SaccadeBase, c.SaccadeMax)
	case c.PupilMin <= 0 || c.PupilMax < c.PupilMin:
		return fmt.Errorf("anim: bad pupil range %v..%v", c.PupilMin, c.PupilMax)
	case c.PupilTargetMax < c.PupilTargetMin:
		return fmt.Errorf("anim: bad pupil target range %v..%v", c.PupilTargetMin, c.PupilTargetMax)
	case c.EmotionCycle < 0 || c.EmotionFade <= 0:
		return fmt.Errorf("anim: bad emotion timing %v / %v", c.EmotionCycle, c.EmotionFade)
	}
	return nil
}
