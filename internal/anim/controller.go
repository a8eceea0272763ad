// Package anim drives the eyes: gaze saccades and fixations with tremor,
// blinking, pupil dilation and an emotion cycle that cross-fades parameter
// bundles. Everything is a deterministic function of the seed and the tick
// deltas.
//
// A Controller is owned by one goroutine. Other goroutines talk to it through
// that goroutine, never directly.
package anim

import (
	"math"
	"time"

	"github.com/Fortinbra/PicoMonsterEyes/internal/eye"
)

// Events reports what changed during one tick.
type Events struct {
	BlinkStarted   bool
	SaccadeStarted bool
	EmotionChanged bool
	Emotion        Emotion
}

// State is a copy of the controller state for display and debugging.
type State struct {
	Clock       float64    `json:"clock"`
	Blink       BlinkPhase `json:"-"`
	BlinkName   string     `json:"blink"`
	Gaze        GazePhase  `json:"-"`
	GazeName    string     `json:"gaze"`
	GazeX       float64    `json:"gazeX"`
	GazeY       float64    `json:"gazeY"`
	TargetX     float64    `json:"targetX"`
	TargetY     float64    `json:"targetY"`
	Pupil       float64    `json:"pupil"`
	EyelidOpen  float64    `json:"eyelidOpen"`
	Emotion     Emotion    `json:"emotion"`
	PrevEmotion Emotion    `json:"previousEmotion"`
	Fade        float64    `json:"fade"`
}

// Controller owns the four state machines.
type Controller struct {
	cfg     Config
	timing  blinkTiming
	bounds  bounds
	bundles []Bundle

	rng   lcg
	clock float64

	blink   blink
	gaze    gaze
	pupil   pupil
	emotion emotionState

	mix  Bundle // blended bundle of the last tick
	open float64
}

// NewController validates cfg and returns a controller with the iris
// centered, eyes open and the first fixation pending.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg: cfg,
		timing: blinkTiming{
			close:  cfg.BlinkClose.Seconds(),
			hold:   cfg.BlinkHold.Seconds(),
			open:   cfg.BlinkOpen.Seconds(),
			period: cfg.BlinkPeriod.Seconds(),
			jitter: cfg.BlinkJitter.Seconds(),
		},
		bounds:  newBounds(cfg.Width, cfg.Height, cfg.IrisRadius),
		bundles: DefaultBundles(cfg.Height),
		rng:     lcg(cfg.Seed),
		open:    1,
	}
	cx, cy := float64(cfg.Width)/2, float64(cfg.Height)/2
	c.gaze = gaze{x: cx, y: cy, startX: cx, startY: cy, targetX: cx, targetY: cy, fixDur: 1, fixBase: 1}
	c.pupil = pupil{current: 1, target: 1, scale: 1}
	c.emotion.fade = 1
	c.blend()
	return c, nil
}

// step is the nominal increment for a wall delta.
func (c *Controller) step(wall float64) float64 {
	if c.cfg.FixedStep == 0 {
		return wall
	}
	return c.cfg.FixedStep.Seconds()
}

// Tick advances the animation. wall is the real time since the previous
// tick; it moves the clock that schedules blinks. Every other timer moves by
// Config.FixedStep.
func (c *Controller) Tick(wall time.Duration) Events {
	w := math.Max(wall.Seconds(), 0)
	dt := c.step(w)
	c.clock += w

	var ev Events
	ev.EmotionChanged = c.emotion.step(dt, c.cfg.EmotionCycle.Seconds(), c.cfg.EmotionFade.Seconds())
	c.blend()

	started, landed := c.gaze.step(dt, &c.cfg, &c.mix, c.bounds, &c.rng)
	ev.SaccadeStarted = started
	if landed {
		c.pupil.retarget(&c.cfg, fixationFraction(&c.cfg, c.gaze.fixBase), &c.rng)
	}

	ev.BlinkStarted = c.blink.step(c.clock, dt, &c.timing, &c.rng)
	c.open = clamp01(c.blink.openness(&c.timing) + c.mix.EyelidBias)
	c.pupil.step(dt, &c.cfg, c.mix.PupilBias)

	ev.Emotion = c.emotion.current
	return ev
}

func (c *Controller) blend() {
	e := &c.emotion
	Blend(&c.mix, &c.bundles[e.previous], &c.bundles[e.current], smootherstep(e.fade))
}

// SetEmotion starts a cross-fade to e and restarts the cycle timer. It
// reports false for an unknown emotion or the one already shown.
func (c *Controller) SetEmotion(e Emotion) bool {
	if e < 0 || e >= numEmotions || e == c.emotion.current {
		return false
	}
	c.emotion.set(e)
	c.blend()
	return true
}

// Params fills the dynamic fields of base for both eyes. The right eye reads
// the lid maps mirrored. The shape slices alias controller buffers and stay
// valid until the next Tick.
func (c *Controller) Params(base eye.Params) (left, right eye.Params) {
	p := base
	p.Width, p.Height = c.cfg.Width, c.cfg.Height
	p.IrisCenterX = int(math.Round(c.gaze.x))
	p.IrisCenterY = int(math.Round(c.gaze.y))
	p.IrisRadius = c.cfg.IrisRadius
	p.PupilScale = c.pupil.scale
	p.EyelidOpen = c.open
	p.UpperShape = c.mix.UpperShape
	p.LowerShape = c.mix.LowerShape
	p.ScleraParallax = c.cfg.ScleraParallax
	p.Tint = eye.Tint{
		Enabled:  c.mix.TintStrength > 0,
		Color:    c.mix.TintColor,
		Strength: c.mix.TintStrength,
	}

	left, right = p, p
	left.MirrorEyelids = false
	right.MirrorEyelids = true
	return left, right
}

// Mix returns the blended emotion bundle of the last tick.
func (c *Controller) Mix() Bundle { return c.mix }

// State copies the current state.
func (c *Controller) State() State {
	return State{
		Clock:       c.clock,
		Blink:       c.blink.phase,
		BlinkName:   c.blink.phase.String(),
		Gaze:        c.gaze.phase,
		GazeName:    c.gaze.phase.String(),
		GazeX:       c.gaze.x,
		GazeY:       c.gaze.y,
		TargetX:     c.gaze.targetX,
		TargetY:     c.gaze.targetY,
		Pupil:       c.pupil.scale,
		EyelidOpen:  c.open,
		Emotion:     c.emotion.current,
		PrevEmotion: c.emotion.previous,
		Fade:        c.emotion.fade,
	}
}
