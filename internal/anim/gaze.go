package anim

import (
	"fmt"
	"math"
)

// GazePhase is the state of the gaze machine.
type GazePhase int

const (
	Fixation GazePhase = iota
	Saccade
)

func (p GazePhase) String() string {
	switch p {
	case Fixation:
		return "Fixation"
	case Saccade:
		return "Saccade"
	default:
		return fmt.Sprintf("GazePhase(%d)", int(p))
	}
}

type gaze struct {
	phase GazePhase

	x, y           float64 // current iris center
	startX, startY float64
	targetX        float64
	targetY        float64

	fixTimer, fixDur float64
	fixBase          float64 // fixDur before the emotion scale
	sacTimer, sacDur float64

	vx, vy float64 // tremor velocity
}

// bounds is the legal iris center range on both axes.
type bounds struct {
	minX, maxX, minY, maxY float64
}

func newBounds(w, h int, r float64) bounds {
	return bounds{minX: r, maxX: float64(w) - r, minY: r, maxY: float64(h) - r}
}

func (b bounds) clamp(x, y float64) (float64, float64) {
	return clamp(x, b.minX, b.maxX), clamp(y, b.minY, b.maxY)
}

// step advances fixation or saccade by dt. It reports whether a saccade
// started and whether one finished on this tick.
func (g *gaze) step(dt float64, c *Config, mix *Bundle, b bounds, rng *lcg) (started, landed bool) {
	switch g.phase {
	case Fixation:
		g.fixTimer += dt
		g.vx = c.TremorDecay*g.vx + (rng.Float()-0.5)*c.TremorNoise
		g.vy = c.TremorDecay*g.vy + (rng.Float()-0.5)*c.TremorNoise
		g.x, g.y = b.clamp(g.x+g.vx*c.TremorGain, g.y+g.vy*c.TremorGain)
		if g.fixTimer >= g.fixDur {
			g.chooseTarget(c, mix, b, rng)
			g.phase = Saccade
			return true, false
		}
	case Saccade:
		g.sacTimer += dt * mix.SaccadeSpeed
		f := clamp01(g.sacTimer / g.sacDur)
		e := smoothstep(f)
		g.x = lerp(g.startX, g.targetX, e)
		g.y = lerp(g.startY, g.targetY, e)
		if f >= 1 {
			g.phase = Fixation
			g.fixTimer = 0
			g.vx, g.vy = 0, 0
			g.fixBase = drawFixation(c, rng)
			g.fixDur = g.fixBase * mix.FixationScale
			return false, true
		}
	}
	return false, false
}

// chooseTarget picks a center-weighted target and the saccade duration.
func (g *gaze) chooseTarget(c *Config, mix *Bundle, b bounds, rng *lcg) {
	pick := func(lo, hi, bias float64) float64 {
		v := lo + smoothstep(rng.Float())*(hi-lo)
		v += bias * (hi - lo) / 2
		return clamp(v, lo, hi)
	}
	g.startX, g.startY = g.x, g.y
	g.targetX = pick(b.minX, b.maxX, mix.GazeBiasX)
	g.targetY = pick(b.minY, b.maxY, mix.GazeBiasY)

	dist := math.Hypot(g.targetX-g.x, g.targetY-g.y)
	g.sacDur = math.Min(c.SaccadeBase.Seconds()+c.SaccadePerPixel.Seconds()*dist, c.SaccadeMax.Seconds())
	g.sacTimer = 0
}

// drawFixation picks an unscaled fixation length in seconds.
func drawFixation(c *Config, rng *lcg) float64 {
	lo, hi := c.FixationMin.Seconds(), c.FixationMax.Seconds()
	return lerp(lo, hi, rng.Float())
}

// fixationFraction normalizes an unscaled fixation duration to [0,1] over
// the configured range.
func fixationFraction(c *Config, d float64) float64 {
	lo, hi := c.FixationMin.Seconds(), c.FixationMax.Seconds()
	if hi <= lo {
		return 0
	}
	return clamp01((d - lo) / (hi - lo))
}
