package anim

import "fmt"

// BlinkPhase is the state of the blink machine.
type BlinkPhase int

const (
	BlinkIdle BlinkPhase = iota
	BlinkClosing
	BlinkHold
	BlinkOpening
)

func (p BlinkPhase) String() string {
	switch p {
	case BlinkIdle:
		return "Idle"
	case BlinkClosing:
		return "Closing"
	case BlinkHold:
		return "Hold"
	case BlinkOpening:
		return "Opening"
	default:
		return fmt.Sprintf("BlinkPhase(%d)", int(p))
	}
}

type blink struct {
	phase BlinkPhase
	timer float64 // seconds inside the current phase
	next  float64 // clock time of the next blink
}

type blinkTiming struct {
	close, hold, open, period, jitter float64
}

// step advances the machine. now is the wall-driven clock, dt the nominal
// step. It reports whether a blink started on this tick.
func (b *blink) step(now, dt float64, t *blinkTiming, rng *lcg) bool {
	switch b.phase {
	case BlinkIdle:
		if now >= b.next {
			b.phase = BlinkClosing
			b.timer = 0
			return true
		}
	case BlinkClosing:
		b.timer += dt
		if b.timer >= t.close {
			b.phase = BlinkHold
			b.timer = 0
		}
	case BlinkHold:
		b.timer += dt
		if b.timer >= t.hold {
			b.phase = BlinkOpening
			b.timer = 0
		}
	case BlinkOpening:
		b.timer += dt
		if b.timer >= t.open {
			b.phase = BlinkIdle
			b.timer = 0
			b.next = now + t.period + rng.Float()*t.jitter
		}
	}
	return false
}

// openness is 1 for a fully open eye and 0 while the lids are shut.
func (b *blink) openness(t *blinkTiming) float64 {
	switch b.phase {
	case BlinkClosing:
		return 1 - smoothstep(b.timer/t.close)
	case BlinkHold:
		return 0
	case BlinkOpening:
		return smoothstep(b.timer / t.open)
	default:
		return 1
	}
}
