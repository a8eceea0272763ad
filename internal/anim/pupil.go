package anim

import "math"

type pupil struct {
	current, target float64
	breath          float64 // phase in radians
	scale           float64 // last output
}

// retarget sets a new dilation target after a saccade lands. Longer upcoming
// fixations dilate more.
func (p *pupil) retarget(c *Config, fixFrac float64, rng *lcg) {
	t := 0.85 + 0.35*fixFrac + (rng.Float()-0.5)*c.PupilTargetNoise
	p.target = clamp(t, c.PupilTargetMin, c.PupilTargetMax)
}

func (p *pupil) step(dt float64, c *Config, bias float64) float64 {
	p.current += (p.target - p.current) * c.PupilGain
	p.breath = math.Mod(p.breath+dt*2*math.Pi*c.PupilBreathHz, 2*math.Pi)
	v := p.current + c.PupilBreathAmp*math.Sin(p.breath) + bias*c.PupilBiasSoften
	p.scale = clamp(v, c.PupilMin, c.PupilMax)
	return p.scale
}
