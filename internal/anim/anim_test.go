package anim

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Fortinbra/PicoMonsterEyes/internal/eye"
)

const tick = time.Second / 60

func newTestController(t *testing.T, mod func(*Config)) *Controller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.EmotionCycle = 0
	if mod != nil {
		mod(&cfg)
	}
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestLCGSequence(t *testing.T) {
	s := lcg(0x12345678)
	want := []struct {
		state uint32
		u     float64
	}{
		{0x75432777, float64(0x754327) / (1 << 24)},
		{0xcd305e6a, float64(0xcd305e) / (1 << 24)},
		{0x25dbfac1, float64(0x25dbfa) / (1 << 24)},
	}
	for i, w := range want {
		u := s.Float()
		if uint32(s) != w.state || u != w.u {
			t.Fatalf("draw %d: state %#x u %v, want %#x %v", i, uint32(s), u, w.state, w.u)
		}
	}
}

func TestBlinkSequence(t *testing.T) {
	c := newTestController(t, nil)

	ev := c.Tick(tick)
	if !ev.BlinkStarted {
		t.Fatal("first blink should start on the first tick")
	}
	if st := c.State(); st.Blink != BlinkClosing || st.EyelidOpen != 1 {
		t.Fatalf("after start: %v open=%v, want Closing open=1", st.Blink, st.EyelidOpen)
	}

	var order []BlinkPhase
	last := BlinkClosing
	for i := 0; i < 120 && last != BlinkIdle; i++ {
		c.Tick(tick)
		st := c.State()
		if st.Blink != last {
			order = append(order, st.Blink)
			last = st.Blink
		}
		if st.Blink == BlinkHold && st.EyelidOpen != 0 {
			t.Fatalf("open=%v during Hold", st.EyelidOpen)
		}
		if st.EyelidOpen < 0 || st.EyelidOpen > 1 {
			t.Fatalf("open=%v out of range", st.EyelidOpen)
		}
	}
	if want := []BlinkPhase{BlinkHold, BlinkOpening, BlinkIdle}; !reflect.DeepEqual(order, want) {
		t.Fatalf("phase order %v, want %v", order, want)
	}
	if st := c.State(); st.EyelidOpen != 1 {
		t.Errorf("open=%v back in Idle, want 1", st.EyelidOpen)
	}

	next := c.blink.next
	if next < c.clock+5.5-1e-9 || next > c.clock+5.5+0.9 {
		t.Errorf("next blink at %v, want within period+jitter of %v", next, c.clock)
	}
	for c.clock+tick.Seconds() < next {
		if c.Tick(tick).BlinkStarted {
			t.Fatalf("blink started early at %v, scheduled %v", c.clock, next)
		}
	}
}

func TestDualTiming(t *testing.T) {
	tests := []struct {
		name      string
		fixedStep time.Duration
		wantPhase BlinkPhase
	}{
		// One second of wall time only moves blink phases by one nominal step.
		{"fixed step", time.Second / 60, BlinkClosing},
		{"wall step", 0, BlinkHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, func(cfg *Config) { cfg.FixedStep = tt.fixedStep })
			c.Tick(time.Second)
			c.Tick(time.Second)
			st := c.State()
			if st.Clock != 2 {
				t.Errorf("clock = %v, want 2", st.Clock)
			}
			if st.Blink != tt.wantPhase {
				t.Errorf("blink phase = %v, want %v", st.Blink, tt.wantPhase)
			}
		})
	}
}

func TestSaccadeTargetsInBounds(t *testing.T) {
	for seed := uint32(1); seed <= 100; seed++ {
		c := newTestController(t, func(cfg *Config) {
			cfg.Seed = seed
			cfg.EmotionCycle = 3 * time.Second
		})
		lo, hi := c.cfg.IrisRadius, float64(c.cfg.Width)-c.cfg.IrisRadius
		saccades := 0
		for i := 0; i < 1500; i++ {
			if c.Tick(tick).SaccadeStarted {
				saccades++
			}
			st := c.State()
			for _, v := range []float64{st.TargetX, st.TargetY, st.GazeX, st.GazeY} {
				if v < lo-1e-9 || v > hi+1e-9 {
					t.Fatalf("seed %d tick %d: position %v outside [%v,%v]", seed, i, v, lo, hi)
				}
			}
		}
		if saccades == 0 {
			t.Fatalf("seed %d: no saccades in 25s", seed)
		}
	}
}

func TestBlendEndpoints(t *testing.T) {
	bundles := DefaultBundles(128)
	for _, a := range Emotions() {
		for _, b := range Emotions() {
			var dst Bundle
			Blend(&dst, &bundles[a], &bundles[b], 0)
			if !reflect.DeepEqual(dst, bundles[a]) {
				t.Errorf("%v->%v at 0 = %+v, want %+v", a, b, dst, bundles[a])
			}
			Blend(&dst, &bundles[a], &bundles[b], 1)
			if !reflect.DeepEqual(dst, bundles[b]) {
				t.Errorf("%v->%v at 1 = %+v, want %+v", a, b, dst, bundles[b])
			}
		}
	}
}

func TestBlendMidpointShapes(t *testing.T) {
	a := Bundle{UpperShape: []int8{-100, 0, 100}}
	b := Bundle{UpperShape: []int8{100, 20}}
	var dst Bundle
	Blend(&dst, &a, &b, 0.5)
	if want := []int8{0, 10, 50}; !reflect.DeepEqual(dst.UpperShape, want) {
		t.Errorf("UpperShape = %v, want %v", dst.UpperShape, want)
	}
}

func TestCrossFade(t *testing.T) {
	c := newTestController(t, nil)
	bundles := DefaultBundles(c.cfg.Height)

	if !c.SetEmotion(Anger) {
		t.Fatal("SetEmotion(Anger) = false")
	}
	if got := c.Mix(); !reflect.DeepEqual(got, bundles[Neutral]) {
		t.Errorf("mix at fade start differs from Neutral")
	}
	for i := 0; i < 100; i++ {
		c.Tick(tick)
	}
	if got := c.Mix(); !reflect.DeepEqual(got, bundles[Anger]) {
		t.Errorf("mix after fade differs from Anger")
	}
	st := c.State()
	if st.Emotion != Anger || st.PrevEmotion != Neutral || st.Fade != 1 {
		t.Errorf("state = %v/%v fade %v", st.Emotion, st.PrevEmotion, st.Fade)
	}

	left, _ := c.Params(eye.DefaultParams())
	if !left.Tint.Enabled || left.Tint.Color != bundles[Anger].TintColor {
		t.Errorf("tint not carried into params: %+v", left.Tint)
	}
}

func TestSetEmotionRejects(t *testing.T) {
	c := newTestController(t, nil)
	if c.SetEmotion(Neutral) {
		t.Error("SetEmotion to the current emotion should be a no-op")
	}
	if c.SetEmotion(Emotion(42)) {
		t.Error("SetEmotion accepted an unknown emotion")
	}
}

func TestEmotionCycle(t *testing.T) {
	c := newTestController(t, func(cfg *Config) {
		cfg.FixedStep = 250 * time.Millisecond
		cfg.EmotionCycle = time.Second
	})
	var changes []Emotion
	for i := 0; i < 20; i++ {
		if ev := c.Tick(250 * time.Millisecond); ev.EmotionChanged {
			changes = append(changes, ev.Emotion)
		}
	}
	want := []Emotion{Sad, Fear, Anger, Disgust, Neutral}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("cycle = %v, want %v", changes, want)
	}
}

func TestParams(t *testing.T) {
	c := newTestController(t, nil)
	for i := 0; i < 200; i++ {
		c.Tick(tick)
	}
	base := eye.DefaultParams()
	left, right := c.Params(base)
	if left.MirrorEyelids || !right.MirrorEyelids {
		t.Errorf("mirror flags = %v/%v, want false/true", left.MirrorEyelids, right.MirrorEyelids)
	}
	if len(left.UpperShape) != c.cfg.Height || len(left.LowerShape) != c.cfg.Height {
		t.Errorf("shape lengths %d/%d, want %d", len(left.UpperShape), len(left.LowerShape), c.cfg.Height)
	}
	if left.IrisCenterX != right.IrisCenterX || left.EyelidOpen != right.EyelidOpen {
		t.Error("both eyes should share gaze and openness")
	}
	if left.Highlight != base.Highlight {
		t.Error("highlight settings should pass through")
	}
}

func TestPupilRange(t *testing.T) {
	for _, e := range Emotions() {
		c := newTestController(t, nil)
		c.SetEmotion(e)
		for i := 0; i < 3000; i++ {
			c.Tick(tick)
			if p := c.State().Pupil; p < c.cfg.PupilMin || p > c.cfg.PupilMax {
				t.Fatalf("%v: pupil %v outside range", e, p)
			}
		}
	}
}

func TestPupilRetarget(t *testing.T) {
	cfg := DefaultConfig()
	prev := math.Inf(-1)
	for _, frac := range []float64{0, 0.25, 0.5, 0.75, 1} {
		rng := lcg(1)
		var p pupil
		p.retarget(&cfg, frac, &rng)
		if p.target < cfg.PupilTargetMin || p.target > cfg.PupilTargetMax {
			t.Errorf("fraction %v: target %v outside [%v,%v]", frac, p.target, cfg.PupilTargetMin, cfg.PupilTargetMax)
		}
		if p.target <= prev {
			t.Errorf("fraction %v: target %v not above %v", frac, p.target, prev)
		}
		prev = p.target
	}
}

func TestPupilStep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PupilBreathAmp = 0
	tests := []struct {
		name            string
		current, target float64
	}{
		{"dilate", 1.0, 1.3},
		{"constrict", 1.2, 0.8},
		{"settled", 1.1, 1.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pupil{current: tt.current, target: tt.target}
			got := p.step(tick.Seconds(), &cfg, 0)
			want := tt.current + (tt.target-tt.current)*cfg.PupilGain
			if math.Abs(got-want) > 1e-12 || math.Abs(p.current-want) > 1e-12 {
				t.Errorf("step = %v (current %v), want %v", got, p.current, want)
			}
		})
	}
}

func TestSaccadeDuration(t *testing.T) {
	tests := []struct {
		name   string
		mod    func(*Config)
		capped bool
	}{
		{"default", nil, false},
		{"slow per pixel", func(c *Config) { c.SaccadePerPixel = 100 * time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mod != nil {
				tt.mod(&cfg)
			}
			b := newBounds(cfg.Width, cfg.Height, cfg.IrisRadius)
			mix := DefaultBundles(cfg.Height)[Neutral]
			for seed := uint32(1); seed <= 50; seed++ {
				rng := lcg(seed)
				g := gaze{x: b.minX, y: b.minY}
				g.chooseTarget(&cfg, &mix, b, &rng)
				dist := math.Hypot(g.targetX-g.startX, g.targetY-g.startY)
				want := math.Min(cfg.SaccadeBase.Seconds()+cfg.SaccadePerPixel.Seconds()*dist, cfg.SaccadeMax.Seconds())
				if math.Abs(g.sacDur-want) > 1e-12 {
					t.Fatalf("seed %d: duration %v for %v px, want %v", seed, g.sacDur, dist, want)
				}
				if tt.capped && g.sacDur != cfg.SaccadeMax.Seconds() {
					t.Fatalf("seed %d: duration %v, want cap %v", seed, g.sacDur, cfg.SaccadeMax.Seconds())
				}
			}
		})
	}
}

func TestSaccadeSpeed(t *testing.T) {
	cfg := DefaultConfig()
	b := newBounds(cfg.Width, cfg.Height, cfg.IrisRadius)
	bundles := DefaultBundles(cfg.Height)
	dt := tick.Seconds()

	ticksToLand := func(e Emotion) (int, float64) {
		rng := lcg(7)
		mix := bundles[Neutral]
		mix.SaccadeSpeed = bundles[e].SaccadeSpeed
		g := gaze{x: b.minX, y: b.minY, phase: Saccade}
		g.chooseTarget(&cfg, &mix, b, &rng)
		for n := 1; n < 1000; n++ {
			if _, landed := g.step(dt, &cfg, &mix, b, &rng); landed {
				return n, g.sacDur
			}
		}
		t.Fatalf("%v: saccade never landed", e)
		return 0, 0
	}

	var prev int
	for i, e := range []Emotion{Fear, Neutral, Sad} {
		n, dur := ticksToLand(e)
		want := math.Ceil(dur / (dt * bundles[e].SaccadeSpeed))
		if math.Abs(float64(n)-want) > 1 {
			t.Errorf("%v: landed after %d ticks, want about %v", e, n, want)
		}
		if i > 0 && n <= prev {
			t.Errorf("%v: landed after %d ticks, not slower than the previous emotion's %d", e, n, prev)
		}
		prev = n
	}
}

func TestFixationScaleKeepsPupilFraction(t *testing.T) {
	c := newTestController(t, nil)
	c.SetEmotion(Sad)
	lo, hi := c.cfg.FixationMin.Seconds(), c.cfg.FixationMax.Seconds()
	landings, unsaturated := 0, 0
	for i := 0; i < 6000; i++ {
		if c.Tick(tick); c.gaze.phase != Fixation || c.gaze.fixTimer != 0 {
			continue
		}
		landings++
		g := c.gaze
		if g.fixBase < lo || g.fixBase > hi {
			t.Fatalf("tick %d: unscaled fixation %v outside [%v,%v]", i, g.fixBase, lo, hi)
		}
		if math.Abs(g.fixDur-g.fixBase*c.mix.FixationScale) > 1e-12 {
			t.Fatalf("tick %d: fixation %v, want %v scaled by %v", i, g.fixDur, g.fixBase, c.mix.FixationScale)
		}
		if fixationFraction(&c.cfg, g.fixBase) < 1 {
			unsaturated++
		}
	}
	if landings == 0 || unsaturated == 0 {
		t.Fatalf("%d landings, %d with a fraction below 1", landings, unsaturated)
	}
}

func TestDeterministic(t *testing.T) {
	a := newTestController(t, nil)
	b := newTestController(t, nil)
	for i := 0; i < 500; i++ {
		a.Tick(tick)
		b.Tick(tick)
	}
	if a.State() != b.State() {
		t.Error("same seed and ticks should give the same state")
	}
}

func TestParseEmotion(t *testing.T) {
	tests := []struct {
		in      string
		want    Emotion
		wantErr bool
	}{
		{"neutral", Neutral, false},
		{"SAD", Sad, false},
		{"Disgust", Disgust, false},
		{"joy", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEmotion(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseEmotion(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
	b, _ := Fear.MarshalText()
	var e Emotion
	if err := e.UnmarshalText(b); err != nil || e != Fear {
		t.Errorf("text round trip = %v, %v", e, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mod     func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"radius half frame", func(c *Config) { c.IrisRadius = 64 }, true},
		{"negative step", func(c *Config) { c.FixedStep = -time.Millisecond }, true},
		{"inverted fixation", func(c *Config) { c.FixationMax = c.FixationMin / 2 }, true},
		{"no fade", func(c *Config) { c.EmotionFade = 0 }, true},
		{"manual emotions", func(c *Config) { c.EmotionCycle = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
