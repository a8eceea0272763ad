package anim

import (
	"fmt"
	"math"
	"strings"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// Emotion is one of the expressions the eyes cycle through.
type Emotion int

const (
	Neutral Emotion = iota
	Sad
	Fear
	Anger
	Disgust
	numEmotions
)

var emotionNames = [numEmotions]string{"neutral", "sad", "fear", "anger", "disgust"}

func (e Emotion) String() string {
	if e < 0 || e >= numEmotions {
		return fmt.Sprintf("Emotion(%d)", int(e))
	}
	return emotionNames[e]
}

// Emotions lists every emotion in cycle order.
func Emotions() []Emotion {
	out := make([]Emotion, numEmotions)
	for i := range out {
		out[i] = Emotion(i)
	}
	return out
}

// ParseEmotion accepts an emotion name in any case.
func ParseEmotion(s string) (Emotion, error) {
	for i, n := range emotionNames {
		if strings.EqualFold(s, n) {
			return Emotion(i), nil
		}
	}
	return 0, fmt.Errorf("anim: unknown emotion %q", s)
}

func (e Emotion) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Emotion) UnmarshalText(b []byte) error {
	v, err := ParseEmotion(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Next is the following emotion in the round robin.
func (e Emotion) Next() Emotion { return (e + 1) % numEmotions }

// Bundle is everything an emotion contributes to the animation.
type Bundle struct {
	FixationScale float64 // multiplies fixation durations
	SaccadeSpeed  float64 // multiplies saccade progress
	PupilBias     float64
	EyelidBias    float64 // added to openness
	GazeBiasX     float64 // fractions of the half range
	GazeBiasY     float64
	TintColor     rgb565.Color
	TintStrength  float64
	// Per-row cutoff adjustments, one entry per frame row.
	UpperShape []int8
	LowerShape []int8
}

// Blend interpolates two bundles at t in [0,1] into dst, reusing dst's shape
// buffers when they are large enough. t == 0 gives a and t == 1 gives b.
func Blend(dst, a, b *Bundle, t float64) {
	t = clamp01(t)
	dst.FixationScale = lerp(a.FixationScale, b.FixationScale, t)
	dst.SaccadeSpeed = lerp(a.SaccadeSpeed, b.SaccadeSpeed, t)
	dst.PupilBias = lerp(a.PupilBias, b.PupilBias, t)
	dst.EyelidBias = lerp(a.EyelidBias, b.EyelidBias, t)
	dst.GazeBiasX = lerp(a.GazeBiasX, b.GazeBiasX, t)
	dst.GazeBiasY = lerp(a.GazeBiasY, b.GazeBiasY, t)
	dst.TintColor = rgb565.Mix(a.TintColor, b.TintColor, t)
	dst.TintStrength = lerp(a.TintStrength, b.TintStrength, t)
	dst.UpperShape = blendShape(dst.UpperShape, a.UpperShape, b.UpperShape, t)
	dst.LowerShape = blendShape(dst.LowerShape, a.LowerShape, b.LowerShape, t)
}

func blendShape(dst, a, b []int8, t float64) []int8 {
	n := max(len(a), len(b))
	if cap(dst) < n {
		dst = make([]int8, n)
	}
	dst = dst[:n]
	for i := range dst {
		var av, bv float64
		if i < len(a) {
			av = float64(a[i])
		}
		if i < len(b) {
			bv = float64(b[i])
		}
		dst[i] = int8(clamp(math.Round(lerp(av, bv, t)), math.MinInt8, math.MaxInt8))
	}
	return dst
}

// taper returns a shape with amount at row from fading linearly to 0 at row
// to. Rows outside the band are 0.
func taper(height, from, to int, amount float64) []int8 {
	s := make([]int8, height)
	span := to - from
	for y := range s {
		var f float64
		switch {
		case span > 0 && y >= from && y <= to:
			f = 1 - float64(y-from)/float64(span)
		case span < 0 && y <= from && y >= to:
			f = 1 - float64(from-y)/float64(-span)
		}
		s[y] = int8(clamp(math.Round(amount*f), math.MinInt8, math.MaxInt8))
	}
	return s
}

// DefaultBundles returns one bundle per emotion, indexed by Emotion, with
// shapes sized for height rows.
func DefaultBundles(height int) []Bundle {
	hex := func(s string) rgb565.Color {
		c, err := rgb565.ParseHex(s)
		if err != nil {
			panic(err)
		}
		return c
	}
	third := height / 3
	flat := make([]int8, height)

	b := make([]Bundle, numEmotions)
	b[Neutral] = Bundle{
		FixationScale: 1,
		SaccadeSpeed:  1,
		UpperShape:    flat,
		LowerShape:    flat,
	}
	// Heavy upper lid, eyes drift down.
	b[Sad] = Bundle{
		FixationScale: 1.4,
		SaccadeSpeed:  0.7,
		PupilBias:     -0.1,
		EyelidBias:    -0.15,
		GazeBiasY:     0.35,
		TintColor:     hex("#3050a0"),
		TintStrength:  0.15,
		UpperShape:    taper(height, 0, third, 24),
		LowerShape:    flat,
	}
	// Wide open, darting.
	b[Fear] = Bundle{
		FixationScale: 0.5,
		SaccadeSpeed:  1.5,
		PupilBias:     0.35,
		EyelidBias:    0.1,
		GazeBiasY:     -0.1,
		TintColor:     hex("#c8c8ff"),
		TintStrength:  0.1,
		UpperShape:    taper(height, 0, third, -12),
		LowerShape:    taper(height, height-1, height-1-third, -12),
	}
	// Lowered brow, constricted pupil.
	b[Anger] = Bundle{
		FixationScale: 1.2,
		SaccadeSpeed:  1.2,
		PupilBias:     -0.25,
		EyelidBias:    -0.2,
		TintColor:     hex("#c02010"),
		TintStrength:  0.25,
		UpperShape:    taper(height, 0, height/2, 40),
		LowerShape:    flat,
	}
	// Raised lower lid, glance aside.
	b[Disgust] = Bundle{
		FixationScale: 0.9,
		SaccadeSpeed:  0.9,
		PupilBias:     -0.1,
		EyelidBias:    -0.1,
		GazeBiasX:     0.3,
		GazeBiasY:     0.1,
		TintColor:     hex("#608020"),
		TintStrength:  0.2,
		UpperShape:    flat,
		LowerShape:    taper(height, height-1, height/2, 30),
	}
	return b
}

// emotionState is the round robin and cross-fade progress.
type emotionState struct {
	current, previous Emotion
	timer             float64
	fade              float64 // 0 previous .. 1 current
}

func (s *emotionState) set(e Emotion) {
	s.previous = s.current
	s.current = e
	s.timer = 0
	s.fade = 0
}

// step advances the timers and reports whether the cycle moved on.
func (s *emotionState) step(dt, cycle, fade float64) bool {
	s.timer += dt
	s.fade = clamp01(s.fade + dt/fade)
	if cycle > 0 && s.timer >= cycle {
		s.set(s.current.Next())
		return true
	}
	return false
}
