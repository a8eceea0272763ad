package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// sweep is a sine whose frequency glides linearly from f0 to f1.
type sweep struct {
	f0, f1   float64
	phase    float64
	pos, len int
	rate     beep.SampleRate
}

func newSweep(f0, f1 float64, d time.Duration, rate beep.SampleRate) *sweep {
	return &sweep{f0: f0, f1: f1, len: rate.N(d), rate: rate}
}

func (s *sweep) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if s.pos >= s.len {
			return i, i > 0
		}
		v := math.Sin(2 * math.Pi * s.phase)
		samples[i][0], samples[i][1] = v, v
		f := s.f0 + (s.f1-s.f0)*float64(s.pos)/float64(s.len)
		s.phase += f / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// envelope fades a stream in over attack samples and out over the last
// release samples of total.
type envelope struct {
	s                      beep.Streamer
	pos                    int
	attack, release, total int
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.attack > 0 && e.pos < e.attack {
			vol = float64(e.pos) / float64(e.attack)
		}
		if left := e.total - e.pos; e.release > 0 && left < e.release {
			vol = math.Max(float64(left)/float64(e.release), 0)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.s.Err() }

func tone(f0, f1 float64, d, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		s:       newSweep(f0, f1, d, rate),
		attack:  rate.N(attack),
		release: rate.N(release),
		total:   rate.N(d),
	}
}

// Render drains s into mono 16-bit PCM, at most limit samples.
func Render(s beep.Streamer, limit int) []int16 {
	out := make([]int16, 0, limit)
	buf := make([][2]float64, 512)
	for len(out) < limit {
		n, ok := s.Stream(buf[:min(len(buf), limit-len(out))])
		for _, smp := range buf[:n] {
			v := math.Max(-1, math.Min(1, smp[0]))
			out = append(out, int16(math.Round(v*32767)))
		}
		if !ok || n == 0 {
			break
		}
	}
	return out
}

// BlinkCue is a soft falling chirp, about 60 ms.
func BlinkCue(sampleRate int) []int16 {
	rate := beep.SampleRate(sampleRate)
	d := 60 * time.Millisecond
	s := &effects.Volume{
		Streamer: tone(900, 500, d, 5*time.Millisecond, 40*time.Millisecond, rate),
		Base:     2,
		Volume:   -2,
	}
	return Render(s, rate.N(d))
}

// EmotionCue is a two note figure, rising or falling.
func EmotionCue(sampleRate int, rising bool) ([]int16, error) {
	rate := beep.SampleRate(sampleRate)
	lo, hi := 440.0, 660.0
	if !rising {
		lo, hi = hi, lo
	}
	note := rate.N(90 * time.Millisecond)
	env := rate.N(10 * time.Millisecond)
	var notes []beep.Streamer
	for _, f := range []float64{lo, hi} {
		sine, err := generators.SineTone(rate, f)
		if err != nil {
			return nil, fmt.Errorf("audio: tone %.0f Hz: %w", f, err)
		}
		notes = append(notes, &envelope{
			s:       beep.Take(note, sine),
			attack:  env,
			release: 3 * env,
			total:   note,
		})
	}
	s := &effects.Volume{Streamer: beep.Seq(notes...), Base: 2, Volume: -2.5}
	return Render(s, 2*note), nil
}
