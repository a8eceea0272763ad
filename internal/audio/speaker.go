package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Ring is a bounded PCM queue that plays as a beep.Streamer. It emits
// silence when empty so the speaker keeps pulling from it.
type Ring struct {
	mu   sync.Mutex
	buf  []int16
	head int // next read
	n    int // queued samples
}

func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]int16, capacity)}
}

// Write queues as many samples as fit.
func (r *Ring) Write(p []int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	free := len(r.buf) - r.n
	k := min(free, len(p))
	for i := 0; i < k; i++ {
		r.buf[(r.head+r.n+i)%len(r.buf)] = p[i]
	}
	r.n += k
	return k
}

// Len is the number of queued samples.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Stream implements beep.Streamer.
func (r *Ring) Stream(samples [][2]float64) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range samples {
		var v float64
		if r.n > 0 {
			v = float64(r.buf[r.head]) / 32768
			r.head = (r.head + 1) % len(r.buf)
			r.n--
		}
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (r *Ring) Err() error { return nil }

// Speaker plays through the host sound card.
type Speaker struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	ring    *Ring
	playing bool
	logger  *slog.Logger
}

func NewSpeaker(logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Speaker{logger: logger}
}

// Init opens the sound card with a 100 ms device buffer and a one second
// queue.
func (s *Speaker) Init(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("audio: bad sample rate %d", sampleRate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = beep.SampleRate(sampleRate)
	if err := speaker.Init(s.rate, s.rate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("audio: speaker: %w", err)
	}
	s.ring = NewRing(s.rate.N(time.Second))
	s.logger.Info("audio: speaker ready", "rate", sampleRate)
	return nil
}

func (s *Speaker) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ring == nil {
		return errors.New("audio: speaker not initialized")
	}
	if !s.playing {
		speaker.Play(s.ring)
		s.playing = true
	}
	return nil
}

func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		speaker.Clear()
		s.playing = false
	}
}

func (s *Speaker) WriteSamples(samples []int16) int {
	s.mu.Lock()
	ring := s.ring
	s.mu.Unlock()
	if ring == nil {
		return 0
	}
	n := ring.Write(samples)
	if n < len(samples) {
		s.logger.Debug("audio: queue full", "dropped", len(samples)-n)
	}
	return n
}
