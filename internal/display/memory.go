package display

import (
	"image"
	"sync"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// Memory is a panel backed by a pixel buffer. It is safe to read from other
// goroutines while the render loop blits into it.
type Memory struct {
	mu     sync.RWMutex
	w, h   int
	pixels []rgb565.Color
	frames int
}

func NewMemory(w, h int) *Memory {
	return &Memory{w: w, h: h, pixels: make([]rgb565.Color, w*h)}
}

func (m *Memory) Init() error { return m.Fill(rgb565.Black) }

func (m *Memory) Width() int  { return m.w }
func (m *Memory) Height() int { return m.h }

func (m *Memory) Fill(c rgb565.Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pixels {
		m.pixels[i] = c
	}
	m.frames++
	return nil
}

func (m *Memory) Blit(pixels []rgb565.Color, r Rect) error {
	if err := Check(m.w, m.h, pixels, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for y := 0; y < r.H; y++ {
		dst := (r.Y+y)*m.w + r.X
		copy(m.pixels[dst:dst+r.W], pixels[y*r.W:(y+1)*r.W])
	}
	m.frames++
	return nil
}

// Snapshot copies the current contents.
func (m *Memory) Snapshot() []rgb565.Color {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]rgb565.Color(nil), m.pixels...)
}

// Frames counts fills and blits so far.
func (m *Memory) Frames() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// Image converts the current contents to 8-bit RGBA.
func (m *Memory) Image() *image.RGBA {
	return ToImage(m.Snapshot(), m.w, m.h)
}

// ToImage expands a row-major RGB565 frame.
func ToImage(pixels []rgb565.Color, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, pixels[y*w+x].RGBA8())
		}
	}
	return img
}
