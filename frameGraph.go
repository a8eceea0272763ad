package main

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"
)

const (
	MAX_FRAME_SAMPLES = 240 // four seconds at 60 fps
	GRAPH_HEIGHT      = 28  // Height in pixels
	GRAPH_BUDGET_MS   = 1000.0 / 60
)

// FrameSample is one render loop iteration.
type FrameSample struct {
	Timestamp time.Time `json:"timestamp"`
	RenderMs  float64   `json:"render_ms"` // render plus blit
	FrameMs   float64   `json:"frame_ms"`  // wall time since the previous frame
}

// FrameData holds the most recent samples, oldest first.
type FrameData struct {
	Samples []FrameSample `json:"samples"`
	mu      sync.RWMutex
}

func newFrameData() *FrameData {
	return &FrameData{Samples: make([]FrameSample, 0, MAX_FRAME_SAMPLES)}
}

func (d *FrameData) record(s FrameSample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Samples) == MAX_FRAME_SAMPLES {
		copy(d.Samples, d.Samples[1:])
		d.Samples = d.Samples[:MAX_FRAME_SAMPLES-1]
	}
	d.Samples = append(d.Samples, s)
}

func (d *FrameData) snapshot() []FrameSample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]FrameSample, len(d.Samples))
	copy(out, d.Samples)
	return out
}

// FrameStats summarizes a snapshot.
type FrameStats struct {
	Samples     int     `json:"samples"`
	AvgRenderMs float64 `json:"avg_render_ms"`
	MaxRenderMs float64 `json:"max_render_ms"`
	FPS         float64 `json:"fps"`
}

func frameStats(samples []FrameSample) FrameStats {
	st := FrameStats{Samples: len(samples)}
	if len(samples) == 0 {
		return st
	}
	var sum float64
	for _, s := range samples {
		sum += s.RenderMs
		st.MaxRenderMs = math.Max(st.MaxRenderMs, s.RenderMs)
	}
	st.AvgRenderMs = sum / float64(len(samples))
	if span := samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp); span > 0 {
		st.FPS = float64(len(samples)-1) / span.Seconds()
	}
	return st
}

// drawFrameGraph draws render times as bars, right-aligned so the newest
// sample is at the right edge. The dashed line marks a 60 fps budget.
func drawFrameGraph(img *image.RGBA, samples []FrameSample, x, y, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	bgColor := color.RGBA{0, 0, 0, 120}
	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			if inside(img, x+dx, y+dy) {
				img.SetRGBA(x+dx, y+dy, blendColors(img.RGBAAt(x+dx, y+dy), bgColor))
			}
		}
	}

	// Scale so the budget line sits at half height unless a sample is slower.
	top := 2 * GRAPH_BUDGET_MS
	for _, s := range samples {
		top = math.Max(top, s.RenderMs)
	}
	budgetY := y + height - 1 - int(float64(height-1)*GRAPH_BUDGET_MS/top)
	for dx := 0; dx < width; dx += 2 {
		if inside(img, x+dx, budgetY) {
			img.SetRGBA(x+dx, budgetY, color.RGBA{128, 128, 128, 255})
		}
	}

	n := min(len(samples), width)
	for i, s := range samples[len(samples)-n:] {
		bx := x + width - n + i
		barH := int(math.Round(float64(height-1) * s.RenderMs / top))
		lineColor := color.RGBA{100, 255, 100, 255} // within budget
		if s.RenderMs > GRAPH_BUDGET_MS {
			lineColor = color.RGBA{255, 100, 100, 255}
		}
		drawLine(img, bx, y+height-1, bx, y+height-1-barH, lineColor)
	}
}

func inside(img *image.RGBA, x, y int) bool {
	return image.Pt(x, y).In(img.Bounds())
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, clr color.RGBA) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		if inside(img, x0, y0) {
			img.SetRGBA(x0, y0, clr)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// blendColors performs alpha blending between two colors
func blendColors(bg, fg color.RGBA) color.RGBA {
	alpha := float64(fg.A) / 255.0
	invAlpha := 1.0 - alpha

	return color.RGBA{
		R: uint8(float64(fg.R)*alpha + float64(bg.R)*invAlpha),
		G: uint8(float64(fg.G)*alpha + float64(bg.G)*invAlpha),
		B: uint8(float64(fg.B)*alpha + float64(bg.B)*invAlpha),
		A: max(bg.A, fg.A),
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
