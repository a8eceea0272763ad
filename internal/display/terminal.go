package display

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// upperHalf paints the top pixel as foreground and the bottom one as
// background, so every cell shows two pixel rows.
const upperHalf = '▀'

// TerminalOptions places a panel on a shared screen.
type TerminalOptions struct {
	OriginX, OriginY int // cell offset
	Step             int // sample every Step-th pixel; 1 shows all
}

// Terminal renders a panel onto a region of a tcell screen. The screen is
// owned by the caller, who initializes and finalizes it, so two panels can
// share one terminal side by side.
type Terminal struct {
	screen tcell.Screen
	opts   TerminalOptions
	w, h   int
	pixels []rgb565.Color
	logger *slog.Logger
}

func NewTerminal(screen tcell.Screen, w, h int, opts TerminalOptions, logger *slog.Logger) *Terminal {
	if opts.Step < 1 {
		opts.Step = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Terminal{
		screen: screen,
		opts:   opts,
		w:      w,
		h:      h,
		pixels: make([]rgb565.Color, w*h),
		logger: logger,
	}
}

// Cells is the size of the panel on screen.
func (t *Terminal) Cells() (cols, rows int) {
	return t.w / t.opts.Step, t.h / (2 * t.opts.Step)
}

func (t *Terminal) Width() int  { return t.w }
func (t *Terminal) Height() int { return t.h }

func (t *Terminal) Init() error {
	if t.screen == nil {
		return fmt.Errorf("display: terminal has no screen")
	}
	cols, rows := t.Cells()
	sw, sh := t.screen.Size()
	if t.opts.OriginX+cols > sw || t.opts.OriginY+rows > sh {
		t.logger.Warn("terminal smaller than panel, output will be clipped",
			"need", fmt.Sprintf("%dx%d", t.opts.OriginX+cols, t.opts.OriginY+rows),
			"have", fmt.Sprintf("%dx%d", sw, sh))
	}
	return t.Fill(rgb565.Black)
}

func (t *Terminal) Fill(c rgb565.Color) error {
	for i := range t.pixels {
		t.pixels[i] = c
	}
	t.redraw()
	return nil
}

func (t *Terminal) Blit(pixels []rgb565.Color, r Rect) error {
	if err := Check(t.w, t.h, pixels, r); err != nil {
		return err
	}
	for y := 0; y < r.H; y++ {
		dst := (r.Y+y)*t.w + r.X
		copy(t.pixels[dst:dst+r.W], pixels[y*r.W:(y+1)*r.W])
	}
	t.redraw()
	return nil
}

func (t *Terminal) redraw() {
	cols, rows := t.Cells()
	s := t.opts.Step
	for cy := 0; cy < rows; cy++ {
		top := t.pixels[(2*cy*s)*t.w:]
		bottom := t.pixels[((2*cy+1)*s)*t.w:]
		for cx := 0; cx < cols; cx++ {
			style := tcell.StyleDefault.
				Foreground(termColor(top[cx*s])).
				Background(termColor(bottom[cx*s]))
			t.screen.SetContent(t.opts.OriginX+cx, t.opts.OriginY+cy, upperHalf, nil, style)
		}
	}
	t.screen.Show()
}

func termColor(c rgb565.Color) tcell.Color {
	v := c.RGBA8()
	return tcell.NewRGBColor(int32(v.R), int32(v.G), int32(v.B))
}
