// Package display is the panel abstraction the render loop draws through.
// Concrete panels implement Display; the loop only sees the interface.
package display

import (
	"errors"
	"fmt"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// ErrBounds is returned for a rectangle outside the addressable area or a
// pixel buffer too small for it.
var ErrBounds = errors.New("display: rectangle out of bounds")

// Rect is a blit target: origin plus size in pixels.
type Rect struct {
	X, Y, W, H int
}

// Full is the rectangle covering a whole w x h panel.
func Full(w, h int) Rect { return Rect{W: w, H: h} }

// Display is one RGB565 panel.
type Display interface {
	Init() error
	Fill(c rgb565.Color) error
	// Blit writes a row-major buffer of r.W*r.H pixels into r.
	Blit(pixels []rgb565.Color, r Rect) error
	Width() int
	Height() int
}

// Check validates a blit request against a w x h panel.
func Check(w, h int, pixels []rgb565.Color, r Rect) error {
	if r.X < 0 || r.Y < 0 || r.W < 0 || r.H < 0 || r.X+r.W > w || r.Y+r.H > h {
		return fmt.Errorf("%w: %+v on %dx%d", ErrBounds, r, w, h)
	}
	if len(pixels) < r.W*r.H {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrBounds, len(pixels), r.W, r.H)
	}
	return nil
}

// Pair is the left and right eye panels.
type Pair struct {
	Left, Right Display
}

// Init brings up both panels, left first.
func (p Pair) Init() error {
	if err := p.Left.Init(); err != nil {
		return fmt.Errorf("left display: %w", err)
	}
	if err := p.Right.Init(); err != nil {
		return fmt.Errorf("right display: %w", err)
	}
	return nil
}

// Fill paints each panel a solid color, useful as a wiring test pattern.
func (p Pair) Fill(left, right rgb565.Color) error {
	if err := p.Left.Fill(left); err != nil {
		return fmt.Errorf("left display: %w", err)
	}
	if err := p.Right.Fill(right); err != nil {
		return fmt.Errorf("right display: %w", err)
	}
	return nil
}

// Blit sends full frames to both panels. Both are attempted even if the
// first fails.
func (p Pair) Blit(left, right []rgb565.Color) error {
	errL := p.Left.Blit(left, Full(p.Left.Width(), p.Left.Height()))
	errR := p.Right.Blit(right, Full(p.Right.Width(), p.Right.Height()))
	if errL != nil {
		errL = fmt.Errorf("left display: %w", errL)
	}
	if errR != nil {
		errR = fmt.Errorf("right display: %w", errR)
	}
	return errors.Join(errL, errR)
}
