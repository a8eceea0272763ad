package display

import (
	"errors"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// Tee mirrors every call to all of its panels. Its size is the first
// panel's; every panel gets the same calls and errors are joined.
type Tee []Display

func (t Tee) Init() error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.Init())
	}
	return errors.Join(errs...)
}

func (t Tee) Fill(c rgb565.Color) error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.Fill(c))
	}
	return errors.Join(errs...)
}

func (t Tee) Blit(pixels []rgb565.Color, r Rect) error {
	var errs []error
	for _, d := range t {
		errs = append(errs, d.Blit(pixels, r))
	}
	return errors.Join(errs...)
}

func (t Tee) Width() int {
	if len(t) == 0 {
		return 0
	}
	return t[0].Width()
}

func (t Tee) Height() int {
	if len(t) == 0 {
		return 0
	}
	return t[0].Height()
}
