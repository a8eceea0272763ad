package eye

import (
	"errors"
	"fmt"
	"math"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
	"github.com/Fortinbra/PicoMonsterEyes/internal/texture"
)

// Renderer owns the lookup tables for one render pipeline. It is not safe for
// concurrent use; give each goroutine its own Renderer.
type Renderer struct {
	tex *texture.Set
	lut lut
}

// NewRenderer binds a renderer to an asset set.
func NewRenderer(tex *texture.Set) (*Renderer, error) {
	if err := tex.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{tex: tex}, nil
}

// CheckGeometry rejects frame and iris sizes the renderer cannot honor: a
// frame larger than the eyelid maps, or an iris that cannot fit inside the
// frame or the lookup tables.
func CheckGeometry(width, height int, irisRadius float64) error {
	switch {
	case width <= 0 || height <= 0:
		return fmt.Errorf("eye: bad frame size %dx%d", width, height)
	case width > texture.EyelidWidth || height > texture.EyelidHeight:
		return fmt.Errorf("eye: frame %dx%d exceeds eyelid maps %dx%d",
			width, height, texture.EyelidWidth, texture.EyelidHeight)
	case irisRadius <= 0:
		return errors.New("eye: iris radius must be positive")
	case irisRadius > MaxIrisRadius:
		return fmt.Errorf("eye: iris radius %.1f exceeds ceiling %d", irisRadius, MaxIrisRadius)
	case 2*irisRadius >= float64(min(width, height)):
		return fmt.Errorf("eye: iris radius %.1f does not fit a %dx%d frame", irisRadius, width, height)
	}
	return nil
}

// NewFrame allocates a row-major frame.
func NewFrame(width, height int) []rgb565.Color {
	return make([]rgb565.Color, width*height)
}

// Rebuilds reports how many times the iris and glint tables were built.
func (r *Renderer) Rebuilds() (iris, glints int) {
	return r.lut.irisBuilds, r.lut.glintBuilds
}

// geometry clamps the frame size to what the textures and the buffer can
// serve.
func geometry(frame []rgb565.Color, p *Params) (w, h int) {
	w = clampInt(p.Width, 0, texture.EyelidWidth)
	h = clampInt(p.Height, 0, texture.EyelidHeight)
	if w == 0 {
		return 0, 0
	}
	h = min(h, len(frame)/w)
	return w, h
}

// Render runs both passes into frame.
func (r *Renderer) Render(frame []rgb565.Color, p *Params) {
	r.RenderBase(frame, p)
	r.ApplyEyelids(frame, p)
}

// RenderBase paints everything except the eyelids: the sclera window, the
// iris and pupil, the glints and the tint.
func (r *Renderer) RenderBase(frame []rgb565.Color, p *Params) {
	w, h := geometry(frame, p)
	if w == 0 || h == 0 {
		return
	}
	r.paintSclera(frame, p, w, h)
	r.paintIris(frame, p, w, h)
}

func (r *Renderer) paintSclera(frame []rgb565.Color, p *Params, w, h int) {
	marginX := (texture.ScleraWidth - w) / 2
	marginY := (texture.ScleraHeight - h) / 2
	relX := p.IrisCenterX - w/2
	relY := p.IrisCenterY - h/2
	parallax := clamp(p.ScleraParallax, 0, 1)

	// The window moves against the iris so the white appears to roll with it.
	x0 := marginX + int(math.Round(-float64(relX)*parallax))
	y0 := marginY + int(math.Round(-float64(relY)*parallax))
	x0 = clampInt(x0, 0, texture.ScleraWidth-w)
	y0 = clampInt(y0, 0, texture.ScleraHeight-h)

	for y := 0; y < h; y++ {
		copy(frame[y*w:(y+1)*w], r.tex.Sclera[y0+y][x0:x0+w])
	}
}

func (r *Renderer) paintIris(frame []rgb565.Color, p *Params, w, h int) {
	l := &r.lut
	l.ensureIris(p.IrisRadius)
	R := l.radius
	R2 := R * R
	bound := l.bound

	pupilR := clamp(p.BasePupilFraction, 0, 1) * R * clamp(p.PupilScale, 0.1, 2)
	pupilR2 := pupilR * pupilR

	hl := &p.Highlight
	strength := clamp(hl.Strength, 0, 1)
	doGlint := hl.Enabled && strength > 0
	doSecond := doGlint && hl.Secondary

	hR := clamp(hl.RadiusFrac, 0, 1) * R
	sR := clamp(hl.SecondaryRadiusFrac, 0, 1) * R
	l.ensureGlints(hR, sR)
	hR2, sR2 := l.glintKey[0]*l.glintKey[0], l.glintKey[1]*l.glintKey[1]
	hx, hy := hl.OffsetXFrac*R, hl.OffsetYFrac*R
	sx, sy := hx*hl.SecondaryOffsetScale, hy*hl.SecondaryOffsetScale

	tint := 0.0
	if p.Tint.Enabled && p.Tint.Strength > 0 {
		tint = clamp(p.Tint.Strength, 0, 1)
	}

	for dy := -bound; dy <= bound; dy++ {
		fy := p.IrisCenterY + dy
		if fy < 0 || fy >= h {
			continue
		}
		row := frame[fy*w : (fy+1)*w]
		for dx := -bound; dx <= bound; dx++ {
			fx := p.IrisCenterX + dx
			if fx < 0 || fx >= w {
				continue
			}
			rsq := dx*dx + dy*dy
			if float64(rsq) > R2 {
				continue
			}

			inPupil := float64(rsq) <= pupilR2
			var c rgb565.Color
			if inPupil {
				c = rgb565.Black
			} else {
				col := l.column(dx, dy)
				if col == OutsideIris {
					continue
				}
				c = r.tex.Iris[l.row(rsq)][col]
			}

			if doGlint && (hl.OverPupil || !inPupil) {
				blend := 0.0
				if d2 := sq(float64(dx)-hx) + sq(float64(dy)-hy); hR2 > 0 && d2 < hR2 {
					i := clampInt(int(d2+0.5), 0, l.primaryMaxRsq)
					blend = float64(l.primaryByRsq[i]) / 255 * strength
				}
				if doSecond {
					if d2 := sq(float64(dx)-sx) + sq(float64(dy)-sy); sR2 > 0 && d2 < sR2 {
						i := clampInt(int(d2+0.5), 0, l.secondMaxRsq)
						blend = math.Max(blend, float64(l.secondaryByRsq[i])/255*strength)
					}
				}
				if blend > 0 {
					c = rgb565.Lerp(c, hl.Color, blend)
				}
			}

			if tint > 0 {
				c = rgb565.Lerp(c, p.Tint.Color, tint)
			}
			row[fx] = c
		}
	}
}

func sq(v float64) float64 { return v * v }
