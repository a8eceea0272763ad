package eye

import (
	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

const maxCoverage = 255

// Cutoff is the lid cutoff for an open fraction before any per-row shaping:
// edge when fully open, maxCoverage when closed.
func Cutoff(open float64, edge uint8) float64 {
	base := float64(edge)
	return base + (1-clamp(open, 0, 1))*(maxCoverage-base)
}

// rowCutoff adds the per-row shape adjustments to the cutoff.
func rowCutoff(cutoff float64, p *Params, y int) float64 {
	if y < len(p.UpperShape) {
		cutoff += float64(p.UpperShape[y])
	}
	if y < len(p.LowerShape) {
		cutoff += float64(p.LowerShape[y])
	}
	return clamp(cutoff, 0, maxCoverage)
}

// ApplyEyelids paints lid colors over the pixels whose threshold is at or
// below the row cutoff. Pixels outside both lids are left as they are.
func (r *Renderer) ApplyEyelids(frame []rgb565.Color, p *Params) {
	w, h := geometry(frame, p)
	if w == 0 || h == 0 {
		return
	}
	upper, lower := r.tex.Upper, r.tex.Lower
	top, bottom := p.EyelidColorTop, p.EyelidColorBottom
	cutoff := Cutoff(p.EyelidOpen, p.EyelidEdgeBase)

	for y := 0; y < h; y++ {
		c := rowCutoff(cutoff, p, y)
		row := frame[y*w : (y+1)*w]
		for x := range row {
			mx := x
			if p.MirrorEyelids {
				mx = w - 1 - x
			}
			coverTop := float64(upper[y][mx]) <= c
			coverBottom := float64(lower[y][mx]) <= c
			switch {
			case coverBottom:
				row[x] = bottom
			case coverTop:
				row[x] = top
			}
		}
	}
}

// RenderPair renders the shared base pass once into base using left's gaze
// and glint settings, then composites each eye's lids onto its own copy.
// base is not modified by the lid passes.
func (r *Renderer) RenderPair(base, left, right []rgb565.Color, lp, rp *Params) {
	r.RenderBase(base, lp)
	copy(left, base)
	copy(right, base)
	r.ApplyEyelids(left, lp)
	r.ApplyEyelids(right, rp)
}
