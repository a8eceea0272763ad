package eye

import (
	"math"

	"github.com/Fortinbra/PicoMonsterEyes/internal/texture"
)

// MaxIrisRadius bounds the lookup tables. Larger radii are clamped.
const MaxIrisRadius = 64

const (
	lutSpan     = 2*MaxIrisRadius + 1
	rsqCapacity = (MaxIrisRadius+1)*(MaxIrisRadius+1) + 1

	// OutsideIris marks angle table entries outside the iris circle.
	OutsideIris = 0xFFFF
)

// Glint falloff curves over normalized distance 0..1 in 256 steps, scaled
// to 0..255. Computed once and never written again.
var (
	primaryCurve   = falloffCurve(func(f float64) float64 { return f * f * (3 - 2*f) })
	secondaryCurve = falloffCurve(func(f float64) float64 { return f * f })
)

func falloffCurve(shape func(float64) float64) (c [256]uint8) {
	for i := range c {
		fall := clamp(1-float64(i)/255, 0, 1)
		c[i] = uint8(shape(fall)*255 + 0.5)
	}
	return c
}

// lut caches everything derived from the iris radius and the glint radii.
// Keys compare with plain float equality, so any change of the radius, even
// below a pixel, rebuilds the tables.
type lut struct {
	irisValid bool
	irisKey   float64
	radius    float64 // clamped
	bound     int     // ceil(radius)
	rsqToRow  [rsqCapacity]uint8
	angleCol  [lutSpan * lutSpan]uint16

	glintValid     bool
	glintKey       [2]float64
	primaryMaxRsq  int
	secondMaxRsq   int
	primaryByRsq   [rsqCapacity]uint8
	secondaryByRsq [rsqCapacity]uint8

	irisBuilds  int
	glintBuilds int
}

func (l *lut) ensureIris(r float64) {
	if l.irisValid && r == l.irisKey {
		return
	}
	l.irisValid = true
	l.irisKey = r
	l.irisBuilds++

	r = clamp(r, 0, MaxIrisRadius)
	l.radius = r
	l.bound = int(math.Ceil(r))

	rows := texture.IrisMapHeight - 1
	for rsq := 0; rsq <= l.bound*l.bound; rsq++ {
		row := 0
		if r > 0 {
			d := math.Min(math.Sqrt(float64(rsq))/r, 1)
			row = int(d*float64(rows) + 0.5)
		}
		l.rsqToRow[rsq] = uint8(clampInt(row, 0, rows))
	}

	cols := texture.IrisMapWidth - 1
	r2 := r * r
	for dy := -l.bound; dy <= l.bound; dy++ {
		for dx := -l.bound; dx <= l.bound; dx++ {
			idx := angleIndex(dx, dy)
			if float64(dx*dx+dy*dy) > r2 {
				l.angleCol[idx] = OutsideIris
				continue
			}
			a := (math.Atan2(float64(dy), float64(dx)) + math.Pi) / (2 * math.Pi)
			l.angleCol[idx] = uint16(clampInt(int(a*float64(cols)+0.5), 0, cols))
		}
	}
}

func (l *lut) ensureGlints(hR, sR float64) {
	hR = clamp(hR, 0, MaxIrisRadius)
	sR = clamp(sR, 0, MaxIrisRadius)
	if l.glintValid && l.glintKey == [2]float64{hR, sR} {
		return
	}
	l.glintValid = true
	l.glintKey = [2]float64{hR, sR}
	l.glintBuilds++

	l.primaryMaxRsq = resample(l.primaryByRsq[:], &primaryCurve, hR)
	l.secondMaxRsq = resample(l.secondaryByRsq[:], &secondaryCurve, sR)
}

// resample projects a normalized curve onto squared pixel distances for a
// glint of radius r and returns the last valid index.
func resample(dst []uint8, curve *[256]uint8, r float64) int {
	bound := int(math.Ceil(r))
	maxRsq := bound * bound
	if r <= 0 {
		dst[0] = 0
		return 0
	}
	for rsq := 0; rsq <= maxRsq; rsq++ {
		d := clamp(math.Sqrt(float64(rsq))/r, 0, 1)
		dst[rsq] = curve[clampInt(int(d*255+0.5), 0, 255)]
	}
	return maxRsq
}

func angleIndex(dx, dy int) int {
	return (dy+MaxIrisRadius)*lutSpan + dx + MaxIrisRadius
}

// row returns the iris map row for a squared distance within the bound.
func (l *lut) row(rsq int) int { return int(l.rsqToRow[rsq]) }

// column returns the iris map column for an offset, or OutsideIris.
func (l *lut) column(dx, dy int) uint16 { return l.angleCol[angleIndex(dx, dy)] }
