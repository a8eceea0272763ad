package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	svg "github.com/ajstarks/svgo"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// GenerateOptions tunes the procedural asset set.
type GenerateOptions struct {
	IrisInner string // hex color at the pupil edge
	IrisOuter string // hex color at the limbus
	Seed      int64
}

// DefaultGenerateOptions is a hazel iris.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		IrisInner: "#c8a040",
		IrisOuter: "#3c6e28",
		Seed:      1,
	}
}

// Generate builds a complete asset set without any files: an SVG-authored
// sclera with drawn veins, a fibrous iris map and analytic eyelid maps.
func Generate(opts GenerateOptions) (*Set, error) {
	inner, err := colorful.Hex(opts.IrisInner)
	if err != nil {
		return nil, fmt.Errorf("texture: iris inner color: %w", err)
	}
	outer, err := colorful.Hex(opts.IrisOuter)
	if err != nil {
		return nil, fmt.Errorf("texture: iris outer color: %w", err)
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	scleraImg, err := rasterizeSclera()
	if err != nil {
		return nil, err
	}
	drawVeins(scleraImg, rng)

	s := &Set{
		Sclera: new(Sclera),
		Iris:   new(IrisMap),
		Upper:  new(Eyelid),
		Lower:  new(Eyelid),
	}
	for y := 0; y < ScleraHeight; y++ {
		for x := 0; x < ScleraWidth; x++ {
			c := scleraImg.RGBAAt(x, y)
			s.Sclera[y][x] = rgb565.FromRGB(c.R, c.G, c.B)
		}
	}

	irisImg := paintIris(inner, outer, rng)
	for y := 0; y < IrisMapHeight; y++ {
		for x := 0; x < IrisMapWidth; x++ {
			c := irisImg.RGBAAt(x, y)
			s.Iris[y][x] = rgb565.FromRGB(c.R, c.G, c.B)
		}
	}

	fillEyelids(s.Upper, s.Lower)
	return s, nil
}

// scleraSVG authors the sclera background: a warm radial falloff toward the
// corners of the eyeball.
func scleraSVG() []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(ScleraWidth, ScleraHeight)
	canvas.Def()
	canvas.RadialGradient("ball", 50, 50, 70, 45, 45, []svg.Offcolor{
		{Offset: 0, Color: "#fbf7f2", Opacity: 1},
		{Offset: 70, Color: "#efe2d8", Opacity: 1},
		{Offset: 100, Color: "#c99a8c", Opacity: 1},
	})
	canvas.DefEnd()
	canvas.Rect(0, 0, ScleraWidth, ScleraHeight, `fill="url(#ball)"`)
	canvas.End()
	return buf.Bytes()
}

func rasterizeSclera() (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(scleraSVG()))
	if err != nil {
		return nil, fmt.Errorf("texture: sclera svg: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, ScleraWidth, ScleraHeight))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	icon.SetTarget(0, 0, ScleraWidth, ScleraHeight)
	scanner := rasterx.NewScannerGV(ScleraWidth, ScleraHeight, img, img.Bounds())
	dasher := rasterx.NewDasher(ScleraWidth, ScleraHeight, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}

// drawVeins strokes thin curved capillaries entering from the edges.
func drawVeins(img *image.RGBA, rng *rand.Rand) {
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(color.RGBA{R: 186, G: 60, B: 60, A: 90})
	gc.SetLineWidth(0.8)

	const cx, cy = ScleraWidth / 2, ScleraHeight / 2
	for i := 0; i < 14; i++ {
		ang := rng.Float64() * 2 * math.Pi
		r0 := float64(ScleraWidth) * 0.72
		r1 := float64(ScleraWidth) * (0.3 + rng.Float64()*0.15)
		x0, y0 := cx+math.Cos(ang)*r0, cy+math.Sin(ang)*r0
		x1, y1 := cx+math.Cos(ang)*r1, cy+math.Sin(ang)*r1
		bend := (rng.Float64() - 0.5) * 0.6
		mx := cx + math.Cos(ang+bend)*(r0+r1)/2
		my := cy + math.Sin(ang+bend)*(r0+r1)/2
		gc.MoveTo(x0, y0)
		gc.QuadCurveTo(mx, my, x1, y1)
		gc.Stroke()
	}
}

// paintIris fills the polar map: rows blend from inner to outer color, columns
// carry radial fibres, the outermost rows form a dark limbal ring.
func paintIris(inner, outer colorful.Color, rng *rand.Rand) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, IrisMapWidth, IrisMapHeight))
	phase := rng.Float64() * 2 * math.Pi
	for y := 0; y < IrisMapHeight; y++ {
		t := float64(y) / float64(IrisMapHeight-1)
		base := inner.BlendHcl(outer, t).Clamped()
		for x := 0; x < IrisMapWidth; x++ {
			a := float64(x) / float64(IrisMapWidth) * 2 * math.Pi
			fibre := 1 + 0.10*math.Sin(a*23+phase) + 0.06*math.Sin(a*61+2*phase)
			c := colorful.Color{R: base.R * fibre, G: base.G * fibre, B: base.B * fibre}.Clamped()
			r, g, b := c.RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xFF})
		}
	}

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetStrokeColor(color.RGBA{A: 70})
	gc.SetLineWidth(1)
	for i := 0; i < 40; i++ {
		x := rng.Float64() * IrisMapWidth
		y0 := float64(IrisMapHeight) * (0.15 + rng.Float64()*0.3)
		gc.MoveTo(x, y0)
		gc.LineTo(x, y0+float64(IrisMapHeight)*0.35)
		gc.Stroke()
	}
	gc.SetStrokeColor(color.RGBA{R: 20, G: 24, B: 16, A: 200})
	gc.SetLineWidth(5)
	gc.MoveTo(0, IrisMapHeight-2.5)
	gc.LineTo(IrisMapWidth, IrisMapHeight-2.5)
	gc.Stroke()
	return img
}

// fillEyelids writes threshold maps for lids that meet along a slightly
// tilted line, so mirroring the maps matters for the second eye.
func fillEyelids(upper, lower *Eyelid) {
	for x := 0; x < EyelidWidth; x++ {
		u := (float64(x) - EyelidWidth/2) / (EyelidWidth / 2)
		top := 14 + 16*u*u
		bot := 114 - 12*u*u
		meet := EyelidHeight/2 + 6*u
		for y := 0; y < EyelidHeight; y++ {
			fy := float64(y)
			upper[y][x] = ramp(fy-top, meet-top)
			lower[y][x] = ramp(bot-fy, bot-meet)
		}
	}
}

// ramp maps d in [0,span] to [0,255]; negative d is 0 (always covered once
// the lid is at rest), d beyond span is 255 (covered only when closed).
func ramp(d, span float64) uint8 {
	if d <= 0 {
		return 0
	}
	if d >= span {
		return 255
	}
	return uint8(255*d/span + 0.5)
}
