package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/llgcode/draw2d/draw2dimg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Fortinbra/PicoMonsterEyes/internal/anim"
)

const (
	PREVIEW_GAP    = 8
	PREVIEW_MARGIN = 6
)

var (
	PREVIEW_BG     = color.RGBA{24, 24, 24, 255}
	PREVIEW_TEXT   = color.RGBA{255, 229, 0, 255}
	PREVIEW_LABEL  = color.RGBA{0, 0, 0, 160}
	PREVIEW_TARGET = color.RGBA{226, 72, 38, 255}
)

// drawText draws a string onto an *image.RGBA at (x,y) using the specified font face and color.
func drawText(img *image.RGBA, text string, posX, posY int, face font.Face, clr color.Color, center bool) (finishX, finishY int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
	}
	metrics := face.Metrics()
	textWidth := d.MeasureString(text).Round()

	x := posX
	if center {
		x = posX - textWidth/2
	}
	y := posY + metrics.Ascent.Round()
	d.Dot = fixed.P(x, y)
	d.DrawString(text)

	return x + textWidth, posY + metrics.Ascent.Round() + metrics.Descent.Round()
}

// upscale copies src into dst's rectangle r with nearest-neighbour
// sampling, which keeps panel pixels crisp.
func upscale(dst *image.RGBA, r image.Rectangle, src image.Image) {
	draw.NearestNeighbor.Scale(dst, r, src, src.Bounds(), draw.Src, nil)
}

// drawRoundedRect traces a closed path; angles are radians.
func drawRoundedRect(gc *draw2dimg.GraphicContext, x, y, w, h, r float64) {
	gc.MoveTo(x+r, y)
	gc.LineTo(x+w-r, y)
	gc.ArcTo(x+w-r, y+r, r, r, -math.Pi/2, math.Pi/2)
	gc.LineTo(x+w, y+h-r)
	gc.ArcTo(x+w-r, y+h-r, r, r, 0, math.Pi/2)
	gc.LineTo(x+r, y+h)
	gc.ArcTo(x+r, y+h-r, r, r, math.Pi/2, math.Pi/2)
	gc.LineTo(x, y+r)
	gc.ArcTo(x+r, y+r, r, r, math.Pi, math.Pi/2)
	gc.Close()
}

// drawLabel writes text on a translucent rounded plate.
func drawLabel(img *image.RGBA, text string, x, y int) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Round()
	h := face.Metrics().Ascent.Round() + face.Metrics().Descent.Round()

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(PREVIEW_LABEL)
	drawRoundedRect(gc, float64(x-3), float64(y-1), float64(w+6), float64(h+2), 3)
	gc.Fill()
	drawText(img, text, x, y, face, PREVIEW_TEXT, false)
}

// drawTarget marks the gaze target with a small cross.
func drawTarget(img *image.RGBA, x, y int) {
	drawLine(img, x-3, y, x+3, y, PREVIEW_TARGET)
	drawLine(img, x, y-3, x, y+3, PREVIEW_TARGET)
}

// renderPreview lays both panels side by side at the given scale with the
// controller state and frame graph underneath.
func renderPreview(left, right image.Image, st anim.State, samples []FrameSample, scale int, overlay bool) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	lw, lh := left.Bounds().Dx()*scale, left.Bounds().Dy()*scale
	rw, rh := right.Bounds().Dx()*scale, right.Bounds().Dy()*scale
	width := PREVIEW_MARGIN*2 + lw + PREVIEW_GAP + rw
	height := PREVIEW_MARGIN*2 + max(lh, rh)
	if overlay {
		height += 2*13 + GRAPH_HEIGHT + 3*PREVIEW_MARGIN
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{PREVIEW_BG}, image.Point{}, draw.Src)

	lr := image.Rect(PREVIEW_MARGIN, PREVIEW_MARGIN, PREVIEW_MARGIN+lw, PREVIEW_MARGIN+lh)
	rr := image.Rect(lr.Max.X+PREVIEW_GAP, PREVIEW_MARGIN, lr.Max.X+PREVIEW_GAP+rw, PREVIEW_MARGIN+rh)
	upscale(img, lr, left)
	upscale(img, rr, right)
	if !overlay {
		return img
	}

	for _, r := range []image.Rectangle{lr, rr} {
		drawTarget(img, r.Min.X+int(st.TargetX)*scale, r.Min.Y+int(st.TargetY)*scale)
	}

	y := max(lr.Max.Y, rr.Max.Y) + PREVIEW_MARGIN
	emotion := st.Emotion.String()
	if st.Fade < 1 {
		emotion = fmt.Sprintf("%s>%s %.0f%%", st.PrevEmotion, st.Emotion, st.Fade*100)
	}
	drawLabel(img, fmt.Sprintf("%s  blink:%s  gaze:%s", emotion, st.BlinkName, st.GazeName), PREVIEW_MARGIN+3, y)
	y += 13 + PREVIEW_MARGIN/2

	stats := frameStats(samples)
	drawLabel(img, fmt.Sprintf("t=%.1fs  %.0f fps  render %.2f/%.2f ms",
		st.Clock, stats.FPS, stats.AvgRenderMs, stats.MaxRenderMs), PREVIEW_MARGIN+3, y)
	y += 13 + PREVIEW_MARGIN

	drawFrameGraph(img, samples, PREVIEW_MARGIN, y, min(width-2*PREVIEW_MARGIN, MAX_FRAME_SAMPLES), GRAPH_HEIGHT)
	return img
}

func saveFrameToPng(frame image.Image, filename string) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(outFile, frame); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}
