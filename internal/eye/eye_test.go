package eye

import (
	"math"
	"testing"

	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
	"github.com/Fortinbra/PicoMonsterEyes/internal/texture"
)

// synthetic builds an asset set whose every texel is distinguishable and
// whose lids never cover anything.
func synthetic() *texture.Set {
	s := &texture.Set{
		Sclera: new(texture.Sclera),
		Iris:   new(texture.IrisMap),
		Upper:  new(texture.Eyelid),
		Lower:  new(texture.Eyelid),
	}
	for y := range s.Sclera {
		for x := range s.Sclera[y] {
			s.Sclera[y][x] = rgb565.Pack(x%32, y%64, 7)
		}
	}
	for row := range s.Iris {
		for col := range s.Iris[row] {
			s.Iris[row][col] = rgb565.Pack(row%32, col%64, 29)
		}
	}
	for y := range s.Upper {
		for x := range s.Upper[y] {
			s.Upper[y][x] = 255
			s.Lower[y][x] = 255
		}
	}
	return s
}

func newTestRenderer(t *testing.T, s *texture.Set) *Renderer {
	t.Helper()
	r, err := NewRenderer(s)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func plainParams() Params {
	p := DefaultParams()
	p.Highlight.Enabled = false
	p.Tint.Enabled = false
	return p
}

var testRadii = []float64{0.5, 1, 7.5, 20, 39.9, 40, 63.7, 64, 80}

func TestRadiusRowsMonotonic(t *testing.T) {
	for _, r := range testRadii {
		var l lut
		l.ensureIris(r)
		prev := -1
		for rsq := 0; rsq <= l.bound*l.bound; rsq++ {
			row := l.row(rsq)
			if row < prev {
				t.Fatalf("R=%v: row %d at rsq %d after %d", r, row, rsq, prev)
			}
			if row > texture.IrisMapHeight-1 {
				t.Fatalf("R=%v: row %d past last row", r, row)
			}
			prev = row
		}
	}
}

func TestAngleTableSentinel(t *testing.T) {
	for _, r := range testRadii {
		var l lut
		l.ensureIris(r)
		R := math.Min(r, MaxIrisRadius)
		for dy := -l.bound; dy <= l.bound; dy++ {
			for dx := -l.bound; dx <= l.bound; dx++ {
				col := l.column(dx, dy)
				inside := float64(dx*dx+dy*dy) <= R*R
				switch {
				case !inside && col != OutsideIris:
					t.Fatalf("R=%v: (%d,%d) outside but col %d", r, dx, dy, col)
				case inside && col > texture.IrisMapWidth-1:
					t.Fatalf("R=%v: (%d,%d) inside but col %d", r, dx, dy, col)
				}
			}
		}
	}
}

func TestLUTRebuildsOnlyOnChange(t *testing.T) {
	r := newTestRenderer(t, synthetic())
	frame := NewFrame(FrameWidth, FrameHeight)
	p := DefaultParams()

	r.RenderBase(frame, &p)
	r.RenderBase(frame, &p)
	p.IrisCenterX += 3
	r.RenderBase(frame, &p)
	if iris, glints := r.Rebuilds(); iris != 1 || glints != 1 {
		t.Fatalf("after steady frames: iris=%d glints=%d, want 1,1", iris, glints)
	}

	p.IrisRadius += 1e-9
	r.RenderBase(frame, &p)
	if iris, glints := r.Rebuilds(); iris != 2 || glints != 2 {
		t.Fatalf("after radius jitter: iris=%d glints=%d, want 2,2", iris, glints)
	}

	p.Highlight.SecondaryRadiusFrac = 0.1
	r.RenderBase(frame, &p)
	if iris, glints := r.Rebuilds(); iris != 2 || glints != 3 {
		t.Fatalf("after glint change: iris=%d glints=%d, want 2,3", iris, glints)
	}
}

func TestCutoffMonotonic(t *testing.T) {
	if got := Cutoff(1, 2); got != 2 {
		t.Errorf("Cutoff(open) = %v, want 2", got)
	}
	if got := Cutoff(0, 2); got != 255 {
		t.Errorf("Cutoff(closed) = %v, want 255", got)
	}
	prev := -1.0
	for i := 0; i <= 100; i++ {
		c := Cutoff(1-float64(i)/100, 2)
		if c < prev {
			t.Fatalf("cutoff decreased at closure %d%%: %v < %v", i, c, prev)
		}
		prev = c
	}
	if Cutoff(-3, 2) != 255 || Cutoff(4, 2) != 2 {
		t.Error("Cutoff should clamp the open fraction")
	}
}

func TestRenderOpenEyeSamplesTextures(t *testing.T) {
	tex := synthetic()
	r := newTestRenderer(t, tex)
	p := plainParams()
	frame := NewFrame(FrameWidth, FrameHeight)
	r.Render(frame, &p)

	R := p.IrisRadius
	pupil := p.BasePupilFraction * R
	margin := (texture.ScleraWidth - FrameWidth) / 2
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			dx, dy := x-p.IrisCenterX, y-p.IrisCenterY
			d2 := float64(dx*dx + dy*dy)
			var want rgb565.Color
			switch {
			case d2 > R*R:
				want = tex.Sclera[margin+y][margin+x]
			case d2 <= pupil*pupil:
				want = rgb565.Black
			default:
				row := int(math.Min(math.Sqrt(d2)/R, 1)*63 + 0.5)
				col := int((math.Atan2(float64(dy), float64(dx))+math.Pi)/(2*math.Pi)*255 + 0.5)
				want = tex.Iris[row][col]
			}
			if got := frame[y*FrameWidth+x]; got != want {
				t.Fatalf("pixel (%d,%d) = %#04x, want %#04x", x, y, got, want)
			}
		}
	}
}

func TestScleraParallax(t *testing.T) {
	tex := synthetic()
	r := newTestRenderer(t, tex)
	frame := NewFrame(FrameWidth, FrameHeight)
	margin := (texture.ScleraWidth - FrameWidth) / 2

	tests := []struct {
		name     string
		dx       int
		parallax float64
		wantX0   int
	}{
		{"locked", 10, 0, margin},
		{"full", 10, 1, margin - 10},
		{"half", -10, 0.5, margin + 5},
		{"clamped", 100, 1, 0},
		{"over one", 10, 3, margin - 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plainParams()
			p.IrisRadius = 8
			p.IrisCenterX = FrameWidth/2 + tt.dx
			p.ScleraParallax = tt.parallax
			r.RenderBase(frame, &p)
			if got, want := frame[0], tex.Sclera[margin][tt.wantX0]; got != want {
				t.Errorf("top-left = %#04x, want sclera[%d][%d] = %#04x", got, margin, tt.wantX0, want)
			}
		})
	}
}

func TestHighlightAndTint(t *testing.T) {
	r := newTestRenderer(t, synthetic())
	frame := NewFrame(FrameWidth, FrameHeight)

	p := DefaultParams()
	p.Highlight.Secondary = false
	r.RenderBase(frame, &p)
	gx := p.IrisCenterX + int(p.Highlight.OffsetXFrac*p.IrisRadius)
	gy := p.IrisCenterY + int(p.Highlight.OffsetYFrac*p.IrisRadius)
	if got := frame[gy*FrameWidth+gx]; got != rgb565.White {
		t.Errorf("glint center = %#04x, want white", got)
	}

	p.Highlight.Enabled = false
	r.RenderBase(frame, &p)
	if got := frame[gy*FrameWidth+gx]; got == rgb565.White {
		t.Error("glint painted while disabled")
	}

	p.Tint = Tint{Enabled: true, Color: rgb565.Red, Strength: 1}
	r.RenderBase(frame, &p)
	c := p.IrisCenterY*FrameWidth + p.IrisCenterX
	if frame[c] != rgb565.Red || frame[c+20] != rgb565.Red {
		t.Errorf("full tint left %#04x / %#04x", frame[c], frame[c+20])
	}
	if frame[0] == rgb565.Red {
		t.Error("tint leaked onto the sclera")
	}
}

// rampLids sets upper[y][x] = 2y so the lid edge row is predictable.
func rampLids(s *texture.Set) {
	for y := range s.Upper {
		for x := range s.Upper[y] {
			s.Upper[y][x] = uint8(min(2*y, 255))
		}
	}
}

func TestEyelidBoundaryRow(t *testing.T) {
	tex := synthetic()
	rampLids(tex)
	r := newTestRenderer(t, tex)
	top, bottom := rgb565.Red, rgb565.Blue

	tests := []struct {
		name     string
		open     float64
		upper    int8
		topRows  int // rows 0..topRows-1 get the top color
		allBelow bool
	}{
		{"half open", 0.5, 0, 64, false},
		{"open with shaping", 1, 10, 6, false},
		{"closed", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plainParams()
			p.EyelidOpen = tt.open
			p.EyelidEdgeBase = 0
			p.EyelidColorTop, p.EyelidColorBottom = top, bottom
			if tt.upper != 0 {
				p.UpperShape = make([]int8, FrameHeight)
				for i := range p.UpperShape {
					p.UpperShape[i] = tt.upper
				}
			}
			frame := NewFrame(FrameWidth, FrameHeight)
			r.Render(frame, &p)
			for y := 0; y < FrameHeight; y++ {
				for x := 0; x < FrameWidth; x++ {
					got := frame[y*FrameWidth+x]
					switch {
					case tt.allBelow:
						if got != bottom {
							t.Fatalf("(%d,%d) = %#04x, want bottom lid", x, y, got)
						}
					case y < tt.topRows:
						if got != top {
							t.Fatalf("(%d,%d) = %#04x, want top lid", x, y, got)
						}
					default:
						if got == top || got == bottom {
							t.Fatalf("(%d,%d) covered below the lid edge", x, y)
						}
					}
				}
			}
		})
	}
}

func TestEyelidMirror(t *testing.T) {
	tex := synthetic()
	for y := range tex.Upper {
		for x := 0; x < 10; x++ {
			tex.Upper[y][x] = 0
		}
	}
	r := newTestRenderer(t, tex)
	p := plainParams()
	p.EyelidColorTop = rgb565.Green

	for _, mirror := range []bool{false, true} {
		p.MirrorEyelids = mirror
		frame := NewFrame(FrameWidth, FrameHeight)
		r.Render(frame, &p)
		for x := 0; x < FrameWidth; x++ {
			covered := x < 10
			if mirror {
				covered = x >= FrameWidth-10
			}
			if got := frame[x] == rgb565.Green; got != covered {
				t.Fatalf("mirror=%v: column %d covered=%v, want %v", mirror, x, got, covered)
			}
		}
	}
}

func TestRenderPairKeepsBase(t *testing.T) {
	tex := synthetic()
	rampLids(tex)
	r := newTestRenderer(t, tex)

	lp := plainParams()
	rp := lp
	lp.EyelidOpen = 0
	rp.EyelidOpen = 0.5
	rp.MirrorEyelids = true
	lp.EyelidColorBottom = rgb565.Blue
	rp.EyelidColorTop = rgb565.Red

	want := NewFrame(FrameWidth, FrameHeight)
	r.RenderBase(want, &lp)

	base := NewFrame(FrameWidth, FrameHeight)
	left := NewFrame(FrameWidth, FrameHeight)
	right := NewFrame(FrameWidth, FrameHeight)
	r.RenderPair(base, left, right, &lp, &rp)

	for i := range base {
		if base[i] != want[i] {
			t.Fatalf("base pixel %d changed by the lid pass", i)
		}
	}
	if left[0] != rgb565.Blue {
		t.Errorf("left eye not closed: %#04x", left[0])
	}
	if right[0] != rgb565.Red || right[len(right)-1] == rgb565.Red {
		t.Errorf("right eye lid wrong: top %#04x bottom %#04x", right[0], right[len(right)-1])
	}
}

func TestCheckGeometry(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		r       float64
		wantErr bool
	}{
		{"default", 128, 128, 40, false},
		{"tiny", 16, 16, 7.9, false},
		{"half frame", 128, 128, 64, true},
		{"above ceiling", 128, 128, 65, true},
		{"zero radius", 128, 128, 0, true},
		{"frame too big", 129, 128, 40, true},
		{"empty frame", 0, 128, 40, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckGeometry(tt.w, tt.h, tt.r)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckGeometry(%d,%d,%v) error = %v, wantErr %v", tt.w, tt.h, tt.r, err, tt.wantErr)
			}
		})
	}
}

func TestShortFrameIsClamped(t *testing.T) {
	r := newTestRenderer(t, synthetic())
	p := DefaultParams()
	frame := NewFrame(FrameWidth, 10)
	r.Render(frame, &p) // must not index past the buffer
}
