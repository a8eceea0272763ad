// Package rgb565 holds the packed 16-bit pixel format the eye panels use.
//
// A Color stores red in bits 15..11, green in bits 10..5 and blue in bits
// 4..0. Blending always works on the three sub-fields independently at their
// native widths (5/6/5 bits); the packed integer is never blended as a whole.
package rgb565

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is one packed RGB565 pixel.
type Color uint16

const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// Pack builds a Color from raw 5/6/5-bit channel values. Out-of-range
// channel values are masked.
func Pack(r5, g6, b5 int) Color {
	return Color((r5&0x1F)<<11 | (g6&0x3F)<<5 | b5&0x1F)
}

// Split returns the raw 5/6/5-bit channel values.
func (c Color) Split() (r5, g6, b5 int) {
	return int(c>>11) & 0x1F, int(c>>5) & 0x3F, int(c) & 0x1F
}

// FromRGB converts 8-bit channels, dropping the low bits.
func FromRGB(r, g, b uint8) Color {
	return Pack(int(r>>3), int(g>>2), int(b>>3))
}

// RGBA8 expands the color to 8-bit channels with bit replication, so that
// White maps to 255,255,255.
func (c Color) RGBA8() color.RGBA {
	r5, g6, b5 := c.Split()
	return color.RGBA{
		R: uint8(r5<<3 | r5>>2),
		G: uint8(g6<<2 | g6>>4),
		B: uint8(b5<<3 | b5>>2),
		A: 0xFF,
	}
}

// FromColor converts any image color.
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// ParseHex parses "#rrggbb" (or "#rgb") into a Color.
func ParseHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("rgb565: bad color %q: %w", s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return FromRGB(r, g, b), nil
}

// Hex formats the color as "#rrggbb" using the expanded 8-bit channels.
func (c Color) Hex() string {
	v := c.RGBA8()
	return fmt.Sprintf("#%02x%02x%02x", v.R, v.G, v.B)
}

// Lerp moves each channel of c toward target by t in [0,1], rounding half up
// per channel.
func Lerp(c, target Color, t float64) Color {
	r5, g6, b5 := c.Split()
	tr5, tg6, tb5 := target.Split()
	r5 = int(float64(r5) + float64(tr5-r5)*t + 0.5)
	g6 = int(float64(g6) + float64(tg6-g6)*t + 0.5)
	b5 = int(float64(b5) + float64(tb5-b5)*t + 0.5)
	return Pack(r5, g6, b5)
}

// Mix interpolates two colors per channel with weights (1-t) and t, so that
// t == 0 yields a exactly and t == 1 yields b exactly.
func Mix(a, b Color, t float64) Color {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	ar, ag, ab := a.Split()
	br, bg, bb := b.Split()
	mix := func(x, y int) int {
		return int(float64(x)*(1-t) + float64(y)*t + 0.5)
	}
	return Pack(mix(ar, br), mix(ag, bg), mix(ab, bb))
}
