// Package ssd1351 drives a Solomon SSD1351 128x128 RGB565 OLED over SPI.
//
// The panel takes one command byte with D/C low followed by parameter or
// pixel bytes with D/C high. Pixels are streamed big-endian after a column
// and row window is set.
package ssd1351

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"

	"github.com/Fortinbra/PicoMonsterEyes/internal/display"
	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

// Command set, subset used here.
const (
	CMD_SETCOLUMN      = 0x15
	CMD_SETROW         = 0x75
	CMD_WRITERAM       = 0x5C
	CMD_COMMANDLOCK    = 0xFD
	CMD_DISPLAYOFF     = 0xAE
	CMD_DISPLAYON      = 0xAF
	CMD_CLOCKDIV       = 0xB3
	CMD_MUXRATIO       = 0xCA
	CMD_SETREMAP       = 0xA0
	CMD_STARTLINE      = 0xA1
	CMD_DISPLAYOFFSET  = 0xA2
	CMD_FUNCTIONSELECT = 0xAB
	CMD_PRECHARGE      = 0xB1
	CMD_VCOMH          = 0xBE
	CMD_NORMALDISPLAY  = 0xA6
	CMD_CONTRASTABC    = 0xC1
	CMD_CONTRASTMASTER = 0xC7
	CMD_SETVSL         = 0xB4
	CMD_PRECHARGE2     = 0xB6
)

const defaultMaxTx = 4096

// Opts configures a panel.
type Opts struct {
	Width, Height int
	// Remap is the SETREMAP color/addressing byte. 0x76 gives RGB order on
	// the common breakout modules, 0x72 swaps red and blue.
	Remap          byte
	ContrastMaster byte // 0x00..0x0F
	// ResetDelay is held low and high around the hardware reset, and waited
	// after display on. Zero skips the waits.
	ResetDelay time.Duration
	// MaxTxSize caps a single SPI transaction. Zero uses the port's limit.
	MaxTxSize int
}

// DefaultOpts is a 128x128 module at full brightness.
var DefaultOpts = Opts{
	Width:          128,
	Height:         128,
	Remap:          0x76,
	ContrastMaster: 0x0F,
	ResetDelay:     10 * time.Millisecond,
}

// Dev is one panel. cs may be nil when the SPI port drives chip select;
// rst may be nil when the reset line is tied high.
type Dev struct {
	c      spi.Conn
	dc     gpio.PinOut
	rst    gpio.PinOut
	cs     gpio.PinOut
	opts   Opts
	maxTx  int
	buf    []byte
	logger *slog.Logger
	inited bool
}

// New wraps an already connected SPI conn. It does not touch the panel
// until Init.
func New(c spi.Conn, dc, rst, cs gpio.PinOut, opts *Opts, logger *slog.Logger) (*Dev, error) {
	if c == nil || dc == nil {
		return nil, errors.New("ssd1351: spi conn and dc pin are required")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 || o.Width > 128 || o.Height <= 0 || o.Height > 128 {
		return nil, fmt.Errorf("ssd1351: unsupported size %dx%d", o.Width, o.Height)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	maxTx := defaultMaxTx
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		maxTx = l.MaxTxSize()
	}
	if o.MaxTxSize > 0 && o.MaxTxSize < maxTx {
		maxTx = o.MaxTxSize
	}
	maxTx &^= 1 // whole pixels only
	if maxTx < 2 {
		return nil, fmt.Errorf("ssd1351: max transaction size %d too small", maxTx)
	}

	return &Dev{
		c:      c,
		dc:     dc,
		rst:    rst,
		cs:     cs,
		opts:   o,
		maxTx:  maxTx,
		buf:    make([]byte, maxTx),
		logger: logger,
	}, nil
}

func (d *Dev) String() string { return fmt.Sprintf("ssd1351{%s}", d.c) }

func (d *Dev) Width() int  { return d.opts.Width }
func (d *Dev) Height() int { return d.opts.Height }

func (d *Dev) sleep() {
	if d.opts.ResetDelay > 0 {
		time.Sleep(d.opts.ResetDelay)
	}
}

func (d *Dev) selectChip(on bool) error {
	if d.cs == nil {
		return nil
	}
	if on {
		return d.cs.Out(gpio.Low)
	}
	return d.cs.Out(gpio.High)
}

// Init resets the controller and runs the power-on command sequence.
func (d *Dev) Init() error {
	if d.cs != nil {
		if err := d.cs.Out(gpio.High); err != nil {
			return fmt.Errorf("ssd1351: cs: %w", err)
		}
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("ssd1351: dc: %w", err)
	}
	if d.rst != nil {
		if err := d.reset(); err != nil {
			return fmt.Errorf("ssd1351: reset: %w", err)
		}
	}

	w, h := d.opts.Width, d.opts.Height
	seq := []struct {
		cmd  byte
		data []byte
	}{
		{CMD_COMMANDLOCK, []byte{0x12}},
		{CMD_COMMANDLOCK, []byte{0xB1}},
		{CMD_DISPLAYOFF, nil},
		{CMD_CLOCKDIV, []byte{0xF1}},
		{CMD_MUXRATIO, []byte{byte(h - 1)}},
		{CMD_DISPLAYOFFSET, []byte{0x00}},
		{CMD_STARTLINE, []byte{0x00}},
		{CMD_SETREMAP, []byte{d.opts.Remap, 0x00}},
		{CMD_FUNCTIONSELECT, []byte{0x01}},
		{CMD_CONTRASTABC, []byte{0xC8, 0x80, 0xC8}},
		{CMD_CONTRASTMASTER, []byte{d.opts.ContrastMaster & 0x0F}},
		{CMD_PRECHARGE, []byte{0x32}},
		{CMD_VCOMH, []byte{0x05}},
		{CMD_SETVSL, []byte{0xA0, 0xB5, 0x55}},
		{CMD_PRECHARGE2, []byte{0x01}},
		{CMD_NORMALDISPLAY, nil},
	}

	if err := d.selectChip(true); err != nil {
		return err
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			d.selectChip(false)
			return err
		}
	}
	if err := d.window(display.Full(w, h)); err != nil {
		d.selectChip(false)
		return err
	}
	if err := d.command(CMD_DISPLAYON); err != nil {
		d.selectChip(false)
		return err
	}
	if err := d.selectChip(false); err != nil {
		return err
	}
	d.sleep()
	d.inited = true
	d.logger.Debug("ssd1351: initialized", "dev", d.String(), "width", w, "height", h, "maxTx", d.maxTx)
	return nil
}

func (d *Dev) reset() error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return err
	}
	d.sleep()
	if err := d.rst.Out(gpio.High); err != nil {
		return err
	}
	d.sleep()
	return nil
}

// command sends one command byte and its parameters.
func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("ssd1351: dc: %w", err)
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("ssd1351: command %#02x: %w", cmd, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("ssd1351: dc: %w", err)
	}
	if err := d.c.Tx(data, nil); err != nil {
		return fmt.Errorf("ssd1351: data for %#02x: %w", cmd, err)
	}
	return nil
}

func (d *Dev) window(r display.Rect) error {
	if err := d.command(CMD_SETCOLUMN, byte(r.X), byte(r.X+r.W-1)); err != nil {
		return err
	}
	return d.command(CMD_SETROW, byte(r.Y), byte(r.Y+r.H-1))
}

// stream sends n pixels produced by px as big-endian data in chunks of at
// most maxTx bytes.
func (d *Dev) stream(n int, px func(i int) rgb565.Color) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("ssd1351: dc: %w", err)
	}
	per := d.maxTx / 2
	for i := 0; i < n; i += per {
		k := min(per, n-i)
		b := d.buf[:2*k]
		for j := 0; j < k; j++ {
			c := px(i + j)
			b[2*j] = byte(c >> 8)
			b[2*j+1] = byte(c)
		}
		if err := d.c.Tx(b, nil); err != nil {
			return fmt.Errorf("ssd1351: pixel data: %w", err)
		}
	}
	return nil
}

func (d *Dev) draw(r display.Rect, px func(i int) rgb565.Color) (err error) {
	if r.W == 0 || r.H == 0 {
		return nil
	}
	if err := d.selectChip(true); err != nil {
		return err
	}
	defer func() {
		if cerr := d.selectChip(false); err == nil {
			err = cerr
		}
	}()
	if err := d.window(r); err != nil {
		return err
	}
	if err := d.command(CMD_WRITERAM); err != nil {
		return err
	}
	return d.stream(r.W*r.H, px)
}

// Fill paints the whole panel.
func (d *Dev) Fill(c rgb565.Color) error {
	return d.draw(display.Full(d.opts.Width, d.opts.Height), func(int) rgb565.Color { return c })
}

// Blit writes pixels into r.
func (d *Dev) Blit(pixels []rgb565.Color, r display.Rect) error {
	if err := display.Check(d.opts.Width, d.opts.Height, pixels, r); err != nil {
		return err
	}
	return d.draw(r, func(i int) rgb565.Color { return pixels[i] })
}

// Halt turns the panel off.
func (d *Dev) Halt() error {
	if !d.inited {
		return nil
	}
	if err := d.selectChip(true); err != nil {
		return err
	}
	err := d.command(CMD_DISPLAYOFF)
	if cerr := d.selectChip(false); err == nil {
		err = cerr
	}
	return err
}

var _ display.Display = (*Dev)(nil)
