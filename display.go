package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/Fortinbra/PicoMonsterEyes/internal/display"
	"github.com/Fortinbra/PicoMonsterEyes/internal/eye"
	"github.com/Fortinbra/PicoMonsterEyes/internal/ssd1351"
)

const (
	PANEL_WIDTH  = eye.FrameWidth
	PANEL_HEIGHT = eye.FrameHeight
	TERM_GAP     = 2 // cells between the two eyes
)

// panels is the pair of eye displays plus whatever must be released on exit.
type panels struct {
	pair    display.Pair
	screen  tcell.Screen // terminal mode only
	closers []func() error
}

func (p *panels) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	p.closers = nil
}

// openPanels builds the configured display pair. Nothing is initialized.
func openPanels(cfg Config) (*panels, error) {
	switch cfg.Display {
	case DISPLAY_SPI:
		return openSPIPanels(cfg)
	case DISPLAY_TERMINAL:
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, err
		}
		if err := screen.Init(); err != nil {
			return nil, err
		}
		p := terminalPanels(screen, cfg.TermStep)
		p.closers = append(p.closers, func() error { screen.Fini(); return nil })
		return p, nil
	default:
		return &panels{pair: display.Pair{
			Left:  display.NewMemory(PANEL_WIDTH, PANEL_HEIGHT),
			Right: display.NewMemory(PANEL_WIDTH, PANEL_HEIGHT),
		}}, nil
	}
}

// terminalPanels puts both eyes side by side on an initialized screen.
func terminalPanels(screen tcell.Screen, step int) *panels {
	logger := slog.Default()
	left := display.NewTerminal(screen, PANEL_WIDTH, PANEL_HEIGHT, display.TerminalOptions{Step: step}, logger)
	cols, _ := left.Cells()
	right := display.NewTerminal(screen, PANEL_WIDTH, PANEL_HEIGHT, display.TerminalOptions{
		OriginX: cols + TERM_GAP,
		Step:    step,
	}, logger)
	return &panels{pair: display.Pair{Left: left, Right: right}, screen: screen}
}

func openSPIPanels(cfg Config) (*panels, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p := &panels{}
	left, err := openPanel(p, "left", cfg.Left, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	right, err := openPanel(p, "right", cfg.Right, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.pair = display.Pair{Left: left, Right: right}
	return p, nil
}

func openPanel(p *panels, name string, pc PanelConfig, cfg Config) (*ssd1351.Dev, error) {
	spiPort, err := spireg.Open(pc.SPI)
	if err != nil {
		return nil, fmt.Errorf("%s panel: %w", name, err)
	}
	p.closers = append(p.closers, spiPort.Close)

	conn, err := spiPort.Connect(physic.Frequency(cfg.SPISpeedMHz)*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("%s panel: %w", name, err)
	}

	dc, err := pinByName(pc.DC)
	if err != nil {
		return nil, fmt.Errorf("%s panel dc: %w", name, err)
	}
	rst, err := pinByName(pc.RST)
	if err != nil {
		return nil, fmt.Errorf("%s panel rst: %w", name, err)
	}
	cs, err := pinByName(pc.CS)
	if err != nil {
		return nil, fmt.Errorf("%s panel cs: %w", name, err)
	}

	opts := ssd1351.DefaultOpts
	opts.Remap = byte(cfg.Remap)
	opts.ContrastMaster = byte(cfg.Contrast)
	dev, err := ssd1351.New(conn, dc, rst, cs, &opts, slog.Default().With("panel", name))
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, dev.Halt)
	log.Printf("%s panel on %s (dc=%s rst=%s cs=%s)", name, pc.SPI, pc.DC, pc.RST, pc.CS)
	return dev, nil
}

// pinByName returns nil for an empty name so optional pins stay unset.
func pinByName(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.New("no gpio named " + name)
	}
	return pin, nil
}
