package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"github.com/Fortinbra/PicoMonsterEyes/internal/anim"
	"github.com/Fortinbra/PicoMonsterEyes/internal/eye"
	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
)

const (
	DISPLAY_SPI      = "spi"
	DISPLAY_TERMINAL = "terminal"
	DISPLAY_NONE     = "none"

	KEYBOARD_DEBOUNCE_TIME = 500 * time.Millisecond
)

// PanelConfig wires one SSD1351 panel.
type PanelConfig struct {
	SPI string `json:"spi"`
	DC  string `json:"dc"`
	RST string `json:"rst,omitempty"`
	CS  string `json:"cs,omitempty"` // empty when the port drives chip select
}

// Config represents the overall config JSON.
type Config struct {
	Display     string      `json:"display"`
	Left        PanelConfig `json:"left"`
	Right       PanelConfig `json:"right"`
	SPISpeedMHz int         `json:"spi_speed_mhz"`
	Remap       int         `json:"remap"`
	Contrast    int         `json:"contrast"`
	TermStep    int         `json:"term_step"`

	TextureDir  string `json:"texture_dir,omitempty"`
	IrisInner   string `json:"iris_inner"`
	IrisOuter   string `json:"iris_outer"`
	TextureSeed int64  `json:"texture_seed"`

	FPS          int     `json:"fps"` // 0 runs unthrottled
	FPSLogFrames int     `json:"fps_log_frames"`
	FixedStepMs  float64 `json:"fixed_step_ms"` // 0 steps with wall time
	Seed         uint32  `json:"seed"`

	IrisRadius        float64 `json:"iris_radius"`
	PupilFraction     float64 `json:"pupil_fraction"`
	EyelidEdge        int     `json:"eyelid_edge"`
	ScleraParallax    float64 `json:"sclera_parallax"`
	EyelidColorTop    string  `json:"eyelid_color_top"`
	EyelidColorBottom string  `json:"eyelid_color_bottom"`
	Highlight         bool    `json:"highlight"`
	HighlightColor    string  `json:"highlight_color"`

	Emotion         string  `json:"emotion"`
	EmotionCycleSec float64 `json:"emotion_cycle_sec"` // 0 holds until changed
	EmotionFadeSec  float64 `json:"emotion_fade_sec"`

	HTTPAddr    string `json:"http_addr,omitempty"`
	InputDevice string `json:"input_device,omitempty"`
	Audio       bool   `json:"audio"`
	SampleRate  int    `json:"sample_rate"`
}

func defaultConfig() Config {
	a := anim.DefaultConfig()
	p := eye.DefaultParams()
	return Config{
		Display:     DISPLAY_TERMINAL,
		Left:        PanelConfig{SPI: "SPI0.0", DC: "GPIO24", RST: "GPIO25"},
		Right:       PanelConfig{SPI: "SPI0.1", DC: "GPIO23", RST: "GPIO22"},
		SPISpeedMHz: 16,
		Remap:       0x76,
		Contrast:    0x0F,
		TermStep:    2,

		IrisInner:   "#c8a040",
		IrisOuter:   "#3c6e28",
		TextureSeed: 1,

		FPS:          60,
		FPSLogFrames: 300,
		FixedStepMs:  1000.0 / 60,
		Seed:         a.Seed,

		IrisRadius:        a.IrisRadius,
		PupilFraction:     p.BasePupilFraction,
		EyelidEdge:        int(p.EyelidEdgeBase),
		ScleraParallax:    a.ScleraParallax,
		EyelidColorTop:    "#000000",
		EyelidColorBottom: "#000000",
		Highlight:         true,
		HighlightColor:    "#ffffff",

		Emotion:         anim.Neutral.String(),
		EmotionCycleSec: a.EmotionCycle.Seconds(),
		EmotionFadeSec:  a.EmotionFade.Seconds(),

		InputDevice: "rk805 pwrkey",
		SampleRate:  44100,
	}
}

// loadConfig reads the config file over the defaults. A missing file is not
// an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("no config at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// animConfig maps the file settings onto the state machine tuning.
func (c Config) animConfig() (anim.Config, error) {
	a := anim.DefaultConfig()
	a.IrisRadius = c.IrisRadius
	a.FixedStep = time.Duration(c.FixedStepMs * float64(time.Millisecond))
	a.Seed = c.Seed
	a.EmotionCycle = seconds(c.EmotionCycleSec)
	a.EmotionFade = seconds(c.EmotionFadeSec)
	a.ScleraParallax = c.ScleraParallax
	return a, a.Validate()
}

// eyeParams builds the static part of the render parameters.
func (c Config) eyeParams() (eye.Params, error) {
	p := eye.DefaultParams()
	p.IrisRadius = c.IrisRadius
	p.BasePupilFraction = c.PupilFraction
	if c.EyelidEdge < 0 || c.EyelidEdge > 255 {
		return p, fmt.Errorf("eyelid_edge %d out of range", c.EyelidEdge)
	}
	p.EyelidEdgeBase = uint8(c.EyelidEdge)
	p.Highlight.Enabled = c.Highlight
	p.Highlight.Secondary = c.Highlight

	var err error
	if p.EyelidColorTop, err = rgb565.ParseHex(c.EyelidColorTop); err != nil {
		return p, fmt.Errorf("eyelid_color_top: %w", err)
	}
	if p.EyelidColorBottom, err = rgb565.ParseHex(c.EyelidColorBottom); err != nil {
		return p, fmt.Errorf("eyelid_color_bottom: %w", err)
	}
	if p.Highlight.Color, err = rgb565.ParseHex(c.HighlightColor); err != nil {
		return p, fmt.Errorf("highlight_color: %w", err)
	}
	return p, nil
}

// validate checks everything the render loop depends on so startup fails
// before any hardware is touched.
func (c Config) validate() error {
	switch c.Display {
	case DISPLAY_SPI:
		if c.Left.SPI == "" || c.Left.DC == "" || c.Right.SPI == "" || c.Right.DC == "" {
			return errors.New("spi display needs spi and dc for both panels")
		}
		if c.SPISpeedMHz <= 0 {
			return fmt.Errorf("spi_speed_mhz %d must be positive", c.SPISpeedMHz)
		}
		if c.Remap < 0 || c.Remap > 255 || c.Contrast < 0 || c.Contrast > 15 {
			return fmt.Errorf("remap %#x or contrast %d out of range", c.Remap, c.Contrast)
		}
	case DISPLAY_TERMINAL:
		if c.TermStep < 1 {
			return fmt.Errorf("term_step %d must be at least 1", c.TermStep)
		}
	case DISPLAY_NONE:
	default:
		return fmt.Errorf("unknown display %q", c.Display)
	}
	if c.FPS < 0 || c.FixedStepMs < 0 {
		return errors.New("fps and fixed_step_ms must not be negative")
	}
	if c.Audio && c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate %d must be positive", c.SampleRate)
	}
	if _, err := anim.ParseEmotion(c.Emotion); err != nil {
		return err
	}
	if _, err := c.animConfig(); err != nil {
		return err
	}
	_, err := c.eyeParams()
	return err
}

// emotionRequest asks the render loop for an emotion change. Next advances
// round-robin from whatever is current when the request is handled.
type emotionRequest struct {
	Next    bool
	Emotion anim.Emotion
}

// requestEmotion queues r without blocking the caller.
func requestEmotion(requests chan<- emotionRequest, r emotionRequest) bool {
	select {
	case requests <- r:
		return true
	default:
		return false
	}
}

// monitorKeyboard watches the named input device and asks for the next
// emotion on each power key press.
func monitorKeyboard(name string, requests chan<- emotionRequest) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		log.Printf("ListDevicePaths error: %v", err)
		return
	}

	var devPath string
	for _, ip := range paths {
		if ip.Name == name {
			devPath = ip.Path
			break
		}
	}
	if devPath == "" {
		log.Printf("no input device named %q", name)
		return
	}

	keyboard, err := evdev.Open(devPath)
	if err != nil {
		log.Printf("Open(%s) error: %v", devPath, err)
		return
	}
	defer keyboard.Close()

	if err := keyboard.Grab(); err != nil {
		log.Printf("warning: failed to grab device: %v", err)
	}
	defer keyboard.Ungrab()

	devName, _ := keyboard.Name()
	log.Printf("using input device: %s (%s)", devPath, devName)

	var lastKeyPress time.Time
	for {
		ev, err := keyboard.ReadOne()
		if err != nil {
			log.Printf("read error: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if ev.Type != evdev.EV_KEY || ev.Code != evdev.KEY_POWER || ev.Value != 1 {
			continue
		}
		now := time.Now()
		if now.Sub(lastKeyPress) < KEYBOARD_DEBOUNCE_TIME {
			continue
		}
		lastKeyPress = now
		log.Println("POWER pressed")
		if !requestEmotion(requests, emotionRequest{Next: true}) {
			log.Println("emotion request dropped, loop busy")
		}
	}
}

func emotionNames() string {
	var names []string
	for _, e := range anim.Emotions() {
		names = append(names, e.String())
	}
	return strings.Join(names, ", ")
}
