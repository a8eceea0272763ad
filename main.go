package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Fortinbra/PicoMonsterEyes/internal/anim"
	"github.com/Fortinbra/PicoMonsterEyes/internal/audio"
	"github.com/Fortinbra/PicoMonsterEyes/internal/display"
	"github.com/Fortinbra/PicoMonsterEyes/internal/eye"
	"github.com/Fortinbra/PicoMonsterEyes/internal/rgb565"
	"github.com/Fortinbra/PicoMonsterEyes/internal/texture"
)

const (
	TEST_PATTERN_TIME     = 500 * time.Millisecond
	BLIT_ERROR_LOG_FRAMES = 300 // used when the FPS log is off
)

// eyes is the render loop. Everything except the published state and the
// preview panels is owned by the goroutine calling step.
type eyes struct {
	ctrl     *anim.Controller
	renderer *eye.Renderer
	base     eye.Params
	pair     display.Pair

	out        audio.Output // nil without sound
	blinkCue   []int16
	risingCue  []int16
	fallingCue []int16

	baseFrame, left, right []rgb565.Color
	requests               chan emotionRequest
	frames                 *FrameData
	logEvery               int
	count                  int
	lastLog                time.Time
	lastFrame              time.Time
	blitErrors             int // consecutive failed frames

	preview [2]*display.Memory

	mu    sync.RWMutex
	state anim.State
}

func newEyes(ctrl *anim.Controller, renderer *eye.Renderer, base eye.Params, hw display.Pair) *eyes {
	e := &eyes{
		ctrl:      ctrl,
		renderer:  renderer,
		base:      base,
		baseFrame: eye.NewFrame(PANEL_WIDTH, PANEL_HEIGHT),
		left:      eye.NewFrame(PANEL_WIDTH, PANEL_HEIGHT),
		right:     eye.NewFrame(PANEL_WIDTH, PANEL_HEIGHT),
		requests:  make(chan emotionRequest, 8),
		frames:    newFrameData(),
		preview: [2]*display.Memory{
			display.NewMemory(PANEL_WIDTH, PANEL_HEIGHT),
			display.NewMemory(PANEL_WIDTH, PANEL_HEIGHT),
		},
		state: ctrl.State(),
	}
	e.pair = display.Pair{
		Left:  display.Tee{hw.Left, e.preview[0]},
		Right: display.Tee{hw.Right, e.preview[1]},
	}
	return e
}

// withAudio attaches an output and renders the cues for its sample rate.
func (e *eyes) withAudio(out audio.Output, sampleRate int) error {
	rising, err := audio.EmotionCue(sampleRate, true)
	if err != nil {
		return err
	}
	falling, err := audio.EmotionCue(sampleRate, false)
	if err != nil {
		return err
	}
	e.out = out
	e.blinkCue = audio.BlinkCue(sampleRate)
	e.risingCue, e.fallingCue = rising, falling
	return nil
}

// testPattern shows red on the left and blue on the right, then clears.
func (e *eyes) testPattern(hold time.Duration) error {
	if err := e.pair.Fill(rgb565.Red, rgb565.Blue); err != nil {
		return err
	}
	time.Sleep(hold)
	return e.pair.Fill(rgb565.Black, rgb565.Black)
}

func (e *eyes) handleRequest(r emotionRequest) {
	cur := e.ctrl.State().Emotion
	next := r.Emotion
	if r.Next {
		next = cur.Next()
	}
	if e.ctrl.SetEmotion(next) {
		e.emotionChanged(cur, next)
	}
}

func (e *eyes) emotionChanged(from, to anim.Emotion) {
	log.Printf("emotion: state changed from %s to %s", from, to)
	if e.out == nil {
		return
	}
	cue := e.fallingCue
	if to == anim.Neutral || to == anim.Fear {
		cue = e.risingCue
	}
	e.out.WriteSamples(cue)
}

// step runs one frame: pending requests, one controller tick, render and
// blit. Blit errors are returned after the state is published.
func (e *eyes) step(wall time.Duration, now time.Time) error {
drain:
	for {
		select {
		case r := <-e.requests:
			e.handleRequest(r)
		default:
			break drain
		}
	}

	prev := e.ctrl.State().Emotion
	ev := e.ctrl.Tick(wall)
	if ev.EmotionChanged {
		e.emotionChanged(prev, ev.Emotion)
	}
	if ev.BlinkStarted && e.out != nil {
		e.out.WriteSamples(e.blinkCue)
	}

	start := time.Now()
	lp, rp := e.ctrl.Params(e.base)
	e.renderer.RenderPair(e.baseFrame, e.left, e.right, &lp, &rp)
	err := e.pair.Blit(e.left, e.right)
	renderTime := time.Since(start)

	var frameMs float64
	if !e.lastFrame.IsZero() {
		frameMs = float64(now.Sub(e.lastFrame)) / float64(time.Millisecond)
	}
	e.lastFrame = now
	e.frames.record(FrameSample{
		Timestamp: now,
		RenderMs:  float64(renderTime) / float64(time.Millisecond),
		FrameMs:   frameMs,
	})

	e.mu.Lock()
	e.state = e.ctrl.State()
	e.mu.Unlock()

	e.count++
	if e.logEvery > 0 && e.count%e.logEvery == 0 {
		if !e.lastLog.IsZero() {
			fps := float64(e.logEvery) / now.Sub(e.lastLog).Seconds()
			iris, glints := e.renderer.Rebuilds()
			log.Printf("FPS: %0.1f, Total Frames: %d, LUT rebuilds: %d/%d", fps, e.count, iris, glints)
		}
		e.lastLog = now
	}
	return err
}

// State is safe to call from any goroutine.
func (e *eyes) State() anim.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// run steps until ctx is done. fps 0 runs as fast as the panels accept.
func (e *eyes) run(ctx context.Context, fps int) {
	var tick <-chan time.Time
	if fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	last := time.Now()
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return
		}
		now := time.Now()
		e.reportBlit(e.step(now.Sub(last), now))
		last = now
	}
}

// reportBlit logs the first failed frame of a run and then one line per
// logEvery failures.
func (e *eyes) reportBlit(err error) {
	if err == nil {
		if e.blitErrors > 0 {
			log.Printf("blit: recovered after %d failed frames", e.blitErrors)
		}
		e.blitErrors = 0
		return
	}
	e.blitErrors++
	every := e.logEvery
	if every <= 0 {
		every = BLIT_ERROR_LOG_FRAMES
	}
	if e.blitErrors == 1 || e.blitErrors%every == 0 {
		log.Printf("blit: %v (%d failed frames)", err, e.blitErrors)
	}
}

// handleTerminalKeys maps terminal keys onto emotion requests and quits on
// Escape, q or Ctrl-C.
func handleTerminalKeys(ev tcell.Event, requests chan<- emotionRequest) (quit bool) {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}
	switch r := key.Rune(); {
	case r == 'q':
		return true
	case r == ' ' || r == 'n':
		requestEmotion(requests, emotionRequest{Next: true})
	case r >= '1' && int(r-'1') < len(anim.Emotions()):
		requestEmotion(requests, emotionRequest{Emotion: anim.Emotions()[r-'1']})
	}
	return false
}

func startSpeaker(e *eyes, sampleRate int) (*audio.Speaker, error) {
	sp := audio.NewSpeaker(slog.Default())
	if err := sp.Init(sampleRate); err != nil {
		return nil, err
	}
	if err := e.withAudio(sp, sampleRate); err != nil {
		return nil, err
	}
	if err := sp.Start(); err != nil {
		return nil, err
	}
	return sp, nil
}

// saveSnapshot renders one frame and writes both eyes to path. Nothing is
// written if the frame did not reach the panels.
func saveSnapshot(e *eyes, path string) error {
	if err := e.step(time.Second/60, time.Now()); err != nil {
		return fmt.Errorf("blit: %w", err)
	}
	img := renderPreview(e.preview[0].Image(), e.preview[1].Image(), e.State(), nil, 2, false)
	return saveFrameToPng(img, path)
}

func loadTextures(cfg Config) (*texture.Set, error) {
	if cfg.TextureDir != "" {
		return texture.Load(cfg.TextureDir, slog.Default())
	}
	opts := texture.DefaultGenerateOptions()
	opts.IrisInner, opts.IrisOuter = cfg.IrisInner, cfg.IrisOuter
	opts.Seed = cfg.TextureSeed
	return texture.Generate(opts)
}

func main() {
	configPath := flag.String("config", "config.json", "config file")
	logPath := flag.String("log", "", "log file; defaults to eyes.log in terminal mode")
	exportDir := flag.String("export-textures", "", "write the generated textures to this directory and exit")
	snapshot := flag.String("snapshot", "", "render one frame pair to this PNG and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if *logPath == "" && cfg.Display == DISPLAY_TERMINAL && *exportDir == "" && *snapshot == "" {
		*logPath = "eyes.log"
	}
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	tex, err := loadTextures(cfg)
	if err != nil {
		log.Fatalf("Failed to load textures: %v", err)
	}
	if *exportDir != "" {
		if err := texture.Save(*exportDir, tex); err != nil {
			log.Fatalf("Failed to save textures: %v", err)
		}
		log.Println("Textures saved to", *exportDir)
		return
	}

	renderer, err := eye.NewRenderer(tex)
	if err != nil {
		log.Fatal(err)
	}
	animCfg, err := cfg.animConfig()
	if err != nil {
		log.Fatalf("Invalid animation config: %v", err)
	}
	ctrl, err := anim.NewController(animCfg)
	if err != nil {
		log.Fatal(err)
	}
	initial, err := anim.ParseEmotion(cfg.Emotion)
	if err != nil {
		log.Fatalf("Invalid emotion: %v", err)
	}
	ctrl.SetEmotion(initial)
	base, err := cfg.eyeParams()
	if err != nil {
		log.Fatalf("Invalid eye config: %v", err)
	}

	if *snapshot != "" {
		e := newEyes(ctrl, renderer, base, display.Pair{
			Left:  display.NewMemory(PANEL_WIDTH, PANEL_HEIGHT),
			Right: display.NewMemory(PANEL_WIDTH, PANEL_HEIGHT),
		})
		if err := saveSnapshot(e, *snapshot); err != nil {
			log.Fatalf("Failed to save snapshot: %v", err)
		}
		log.Println("Frame saved to", *snapshot)
		return
	}

	p, err := openPanels(cfg)
	if err != nil {
		log.Fatalf("Failed to open displays: %v", err)
	}
	defer p.Close()

	e := newEyes(ctrl, renderer, base, p.pair)
	e.logEvery = cfg.FPSLogFrames
	if err := e.pair.Init(); err != nil {
		log.Fatalf("Failed to init displays: %v", err)
	}
	if err := e.testPattern(TEST_PATTERN_TIME); err != nil {
		log.Printf("test pattern: %v", err)
	}

	if cfg.Audio {
		if sp, err := startSpeaker(e, cfg.SampleRate); err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			defer sp.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InputDevice != "" {
		go monitorKeyboard(cfg.InputDevice, e.requests)
	}
	if cfg.HTTPAddr != "" {
		go func() {
			if err := httpServer(cfg.HTTPAddr, e); err != nil {
				log.Printf("http server: %v", err)
			}
		}()
	}
	if p.screen != nil {
		go func() {
			for {
				ev := p.screen.PollEvent()
				if ev == nil {
					return
				}
				if handleTerminalKeys(ev, e.requests) {
					stop()
					return
				}
			}
		}()
	}

	log.Printf("running %s display at %d fps, emotion %s", cfg.Display, cfg.FPS, initial)
	e.run(ctx, cfg.FPS)
	log.Println("shutting down")
}
