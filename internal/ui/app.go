// Package ui is the only package in this module allowed to import
// ebiten. It hosts a reference implementation of the core's external
// interface the way a real downstream consumer would use it.
package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/imchristina/boyo/internal/emu"
)

// App is an ebiten.Game that pumps emu.Core.RunTo once per tick,
// blits the resulting framebuffer, and maps keyboard state to the
// joypad mask Core.JoypadDown/Up expect.
type App struct {
	cfg  Config
	core *emu.Core
	tex  *ebiten.Image

	paused bool
	fast   bool

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioSrc    *apuStream
	audioMuted  bool

	showStats bool
	toastMsg  string
	toastTill time.Time

	lastErr error
}

// NewApp wires an App around an already-loaded Core. Settings on disk
// (if any) replace cfg, except that a non-empty Title or non-zero Scale
// in cfg takes precedence; defaults are applied afterwards, matching
// the teacher's loadSettings-then-Defaults order.
func NewApp(cfg Config, core *emu.Core) *App {
	cfg = loadSettings(cfg)
	cfg.Defaults()
	ebiten.SetWindowTitle(windowTitle(cfg, core))
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)

	a := &App{cfg: cfg, core: core}
	a.audioCtx = audio.NewContext(core.SampleRate())
	core.SetDiagnostic(func(err error) {
		a.lastErr = err
		a.toast("fatal: " + err.Error())
	})
	return a
}

func windowTitle(cfg Config, core *emu.Core) string {
	if core == nil {
		return cfg.Title
	}
	if t := core.Title(); t != "" {
		return cfg.Title + " - " + t
	}
	return cfg.Title
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastTill = time.Now().Add(2 * time.Second)
}

func (a *App) Update() error {
	if a.audioPlayer == nil {
		a.audioMuted = true
		a.audioSrc = &apuStream{c: a.core, mono: !a.cfg.AudioStereo, muted: &a.audioMuted, lowLatency: a.cfg.AudioLowLatency}
		if p, err := a.audioCtx.NewPlayer(a.audioSrc); err == nil {
			a.audioPlayer = p
			a.applyPlayerBufferSize()
			a.audioPlayer.Play()
		}
	}

	var mask, btn byte
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		mask |= emu.DPadRight
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		mask |= emu.DPadLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		mask |= emu.DPadUp
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		mask |= emu.DPadDown
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		btn |= emu.BtnA
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		btn |= emu.BtnB
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		btn |= emu.BtnStart
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		btn |= emu.BtnSelect
	}
	// Release both matrix columns in full before re-asserting the keys
	// still held this tick; Core only exposes edge-triggered Down/Up,
	// so this is how the host recomputes absolute state every frame.
	a.core.JoypadUp(emu.DPadRight | emu.DPadLeft | emu.DPadUp | emu.DPadDown)
	a.core.JoypadUp(emu.BtnA | emu.BtnB | emu.BtnSelect | emu.BtnStart)
	if mask != 0 {
		a.core.JoypadDown(mask)
	}
	if btn != 0 {
		a.core.JoypadDown(btn)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	prevFast := a.fast
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		a.showStats = !a.showStats
	}

	muted := a.paused
	if muted != a.audioMuted {
		a.audioMuted = muted
	}
	if prevFast != a.fast {
		a.applyPlayerBufferSize()
	}

	if !a.paused && a.core.Running() {
		steps := 1
		if a.fast {
			steps = 4
		}
		for i := 0; i < steps; i++ {
			a.core.RunTo(emu.EventFrame)
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	fb := a.core.Bus().PPU().Framebuffer()
	a.tex.WritePixels(fb)
	screen.DrawImage(a.tex, nil)

	if a.showStats && a.audioSrc != nil {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("underruns: %d  pulled: %d/%d", a.audioSrc.underruns, a.audioSrc.lastPulled, a.audioSrc.lastWant), 4, 4)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastTill) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 130)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func loadSettings(override Config) Config {
	path := override.SettingsPath
	if path == "" {
		path = "gbcore-settings.json"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return override
	}
	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		return override
	}
	if override.Title != "" {
		saved.Title = override.Title
	}
	if override.Scale != 0 {
		saved.Scale = override.Scale
	}
	saved.SettingsPath = path
	return saved
}

// SaveSettings persists the current config to disk.
func (a *App) SaveSettings() error {
	data, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.cfg.SettingsPath, data, 0o644)
}
