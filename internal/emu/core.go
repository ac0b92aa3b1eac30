package emu

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/imchristina/boyo/internal/bus"
	"github.com/imchristina/boyo/internal/cart"
	"github.com/imchristina/boyo/internal/cpu"
)

// audioChunkFrames is how many stereo frames accumulate before RunTo
// reports EventAudio and hands the chunk to the audio callback.
const audioChunkFrames = 512

// Core wires cpu/bus/ppu/apu/cart into the run loop described by
// spec.md's run_to(event_mask) contract. It is not safe for concurrent
// use from multiple goroutines.
type Core struct {
	cfg     Config
	bus     *bus.Bus
	cpu     *cpu.CPU
	header  *cart.Header
	bootROM []byte

	pressed byte
	running bool

	frameCB func(FrameBuffer)
	audioCB func([]int16)
	diagCB  func(error)
	traceCB func(pc uint16, opcode byte)

	prevLY byte
}

// New constructs a Core with no cartridge loaded. LoadROM must be
// called before RunTo will make progress.
func New(cfg Config) *Core {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	c := &Core{cfg: cfg}
	c.bus = bus.NewWithCartridge(cart.NewROMOnly(nil, 0), cfg.CGB, cfg.SampleRate)
	c.cpu = cpu.New(c.bus)
	return c
}

// LoadBootROM installs a boot ROM (256 bytes DMG, 2304 bytes CGB), to
// take effect on the next LoadROM call (or immediately, if a
// cartridge is already loaded).
func (c *Core) LoadBootROM(data []byte) error {
	if len(data) != 256 && len(data) != 2304 {
		return fmt.Errorf("emu: boot ROM must be 256 (DMG) or 2304 (CGB) bytes, got %d", len(data))
	}
	c.bootROM = data
	c.bus.SetBootROM(data)
	c.cpu.SetPC(0x0000)
	return nil
}

// LoadROM parses a cartridge image and wires a fresh bus/mapper
// around it. With no boot ROM installed, the CPU and IO registers are
// set to their documented post-boot-ROM state and execution starts at
// 0x0100, matching real hardware's behavior once the boot ROM hands
// off; with one installed, execution restarts at 0x0000 through it.
func (c *Core) LoadROM(data []byte) error {
	cg, header, err := cart.New(data)
	if err != nil {
		return err
	}
	c.header = header
	c.bus = bus.NewWithCartridge(cg, c.cfg.CGB, c.cfg.SampleRate)
	c.cpu = cpu.New(c.bus)
	c.wireTrace()

	if len(c.bootROM) > 0 {
		c.bus.SetBootROM(c.bootROM)
		c.cpu.SetPC(0x0000)
	} else {
		c.cpu.ResetNoBoot()
		c.cpu.SetPC(0x0100)
		applyPostBootIODefaults(c.bus)
	}

	if c.cfg.CGB && !header.CGB {
		c.applyCompatPalette()
	}
	c.running = true
	c.prevLY = 0
	return nil
}

// applyPostBootIODefaults pokes the IO registers to the values the
// DMG boot ROM leaves behind, for the no-boot-ROM startup path.
func applyPostBootIODefaults(b *bus.Bus) {
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC
	b.Write(0xFF40, 0x91) // LCDC: LCD on, BG on, 0x8000 tile data
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFFFF, 0x00) // IE
}

// LoadROMFromFile is a convenience wrapper over LoadROM for tools and
// tests that work against ROM files on disk.
func (c *Core) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.LoadROM(data)
}

// LoadSav seeds battery-backed cartridge RAM from a prior save.
func (c *Core) LoadSav(data []byte) error {
	bb, ok := c.bus.Cart().(cart.BatteryBacked)
	if !ok || c.header == nil || !cart.HasBattery(c.header.CartType) {
		return fmt.Errorf("emu: cartridge has no battery-backed RAM")
	}
	bb.LoadRAM(data)
	return nil
}

// SavSize reports the size of the cartridge's battery-backed RAM, or
// 0 if the cartridge has none.
func (c *Core) SavSize() int {
	bb, ok := c.bus.Cart().(cart.BatteryBacked)
	if !ok || c.header == nil || !cart.HasBattery(c.header.CartType) {
		return 0
	}
	return bb.RAMSize()
}

// Sav returns a copy of the cartridge's current battery-backed RAM.
func (c *Core) Sav() []byte {
	bb, ok := c.bus.Cart().(cart.BatteryBacked)
	if !ok || c.header == nil || !cart.HasBattery(c.header.CartType) {
		return nil
	}
	return bb.SaveRAM()
}

// Title returns the cartridge's header title, trimmed of padding.
func (c *Core) Title() string {
	if c.header == nil {
		return ""
	}
	return strings.TrimRight(c.header.Title, "\x00")
}

// RunTo executes instructions until any event bit in mask has been
// observed, and returns the bits actually observed this call. Each
// instruction's CPU/PPU/APU/timer/serial/CGB advance happens inside a
// single cpu.CPU.Step call; RunTo itself only watches for frame and
// audio-chunk boundaries and is the sole suspension point, per the
// run loop's fixed ordering.
func (c *Core) RunTo(mask Event) Event {
	if !c.running {
		return 0
	}
	var observed Event
	for observed&mask == 0 {
		c.cpu.Step()
		if c.cpu.LastErr != nil {
			if c.diagCB != nil {
				c.diagCB(c.cpu.LastErr)
			}
			c.running = false
			return observed
		}

		ly := c.bus.PPU().CPURead(0xFF44)
		if c.prevLY == 143 && ly == 144 {
			if c.frameCB != nil {
				fb := make([]byte, len(c.bus.PPU().Framebuffer()))
				copy(fb, c.bus.PPU().Framebuffer())
				c.frameCB(FrameBuffer(fb))
			}
			observed |= EventFrame
		}
		c.prevLY = ly

		if (mask&EventAudio != 0 || c.audioCB != nil) && c.bus.APU().StereoAvailable() >= audioChunkFrames {
			samples := c.bus.APU().PullStereo(audioChunkFrames)
			if c.audioCB != nil {
				c.audioCB(samples)
			}
			observed |= EventAudio
		}

		if !c.running {
			break
		}
	}
	return observed
}

// StepFrameNoRender advances exactly one frame without invoking the
// frame callback, for headless test harnesses that only care about
// serial output (see blargg_test.go).
func (c *Core) StepFrameNoRender() {
	cb := c.frameCB
	c.frameCB = nil
	c.RunTo(EventFrame)
	c.frameCB = cb
}

// PullAudio drains up to max int16 samples of already-mixed stereo
// audio (interleaved L,R) without requiring a RunTo(EventAudio) call,
// for hosts that prefer to pull on their own audio callback schedule.
func (c *Core) PullAudio(max int) []int16 {
	return c.bus.APU().PullStereo(max / 2)
}

// JoypadDown marks the buttons named by mask as pressed and raises
// IF.JOYPAD when that changes the selected matrix column.
func (c *Core) JoypadDown(mask byte) {
	c.pressed |= decodeJoypadMask(mask)
	c.bus.SetJoypadState(c.pressed)
}

// JoypadUp marks the buttons named by mask as released.
func (c *Core) JoypadUp(mask byte) {
	c.pressed &^= decodeJoypadMask(mask)
	c.bus.SetJoypadState(c.pressed)
}

func decodeJoypadMask(mask byte) byte {
	bits := mask & 0x0F
	switch mask & 0x30 {
	case colDPad:
		var out byte
		if bits&(1<<0) != 0 {
			out |= bus.JoypRight
		}
		if bits&(1<<1) != 0 {
			out |= bus.JoypLeft
		}
		if bits&(1<<2) != 0 {
			out |= bus.JoypUp
		}
		if bits&(1<<3) != 0 {
			out |= bus.JoypDown
		}
		return out
	case colButtons:
		var out byte
		if bits&(1<<0) != 0 {
			out |= bus.JoypA
		}
		if bits&(1<<1) != 0 {
			out |= bus.JoypB
		}
		if bits&(1<<2) != 0 {
			out |= bus.JoypSelectBtn
		}
		if bits&(1<<3) != 0 {
			out |= bus.JoypStart
		}
		return out
	default:
		return 0
	}
}

// SetFrameCallback registers the sink invoked once per completed
// frame with a copy of the PPU's framebuffer.
func (c *Core) SetFrameCallback(fn func(FrameBuffer)) { c.frameCB = fn }

// SetAudioCallback registers the sink invoked once per full audio
// chunk with interleaved stereo int16 samples.
func (c *Core) SetAudioCallback(fn func([]int16)) { c.audioCB = fn }

// SetDiagnostic registers the sink invoked when the core hits a fatal
// condition (an unimplemented opcode) and stops running. Unknown mapper
// types are not reported here; LoadROM returns them as errors.
func (c *Core) SetDiagnostic(fn func(error)) { c.diagCB = fn }

// SetTrace registers a per-instruction trace sink, active only while
// Config.Trace is set; used by cmd/gbcore-trace.
func (c *Core) SetTrace(fn func(pc uint16, opcode byte)) {
	c.traceCB = fn
	c.wireTrace()
}

// wireTrace connects the CPU's per-instruction hook to traceCB,
// gated on Config.Trace so tracing costs nothing when disabled.
func (c *Core) wireTrace() {
	if !c.cfg.Trace || c.traceCB == nil {
		c.cpu.Trace = nil
		return
	}
	cb := c.traceCB
	c.cpu.Trace = func(pc uint16, opcode byte) { cb(pc, opcode) }
}

// SetSerialWriter routes serial-port output bytes to w; nil disables
// the sink. Used by test harnesses that read Blargg/mooneye pass-fail
// banners off the serial port instead of the framebuffer.
func (c *Core) SetSerialWriter(w io.Writer) { c.bus.SetSerialWriter(w) }

// Running reports whether the core will still make progress on the
// next RunTo call.
func (c *Core) Running() bool { return c.running }

// Stop halts the run loop; RunTo becomes a no-op until LoadROM runs
// again.
func (c *Core) Stop() { c.running = false }

// Bus exposes the underlying bus for tools (cmd/gbcore-run, the
// reference UI) that need direct register access the Core API above
// doesn't cover.
func (c *Core) Bus() *bus.Bus { return c.bus }

// SampleRate reports the configured output sample rate, for hosts
// that need to size their own audio device buffers.
func (c *Core) SampleRate() int { return c.cfg.SampleRate }
