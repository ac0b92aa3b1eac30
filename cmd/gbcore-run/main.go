// Command gbcore-run loads a ROM into the emulation core and either
// runs it in a window (the reference ebiten host) or drives it
// headlessly for a fixed number of frames, matching the teacher's
// cmd/gbemu entry point.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/imchristina/boyo/internal/cart"
	"github.com/imchristina/boyo/internal/emu"
	"github.com/imchristina/boyo/internal/ui"
)

type cliFlags struct {
	romPath string
	bootROM string
	scale   int
	title   string
	trace   bool
	cgb     bool
	saveRAM bool

	headless bool
	frames   int
	pngOut   string
	expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.romPath, "rom", "", "path to ROM (.gb/.gbc)")
	flag.StringVar(&f.bootROM, "bootrom", "", "optional boot ROM")
	flag.IntVar(&f.scale, "scale", 3, "window scale")
	flag.StringVar(&f.title, "title", "gbcore", "window title")
	flag.BoolVar(&f.trace, "trace", false, "per-instruction CPU trace")
	flag.BoolVar(&f.cgb, "cgb", false, "boot in CGB mode")
	flag.BoolVar(&f.saveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")

	flag.BoolVar(&f.headless, "headless", false, "run without a window")
	flag.IntVar(&f.frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.pngOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func runHeadless(c *emu.Core, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames && c.Running(); i++ {
		c.RunTo(emu.EventFrame)
	}
	dur := time.Since(start)

	fb := c.Bus().PPU().Framebuffer()
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x", frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, 160, 144, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}
	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{Pix: make([]byte, len(pix)), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func savPath(romPath string) string {
	return strings.TrimSuffix(romPath, ".gb") + ".sav"
}

func main() {
	f := parseFlags()
	rom := mustRead(f.romPath)
	boot := mustRead(f.bootROM)

	if len(rom) >= 0x150 {
		if h, err := cart.ParseHeader(rom); err == nil {
			log.Printf("ROM: %q type=%s banks=%d ram=%dB cgb=%v", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes, h.CGB)
		}
	}

	core := emu.New(emu.Config{Trace: f.trace, CGB: f.cgb})
	if len(boot) > 0 {
		if err := core.LoadBootROM(boot); err != nil {
			log.Fatalf("load boot ROM: %v", err)
		}
	}
	if len(rom) == 0 {
		log.Fatalf("no ROM given (-rom)")
	}
	if err := core.LoadROM(rom); err != nil {
		log.Fatalf("load ROM: %v", err)
	}
	if f.trace {
		core.SetTrace(func(pc uint16, opcode byte) {
			log.Printf("%04X: %02X", pc, opcode)
		})
	}
	core.SetDiagnostic(func(err error) {
		log.Printf("core diagnostic: %v", err)
	})

	var sav string
	if f.saveRAM && f.romPath != "" && core.SavSize() > 0 {
		sav = savPath(f.romPath)
		if data, err := os.ReadFile(sav); err == nil {
			if err := core.LoadSav(data); err == nil {
				log.Printf("loaded save RAM: %s (%d bytes)", sav, len(data))
			}
		}
	}

	if f.headless {
		err := runHeadless(core, f.frames, f.pngOut, f.expect)
		if sav != "" {
			if data := core.Sav(); data != nil {
				if werr := os.WriteFile(sav, data, 0o644); werr == nil {
					log.Printf("wrote %s", sav)
				}
			}
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	app := ui.NewApp(ui.Config{Title: f.title, Scale: f.scale}, core)
	defer func() {
		if sav != "" {
			if data := core.Sav(); data != nil {
				_ = os.WriteFile(sav, data, 0o644)
			}
		}
	}()
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
