// Command gbcore-trace is a windowless harness for running
// Blargg/mooneye-style test ROMs to completion, watching serial
// output for a pass/fail banner, adapted from the teacher's
// cpurunner tool onto the real Core API.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/imchristina/boyo/internal/emu"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb/.gbc)")
	bootPath := flag.String("bootrom", "", "optional boot ROM")
	cgb := flag.Bool("cgb", false, "boot in CGB mode")
	maxFrames := flag.Int("frames", 10_000, "max frames to run before giving up")
	trace := flag.Bool("trace", false, "print PC/opcode per instruction")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed'/'Failed N tests' and exit 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout; 0 disables")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		boot, err = os.ReadFile(*bootPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
	}

	core := emu.New(emu.Config{Trace: *trace, CGB: *cgb})
	if len(boot) > 0 {
		if err := core.LoadBootROM(boot); err != nil {
			log.Fatalf("load boot ROM: %v", err)
		}
	}
	if err := core.LoadROM(rom); err != nil {
		log.Fatalf("load ROM: %v", err)
	}

	var ser bytes.Buffer
	var w io.Writer = os.Stdout
	if *until != "" || *auto {
		w = io.MultiWriter(os.Stdout, &ser)
	}
	core.SetSerialWriter(w)

	if *trace {
		core.SetTrace(func(pc uint16, opcode byte) {
			fmt.Printf("PC=%04X OP=%02X\n", pc, opcode)
		})
	}
	var fatal error
	core.SetDiagnostic(func(err error) { fatal = err })

	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	for i := 0; i < *maxFrames && core.Running(); i++ {
		core.RunTo(emu.EventFrame)
		if fatal != nil {
			fmt.Printf("\ncore diagnostic: %v\n", fatal)
			os.Exit(2)
		}
		s := ser.String()
		if *auto {
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output after %d frames, %s.\n", i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if m := failRe.FindStringSubmatch(s); m != nil {
				fmt.Printf("\nDetected %q in serial output after %d frames.\n", m[0], i+1)
				os.Exit(1)
			}
		} else if *until != "" && strings.Contains(strings.ToLower(s), strings.ToLower(*until)) {
			fmt.Printf("\nDetected %q in serial output after %d frames, %s.\n", *until, i+1, time.Since(start).Truncate(time.Millisecond))
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}
	fmt.Printf("\nDone: frames=%d elapsed=%s\n", *maxFrames, time.Since(start).Truncate(time.Millisecond))
}
