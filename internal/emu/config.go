package emu

// Config contains settings that affect emulation behavior, independent
// of any host/windowing concern (those live in internal/ui.Config).
type Config struct {
	Trace      bool // invoke cpu.CPU.Trace once per instruction
	CGB        bool // boot in CGB mode
	SampleRate int  // audio sample rate in Hz; 0 defaults to 44100
}
