package ui

// Config contains window/input/audio settings for the reference host.
// Emulation knobs (trace, sample rate, CGB enable) live in emu.Config;
// this struct only ever touches host/windowing concerns.
type Config struct {
	Title           string // window title
	Scale           int    // integer upscaling factor
	AudioStereo     bool   // true for stereo output, false folds to mono
	AudioLowLatency bool   // hard-cap audio buffering for minimal latency
	SettingsPath    string // where loadSettings reads and SaveSettings writes
}

// Defaults fills missing fields with reasonable values.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbcore"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.SettingsPath == "" {
		c.SettingsPath = "gbcore-settings.json"
	}
}
