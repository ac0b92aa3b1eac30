package emu

import (
	"strings"

	"github.com/imchristina/boyo/internal/cart"
)

// compatTitleExact maps exact, normalized titles to a preferred compat
// palette ID, indexing into compatPalettes below.
var compatTitleExact = map[string]int{
	"TETRIS":              2, // Blue
	"TETRIS DX":           2,
	"SUPER MARIO LAND":    3, // Red
	"SUPER MARIO LAND 2":  3,
	"DR. MARIO":           4, // Pastel
	"DONKEY KONG":         1, // Sepia
	"THE LEGEND OF ZELDA": 0, // Green
	"ZELDA":               0,
	"METROID II":          3,
	"KIRBY'S DREAM LAND":  4,
	"MEGA MAN":            2,
	"MEGAMAN":             2,
	"WARIO LAND":          1,
	"POKEMON YELLOW":      4,
	"POKEMON RED":         4,
	"POKEMON BLUE":        4,
	"POCKET MONSTERS":     4,
}

type containsRule struct {
	substr string
	id     int
}

var compatTitleContains = []containsRule{
	{"TETRIS", 2},
	{"MARIO", 3},
	{"ZELDA", 0},
	{"KIRBY", 4},
	{"DONKEY KONG", 1},
	{"METROID", 3},
	{"MEGA MAN", 2},
	{"MEGAMAN", 2},
	{"WARIO", 1},
	{"POKEMON", 4},
	{"POCKET MONSTERS", 4},
}

// autoCompatPaletteFromHeader picks a palette ID for a DMG-only
// cartridge running on CGB hardware: a small title table first, then
// a stable fallback keyed off licensee and header checksum so the
// same cartridge always lands on the same palette across runs.
func autoCompatPaletteFromHeader(h *cart.Header) (int, bool) {
	if h == nil {
		return 0, false
	}
	title := strings.TrimSpace(strings.TrimRight(h.Title, "\x00"))
	t := strings.ToUpper(title)
	if id, ok := compatTitleExact[t]; ok {
		return id, true
	}
	for _, r := range compatTitleContains {
		if strings.Contains(t, r.substr) {
			return r.id, true
		}
	}
	nintendo := false
	if h.OldLicensee == 0x33 {
		nintendo = strings.ToUpper(h.NewLicensee) == "01"
	} else {
		nintendo = h.OldLicensee == 0x01
	}
	if nintendo {
		return int(h.HeaderChecksum) % len(compatPalettes), true
	}
	return 0, true
}

// rgb555 packs a 5-bit-per-channel color into the little-endian byte
// pair CGB palette RAM stores: low byte bits 0-4 red, 5-7 + high byte
// bits 0-1 green, high byte bits 2-6 blue.
func rgb555(r, g, b byte) [2]byte {
	v := uint16(r&0x1F) | uint16(g&0x1F)<<5 | uint16(b&0x1F)<<10
	return [2]byte{byte(v), byte(v >> 8)}
}

type compatPalette struct {
	bg, obj0, obj1 [4][2]byte
}

// compatPalettes is a small curated set of borrowed boot palettes,
// shading from lightest to darkest the way the DMG's own 4-shade
// ramp does, in different hues per set.
var compatPalettes = []compatPalette{
	{ // 0: Green
		bg:   [4][2]byte{rgb555(31, 31, 31), rgb555(21, 27, 10), rgb555(10, 17, 5), rgb555(2, 6, 2)},
		obj0: [4][2]byte{rgb555(31, 31, 31), rgb555(31, 21, 10), rgb555(21, 10, 2), rgb555(2, 2, 2)},
		obj1: [4][2]byte{rgb555(31, 31, 31), rgb555(10, 21, 31), rgb555(2, 10, 21), rgb555(2, 2, 2)},
	},
	{ // 1: Sepia
		bg:   [4][2]byte{rgb555(31, 29, 24), rgb555(27, 21, 14), rgb555(18, 12, 7), rgb555(6, 4, 2)},
		obj0: [4][2]byte{rgb555(31, 29, 24), rgb555(24, 17, 8), rgb555(14, 8, 2), rgb555(2, 2, 2)},
		obj1: [4][2]byte{rgb555(31, 29, 24), rgb555(24, 17, 8), rgb555(14, 8, 2), rgb555(2, 2, 2)},
	},
	{ // 2: Blue
		bg:   [4][2]byte{rgb555(28, 30, 31), rgb555(14, 20, 27), rgb555(6, 10, 18), rgb555(1, 2, 6)},
		obj0: [4][2]byte{rgb555(31, 31, 31), rgb555(31, 21, 10), rgb555(21, 10, 2), rgb555(2, 2, 2)},
		obj1: [4][2]byte{rgb555(31, 31, 31), rgb555(10, 21, 31), rgb555(2, 10, 21), rgb555(2, 2, 2)},
	},
	{ // 3: Red
		bg:   [4][2]byte{rgb555(31, 28, 27), rgb555(27, 14, 12), rgb555(18, 5, 5), rgb555(6, 1, 1)},
		obj0: [4][2]byte{rgb555(31, 31, 31), rgb555(27, 27, 10), rgb555(18, 18, 2), rgb555(2, 2, 2)},
		obj1: [4][2]byte{rgb555(31, 31, 31), rgb555(10, 21, 31), rgb555(2, 10, 21), rgb555(2, 2, 2)},
	},
	{ // 4: Pastel
		bg:   [4][2]byte{rgb555(31, 31, 28), rgb555(27, 24, 31), rgb555(20, 17, 24), rgb555(8, 6, 10)},
		obj0: [4][2]byte{rgb555(31, 31, 31), rgb555(31, 24, 27), rgb555(24, 14, 18), rgb555(4, 2, 4)},
		obj1: [4][2]byte{rgb555(31, 31, 31), rgb555(24, 31, 27), rgb555(14, 24, 18), rgb555(2, 4, 2)},
	},
}

// applyCompatPalette resolves a palette for the currently loaded
// cartridge (DMG-only content forced into CGB mode) and writes it
// into the PPU's palette RAM. LoadROM calls it once the header is
// parsed; with no header it falls back to palette 0.
func (c *Core) applyCompatPalette() {
	id, ok := autoCompatPaletteFromHeader(c.header)
	if !ok {
		id = 0
	}
	if id < 0 || id >= len(compatPalettes) {
		id = 0
	}
	p := compatPalettes[id]
	c.bus.PPU().LoadCompatPalette(p.bg, p.obj0, p.obj1)
}
