package ppu

// dmgShades maps a 2-bit DMG color index (already passed through a
// BGP/OBPn palette register) to an RGBA8888 pixel, classic 4-level
// green-grey ramp lightest to darkest.
var dmgShades = [4][4]byte{
	{0xE8, 0xF8, 0xE0, 0xFF},
	{0xA8, 0xC0, 0x98, 0xFF},
	{0x50, 0x68, 0x48, 0xFF},
	{0x10, 0x18, 0x10, 0xFF},
}

// applyDMGPalette runs a raw 2-bit color index through a BGP/OBP0/OBP1
// register (4 fields of 2 bits each) to get the displayed shade index.
func applyDMGPalette(reg byte, ci byte) byte {
	return (reg >> (ci * 2)) & 0x03
}

// rgb555ToRGBA decodes a CGB BGR555 palette entry (as stored in
// BGPD/OBPD: bits 0-4 red, 5-9 green, 10-14 blue) to RGBA8888, scaling
// each 5-bit channel up to 8 bits.
func rgb555ToRGBA(lo, hi byte) [4]byte {
	v := uint16(lo) | uint16(hi)<<8
	r := byte(v & 0x1F)
	g := byte((v >> 5) & 0x1F)
	b := byte((v >> 10) & 0x1F)
	scale := func(c byte) byte { return (c << 3) | (c >> 2) }
	return [4]byte{scale(r), scale(g), scale(b), 0xFF}
}
