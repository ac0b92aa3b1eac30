package ppu

import "sort"

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT, etc.).
type InterruptRequester func(bit int)

// LineRegs captures PPU state latched at the moment a scanline entered
// mode 3, for callers (tests, diagnostics) that need to inspect timing
// that the register file itself doesn't expose after the fact.
type LineRegs struct {
	WinLine byte
}

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, CGB palette RAM, and
// dot-accurate mode timing. It exposes CPU-facing Read/Write for
// VRAM/OAM and PPU IO registers, and composes a full RGBA8888
// framebuffer as scanlines render.
type PPU struct {
	// memory
	vram     [2][0x2000]byte // bank 0 always present, bank 1 CGB-only
	vramBank byte            // FF4F bit0
	oam      [0xA0]byte      // 0xFE00–0xFE9F

	// regs
	lcdc byte // FF40
	stat byte // FF41 (mode bits 0-1, coincidence flag bit2, enables bits3-6)
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	cgb        bool
	compatMode bool // DMG cartridge running on CGB hardware with a borrowed palette
	bgpIndex   byte // FF68
	objIndex   byte // FF6A
	bgPalRAM   [64]byte
	objPalRAM  [64]byte

	dot int // dots within current line [0..455]

	windowLine byte // internal window-line counter, latched per-scanline into lineRegs
	lineRegs   [144]LineRegs

	fb [160 * 144 * 4]byte

	req InterruptRequester
}

func New(req InterruptRequester, cgb bool) *PPU { return &PPU{req: req, cgb: cgb} }

// LoadCompatPalette seeds CGB BG palette 0 with bg and OBJ palettes 0
// and 1 with obj0 and obj1 (4 RGB555 entries each, as raw
// little-endian byte pairs) and
// switches sprite color resolution to use the DMG OBP0/OBP1 attribute
// bit instead of the 3-bit CGB palette field, matching how real CGB
// hardware runs a DMG-only cartridge under a borrowed boot palette.
func (p *PPU) LoadCompatPalette(bg, obj0, obj1 [4][2]byte) {
	p.cgb = true
	p.compatMode = true
	for i := 0; i < 4; i++ {
		p.bgPalRAM[i*2] = bg[i][0]
		p.bgPalRAM[i*2+1] = bg[i][1]
		p.objPalRAM[i*2] = obj0[i][0]
		p.objPalRAM[i*2+1] = obj0[i][1]
		p.objPalRAM[8+i*2] = obj1[i][0]
		p.objPalRAM[8+i*2+1] = obj1[i][1]
	}
}

// Framebuffer returns the most recently composed frame as tightly
// packed RGBA8888 rows, 160x144 pixels.
func (p *PPU) Framebuffer() []byte { return p.fb[:] }

// LineRegs returns the register snapshot latched when scanline y last
// entered mode 3.
func (p *PPU) LineRegs(y int) LineRegs {
	if y < 0 || y >= len(p.lineRegs) {
		return LineRegs{}
	}
	return p.lineRegs[y]
}

// Read implements VRAMReader against VRAM bank 0 only; tile maps and
// pattern indices always live in bank 0 on CGB, so internal renderers
// use this for anything that isn't attribute data.
func (p *PPU) Read(addr uint16) byte { return p.rawVRAMRead(0, addr) }

// ReadBank implements BankedVRAMReader for CGB scanline rendering.
func (p *PPU) ReadBank(bank int, addr uint16) byte { return p.rawVRAMRead(bank, addr) }

func (p *PPU) rawVRAMRead(bank int, addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	return p.vram[bank&1][addr-0x8000]
}

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return 0xFF
		}
		return p.vram[p.vramBank][addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	case addr == 0xFF4F:
		if !p.cgb {
			return 0xFF
		}
		return 0xFE | p.vramBank
	case addr == 0xFF68:
		return p.bgpIndex | 0x40
	case addr == 0xFF69:
		return p.bgPalRAM[p.bgpIndex&0x3F]
	case addr == 0xFF6A:
		return p.objIndex | 0x40
	case addr == 0xFF6B:
		return p.objPalRAM[p.objIndex&0x3F]
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if (p.stat & 0x03) == 3 {
			return
		}
		p.vram[p.vramBank][addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		m := p.stat & 0x03
		if m == 2 || m == 3 {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			p.ly = 0
			p.dot = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			p.ly = 0
			p.dot = 0
			p.windowLine = 0
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		p.ly = 0
		p.dot = 0
		p.updateLYC()
		if (p.lcdc & 0x80) != 0 {
			p.setMode(2)
		}
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	case addr == 0xFF4F:
		if p.cgb {
			p.vramBank = value & 1
		}
	case addr == 0xFF68:
		p.bgpIndex = value & 0xBF
	case addr == 0xFF69:
		if p.cgb {
			p.bgPalRAM[p.bgpIndex&0x3F] = value
			if p.bgpIndex&0x80 != 0 {
				p.bgpIndex = (p.bgpIndex & 0x80) | ((p.bgpIndex + 1) & 0x3F)
			}
		}
	case addr == 0xFF6A:
		p.objIndex = value & 0xBF
	case addr == 0xFF6B:
		if p.cgb {
			p.objPalRAM[p.objIndex&0x3F] = value
			if p.objIndex&0x80 != 0 {
				p.objIndex = (p.objIndex & 0x80) | ((p.objIndex + 1) & 0x3F)
			}
		}
	}
}

// Tick advances PPU state by the given number of dots (CPU cycles).
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 { // LCD off
			continue
		}
		p.dot++
		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+172:
				mode = 3
			default:
				mode = 0
			}
		}
		p.setMode(mode)

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				if p.req != nil {
					p.req(0)
				}
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				}
			} else if p.ly > 153 {
				p.ly = 0
				p.windowLine = 0
			}
			p.updateLYC()
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0: // HBlank
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2: // OAM
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 3:
		if p.ly < 144 {
			p.renderScanline(int(p.ly))
		}
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// windowVisibleOnLine reports whether the window layer contributes any
// pixels to scanline ly, and the screen-space X it starts at.
func (p *PPU) windowVisibleOnLine(ly int) (visible bool, wxStart int) {
	if p.lcdc&0x20 == 0 {
		return false, 0
	}
	if int(p.wy) > ly {
		return false, 0
	}
	if p.wx > 166 {
		return false, 0
	}
	return true, int(p.wx) - 7
}

// renderScanline composes BG, window, and sprite layers for line ly
// into the framebuffer, and latches the window-line counter used for
// this row into lineRegs.
func (p *PPU) renderScanline(ly int) {
	tileData8000 := p.lcdc&0x10 != 0
	bgMapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	winMapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		winMapBase = 0x9C00
	}

	visible, wxStart := p.windowVisibleOnLine(ly)
	winLineForRow := p.windowLine
	p.lineRegs[ly] = LineRegs{WinLine: winLineForRow}
	if visible {
		p.windowLine++
	}

	var bgci [160]byte
	var bgPalIdx [160]byte
	var bgPriority [160]bool

	if p.cgb {
		// The CGB attribute map shares the tile map's address, just in
		// VRAM bank 1 instead of bank 0.
		ci, palArr, priArr := RenderBGScanline(p, p, bgMapBase, bgMapBase, tileData8000, p.scx, p.scy, byte(ly))
		bgci = ci
		bgPalIdx = palArr
		bgPriority = priArr
		if visible {
			wci, wpal, wpri := RenderWindowScanline(p, p, winMapBase, winMapBase, tileData8000, wxStart, winLineForRow)
			for x := max(wxStart, 0); x < 160; x++ {
				bgci[x] = wci[x]
				bgPalIdx[x] = wpal[x]
				bgPriority[x] = wpri[x]
			}
		}
	} else {
		bgEnabled := p.lcdc&0x01 != 0
		if bgEnabled {
			ci, _, _ := RenderBGScanline(p, nil, bgMapBase, bgMapBase, tileData8000, p.scx, p.scy, byte(ly))
			bgci = ci
		}
		if visible && p.lcdc&0x01 != 0 {
			wci, _, _ := RenderWindowScanline(p, nil, winMapBase, winMapBase, tileData8000, wxStart, winLineForRow)
			for x := max(wxStart, 0); x < 160; x++ {
				bgci[x] = wci[x]
			}
		}
	}

	spritesEnabled := p.lcdc&0x02 != 0
	var sprites []Sprite
	if spritesEnabled {
		sprites = p.scanSprites(ly)
	}
	spriteCi, spriteAttr, spriteOwned := ComposeSpriteLineAttrs(p, sprites, ly, bgci, p.cgb)

	for x := 0; x < 160; x++ {
		var rgba [4]byte
		useSprite := spriteOwned[x] && spriteCi[x] != 0
		if useSprite && p.cgb && p.lcdc&0x01 != 0 && bgPriority[x] && bgci[x] != 0 {
			// BG tile's own priority bit overrides sprites when the
			// CGB master BG/window priority bit (LCDC.0) is set.
			useSprite = false
		}
		if useSprite && p.cgb {
			palNum := spriteAttr[x] & 0x07
			if p.compatMode {
				palNum = 0
				if spriteAttr[x]&0x10 != 0 {
					palNum = 1
				}
			}
			off := int(palNum)*8 + int(spriteCi[x])*2
			rgba = rgb555ToRGBA(p.objPalRAM[off], p.objPalRAM[off+1])
		} else if useSprite {
			reg := p.obp0
			if spriteAttr[x]&0x10 != 0 {
				reg = p.obp1
			}
			shade := applyDMGPalette(reg, spriteCi[x])
			rgba = dmgShades[shade]
		} else if p.cgb {
			idx := bgPalIdx[x]
			if p.compatMode {
				idx = 0
			}
			off := int(idx)*8 + int(bgci[x])*2
			rgba = rgb555ToRGBA(p.bgPalRAM[off], p.bgPalRAM[off+1])
		} else {
			shade := applyDMGPalette(p.bgp, bgci[x])
			rgba = dmgShades[shade]
		}
		base := (ly*160 + x) * 4
		p.fb[base+0] = rgba[0]
		p.fb[base+1] = rgba[1]
		p.fb[base+2] = rgba[2]
		p.fb[base+3] = rgba[3]
	}
}

// scanSprites selects up to 10 OAM entries overlapping scanline ly,
// ordered by display priority: ascending X then OAM index on DMG,
// ascending OAM index only on CGB.
func (p *PPU) scanSprites(ly int) []Sprite {
	height := 8
	if p.lcdc&0x04 != 0 {
		height = 16
	}
	var found []Sprite
	for i := 0; i < 40 && len(found) < 10; i++ {
		base := i * 4
		y := int(p.oam[base]) - 16
		x := int(p.oam[base+1]) - 8
		tile := p.oam[base+2]
		attr := p.oam[base+3]
		if ly < y || ly >= y+height {
			continue
		}
		found = append(found, Sprite{X: x, Y: y, Tile: tile, Attr: attr, OAMIndex: i, Height: height})
	}
	sort.SliceStable(found, func(a, b int) bool {
		if p.cgb {
			return found[a].OAMIndex < found[b].OAMIndex
		}
		if found[a].X != found[b].X {
			return found[a].X < found[b].X
		}
		return found[a].OAMIndex < found[b].OAMIndex
	})
	return found
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Expose palettes and scroll for renderer convenience (optional helpers)
func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }
