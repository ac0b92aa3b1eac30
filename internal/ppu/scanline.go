package ppu

// RenderBGScanline renders 160 BG pixels for the given LY through the
// shared tileFetcher. On DMG, pass attrs == nil: pal is always 0 and
// pri is always false. On CGB, attrs supplies the bank-1 tile
// attribute byte (palette, VRAM bank, flips, BG-over-OBJ priority)
// read from attrBase at the same map offset as the tile index.
//
// Inputs:
// - mem: VRAM reader for tile indices and (on DMG) tile data
// - attrs: CGB attribute-map/bank-1 reader, or nil on DMG
// - mapBase: 0x9800 or 0x9C00
// - attrBase: CGB attribute map base (ignored when attrs == nil)
// - tileData8000: true -> 0x8000 addressing; false -> 0x8800 signed
// - scx, scy: scroll registers
// - ly: current scanline (0..143)
func RenderBGScanline(mem VRAMReader, attrs BankedVRAMReader, mapBase, attrBase uint16, tileData8000 bool, scx, scy, ly byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31 // 0..31 rows

	startX := uint16(scx)
	tileX := (startX >> 3) & 31
	fineX := int(startX & 7)

	tileIndexAddr := mapBase + mapY*32 + tileX

	var q fifo
	f := newTileFetcher(mem, attrs, &q)
	f.Configure(mapBase, attrBase, tileData8000, tileIndexAddr, fineY)
	attr := f.Fetch()
	// Discard scx fractional pixels.
	for i := 0; i < fineX; i++ {
		_, _ = q.Pop()
	}

	// Produce 160 pixels, fetching new tiles as the fifo empties.
	for x := 0; x < 160; x++ {
		if q.Len() == 0 {
			// Advance to next tile in map row (wrap at 32 tiles).
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, attrBase, tileData8000, tileIndexAddr, fineY)
			attr = f.Fetch()
		}
		px, _ := q.Pop()
		ci[x] = px
		pal[x] = attr & 0x07
		pri[x] = attr&0x80 != 0
	}
	return ci, pal, pri
}

// RenderWindowScanline mirrors RenderBGScanline for the window layer.
// It fills pixels starting at wxStart (WX-7) using winLine as the
// vertical line within the window. Pixels before wxStart are left
// zeroed so callers can blend against the BG layer already composed
// for those columns.
func RenderWindowScanline(mem VRAMReader, attrs BankedVRAMReader, mapBase, attrBase uint16, tileData8000 bool, wxStart int, winLine byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	if wxStart >= 160 {
		return ci, pal, pri
	}
	if wxStart < 0 {
		wxStart = 0
	}
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	tileX := uint16(0)
	tileIndexAddr := mapBase + mapY*32 + tileX

	var q fifo
	f := newTileFetcher(mem, attrs, &q)
	f.Configure(mapBase, attrBase, tileData8000, tileIndexAddr, fineY)
	attr := f.Fetch()
	for x := wxStart; x < 160; x++ {
		if q.Len() == 0 {
			tileX = (tileX + 1) & 31
			tileIndexAddr = mapBase + mapY*32 + tileX
			f.Configure(mapBase, attrBase, tileData8000, tileIndexAddr, fineY)
			attr = f.Fetch()
		}
		px, _ := q.Pop()
		ci[x] = px
		pal[x] = attr & 0x07
		pri[x] = attr&0x80 != 0
	}
	return ci, pal, pri
}
