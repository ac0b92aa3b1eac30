package ppu

// VRAMReader provides read-only access for the fetcher or scanline helpers.
// It abstracts how VRAM bytes are fetched (tests vs. live PPU).
type VRAMReader interface {
	Read(addr uint16) byte
}

// BankedVRAMReader extends VRAMReader with CGB's second VRAM bank. A
// tileFetcher configured with one of these resolves a bank-1 tile
// attribute byte per tile (palette, bank select, flips, priority)
// instead of running the fixed-zero DMG tile path.
type BankedVRAMReader interface {
	VRAMReader
	ReadBank(bank int, addr uint16) byte
}

// fifo is a simple ring buffer for 2-bit color indices (0..3).
type fifo struct {
	buf  [32]byte // room for several tiles
	head int
	tail int
	size int
}

func (q *fifo) Clear()   { q.head, q.tail, q.size = 0, 0, 0 }
func (q *fifo) Len() int { return q.size }
func (q *fifo) Push(ci byte) bool {
	if q.size == len(q.buf) {
		return false
	}
	q.buf[q.tail] = ci & 0x03
	q.tail = (q.tail + 1) % len(q.buf)
	q.size++
	return true
}
func (q *fifo) Pop() (byte, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return v, true
}

// tileFetcher pulls one tile row (8 pixels) into the fifo, shared by
// the DMG and CGB BG/window renderers in scanline.go. attrs is nil on
// DMG, where every fetched pixel behaves as attribute byte 0 (bank 0,
// no flip, BG palette 0, no BG-over-OBJ priority); on CGB it supplies
// the bank-1 attribute byte read at the tile's own map offset.
type tileFetcher struct {
	mem           VRAMReader
	attrs         BankedVRAMReader
	fifo          *fifo
	mapBase       uint16 // 0x9800 or 0x9C00
	attrBase      uint16 // CGB attribute map base; unused when attrs == nil
	tileData8000  bool   // true: 0x8000 addressing; false: 0x8800 signed
	tileIndexAddr uint16 // tile index address within map
	fineY         byte   // 0..7 within tile, pre-flip
}

func newTileFetcher(mem VRAMReader, attrs BankedVRAMReader, f *fifo) *tileFetcher {
	return &tileFetcher{mem: mem, attrs: attrs, fifo: f}
}

// Configure sets tilemap, attribute map, and addressing mode for the
// next Fetch.
func (fch *tileFetcher) Configure(mapBase, attrBase uint16, tileData8000 bool, tileIndexAddr uint16, fineY byte) {
	fch.mapBase = mapBase
	fch.attrBase = attrBase
	fch.tileData8000 = tileData8000
	fch.tileIndexAddr = tileIndexAddr
	fch.fineY = fineY & 7
}

// Fetch pushes 8 pixels (color indices) for the current tile row to
// the fifo and returns the tile's CGB attribute byte (always 0 when
// attrs == nil), since the whole row shares one attribute byte.
func (fch *tileFetcher) Fetch() byte {
	tileNum := fch.mem.Read(fch.tileIndexAddr)

	var attr byte
	bank := 0
	fineY := fch.fineY
	if fch.attrs != nil {
		attrAddr := fch.attrBase + (fch.tileIndexAddr - fch.mapBase)
		attr = fch.attrs.ReadBank(1, attrAddr)
		if attr&0x08 != 0 { // tile data bank select
			bank = 1
		}
		if attr&0x40 != 0 { // Y flip
			fineY = 7 - fineY
		}
	}

	var base uint16
	if fch.tileData8000 {
		base = 0x8000 + uint16(tileNum)*16 + uint16(fineY)*2
	} else {
		base = 0x9000 + uint16(int8(tileNum))*16 + uint16(fineY)*2
	}

	var lo, hi byte
	if fch.attrs != nil {
		lo = fch.attrs.ReadBank(bank, base)
		hi = fch.attrs.ReadBank(bank, base+1)
	} else {
		lo = fch.mem.Read(base)
		hi = fch.mem.Read(base + 1)
	}

	xflip := fch.attrs != nil && attr&0x20 != 0
	for px := 0; px < 8; px++ {
		bit := 7 - byte(px)
		if xflip {
			bit = byte(px)
		}
		ci := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		_ = fch.fifo.Push(ci)
	}
	return attr
}
