package cart

// MBC2 implements mapper codes 0x05-0x06: a 4-bit ROM bank register
// selected by address bit 8 of the 0x0000-0x3FFF write window, plus a
// built-in 512x4-bit RAM whose high nibble always reads back as 0xF.
type MBC2 struct {
	rom []byte
	ram [512]byte // only the low nibble of each byte is meaningful

	ramEnable bool
	romBank   byte // 4 bits, 0 reads as 1
}

func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		off := int(m.romBank)*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnable {
			return 0xFF
		}
		return 0xF0 | (m.ram[addr&0x1FF] & 0x0F)
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value byte) {
	switch {
	case addr < 0x4000:
		// Bit 8 of the address selects RAM-enable vs ROM-bank writes.
		if addr&0x0100 != 0 {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			m.romBank = bank
		} else {
			m.ramEnable = (value & 0x0F) == 0x0A
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnable {
			return
		}
		m.ram[addr&0x1FF] = value & 0x0F
	}
}

func (m *MBC2) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram[:])
	return out
}

func (m *MBC2) LoadRAM(data []byte) { copy(m.ram[:], data) }
func (m *MBC2) RAMSize() int        { return len(m.ram) }
