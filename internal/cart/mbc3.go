package cart

// MBC3 implements mapper codes 0x0F-0x13: a 7-bit ROM bank register and
// a RAM bank register shared with the (unimplemented, see spec's open
// question) RTC register select. RAM-bank values 0x08-0x0C, which would
// select an RTC register on real hardware, address a single scratch
// byte here instead of falling through to RAM bank 0 — this keeps an
// RTC-probing game from silently corrupting saved RAM.
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnable bool
	romBank   byte // 7 bits, 0 reads as 1
	ramBank   byte // 0-3 selects RAM; 0x08-0x0C would select an RTC register
	rtcStub   byte
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnable {
			return 0xFF
		}
		if m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.rtcStub
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnable = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		m.ramBank = value
	case addr < 0x8000:
		// Clock latch: no-op without an RTC.
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnable {
			return
		}
		if m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			m.rtcStub = value
			return
		}
		off := int(m.ramBank&0x03)*0x2000 + int(addr-0xA000)
		if off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC3) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) { copy(m.ram, data) }
func (m *MBC3) RAMSize() int        { return len(m.ram) }
