// Package cart implements cartridge header parsing and the MBC0/1/2/3/5
// bank-switching state machines that sit behind the memory bus's
// 0x0000-0x7FFF and 0xA000-0xBFFF windows.
package cart

import "fmt"

// Cartridge is the minimal interface the bus needs for ROM/RAM banking.
// Addresses are CPU addresses; Read covers both ROM (0x0000-0x7FFF) and
// external RAM (0xA000-0xBFFF), and Write covers MBC control writes and
// RAM writes over the same two windows.
type Cartridge interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// BatteryBacked is implemented by cartridges with persistable external RAM.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
	RAMSize() int
}

// MapperError reports an unknown cartridge type byte from the header.
type MapperError struct {
	CartType byte
}

func (e *MapperError) Error() string {
	return fmt.Sprintf("cart: unknown mapper type %#02x", e.CartType)
}

// New picks a mapper implementation from the ROM header's cartridge type
// byte. Unknown types are a load error (spec: "unknown mapper type").
func New(rom []byte) (Cartridge, *Header, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, nil, err
	}
	switch h.CartType {
	case 0x00, 0x08, 0x09:
		return NewROMOnly(rom, h.RAMSizeBytes), h, nil
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes), h, nil
	case 0x05, 0x06:
		return NewMBC2(rom), h, nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return NewMBC3(rom, h.RAMSizeBytes), h, nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return NewMBC5(rom, h.RAMSizeBytes), h, nil
	default:
		return nil, h, &MapperError{CartType: h.CartType}
	}
}

// HasBattery reports whether the header's cartridge type code denotes
// battery-backed external RAM (or, for MBC2, the built-in battery RAM).
func HasBattery(cartType byte) bool {
	switch cartType {
	case 0x03, 0x06, 0x09, 0x0D, 0x10, 0x13, 0x1B, 0x1E, 0x22, 0xFF:
		return true
	default:
		return false
	}
}
