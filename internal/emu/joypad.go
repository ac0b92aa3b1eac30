package emu

// Joypad mask encoding: bits 5 and 4 select the matrix column (buttons
// or d-pad), and the low nibble selects lines within that column. This
// is the host-facing encoding passed to JoypadDown/JoypadUp; Core
// translates it to the bus's internal pressed-bitmask representation.
const (
	colDPad    = 1 << 4
	colButtons = 1 << 5

	DPadRight = colDPad | (1 << 0)
	DPadLeft  = colDPad | (1 << 1)
	DPadUp    = colDPad | (1 << 2)
	DPadDown  = colDPad | (1 << 3)

	BtnA      = colButtons | (1 << 0)
	BtnB      = colButtons | (1 << 1)
	BtnSelect = colButtons | (1 << 2)
	BtnStart  = colButtons | (1 << 3)
)
