package fins

// Memory area codes per the FINS command reference. Every area has a
// word-addressed code and a bit-addressed code; the two tables never mix.
const (
	// Bit-addressed areas
	MemoryAreaCIOBit byte = 0x30
	MemoryAreaWRBit  byte = 0x31
	MemoryAreaHRBit  byte = 0x32
	MemoryAreaARBit  byte = 0x33
	MemoryAreaDMBit  byte = 0x02

	// Word-addressed areas
	MemoryAreaCIOWord byte = 0xB0
	MemoryAreaWRWord  byte = 0xB1
	MemoryAreaHRWord  byte = 0xB2
	MemoryAreaARWord  byte = 0xB3
	MemoryAreaDMWord  byte = 0x82

	// Extended Memory banks 0-F, bit-addressed
	MemoryAreaEM0Bit byte = 0x20
	MemoryAreaEM1Bit byte = 0x21
	MemoryAreaEM2Bit byte = 0x22
	MemoryAreaEM3Bit byte = 0x23
	MemoryAreaEM4Bit byte = 0x24
	MemoryAreaEM5Bit byte = 0x25
	MemoryAreaEM6Bit byte = 0x26
	MemoryAreaEM7Bit byte = 0x27
	MemoryAreaEM8Bit byte = 0x28
	MemoryAreaEM9Bit byte = 0x29
	MemoryAreaEMABit byte = 0x2A
	MemoryAreaEMBBit byte = 0x2B
	MemoryAreaEMCBit byte = 0x2C
	MemoryAreaEMDBit byte = 0x2D
	MemoryAreaEMEBit byte = 0x2E
	MemoryAreaEMFBit byte = 0x2F

	// Extended Memory banks 0-F, word-addressed
	MemoryAreaEM0Word byte = 0xA0
	MemoryAreaEM1Word byte = 0xA1
	MemoryAreaEM2Word byte = 0xA2
	MemoryAreaEM3Word byte = 0xA3
	MemoryAreaEM4Word byte = 0xA4
	MemoryAreaEM5Word byte = 0xA5
	MemoryAreaEM6Word byte = 0xA6
	MemoryAreaEM7Word byte = 0xA7
	MemoryAreaEM8Word byte = 0xA8
	MemoryAreaEM9Word byte = 0xA9
	MemoryAreaEMAWord byte = 0xAA
	MemoryAreaEMBWord byte = 0xAB
	MemoryAreaEMCWord byte = 0xAC
	MemoryAreaEMDWord byte = 0xAD
	MemoryAreaEMEWord byte = 0xAE
	MemoryAreaEMFWord byte = 0xAF

	// Extended Memory, current bank
	MemoryAreaEMCurrentBit  byte = 0x0A
	MemoryAreaEMCurrentWord byte = 0x98
)

// wordAreas and bitAreas form the closed area-code tables. The protocol
// fixes the set of areas, so lookups are plain map membership.
var wordAreas = map[byte]struct{}{
	MemoryAreaCIOWord: {}, MemoryAreaWRWord: {}, MemoryAreaHRWord: {},
	MemoryAreaARWord: {}, MemoryAreaDMWord: {},
	MemoryAreaEM0Word: {}, MemoryAreaEM1Word: {}, MemoryAreaEM2Word: {},
	MemoryAreaEM3Word: {}, MemoryAreaEM4Word: {}, MemoryAreaEM5Word: {},
	MemoryAreaEM6Word: {}, MemoryAreaEM7Word: {}, MemoryAreaEM8Word: {},
	MemoryAreaEM9Word: {}, MemoryAreaEMAWord: {}, MemoryAreaEMBWord: {},
	MemoryAreaEMCWord: {}, MemoryAreaEMDWord: {}, MemoryAreaEMEWord: {},
	MemoryAreaEMFWord: {}, MemoryAreaEMCurrentWord: {},
}

var bitAreas = map[byte]struct{}{
	MemoryAreaCIOBit: {}, MemoryAreaWRBit: {}, MemoryAreaHRBit: {},
	MemoryAreaARBit: {}, MemoryAreaDMBit: {},
	MemoryAreaEM0Bit: {}, MemoryAreaEM1Bit: {}, MemoryAreaEM2Bit: {},
	MemoryAreaEM3Bit: {}, MemoryAreaEM4Bit: {}, MemoryAreaEM5Bit: {},
	MemoryAreaEM6Bit: {}, MemoryAreaEM7Bit: {}, MemoryAreaEM8Bit: {},
	MemoryAreaEM9Bit: {}, MemoryAreaEMABit: {}, MemoryAreaEMBBit: {},
	MemoryAreaEMCBit: {}, MemoryAreaEMDBit: {}, MemoryAreaEMEBit: {},
	MemoryAreaEMFBit: {}, MemoryAreaEMCurrentBit: {},
}

// IsWordArea reports whether the area code addresses 16-bit words.
func IsWordArea(memoryArea byte) bool {
	_, ok := wordAreas[memoryArea]
	return ok
}

// IsBitArea reports whether the area code addresses individual bits.
func IsBitArea(memoryArea byte) bool {
	_, ok := bitAreas[memoryArea]
	return ok
}
