package fins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryAddressEncoding(t *testing.T) {
	addr := memoryAddress{
		memoryArea: MemoryAreaDMWord,
		address:    0x1234,
		bitOffset:  5,
	}

	encoded := encodeMemoryAddress(addr)
	assert.Equal(t, FINS_MEMORY_ADDR_SIZE, len(encoded))
	assert.Equal(t, []byte{MemoryAreaDMWord, 0x12, 0x34, 0x05}, encoded)

	decoded := decodeMemoryAddress(encoded)
	assert.Equal(t, addr, decoded)
}

func TestMemoryAddressRoundTrip(t *testing.T) {
	areas := []byte{
		MemoryAreaCIOWord, MemoryAreaWRWord, MemoryAreaHRWord,
		MemoryAreaARWord, MemoryAreaDMWord, MemoryAreaEM0Word,
		MemoryAreaCIOBit, MemoryAreaWRBit, MemoryAreaDMBit,
		MemoryAreaEM0Bit, MemoryAreaEMFBit,
	}
	words := []uint16{0, 1, 53, 255, 256, 4095, 65535}

	for _, area := range areas {
		for _, word := range words {
			var bit byte
			if IsBitArea(area) {
				bit = 15
			}
			addr := memAddrWithBitOffset(area, word, bit)
			assert.NoError(t, addr.validate())
			decoded := decodeMemoryAddress(encodeMemoryAddress(addr))
			assert.Equal(t, addr, decoded)
		}
	}
}

func TestNewMemoryAddressBounds(t *testing.T) {
	tests := []struct {
		name    string
		area    byte
		word    int
		bit     int
		wantErr bool
	}{
		{"max word accepted", MemoryAreaDMWord, 65535, 0, false},
		{"word overflow rejected", MemoryAreaDMWord, 65536, 0, true},
		{"negative word rejected", MemoryAreaDMWord, -1, 0, true},
		{"max bit accepted", MemoryAreaDMBit, 100, 15, false},
		{"bit overflow rejected", MemoryAreaDMBit, 100, 16, true},
		{"negative bit rejected", MemoryAreaDMBit, 100, -1, true},
		{"bit on word area rejected", MemoryAreaDMWord, 100, 3, true},
		{"zero bit on word area accepted", MemoryAreaEM0Word, 53, 0, false},
		{"unknown area rejected", 0x55, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newMemoryAddress(tt.area, tt.word, tt.bit)
			if tt.wantErr {
				assert.Error(t, err)
				assert.IsType(t, ValidationError{}, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckMemoryAddress(t *testing.T) {
	assert.NoError(t, CheckMemoryAddress(MemoryAreaDMWord, 100, 0))
	assert.NoError(t, CheckMemoryAddress(MemoryAreaDMBit, 100, 15))

	assert.IsType(t, ValidationError{}, CheckMemoryAddress(MemoryAreaDMWord, -1, 0))
	assert.IsType(t, ValidationError{}, CheckMemoryAddress(MemoryAreaDMWord, MAX_WORD_ADDRESS+1, 0))
	assert.IsType(t, ValidationError{}, CheckMemoryAddress(MemoryAreaDMBit, 100, 16))
	assert.IsType(t, ValidationError{}, CheckMemoryAddress(MemoryAreaDMWord, 100, 3))
}

func TestReadCommandLayout(t *testing.T) {
	cmd := readCommand(memAddr(MemoryAreaDMWord, 100), 5)

	assert.Equal(t, FINS_READ_CMD_MIN_SIZE, len(cmd))
	assert.Equal(t, byte(0x01), cmd[0]) // CommandCodeMemoryAreaRead high byte
	assert.Equal(t, byte(0x01), cmd[1]) // CommandCodeMemoryAreaRead low byte
	assert.Equal(t, MemoryAreaDMWord, cmd[2])
	assert.Equal(t, []byte{0x00, 0x64, 0x00}, cmd[3:6]) // address 100, no bit offset
	assert.Equal(t, []byte{0x00, 0x05}, cmd[6:8])       // item count
}

func TestReadCommandBitArea(t *testing.T) {
	// Four bit elements at word 57 of an Extended Memory bit area.
	cmd := readCommand(memAddrWithBitOffset(MemoryAreaEM0Bit, 57, 0), 4)
	assert.Equal(t, []byte{0x01, 0x01, MemoryAreaEM0Bit, 0x00, 0x39, 0x00, 0x00, 0x04}, cmd)
}

func TestWriteCommandLayout(t *testing.T) {
	// One word with value 20 at word 53 of Extended Memory bank 0.
	cmd := writeCommand(memAddr(MemoryAreaEM0Word, 53), 1, []byte{0x00, 0x14})

	assert.Equal(t, []byte{
		0x01, 0x02, // CommandCodeMemoryAreaWrite
		MemoryAreaEM0Word,
		0x00, 0x35, // word address 53
		0x00,       // bit offset
		0x00, 0x01, // item count
		0x00, 0x14, // payload
	}, cmd)
}

func TestDecodeResponseTruncated(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
	}{
		{"empty", []byte{}},
		{"header only", make([]byte, FINS_HEADER_SIZE)},
		{"missing end code", make([]byte, FINS_HEADER_SIZE+FINS_COMMAND_CODE_SIZE)},
		{"one short of minimum", make([]byte, RESPONSE_DATA_INDEX-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeResponse(tt.bytes)
			assert.Error(t, err)
			assert.IsType(t, FrameFormatError{}, err)
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	src := FinsAddress{Network: 0, Node: 2, Unit: 0}
	dst := FinsAddress{Network: 0, Node: 10, Unit: 0}
	reqHeader := defaultCommandHeader(src, dst, 42)

	resp := response{
		header:      defaultResponseHeader(reqHeader),
		commandCode: CommandCodeMemoryAreaRead,
		endCode:     EndCodeNormalCompletion,
		data:        []byte{0x00, 0x14},
	}

	decoded, err := decodeResponse(encodeResponse(resp))
	assert.NoError(t, err)
	assert.Equal(t, resp.commandCode, decoded.commandCode)
	assert.Equal(t, resp.endCode, decoded.endCode)
	assert.Equal(t, resp.data, decoded.data)
	assert.Equal(t, byte(42), decoded.header.serviceID)
	assert.Equal(t, MessageTypeResponse, decoded.header.messageType)

	assert.NoError(t, validateResponse(&decoded, reqHeader, CommandCodeMemoryAreaRead))
}

func TestValidateResponse(t *testing.T) {
	src := FinsAddress{Network: 0, Node: 2, Unit: 0}
	dst := FinsAddress{Network: 0, Node: 10, Unit: 0}
	reqHeader := defaultCommandHeader(src, dst, 7)

	good := response{
		header:      defaultResponseHeader(reqHeader),
		commandCode: CommandCodeMemoryAreaWrite,
	}
	assert.NoError(t, validateResponse(&good, reqHeader, CommandCodeMemoryAreaWrite))

	t.Run("command frame rejected", func(t *testing.T) {
		bad := good
		bad.header.messageType = MessageTypeCommand
		assert.IsType(t, FrameFormatError{}, validateResponse(&bad, reqHeader, CommandCodeMemoryAreaWrite))
	})

	t.Run("role swap mismatch rejected", func(t *testing.T) {
		bad := good
		bad.header.src = FinsAddress{Network: 0, Node: 99, Unit: 0}
		assert.IsType(t, FrameFormatError{}, validateResponse(&bad, reqHeader, CommandCodeMemoryAreaWrite))
	})

	t.Run("command echo mismatch rejected", func(t *testing.T) {
		bad := good
		bad.commandCode = CommandCodeMemoryAreaRead
		assert.IsType(t, FrameFormatError{}, validateResponse(&bad, reqHeader, CommandCodeMemoryAreaWrite))
	})
}

func TestHeaderRoundTrip(t *testing.T) {
	src := FinsAddress{Network: 1, Node: 2, Unit: 3}
	dst := FinsAddress{Network: 4, Node: 5, Unit: 6}

	command := defaultCommandHeader(src, dst, 0xAB)
	decoded := decodeHeader(encodeHeader(command))
	assert.Equal(t, command, decoded)
	assert.Equal(t, byte(0xAB), decoded.ServiceID())

	resp := defaultResponseHeader(command)
	decoded = decodeHeader(encodeHeader(resp))
	assert.Equal(t, resp, decoded)
	assert.Equal(t, dst, decoded.src, "response source should be the request destination")
	assert.Equal(t, src, decoded.dst, "response destination should be the request source")
}

func TestRequestHeaderWireBytes(t *testing.T) {
	src := FinsAddress{Network: 0, Node: 2, Unit: 0}
	dst := FinsAddress{Network: 0, Node: 10, Unit: 0}

	bts := encodeHeader(defaultCommandHeader(src, dst, 0x2A))
	assert.Equal(t, []byte{
		0x80,       // ICF: command, response required
		0x00,       // reserved
		0x02,       // gateway count
		0, 10, 0,   // destination network/node/unit
		0, 2, 0,    // source network/node/unit
		0x2A,       // service ID
	}, bts)
}

func TestAreaTables(t *testing.T) {
	assert.True(t, IsWordArea(MemoryAreaDMWord))
	assert.True(t, IsWordArea(MemoryAreaEMFWord))
	assert.False(t, IsWordArea(MemoryAreaDMBit))

	assert.True(t, IsBitArea(MemoryAreaDMBit))
	assert.True(t, IsBitArea(MemoryAreaEMFBit))
	assert.False(t, IsBitArea(MemoryAreaDMWord))

	// A code is never in both tables.
	for area := range wordAreas {
		assert.False(t, IsBitArea(area), "area 0x%02x in both tables", area)
	}
}
