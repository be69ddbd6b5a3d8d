package fins

import (
	"encoding/binary"
	"fmt"
)

const (
	// FINS protocol frame structure constants
	FINS_HEADER_SIZE        = 10 // FINS header is always 10 bytes
	FINS_COMMAND_CODE_SIZE  = 2  // Command code field size
	FINS_END_CODE_SIZE      = 2  // End code field size
	FINS_MEMORY_ADDR_SIZE   = 4  // Memory address field size
	FINS_ITEM_COUNT_SIZE    = 2  // Item count field size
	FINS_READ_CMD_MIN_SIZE  = 8  // Minimum read command size
	FINS_WRITE_CMD_MIN_SIZE = 8  // Minimum write command size

	// ICF (Information Control Field) byte offsets
	ICF_INDEX               = 0
	GATEWAY_COUNT_INDEX     = 2
	DST_NETWORK_INDEX       = 3
	DST_NODE_INDEX          = 4
	DST_UNIT_INDEX          = 5
	SRC_NETWORK_INDEX       = 6
	SRC_NODE_INDEX          = 7
	SRC_UNIT_INDEX          = 8
	SERVICE_ID_INDEX        = 9
	COMMAND_CODE_INDEX      = 10
	RESPONSE_END_CODE_INDEX = 12
	RESPONSE_DATA_INDEX     = 14

	// Address component bounds
	MAX_WORD_ADDRESS = 65535
	MAX_BIT_OFFSET   = 15
)

// request A FINS command request
type request struct {
	header      Header
	commandCode uint16
	data        []byte
}

// response A FINS command response
type response struct {
	header      Header
	commandCode uint16
	endCode     uint16
	data        []byte
}

// memoryAddress A plc memory address to do a work
type memoryAddress struct {
	memoryArea byte
	address    uint16
	bitOffset  byte
}

func memAddr(memoryArea byte, address uint16) memoryAddress {
	return memAddrWithBitOffset(memoryArea, address, 0)
}

func memAddrWithBitOffset(memoryArea byte, address uint16, bitOffset byte) memoryAddress {
	return memoryAddress{memoryArea, address, bitOffset}
}

// newMemoryAddress validates untyped address components before
// narrowing them to their wire widths.
func newMemoryAddress(memoryArea byte, address int, bitOffset int) (memoryAddress, error) {
	if address < 0 || address > MAX_WORD_ADDRESS {
		return memoryAddress{}, ValidationError{
			Reason: fmt.Sprintf("word address %d out of range 0..%d", address, MAX_WORD_ADDRESS),
		}
	}
	if bitOffset < 0 || bitOffset > MAX_BIT_OFFSET {
		return memoryAddress{}, ValidationError{
			Reason: fmt.Sprintf("bit offset %d out of range 0..%d", bitOffset, MAX_BIT_OFFSET),
		}
	}
	m := memoryAddress{memoryArea, uint16(address), byte(bitOffset)}
	if err := m.validate(); err != nil {
		return memoryAddress{}, err
	}
	return m, nil
}

// CheckMemoryAddress validates untyped address components, as parsed
// from user or config input, before they are narrowed to their wire
// widths. It enforces the word address and bit offset bounds and the
// word/bit duality of the area.
func CheckMemoryAddress(memoryArea byte, address, bitOffset int) error {
	_, err := newMemoryAddress(memoryArea, address, bitOffset)
	return err
}

// validate enforces the word/bit addressing duality: a word-addressed
// area carries no bit offset, a bit-addressed area any offset 0..15.
func (m memoryAddress) validate() error {
	if m.bitOffset > MAX_BIT_OFFSET {
		return ValidationError{
			Reason: fmt.Sprintf("bit offset %d out of range 0..%d", m.bitOffset, MAX_BIT_OFFSET),
		}
	}
	switch {
	case IsWordArea(m.memoryArea):
		if m.bitOffset != 0 {
			return ValidationError{
				Reason: fmt.Sprintf("bit offset %d on word-addressed area 0x%02x", m.bitOffset, m.memoryArea),
			}
		}
	case IsBitArea(m.memoryArea):
		// any offset 0..15 is fine
	default:
		return ValidationError{
			Reason: fmt.Sprintf("unknown memory area code 0x%02x", m.memoryArea),
		}
	}
	return nil
}

func readCommand(memoryAddr memoryAddress, itemCount uint16) []byte {
	commandData := make([]byte, FINS_COMMAND_CODE_SIZE, FINS_READ_CMD_MIN_SIZE)
	binary.BigEndian.PutUint16(commandData[0:FINS_COMMAND_CODE_SIZE], CommandCodeMemoryAreaRead)
	commandData = append(commandData, encodeMemoryAddress(memoryAddr)...)
	commandData = append(commandData, []byte{0, 0}...)
	binary.BigEndian.PutUint16(commandData[6:8], itemCount)
	return commandData
}

func writeCommand(memoryAddr memoryAddress, itemCount uint16, bytes []byte) []byte {
	commandData := make([]byte, FINS_COMMAND_CODE_SIZE, FINS_WRITE_CMD_MIN_SIZE+len(bytes))
	binary.BigEndian.PutUint16(commandData[0:FINS_COMMAND_CODE_SIZE], CommandCodeMemoryAreaWrite)
	commandData = append(commandData, encodeMemoryAddress(memoryAddr)...)
	commandData = append(commandData, []byte{0, 0}...)
	binary.BigEndian.PutUint16(commandData[6:8], itemCount)
	commandData = append(commandData, bytes...)
	return commandData
}

func encodeMemoryAddress(memoryAddr memoryAddress) []byte {
	bytes := make([]byte, FINS_MEMORY_ADDR_SIZE)
	bytes[0] = memoryAddr.memoryArea
	binary.BigEndian.PutUint16(bytes[1:3], memoryAddr.address)
	bytes[3] = memoryAddr.bitOffset
	return bytes
}

func decodeMemoryAddress(data []byte) memoryAddress {
	return memoryAddress{data[0], binary.BigEndian.Uint16(data[1:3]), data[3]}
}

func decodeRequest(bytes []byte) (request, error) {
	if len(bytes) < COMMAND_CODE_INDEX+FINS_COMMAND_CODE_SIZE {
		return request{}, FrameFormatError{
			Reason: fmt.Sprintf("request frame is %d bytes, want at least %d", len(bytes), COMMAND_CODE_INDEX+FINS_COMMAND_CODE_SIZE),
		}
	}
	return request{
		decodeHeader(bytes[0:FINS_HEADER_SIZE]),
		binary.BigEndian.Uint16(bytes[COMMAND_CODE_INDEX : COMMAND_CODE_INDEX+FINS_COMMAND_CODE_SIZE]),
		bytes[COMMAND_CODE_INDEX+FINS_COMMAND_CODE_SIZE:],
	}, nil
}

func decodeResponse(bytes []byte) (response, error) {
	if len(bytes) < RESPONSE_DATA_INDEX {
		return response{}, FrameFormatError{
			Reason: fmt.Sprintf("response frame is %d bytes, want at least %d", len(bytes), RESPONSE_DATA_INDEX),
		}
	}
	return response{
		decodeHeader(bytes[0:FINS_HEADER_SIZE]),
		binary.BigEndian.Uint16(bytes[COMMAND_CODE_INDEX : COMMAND_CODE_INDEX+FINS_COMMAND_CODE_SIZE]),
		binary.BigEndian.Uint16(bytes[RESPONSE_END_CODE_INDEX : RESPONSE_END_CODE_INDEX+FINS_END_CODE_SIZE]),
		bytes[RESPONSE_DATA_INDEX:],
	}, nil
}

// validateResponse checks that a correlated response actually answers
// the given request: response ICF bit, role-swapped addresses and the
// command code echo. The end code is left to the caller.
func validateResponse(resp *response, requestHeader Header, commandCode uint16) error {
	if resp.header.messageType != MessageTypeResponse {
		return FrameFormatError{Reason: "frame is not a response"}
	}
	if resp.header.src != requestHeader.dst || resp.header.dst != requestHeader.src {
		return FrameFormatError{
			Reason: fmt.Sprintf("response routing %v->%v does not mirror request %v->%v",
				resp.header.src, resp.header.dst, requestHeader.src, requestHeader.dst),
		}
	}
	if resp.commandCode != commandCode {
		return FrameFormatError{
			Reason: fmt.Sprintf("command code echo 0x%04x, want 0x%04x", resp.commandCode, commandCode),
		}
	}
	return nil
}

func encodeResponse(resp response) []byte {
	responseSize := FINS_COMMAND_CODE_SIZE + FINS_END_CODE_SIZE
	bytes := make([]byte, responseSize, responseSize+len(resp.data))
	binary.BigEndian.PutUint16(bytes[0:FINS_COMMAND_CODE_SIZE], resp.commandCode)
	binary.BigEndian.PutUint16(bytes[FINS_COMMAND_CODE_SIZE:responseSize], resp.endCode)
	bytes = append(bytes, resp.data...)
	bh := encodeHeader(resp.header)
	bh = append(bh, bytes...)
	return bh
}

const (
	icfBridgesBit          byte = 7
	icfMessageTypeBit      byte = 6
	icfResponseRequiredBit byte = 0
)

func decodeHeader(bytes []byte) Header {
	header := Header{}
	icf := bytes[ICF_INDEX]
	if icf&1<<icfResponseRequiredBit == 0 {
		header.responseRequired = true
	}
	if icf&1<<icfMessageTypeBit == 0 {
		header.messageType = MessageTypeCommand
	} else {
		header.messageType = MessageTypeResponse
	}
	header.gatewayCount = bytes[GATEWAY_COUNT_INDEX]
	header.dst = FinsAddress{bytes[DST_NETWORK_INDEX], bytes[DST_NODE_INDEX], bytes[DST_UNIT_INDEX]}
	header.src = FinsAddress{bytes[SRC_NETWORK_INDEX], bytes[SRC_NODE_INDEX], bytes[SRC_UNIT_INDEX]}
	header.serviceID = bytes[SERVICE_ID_INDEX]

	return header
}

func encodeHeader(h Header) []byte {
	var icf byte
	icf = 1 << icfBridgesBit
	if h.responseRequired == false {
		icf |= 1 << icfResponseRequiredBit
	}
	if h.messageType == MessageTypeResponse {
		icf |= 1 << icfMessageTypeBit
	}
	bytes := []byte{
		icf, 0x00, h.gatewayCount,
		h.dst.Network, h.dst.Node, h.dst.Unit,
		h.src.Network, h.src.Node, h.src.Unit,
		h.serviceID}
	return bytes
}
