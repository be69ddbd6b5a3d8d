package fins

import (
	"encoding/binary"
	"fmt"
)

// DataType identifies the application-level representation of one
// transferred element and its width on the wire.
type DataType int

const (
	// DataTypeWord is an unsigned 16-bit word, 2 bytes per element.
	DataTypeWord DataType = iota
	// DataTypeBit is a single bit, sent as one byte (0 or 1) per element.
	DataTypeBit
	// DataTypeText is a 2-byte text chunk, bytes verbatim in source order.
	DataTypeText
)

// ElementWidth returns the number of wire bytes one element occupies.
func (t DataType) ElementWidth() int {
	switch t {
	case DataTypeBit:
		return 1
	default:
		return 2
	}
}

func (t DataType) String() string {
	switch t {
	case DataTypeWord:
		return "word"
	case DataTypeBit:
		return "bit"
	case DataTypeText:
		return "text"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

func encodeWords(order binary.ByteOrder, values []uint16) []byte {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		order.PutUint16(data[i*2:i*2+2], v)
	}
	return data
}

func decodeWords(order binary.ByteOrder, data []byte, count uint16) ([]uint16, error) {
	if len(data) != int(count)*2 {
		return nil, FrameFormatError{
			Reason: fmt.Sprintf("word payload is %d bytes, want %d", len(data), int(count)*2),
		}
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = order.Uint16(data[i*2 : i*2+2])
	}
	return values, nil
}

// encodeBits transmits one byte per bit regardless of word boundaries;
// mapping bits onto underlying words is the controller's job.
func encodeBits(values []bool) []byte {
	data := make([]byte, len(values))
	for i, v := range values {
		if v {
			data[i] = 0x01
		}
	}
	return data
}

func decodeBits(data []byte, count uint16) ([]bool, error) {
	if len(data) != int(count) {
		return nil, FrameFormatError{
			Reason: fmt.Sprintf("bit payload is %d bytes, want %d", len(data), count),
		}
	}
	values := make([]bool, count)
	for i, b := range data {
		values[i] = b&0x01 > 0
	}
	return values, nil
}

// validateBitPayload checks that every wire byte of a bit write is 0 or 1.
func validateBitPayload(data []byte) error {
	for i, b := range data {
		if b > 1 {
			return ValidationError{
				Reason: fmt.Sprintf("bit element %d has value 0x%02x, want 0 or 1", i, b),
			}
		}
	}
	return nil
}

// encodeText maps a string of even length L onto L/2 two-byte elements,
// bytes taken verbatim with no swap inside a pair.
func encodeText(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ValidationError{
			Reason: fmt.Sprintf("text length %d is odd, want a whole number of 2-byte elements", len(s)),
		}
	}
	return []byte(s), nil
}

// decodeText reverses encodeText, trimming trailing NUL padding.
func decodeText(data []byte, count uint16) (string, error) {
	if len(data) != int(count)*2 {
		return "", FrameFormatError{
			Reason: fmt.Sprintf("text payload is %d bytes, want %d", len(data), int(count)*2),
		}
	}
	n := len(data)
	for n > 0 && data[n-1] == 0 {
		n--
	}
	return string(data[:n]), nil
}
