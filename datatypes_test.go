package fins

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementWidth(t *testing.T) {
	assert.Equal(t, 2, DataTypeWord.ElementWidth())
	assert.Equal(t, 1, DataTypeBit.ElementWidth())
	assert.Equal(t, 2, DataTypeText.ElementWidth())
}

func TestWordsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []uint16
	}{
		{"single", []uint16{20}},
		{"several", []uint16{5, 4, 3, 2, 1}},
		{"bounds", []uint16{0, 1, 0x7FFF, 0x8000, 0xFFFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeWords(binary.BigEndian, tt.values)
			assert.Equal(t, 2*len(tt.values), len(encoded))

			decoded, err := decodeWords(binary.BigEndian, encoded, uint16(len(tt.values)))
			assert.NoError(t, err)
			assert.Equal(t, tt.values, decoded)
		})
	}
}

func TestWordsWireBytes(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x14}, encodeWords(binary.BigEndian, []uint16{20}))
	assert.Equal(t, []byte{0x12, 0x34, 0xFF, 0x00}, encodeWords(binary.BigEndian, []uint16{0x1234, 0xFF00}))
	assert.Equal(t, []byte{0x34, 0x12}, encodeWords(binary.LittleEndian, []uint16{0x1234}))
}

func TestDecodeWordsLengthMismatch(t *testing.T) {
	_, err := decodeWords(binary.BigEndian, []byte{0x00, 0x14}, 2)
	assert.IsType(t, FrameFormatError{}, err)

	_, err = decodeWords(binary.BigEndian, []byte{0x00, 0x14, 0x00}, 1)
	assert.IsType(t, FrameFormatError{}, err)
}

func TestBitsRoundTrip(t *testing.T) {
	values := []bool{true, false, true, false}
	encoded := encodeBits(values)
	assert.Equal(t, []byte{1, 0, 1, 0}, encoded)

	decoded, err := decodeBits(encoded, 4)
	assert.NoError(t, err)
	assert.Equal(t, values, decoded)
}

func TestDecodeBitsLengthMismatch(t *testing.T) {
	_, err := decodeBits([]byte{1, 0}, 3)
	assert.IsType(t, FrameFormatError{}, err)
}

func TestValidateBitPayload(t *testing.T) {
	assert.NoError(t, validateBitPayload([]byte{0, 1, 1, 0}))

	err := validateBitPayload([]byte{0, 2})
	assert.IsType(t, ValidationError{}, err)
}

func TestTextRoundTrip(t *testing.T) {
	encoded, err := encodeText("AB12CD34")
	assert.NoError(t, err)
	assert.Equal(t, 8, len(encoded)) // 4 elements of 2 bytes

	decoded, err := decodeText(encoded, 4)
	assert.NoError(t, err)
	assert.Equal(t, "AB12CD34", decoded)
}

func TestEncodeTextOddLengthRejected(t *testing.T) {
	_, err := encodeText("ABC")
	assert.IsType(t, ValidationError{}, err)
}

func TestDecodeTextTrimsTrailingNulls(t *testing.T) {
	decoded, err := decodeText([]byte{'H', 'I', 0x00, 0x00}, 2)
	assert.NoError(t, err)
	assert.Equal(t, "HI", decoded)

	// Interior NULs survive; only the padding tail is trimmed.
	decoded, err = decodeText([]byte{'A', 0x00, 'B', 0x00}, 2)
	assert.NoError(t, err)
	assert.Equal(t, "A\x00B", decoded)
}

func TestDecodeTextLengthMismatch(t *testing.T) {
	_, err := decodeText([]byte{'H', 'I'}, 2)
	assert.IsType(t, FrameFormatError{}, err)
}
