package fins

// FINS command codes. Only memory-area access is implemented.
const (
	CommandCodeMemoryAreaRead  uint16 = 0x0101
	CommandCodeMemoryAreaWrite uint16 = 0x0102
)

// FINS end codes (response status).
const (
	EndCodeNormalCompletion           uint16 = 0x0000
	EndCodeServiceCanceled            uint16 = 0x0001
	EndCodeLocalNodeNotInNetwork      uint16 = 0x0101
	EndCodeDestinationNodeNotInNet    uint16 = 0x0102
	EndCodeCommunicationsError        uint16 = 0x0104
	EndCodeUndefinedCommand           uint16 = 0x0401
	EndCodeNotSupportedByModelVersion uint16 = 0x0402
	EndCodeCommandTooLong             uint16 = 0x1001
	EndCodeCommandTooShort            uint16 = 0x1002
	EndCodeElementsDataMismatch       uint16 = 0x1003
	EndCodeCommandFormatError         uint16 = 0x1004
	EndCodeAreaClassificationMissing  uint16 = 0x1101
	EndCodeAccessSizeError            uint16 = 0x1102
	EndCodeAddressRangeExceeded       uint16 = 0x1103
)

var endCodeDescriptions = map[uint16]string{
	EndCodeNormalCompletion:           "normal completion",
	EndCodeServiceCanceled:            "service canceled",
	EndCodeLocalNodeNotInNetwork:      "local node not in network",
	EndCodeDestinationNodeNotInNet:    "destination node not in network",
	EndCodeCommunicationsError:        "communications error",
	EndCodeUndefinedCommand:           "undefined command",
	EndCodeNotSupportedByModelVersion: "not supported by model/version",
	EndCodeCommandTooLong:             "command too long",
	EndCodeCommandTooShort:            "command too short",
	EndCodeElementsDataMismatch:       "number of elements and data do not match",
	EndCodeCommandFormatError:         "command format error",
	EndCodeAreaClassificationMissing:  "area classification missing",
	EndCodeAccessSizeError:            "access size error",
	EndCodeAddressRangeExceeded:       "address range exceeded",
}

// EndCodeDescription returns the manual wording for an end code, or an
// empty string for codes not in the table.
func EndCodeDescription(endCode uint16) string {
	return endCodeDescriptions[endCode]
}
