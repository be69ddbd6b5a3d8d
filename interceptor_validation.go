package fins

import (
	"context"
	"fmt"
)

// ValidationInterceptor creates an interceptor that validates operation parameters
// before executing them. It checks for common mistakes like zero counts or invalid data.
//
// Example:
//
//	client.SetInterceptor(fins.ValidationInterceptor())
//
//	// This will fail validation
//	_, err := client.ReadWords(ctx, fins.MemoryAreaDMWord, 100, 0)
//	// Error: validation error: invalid read count: 0
func ValidationInterceptor() Interceptor {
	return ValidationInterceptorWithLimits(DEFAULT_MAX_WORD_COUNT, DEFAULT_MAX_WORD_COUNT)
}

// ValidationInterceptorWithLimits creates a validation interceptor with custom limits
// maxReadCount: maximum number of items that can be read in a single operation
// maxWriteCount: maximum number of items that can be written in a single operation
//
// Example:
//
//	client.SetInterceptor(fins.ValidationInterceptorWithLimits(500, 500))
func ValidationInterceptorWithLimits(maxReadCount, maxWriteCount uint16) Interceptor {
	return func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		// Validate based on operation type
		switch info.Operation {
		case OpReadWords, OpReadBytes, OpReadString:
			if info.Count == 0 {
				return nil, ValidationError{Reason: "invalid read count: 0"}
			}
			if info.Count > maxReadCount {
				return nil, ValidationError{Reason: fmt.Sprintf("read count too large: %d (max %d)", info.Count, maxReadCount)}
			}

		case OpReadBits:
			if info.Count == 0 {
				return nil, ValidationError{Reason: "invalid read count: 0"}
			}
			if int(info.Count) > int(maxReadCount)*16 { // Bits are packed
				return nil, ValidationError{Reason: fmt.Sprintf("read count too large: %d (max %d)", info.Count, int(maxReadCount)*16)}
			}

		case OpWriteWords:
			data, ok := info.Data.([]uint16)
			if !ok {
				return nil, ValidationError{Reason: "invalid write data type: expected []uint16"}
			}
			if len(data) == 0 {
				return nil, ValidationError{Reason: "invalid write data: empty slice"}
			}
			// Compare lengths as int so oversize slices cannot wrap
			// past the cap when narrowed to uint16.
			if len(data) > int(maxWriteCount) {
				return nil, ValidationError{Reason: fmt.Sprintf("write count too large: %d (max %d)", len(data), maxWriteCount)}
			}

		case OpWriteBytes, OpWriteString:
			var dataLen int
			switch d := info.Data.(type) {
			case []byte:
				dataLen = len(d)
			case string:
				dataLen = len(d)
			default:
				return nil, ValidationError{Reason: "invalid write data type"}
			}
			if dataLen == 0 {
				return nil, ValidationError{Reason: "invalid write data: empty"}
			}
			if dataLen > int(maxWriteCount)*2 { // Bytes are packed into words
				return nil, ValidationError{Reason: fmt.Sprintf("write size too large: %d bytes (max %d)", dataLen, int(maxWriteCount)*2)}
			}

		case OpWriteBits:
			data, ok := info.Data.([]bool)
			if !ok {
				return nil, ValidationError{Reason: "invalid write data type: expected []bool"}
			}
			if len(data) == 0 {
				return nil, ValidationError{Reason: "invalid write data: empty slice"}
			}
			if len(data) > int(maxWriteCount)*16 {
				return nil, ValidationError{Reason: fmt.Sprintf("write count too large: %d (max %d)", len(data), int(maxWriteCount)*16)}
			}
		}

		return invoker(ctx)
	}
}

// AddressRangeValidator creates an interceptor that validates address ranges
// It ensures operations only access allowed memory regions.
//
// Example:
//
//	// Only allow DM area addresses 0-999
//	validator := fins.AddressRangeValidator(map[byte]struct{Min, Max uint16}{
//		fins.MemoryAreaDMWord: {Min: 0, Max: 999},
//		fins.MemoryAreaDMBit:  {Min: 0, Max: 999},
//	})
//	client.SetInterceptor(validator)
func AddressRangeValidator(allowedRanges map[byte]struct{ Min, Max uint16 }) Interceptor {
	return func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		// Check if memory area is allowed
		addrRange, allowed := allowedRanges[info.MemoryArea]
		if !allowed {
			return nil, ValidationError{Reason: fmt.Sprintf("memory area 0x%02X is not allowed", info.MemoryArea)}
		}

		// Check address range
		if info.Address < addrRange.Min || info.Address > addrRange.Max {
			return nil, ValidationError{Reason: fmt.Sprintf("address %d is outside allowed range [%d-%d] for area 0x%02X",
				info.Address, addrRange.Min, addrRange.Max, info.MemoryArea)}
		}

		return invoker(ctx)
	}
}
