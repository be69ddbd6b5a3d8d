package fins

import (
	"fmt"
	"time"
)

// ValidationError reports a request rejected before any I/O: an
// out-of-range address, count, or value. Never retried.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// FrameFormatError reports a malformed or truncated frame. Surfaced
// immediately; retrying would only reproduce the garble.
type FrameFormatError struct {
	Reason string
}

func (e FrameFormatError) Error() string {
	return fmt.Sprintf("frame format error: %s", e.Reason)
}

// EndCodeError reports a nonzero end code returned by the PLC. The
// request was delivered and rejected, so it is never retried.
type EndCodeError struct {
	EndCode uint16
}

func (e EndCodeError) Error() string {
	if desc := EndCodeDescription(e.EndCode); desc != "" {
		return fmt.Sprintf("error reported by destination, end code 0x%04x (%s)", e.EndCode, desc)
	}
	return fmt.Sprintf("error reported by destination, end code 0x%04x", e.EndCode)
}

// ResponseTimeoutError reports that no response arrived within the
// per-attempt deadline after the whole retry budget was spent.
type ResponseTimeoutError struct {
	Timeout  time.Duration
	Attempts int
}

func (e ResponseTimeoutError) Error() string {
	return fmt.Sprintf("response timeout of %s exceeded after %d attempt(s)", e.Timeout, e.Attempts)
}

// IncompatibleMemoryAreaError reports a word operation aimed at a bit
// area or vice versa.
type IncompatibleMemoryAreaError struct {
	MemoryArea byte
}

func (e IncompatibleMemoryAreaError) Error() string {
	return fmt.Sprintf("memory area 0x%02x is incompatible with the requested data type", e.MemoryArea)
}

// ClientClosedError is returned for operations on a closed client.
type ClientClosedError struct{}

func (ClientClosedError) Error() string {
	return "client is closed"
}

// ServiceIDExhaustedError is returned when all 256 service IDs have a
// pending transaction, so a new request cannot be correlated unambiguously.
type ServiceIDExhaustedError struct{}

func (ServiceIDExhaustedError) Error() string {
	return "all service IDs have pending transactions"
}
