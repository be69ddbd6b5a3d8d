package fins

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// InlineClient exposes a client-like API that operates directly on a Server's memory.
// It bypasses network transport while keeping the same method signatures as Client.
type InlineClient struct {
	srv       *Server
	byteOrder binary.ByteOrder
}

// Inline client implements FINSClient (no-op reconnect/hooks).
var _ FINSClient = (*InlineClient)(nil)

func (ic *InlineClient) SetByteOrder(o binary.ByteOrder) {
	if o != nil {
		ic.byteOrder = o
	}
}

func (*InlineClient) SetTimeout(time.Duration)     {}
func (*InlineClient) SetMaxRetries(int)            {}
func (*InlineClient) SetMaxItemCounts(_, _ uint16) {}
func (*InlineClient) SetReadTimeout(time.Duration) {}

func (*InlineClient) EnableAutoReconnect(int, time.Duration) {}
func (*InlineClient) DisableAutoReconnect()                  {}
func (*InlineClient) IsReconnecting() bool                   { return false }
func (*InlineClient) EnableDynamicLocalAddress()             {}
func (*InlineClient) DisableDynamicLocalAddress()            {}

func (*InlineClient) SetInterceptor(Interceptor) {}
func (*InlineClient) Use(...Plugin) error        { return nil }

func (ic *InlineClient) IsClosed() bool {
	return ic.srv.IsClosed()
}

func (*InlineClient) Close() error    { return nil }
func (*InlineClient) Shutdown() error { return nil }

func (ic *InlineClient) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ic.srv.IsClosed() {
		return ClientClosedError{}
	}
	return nil
}

func (ic *InlineClient) readWordArea(ctx context.Context, memoryArea byte, address uint16, readCount uint16) ([]byte, error) {
	if err := ic.check(ctx); err != nil {
		return nil, err
	}
	if !IsWordArea(memoryArea) {
		return nil, IncompatibleMemoryAreaError{memoryArea}
	}
	raw, endCode := ic.srv.readWords(memoryArea, address, readCount)
	if endCode != EndCodeNormalCompletion {
		return nil, EndCodeError{EndCode: endCode}
	}
	return raw, nil
}

func (ic *InlineClient) writeWordArea(ctx context.Context, memoryArea byte, address uint16, itemCount int, payload []byte) error {
	if err := ic.check(ctx); err != nil {
		return err
	}
	if !IsWordArea(memoryArea) {
		return IncompatibleMemoryAreaError{memoryArea}
	}
	// Checked as int so oversize payloads cannot wrap past the 2-byte
	// count width.
	if itemCount == 0 || itemCount > math.MaxUint16 {
		return ValidationError{Reason: fmt.Sprintf("word count %d out of range 1..%d", itemCount, math.MaxUint16)}
	}
	if endCode := ic.srv.writeWords(memoryArea, address, uint16(itemCount), payload); endCode != EndCodeNormalCompletion {
		return EndCodeError{EndCode: endCode}
	}
	return nil
}

func (ic *InlineClient) ReadWords(ctx context.Context, memoryArea byte, address uint16, readCount uint16) ([]uint16, error) {
	raw, err := ic.readWordArea(ctx, memoryArea, address, readCount)
	if err != nil {
		return nil, err
	}
	return decodeWords(ic.byteOrder, raw, readCount)
}

func (ic *InlineClient) ReadBytes(ctx context.Context, memoryArea byte, address uint16, readCount uint16) ([]byte, error) {
	return ic.readWordArea(ctx, memoryArea, address, readCount)
}

func (ic *InlineClient) ReadString(ctx context.Context, memoryArea byte, address uint16, readCount uint16) (string, error) {
	raw, err := ic.readWordArea(ctx, memoryArea, address, readCount)
	if err != nil {
		return "", err
	}
	return decodeText(raw, readCount)
}

func (ic *InlineClient) ReadBits(ctx context.Context, memoryArea byte, address uint16, bitOffset byte, readCount uint16) ([]bool, error) {
	if err := ic.check(ctx); err != nil {
		return nil, err
	}
	if !IsBitArea(memoryArea) {
		return nil, IncompatibleMemoryAreaError{memoryArea}
	}
	raw, endCode := ic.srv.readBits(memoryArea, address, bitOffset, readCount)
	if endCode != EndCodeNormalCompletion {
		return nil, EndCodeError{EndCode: endCode}
	}
	return decodeBits(raw, readCount)
}

func (ic *InlineClient) WriteWords(ctx context.Context, memoryArea byte, address uint16, data []uint16) error {
	return ic.writeWordArea(ctx, memoryArea, address, len(data), encodeWords(ic.byteOrder, data))
}

func (ic *InlineClient) WriteString(ctx context.Context, memoryArea byte, address uint16, s string) error {
	payload, err := encodeText(s)
	if err != nil {
		return err
	}
	return ic.writeWordArea(ctx, memoryArea, address, len(payload)/2, payload)
}

func (ic *InlineClient) WriteBytes(ctx context.Context, memoryArea byte, address uint16, b []byte) error {
	if len(b)%2 != 0 {
		return ValidationError{Reason: fmt.Sprintf("byte payload length %d is odd, want whole words", len(b))}
	}
	return ic.writeWordArea(ctx, memoryArea, address, len(b)/2, b)
}

func (ic *InlineClient) WriteBits(ctx context.Context, memoryArea byte, address uint16, bitOffset byte, data []bool) error {
	if err := ic.check(ctx); err != nil {
		return err
	}
	if !IsBitArea(memoryArea) {
		return IncompatibleMemoryAreaError{memoryArea}
	}
	if len(data) == 0 || len(data) > math.MaxUint16 {
		return ValidationError{Reason: fmt.Sprintf("bit count %d out of range 1..%d", len(data), math.MaxUint16)}
	}
	if endCode := ic.srv.writeBits(memoryArea, address, bitOffset, uint16(len(data)), encodeBits(data)); endCode != EndCodeNormalCompletion {
		return EndCodeError{EndCode: endCode}
	}
	return nil
}

func (ic *InlineClient) SetBit(ctx context.Context, memoryArea byte, address uint16, bitOffset byte) error {
	return ic.WriteBits(ctx, memoryArea, address, bitOffset, []bool{true})
}

func (ic *InlineClient) ResetBit(ctx context.Context, memoryArea byte, address uint16, bitOffset byte) error {
	return ic.WriteBits(ctx, memoryArea, address, bitOffset, []bool{false})
}

func (ic *InlineClient) ToggleBit(ctx context.Context, memoryArea byte, address uint16, bitOffset byte) error {
	current, err := ic.ReadBits(ctx, memoryArea, address, bitOffset, 1)
	if err != nil {
		return err
	}
	return ic.WriteBits(ctx, memoryArea, address, bitOffset, []bool{!current[0]})
}
