package fins

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	DEFAULT_RESPONSE_TIMEOUT = 20 * time.Millisecond
	READ_BUFFER_SIZE         = 2048
	DEFAULT_READ_TIMEOUT     = 5 * time.Second
	MAX_SERVICE_ID_COUNT     = 256 // Maximum service IDs (byte range: 0-255)
	ERROR_CHANNEL_BUFFER     = 1   // Buffer size for error channels
	RESPONSE_CHANNEL_BUFFER  = 1   // Buffer size for response channels
	CLOSE_TIMEOUT            = 1 * time.Second
	DEFAULT_MAX_RECONNECT    = 5 // Default maximum reconnection attempts
	DEFAULT_RECONNECT_DELAY  = 1 * time.Second
	MAX_RECONNECT_DELAY      = 30 * time.Second

	// Default per-request element caps. The true limit depends on the
	// controller model, so both are configurable via SetMaxItemCounts.
	DEFAULT_MAX_WORD_COUNT = 999
	DEFAULT_MAX_BIT_COUNT  = 8000
)

// Client Omron FINS client
// Thread-safe: all public methods can be called concurrently
type Client struct {
	transport     transport
	transportMu   sync.RWMutex // Protects transport swap on reconnect
	transportKind transportKind

	// Pending-transaction table, indexed by service ID. A nil slot means
	// the ID is free; sid allocation skips busy slots so a late reply can
	// never be matched to the wrong caller.
	resp      []chan response
	respMutex sync.Mutex
	sid       byte

	dst       FinsAddress
	src       FinsAddress
	localUDP  *net.UDPAddr // Stored for reconnection
	remoteUDP *net.UDPAddr
	localTCP  *net.TCPAddr
	remoteTCP *net.TCPAddr

	closed     bool
	closeMutex sync.RWMutex // Protects closed flag and mutable settings

	responseTimeout time.Duration
	maxRetries      int
	readTimeout     time.Duration
	maxWordCount    uint16
	maxBitCount     uint16
	byteOrder       binary.ByteOrder

	listenErr chan error // Channel to receive listen loop errors
	loopDone  chan struct{}
	done      chan struct{}

	hookMutex   sync.RWMutex
	interceptor Interceptor
	plugins     pluginManager

	// Auto-reconnect configuration
	autoReconnect  bool
	maxReconnect   int
	reconnectDelay time.Duration
	reconnecting   bool
	dynamicLocal   bool
	reconnectMutex sync.RWMutex
}

// NewClient creates a new Omron FINS client over UDP.
func NewClient(localAddr, plcAddr Address) (*Client, error) {
	c := newClientBase(localAddr, plcAddr)
	c.transportKind = transportUDP

	t, err := newUDPTransport(localAddr.UdpAddress, plcAddr.UdpAddress)
	if err != nil {
		return nil, err
	}
	c.startListenLoop(t)
	return c, nil
}

// NewUDPClient is an alias of NewClient kept for symmetry with NewTCPClient.
func NewUDPClient(localAddr, plcAddr Address) (*Client, error) {
	return NewClient(localAddr, plcAddr)
}

// NewTCPClient creates a new Omron FINS client over FINS/TCP.
func NewTCPClient(ctx context.Context, localAddr, plcAddr Address) (*Client, error) {
	if plcAddr.TcpAddress == nil {
		return nil, ValidationError{Reason: "TCP address is required for a TCP client"}
	}
	c := newClientBase(localAddr, plcAddr)
	c.transportKind = transportTCP

	t, err := newTCPTransport(ctx, localAddr.TcpAddress, plcAddr.TcpAddress)
	if err != nil {
		return nil, err
	}
	c.startListenLoop(t)
	return c, nil
}

func newClientBase(localAddr, plcAddr Address) *Client {
	c := new(Client)
	c.dst = plcAddr.FinAddress
	c.src = localAddr.FinAddress
	c.localUDP = localAddr.UdpAddress
	c.remoteUDP = plcAddr.UdpAddress
	c.localTCP = localAddr.TcpAddress
	c.remoteTCP = plcAddr.TcpAddress
	c.responseTimeout = DEFAULT_RESPONSE_TIMEOUT
	c.readTimeout = DEFAULT_READ_TIMEOUT
	c.maxWordCount = DEFAULT_MAX_WORD_COUNT
	c.maxBitCount = DEFAULT_MAX_BIT_COUNT
	c.byteOrder = binary.BigEndian
	c.listenErr = make(chan error, ERROR_CHANNEL_BUFFER)
	c.done = make(chan struct{})
	c.resp = make([]chan response, MAX_SERVICE_ID_COUNT)

	// Auto-reconnect defaults (disabled by default)
	c.maxReconnect = DEFAULT_MAX_RECONNECT
	c.reconnectDelay = DEFAULT_RECONNECT_DELAY
	return c
}

func (c *Client) startListenLoop(t transport) {
	c.transportMu.Lock()
	c.transport = t
	c.transportMu.Unlock()

	loopDone := make(chan struct{})
	c.closeMutex.Lock()
	c.loopDone = loopDone
	c.closeMutex.Unlock()

	go c.listenLoop(t, loopDone)
}

// SetByteOrder sets the byte order for word operations
// Default value: binary.BigEndian
func (c *Client) SetByteOrder(o binary.ByteOrder) {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	c.byteOrder = o
}

// SetTimeout sets the per-attempt response deadline.
// Default value: 20ms.
// A timeout of zero can be used to block indefinitely.
func (c *Client) SetTimeout(t time.Duration) {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	c.responseTimeout = t
}

// SetMaxRetries sets how many times a timed-out request is resent before
// ResponseTimeoutError is surfaced. The retransmission reuses the exact
// frame bytes of the original request, service ID included.
/// Default value: 0 (no retries).
func (c *Client) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	c.maxRetries = n
}

// SetMaxItemCounts sets the per-request element caps for word and bit
// operations. The protocol maximum is controller-dependent, so callers
// targeting other models should adjust these.
func (c *Client) SetMaxItemCounts(words, bits uint16) {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	if words > 0 {
		c.maxWordCount = words
	}
	if bits > 0 {
		c.maxBitCount = bits
	}
}

// SetReadTimeout sets the transport read timeout used by the listen loop.
// Default value: 5s.
// This timeout helps ensure graceful shutdown.
func (c *Client) SetReadTimeout(t time.Duration) {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	c.readTimeout = t
}

// SetInterceptor installs middleware around all operations. Pass nil to
// remove it. Use ChainInterceptors to install more than one.
func (c *Client) SetInterceptor(interceptor Interceptor) {
	c.hookMutex.Lock()
	defer c.hookMutex.Unlock()
	c.interceptor = interceptor
}

// Use registers plugins with the client.
func (c *Client) Use(plugins ...Plugin) error {
	return c.plugins.use(c, plugins...)
}

// Err returns the channel carrying listen loop errors.
func (c *Client) Err() <-chan error {
	return c.listenErr
}

// EnableAutoReconnect enables automatic reconnection on connection failures.
// maxRetries: maximum number of reconnection attempts (0 = infinite)
// initialDelay: initial delay before first retry (will use exponential backoff)
func (c *Client) EnableAutoReconnect(maxRetries int, initialDelay time.Duration) {
	c.reconnectMutex.Lock()
	defer c.reconnectMutex.Unlock()
	c.autoReconnect = true
	c.maxReconnect = maxRetries
	c.reconnectDelay = initialDelay
}

// DisableAutoReconnect disables automatic reconnection
func (c *Client) DisableAutoReconnect() {
	c.reconnectMutex.Lock()
	defer c.reconnectMutex.Unlock()
	c.autoReconnect = false
}

// IsReconnecting returns true if the client is currently attempting to reconnect
func (c *Client) IsReconnecting() bool {
	c.reconnectMutex.RLock()
	defer c.reconnectMutex.RUnlock()
	return c.reconnecting
}

// EnableDynamicLocalAddress makes reconnect attempts bind to an
// OS-assigned local port instead of the original one. Useful when the
// old port lingers in a wait state after a failure.
func (c *Client) EnableDynamicLocalAddress() {
	c.reconnectMutex.Lock()
	defer c.reconnectMutex.Unlock()
	c.dynamicLocal = true
}

// DisableDynamicLocalAddress restores reconnecting from the original local address.
func (c *Client) DisableDynamicLocalAddress() {
	c.reconnectMutex.Lock()
	defer c.reconnectMutex.Unlock()
	c.dynamicLocal = false
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closeMutex.RLock()
	defer c.closeMutex.RUnlock()
	return c.closed
}

// Close closes the Omron FINS connection
func (c *Client) Close() error {
	c.closeMutex.Lock()
	if c.closed {
		c.closeMutex.Unlock()
		return nil
	}
	c.closed = true
	loopDone := c.loopDone
	c.closeMutex.Unlock()

	close(c.done)

	c.transportMu.RLock()
	t := c.transport
	c.transportMu.RUnlock()
	var err error
	if t != nil {
		err = t.Close()
	}

	// Wait for listen loop to finish or timeout
	if loopDone != nil {
		select {
		case <-loopDone:
		case <-time.After(CLOSE_TIMEOUT):
		}
	}

	return err
}

// Shutdown gracefully shuts down the client, stopping any reconnection attempts
func (c *Client) Shutdown() error {
	// Disable auto-reconnect first
	c.DisableAutoReconnect()

	// Then close the connection
	return c.Close()
}

// reconnect attempts to re-establish the transport with exponential backoff
func (c *Client) reconnect() error {
	c.reconnectMutex.Lock()
	if c.reconnecting {
		c.reconnectMutex.Unlock()
		return fmt.Errorf("already reconnecting")
	}
	c.reconnecting = true
	maxRetries := c.maxReconnect
	delay := c.reconnectDelay
	dynamicLocal := c.dynamicLocal
	c.reconnectMutex.Unlock()

	defer func() {
		c.reconnectMutex.Lock()
		c.reconnecting = false
		c.reconnectMutex.Unlock()
	}()

	var lastErr error
	attempts := 0

	for {
		// Check if client is being closed
		if c.IsClosed() {
			return fmt.Errorf("client closed during reconnection")
		}

		// Check if auto-reconnect was disabled
		c.reconnectMutex.RLock()
		if !c.autoReconnect {
			c.reconnectMutex.RUnlock()
			return fmt.Errorf("auto-reconnect disabled")
		}
		c.reconnectMutex.RUnlock()

		// Check max retries (0 means infinite)
		if maxRetries > 0 && attempts >= maxRetries {
			return fmt.Errorf("max reconnection attempts (%d) reached: %w", maxRetries, lastErr)
		}

		attempts++

		// Wait before retry (exponential backoff)
		if attempts > 1 {
			time.Sleep(delay)
			delay *= 2
			if delay > MAX_RECONNECT_DELAY {
				delay = MAX_RECONNECT_DELAY
			}
		}

		t, err := c.dialTransport(dynamicLocal)
		if err != nil {
			lastErr = err
			continue
		}

		// Close old transport if it exists
		c.transportMu.RLock()
		old := c.transport
		c.transportMu.RUnlock()
		if old != nil {
			_ = old.Close()
		}

		c.startListenLoop(t)
		c.plugins.notifyConnected(c)

		return nil
	}
}

func (c *Client) dialTransport(dynamicLocal bool) (transport, error) {
	switch c.transportKind {
	case transportTCP:
		local := c.localTCP
		if dynamicLocal {
			local = nil
		}
		return newTCPTransport(context.Background(), local, c.remoteTCP)
	default:
		local := c.localUDP
		if dynamicLocal {
			local = nil
		}
		return newUDPTransport(local, c.remoteUDP)
	}
}

// ReadWords reads words from the PLC data area
func (c *Client) ReadWords(ctx context.Context, memoryArea byte, address uint16, readCount uint16) ([]uint16, error) {
	info := &InterceptorInfo{Operation: OpReadWords, MemoryArea: memoryArea, Address: address, Count: readCount}
	result, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		raw, order, err := c.readWordArea(ctx, memoryArea, address, readCount)
		if err != nil {
			return nil, err
		}
		return decodeWords(order, raw, readCount)
	})
	if err != nil {
		return nil, err
	}
	data, _ := result.([]uint16)
	return data, nil
}

// ReadBytes reads raw word-area bytes from the PLC data area.
// readCount is still the number of words; 2*readCount bytes are returned.
func (c *Client) ReadBytes(ctx context.Context, memoryArea byte, address uint16, readCount uint16) ([]byte, error) {
	info := &InterceptorInfo{Operation: OpReadBytes, MemoryArea: memoryArea, Address: address, Count: readCount}
	result, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		raw, _, err := c.readWordArea(ctx, memoryArea, address, readCount)
		return raw, err
	})
	if err != nil {
		return nil, err
	}
	data, _ := result.([]byte)
	return data, nil
}

// ReadString reads readCount words and decodes them as text, trimming
// trailing NUL padding.
func (c *Client) ReadString(ctx context.Context, memoryArea byte, address uint16, readCount uint16) (string, error) {
	info := &InterceptorInfo{Operation: OpReadString, MemoryArea: memoryArea, Address: address, Count: readCount}
	result, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		raw, _, err := c.readWordArea(ctx, memoryArea, address, readCount)
		if err != nil {
			return nil, err
		}
		return decodeText(raw, readCount)
	})
	if err != nil {
		return "", err
	}
	s, _ := result.(string)
	return s, nil
}

// ReadBits reads bits from the PLC data area
func (c *Client) ReadBits(ctx context.Context, memoryArea byte, address uint16, bitOffset byte, readCount uint16) ([]bool, error) {
	info := &InterceptorInfo{Operation: OpReadBits, MemoryArea: memoryArea, Address: address, BitOffset: bitOffset, Count: readCount}
	result, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		if err := c.checkBitRequest(memoryArea, int(readCount)); err != nil {
			return nil, err
		}
		addr := memAddrWithBitOffset(memoryArea, address, bitOffset)
		if err := addr.validate(); err != nil {
			return nil, err
		}
		r, err := c.sendCommand(ctx, readCommand(addr, readCount))
		if err = checkResponse(r, err); err != nil {
			return nil, err
		}
		return decodeBits(r.data, readCount)
	})
	if err != nil {
		return nil, err
	}
	data, _ := result.([]bool)
	return data, nil
}

// WriteWords writes words to the PLC data area
func (c *Client) WriteWords(ctx context.Context, memoryArea byte, address uint16, data []uint16) error {
	info := &InterceptorInfo{Operation: OpWriteWords, MemoryArea: memoryArea, Address: address, Count: uint16(len(data)), Data: data}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		c.closeMutex.RLock()
		order := c.byteOrder
		c.closeMutex.RUnlock()
		return nil, c.writeWordArea(ctx, memoryArea, address, len(data), encodeWords(order, data))
	})
	return err
}

// WriteString writes a text value to the PLC data area. The string must
// have even length; each 2-byte chunk occupies one word.
func (c *Client) WriteString(ctx context.Context, memoryArea byte, address uint16, s string) error {
	info := &InterceptorInfo{Operation: OpWriteString, MemoryArea: memoryArea, Address: address, Count: uint16(len(s) / 2), Data: s}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		payload, err := encodeText(s)
		if err != nil {
			return nil, err
		}
		return nil, c.writeWordArea(ctx, memoryArea, address, len(payload)/2, payload)
	})
	return err
}

// WriteBytes writes raw word-area bytes to the PLC data area.
// len(b) must be even; each byte pair occupies one word.
func (c *Client) WriteBytes(ctx context.Context, memoryArea byte, address uint16, b []byte) error {
	info := &InterceptorInfo{Operation: OpWriteBytes, MemoryArea: memoryArea, Address: address, Count: uint16(len(b) / 2), Data: b}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		if len(b)%2 != 0 {
			return nil, ValidationError{Reason: fmt.Sprintf("byte payload length %d is odd, want whole words", len(b))}
		}
		return nil, c.writeWordArea(ctx, memoryArea, address, len(b)/2, b)
	})
	return err
}

// WriteBits writes bits to the PLC data area
func (c *Client) WriteBits(ctx context.Context, memoryArea byte, address uint16, bitOffset byte, data []bool) error {
	info := &InterceptorInfo{Operation: OpWriteBits, MemoryArea: memoryArea, Address: address, BitOffset: bitOffset, Count: uint16(len(data)), Data: data}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		if err := c.checkBitRequest(memoryArea, len(data)); err != nil {
			return nil, err
		}
		addr := memAddrWithBitOffset(memoryArea, address, bitOffset)
		if err := addr.validate(); err != nil {
			return nil, err
		}
		r, err := c.sendCommand(ctx, writeCommand(addr, uint16(len(data)), encodeBits(data)))
		return nil, checkResponse(r, err)
	})
	return err
}

// SetBit sets a bit in the PLC data area
func (c *Client) SetBit(ctx context.Context, memoryArea byte, address uint16, bitOffset byte) error {
	info := &InterceptorInfo{Operation: OpSetBit, MemoryArea: memoryArea, Address: address, BitOffset: bitOffset, Count: 1}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		return nil, c.bitTwiddle(ctx, memoryArea, address, bitOffset, 0x01)
	})
	return err
}

// ResetBit resets a bit in the PLC data area
func (c *Client) ResetBit(ctx context.Context, memoryArea byte, address uint16, bitOffset byte) error {
	info := &InterceptorInfo{Operation: OpResetBit, MemoryArea: memoryArea, Address: address, BitOffset: bitOffset, Count: 1}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		return nil, c.bitTwiddle(ctx, memoryArea, address, bitOffset, 0x00)
	})
	return err
}

// ToggleBit toggles a bit in the PLC data area
func (c *Client) ToggleBit(ctx context.Context, memoryArea byte, address uint16, bitOffset byte) error {
	info := &InterceptorInfo{Operation: OpToggleBit, MemoryArea: memoryArea, Address: address, BitOffset: bitOffset, Count: 1}
	_, err := c.intercept(ctx, info, func(ctx context.Context) (interface{}, error) {
		if err := c.checkBitRequest(memoryArea, 1); err != nil {
			return nil, err
		}
		addr := memAddrWithBitOffset(memoryArea, address, bitOffset)
		if err := addr.validate(); err != nil {
			return nil, err
		}
		r, err := c.sendCommand(ctx, readCommand(addr, 1))
		if err = checkResponse(r, err); err != nil {
			return nil, err
		}
		current, err := decodeBits(r.data, 1)
		if err != nil {
			return nil, err
		}
		var next byte
		if !current[0] {
			next = 0x01
		}
		return nil, c.bitTwiddle(ctx, memoryArea, address, bitOffset, next)
	})
	return err
}

// readWordArea performs the shared word-area read path and returns the
// raw payload along with the byte order in effect.
func (c *Client) readWordArea(ctx context.Context, memoryArea byte, address uint16, readCount uint16) ([]byte, binary.ByteOrder, error) {
	if err := c.checkWordRequest(memoryArea, int(readCount)); err != nil {
		return nil, nil, err
	}
	addr := memAddr(memoryArea, address)
	if err := addr.validate(); err != nil {
		return nil, nil, err
	}
	r, err := c.sendCommand(ctx, readCommand(addr, readCount))
	if err = checkResponse(r, err); err != nil {
		return nil, nil, err
	}
	if len(r.data) != int(readCount)*2 {
		return nil, nil, FrameFormatError{
			Reason: fmt.Sprintf("read payload is %d bytes, want %d", len(r.data), int(readCount)*2),
		}
	}
	c.closeMutex.RLock()
	order := c.byteOrder
	c.closeMutex.RUnlock()
	return r.data, order, nil
}

func (c *Client) writeWordArea(ctx context.Context, memoryArea byte, address uint16, itemCount int, payload []byte) error {
	if err := c.checkWordRequest(memoryArea, itemCount); err != nil {
		return err
	}
	addr := memAddr(memoryArea, address)
	if err := addr.validate(); err != nil {
		return err
	}
	r, err := c.sendCommand(ctx, writeCommand(addr, uint16(itemCount), payload))
	return checkResponse(r, err)
}

func (c *Client) bitTwiddle(ctx context.Context, memoryArea byte, address uint16, bitOffset byte, value byte) error {
	if err := c.checkBitRequest(memoryArea, 1); err != nil {
		return err
	}
	addr := memAddrWithBitOffset(memoryArea, address, bitOffset)
	if err := addr.validate(); err != nil {
		return err
	}
	r, err := c.sendCommand(ctx, writeCommand(addr, 1, []byte{value}))
	return checkResponse(r, err)
}

// The count checks take an int so that slice lengths are compared
// before they are narrowed to the 2-byte wire field. A payload longer
// than 65535 elements must fail here, not wrap modulo 65536 and emit a
// frame whose count field disagrees with the payload.
func (c *Client) checkWordRequest(memoryArea byte, count int) error {
	if c.IsClosed() {
		return ClientClosedError{}
	}
	if !IsWordArea(memoryArea) {
		return IncompatibleMemoryAreaError{memoryArea}
	}
	c.closeMutex.RLock()
	max := c.maxWordCount
	c.closeMutex.RUnlock()
	if count == 0 || count > int(max) {
		return ValidationError{Reason: fmt.Sprintf("word count %d out of range 1..%d", count, max)}
	}
	return nil
}

func (c *Client) checkBitRequest(memoryArea byte, count int) error {
	if c.IsClosed() {
		return ClientClosedError{}
	}
	if !IsBitArea(memoryArea) {
		return IncompatibleMemoryAreaError{memoryArea}
	}
	c.closeMutex.RLock()
	max := c.maxBitCount
	c.closeMutex.RUnlock()
	if count == 0 || count > int(max) {
		return ValidationError{Reason: fmt.Sprintf("bit count %d out of range 1..%d", count, max)}
	}
	return nil
}

func checkResponse(r *response, e error) error {
	if e != nil {
		return e
	}
	if r.endCode != EndCodeNormalCompletion {
		return EndCodeError{EndCode: r.endCode}
	}
	return nil
}

func (c *Client) intercept(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
	c.hookMutex.RLock()
	interceptor := c.interceptor
	c.hookMutex.RUnlock()
	if interceptor == nil {
		return invoker(ctx)
	}
	return interceptor(ctx, info, invoker)
}

// allocateServiceID claims the next free service ID and installs its
// response channel. IDs with a pending transaction are skipped so late
// or retried replies stay unambiguous.
func (c *Client) allocateServiceID() (byte, chan response, error) {
	c.respMutex.Lock()
	defer c.respMutex.Unlock()
	for i := 0; i < MAX_SERVICE_ID_COUNT; i++ {
		c.sid++
		if c.resp[c.sid] == nil {
			ch := make(chan response, RESPONSE_CHANNEL_BUFFER)
			c.resp[c.sid] = ch
			return c.sid, ch, nil
		}
	}
	return 0, nil, ServiceIDExhaustedError{}
}

// releaseServiceID removes the pending entry. A response arriving after
// this point is discarded by the listen loop.
func (c *Client) releaseServiceID(sid byte) {
	c.respMutex.Lock()
	c.resp[sid] = nil
	c.respMutex.Unlock()
}

func (c *Client) sendCommand(ctx context.Context, command []byte) (*response, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sid, respChan, err := c.allocateServiceID()
	if err != nil {
		return nil, err
	}
	defer c.releaseServiceID(sid)

	header := defaultCommandHeader(c.src, c.dst, sid)
	frame := append(encodeHeader(header), command...)
	commandCode := binary.BigEndian.Uint16(command[0:FINS_COMMAND_CODE_SIZE])

	c.closeMutex.RLock()
	timeout := c.responseTimeout
	retries := c.maxRetries
	c.closeMutex.RUnlock()

	c.transportMu.RLock()
	t := c.transport
	c.transportMu.RUnlock()
	if t == nil {
		return nil, ClientClosedError{}
	}

	attempts := retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		// Retries resend the identical frame bytes, service ID included.
		if err := t.Send(ctx, frame); err != nil {
			return nil, err
		}

		resp, err := c.awaitResponse(ctx, respChan, timeout)
		if err != nil {
			var timedOut ResponseTimeoutError
			if errors.As(err, &timedOut) {
				continue
			}
			return nil, err
		}
		if err := validateResponse(resp, header, commandCode); err != nil {
			return nil, err
		}
		return resp, nil
	}
	return nil, ResponseTimeoutError{Timeout: timeout, Attempts: attempts}
}

func (c *Client) awaitResponse(ctx context.Context, respChan chan response, timeout time.Duration) (*response, error) {
	// A zero timeout blocks until a response, cancellation, or close.
	if timeout <= 0 {
		select {
		case resp := <-respChan:
			return &resp, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.done:
			return nil, ClientClosedError{}
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-respChan:
		return &resp, nil
	case <-timer.C:
		return nil, ResponseTimeoutError{Timeout: timeout, Attempts: 1}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ClientClosedError{}
	}
}

func (c *Client) listenLoop(t transport, loopDone chan struct{}) {
	defer close(loopDone)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.closeMutex.RLock()
		readTimeout := c.readTimeout
		c.closeMutex.RUnlock()

		recvCtx := context.Background()
		cancel := func() {}
		if readTimeout > 0 {
			recvCtx, cancel = context.WithTimeout(context.Background(), readTimeout)
		}
		buf, err := t.Recv(recvCtx)
		cancel()

		if err != nil {
			select {
			case <-c.done:
				// Expected closure, exit gracefully
				return
			default:
			}

			// Periodic wakeup for shutdown checks, not a failure.
			var nerr net.Error
			if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
				continue
			}

			c.plugins.notifyDisconnected(c, err)

			c.reconnectMutex.RLock()
			shouldReconnect := c.autoReconnect
			c.reconnectMutex.RUnlock()

			if shouldReconnect && !c.IsClosed() {
				if reconnectErr := c.reconnect(); reconnectErr != nil {
					c.emitListenErr(fmt.Errorf("reconnection failed: %w (original error: %v)", reconnectErr, err))
				}
				// Either a new listen loop took over or reconnection gave up.
				return
			}

			if !c.IsClosed() {
				c.emitListenErr(fmt.Errorf("listen loop error: %w", err))
			}
			return
		}

		if len(buf) > 0 {
			c.dispatch(buf)
		}
	}
}

// dispatch correlates a received frame to its pending transaction by
// service ID. Frames too short to parse and frames whose ID has no
// pending entry are discarded; discarding never touches the deadline of
// other pending transactions.
func (c *Client) dispatch(buf []byte) {
	ans, err := decodeResponse(buf)
	if err != nil {
		return
	}
	c.respMutex.Lock()
	ch := c.resp[ans.header.serviceID]
	c.respMutex.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ans:
	default:
		// Channel full or no receiver, skip
	}
}

func (c *Client) emitListenErr(err error) {
	select {
	case c.listenErr <- err:
	default:
	}
}
