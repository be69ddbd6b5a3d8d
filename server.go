package fins

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
)

const (
	WORD_AREA_SIZE     = 32768 // Words per simulated word area
	BIT_AREA_SIZE      = 65536 // Bits per simulated bit area
	SERVER_BUFFER_SIZE = 1024  // UDP receive buffer size
)

type serverConfig struct {
	transport transportKind
}

// ServerOption configures the PLC simulator.
type ServerOption func(*serverConfig)

// WithTCPTransport switches the simulator to FINS/TCP instead of UDP.
func WithTCPTransport() ServerOption {
	return func(cfg *serverConfig) {
		cfg.transport = transportTCP
	}
}

// Server Omron FINS server (PLC emulator)
// Word and bit stores are kept per area code and allocated on first touch.
type Server struct {
	addr       Address
	conn       *net.UDPConn
	ln         *net.TCPListener
	transport  transportKind
	wordMem    map[byte][]byte // area code -> 2 bytes per word
	bitMem     map[byte][]byte // area code -> 1 byte per bit
	memMu      sync.RWMutex
	closed     bool
	closeMutex sync.RWMutex
	errChan    chan error
	done       chan struct{}
}

// NewPLCSimulator creates a new PLC simulator
func NewPLCSimulator(plcAddr Address, opts ...ServerOption) (*Server, error) {
	cfg := serverConfig{transport: transportUDP}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := new(Server)
	s.transport = cfg.transport
	s.addr = plcAddr
	s.wordMem = make(map[byte][]byte)
	s.bitMem = make(map[byte][]byte)
	s.errChan = make(chan error, ERROR_CHANNEL_BUFFER)
	s.done = make(chan struct{})

	switch cfg.transport {
	case transportUDP:
		conn, err := net.ListenUDP("udp", plcAddr.UdpAddress)
		if err != nil {
			return nil, err
		}
		s.conn = conn
		go s.udpLoop()
	case transportTCP:
		if plcAddr.TcpAddress == nil {
			return nil, fmt.Errorf("TCP address is required for TCP simulator")
		}
		ln, err := net.ListenTCP("tcp", plcAddr.TcpAddress)
		if err != nil {
			return nil, err
		}
		s.ln = ln
		go s.tcpAcceptLoop()
	default:
		return nil, fmt.Errorf("unsupported simulator transport")
	}

	return s, nil
}

// IsClosed returns true if the server has been closed
func (s *Server) IsClosed() bool {
	s.closeMutex.RLock()
	defer s.closeMutex.RUnlock()
	return s.closed
}

// Err returns the error channel for server errors
// Errors from the server loop are sent to this channel
func (s *Server) Err() <-chan error {
	return s.errChan
}

// Close closes the FINS server
func (s *Server) Close() error {
	s.closeMutex.Lock()
	if s.closed {
		s.closeMutex.Unlock()
		return nil
	}
	s.closed = true
	s.closeMutex.Unlock()

	close(s.done)
	switch s.transport {
	case transportUDP:
		if s.conn != nil {
			return s.conn.Close()
		}
	case transportTCP:
		if s.ln != nil {
			return s.ln.Close()
		}
	}
	return nil
}

// wordStore returns the backing slice for a word area, allocating on first use.
// Caller must hold memMu.
func (s *Server) wordStore(memoryArea byte) []byte {
	store, ok := s.wordMem[memoryArea]
	if !ok {
		store = make([]byte, 2*WORD_AREA_SIZE)
		s.wordMem[memoryArea] = store
	}
	return store
}

// bitStore returns the backing slice for a bit area, allocating on first use.
// Caller must hold memMu.
func (s *Server) bitStore(memoryArea byte) []byte {
	store, ok := s.bitMem[memoryArea]
	if !ok {
		store = make([]byte, BIT_AREA_SIZE)
		s.bitMem[memoryArea] = store
	}
	return store
}

// readWords reads word data from a simulated word area.
// Returns EndCodeAddressRangeExceeded if the requested range is invalid.
func (s *Server) readWords(memoryArea byte, address uint16, count uint16) ([]byte, uint16) {
	start := 2 * int(address)
	end := start + 2*int(count)
	if end > 2*WORD_AREA_SIZE {
		return nil, EndCodeAddressRangeExceeded
	}
	s.memMu.Lock()
	defer s.memMu.Unlock()
	store := s.wordStore(memoryArea)
	return append([]byte(nil), store[start:end]...), EndCodeNormalCompletion
}

// writeWords writes word data into a simulated word area.
func (s *Server) writeWords(memoryArea byte, address uint16, count uint16, payload []byte) uint16 {
	start := 2 * int(address)
	end := start + 2*int(count)
	if end > 2*WORD_AREA_SIZE {
		return EndCodeAddressRangeExceeded
	}
	s.memMu.Lock()
	defer s.memMu.Unlock()
	copy(s.wordStore(memoryArea)[start:end], payload)
	return EndCodeNormalCompletion
}

// readBits reads bit data from a simulated bit area. Bits live at
// word*16+offset, one stored byte per bit.
func (s *Server) readBits(memoryArea byte, address uint16, bitOffset byte, count uint16) ([]byte, uint16) {
	start := 16*int(address) + int(bitOffset)
	end := start + int(count)
	if end > BIT_AREA_SIZE {
		return nil, EndCodeAddressRangeExceeded
	}
	s.memMu.Lock()
	defer s.memMu.Unlock()
	store := s.bitStore(memoryArea)
	return append([]byte(nil), store[start:end]...), EndCodeNormalCompletion
}

// writeBits writes bit data into a simulated bit area.
func (s *Server) writeBits(memoryArea byte, address uint16, bitOffset byte, count uint16, payload []byte) uint16 {
	if err := validateBitPayload(payload); err != nil {
		return EndCodeCommandFormatError
	}
	start := 16*int(address) + int(bitOffset)
	end := start + int(count)
	if end > BIT_AREA_SIZE {
		return EndCodeAddressRangeExceeded
	}
	s.memMu.Lock()
	defer s.memMu.Unlock()
	copy(s.bitStore(memoryArea)[start:end], payload)
	return EndCodeNormalCompletion
}

// InlineClient returns a lightweight, in-process client for manipulating the simulator memory directly.
// Useful for tests or embedding where sending network frames is unnecessary.
func (s *Server) InlineClient() *InlineClient {
	return &InlineClient{srv: s, byteOrder: binary.BigEndian}
}

func (s *Server) udpLoop() {
	defer close(s.errChan)

	var buf [SERVER_BUFFER_SIZE]byte
	for {
		select {
		case <-s.done:
			// Graceful shutdown
			return
		default:
		}

		rlen, remote, err := s.conn.ReadFromUDP(buf[:])
		if err != nil {
			if s.IsClosed() {
				return
			}
			s.errChan <- fmt.Errorf("server read error: %w", err)
			return
		}

		if rlen > 0 {
			req, err := decodeRequest(buf[:rlen])
			if err != nil {
				// Nothing to correlate a reply to; drop the frame.
				continue
			}
			resp := s.handler(req)

			_, err = s.conn.WriteToUDP(encodeResponse(resp), &net.UDPAddr{IP: remote.IP, Port: remote.Port})
			if err != nil {
				if s.IsClosed() {
					return
				}
				s.errChan <- fmt.Errorf("server write error: %w", err)
				return
			}
		}
	}
}

// handler serves memory-area read and write for any area in the tables.
func (s *Server) handler(r request) response {
	var endCode uint16
	data := []byte{}
	switch r.commandCode {
	case CommandCodeMemoryAreaRead, CommandCodeMemoryAreaWrite:
		if len(r.data) < FINS_MEMORY_ADDR_SIZE+FINS_ITEM_COUNT_SIZE {
			endCode = EndCodeCommandTooShort
			break
		}
		memAddr := decodeMemoryAddress(r.data[:FINS_MEMORY_ADDR_SIZE])
		ic := binary.BigEndian.Uint16(r.data[4:6]) // Item count

		if err := memAddr.validate(); err != nil {
			endCode = EndCodeCommandFormatError
			break
		}

		switch {
		case IsWordArea(memAddr.memoryArea):
			if r.commandCode == CommandCodeMemoryAreaRead {
				data, endCode = s.readWords(memAddr.memoryArea, memAddr.address, ic)
			} else {
				if len(r.data) < 6+2*int(ic) {
					endCode = EndCodeElementsDataMismatch
					break
				}
				endCode = s.writeWords(memAddr.memoryArea, memAddr.address, ic, r.data[6:6+2*int(ic)])
			}

		case IsBitArea(memAddr.memoryArea):
			if r.commandCode == CommandCodeMemoryAreaRead {
				data, endCode = s.readBits(memAddr.memoryArea, memAddr.address, memAddr.bitOffset, ic)
			} else {
				if len(r.data) < 6+int(ic) {
					endCode = EndCodeElementsDataMismatch
					break
				}
				endCode = s.writeBits(memAddr.memoryArea, memAddr.address, memAddr.bitOffset, ic, r.data[6:6+int(ic)])
			}

		default:
			endCode = EndCodeNotSupportedByModelVersion
		}

	default:
		endCode = EndCodeUndefinedCommand
	}
	return response{defaultResponseHeader(r.header), r.commandCode, endCode, data}
}

// TCP helpers

func (s *Server) tcpAcceptLoop() {
	defer close(s.errChan)

	for {
		conn, err := s.ln.AcceptTCP()
		if err != nil {
			if s.IsClosed() {
				return
			}
			s.errChan <- fmt.Errorf("accept error: %w", err)
			return
		}
		go s.handleTCPConn(conn)
	}
}

func (s *Server) handleTCPConn(conn *net.TCPConn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)

	// Handshake
	msg, err := readTCPMessage(reader)
	if err != nil {
		if !s.IsClosed() {
			s.errChan <- fmt.Errorf("handshake read error: %w", err)
		}
		return
	}
	if msg.command != finsTCPHandshakeCommand {
		return
	}
	if _, err := conn.Write(finsTCPFrame(finsTCPHandshakeCommand, nil)); err != nil {
		if !s.IsClosed() {
			s.errChan <- fmt.Errorf("handshake write error: %w", err)
		}
		return
	}

	for {
		msg, err := readTCPMessage(reader)
		if err != nil {
			if !s.IsClosed() {
				s.errChan <- fmt.Errorf("read error: %w", err)
			}
			return
		}
		if msg.command != finsTCPDataCommand {
			continue
		}
		req, err := decodeRequest(msg.body)
		if err != nil {
			continue
		}
		resp := s.handler(req)
		frame := finsTCPFrame(finsTCPDataCommand, encodeResponse(resp))
		if _, err := conn.Write(frame); err != nil {
			if !s.IsClosed() {
				s.errChan <- fmt.Errorf("write error: %w", err)
			}
			return
		}
	}
}

func readTCPMessage(reader *bufio.Reader) (*finsTCPMessage, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, err
	}
	if string(header[:4]) != finsTCPSignature {
		return nil, fmt.Errorf("invalid FINS/TCP signature: %q", header[:4])
	}
	length := binary.BigEndian.Uint32(header[4:8])
	if length < 8 || length > MAX_TCP_FRAME_LENGTH {
		return nil, fmt.Errorf("invalid FINS/TCP length: %d", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(reader, body); err != nil {
		return nil, err
	}
	return &finsTCPMessage{
		command:   binary.BigEndian.Uint32(body[0:4]),
		errorCode: binary.BigEndian.Uint32(body[4:8]),
		body:      body[8:],
	}, nil
}
