/*
Package fins implements the client side of the Omron FINS (Factory
Interface Network Service) protocol for reading and writing PLC memory
areas over UDP or FINS/TCP.

The package focuses on the two memory-area commands (read 0x0101, write
0x0102) and the machinery around them: area/address encoding, typed
value packing, frame construction and parsing, and correlation of
responses to outstanding requests by service ID with configurable
timeout and retry handling.

# Quick Start

	import (
		"context"
		"log"
		"time"

		"github.com/plctools/fins"
	)

	func main() {
		clientAddr := fins.NewAddress("", 9600, 0, 2, 0)
		plcAddr := fins.NewAddress("192.168.1.100", 9600, 0, 1, 0)

		client, err := fins.NewClient(clientAddr, plcAddr)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data, err := client.ReadWords(ctx, fins.MemoryAreaDMWord, 100, 5)
		if err != nil {
			log.Printf("Read error: %v", err)
			return
		}
		log.Printf("Data: %v", data)

		if err := client.WriteWords(ctx, fins.MemoryAreaDMWord, 100, []uint16{1, 2, 3}); err != nil {
			log.Printf("Write error: %v", err)
		}
	}

# Memory Areas

Each PLC memory area has a word-addressed and a bit-addressed variant
with distinct wire codes; the two never mix. Word operations reject bit
area codes and vice versa with IncompatibleMemoryAreaError. Supported
areas: CIO, WR, HR, AR, DM and the Extended Memory banks EM0-EMF.

# Operations

	words, err := client.ReadWords(ctx, fins.MemoryAreaDMWord, address, count)
	raw, err := client.ReadBytes(ctx, fins.MemoryAreaDMWord, address, count)
	text, err := client.ReadString(ctx, fins.MemoryAreaDMWord, address, count)
	bits, err := client.ReadBits(ctx, fins.MemoryAreaDMBit, address, bitOffset, count)

	err = client.WriteWords(ctx, fins.MemoryAreaDMWord, address, []uint16{1, 2, 3})
	err = client.WriteBytes(ctx, fins.MemoryAreaDMWord, address, []byte{0x01, 0x02})
	err = client.WriteString(ctx, fins.MemoryAreaDMWord, address, "AB12")
	err = client.WriteBits(ctx, fins.MemoryAreaDMBit, address, bitOffset, []bool{true, false})
	err = client.SetBit(ctx, fins.MemoryAreaDMBit, address, bitOffset)

# Timeouts and Retries

Each request is correlated to its response by a 1-byte service ID;
allocation skips IDs that still have a pending transaction, and replies
carrying an unknown ID are discarded. When no response arrives within
the per-attempt deadline, the identical frame bytes (service ID
included) are resent until the retry budget is spent, after which
ResponseTimeoutError is returned:

	client.SetTimeout(500 * time.Millisecond)
	client.SetMaxRetries(2) // up to 3 sends total

The per-request element cap depends on the controller model and can be
adjusted with SetMaxItemCounts.

# Error Handling

Failures are explicit, typed and never retried implicitly except for
timeouts:

  - ValidationError - out-of-range address, count or value; rejected before I/O
  - FrameFormatError - malformed or truncated response frame
  - EndCodeError - nonzero end code returned by the controller
  - ResponseTimeoutError - no reply within the deadline after all retries
  - IncompatibleMemoryAreaError - word/bit area mismatch
  - ClientClosedError - operation on a closed client

# Interceptors

Interceptors wrap all operations for logging, metrics, tracing,
validation or retries:

	logger, _ := zap.NewProduction()
	client.SetInterceptor(fins.ChainInterceptors(
		fins.LoggingInterceptor(logger),
		fins.ValidationInterceptor(),
	))

# Auto-Reconnect

	client.EnableAutoReconnect(5, 1*time.Second)
	defer client.Shutdown()

When enabled, a failed transport is redialed with exponential backoff;
the ConnectionWatchdog plugin exposes connect/disconnect events and
downtime stats.

# Testing with the PLC Simulator

	plcAddr := fins.NewAddress("127.0.0.1", 9600, 0, 10, 0)
	simulator, err := fins.NewPLCSimulator(plcAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer simulator.Close()

The simulator answers memory-area reads and writes for every supported
area and also backs an in-process InlineClient for tests that need no
sockets at all.
*/
package fins
