// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Package serial implements the CDC-ACM passthrough bridge that carries a
// target's UART onto a USB serial port. Spec §1 calls this "scaffolding...
// not the hard part", so it is carried here as an ambient component rather
// than as a budgeted module (SPEC_FULL.md §4.G), modeled as a
// producer/consumer ring buffer the way spec §9's design note suggests
// ("Interrupt-driven UART bridge → Reframe as a producer/consumer").
package serial

import (
	"sync"
	"time"
)

// BulkPacketSize is the maximum payload of one CDC bulk IN packet.
const BulkPacketSize = 64

// Bridge is a fixed-capacity byte ring buffer sitting between a target
// UART and a CDC-ACM bulk endpoint pair. UART RX bytes are pushed in by
// the board's poll loop (there is no bare-metal interrupt vector in the
// hosted-Go build); the bulk IN endpoint drains them out to the host.
// UART TX is the mirror: bulk OUT bytes are forwarded straight to the
// UART write side with no buffering, since a single USB callback already
// delivers a complete packet at a time.
type Bridge struct {
	mu    sync.Mutex
	ring  []byte
	start int
	count int

	// forceFlush is set by the flush ticker and cleared the next time
	// INFunction is polled, standing in for the spec's 1kHz timer ISR
	// that flushes a partial IN packet rather than stranding a short
	// burst until the ring fills. In this polled model INFunction
	// already returns whatever is buffered on every call, so the flag
	// has no functional effect beyond documenting the ISR's intent —
	// see DESIGN.md for why a true polled bridge needs no such forcing.
	forceFlush bool

	// UARTWrite sends bytes to the target's UART TX FIFO. Wired to the
	// board's UART driver; left nil in tests.
	UARTWrite func(p []byte)
}

// NewBridge returns a Bridge with room for capacity bytes of buffered RX
// data.
func NewBridge(capacity int) *Bridge {
	return &Bridge{ring: make([]byte, capacity)}
}

// PushRX appends bytes read from the UART RX FIFO to the ring buffer,
// dropping the oldest bytes on overflow rather than blocking the poll
// loop.
func (b *Bridge) PushRX(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range p {
		if b.count == len(b.ring) {
			// buffer full: drop oldest byte to make room.
			b.start = (b.start + 1) % len(b.ring)
			b.count--
		}
		idx := (b.start + b.count) % len(b.ring)
		b.ring[idx] = c
		b.count++
	}
}

// Buffered returns the number of bytes currently queued for the host.
func (b *Bridge) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// INFunction implements usbdev.EndpointFunction for the CDC bulk IN
// endpoint: it drains up to BulkPacketSize buffered bytes on every poll.
// out/lastErr are unused (an IN endpoint is never given host data).
func (b *Bridge) INFunction(out []byte, lastErr error) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.forceFlush = false

	if b.count == 0 {
		return nil, nil
	}

	n := b.count
	if n > BulkPacketSize {
		n = BulkPacketSize
	}

	in := make([]byte, n)
	for i := 0; i < n; i++ {
		in[i] = b.ring[(b.start+i)%len(b.ring)]
	}
	b.start = (b.start + n) % len(b.ring)
	b.count -= n

	return in, nil
}

// OUTFunction implements usbdev.EndpointFunction for the CDC bulk OUT
// endpoint: every host-to-device packet is forwarded straight to the
// UART write side.
func (b *Bridge) OUTFunction(out []byte, lastErr error) ([]byte, error) {
	if b.UARTWrite != nil && len(out) > 0 {
		b.UARTWrite(out)
	}
	return nil, nil
}

// StartFlushTimer runs a ticker at the given period, standing in for the
// spec's 1kHz UART-bridge timer ISR, until stop is closed. It is started
// by cmd/freejtag's main loop; tests exercise INFunction/OUTFunction
// directly and never need it.
func (b *Bridge) StartFlushTimer(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.mu.Lock()
			if b.count > 0 {
				b.forceFlush = true
			}
			b.mu.Unlock()
		case <-stop:
			return
		}
	}
}
