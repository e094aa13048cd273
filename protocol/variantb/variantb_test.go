// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package variantb

import (
	"testing"

	"github.com/jkent/freejtag/tap"
)

type recordingPins struct {
	tms, tdi int
	tdoQueue []int

	tmsTrace []int
	tckCount int
	attached bool
}

func (p *recordingPins) SetTMS(bit int) { p.tms = bit }
func (p *recordingPins) SetTDI(bit int) { p.tdi = bit }
func (p *recordingPins) TDO() int {
	if len(p.tdoQueue) == 0 {
		return 0
	}
	v := p.tdoQueue[0]
	p.tdoQueue = p.tdoQueue[1:]
	return v
}
func (p *recordingPins) Attach() { p.attached = true }
func (p *recordingPins) Detach() { p.attached = false }
func (p *recordingPins) SetTCK(bit int) {
	if bit == 1 {
		p.tmsTrace = append(p.tmsTrace, p.tms)
		p.tckCount++
	}
}

type loopbackPins struct {
	tms, tdi int
}

func (p *loopbackPins) SetTMS(bit int) { p.tms = bit }
func (p *loopbackPins) SetTDI(bit int) { p.tdi = bit }
func (p *loopbackPins) TDO() int       { return p.tdi }
func (p *loopbackPins) Attach()        {}
func (p *loopbackPins) Detach()        {}
func (p *loopbackPins) SetTCK(bit int) {}

func TestVersionReply(t *testing.T) {
	d := NewDispatcher(tap.NewCore(&recordingPins{}))

	out, err := d.Handle([]byte{OpVersion})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(out) != 1 || out[0][0] != 0x00 || out[0][1] != 0x02 {
		t.Fatalf("reply = %v, want [[0x00 0x02]]", out)
	}
}

func TestAttachRunsFiveEdgeReset(t *testing.T) {
	pins := &recordingPins{}
	core := tap.NewCore(pins)
	d := NewDispatcher(core)

	if _, err := d.Handle([]byte{OpAttach, 1}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !pins.attached {
		t.Fatal("expected Attach() to be called")
	}
	if pins.tckCount != 5 {
		t.Fatalf("tckCount = %d, want 5 (tap_set_state's unconditional reset burst)", pins.tckCount)
	}
	if core.State != tap.Reset {
		t.Fatalf("State = %v, want Reset", core.State)
	}
}

func TestDetachClearsState(t *testing.T) {
	pins := &recordingPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle
	d := NewDispatcher(core)

	if _, err := d.Handle([]byte{OpAttach, 0}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if pins.attached {
		t.Fatal("expected Detach() to be called")
	}
	if core.State != tap.Unknown {
		t.Fatalf("State = %v, want Unknown", core.State)
	}
}

func TestSetStateReportsCurrentState(t *testing.T) {
	pins := &recordingPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle
	d := NewDispatcher(core)

	out, err := d.Handle([]byte{OpSetState, byte(tap.DrShift)})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(out) != 1 || out[0][0] != byte(tap.DrShift) {
		t.Fatalf("reply = %v, want [[%d]]", out, byte(tap.DrShift))
	}
	if core.State != tap.DrShift {
		t.Fatalf("State = %v, want DrShift", core.State)
	}
}

func TestClockOutInRoundTrip(t *testing.T) {
	pins := &loopbackPins{}
	core := tap.NewCore(pins)
	core.State = tap.DrShift
	d := NewDispatcher(core)

	pkt := []byte{OpClockOutIn, 8, 1, 0xA5}
	out, err := d.Handle(pkt)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(out) != 1 || out[0][0] != 0xA5 {
		t.Fatalf("reply = %v, want [[0xA5]] (loopback)", out)
	}
	if core.State != tap.DrExit1 {
		t.Fatalf("State = %v, want DrExit1", core.State)
	}
}

func TestBulkLoadBytesStreamsUntilCountExhausted(t *testing.T) {
	pins := &loopbackPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle
	d := NewDispatcher(core)

	if _, err := d.Handle([]byte{OpBulkLoadBytes, 8, 0}); err != nil {
		t.Fatalf("Handle(BULK_LOAD_BYTES): %v", err)
	}
	if d.bulkBytes != 8 {
		t.Fatalf("bulkBytes = %d, want 8", d.bulkBytes)
	}

	// A full 8-byte data packet: consumed entirely, count reaches zero.
	if _, err := d.Handle([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("Handle(data): %v", err)
	}
	if d.bulkBytes != 0 {
		t.Fatalf("bulkBytes = %d, want 0 after exhausting count", d.bulkBytes)
	}
}

func TestBulkLoadBytesShortPacketEndsStream(t *testing.T) {
	pins := &loopbackPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle
	d := NewDispatcher(core)

	if _, err := d.Handle([]byte{OpBulkLoadBytes, 100, 0}); err != nil {
		t.Fatalf("Handle(BULK_LOAD_BYTES): %v", err)
	}

	// A short (<8 byte) packet ends the stream even though far fewer
	// than 100 bytes have been delivered.
	if _, err := d.Handle([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Handle(short data): %v", err)
	}
	if d.bulkBytes != 0 {
		t.Fatalf("bulkBytes = %d, want 0 after short packet", d.bulkBytes)
	}
}

func TestBulkReadBytesEmitsChunksWithShortFinal(t *testing.T) {
	pins := &loopbackPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle
	d := NewDispatcher(core)

	out, err := d.Handle([]byte{OpBulkReadBytes, 10, 0})
	if err != nil {
		t.Fatalf("Handle(BULK_READ_BYTES): %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d reply packets, want 2 (8 + 2)", len(out))
	}
	if len(out[0]) != 8 {
		t.Fatalf("first chunk len = %d, want 8", len(out[0]))
	}
	if len(out[1]) != 2 {
		t.Fatalf("final chunk len = %d, want 2 (flushed short)", len(out[1]))
	}
}

func TestAVRReadOCDRStatusClear(t *testing.T) {
	pins := &recordingPins{tdoQueue: make([]int, 64)}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle
	d := NewDispatcher(core)

	out, err := d.Handle([]byte{OpAVRReadOCDR})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	got := int16(out[0][0]) | int16(out[0][1])<<8
	if got != -1 {
		t.Fatalf("AVR_READ_OCDR = %d, want -1", got)
	}
}

func TestResetClearsStreamingSubState(t *testing.T) {
	pins := &loopbackPins{}
	core := tap.NewCore(pins)
	d := NewDispatcher(core)

	d.Handle([]byte{OpBulkLoadBytes, 50, 0})
	if d.bulkBytes != 50 {
		t.Fatalf("bulkBytes = %d, want 50", d.bulkBytes)
	}

	if _, err := d.Handle([]byte{OpReset}); err != nil {
		t.Fatalf("Handle(RESET): %v", err)
	}
	if d.bulkBytes != 0 {
		t.Fatalf("bulkBytes = %d, want 0 after RESET", d.bulkBytes)
	}
}

func TestMalformedOpcodeIgnored(t *testing.T) {
	d := NewDispatcher(tap.NewCore(&recordingPins{}))

	out, err := d.Handle([]byte{0x42})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out != nil {
		t.Fatalf("reply = %v, want nil", out)
	}
}
