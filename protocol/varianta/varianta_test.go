// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package varianta

import (
	"encoding/binary"
	"testing"

	"github.com/jkent/freejtag/tap"
	"github.com/jkent/freejtag/usbdev"
)

// recordingPins records every TMS/TDI value driven and every TCK pulse, the
// way tap's own package-internal recordingPins does, so EXECUTE-driven
// shift scenarios can be asserted exactly against spec's literal traces.
type recordingPins struct {
	tms, tdi int
	tdoQueue []int

	tmsTrace []int
	tdiTrace []int
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
		p.tdiTrace = append(p.tdiTrace, p.tdi)
		p.tckCount++
	}
}

// loopbackPins echoes TDI directly back as TDO, standing in for a target
// whose scan register merely passes data through (used for round-trip
// tests, per spec's "use a software TAP model" guidance).
type loopbackPins struct {
	tms, tdi int
}

func (p *loopbackPins) SetTMS(bit int) { p.tms = bit }
func (p *loopbackPins) SetTDI(bit int) { p.tdi = bit }
func (p *loopbackPins) TDO() int       { return p.tdi }
func (p *loopbackPins) Attach()        {}
func (p *loopbackPins) Detach()        {}
func (p *loopbackPins) SetTCK(bit int) {}

func setupFor(bReq uint8, wValue, wLength uint16, requestType uint8) *usbdev.SetupData {
	return &usbdev.SetupData{RequestType: requestType, Request: bReq, Value: wValue, Length: wLength}
}

func TestVersionReportsBCD300(t *testing.T) {
	d := NewDispatcher(tap.NewCore(&recordingPins{}))

	in, ack, done, err := d.Handle(setupFor(ReqVersion, 0, 2, 0x80), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !done || ack {
		t.Fatalf("done=%v ack=%v, want done=true ack=false", done, ack)
	}

	got := binary.LittleEndian.Uint16(in)
	if got != FirmwareVersionBCD {
		t.Fatalf("version = %#04x, want %#04x", got, FirmwareVersionBCD)
	}
}

func TestExecuteAttachDrivesResetSequence(t *testing.T) {
	pins := &recordingPins{}
	core := tap.NewCore(pins)
	d := NewDispatcher(core)

	wValue := uint16(CmdAttach) | uint16(1)<<8
	if _, _, _, err := d.Handle(setupFor(ReqExecute, wValue, 0, 0x40), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if !pins.attached {
		t.Fatal("expected Attach() to have been called")
	}
	if pins.tckCount != 1024 {
		t.Fatalf("tckCount = %d, want 1024", pins.tckCount)
	}
	for i, v := range pins.tmsTrace {
		if v != 1 {
			t.Fatalf("tmsTrace[%d] = %d, want 1", i, v)
		}
	}
	if core.State != tap.Reset {
		t.Fatalf("State = %v, want Reset", core.State)
	}
}

func TestExecuteSetStateRunIdleToDrShift(t *testing.T) {
	pins := &recordingPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle

	d := NewDispatcher(core)

	wValue := uint16(CmdSetState) | uint16(tap.DrShift)<<8
	if _, _, _, err := d.Handle(setupFor(ReqExecute, wValue, 0, 0x40), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if core.State != tap.DrShift {
		t.Fatalf("State = %v, want DrShift", core.State)
	}
	want := []int{1, 0, 0}
	if len(pins.tmsTrace) != len(want) {
		t.Fatalf("tmsTrace = %v, want %v", pins.tmsTrace, want)
	}
	for i := range want {
		if pins.tmsTrace[i] != want[i] {
			t.Fatalf("tmsTrace = %v, want %v", pins.tmsTrace, want)
		}
	}
}

func TestExecuteShiftOutScenario(t *testing.T) {
	pins := &recordingPins{}
	core := tap.NewCore(pins)
	core.State = tap.DrShift

	d := NewDispatcher(core)

	// N=8 bits, exit=true -> arg = 7, cmd = SHIFT_OUT_EXIT.
	wValue := uint16(CmdShiftOutExit) | uint16(7)<<8
	out := []byte{0xA5}

	if _, _, _, err := d.Handle(setupFor(ReqExecute, wValue, 0, 0x40), out); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	wantTDI := []int{1, 0, 1, 0, 0, 1, 0, 1}
	wantTMS := []int{0, 0, 0, 0, 0, 0, 0, 1}

	for i := range wantTDI {
		if pins.tdiTrace[i] != wantTDI[i] {
			t.Fatalf("tdiTrace = %v, want %v", pins.tdiTrace, wantTDI)
		}
		if pins.tmsTrace[i] != wantTMS[i] {
			t.Fatalf("tmsTrace = %v, want %v", pins.tmsTrace, wantTMS)
		}
	}
	if core.State != tap.DrExit1 {
		t.Fatalf("State = %v, want DrExit1", core.State)
	}
}

func TestExecuteShiftInStagesAndReadBufDrains(t *testing.T) {
	pins := &recordingPins{tdoQueue: []int{1, 0, 1, 1, 0, 0, 1, 0}}
	core := tap.NewCore(pins)
	core.State = tap.DrShift

	d := NewDispatcher(core)

	wValue := uint16(CmdShiftInExit) | uint16(7)<<8
	if _, _, _, err := d.Handle(setupFor(ReqExecute, wValue, 0, 0), nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	in, _, done, err := d.Handle(setupFor(ReqReadBuf, 0, ControlBufferSize, 0x80), nil)
	if err != nil {
		t.Fatalf("Handle(READBUF): %v", err)
	}
	if !done {
		t.Fatal("expected done=true")
	}
	if len(in) != 1 {
		t.Fatalf("len(in) = %d, want 1", len(in))
	}
	if in[0] != 0x4D { // 1,0,1,1,0,0,1,0 LSB-first -> bits 0, 2, 3 and 6 set -> 0b01001101
		t.Fatalf("tx buffer = %#02x, want 0x4D", in[0])
	}

	// A second READBUF must see the buffer cleared.
	in2, _, _, err := d.Handle(setupFor(ReqReadBuf, 0, ControlBufferSize, 0x80), nil)
	if err != nil {
		t.Fatalf("Handle(READBUF) #2: %v", err)
	}
	if len(in2) != 0 {
		t.Fatalf("second READBUF len = %d, want 0 (buffer not cleared)", len(in2))
	}
}

func TestResetClearsStateAndTxBuffer(t *testing.T) {
	pins := &recordingPins{tdoQueue: []int{0, 0, 0, 0, 0, 0, 0, 0}}
	core := tap.NewCore(pins)
	core.State = tap.DrShift

	d := NewDispatcher(core)

	wValue := uint16(CmdShiftInExit) | uint16(7)<<8
	d.Handle(setupFor(ReqExecute, wValue, 0, 0), nil)

	if _, _, _, err := d.Handle(setupFor(ReqReset, 0, 0, 0), nil); err != nil {
		t.Fatalf("Handle(RESET): %v", err)
	}

	if core.State != tap.Unknown {
		t.Fatalf("State = %v, want Unknown", core.State)
	}

	in, _, _, _ := d.Handle(setupFor(ReqReadBuf, 0, ControlBufferSize, 0x80), nil)
	if len(in) != 0 {
		t.Fatalf("tx buffer not cleared by RESET: %v", in)
	}
}

func TestReadOCDRStatusClear(t *testing.T) {
	// status register reads back all zero -> bit 4 clear -> -1 sentinel.
	pins := &recordingPins{tdoQueue: make([]int, 64)}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle

	d := NewDispatcher(core)

	in, _, _, err := d.Handle(setupFor(ReqReadOCDR, 0, 2, 0x80), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got := int16(binary.LittleEndian.Uint16(in))
	if got != -1 {
		t.Fatalf("READOCDR = %d, want -1", got)
	}
}

func TestBulkByteRoundTripViaLoopback(t *testing.T) {
	pins := &loopbackPins{}
	core := tap.NewCore(pins)
	core.State = tap.RunIdle

	d := NewDispatcher(core)

	data := []byte{0x11, 0x22, 0x33}
	if _, _, _, err := d.Handle(setupFor(ReqBulkByte, 0, 0, 0x00), data); err != nil {
		t.Fatalf("Handle(BULKBYTE OUT): %v", err)
	}

	in, _, _, err := d.Handle(setupFor(ReqBulkByte, 0, uint16(len(data)), 0x80), nil)
	if err != nil {
		t.Fatalf("Handle(BULKBYTE IN): %v", err)
	}
	if len(in) != len(data) {
		t.Fatalf("len(in) = %d, want %d", len(in), len(data))
	}
	for i := range data {
		if in[i] != data[i] {
			t.Fatalf("in[%d] = %#02x, want %#02x", i, in[i], data[i])
		}
	}
}

func TestUnknownExecuteSubCommandErrors(t *testing.T) {
	d := NewDispatcher(tap.NewCore(&recordingPins{}))

	wValue := uint16(0x10) // not a valid sub-command
	if _, _, _, err := d.Handle(setupFor(ReqExecute, wValue, 0, 0), nil); err == nil {
		t.Fatal("expected error for unrecognized EXECUTE sub-command")
	}
}
