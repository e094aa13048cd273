// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package tap

import "testing"

// S4 — Shift 8 bits out with exit: shift_out([0xA5], 8, true) from DrShift.
func TestShiftOutScenario(t *testing.T) {
	p := &recordingPins{}
	c := NewCore(p)
	c.State = DrShift

	c.ShiftOut([]byte{0xA5}, 8, true)

	wantTDI := []int{1, 0, 1, 0, 0, 1, 0, 1}
	wantTMS := []int{0, 0, 0, 0, 0, 0, 0, 1}

	if !intsEqual(p.tdiTrace, wantTDI) {
		t.Fatalf("tdiTrace = %v, want %v", p.tdiTrace, wantTDI)
	}
	if !intsEqual(p.tmsTrace, wantTMS) {
		t.Fatalf("tmsTrace = %v, want %v", p.tmsTrace, wantTMS)
	}
	if c.State != DrExit1 {
		t.Fatalf("State = %v, want DrExit1", c.State)
	}
}

// Invariant 3: shift_out(buf, N, exit=false) leaves state unchanged and
// emits exactly N TCK edges.
func TestShiftOutNoExitLeavesStateUnchanged(t *testing.T) {
	p := &recordingPins{}
	c := NewCore(p)
	c.State = DrShift

	c.ShiftOut([]byte{0xFF}, 8, false)

	if p.tckCount != 8 {
		t.Fatalf("tckCount = %d, want 8", p.tckCount)
	}
	if c.State != DrShift {
		t.Fatalf("State = %v, want DrShift (unchanged)", c.State)
	}
}

// Invariant 3: shift_out(buf, N, exit=true) from IrShift leaves state at
// IrExit1.
func TestShiftOutExitFromIrShift(t *testing.T) {
	p := &recordingPins{}
	c := NewCore(p)
	c.State = IrShift

	c.ShiftOut([]byte{0x01}, 4, true)

	if c.State != IrExit1 {
		t.Fatalf("State = %v, want IrExit1", c.State)
	}
}

// ShiftIn captures TDO the way the target drives it, LSB-first per byte.
func TestShiftInCapturesBits(t *testing.T) {
	p := &recordingPins{tdoQueue: []int{1, 0, 1, 0, 0, 1, 0, 1}}
	c := NewCore(p)
	c.State = DrShift

	buf := make([]byte, 1)
	c.ShiftIn(buf, 8, true)

	if buf[0] != 0xA5 {
		t.Fatalf("captured byte = %#x, want 0xA5", buf[0])
	}
	if c.State != DrExit1 {
		t.Fatalf("State = %v, want DrExit1", c.State)
	}
}

// ShiftOutIn drives and captures simultaneously.
func TestShiftOutInRoundTrip(t *testing.T) {
	p := &recordingPins{tdoQueue: []int{0, 1, 1, 0, 1, 0, 0, 1}}
	c := NewCore(p)
	c.State = DrShift

	out := []byte{0xA5}
	in := make([]byte, 1)
	c.ShiftOutIn(out, in, 8, true)

	wantTDI := []int{1, 0, 1, 0, 0, 1, 0, 1}
	if !intsEqual(p.tdiTrace, wantTDI) {
		t.Fatalf("tdiTrace = %v, want %v", p.tdiTrace, wantTDI)
	}
	if in[0] != 0x96 {
		t.Fatalf("captured byte = %#x, want 0x96", in[0])
	}
}

// ShiftScalar round-trips a value through a loopback model: every bit
// shifted out is echoed back on the same edge (TDI tied to TDO), which
// must return the original value unchanged.
func TestShiftScalarLoopback(t *testing.T) {
	p := &loopbackPins{}
	c := NewCore(p)
	c.State = DrShift

	got := c.ShiftScalar(32, 0xDEADBEEF, true)

	if got != 0xDEADBEEF {
		t.Fatalf("ShiftScalar loopback = %#x, want 0xdeadbeef", got)
	}
}

// loopbackPins echoes whatever TDI was just set back as TDO, modeling a
// target with TDI tied directly to TDO (spec invariant 5's recommended
// software model for round-trip shift tests).
type loopbackPins struct {
	tdi int
}

func (p *loopbackPins) SetTCK(bit int) {}
func (p *loopbackPins) SetTMS(bit int) {}
func (p *loopbackPins) SetTDI(bit int) { p.tdi = bit }
func (p *loopbackPins) TDO() int       { return p.tdi }
func (p *loopbackPins) Attach()        {}
func (p *loopbackPins) Detach()        {}
