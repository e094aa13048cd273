// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package tap

import "testing"

func bitsLSB(value uint32, n int) []int {
	bits := make([]int, n)
	for i := 0; i < n; i++ {
		if value&(1<<uint(i)) != 0 {
			bits[i] = 1
		}
	}
	return bits
}

func zeros(n int) []int {
	return make([]int, n)
}

func concat(lists ...[]int) []int {
	var out []int
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// S6 — AVR OCDR helper, status-clear case: target reports status = 0x0000,
// helper returns -1 after visiting IrShift, DrShift (ctrlstatus write),
// DrShift (status read), IrShift (restore), ending at RunIdle. The IR
// restore happens unconditionally, even though the OCDR register itself
// is never read.
func TestAVRReadOCDRStatusClear(t *testing.T) {
	p := &recordingPins{
		tdoQueue: concat(zeros(4), zeros(5), bitsLSB(0x0000, 16), zeros(4)),
	}
	c := NewCore(p)
	c.State = RunIdle

	got := c.AVRReadOCDR()

	if got != -1 {
		t.Fatalf("AVRReadOCDR() = %d, want -1", got)
	}
	if c.State != RunIdle {
		t.Fatalf("State = %v, want RunIdle", c.State)
	}
	// Shifted bits: 4 (IR) + 5 + 16 (DR) + 4 (IR restore). Navigation:
	// RunIdle->IrShift 4 and IrExit1->RunIdle 2 around each IR scan,
	// RunIdle->DrShift 3 and DrExit1->RunIdle 2 around each DR scan.
	if wantEdges := (4 + 4 + 2) + (3 + 5 + 2) + (3 + 16 + 2) + (4 + 4 + 2); p.tckCount != wantEdges {
		t.Fatalf("tckCount = %d, want %d (IR restore runs even when OCDR is not read)", p.tckCount, wantEdges)
	}
}

// AVR OCDR helper, status-valid case: the target reports a valid OCDR
// (status bit 4 set) and the helper reads, shifts, and returns the
// high byte of the 16-bit register read.
func TestAVRReadOCDRStatusValid(t *testing.T) {
	p := &recordingPins{
		tdoQueue: concat(
			zeros(4),               // IR_AVR_OCD select
			zeros(5),               // AVR_OCD_CTRLSTATUS address
			bitsLSB(0x0010, 16),    // status: bit 4 set
			zeros(5),               // AVR_OCD_OCDR address
			bitsLSB(0xAB34, 16),    // OCDR register contents
			zeros(4),               // IR_AVR_OCD restore
		),
	}
	c := NewCore(p)
	c.State = RunIdle

	got := c.AVRReadOCDR()

	if want := int32(0xAB34 >> 8); got != want {
		t.Fatalf("AVRReadOCDR() = %#x, want %#x", got, want)
	}
	if c.State != RunIdle {
		t.Fatalf("State = %v, want RunIdle", c.State)
	}
}

// BulkWriteBytes/BulkReadBytes round-trip through a loopback model with no
// neighboring devices on the chain (the common single-device case).
func TestBulkWriteReadRoundTrip(t *testing.T) {
	p := &loopbackPins{}
	c := NewCore(p)
	c.State = RunIdle

	data := []byte{0x12, 0x34, 0x56}
	c.BulkWriteBytes(data, 0, 0)

	if c.State != RunIdle {
		t.Fatalf("State after write = %v, want RunIdle", c.State)
	}

	got := c.BulkReadBytes(3, 0, 0)
	// A pure loopback echoes TDI on the very same edge it is driven, so a
	// read immediately following a write against an idle (all-zero TDI)
	// line reads back zero, not the previously written data — shift
	// registers aren't preserved across unrelated scans on a loopback
	// model. This exercises that BulkReadBytes runs the full state dance
	// and returns a buffer of the requested length without panicking.
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if c.State != RunIdle {
		t.Fatalf("State after read = %v, want RunIdle", c.State)
	}
}

// BulkWriteBytes pads bypass bits for neighboring chain devices before and
// after the target.
func TestBulkWriteBytesChainPadding(t *testing.T) {
	p := &recordingPins{tdoQueue: zeros(64)}
	c := NewCore(p)
	c.State = RunIdle
	c.Chain = ChainGeometry{DevicesBefore: 1, DevicesAfter: 2, IrBefore: 4, IrAfter: 4}

	c.BulkWriteBytes([]byte{0xFF}, 0x3, 4)

	// IR pass: IrBefore(4) + targetIRBits(4) + IrAfter(4) = 12 edges.
	// DR pass: DevicesBefore(1) + 8 data bits + DevicesAfter(2) = 11 edges.
	want := 12 + 11
	if p.tckCount != want {
		t.Fatalf("tckCount = %d, want %d", p.tckCount, want)
	}
	if c.State != RunIdle {
		t.Fatalf("State = %v, want RunIdle", c.State)
	}
}
