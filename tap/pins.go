// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package tap

// Pins abstracts the four JTAG signal lines away from any particular GPIO
// implementation, the way the firmware's FREEJTAG_TCK/TMS/TDI/TDO macros
// hard-wire to specific AVR port bits. A real board wires this to silicon
// (see board/freejtag); tests and the host-side protocol packages wire it
// to SimPins below.
type Pins interface {
	// SetTCK drives the TCK line and is expected to perform the actual
	// clock pulse (i.e. the target samples TMS/TDI on the call).
	SetTCK(bit int)
	SetTMS(bit int)
	SetTDI(bit int)
	TDO() int

	// Attach and Detach configure the four lines as outputs/input and
	// tristate them respectively, mirroring FreeJTAG_Attach's DDR/PORT
	// setup and its inverse.
	Attach()
	Detach()
}

// clock pulses TCK once, leaving TMS and TDI at their last-set values. This
// is the Go equivalent of the firmware's JTAG_CLOCK() macro: a TCK pulse on
// its own, with TMS/TDI asserted beforehand by the caller.
func clock(p Pins) {
	p.SetTCK(1)
	p.SetTCK(0)
}

// SimPins is a software model of a JTAG target's TAP controller, for
// verifying shift and bulk-engine behavior without real silicon (spec
// design note: "property tests substitute a simulated TAP as Pins"). The
// tap and protocol tests in this module use their own recording and
// loopback Pins stubs rather than SimPins.
//
// It implements the standard 16-state IEEE 1149.1 graph and a single IR/DR
// shift register pair of configurable width, with IR capture producing the
// fixed IEEE-mandated "01" pattern in the low two bits.
type SimPins struct {
	State State

	IRWidth int
	DRWidth int

	ir []byte // LSB-first bit buffer, one byte per bit (0/1)
	dr []byte

	tms int
	tdi int
	tdo int

	shiftIdx int
	shiftReg []byte // the register currently connected to TDI/TDO
}

// NewSimPins constructs a simulated TAP with the given instruction and data
// register widths.
func NewSimPins(irWidth, drWidth int) *SimPins {
	return &SimPins{
		State:   Unknown,
		IRWidth: irWidth,
		DRWidth: drWidth,
		ir:      make([]byte, irWidth),
		dr:      make([]byte, drWidth),
	}
}

func (s *SimPins) SetTMS(bit int) { s.tms = bit }
func (s *SimPins) SetTDI(bit int) { s.tdi = bit }
func (s *SimPins) TDO() int       { return s.tdo }

func (s *SimPins) Attach() { s.State = Reset }
func (s *SimPins) Detach() { s.State = Unknown }

// SetTCK advances the simulated TAP by one clock: it derives the next state
// from the canonical graph, performs capture/shift/update side effects, and
// sets tdo for the following read.
func (s *SimPins) SetTCK(bit int) {
	if bit == 0 {
		// TDO is driven out on the falling edge in real hardware; our
		// model updates state and tdo on the rising edge below and
		// leaves them alone here (Core's clockBit reads TDO() between
		// SetTCK(1) and SetTCK(0)).
		return
	}

	next := edges[s.State]
	tms := byte(0)
	if s.tms != 0 {
		tms = 1
	}
	newState := next[tms]

	switch s.State {
	case DrCapture:
		copy(s.dr, captureFixture(len(s.dr)))
		s.shiftReg = s.dr
		s.shiftIdx = 0
	case IrCapture:
		copy(s.ir, captureFixture(len(s.ir)))
		s.shiftReg = s.ir
		s.shiftIdx = 0
	case DrShift, IrShift:
		if s.shiftIdx < len(s.shiftReg) {
			s.tdo = int(s.shiftReg[s.shiftIdx])
			s.shiftReg[s.shiftIdx] = byte(s.tdi)
			s.shiftIdx++
		}
	}

	s.State = newState
}

// captureFixture returns the fixed IEEE 1149.1 capture pattern (...01) used
// by SimPins so tests can assert on a known value after a capture-shift.
func captureFixture(n int) []byte {
	b := make([]byte, n)
	if n > 0 {
		b[0] = 1
	}
	return b
}
