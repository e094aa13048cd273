// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Package varianta implements the vendor control-transfer command protocol
// (spec's preferred dialect), generalized from FreeJTAG_ControlRequest in
// original_source/src/freejtag.c into a usbdev.SetupFunction hook driving a
// tap.Core.
package varianta

import (
	"encoding/binary"
	"fmt"

	"github.com/jkent/freejtag/tap"
	"github.com/jkent/freejtag/usbdev"
)

// Control request codes (bRequest), transcribed from freejtag_req_t.
const (
	ReqVersion  = 0x00
	ReqReset    = 0x01
	ReqExecute  = 0x02
	ReqReadBuf  = 0x03
	ReqBulkByte = 0x04
	ReqReadOCDR = 0x80
)

// EXECUTE sub-commands (cmd in wValue's low byte), transcribed from
// freejtag_cmd_t.
const (
	CmdNop          = 0x00
	CmdAttach       = 0x01
	CmdSetTDI       = 0x02
	CmdSetTMS       = 0x03
	CmdSetState     = 0x04
	CmdClock        = 0x05
	CmdShift        = 0x06
	CmdShiftExit    = 0x07
	CmdShiftOut     = 0x40
	CmdShiftOutExit = 0x41
	CmdShiftIn      = 0x80
	CmdShiftInExit  = 0x81
	CmdShiftOutIn   = 0xC0
	CmdShiftOutInExit = 0xC1
)

// FirmwareVersionBCD is the value VERSION reports, encoding 3.0.0 the way
// freejtag.c's VERSION_BCD(3,0,0) does.
const FirmwareVersionBCD = 0x0300

// ControlBufferSize bounds the tx buffer, so each READBUF reply, and any
// single BULKBYTE IN transfer, mirroring FIXED_CONTROL_ENDPOINT_SIZE.
// BULKBYTE OUT shifts every data byte the request carries.
const ControlBufferSize = 32

// Dispatcher wires one tap.Core to the vendor control-transfer protocol. It
// holds the tx buffer results of SHIFT_IN/SHIFT_OUTIN/BULKBYTE(IN) are
// staged into, exactly as freejtag.c's file-scope txbuf/txlen do.
type Dispatcher struct {
	Core *tap.Core

	txBuf [ControlBufferSize]byte
	txLen int
}

// NewDispatcher returns a Dispatcher driving core.
func NewDispatcher(core *tap.Core) *Dispatcher {
	return &Dispatcher{Core: core}
}

// Handle implements usbdev.SetupFunction, dispatching one vendor control
// request. Every bRequest this dialect defines is handled here
// (done=true); any other bRequest returns done=false, so the caller's
// standard USB request switch handles it.
func (d *Dispatcher) Handle(setup *usbdev.SetupData, out []byte) (in []byte, ack bool, done bool, err error) {
	switch setup.Request {
	case ReqVersion:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, FirmwareVersionBCD)
		return buf, false, true, nil

	case ReqReset:
		d.Core.Reset()
		d.txLen = 0
		return nil, true, true, nil

	case ReqExecute:
		if err := d.execute(setup, out); err != nil {
			return nil, false, true, err
		}
		return nil, true, true, nil

	case ReqReadBuf:
		buf := append([]byte(nil), d.txBuf[:d.txLen]...)
		d.txLen = 0
		return buf, false, true, nil

	case ReqBulkByte:
		if setup.RequestType&0x80 != 0 {
			n := int(setup.Length)
			if n > ControlBufferSize {
				n = ControlBufferSize
			}
			buf := d.Core.BulkReadBytes(n, 0, 0)
			return buf, false, true, nil
		}

		d.Core.BulkWriteBytes(out, 0, 0)
		return nil, true, true, nil

	case ReqReadOCDR:
		value := d.Core.AVRReadOCDR()
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(int16(value)))
		return buf, false, true, nil

	default:
		return nil, false, false, nil
	}
}

// execute runs one EXECUTE sub-command, transcribed from
// FreeJTAG_ControlRequest's FREEJTAG_REQ_EXECUTE switch.
func (d *Dispatcher) execute(setup *usbdev.SetupData, out []byte) error {
	cmd := uint8(setup.Value)
	arg := uint8(setup.Value >> 8)

	switch cmd {
	case CmdNop:

	case CmdAttach:
		if arg != 0 {
			d.Core.Attach()
		} else {
			d.Core.Detach()
		}

	case CmdSetTDI:
		bit := 0
		if arg != 0 {
			bit = 1
		}
		d.Core.Pins.SetTDI(bit)

	case CmdSetTMS:
		bit := 0
		if arg != 0 {
			bit = 1
		}
		d.Core.Pins.SetTMS(bit)

	case CmdSetState:
		d.Core.ChangeState(tap.State(arg & 0x0f))

	case CmdClock:
		d.Core.Clock(int(arg) + 1)

	case CmdShift, CmdShiftExit:
		bits := int(arg) + 1
		d.Core.Shift(bits, cmd == CmdShiftExit)

	case CmdShiftOut, CmdShiftOutExit:
		bits := int(arg) + 1
		n := (bits + 7) / 8
		if len(out) < n {
			return fmt.Errorf("varianta: SHIFT_OUT wants %d data bytes, got %d", n, len(out))
		}
		d.Core.ShiftOut(out, bits, cmd == CmdShiftOutExit)

	case CmdShiftIn, CmdShiftInExit:
		bits := int(arg) + 1
		n := (bits + 7) / 8
		d.Core.ShiftIn(d.txBuf[:n], bits, cmd == CmdShiftInExit)
		d.txLen = n

	case CmdShiftOutIn, CmdShiftOutInExit:
		bits := int(arg) + 1
		n := (bits + 7) / 8
		if len(out) < n {
			return fmt.Errorf("varianta: SHIFT_OUTIN wants %d data bytes, got %d", n, len(out))
		}
		d.Core.ShiftOutIn(out, d.txBuf[:n], bits, cmd == CmdShiftOutInExit)
		d.txLen = n

	default:
		return fmt.Errorf("varianta: unknown EXECUTE sub-command %#x", cmd)
	}

	return nil
}
