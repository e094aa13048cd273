// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Package variantb implements the bulk-endpoint packetized command
// protocol, the second of the spec's two dialects, generalized from
// tap_command in original_source/src/tap.c. It is kept for fidelity
// alongside protocol/varianta, the preferred dialect.
package variantb

import (
	"encoding/binary"
	"fmt"

	"github.com/jkent/freejtag/tap"
)

// Opcodes, transcribed from tap_cmd_t. Every command packet (<= 8 bytes,
// host-to-device over a bulk OUT endpoint) starts with one of these.
const (
	OpNop           = 0
	OpVersion       = 1
	OpAttach        = 2
	OpSetState      = 3
	OpClock         = 4
	OpClockOut      = 5
	OpClockIn       = 6
	OpClockOutIn    = 7
	OpBulkLoadBytes = 8
	OpBulkReadBytes = 9
	OpAVRReadOCDR   = 128
	OpReset         = 255
)

// VersionReply is the fixed two-byte VERSION reply (0.2), distinct from
// varianta's VERSION_BCD(3,0,0) — the two dialects report different
// version schemes in the original firmware and that distinction is
// preserved here rather than unified.
var VersionReply = []byte{0x00, 0x02}

// MaxPacketBytes bounds a single command or bulk-data packet.
const MaxPacketBytes = 8

// Dispatcher wires one tap.Core to the bulk-endpoint packetized protocol.
// bulkBytes tracks the BULK_LOAD_BYTES streaming sub-state, the same way
// tap_command's file-scope bulk_bytes does.
type Dispatcher struct {
	Core *tap.Core

	bulkBytes uint16
}

// NewDispatcher returns a Dispatcher driving core.
func NewDispatcher(core *tap.Core) *Dispatcher {
	return &Dispatcher{Core: core}
}

// Handle processes one incoming bulk OUT packet and returns zero or more
// reply packets to emit on the bulk IN endpoint (BULK_READ_BYTES can emit
// several). A malformed or unrecognized opcode is ignored, matching
// tap_command's "default: break" and spec's "any malformed opcode is
// ignored."
func (d *Dispatcher) Handle(pkt []byte) ([][]byte, error) {
	if len(pkt) == 0 {
		return nil, nil
	}

	if d.bulkBytes > 0 {
		chunk := int(d.bulkBytes)
		if chunk > len(pkt) {
			chunk = len(pkt)
		}

		d.Core.BulkWriteBytes(pkt[:chunk], 0, 0)
		d.bulkBytes -= uint16(chunk)
		if chunk < MaxPacketBytes {
			d.bulkBytes = 0
		}

		return nil, nil
	}

	switch pkt[0] {
	case OpNop:
		return nil, nil

	case OpVersion:
		return [][]byte{VersionReply}, nil

	case OpAttach:
		if len(pkt) < 2 {
			return nil, fmt.Errorf("variantb: ATTACH needs 1 arg byte")
		}
		if pkt[1] != 0 {
			d.Core.Pins.Attach()
			d.Core.ChangeState(tap.Reset)
		} else {
			d.Core.Pins.Detach()
			d.Core.Reset()
		}
		return nil, nil

	case OpSetState:
		if len(pkt) < 2 {
			return nil, fmt.Errorf("variantb: SET_STATE needs 1 arg byte")
		}
		d.Core.ChangeState(tap.State(pkt[1]))
		return [][]byte{{byte(d.Core.State)}}, nil

	case OpClock:
		bits, exit, err := clockArgs(pkt)
		if err != nil {
			return nil, err
		}
		d.Core.Shift(bits, exit)
		return nil, nil

	case OpClockOut:
		bits, exit, err := clockArgs(pkt)
		if err != nil {
			return nil, err
		}
		n := (bits + 7) / 8
		if len(pkt) < 3+n {
			return nil, fmt.Errorf("variantb: CLOCK_OUT wants %d data bytes", n)
		}
		d.Core.ShiftOut(pkt[3:3+n], bits, exit)
		return nil, nil

	case OpClockIn:
		bits, exit, err := clockArgs(pkt)
		if err != nil {
			return nil, err
		}
		n := (bits + 7) / 8
		buf := make([]byte, n)
		d.Core.ShiftIn(buf, bits, exit)
		return [][]byte{buf}, nil

	case OpClockOutIn:
		bits, exit, err := clockArgs(pkt)
		if err != nil {
			return nil, err
		}
		n := (bits + 7) / 8
		if len(pkt) < 3+n {
			return nil, fmt.Errorf("variantb: CLOCK_OUTIN wants %d data bytes", n)
		}
		in := make([]byte, n)
		d.Core.ShiftOutIn(pkt[3:3+n], in, bits, exit)
		return [][]byte{in}, nil

	case OpBulkLoadBytes:
		if len(pkt) < 3 {
			return nil, fmt.Errorf("variantb: BULK_LOAD_BYTES needs a u16 length")
		}
		d.bulkBytes = binary.LittleEndian.Uint16(pkt[1:3])
		return nil, nil

	case OpBulkReadBytes:
		if len(pkt) < 3 {
			return nil, fmt.Errorf("variantb: BULK_READ_BYTES needs a u16 length")
		}
		length := binary.LittleEndian.Uint16(pkt[1:3])

		var replies [][]byte
		for length > 0 {
			chunk := length
			if chunk > MaxPacketBytes {
				chunk = MaxPacketBytes
			}
			replies = append(replies, d.Core.BulkReadBytes(int(chunk), 0, 0))
			length -= chunk
		}
		return replies, nil

	case OpAVRReadOCDR:
		v := d.Core.AVRReadOCDR()
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
		return [][]byte{buf}, nil

	case OpReset:
		d.bulkBytes = 0
		return nil, nil

	default:
		return nil, nil
	}
}

// clockArgs unpacks the (bits, exit) header shared by CLOCK/CLOCK_OUT/
// CLOCK_IN/CLOCK_OUTIN, enforcing the 1..32 bit-count range spec §4.E
// documents for this dialect.
func clockArgs(pkt []byte) (bits int, exit bool, err error) {
	if len(pkt) < 3 {
		return 0, false, fmt.Errorf("variantb: command needs bits and exit bytes")
	}
	bits = int(pkt[1])
	if bits < 1 || bits > 32 {
		return 0, false, fmt.Errorf("variantb: bits = %d, want 1..32", bits)
	}
	exit = pkt[2] != 0
	return bits, exit, nil
}
