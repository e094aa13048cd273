// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package tap

// Bulk Byte Engine. Generalizes FreeJTAG_BulkWrite/FreeJTAG_BulkRead
// (canonical, per-byte DR shifts) with the chain-geometry bypass-bit
// padding that original_source/src/jtag.c's CMD_SELECT/chain_info_t
// handling introduces for targets that aren't alone on the scan chain.
//
// Bypass convention: devices "before" the target sit between TDI and the
// target; their one-bit BYPASS registers must receive their dummy bit
// first, since whatever is shifted onto TDI first is the first to land in
// an upstream register. Devices "after" the target sit between it and TDO
// and so take their dummy bit last. The same ordering applies to the IR
// pre-load that selects BYPASS in every neighboring device.

// bypassIRBits is the standard IEEE 1149.1 BYPASS instruction encoding: all
// ones, regardless of instruction register width.
const bypassIRBits = 0xFF

// preloadBypass shifts BYPASS into every device on the chain except the
// target, and targetIR into the target's own instruction register, in one
// IR-SHIFT pass. targetIR is truncated to targetIRBits.
func (c *Core) preloadBypass(targetIR uint32, targetIRBits int) {
	before := int(c.Chain.IrBefore)
	after := int(c.Chain.IrAfter)
	total := before + targetIRBits + after

	if total == 0 {
		return
	}

	buf := make([]byte, (total+7)/8)
	for i := range buf {
		buf[i] = bypassIRBits
	}

	for i := 0; i < targetIRBits; i++ {
		bit := before + i
		mask := bitMask(bit)
		if targetIR&(1<<uint(i)) != 0 {
			buf[bit/8] |= mask
		} else {
			buf[bit/8] &^= mask
		}
	}

	c.ChangeState(IrShift)
	c.ShiftOut(buf, total, true)
	c.ChangeState(RunIdle)
}

// BulkWriteBytes loads targetIR into the chain (selecting BYPASS in every
// neighboring device) then shifts data into the target's data register,
// padding with DevicesBefore/DevicesAfter dummy bits so the target's bits
// land correctly on a multi-device chain.
func (c *Core) BulkWriteBytes(data []byte, targetIR uint32, targetIRBits int) {
	c.preloadBypass(targetIR, targetIRBits)

	before := int(c.Chain.DevicesBefore)
	after := int(c.Chain.DevicesAfter)

	c.ChangeState(DrShift)

	if before > 0 {
		c.Shift(before, false)
	}

	for i, b := range data {
		last := i == len(data)-1 && after == 0
		c.ShiftOut([]byte{b}, 8, last)
	}

	if after > 0 {
		c.Shift(after, true)
	}

	c.ChangeState(RunIdle)
}

// BulkReadBytes is the read counterpart to BulkWriteBytes: it shifts n
// bytes out of the target's data register (TDI held low) after the same
// BYPASS pre-load and bypass-bit padding, returning the captured bytes.
func (c *Core) BulkReadBytes(n int, targetIR uint32, targetIRBits int) []byte {
	c.preloadBypass(targetIR, targetIRBits)

	before := int(c.Chain.DevicesBefore)
	after := int(c.Chain.DevicesAfter)

	c.ChangeState(DrShift)

	if before > 0 {
		c.Shift(before, false)
	}

	out := make([]byte, n)
	for i := 0; i < n; i++ {
		last := i == n-1 && after == 0
		var b [1]byte
		c.ShiftIn(b[:], 8, last)
		out[i] = b[0]
	}

	if after > 0 {
		c.Shift(after, true)
	}

	c.ChangeState(RunIdle)

	return out
}

// AVR on-chip debug register helper. Generalizes FreeJTAG_AVR_ReadOCDR/
// tap_avr_read_ocdr, the sequence that reads an Atmel AVR target's OCDR
// through its JTAG debugWIRE interface: select the AVR_OCD instruction,
// read back the control/status register, and only if the target reports
// its OCDR as valid (status bit 4), read and echo it back.
const (
	irAVROCD          = 11
	avrOCDCtrlStatus  = 13
	avrOCDOCDR        = 12
	avrOCDStatusValid = 0x10
)

// AVRReadOCDR reads the target's on-chip debug register, returning the
// sentinel -1 if the target reports the register not yet valid — matching
// tap_avr_read_ocdr's "if (status & 0x10)" gate and its -1 return when it
// is not set. The IR is always restored to whatever it held on entry
// afterward, whether or not the register was valid.
func (c *Core) AVRReadOCDR() int32 {
	c.ChangeState(IrShift)
	old := c.ShiftScalar(4, irAVROCD, true)
	c.ChangeState(RunIdle)

	c.ChangeState(DrShift)
	c.ShiftScalar(5, avrOCDCtrlStatus, true)
	c.ChangeState(RunIdle)

	c.ChangeState(DrShift)
	status := c.ShiftScalar(16, 0, true)
	c.ChangeState(RunIdle)

	result := int32(-1)

	if status&avrOCDStatusValid != 0 {
		c.ChangeState(DrShift)
		c.ShiftScalar(5, avrOCDOCDR, true)
		c.ChangeState(RunIdle)

		c.ChangeState(DrShift)
		raw := c.ShiftScalar(16, 0, true)
		c.ChangeState(RunIdle)

		result = int32(raw >> 8)
	}

	c.ChangeState(IrShift)
	c.ShiftScalar(4, old, true)
	c.ChangeState(RunIdle)

	return result
}
