// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package tap

// clockBit drives one TCK edge with the given TMS/TDI values, samples TDO,
// and advances c.State along the canonical graph — so every shift
// primitive keeps Core.State correct without a separate bookkeeping pass,
// the same way tap_clock()/FreeJTAG_Shift() leave `state` wherever the
// TMS sequence actually took the TAP.
func (c *Core) clockBit(tms, tdi int) int {
	c.Pins.SetTMS(tms)
	c.Pins.SetTDI(tdi)
	c.Pins.SetTCK(1)
	tdo := c.Pins.TDO()
	c.Pins.SetTCK(0)

	next, ok := edges[c.State]
	if ok {
		t := byte(0)
		if tms != 0 {
			t = 1
		}
		c.State = next[t]
	}

	return tdo
}

// bitMask returns the single-bit mask, within its containing byte, for the
// global, zero-based bit index i in an LSB-first packed buffer.
//
// This replaces the original firmware's FreeJTAG_ShiftInBuf/
// FreeJTAG_ShiftOutInBuf mask derivation, which computed the mask from the
// number of bits remaining (`bits-bit`) for every byte except the last
// partial one, where it was hard reset to 0x01 — wrong whenever the final
// byte's bit count didn't happen to align with that constant. Deriving the
// mask uniformly from the bit's own position fixes this for every buffer
// length, not just the cases the original happened to get right.
func bitMask(i int) byte {
	return 1 << uint(i%8)
}

// Shift clocks the TAP bits times without driving or capturing TDI/TDO data
// (TDI held low throughout), used for padding bypass bits in the bulk
// engine. If exit is true the final clock carries TMS=1, leaving a Shift
// state in its corresponding Exit1 state.
func (c *Core) Shift(bits int, exit bool) {
	for bit := 0; bit < bits; bit++ {
		tms := 0
		if exit && bit == bits-1 {
			tms = 1
		}
		c.clockBit(tms, 0)
	}
}

// ShiftOut clocks bits bits out of buf (LSB-first within each byte) via
// TDI, discarding TDO. Generalizes FreeJTAG_ShiftOutBuf/tap_clock_out.
func (c *Core) ShiftOut(buf []byte, bits int, exit bool) {
	for bit := 0; bit < bits; bit++ {
		mask := bitMask(bit)
		tdi := 0
		if buf[bit/8]&mask != 0 {
			tdi = 1
		}

		tms := 0
		if exit && bit == bits-1 {
			tms = 1
		}

		c.clockBit(tms, tdi)
	}
}

// ShiftIn clocks bits bits, capturing TDO into buf (LSB-first within each
// byte) with TDI held low. Generalizes FreeJTAG_ShiftInBuf/tap_clock_in.
func (c *Core) ShiftIn(buf []byte, bits int, exit bool) {
	for i := range buf {
		buf[i] = 0
	}

	for bit := 0; bit < bits; bit++ {
		tms := 0
		if exit && bit == bits-1 {
			tms = 1
		}

		tdo := c.clockBit(tms, 0)
		if tdo != 0 {
			buf[bit/8] |= bitMask(bit)
		}
	}
}

// ShiftOutIn simultaneously shifts out out TDI and captures TDO into in.
// Generalizes FreeJTAG_ShiftOutInBuf/tap_clock_outin.
func (c *Core) ShiftOutIn(out, in []byte, bits int, exit bool) {
	for i := range in {
		in[i] = 0
	}

	for bit := 0; bit < bits; bit++ {
		mask := bitMask(bit)
		tdi := 0
		if out[bit/8]&mask != 0 {
			tdi = 1
		}

		tms := 0
		if exit && bit == bits-1 {
			tms = 1
		}

		tdo := c.clockBit(tms, tdi)
		if tdo != 0 {
			in[bit/8] |= mask
		}
	}
}

// ShiftScalar is the scalar counterpart to ShiftOutIn, shifting up to 32
// bits of tdi out LSB-first and returning the captured tdo value, the same
// shape as FreeJTAG_ShiftOutIn(bits, value).
//
// The original computed its bit mask as `int mask = 1ULL << (bits-1)`: a
// 64-bit shift assigned into a 32-bit (and signed, at that) variable, which
// silently truncates for bits in (32, 64] and can produce a negative mask
// for bits==32 depending on the platform's int width. Here the mask is a
// genuinely-typed uint32 derived per bit, so there is nothing to truncate.
func (c *Core) ShiftScalar(bits int, tdi uint32, exit bool) (tdo uint32) {
	for bit := 0; bit < bits; bit++ {
		var mask uint32 = 1 << uint(bit)

		in := 0
		if tdi&mask != 0 {
			in = 1
		}

		tms := 0
		if exit && bit == bits-1 {
			tms = 1
		}

		out := c.clockBit(tms, in)
		if out != 0 {
			tdo |= mask
		}
	}

	return tdo
}
