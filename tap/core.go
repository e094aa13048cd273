// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package tap

import "sync"

// Core holds the state that the original firmware kept in file-scope
// statics (tap.c's `static state_t state`, freejtag.c's chain/cursor
// globals) as explicit, testable fields instead.
type Core struct {
	Pins  Pins
	State State
	Chain ChainGeometry

	// mu serializes access to Core from the USB setup callback and from
	// the CDC-ACM bridge's poll loop, mirroring the teacher's use of a
	// mutex around shared register/descriptor state (internal/reg,
	// imx6/usb/descriptor.go's EndpointDescriptor).
	mu sync.Mutex
}

// NewCore returns a Core in the Unknown state, matching the firmware before
// FreeJTAG_Attach/tap_command(ATTACH) has run.
func NewCore(pins Pins) *Core {
	return &Core{
		Pins:  pins,
		State: Unknown,
	}
}

// Attach brings the TAP up: it asserts TMS and drives 1024 TCK cycles
// (freejtag.c's FreeJTAG_Attach belt-and-suspenders reset, spec §4.B) before
// dropping into Reset.
func (c *Core) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Pins.Attach()
	c.Pins.SetTMS(1)
	for i := 0; i < 1024; i++ {
		clock(c.Pins)
	}
	c.State = Reset
}

// Detach tristates the pins and forgets the current state.
func (c *Core) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Pins.Detach()
	c.State = Unknown
}

// Reset forgets the current state without touching the pins, matching
// FreeJTAG_ControlRequest's RESET handler ("state = FREEJTAG_STATE_UNKNOWN")
// — unlike Detach, the pins are left exactly as they were.
func (c *Core) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.State = Unknown
}

// Clock issues n TCK cycles without changing TMS/TDI, matching the
// EXECUTE(CLOCK) sub-command's raw clock-cycle counter.
func (c *Core) Clock(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < n; i++ {
		clock(c.Pins)
	}
}

// ChangeState drives the TAP from its current state to target, emitting the
// minimal TMS/TCK sequence from the precomputed path table.
//
// Three special cases, all drawn directly from tap_set_state/
// FreeJTAG_SetState:
//
//   - target == Reset: always an unconditional five TCK cycles with TMS
//     held high, regardless of the current state (spec §4.B, testable
//     property 2). This is not the shortest path from every source (e.g.
//     RunIdle reaches Reset in three edges via DrSelect/IrSelect) but it is
//     what the firmware's own reset path does and what the spec mandates.
//   - State == Unknown and target != Reset: the TAP hasn't been attached
//     yet; refuse silently (matches tap_command's implicit behavior before
//     ATTACH).
//   - No path recorded for (target, State): a no-op, matching the
//     firmware's "default: return" on unrecognized source states.
func (c *Core) ChangeState(target State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if target == Reset {
		c.Pins.SetTMS(1)
		for i := 0; i < 5; i++ {
			clock(c.Pins)
		}
		c.State = Reset
		return
	}

	if c.State == Unknown {
		return
	}

	if c.State == target {
		return
	}

	targetPaths, ok := paths[target]
	if !ok {
		return
	}

	p, ok := targetPaths[c.State]
	if !ok {
		return
	}

	for _, m := range p {
		c.Pins.SetTMS(int(m.tms))
		for i := 0; i < m.count; i++ {
			clock(c.Pins)
		}
	}

	c.State = target
}
