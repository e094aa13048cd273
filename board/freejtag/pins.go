// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Package freejtag wires a tap.Core and the USB command protocol to real
// i.MX6UL GPIO and USB controller hardware, generalized from
// board/usbarmory/mk2's own peripheral wiring (its ble.go configureBLEGPIO
// helper and usbarmory.go board bring-up) the way that board wires its own
// fixed-function pins.
package freejtag

import (
	"github.com/jkent/freejtag/soc/nxp/gpio"
	"github.com/jkent/freejtag/soc/nxp/iomuxc"
	"github.com/jkent/freejtag/tap"
)

// GPIO_MODE is the IOMUXC ALT mode selecting plain GPIO function on every
// i.MX6UL pad, transcribed from board/usbarmory/mk2's own GPIO_MODE
// constant.
const GPIO_MODE = 5

// PinConfig names one TAP signal's GPIO number and pad control registers,
// the same triple board/usbarmory/mk2's configureBLEGPIO takes per pin.
type PinConfig struct {
	Num int
	Mux uint32
	Pad uint32
	Ctl uint32
}

// GPIOPins drives a JTAG TAP over four i.MX6UL GPIO lines, implementing
// tap.Pins. TDO is the only input; TCK/TMS/TDI are outputs, matching the
// probe side of a JTAG connection.
type GPIOPins struct {
	tck *gpio.Pin
	tms *gpio.Pin
	tdi *gpio.Pin
	tdo *gpio.Pin
}

// NewGPIOPins configures the four named pads as GPIO and returns a ready
// GPIOPins. ctrl is the GPIO controller instance the pins live on (e.g.
// imx6ul.GPIO1), matching configureBLEGPIO's own gpio argument.
func NewGPIOPins(ctrl *gpio.GPIO, tck, tms, tdi, tdo PinConfig) (*GPIOPins, error) {
	p := &GPIOPins{}

	var err error
	if p.tck, err = initOutput(ctrl, tck); err != nil {
		return nil, err
	}
	if p.tms, err = initOutput(ctrl, tms); err != nil {
		return nil, err
	}
	if p.tdi, err = initOutput(ctrl, tdi); err != nil {
		return nil, err
	}
	if p.tdo, err = initInput(ctrl, tdo); err != nil {
		return nil, err
	}

	return p, nil
}

func initOutput(ctrl *gpio.GPIO, cfg PinConfig) (*gpio.Pin, error) {
	pin, err := ctrl.Init(cfg.Num)
	if err != nil {
		return nil, err
	}

	pin.Out()

	pad := iomuxc.Init(cfg.Mux, cfg.Pad, GPIO_MODE)
	pad.Ctl(cfg.Ctl)

	return pin, nil
}

func initInput(ctrl *gpio.GPIO, cfg PinConfig) (*gpio.Pin, error) {
	pin, err := ctrl.Init(cfg.Num)
	if err != nil {
		return nil, err
	}

	pin.In()

	pad := iomuxc.Init(cfg.Mux, cfg.Pad, GPIO_MODE)
	pad.Ctl(cfg.Ctl)

	return pin, nil
}

// SetTCK drives the TCK line, implementing tap.Pins.
func (p *GPIOPins) SetTCK(bit int) {
	if bit != 0 {
		p.tck.High()
	} else {
		p.tck.Low()
	}
}

// SetTMS drives the TMS line, implementing tap.Pins.
func (p *GPIOPins) SetTMS(bit int) {
	if bit != 0 {
		p.tms.High()
	} else {
		p.tms.Low()
	}
}

// SetTDI drives the TDI line, implementing tap.Pins.
func (p *GPIOPins) SetTDI(bit int) {
	if bit != 0 {
		p.tdi.High()
	} else {
		p.tdi.Low()
	}
}

// TDO samples the TDO line, implementing tap.Pins.
func (p *GPIOPins) TDO() int {
	if p.tdo.Value() {
		return 1
	}
	return 0
}

// Attach configures TCK/TMS/TDI as outputs driving low/high/low and TDO as
// an input, matching FreeJTAG_Attach/tap_attach's pin-level setup before
// any clocking starts.
func (p *GPIOPins) Attach() {
	p.tck.Out()
	p.tms.Out()
	p.tdi.Out()
	p.tdo.In()
	p.tck.Low()
	p.tms.High()
	p.tdi.Low()
}

// Detach turns all four lines back into GPIO inputs, releasing the
// target's TAP signals; the pad settings made by NewGPIOPins are left
// unchanged.
func (p *GPIOPins) Detach() {
	p.tck.In()
	p.tms.In()
	p.tdi.In()
	p.tdo.In()
}

var _ tap.Pins = (*GPIOPins)(nil)
