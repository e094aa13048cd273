// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package freejtag

import (
	"encoding/hex"

	"github.com/jkent/freejtag/soc/imx6"
	hwusb "github.com/jkent/freejtag/soc/imx6/usb"
	"github.com/jkent/freejtag/soc/nxp/imx6ul"

	"github.com/jkent/freejtag/serial"
	"github.com/jkent/freejtag/tap"
)

// Pinout names the four GPIO lines and pad registers a target PCB wires
// TCK/TMS/TDI/TDO to. There is no universal default — unlike the BLE
// module board/usbarmory/mk2 wires to fixed pads, FreeJTAG's probe pins
// are whatever header the carrier board exposes — so cmd/freejtag supplies
// a concrete Pinout for its target board.
type Pinout struct {
	TCK PinConfig
	TMS PinConfig
	TDI PinConfig
	TDO PinConfig
}

// Board ties together the TAP core, the GPIO probe pins, the USB command
// protocol dispatchers, and the CDC-ACM passthrough bridge — the firmware
// equivalent of board/usbarmory/mk2's own board-bringup files.
type Board struct {
	Core   *tap.Core
	Bridge *serial.Bridge
	Device *hwusb.Device
}

// New brings up GPIO1-backed probe pins per pinout, a tap.Core driving
// them, a serial bridge, and the USB device descriptor tree dispatching
// both protocol dialects — everything short of actually starting the USB
// controller (that is cmd/freejtag's job, via Start).
func New(pinout Pinout, uartWrite func(p []byte)) (*Board, error) {
	pins, err := NewGPIOPins(imx6ul.GPIO1, pinout.TCK, pinout.TMS, pinout.TDI, pinout.TDO)
	if err != nil {
		return nil, err
	}

	core := tap.NewCore(pins)

	bridge := serial.NewBridge(4096)
	bridge.UARTWrite = uartWrite

	dev := BuildHardwareDevice(core, bridge, DynamicSerial())

	return &Board{Core: core, Bridge: bridge, Device: dev}, nil
}

// Start hands the assembled device to the real USB controller and blocks
// forever, matching hwusb.USB.Start's own contract.
func (b *Board) Start() {
	hwusb.USB1.Init()
	hwusb.USB1.DeviceMode()
	hwusb.USB1.Reset()

	// never returns
	hwusb.USB1.Start(b.Device)
}

// DynamicSerial derives the USB serial number string from the SoC's
// device-unique ID, the way board/usbarmory/mk2 derives its own
// identifiers from imx6.UniqueID() rather than a fixed string.
func DynamicSerial() string {
	uid := imx6.UniqueID()
	return "jkent.net:" + hex.EncodeToString(uid[:])
}
