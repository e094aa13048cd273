// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Command freejtag-probe is a minimal host-side smoke-test client: it opens
// a FreeJTAG device over USB, reads back its firmware version, attaches to
// the target and detaches again (EXECUTE ATTACH with arg 1, then 0). It is
// not a full JTAG
// tool — just enough to confirm a board enumerates and answers control
// requests, grounded on OpenTraceLab-OpenTraceJTAG's cmsisdap_transport.go
// USBTransport (gousb device-open/interface-claim pattern) adapted from bulk
// endpoints to FreeJTAG's vendor control-transfer dialect.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/gousb"

	"github.com/jkent/freejtag/protocol/varianta"
)

// VendorID and ProductID match the values board/freejtag/device.go assigns
// the real hardware's DeviceDescriptor.
const (
	VendorID  = 0x16c0
	ProductID = 0x27dd

	controlTimeout = 2 * time.Second
)

// Probe wraps a single open FreeJTAG device, issuing the vendor control
// requests varianta.Dispatcher understands on the firmware side.
type Probe struct {
	ctx *gousb.Context
	dev *gousb.Device
}

// Open finds and opens the first FreeJTAG device by VID:PID, mirroring
// USBTransport's NewUSBTransport.
func Open() (*Probe, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("freejtag-probe: USB error: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("freejtag-probe: no device found (VID:0x%04x PID:0x%04x)", VendorID, ProductID)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		// not fatal on every platform
	}

	return &Probe{ctx: ctx, dev: dev}, nil
}

// Close releases the USB device and context, mirroring USBTransport.Close.
func (p *Probe) Close() error {
	if p.dev != nil {
		p.dev.Close()
		p.dev = nil
	}
	if p.ctx != nil {
		p.ctx.Close()
		p.ctx = nil
	}
	return nil
}

// controlIn issues a vendor IN control transfer, reading up to len(buf)
// bytes of response data.
func (p *Probe) controlIn(request uint8, value, index uint16, buf []byte) (int, error) {
	return p.dev.Control(gousb.ControlIn|gousb.ControlVendor|gousb.ControlDevice, request, value, index, buf)
}

// controlOut issues a vendor OUT control transfer, writing data (which may
// be empty for a no-data-stage request).
func (p *Probe) controlOut(request uint8, value, index uint16, data []byte) error {
	_, err := p.dev.Control(gousb.ControlOut|gousb.ControlVendor|gousb.ControlDevice, request, value, index, data)
	return err
}

// Version reads the firmware's reported VERSION_BCD, the same value
// varianta.Dispatcher.Handle returns for ReqVersion.
func (p *Probe) Version() (uint16, error) {
	buf := make([]byte, 2)
	n, err := p.controlIn(varianta.ReqVersion, 0, 0, buf)
	if err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, fmt.Errorf("freejtag-probe: short VERSION reply (%d bytes)", n)
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// Execute issues one EXECUTE sub-command with the given argument byte,
// packing cmd/arg into wValue the same way varianta.Dispatcher.execute
// unpacks them.
func (p *Probe) Execute(cmd, arg uint8) error {
	value := uint16(cmd) | uint16(arg)<<8
	return p.controlOut(varianta.ReqExecute, value, 0, nil)
}

// Attach issues EXECUTE/ATTACH, the first command a host-side tool sends
// before driving the TAP.
func (p *Probe) Attach() error {
	return p.Execute(varianta.CmdAttach, 1)
}

// Detach issues EXECUTE/ATTACH with arg=0, releasing the TAP pins.
func (p *Probe) Detach() error {
	return p.Execute(varianta.CmdAttach, 0)
}

func main() {
	flag.Parse()

	p, err := Open()
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	version, err := p.Version()
	if err != nil {
		log.Fatalf("VERSION failed: %v", err)
	}
	log.Printf("firmware version: %d.%d.%d", version>>8, (version>>4)&0xf, version&0xf)

	if err := p.Attach(); err != nil {
		log.Fatalf("ATTACH failed: %v", err)
	}
	log.Print("attached")

	if err := p.Detach(); err != nil {
		log.Fatalf("DETACH failed: %v", err)
	}
	log.Print("detached")
}
