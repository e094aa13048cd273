// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package freejtag

import (
	hwusb "github.com/jkent/freejtag/soc/imx6/usb"

	"github.com/jkent/freejtag/protocol/varianta"
	"github.com/jkent/freejtag/protocol/variantb"
	"github.com/jkent/freejtag/serial"
	"github.com/jkent/freejtag/tap"
	"github.com/jkent/freejtag/usbdev"
)

// Endpoint addresses for the bulk-endpoint protocol (Variant B) and the
// CDC-ACM serial bridge, chosen not to collide with EP0 (control).
const (
	variantBEndpoint = 1
	serialINEndpoint = 2
	serialOUTEndpoint = 3
)

// BuildHardwareDevice assembles a real *hwusb.Device (the i.MX6 control
// transfer engine in soc/imx6/usb, the one complete USB device-mode driver
// present in this tree — soc/nxp/usb's own Device/descriptor definitions
// are absent from the copied sources, so the older imx6/usb generation is
// used here instead; see DESIGN.md) configured with:
//   - EP0 vendor control requests dispatched to varianta.Dispatcher, the
//     preferred protocol per SPEC_FULL.md's dialect decision.
//   - a bulk IN/OUT endpoint pair dispatched to variantb.Dispatcher, kept
//     for fidelity alongside Variant A.
//   - a CDC-ACM interface pair bridging to the target UART via bridge.
//
// serialNumber is the dynamic serial string (board.go derives it from the
// SoC unique ID).
func BuildHardwareDevice(core *tap.Core, bridge *serial.Bridge, serialNumber string) *hwusb.Device {
	dev := &hwusb.Device{}

	dev.Descriptor = &hwusb.DeviceDescriptor{}
	dev.Descriptor.SetDefaults()
	dev.Descriptor.DeviceClass = 0xef    // Miscellaneous (multi-interface function)
	dev.Descriptor.DeviceSubClass = 0x02 // Common Class
	dev.Descriptor.DeviceProtocol = 0x01 // Interface Association Descriptor
	dev.Descriptor.VendorId = usbdev.VendorID
	dev.Descriptor.ProductId = usbdev.ProductID
	dev.Descriptor.Device = 0x0300 // bcdDevice 3.0, matches varianta.FirmwareVersionBCD

	iManufacturer, _ := dev.AddString("jkent.net")
	iProduct, _ := dev.AddString(usbdev.ProductString)
	iSerial, _ := dev.AddString(serialNumber)
	dev.Descriptor.Manufacturer = iManufacturer
	dev.Descriptor.Product = iProduct
	dev.Descriptor.SerialNumber = iSerial

	dev.SetLanguageCodes([]uint16{0x0409})

	conf := &hwusb.ConfigurationDescriptor{}
	conf.SetDefaults()

	jtagIface := &hwusb.InterfaceDescriptor{}
	jtagIface.SetDefaults()
	jtagIface.NumEndpoints = 2
	jtagIface.InterfaceClass = 0xff // vendor-specific, EXECUTE/READBUF/BULKBYTE live on EP0
	iJTAG, _ := dev.AddString("FreeJTAG JTAG Interface")
	jtagIface.Interface = iJTAG

	bulkEP := newVariantBEndpoint(core)
	epIn := &hwusb.EndpointDescriptor{}
	epIn.SetDefaults()
	epIn.EndpointAddress = 0x80 | variantBEndpoint
	epIn.Attributes = 2 // bulk
	epIn.MaxPacketSize = variantb.MaxPacketBytes
	epIn.Function = bulkEP.in

	epOut := &hwusb.EndpointDescriptor{}
	epOut.SetDefaults()
	epOut.EndpointAddress = variantBEndpoint
	epOut.Attributes = 2 // bulk
	epOut.MaxPacketSize = variantb.MaxPacketBytes
	epOut.Function = bulkEP.out

	jtagIface.Endpoints = append(jtagIface.Endpoints, epIn, epOut)
	conf.AddInterface(jtagIface)

	ctrlIface := buildCDCControlInterface(dev, 2)
	dataIface := buildCDCDataInterface(bridge, serialINEndpoint, serialOUTEndpoint)
	conf.AddInterface(ctrlIface)
	conf.AddInterface(dataIface)

	dev.AddConfiguration(conf)

	vendorDispatch := varianta.NewDispatcher(core)
	dev.Setup = setupAdapter(vendorDispatch)

	return dev
}

// setupAdapter wraps a varianta.Dispatcher as a hwusb.SetupFunction. The
// real control endpoint driver has no path to hand this hook an OUT-data
// stage (see DESIGN.md), so EXECUTE(SHIFT_OUT/SHIFT_OUTIN) and BULKBYTE OUT
// requests will report an error on real hardware; every other bRequest
// works identically to the host-testable varianta.Dispatcher.Handle.
func setupAdapter(d *varianta.Dispatcher) hwusb.SetupFunction {
	return func(setup *hwusb.SetupData) (in []byte, ack bool, done bool, err error) {
		return d.Handle((*usbdev.SetupData)(setup), nil)
	}
}

// variantBEndpointPair adapts a single variantb.Dispatcher, which is driven
// from the OUT side and can produce several reply packets per command (e.g.
// BULK_READ_BYTES), onto the hwusb driver's separate IN/OUT EndpointFunction
// slots: replies queued by out() are drained one per poll by in().
type variantBEndpointPair struct {
	dispatcher *variantb.Dispatcher
	queue      [][]byte
}

func newVariantBEndpoint(core *tap.Core) *variantBEndpointPair {
	return &variantBEndpointPair{dispatcher: variantb.NewDispatcher(core)}
}

func (p *variantBEndpointPair) out(buf []byte, lastErr error) ([]byte, error) {
	replies, err := p.dispatcher.Handle(buf)
	if err != nil {
		return nil, err
	}
	p.queue = append(p.queue, replies...)
	return nil, nil
}

func (p *variantBEndpointPair) in(buf []byte, lastErr error) ([]byte, error) {
	if len(p.queue) == 0 {
		return nil, nil
	}

	reply := p.queue[0]
	p.queue = p.queue[1:]
	return reply, nil
}
