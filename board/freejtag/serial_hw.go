// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package freejtag

import (
	hwusb "github.com/jkent/freejtag/soc/imx6/usb"

	"github.com/jkent/freejtag/serial"
	"github.com/jkent/freejtag/usbdev"
)

// buildCDCControlInterface and buildCDCDataInterface mirror
// serial.BuildControlInterface/BuildDataInterface field-for-field, but
// target hwusb's own InterfaceDescriptor/EndpointDescriptor types instead
// of usbdev's — the two descriptor type systems are structurally
// equivalent (both modeled on imx6/usb/ethernet's cdc_interface.go) but
// distinct Go types, so the class-descriptor bytes are shared via
// usbdev's CDC descriptor builders (ClassDescriptors is a [][]byte on
// both sides) while the interface/endpoint structs themselves are
// hwusb's, since that is what BuildHardwareDevice assembles.
func buildCDCControlInterface(dev *hwusb.Device, dataInterfaceNumber uint8) *hwusb.InterfaceDescriptor {
	iface := &hwusb.InterfaceDescriptor{}
	iface.SetDefaults()

	iface.NumEndpoints = 1
	iface.InterfaceClass = 0x02
	iface.InterfaceSubClass = 0x02

	iInterface, _ := dev.AddString("FreeJTAG CDC Control")
	iface.Interface = iInterface

	header := &usbdev.CDCHeaderDescriptor{}
	header.SetDefaults()
	iface.ClassDescriptors = append(iface.ClassDescriptors, header.Bytes())

	callMgmt := &usbdev.CDCCallManagementDescriptor{}
	callMgmt.SetDefaults()
	callMgmt.DataInterface = dataInterfaceNumber
	iface.ClassDescriptors = append(iface.ClassDescriptors, callMgmt.Bytes())

	acm := &usbdev.CDCACMDescriptor{}
	acm.SetDefaults()
	iface.ClassDescriptors = append(iface.ClassDescriptors, acm.Bytes())

	union := &usbdev.CDCUnionDescriptor{}
	union.SetDefaults()
	union.SlaveInterface0 = dataInterfaceNumber
	iface.ClassDescriptors = append(iface.ClassDescriptors, union.Bytes())

	notify := &hwusb.EndpointDescriptor{}
	notify.SetDefaults()
	notify.EndpointAddress = 0x80 | 4
	notify.Attributes = 3
	notify.MaxPacketSize = 16
	notify.Interval = 9

	iface.Endpoints = append(iface.Endpoints, notify)

	return iface
}

func buildCDCDataInterface(bridge *serial.Bridge, inAddress, outAddress uint8) *hwusb.InterfaceDescriptor {
	iface := &hwusb.InterfaceDescriptor{}
	iface.SetDefaults()

	iface.NumEndpoints = 2
	iface.InterfaceClass = 0x0a

	epIN := &hwusb.EndpointDescriptor{}
	epIN.SetDefaults()
	epIN.EndpointAddress = 0x80 | inAddress
	epIN.Attributes = 2
	epIN.MaxPacketSize = serial.BulkPacketSize
	epIN.Function = bridge.INFunction

	epOUT := &hwusb.EndpointDescriptor{}
	epOUT.SetDefaults()
	epOUT.EndpointAddress = outAddress
	epOUT.Attributes = 2
	epOUT.MaxPacketSize = serial.BulkPacketSize
	epOUT.Function = bridge.OUTFunction

	iface.Endpoints = append(iface.Endpoints, epIN, epOUT)

	return iface
}
