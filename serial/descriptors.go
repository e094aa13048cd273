// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package serial

import "github.com/jkent/freejtag/usbdev"

// BuildControlInterface assembles the CDC-ACM control interface (one
// interrupt IN notification endpoint, no data of its own), adapted from
// the teacher's ethernet.buildControlInterface — dropping the IAD/
// multi-function wiring and Ethernet Networking functional descriptor
// that exist there only to support CDC-ECM, and using the ACM/
// Call-Management functional descriptors FreeJTAG's serial passthrough
// actually needs (DESIGN.md: usbdev/descriptor_cdc.go).
func BuildControlInterface(device *usbdev.Device, dataInterfaceNumber uint8) *usbdev.InterfaceDescriptor {
	iface := &usbdev.InterfaceDescriptor{}
	iface.SetDefaults()

	iface.NumEndpoints = 1
	iface.InterfaceClass = 0x02    // Communications
	iface.InterfaceSubClass = 0x02 // Abstract Control Model

	iInterface, _ := device.AddString("FreeJTAG CDC Control")
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

	notify := &usbdev.EndpointDescriptor{}
	notify.SetDefaults()
	notify.EndpointAddress = 0x80 | 2
	notify.Attributes = 3 // interrupt
	notify.MaxPacketSize = 16
	notify.Interval = 9

	iface.Endpoints = append(iface.Endpoints, notify)

	return iface
}

// BuildDataInterface assembles the CDC data interface (one bulk IN, one
// bulk OUT), wired to bridge's endpoint functions.
func BuildDataInterface(device *usbdev.Device, bridge *Bridge, inAddress, outAddress uint8) *usbdev.InterfaceDescriptor {
	iface := &usbdev.InterfaceDescriptor{}
	iface.SetDefaults()

	iface.NumEndpoints = 2
	iface.InterfaceClass = 0x0a // CDC-Data

	epIN := &usbdev.EndpointDescriptor{}
	epIN.SetDefaults()
	epIN.EndpointAddress = 0x80 | inAddress
	epIN.Attributes = 2 // bulk
	epIN.MaxPacketSize = BulkPacketSize
	epIN.Function = bridge.INFunction

	epOUT := &usbdev.EndpointDescriptor{}
	epOUT.SetDefaults()
	epOUT.EndpointAddress = outAddress
	epOUT.Attributes = 2 // bulk
	epOUT.MaxPacketSize = BulkPacketSize
	epOUT.Function = bridge.OUTFunction

	iface.Endpoints = append(iface.Endpoints, epIN, epOUT)

	return iface
}
