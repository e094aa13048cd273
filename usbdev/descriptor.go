// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Package usbdev provides USB 2.0 descriptor types and a Device container
// with a vendor-request hook, hardware-independent so the FreeJTAG command
// protocols can be built and tested without real silicon. The register-
// level USB device-mode controller that actually drives SETUP packets
// through this package lives in board/freejtag.
package usbdev

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
)

const (
	DeviceDescriptorLength          = 18
	ConfigurationDescriptorLength   = 9
	InterfaceDescriptorLength       = 9
	EndpointDescriptorLength        = 7
	DeviceQualifierDescriptorLength = 10
)

// Descriptor types (p279, Table 9-5, USB Specification Revision 2.0).
const (
	DescDevice                  = 0x1
	DescConfiguration           = 0x2
	DescString                  = 0x3
	DescInterface               = 0x4
	DescEndpoint                = 0x5
	DescDeviceQualifier         = 0x6
	DescOtherSpeedConfiguration = 0x7
	DescInterfacePower          = 0x8
)

// VendorID and ProductID are FreeJTAG's registered USB identifiers.
const (
	VendorID  = 0x16c0
	ProductID = 0x27dd
)

// ProductString is the literal product string FreeJTAG reports.
const ProductString = "FreeJTAG Reference Implementation"

// DeviceDescriptor implements p290, Table 9-8, USB Specification Revision
// 2.0. Field layout and the SetDefaults/Bytes convention are carried
// directly from the teacher's soc/imx6/usb descriptor types.
type DeviceDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	BcdUSB            uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize     uint8
	VendorId          uint16
	ProductId         uint16
	Device            uint16
	Manufacturer      uint8
	Product           uint8
	SerialNumber      uint8
	NumConfigurations uint8
}

// SetDefaults initializes FreeJTAG's device descriptor defaults.
func (d *DeviceDescriptor) SetDefaults() {
	d.Length = DeviceDescriptorLength
	d.DescriptorType = DescDevice
	d.BcdUSB = 0x0200
	d.MaxPacketSize = 32 // matches FIXED_CONTROL_ENDPOINT_SIZE
	d.VendorId = VendorID
	d.ProductId = ProductID
	d.NumConfigurations = 1
}

// Bytes converts the descriptor to wire format.
func (d *DeviceDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// ConfigurationDescriptor implements p293, Table 9-10, USB Specification
// Revision 2.0.
type ConfigurationDescriptor struct {
	Length             uint8
	DescriptorType     uint8
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	Configuration      uint8
	Attributes         uint8
	MaxPower           uint8

	Interfaces []*InterfaceDescriptor
}

// SetDefaults initializes default values for the configuration descriptor.
func (d *ConfigurationDescriptor) SetDefaults() {
	d.Length = ConfigurationDescriptorLength
	d.DescriptorType = DescConfiguration
	d.NumInterfaces = 1
	d.ConfigurationValue = 1
	d.Attributes = 0xc0
	d.MaxPower = 50
}

// Bytes converts the descriptor (header only, not sub-descriptors) to wire
// format.
func (d *ConfigurationDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.DescriptorType)
	binary.Write(buf, binary.LittleEndian, d.TotalLength)
	binary.Write(buf, binary.LittleEndian, d.NumInterfaces)
	binary.Write(buf, binary.LittleEndian, d.ConfigurationValue)
	binary.Write(buf, binary.LittleEndian, d.Configuration)
	binary.Write(buf, binary.LittleEndian, d.Attributes)
	binary.Write(buf, binary.LittleEndian, d.MaxPower)
	return buf.Bytes()
}

// InterfaceDescriptor implements p296, Table 9-12, USB Specification
// Revision 2.0.
type InterfaceDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	Interface         uint8

	Endpoints        []*EndpointDescriptor
	ClassDescriptors [][]byte
}

// SetDefaults initializes default values for the interface descriptor.
func (d *InterfaceDescriptor) SetDefaults() {
	d.Length = InterfaceDescriptorLength
	d.DescriptorType = DescInterface
}

// Bytes converts the descriptor, its class-specific descriptors, and its
// endpoints to wire format.
func (d *InterfaceDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.DescriptorType)
	binary.Write(buf, binary.LittleEndian, d.InterfaceNumber)
	binary.Write(buf, binary.LittleEndian, d.AlternateSetting)
	binary.Write(buf, binary.LittleEndian, d.NumEndpoints)
	binary.Write(buf, binary.LittleEndian, d.InterfaceClass)
	binary.Write(buf, binary.LittleEndian, d.InterfaceSubClass)
	binary.Write(buf, binary.LittleEndian, d.InterfaceProtocol)
	binary.Write(buf, binary.LittleEndian, d.Interface)

	for _, classDesc := range d.ClassDescriptors {
		buf.Write(classDesc)
	}

	for _, ep := range d.Endpoints {
		buf.Write(ep.Bytes())
	}

	return buf.Bytes()
}

// EndpointFunction processes one side of an endpoint's traffic: on OUT
// transfers it receives the host's data in out (the in return is ignored);
// on IN transfers it is invoked to produce the next packet's payload.
type EndpointFunction func(out []byte, lastErr error) (in []byte, err error)

// EndpointDescriptor implements p297, Table 9-13, USB Specification
// Revision 2.0.
type EndpointDescriptor struct {
	Length          uint8
	DescriptorType  uint8
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8

	Function EndpointFunction
}

// SetDefaults initializes default values for the endpoint descriptor.
func (d *EndpointDescriptor) SetDefaults() {
	d.Length = EndpointDescriptorLength
	d.DescriptorType = DescEndpoint
}

// Number returns the endpoint number (bits 0-3 of EndpointAddress).
func (d *EndpointDescriptor) Number() int {
	return int(d.EndpointAddress & 0b1111)
}

// Direction returns the endpoint direction (bit 7 of EndpointAddress): 0
// for OUT, 1 for IN.
func (d *EndpointDescriptor) Direction() int {
	return int(d.EndpointAddress&0b10000000) / 0b10000000
}

// TransferType returns the endpoint transfer type (bits 0-1 of Attributes).
func (d *EndpointDescriptor) TransferType() int {
	return int(d.Attributes & 0b11)
}

// Bytes converts the descriptor to wire format.
func (d *EndpointDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.DescriptorType)
	binary.Write(buf, binary.LittleEndian, d.EndpointAddress)
	binary.Write(buf, binary.LittleEndian, d.Attributes)
	binary.Write(buf, binary.LittleEndian, d.MaxPacketSize)
	binary.Write(buf, binary.LittleEndian, d.Interval)
	return buf.Bytes()
}

// StringDescriptor implements p273, 9.6.7, USB Specification Revision 2.0.
type StringDescriptor struct {
	Length         uint8
	DescriptorType uint8
}

// SetDefaults initializes default values for the string descriptor header.
func (d *StringDescriptor) SetDefaults() {
	d.Length = 2
	d.DescriptorType = DescString
}

// Bytes converts the descriptor header to wire format.
func (d *StringDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.DescriptorType)
	return buf.Bytes()
}

// DeviceQualifierDescriptor implements p292, 9.6.2, USB Specification
// Revision 2.0.
type DeviceQualifierDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	BcdUSB            uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize     uint8
	NumConfigurations uint8
	Reserved          uint8
}

// SetDefaults initializes default values for the device qualifier
// descriptor.
func (d *DeviceQualifierDescriptor) SetDefaults() {
	d.Length = DeviceQualifierDescriptorLength
	d.DescriptorType = DescDeviceQualifier
	d.BcdUSB = 0x0200
	d.MaxPacketSize = 32
	d.NumConfigurations = 1
}

// Bytes converts the descriptor to wire format.
func (d *DeviceQualifierDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.DescriptorType)
	binary.Write(buf, binary.LittleEndian, d.BcdUSB)
	binary.Write(buf, binary.LittleEndian, d.DeviceClass)
	binary.Write(buf, binary.LittleEndian, d.DeviceSubClass)
	binary.Write(buf, binary.LittleEndian, d.DeviceProtocol)
	binary.Write(buf, binary.LittleEndian, d.MaxPacketSize)
	binary.Write(buf, binary.LittleEndian, d.NumConfigurations)
	binary.Write(buf, binary.LittleEndian, d.Reserved)
	return buf.Bytes()
}

// SetupFunction handles a vendor- or class-specific SETUP request before
// the standard request switch runs. It is invoked by the board's USB
// controller driver (board/freejtag) the way soc/imx6/usb's
// Device.Setup hook is invoked by its own handleSetup — generalized here
// from an AVR firmware's FreeJTAG_ControlRequest dispatch (which checks
// bmRequestType/wIndex before touching its own command tables). out
// carries the OUT-direction data stage, already collected by the board's
// controller driver before the hook runs (EXECUTE's SHIFT_OUT/SHIFT_OUTIN
// sub-commands and BULKBYTE OUT need it); it is nil for IN-only or
// data-less requests.
type SetupFunction func(setup *SetupData, out []byte) (in []byte, ack bool, done bool, err error)

// Device is a collection of USB descriptors and host-driven settings
// describing a FreeJTAG probe.
type Device struct {
	Descriptor     *DeviceDescriptor
	Qualifier      *DeviceQualifierDescriptor
	Configurations []*ConfigurationDescriptor
	Strings        [][]byte

	ConfigurationValue uint8
	AlternateSetting   uint8

	// Setup is FreeJTAG's vendor-request hook (protocol/varianta wires
	// its ExecuteHandler here).
	Setup SetupFunction

	// SerialIndex and DynamicSerial implement the one descriptor not
	// served from the static Strings table: FreeJTAG's serial number is
	// derived from the SoC's unique ID at request time, the way
	// original_source/src/descriptors.c's CALLBACK_USB_GetDescriptor
	// special-cases USE_INTERNAL_SERIAL instead of a fixed string.
	SerialIndex   uint8
	DynamicSerial func() string
}

func (d *Device) setStringDescriptor(s []byte, zero bool) (uint8, error) {
	var buf []byte

	desc := &StringDescriptor{}
	desc.SetDefaults()
	desc.Length += uint8(len(s))

	if desc.Length > 255 {
		return 0, fmt.Errorf("string descriptor size (%d) cannot exceed 255", desc.Length)
	}

	buf = append(buf, desc.Bytes()...)
	buf = append(buf, s...)

	if zero && len(d.Strings) >= 1 {
		d.Strings[0] = buf
	} else {
		d.Strings = append(d.Strings, buf)
	}

	return uint8(len(d.Strings) - 1), nil
}

// SetLanguageCodes configures String Descriptor Zero's supported languages.
func (d *Device) SetLanguageCodes(codes []uint16) (err error) {
	var buf []byte

	if len(codes) > 1 {
		return errors.New("only a single language is currently supported")
	}

	for _, code := range codes {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, code)
		buf = append(buf, b...)
	}

	_, err = d.setStringDescriptor(buf, true)
	return
}

// AddString adds a UTF-16LE string descriptor, returning the index to use
// in other descriptors' string-reference fields.
func (d *Device) AddString(s string) (uint8, error) {
	var buf []byte

	r := []rune(s)
	u := utf16.Encode(r)

	for _, v := range u {
		buf = append(buf, byte(v&0xff), byte(v>>8))
	}

	return d.setStringDescriptor(buf, false)
}

// AddConfiguration appends a configuration descriptor, updating the device
// descriptor's configuration count.
func (d *Device) AddConfiguration(conf *ConfigurationDescriptor) error {
	d.Configurations = append(d.Configurations, conf)

	if d.Descriptor == nil {
		return errors.New("invalid device descriptor")
	}

	d.Descriptor.NumConfigurations = uint8(len(d.Configurations))
	return nil
}

// Configuration serializes the configuration descriptor hierarchy at
// wIndex into the buffer GET_DESCRIPTOR(CONFIGURATION) expects.
func (d *Device) Configuration(wIndex uint16) ([]byte, error) {
	if int(wIndex+1) > len(d.Configurations) {
		return nil, errors.New("invalid configuration index")
	}

	conf := d.Configurations[int(wIndex)]
	buf := append([]byte{}, conf.Bytes()...)

	for _, iface := range conf.Interfaces {
		buf = append(buf, iface.Bytes()...)
	}

	return buf, nil
}

// StringBytes returns the wire bytes for string descriptor index,
// transparently substituting the dynamic serial number string when index
// matches SerialIndex and DynamicSerial is set.
func (d *Device) StringBytes(index uint8) ([]byte, error) {
	if d.DynamicSerial != nil && index == d.SerialIndex && index != 0 {
		var buf []byte
		for _, r := range d.DynamicSerial() {
			u := utf16.Encode([]rune{r})
			for _, v := range u {
				buf = append(buf, byte(v&0xff), byte(v>>8))
			}
		}

		desc := &StringDescriptor{}
		desc.SetDefaults()
		desc.Length += uint8(len(buf))

		return append(desc.Bytes(), buf...), nil
	}

	if int(index+1) > len(d.Strings) {
		return nil, fmt.Errorf("invalid string descriptor index %d", index)
	}

	return d.Strings[index], nil
}
