// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package usbdev

import (
	"bytes"
	"encoding/binary"
)

// CDC class-specific descriptor constants (p44-51, USB Class Definitions
// for Communication Devices 1.1). The Ethernet Networking descriptor the
// teacher's descriptor_cdc.go also carries is dropped — FreeJTAG's CDC
// pair is a plain ACM serial passthrough, not a network gadget.
const (
	CSInterface = 0x24

	HeaderDescriptorLength = 5
	ACMDescriptorLength    = 4
	UnionDescriptorLength  = 5
	CallMgmtDescriptorLength = 5

	SubtypeHeader     = 0
	SubtypeCallMgmt   = 1
	SubtypeACM        = 2
	SubtypeUnion      = 6
)

// CDCHeaderDescriptor implements p45, Table 26, USB CDC 1.1.
type CDCHeaderDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	DescriptorSubType uint8
	BcdCDC            uint16
}

// SetDefaults initializes the CDC Header Functional Descriptor (CDC 1.10).
func (d *CDCHeaderDescriptor) SetDefaults() {
	d.Length = HeaderDescriptorLength
	d.DescriptorType = CSInterface
	d.DescriptorSubType = SubtypeHeader
	d.BcdCDC = 0x0110
}

// Bytes converts the descriptor to wire format.
func (d *CDCHeaderDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// CDCCallManagementDescriptor implements p47, Table 27, USB CDC 1.1 — it
// advertises whether the device handles call management itself.
// Grounded on original_source/src/descriptors.c's CDC_Functional_CallManagement.
type CDCCallManagementDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	DescriptorSubType uint8
	Capabilities      uint8
	DataInterface     uint8
}

// SetDefaults initializes the Call Management Functional Descriptor: no
// call management, handled entirely over the data interface.
func (d *CDCCallManagementDescriptor) SetDefaults() {
	d.Length = CallMgmtDescriptorLength
	d.DescriptorType = CSInterface
	d.DescriptorSubType = SubtypeCallMgmt
}

// Bytes converts the descriptor to wire format.
func (d *CDCCallManagementDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// CDCACMDescriptor implements p48, Table 28, USB CDC 1.1 — the Abstract
// Control Model functional descriptor. Grounded on
// original_source/src/descriptors.c's CDC_Functional_ACM.
type CDCACMDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	DescriptorSubType uint8
	Capabilities      uint8
}

// SetDefaults initializes the ACM Functional Descriptor: supports Set/Get
// Line Coding and Serial State notifications (capability bit 1).
func (d *CDCACMDescriptor) SetDefaults() {
	d.Length = ACMDescriptorLength
	d.DescriptorType = CSInterface
	d.DescriptorSubType = SubtypeACM
	d.Capabilities = 0x02
}

// Bytes converts the descriptor to wire format.
func (d *CDCACMDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// CDCUnionDescriptor implements p51, Table 33, USB CDC 1.1.
type CDCUnionDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	DescriptorSubType uint8
	MasterInterface   uint8
	SlaveInterface0   uint8
}

// SetDefaults initializes the Union Functional Descriptor.
func (d *CDCUnionDescriptor) SetDefaults() {
	d.Length = UnionDescriptorLength
	d.DescriptorType = CSInterface
	d.DescriptorSubType = SubtypeUnion
}

// Bytes converts the descriptor to wire format.
func (d *CDCUnionDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}
