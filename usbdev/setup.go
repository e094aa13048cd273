// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package usbdev

import (
	"encoding/binary"
	"fmt"
)

// Standard request codes (p279, Table 9-4, USB Specification Revision 2.0).
const (
	ReqGetStatus        = 0
	ReqClearFeature     = 1
	ReqSetFeature       = 3
	ReqSetAddress       = 5
	ReqGetDescriptor    = 6
	ReqSetDescriptor    = 7
	ReqGetConfiguration = 8
	ReqSetConfiguration = 9
	ReqGetInterface     = 10
	ReqSetInterface     = 11
	ReqSynchFrame       = 12
)

// SetupData implements p276, Table 9-2, USB Specification Revision 2.0.
type SetupData struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// Responder is the board-specific transport half of SETUP handling: it
// knows how to put bytes on EP0 IN, send a zero-length ACK, or stall.
// Generalizes the register-poking hw.tx/hw.ack/hw.stall helpers in the
// teacher's soc/nxp/usb so usbdev's request dispatch can be exercised
// without real silicon.
type Responder interface {
	Tx(data []byte) error
	Ack() error
	Stall(in bool) error
}

// trim caps buf at wLength, the way soc/nxp/usb/setup.go's trim() does —
// a device is always allowed to return less than the host's wLength asked
// for, never more.
func trim(buf []byte, wLength uint16) []byte {
	if int(wLength) < len(buf) {
		return buf[:wLength]
	}
	return buf
}

// HandleSetup dispatches one SETUP packet: first to Device.Setup (the
// vendor-request hook, if any, exactly as soc/nxp/usb/setup.go's
// handleSetup invokes hw.Device.Setup before its own standard-request
// switch), then to the standard USB request handlers if the hook declined.
// out is the OUT-direction data stage already read by the caller, if any.
func (d *Device) HandleSetup(r Responder, setup *SetupData, out []byte) (uint8, error) {
	if d.Setup != nil {
		in, ack, done, err := d.Setup(setup, out)

		if err != nil {
			r.Stall(true)
			return 0, err
		}

		if len(in) != 0 {
			err = r.Tx(in)
		} else if ack {
			err = r.Ack()
		}

		if done || err != nil {
			return 0, err
		}
	}

	switch setup.Request {
	case ReqGetStatus:
		return 0, r.Tx([]byte{0x00, 0x00})
	case ReqSetAddress:
		return 0, r.Ack()
	case ReqGetDescriptor:
		return 0, d.getDescriptor(r, setup)
	case ReqGetConfiguration:
		return 0, r.Tx([]byte{d.ConfigurationValue})
	case ReqSetConfiguration:
		conf := uint8(setup.Value >> 8)
		d.ConfigurationValue = conf
		return conf, r.Ack()
	case ReqGetInterface:
		return 0, r.Tx([]byte{d.AlternateSetting})
	case ReqSetInterface:
		d.AlternateSetting = uint8(setup.Value >> 8)
		return 0, r.Ack()
	default:
		r.Stall(true)
		return 0, fmt.Errorf("unsupported request code: %#x", setup.Request)
	}
}

func (d *Device) getDescriptor(r Responder, setup *SetupData) error {
	descType := setup.Value & 0xff
	index := uint8(setup.Value >> 8)

	switch descType {
	case DescDevice:
		return r.Tx(trim(d.Descriptor.Bytes(), setup.Length))
	case DescConfiguration, DescOtherSpeedConfiguration:
		conf, err := d.Configuration(setup.Index)
		if err != nil {
			r.Stall(true)
			return err
		}
		if descType == DescOtherSpeedConfiguration {
			conf[1] = byte(descType)
		}
		return r.Tx(trim(conf, setup.Length))
	case DescString:
		s, err := d.StringBytes(index)
		if err != nil {
			r.Stall(true)
			return err
		}
		return r.Tx(trim(s, setup.Length))
	case DescDeviceQualifier:
		return r.Tx(d.Qualifier.Bytes())
	default:
		r.Stall(true)
		return fmt.Errorf("unsupported descriptor type: %#x", descType)
	}
}

// SwapSetup corrects the endianness of SetupData fields as delivered by
// hardware that writes them big-endian into a little-endian-addressed
// word, mirroring soc/nxp/usb/setup.go's SetupData.swap. Board drivers
// call this immediately after reading raw SETUP bytes off the endpoint
// queue head.
func SwapSetup(s *SetupData) {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, s.Value)
	s.Value = binary.LittleEndian.Uint16(b)
}
