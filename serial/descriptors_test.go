// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package serial

import (
	"testing"

	"github.com/jkent/freejtag/usbdev"
)

func TestBuildControlInterfaceHasFourClassDescriptors(t *testing.T) {
	dev := &usbdev.Device{Descriptor: &usbdev.DeviceDescriptor{}}
	dev.Descriptor.SetDefaults()
	dev.SetLanguageCodes([]uint16{0x0409})

	iface := BuildControlInterface(dev, 1)
	if len(iface.ClassDescriptors) != 4 {
		t.Fatalf("len(ClassDescriptors) = %d, want 4 (header, call-mgmt, acm, union)", len(iface.ClassDescriptors))
	}
	if len(iface.Endpoints) != 1 {
		t.Fatalf("len(Endpoints) = %d, want 1 (notification)", len(iface.Endpoints))
	}
}

func TestBuildDataInterfaceWiresBridgeFunctions(t *testing.T) {
	dev := &usbdev.Device{Descriptor: &usbdev.DeviceDescriptor{}}
	dev.Descriptor.SetDefaults()

	bridge := NewBridge(64)
	iface := BuildDataInterface(dev, bridge, 3, 3)

	if len(iface.Endpoints) != 2 {
		t.Fatalf("len(Endpoints) = %d, want 2", len(iface.Endpoints))
	}
	if iface.Endpoints[0].Function == nil || iface.Endpoints[1].Function == nil {
		t.Fatal("expected both endpoints to have a Function wired")
	}
}
