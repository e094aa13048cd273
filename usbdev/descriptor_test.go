// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package usbdev

import "testing"

func TestDeviceDescriptorDefaults(t *testing.T) {
	d := &DeviceDescriptor{}
	d.SetDefaults()

	b := d.Bytes()
	if len(b) != DeviceDescriptorLength {
		t.Fatalf("len(Bytes()) = %d, want %d", len(b), DeviceDescriptorLength)
	}
	if d.VendorId != VendorID || d.ProductId != ProductID {
		t.Fatalf("VendorId/ProductId = %#x/%#x, want %#x/%#x", d.VendorId, d.ProductId, VendorID, ProductID)
	}
}

func TestAddStringAndProductString(t *testing.T) {
	dev := &Device{Descriptor: &DeviceDescriptor{}}
	dev.Descriptor.SetDefaults()

	if err := dev.SetLanguageCodes([]uint16{0x0409}); err != nil {
		t.Fatalf("SetLanguageCodes: %v", err)
	}

	idx, err := dev.AddString(ProductString)
	if err != nil {
		t.Fatalf("AddString: %v", err)
	}
	dev.Descriptor.Product = idx

	b, err := dev.StringBytes(idx)
	if err != nil {
		t.Fatalf("StringBytes: %v", err)
	}

	// UTF-16LE content starts after the 2-byte descriptor header.
	wantLen := 2 + 2*len(ProductString)
	if len(b) != wantLen {
		t.Fatalf("len(StringBytes) = %d, want %d", len(b), wantLen)
	}
	if b[0] != byte(wantLen) {
		t.Fatalf("Length field = %d, want %d", b[0], wantLen)
	}
}

func TestDynamicSerialOverridesStaticTable(t *testing.T) {
	dev := &Device{Descriptor: &DeviceDescriptor{}}
	dev.Descriptor.SetDefaults()
	dev.SetLanguageCodes([]uint16{0x0409})

	idx, _ := dev.AddString("placeholder")
	dev.SerialIndex = idx
	dev.DynamicSerial = func() string { return "jkent.net:deadbeef" }

	b, err := dev.StringBytes(idx)
	if err != nil {
		t.Fatalf("StringBytes: %v", err)
	}

	wantLen := 2 + 2*len("jkent.net:deadbeef")
	if len(b) != wantLen {
		t.Fatalf("len(StringBytes) = %d, want %d (dynamic serial not substituted)", len(b), wantLen)
	}
}

func TestConfigurationUnknownIndex(t *testing.T) {
	dev := &Device{}
	if _, err := dev.Configuration(0); err == nil {
		t.Fatal("Configuration(0) on empty device should error")
	}
}

func TestCDCDescriptorLengths(t *testing.T) {
	h := &CDCHeaderDescriptor{}
	h.SetDefaults()
	if len(h.Bytes()) != HeaderDescriptorLength {
		t.Errorf("header len = %d, want %d", len(h.Bytes()), HeaderDescriptorLength)
	}

	a := &CDCACMDescriptor{}
	a.SetDefaults()
	if len(a.Bytes()) != ACMDescriptorLength {
		t.Errorf("ACM len = %d, want %d", len(a.Bytes()), ACMDescriptorLength)
	}

	u := &CDCUnionDescriptor{}
	u.SetDefaults()
	if len(u.Bytes()) != UnionDescriptorLength {
		t.Errorf("union len = %d, want %d", len(u.Bytes()), UnionDescriptorLength)
	}
}
