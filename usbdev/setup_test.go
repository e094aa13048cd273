// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package usbdev

import "testing"

type fakeResponder struct {
	txData   []byte
	acked    bool
	stalledIn bool
}

func (r *fakeResponder) Tx(data []byte) error {
	r.txData = data
	return nil
}

func (r *fakeResponder) Ack() error {
	r.acked = true
	return nil
}

func (r *fakeResponder) Stall(in bool) error {
	r.stalledIn = in
	return nil
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()

	dev := &Device{Descriptor: &DeviceDescriptor{}, Qualifier: &DeviceQualifierDescriptor{}}
	dev.Descriptor.SetDefaults()
	dev.Qualifier.SetDefaults()
	dev.SetLanguageCodes([]uint16{0x0409})
	dev.AddString("FreeJTAG")

	return dev
}

func TestHandleSetupGetDescriptorDevice(t *testing.T) {
	dev := newTestDevice(t)
	r := &fakeResponder{}

	setup := &SetupData{Request: ReqGetDescriptor, Value: uint16(DescDevice), Length: DeviceDescriptorLength}
	if _, err := dev.HandleSetup(r, setup, nil); err != nil {
		t.Fatalf("HandleSetup: %v", err)
	}

	if len(r.txData) != DeviceDescriptorLength {
		t.Fatalf("txData len = %d, want %d", len(r.txData), DeviceDescriptorLength)
	}
}

func TestHandleSetupVendorHookTakesPriority(t *testing.T) {
	dev := newTestDevice(t)
	called := false

	dev.Setup = func(setup *SetupData, out []byte) ([]byte, bool, bool, error) {
		called = true
		return []byte{0x01, 0x02}, false, true, nil
	}

	r := &fakeResponder{}
	setup := &SetupData{Request: ReqGetStatus}

	if _, err := dev.HandleSetup(r, setup, nil); err != nil {
		t.Fatalf("HandleSetup: %v", err)
	}
	if !called {
		t.Fatal("vendor Setup hook was not invoked")
	}
	if len(r.txData) != 2 || r.txData[0] != 0x01 {
		t.Fatalf("txData = %v, want vendor hook's reply", r.txData)
	}
}

func TestHandleSetupUnsupportedRequestStalls(t *testing.T) {
	dev := newTestDevice(t)
	r := &fakeResponder{}

	setup := &SetupData{Request: 0xEE}
	if _, err := dev.HandleSetup(r, setup, nil); err == nil {
		t.Fatal("expected error for unsupported request")
	}
	if !r.stalledIn {
		t.Fatal("expected Stall(true) for unsupported request")
	}
}

func TestHandleSetupSetConfiguration(t *testing.T) {
	dev := newTestDevice(t)
	r := &fakeResponder{}

	setup := &SetupData{Request: ReqSetConfiguration, Value: 1 << 8}
	conf, err := dev.HandleSetup(r, setup, nil)
	if err != nil {
		t.Fatalf("HandleSetup: %v", err)
	}
	if conf != 1 || dev.ConfigurationValue != 1 {
		t.Fatalf("ConfigurationValue = %d, conf = %d, want 1", dev.ConfigurationValue, conf)
	}
	if !r.acked {
		t.Fatal("expected Ack()")
	}
}

func TestSwapSetup(t *testing.T) {
	// Value 0x0001 stored big-endian in a little-endian word reads back
	// as 0x0100 before swapping.
	s := &SetupData{Value: 0x0100}
	SwapSetup(s)
	if s.Value != 0x0001 {
		t.Fatalf("Value after swap = %#x, want 0x0001", s.Value)
	}
}
