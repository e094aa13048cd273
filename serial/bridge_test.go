// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

package serial

import "testing"

func TestPushRXAndDrainRoundTrip(t *testing.T) {
	b := NewBridge(16)
	b.PushRX([]byte("hello"))

	if got := b.Buffered(); got != 5 {
		t.Fatalf("Buffered() = %d, want 5", got)
	}

	in, err := b.INFunction(nil, nil)
	if err != nil {
		t.Fatalf("INFunction: %v", err)
	}
	if string(in) != "hello" {
		t.Fatalf("in = %q, want %q", in, "hello")
	}
	if b.Buffered() != 0 {
		t.Fatalf("Buffered() after drain = %d, want 0", b.Buffered())
	}
}

func TestINFunctionEmptyReturnsNil(t *testing.T) {
	b := NewBridge(16)

	in, err := b.INFunction(nil, nil)
	if err != nil {
		t.Fatalf("INFunction: %v", err)
	}
	if in != nil {
		t.Fatalf("in = %v, want nil", in)
	}
}

func TestINFunctionCapsAtBulkPacketSize(t *testing.T) {
	b := NewBridge(BulkPacketSize * 2)

	data := make([]byte, BulkPacketSize+10)
	for i := range data {
		data[i] = byte(i)
	}
	b.PushRX(data)

	in, err := b.INFunction(nil, nil)
	if err != nil {
		t.Fatalf("INFunction: %v", err)
	}
	if len(in) != BulkPacketSize {
		t.Fatalf("len(in) = %d, want %d", len(in), BulkPacketSize)
	}
	if b.Buffered() != 10 {
		t.Fatalf("Buffered() after first drain = %d, want 10", b.Buffered())
	}
}

func TestPushRXOverflowDropsOldest(t *testing.T) {
	b := NewBridge(4)
	b.PushRX([]byte{1, 2, 3, 4})
	b.PushRX([]byte{5, 6})

	in, err := b.INFunction(nil, nil)
	if err != nil {
		t.Fatalf("INFunction: %v", err)
	}
	want := []byte{3, 4, 5, 6}
	if len(in) != len(want) {
		t.Fatalf("in = %v, want %v", in, want)
	}
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("in = %v, want %v", in, want)
		}
	}
}

func TestOUTFunctionForwardsToUART(t *testing.T) {
	var got []byte
	b := NewBridge(16)
	b.UARTWrite = func(p []byte) { got = append(got, p...) }

	if _, err := b.OUTFunction([]byte("cmd"), nil); err != nil {
		t.Fatalf("OUTFunction: %v", err)
	}
	if string(got) != "cmd" {
		t.Fatalf("UARTWrite got %q, want %q", got, "cmd")
	}
}

func TestOUTFunctionNilUARTWriteIsNoop(t *testing.T) {
	b := NewBridge(16)
	if _, err := b.OUTFunction([]byte("x"), nil); err != nil {
		t.Fatalf("OUTFunction: %v", err)
	}
}
