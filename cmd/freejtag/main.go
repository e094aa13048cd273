// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

// Command freejtag is the probe firmware entrypoint: it brings up the
// target UART, the probe's GPIO pins, and the USB device exposing both
// command-protocol dialects, then runs forever. Modeled on
// example/usb_zero.go's StartUSBGadgetZero and example/example.go's
// init()/main() split between one-time hardware bring-up and the
// never-returning USB loop.
//
// +build tamago,arm

package main

import (
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/jkent/freejtag/board/freejtag"
	"github.com/jkent/freejtag/soc/nxp/imx6ul"
	"github.com/jkent/freejtag/soc/nxp/uart"
)

const verbose = true

// pinout wires the probe's TCK/TMS/TDI/TDO signals to GPIO1 IO12-IO15 on
// the carrier board's expansion header. Adjust for a different PCB.
var pinout = freejtag.Pinout{
	TCK: freejtag.PinConfig{Num: 12, Mux: 0x020e0050, Pad: 0x020e02dc, Ctl: 0x020e02dc},
	TMS: freejtag.PinConfig{Num: 13, Mux: 0x020e0054, Pad: 0x020e02e0, Ctl: 0x020e02e0},
	TDI: freejtag.PinConfig{Num: 14, Mux: 0x020e0058, Pad: 0x020e02e4, Ctl: 0x020e02e4},
	TDO: freejtag.PinConfig{Num: 15, Mux: 0x020e005c, Pad: 0x020e02e8, Ctl: 0x020e02e8},
}

var board *freejtag.Board

func init() {
	log.SetFlags(0)

	if verbose {
		log.SetOutput(os.Stdout)
	} else {
		log.SetOutput(ioutil.Discard)
	}

	targetUART := imx6ul.UART2
	targetUART.Init()
	targetUART.Enable()

	var err error
	board, err = freejtag.New(pinout, func(p []byte) { targetUART.Write(p) })
	if err != nil {
		log.Fatalf("freejtag: board init failed: %v", err)
	}

	go pollUART(targetUART, board)
	go board.Bridge.StartFlushTimer(time.Millisecond, nil)
}

// pollUART reads whatever the target has sent since the last poll and
// feeds it to the serial bridge's ring buffer, standing in for the
// original firmware's UART RX interrupt handler.
func pollUART(hw *uart.UART, b *freejtag.Board) {
	buf := make([]byte, 64)

	for {
		n, _ := hw.Read(buf)
		if n > 0 {
			b.Bridge.PushRX(buf[:n])
		}
	}
}

func main() {
	log.Printf("freejtag: probe ready, serial %s", freejtag.DynamicSerial())

	// never returns
	board.Start()
}
