// SPDX-License-Identifier: MIT
//
// FreeJTAG
// Copyright (C) 2026 Jeff Kent <jeff@jkent.net>

//go:build !linkramsize
// +build !linkramsize

package freejtag

import (
	"github.com/jkent/freejtag/soc/imx6"

	_ "unsafe"
)

// Applications can override ramSize with the `linkramsize` build tag,
// mirroring board/usbarmory/mk2's own mem.go.

// The USB armory Mk II carrier this firmware targets has a single 512MB
// DDR3 RAM module.

//go:linkname ramSize runtime.ramSize
var ramSize uint32 = 0x20000000 // 512 MB

// Init takes care of the lower level SoC initialization triggered early in
// runtime setup, the same hook board/usbarmory/mk2.Init binds to.
//
//go:linkname Init runtime.hwinit
func Init() {
	imx6.Init()
}
