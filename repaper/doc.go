// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package repaper drives a Pervasive Displays COG-generation-2
// electrophoretic (e-paper) panel over SPI plus five discrete GPIO
// control lines (panel-on, border, discharge, reset, busy).
//
// The COG controller is driven with a half-duplex command/data
// protocol: every register write is a two-byte command frame
// ([]byte{0x70, REG}) followed by a data frame ([]byte{0x72, VALUE...}),
// and every register read is a command frame followed by a read of
// []byte{0x73, 0x00, ...} shifting in the response.
//
// Panel sizes supported by this core:
//
//	Size   lines dots bytes/line bytes/scan
//	1.44in    96  128         16         24
//	2.0in     96  200         25         24
//	2.7in    176  264         33         44
//
// Updating the display runs a three-stage erase-and-write sequence
// (inverse fill, flicker, normal fill) whose repeat counts and timing
// are looked up from a per-size, per-temperature-band compensation
// table. See https://www.pervasivedisplays.com for panel datasheets.
package repaper
