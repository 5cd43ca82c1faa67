// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

// PanelSize identifies a supported Pervasive Displays COG-gen-2 panel
// geometry.
type PanelSize int

const (
	// Size144 is the 1.44 inch panel (96 lines, 128 dots/line).
	Size144 PanelSize = iota
	// Size200 is the 2.0 inch panel (96 lines, 200 dots/line).
	Size200
	// Size270 is the 2.7 inch panel (176 lines, 264 dots/line).
	Size270
)

// String implements fmt.Stringer.
func (s PanelSize) String() string {
	switch s {
	case Size144:
		return "1.44in"
	case Size200:
		return "2.0in"
	case Size270:
		return "2.7in"
	default:
		return "unknown"
	}
}

// geometry describes the fixed per-size panel dimensions.
type geometry struct {
	lines         int // lines_per_display
	dots          int // dots_per_line
	bytesPerLine  int // dots_per_line / 8
	bytesPerScan  int // lines_per_display / 4
	channelSelect [9]byte
}

// lineBufSize is the size of the handle's owned line buffer:
// 2*bytesPerLine + bytesPerScan + 3 (command prefix byte, border byte,
// odd/even pixel regions, scan selector region, one filler byte).
func (g geometry) lineBufSize() int {
	return 2*g.bytesPerLine + g.bytesPerScan + 3
}

// frameLen is the length of one encoded line frame excluding the 0x72
// command prefix: 1 (border) + bytesPerLine (odd) + bytesPerScan (scan)
// + bytesPerLine (even).
func (g geometry) frameLen() int {
	return 2*g.bytesPerLine + g.bytesPerScan + 1
}

// geometries is the static table mapping panel size to geometry. The
// channel-select payloads follow the layout of the Pervasive Displays
// COG-gen-2 reference driver: a 9-byte bitmap of which source-driver
// channels are enabled for that panel's dot count.
var geometries = [...]geometry{
	Size144: {
		lines:         96,
		dots:          128,
		bytesPerLine:  16,
		bytesPerScan:  24,
		channelSelect: [9]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x0f, 0xff, 0x00, 0x00},
	},
	Size200: {
		lines:         96,
		dots:          200,
		bytesPerLine:  25,
		bytesPerScan:  24,
		channelSelect: [9]byte{0x00, 0x00, 0x00, 0x00, 0x01, 0xff, 0xe0, 0x00, 0x00},
	},
	Size270: {
		lines:         176,
		dots:          264,
		bytesPerLine:  33,
		bytesPerScan:  44,
		channelSelect: [9]byte{0x00, 0x00, 0x00, 0x7f, 0xff, 0xfe, 0x00, 0x00, 0x00},
	},
}

// geometryFor returns the geometry for size, defaulting to Size144 for
// any unrecognized tag.
func geometryFor(size PanelSize) geometry {
	if size < Size144 || size > Size270 {
		size = Size144
	}
	return geometries[size]
}
