// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Dev implements display.Drawer so callers can render a standard Go
// image.Image onto the panel instead of hand-packing the raw
// row-major bitmap Image expects. Partial updates are not supported;
// Draw always rasterizes into a full-panel 1-bit buffer and ships it
// through Image.
var _ display.Drawer = (*Dev)(nil)

// Halt implements conn.Resource (embedded in display.Drawer) by
// clearing the display.
func (d *Dev) Halt() error {
	return d.Clear()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.geo.dots, d.geo.lines)
}

// Draw implements display.Drawer: it rasterizes src into a 1-bit,
// vertical-LSB-packed buffer sized to the panel, repacks that buffer
// into the row-major, MSB-first layout Image expects, and drives it
// onto the panel.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	bounds := d.Bounds()
	next := image1bit.NewVerticalLSB(bounds)
	draw.Src.Draw(next, r, src, sp)

	bpl := d.geo.bytesPerLine
	buf := make([]byte, d.geo.lines*bpl)
	for y := 0; y < d.geo.lines; y++ {
		row := buf[y*bpl : (y+1)*bpl]
		for x := 0; x < bpl; x++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				if next.BitAt(x*8+bit, y) {
					b |= 0x80 >> uint(bit)
				}
			}
			row[x] = b
		}
	}
	return d.Image(buf)
}
