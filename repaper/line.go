// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import "time"

// stageKind selects which per-pixel byte transform a line is encoded
// with: the update algorithm's inverse-fill stage and
// normal-fill stage encode the same source byte differently.
type stageKind int

const (
	stageInverse stageKind = iota
	stageNormal
)

// dummyLine is the sentinel line number emitted for fill-only frames
// that carry no scan-selector bit: end-of-frame padding and the
// out-of-range positions visited by the sliding window in stage.go.
const dummyLine = 0x7fff

// lineSpec describes one line to encode and transmit. A line of
// dummyLine describes a dummy line; a non-nil data is the source
// bitmap row for line; otherwise fixed is the constant byte to fill the
// line with.
type lineSpec struct {
	line   int
	data   []byte
	fixed  byte
	stage  stageKind
	border byte
}

// lineEmitter is the seam the stage-driver scheduling in stage.go calls
// into. *Dev implements it against real hardware; tests implement it
// against a recording fake so the scheduling logic (repeat/step/block
// counts, the dummy-line boundary, the final-repeat blanking line) can
// be verified without a live SPI transport.
type lineEmitter interface {
	emitLine(spec lineSpec) error
}

// oddByte transforms a source byte into the odd-pixel-region encoding
// for stage: mask to the low half of each pixel pair, then for the
// inverse stage flip that mask, and always OR in the 0xaa high-half
// fill pattern.
func oddByte(b byte, stage stageKind) byte {
	m := b & 0x55
	if stage == stageInverse {
		m ^= 0x55
	}
	return 0xaa | m
}

// evenByte transforms a source byte into the even-pixel-region
// encoding: mask to the high half of each pixel pair, shift down, flip
// for the inverse stage, OR in 0xaa, then reverse the byte's four
// 2-bit pixel pairs.
func evenByte(b byte, stage stageKind) byte {
	m := b & 0xaa
	if stage == stageInverse {
		m ^= 0xaa
	}
	return bitPairReverse(0xaa | (m >> 1))
}

// bitPairReverse reverses the order of a byte's four 2-bit pixel
// pairs: bits [7:6][5:4][3:2][1:0] become [1:0][3:2][5:4][7:6].
func bitPairReverse(b byte) byte {
	p1 := (b >> 6) & 0x3
	p2 := (b >> 4) & 0x3
	p3 := (b >> 2) & 0x3
	p4 := b & 0x3
	return p1 | p2<<2 | p3<<4 | p4<<6
}

// buildLine encodes spec into d's owned line buffer and returns the
// slice to transmit: []byte{0x72, border, odd pixels (reverse byte
// order), scan selector, even pixels (forward byte order)}.
func (d *Dev) buildLine(spec lineSpec) []byte {
	geo := d.geo
	buf := d.lineBuf
	buf[0] = 0x72
	buf[1] = spec.border

	oddOff := 2
	for i := 0; i < geo.bytesPerLine; i++ {
		var b byte
		if spec.data != nil {
			src := spec.data[geo.bytesPerLine-1-i]
			b = oddByte(src, spec.stage)
		} else {
			b = spec.fixed
		}
		buf[oddOff+i] = b
	}

	scanOff := oddOff + geo.bytesPerLine
	for i := 0; i < geo.bytesPerScan; i++ {
		buf[scanOff+i] = 0
	}
	// The selector formula applies to every non-sentinel line: for the
	// 0x7fff dummy sentinel it lands far below the scan region and no
	// byte is set. A line exactly equal to the line count, reachable
	// through the stage driver's upper-bound test, lands on byte 0
	// under truncating division.
	scanPos := (geo.lines - spec.line - 1) / 4
	if scanPos >= 0 && scanPos < geo.bytesPerScan {
		buf[scanOff+scanPos] = 0x3 << uint(2*(spec.line%4))
	}

	evenOff := scanOff + geo.bytesPerScan
	for i := 0; i < geo.bytesPerLine; i++ {
		var b byte
		if spec.data != nil {
			b = evenByte(spec.data[i], spec.stage)
		} else {
			b = spec.fixed
		}
		buf[evenOff+i] = b
	}

	return buf[:1+geo.frameLen()]
}

// oneLine builds and transmits one SPI frame for spec:
// open the bus, select the line-data register, wait for it to settle,
// ship the frame, trigger the per-line output-enable pulse, and close
// the bus.
func (d *Dev) oneLine(spec lineSpec) error {
	frame := d.buildLine(spec)

	if err := d.busOn(); err != nil {
		return err
	}
	if err := d.writeReg(regLineData); err != nil {
		return err
	}
	d.sleep(10 * time.Microsecond)
	if err := d.bus.Send(frame); err != nil {
		return err
	}
	if err := d.writeReg(regDCDC, 0x2f); err != nil {
		return err
	}
	return d.busOff()
}
