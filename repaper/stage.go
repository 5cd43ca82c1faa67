// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import (
	"fmt"
	"time"
)

// runStage drives the sliding-window line schedule shared by stage 1
// (inverse fill) and stage 3 (normal fill): repeat passes over the
// panel, each pass stepping a block-sized window across lines
// [step-block, L+step), sending a dummy line for any window position
// outside [0, L], a blanking line for the first line of the window on
// the final repeat, and the real line (from rowData or fixed) for
// everything else.
//
// The upper-bound test is "pos > L", not "pos >= L": a window position
// exactly equal to L is treated as in-range and reaches the real-line
// branch even though L itself is one past the last valid row index.
// This is preserved from the reference algorithm rather than
// corrected; see DESIGN.md. rowData is expected to return nil for any
// out-of-bounds pos, which this function falls back to fixed for.
func runStage(e lineEmitter, L, repeat, step, block int, rowData func(pos int) []byte, fixed byte, stage stageKind) error {
	for r := 0; r < repeat; r++ {
		final := r == repeat-1
		for line := step - block; line < L+step; line += step {
			for offset := 0; offset < block; offset++ {
				pos := line + offset
				var spec lineSpec
				switch {
				case pos < 0 || pos > L:
					spec = lineSpec{line: dummyLine, stage: stageNormal}
				case offset == 0 && final:
					spec = lineSpec{line: pos, stage: stageNormal}
				case rowData != nil:
					if row := rowData(pos); row != nil {
						spec = lineSpec{line: pos, data: row, stage: stage}
					} else {
						spec = lineSpec{line: pos, fixed: fixed, stage: stage}
					}
				default:
					spec = lineSpec{line: pos, fixed: fixed, stage: stage}
				}
				if err := e.emitLine(spec); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// frameFixed13 runs stage 1 or stage 3 with a constant fill byte, used
// by Clear.
func (d *Dev) frameFixed13(repeat, step, block int, fixed byte, stage stageKind) error {
	return runStage(d, d.geo.lines, repeat, step, block, nil, fixed, stage)
}

// frameData13 runs stage 1 or stage 3 against a source bitmap, used by
// Image. data is row-major, bytesPerLine bytes per row.
func (d *Dev) frameData13(repeat, step, block int, data []byte, stage stageKind) error {
	bpl := d.geo.bytesPerLine
	L := d.geo.lines
	rowData := func(pos int) []byte {
		if pos < 0 || pos >= L {
			return nil
		}
		return data[pos*bpl : pos*bpl+bpl]
	}
	return runStage(d, L, repeat, step, block, rowData, 0, stage)
}

// frameFixedTimed runs stage 2 (flicker): repeatedly push a full pass
// over every line filled with fixed, until the armed timer reports
// expired. See deadlineTimer.expired for the boundary test this
// preserves verbatim from the reference algorithm.
func (d *Dev) frameFixedTimed(t time.Duration, fixed byte) error {
	d.armTimer(t)
	for {
		for line := 0; line < d.geo.lines; line++ {
			if err := d.emitLine(lineSpec{line: line, fixed: fixed, stage: stageNormal}); err != nil {
				return err
			}
		}
		if d.timerExpired() {
			return nil
		}
	}
}

// update runs the full three-stage erase-and-write sequence using the
// compensation record currently selected by SetTemperature. When
// fixed1/fixed3 are used (Clear), data1/data3 are ignored and vice
// versa (Image).
func (d *Dev) update(data1, data3 []byte, fixed1, fixed3 byte, useFixed bool) error {
	if d.status != StatusOK {
		return fmt.Errorf("repaper: update: panel status is %s, not OK", d.status)
	}
	c := d.comp

	if useFixed {
		if err := d.frameFixed13(c.s1Repeat, c.s1Step, c.s1Block, fixed1, stageInverse); err != nil {
			return err
		}
	} else {
		if err := d.frameData13(c.s1Repeat, c.s1Step, c.s1Block, data1, stageInverse); err != nil {
			return err
		}
	}

	for i := 0; i < c.s2Repeat; i++ {
		if err := d.frameFixedTimed(c.s2T1, 0xff); err != nil {
			return err
		}
		if err := d.frameFixedTimed(c.s2T2, 0xaa); err != nil {
			return err
		}
	}

	if useFixed {
		if err := d.frameFixed13(c.s3Repeat, c.s3Step, c.s3Block, fixed3, stageNormal); err != nil {
			return err
		}
	} else {
		if err := d.frameData13(c.s3Repeat, c.s3Step, c.s3Block, data3, stageNormal); err != nil {
			return err
		}
	}
	return nil
}

// Clear drives a blank (all-white) image onto the panel using the
// fixed-fill stage 1/stage 3 variants.
func (d *Dev) Clear() error {
	return d.update(nil, nil, 0xff, 0xaa, true)
}

// Image drives bitmap onto the panel. bitmap must be exactly
// lines*bytesPerLine bytes, row-major, matching the panel's geometry.
func (d *Dev) Image(bitmap []byte) error {
	want := d.geo.lines * d.geo.bytesPerLine
	if len(bitmap) != want {
		return fmt.Errorf("repaper: image: buffer is %d bytes, want %d", len(bitmap), want)
	}
	return d.update(bitmap, bitmap, 0, 0, false)
}
