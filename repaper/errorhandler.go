// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import "periph.io/x/conn/v3/gpio"

// errorHandler accumulates the first error encountered across a chain
// of GPIO and bus calls, short-circuiting every call after it. This
// mirrors the pattern used throughout this driver family for power
// sequencing, where a dozen pin writes happen back to back and
// checking each one individually would drown the sequence in `if err
// != nil` noise.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) out(pin gpio.PinOut, level gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = pin.Out(level)
}

func (eh *errorHandler) busOn() {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.busOn()
}

func (eh *errorHandler) busOff() {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.busOff()
}

func (eh *errorHandler) writeReg(reg byte, values ...byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.writeReg(reg, values...)
}
