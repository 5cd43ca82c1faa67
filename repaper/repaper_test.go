// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// busCall is one recorded call against a fakeBus.
type busCall struct {
	kind string // "on", "off", "send", or "read"
	data []byte
}

// fakeBus is a Bus that records every call and plays back scripted
// register-read responses, mirroring the fakeController pattern this
// driver family's controller_test.go uses to verify a protocol
// sequence without a live transport.
type fakeBus struct {
	calls []busCall
	reads [][]byte
}

func (b *fakeBus) On() error {
	b.calls = append(b.calls, busCall{kind: "on"})
	return nil
}

func (b *fakeBus) Off() error {
	b.calls = append(b.calls, busCall{kind: "off"})
	return nil
}

func (b *fakeBus) Send(data []byte) error {
	b.calls = append(b.calls, busCall{kind: "send", data: append([]byte(nil), data...)})
	return nil
}

func (b *fakeBus) Read(prefix, buf []byte) error {
	b.calls = append(b.calls, busCall{kind: "read", data: append([]byte(nil), prefix...)})
	if len(b.reads) == 0 {
		return nil
	}
	resp := b.reads[0]
	b.reads = b.reads[1:]
	copy(buf, resp)
	return nil
}

// countingPin wraps a gpiotest.Pin and records every level passed to
// Out, for tests that assert on a pulse train rather than just the
// final level.
type countingPin struct {
	*gpiotest.Pin
	outs []gpio.Level
}

func (p *countingPin) Out(l gpio.Level) error {
	p.outs = append(p.outs, l)
	return p.Pin.Out(l)
}

// newTestDev builds a Dev wired to a fakeBus and gpiotest pins,
// bypassing New (which needs a real spi.Port) since every test in this
// package exercises the protocol logic above the transport.
func newTestDev(size PanelSize) (*Dev, *fakeBus) {
	geo := geometryFor(size)
	bus := &fakeBus{}
	d := &Dev{
		size:      size,
		geo:       geo,
		comp:      compensationFor(size, bandNormal),
		band:      bandNormal,
		bus:       bus,
		panelOn:   &gpiotest.Pin{N: "panelOn"},
		border:    &gpiotest.Pin{N: "border"},
		discharge: &gpiotest.Pin{N: "discharge"},
		reset:     &gpiotest.Pin{N: "reset"},
		busy:      &gpiotest.Pin{N: "busy", L: gpio.Low},
		lineBuf:   make([]byte, geo.lineBufSize()),
		status:    StatusOK,
	}
	return d, bus
}

func TestSetTemperatureSelectsBand(t *testing.T) {
	d, _ := newTestDev(Size200)
	d.SetTemperature(5)
	if d.band != bandCold {
		t.Errorf("band = %v, want bandCold", d.band)
	}
	if d.comp != compensationFor(Size200, bandCold) {
		t.Errorf("comp not updated for cold band")
	}

	d.SetTemperature(55)
	if d.band != bandHot {
		t.Errorf("band = %v, want bandHot", d.band)
	}
}

func TestStatusStartsOK(t *testing.T) {
	d, _ := newTestDev(Size144)
	if d.Status() != StatusOK {
		t.Errorf("Status() = %v, want StatusOK", d.Status())
	}
}

func TestStringIncludesSizeAndStatus(t *testing.T) {
	d, _ := newTestDev(Size270)
	d.status = StatusPanelBroken
	got := d.String()
	want := "repaper.Dev{2.7in, status=PanelBroken}"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDeadlineTimerExpiredBoundary(t *testing.T) {
	var timer deadlineTimer
	timer.arm(0)
	if !timer.expired() {
		t.Errorf("expired() = false immediately after arming a zero duration")
	}

	timer.arm(2 * time.Second)
	if timer.expired() {
		t.Errorf("expired() = true right after arming 2s")
	}
}
