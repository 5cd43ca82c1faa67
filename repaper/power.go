// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Register addresses from the COG-gen-2 command map this core drives.
const (
	regChannelSelect = 0x01
	regDCDC          = 0x02
	regLatch         = 0x03
	regDischarge     = 0x04
	regChargePump    = 0x05
	regOscillator    = 0x07
	regPowerSetting  = 0x08
	regVcomLevel     = 0x09
	regLineData      = 0x0a
	regPowerSaving   = 0x0b
	regBreakageDC    = 0x0f
	regCOGID         = 0x71
)

// waitBusyLow polls the busy pin at 10us intervals until it reads low.
func (d *Dev) waitBusyLow() error {
	for {
		level := d.busy.Read()
		if level == gpio.Low {
			return nil
		}
		d.sleep(10 * time.Microsecond)
	}
}

// Begin powers up the panel and brings up the COG controller:
// reset/panel-on/discharge/border sequencing with
// documented edge timing, a COG ID probe, a breakage check, the fixed
// register programming sequence, and up to four charge-pump bring-up
// attempts. On any protocol-level failure it sets Status and runs
// powerOff before returning.
func (d *Dev) Begin() error {
	eh := &errorHandler{d: d}

	eh.out(d.reset, gpio.Low)
	eh.out(d.panelOn, gpio.Low)
	eh.out(d.discharge, gpio.Low)
	eh.out(d.border, gpio.Low)
	eh.busOn()
	d.sleep(5 * time.Millisecond)

	eh.out(d.panelOn, gpio.High)
	d.sleep(10 * time.Millisecond)

	eh.out(d.reset, gpio.High)
	eh.out(d.border, gpio.High)
	d.sleep(5 * time.Millisecond)
	eh.out(d.reset, gpio.Low)
	d.sleep(5 * time.Millisecond)
	eh.out(d.reset, gpio.High)
	d.sleep(5 * time.Millisecond)

	if eh.err != nil {
		return fmt.Errorf("repaper: begin: %w", eh.err)
	}

	if err := d.waitBusyLow(); err != nil {
		return fmt.Errorf("repaper: begin: %w", err)
	}

	if _, err := d.readReg(regCOGID, 0x00); err != nil {
		return fmt.Errorf("repaper: begin: cog id: %w", err)
	}
	id, err := d.readReg(regCOGID, 0x00)
	if err != nil {
		return fmt.Errorf("repaper: begin: cog id: %w", err)
	}
	if id&0x0f != 0x02 {
		d.status = StatusUnsupportedCOG
		return d.powerOff()
	}

	if err := d.writeReg(regDCDC, 0x40); err != nil {
		return fmt.Errorf("repaper: begin: %w", err)
	}

	breakage, err := d.readReg(regBreakageDC, 0x00)
	if err != nil {
		return fmt.Errorf("repaper: begin: breakage: %w", err)
	}
	if breakage&0x80 == 0 {
		d.status = StatusPanelBroken
		return d.powerOff()
	}

	eh.writeReg(regPowerSaving, 0x02)
	eh.writeReg(regChannelSelect, d.geo.channelSelect[:]...)
	eh.writeReg(regOscillator, 0xd1)
	eh.writeReg(regPowerSetting, 0x02)
	eh.writeReg(regVcomLevel, 0xc2)
	eh.writeReg(regDischarge, 0x03)
	eh.writeReg(regLatch, 0x01)
	eh.writeReg(regLatch, 0x00)
	if eh.err != nil {
		return fmt.Errorf("repaper: begin: %w", eh.err)
	}

	d.sleep(5 * time.Millisecond)

	dcOK := false
	for attempt := 0; attempt < 4; attempt++ {
		if err := d.writeReg(regChargePump, 0x01); err != nil {
			return fmt.Errorf("repaper: begin: %w", err)
		}
		d.sleep(240 * time.Millisecond)
		if err := d.writeReg(regChargePump, 0x03); err != nil {
			return fmt.Errorf("repaper: begin: %w", err)
		}
		d.sleep(40 * time.Millisecond)
		if err := d.writeReg(regChargePump, 0x0f); err != nil {
			return fmt.Errorf("repaper: begin: %w", err)
		}
		d.sleep(40 * time.Millisecond)

		dc, err := d.readReg(regBreakageDC, 0x00)
		if err != nil {
			return fmt.Errorf("repaper: begin: dc state: %w", err)
		}
		if dc&0x40 != 0 {
			dcOK = true
			break
		}
	}
	if !dcOK {
		d.status = StatusDCFailed
		return d.powerOff()
	}

	if err := d.writeReg(regDCDC, 0x40); err != nil {
		return fmt.Errorf("repaper: begin: %w", err)
	}
	return d.busOff()
}

// End runs the panel's shutdown waveform: the
// 2.7in panel pulses border low for 250ms, smaller panels instead ship
// three dummy lines at decreasing border values with documented
// sleeps between them. It then re-probes the DC state (latching
// StatusDCFailed on failure, but continuing regardless: shutdown
// always runs to completion), programs the power-down register
// sequence, and finishes with powerOff.
func (d *Dev) End() error {
	if d.size == Size270 {
		d.sleep(25 * time.Millisecond)
		if err := d.border.Out(gpio.Low); err != nil {
			return fmt.Errorf("repaper: end: %w", err)
		}
		d.sleep(250 * time.Millisecond)
		if err := d.border.Out(gpio.High); err != nil {
			return fmt.Errorf("repaper: end: %w", err)
		}
	} else {
		if err := d.oneLine(lineSpec{line: dummyLine, border: 0xff, stage: stageNormal}); err != nil {
			return fmt.Errorf("repaper: end: %w", err)
		}
		d.sleep(40 * time.Millisecond)
		if err := d.oneLine(lineSpec{line: dummyLine, border: 0xaa, stage: stageNormal}); err != nil {
			return fmt.Errorf("repaper: end: %w", err)
		}
		d.sleep(200 * time.Millisecond)
		if err := d.oneLine(lineSpec{line: dummyLine, border: 0x00, stage: stageNormal}); err != nil {
			return fmt.Errorf("repaper: end: %w", err)
		}
		d.sleep(25 * time.Millisecond)
	}

	if err := d.busOn(); err != nil {
		return fmt.Errorf("repaper: end: %w", err)
	}

	dc, err := d.readReg(regBreakageDC, 0x00)
	if err != nil {
		return fmt.Errorf("repaper: end: dc state: %w", err)
	}
	if dc&0x40 == 0 {
		d.status = StatusDCFailed
	}

	eh := &errorHandler{d: d}
	eh.writeReg(regLatch, 0x01)
	eh.writeReg(regDCDC, 0x05)
	eh.writeReg(regChargePump, 0x0e)
	eh.writeReg(regChargePump, 0x02)
	eh.writeReg(regChargePump, 0x00)
	eh.writeReg(regOscillator, 0x0d)
	eh.writeReg(regDischarge, 0x83)
	if eh.err != nil {
		return fmt.Errorf("repaper: end: %w", eh.err)
	}

	d.sleep(120 * time.Millisecond)

	if err := d.writeReg(regDischarge, 0x00); err != nil {
		return fmt.Errorf("repaper: end: %w", err)
	}

	return d.powerOff()
}

// powerOff drives reset, panel-on, and border low, releases the bus,
// then pulses discharge high/low ten times with 10ms between edges.
// It is called both on a clean End and on any
// protocol failure detected during Begin.
func (d *Dev) powerOff() error {
	eh := &errorHandler{d: d}
	eh.out(d.reset, gpio.Low)
	eh.out(d.panelOn, gpio.Low)
	eh.out(d.border, gpio.Low)
	eh.busOff()

	for i := 0; i < 10; i++ {
		eh.out(d.discharge, gpio.High)
		d.sleep(10 * time.Millisecond)
		eh.out(d.discharge, gpio.Low)
		d.sleep(10 * time.Millisecond)
	}

	if eh.err != nil {
		return fmt.Errorf("repaper: power off: %w", eh.err)
	}
	return nil
}
