// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/rpi"
)

// Status is the sticky panel-protocol error latch. Unlike
// a returned error, Status persists across calls: once non-OK it stays
// so for the life of the Dev, and Begin does not reset it.
type Status int

const (
	// StatusOK means the panel is nominal.
	StatusOK Status = iota
	// StatusUnsupportedCOG means the COG ID read during Begin did not
	// match the low nibble this core drives (0x2): wrong panel
	// generation or bad wiring.
	StatusUnsupportedCOG
	// StatusPanelBroken means the breakage bit was absent from the
	// 0x0f probe during Begin: the panel glass is physically cracked.
	StatusPanelBroken
	// StatusDCFailed means the charge-pump bring-up failed after four
	// attempts during Begin, or the end-of-update DC probe during End
	// reported loss of the rails.
	StatusDCFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusUnsupportedCOG:
		return "UnsupportedCOG"
	case StatusPanelBroken:
		return "PanelBroken"
	case StatusDCFailed:
		return "DCFailed"
	default:
		return "unknown"
	}
}

// Bus is the half-duplex, explicitly acquired/released SPI collaborator
// this core depends on. It is narrower than periph's
// conn.Conn/spi.Port on purpose: the COG-gen-2 protocol treats bus
// acquisition and release as meaningful, timed steps (every one_line
// call opens the bus, transfers one frame, and closes it again), not
// just an implementation detail of a single Tx call.
type Bus interface {
	// On acquires the bus.
	On() error
	// Off releases the bus.
	Off() error
	// Send shifts out data with no meaningful read-back.
	Send(data []byte) error
	// Read writes prefix while shifting the response into buf, which
	// must be the same length as prefix; buf[1] carries the payload
	// byte for every COG-gen-2 register read in this core.
	Read(prefix, buf []byte) error
}

// connBus adapts a periph conn.Conn (acquired once via spi.Port.Connect)
// to the Bus contract. periph's SPI ports don't expose a separate
// acquire/release primitive the way the reference driver's spi_on and
// spi_off do; On/Off here are bookkeeping guards rather than physical
// bus control, which is a deliberate simplification.
type connBus struct {
	c    conn.Conn
	open bool
}

func (b *connBus) On() error {
	b.open = true
	return nil
}

func (b *connBus) Off() error {
	b.open = false
	return nil
}

func (b *connBus) Send(data []byte) error {
	if !b.open {
		return fmt.Errorf("repaper: send while bus is off")
	}
	return b.c.Tx(data, nil)
}

func (b *connBus) Read(prefix, buf []byte) error {
	if !b.open {
		return fmt.Errorf("repaper: read while bus is off")
	}
	return b.c.Tx(prefix, buf)
}

// Pins names the five discrete GPIO control lines this core drives,
// by gpioreg name, for use with NewHat.
type Pins struct {
	PanelOn   string
	Border    string
	Discharge string
	Reset     string
	Busy      string
}

// DefaultPins is the Raspberry Pi HAT pin mapping commonly used by
// Pervasive Displays COG-gen-2 breakout boards.
var DefaultPins = Pins{
	PanelOn:   "P1_3",
	Border:    "P1_5",
	Discharge: "P1_7",
	Reset:     "P1_11",
	Busy:      "P1_13",
}

// Opts configures a Dev.
type Opts struct {
	// Size selects the panel geometry.
	Size PanelSize
}

// deadlineTimer substitutes for a monotonic kernel interval timer:
// a stored deadline read against a monotonic
// clock has identical semantics to timer_gettime's remaining-time
// query for this core's purposes.
type deadlineTimer struct {
	deadline time.Time
}

func (t *deadlineTimer) arm(d time.Duration) {
	t.deadline = time.Now().Add(d)
}

// expired reproduces the reference driver's tv_sec>0 && tv_nsec>0
// termination test verbatim: it reports "not expired" only
// while both the whole-second and the sub-second remainder of the time
// left are nonzero. A remaining duration with either component at
// zero, including the common case of under one second left, reports
// expired even though time remains. This is preserved intentionally,
// not corrected; see DESIGN.md.
func (t *deadlineTimer) expired() bool {
	remaining := time.Until(t.deadline)
	if remaining <= 0 {
		return true
	}
	sec := remaining / time.Second
	nsec := remaining % time.Second
	return !(sec > 0 && nsec > 0)
}

// Dev is an open handle to a Pervasive Displays COG-gen-2 panel. It
// exclusively owns its line buffer and timer; the SPI bus is shared
// with the caller.
type Dev struct {
	size PanelSize
	geo  geometry
	comp compensation
	band tempBand

	bus Bus

	panelOn   gpio.PinOut
	border    gpio.PinOut
	discharge gpio.PinOut
	reset     gpio.PinOut
	busy      gpio.PinIO

	lineBuf []byte
	timer   deadlineTimer
	status  Status
}

// New returns a handle to the panel. All five pins are driven to a
// known direction (outputs low, busy as input) but the panel is not
// powered up; call Begin before Image/Clear.
func New(p spi.Port, panelOn, border, discharge, reset gpio.PinOut, busy gpio.PinIO, opts *Opts) (*Dev, error) {
	c, err := p.Connect(2*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("repaper: connect: %w", err)
	}

	if err := panelOn.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("repaper: panelOn.Out: %w", err)
	}
	if err := border.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("repaper: border.Out: %w", err)
	}
	if err := discharge.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("repaper: discharge.Out: %w", err)
	}
	if err := reset.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("repaper: reset.Out: %w", err)
	}
	if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("repaper: busy.In: %w", err)
	}

	size := Size144
	if opts != nil && opts.Size >= Size144 && opts.Size <= Size270 {
		size = opts.Size
	}
	geo := geometryFor(size)

	d := &Dev{
		size:      size,
		geo:       geo,
		comp:      compensationFor(size, bandNormal),
		band:      bandNormal,
		bus:       &connBus{c: c},
		panelOn:   panelOn,
		border:    border,
		discharge: discharge,
		reset:     reset,
		busy:      busy,
		lineBuf:   make([]byte, geo.lineBufSize()),
		status:    StatusOK,
	}
	return d, nil
}

// NewHat returns a handle using the default Raspberry Pi HAT pin
// mapping for this panel family.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	panelOn := gpioreg.ByName(DefaultPins.PanelOn)
	border := gpioreg.ByName(DefaultPins.Border)
	discharge := gpioreg.ByName(DefaultPins.Discharge)
	reset := gpioreg.ByName(DefaultPins.Reset)
	busy := gpioreg.ByName(DefaultPins.Busy)
	if panelOn == nil || border == nil || discharge == nil || reset == nil || busy == nil {
		return nil, fmt.Errorf("repaper: one or more default HAT pins could not be resolved")
	}
	return New(p, panelOn, border, discharge, reset, busy, opts)
}

// NewHatRPi is like NewHat but resolves pins via periph.io/x/host/v3/rpi
// by header position rather than by gpioreg name, matching the way
// this panel family's reference breakout board is documented.
func NewHatRPi(p spi.Port, opts *Opts) (*Dev, error) {
	return New(p, rpi.P1_3, rpi.P1_5, rpi.P1_7, rpi.P1_11, rpi.P1_13, opts)
}

// Close releases the handle's owned resources. Safe to call once; Go's
// garbage collector reclaims the line buffer, so Close only drops the
// reference.
func (d *Dev) Close() error {
	if d == nil {
		return nil
	}
	d.lineBuf = nil
	return nil
}

// Status returns the latched panel-protocol error kind.
func (d *Dev) Status() Status {
	return d.status
}

// SetTemperature selects the temperature band for the panel's current
// size and refreshes the compensation record. Valid in any state.
func (d *Dev) SetTemperature(celsius int) {
	d.band = bandFor(celsius)
	d.comp = compensationFor(d.size, d.band)
}

// String implements fmt.Stringer.
func (d *Dev) String() string {
	return fmt.Sprintf("repaper.Dev{%s, status=%s}", d.size, d.status)
}

func (d *Dev) sleep(dur time.Duration) {
	time.Sleep(dur)
}

func (d *Dev) busOn() error {
	return d.bus.On()
}

func (d *Dev) busOff() error {
	return d.bus.Off()
}

// writeReg sends the command frame for reg, followed by the data frame
// for values if any are given: a register write is always
// [0x70, reg] then, when there is a payload, [0x72, values...].
func (d *Dev) writeReg(reg byte, values ...byte) error {
	if err := d.bus.Send([]byte{0x70, reg}); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	frame := make([]byte, 0, len(values)+1)
	frame = append(frame, 0x72)
	frame = append(frame, values...)
	return d.bus.Send(frame)
}

// readReg sends the command frame for reg, then reads back two bytes
// prefixed with 0x73 and idx, returning the payload (the second byte).
func (d *Dev) readReg(reg, idx byte) (byte, error) {
	if err := d.bus.Send([]byte{0x70, reg}); err != nil {
		return 0, err
	}
	out := make([]byte, 2)
	if err := d.bus.Read([]byte{0x73, idx}, out); err != nil {
		return 0, err
	}
	return out[1], nil
}

func (d *Dev) armTimer(dur time.Duration) {
	d.timer.arm(dur)
}

func (d *Dev) timerExpired() bool {
	return d.timer.expired()
}

// emitLine implements lineEmitter by building and transmitting one SPI
// frame for spec.
func (d *Dev) emitLine(spec lineSpec) error {
	return d.oneLine(spec)
}
