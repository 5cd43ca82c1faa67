// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import "time"

// tempBand is the coarse temperature classification used to select a
// compensation record: band 0 for <10C, band 1 for
// 10-40C inclusive, band 2 for >40C.
type tempBand int

const (
	bandCold tempBand = iota
	bandNormal
	bandHot
)

// bandFor classifies a temperature in degrees Celsius.
func bandFor(celsius int) tempBand {
	switch {
	case celsius < 10:
		return bandCold
	case celsius > 40:
		return bandHot
	default:
		return bandNormal
	}
}

// compensation holds the per-stage timing/stepping parameters looked up
// by (panel size, temperature band). Warmer panels need fewer repeats
// and shorter stage-2 intervals; colder panels need more of both to
// move the same amount of pigment in the film.
type compensation struct {
	s1Repeat int
	s1Step   int
	s1Block  int
	s2Repeat int
	s2T1     time.Duration
	s2T2     time.Duration
	s3Repeat int
	s3Step   int
	s3Block  int
}

// compensations is the static [size][band] table.
var compensations = [...][3]compensation{
	Size144: {
		bandCold:   {s1Repeat: 6, s1Step: 4, s1Block: 32, s2Repeat: 8, s2T1: 630 * time.Millisecond, s2T2: 630 * time.Millisecond, s3Repeat: 6, s3Step: 4, s3Block: 32},
		bandNormal: {s1Repeat: 2, s1Step: 4, s1Block: 32, s2Repeat: 4, s2T1: 240 * time.Millisecond, s2T2: 240 * time.Millisecond, s3Repeat: 2, s3Step: 4, s3Block: 32},
		bandHot:    {s1Repeat: 1, s1Step: 4, s1Block: 32, s2Repeat: 2, s2T1: 90 * time.Millisecond, s2T2: 90 * time.Millisecond, s3Repeat: 1, s3Step: 4, s3Block: 32},
	},
	Size200: {
		bandCold:   {s1Repeat: 4, s1Step: 2, s1Block: 48, s2Repeat: 8, s2T1: 390 * time.Millisecond, s2T2: 390 * time.Millisecond, s3Repeat: 4, s3Step: 2, s3Block: 48},
		bandNormal: {s1Repeat: 2, s1Step: 2, s1Block: 48, s2Repeat: 4, s2T1: 196 * time.Millisecond, s2T2: 196 * time.Millisecond, s3Repeat: 2, s3Step: 2, s3Block: 48},
		bandHot:    {s1Repeat: 1, s1Step: 2, s1Block: 48, s2Repeat: 2, s2T1: 90 * time.Millisecond, s2T2: 90 * time.Millisecond, s3Repeat: 1, s3Step: 2, s3Block: 48},
	},
	Size270: {
		bandCold:   {s1Repeat: 4, s1Step: 4, s1Block: 44, s2Repeat: 8, s2T1: 630 * time.Millisecond, s2T2: 630 * time.Millisecond, s3Repeat: 4, s3Step: 4, s3Block: 44},
		bandNormal: {s1Repeat: 2, s1Step: 4, s1Block: 44, s2Repeat: 4, s2T1: 240 * time.Millisecond, s2T2: 240 * time.Millisecond, s3Repeat: 2, s3Step: 4, s3Block: 44},
		bandHot:    {s1Repeat: 1, s1Step: 4, s1Block: 44, s2Repeat: 2, s2T1: 90 * time.Millisecond, s2T2: 90 * time.Millisecond, s3Repeat: 1, s3Step: 4, s3Block: 44},
	},
}

// compensationFor returns the compensation record for size and band.
func compensationFor(size PanelSize, band tempBand) compensation {
	if size < Size144 || size > Size270 {
		size = Size144
	}
	return compensations[size][band]
}
