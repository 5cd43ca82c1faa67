// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package repaper

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBandFor(t *testing.T) {
	cases := []struct {
		celsius int
		want    tempBand
	}{
		{-5, bandCold},
		{9, bandCold},
		{10, bandNormal},
		{25, bandNormal},
		{40, bandNormal},
		{41, bandHot},
		{60, bandHot},
	}
	for _, c := range cases {
		if got := bandFor(c.celsius); got != c.want {
			t.Errorf("bandFor(%d) = %v, want %v", c.celsius, got, c.want)
		}
	}
}

func TestCompensationForSize200Normal(t *testing.T) {
	got := compensationFor(Size200, bandNormal)
	want := compensation{
		s1Repeat: 2, s1Step: 2, s1Block: 48,
		s2Repeat: 4, s2T1: 196 * time.Millisecond, s2T2: 196 * time.Millisecond,
		s3Repeat: 2, s3Step: 2, s3Block: 48,
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(compensation{})); diff != "" {
		t.Errorf("compensationFor(Size200, bandNormal) mismatch (-want +got):\n%s", diff)
	}
}

func TestCompensationForUnknownSizeDefaultsTo144(t *testing.T) {
	got := compensationFor(PanelSize(99), bandHot)
	want := compensationFor(Size144, bandHot)
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(compensation{})); diff != "" {
		t.Errorf("compensationFor(99, bandHot) mismatch (-want +got):\n%s", diff)
	}
}

func TestCompensationColderBandsRepeatMoreAndWaitLonger(t *testing.T) {
	for _, size := range []PanelSize{Size144, Size200, Size270} {
		cold := compensationFor(size, bandCold)
		normal := compensationFor(size, bandNormal)
		hot := compensationFor(size, bandHot)
		if !(cold.s1Repeat >= normal.s1Repeat && normal.s1Repeat >= hot.s1Repeat) {
			t.Errorf("%s: s1Repeat not monotonically non-increasing from cold to hot: %d/%d/%d",
				size, cold.s1Repeat, normal.s1Repeat, hot.s1Repeat)
		}
		if !(cold.s2T1 >= normal.s2T1 && normal.s2T1 >= hot.s2T1) {
			t.Errorf("%s: s2T1 not monotonically non-increasing from cold to hot: %s/%s/%s",
				size, cold.s2T1, normal.s2T1, hot.s2T1)
		}
	}
}
