// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"math/rand"
	"testing"
)

func TestDigit(t *testing.T) {
	for _, tc := range []struct {
		bits  Digit
		value uint8
		odd   bool
		str   string
	}{
		{Digit{0, 0, 0, 0, 1}, 0, true, "0"},
		{Digit{0, 0, 0, 0, 0}, 0, false, "0"},
		{Digit{1, 0, 0, 0, 0}, 1, true, "1"},
		{Digit{1, 0, 0, 1, 1}, 9, true, "9"},
		{Digit{1, 1, 0, 1, 0}, 0xb, true, "b"},
		{Digit{1, 0, 1, 1, 0}, 0xd, true, "d"},
		{Digit{1, 1, 1, 1, 1}, 0xf, true, "f"},
		{Digit{1, 1, 1, 1, 0}, 0xf, false, "f"},
		{Digit{0, 1, 0, 1, 1}, 0xa, true, "a"},
	} {
		t.Run(tc.str, func(t *testing.T) {
			// resolution is a pure function of the bits.
			for i := 0; i < 2; i++ {
				if got, want := tc.bits.Value(), tc.value; got != want {
					t.Fatalf("invalid value: got=%d, want=%d", got, want)
				}
				if got, want := tc.bits.Odd(), tc.odd; got != want {
					t.Fatalf("invalid parity: got=%v, want=%v", got, want)
				}
				if got, want := tc.bits.String(), tc.str; got != want {
					t.Fatalf("invalid string: got=%q, want=%q", got, want)
				}
			}
		})
	}
}

func TestDigitOf(t *testing.T) {
	for v := uint8(0); v < 16; v++ {
		d := DigitOf(v)
		if got, want := d.Value(), v; got != want {
			t.Fatalf("invalid value: got=%d, want=%d", got, want)
		}
		if !d.Odd() {
			t.Fatalf("invalid parity for digit %d: %v", v, d)
		}
	}
}

func TestLRC(t *testing.T) {
	bcds := func(vs ...uint8) [][4]uint8 {
		o := make([][4]uint8, len(vs))
		for i, v := range vs {
			o[i] = DigitOf(v).BCD()
		}
		return o
	}

	for _, tc := range []struct {
		name string
		bcds [][4]uint8
		want Digit
	}{
		{"empty", nil, Digit{0, 0, 0, 0, 1}},
		{"example", bcds(0xb, 1, 2, 3, 0xd, 4, 5, 0xf), Digit{0, 0, 0, 1, 0}},
		{"fields", bcds(0xb, 1, 2, 3, 4, 5, 6, 7, 8, 0xf), Digit{0, 0, 1, 1, 1}},
		{"self-cancel", bcds(0xb, 0xb), Digit{0, 0, 0, 0, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got, want := LRC(tc.bcds), tc.want; got != want {
				t.Fatalf("invalid LRC: got=%v, want=%v", got, want)
			}
			if !tc.want.Odd() {
				t.Fatalf("LRC digit with even parity: %v", tc.want)
			}
		})
	}
}

func TestLRCPermutation(t *testing.T) {
	rnd := rand.New(rand.NewSource(1234))
	for i := 0; i < 100; i++ {
		bcds := make([][4]uint8, 1+rnd.Intn(40))
		for j := range bcds {
			bcds[j] = DigitOf(uint8(rnd.Intn(16))).BCD()
		}
		want := LRC(bcds)

		rnd.Shuffle(len(bcds), func(i, j int) {
			bcds[i], bcds[j] = bcds[j], bcds[i]
		})
		if got := LRC(bcds); got != want {
			t.Fatalf("LRC depends on digits order: got=%v, want=%v", got, want)
		}
	}
}
