// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

// Digit is a 5-bit digit, as received: 4 BCD bits (LSB first) and
// an odd parity bit.
type Digit [digitBits]uint8

// BCD returns the 4 BCD bits of the digit.
func (d Digit) BCD() [4]uint8 {
	return [4]uint8{d[0], d[1], d[2], d[3]}
}

// Value returns the decimal value of the BCD bits.
func (d Digit) Value() uint8 {
	return d[0] + 2*d[1] + 4*d[2] + 8*d[3]
}

// Odd reports whether the digit has a valid (odd) parity.
func (d Digit) Odd() bool {
	var n uint8
	for _, v := range d {
		n += v
	}
	return n%2 == 1
}

// String returns the value of the digit as a lowercase hexadecimal character.
func (d Digit) String() string {
	return string(hexDigit(d.Value()))
}

func hexDigit(v uint8) byte {
	const tbl = "0123456789abcdef"
	return tbl[v&0xf]
}

// DigitOf returns the digit encoding v, with its parity bit.
func DigitOf(v uint8) Digit {
	var d Digit
	for i := 0; i < 4; i++ {
		d[i] = (v >> i) & 1
	}
	d[4] = 1 - (d[0]+d[1]+d[2]+d[3])%2
	return d
}

// LRC returns the expected LRC digit bits of a list of BCD digits:
// one even parity bit per BCD bit position, followed by an odd parity
// bit over these 4 bits.
func LRC(bcds [][4]uint8) Digit {
	var lrc Digit
	for _, bcd := range bcds {
		for i, v := range bcd {
			lrc[i] ^= v & 1
		}
	}
	lrc[4] = 1 - (lrc[0]+lrc[1]+lrc[2]+lrc[3])%2
	return lrc
}
