// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cnd decodes the Clock and Data interface used by magnetic-stripe
// card readers of Paxton entry systems.
//
// A packet is made of a lead-in run of bits, a sequence of 5-bit digits
// (4 BCD bits, LSB first, plus an odd parity bit), a longitudinal redundancy
// check (LRC) digit and a lead-out run of bits:
//
//	lead-in | b | 1 2 3 ... | d | 4 5 ... | f | LRC | lead-out
//
// where b, d and f are the begin, separator and end control digits.
//
// Details:
// https://web.archive.org/web/20211208093044/https://www.securitytechnologiesgroup.co.uk/downloads/Ref_Pyramid_Series_Magnetic_Stripe_Data_Format.pdf
package cnd // import "github.com/go-lpc/paxton/cnd"

import (
	"fmt"
)

// Control digits.
const (
	Begin     = 0xb // begin of card data
	Separator = 0xd // card number field separator
	End       = 0xf // end of card data, next digit is the LRC

	digitBits = 5 // number of bits per digit (4 BCD + 1 parity)
)

// State is the state of the frame decoder.
type State uint8

const (
	LeadIn  State = iota // counting lead-in bits
	Digits               // decoding digits
	Lrc                  // waiting for the LRC digit
	LeadOut              // counting lead-out bits
)

func (st State) String() string {
	switch st {
	case LeadIn:
		return "lead-in"
	case Digits:
		return "digits"
	case Lrc:
		return "lrc"
	case LeadOut:
		return "lead-out"
	}
	return fmt.Sprintf("State(%d)", uint8(st))
}

// Bit is a single bit sampled on the data line, together with the
// [Start, End) span of sample indices it was sampled over.
type Bit struct {
	Value uint8
	Start uint64
	End   uint64
}
