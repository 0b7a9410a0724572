// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"fmt"

	"github.com/go-lpc/paxton/sample"
)

// Packet returns the digits of a packet carrying the provided card number
// fields: the begin digit, the digits of each field separated by the
// separator digit, and the end digit.
func Packet(fields ...string) ([]uint8, error) {
	digits := []uint8{Begin}
	for i, field := range fields {
		if i > 0 {
			digits = append(digits, Separator)
		}
		for _, c := range field {
			if c < '0' || '9' < c {
				return nil, fmt.Errorf("cnd: invalid card number digit %q in field %q", c, field)
			}
			digits = append(digits, uint8(c-'0'))
		}
	}
	digits = append(digits, End)
	return digits, nil
}

// Bits returns the bits of the provided digits, followed by the bits
// of their LRC digit.
func Bits(digits []uint8) []uint8 {
	var (
		bits = make([]uint8, 0, (len(digits)+1)*digitBits)
		bcds = make([][4]uint8, 0, len(digits))
	)
	for _, v := range digits {
		d := DigitOf(v)
		bits = append(bits, d[:]...)
		bcds = append(bcds, d.BCD())
	}
	lrc := LRC(bcds)
	return append(bits, lrc[:]...)
}

// Synth synthesizes clock and data waveforms out of bits.
type Synth struct {
	cfg Config
}

// NewSynth returns a waveform synthesizer for the provided configuration.
func NewSynth(opts ...Option) (*Synth, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("cnd: could not create synthesizer: %w", err)
	}
	return &Synth{cfg: cfg}, nil
}

// Frame surrounds the payload bits with lead-in and lead-out zero bits.
func (syn *Synth) Frame(payload []uint8) []uint8 {
	bits := make([]uint8, syn.cfg.LeadIn, syn.cfg.LeadIn+len(payload)+syn.cfg.LeadOut)
	bits = append(bits, payload...)
	return append(bits, make([]uint8, syn.cfg.LeadOut)...)
}

// Card returns the bits of a full frame for the provided card number fields.
func (syn *Synth) Card(fields ...string) ([]uint8, error) {
	digits, err := Packet(fields...)
	if err != nil {
		return nil, err
	}
	return syn.Frame(Bits(digits)), nil
}

// SamplesPerBit is the number of samples generated per bit by Synth.
const SamplesPerBit = 4

// Samples returns the waveform of the provided bits, starting at the
// start sample index.
//
// Each bit spans SamplesPerBit samples: data setup with the clock idle,
// capture edge, hold and update edge.
func (syn *Synth) Samples(bits []uint8, start uint64) []sample.Sample {
	var (
		out  = make([]sample.Sample, 0, len(bits)*SamplesPerBit)
		idle = syn.cfg.Edge == sample.Falling
		inv  = syn.cfg.Polarity == Inverted
		idx  = start
	)
	for _, bit := range bits {
		dat := (bit != 0) != inv
		for _, clk := range []bool{idle, !idle, !idle, idle} {
			out = append(out, sample.Sample{Index: idx, Clk: clk, Dat: dat})
			idx++
		}
	}
	return out
}
