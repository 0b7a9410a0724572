// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sample describes logic-level samples of a two-line
// clock and data signal, and the sources that provide them.
package sample // import "github.com/go-lpc/paxton/sample"

import (
	"fmt"
	"io"
)

// Sample holds the levels of the clock and data lines at a given
// sample index.
type Sample struct {
	Index uint64 // monotonically increasing sample index
	Clk   bool   // clock line level
	Dat   bool   // data line level
}

// Levels packs the clock and data levels into a byte (bit0=clk, bit1=dat).
func (s Sample) Levels() uint8 {
	var v uint8
	if s.Clk {
		v |= 1 << 0
	}
	if s.Dat {
		v |= 1 << 1
	}
	return v
}

// FromLevels unpacks the clock and data levels of a byte created by Levels.
func (s *Sample) FromLevels(v uint8) {
	s.Clk = v&(1<<0) != 0
	s.Dat = v&(1<<1) != 0
}

func (s Sample) String() string {
	return fmt.Sprintf("{%d clk=%d dat=%d}", s.Index, b2i(s.Clk), b2i(s.Dat))
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Source is a sequence of samples with increasing indices.
// Next returns io.EOF when the source is exhausted.
type Source interface {
	Next() (Sample, error)
}

// Slice is an in-memory source of samples.
type Slice struct {
	data []Sample
}

// NewSlice returns a source iterating over samples.
func NewSlice(samples []Sample) *Slice {
	return &Slice{data: samples}
}

func (src *Slice) Next() (Sample, error) {
	if len(src.data) == 0 {
		return Sample{}, io.EOF
	}
	s := src.data[0]
	src.data = src.data[1:]
	return s, nil
}

// FromLevels builds samples out of the clock and data line levels.
// Sample indices start at 0.
func FromLevels(clk, dat []bool) ([]Sample, error) {
	if len(clk) != len(dat) {
		return nil, fmt.Errorf("sample: line lengths mismatch (clk=%d, dat=%d)", len(clk), len(dat))
	}
	out := make([]Sample, len(clk))
	for i := range out {
		out[i] = Sample{Index: uint64(i), Clk: clk[i], Dat: dat[i]}
	}
	return out, nil
}

// Invert returns a source whose data line is the inverse of the one of src.
func Invert(src Source) Source {
	return &inverter{src: src}
}

type inverter struct {
	src Source
}

func (inv *inverter) Next() (Sample, error) {
	s, err := inv.src.Next()
	if err != nil {
		return s, err
	}
	s.Dat = !s.Dat
	return s, nil
}

var (
	_ Source = (*Slice)(nil)
	_ Source = (*inverter)(nil)
)
