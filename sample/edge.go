// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sample

import (
	"fmt"
)

// Edge is a transition direction of a line.
type Edge uint8

const (
	Rising  Edge = iota // low to high
	Falling             // high to low
)

// Opposite returns the other transition direction.
func (e Edge) Opposite() Edge {
	if e == Rising {
		return Falling
	}
	return Rising
}

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return fmt.Sprintf("Edge(%d)", uint8(e))
}

func (e Edge) MarshalText() ([]byte, error) {
	switch e {
	case Rising, Falling:
		return []byte(e.String()), nil
	}
	return nil, fmt.Errorf("sample: invalid edge %d", uint8(e))
}

func (e *Edge) UnmarshalText(p []byte) error {
	switch string(p) {
	case "rising", "r":
		*e = Rising
	case "falling", "f":
		*e = Falling
	default:
		return fmt.Errorf("sample: invalid edge %q", p)
	}
	return nil
}

// Waiter waits for clock transitions on an underlying source of samples.
type Waiter struct {
	src  Source
	prev Sample
	init bool
}

// NewWaiter returns a waiter reading samples from src.
// The first sample read from src only sets the initial line levels
// and is never reported as an edge.
func NewWaiter(src Source) *Waiter {
	return &Waiter{src: src}
}

// WaitEdge blocks until the clock line transitions in the e direction
// and returns the first sample after that transition.
// WaitEdge returns the error of the underlying source, e.g. io.EOF.
func (w *Waiter) WaitEdge(e Edge) (Sample, error) {
	for {
		s, err := w.src.Next()
		if err != nil {
			return s, err
		}
		prev, init := w.prev, w.init
		w.prev, w.init = s, true
		if !init || prev.Clk == s.Clk {
			continue
		}
		switch e {
		case Rising:
			if s.Clk {
				return s, nil
			}
		case Falling:
			if !s.Clk {
				return s, nil
			}
		}
	}
}
