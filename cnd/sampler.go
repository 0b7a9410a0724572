// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"github.com/go-lpc/paxton/sample"
)

// Sampler converts clock and data line transitions into bits.
//
// A bit is captured on the configured clock edge and completed on the
// opposite (update) edge.
type Sampler struct {
	w       *sample.Waiter
	capture sample.Edge
	update  sample.Edge
	bitmap  [2]uint8
}

// NewSampler returns a sampler reading samples from src, capturing data
// on the edge clock transition and mapping data levels with polarity pol.
func NewSampler(src sample.Source, edge sample.Edge, pol Polarity) *Sampler {
	return &Sampler{
		w:       sample.NewWaiter(src),
		capture: edge,
		update:  edge.Opposite(),
		bitmap:  pol.table(),
	}
}

// Next returns the next bit.
// Next returns the error of the underlying source (io.EOF when exhausted.)
func (smp *Sampler) Next() (Bit, error) {
	beg, err := smp.w.WaitEdge(smp.capture)
	if err != nil {
		return Bit{}, err
	}

	end, err := smp.w.WaitEdge(smp.update)
	if err != nil {
		return Bit{}, err
	}

	var raw uint8
	if beg.Dat {
		raw = 1
	}

	return Bit{
		Value: smp.bitmap[raw],
		Start: beg.Index,
		End:   end.Index,
	}, nil
}
