// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"strconv"
	"strings"
)

// Swipe summarizes a decoded packet.
type Swipe struct {
	Start        uint64   // start of the lead-in
	End          uint64   // end of the lead-out
	Fields       []string // card number fields (empty if no data)
	LRC          uint8    // value of the received LRC digit
	LRCValid     bool     // whether the received LRC matched the expected one
	ParityErrors int      // number of digits with an invalid parity
}

// Number returns the card number fields, separated by colons.
func (sw Swipe) Number() string {
	return strings.Join(sw.Fields, ":")
}

// Valid reports whether the packet was received without any error.
func (sw Swipe) Valid() bool {
	return sw.LRCValid && sw.ParityErrors == 0
}

// Swipes is a sink that folds annotations into swipes.
// Each complete packet is delivered to a callback at lead-out.
type Swipes struct {
	f    func(sw Swipe)
	cur  Swipe
	open bool
}

// NewSwipes returns a sink calling f for each decoded packet.
func NewSwipes(f func(sw Swipe)) *Swipes {
	return &Swipes{f: f}
}

func (sink *Swipes) Emit(ann Annotation) {
	txt := strings.Join(ann.Text, "")
	if ann.Cat == CatLeadInOut && txt == txtLeadIn {
		sink.cur = Swipe{Start: ann.Start, LRCValid: true}
		sink.open = true
		return
	}

	if !sink.open {
		return
	}

	switch ann.Cat {
	case CatCard:
		if txt == txtNoData {
			txt = ""
		}
		sink.cur.Fields = append(sink.cur.Fields, txt)
	case CatParity, CatError:
		switch txt {
		case txtEven, txtParityError:
			sink.cur.ParityErrors++
		case txtLRCError:
			sink.cur.LRCValid = false
		}
	case CatLrc:
		v, err := strconv.ParseUint(txt, 16, 8)
		if err == nil {
			sink.cur.LRC = uint8(v)
		}
	case CatLeadInOut:
		if txt != txtLeadOut {
			return
		}
		sink.cur.End = ann.End
		sink.open = false
		sink.f(sink.cur)
	}
}

var _ Sink = (*Swipes)(nil)
