// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

// Decoder is the frame decoder state machine.
//
// Decoder consumes bits, one at a time, groups them into lead-in, digits,
// LRC and lead-out units and emits the corresponding annotations to its sink.
// Decoding anomalies (parity, LRC, unknown digits) are annotated and decoding
// carries on: the whole state is reset after each lead-out.
type Decoder struct {
	cfg  Config
	sink Sink
	st   session
}

// mark is an optional sample index.
type mark struct {
	v  uint64
	ok bool
}

func (m *mark) open(v uint64) {
	if !m.ok {
		m.v, m.ok = v, true
	}
}

func (m *mark) set(v uint64) { m.v, m.ok = v, true }
func (m *mark) clear()       { *m = mark{} }

// session holds the per-packet state of the decoder.
type session struct {
	state State
	bits  []uint8 // bits of the unit being decoded
	unit  mark    // start of the unit being decoded

	begun bool // whether the begin digit was seen
	card  record

	bcds [][4]uint8 // BCD digits since lead-in, for the LRC
	lrc  Digit      // expected LRC digit
}

// record is the card number being decoded.
type record struct {
	beg mark
	end mark
	num []byte
}

func (st *session) reset() {
	*st = session{
		bits: st.bits[:0],
		bcds: st.bcds[:0],
		card: record{num: st.card.num[:0]},
	}
}

// NewDecoder returns a frame decoder emitting annotations to sink.
func NewDecoder(sink Sink, opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	dec := &Decoder{
		cfg:  cfg,
		sink: sink,
	}
	dec.st.bits = make([]uint8, 0, cfg.LeadIn+cfg.LeadOut+digitBits)
	return dec, nil
}

// Config returns the configuration of the decoder.
func (dec *Decoder) Config() Config { return dec.cfg }

// State returns the current state of the decoder.
func (dec *Decoder) State() State { return dec.st.state }

// Reset discards the packet being decoded and waits for a new lead-in.
func (dec *Decoder) Reset() { dec.st.reset() }

// Update feeds a new bit to the decoder.
func (dec *Decoder) Update(bit Bit) {
	st := &dec.st
	st.bits = append(st.bits, bit.Value)
	dec.emit(bit.Start, bit.End, CatBit, string(hexDigit(bit.Value)))

	st.unit.open(bit.Start)
	st.card.beg.open(bit.Start)

	now := bit.End
	switch st.state {
	case LeadIn:
		if len(st.bits) != dec.cfg.LeadIn {
			return
		}
		dec.emit(st.unit.v, now, CatLeadInOut, txtLeadIn)
		st.unit.clear()
		st.bits = st.bits[:0]
		st.state = Digits

	case LeadOut:
		if len(st.bits) != dec.cfg.LeadOut {
			return
		}
		dec.emit(st.unit.v, now, CatLeadInOut, txtLeadOut)
		st.reset()

	case Digits:
		if len(st.bits) != digitBits {
			return
		}
		dec.digits(now)

	case Lrc:
		if len(st.bits) != digitBits {
			return
		}
		var got Digit
		copy(got[:], st.bits)
		if got != st.lrc {
			dec.emit(st.unit.v, now, dec.errCat(CatParity), txtLRCError)
		}
		d := dec.resolve(now)
		dec.unit(now, CatLrc, d)
		st.state = LeadOut
	}
}

func (dec *Decoder) digits(now uint64) {
	st := &dec.st
	beg := st.unit.v
	d := dec.resolve(now)
	switch v := d.Value(); {
	case v == Begin:
		dec.unit(now, CatBegin, d)
		st.begun = true
		st.card.beg.clear()

	case v == Separator:
		dec.unit(now, CatSeparator, d)
		dec.flush(beg)

	case v == End:
		dec.unit(now, CatEnd, d)
		dec.flush(beg)
		st.lrc = LRC(st.bcds)
		st.state = Lrc

	case st.begun:
		dec.unit(now, CatDigit, d)
		st.card.num = append(st.card.num, hexDigit(v))
		st.card.end.set(now)

	default:
		dec.unit(now, dec.errCat(CatUnknown), d)
	}
}

// resolve decodes the buffered digit, records it for the LRC and
// annotates its parity.
func (dec *Decoder) resolve(now uint64) Digit {
	st := &dec.st
	var d Digit
	copy(d[:], st.bits)
	st.bcds = append(st.bcds, d.BCD())

	switch {
	case d.Odd():
		dec.emit(st.unit.v, now, CatParity, txtOdd)
	case dec.cfg.Policy.ParityErrors:
		dec.emit(st.unit.v, now, dec.errCat(CatParity), txtParityError)
	default:
		dec.emit(st.unit.v, now, CatParity, txtEven)
	}
	return d
}

// unit annotates a decoded digit and prepares for the next one.
func (dec *Decoder) unit(now uint64, cat Category, d Digit) {
	st := &dec.st
	dec.emit(st.unit.v, now, cat, d.String())
	st.unit.clear()
	st.bits = st.bits[:0]
}

// flush annotates the card number field decoded so far.
// delim is the start of the delimiting digit, used as the end of an
// empty field.
func (dec *Decoder) flush(delim uint64) {
	card := &dec.st.card
	txt := string(card.num)
	end := card.end.v
	if len(card.num) == 0 {
		txt = txtNoData
		end = delim
	}
	if !card.end.ok || end < card.beg.v {
		end = delim
	}
	dec.emit(card.beg.v, end, CatCard, txt)
	card.beg.clear()
	card.end.clear()
	card.num = card.num[:0]
}

func (dec *Decoder) errCat(cat Category) Category {
	if dec.cfg.Policy.FoldErrors {
		return CatError
	}
	return cat
}

func (dec *Decoder) emit(beg, end uint64, cat Category, txt string) {
	dec.sink.Emit(Annotation{
		Start: beg,
		End:   end,
		Cat:   cat,
		Text:  []string{txt},
	})
}
