// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/paxton/internal/crc16"
	"github.com/go-lpc/paxton/sample"
)

// Encoder writes samples to a capture stream.
// Encoder computes the CRC-16 checksum on the fly and appends it
// at the end of the stream, when closed.
type Encoder struct {
	w    io.Writer
	rate uint64
	buf  []byte
	err  error
	crc  crc16.Hash16

	hdr  bool          // whether the header was written
	seen bool          // whether a sample was written
	prev sample.Sample // last written sample
	last uint64        // index of the last stored sample

	blk []byte // current block payload
	n   int    // number of samples in the current block
}

// NewEncoder returns a new Encoder that writes to w samples acquired
// at the provided rate (in Hz).
func NewEncoder(w io.Writer, rate uint64) *Encoder {
	return &Encoder{
		w:    w,
		rate: rate,
		buf:  make([]byte, binary.MaxVarintLen64),
		crc:  crc16.New(nil),
	}
}

// Write stores the sample if it is the first one or if the level of one of
// its lines changed. Sample indices must be strictly increasing.
func (enc *Encoder) Write(s sample.Sample) error {
	if enc.err != nil {
		return enc.err
	}

	if enc.seen && s.Index <= enc.prev.Index {
		return fmt.Errorf(
			"capture: non-increasing sample index (got=%d, prev=%d)",
			s.Index, enc.prev.Index,
		)
	}

	if enc.seen && s.Levels() == enc.prev.Levels() {
		enc.prev = s
		return nil
	}

	enc.header()
	n := binary.PutUvarint(enc.buf, s.Index-enc.last)
	enc.blk = append(enc.blk, enc.buf[:n]...)
	enc.blk = append(enc.blk, s.Levels())
	enc.n++
	enc.last = s.Index
	enc.prev = s
	enc.seen = true

	if enc.n == blkSize {
		enc.flush()
	}

	if enc.err != nil {
		return fmt.Errorf("capture: could not write samples: %w", enc.err)
	}
	return nil
}

// Close flushes the pending samples and writes the trailer of the stream.
// Close does not close the underlying writer.
func (enc *Encoder) Close() error {
	if enc.err != nil {
		return enc.err
	}

	enc.header()
	enc.flush()
	enc.writeU8(trlMarker)
	enc.writeU16(enc.crc.Sum16())

	if enc.err != nil {
		return fmt.Errorf("capture: could not write trailer: %w", enc.err)
	}
	enc.err = errClosed
	return nil
}

func (enc *Encoder) header() {
	if enc.hdr {
		return
	}
	enc.hdr = true
	enc.writeU8(hdrMarker)
	enc.writeU8(Version)
	enc.writeU64(enc.rate)
}

func (enc *Encoder) flush() {
	if enc.n == 0 {
		return
	}
	enc.writeU8(blkMarker)
	enc.writeU16(uint16(enc.n))
	enc.write(enc.blk)
	enc.blk = enc.blk[:0]
	enc.n = 0
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *Encoder) writeU16(v uint16) {
	const n = 2
	binary.BigEndian.PutUint16(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU64(v uint64) {
	const n = 8
	binary.BigEndian.PutUint64(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}
