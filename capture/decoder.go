// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/go-lpc/paxton/internal/crc16"
	"github.com/go-lpc/paxton/sample"
	"golang.org/x/xerrors"
)

// Decoder reads (and validates) samples from a capture stream.
// Decoder computes the CRC-16 checksum on the fly and checks it
// against the one stored in the trailer.
type Decoder struct {
	r    *bufio.Reader
	rate uint64

	buf []byte
	err error
	crc crc16.Hash16

	idx uint64 // index of the last decoded sample
	n   int    // number of samples left in the current block
	eof bool   // whether the trailer was read
}

// NewDecoder creates a decoder that reads and validates samples from r.
// NewDecoder reads the header of the stream.
func NewDecoder(r io.Reader) (*Decoder, error) {
	dec := &Decoder{
		r:   bufio.NewReader(r),
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}

	v := dec.readU8()
	if dec.err != nil {
		return nil, xerrors.Errorf("capture: could not read header marker: %w", dec.err)
	}
	if v != hdrMarker {
		return nil, xerrors.Errorf("capture: invalid header marker (got=0x%x, want=0x%x)", v, hdrMarker)
	}

	vers := dec.readU8()
	dec.rate = dec.readU64()
	if dec.err != nil {
		if xerrors.Is(dec.err, io.EOF) {
			dec.err = io.ErrUnexpectedEOF
		}
		return nil, xerrors.Errorf("capture: could not read header: %w", dec.err)
	}
	if vers != Version {
		return nil, xerrors.Errorf("capture: invalid version (got=%d, want=%d)", vers, Version)
	}

	return dec, nil
}

// Rate returns the sample rate (in Hz) of the capture.
func (dec *Decoder) Rate() uint64 {
	return dec.rate
}

// Next returns the next stored sample.
// Next returns io.EOF once the trailer has been read and validated.
func (dec *Decoder) Next() (sample.Sample, error) {
	for dec.n == 0 {
		if dec.eof {
			return sample.Sample{}, io.EOF
		}
		if dec.err != nil {
			return sample.Sample{}, dec.err
		}
		dec.next()
	}

	delta, err := binary.ReadUvarint(crcReader{dec})
	if err != nil {
		if xerrors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		dec.err = xerrors.Errorf("capture: could not read sample index: %w", err)
		dec.n = 0
		return sample.Sample{}, dec.err
	}
	lvl := dec.readU8()
	if dec.err != nil {
		if xerrors.Is(dec.err, io.EOF) {
			dec.err = io.ErrUnexpectedEOF
		}
		dec.err = xerrors.Errorf("capture: could not read sample levels: %w", dec.err)
		dec.n = 0
		return sample.Sample{}, dec.err
	}
	if lvl > 3 {
		dec.err = xerrors.Errorf("capture: invalid sample levels 0x%x", lvl)
		dec.n = 0
		return sample.Sample{}, dec.err
	}

	dec.idx += delta
	dec.n--

	s := sample.Sample{Index: dec.idx}
	s.FromLevels(lvl)
	return s, nil
}

// next reads the next block header or the trailer.
func (dec *Decoder) next() {
	v := dec.readU8()
	if dec.err != nil {
		if xerrors.Is(dec.err, io.EOF) {
			dec.err = io.ErrUnexpectedEOF
		}
		dec.err = xerrors.Errorf("capture: could not read block header/trailer: %w", dec.err)
		return
	}

	switch v {
	default:
		dec.err = xerrors.Errorf("capture: invalid block/trailer marker (got=0x%x)", v)

	case blkMarker:
		n := dec.readU16()
		if dec.err != nil {
			if xerrors.Is(dec.err, io.EOF) {
				dec.err = io.ErrUnexpectedEOF
			}
			dec.err = xerrors.Errorf("capture: could not read block size: %w", dec.err)
			return
		}
		dec.n = int(n)

	case trlMarker:
		var (
			comp = dec.crc.Sum16()
			recv = dec.readU16()
		)
		if dec.err != nil {
			if xerrors.Is(dec.err, io.EOF) {
				dec.err = io.ErrUnexpectedEOF
			}
			dec.err = xerrors.Errorf("capture: could not read CRC-16: %w", dec.err)
			return
		}
		if comp != recv {
			dec.err = xerrors.Errorf("capture: inconsistent CRC: recv=0x%04x comp=0x%04x", recv, comp)
			return
		}
		dec.eof = true
	}
}

func (dec *Decoder) readU8() uint8 {
	dec.load(1)
	return dec.buf[0]
}

func (dec *Decoder) readU16() uint16 {
	const n = 2
	dec.load(n)
	return binary.BigEndian.Uint16(dec.buf[:n])
}

func (dec *Decoder) readU64() uint64 {
	const n = 8
	dec.load(n)
	return binary.BigEndian.Uint64(dec.buf[:n])
}

func (dec *Decoder) load(n int) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
	if dec.err != nil {
		return
	}
	_, _ = dec.crc.Write(dec.buf[:n]) // can not fail.
}

// crcReader reads bytes from the decoder stream, updating the CRC-16.
type crcReader struct {
	dec *Decoder
}

func (r crcReader) ReadByte() (byte, error) {
	v, err := r.dec.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.dec.buf[0] = v
	_, _ = r.dec.crc.Write(r.dec.buf[:1])
	return v, nil
}
