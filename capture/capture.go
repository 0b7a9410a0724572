// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package capture reads and writes logic-analyzer captures of the clock
// and data lines of a Clock-and-Data reader.
//
// A capture stream only stores the first sample and the samples where one
// of the lines changes level:
//
//	header : 0xb0 | version u8 | sample rate u64
//	block  : 0xb4 | n u16 | n x (uvarint index delta, levels u8)
//	trailer: 0xa0 | CRC-16 u16
//
// All integers are big-endian. Index deltas are relative to the previously
// stored sample (or to zero for the first one). The CRC-16 covers every
// preceding byte of the stream, trailer marker included.
package capture // import "github.com/go-lpc/paxton/capture"

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/paxton/internal/mmap"
	"github.com/go-lpc/paxton/sample"
)

// Version is the version of the capture format.
const Version = 1

const (
	hdrMarker = 0xb0 // header marker
	blkMarker = 0xb4 // block marker
	trlMarker = 0xa0 // trailer marker

	blkSize = 1024 // maximum number of samples per block
)

var errClosed = errors.New("capture: encoder closed")

// File is a memory-mapped capture file.
type File struct {
	*Decoder
	h *mmap.Handle
}

// Open opens the named capture file.
func Open(fname string) (*File, error) {
	h, err := mmap.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("capture: could not open %q: %w", fname, err)
	}

	dec, err := NewDecoder(io.NewSectionReader(h, 0, int64(h.Len())))
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("capture: could not read %q: %w", fname, err)
	}

	return &File{Decoder: dec, h: h}, nil
}

// Close releases the memory-mapped file.
func (f *File) Close() error {
	return f.h.Close()
}

var (
	_ sample.Source = (*Decoder)(nil)
	_ sample.Source = (*File)(nil)
)
