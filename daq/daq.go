// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package daq exposes a Clock-and-Data decoder as a TDAQ process.
//
// The process receives capture streams on its /samples input, decodes
// them during a run and publishes the decoded swipes on its /swipes output.
package daq // import "github.com/go-lpc/paxton/daq"

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/paxton/capture"
	"github.com/go-lpc/paxton/cnd"
	"github.com/go-lpc/paxton/sample"
)

// EncodeSamples encodes samples as the body of a /samples frame.
func EncodeSamples(samples []sample.Sample, rate uint64) ([]byte, error) {
	var (
		buf = new(bytes.Buffer)
		enc = capture.NewEncoder(buf, rate)
	)
	for _, s := range samples {
		err := enc.Write(s)
		if err != nil {
			return nil, fmt.Errorf("daq: could not encode sample: %w", err)
		}
	}
	err := enc.Close()
	if err != nil {
		return nil, fmt.Errorf("daq: could not encode samples: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSamples decodes the body of a /samples frame.
func DecodeSamples(p []byte) ([]sample.Sample, error) {
	dec, err := capture.NewDecoder(bytes.NewReader(p))
	if err != nil {
		return nil, fmt.Errorf("daq: could not decode samples: %w", err)
	}

	var out []sample.Sample
	for {
		s, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("daq: could not decode samples: %w", err)
		}
		out = append(out, s)
	}
}

// EncodeSwipe encodes a swipe as the body of a /swipes frame.
func EncodeSwipe(sw cnd.Swipe) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU64(sw.Start)
	enc.WriteU64(sw.End)
	enc.WriteU32(uint32(len(sw.Fields)))
	for _, field := range sw.Fields {
		enc.WriteStr(field)
	}
	enc.WriteU8(sw.LRC)
	enc.WriteBool(sw.LRCValid)
	enc.WriteU32(uint32(sw.ParityErrors))
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("daq: could not encode swipe: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSwipe decodes the body of a /swipes frame.
func DecodeSwipe(p []byte) (cnd.Swipe, error) {
	var (
		sw  cnd.Swipe
		dec = tdaq.NewDecoder(bytes.NewReader(p))
	)
	sw.Start = dec.ReadU64()
	sw.End = dec.ReadU64()
	n := int(dec.ReadU32())
	if dec.Err() == nil && n > len(p) {
		return sw, fmt.Errorf("daq: invalid number of card fields %d", n)
	}
	if dec.Err() == nil {
		sw.Fields = make([]string, n)
		for i := range sw.Fields {
			sw.Fields[i] = dec.ReadStr()
		}
	}
	sw.LRC = dec.ReadU8()
	sw.LRCValid = dec.ReadBool()
	sw.ParityErrors = int(dec.ReadU32())
	if err := dec.Err(); err != nil {
		return sw, fmt.Errorf("daq: could not decode swipe: %w", err)
	}
	return sw, nil
}
