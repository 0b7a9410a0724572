// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cnd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/paxton/sample"
)

// Decode runs a decoding session: it samples bits out of src, feeds them
// to a frame decoder and emits the resulting annotations to sink.
//
// Decode returns nil once src is exhausted. A packet still being received
// at that point is discarded.
func Decode(ctx context.Context, src sample.Source, sink Sink, opts ...Option) error {
	dec, err := NewDecoder(sink, opts...)
	if err != nil {
		return fmt.Errorf("cnd: could not create decoder: %w", err)
	}

	smp := NewSampler(src, dec.cfg.Edge, dec.cfg.Polarity)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cnd: decoding interrupted: %w", err)
		}

		bit, err := smp.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("cnd: could not sample bit: %w", err)
		}
		dec.Update(bit)
	}
}
