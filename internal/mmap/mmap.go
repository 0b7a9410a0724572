// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap provides read-only memory-mapped files.
package mmap // import "github.com/go-lpc/paxton/internal/mmap"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// Handle is a read-only view of a memory-mapped file.
type Handle struct {
	data []byte
	mmap bool
}

// Open memory-maps the named file.
func Open(fname string) (*Handle, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not open %q: %w", fname, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmap: could not stat %q: %w", fname, err)
	}

	size := fi.Size()
	switch {
	case size == 0:
		return &Handle{data: []byte{}}, nil
	case size < 0 || int64(int(size)) != size:
		return nil, fmt.Errorf("mmap: invalid size %d for %q", size, fname)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not mmap %q: %w", fname, err)
	}

	h := &Handle{data: data, mmap: true}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h, nil
}

// Close unmaps the file.
func (h *Handle) Close() error {
	if h == nil {
		return os.ErrInvalid
	}

	if h.data == nil {
		return nil
	}
	data := h.data
	h.data = nil
	if !h.mmap {
		return nil
	}
	runtime.SetFinalizer(h, nil)

	return unix.Munmap(data)
}

// Len returns the length of the underlying memory-mapped file.
func (h *Handle) Len() int {
	return len(h.data)
}

// ReadAt implements the io.ReaderAt interface.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h == nil {
		return 0, os.ErrInvalid
	}

	if h.data == nil {
		return 0, errClosed
	}
	if off < 0 || int64(len(h.data)) < off {
		return 0, fmt.Errorf("mmap: invalid ReadAt offset %d", off)
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

var (
	_ io.ReaderAt = (*Handle)(nil)
	_ io.Closer   = (*Handle)(nil)
)
