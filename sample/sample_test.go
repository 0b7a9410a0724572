// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sample

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		s    Sample
		want uint8
	}{
		{Sample{}, 0},
		{Sample{Clk: true}, 1},
		{Sample{Dat: true}, 2},
		{Sample{Clk: true, Dat: true}, 3},
	} {
		t.Run(tc.s.String(), func(t *testing.T) {
			if got, want := tc.s.Levels(), tc.want; got != want {
				t.Fatalf("invalid levels: got=%d, want=%d", got, want)
			}
			var s Sample
			s.FromLevels(tc.want)
			if got, want := s, tc.s; got != want {
				t.Fatalf("invalid sample: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestFromLevels(t *testing.T) {
	_, err := FromLevels([]bool{true}, nil)
	if err == nil {
		t.Fatalf("expected an error")
	}

	got, err := FromLevels(
		[]bool{true, false, true},
		[]bool{false, false, true},
	)
	if err != nil {
		t.Fatalf("could not build samples: %+v", err)
	}
	want := []Sample{
		{Index: 0, Clk: true},
		{Index: 1},
		{Index: 2, Clk: true, Dat: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("invalid samples (-want +got):\n%s", diff)
	}
}

func TestInvert(t *testing.T) {
	src := Invert(NewSlice([]Sample{
		{Index: 1, Clk: true, Dat: true},
		{Index: 2, Clk: false, Dat: false},
	}))

	for _, want := range []Sample{
		{Index: 1, Clk: true, Dat: false},
		{Index: 2, Clk: false, Dat: true},
	} {
		got, err := src.Next()
		if err != nil {
			t.Fatalf("could not read sample: %+v", err)
		}
		if got != want {
			t.Fatalf("invalid sample: got=%v, want=%v", got, want)
		}
	}

	_, err := src.Next()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid error: got=%v, want=%v", err, io.EOF)
	}
}

func TestEdgeText(t *testing.T) {
	for _, tc := range []struct {
		txt  string
		want Edge
		err  bool
	}{
		{txt: "rising", want: Rising},
		{txt: "r", want: Rising},
		{txt: "falling", want: Falling},
		{txt: "f", want: Falling},
		{txt: "both", err: true},
	} {
		t.Run(tc.txt, func(t *testing.T) {
			var e Edge
			err := e.UnmarshalText([]byte(tc.txt))
			switch {
			case err != nil && tc.err:
				return
			case err != nil:
				t.Fatalf("could not unmarshal edge: %+v", err)
			case tc.err:
				t.Fatalf("expected an error")
			}
			if got, want := e, tc.want; got != want {
				t.Fatalf("invalid edge: got=%v, want=%v", got, want)
			}
			if got, want := e.Opposite().Opposite(), e; got != want {
				t.Fatalf("invalid opposite: got=%v, want=%v", got, want)
			}
		})
	}

	if _, err := Edge(42).MarshalText(); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestWaiter(t *testing.T) {
	samples, err := FromLevels(
		[]bool{false, true, true, false, false, true, false},
		[]bool{true, true, false, false, true, true, false},
	)
	if err != nil {
		t.Fatalf("could not build samples: %+v", err)
	}

	for _, tc := range []struct {
		name  string
		edges []Edge
		want  []uint64
	}{
		{
			name:  "rising",
			edges: []Edge{Rising, Rising, Rising},
			want:  []uint64{1, 5},
		},
		{
			name:  "falling",
			edges: []Edge{Falling, Falling, Falling},
			want:  []uint64{3, 6},
		},
		{
			name:  "alternate",
			edges: []Edge{Falling, Rising, Falling, Rising},
			want:  []uint64{3, 5, 6},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWaiter(NewSlice(samples))
			var got []uint64
			for _, e := range tc.edges {
				s, err := w.WaitEdge(e)
				if err != nil {
					if errors.Is(err, io.EOF) {
						break
					}
					t.Fatalf("could not wait for edge: %+v", err)
				}
				got = append(got, s.Index)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("invalid edges (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWaiterFirstSample(t *testing.T) {
	// a high clock on the very first sample is not a rising edge.
	w := NewWaiter(NewSlice([]Sample{
		{Index: 10, Clk: true},
		{Index: 11, Clk: true},
	}))
	_, err := w.WaitEdge(Rising)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid error: got=%v, want=%v", err, io.EOF)
	}
}
