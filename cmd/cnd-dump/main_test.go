// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/paxton/capture"
	"github.com/go-lpc/paxton/cnd"
)

func genCapture(t *testing.T, fname string, fields ...string) {
	t.Helper()

	syn, err := cnd.NewSynth()
	if err != nil {
		t.Fatalf("could not create synth: %+v", err)
	}
	bits, err := syn.Card(fields...)
	if err != nil {
		t.Fatalf("could not create card: %+v", err)
	}

	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}
	defer f.Close()

	enc := capture.NewEncoder(f, 1_000_000)
	for _, s := range syn.Samples(bits, 0) {
		err := enc.Write(s)
		if err != nil {
			t.Fatalf("could not write sample: %+v", err)
		}
	}
	err = enc.Close()
	if err != nil {
		t.Fatalf("could not close encoder: %+v", err)
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close capture file: %+v", err)
	}
}

func TestDump(t *testing.T) {
	tmp := t.TempDir()

	var (
		f1  = filepath.Join(tmp, "card-1.cnd")
		f2  = filepath.Join(tmp, "card-2.cnd")
		cfg = filepath.Join(tmp, "cfg.yaml")
	)
	genCapture(t, f1, "123", "45")
	genCapture(t, f2, "", "6")

	err := os.WriteFile(cfg, []byte("leadin: 40\npolicy: legacy\n"), 0644)
	if err != nil {
		t.Fatalf("could not create config file: %+v", err)
	}

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{
			name: "annotations",
			args: []string{"-cats=leadin,card,lrc", f1},
			want: `=== ` + f1 + ` ===
         1         39 leadin    Lead in
        61        119 card      123
       141        179 card      45
       201        219 lrc       8
       221        259 leadin    Lead out
`,
		},
		{
			name: "swipes",
			args: []string{"-swipes", f1, f2},
			want: `=== ` + f1 + ` ===
         1        259 ok     card="123:45" lrc=8 parity-errors=0
=== ` + f2 + ` ===
         1        179 ok     card=":6" lrc=F parity-errors=0
`,
		},
		{
			name: "cfg-file",
			args: []string{"-swipes", "-cfg", cfg, f1},
			want: `=== ` + f1 + ` ===
`,
		},
		{
			name: "cfg-file-with-flags",
			args: []string{"-swipes", "-cfg", cfg, "-leadin=10", f1},
			want: `=== ` + f1 + ` ===
         1        259 ok     card="123:45" lrc=8 parity-errors=0
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(strings.Builder)
			err := xmain(out, tc.args)
			if err != nil {
				t.Fatalf("could not run cnd-dump: %+v", err)
			}
			if got, want := out.String(), tc.want; got != want {
				t.Fatalf("invalid cnd-dump output:\ngot:\n%s\nwant:\n%s\n", got, want)
			}
		})
	}
}

func TestDumpErrors(t *testing.T) {
	tmp := t.TempDir()

	var (
		fname = filepath.Join(tmp, "card.cnd")
		bad   = filepath.Join(tmp, "bad.cnd")
	)
	genCapture(t, fname, "42")

	err := os.WriteFile(bad, []byte{0xb0, 0x02}, 0644)
	if err != nil {
		t.Fatalf("could not create invalid capture file: %+v", err)
	}

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{
			name: "no-file",
			args: nil,
			want: "missing path to input capture file",
		},
		{
			name: "missing-file",
			args: []string{filepath.Join(tmp, "missing.cnd")},
			want: "could not dump file",
		},
		{
			name: "invalid-file",
			args: []string{fname, bad},
			want: "capture: could not read header: unexpected EOF",
		},
		{
			name: "invalid-leadin",
			args: []string{"-leadin=0", fname},
			want: "invalid decoder configuration: cnd: invalid lead-in length 0",
		},
		{
			name: "invalid-cats",
			args: []string{"-cats=card,foo", fname},
			want: `could not parse -cats: cnd: invalid category "foo"`,
		},
		{
			name: "invalid-edge",
			args: []string{"-edge=up", fname},
			want: `invalid value "up" for flag -edge`,
		},
		{
			name: "missing-cfg",
			args: []string{"-cfg", filepath.Join(tmp, "missing.yaml"), fname},
			want: "could not open configuration file",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := xmain(new(strings.Builder), tc.args)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; !strings.Contains(got, want) {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}
}
