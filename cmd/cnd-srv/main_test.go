// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOptions(t *testing.T) {
	tmp := t.TempDir()

	var (
		good = filepath.Join(tmp, "good.yaml")
		bad  = filepath.Join(tmp, "bad.yaml")
	)
	err := os.WriteFile(good, []byte("leadin: 4\nleadout: 3\n"), 0644)
	if err != nil {
		t.Fatalf("could not create config file: %+v", err)
	}
	err = os.WriteFile(bad, []byte("leadin: -4\n"), 0644)
	if err != nil {
		t.Fatalf("could not create config file: %+v", err)
	}

	opts, cleanup, err := options("", false, "")
	if err != nil {
		t.Fatalf("could not create default options: %+v", err)
	}
	cleanup()
	if got, want := len(opts), 0; got != want {
		t.Fatalf("invalid number of options: got=%d, want=%d", got, want)
	}

	opts, cleanup, err = options("", false, good)
	if err != nil {
		t.Fatalf("could not create options: %+v", err)
	}
	cleanup()
	if got, want := len(opts), 1; got != want {
		t.Fatalf("invalid number of options: got=%d, want=%d", got, want)
	}

	t.Setenv("MAIL_SERVER", "")
	for _, tc := range []struct {
		name string
		mail bool
		cfg  string
		want string
	}{
		{"missing-cfg", false, filepath.Join(tmp, "missing.yaml"), "could not open configuration file"},
		{"invalid-cfg", false, bad, "cnd: invalid lead-in length -4"},
		{"mail-no-creds", true, "", "missing credentials"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := options("", tc.mail, tc.cfg)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; !strings.Contains(got, want) {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}
}
