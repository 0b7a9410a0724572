// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swipedb

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/paxton/cnd"
	"github.com/go-lpc/paxton/internal/fakedb"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var t0 = time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)

func init() {
	drvName = "fakedb"
	now = func() time.Time { return t0 }
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open swipedb: %+v", err)
	}
	defer db.Close()

	if got, want := dsn("swipes"), "username:s3cr3t@tcp(localhost)/swipes?parseTime=true"; got != want {
		t.Fatalf("invalid dsn: got=%q, want=%q", got, want)
	}
}

func TestNew(t *testing.T) {
	sw := New("run-42", cnd.Swipe{
		Start:    1,
		End:      259,
		Fields:   []string{"123", "45"},
		LRC:      0x8,
		LRCValid: true,
	})

	if sw.ID == uuid.Nil {
		t.Fatalf("invalid nil swipe identifier")
	}

	want := Swipe{
		ID:       sw.ID,
		Capture:  "run-42",
		Start:    1,
		End:      259,
		Number:   "123:45",
		LRC:      0x8,
		Valid:    true,
		Datetime: t0,
	}
	if diff := cmp.Diff(want, sw); diff != "" {
		t.Fatalf("invalid swipe (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"123", "45"}, sw.Fields()); diff != "" {
		t.Fatalf("invalid fields (-want +got):\n%s", diff)
	}

	bad := New("run-42", cnd.Swipe{Fields: []string{"7"}, LRC: 0x1, ParityErrors: 2})
	if bad.ID == sw.ID {
		t.Fatalf("swipe identifiers should be unique")
	}
	if bad.Valid {
		t.Fatalf("swipe with parity errors should be invalid")
	}

	str := sw.String()
	if !strings.Contains(str, `"123:45" [1, 259) lrc=8 parity=0 ok`) {
		t.Fatalf("invalid swipe string: %q", str)
	}
}

func TestInsert(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open swipedb: %+v", err)
	}
	defer db.Close()

	sw := Swipe{
		ID:       uuid.MustParse("5c6f3b6e-8f7e-4c1a-9a43-0e4a1c2d3b4f"),
		Capture:  "run-42",
		Start:    1,
		End:      259,
		Number:   "123:45",
		LRC:      0x8,
		Valid:    true,
		Datetime: t0,
	}

	execs, err := fakedb.Run(context.Background(), fakedb.Rows{}, func(ctx context.Context) error {
		err := db.Init(ctx)
		if err != nil {
			return err
		}
		return db.Insert(ctx, sw)
	})
	if err != nil {
		t.Fatalf("could not insert swipe: %+v", err)
	}

	if got, want := len(execs), 2; got != want {
		t.Fatalf("invalid number of statements: got=%d, want=%d", got, want)
	}

	if !strings.Contains(execs[0].Query, "CREATE TABLE IF NOT EXISTS swipes") {
		t.Fatalf("invalid schema statement: %q", execs[0].Query)
	}

	if !strings.HasPrefix(execs[1].Query, "INSERT INTO swipes") {
		t.Fatalf("invalid insert statement: %q", execs[1].Query)
	}

	want := []driver.Value{
		"5c6f3b6e-8f7e-4c1a-9a43-0e4a1c2d3b4f",
		"run-42",
		int64(1), int64(259),
		"123:45",
		int64(8), true, int64(0),
		t0,
	}
	if diff := cmp.Diff(want, execs[1].Args); diff != "" {
		t.Fatalf("invalid insert arguments (-want +got):\n%s", diff)
	}
}

func TestLast(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open swipedb: %+v", err)
	}
	defer db.Close()

	t1 := t0.Add(time.Minute)
	_, err = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{
			"identifier", "capture", "start", "end", "number",
			"lrc", "valid", "parity", "datetime",
		},
		Values: [][]driver.Value{
			{"5c6f3b6e-8f7e-4c1a-9a43-0e4a1c2d3b4f", "run-42", int64(261), int64(439), ":6", int64(0xf), true, int64(0), t1},
			{"0d1e2f3a-4b5c-4d6e-8f70-8192a3b4c5d6", "run-42", int64(1), int64(127), "7", int64(0x1), false, int64(2), t0},
		},
	}, func(ctx context.Context) error {
		swipes, err := db.Last(ctx, 2)
		if err != nil {
			t.Fatalf("could not retrieve last swipes: %+v", err)
		}

		want := []Swipe{
			{
				ID:       uuid.MustParse("5c6f3b6e-8f7e-4c1a-9a43-0e4a1c2d3b4f"),
				Capture:  "run-42",
				Start:    261,
				End:      439,
				Number:   ":6",
				LRC:      0xf,
				Valid:    true,
				Datetime: t1,
			},
			{
				ID:       uuid.MustParse("0d1e2f3a-4b5c-4d6e-8f70-8192a3b4c5d6"),
				Capture:  "run-42",
				Start:    1,
				End:      127,
				Number:   "7",
				LRC:      0x1,
				Parity:   2,
				Datetime: t0,
			},
		}
		if diff := cmp.Diff(want, swipes); diff != "" {
			t.Fatalf("invalid swipes (-want +got):\n%s", diff)
		}

		if diff := cmp.Diff([]string{"", "6"}, swipes[0].Fields()); diff != "" {
			t.Fatalf("invalid fields (-want +got):\n%s", diff)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("could not run query: %+v", err)
	}

	_, err = db.Last(context.Background(), 0)
	if err == nil {
		t.Fatalf("expected an error")
	}
}
