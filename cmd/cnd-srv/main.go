// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cnd-srv starts a TDAQ process decoding Clock-and-Data captures.
//
// Samples are received on the /samples input as capture streams, and
// decoded swipes are published on the /swipes output.
// Swipes can optionally be stored into a MySQL database (-db) and
// corrupted swipes reported by e-mail (-mail, configured through the
// MAIL_SERVER, MAIL_PORT, MAIL_USERNAME, MAIL_PASSWORD and MAIL_TGTS
// environment variables).
package main // import "github.com/go-lpc/paxton/cmd/cnd-srv"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/paxton/cnd"
	"github.com/go-lpc/paxton/daq"
	"github.com/go-lpc/paxton/internal/alert"
	"github.com/go-lpc/paxton/swipedb"
)

func main() {
	var (
		dbname  = flag.String("db", "", "name of the database where to store swipes (disabled if empty)")
		doMail  = flag.Bool("mail", false, "enable mail alerts for corrupted swipes")
		cfgname = flag.String("cfg", "", "path to a YAML decoder configuration file")
	)

	cmd := flags.New()

	log.SetPrefix(cmd.Name + ": ")
	log.SetFlags(0)

	opts, cleanup, err := options(*dbname, *doMail, *cfgname)
	if err != nil {
		log.Fatalf("could not setup %s: %+v", cmd.Name, err)
	}
	defer cleanup()

	dev := daq.New(cmd.Name, opts...)

	srv := tdaq.New(cmd, os.Stdout)
	dev.Register(srv)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func options(dbname string, doMail bool, cfgname string) ([]daq.Option, func(), error) {
	var (
		opts    []daq.Option
		cleanup = func() {}
	)

	if cfgname != "" {
		f, err := os.Open(cfgname)
		if err != nil {
			return nil, cleanup, fmt.Errorf("could not open configuration file: %w", err)
		}
		defer f.Close()

		cfg, err := cnd.LoadConfig(f)
		if err != nil {
			return nil, cleanup, fmt.Errorf("could not load configuration file %q: %w", cfgname, err)
		}
		opts = append(opts, daq.WithConfig(cfg))
	}

	if doMail {
		m := alert.FromEnv()
		if !m.Ok() {
			return nil, cleanup, fmt.Errorf("could not setup mail alerts: missing credentials")
		}
		opts = append(opts, daq.WithNotifier(m))
	}

	if dbname != "" {
		db, err := swipedb.Open(dbname)
		if err != nil {
			return nil, cleanup, fmt.Errorf("could not open swipes db: %w", err)
		}
		err = db.Init(context.Background())
		if err != nil {
			_ = db.Close()
			return nil, cleanup, fmt.Errorf("could not initialize swipes db: %w", err)
		}
		opts = append(opts, daq.WithStore(db))
		cleanup = func() { _ = db.Close() }
	}

	return opts, cleanup, nil
}
