// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cnd-sql displays the last card swipes stored in the swipes database.
package main // import "github.com/go-lpc/paxton/cmd/cnd-sql"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/paxton/swipedb"
)

func main() {
	log.SetPrefix("cnd-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "cndsrv", "name of the swipes database")
		n      = flag.Int("n", 10, "number of swipes to display")
	)

	flag.Parse()

	db, err := swipedb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open swipes db: %+v", err)
	}
	defer db.Close()

	err = doQuery(os.Stdout, db, *n)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

type querier interface {
	Last(ctx context.Context, n int) ([]swipedb.Swipe, error)
}

func doQuery(w io.Writer, db querier, n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	swipes, err := db.Last(ctx, n)
	if err != nil {
		return fmt.Errorf("could not retrieve last %d swipes: %w", n, err)
	}

	log.Printf("swipes: %d", len(swipes))
	for i, sw := range swipes {
		fmt.Fprintf(w, "row[%d]: %v\n", i, sw)
	}

	return nil
}
