// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package swipedb stores decoded card swipes into a MySQL database.
package swipedb // import "github.com/go-lpc/paxton/swipedb"

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-lpc/paxton/cnd"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"

	now = time.Now
)

const schema = `
CREATE TABLE IF NOT EXISTS swipes (
	identifier CHAR(36) NOT NULL PRIMARY KEY,
	capture    VARCHAR(255) NOT NULL,
	start      BIGINT UNSIGNED NOT NULL,
	end        BIGINT UNSIGNED NOT NULL,
	number     VARCHAR(255) NOT NULL,
	lrc        TINYINT UNSIGNED NOT NULL,
	valid      BOOLEAN NOT NULL,
	parity     INT NOT NULL,
	datetime   DATETIME(6) NOT NULL
)`

// Swipe is a card swipe, as stored in the database.
type Swipe struct {
	ID       uuid.UUID `json:"identifier"`
	Capture  string    `json:"capture"`  // name of the capture or acquisition run
	Start    uint64    `json:"start"`    // first sample of the swipe
	End      uint64    `json:"end"`      // last sample of the swipe
	Number   string    `json:"number"`   // card number fields, joined by ':'
	LRC      uint8     `json:"lrc"`      // received LRC digit
	Valid    bool      `json:"valid"`    // whether the swipe was received without error
	Parity   int       `json:"parity"`   // number of parity errors
	Datetime time.Time `json:"datetime"` // insertion time
}

// New creates a new swipe record for the named capture, with a fresh
// identifier.
func New(capture string, sw cnd.Swipe) Swipe {
	return Swipe{
		ID:       uuid.New(),
		Capture:  capture,
		Start:    sw.Start,
		End:      sw.End,
		Number:   sw.Number(),
		LRC:      sw.LRC,
		Valid:    sw.Valid(),
		Parity:   sw.ParityErrors,
		Datetime: now().UTC(),
	}
}

// Fields returns the card number fields of the swipe.
func (sw Swipe) Fields() []string {
	return strings.Split(sw.Number, ":")
}

func (sw Swipe) String() string {
	status := "ok"
	if !sw.Valid {
		status = "error"
	}
	return fmt.Sprintf(
		"%s %s %q [%d, %d) lrc=%X parity=%d %s",
		sw.Datetime.Format(time.RFC3339), sw.ID, sw.Number,
		sw.Start, sw.End, sw.LRC, sw.Parity, status,
	)
}

// DB stores and retrieves card swipes.
type DB struct {
	db   *sql.DB
	name string // name of the swipes database
}

// Open opens a connection to the swipes database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("swipedb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("swipedb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

// Close closes the connection to the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Init creates the swipes table, if needed.
func (db *DB) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("swipedb: could not create swipes table in %q: %w", db.name, err)
	}
	return nil
}

// Insert stores the swipe.
func (db *DB) Insert(ctx context.Context, sw Swipe) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		`INSERT INTO swipes
(identifier, capture, start, end, number, lrc, valid, parity, datetime)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sw.ID, sw.Capture, sw.Start, sw.End, sw.Number,
		sw.LRC, sw.Valid, sw.Parity, sw.Datetime,
	)
	if err != nil {
		return fmt.Errorf("swipedb: could not insert swipe %s: %w", sw.ID, err)
	}

	return nil
}

// Last returns the n most recent swipes, most recent first.
func (db *DB) Last(ctx context.Context, n int) ([]Swipe, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if n <= 0 {
		return nil, fmt.Errorf("swipedb: invalid number of swipes %d", n)
	}

	swipes := make([]Swipe, 0, n)
	rows, err := db.db.QueryContext(
		ctx,
		`SELECT identifier, capture, start, end, number, lrc, valid, parity, datetime
FROM swipes ORDER BY datetime DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return swipes, fmt.Errorf("swipedb: could not query swipes: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var sw Swipe
		err = rows.Scan(
			&sw.ID, &sw.Capture, &sw.Start, &sw.End, &sw.Number,
			&sw.LRC, &sw.Valid, &sw.Parity, &sw.Datetime,
		)
		if err != nil {
			return swipes, fmt.Errorf("swipedb: could not scan row %d for swipes: %w", i, err)
		}
		i++

		swipes = append(swipes, sw)
	}

	if err := rows.Err(); err != nil {
		return swipes, fmt.Errorf("swipedb: could not scan db for swipes: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return swipes, fmt.Errorf("swipedb: context error while retrieving swipes: %w", err)
	}

	return swipes, nil
}
