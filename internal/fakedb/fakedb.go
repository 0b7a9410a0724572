// Copyright 2023 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
package fakedb // import "github.com/go-lpc/paxton/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var query struct {
	mu   sync.Mutex
	rows Rows

	xmu   sync.Mutex
	execs []Exec
}

// Exec describes a statement executed against the fake DB.
type Exec struct {
	Query string
	Args  []driver.Value
}

// Run runs f with rows as the result set of the queries issued by f.
// Run returns the statements executed by f.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) ([]Exec, error) {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows

	query.xmu.Lock()
	query.execs = nil
	query.xmu.Unlock()

	err := f(ctx)

	query.xmu.Lock()
	defer query.xmu.Unlock()
	execs := query.execs
	query.execs = nil

	return execs, err
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

// Close invalidates the connection.
func (c *Conn) Close() error {
	return nil
}

// Begin starts and returns a new transaction.
//
// Deprecated: Drivers should implement ConnBeginTx instead (or additionally).
func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

type Stmt struct {
	query string
}

// Close closes the statement.
func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns the number of placeholder parameters.
// The fake DB does not know, so it returns -1.
func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec records the statement and its arguments.
//
// Deprecated: Drivers should implement StmtExecContext instead (or additionally).
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	query.xmu.Lock()
	defer query.xmu.Unlock()
	query.execs = append(query.execs, Exec{
		Query: stmt.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return driver.RowsAffected(1), nil
}

// Query executes a query that may return rows, such as a
// SELECT.
//
// Deprecated: Drivers should implement StmtQueryContext instead (or additionally).
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return &query.rows, nil
}

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next is called to populate the next row of data into
// the provided slice. The provided slice will be the same
// size as the Columns() are wide.
//
// Next returns io.EOF when there are no more rows.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
