//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of SheetMart.
//
// SheetMart is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SheetMart is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SheetMart. If not, see https://www.gnu.org/licenses/.

package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/dimension"
)

// Package warehouse loads built tables into PostgreSQL after a successful
// archive upload. Semantics are truncate-and-load: every run replaces the
// warehouse table contents wholesale, matching the pipeline's
// full-reprocessing model.

// LoaderError wraps PostgreSQL-specific load errors with context about the
// operation.
type LoaderError struct {
	Op  string // The operation being performed (e.g., "load", "connect")
	Err error  // The underlying error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("warehouse loader %s: %v", e.Op, e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// LoaderStats holds warehouse load statistics.
type LoaderStats struct {
	RowsLoaded   int64
	TablesLoaded int64
	LoadDuration time.Duration
	LastLoadTime time.Time
}

// LoaderOptions configures the warehouse loader.
type LoaderOptions struct {
	DSN          string        // PostgreSQL connection string
	BatchSize    int           // Rows per INSERT statement
	CreateTable  bool          // Create tables if they do not exist
	QueryTimeout time.Duration // Per-statement timeout
}

// LoaderOption represents a configuration function for LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithDSN sets the PostgreSQL connection string.
func WithDSN(dsn string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.DSN = dsn
	}
}

// WithBatchSize sets the number of rows per INSERT.
func WithBatchSize(size int) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.BatchSize = size
	}
}

// WithCreateTable enables or disables table creation.
func WithCreateTable(create bool) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.CreateTable = create
	}
}

// WithQueryTimeout sets the per-statement timeout.
func WithQueryTimeout(d time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.QueryTimeout = d
	}
}

// Loader writes built tables to PostgreSQL.
type Loader struct {
	db    *sql.DB
	opts  LoaderOptions
	stats LoaderStats
}

// NewLoader opens a connection pool with the specified options.
func NewLoader(options ...LoaderOption) (*Loader, error) {
	opts := LoaderOptions{
		BatchSize:    500,
		CreateTable:  true,
		QueryTimeout: 30 * time.Second,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.DSN == "" {
		return nil, &LoaderError{Op: "validate_options", Err: fmt.Errorf("dsn is required")}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &LoaderError{Op: "connect", Err: err}
	}

	return &Loader{db: db, opts: opts}, nil
}

// Load replaces the warehouse table's contents with the built table's rows,
// inside a single transaction so readers never observe a partial load.
func (l *Loader) Load(ctx context.Context, tbl *dimension.Table) error {
	start := time.Now()

	if l.opts.CreateTable {
		if err := l.createTable(ctx, tbl); err != nil {
			return err
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return &LoaderError{Op: "begin_tx", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", quoteIdent(tbl.Name))); err != nil {
		return &LoaderError{Op: "truncate", Err: err}
	}

	for offset := 0; offset < len(tbl.Rows); offset += l.opts.BatchSize {
		end := offset + l.opts.BatchSize
		if end > len(tbl.Rows) {
			end = len(tbl.Rows)
		}
		if err := l.insertBatch(ctx, tx, tbl, tbl.Rows[offset:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &LoaderError{Op: "commit", Err: err}
	}

	l.stats.RowsLoaded += int64(len(tbl.Rows))
	l.stats.TablesLoaded++
	l.stats.LoadDuration += time.Since(start)
	l.stats.LastLoadTime = time.Now()
	return nil
}

// Close releases the connection pool.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Stats returns load statistics.
func (l *Loader) Stats() LoaderStats {
	return l.stats
}

func (l *Loader) createTable(ctx context.Context, tbl *dimension.Table) error {
	cols := make([]string, 0, len(tbl.Columns)+1)
	cols = append(cols, "key BIGINT PRIMARY KEY")
	for _, col := range tbl.Columns {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(col), sqlType(tbl, col)))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(tbl.Name), strings.Join(cols, ", "))

	ctx, cancel := context.WithTimeout(ctx, l.opts.QueryTimeout)
	defer cancel()
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return &LoaderError{Op: "create_table", Err: err}
	}
	return nil
}

func (l *Loader) insertBatch(ctx context.Context, tx *sql.Tx, tbl *dimension.Table, rows []dimension.Row) error {
	width := len(tbl.Columns) + 1
	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*width)

	for i, row := range rows {
		marks := make([]string, width)
		for j := 0; j < width; j++ {
			marks[j] = fmt.Sprintf("$%d", i*width+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		args = append(args, row.Key)
		for _, col := range tbl.Columns {
			args = append(args, driverValue(row.Values[col]))
		}
	}

	colNames := make([]string, 0, width)
	colNames = append(colNames, "key")
	for _, col := range tbl.Columns {
		colNames = append(colNames, quoteIdent(col))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdent(tbl.Name), strings.Join(colNames, ", "), strings.Join(placeholders, ", "))

	ctx, cancel := context.WithTimeout(ctx, l.opts.QueryTimeout)
	defer cancel()
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return &LoaderError{Op: "insert_batch", Err: err}
	}
	return nil
}

// sqlType derives a column type from the first non-nil value in the column.
// Columns that never carry a value fall back to TEXT.
func sqlType(tbl *dimension.Table, col string) string {
	for _, row := range tbl.Rows {
		switch row.Values[col].(type) {
		case nil:
			continue
		case int64, int:
			return "BIGINT"
		case float64:
			return "DOUBLE PRECISION"
		case bool:
			return "BOOLEAN"
		case time.Time:
			return "DATE"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

// driverValue converts typed record values to driver-compatible values.
func driverValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, int64, float64, bool, time.Time, string:
		return val
	default:
		return core.FormatValue(val)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
