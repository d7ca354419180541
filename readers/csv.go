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

package readers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/aaronlmathis/sheetmart/core"
)

// A .csv source object is treated as a workbook with a single sheet. The
// sheet name is fixed so schema definitions can bind to it regardless of
// the object's file name.

// CSVSheetName is the sheet name a CSV source presents.
const CSVSheetName = "Sheet1"

// CSVReaderError wraps structured error information for the CSV reader.
type CSVReaderError struct {
	Op  string
	Err error
}

func (e *CSVReaderError) Error() string {
	return fmt.Sprintf("csv reader %s: %v", e.Op, e.Err)
}

func (e *CSVReaderError) Unwrap() error {
	return e.Err
}

// CSVReaderStats holds statistics about the CSV reader's progress.
type CSVReaderStats struct {
	RowsRead     int64
	BlankCells   int64
	ReadDuration time.Duration
	LastReadTime time.Time
}

// CSVReaderOptions configures the CSV reader.
type CSVReaderOptions struct {
	Comma            rune
	Comment          rune
	LazyQuotes       bool
	TrimLeadingSpace bool
}

// ReaderOptionCSV allows functional customization of the CSV workbook.
type ReaderOptionCSV func(*CSVReaderOptions)

func WithCSVComma(r rune) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Comma = r }
}

func WithCSVComment(r rune) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Comment = r }
}

func WithCSVTrimSpace(trim bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.TrimLeadingSpace = trim }
}

// CSVWorkbook implements core.SheetSource over a delimited-text payload.
// The payload is held in memory so row streams can be restarted.
type CSVWorkbook struct {
	name string
	data []byte
	opts CSVReaderOptions
}

// OpenCSV wraps a CSV payload as a one-sheet workbook. The payload must
// contain at least one decodable row; otherwise it fails with
// core.MalformedInputError.
func OpenCSV(name string, data []byte, options ...ReaderOptionCSV) (*CSVWorkbook, error) {
	opts := CSVReaderOptions{
		Comma:            ',',
		TrimLeadingSpace: true,
	}
	for _, opt := range options {
		opt(&opts)
	}

	wb := &CSVWorkbook{name: name, data: data, opts: opts}

	probe := wb.newCSVReader()
	if _, err := probe.Read(); err != nil {
		return nil, &core.MalformedInputError{Source: name, Err: err}
	}
	return wb, nil
}

// Sheets returns the single fixed sheet name.
func (w *CSVWorkbook) Sheets() []string {
	return []string{CSVSheetName}
}

// Rows opens a row stream. Each call restarts from the first row.
func (w *CSVWorkbook) Rows(sheet string) (core.RowSource, error) {
	if sheet != CSVSheetName {
		return nil, &CSVReaderError{Op: "open_sheet", Err: fmt.Errorf("no sheet %q in csv source", sheet)}
	}
	return &csvRows{sheet: sheet, reader: w.newCSVReader()}, nil
}

// Close implements core.SheetSource. Nothing is held beyond the payload.
func (w *CSVWorkbook) Close() error {
	return nil
}

func (w *CSVWorkbook) newCSVReader() *csv.Reader {
	r := csv.NewReader(bytes.NewReader(w.data))
	r.Comma = w.opts.Comma
	r.Comment = w.opts.Comment
	r.LazyQuotes = w.opts.LazyQuotes
	r.TrimLeadingSpace = w.opts.TrimLeadingSpace
	r.FieldsPerRecord = -1
	return r
}

// csvRows streams the payload, single pass.
type csvRows struct {
	sheet  string
	reader *csv.Reader
	index  int
	stats  CSVReaderStats
}

// Read implements core.RowSource.
func (c *csvRows) Read(ctx context.Context) (core.RawRow, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return core.RawRow{}, &CSVReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	fields, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return core.RawRow{}, io.EOF
		}
		return core.RawRow{}, &CSVReaderError{Op: "read_record", Err: err}
	}

	c.index++
	cells := make([]core.Cell, len(fields))
	for i, v := range fields {
		cells[i] = ParseCell(v)
		if cells[i].IsBlank() {
			c.stats.BlankCells++
		}
	}

	c.stats.RowsRead++
	c.stats.LastReadTime = time.Now()
	c.stats.ReadDuration += time.Since(start)

	return core.RawRow{Sheet: c.sheet, Index: c.index, Cells: cells}, nil
}

// Close implements core.RowSource.
func (c *csvRows) Close() error {
	return nil
}

// Stats returns stream statistics.
func (c *csvRows) Stats() CSVReaderStats {
	return c.stats
}
