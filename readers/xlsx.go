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
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aaronlmathis/sheetmart/core"
)

// XLSXReaderError provides structured error information for xlsx reader
// operations.
type XLSXReaderError struct {
	Op  string // Operation that failed (e.g., "open_sheet", "read_row")
	Err error  // Underlying error
}

func (e *XLSXReaderError) Error() string {
	return fmt.Sprintf("xlsx reader %s: %v", e.Op, e.Err)
}

func (e *XLSXReaderError) Unwrap() error {
	return e.Err
}

// XLSXReaderStats holds statistics about one sheet stream.
type XLSXReaderStats struct {
	RowsRead     int64
	BlankCells   int64
	ReadDuration time.Duration
	LastReadTime time.Time
}

// XLSXWorkbook implements core.SheetSource over an xlsx container held
// fully in memory. The decoded container lives for the duration of one
// pipeline run and is released by Close.
type XLSXWorkbook struct {
	file *excelize.File
	name string
}

// OpenXLSX decodes an xlsx payload. A byte stream that is not a
// recognizable workbook container fails with core.MalformedInputError.
func OpenXLSX(name string, data []byte) (*XLSXWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &core.MalformedInputError{Source: name, Err: err}
	}
	return &XLSXWorkbook{file: f, name: name}, nil
}

// Sheets returns sheet names in container storage order.
func (w *XLSXWorkbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Rows opens a row stream over the named sheet. Each call restarts from
// the first row, which makes the stream restartable per the reader
// contract.
func (w *XLSXWorkbook) Rows(sheet string) (core.RowSource, error) {
	rows, err := w.file.Rows(sheet)
	if err != nil {
		return nil, &XLSXReaderError{Op: "open_sheet", Err: err}
	}
	return &xlsxRows{sheet: sheet, rows: rows}, nil
}

// Close releases the decoded container.
func (w *XLSXWorkbook) Close() error {
	return w.file.Close()
}

// xlsxRows streams one sheet, single pass.
type xlsxRows struct {
	sheet string
	rows  *excelize.Rows
	index int
	stats XLSXReaderStats
}

// Read implements core.RowSource.
func (r *xlsxRows) Read(ctx context.Context) (core.RawRow, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return core.RawRow{}, &XLSXReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if !r.rows.Next() {
		if err := r.rows.Error(); err != nil {
			return core.RawRow{}, &XLSXReaderError{Op: "read_row", Err: err}
		}
		return core.RawRow{}, io.EOF
	}

	cols, err := r.rows.Columns()
	if err != nil {
		return core.RawRow{}, &XLSXReaderError{Op: "read_columns", Err: err}
	}

	r.index++
	cells := make([]core.Cell, len(cols))
	for i, v := range cols {
		cells[i] = ParseCell(v)
		if cells[i].IsBlank() {
			r.stats.BlankCells++
		}
	}

	r.stats.RowsRead++
	r.stats.LastReadTime = time.Now()
	r.stats.ReadDuration += time.Since(start)

	return core.RawRow{Sheet: r.sheet, Index: r.index, Cells: cells}, nil
}

// Close implements core.RowSource.
func (r *xlsxRows) Close() error {
	return r.rows.Close()
}

// Stats returns stream statistics.
func (r *xlsxRows) Stats() XLSXReaderStats {
	return r.stats
}
