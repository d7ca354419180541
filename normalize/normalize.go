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

package normalize

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/readers"
	"github.com/aaronlmathis/sheetmart/schema"
)

// Package normalize maps raw sheet rows into typed, schema-conformant
// records. Structural problems (missing headers) are fatal; per-row
// problems reject the row and processing continues.

// Result holds the outcome of normalizing one sheet. The accounting
// invariant holds for every sheet: len(Records) + len(Rejected) == Total.
type Result struct {
	Records  []core.NormalizedRecord
	Rejected []core.RejectedRow
	Total    int // data rows seen, header excluded
}

// Normalize reads every row of src and coerces it against the table schema.
//
// The header row is read once to build a name-to-index map; matching is
// trimmed and case-insensitive. A missing expected header is a fatal
// core.SchemaMismatchError since the dataset is structurally invalid.
// Output record column order mirrors schema order regardless of the input
// column order.
func Normalize(ctx context.Context, src core.RowSource, table schema.TableSchema) (*Result, error) {
	header, err := src.Read(ctx)
	if err == io.EOF {
		return nil, &core.SchemaMismatchError{Sheet: table.Sheet, Reason: "sheet is empty"}
	}
	if err != nil {
		return nil, err
	}

	index, err := headerIndex(header, table)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		row, err := src.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isEmptyRow(row) {
			continue
		}

		res.Total++
		values := make(core.Record, len(table.Columns))
		rejected := false
		for _, col := range table.Columns {
			cell := cellAt(row, index[col.Name])
			value, reason := coerce(cell, col)
			if reason != "" {
				res.Rejected = append(res.Rejected, core.RejectedRow{
					Sheet:  row.Sheet,
					Row:    row.Index,
					Column: col.Name,
					Reason: reason,
				})
				rejected = true
				break
			}
			values[col.Name] = value
		}
		if rejected {
			continue
		}
		res.Records = append(res.Records, core.NormalizedRecord{
			SourceRow: row.Index,
			Values:    values,
		})
	}
	return res, nil
}

// headerIndex maps schema column names to cell positions in the header row.
func headerIndex(header core.RawRow, table schema.TableSchema) (map[string]int, error) {
	positions := make(map[string]int, len(header.Cells))
	for i, cell := range header.Cells {
		name := strings.ToLower(strings.TrimSpace(cell.Raw))
		if name == "" {
			continue
		}
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	index := make(map[string]int, len(table.Columns))
	var missing []string
	for _, col := range table.Columns {
		pos, ok := positions[strings.ToLower(col.Name)]
		if !ok {
			missing = append(missing, col.Name)
			continue
		}
		index[col.Name] = pos
	}
	if len(missing) > 0 {
		return nil, &core.SchemaMismatchError{Sheet: table.Sheet, Missing: missing}
	}
	return index, nil
}

func cellAt(row core.RawRow, pos int) core.Cell {
	if pos < 0 || pos >= len(row.Cells) {
		return core.BlankCell()
	}
	return row.Cells[pos]
}

func isEmptyRow(row core.RawRow) bool {
	for _, c := range row.Cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// coerce converts one cell to the column's declared type. A non-empty
// reason rejects the owning row. Blank optional cells take the column
// default, which Validate has already proven coercible.
func coerce(cell core.Cell, col schema.Column) (interface{}, string) {
	if cell.Kind == core.CellError {
		return nil, fmt.Sprintf("cell error %s", cell.ErrVal)
	}
	if cell.IsBlank() {
		if col.Required {
			return nil, "blank required column"
		}
		if col.Default == "" {
			return nil, ""
		}
		cell = readers.ParseCell(col.Default)
	}
	return readers.CoerceCell(cell, string(col.Type))
}
