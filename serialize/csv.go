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

package serialize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/dimension"
)

// Package serialize renders in-memory tables to delimited-text bytes.
// Delimiter and line terminator are fixed constants, not options: identical
// input must produce identical bytes so re-uploads are idempotent and
// golden-file comparisons are possible.

const (
	// Delimiter separates fields. Fixed.
	Delimiter = ','
	// KeyColumn is the surrogate-key header, always emitted first.
	KeyColumn = "key"
)

// Lines end with a bare LF (encoding/csv default, UseCRLF left false).

// SerializerError wraps serialization errors with context.
type SerializerError struct {
	Table string
	Err   error
}

func (e *SerializerError) Error() string {
	return fmt.Sprintf("serialize table %s: %v", e.Table, e.Err)
}

func (e *SerializerError) Unwrap() error {
	return e.Err
}

// SerializedTable is a rendered table, consumed immediately by the
// archive packager.
type SerializedTable struct {
	Name string
	Data []byte
}

// Table renders one table: a header row (key column first, then the
// table's columns in schema order) followed by one line per row. Values
// containing the delimiter, quotes, or line breaks are quoted with doubled
// embedded quotes. Null and unresolved values serialize as an empty field.
func Table(tbl *dimension.Table) (SerializedTable, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = Delimiter

	header := append([]string{KeyColumn}, tbl.Columns...)
	if err := w.Write(header); err != nil {
		return SerializedTable{}, &SerializerError{Table: tbl.Name, Err: err}
	}

	fields := make([]string, len(header))
	for _, row := range tbl.Rows {
		fields[0] = strconv.FormatInt(row.Key, 10)
		for i, col := range tbl.Columns {
			fields[i+1] = core.FormatValue(row.Values[col])
		}
		if err := w.Write(fields); err != nil {
			return SerializedTable{}, &SerializerError{Table: tbl.Name, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return SerializedTable{}, &SerializerError{Table: tbl.Name, Err: err}
	}
	return SerializedTable{Name: tbl.Name, Data: buf.Bytes()}, nil
}

// Tables renders every table in order.
func Tables(tables []*dimension.Table) ([]SerializedTable, error) {
	out := make([]SerializedTable, 0, len(tables))
	for _, tbl := range tables {
		st, err := Table(tbl)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
