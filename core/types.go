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

package core

import (
	"fmt"
	"time"
)

// Package core defines the core types for the SheetMart pipeline.
//
// SheetMart is an event-triggered ETL pipeline that turns spreadsheet objects
// landing in a storage bucket into a set of dimensional tables packaged as a
// deterministic archive.
//
// This file contains the cell variant, row, and record types that flow
// between pipeline stages.

// Record represents a single normalized data record in the pipeline.
// Each record is a map from column names to typed values
// (string, int64, float64, bool, time.Time, or nil).
type Record map[string]interface{}

// CellKind identifies the variant held by a Cell. Every cell read from a
// source workbook is classified into exactly one of these kinds; downstream
// stages never operate on raw dynamic values.
type CellKind int

const (
	// CellBlank is an empty or whitespace-only cell.
	CellBlank CellKind = iota
	// CellText holds arbitrary text.
	CellText
	// CellNumber holds a numeric value.
	CellNumber
	// CellDate holds a calendar date or timestamp.
	CellDate
	// CellError holds a spreadsheet error marker (e.g. "#DIV/0!").
	CellError
)

// String returns the kind name for diagnostics.
func (k CellKind) String() string {
	switch k {
	case CellBlank:
		return "blank"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	case CellError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell is the tagged variant for one spreadsheet cell. Exactly the field
// matching Kind is meaningful; Raw always preserves the original text for
// diagnostics.
type Cell struct {
	Kind   CellKind
	Raw    string
	Text   string
	Number float64
	Date   time.Time
	ErrVal string
}

// BlankCell returns a blank cell.
func BlankCell() Cell { return Cell{Kind: CellBlank} }

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, Raw: s, Text: s} }

// NumberCell returns a numeric cell.
func NumberCell(raw string, n float64) Cell {
	return Cell{Kind: CellNumber, Raw: raw, Number: n}
}

// DateCell returns a date cell.
func DateCell(raw string, t time.Time) Cell {
	return Cell{Kind: CellDate, Raw: raw, Date: t}
}

// ErrorCell returns a spreadsheet-error cell.
func ErrorCell(marker string) Cell {
	return Cell{Kind: CellError, Raw: marker, ErrVal: marker}
}

// IsBlank reports whether the cell holds no value.
func (c Cell) IsBlank() bool { return c.Kind == CellBlank }

// RawRow is an ordered sequence of cells read from one sheet, tagged with
// its origin for diagnostics. Row indexes are 1-based and include the
// header row.
type RawRow struct {
	Sheet string
	Index int
	Cells []Cell
}

// NormalizedRecord is a schema-conformant record plus a reference back to
// its source row for error reporting.
type NormalizedRecord struct {
	SourceRow int
	Values    Record
}

// RejectedRow records one row excluded from the output, with the source
// position and the reason it failed normalization.
type RejectedRow struct {
	Sheet  string
	Row    int
	Column string
	Reason string
}

func (r RejectedRow) String() string {
	return fmt.Sprintf("%s!%d column %q: %s", r.Sheet, r.Row, r.Column, r.Reason)
}

// UnresolvedReference records a foreign-key value that did not match any
// natural key in the referenced table. The owning row is kept with a null
// key rather than dropped.
type UnresolvedReference struct {
	Table     string
	RefTable  string
	Column    string
	Key       string
	SourceRow int
}

func (u UnresolvedReference) String() string {
	return fmt.Sprintf("%s row %d column %q: no %s row with key %q",
		u.Table, u.SourceRow, u.Column, u.RefTable, u.Key)
}

// ObjectID identifies one object in the storage collaborator.
type ObjectID struct {
	Bucket string
	Key    string
}

func (o ObjectID) String() string { return o.Bucket + "/" + o.Key }
