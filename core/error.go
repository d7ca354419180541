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
	"strings"
)

// This file contains the structural error taxonomy shared by all pipeline
// stages. Structural errors abort the run and produce no output; row-level
// problems are diagnostics (RejectedRow, UnresolvedReference), not errors.

// MalformedInputError indicates the source payload is not a recognizable
// spreadsheet container.
type MalformedInputError struct {
	Source string
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %q: %v", e.Source, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SchemaMismatchError indicates a sheet is structurally incompatible with
// its declared schema: the sheet is absent, has no header row, or is
// missing expected header columns.
type SchemaMismatchError struct {
	Sheet   string
	Missing []string
	Reason  string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema mismatch in sheet %q: missing columns %s",
			e.Sheet, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("schema mismatch in sheet %q: %s", e.Sheet, e.Reason)
}

// CyclicDimensionError indicates the declared dimension dependencies cannot
// be ordered because they contain a cycle.
type CyclicDimensionError struct {
	Tables []string
}

func (e *CyclicDimensionError) Error() string {
	return fmt.Sprintf("cyclic dimension dependencies among tables: %s",
		strings.Join(e.Tables, ", "))
}

// InsufficientDataError indicates too much of the input was lost to
// row-level rejection (or a required table came out empty) to trust the
// output. The run aborts without uploading anything.
type InsufficientDataError struct {
	Rejected    int
	Total       int
	Threshold   float64
	EmptyTables []string
}

func (e *InsufficientDataError) Error() string {
	if len(e.EmptyTables) > 0 {
		return fmt.Sprintf("insufficient data: required tables empty after rejection: %s",
			strings.Join(e.EmptyTables, ", "))
	}
	return fmt.Sprintf("insufficient data: %d of %d rows rejected (threshold %.2f)",
		e.Rejected, e.Total, e.Threshold)
}

// Ratio returns the rejected fraction of the input.
func (e *InsufficientDataError) Ratio() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Rejected) / float64(e.Total)
}

// NotFoundError indicates the source object no longer exists in the store.
// The orchestrator propagates it unmasked; the invocation runtime treats it
// as a retryable no-op.
type NotFoundError struct {
	Object ObjectID
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %s not found: %v", e.Object, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }
