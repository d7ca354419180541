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
	"context"
)

// This file contains the primary interfaces between pipeline stages and
// toward the external storage collaborator.

// RowSource streams raw rows from a single sheet.
// Implementations return io.EOF when no more rows are available.
type RowSource interface {
	// Read returns the next row or io.EOF when the sheet is exhausted.
	Read(ctx context.Context) (RawRow, error)
	// Close releases any resources held by the source.
	Close() error
}

// SheetSource is a decoded workbook: an ordered set of named sheets, each
// of which can be streamed as rows. Rows may be called more than once for
// the same sheet; every call restarts from the first row.
type SheetSource interface {
	// Sheets returns sheet names in container storage order.
	Sheets() []string
	// Rows opens a row stream over the named sheet.
	Rows(sheet string) (RowSource, error)
	// Close releases the decoded container.
	Close() error
}

// ObjectStore is the storage read/write collaborator. Implementations are
// expected to return *NotFoundError from Get when the object no longer
// exists, and to make Put overwrite-safe (same key, same final artifact).
type ObjectStore interface {
	// Get fetches the full object payload.
	Get(ctx context.Context, id ObjectID) ([]byte, error)
	// Put writes the payload, replacing any existing object.
	Put(ctx context.Context, id ObjectID, data []byte) error
}
