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

package sheetmart

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaronlmathis/sheetmart/core"
)

// RunReport aggregates every diagnostic of one pipeline invocation. It is
// produced on success and on aggregate failure alike, so the logging
// collaborator always sees the true extent of what happened.
type RunReport struct {
	RunID       uuid.UUID
	Source      core.ObjectID
	Destination core.ObjectID

	RowsRead   int
	Accepted   int
	Rejected   []core.RejectedRow
	Unresolved []core.UnresolvedReference

	// TableCounts maps each output table to its row count, in no
	// particular order; Tables preserves build order.
	Tables      []string
	TableCounts map[string]int

	Started  time.Time
	Finished time.Time
}

// RejectRatio returns the rejected fraction of all data rows read.
func (r *RunReport) RejectRatio() float64 {
	if r.RowsRead == 0 {
		return 0
	}
	return float64(len(r.Rejected)) / float64(r.RowsRead)
}
