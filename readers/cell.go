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
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/sheetmart/core"
)

// Readers hand every cell to ParseCell so that downstream stages only ever
// see the closed {blank, text, number, date, error} variant, never a raw
// dynamic value.

// dateLayouts are tried in order when classifying a cell as a date.
// 2-digit-year forms are deliberately absent: they are ambiguous and the
// normalizer rejects what it cannot coerce.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// spreadsheet error markers, per the xlsx error literal set.
var errorMarkers = map[string]bool{
	"#DIV/0!": true,
	"#N/A":    true,
	"#NAME?":  true,
	"#NULL!":  true,
	"#NUM!":   true,
	"#REF!":   true,
	"#VALUE!": true,
}

// ParseCell classifies one raw cell value into the tagged cell variant.
// Classification is value-based: blank, then error marker, then number,
// then date, otherwise text.
func ParseCell(value string) core.Cell {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return core.BlankCell()
	}
	if errorMarkers[trimmed] {
		return core.ErrorCell(trimmed)
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return core.NumberCell(trimmed, n)
	}
	if t, ok := ParseDate(trimmed); ok {
		return core.DateCell(trimmed, t)
	}
	return core.TextCell(trimmed)
}

// ParseDate parses a date literal against the fixed layout set.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
