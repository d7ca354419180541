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

package dimension

import (
	"fmt"
	"sort"
	"time"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/schema"
)

// The date dimension is synthesized, not read: the distinct date values of
// the configured source columns become one calendar row each, sorted
// ascending so output is deterministic regardless of input order.

// DateColumns is the fixed column set of a derived date dimension.
var DateColumns = []string{"date_id", "date", "year", "month", "day", "weekday"}

func buildDateDimension(spec schema.DateDimensionSpec, built map[string]*Table) (*Table, error) {
	sources, err := spec.ParsedSources()
	if err != nil {
		return nil, err
	}

	distinct := make(map[time.Time]bool)
	for _, src := range sources {
		tbl, ok := built[src.Table]
		if !ok {
			return nil, fmt.Errorf("date dimension: table %q not built", src.Table)
		}
		for _, row := range tbl.Rows {
			if t, ok := row.Values[src.Column].(time.Time); ok {
				distinct[t.Truncate(24*time.Hour)] = true
			}
		}
	}

	dates := make([]time.Time, 0, len(distinct))
	for t := range distinct {
		dates = append(dates, t)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	tbl := &Table{
		Name:    spec.Table,
		Columns: DateColumns,
		index:   make(map[string]int, len(dates)),
	}
	for i, t := range dates {
		values := core.Record{
			"date_id": int64(t.Year()*10000 + int(t.Month())*100 + t.Day()),
			"date":    t,
			"year":    int64(t.Year()),
			"month":   int64(t.Month()),
			"day":     int64(t.Day()),
			"weekday": t.Weekday().String(),
		}
		tbl.index[core.FormatValue(t)] = i
		tbl.Rows = append(tbl.Rows, Row{Key: int64(i + 1), Values: values})
	}
	return tbl, nil
}
