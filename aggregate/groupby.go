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

package aggregate

import (
	"context"
	"fmt"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/schema"
)

// GroupBy computes named aggregates over records grouped by one key column.
type GroupBy struct {
	keyColumn string
	names     []string
	ctors     map[string]func() (Aggregator, error)
}

// NewGroupBy creates a GroupBy keyed on the given column.
func NewGroupBy(keyColumn string) *GroupBy {
	return &GroupBy{
		keyColumn: keyColumn,
		ctors:     make(map[string]func() (Aggregator, error)),
	}
}

// Measure adds an output column computed by the given measure function.
func (g *GroupBy) Measure(outputField string, fn schema.MeasureFunc, sourceField string) *GroupBy {
	g.names = append(g.names, outputField)
	g.ctors[outputField] = func() (Aggregator, error) { return New(fn, sourceField) }
	return g
}

// Count adds a record-count output column.
func (g *GroupBy) Count(outputField string) *GroupBy {
	return g.Measure(outputField, schema.MeasureCount, "")
}

// Sum adds a sum output column over the source field.
func (g *GroupBy) Sum(sourceField, outputField string) *GroupBy {
	return g.Measure(outputField, schema.MeasureSum, sourceField)
}

// Avg adds an average output column over the source field.
func (g *GroupBy) Avg(sourceField, outputField string) *GroupBy {
	return g.Measure(outputField, schema.MeasureAvg, sourceField)
}

// Process aggregates the records and returns, per group key, a record of
// the measure output columns. The group key is the canonical text form of
// the key column's value.
func (g *GroupBy) Process(ctx context.Context, records []core.NormalizedRecord) (map[string]core.Record, error) {
	groups := make(map[string]map[string]Aggregator)

	for _, rec := range records {
		key := core.FormatValue(rec.Values[g.keyColumn])

		aggs, exists := groups[key]
		if !exists {
			aggs = make(map[string]Aggregator, len(g.names))
			for _, name := range g.names {
				agg, err := g.ctors[name]()
				if err != nil {
					return nil, err
				}
				aggs[name] = agg
			}
			groups[key] = aggs
		}

		for name, agg := range aggs {
			if err := agg.Add(ctx, rec.Values); err != nil {
				return nil, fmt.Errorf("aggregation error for field %s: %w", name, err)
			}
		}
	}

	results := make(map[string]core.Record, len(groups))
	for key, aggs := range groups {
		out := make(core.Record, len(aggs))
		for name, agg := range aggs {
			out[name] = agg.Result()
		}
		results[key] = out
	}
	return results, nil
}
