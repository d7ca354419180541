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

// Package aggregate computes the grouped measures attached to fact-table
// rows (order counts per customer, total quantity per product, and the
// like).

// Aggregator defines the interface for data aggregation operations.
// Aggregators process multiple records and produce a summary value.
type Aggregator interface {
	// Add processes a record for aggregation.
	Add(ctx context.Context, record core.Record) error
	// Result returns the aggregated value.
	Result() interface{}
	// Reset clears the aggregator state for reuse.
	Reset()
}

// New returns an aggregator for the given measure function.
func New(fn schema.MeasureFunc, field string) (Aggregator, error) {
	switch fn {
	case schema.MeasureCount:
		return &CountAggregator{}, nil
	case schema.MeasureSum:
		return &SumAggregator{Field: field}, nil
	case schema.MeasureAvg:
		return &AvgAggregator{Field: field}, nil
	default:
		return nil, fmt.Errorf("unknown measure func %q", fn)
	}
}

// CountAggregator counts records.
type CountAggregator struct {
	n int64
}

func (a *CountAggregator) Add(ctx context.Context, record core.Record) error {
	a.n++
	return nil
}

func (a *CountAggregator) Result() interface{} { return a.n }

func (a *CountAggregator) Reset() { a.n = 0 }

// SumAggregator sums a numeric field. Null values are skipped.
type SumAggregator struct {
	Field string
	sum   float64
	ints  bool
	seen  bool
}

func (a *SumAggregator) Add(ctx context.Context, record core.Record) error {
	v, ok, isInt := numeric(record[a.Field])
	if !ok {
		return nil
	}
	if !a.seen {
		a.ints = isInt
		a.seen = true
	} else if !isInt {
		a.ints = false
	}
	a.sum += v
	return nil
}

// Result preserves integer-ness: summing int columns yields an int64.
func (a *SumAggregator) Result() interface{} {
	if a.ints {
		return int64(a.sum)
	}
	return a.sum
}

func (a *SumAggregator) Reset() { a.sum = 0; a.ints = false; a.seen = false }

// AvgAggregator averages a numeric field. Null values are skipped.
type AvgAggregator struct {
	Field string
	sum   float64
	n     int64
}

func (a *AvgAggregator) Add(ctx context.Context, record core.Record) error {
	v, ok, _ := numeric(record[a.Field])
	if !ok {
		return nil
	}
	a.sum += v
	a.n++
	return nil
}

func (a *AvgAggregator) Result() interface{} {
	if a.n == 0 {
		return nil
	}
	return a.sum / float64(a.n)
}

func (a *AvgAggregator) Reset() { a.sum = 0; a.n = 0 }

// numeric extracts a float from a typed record value. The third return
// reports whether the source value was integral.
func numeric(v interface{}) (f float64, ok bool, isInt bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true, true
	case int:
		return float64(val), true, true
	case float64:
		return val, true, false
	default:
		return 0, false, false
	}
}
