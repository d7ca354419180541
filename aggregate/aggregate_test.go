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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/schema"
)

func rec(values core.Record) core.NormalizedRecord {
	return core.NormalizedRecord{Values: values}
}

func TestCountAggregator(t *testing.T) {
	agg, err := New(schema.MeasureCount, "")
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, agg.Add(ctx, core.Record{}))
	}
	assert.Equal(t, int64(3), agg.Result())

	agg.Reset()
	assert.Equal(t, int64(0), agg.Result())
}

func TestSumAggregator(t *testing.T) {
	ctx := context.Background()

	t.Run("int column stays int", func(t *testing.T) {
		agg, err := New(schema.MeasureSum, "qty")
		require.NoError(t, err)
		require.NoError(t, agg.Add(ctx, core.Record{"qty": int64(2)}))
		require.NoError(t, agg.Add(ctx, core.Record{"qty": int64(5)}))
		assert.Equal(t, int64(7), agg.Result())
	})

	t.Run("float column yields float", func(t *testing.T) {
		agg, err := New(schema.MeasureSum, "amount")
		require.NoError(t, err)
		require.NoError(t, agg.Add(ctx, core.Record{"amount": 1.5}))
		require.NoError(t, agg.Add(ctx, core.Record{"amount": 2.25}))
		assert.Equal(t, 3.75, agg.Result())
	})

	t.Run("mixed ints and floats yield float", func(t *testing.T) {
		agg, err := New(schema.MeasureSum, "x")
		require.NoError(t, err)
		require.NoError(t, agg.Add(ctx, core.Record{"x": int64(1)}))
		require.NoError(t, agg.Add(ctx, core.Record{"x": 0.5}))
		assert.Equal(t, 1.5, agg.Result())
	})

	t.Run("nulls are skipped", func(t *testing.T) {
		agg, err := New(schema.MeasureSum, "x")
		require.NoError(t, err)
		require.NoError(t, agg.Add(ctx, core.Record{"x": nil}))
		require.NoError(t, agg.Add(ctx, core.Record{"x": int64(4)}))
		assert.Equal(t, int64(4), agg.Result())
	})
}

func TestAvgAggregator(t *testing.T) {
	ctx := context.Background()

	agg, err := New(schema.MeasureAvg, "discount")
	require.NoError(t, err)

	// No values yet: average is null, not zero.
	assert.Nil(t, agg.Result())

	require.NoError(t, agg.Add(ctx, core.Record{"discount": 0.1}))
	require.NoError(t, agg.Add(ctx, core.Record{"discount": 0.3}))
	require.NoError(t, agg.Add(ctx, core.Record{"discount": nil}))
	assert.InDelta(t, 0.2, agg.Result().(float64), 1e-9)
}

func TestNewUnknownFunc(t *testing.T) {
	_, err := New(schema.MeasureFunc("median"), "x")
	assert.Error(t, err)
}

func TestGroupByProcess(t *testing.T) {
	records := []core.NormalizedRecord{
		rec(core.Record{"customer_id": int64(1), "quantity": int64(2), "discount": 0.1}),
		rec(core.Record{"customer_id": int64(1), "quantity": int64(3), "discount": 0.3}),
		rec(core.Record{"customer_id": int64(2), "quantity": int64(7), "discount": 0.0}),
	}

	g := NewGroupBy("customer_id").
		Count("order_count").
		Sum("quantity", "total_quantity").
		Avg("discount", "mean_discount")

	results, err := g.Process(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, results, 2)

	one := results["1"]
	require.NotNil(t, one)
	assert.Equal(t, int64(2), one["order_count"])
	assert.Equal(t, int64(5), one["total_quantity"])
	assert.InDelta(t, 0.2, one["mean_discount"].(float64), 1e-9)

	two := results["2"]
	require.NotNil(t, two)
	assert.Equal(t, int64(1), two["order_count"])
	assert.Equal(t, int64(7), two["total_quantity"])
}

func TestGroupByEmptyInput(t *testing.T) {
	g := NewGroupBy("k").Count("n")
	results, err := g.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
