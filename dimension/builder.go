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
	"context"
	"strings"

	"github.com/aaronlmathis/sheetmart/aggregate"
	"github.com/aaronlmathis/sheetmart/core"
	"github.com/aaronlmathis/sheetmart/schema"
)

// Package dimension turns normalized records into dimension and fact
// tables: surrogate keys, natural-key deduplication, and foreign-key
// resolution. The whole build is a single forward pass per table over an
// ordered natural-key index, so the same input sequence always yields the
// same surrogate key assignment.

// MergePolicy decides what happens when a natural-key tuple repeats.
type MergePolicy int

const (
	// FirstWins keeps the first occurrence's attributes and ignores later
	// duplicates. This is the conventional dimensional-ETL default.
	FirstWins MergePolicy = iota
	// LastWins replaces the attributes with each later occurrence's values.
	// The surrogate key never changes.
	LastWins
)

// tupleSep separates natural-key components. A unit separator cannot occur
// in coerced cell values, so tuples never collide.
const tupleSep = "\x1f"

// Row is one output table row: a surrogate key plus the column values.
type Row struct {
	Key       int64
	Values    core.Record
	SourceRow int
}

// Table is an ordered dimension or fact table. Natural-key tuples are
// unique within a table; surrogate keys are contiguous starting at 1.
// Read-only once handed to the serializer.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
	index   map[string]int
}

// Lookup resolves a natural-key tuple to its surrogate key.
func (t *Table) Lookup(tuple string) (int64, bool) {
	pos, ok := t.index[tuple]
	if !ok {
		return 0, false
	}
	return t.Rows[pos].Key, true
}

// Option configures a Builder.
type Option func(*Builder)

// WithMergePolicy sets the duplicate natural-key policy.
func WithMergePolicy(p MergePolicy) Option {
	return func(b *Builder) { b.policy = p }
}

// Builder assembles output tables from normalized records.
type Builder struct {
	policy MergePolicy
}

// NewBuilder creates a Builder with default or overridden options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{policy: FirstWins}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the output tables in dependency order, plus the
// unresolved-reference diagnostics collected along the way. Running Build
// twice on the same input yields identical tables.
func (b *Builder) Build(ctx context.Context, records map[string][]core.NormalizedRecord, def *schema.Definition) ([]*Table, []core.UnresolvedReference, error) {
	order, err := def.BuildOrder()
	if err != nil {
		return nil, nil, err
	}

	built := make(map[string]*Table, len(order))
	var tables []*Table
	var unresolved []core.UnresolvedReference

	for _, spec := range order {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		tbl, diags, err := b.buildOne(ctx, spec, records[spec.Table], built)
		if err != nil {
			return nil, nil, err
		}
		built[spec.Table] = tbl
		tables = append(tables, tbl)
		unresolved = append(unresolved, diags...)
	}

	if def.DateDimension != nil {
		tbl, err := buildDateDimension(*def.DateDimension, built)
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, tbl)
	}

	return tables, unresolved, nil
}

// buildOne runs the single forward pass for one table.
func (b *Builder) buildOne(ctx context.Context, spec schema.DimensionSpec, records []core.NormalizedRecord, built map[string]*Table) (*Table, []core.UnresolvedReference, error) {
	tbl := &Table{
		Name:    spec.Table,
		Columns: outputColumns(spec),
		index:   make(map[string]int),
	}

	measures, err := computeMeasures(ctx, spec, records)
	if err != nil {
		return nil, nil, err
	}

	// Diagnostics are keyed by row position so an in-place merge replaces
	// the surviving row's diagnostics instead of accumulating duplicates.
	diags := make(map[int][]core.UnresolvedReference)
	for _, rec := range records {
		tuple := keyTuple(rec.Values, spec.NaturalKey)

		pos, seen := tbl.index[tuple]
		if seen && b.policy == FirstWins {
			continue
		}

		values := make(core.Record, len(tbl.Columns))
		for _, col := range spec.NaturalKey {
			values[col] = rec.Values[col]
		}
		for _, col := range spec.Attributes {
			values[col] = rec.Values[col]
		}
		var rowDiags []core.UnresolvedReference
		for _, fk := range spec.ForeignKeys {
			refTuple := keyTuple(rec.Values, fk.SourceColumns)
			if key, ok := built[fk.Table].Lookup(refTuple); ok {
				values[fk.Column] = key
				continue
			}
			values[fk.Column] = nil
			rowDiags = append(rowDiags, core.UnresolvedReference{
				Table:     spec.Table,
				RefTable:  fk.Table,
				Column:    fk.Column,
				Key:       displayTuple(rec.Values, fk.SourceColumns),
				SourceRow: rec.SourceRow,
			})
		}
		for _, m := range spec.Measures {
			group := core.FormatValue(rec.Values[m.GroupBy])
			if vals, ok := measures[m.GroupBy][group]; ok {
				values[m.Name] = vals[m.Name]
			}
		}

		if seen {
			// LastWins: replace in place, keep the surrogate key.
			tbl.Rows[pos].Values = values
			tbl.Rows[pos].SourceRow = rec.SourceRow
			diags[pos] = rowDiags
			continue
		}

		diags[len(tbl.Rows)] = rowDiags
		tbl.index[tuple] = len(tbl.Rows)
		tbl.Rows = append(tbl.Rows, Row{
			Key:       int64(len(tbl.Rows) + 1),
			Values:    values,
			SourceRow: rec.SourceRow,
		})
	}

	var unresolved []core.UnresolvedReference
	for i := range tbl.Rows {
		unresolved = append(unresolved, diags[i]...)
	}
	return tbl, unresolved, nil
}

// computeMeasures evaluates the spec's grouped measures once per group
// column, before the row pass.
func computeMeasures(ctx context.Context, spec schema.DimensionSpec, records []core.NormalizedRecord) (map[string]map[string]core.Record, error) {
	byGroup := make(map[string]*aggregate.GroupBy)
	for _, m := range spec.Measures {
		g, ok := byGroup[m.GroupBy]
		if !ok {
			g = aggregate.NewGroupBy(m.GroupBy)
			byGroup[m.GroupBy] = g
		}
		g.Measure(m.Name, m.Func, m.Source)
	}

	results := make(map[string]map[string]core.Record, len(byGroup))
	for groupCol, g := range byGroup {
		res, err := g.Process(ctx, records)
		if err != nil {
			return nil, err
		}
		results[groupCol] = res
	}
	return results, nil
}

// outputColumns fixes the table's column order: natural key, then
// attributes, then foreign keys, then measures, each in declaration order.
func outputColumns(spec schema.DimensionSpec) []string {
	cols := make([]string, 0, len(spec.NaturalKey)+len(spec.Attributes)+len(spec.ForeignKeys)+len(spec.Measures))
	cols = append(cols, spec.NaturalKey...)
	cols = append(cols, spec.Attributes...)
	for _, fk := range spec.ForeignKeys {
		cols = append(cols, fk.Column)
	}
	for _, m := range spec.Measures {
		cols = append(cols, m.Name)
	}
	return cols
}

// keyTuple builds the canonical natural-key tuple for index lookups.
func keyTuple(values core.Record, cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = core.FormatValue(values[col])
	}
	return strings.Join(parts, tupleSep)
}

// displayTuple is the human-readable form used in diagnostics.
func displayTuple(values core.Record, cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = core.FormatValue(values[col])
	}
	return strings.Join(parts, ",")
}
